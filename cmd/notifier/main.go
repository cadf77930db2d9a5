package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/retailcore/pos-gateway/internal/config"
	gateway "github.com/retailcore/pos-gateway/internal/gateways"
	"github.com/retailcore/pos-gateway/internal/notifier"
	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/retailcore/pos-gateway/pkg/prom"
	"github.com/retailcore/pos-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	client, err := gateway.NewClient(&gateway.Config{
		Endpoints: []gateway.EndpointConfig{
			{Name: "primary", URL: config.Get().ReceiptGatewayUrl, Weight: 100},
		},
		Timeout:                 config.Get().ReceiptGatewayTimeout,
		MaxRetries:              config.Get().ReceiptGatewayMaxRetries,
		RetryDelay:              100 * time.Millisecond,
		MaxConns:                1000,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   60 * time.Second,
	})
	if err != nil {
		logger.Error("failed to create receipt gateway client", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	guard := notifier.NewIdempotencyGuard(redisAdap, notifier.DefaultIdempotencyConfig())
	receiptNotifier := notifier.NewReceiptNotifier(client, guard)
	service := notifier.NewService(redisAdap, receiptNotifier)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := service.Start(); err != nil {
			logger.Error("failed to start notifier", "error", err)
		}
	}()

	logger.Info("notifier started", "version", version, "commit", commit, "built", date)

	select {
	case <-c:
		service.Stop()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
