package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/retailcore/pos-gateway/internal/config"
	"github.com/retailcore/pos-gateway/internal/handlers"
	"github.com/retailcore/pos-gateway/internal/queue"
	"github.com/retailcore/pos-gateway/internal/repository"
	"github.com/retailcore/pos-gateway/internal/services"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/retailcore/pos-gateway/pkg/pg"
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

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
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

	receiptQueue, err := queue.New(redisAdap, queue.Config{
		Name:              config.Get().ReceiptQueueName,
		ConsumerGroup:     config.Get().ReceiptConsumerGroup,
		ConsumerName:      config.Get().ReceiptConsumerName,
		MaxRetries:        config.Get().ReceiptMaxRetries,
		VisibilityTimeout: config.Get().ReceiptVisibilityTimeout,
		PollInterval:      config.Get().ReceiptPollInterval,
		BatchSize:         config.Get().ReceiptBatchSize,
		MaxLen:            config.Get().ReceiptMaxLen,
		EnableDLQ:         config.Get().ReceiptEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating receipt queue", "error", err)
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

	transactionRepo := repository.NewTransactionRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	shopRepo := repository.NewShopRepository(db)
	productRepo := repository.NewProductRepository(db)
	salesmanRepo := repository.NewSalesmanRepository(db)
	userRepo := repository.NewUserRepository(db)

	// services
	ledgerService := services.NewLedgerService(transactionRepo, customerRepo, productRepo, shopRepo, salesmanRepo, receiptQueue)
	queryService := services.NewQueryService(transactionRepo)
	authService := services.NewAuthService(userRepo, config.Get().JWTSecret, config.Get().JWTExpiresIn)
	customerService := services.NewCustomerService(customerRepo)
	shopService := services.NewShopService(shopRepo)
	productService := services.NewProductService(productRepo, shopRepo)
	salesmanService := services.NewSalesmanService(salesmanRepo)
	healthService := services.NewHealthService(db, redisAdap)

	// v1 handlers
	saleHandler := handlers.NewSaleHandler(ledgerService, queryService)
	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	shopHandler := handlers.NewShopHandler(shopService)
	productHandler := handlers.NewProductHandler(productService)
	salesmanHandler := handlers.NewSalesmanHandler(salesmanService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterSaleRoutes(g, saleHandler, authService)
	handlers.RegisterAuthRoutes(g, authHandler)
	handlers.RegisterCustomerRoutes(g, customerHandler, authService)
	handlers.RegisterShopRoutes(g, shopHandler, authService)
	handlers.RegisterProductRoutes(g, productHandler, authService)
	handlers.RegisterSalesmanRoutes(g, salesmanHandler, authService)
	handlers.RegisterHealthRoutes(g, healthHandler)
	g.GET("/metrics", prom.Handler())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	logger.Info("api started", "version", version, "commit", commit, "built", date)

	select {
	case <-c:
		s.Shutdown()
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
