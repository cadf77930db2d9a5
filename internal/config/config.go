package config

import (
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/retailcore/pos-gateway/pkg/logger"
)

var config *Config

// Config holds every value the services read from the environment. Nothing
// outside this package touches env vars directly; secrets and defaults are
// injected into constructors from here.
type Config struct {
	AppEnv  string `env:"APP_ENV" default:"dev"`
	AppName string `env:"APP_NAME" default:"pos_gateway"`
	AppDebug bool  `env:"APP_DEBUG" default:"1"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	JWTSecret    string        `env:"JWT_SECRET" default:"supersecret"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" default:"24h"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	MigrationsDir string `env:"MIGRATIONS_DIR" default:"migrations"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE" default:"pos"`

	ReceiptQueueName          string        `env:"RECEIPT_QUEUE_NAME" default:"receipts"`
	ReceiptConsumerGroup      string        `env:"RECEIPT_CONSUMER_GROUP" default:"receipt-notifier"`
	ReceiptConsumerName       string        `env:"RECEIPT_CONSUMER_NAME"`
	ReceiptMaxRetries         int           `env:"RECEIPT_MAX_RETRIES" default:"3"`
	ReceiptVisibilityTimeout  time.Duration `env:"RECEIPT_VISIBILITY_TIMEOUT" default:"30s"`
	ReceiptPollInterval       time.Duration `env:"RECEIPT_POLL_INTERVAL" default:"1s"`
	ReceiptBatchSize          int64         `env:"RECEIPT_BATCH_SIZE" default:"10"`
	ReceiptMaxLen             int64         `env:"RECEIPT_MAX_LEN" default:"100000"`
	ReceiptEnableDLQ          bool          `env:"RECEIPT_ENABLE_DLQ" default:"1"`
	ReceiptGatewayUrl         string        `env:"RECEIPT_GATEWAY_URL"`
	ReceiptGatewayTimeout     time.Duration `env:"RECEIPT_GATEWAY_TIMEOUT" default:"5s"`
	ReceiptGatewayMaxRetries  int           `env:"RECEIPT_GATEWAY_MAX_RETRIES" default:"3"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
