package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BrokerNATS  = "nats"
	BrokerRedis = "redis"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL     string        `env:"DATABASE_URL"`
	MigrationsPath  string        `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	DBMaxConns      int           `env:"DB_MAX_CONNS" envDefault:"10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Redis Config
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string        `env:"REDIS_PASSWORD"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Broker Config
	BrokerDriver      string        `env:"BROKER_DRIVER" envDefault:"nats"`
	NATSURL           string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSName          string        `env:"NATS_NAME" envDefault:"ms-incidentes"`
	NATSReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	NATSMaxReconnects int           `env:"NATS_MAX_RECONNECTS" envDefault:"10"`

	InboundExchange   string `env:"INBOUND_EXCHANGE" envDefault:"emergencias"`
	InboundRoutingKey string `env:"INBOUND_ROUTING_KEY" envDefault:"mensaje.clasificado"`
	InboundQueue      string `env:"INBOUND_QUEUE" envDefault:"incidentes.queue"`
	OutboundExchange  string `env:"OUTBOUND_EXCHANGE" envDefault:"recursos"`

	// Lifecycle
	StrictStatusTransitions bool `env:"STRICT_STATUS_TRANSITIONS" envDefault:"false"`

	// HTTP
	APIGatewayURL string   `env:"API_GATEWAY_URL" envDefault:"http://localhost:3000"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		MigrationsPath:          getEnv("MIGRATIONS_PATH", "file://migrations"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "json")),
		DBMaxConns:              getEnvAsInt("DB_MAX_CONNS", 10),
		ShutdownTimeout:         getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:               os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getEnvAsInt("REDIS_DB", 0),
		CacheTTL:                getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		BrokerDriver:            strings.ToLower(getEnv("BROKER_DRIVER", BrokerNATS)),
		NATSURL:                 getEnv("NATS_URL", "nats://localhost:4222"),
		NATSName:                getEnv("NATS_NAME", "ms-incidentes"),
		NATSReconnectWait:       getEnvAsDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NATSMaxReconnects:       getEnvAsInt("NATS_MAX_RECONNECTS", 10),
		InboundExchange:         getEnv("INBOUND_EXCHANGE", "emergencias"),
		InboundRoutingKey:       getEnv("INBOUND_ROUTING_KEY", "mensaje.clasificado"),
		InboundQueue:            getEnv("INBOUND_QUEUE", "incidentes.queue"),
		OutboundExchange:        getEnv("OUTBOUND_EXCHANGE", "recursos"),
		StrictStatusTransitions: getEnvAsBool("STRICT_STATUS_TRANSITIONS", false),
		APIGatewayURL:           getEnv("API_GATEWAY_URL", "http://localhost:3000"),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		for _, key := range strings.Split(apiKeysStr, ",") {
			if key = strings.TrimSpace(key); key != "" {
				cfg.APIKeys = append(cfg.APIKeys, key)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.BrokerDriver != BrokerNATS && cfg.BrokerDriver != BrokerRedis {
		return nil, fmt.Errorf("unsupported BROKER_DRIVER %q", cfg.BrokerDriver)
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool возвращает значение переменной окружения как bool или значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
