package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	StoreDriver string
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Payment     PaymentConfig
	Orders      OrdersConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	DBName         string
	SSLMode        string
	MigrationsPath string
	Restricted     DatabaseCredentials
	Elevated       DatabaseCredentials
}

// DatabaseCredentials is one privilege tier of database access
type DatabaseCredentials struct {
	User     string
	Password string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      []string
	PaymentTopic string
}

type PaymentConfig struct {
	APIKey         string
	Endpoint       string
	Timeout        time.Duration
	ReturnBaseURL  string
	WebhookBaseURL string
	WebhookKeyHash string
	StorefrontURL  string
}

type OrdersConfig struct {
	VerifyPrices bool
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(getEnvOrViper("PAYMENT_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_TIMEOUT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrViper("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	verifyPrices, err := strconv.ParseBool(getEnvOrViper("ORDERS_VERIFY_PRICES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDERS_VERIFY_PRICES: %w", err)
	}

	restricted := DatabaseCredentials{
		User:     getEnvOrViper("DB_USER", "postgres"),
		Password: getEnvOrViper("DB_PASSWORD", "postgres"),
	}
	elevated := DatabaseCredentials{
		User:     getEnvOrViper("DB_ADMIN_USER", ""),
		Password: getEnvOrViper("DB_ADMIN_PASSWORD", ""),
	}
	if elevated.User == "" {
		elevated = restricted
	}

	returnBase := getEnvOrViper("PAYMENT_RETURN_BASE_URL", "http://localhost:8080")

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		StoreDriver: getEnvOrViper("STORE_DRIVER", "postgres"),
		Database: DatabaseConfig{
			Host:           getEnvOrViper("DB_HOST", "localhost"),
			Port:           getEnvOrViper("DB_PORT", "5432"),
			DBName:         getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:        getEnvOrViper("DB_SSLMODE", "disable"),
			MigrationsPath: getEnvOrViper("DB_MIGRATIONS_PATH", "internal/repository/postgres/migrations"),
			Restricted:     restricted,
			Elevated:       elevated,
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(getEnvOrViper("KAFKA_BROKERS", "")),
			PaymentTopic: getEnvOrViper("KAFKA_PAYMENT_TOPIC", "order-payments"),
		},
		Payment: PaymentConfig{
			APIKey:         getEnvOrViper("PAYMENT_API_KEY", ""),
			Endpoint:       getEnvOrViper("PAYMENT_ENDPOINT", ""),
			Timeout:        timeout,
			ReturnBaseURL:  returnBase,
			WebhookBaseURL: getEnvOrViper("PAYMENT_WEBHOOK_BASE_URL", returnBase),
			WebhookKeyHash: getEnvOrViper("PAYMENT_WEBHOOK_KEY_HASH", ""),
			StorefrontURL:  getEnvOrViper("STOREFRONT_URL", ""),
		},
		Orders: OrdersConfig{
			VerifyPrices: verifyPrices,
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", cfg.StoreDriver)
	}
	if cfg.Payment.Endpoint == "" {
		return nil, fmt.Errorf("PAYMENT_ENDPOINT is required")
	}
	if cfg.Environment == "production" && cfg.Payment.WebhookKeyHash == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_KEY_HASH is required in production")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
