package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=3000
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=postgres
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=stockdash
//	POSTGRES_SSLMODE=disable
//	QUERY_TIMEOUT=5s
//	REDIS_ADDR=localhost:6379
//	KAFKA_BROKERS=localhost:9092
type Config struct {
	Server    ServerConfig    // HTTP server configuration
	Postgres  PostgresConfig  // PostgreSQL connection settings
	Dashboard DashboardConfig // Windows and limits applied to the aggregate endpoint
	RateLimit RateLimitConfig // Per-client request limits
	Redis     RedisConfig     // Optional shared store for rate limiting
	Kafka     KafkaConfig     // Optional domain event sink
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "3000")
	RequestTimeout time.Duration // Upper bound applied to every request context
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host, Port, User, Password, DBName, SSLMode: connection parameters.
//   - QueryTimeout: deadline applied to each individual query.
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	QueryTimeout time.Duration
	URL          string
}

// DashboardConfig bounds the recent windows read by GET /api/stock-data.
type DashboardConfig struct {
	PriceWindowDays    int
	NewsLimit          int
	EarningsWindowDays int
	EarningsLimit      int
}

// RateLimitConfig caps requests per client IP per minute. Zero disables limiting.
type RateLimitConfig struct {
	PerMinute int
}

// RedisConfig is optional; an empty Addr keeps rate limiting in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig is optional; no brokers means events are dropped.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Missing critical variables terminate the process through validateConfig().
func LoadConfig() {
	setDefaults()

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("REQUEST_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			Host:         viper.GetString("POSTGRES_HOST"),
			Port:         viper.GetInt("POSTGRES_PORT"),
			User:         viper.GetString("POSTGRES_USER"),
			Password:     viper.GetString("POSTGRES_PASSWORD"),
			DBName:       viper.GetString("POSTGRES_DB"),
			SSLMode:      viper.GetString("POSTGRES_SSLMODE"),
			QueryTimeout: viper.GetDuration("QUERY_TIMEOUT"),
		},
		Dashboard: DashboardConfig{
			PriceWindowDays:    viper.GetInt("PRICE_WINDOW_DAYS"),
			NewsLimit:          viper.GetInt("NEWS_LIMIT"),
			EarningsWindowDays: viper.GetInt("EARNINGS_WINDOW_DAYS"),
			EarningsLimit:      viper.GetInt("EARNINGS_LIMIT"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
	}

	AppConfig.Postgres.URL = AppConfig.Postgres.DSN()

	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("REQUEST_TIMEOUT", "15s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "stockdash")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("QUERY_TIMEOUT", "5s")

	viper.SetDefault("PRICE_WINDOW_DAYS", 30)
	viper.SetDefault("NEWS_LIMIT", 10)
	viper.SetDefault("EARNINGS_WINDOW_DAYS", 90)
	viper.SetDefault("EARNINGS_LIMIT", 20)

	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "stockdash.users")
}

// DSN builds the lib/pq connection URL.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Postgres.QueryTimeout <= 0 {
		missing = append(missing, "QUERY_TIMEOUT")
	}
	if AppConfig.Dashboard.PriceWindowDays <= 0 {
		missing = append(missing, "PRICE_WINDOW_DAYS")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}
