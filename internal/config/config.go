// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port     int
	APIToken string
	LogLevel string
	DevMode  bool // DevMode swaps Postgres for the in-memory store

	StartingBalance decimal.Decimal // paper-money balance for new accounts

	QuoteSource      string // "synthetic" or "twelvedata"
	TwelveDataAPIKey string
	QuoteCacheTTL    time.Duration

	DBConnStr string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		APIToken:         getEnv("API_TOKEN", "dev-token"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		StartingBalance:  getEnvAsDecimal("STARTING_BALANCE", decimal.NewFromInt(100000)),
		QuoteSource:      getEnv("QUOTE_SOURCE", "synthetic"),
		TwelveDataAPIKey: getEnv("TWELVE_DATA_API_KEY", ""),
		QuoteCacheTTL:    getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		DBConnStr:        buildDBConnStr(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.QuoteSource != "synthetic" && c.QuoteSource != "twelvedata" {
		return fmt.Errorf("unknown QUOTE_SOURCE %q", c.QuoteSource)
	}
	if c.QuoteSource == "twelvedata" && c.TwelveDataAPIKey == "" {
		return fmt.Errorf("TWELVE_DATA_API_KEY is required when QUOTE_SOURCE=twelvedata")
	}
	if c.StartingBalance.IsNegative() {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	return nil
}

// buildDBConnStr prefers an explicit DB_CONN_STR and otherwise builds
// the connection string from individual vars (Docker friendly).
func buildDBConnStr() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "investbuy")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
