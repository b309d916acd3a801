// Package config provides configuration management for the tipping bot and
// API. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Chain    ChainConfig
	Faucet   FaucetConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Logging  LoggingConfig
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host string
	Port string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken   string
	WebappURL  string
	ApproveURL string
}

// ChainConfig holds blockchain configuration
type ChainConfig struct {
	RPCURL       string
	ChainID      int64
	TokenAddress string
	ExplorerURL  string
}

// FaucetConfig holds faucet configuration. The faucet is disabled when no
// private key is configured.
type FaucetConfig struct {
	PrivateKey string
	Amount     string
}

// StorageBackend selects the persistence backend
type StorageBackend string

const (
	// BackendPostgres uses the Postgres-backed stores
	BackendPostgres StorageBackend = "postgres"
	// BackendSQLite uses the SQLite-backed stores
	BackendSQLite StorageBackend = "sqlite"
)

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Backend  StorageBackend
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// SQLiteConfig holds SQLite configuration
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	BalanceTTL     time.Duration
	LeaderboardTTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("API_PORT", "3001"),
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			WebappURL:  getEnv("WEBAPP_URL", "https://tipwalt.com"),
			ApproveURL: getEnv("APPROVE_URL", "https://walt.tip/approve"),
		},
		Chain: ChainConfig{
			RPCURL:       getEnv("BASE_RPC_URL", "https://mainnet.base.org"),
			ChainID:      int64(getEnvAsInt("BASE_CHAIN_ID", 8453)),
			TokenAddress: getEnv("WALT_TOKEN_ADDRESS", "0x1E018AC547796185f978aF6AeFa9b1e88D1Bc0b1"),
			ExplorerURL:  getEnv("EXPLORER_URL", "https://basescan.org"),
		},
		Faucet: FaucetConfig{
			PrivateKey: getEnv("FAUCET_PRIVATE_KEY", ""),
			Amount:     getEnv("FAUCET_AMOUNT", "1000"),
		},
		Storage: StorageConfig{
			Backend: StorageBackend(getEnv("STORAGE_BACKEND", "postgres")),
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "walt_tipbot"),
				User:           getEnv("POSTGRES_USER", "tipbot"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "database/tips.db"),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Cache: CacheConfig{
			BalanceTTL:     getEnvAsDuration("CACHE_BALANCE_TTL", 20*time.Second),
			LeaderboardTTL: getEnvAsDuration("CACHE_LEADERBOARD_TTL", time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if config.Storage.Backend != BackendPostgres && config.Storage.Backend != BackendSQLite {
		return nil, fmt.Errorf("unknown storage backend: %s", config.Storage.Backend)
	}

	return config, nil
}

// FaucetEnabled reports whether a faucet signing key is configured.
func (c *Config) FaucetEnabled() bool {
	return c.Faucet.PrivateKey != ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
