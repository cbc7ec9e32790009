package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Refresh     RefreshConfig     `envconfig:"REFRESH"`
	MarketData  MarketDataConfig  `envconfig:"MARKET"`
	Sensitivity SensitivityConfig `envconfig:"SENSITIVITY"`
	Store       StoreConfig       `envconfig:"STORE"`
	Database    DatabaseConfig    `envconfig:"DB"`
	Redis       RedisConfig       `envconfig:"REDIS"`
	ClickHouse  ClickHouseConfig  `envconfig:"CLICKHOUSE"`
	Telegram    TelegramConfig    `envconfig:"TELEGRAM"`
	Logging     LoggingConfig     `envconfig:"LOG"`
}

// RefreshConfig controls the pipeline refresh cycle
type RefreshConfig struct {
	Interval       time.Duration `envconfig:"REFRESH_INTERVAL" default:"60s"`
	Timeframe      string        `envconfig:"REFRESH_TIMEFRAME" default:"24h"`
	ReviewInterval time.Duration `envconfig:"REFRESH_REVIEW_INTERVAL" default:"1h"`
}

// MarketDataConfig controls the upstream market data provider
type MarketDataConfig struct {
	Provider   string        `envconfig:"MARKET_PROVIDER" default:"coingecko"`
	TopN       int           `envconfig:"MARKET_TOP_N" default:"100"`
	CacheTTL   time.Duration `envconfig:"MARKET_CACHE_TTL" default:"30s"`
	LiveStream bool          `envconfig:"MARKET_LIVE_STREAM" default:"false"`
}

// SensitivityConfig seeds the signal filter before any user override
type SensitivityConfig struct {
	DefaultThreshold float64 `envconfig:"SENSITIVITY_DEFAULT_THRESHOLD" default:"70"`
}

// StoreConfig selects the key-value store backend
type StoreConfig struct {
	Backend  string `envconfig:"STORE_BACKEND" default:"file"` // memory, file, redis, postgres
	FilePath string `envconfig:"STORE_FILE_PATH" default:"data/market-pulse.json"`
}

// DatabaseConfig represents database connection parameters (postgres backend)
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"marketpulse"`
	User     string `envconfig:"DB_USER" required:"false"`
	Password string `envconfig:"DB_PASSWORD" required:"false"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// RedisConfig represents redis connection parameters (redis backend)
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_PREFIX" default:"market-pulse"`
}

// ClickHouseConfig controls the optional tick metrics sink
type ClickHouseConfig struct {
	Enabled bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	DSN     string `envconfig:"CLICKHOUSE_DSN" default:"clickhouse://localhost:9000/default"`
}

// TelegramConfig represents the alert notifier configuration
type TelegramConfig struct {
	BotToken       string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID         int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
	AlertOnSignals bool   `envconfig:"TELEGRAM_ALERT_ON_SIGNALS" default:"true"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Refresh.Interval < 10*time.Second {
		return fmt.Errorf("refresh interval must be at least 10s")
	}

	if c.Refresh.ReviewInterval < time.Minute {
		return fmt.Errorf("refresh review interval must be at least 1m")
	}

	if c.MarketData.TopN < 1 || c.MarketData.TopN > 250 {
		return fmt.Errorf("market top_n must be between 1 and 250")
	}

	switch c.Store.Backend {
	case "memory", "file", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Store.Backend == "postgres" && c.Database.User == "" {
		return fmt.Errorf("db user is required for the postgres store backend")
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram chat_id is required when a bot token is set")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
