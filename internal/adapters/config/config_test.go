package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Refresh:     RefreshConfig{Interval: time.Minute, Timeframe: "24h", ReviewInterval: time.Hour},
		MarketData:  MarketDataConfig{Provider: "coingecko", TopN: 100},
		Sensitivity: SensitivityConfig{DefaultThreshold: 70},
		Store:       StoreConfig{Backend: "memory"},
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config should pass: %v", err)
	}
}

func TestConfig_Validate_RefreshInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Refresh.Interval = 5 * time.Second

	if err := cfg.Validate(); err == nil {
		t.Error("sub-10s refresh interval should be rejected")
	}
}

func TestConfig_Validate_ReviewInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Refresh.ReviewInterval = 30 * time.Second

	if err := cfg.Validate(); err == nil {
		t.Error("sub-1m review interval should be rejected")
	}
}

func TestConfig_Validate_TopN(t *testing.T) {
	for _, n := range []int{0, -1, 251} {
		cfg := validConfig()
		cfg.MarketData.TopN = n
		if err := cfg.Validate(); err == nil {
			t.Errorf("top_n %d should be rejected", n)
		}
	}
}

func TestConfig_Validate_StoreBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Backend = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown store backend should be rejected")
	}

	cfg = validConfig()
	cfg.Store.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("postgres backend without a db user should be rejected")
	}

	cfg.Database.User = "pulse"
	if err := cfg.Validate(); err != nil {
		t.Errorf("postgres backend with a db user should pass: %v", err)
	}
}

func TestConfig_Validate_Telegram(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.BotToken = "123:abc"

	if err := cfg.Validate(); err == nil {
		t.Error("bot token without a chat id should be rejected")
	}

	cfg.Telegram.ChatID = 42
	if err := cfg.Validate(); err != nil {
		t.Errorf("complete telegram config should pass: %v", err)
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		Name:     "pulse",
		User:     "svc",
		Password: "secret",
		SSLMode:  "disable",
	}

	dsn := cfg.GetDSN()
	for _, part := range []string{"host=db.local", "port=5433", "dbname=pulse", "user=svc", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN missing %q: %s", part, dsn)
		}
	}
}
