package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/internal/adapters/config"
	"github.com/selivandex/market-pulse/internal/adapters/database"
	"github.com/selivandex/market-pulse/internal/adapters/marketdata"
	"github.com/selivandex/market-pulse/internal/adapters/metrics"
	"github.com/selivandex/market-pulse/internal/adapters/telegram"
	"github.com/selivandex/market-pulse/internal/journal"
	"github.com/selivandex/market-pulse/internal/optimizer"
	"github.com/selivandex/market-pulse/internal/pipeline"
	"github.com/selivandex/market-pulse/internal/sensitivity"
	"github.com/selivandex/market-pulse/pkg/kvstore"
	"github.com/selivandex/market-pulse/pkg/logger"
	"github.com/selivandex/market-pulse/pkg/worker"
	_ "github.com/lib/pq"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Run application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Market Pulse dashboard starting...",
		zap.String("provider", cfg.MarketData.Provider),
		zap.Duration("refresh_interval", cfg.Refresh.Interval),
		zap.String("store_backend", cfg.Store.Backend),
	)

	// Initialize persistence
	store, cleanup, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	settings := sensitivity.NewSettingsStore(store)
	if err := settings.Seed(ctx, cfg.Sensitivity.DefaultThreshold); err != nil {
		logger.Warn("failed to seed sensitivity settings", zap.Error(err))
	}
	ledger := optimizer.NewLedger(store)
	trades := journal.NewStore(store)

	// Initialize market data provider
	provider, err := initProvider(cfg)
	if err != nil {
		return err
	}

	timeframe, err := time.ParseDuration(cfg.Refresh.Timeframe)
	if err != nil {
		return fmt.Errorf("invalid refresh timeframe %q: %w", cfg.Refresh.Timeframe, err)
	}

	opts := pipeline.Options{}

	// Optional live price overlay
	if cfg.MarketData.LiveStream {
		stream := marketdata.NewTickerStream()
		stream.Start(ctx)
		opts.Stream = stream
		logger.Info("live ticker stream enabled")
	}

	// Optional alert notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.AlertOnSignals {
		notifier, err := telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			logger.Error("failed to create telegram notifier", zap.Error(err))
		} else {
			opts.Notifier = notifier
			logger.Info("telegram alerts enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
		}
	}

	// Optional tick metrics sink
	if cfg.ClickHouse.Enabled {
		sink, err := metrics.NewClickHouseSink(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			logger.Error("failed to connect clickhouse sink", zap.Error(err))
		} else {
			defer sink.Close()
			opts.Sink = sink
			logger.Info("clickhouse tick metrics enabled")
		}
	}

	refresher := pipeline.NewRefresher(provider, settings, ledger, trades, timeframe, opts)

	// First tick synchronously so the dashboard has data before the
	// periodic schedule kicks in
	if err := refresher.Run(ctx); err != nil {
		logger.Warn("initial refresh failed, will retry on schedule", zap.Error(err))
	}

	workers := worker.NewWorkerGroup(ctx)
	workers.Add(refresher, cfg.Refresh.Interval)
	workers.Add(pipeline.NewAdvisor(ledger, settings), cfg.Refresh.ReviewInterval)
	workers.Start()

	logger.Info("Market Pulse pipeline running")

	// Keep service running
	<-ctx.Done()
	logger.Info("shutting down gracefully...")
	workers.Stop(10 * time.Second)

	return nil
}

// initStore builds the configured key-value backend and returns it with
// a cleanup function
func initStore(cfg *config.Config) (kvstore.Store, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case "memory":
		return kvstore.NewMemory(), noop, nil

	case "file":
		store, err := kvstore.NewFile(cfg.Store.FilePath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open file store: %w", err)
		}
		return store, noop, nil

	case "redis":
		store, err := kvstore.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect redis store: %w", err)
		}
		return store, func() { store.Close() }, nil

	case "postgres":
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := database.RunMigrations(db.Conn(), "migrations"); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database connected and migrated")
		return kvstore.NewPostgres(db.DB()), func() { db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// initProvider builds the market data provider
func initProvider(cfg *config.Config) (marketdata.Provider, error) {
	switch cfg.MarketData.Provider {
	case "coingecko":
		return marketdata.NewCoinGeckoProvider(cfg.MarketData.TopN, cfg.MarketData.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.MarketData.Provider)
	}
}
