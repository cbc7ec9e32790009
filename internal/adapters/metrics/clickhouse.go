package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/pkg/logger"
)

// TickRecord is one pipeline refresh summarized for the metrics table
type TickRecord struct {
	Timestamp       time.Time
	Coins           int
	ActiveSignals   int
	FilteredSignals int
	Projected       int
	Phase           string
	PhaseConfidence float64
	Threshold       float64
	RotationBuys    int
	RotationSells   int
}

// ClickHouseSink writes per-tick pipeline metrics to ClickHouse
type ClickHouseSink struct {
	db *sqlx.DB
}

// NewClickHouseSink connects to ClickHouse and ensures the tick table
func NewClickHouseSink(ctx context.Context, dsn string) (*ClickHouseSink, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse DSN: %w", err)
	}

	db := sqlx.NewDb(clickhouse.OpenDB(opts), "clickhouse")
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	sink := &ClickHouseSink{db: db}
	if err := sink.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("clickhouse metrics sink ready")
	return sink, nil
}

func (s *ClickHouseSink) ensureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS pulse_ticks (
			ts               DateTime,
			coins            UInt32,
			active_signals   UInt32,
			filtered_signals UInt32,
			projected        UInt32,
			phase            String,
			phase_confidence Float64,
			threshold        Float64,
			rotation_buys    UInt32,
			rotation_sells   UInt32
		) ENGINE = MergeTree()
		ORDER BY ts
		TTL ts + INTERVAL 90 DAY
	`

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create pulse_ticks table: %w", err)
	}
	return nil
}

// WriteTick inserts one tick record
func (s *ClickHouseSink) WriteTick(ctx context.Context, rec TickRecord) error {
	query := `
		INSERT INTO pulse_ticks
			(ts, coins, active_signals, filtered_signals, projected, phase, phase_confidence, threshold, rotation_buys, rotation_sells)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Timestamp,
		uint32(rec.Coins),
		uint32(rec.ActiveSignals),
		uint32(rec.FilteredSignals),
		uint32(rec.Projected),
		rec.Phase,
		rec.PhaseConfidence,
		rec.Threshold,
		uint32(rec.RotationBuys),
		uint32(rec.RotationSells),
	)
	if err != nil {
		return fmt.Errorf("clickhouse insert failed: %w", err)
	}

	logger.Debug("tick metrics written",
		zap.Time("ts", rec.Timestamp),
		zap.Int("coins", rec.Coins),
	)
	return nil
}

// Close closes the sink connection
func (s *ClickHouseSink) Close() error {
	return s.db.Close()
}
