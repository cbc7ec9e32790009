package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Postgres is a Store backed by a single kv_entries table, created via
// the repository migrations
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres creates a Postgres-backed store over an existing connection
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Get returns the value for key
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	query := `SELECT value FROM kv_entries WHERE key = $1`

	err := p.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read kv entry: %w", err)
	}

	return raw, true, nil
}

// Set upserts the value for key
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`

	if _, err := p.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write kv entry: %w", err)
	}
	return nil
}

// Delete removes key
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete kv entry: %w", err)
	}
	return nil
}
