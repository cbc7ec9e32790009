package kvstore

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/pkg/logger"
)

// Store is a durable key-value store holding JSON-encoded values.
// Implementations must treat a missing key as (nil, false, nil), never
// as an error.
type Store interface {
	// Get returns the raw value for key, with found=false when absent
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the raw value for key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key into out. A missing key, a store error or corrupt
// JSON all leave out untouched and return false: persisted-state reads
// always degrade to the caller's default value.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) bool {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		logger.Warn("kvstore read failed, falling back to default",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("kvstore value corrupt, falling back to default",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	return true
}

// SetJSON marshals value and writes it under key
func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}
