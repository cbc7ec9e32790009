package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/selivandex/market-pulse/pkg/kvstore"
	"github.com/selivandex/market-pulse/pkg/models"
)

const (
	journalKey = "trade_journal"

	// maxEntries bounds the persisted journal
	maxEntries = 500
)

// Store persists trade journal entries in the key-value store
type Store struct {
	store kvstore.Store
}

// NewStore creates new journal store
func NewStore(store kvstore.Store) *Store {
	return &Store{store: store}
}

// Append records a new journal entry, assigning ID and timestamps
func (s *Store) Append(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	entries := s.List(ctx)
	entries = append(entries, entry)
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	if err := kvstore.SetJSON(ctx, s.store, journalKey, entries); err != nil {
		return entry, fmt.Errorf("failed to persist journal: %w", err)
	}
	return entry, nil
}

// Close sets the exit price and outcome on an open entry
func (s *Store) Close(ctx context.Context, id uuid.UUID, exitPrice decimal.Decimal, outcome string) (*models.JournalEntry, error) {
	entries := s.List(ctx)

	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		entries[i].ExitPrice = exitPrice
		entries[i].Outcome = outcome
		entries[i].UpdatedAt = time.Now()

		if err := kvstore.SetJSON(ctx, s.store, journalKey, entries); err != nil {
			return nil, fmt.Errorf("failed to persist journal: %w", err)
		}
		closed := entries[i]
		return &closed, nil
	}

	return nil, fmt.Errorf("journal entry %s not found", id)
}

// List returns all journal entries, empty when nothing usable is stored
func (s *Store) List(ctx context.Context) []models.JournalEntry {
	entries := []models.JournalEntry{}
	kvstore.GetJSON(ctx, s.store, journalKey, &entries)
	return entries
}
