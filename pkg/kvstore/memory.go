package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store, used in tests and as the fallback
// backend when no durable store is configured
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates new in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get returns the value for key
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

// Set writes the value for key
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw := make([]byte, len(value))
	copy(raw, value)
	m.values[key] = raw
	return nil
}

// Delete removes key
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
