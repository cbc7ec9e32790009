package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/selivandex/market-pulse/pkg/logger"
)

// File is a Store persisted to a single JSON file. Writes rewrite the
// whole file; concurrent writers from separate processes are not
// coordinated (last write wins).
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// NewFile creates a file-backed store at path, loading existing state.
// A missing or corrupt file starts the store empty rather than failing.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f := &File{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read store file: %w", err)
		}
		return f, nil
	}

	if err := json.Unmarshal(raw, &f.values); err != nil {
		logger.Warn("store file corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		f.values = make(map[string]json.RawMessage)
	}

	return f, nil
}

// Get returns the value for key
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, ok := f.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

// Set writes the value for key and flushes the file
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = append(json.RawMessage(nil), value...)
	return f.flush()
}

// Delete removes key and flushes the file
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, key)
	return f.flush()
}

// flush writes the full map atomically via a temp file rename
func (f *File) flush() error {
	raw, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}
