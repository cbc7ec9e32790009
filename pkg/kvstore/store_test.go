package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemory(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, found, err := store.Get(ctx, "absent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("absent key should report found=false")
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := store.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		raw, found, err := store.Get(ctx, "k")
		if err != nil || !found {
			t.Fatalf("Get failed: found=%v err=%v", found, err)
		}
		if string(raw) != `{"a":1}` {
			t.Errorf("unexpected value %q", raw)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, found, _ := store.Get(ctx, "k"); found {
			t.Error("deleted key should be absent")
		}
		// Deleting again is not an error
		if err := store.Delete(ctx, "k"); err != nil {
			t.Errorf("deleting an absent key should succeed, got %v", err)
		}
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		store.Set(ctx, "c", []byte("abc"))
		raw, _, _ := store.Get(ctx, "c")
		raw[0] = 'x'
		again, _, _ := store.Get(ctx, "c")
		if string(again) != "abc" {
			t.Error("mutating a returned value must not affect the store")
		}
	})
}

func TestFile_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := store.Set(ctx, "threshold", []byte(`70`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A second store over the same path sees the flushed state
	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile reopen failed: %v", err)
	}
	raw, found, err := reopened.Get(ctx, "threshold")
	if err != nil || !found {
		t.Fatalf("Get after reopen failed: found=%v err=%v", found, err)
	}
	if string(raw) != "70" {
		t.Errorf("unexpected persisted value %q", raw)
	}
}

func TestFile_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("corrupt file should not fail construction: %v", err)
	}
	if _, found, _ := store.Get(context.Background(), "anything"); found {
		t.Error("corrupt file should start the store empty")
	}
}

func TestGetJSON(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	type payload struct {
		Value int `json:"value"`
	}

	t.Run("missing key leaves default", func(t *testing.T) {
		out := payload{Value: 7}
		if GetJSON(ctx, store, "absent", &out) {
			t.Error("missing key should return false")
		}
		if out.Value != 7 {
			t.Error("missing key must leave the default untouched")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		if err := SetJSON(ctx, store, "p", payload{Value: 42}); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}
		var out payload
		if !GetJSON(ctx, store, "p", &out) {
			t.Fatal("GetJSON should find the stored value")
		}
		if out.Value != 42 {
			t.Errorf("unexpected value %d", out.Value)
		}
	})

	t.Run("corrupt value leaves default", func(t *testing.T) {
		store.Set(ctx, "bad", []byte("not json"))
		out := payload{Value: 7}
		if GetJSON(ctx, store, "bad", &out) {
			t.Error("corrupt value should return false")
		}
		if out.Value != 7 {
			t.Error("corrupt value must leave the default untouched")
		}
	})
}
