package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/storage"
)

func TestMemoryLoadSave(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Load(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	buf := []byte(`{"a":1}`)
	if err := s.Save(ctx, "k", buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	buf[0] = 'X'

	got, err := s.Load(ctx, "k")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("unexpected load: %q %v", got, err)
	}
	if s.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", s.Saves())
	}
}

func TestNewFromDirAndDump(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromDir(filepath.Join(dir, "missing")); s == nil {
		t.Fatalf("expected empty store for missing dir")
	}

	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte(`{"budgets":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFromDir(dir)
	got, err := s.Load(context.Background(), "state")
	if err != nil || string(got) != `{"budgets":[]}` {
		t.Fatalf("unexpected seed: %q %v", got, err)
	}
	if _, err := s.Load(context.Background(), "notes"); err == nil {
		t.Fatalf("non-json files must be skipped")
	}

	out := t.TempDir()
	if err := s.Save(context.Background(), "other", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Dump(out); err != nil {
		t.Fatalf("dump: %v", err)
	}
	reloaded := NewFromDir(out)
	if _, err := reloaded.Load(context.Background(), "other"); err != nil {
		t.Fatalf("dumped key not reloaded: %v", err)
	}

	if err := s.Save(context.Background(), "a/b", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Dump(t.TempDir()); err == nil {
		t.Fatalf("expected error for key with separator")
	}
}
