// Package memory is a process-local BlobStore. It can be seeded from JSON
// files in a directory, one file per key.
package memory

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fintrack/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
}

func New() *Store {
	return &Store{blobs: map[string][]byte{}}
}

// NewFromDir seeds the store with every <key>.json file in base. A missing
// directory yields an empty store.
func NewFromDir(base string) *Store {
	s := New()
	entries, err := os.ReadDir(base)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(base, e.Name()))
		if err != nil {
			continue
		}
		s.blobs[strings.TrimSuffix(e.Name(), ".json")] = data
	}
	return s
}

// Load implements storage.BlobStore.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save implements storage.BlobStore.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	s.saves++
	return nil
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Dump writes every blob to base as <key>.json so a later NewFromDir picks
// them up again.
func (s *Store) Dump(base string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}
	for key, data := range s.blobs {
		if strings.ContainsAny(key, `/\`) {
			return &fs.PathError{Op: "dump", Path: key, Err: errors.New("key contains a path separator")}
		}
		if err := os.WriteFile(filepath.Join(base, key+".json"), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
