package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing was ever saved under key.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the opaque key-value store the ledger snapshot lives in.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
