package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// historyLimit is how many save records are kept per key.
const historyLimit = 50

// SaveRecord describes one past save of a key.
type SaveRecord struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"savedAt"`
}

// SQLiteRepository keeps blobs in a single SQLite table and records a short
// save history per key.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under the persister.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements BlobStore.
func (r *SQLiteRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %s: %w", key, err)
	}
	return value, nil
}

// Save implements BlobStore. The blob and its history record are written in
// one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, key string, data []byte) error {
	now := r.now().UTC().UnixMilli()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO blobs (key, value, size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, size = excluded.size, updated_at = excluded.updated_at`,
		key, data, len(data), now)
	if err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blob_history (key, size, saved_at) VALUES (?, ?, ?)`, key, len(data), now); err != nil {
		return fmt.Errorf("record history for %s: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM blob_history WHERE key = ? AND id NOT IN (
			SELECT id FROM blob_history WHERE key = ? ORDER BY id DESC LIMIT ?)`,
		key, key, historyLimit)
	if err != nil {
		return fmt.Errorf("prune history for %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Blob saved to SQLite", "key", key, "size", len(data))
	return nil
}

// History returns the most recent saves of key, newest first.
func (r *SQLiteRepository) History(ctx context.Context, key string, limit int) ([]SaveRecord, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, size, saved_at FROM blob_history WHERE key = ? ORDER BY id DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", key, err)
	}
	defer rows.Close()

	var out []SaveRecord
	for rows.Next() {
		var rec SaveRecord
		var savedAt int64
		if err := rows.Scan(&rec.Key, &rec.Size, &savedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.SavedAt = time.UnixMilli(savedAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
