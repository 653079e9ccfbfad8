package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/storage"
	"fintrack/internal/store"
)

// PersisterConfig holds configuration for the snapshot persister
type PersisterConfig struct {
	// Key is the blob key the snapshot is stored under (default: @fin_app_data)
	Key string

	// Debounce delays a save so bursts of changes produce one write (default: 250ms)
	Debounce time.Duration

	// SaveTimeout bounds a single save call (default: 10s)
	SaveTimeout time.Duration
}

// DefaultPersisterConfig returns sensible defaults
func DefaultPersisterConfig() PersisterConfig {
	return PersisterConfig{
		Key:         "@fin_app_data",
		Debounce:    250 * time.Millisecond,
		SaveTimeout: 10 * time.Second,
	}
}

// PersisterStats reports what the persister has written.
type PersisterStats struct {
	LatestRevision uint64    `json:"latestRevision"`
	SavedRevision  uint64    `json:"savedRevision"`
	Failures       int       `json:"failures"`
	LastError      string    `json:"lastError,omitempty"`
	LastSavedAt    time.Time `json:"lastSavedAt,omitempty"`
}

// Persister saves the store's state to a blob store after every change.
// Only the newest state is written; a failed save is logged and retried with
// whatever state the next change produces.
type Persister struct {
	blobs  storage.BlobStore
	store  *store.Store
	config PersisterConfig

	saveMu  sync.Mutex // serializes Flush so an older state never overwrites a newer one
	stateMu sync.Mutex
	latest  store.State
	stats   PersisterStats
	trigger chan struct{}

	// Lifecycle management
	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	unsubscribe func()
}

// NewPersister creates a new persister
func NewPersister(blobs storage.BlobStore, st *store.Store, config PersisterConfig) *Persister {
	if config.Key == "" {
		config.Key = DefaultPersisterConfig().Key
	}
	if config.SaveTimeout <= 0 {
		config.SaveTimeout = DefaultPersisterConfig().SaveTimeout
	}
	return &Persister{
		blobs:   blobs,
		store:   st,
		config:  config,
		trigger: make(chan struct{}, 1),
	}
}

// Restore loads the persisted snapshot into the store. A missing, unreadable
// or corrupt snapshot leaves the store with the empty state; the error is
// only logged.
func (p *Persister) Restore(ctx context.Context) store.State {
	state := store.Empty()

	data, err := p.blobs.Load(ctx, p.config.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.InfoContext(ctx, "No persisted state found, starting empty", "key", p.config.Key)
	case err != nil:
		slog.ErrorContext(ctx, "Failed to load persisted state, starting empty", "key", p.config.Key, "error", err)
	default:
		decoded, err := store.Decode(data)
		if err != nil {
			slog.ErrorContext(ctx, "Persisted state is corrupt, starting empty", "key", p.config.Key, "error", err)
		} else {
			state = decoded
			slog.InfoContext(ctx, "Persisted state loaded",
				"key", p.config.Key,
				"accounts", len(state.Accounts),
				"transactions", len(state.Transactions),
				"pending", len(state.PendingTransactions))
		}
	}

	return p.store.Dispatch(store.Load{State: state})
}

// Start subscribes to the store and begins the save loop. Returns an error if already running.
func (p *Persister) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("persister is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.unsubscribe = p.store.Subscribe(p.onChange)
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Persister started", "key", p.config.Key, "debounce", p.config.Debounce)
	return nil
}

// Stop flushes the newest state and waits for the loop to exit.
func (p *Persister) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.unsubscribe()
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Persister stop timed out")
		return ctx.Err()
	}

	// The loop may have exited on cancellation before the last changes arrived.
	err := p.Flush(ctx)

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	slog.InfoContext(ctx, "Persister stopped gracefully")
	return nil
}

// IsRunning returns whether the persister is currently running
func (p *Persister) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns a copy of the save counters.
func (p *Persister) Stats() PersisterStats {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.stats
}

func (p *Persister) onChange(_, next store.State, rev uint64, _ store.Action) {
	p.stateMu.Lock()
	p.latest = next
	p.stats.LatestRevision = rev
	p.stateMu.Unlock()

	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Persister) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	for {
		select {
		case <-p.stopCh:
			p.Flush(context.WithoutCancel(ctx))
			return
		case <-ctx.Done():
			p.Flush(context.WithoutCancel(ctx))
			return
		case <-p.trigger:
			if p.config.Debounce > 0 {
				timer := time.NewTimer(p.config.Debounce)
				select {
				case <-timer.C:
				case <-p.stopCh:
					timer.Stop()
					p.Flush(context.WithoutCancel(ctx))
					return
				case <-ctx.Done():
					timer.Stop()
					p.Flush(context.WithoutCancel(ctx))
					return
				}
			}
			p.Flush(ctx)
		}
	}
}

// Flush writes the newest state if it has not been saved yet.
func (p *Persister) Flush(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.stateMu.Lock()
	if p.stats.LatestRevision == p.stats.SavedRevision {
		p.stateMu.Unlock()
		return nil
	}
	state, rev := p.latest, p.stats.LatestRevision
	p.stateMu.Unlock()

	err := p.save(ctx, state)

	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if err != nil {
		p.stats.Failures++
		p.stats.LastError = err.Error()
		slog.ErrorContext(ctx, "Failed to save state", "key", p.config.Key, "revision", rev, "error", err)
		return err
	}
	if rev > p.stats.SavedRevision {
		p.stats.SavedRevision = rev
	}
	p.stats.LastError = ""
	p.stats.LastSavedAt = time.Now()
	slog.DebugContext(ctx, "State saved", "key", p.config.Key, "revision", rev)
	return nil
}

func (p *Persister) save(ctx context.Context, state store.State) error {
	data, err := store.Encode(state)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.config.SaveTimeout)
	defer cancel()
	return p.blobs.Save(ctx, p.config.Key, data)
}
