package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// ExporterConfig holds configuration for the ledger exporter
type ExporterConfig struct {
	// BufferSize is how many rows may wait for export (default: 256)
	BufferSize int

	// BatchSize caps the rows sent in one append (default: 50)
	BatchSize int

	// MaxRetries is the number of attempts per batch (default: 3)
	MaxRetries int

	// RetryDelay is the initial delay between attempts, doubled each time (default: 2s)
	RetryDelay time.Duration
}

// DefaultExporterConfig returns sensible defaults
func DefaultExporterConfig() ExporterConfig {
	return ExporterConfig{
		BufferSize: 256,
		BatchSize:  50,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// ExporterStats reports export progress.
type ExporterStats struct {
	Exported int    `json:"exported"`
	Dropped  int    `json:"dropped"`
	Failed   int    `json:"failed"`
	LastRef  string `json:"lastRef,omitempty"`
}

// LedgerExporter copies confirmed transactions to the ledger sheet as they
// are added. Export is best effort: a full buffer or an exhausted retry
// drops rows with a log entry and leaves the store untouched.
type LedgerExporter struct {
	writer sheets.LedgerWriter
	store  *store.Store
	config ExporterConfig

	queue   chan sheets.LedgerRow
	statsMu sync.Mutex
	stats   ExporterStats

	// Lifecycle management
	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	unsubscribe func()
}

// NewLedgerExporter creates a new exporter
func NewLedgerExporter(writer sheets.LedgerWriter, st *store.Store, config ExporterConfig) *LedgerExporter {
	def := DefaultExporterConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	return &LedgerExporter{
		writer: writer,
		store:  st,
		config: config,
		queue:  make(chan sheets.LedgerRow, config.BufferSize),
	}
}

// Start subscribes to the store and begins exporting. Returns an error if already running.
func (e *LedgerExporter) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("ledger exporter is already running")
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.unsubscribe = e.store.Subscribe(e.onChange)
	e.mu.Unlock()

	go e.runLoop(ctx)

	slog.InfoContext(ctx, "Ledger exporter started", "buffer_size", e.config.BufferSize)
	return nil
}

// Stop exports what is already queued and waits for the loop to exit.
func (e *LedgerExporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.unsubscribe()
	e.mu.Unlock()

	close(e.stopCh)

	select {
	case <-e.doneCh:
		slog.InfoContext(ctx, "Ledger exporter stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Ledger exporter stop timed out")
		return ctx.Err()
	}

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	return nil
}

// IsRunning returns whether the exporter is currently running
func (e *LedgerExporter) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Stats returns a copy of the export counters.
func (e *LedgerExporter) Stats() ExporterStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

func (e *LedgerExporter) onChange(_, next store.State, _ uint64, a store.Action) {
	var added []core.Transaction
	switch act := a.(type) {
	case store.AddTransaction:
		added = []core.Transaction{act.Transaction}
	case store.AddTransactionsBulk:
		added = act.Transactions
	default:
		return
	}

	names := catalog.New(next.CustomCategories)
	for _, tx := range added {
		row := LedgerRowFor(next, names, tx)
		select {
		case e.queue <- row:
		default:
			e.statsMu.Lock()
			e.stats.Dropped++
			e.statsMu.Unlock()
			slog.Warn("Ledger export queue full, dropping row", "transaction_id", tx.ID)
		}
	}
}

// LedgerRowFor renders tx with display names resolved against state.
func LedgerRowFor(state store.State, names *catalog.Catalog, tx core.Transaction) sheets.LedgerRow {
	category := ""
	if tx.Category != "" {
		category = names.Resolve(tx.Category).Name
	}
	return sheets.LedgerRow{
		TransactionID: tx.ID,
		Date:          tx.Date,
		Account:       state.AccountName(tx.AccountID),
		Type:          tx.Type,
		Amount:        tx.Amount,
		Category:      category,
		Merchant:      tx.MerchantName,
		Method:        tx.TransactionMethod,
		Note:          tx.Note,
	}
}

func (e *LedgerExporter) runLoop(ctx context.Context) {
	defer close(e.doneCh)

	for {
		select {
		case <-e.stopCh:
			e.drain(context.WithoutCancel(ctx))
			return
		case <-ctx.Done():
			e.drain(context.WithoutCancel(ctx))
			return
		case row := <-e.queue:
			e.export(ctx, e.batchWith(row))
		}
	}
}

// batchWith collects row plus whatever else is already queued, up to BatchSize.
func (e *LedgerExporter) batchWith(row sheets.LedgerRow) []sheets.LedgerRow {
	batch := []sheets.LedgerRow{row}
	for len(batch) < e.config.BatchSize {
		select {
		case next := <-e.queue:
			batch = append(batch, next)
		default:
			return batch
		}
	}
	return batch
}

func (e *LedgerExporter) drain(ctx context.Context) {
	for {
		select {
		case row := <-e.queue:
			e.export(ctx, e.batchWith(row))
		default:
			return
		}
	}
}

func (e *LedgerExporter) export(ctx context.Context, batch []sheets.LedgerRow) {
	delay := e.config.RetryDelay
	var lastErr error

	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		ref, err := e.writer.AppendRows(ctx, batch)
		if err == nil {
			e.statsMu.Lock()
			e.stats.Exported += len(batch)
			e.stats.LastRef = ref
			e.statsMu.Unlock()
			slog.InfoContext(ctx, "Ledger rows exported", "rows", len(batch), "sheets_ref", ref)
			return
		}
		lastErr = err
		slog.WarnContext(ctx, "Ledger export attempt failed",
			"attempt", attempt, "max_retries", e.config.MaxRetries, "error", err)

		if attempt == e.config.MaxRetries || delay == 0 {
			continue
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			attempt = e.config.MaxRetries
		}
	}

	e.statsMu.Lock()
	e.stats.Failed += len(batch)
	e.statsMu.Unlock()
	slog.ErrorContext(ctx, "Ledger export failed, rows dropped", "rows", len(batch), "error", lastErr)
}
