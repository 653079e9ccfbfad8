package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ports "fintrack/internal/sheets"
)

var _ ports.LedgerWriter = (*Writer)(nil)

// Writer keeps appended ledger rows in memory. It stands in for the
// spreadsheet in tests and when no spreadsheet is configured.
type Writer struct {
	mu    sync.Mutex
	rows  []ports.LedgerRow
	calls int
	fail  error
}

func New() *Writer {
	return &Writer{}
}

// AppendRows stores the rows and returns a synthetic range reference.
func (w *Writer) AppendRows(_ context.Context, rows []ports.LedgerRow) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fail != nil {
		return "", w.fail
	}
	if len(rows) == 0 {
		return "", errors.New("no rows to append")
	}
	first := len(w.rows) + 1
	w.rows = append(w.rows, rows...)
	return fmt.Sprintf("mem:%d-%d", first, len(w.rows)), nil
}

// Rows returns a copy of every stored row in append order.
func (w *Writer) Rows() []ports.LedgerRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ports.LedgerRow(nil), w.rows...)
}

// Calls counts AppendRows invocations, failed ones included.
func (w *Writer) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// FailWith makes subsequent appends return err. A nil err clears it.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = err
}
