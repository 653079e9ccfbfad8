package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

func TestWriterAppendAndRows(t *testing.T) {
	w := New()
	ref, err := w.AppendRows(context.Background(), []ports.LedgerRow{
		{TransactionID: "a", Date: core.NewDate(2025, 1, 2), Amount: decimal.NewFromInt(10)},
		{TransactionID: "b", Date: core.NewDate(2025, 1, 3), Amount: decimal.NewFromInt(20)},
	})
	if err != nil || ref != "mem:1-2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ref, err = w.AppendRows(context.Background(), []ports.LedgerRow{{TransactionID: "c"}})
	if err != nil || ref != "mem:3-3" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := w.Rows()
	if len(rows) != 3 || rows[0].TransactionID != "a" || rows[2].TransactionID != "c" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestWriterRejectsEmptyBatch(t *testing.T) {
	if _, err := New().AppendRows(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestWriterFailWith(t *testing.T) {
	w := New()
	boom := errors.New("quota exceeded")
	w.FailWith(boom)

	if _, err := w.AppendRows(context.Background(), []ports.LedgerRow{{TransactionID: "a"}}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if len(w.Rows()) != 0 {
		t.Fatal("failed append must not store rows")
	}

	w.FailWith(nil)
	if _, err := w.AppendRows(context.Background(), []ports.LedgerRow{{TransactionID: "a"}}); err != nil {
		t.Fatalf("append after clearing failure: %v", err)
	}
	if w.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", w.Calls())
	}
}
