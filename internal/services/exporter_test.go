package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/store"
)

func testExporterConfig() ExporterConfig {
	cfg := DefaultExporterConfig()
	cfg.RetryDelay = 0
	return cfg
}

func ledgerTx(id string, amount int64) core.Transaction {
	return core.Transaction{
		ID:           id,
		AccountID:    "bank",
		Amount:       decimal.NewFromInt(amount),
		Type:         core.Expense,
		Category:     "groceries",
		Date:         core.NewDate(2025, 2, 3),
		MerchantName: "DMART",
	}
}

func TestDefaultExporterConfig(t *testing.T) {
	cfg := DefaultExporterConfig()
	assert.Equal(t, 256, cfg.BufferSize)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
}

func TestLedgerRowFor(t *testing.T) {
	state := store.State{Accounts: []core.Account{{ID: "bank", Name: "HDFC", Type: core.AccountBank}}}
	row := LedgerRowFor(state, catalog.New(nil), ledgerTx("t1", 120))
	assert.Equal(t, "HDFC", row.Account)
	assert.Equal(t, "Groceries", row.Category)
	assert.Equal(t, "DMART", row.Merchant)

	orphan := ledgerTx("t2", 1)
	orphan.AccountID = "gone"
	orphan.Category = ""
	row = LedgerRowFor(state, catalog.New(nil), orphan)
	assert.Equal(t, store.UnknownAccount, row.Account)
	assert.Empty(t, row.Category)
}

func TestLedgerExporter_ExportsAddedTransactionsOnly(t *testing.T) {
	writer := memory.New()
	st := store.New(store.State{Accounts: []core.Account{{ID: "bank", Name: "HDFC", Type: core.AccountBank}}})
	exp := NewLedgerExporter(writer, st, testExporterConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, exp.Start(ctx))
	assert.Error(t, exp.Start(ctx))

	st.Dispatch(store.AddPendingTransaction{Transaction: ledgerTx("pending", 10)})
	st.Dispatch(store.AddTransaction{Transaction: ledgerTx("t1", 100)})
	st.Dispatch(store.AddTransactionsBulk{Transactions: []core.Transaction{ledgerTx("t2", 200), ledgerTx("t3", 300)}})
	st.Dispatch(store.UpdateTransaction{Transaction: ledgerTx("t1", 150)})

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, exp.Stop(stopCtx))

	rows := writer.Rows()
	require.Len(t, rows, 3)
	ids := []string{rows[0].TransactionID, rows[1].TransactionID, rows[2].TransactionID}
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids)
	assert.Equal(t, 3, exp.Stats().Exported)
}

func TestLedgerExporter_RetriesThenDrops(t *testing.T) {
	writer := memory.New()
	writer.FailWith(errors.New("quota exceeded"))
	exp := NewLedgerExporter(writer, store.New(store.Empty()), testExporterConfig())

	exp.export(context.Background(), []sheets.LedgerRow{LedgerRowFor(store.Empty(), catalog.New(nil), ledgerTx("t1", 1))})

	assert.Equal(t, 3, writer.Calls())
	assert.Equal(t, 1, exp.Stats().Failed)
	assert.Zero(t, exp.Stats().Exported)
}

func TestLedgerExporter_FullQueueDrops(t *testing.T) {
	cfg := testExporterConfig()
	cfg.BufferSize = 1
	exp := NewLedgerExporter(memory.New(), store.New(store.Empty()), cfg)

	// Not started: nothing drains the queue.
	bulk := store.AddTransactionsBulk{Transactions: []core.Transaction{ledgerTx("a", 1), ledgerTx("b", 2)}}
	exp.onChange(store.Empty(), store.Reduce(store.Empty(), bulk), 1, bulk)

	assert.Equal(t, 1, exp.Stats().Dropped)
	assert.Len(t, exp.queue, 1)
}

func TestLedgerExporter_BatchesQueuedRows(t *testing.T) {
	cfg := testExporterConfig()
	cfg.BatchSize = 2
	writer := memory.New()
	exp := NewLedgerExporter(writer, store.New(store.Empty()), cfg)

	for _, id := range []string{"a", "b", "c"} {
		exp.queue <- LedgerRowFor(store.Empty(), catalog.New(nil), ledgerTx(id, 1))
	}
	exp.drain(context.Background())

	assert.Equal(t, 2, writer.Calls())
	assert.Len(t, writer.Rows(), 3)
}
