package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
	"fintrack/internal/store"
)

// flakyBlobs fails saves while fail is set.
type flakyBlobs struct {
	*memory.Store
	mu   sync.Mutex
	fail bool
}

func (f *flakyBlobs) Save(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.Store.Save(ctx, key, data)
}

func (f *flakyBlobs) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func testPersisterConfig() PersisterConfig {
	cfg := DefaultPersisterConfig()
	cfg.Debounce = 0
	return cfg
}

func savedState(t *testing.T, blobs storage.BlobStore) store.State {
	t.Helper()
	data, err := blobs.Load(context.Background(), DefaultPersisterConfig().Key)
	require.NoError(t, err)
	state, err := store.Decode(data)
	require.NoError(t, err)
	return state
}

func TestDefaultPersisterConfig(t *testing.T) {
	cfg := DefaultPersisterConfig()
	assert.Equal(t, "@fin_app_data", cfg.Key)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 10*time.Second, cfg.SaveTimeout)
}

func TestPersister_RestoreMissingStartsEmpty(t *testing.T) {
	st := store.New(store.Empty())
	p := NewPersister(memory.New(), st, testPersisterConfig())

	state := p.Restore(context.Background())
	assert.Empty(t, state.Accounts)
	assert.NotNil(t, state.Transactions)
	assert.Equal(t, uint64(1), st.Revision())
}

func TestPersister_RestoreCorruptStartsEmpty(t *testing.T) {
	blobs := memory.New()
	require.NoError(t, blobs.Save(context.Background(), "@fin_app_data", []byte("{not json")))
	st := store.New(store.State{Accounts: []core.Account{{ID: "x", Name: "X", Type: core.AccountCash}}})

	state := NewPersister(blobs, st, testPersisterConfig()).Restore(context.Background())
	assert.Empty(t, state.Accounts)
}

func TestPersister_RestoreLoadsSnapshot(t *testing.T) {
	blobs := memory.New()
	snapshot := `{"accounts":[{"id":"a1","name":"Axis","type":"BANK","startingBalance":"100"}],
		"transactions":[{"id":"t1","accountId":"a1","amount":25,"type":"EXPENSE","date":"2025-01-02"}]}`
	require.NoError(t, blobs.Save(context.Background(), "@fin_app_data", []byte(snapshot)))

	st := store.New(store.Empty())
	state := NewPersister(blobs, st, testPersisterConfig()).Restore(context.Background())

	require.Len(t, state.Accounts, 1)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, core.Expense, state.Transactions[0].Type)
	assert.NotNil(t, state.Budgets)
	assert.Equal(t, st.State().Accounts, state.Accounts)
}

func TestPersister_SavesLatestStateOnStop(t *testing.T) {
	blobs := memory.New()
	st := store.New(store.Empty())
	p := NewPersister(blobs, st, testPersisterConfig())
	p.Restore(context.Background())

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(context.Background()), "second start must fail")

	for _, id := range []string{"a", "b", "c"} {
		st.Dispatch(store.AddAccount{Account: core.Account{ID: id, Name: id, Type: core.AccountCash}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.False(t, p.IsRunning())

	saved := savedState(t, blobs)
	require.Len(t, saved.Accounts, 3)
	assert.Equal(t, "c", saved.Accounts[2].ID)

	stats := p.Stats()
	assert.Equal(t, st.Revision(), stats.SavedRevision)
	assert.Zero(t, stats.Failures)
}

func TestPersister_SavesChangesMadeAfterCancellation(t *testing.T) {
	blobs := memory.New()
	st := store.New(store.Empty())
	p := NewPersister(blobs, st, testPersisterConfig())
	p.Restore(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))

	st.Dispatch(store.AddAccount{Account: core.Account{ID: "a", Name: "A", Type: core.AccountCash}})
	cancel()
	// Handlers finishing during shutdown still dispatch.
	st.Dispatch(store.AddAccount{Account: core.Account{ID: "b", Name: "B", Type: core.AccountCash}})

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, p.Stop(stopCtx))

	saved := savedState(t, blobs)
	require.Len(t, saved.Accounts, 2)
	assert.Equal(t, "b", saved.Accounts[1].ID)
	assert.Equal(t, st.Revision(), p.Stats().SavedRevision)
}

func TestPersister_FailureIsRetriedOnNextChange(t *testing.T) {
	blobs := &flakyBlobs{Store: memory.New()}
	st := store.New(store.Empty())
	p := NewPersister(blobs, st, testPersisterConfig())
	blobs.setFail(true)
	next := st.Dispatch(store.AddAccount{Account: core.Account{ID: "a", Name: "A", Type: core.AccountBank}})
	p.onChange(store.Empty(), next, st.Revision(), nil)

	err := p.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, p.Stats().Failures)
	assert.Equal(t, "a", st.State().Accounts[0].ID, "in-memory state survives a failed save")
	_, loadErr := blobs.Load(context.Background(), "@fin_app_data")
	assert.ErrorIs(t, loadErr, storage.ErrNotFound)

	blobs.setFail(false)
	next = st.Dispatch(store.AddTransaction{Transaction: core.Transaction{
		ID: "t", AccountID: "a", Amount: decimal.NewFromInt(5), Type: core.Expense, Date: core.NewDate(2025, 1, 1),
	}})
	p.onChange(store.State{}, next, st.Revision(), nil)

	require.NoError(t, p.Flush(context.Background()))
	saved := savedState(t, blobs)
	assert.Len(t, saved.Accounts, 1)
	assert.Len(t, saved.Transactions, 1)
	assert.Empty(t, p.Stats().LastError)
}

func TestPersister_FlushSkipsWhenNothingChanged(t *testing.T) {
	blobs := memory.New()
	st := store.New(store.Empty())
	p := NewPersister(blobs, st, testPersisterConfig())

	require.NoError(t, p.Flush(context.Background()))
	assert.Zero(t, blobs.Saves())

	next := st.Dispatch(store.AddAccount{Account: core.Account{ID: "a", Name: "A", Type: core.AccountCash}})
	p.onChange(store.Empty(), next, st.Revision(), nil)
	require.NoError(t, p.Flush(context.Background()))
	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, 1, blobs.Saves())
}

func TestPersister_StopNotRunning(t *testing.T) {
	p := NewPersister(memory.New(), store.New(store.Empty()), testPersisterConfig())
	assert.NoError(t, p.Stop(context.Background()))
}
