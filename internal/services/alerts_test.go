package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func spend(st *store.Store, amount int64, date core.Date) {
	st.Dispatch(store.AddTransaction{Transaction: core.Transaction{
		ID:        uuid.NewString(),
		AccountID: "bank",
		Amount:    decimal.NewFromInt(amount),
		Type:      core.Expense,
		Category:  "food_dining",
		Date:      date,
	}})
}

func budgetStore() *store.Store {
	return store.New(store.State{
		Accounts: []core.Account{{ID: "bank", Name: "Bank", Type: core.AccountBank}},
		Budgets: []core.Budget{{
			ID:             "b1",
			CategoryID:     "food_dining",
			Amount:         decimal.NewFromInt(1000),
			Period:         core.Monthly,
			StartDate:      core.NewDate(2025, 1, 1),
			AlertThreshold: decimal.NewFromInt(80),
		}},
	})
}

func newTestAlerts(st *store.Store, rec Notifier, clock *fakeClock) *BudgetAlerts {
	return NewBudgetAlerts(st, rec, AlertsConfig{Now: clock.Now})
}

func TestBudgetAlerts_EdgeTriggered(t *testing.T) {
	st := budgetStore()
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, rec, clock)
	alerts.Prime()
	ctx := context.Background()

	spend(st, 500, core.NewDate(2025, 3, 5))
	assert.Empty(t, alerts.Check(ctx), "50% is below the threshold")

	spend(st, 350, core.NewDate(2025, 3, 6))
	fired := alerts.Check(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, budget.NearLimit, fired[0].Evaluation.State)
	assert.Equal(t, budget.OK, fired[0].Previous)

	spend(st, 10, core.NewDate(2025, 3, 7))
	assert.Empty(t, alerts.Check(ctx), "staying near the limit does not notify again")

	spend(st, 200, core.NewDate(2025, 3, 8))
	fired = alerts.Check(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, budget.OverBudget, fired[0].Evaluation.State)
	assert.Equal(t, budget.NearLimit, fired[0].Previous)

	spend(st, 200, core.NewDate(2025, 3, 9))
	assert.Empty(t, alerts.Check(ctx))

	sent := rec.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "⚠️ Budget Alert", sent[0].Title)
	assert.Contains(t, sent[0].Body, "Food & Dining")
	assert.Contains(t, sent[0].Body, "85%")
	assert.Equal(t, "🚨 Budget Exceeded", sent[1].Title)
	assert.Contains(t, sent[1].Body, "₹1060.00")
	assert.Equal(t, "b1", sent[1].Data.BudgetID)
}

func TestBudgetAlerts_JumpStraightToOver(t *testing.T) {
	st := budgetStore()
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, rec, clock)
	alerts.Prime()

	spend(st, 1500, core.NewDate(2025, 3, 1))
	fired := alerts.Check(context.Background())
	require.Len(t, fired, 1)
	assert.Equal(t, budget.OverBudget, fired[0].Evaluation.State)
	assert.Len(t, rec.all(), 1)
}

func TestBudgetAlerts_FailedDeliveryIsRetried(t *testing.T) {
	st := budgetStore()
	rec := &recorder{}
	var down bool
	notifier := NotifierFunc(func(ctx context.Context, n Notification) error {
		if down {
			return errors.New("broker unavailable")
		}
		return rec.Notify(ctx, n)
	})
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, notifier, clock)
	alerts.Prime()
	ctx := context.Background()

	down = true
	spend(st, 900, core.NewDate(2025, 3, 1))
	assert.Empty(t, alerts.Check(ctx))
	assert.Empty(t, rec.all())

	down = false
	fired := alerts.Check(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, budget.NearLimit, fired[0].Evaluation.State)
	assert.Equal(t, budget.OK, fired[0].Previous)
	assert.Len(t, rec.all(), 1)

	assert.Empty(t, alerts.Check(ctx), "delivered alerts are not repeated")
}

func TestBudgetAlerts_PrimeDoesNotNotify(t *testing.T) {
	st := budgetStore()
	spend(st, 900, core.NewDate(2025, 3, 1))
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, rec, clock)

	alerts.Prime()
	assert.Empty(t, alerts.Check(context.Background()))
	assert.Empty(t, rec.all())
}

func TestBudgetAlerts_NewMonthRearms(t *testing.T) {
	st := budgetStore()
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, rec, clock)
	alerts.Prime()
	ctx := context.Background()

	spend(st, 900, core.NewDate(2025, 3, 2))
	require.Len(t, alerts.Check(ctx), 1)

	clock.Set(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, alerts.Check(ctx), "April starts at zero spend")

	spend(st, 850, core.NewDate(2025, 4, 2))
	fired := alerts.Check(ctx)
	require.Len(t, fired, 1)
	assert.Equal(t, budget.NearLimit, fired[0].Evaluation.State)
}

func TestBudgetAlerts_DropRearms(t *testing.T) {
	st := budgetStore()
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, rec, clock)
	alerts.Prime()
	ctx := context.Background()

	spend(st, 900, core.NewDate(2025, 3, 2))
	require.Len(t, alerts.Check(ctx), 1)

	b, _ := st.State().BudgetByID("b1")
	b.Amount = decimal.NewFromInt(5000)
	st.Dispatch(store.UpdateBudget{Budget: b})
	assert.Empty(t, alerts.Check(ctx))

	b.Amount = decimal.NewFromInt(1000)
	st.Dispatch(store.UpdateBudget{Budget: b})
	assert.Len(t, alerts.Check(ctx), 1)
}

func TestBudgetAlerts_DeletedBudgetForgotten(t *testing.T) {
	st := budgetStore()
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, &recorder{}, clock)
	alerts.Prime()

	st.Dispatch(store.DeleteBudget{ID: "b1"})
	alerts.Check(context.Background())

	alerts.checkMu.Lock()
	defer alerts.checkMu.Unlock()
	assert.Empty(t, alerts.marks)
}

func TestBudgetAlerts_StartReactsToStoreChanges(t *testing.T) {
	st := budgetStore()
	rec := &recorder{}
	clock := &fakeClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	alerts := newTestAlerts(st, rec, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, alerts.Start(ctx))
	assert.True(t, alerts.IsRunning())
	assert.Error(t, alerts.Start(ctx))

	spend(st, 1200, core.NewDate(2025, 3, 3))
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, 2*time.Second, 10*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, alerts.Stop(stopCtx))
	assert.False(t, alerts.IsRunning())
}

func TestBudgetAlerts_InvalidSchedule(t *testing.T) {
	alerts := NewBudgetAlerts(budgetStore(), nil, AlertsConfig{Schedule: "every hour"})
	assert.Error(t, alerts.Start(context.Background()))
	assert.False(t, alerts.IsRunning())
}
