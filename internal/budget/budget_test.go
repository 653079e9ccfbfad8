package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var asOf = time.Date(2025, 11, 18, 12, 0, 0, 0, time.UTC)

func spend(category string, amount int64, y, m, d int) core.Transaction {
	return core.Transaction{
		Type:     core.Expense,
		Category: core.CategoryID(category),
		Amount:   decimal.NewFromInt(amount),
		Date:     core.NewDate(y, m, d),
	}
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(core.NewDate(2024, 2, 10))
	assert.Equal(t, core.NewDate(2024, 2, 1), from)
	assert.Equal(t, core.NewDate(2024, 2, 29), to)

	from, to = MonthRange(core.NewDate(2025, 12, 31))
	assert.Equal(t, core.NewDate(2025, 12, 1), from)
	assert.Equal(t, core.NewDate(2025, 12, 31), to)
}

func TestSpendFor(t *testing.T) {
	ledger := []core.Transaction{
		spend("food_dining", 100, 2025, 11, 1),
		spend("food_dining", 50, 2025, 11, 30),
		spend("food_dining", 999, 2025, 10, 31),
		spend("groceries", 70, 2025, 11, 5),
		{Type: "EXPENSE", Category: "food_dining", Amount: decimal.NewFromInt(5), Date: core.NewDate(2025, 11, 2)},
		{Type: core.Income, Category: "food_dining", Amount: decimal.NewFromInt(500), Date: core.NewDate(2025, 11, 2)},
		{Type: core.Payment, Category: "food_dining", Amount: decimal.NewFromInt(500), Date: core.NewDate(2025, 11, 2)},
	}
	from, to := MonthRange(core.NewDate(2025, 11, 18))
	assert.Equal(t, "155", SpendFor(ledger, "food_dining", from, to).String())
}

func TestEvaluateStates(t *testing.T) {
	b := core.Budget{ID: "b1", CategoryID: "fuel", Amount: decimal.NewFromInt(1000), AlertThreshold: decimal.NewFromInt(80)}

	tests := []struct {
		name  string
		spent int64
		state State
		pct   string
	}{
		{"under threshold", 500, OK, "50"},
		{"at threshold", 800, NearLimit, "80"},
		{"exactly full", 1000, NearLimit, "100"},
		{"over", 1001, OverBudget, "100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := []core.Transaction{spend("fuel", tt.spent, 2025, 11, 3)}
			ev := Evaluate(b, ledger, asOf)
			assert.Equal(t, tt.state, ev.State)
			assert.Equal(t, tt.pct, ev.Percentage.String())
			assert.Equal(t, "b1", ev.BudgetID)
		})
	}
}

func TestEvaluateDefaultThreshold(t *testing.T) {
	b := core.Budget{CategoryID: "fuel", Amount: decimal.NewFromInt(100)}
	ev := Evaluate(b, []core.Transaction{spend("fuel", 85, 2025, 11, 3)}, asOf)
	assert.Equal(t, NearLimit, ev.State)
}

func TestEvaluateZeroBudget(t *testing.T) {
	b := core.Budget{CategoryID: "fuel"}

	ev := Evaluate(b, nil, asOf)
	assert.Equal(t, OK, ev.State)
	assert.True(t, ev.Percentage.IsZero())

	ev = Evaluate(b, []core.Transaction{spend("fuel", 1, 2025, 11, 3)}, asOf)
	assert.Equal(t, OverBudget, ev.State)
	assert.True(t, ev.Percentage.IsZero())
}

func TestEvaluateAll(t *testing.T) {
	budgets := []core.Budget{
		{ID: "a", CategoryID: "fuel", Amount: decimal.NewFromInt(100)},
		{ID: "b", CategoryID: "taxi", Amount: decimal.NewFromInt(100)},
	}
	got := EvaluateAll(budgets, []core.Transaction{spend("taxi", 150, 2025, 11, 1)}, asOf)
	require.Len(t, got, 2)
	assert.Equal(t, OK, got[0].State)
	assert.Equal(t, OverBudget, got[1].State)
}

func TestSeverity(t *testing.T) {
	assert.Less(t, OK.Severity(), NearLimit.Severity())
	assert.Less(t, NearLimit.Severity(), OverBudget.Severity())
}
