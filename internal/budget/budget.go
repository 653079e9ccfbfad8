// Package budget evaluates monthly category budgets against the ledger.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// State is the alert level of a budget.
type State string

const (
	OK         State = "OK"
	NearLimit  State = "NEAR_LIMIT"
	OverBudget State = "OVER_BUDGET"
)

var hundred = decimal.NewFromInt(100)

// Severity orders states for edge detection.
func (s State) Severity() int {
	switch s {
	case NearLimit:
		return 1
	case OverBudget:
		return 2
	default:
		return 0
	}
}

// Evaluation is a budget's month-to-date standing.
type Evaluation struct {
	BudgetID   string          `json:"budgetId"`
	CategoryID core.CategoryID `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Spent      decimal.Decimal `json:"spent"`
	Percentage decimal.Decimal `json:"percentage"`
	State      State           `json:"state"`
	From       core.Date       `json:"from"`
	To         core.Date       `json:"to"`
}

// MonthRange returns the first and last day of the month containing d.
func MonthRange(d core.Date) (core.Date, core.Date) {
	first := core.NewDate(d.Year(), d.Month(), 1)
	last := core.DateOf(first.AddDate(0, 1, -1))
	return first, last
}

// SpendFor sums expense amounts in categoryID dated within [from, to].
func SpendFor(ledger []core.Transaction, categoryID core.CategoryID, from, to core.Date) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range ledger {
		if !tx.Type.Is(core.Expense) || tx.Category != categoryID {
			continue
		}
		if !tx.Date.Between(from, to) {
			continue
		}
		spent = spent.Add(tx.Amount)
	}
	return spent
}

// Evaluate compares spend in the month containing asOf with the budget.
// Over budget means strictly more than 100 percent; near limit means at or
// above the alert threshold. A zero budget reports 0 percent and is over
// budget as soon as anything is spent.
func Evaluate(b core.Budget, ledger []core.Transaction, asOf time.Time) Evaluation {
	from, to := MonthRange(core.DateOf(asOf))
	spent := SpendFor(ledger, b.CategoryID, from, to)

	ev := Evaluation{
		BudgetID:   b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount,
		Spent:      spent,
		Percentage: decimal.Zero,
		State:      OK,
		From:       from,
		To:         to,
	}

	if !b.Amount.IsPositive() {
		if spent.IsPositive() {
			ev.State = OverBudget
		}
		return ev
	}

	ev.Percentage = spent.Mul(hundred).Div(b.Amount)
	switch {
	case ev.Percentage.GreaterThan(hundred):
		ev.State = OverBudget
	case ev.Percentage.GreaterThanOrEqual(b.Threshold()):
		ev.State = NearLimit
	}
	return ev
}

// EvaluateAll evaluates every budget in order.
func EvaluateAll(budgets []core.Budget, ledger []core.Transaction, asOf time.Time) []Evaluation {
	out := make([]Evaluation, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, Evaluate(b, ledger, asOf))
	}
	return out
}
