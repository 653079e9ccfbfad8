package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID CategoryID      `json:"categoryId"`
	Name       string          `json:"name"`
	Emoji      string          `json:"emoji"`
	Amount     decimal.Decimal `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
// Payments are excluded from Expense.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     decimal.Decimal  `json:"income"`
	Expense    decimal.Decimal  `json:"expense"`
	Net        decimal.Decimal  `json:"net"`
	ByCategory []CategoryAmount `json:"byCategory"`
}
