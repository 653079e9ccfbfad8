// Package analytics derives balances and monthly overviews from the ledger.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/credit"
)

// Balance is what an account shows on the dashboard. For credit cards
// Value is the available credit and Debt is filled in; for every other
// account Value is the cash balance.
type Balance struct {
	AccountID string           `json:"accountId"`
	Name      string           `json:"name"`
	Type      core.AccountType `json:"type"`
	Value     decimal.Decimal  `json:"value"`
	Debt      decimal.Decimal  `json:"debt,omitempty"`
}

// AccountBalance computes the balance of a single account.
func AccountBalance(account core.Account, ledger []core.Transaction) Balance {
	b := Balance{AccountID: account.ID, Name: account.Name, Type: account.Type}
	if account.IsCredit() {
		s := credit.CardSummary(account, ledger)
		b.Value = s.Available
		b.Debt = s.Debt
		return b
	}

	value := account.OpeningBalance().Amount
	for _, tx := range ledger {
		if tx.AccountID != account.ID {
			continue
		}
		if tx.Type.Is(core.Income) {
			value = value.Add(tx.Amount)
		} else {
			// Expenses and payments both leave the account.
			value = value.Sub(tx.Amount)
		}
	}
	b.Value = value
	return b
}

// NetWorth sums cash balances and subtracts credit card debt.
func NetWorth(accounts []core.Account, ledger []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		b := AccountBalance(a, ledger)
		if a.IsCredit() {
			total = total.Sub(b.Debt)
			continue
		}
		total = total.Add(b.Value)
	}
	return total
}

// MonthOverview totals income and expense for year and month. Payments are
// left out of the expense figures.
func MonthOverview(ledger []core.Transaction, cat *catalog.Catalog, year, month int) core.MonthOverview {
	ov := core.MonthOverview{Year: year, Month: month, Income: decimal.Zero, Expense: decimal.Zero}
	byCat := map[core.CategoryID]decimal.Decimal{}
	for _, tx := range ledger {
		if tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		switch {
		case tx.Type.Is(core.Income):
			ov.Income = ov.Income.Add(tx.Amount)
		case tx.Type.Is(core.Expense):
			ov.Expense = ov.Expense.Add(tx.Amount)
			byCat[tx.Category] = byCat[tx.Category].Add(tx.Amount)
		}
	}
	ov.Net = ov.Income.Sub(ov.Expense)

	for id, amount := range byCat {
		info := cat.Resolve(id)
		ov.ByCategory = append(ov.ByCategory, core.CategoryAmount{
			CategoryID: id,
			Name:       info.Name,
			Emoji:      info.Emoji,
			Amount:     amount,
		})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.CategoryID < b.CategoryID
	})
	return ov
}
