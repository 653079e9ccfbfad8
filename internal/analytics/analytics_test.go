package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
)

func entry(account string, t core.TxType, amount int64, category string, d core.Date) core.Transaction {
	return core.Transaction{AccountID: account, Type: t, Amount: decimal.NewFromInt(amount), Category: core.CategoryID(category), Date: d}
}

func TestAccountBalance(t *testing.T) {
	nov := core.NewDate(2025, 11, 2)
	bank := core.Account{ID: "bank", Name: "Axis", Type: core.AccountBank, StartingBalance: decimal.NewFromInt(1000)}
	card := core.Account{ID: "card", Name: "Card", Type: core.AccountCreditCard,
		StartingBalance: decimal.NewFromInt(200), CreditLimit: decimal.NewNullDecimal(decimal.NewFromInt(5000))}
	ledger := []core.Transaction{
		entry("bank", core.Income, 500, "salary", nov),
		entry("bank", core.Expense, 300, "fuel", nov),
		entry("bank", core.Payment, 100, "credit_payment", nov),
		entry("card", core.Expense, 800, "shopping", nov),
		entry("card", core.Payment, 100, "credit_payment", nov),
	}

	b := AccountBalance(bank, ledger)
	assert.Equal(t, "1100", b.Value.String())

	c := AccountBalance(card, ledger)
	assert.Equal(t, "900", c.Debt.String())
	assert.Equal(t, "4100", c.Value.String())

	assert.Equal(t, "200", NetWorth([]core.Account{bank, card}, ledger).String())
}

func TestMonthOverviewExcludesPayments(t *testing.T) {
	ledger := []core.Transaction{
		entry("a", core.Income, 5000, "salary", core.NewDate(2025, 11, 1)),
		entry("a", core.Expense, 300, "fuel", core.NewDate(2025, 11, 2)),
		entry("a", core.Expense, 200, "fuel", core.NewDate(2025, 11, 3)),
		entry("a", core.Expense, 400, "groceries", core.NewDate(2025, 11, 3)),
		entry("a", core.Payment, 1000, "credit_payment", core.NewDate(2025, 11, 4)),
		entry("a", core.Expense, 999, "fuel", core.NewDate(2025, 10, 4)),
		entry("a", core.Expense, 10, "mystery", core.NewDate(2025, 11, 4)),
	}

	ov := MonthOverview(ledger, catalog.New(nil), 2025, 11)
	assert.Equal(t, "5000", ov.Income.String())
	assert.Equal(t, "910", ov.Expense.String())
	assert.Equal(t, "4090", ov.Net.String())

	require.Len(t, ov.ByCategory, 3)
	assert.Equal(t, core.CategoryID("fuel"), ov.ByCategory[0].CategoryID)
	assert.Equal(t, "Fuel", ov.ByCategory[0].Name)
	assert.Equal(t, core.CategoryID("groceries"), ov.ByCategory[1].CategoryID)
	assert.Equal(t, "Other", ov.ByCategory[2].Name)
}
