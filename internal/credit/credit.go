// Package credit computes debt, available credit and utilization for single
// credit cards and for card groups sharing one limit.
//
// Every dashboard view goes through these functions so that the figures
// agree everywhere they are shown.
package credit

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var hundred = decimal.NewFromInt(100)

// SpentFor returns the running debt over cardIDs: initial debt plus every
// expense minus every payment. Income entries are ignored.
func SpentFor(ledger []core.Transaction, cardIDs []string, initial core.InitialDebt) decimal.Decimal {
	ids := make(map[string]struct{}, len(cardIDs))
	for _, id := range cardIDs {
		ids[id] = struct{}{}
	}

	spent := decimal.Zero
	for _, tx := range ledger {
		if _, ok := ids[tx.AccountID]; !ok || tx.AccountID == "" {
			continue
		}
		switch {
		case tx.Type.Is(core.Expense):
			spent = spent.Add(tx.Amount)
		case tx.Type.Is(core.Payment):
			spent = spent.Sub(tx.Amount)
		}
	}
	return spent.Add(initial.Amount)
}

// AvailableCredit is limit minus debt, never below zero.
func AvailableCredit(limit decimal.Decimal, ledger []core.Transaction, cardIDs []string, initial core.InitialDebt) decimal.Decimal {
	return available(limit, SpentFor(ledger, cardIDs, initial))
}

// Utilization is debt as a percentage of limit, capped at 100. A limit of
// zero or less reports 0.
func Utilization(limit decimal.Decimal, ledger []core.Transaction, cardIDs []string, initial core.InitialDebt) decimal.Decimal {
	return utilization(limit, SpentFor(ledger, cardIDs, initial))
}

// CardsInGroup returns the accounts whose CardGroup is groupID, in stored
// order.
func CardsInGroup(accounts []core.Account, groupID string) []core.Account {
	var out []core.Account
	if groupID == "" {
		return out
	}
	for _, a := range accounts {
		if a.CardGroup == groupID {
			out = append(out, a)
		}
	}
	return out
}

func available(limit, spent decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, limit.Sub(spent))
}

func utilization(limit, spent decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(hundred, spent.Mul(hundred).Div(limit))
}
