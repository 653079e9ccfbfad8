package credit

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Summary is the dashboard view of one card or card group.
type Summary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Debt        decimal.Decimal `json:"debt"`
	Limit       decimal.Decimal `json:"limit"`
	Available   decimal.Decimal `json:"available"`
	Utilization decimal.Decimal `json:"utilization"`
	Cards       []string        `json:"cards,omitempty"`
}

func summarize(id, name string, limit, debt decimal.Decimal, cards []string) Summary {
	return Summary{
		ID:          id,
		Name:        name,
		Debt:        debt,
		Limit:       limit,
		Available:   available(limit, debt),
		Utilization: utilization(limit, debt),
		Cards:       cards,
	}
}

// CardSummary covers a single card against its own limit.
func CardSummary(card core.Account, ledger []core.Transaction) Summary {
	debt := SpentFor(ledger, []string{card.ID}, card.InitialDebt())
	return summarize(card.ID, card.Name, card.Limit(), debt, nil)
}

// GroupSummary covers every member card against the shared limit. The
// group's initial debt stands in for the members' own starting balances.
func GroupSummary(group core.CardGroup, accounts []core.Account, ledger []core.Transaction) Summary {
	members := CardsInGroup(accounts, group.ID)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	debt := SpentFor(ledger, ids, group.InitialDebt())
	return summarize(group.ID, group.Name, group.SharedCreditLimit, debt, ids)
}

// Overview splits credit cards into group summaries and summaries of cards
// that belong to no live group. Cards pointing at a deleted group count as
// ungrouped.
func Overview(accounts []core.Account, groups []core.CardGroup, ledger []core.Transaction) (grouped []Summary, single []Summary) {
	live := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		live[g.ID] = struct{}{}
		grouped = append(grouped, GroupSummary(g, accounts, ledger))
	}
	for _, a := range accounts {
		if !a.IsCredit() {
			continue
		}
		if _, ok := live[a.CardGroup]; ok && a.CardGroup != "" {
			continue
		}
		single = append(single, CardSummary(a, ledger))
	}
	return grouped, single
}
