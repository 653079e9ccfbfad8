// Package store holds the authoritative in-memory ledger. State changes only
// through Reduce, and Store publishes every change to its subscribers.
package store

import "fintrack/internal/core"

// UnknownAccount is shown for transactions whose account no longer exists.
const UnknownAccount = "Unknown Account"

// State is the whole persisted ledger. Treat it as immutable: Reduce
// returns a new value and never writes into the slices of its input.
type State struct {
	Accounts            []core.Account     `json:"accounts"`
	Transactions        []core.Transaction `json:"transactions"`
	PendingTransactions []core.Transaction `json:"pendingTransactions"`
	CardGroups          []core.CardGroup   `json:"cardGroups"`
	CustomCategories    []core.Category    `json:"customCategories"`
	Budgets             []core.Budget      `json:"budgets"`
}

// Empty returns a state with every collection present and empty.
func Empty() State {
	return State{}.normalized()
}

func (s State) normalized() State {
	if s.Accounts == nil {
		s.Accounts = []core.Account{}
	}
	if s.Transactions == nil {
		s.Transactions = []core.Transaction{}
	}
	if s.PendingTransactions == nil {
		s.PendingTransactions = []core.Transaction{}
	}
	if s.CardGroups == nil {
		s.CardGroups = []core.CardGroup{}
	}
	if s.CustomCategories == nil {
		s.CustomCategories = []core.Category{}
	}
	if s.Budgets == nil {
		s.Budgets = []core.Budget{}
	}
	return s
}

// AccountByID returns the account with id.
func (s State) AccountByID(id string) (core.Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return core.Account{}, false
}

// AccountName returns the account's name or UnknownAccount when the
// reference is empty or dangling.
func (s State) AccountName(id string) string {
	if a, ok := s.AccountByID(id); ok {
		return a.Name
	}
	return UnknownAccount
}

// CardGroupByID returns the card group with id.
func (s State) CardGroupByID(id string) (core.CardGroup, bool) {
	for _, g := range s.CardGroups {
		if g.ID == id {
			return g, true
		}
	}
	return core.CardGroup{}, false
}

// TransactionByID returns the confirmed transaction with id.
func (s State) TransactionByID(id string) (core.Transaction, bool) {
	return findTx(s.Transactions, id)
}

// PendingByID returns the pending transaction with id.
func (s State) PendingByID(id string) (core.Transaction, bool) {
	return findTx(s.PendingTransactions, id)
}

// BudgetByID returns the budget with id.
func (s State) BudgetByID(id string) (core.Budget, bool) {
	for _, b := range s.Budgets {
		if b.ID == id {
			return b, true
		}
	}
	return core.Budget{}, false
}

// TransactionsFor returns the confirmed transactions of one account in
// stored order.
func (s State) TransactionsFor(accountID string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range s.Transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out
}

// AccountByLast4 returns the first account whose last four digits match.
func (s State) AccountByLast4(last4 string) (core.Account, bool) {
	if last4 == "" {
		return core.Account{}, false
	}
	for _, a := range s.Accounts {
		if a.Last4Digits == last4 {
			return a, true
		}
	}
	return core.Account{}, false
}

func findTx(list []core.Transaction, id string) (core.Transaction, bool) {
	for _, tx := range list {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
