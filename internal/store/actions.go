package store

import "fintrack/internal/core"

// Action is one of the named transitions Reduce understands. The set is
// closed: the unexported marker keeps other packages from adding cases.
type Action interface {
	Name() string
	action()
}

type (
	// Load replaces the whole state with a decoded snapshot.
	Load struct{ State State }

	AddAccount    struct{ Account core.Account }
	UpdateAccount struct{ Account core.Account }
	// DeleteAccount also removes every transaction of the account.
	DeleteAccount struct{ ID string }

	AddCardGroup    struct{ Group core.CardGroup }
	UpdateCardGroup struct{ Group core.CardGroup }
	// DeleteCardGroup ungroups the member cards; it never deletes them.
	DeleteCardGroup struct{ ID string }

	AddTransaction      struct{ Transaction core.Transaction }
	AddTransactionsBulk struct{ Transactions []core.Transaction }
	UpdateTransaction   struct{ Transaction core.Transaction }
	DeleteTransaction   struct{ ID string }

	AddPendingTransaction struct{ Transaction core.Transaction }
	// ConfirmTransaction only drops the draft from the pending list.
	// Callers add the final transaction with AddTransaction.
	ConfirmTransaction       struct{ ID string }
	DeletePendingTransaction struct{ ID string }

	AddCustomCategory    struct{ Category core.Category }
	UpdateCustomCategory struct{ Category core.Category }
	DeleteCustomCategory struct{ ID string }

	AddBudget    struct{ Budget core.Budget }
	UpdateBudget struct{ Budget core.Budget }
	DeleteBudget struct{ ID string }
)

func (Load) Name() string                     { return "LOAD_DATA" }
func (AddAccount) Name() string               { return "ADD_ACCOUNT" }
func (UpdateAccount) Name() string            { return "UPDATE_ACCOUNT" }
func (DeleteAccount) Name() string            { return "DELETE_ACCOUNT" }
func (AddCardGroup) Name() string             { return "ADD_CARD_GROUP" }
func (UpdateCardGroup) Name() string          { return "UPDATE_CARD_GROUP" }
func (DeleteCardGroup) Name() string          { return "DELETE_CARD_GROUP" }
func (AddTransaction) Name() string           { return "ADD_TRANSACTION" }
func (AddTransactionsBulk) Name() string      { return "ADD_TRANSACTIONS_BULK" }
func (UpdateTransaction) Name() string        { return "UPDATE_TRANSACTION" }
func (DeleteTransaction) Name() string        { return "DELETE_TRANSACTION" }
func (AddPendingTransaction) Name() string    { return "ADD_PENDING_TRANSACTION" }
func (ConfirmTransaction) Name() string       { return "CONFIRM_TRANSACTION" }
func (DeletePendingTransaction) Name() string { return "DELETE_PENDING_TRANSACTION" }
func (AddCustomCategory) Name() string        { return "ADD_CUSTOM_CATEGORY" }
func (UpdateCustomCategory) Name() string     { return "UPDATE_CUSTOM_CATEGORY" }
func (DeleteCustomCategory) Name() string     { return "DELETE_CUSTOM_CATEGORY" }
func (AddBudget) Name() string                { return "ADD_BUDGET" }
func (UpdateBudget) Name() string             { return "UPDATE_BUDGET" }
func (DeleteBudget) Name() string             { return "DELETE_BUDGET" }

func (Load) action()                     {}
func (AddAccount) action()               {}
func (UpdateAccount) action()            {}
func (DeleteAccount) action()            {}
func (AddCardGroup) action()             {}
func (UpdateCardGroup) action()          {}
func (DeleteCardGroup) action()          {}
func (AddTransaction) action()           {}
func (AddTransactionsBulk) action()      {}
func (UpdateTransaction) action()        {}
func (DeleteTransaction) action()        {}
func (AddPendingTransaction) action()    {}
func (ConfirmTransaction) action()       {}
func (DeletePendingTransaction) action() {}
func (AddCustomCategory) action()        {}
func (UpdateCustomCategory) action()     {}
func (DeleteCustomCategory) action()     {}
func (AddBudget) action()                {}
func (UpdateBudget) action()             {}
func (DeleteBudget) action()             {}
