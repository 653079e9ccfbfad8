package store

import "fintrack/internal/core"

// Reduce applies a to s and returns the next state. Collections the action
// does not touch are shared with s; touched ones are freshly allocated.
// Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Load:
		return a.State.normalized()

	case AddAccount:
		s.Accounts = appendCopy(s.Accounts, a.Account)
	case UpdateAccount:
		s.Accounts = replace(s.Accounts, a.Account, func(x core.Account) bool { return x.ID == a.Account.ID })
	case DeleteAccount:
		s.Accounts = remove(s.Accounts, func(x core.Account) bool { return x.ID == a.ID })
		s.Transactions = remove(s.Transactions, func(x core.Transaction) bool { return x.AccountID == a.ID })

	case AddCardGroup:
		s.CardGroups = appendCopy(s.CardGroups, a.Group)
	case UpdateCardGroup:
		s.CardGroups = replace(s.CardGroups, a.Group, func(x core.CardGroup) bool { return x.ID == a.Group.ID })
	case DeleteCardGroup:
		s.CardGroups = remove(s.CardGroups, func(x core.CardGroup) bool { return x.ID == a.ID })
		accounts := make([]core.Account, len(s.Accounts))
		for i, acc := range s.Accounts {
			if acc.CardGroup == a.ID {
				acc.CardGroup = ""
			}
			accounts[i] = acc
		}
		s.Accounts = accounts

	case AddTransaction:
		s.Transactions = prepend(s.Transactions, a.Transaction)
	case AddTransactionsBulk:
		s.Transactions = prepend(s.Transactions, a.Transactions...)
	case UpdateTransaction:
		s.Transactions = replace(s.Transactions, a.Transaction, func(x core.Transaction) bool { return x.ID == a.Transaction.ID })
	case DeleteTransaction:
		s.Transactions = remove(s.Transactions, func(x core.Transaction) bool { return x.ID == a.ID })

	case AddPendingTransaction:
		s.PendingTransactions = prepend(s.PendingTransactions, a.Transaction)
	case ConfirmTransaction:
		s.PendingTransactions = remove(s.PendingTransactions, func(x core.Transaction) bool { return x.ID == a.ID })
	case DeletePendingTransaction:
		s.PendingTransactions = remove(s.PendingTransactions, func(x core.Transaction) bool { return x.ID == a.ID })

	case AddCustomCategory:
		s.CustomCategories = appendCopy(s.CustomCategories, a.Category)
	case UpdateCustomCategory:
		s.CustomCategories = replace(s.CustomCategories, a.Category, func(x core.Category) bool { return x.ID == a.Category.ID })
	case DeleteCustomCategory:
		s.CustomCategories = remove(s.CustomCategories, func(x core.Category) bool { return x.ID == a.ID })

	case AddBudget:
		s.Budgets = appendCopy(s.Budgets, a.Budget)
	case UpdateBudget:
		s.Budgets = replace(s.Budgets, a.Budget, func(x core.Budget) bool { return x.ID == a.Budget.ID })
	case DeleteBudget:
		s.Budgets = remove(s.Budgets, func(x core.Budget) bool { return x.ID == a.ID })
	}
	return s
}

func appendCopy[T any](list []T, items ...T) []T {
	out := make([]T, 0, len(list)+len(items))
	out = append(out, list...)
	return append(out, items...)
}

func prepend[T any](list []T, items ...T) []T {
	out := make([]T, 0, len(list)+len(items))
	out = append(out, items...)
	return append(out, list...)
}

func replace[T any](list []T, item T, match func(T) bool) []T {
	out := make([]T, len(list))
	for i, x := range list {
		if match(x) {
			out[i] = item
			continue
		}
		out[i] = x
	}
	return out
}

func remove[T any](list []T, match func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, x := range list {
		if !match(x) {
			out = append(out, x)
		}
	}
	return out
}
