package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	AccountBank       AccountType = "BANK"
	AccountCreditCard AccountType = "CREDIT_CARD"
	AccountCash       AccountType = "CASH"
	AccountOther      AccountType = "OTHER"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
	// Payment reduces credit card debt. It is never counted as spending.
	Payment TxType = "payment"
)

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

const Monthly BudgetPeriod = "MONTHLY"

// DefaultAlertThreshold is used when a budget carries no threshold.
var DefaultAlertThreshold = decimal.NewFromInt(80)

type (
	AccountType  string
	CategoryType string
	BudgetPeriod string

	// Account is a bank account, credit card, cash wallet or anything else
	// that holds or owes money. For credit cards StartingBalance is the
	// initial debt (positive means money owed); use InitialDebt and
	// OpeningBalance instead of reading the raw field.
	Account struct {
		ID              string              `json:"id"`
		Name            string              `json:"name"`
		Type            AccountType         `json:"type"`
		StartingBalance decimal.Decimal     `json:"startingBalance"`
		CreditLimit     decimal.NullDecimal `json:"creditLimit"`
		Last4Digits     string              `json:"last4Digits,omitempty"`
		CardGroup       string              `json:"cardGroup,omitempty"` // empty when ungrouped
		Currency        string              `json:"currency,omitempty"`
	}

	// CardGroup is a set of credit cards sharing one limit. Membership is
	// derived from Account.CardGroup; the group keeps no member list.
	CardGroup struct {
		ID                string          `json:"id"`
		Name              string          `json:"name"`
		SharedCreditLimit decimal.Decimal `json:"sharedCreditLimit"`
		StartingBalance   decimal.Decimal `json:"startingBalance"`
	}

	// Transaction is one ledger entry. Amount is never negative, the
	// direction lives in Type.
	Transaction struct {
		ID                string          `json:"id"`
		AccountID         string          `json:"accountId,omitempty"`
		Amount            decimal.Decimal `json:"amount"`
		Type              TxType          `json:"type"`
		Category          CategoryID      `json:"category,omitempty"`
		Note              string          `json:"note,omitempty"`
		Date              Date            `json:"date"`
		Location          Location        `json:"location,omitempty"`
		MerchantName      string          `json:"merchantName,omitempty"`
		TransactionMethod string          `json:"transactionMethod,omitempty"`
		OriginalSMS       string          `json:"originalSms,omitempty"`
		Last4Digits       string          `json:"last4Digits,omitempty"`
	}

	Category struct {
		ID       string       `json:"id"`
		Name     string       `json:"name"`
		Emoji    string       `json:"emoji"`
		Color    string       `json:"color"`
		Type     CategoryType `json:"type"`
		IsCustom bool         `json:"isCustom,omitempty"`
		IsActive bool         `json:"isActive,omitempty"`
	}

	Budget struct {
		ID             string          `json:"id"`
		CategoryID     CategoryID      `json:"categoryId"`
		Amount         decimal.Decimal `json:"amount"`
		Period         BudgetPeriod    `json:"period"`
		StartDate      Date            `json:"startDate"`
		AlertThreshold decimal.Decimal `json:"alertThreshold"` // percent, 0-100
	}

	// InitialDebt is what a credit card or card group owed before the
	// first ledger entry. Positive means money owed.
	InitialDebt struct {
		Amount decimal.Decimal
	}

	// OpeningBalance is the cash balance of a bank, cash or other account
	// before the first ledger entry.
	OpeningBalance struct {
		Amount decimal.Decimal
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyID            = errors.New("empty id")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidTxType      = errors.New("invalid transaction type")
	ErrInvalidLast4       = errors.New("last 4 digits must be exactly 4 digits")
	ErrNegativeLimit      = errors.New("credit limit cannot be negative")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidThreshold   = errors.New("alert threshold must be between 0 and 100")
	ErrInvalidCategory    = errors.New("invalid category type")
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountBank, AccountCreditCard, AccountCash, AccountOther:
		return true
	default:
		return false
	}
}

// IsCredit reports whether the account tracks debt rather than a balance.
func (a Account) IsCredit() bool {
	return a.Type == AccountCreditCard
}

// InitialDebt returns the starting debt of a credit card. It is zero for
// every other account type.
func (a Account) InitialDebt() InitialDebt {
	if !a.IsCredit() {
		return InitialDebt{Amount: decimal.Zero}
	}
	return InitialDebt{Amount: a.StartingBalance}
}

// OpeningBalance returns the starting cash balance. It is zero for credit
// cards, whose starting figure is debt.
func (a Account) OpeningBalance() OpeningBalance {
	if a.IsCredit() {
		return OpeningBalance{Amount: decimal.Zero}
	}
	return OpeningBalance{Amount: a.StartingBalance}
}

// Limit returns the credit limit, zero when unset.
func (a Account) Limit() decimal.Decimal {
	if !a.CreditLimit.Valid {
		return decimal.Zero
	}
	return a.CreditLimit.Decimal
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	if a.Last4Digits != "" && !isFourDigits(a.Last4Digits) {
		return ErrInvalidLast4
	}
	if a.CreditLimit.Valid && a.CreditLimit.Decimal.IsNegative() {
		return ErrNegativeLimit
	}
	return nil
}

// InitialDebt returns the aggregate debt the group started with.
func (g CardGroup) InitialDebt() InitialDebt {
	return InitialDebt{Amount: g.StartingBalance}
}

func (g CardGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.SharedCreditLimit.IsNegative() {
		return ErrNegativeLimit
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return ErrInvalidTxType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (t CategoryType) IsValid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}

// Threshold returns the alert threshold, falling back to the default when
// none was set.
func (b Budget) Threshold() decimal.Decimal {
	if b.AlertThreshold.IsZero() {
		return DefaultAlertThreshold
	}
	return b.AlertThreshold
}

func (b Budget) Validate() error {
	if strings.TrimSpace(string(b.CategoryID)) == "" {
		return ErrEmptyCategory
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.AlertThreshold.IsNegative() || b.AlertThreshold.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidThreshold
	}
	return nil
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
