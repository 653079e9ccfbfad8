// Package smsparser turns bank SMS text into draft transactions.
//
// Parsing is a best-effort classifier run as independent stages (OTP guard,
// direction, amount, account, date, method, merchant). Each stage either
// yields a value or reports "not found"; only a missing direction or amount
// rejects the message.
package smsparser

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Draft is the parser output, ready to become a pending transaction.
type Draft struct {
	Amount            decimal.Decimal `json:"amount"`
	Type              core.TxType     `json:"type"`
	Last4Digits       string          `json:"last4Digits,omitempty"`
	Date              core.Date       `json:"date"`
	MerchantName      string          `json:"merchantName"`
	TransactionMethod string          `json:"transactionMethod,omitempty"`
	Description       string          `json:"description"`
}

// Parser parses SMS bodies. The zero value is ready to use and dates
// messages without a recognisable date with the current day.
type Parser struct {
	// Now supplies the processing time. Defaults to time.Now.
	Now func() time.Time
}

// New returns a parser using clock for the date fallback.
func New(clock func() time.Time) *Parser {
	return &Parser{Now: clock}
}

func (p *Parser) today() core.Date {
	if p == nil || p.Now == nil {
		return core.DateOf(time.Now())
	}
	return core.DateOf(p.Now())
}

// Parse extracts a draft from body. The bool is false when the message is
// an OTP, not a transaction, or carries no usable amount.
//
// The sender is not inspected here; filter senders with SenderFilter first.
func (p *Parser) Parse(body string) (Draft, bool) {
	if IsOTP(body) {
		return Draft{}, false
	}

	dir := Classify(body)
	if dir == Unknown {
		return Draft{}, false
	}

	amount, ok := ExtractAmount(body)
	if !ok {
		return Draft{}, false
	}

	date, ok := ExtractDate(body)
	if !ok {
		date = p.today()
	}

	method, _ := ExtractMethod(body)
	merchant := CleanMerchant(ExtractMerchant(body, dir))
	last4, _ := ExtractLast4(body)

	txType := core.Expense
	if dir.IsCredit() {
		txType = core.Income
	}

	return Draft{
		Amount:            amount,
		Type:              txType,
		Last4Digits:       last4,
		Date:              date,
		MerchantName:      merchant,
		TransactionMethod: method,
		Description:       describe(method, merchant),
	}, true
}

func describe(method, merchant string) string {
	if method == "" {
		method = "Transaction"
	}
	return fmt.Sprintf("%s - %s", method, merchant)
}
