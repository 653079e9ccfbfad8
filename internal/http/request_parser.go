// Package http serves the JSON API over the ledger store.
//
// This file implements utilities for decoding and normalising request data.
// Request types here convert into domain values; validation stays with the
// domain types so handlers map every failure the same way.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

// decodeJSON reads at most maxBodyBytes and decodes them into v. An empty
// body is an error unless allowEmpty is set, in which case v is untouched.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return errBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if allowEmpty {
			return nil
		}
		return errEmptyBody
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// now as the default. Values that are present but malformed are an error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return MonthParams{}, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("invalid month %q", v)
		}
		params.Month = m
	}
	return params, nil
}

// HasMonth reports whether the query filters by month at all.
func HasMonth(query url.Values) bool {
	return query.Get("year") != "" || query.Get("month") != ""
}

// parseLimit reads a positive "limit" parameter, capped at max.
func parseLimit(query url.Values, def, max int) int {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// amountField accepts a JSON number or string in any format ParseAmount
// understands. Unparseable input decodes to zero and fails validation later.
type amountField struct {
	decimal.Decimal
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	d, err := core.ParseAmount(raw)
	if err != nil {
		d = decimal.Zero
	}
	a.Decimal = d
	return nil
}

// dateField rejects dates the ledger would not store as given. Snapshot
// decoding is lenient; request bodies are not.
type dateField struct {
	core.Date
}

func (d *dateField) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		d.Date = core.Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		d.Date = core.Date{}
		return nil
	}
	parsed, err := core.ParseDate(s)
	if err != nil {
		return err
	}
	d.Date = parsed
	return nil
}

type accountRequest struct {
	Name            string              `json:"name"`
	Type            string              `json:"type"`
	StartingBalance decimal.Decimal     `json:"startingBalance"`
	CreditLimit     decimal.NullDecimal `json:"creditLimit"`
	Last4Digits     string              `json:"last4Digits"`
	CardGroup       string              `json:"cardGroup"`
	Currency        string              `json:"currency"`
}

func (req accountRequest) account(id string) core.Account {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}
	return core.Account{
		ID:              id,
		Name:            sanitizeInput(req.Name),
		Type:            core.AccountType(strings.ToUpper(strings.TrimSpace(req.Type))),
		StartingBalance: req.StartingBalance,
		CreditLimit:     req.CreditLimit,
		Last4Digits:     strings.TrimSpace(req.Last4Digits),
		CardGroup:       strings.TrimSpace(req.CardGroup),
		Currency:        currency,
	}
}

type cardGroupRequest struct {
	Name              string          `json:"name"`
	SharedCreditLimit decimal.Decimal `json:"sharedCreditLimit"`
	StartingBalance   decimal.Decimal `json:"startingBalance"`
}

func (req cardGroupRequest) group(id string) core.CardGroup {
	return core.CardGroup{
		ID:                id,
		Name:              sanitizeInput(req.Name),
		SharedCreditLimit: req.SharedCreditLimit,
		StartingBalance:   req.StartingBalance,
	}
}

type transactionRequest struct {
	AccountID         string          `json:"accountId"`
	Amount            amountField     `json:"amount"`
	Type              core.TxType     `json:"type"`
	Category          core.CategoryID `json:"category"`
	Note              string          `json:"note"`
	Date              dateField       `json:"date"`
	Location          string          `json:"location"`
	MerchantName      string          `json:"merchantName"`
	TransactionMethod string          `json:"transactionMethod"`
}

// transaction builds the entry; a missing date means today.
func (req transactionRequest) transaction(id string, today core.Date) core.Transaction {
	date := req.Date.Date
	if date.IsZero() {
		date = today
	}
	return core.Transaction{
		ID:                id,
		AccountID:         strings.TrimSpace(req.AccountID),
		Amount:            req.Amount.Decimal,
		Type:              req.Type,
		Category:          core.CategoryID(strings.TrimSpace(string(req.Category))),
		Note:              sanitizeInput(req.Note),
		Date:              date,
		Location:          core.Location(sanitizeInput(req.Location)),
		MerchantName:      sanitizeInput(req.MerchantName),
		TransactionMethod: sanitizeInput(req.TransactionMethod),
	}
}

type budgetRequest struct {
	CategoryID     core.CategoryID `json:"categoryId"`
	Amount         amountField     `json:"amount"`
	Period         string          `json:"period"`
	StartDate      dateField       `json:"startDate"`
	AlertThreshold decimal.Decimal `json:"alertThreshold"`
}

func (req budgetRequest) budget(id string, today core.Date) core.Budget {
	period := core.BudgetPeriod(strings.ToUpper(strings.TrimSpace(req.Period)))
	if period == "" {
		period = core.Monthly
	}
	start := req.StartDate.Date
	if start.IsZero() {
		start = today
	}
	return core.Budget{
		ID:             id,
		CategoryID:     core.CategoryID(strings.TrimSpace(string(req.CategoryID))),
		Amount:         req.Amount.Decimal,
		Period:         period,
		StartDate:      start,
		AlertThreshold: req.AlertThreshold,
	}
}

type categoryRequest struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Color    string `json:"color"`
	Type     string `json:"type"`
	IsActive *bool  `json:"isActive"`
}

func (req categoryRequest) categoryType() core.CategoryType {
	return core.CategoryType(strings.ToUpper(strings.TrimSpace(req.Type)))
}

type smsRequest struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

type statementRequest struct {
	Text      string          `json:"text"`
	AccountID string          `json:"accountId"`
	Category  core.CategoryID `json:"category"`
}
