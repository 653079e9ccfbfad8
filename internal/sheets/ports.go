package sheets

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// LedgerRow is one confirmed transaction as it appears in the export sheet.
// Account and Category hold display names, not ids.
type LedgerRow struct {
	TransactionID string
	Date          core.Date
	Account       string
	Type          core.TxType
	Amount        decimal.Decimal
	Category      string
	Merchant      string
	Method        string
	Note          string
}

// Ports for outbound adapters.
type (
	// LedgerWriter appends rows after the last filled row of the ledger sheet.
	LedgerWriter interface {
		AppendRows(ctx context.Context, rows []LedgerRow) (rangeRef string, err error)
	}
)

// Header is the column layout written by every LedgerWriter.
var Header = []string{"Date", "Account", "Type", "Amount", "Category", "Merchant", "Method", "Note", "Transaction ID"}

// Values renders a row in Header order.
func (r LedgerRow) Values() []any {
	return []any{
		r.Date.String(),
		r.Account,
		string(r.Type),
		r.Amount.StringFixed(2),
		r.Category,
		r.Merchant,
		r.Method,
		r.Note,
		r.TransactionID,
	}
}
