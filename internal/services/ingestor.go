package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/smsparser"
	"fintrack/internal/store"
)

// ErrPendingNotFound is returned when confirming or discarding an unknown draft.
var ErrPendingNotFound = errors.New("pending transaction not found")

// SMS is one inbound message from the listener.
type SMS struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Outcome says what happened to an inbound SMS.
type Outcome string

const (
	OutcomeAccepted       Outcome = "accepted"
	OutcomeSenderRejected Outcome = "sender_rejected"
	OutcomeNotTransaction Outcome = "not_transaction"
	OutcomeNoAccount      Outcome = "no_account"
	OutcomeDuplicate      Outcome = "duplicate"
)

// IngestResult carries the pending transaction when Outcome is accepted.
type IngestResult struct {
	Outcome     Outcome           `json:"outcome"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

// Edits are caller changes applied when a pending draft is confirmed.
// Nil fields keep the draft's value.
type Edits struct {
	AccountID *string          `json:"accountId,omitempty"`
	Category  *core.CategoryID `json:"category,omitempty"`
	Note      *string          `json:"note,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Type      *core.TxType     `json:"type,omitempty"`
	Date      *core.Date       `json:"date,omitempty"`
	Location  *string          `json:"location,omitempty"`
}

// Ingestor turns inbound SMS into pending transactions and promotes them to
// the ledger on confirmation. Messages are handled one at a time.
type Ingestor struct {
	store    *store.Store
	parser   *smsparser.Parser
	filter   smsparser.SenderFilter
	notifier Notifier
	newID    func() string

	mu sync.Mutex
}

// NewIngestor creates an ingestor. A nil notifier logs notifications.
func NewIngestor(st *store.Store, parser *smsparser.Parser, filter smsparser.SenderFilter, notifier Notifier) *Ingestor {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Ingestor{
		store:    st,
		parser:   parser,
		filter:   filter,
		notifier: notifier,
		newID:    uuid.NewString,
	}
}

// Ingest processes one message to completion. Unparseable, filtered and
// duplicate messages are skipped silently; only the outcome reports them.
func (i *Ingestor) Ingest(ctx context.Context, msg SMS) IngestResult {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.filter.Allows(msg.Sender) {
		slog.DebugContext(ctx, "SMS sender not allowed", "sender", msg.Sender)
		return IngestResult{Outcome: OutcomeSenderRejected}
	}

	draft, ok := i.parser.Parse(msg.Body)
	if !ok {
		slog.DebugContext(ctx, "SMS is not a transaction", "sender", msg.Sender)
		return IngestResult{Outcome: OutcomeNotTransaction}
	}

	state := i.store.State()
	accountID, ok := matchAccount(state, draft.Last4Digits)
	if !ok {
		slog.WarnContext(ctx, "No account to attach SMS transaction to", "sender", msg.Sender)
		return IngestResult{Outcome: OutcomeNoAccount}
	}

	tx := core.Transaction{
		ID:                i.newID(),
		AccountID:         accountID,
		Amount:            draft.Amount,
		Type:              draft.Type,
		Note:              draft.Description,
		Date:              draft.Date,
		MerchantName:      draft.MerchantName,
		TransactionMethod: draft.TransactionMethod,
		OriginalSMS:       msg.Body,
		Last4Digits:       draft.Last4Digits,
	}

	if IsDuplicate(state, tx) {
		slog.InfoContext(ctx, "Duplicate SMS skipped",
			"sender", msg.Sender,
			"amount", tx.Amount.String(),
			"merchant", tx.MerchantName)
		return IngestResult{Outcome: OutcomeDuplicate}
	}

	i.store.Dispatch(store.AddPendingTransaction{Transaction: tx})
	slog.InfoContext(ctx, "Pending transaction created from SMS",
		"transaction_id", tx.ID,
		"account_id", tx.AccountID,
		"type", string(tx.Type),
		"amount", tx.Amount.String(),
		"merchant", tx.MerchantName)

	n := Notification{
		Title:  pendingTitle(tx.Type),
		Body:   pendingBody(tx),
		Data:   NotificationData{TransactionID: tx.ID},
		SentAt: time.Now(),
	}
	if err := i.notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "Failed to deliver pending transaction notification",
			"transaction_id", tx.ID, "error", err)
	}

	return IngestResult{Outcome: OutcomeAccepted, Transaction: &tx}
}

// Confirm promotes a pending draft: it is removed from the pending list and
// then added to the ledger with edits applied. The draft id is kept.
func (i *Ingestor) Confirm(ctx context.Context, pendingID string, edits Edits) (core.Transaction, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	draft, ok := i.store.State().PendingByID(pendingID)
	if !ok {
		return core.Transaction{}, ErrPendingNotFound
	}

	tx := edits.apply(draft)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("confirm %s: %w", pendingID, err)
	}

	i.store.Dispatch(store.ConfirmTransaction{ID: pendingID})
	i.store.Dispatch(store.AddTransaction{Transaction: tx})

	slog.InfoContext(ctx, "Pending transaction confirmed",
		"transaction_id", tx.ID,
		"account_id", tx.AccountID,
		"category", string(tx.Category))
	return tx, nil
}

// Discard deletes a pending draft without touching the ledger.
func (i *Ingestor) Discard(ctx context.Context, pendingID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.store.State().PendingByID(pendingID); !ok {
		return ErrPendingNotFound
	}
	i.store.Dispatch(store.DeletePendingTransaction{ID: pendingID})
	slog.InfoContext(ctx, "Pending transaction discarded", "transaction_id", pendingID)
	return nil
}

// IsDuplicate reports whether tx matches a confirmed or pending entry by
// original SMS text, or by amount, date and merchant together.
func IsDuplicate(state store.State, tx core.Transaction) bool {
	check := func(list []core.Transaction) bool {
		for _, other := range list {
			if tx.OriginalSMS != "" && other.OriginalSMS == tx.OriginalSMS {
				return true
			}
			if other.Amount.Equal(tx.Amount) && other.Date.Equal(tx.Date.Time) && other.MerchantName == tx.MerchantName {
				return true
			}
		}
		return false
	}
	return check(state.Transactions) || check(state.PendingTransactions)
}

// matchAccount prefers the account with matching last four digits and falls
// back to the first account.
func matchAccount(state store.State, last4 string) (string, bool) {
	if a, ok := state.AccountByLast4(last4); ok {
		return a.ID, true
	}
	if len(state.Accounts) > 0 {
		return state.Accounts[0].ID, true
	}
	return "", false
}

func pendingTitle(t core.TxType) string {
	if t.Is(core.Income) {
		return "💰 Money received"
	}
	return "💸 New transaction"
}

func pendingBody(tx core.Transaction) string {
	verb := "Spent"
	switch {
	case tx.Type.Is(core.Income):
		verb = "Received"
	case tx.Type.Is(core.Payment):
		verb = "Paid"
	}
	return fmt.Sprintf("%s %s at %s. Tap to review.", verb, core.FormatRupees(tx.Amount), tx.MerchantName)
}

func (e Edits) apply(tx core.Transaction) core.Transaction {
	if e.AccountID != nil {
		tx.AccountID = *e.AccountID
	}
	if e.Category != nil {
		tx.Category = *e.Category
	}
	if e.Note != nil {
		tx.Note = *e.Note
	}
	if e.Amount != nil {
		tx.Amount = *e.Amount
	}
	if e.Type != nil {
		tx.Type = *e.Type
	}
	if e.Date != nil {
		tx.Date = *e.Date
	}
	if e.Location != nil {
		tx.Location = core.Location(*e.Location)
	}
	return tx
}
