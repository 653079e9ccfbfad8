package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Notification is delivered once per accepted pending transaction and once
// per budget alert edge.
type Notification struct {
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Data   NotificationData `json:"data"`
	SentAt time.Time        `json:"sentAt"`
}

type NotificationData struct {
	TransactionID string `json:"transactionId,omitempty"`
	BudgetID      string `json:"budgetId,omitempty"`
}

// Notifier delivers notifications immediately, without batching.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// LogNotifier writes notifications to the log. It is the fallback when no
// transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	slog.InfoContext(ctx, "Notification",
		"title", n.Title,
		"body", n.Body,
		"transaction_id", n.Data.TransactionID,
		"budget_id", n.Data.BudgetID)
	return nil
}

// MultiNotifier fans a notification out to every notifier and joins their
// errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const defaultInboxSize = 50

// Inbox keeps the most recent notifications in memory for the API.
type Inbox struct {
	mu    sync.Mutex
	size  int
	items []Notification
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Inbox{size: size}
}

func (in *Inbox) Notify(_ context.Context, n Notification) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = append(in.items, n)
	if len(in.items) > in.size {
		in.items = append([]Notification(nil), in.items[len(in.items)-in.size:]...)
	}
	return nil
}

// Recent returns stored notifications, newest first.
func (in *Inbox) Recent() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]Notification, len(in.items))
	for i, n := range in.items {
		out[len(in.items)-1-i] = n
	}
	return out
}
