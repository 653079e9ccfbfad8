package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/budget"
	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// AlertsConfig holds configuration for budget alerts
type AlertsConfig struct {
	// Schedule is a standard cron spec for periodic re-evaluation (default: hourly)
	Schedule string

	// Now supplies the evaluation time. Defaults to time.Now.
	Now func() time.Time
}

// mark is the last state a budget was seen in, per calendar month.
type mark struct {
	month string
	state budget.State
}

// Alert describes one fired notification.
type Alert struct {
	BudgetID   string            `json:"budgetId"`
	Evaluation budget.Evaluation `json:"evaluation"`
	Previous   budget.State      `json:"previous"`
}

// BudgetAlerts notifies when a budget moves to a more severe state within a
// month. Staying in a state never notifies again; dropping back or a new
// month re-arms the budget.
type BudgetAlerts struct {
	store    *store.Store
	notifier Notifier
	config   AlertsConfig
	cron     *cron.Cron

	checkMu sync.Mutex
	marks   map[string]mark
	trigger chan struct{}

	// Lifecycle management
	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	unsubscribe func()
}

// NewBudgetAlerts creates budget alerts. A nil notifier logs notifications.
func NewBudgetAlerts(st *store.Store, notifier Notifier, config AlertsConfig) *BudgetAlerts {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if config.Schedule == "" {
		config.Schedule = "0 * * * *"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &BudgetAlerts{
		store:    st,
		notifier: notifier,
		config:   config,
		cron:     cron.New(),
		marks:    make(map[string]mark),
		trigger:  make(chan struct{}, 1),
	}
}

// Start records the current budget states without notifying, then
// re-evaluates after every store change and on the schedule.
func (b *BudgetAlerts) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("budget alerts are already running")
	}

	if _, err := b.cron.AddFunc(b.config.Schedule, b.poke); err != nil {
		b.mu.Unlock()
		return fmt.Errorf("schedule budget check: %w", err)
	}

	b.Prime()

	b.running = true
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.unsubscribe = b.store.Subscribe(func(_, _ store.State, _ uint64, _ store.Action) { b.poke() })
	b.mu.Unlock()

	b.cron.Start()
	go b.runLoop(ctx)

	slog.InfoContext(ctx, "Budget alerts started", "schedule", b.config.Schedule)
	return nil
}

// Stop halts the schedule and waits for an in-flight check to finish.
func (b *BudgetAlerts) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.unsubscribe()
	b.mu.Unlock()

	cronCtx := b.cron.Stop()
	close(b.stopCh)

	select {
	case <-b.doneCh:
		<-cronCtx.Done()
		slog.InfoContext(ctx, "Budget alerts stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Budget alerts stop timed out")
		return ctx.Err()
	}

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
	return nil
}

// IsRunning returns whether alerts are currently running
func (b *BudgetAlerts) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *BudgetAlerts) poke() {
	select {
	case b.trigger <- struct{}{}:
	default:
	}
}

func (b *BudgetAlerts) runLoop(ctx context.Context) {
	defer close(b.doneCh)

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-b.trigger:
			b.Check(ctx)
		}
	}
}

// Prime records every budget's current state without notifying.
func (b *BudgetAlerts) Prime() {
	b.checkMu.Lock()
	defer b.checkMu.Unlock()

	state := b.store.State()
	now := b.config.Now()
	month := now.Format("2006-01")
	for _, ev := range budget.EvaluateAll(state.Budgets, state.Transactions, now) {
		b.marks[ev.BudgetID] = mark{month: month, state: ev.State}
	}
}

// Check evaluates every budget and notifies each severity increase since
// the last delivered alert. It returns the alerts it delivered.
func (b *BudgetAlerts) Check(ctx context.Context) []Alert {
	b.checkMu.Lock()
	defer b.checkMu.Unlock()

	state := b.store.State()
	now := b.config.Now()
	month := now.Format("2006-01")
	names := catalog.New(state.CustomCategories)

	seen := make(map[string]bool, len(state.Budgets))
	var fired []Alert
	for _, ev := range budget.EvaluateAll(state.Budgets, state.Transactions, now) {
		seen[ev.BudgetID] = true

		prev := budget.OK
		if m, ok := b.marks[ev.BudgetID]; ok && m.month == month {
			prev = m.state
		}
		if ev.State.Severity() <= prev.Severity() {
			b.marks[ev.BudgetID] = mark{month: month, state: ev.State}
			continue
		}

		// The mark only advances once delivered, so a failure is retried.
		n := budgetNotification(ev, names.Resolve(ev.CategoryID).Name, now)
		if err := b.notifier.Notify(ctx, n); err != nil {
			slog.WarnContext(ctx, "Failed to deliver budget alert",
				"budget_id", ev.BudgetID, "error", err)
			b.marks[ev.BudgetID] = mark{month: month, state: prev}
			continue
		}
		b.marks[ev.BudgetID] = mark{month: month, state: ev.State}
		fired = append(fired, Alert{BudgetID: ev.BudgetID, Evaluation: ev, Previous: prev})
		slog.InfoContext(ctx, "Budget alert sent",
			"budget_id", ev.BudgetID,
			"category", string(ev.CategoryID),
			"budget_state", string(ev.State),
			"previous_state", string(prev))
	}

	for id := range b.marks {
		if !seen[id] {
			delete(b.marks, id)
		}
	}
	return fired
}

func budgetNotification(ev budget.Evaluation, category string, now time.Time) Notification {
	n := Notification{
		Data:   NotificationData{BudgetID: ev.BudgetID},
		SentAt: now,
	}
	if ev.State == budget.OverBudget {
		n.Title = "🚨 Budget Exceeded"
		n.Body = fmt.Sprintf("%s: spent %s of %s this month.",
			category, core.FormatRupees(ev.Spent), core.FormatRupees(ev.Amount))
		return n
	}
	n.Title = "⚠️ Budget Alert"
	n.Body = fmt.Sprintf("%s: %s%% of your %s budget used.",
		category, ev.Percentage.Round(0).String(), core.FormatRupees(ev.Amount))
	return n
}
