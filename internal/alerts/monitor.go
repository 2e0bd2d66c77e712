// Package alerts watches cached spending and raises a notification when a
// user goes over their monthly budget.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensync/internal/core"
	"expensync/internal/log"
	"expensync/internal/store"

	"github.com/shopspring/decimal"
)

// Alert is raised once per user and month when spending crosses the limit.
type Alert struct {
	UserID    string
	Month     string // YYYY-MM
	Spent     decimal.Decimal
	Budget    decimal.Decimal
	Threshold decimal.Decimal
	Currency  string
	At        time.Time
}

// Limit is the amount that triggered the alert.
func (a Alert) Limit() decimal.Decimal {
	return a.Budget.Mul(a.Threshold)
}

type Publisher interface {
	PublishBudgetAlert(ctx context.Context, a Alert) error
}

// Source is the part of the store the monitor reads.
type Source interface {
	State() store.State
	Subscribe(fn func(store.Change)) (cancel func())
}

type Monitor struct {
	src       Source
	pub       Publisher
	threshold decimal.Decimal
	now       func() time.Time
	logger    *log.Logger

	mu   sync.Mutex
	sent map[string]struct{}
}

// NewBudgetMonitor returns a monitor that alerts when monthly spending goes
// above budget × threshold. A non-positive threshold means 1.
func NewBudgetMonitor(src Source, pub Publisher, threshold decimal.Decimal, logger *log.Logger) *Monitor {
	if !threshold.IsPositive() {
		threshold = decimal.NewFromInt(1)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Monitor{
		src:       src,
		pub:       pub,
		threshold: threshold,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentAlerts),
		sent:      make(map[string]struct{}),
	}
}

// Start checks after every settled expense change until stop is called.
func (m *Monitor) Start() (stop func()) {
	return m.src.Subscribe(func(c store.Change) {
		if c.Kind != store.KindExpenses || c.Phase != store.Settled || c.Stale {
			return
		}
		if _, _, err := m.Check(context.Background()); err != nil {
			m.logger.Warn("Budget check failed", log.FieldOperation, c.Op, log.FieldError, err)
		}
	})
}

// Check evaluates the current month and publishes when the limit is crossed
// for the first time. It reports the alert and whether it was sent.
func (m *Monitor) Check(ctx context.Context) (Alert, bool, error) {
	st := m.src.State()
	u := st.User
	if u.IsAnonymous() || !u.MonthlyBudget.IsPositive() {
		return Alert{}, false, nil
	}

	now := m.now()
	ov := core.Summarize(st.Expenses, st.Bills, u, core.Monthly, now)
	a := Alert{
		UserID:    u.ID,
		Month:     now.Format("2006-01"),
		Spent:     ov.TotalSpent,
		Budget:    u.MonthlyBudget,
		Threshold: m.threshold,
		Currency:  u.Preferences.Currency,
		At:        now,
	}
	if !a.Spent.GreaterThan(a.Limit()) {
		return a, false, nil
	}

	key := a.UserID + "/" + a.Month
	m.mu.Lock()
	if _, done := m.sent[key]; done {
		m.mu.Unlock()
		return a, false, nil
	}
	m.sent[key] = struct{}{}
	m.mu.Unlock()

	if err := m.pub.PublishBudgetAlert(ctx, a); err != nil {
		m.mu.Lock()
		delete(m.sent, key)
		m.mu.Unlock()
		return a, false, fmt.Errorf("publish budget alert: %w", err)
	}

	m.logger.InfoContext(ctx, "Budget alert published",
		log.FieldUserID, a.UserID,
		"month", a.Month,
		"spent", a.Spent.String(),
		"limit", a.Limit().String())
	return a, true, nil
}

// LogPublisher writes alerts to the log. Used when no broker is configured.
type LogPublisher struct {
	Logger *log.Logger
}

func (p LogPublisher) PublishBudgetAlert(_ context.Context, a Alert) error {
	p.Logger.Warn("Monthly budget exceeded",
		log.FieldUserID, a.UserID,
		"month", a.Month,
		"spent", core.FormatAmount(a.Spent, a.Currency),
		"budget", core.FormatAmount(a.Budget, a.Currency))
	return nil
}
