package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"expensync/internal/core"
	"expensync/internal/gateway"
	"expensync/internal/session"
	"expensync/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func (p *recordingPublisher) PublishBudgetAlert(_ context.Context, a Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

type staticSource struct {
	state store.State
}

func (s staticSource) State() store.State { return s.state }

func (staticSource) Subscribe(func(store.Change)) func() { return func() {} }

func user(budget int64) core.User {
	return core.User{
		ID:            "u1",
		FirstName:     "Asha",
		MonthlyBudget: decimal.NewFromInt(budget),
		Preferences:   core.Preferences{Currency: "INR"},
	}
}

func spend(amount int64, at time.Time) core.Expense {
	return core.Expense{ID: at.String(), Amount: decimal.NewFromInt(amount), Merchant: "m", Category: "Food", Date: core.NewTimestamp(at)}
}

func newMonitor(src Source, pub Publisher, threshold string) *Monitor {
	m := NewBudgetMonitor(src, pub, decimal.RequireFromString(threshold), nil)
	m.now = func() time.Time { return now }
	return m
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		user      core.User
		expenses  []core.Expense
		threshold string
		want      bool
	}{
		{"under budget", user(1000), []core.Expense{spend(400, now), spend(500, now)}, "1", false},
		{"exactly at budget", user(1000), []core.Expense{spend(1000, now)}, "1", false},
		{"over budget", user(1000), []core.Expense{spend(600, now), spend(500, now)}, "1", true},
		{"over threshold", user(1000), []core.Expense{spend(850, now)}, "0.8", true},
		{"last month ignored", user(1000), []core.Expense{spend(5000, now.AddDate(0, -1, 0))}, "1", false},
		{"no budget", user(0), []core.Expense{spend(5000, now)}, "1", false},
		{"anonymous", core.Anonymous(), []core.Expense{spend(5000, now)}, "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			m := newMonitor(staticSource{store.State{User: tt.user, Expenses: tt.expenses}}, pub, tt.threshold)

			_, sent, err := m.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sent)
			assert.Equal(t, map[bool]int{true: 1, false: 0}[tt.want], pub.count())
		})
	}
}

func TestCheck_OncePerMonth(t *testing.T) {
	pub := &recordingPublisher{}
	m := newMonitor(staticSource{store.State{User: user(100), Expenses: []core.Expense{spend(200, now)}}}, pub, "1")

	a, sent, err := m.Check(context.Background())
	require.NoError(t, err)
	require.True(t, sent)
	assert.Equal(t, "2024-01", a.Month)
	assert.True(t, a.Spent.Equal(decimal.NewFromInt(200)))

	_, sent, err = m.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)

	m.now = func() time.Time { return now.AddDate(0, 1, 0) }
	m.src = staticSource{store.State{User: user(100), Expenses: []core.Expense{spend(200, now.AddDate(0, 1, 0))}}}
	_, sent, err = m.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, pub.count())
}

func TestCheck_RetriesAfterPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := newMonitor(staticSource{store.State{User: user(100), Expenses: []core.Expense{spend(200, now)}}}, pub, "1")

	_, sent, err := m.Check(context.Background())
	require.Error(t, err)
	assert.False(t, sent)

	pub.err = nil
	_, sent, err = m.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
}

type expenseGateway struct {
	gateway.Gateway
	expenses []core.Expense
}

func (g *expenseGateway) ListExpenses(context.Context, string) ([]core.Expense, error) {
	return g.expenses, nil
}

func (g *expenseGateway) ListBills(context.Context, string) ([]core.Bill, error) {
	return []core.Bill{}, nil
}

func (g *expenseGateway) CreateExpense(_ context.Context, e core.NewExpense) (core.Expense, error) {
	return e.Expense("new"), nil
}

func TestStart_ChecksAfterExpenseChanges(t *testing.T) {
	u := user(1000)
	raw, err := json.Marshal(u)
	require.NoError(t, err)

	gw := &expenseGateway{expenses: []core.Expense{spend(900, now)}}
	s := store.New(gw, session.NewHolder(session.NewMemoryStore(raw), nil), store.WithClock(func() time.Time { return now }))
	pub := &recordingPublisher{}
	m := newMonitor(s, pub, "1")
	stop := m.Start()
	defer stop()

	require.NoError(t, s.FetchInitialData(context.Background()))
	assert.Equal(t, 0, pub.count())

	require.NoError(t, s.AddExpense(context.Background(), core.NewExpense{
		Amount: decimal.NewFromInt(200), Merchant: "Mall", Date: core.NewTimestamp(now),
	}))
	require.Equal(t, 1, pub.count())
	assert.Equal(t, "u1", pub.alerts[0].UserID)
	assert.True(t, pub.alerts[0].Spent.Equal(decimal.NewFromInt(1100)))
}
