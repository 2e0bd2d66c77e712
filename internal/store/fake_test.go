package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"expensync/internal/core"
	"expensync/internal/gateway"
)

var errUnscripted = errors.New("unscripted call")

// fakeGateway answers from per-method funcs and counts every call.
type fakeGateway struct {
	calls atomic.Int64

	listExpenses    func(ctx context.Context, userID string) ([]core.Expense, error)
	createExpense   func(ctx context.Context, e core.NewExpense) (core.Expense, error)
	updateExpense   func(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error)
	deleteExpense   func(ctx context.Context, id string) error
	listBills       func(ctx context.Context, userID string) ([]core.Bill, error)
	createBill      func(ctx context.Context, b core.NewBill) (core.Bill, error)
	markBillPaid    func(ctx context.Context, id string) (core.Bill, error)
	getUser         func(ctx context.Context) (core.User, error)
	updateUser      func(ctx context.Context, u core.User) (core.User, error)
	login           func(ctx context.Context, c core.Credentials) (core.User, error)
	signup          func(ctx context.Context, p core.Profile) (core.User, error)
	listSuggestions func(ctx context.Context, userID string) ([]core.Suggestion, error)

	mu          sync.Mutex
	invalidated []string
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	f.calls.Add(1)
	if f.listExpenses == nil {
		return nil, errUnscripted
	}
	return f.listExpenses(ctx, userID)
}

func (f *fakeGateway) CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	f.calls.Add(1)
	if f.createExpense == nil {
		return core.Expense{}, errUnscripted
	}
	return f.createExpense(ctx, e)
}

func (f *fakeGateway) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	f.calls.Add(1)
	if f.updateExpense == nil {
		return core.Expense{}, errUnscripted
	}
	return f.updateExpense(ctx, id, p)
}

func (f *fakeGateway) DeleteExpense(ctx context.Context, id string) error {
	f.calls.Add(1)
	if f.deleteExpense == nil {
		return errUnscripted
	}
	return f.deleteExpense(ctx, id)
}

func (f *fakeGateway) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	f.calls.Add(1)
	if f.listBills == nil {
		return nil, errUnscripted
	}
	return f.listBills(ctx, userID)
}

func (f *fakeGateway) CreateBill(ctx context.Context, b core.NewBill) (core.Bill, error) {
	f.calls.Add(1)
	if f.createBill == nil {
		return core.Bill{}, errUnscripted
	}
	return f.createBill(ctx, b)
}

func (f *fakeGateway) MarkBillPaid(ctx context.Context, id string) (core.Bill, error) {
	f.calls.Add(1)
	if f.markBillPaid == nil {
		return core.Bill{}, errUnscripted
	}
	return f.markBillPaid(ctx, id)
}

func (f *fakeGateway) GetUser(ctx context.Context) (core.User, error) {
	f.calls.Add(1)
	if f.getUser == nil {
		return core.User{}, errUnscripted
	}
	return f.getUser(ctx)
}

func (f *fakeGateway) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	f.calls.Add(1)
	if f.updateUser == nil {
		return core.User{}, errUnscripted
	}
	return f.updateUser(ctx, u)
}

func (f *fakeGateway) Login(ctx context.Context, c core.Credentials) (core.User, error) {
	f.calls.Add(1)
	if f.login == nil {
		return core.User{}, errUnscripted
	}
	return f.login(ctx, c)
}

func (f *fakeGateway) Signup(ctx context.Context, p core.Profile) (core.User, error) {
	f.calls.Add(1)
	if f.signup == nil {
		return core.User{}, errUnscripted
	}
	return f.signup(ctx, p)
}

func (f *fakeGateway) ListSuggestions(ctx context.Context, userID string) ([]core.Suggestion, error) {
	f.calls.Add(1)
	if f.listSuggestions == nil {
		return nil, errUnscripted
	}
	return f.listSuggestions(ctx, userID)
}

func (f *fakeGateway) Invalidate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
}

func failWith(msg string) error {
	return &gateway.Error{Op: "test", Message: msg}
}
