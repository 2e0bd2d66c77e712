package store

import (
	"context"

	"expensync/internal/core"
	"expensync/internal/log"

	"golang.org/x/sync/errgroup"
)

const (
	OpFetchInitialData      = "fetchInitialData"
	OpFetchExpenses         = "fetchExpenses"
	OpAddExpense            = "addExpense"
	OpUpdateExpense         = "updateExpense"
	OpRemoveExpense         = "removeExpense"
	OpAddBill               = "addBill"
	OpMarkBillAsPaid        = "markBillAsPaid"
	OpUpdateUserPreferences = "updateUserPreferences"
	OpFetchSuggestions      = "fetchSuggestions"
	OpFetchUser             = "fetchUser"
	OpLogin                 = "login"
	OpSignup                = "signup"
	OpLogout                = "logout"
)

// FetchInitialData loads expenses and bills for the persisted session user.
// Both lists are requested concurrently and applied together only if both
// succeed. Without a session the cache is emptied and the gateway is not
// contacted.
func (s *Store) FetchInitialData(ctx context.Context) error {
	u := s.identity()
	if !u.IsAnonymous() {
		s.res.SetUser(u)
	}

	req := s.begin(OpFetchInitialData, true, KindExpenses, KindBills)
	if u.IsAnonymous() {
		return s.settle(req, nil, nil)
	}

	var (
		expenses []core.Expense
		bills    []core.Bill
	)
	// No derived context: a failure on one side does not abort the other.
	var g errgroup.Group
	g.Go(func() error {
		return invoke("list expenses", func() (err error) {
			expenses, err = s.gw.ListExpenses(ctx, u.ID)
			return err
		})
	})
	g.Go(func() error {
		return invoke("list bills", func() (err error) {
			bills, err = s.gw.ListBills(ctx, u.ID)
			return err
		})
	})
	err := g.Wait()

	return s.settle(req, err, func() {
		s.res.SetExpenses(expenses)
		s.res.SetBills(bills)
		s.logger.Debug("Initial data loaded",
			log.FieldUserID, u.ID,
			"expenses", len(expenses),
			"bills", len(bills))
	})
}

// FetchExpenses refreshes the expense list for the session user. Without a
// session the cache is emptied and the gateway is not contacted.
func (s *Store) FetchExpenses(ctx context.Context) error {
	u := s.identity()
	if u.IsAnonymous() {
		return nil
	}

	req := s.begin(OpFetchExpenses, true, KindExpenses)
	var items []core.Expense
	err := invoke("list expenses", func() (err error) {
		items, err = s.gw.ListExpenses(ctx, u.ID)
		return err
	})
	return s.settle(req, err, func() {
		s.res.SetExpenses(items)
	})
}

// AddExpense creates e remotely and, once confirmed, puts the server's copy
// first in the list.
func (s *Store) AddExpense(ctx context.Context, e core.NewExpense) error {
	u := s.identity()
	if u.IsAnonymous() {
		return s.reject(OpAddExpense, KindExpenses, ErrNoSession)
	}
	if e.User == nil {
		e.User = u.Ref()
	}
	if err := e.Validate(); err != nil {
		return s.reject(OpAddExpense, KindExpenses, err)
	}

	req := s.begin(OpAddExpense, false, KindExpenses)
	var created core.Expense
	err := invoke("create expense", func() (err error) {
		created, err = s.gw.CreateExpense(ctx, e)
		return err
	})
	return s.settle(req, err, func() {
		s.res.PrependExpense(created)
	})
}

// UpdateExpense sends patch for id and replaces the cached expense with the
// server's result.
func (s *Store) UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) error {
	if s.identity().IsAnonymous() {
		return s.reject(OpUpdateExpense, KindExpenses, ErrNoSession)
	}
	if id == "" {
		return s.reject(OpUpdateExpense, KindExpenses, core.ErrMissingID)
	}
	if err := patch.Validate(); err != nil {
		return s.reject(OpUpdateExpense, KindExpenses, err)
	}

	req := s.begin(OpUpdateExpense, false, KindExpenses)
	var updated core.Expense
	err := invoke("update expense", func() (err error) {
		updated, err = s.gw.UpdateExpense(ctx, id, patch)
		return err
	})
	return s.settle(req, err, func() {
		s.res.ReplaceExpense(id, updated)
	})
}

func (s *Store) RemoveExpense(ctx context.Context, id string) error {
	if s.identity().IsAnonymous() {
		return s.reject(OpRemoveExpense, KindExpenses, ErrNoSession)
	}
	if id == "" {
		return s.reject(OpRemoveExpense, KindExpenses, core.ErrMissingID)
	}

	req := s.begin(OpRemoveExpense, false, KindExpenses)
	err := invoke("delete expense", func() error {
		return s.gw.DeleteExpense(ctx, id)
	})
	return s.settle(req, err, func() {
		s.res.RemoveExpense(id)
	})
}

// AddBill creates b remotely and appends the server's copy.
func (s *Store) AddBill(ctx context.Context, b core.NewBill) error {
	u := s.identity()
	if u.IsAnonymous() {
		return s.reject(OpAddBill, KindBills, ErrNoSession)
	}
	if b.User == nil {
		b.User = u.Ref()
	}
	if err := b.Validate(); err != nil {
		return s.reject(OpAddBill, KindBills, err)
	}

	req := s.begin(OpAddBill, false, KindBills)
	var created core.Bill
	err := invoke("create bill", func() (err error) {
		created, err = s.gw.CreateBill(ctx, b)
		return err
	})
	return s.settle(req, err, func() {
		s.res.AppendBill(created)
	})
}

func (s *Store) MarkBillAsPaid(ctx context.Context, id string) error {
	if s.identity().IsAnonymous() {
		return s.reject(OpMarkBillAsPaid, KindBills, ErrNoSession)
	}
	if id == "" {
		return s.reject(OpMarkBillAsPaid, KindBills, core.ErrMissingID)
	}

	req := s.begin(OpMarkBillAsPaid, false, KindBills)
	var paid core.Bill
	err := invoke("mark bill paid", func() (err error) {
		paid, err = s.gw.MarkBillPaid(ctx, id)
		return err
	})
	return s.settle(req, err, func() {
		s.res.ReplaceBill(id, paid)
	})
}

// UpdateUserPreferences merges patch into the cached user and applies it
// before the remote update. A remote failure is recorded but the local merge
// stays. The server's response is not applied.
func (s *Store) UpdateUserPreferences(ctx context.Context, patch core.PreferencesPatch) error {
	s.mu.Lock()
	merged := s.res.User()
	merged.Preferences = patch.Merge(merged.Preferences)
	s.res.SetUser(merged)
	s.mu.Unlock()

	if merged.IsAnonymous() {
		return nil
	}
	if err := s.session.Save(merged); err != nil {
		s.logger.Warn("Failed to persist preferences locally", log.FieldUserID, merged.ID, log.FieldError, err)
	}

	req := s.begin(OpUpdateUserPreferences, false, KindUser)
	err := invoke("update user", func() error {
		_, err := s.gw.UpdateUser(ctx, merged)
		return err
	})
	return s.settle(req, err, nil)
}

// FetchSuggestions loads suggestions for the cached user.
func (s *Store) FetchSuggestions(ctx context.Context) error {
	u := s.res.User()
	req := s.begin(OpFetchSuggestions, true, KindSuggestions)
	var items []core.Suggestion
	err := invoke("list suggestions", func() (err error) {
		items, err = s.gw.ListSuggestions(ctx, u.ID)
		return err
	})
	return s.settle(req, err, func() {
		s.res.SetSuggestions(items)
	})
}

// Overview summarizes the cached data for the dashboard.
func (s *Store) Overview(tf core.TimeFrame) core.Overview {
	return core.Summarize(s.res.Expenses(), s.res.Bills(), s.res.User(), tf, s.now())
}
