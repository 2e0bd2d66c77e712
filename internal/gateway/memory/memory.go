// Package memory is an in-process backend with the same observable behaviour
// as the REST API: server-assigned UUIDs, per-user listings, hashed passwords
// and the backend's error messages.
package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"expensync/internal/core"
	"expensync/internal/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// DefaultMonthlyBudget is assigned to new accounts, as the backend does.
var DefaultMonthlyBudget = decimal.NewFromInt(50000)

type account struct {
	user         core.User
	passwordHash []byte
}

type Store struct {
	mu       sync.Mutex
	accounts []*account
	expenses []core.Expense
	bills    []core.Bill
	cost     int
	newID    func() string
}

var _ gateway.Backend = (*Store)(nil)

// New returns an empty backend. Passwords are hashed with bcrypt at the given
// cost; zero selects bcrypt.DefaultCost.
func New(cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{cost: cost, newID: func() string { return uuid.NewString() }}
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if userID == "" || (e.User != nil && e.User.ID == userID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, in core.NewExpense) (core.Expense, error) {
	if in.Currency == "" {
		in.Currency = "INR"
	}
	if in.Source == "" {
		in.Source = core.SourceManual
	}
	if in.Type == "" {
		in.Type = core.TypePurchase
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, fail("create expense", ErrInvalidInput, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := in.Expense(s.newID())
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
	if i < 0 {
		return core.Expense{}, fail("update expense", ErrNotFound, "Expense not found")
	}
	updated := patch.Apply(s.expenses[i])
	if err := updated.Validate(); err != nil {
		return core.Expense{}, fail("update expense", ErrInvalidInput, err.Error())
	}
	s.expenses[i] = updated
	return updated, nil
}

// DeleteExpense is idempotent like the backend's deleteById.
func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = slices.DeleteFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
	return nil
}

func (s *Store) ListBills(_ context.Context, userID string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Bill, 0)
	for _, b := range s.bills {
		if userID == "" || (b.User != nil && b.User.ID == userID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) CreateBill(_ context.Context, in core.NewBill) (core.Bill, error) {
	if err := in.Validate(); err != nil {
		return core.Bill{}, fail("create bill", ErrInvalidInput, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := in.Bill(s.newID())
	s.bills = append(s.bills, b)
	return b, nil
}

func (s *Store) MarkBillPaid(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.bills, func(b core.Bill) bool { return b.ID == id })
	if i < 0 {
		return core.Bill{}, fail("mark bill paid", ErrNotFound, "Bill not found")
	}
	s.bills[i].IsPaid = true
	return s.bills[i], nil
}

// GetUser returns the first registered user, matching the demo backend.
func (s *Store) GetUser(_ context.Context) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.accounts) == 0 {
		return core.User{}, fail("get user", ErrNotFound, "User not found")
	}
	return s.accounts[0].user, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.find(func(a *account) bool { return a.user.ID == u.ID })
	if acc == nil {
		return core.User{}, fail("update user", ErrNotFound, "User not found")
	}
	if other := s.find(func(a *account) bool { return a != acc && strings.EqualFold(a.user.Email, u.Email) }); other != nil {
		return core.User{}, fail("update user", ErrDuplicate, "User with this email already exists")
	}
	acc.user = u
	return u, nil
}

func (s *Store) Signup(_ context.Context, p core.Profile) (core.User, error) {
	if err := p.Validate(); err != nil {
		return core.User{}, fail("signup", ErrInvalidInput, err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return core.User{}, fail("signup", err, "Signup failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(func(a *account) bool { return a.user.MobileNumber == p.MobileNumber }) != nil {
		return core.User{}, fail("signup", ErrDuplicate, "User with this mobile number already exists")
	}
	if s.find(func(a *account) bool { return strings.EqualFold(a.user.Email, p.Email) }) != nil {
		return core.User{}, fail("signup", ErrDuplicate, "User with this email already exists")
	}
	u := core.User{
		ID:            s.newID(),
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		MobileNumber:  p.MobileNumber,
		Email:         p.Email,
		MonthlyBudget: DefaultMonthlyBudget,
		Preferences:   core.Preferences{DarkMode: true, Currency: "INR"},
	}
	s.accounts = append(s.accounts, &account{user: u, passwordHash: hash})
	return u, nil
}

func (s *Store) Login(_ context.Context, c core.Credentials) (core.User, error) {
	s.mu.Lock()
	acc := s.find(func(a *account) bool { return a.user.MobileNumber == c.MobileNumber })
	s.mu.Unlock()
	if acc == nil {
		return core.User{}, fail("login", ErrInvalidCredentials, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(c.Password)); err != nil {
		return core.User{}, fail("login", ErrInvalidCredentials, "Invalid credentials")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return acc.user, nil
}

func (s *Store) find(match func(*account) bool) *account {
	for _, a := range s.accounts {
		if match(a) {
			return a
		}
	}
	return nil
}

func fail(op string, cause error, msg string) error {
	return &gateway.Error{Op: op, Message: msg, Err: cause}
}
