// Package cache holds client-side copies of server state: the Resources
// snapshot the views read from, and a small TTL/LRU cache used by gateway
// decorators.
package cache

import (
	"slices"
	"sync"

	"expensync/internal/core"
)

// Reader is the read-only surface handed to views.
type Reader interface {
	User() core.User
	Expenses() []core.Expense
	Bills() []core.Bill
	Suggestions() []core.Suggestion
}

// Resources is the in-memory mapping from resource kind to its last known
// value. There is no eviction; everything is dropped at once by Reset.
// Only the mutation coordinator calls the mutating methods.
type Resources struct {
	mu          sync.RWMutex
	user        core.User
	expenses    []core.Expense
	bills       []core.Bill
	suggestions []core.Suggestion
}

var _ Reader = (*Resources)(nil)

// NewResources returns a cache holding defaults and the given user.
func NewResources(user core.User) *Resources {
	return &Resources{user: user}
}

func (r *Resources) User() core.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user
}

func (r *Resources) Expenses() []core.Expense {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.expenses)
}

func (r *Resources) Bills() []core.Bill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.bills)
}

func (r *Resources) Suggestions() []core.Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.suggestions)
}

// Empty reports whether no collection holds data.
func (r *Resources) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.expenses) == 0 && len(r.bills) == 0 && len(r.suggestions) == 0
}

// Reset discards every cached value and installs user.
func (r *Resources) Reset(user core.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = user
	r.expenses = nil
	r.bills = nil
	r.suggestions = nil
}

func (r *Resources) SetUser(u core.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = u
}

func (r *Resources) SetExpenses(items []core.Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expenses = slices.Clone(items)
}

// PrependExpense puts e first so the newest entry leads the list.
func (r *Resources) PrependExpense(e core.Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expenses = append([]core.Expense{e}, r.expenses...)
}

// ReplaceExpense swaps the element whose id equals id for e. It reports
// whether such an element was present.
func (r *Resources) ReplaceExpense(id string, e core.Expense) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.expenses, func(x core.Expense) bool { return x.ID == id })
	if i < 0 {
		return false
	}
	next := slices.Clone(r.expenses)
	next[i] = e
	r.expenses = next
	return true
}

// RemoveExpense filters out every element with the given id and reports how
// many were removed.
func (r *Resources) RemoveExpense(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.expenses)
	r.expenses = slices.DeleteFunc(slices.Clone(r.expenses), func(x core.Expense) bool { return x.ID == id })
	return before - len(r.expenses)
}

func (r *Resources) SetBills(items []core.Bill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bills = slices.Clone(items)
}

func (r *Resources) AppendBill(b core.Bill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]core.Bill, 0, len(r.bills)+1)
	r.bills = append(append(next, r.bills...), b)
}

func (r *Resources) ReplaceBill(id string, b core.Bill) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.bills, func(x core.Bill) bool { return x.ID == id })
	if i < 0 {
		return false
	}
	next := slices.Clone(r.bills)
	next[i] = b
	r.bills = next
	return true
}

func (r *Resources) SetSuggestions(items []core.Suggestion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions = slices.Clone(items)
}
