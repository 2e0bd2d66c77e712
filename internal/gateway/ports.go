// Package gateway defines the narrow interface the store uses to reach the
// backend, plus in-process sources for resources the backend does not serve.
package gateway

import (
	"context"

	"expensync/internal/core"
)

// Ports consumed by the store. Every call is a single request/response with no
// implicit retry; failures are reported as *Error.
type (
	ExpenseGateway interface {
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
		CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
		UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	BillGateway interface {
		ListBills(ctx context.Context, userID string) ([]core.Bill, error)
		CreateBill(ctx context.Context, b core.NewBill) (core.Bill, error)
		MarkBillPaid(ctx context.Context, id string) (core.Bill, error)
	}

	UserGateway interface {
		GetUser(ctx context.Context) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
	}

	AuthGateway interface {
		Login(ctx context.Context, creds core.Credentials) (core.User, error)
		Signup(ctx context.Context, profile core.Profile) (core.User, error)
	}

	// SuggestionLister serves advisory suggestions for a user.
	SuggestionLister interface {
		ListSuggestions(ctx context.Context, userID string) ([]core.Suggestion, error)
	}

	// Invalidator is implemented by listers that cache per user.
	Invalidator interface {
		Invalidate(userID string)
	}
)

// Backend is the REST surface of the remote API.
type Backend interface {
	ExpenseGateway
	BillGateway
	UserGateway
	AuthGateway
}

// Gateway is everything the store talks to.
type Gateway interface {
	Backend
	SuggestionLister
}

type composed struct {
	Backend
	SuggestionLister
}

// WithSuggestions serves suggestions from s and everything else from b, so a
// real suggestions endpoint can replace the placeholder without touching callers.
func WithSuggestions(b Backend, s SuggestionLister) Gateway {
	return composed{Backend: b, SuggestionLister: s}
}

// Invalidate forwards to the suggestion lister when it caches.
func (c composed) Invalidate(userID string) {
	if inv, ok := c.SuggestionLister.(Invalidator); ok {
		inv.Invalidate(userID)
	}
}
