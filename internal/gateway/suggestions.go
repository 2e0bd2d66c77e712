package gateway

import (
	"context"
	"slices"
	"time"

	"expensync/internal/cache"
	"expensync/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultPlaceholderDelay matches the latency the web client simulated.
const DefaultPlaceholderDelay = time.Second

var placeholderSuggestions = []core.Suggestion{
	{
		ID:               "s1",
		Title:            "Cancel Unused Subscription",
		Description:      `You haven't used "Premium Music" in 30 days.`,
		Category:         "Subscription",
		PotentialSavings: decimal.RequireFromString("199.00"),
		Type:             core.SuggestionSubscription,
	},
	{
		ID:               "s2",
		Title:            "Coffee Habit",
		Description:      "Switching to home brewing could save ₹3000/month.",
		Category:         "Food",
		PotentialSavings: decimal.RequireFromString("3000.00"),
		Type:             core.SuggestionHabit,
	},
}

// Placeholder stands in for the suggestions endpoint the backend does not
// expose yet: it returns a fixed list after Delay.
type Placeholder struct {
	Delay time.Duration
}

var _ SuggestionLister = Placeholder{}

func (p Placeholder) ListSuggestions(ctx context.Context, _ string) ([]core.Suggestion, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, Fail("list suggestions", ctx.Err())
		case <-timer.C:
		}
	}
	return slices.Clone(placeholderSuggestions), nil
}

// CachedSuggestions memoizes another lister per user for a TTL.
type CachedSuggestions struct {
	next  SuggestionLister
	cache *cache.LRUCache[[]core.Suggestion]
}

var _ SuggestionLister = (*CachedSuggestions)(nil)

func NewCachedSuggestions(next SuggestionLister, size int, ttl time.Duration) *CachedSuggestions {
	return &CachedSuggestions{
		next:  next,
		cache: cache.NewLRUCache[[]core.Suggestion](size, ttl),
	}
}

func (c *CachedSuggestions) ListSuggestions(ctx context.Context, userID string) ([]core.Suggestion, error) {
	if items, ok := c.cache.Get(userID); ok {
		return slices.Clone(items), nil
	}
	items, err := c.next.ListSuggestions(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(userID, slices.Clone(items))
	return items, nil
}

// Invalidate drops the cached list for userID.
func (c *CachedSuggestions) Invalidate(userID string) {
	c.cache.Delete(userID)
}
