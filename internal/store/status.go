package store

import "time"

// Kind names a category of server-owned data held in the cache.
type Kind string

const (
	KindExpenses    Kind = "expenses"
	KindBills       Kind = "bills"
	KindUser        Kind = "user"
	KindSuggestions Kind = "suggestions"
)

// Kinds lists every resource kind in display order.
var Kinds = []Kind{KindExpenses, KindBills, KindUser, KindSuggestions}

// Phase is the lifecycle position of a resource kind.
type Phase int

const (
	Idle Phase = iota
	Loading
	Settled
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Status is the per-kind request bookkeeping. Phase is Loading while any
// request of the kind is in flight and Idle otherwise; LastOutcome keeps how
// the most recent request settled.
type Status struct {
	Phase       Phase
	InFlight    int
	LastOp      string
	LastOutcome Phase
	LastError   string
	UpdatedAt   time.Time
}

// Loading reports whether a request of this kind is outstanding.
func (s Status) Loading() bool {
	return s.InFlight > 0
}

// Change is published on every phase transition.
type Change struct {
	Kind  Kind
	Op    string
	Phase Phase
	Err   string
	// Stale is set when a settled response was discarded.
	Stale bool
}
