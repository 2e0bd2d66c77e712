// Package store coordinates reads and writes between views, the resource
// cache and the remote gateway.
//
// Financial records are confirm-then-apply: the cache changes only after the
// gateway accepts the mutation. Preferences are the exception and are applied
// locally before the remote call, with no rollback on failure.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"expensync/internal/cache"
	"expensync/internal/core"
	"expensync/internal/gateway"
	"expensync/internal/log"
	"expensync/internal/session"
)

// ErrNoSession is returned by record mutations while nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// State is a consistent snapshot for rendering.
type State struct {
	User        core.User
	Expenses    []core.Expense
	Bills       []core.Bill
	Suggestions []core.Suggestion
	Loading     bool
	Error       string
	Statuses    map[Kind]Status
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for status timestamps and overviews.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type Store struct {
	gw      gateway.Gateway
	session *session.Holder
	res     *cache.Resources
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	statuses map[Kind]Status
	tokens   map[Kind]uint64
	epoch    uint64
	err      string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New returns a store whose cache starts with the persisted session user.
func New(gw gateway.Gateway, holder *session.Holder, opts ...Option) *Store {
	s := &Store{
		gw:       gw,
		session:  holder,
		logger:   log.Discard(),
		now:      time.Now,
		statuses: make(map[Kind]Status, len(Kinds)),
		tokens:   make(map[Kind]uint64, len(Kinds)),
		subs:     make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)
	s.res = cache.NewResources(holder.CurrentUser())
	return s
}

// Resources exposes the read-only cache.
func (s *Store) Resources() cache.Reader {
	return s.res
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		User:        s.res.User(),
		Expenses:    s.res.Expenses(),
		Bills:       s.res.Bills(),
		Suggestions: s.res.Suggestions(),
		Error:       s.err,
		Statuses:    make(map[Kind]Status, len(s.statuses)),
	}
	for k, v := range s.statuses {
		st.Statuses[k] = v
		if v.Loading() {
			st.Loading = true
		}
	}
	return st
}

// Err returns the shared error slot; empty when nothing failed.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.statuses {
		if v.Loading() {
			return true
		}
	}
	return false
}

func (s *Store) Status(k Kind) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[k]
}

// ClearError empties the error slot, e.g. after a view dismissed it.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// Subscribe registers fn for every Change. fn runs on the goroutine that
// caused the transition, with no store lock held.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}

// request tracks one gateway round trip across one or more kinds.
type request struct {
	op     string
	kinds  []Kind
	tokens []uint64
	epoch  uint64
	fetch  bool
}

// begin marks kinds as loading. Fetches take a fresh token per kind and clear
// the error slot.
func (s *Store) begin(op string, fetch bool, kinds ...Kind) request {
	s.mu.Lock()
	req := request{op: op, kinds: kinds, epoch: s.epoch, fetch: fetch}
	if fetch {
		s.err = ""
	}
	changes := make([]Change, 0, len(kinds))
	for _, k := range kinds {
		if fetch {
			s.tokens[k]++
			req.tokens = append(req.tokens, s.tokens[k])
		}
		st := s.statuses[k]
		st.InFlight++
		st.Phase = Loading
		st.LastOp = op
		st.UpdatedAt = s.now()
		s.statuses[k] = st
		changes = append(changes, Change{Kind: k, Op: op, Phase: Loading})
	}
	s.mu.Unlock()
	s.publish(changes)
	return req
}

// stale reports whether req was overtaken by a session change or, for
// fetches, by a newer fetch of the same kind. Callers hold s.mu.
func (s *Store) stale(req request) bool {
	if req.epoch != s.epoch {
		return true
	}
	if req.fetch {
		for i, k := range req.kinds {
			if req.tokens[i] != s.tokens[k] {
				return true
			}
		}
	}
	return false
}

// settle ends req. On success apply runs under the store lock unless the
// response is stale; on failure the error slot is set unless stale.
func (s *Store) settle(req request, err error, apply func()) error {
	s.mu.Lock()
	stale := s.stale(req)
	outcome := Settled
	msg := ""
	if err != nil {
		outcome = Failed
		msg = err.Error()
		if !stale {
			s.err = msg
		}
	} else if !stale && apply != nil {
		apply()
	}

	changes := make([]Change, 0, 2*len(req.kinds))
	for _, k := range req.kinds {
		st := s.statuses[k]
		if st.InFlight > 0 {
			st.InFlight--
		}
		st.LastOp = req.op
		st.LastOutcome = outcome
		st.LastError = msg
		st.UpdatedAt = s.now()
		changes = append(changes, Change{Kind: k, Op: req.op, Phase: outcome, Err: msg, Stale: stale})
		if st.InFlight == 0 {
			st.Phase = Idle
			changes = append(changes, Change{Kind: k, Op: req.op, Phase: Idle})
		}
		s.statuses[k] = st
	}
	s.mu.Unlock()

	if stale {
		s.logger.Debug("Discarded stale response", log.FieldOperation, req.op)
	}
	if err != nil {
		s.logger.Warn("Operation failed", log.FieldOperation, req.op, log.FieldError, msg)
	}
	s.publish(changes)
	return err
}

// reject records an input error for op without contacting the gateway.
func (s *Store) reject(op string, kind Kind, err error) error {
	s.mu.Lock()
	s.err = err.Error()
	st := s.statuses[kind]
	st.LastOp = op
	st.LastOutcome = Failed
	st.LastError = s.err
	st.UpdatedAt = s.now()
	s.statuses[kind] = st
	s.mu.Unlock()
	s.publish([]Change{{Kind: kind, Op: op, Phase: Failed, Err: err.Error()}})
	return err
}

// identity asks the session holder who is signed in. When that is no longer
// the cached user, or nobody is signed in but the cache still holds data, the
// cache is reset first so one user's records never outlive their session.
func (s *Store) identity() core.User {
	u := s.session.CurrentUser()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached := s.res.User(); cached.ID != u.ID || (u.IsAnonymous() && !s.res.Empty()) {
		s.epoch++
		s.res.Reset(u)
		s.logger.Debug("Session changed, cache reset", "previous", cached.ID, log.FieldUserID, u.ID)
	}
	return u
}

// resetTo drops every cached resource, invalidates outstanding requests and
// installs u as the cached user.
func (s *Store) resetTo(u core.User) {
	s.mu.Lock()
	s.epoch++
	s.res.Reset(u)
	s.mu.Unlock()
}

// invoke calls fn, turning a panic inside a gateway into an error.
func invoke(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gateway.Fail(op, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}
