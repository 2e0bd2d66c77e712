// Package session holds the identity of the signed-in user across runs.
//
// The persisted form is a single serialized core.User. Reading it never fails:
// anything that cannot be decoded is treated as no session.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"expensync/internal/core"
	"expensync/internal/log"
)

// Status tags the outcome of decoding a persisted session.
type Status int

const (
	Absent Status = iota
	Found
	Malformed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Malformed:
		return "malformed"
	default:
		return "absent"
	}
}

// Result is the tagged outcome of Parse. User is set only when Status is Found;
// Err only when Status is Malformed.
type Result struct {
	Status Status
	User   core.User
	Err    error
}

var ErrNoIdentity = errors.New("session user has no id")

// Parse decodes a persisted session. It has no side effects.
func Parse(raw []byte) Result {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Result{Status: Absent}
	}
	var u core.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return Result{Status: Malformed, Err: fmt.Errorf("decode session: %w", err)}
	}
	if u.ID == "" {
		return Result{Status: Malformed, Err: ErrNoIdentity}
	}
	return Result{Status: Found, User: u}
}

// Store persists the raw session bytes. Load returns nil, nil when nothing is
// stored.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
}

// Holder reads and writes the session through a Store.
type Holder struct {
	store  Store
	logger *log.Logger
}

func NewHolder(store Store, logger *log.Logger) *Holder {
	if logger == nil {
		logger = log.Discard()
	}
	return &Holder{store: store, logger: logger.WithComponent(log.ComponentSession)}
}

// Resolve loads and parses the persisted session. A read failure is reported
// as Malformed.
func (h *Holder) Resolve() Result {
	raw, err := h.store.Load()
	if err != nil {
		return Result{Status: Malformed, Err: fmt.Errorf("load session: %w", err)}
	}
	return Parse(raw)
}

// CurrentUser returns the persisted user, or the anonymous placeholder when
// there is none or it cannot be read.
func (h *Holder) CurrentUser() core.User {
	res := h.Resolve()
	switch res.Status {
	case Found:
		return res.User
	case Malformed:
		h.logger.Debug("Ignoring unreadable session", log.FieldError, res.Err)
	}
	return core.Anonymous()
}

// Save persists u as the session user.
func (h *Holder) Save(u core.User) error {
	if u.IsAnonymous() {
		return ErrNoIdentity
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := h.store.Save(data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	h.logger.Debug("Session saved", log.FieldUserID, u.ID)
	return nil
}

func (h *Holder) Clear() error {
	if err := h.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore(initial []byte) *MemoryStore {
	return &MemoryStore{data: bytes.Clone(initial)}
}

func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.data), nil
}

func (m *MemoryStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = bytes.Clone(data)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
