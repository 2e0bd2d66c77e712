package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"expensync/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		status Status
		userID string
	}{
		{"empty", "", Absent, ""},
		{"whitespace", "  \n", Absent, ""},
		{"null", "null", Absent, ""},
		{"valid", `{"id":"u1","firstName":"Asha","monthlyBudget":50000}`, Found, "u1"},
		{"truncated", `{"id":"u1"`, Malformed, ""},
		{"not an object", `"u1"`, Malformed, ""},
		{"no id", `{"firstName":"Asha"}`, Malformed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse([]byte(tt.raw))
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.userID, res.User.ID)
			if tt.status == Malformed {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) Load() ([]byte, error) { return nil, errors.New("disk on fire") }

func TestCurrentUser(t *testing.T) {
	t.Run("no session is anonymous", func(t *testing.T) {
		h := NewHolder(NewMemoryStore(nil), nil)
		assert.Equal(t, core.Anonymous(), h.CurrentUser())
	})

	t.Run("malformed session is anonymous", func(t *testing.T) {
		h := NewHolder(NewMemoryStore([]byte("{not json")), nil)
		u := h.CurrentUser()
		assert.True(t, u.IsAnonymous())
		assert.Equal(t, core.AnonymousID, u.ID)
	})

	t.Run("unreadable store is anonymous", func(t *testing.T) {
		h := NewHolder(&failingStore{}, nil)
		assert.True(t, h.CurrentUser().IsAnonymous())
		assert.Equal(t, Malformed, h.Resolve().Status)
	})

	t.Run("found", func(t *testing.T) {
		h := NewHolder(NewMemoryStore([]byte(`{"id":"u1","firstName":"Asha"}`)), nil)
		assert.Equal(t, "u1", h.CurrentUser().ID)
	})
}

func TestSaveAndClear(t *testing.T) {
	h := NewHolder(NewMemoryStore(nil), nil)
	u := core.User{ID: "u1", FirstName: "Asha", MonthlyBudget: decimal.NewFromInt(50000)}

	require.NoError(t, h.Save(u))
	got := h.CurrentUser()
	assert.Equal(t, "u1", got.ID)
	assert.True(t, got.MonthlyBudget.Equal(u.MonthlyBudget))

	require.NoError(t, h.Clear())
	assert.Equal(t, Absent, h.Resolve().Status)

	assert.ErrorIs(t, h.Save(core.Anonymous()), ErrNoIdentity)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)

	data, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, fs.Save([]byte(`{"id":"u1"}`)))
	data, err = fs.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(data))

	require.NoError(t, fs.Save([]byte(`{"id":"u2"}`)))
	h := NewHolder(fs, nil)
	assert.Equal(t, "u2", h.CurrentUser().ID)

	require.NoError(t, fs.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, fs.Clear())
}
