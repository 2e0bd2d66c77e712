package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validExpense() Expense {
	return Expense{
		Amount:   decimal.NewFromInt(100),
		Currency: "INR",
		Category: "Food",
		Merchant: "Cafe",
		Date:     NewTimestamp(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)),
		Source:   SourceManual,
		Type:     TypePurchase,
	}
}

func TestAnonymous(t *testing.T) {
	u := Anonymous()
	if !u.IsAnonymous() {
		t.Fatalf("placeholder should be anonymous")
	}
	if !u.Preferences.DarkMode || u.Preferences.Currency != "INR" {
		t.Fatalf("unexpected placeholder preferences %+v", u.Preferences)
	}
	if !(User{}).IsAnonymous() {
		t.Fatalf("empty id should be anonymous")
	}
	if (User{ID: "u1"}).IsAnonymous() {
		t.Fatalf("u1 should not be anonymous")
	}
}

func TestUserDisplay(t *testing.T) {
	u := User{ID: "u1", FirstName: "asha", LastName: "rao"}
	if got := u.DisplayName(); got != "asha rao" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := u.Initials(); got != "AR" {
		t.Fatalf("Initials() = %q", got)
	}
	if got := Anonymous().DisplayName(); got != "Guest User" {
		t.Fatalf("anonymous DisplayName() = %q", got)
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mut := func(f func(*Expense)) Expense {
		e := validExpense()
		f(&e)
		return e
	}
	bads := []struct {
		e    Expense
		want error
	}{
		{mut(func(e *Expense) { e.Amount = decimal.NewFromInt(-1) }), ErrInvalidAmount},
		{mut(func(e *Expense) { e.Merchant = "  " }), ErrEmptyMerchant},
		{mut(func(e *Expense) { e.Date = Timestamp{} }), ErrMissingDate},
		{mut(func(e *Expense) { e.Source = "Fax" }), ErrInvalidSource},
		{mut(func(e *Expense) { e.Type = "Gift" }), ErrInvalidType},
		{mut(func(e *Expense) { e.Currency = "rupee" }), ErrInvalidCurrency},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); err != tc.want {
			t.Fatalf("case %d: Validate() = %v, want %v", i, err, tc.want)
		}
	}

	zero := validExpense()
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}
}

func TestBillValidate(t *testing.T) {
	good := Bill{Title: "Rent", Amount: decimal.NewFromInt(500), DueDate: NewTimestamp(time.Now())}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Bill{Amount: decimal.NewFromInt(1), DueDate: good.DueDate}).Validate(); err != ErrEmptyTitle {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (Bill{Title: "x", Amount: decimal.NewFromInt(1)}).Validate(); err != ErrMissingDate {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
}

func TestExpensePatch(t *testing.T) {
	if err := (ExpensePatch{}).Validate(); err != ErrEmptyPatch {
		t.Fatalf("empty patch: got %v", err)
	}

	merchant := "Bakery"
	amount := decimal.RequireFromString("42.5")
	p := ExpensePatch{Merchant: &merchant, Amount: &amount}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid patch: got %v", err)
	}

	e := validExpense()
	e.ID = "e1"
	got := p.Apply(e)
	if got.ID != "e1" || got.Merchant != "Bakery" || !got.Amount.Equal(amount) || got.Category != "Food" {
		t.Fatalf("Apply() = %+v", got)
	}

	body, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	if len(raw) != 2 {
		t.Fatalf("patch body should only carry set fields, got %s", body)
	}
}

func TestPreferencesPatchMerge(t *testing.T) {
	off := false
	got := PreferencesPatch{DarkMode: &off}.Merge(Preferences{DarkMode: true, Currency: "INR"})
	if got.DarkMode || got.Currency != "INR" {
		t.Fatalf("Merge() = %+v", got)
	}
}

func TestTimestampJSON(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{`"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15T10:30:00+05:30"`, time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC)},
		{`"2024-01-15T10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)},
		{`"2024-01-15T10:30:00.123"`, time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.Local)},
		{`"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(tc.in), &ts); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if !ts.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.in, ts.Time, tc.want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil || !ts.IsZero() {
		t.Fatalf("null should decode to zero, got %v (%v)", ts, err)
	}

	out, _ := json.Marshal(NewTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))
	if string(out) != `"2024-01-15T10:30:00Z"` {
		t.Fatalf("marshal = %s", out)
	}
}
