package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// NewExpense is an expense before the server has assigned it an id.
	NewExpense struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
		Category string          `json:"category"`
		Merchant string          `json:"merchant"`
		Date     Timestamp       `json:"date"`
		Notes    string          `json:"notes,omitempty"`
		Source   Source          `json:"source"`
		Type     TransactionType `json:"type"`
		User     *UserRef        `json:"user,omitempty"`
	}

	// ExpensePatch carries the fields of a partial update. Nil fields are left
	// untouched and omitted from the request body.
	ExpensePatch struct {
		Amount   *decimal.Decimal `json:"amount,omitempty"`
		Currency *string          `json:"currency,omitempty"`
		Category *string          `json:"category,omitempty"`
		Merchant *string          `json:"merchant,omitempty"`
		Date     *Timestamp       `json:"date,omitempty"`
		Notes    *string          `json:"notes,omitempty"`
		Source   *Source          `json:"source,omitempty"`
		Type     *TransactionType `json:"type,omitempty"`
	}

	NewBill struct {
		Title   string          `json:"title"`
		Amount  decimal.Decimal `json:"amount"`
		DueDate Timestamp       `json:"dueDate"`
		IsPaid  bool            `json:"isPaid"`
		User    *UserRef        `json:"user,omitempty"`
	}

	PreferencesPatch struct {
		DarkMode *bool
		Currency *string
	}

	// Profile holds the signup form fields.
	Profile struct {
		FirstName    string `json:"firstName"`
		LastName     string `json:"lastName"`
		Email        string `json:"email"`
		MobileNumber string `json:"mobileNumber"`
		Password     string `json:"password"`
	}

	Credentials struct {
		MobileNumber string `json:"mobileNumber"`
		Password     string `json:"password"`
	}
)

var (
	ErrEmptyPatch      = errors.New("nothing to update")
	ErrMissingMobile   = errors.New("mobile number is required")
	ErrMissingPassword = errors.New("password is required")
	ErrMissingEmail    = errors.New("email is required")
)

// Expense returns the expense n describes, with the given id.
func (n NewExpense) Expense(id string) Expense {
	return Expense{
		ID:       id,
		Amount:   n.Amount,
		Currency: n.Currency,
		Category: n.Category,
		Merchant: n.Merchant,
		Date:     n.Date,
		Notes:    n.Notes,
		Source:   n.Source,
		Type:     n.Type,
		User:     n.User,
	}
}

func (n NewExpense) Validate() error {
	return n.Expense("").Validate()
}

func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Currency == nil && p.Category == nil && p.Merchant == nil &&
		p.Date == nil && p.Notes == nil && p.Source == nil && p.Type == nil
}

// Apply returns e with every set field of p copied over it.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Merchant != nil {
		e.Merchant = *p.Merchant
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.Source != nil {
		e.Source = *p.Source
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	return e
}

func (p ExpensePatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Currency != nil {
		if err := validateCurrency(*p.Currency); err != nil {
			return err
		}
	}
	if p.Merchant != nil && strings.TrimSpace(*p.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrMissingDate
	}
	if p.Source != nil && !p.Source.Valid() {
		return ErrInvalidSource
	}
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Bill returns the bill n describes, with the given id.
func (n NewBill) Bill(id string) Bill {
	return Bill{
		ID:      id,
		Title:   n.Title,
		Amount:  n.Amount,
		DueDate: n.DueDate,
		IsPaid:  n.IsPaid,
		User:    n.User,
	}
}

func (n NewBill) Validate() error {
	return n.Bill("").Validate()
}

// Merge returns prefs with the set fields of p applied.
func (p PreferencesPatch) Merge(prefs Preferences) Preferences {
	if p.DarkMode != nil {
		prefs.DarkMode = *p.DarkMode
	}
	if p.Currency != nil {
		prefs.Currency = *p.Currency
	}
	return prefs
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.MobileNumber) == "" {
		return ErrMissingMobile
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrMissingEmail
	}
	if p.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.MobileNumber) == "" {
		return ErrMissingMobile
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	return nil
}
