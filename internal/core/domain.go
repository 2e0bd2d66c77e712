package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// AnonymousID is the identity carried by the guest placeholder user.
const AnonymousID = "temp"

const (
	SourceSMS    Source = "SMS"
	SourceMail   Source = "Mail"
	SourceManual Source = "Manual"
)

const (
	TypePurchase    TransactionType = "Purchase"
	TypeTransfer    TransactionType = "Transfer"
	TypeWithdrawal  TransactionType = "Withdrawal"
	TypeBillPayment TransactionType = "BillPayment"
	TypeCredited    TransactionType = "Credited"
	TypeDebited     TransactionType = "Debited"
	TypeSpent       TransactionType = "Spent"
)

const (
	SuggestionSubscription SuggestionType = "subscription"
	SuggestionHabit        SuggestionType = "habit"
	SuggestionOffer        SuggestionType = "offer"
)

type (
	// Source tags how an expense entered the system.
	Source string

	TransactionType string

	SuggestionType string

	Preferences struct {
		DarkMode bool   `json:"darkMode"`
		Currency string `json:"currency"`
	}

	User struct {
		ID            string          `json:"id"`
		FirstName     string          `json:"firstName"`
		LastName      string          `json:"lastName"`
		MobileNumber  string          `json:"mobileNumber"`
		Email         string          `json:"email"`
		MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
		Preferences   Preferences     `json:"preferences"`
	}

	// UserRef is the owner reference carried by expenses and bills.
	UserRef struct {
		ID string `json:"id"`
	}

	Expense struct {
		ID       string          `json:"id"`
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

	Bill struct {
		ID      string          `json:"id"`
		Title   string          `json:"title"`
		Amount  decimal.Decimal `json:"amount"`
		DueDate Timestamp       `json:"dueDate"`
		IsPaid  bool            `json:"isPaid"`
		User    *UserRef        `json:"user,omitempty"`
	}

	Suggestion struct {
		ID               string          `json:"id"`
		Title            string          `json:"title"`
		Description      string          `json:"description"`
		Category         string          `json:"category"`
		PotentialSavings decimal.Decimal `json:"potentialSavings"`
		ActionURL        string          `json:"actionUrl,omitempty"`
		Type             SuggestionType  `json:"type"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyMerchant   = errors.New("empty merchant")
	ErrEmptyTitle      = errors.New("empty title")
	ErrMissingDate     = errors.New("date cannot be zero")
	ErrInvalidSource   = errors.New("invalid source")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrMissingID       = errors.New("missing id")
)

// Anonymous returns the guest placeholder used when no session is persisted.
func Anonymous() User {
	return User{
		ID:            AnonymousID,
		FirstName:     "Loading...",
		MonthlyBudget: decimal.Zero,
		Preferences:   Preferences{DarkMode: true, Currency: "INR"},
	}
}

// IsAnonymous reports whether u carries no usable identity.
func (u User) IsAnonymous() bool {
	return u.ID == "" || u.ID == AnonymousID
}

// DisplayName mirrors the header of the original layout.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" || u.IsAnonymous() {
		return "Guest User"
	}
	return name
}

// Initials returns the upper-cased first letters of first and last name.
func (u User) Initials() string {
	if u.FirstName == "" || u.LastName == "" {
		return ""
	}
	return strings.ToUpper(string([]rune(u.FirstName)[0:1]) + string([]rune(u.LastName)[0:1]))
}

// Ref returns the owner reference for u.
func (u User) Ref() *UserRef {
	return &UserRef{ID: u.ID}
}

func (s Source) Valid() bool {
	switch s {
	case SourceSMS, SourceMail, SourceManual:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case TypePurchase, TypeTransfer, TypeWithdrawal, TypeBillPayment, TypeCredited, TypeDebited, TypeSpent:
		return true
	}
	return false
}

func validateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func validateCurrency(c string) error {
	if c == "" {
		return nil
	}
	if len(c) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if err := validateCurrency(e.Currency); err != nil {
		return err
	}
	if strings.TrimSpace(e.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if e.Source != "" && !e.Source.Valid() {
		return ErrInvalidSource
	}
	if e.Type != "" && !e.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyTitle
	}
	if err := validateAmount(b.Amount); err != nil {
		return err
	}
	if b.DueDate.IsZero() {
		return ErrMissingDate
	}
	return nil
}
