// Package core provides the finance domain model shared by the store, the
// gateways and the views.
//
// This file contains amount parsing and formatting helpers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend exchanges amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts a user-entered decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values, signs and anything that is not a plain decimal are rejected with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with two decimals and the currency code, e.g. "199.00 INR".
func FormatAmount(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + currency
}
