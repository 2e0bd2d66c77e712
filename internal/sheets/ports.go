// Package sheets exports cached expenses to spreadsheet rows.
package sheets

import (
	"context"
	"time"

	"expensync/internal/core"
)

// ExpenseExporter writes expenses as rows and returns a reference to the
// written range.
type ExpenseExporter interface {
	Export(ctx context.Context, expenses []core.Expense) (ref string, err error)
}

// Header is the column layout of an exported row.
var Header = []string{"Date", "Merchant", "Category", "Amount", "Currency", "Type", "Source", "Notes"}

// Row renders e in Header order. Dates are local calendar days.
func Row(e core.Expense) []any {
	return []any{
		e.Date.In(time.Local).Format("2006-01-02"),
		e.Merchant,
		e.Category,
		e.Amount.StringFixed(2),
		e.Currency,
		string(e.Type),
		string(e.Source),
		e.Notes,
	}
}
