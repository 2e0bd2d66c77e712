package memory

import (
	"context"
	"testing"
	"time"

	"expensync/internal/core"

	"github.com/shopspring/decimal"
)

func TestExport(t *testing.T) {
	x := New()
	date := core.NewTimestamp(time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local))
	items := []core.Expense{
		{ID: "e1", Amount: decimal.NewFromInt(100), Currency: "INR", Merchant: "Cafe", Category: "Food", Date: date},
		{ID: "e2", Amount: decimal.NewFromInt(40), Currency: "INR", Merchant: "Bakery", Category: "Food", Date: date},
	}

	ref, err := x.Export(context.Background(), items)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if ref != "memory!A2:H3" {
		t.Errorf("ref = %q", ref)
	}

	ref, err = x.Export(context.Background(), items[:1])
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if ref != "memory!A4:H4" {
		t.Errorf("ref = %q", ref)
	}

	rows := x.Rows()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][1] != "Cafe" || rows[0][3] != "100.00" {
		t.Errorf("row = %v", rows[0])
	}

	if ref, err := x.Export(context.Background(), nil); err != nil || ref != "" {
		t.Errorf("Export(nil) = %q, %v", ref, err)
	}
}
