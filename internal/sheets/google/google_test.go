package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"expensync/internal/core"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Expenses", 2024, "2024 Expenses"},
		{"  Expenses ", 2025, "2025 Expenses"},
		{"2023 Expenses", 2024, "2023 Expenses"},
		{"1800 Expenses", 2024, "2024 1800 Expenses"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsFile: "/does/not/exist.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("New() error = %v", err)
	}
}

type fakeSheets struct {
	mu     sync.Mutex
	paths  []string
	values [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":append") {
		http.Error(w, "unexpected request", http.StatusNotFound)
		return
	}
	var vr gsheet.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.values = append(f.values, vr.Values...)
	n := len(f.values)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"spreadsheetId":"sheet","updates":{"updatedRange":"Expenses!A2:H%d","updatedRows":%d}}`, n+1, len(vr.Values))
}

func TestExport(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ex, err := New(context.Background(), Config{SpreadsheetID: "sheet"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if want := fmt.Sprintf("%d Expenses", time.Now().Year()); ex.SheetName() != want {
		t.Errorf("SheetName() = %q, want %q", ex.SheetName(), want)
	}

	date := core.NewTimestamp(time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local))
	ref, err := ex.Export(context.Background(), []core.Expense{
		{ID: "e1", Amount: decimal.RequireFromString("450.5"), Currency: "INR", Category: "Food", Merchant: "Zomato", Date: date, Type: core.TypePurchase, Source: core.SourceSMS},
		{ID: "e2", Amount: decimal.NewFromInt(30), Currency: "INR", Category: "Transport", Merchant: "Metro", Date: date, Notes: "card"},
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if ref != "Expenses!A2:H3" {
		t.Errorf("ref = %q", ref)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.values) != 2 {
		t.Fatalf("got %d rows, want 2", len(fake.values))
	}
	first := fake.values[0]
	if first[0] != "2024-01-15" || first[1] != "Zomato" || first[3] != "450.50" || first[5] != "Purchase" {
		t.Errorf("first row = %v", first)
	}
	if fake.values[1][7] != "card" {
		t.Errorf("second row notes = %v", fake.values[1][7])
	}
}

func TestExport_Empty(t *testing.T) {
	ex := &Exporter{}
	ref, err := ex.Export(context.Background(), nil)
	if err != nil || ref != "" {
		t.Fatalf("Export(nil) = %q, %v", ref, err)
	}
}
