// Package google appends expenses to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"expensync/internal/core"
	"expensync/internal/log"
	ports "expensync/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Config struct {
	SpreadsheetID string
	// SheetName is the base tab name; the current year is prefixed.
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.ExpenseExporter = (*Exporter)(nil)

// New creates an exporter. Extra client options are appended after the
// credentials, so tests can point it at a fake endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	base := cfg.SheetName
	if strings.TrimSpace(base) == "" {
		base = "Expenses"
	}

	svc, err := newSheetsService(ctx, cfg, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     yearPrefixedName(base, time.Now().Year()),
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger, extra []goption.ClientOption) (*gsheet.Service, error) {
	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.DebugContext(ctx, "Read service account credentials", "path", cfg.CredentialsFile)
		opts = append(opts, goption.WithCredentialsJSON(data))
	case len(extra) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// SheetName returns the tab rows are appended to.
func (e *Exporter) SheetName() string {
	return e.sheetName
}

// Export appends one row per expense below the existing data.
func (e *Exporter) Export(ctx context.Context, expenses []core.Expense) (string, error) {
	if len(expenses) == 0 {
		return "", nil
	}
	values := make([][]any, 0, len(expenses))
	for _, exp := range expenses {
		values = append(values, ports.Row(exp))
	}

	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	e.logger.InfoContext(ctx, "Expenses exported", log.FieldCount, len(values), "range", ref)
	return ref, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
