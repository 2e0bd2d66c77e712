// Package memory keeps exported rows in process, for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"expensync/internal/core"
	ports "expensync/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.ExpenseExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the rows and returns a synthetic range reference.
func (x *Exporter) Export(_ context.Context, expenses []core.Expense) (string, error) {
	if len(expenses) == 0 {
		return "", nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	start := len(x.rows) + 2 // row 1 is the header
	for _, e := range expenses {
		x.rows = append(x.rows, ports.Row(e))
	}
	return fmt.Sprintf("memory!A%d:H%d", start, len(x.rows)+1), nil
}

// Rows returns a copy of everything exported so far.
func (x *Exporter) Rows() [][]any {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.rows)
}
