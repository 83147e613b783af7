package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

var _ ports.TransactionExporter = (*Exporter)(nil)

// Exporter keeps exported transactions in memory. It stands in for the
// Sheets exporter when no spreadsheet is configured.
type Exporter struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New() *Exporter {
	return &Exporter{}
}

// Append stores the transaction and returns a synthetic row reference.
func (e *Exporter) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, t)
	return fmt.Sprintf("mem:%d", len(e.items)), nil
}

// Exported returns a copy of everything appended so far, oldest first.
func (e *Exporter) Exported() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.items...)
}
