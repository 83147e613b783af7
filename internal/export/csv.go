// Package export writes the ledger to downloadable files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"fintrack/internal/core"
)

// ErrNothingToExport is returned when there are no transactions to write.
var ErrNothingToExport = errors.New("no transactions to export")

// ContentType is the media type of WriteCSV output.
const ContentType = "text/csv; charset=utf-8"

const (
	bom        = "\uFEFF"
	dateLayout = "02/01/2006"
)

var header = []string{"Date", "Type", "Category", "Description", "Amount"}

// WriteCSV writes transactions in the given order, preceded by a UTF-8 BOM
// and a header row. Expense amounts are written as negative numbers.
func WriteCSV(w io.Writer, transactions []core.Transaction) error {
	if len(transactions) == 0 {
		return ErrNothingToExport
	}

	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range transactions {
		record := []string{
			t.Date.Format(dateLayout),
			t.Kind.Label(),
			t.Category,
			t.Description,
			t.SignedAmount().String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename names an export produced at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("transactions-%s.csv", now.Format("2006-01-02"))
}
