package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV(t *testing.T) {
	txs := []core.Transaction{
		{
			ID:          "t1",
			Kind:        core.Expense,
			Amount:      decimal.RequireFromString("15000.5"),
			Category:    "Alimentation",
			Description: `Marché "central", légumes`,
			Date:        core.NewDate(2025, 6, 3),
		},
		{
			ID:          "t2",
			Kind:        core.Income,
			Amount:      decimal.NewFromInt(350000),
			Category:    "Salaire",
			Description: "Salaire juin",
			Date:        core.NewDate(2025, 6, 28),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatal("output should start with a UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\uFEFF"), "\n"), "\n")
	want := []string{
		"Date,Type,Category,Description,Amount",
		`03/06/2025,Expense,Alimentation,"Marché ""central"", légumes",-15000.5`,
		"28/06/2025,Income,Salaire,Salaire juin,350000",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("WriteCSV(nil) error = %v, want ErrNothingToExport", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an empty export")
	}
}

func TestWriteCSV_WriterError(t *testing.T) {
	txs := []core.Transaction{{ID: "t1", Kind: core.Income, Amount: decimal.NewFromInt(1), Date: core.NewDate(2025, 1, 1)}}
	if err := WriteCSV(failingWriter{}, txs); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("WriteCSV() error = %v, want writer failure", err)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 6, 12, 23, 59, 0, 0, time.UTC)
	if got := Filename(now); got != "transactions-2025-06-12.csv" {
		t.Errorf("Filename() = %q", got)
	}
}
