package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

func TestExporterAppend(t *testing.T) {
	e := New()
	tx := core.Transaction{
		ID:          "t1",
		Kind:        core.Expense,
		Amount:      decimal.NewFromInt(123),
		Category:    "Transport",
		Description: "Bus",
		Date:        core.NewDate(2025, 1, 1),
	}

	for i, want := range []string{"mem:1", "mem:2"} {
		ref, err := e.Append(context.Background(), tx)
		if err != nil || ref != want {
			t.Fatalf("append %d: ref=%q err=%v, want %q", i, ref, err, want)
		}
	}
	if got := e.Exported(); len(got) != 2 || got[0].ID != "t1" {
		t.Fatalf("unexpected exported: %+v", got)
	}
}

func TestExporterRejectsInvalid(t *testing.T) {
	e := New()
	_, err := e.Append(context.Background(), core.Transaction{Kind: core.Expense})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(e.Exported()) != 0 {
		t.Fatal("invalid transaction should not be kept")
	}
}
