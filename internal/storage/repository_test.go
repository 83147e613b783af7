package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTx(id, amount string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        core.Expense,
		Amount:      decimal.RequireFromString(amount),
		Category:    "Alimentation",
		Description: "Courses " + id,
		Date:        core.NewDate(2025, 3, 14),
		CreatedAt:   time.Date(2025, 3, 14, 9, 30, 0, 123, time.UTC),
	}
}

func TestSQLiteTransactionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, tx := range []core.Transaction{sampleTx("a", "10.50"), sampleTx("b", "20"), sampleTx("c", "0.01")} {
		if err := repo.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("add %s: %v", tx.ID, err)
		}
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	got, err := repo.GetTransaction(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := sampleTx("a", "10.50")
	if !got.Amount.Equal(want.Amount) || got.Date.String() != want.Date.String() || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}

	got.Description = "Marché"
	if err := repo.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetTransaction(ctx, "a")
	if got.Description != "Marché" {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := repo.DeleteTransaction(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "b"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := repo.UpdateTransaction(ctx, sampleTx("zz", "1")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestSQLiteBudgetsUniqueCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	b1 := core.Budget{ID: "b1", Category: "Loisirs", Limit: decimal.NewFromInt(60000), Period: core.Monthly, AlertThreshold: 85}
	b2 := core.Budget{ID: "b2", Category: "Santé", Limit: decimal.NewFromInt(30000), Period: core.Weekly, AlertThreshold: 90}
	if err := repo.AddBudget(ctx, b1); err != nil {
		t.Fatalf("add b1: %v", err)
	}
	if err := repo.AddBudget(ctx, b2); err != nil {
		t.Fatalf("add b2: %v", err)
	}

	dup := b1
	dup.ID = "b3"
	if err := repo.AddBudget(ctx, dup); !errors.Is(err, store.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}

	moved := b2
	moved.Category = "Loisirs"
	if err := repo.UpdateBudget(ctx, moved); !errors.Is(err, store.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget on update, got %v", err)
	}

	b1.Limit = decimal.RequireFromString("65000.5")
	if err := repo.UpdateBudget(ctx, b1); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.ListBudgets(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v err=%v", list, err)
	}
	if list[0].ID != "b1" || !list[0].Limit.Equal(b1.Limit) || list[1].Period != core.Weekly {
		t.Fatalf("unexpected budgets %+v", list)
	}

	if err := repo.DeleteBudget(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteImportInfoClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed := store.Seed{
		Transactions: []core.Transaction{sampleTx("new", "1"), sampleTx("old", "2")},
		Budgets: []core.Budget{
			{ID: "b1", Category: "Alimentation", Limit: decimal.NewFromInt(80000), Period: core.Monthly, AlertThreshold: 80},
		},
	}
	if err := repo.Import(ctx, seed); err != nil {
		t.Fatalf("import: %v", err)
	}
	list, _ := repo.ListTransactions(ctx)
	if len(list) != 2 || list[0].ID != "new" {
		t.Fatalf("import should keep seed order, got %+v", list)
	}

	info, err := repo.Info(ctx)
	if err != nil || info.Transactions != 2 || info.Budgets != 1 || info.Backend != "sqlite" {
		t.Fatalf("unexpected info %+v err=%v", info, err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	info, _ = repo.Info(ctx)
	if info.Transactions != 0 || info.Budgets != 0 {
		t.Fatalf("expected empty after clear, got %+v", info)
	}
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		repo.Close()
	}
}
