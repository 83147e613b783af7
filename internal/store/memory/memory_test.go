package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
)

func tx(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        core.Expense,
		Amount:      decimal.NewFromInt(1000),
		Category:    "Transport",
		Description: "Taxi " + id,
		Date:        core.NewDate(2025, 1, 2),
	}
}

func bud(id, category string) core.Budget {
	return core.Budget{ID: id, Category: category, Limit: decimal.NewFromInt(5000), Period: core.Monthly, AlertThreshold: 80}
}

func TestMemoryStoreTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.AddTransaction(ctx, tx(id)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	list, err := s.ListTransactions(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("unexpected list: %v err=%v", list, err)
	}
	if list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("expected newest first, got %s..%s", list[0].ID, list[2].ID)
	}

	// returned slice is a copy
	list[0].Description = "mutated"
	got, _ := s.GetTransaction(ctx, "c")
	if got.Description == "mutated" {
		t.Fatalf("store leaked internal slice")
	}
}

func TestMemoryStoreTransactionUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AddTransaction(ctx, tx("a"))

	updated := tx("a")
	updated.Amount = decimal.NewFromInt(42)
	if err := s.UpdateTransaction(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetTransaction(ctx, "a")
	if err != nil || !got.Amount.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("unexpected transaction %+v err=%v", got, err)
	}

	if err := s.UpdateTransaction(ctx, tx("missing")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	bad := tx("x")
	bad.Description = ""
	if err := New().AddTransaction(context.Background(), bad); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMemoryStoreBudgetCategoryUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.AddBudget(ctx, bud("b1", "Loisirs")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddBudget(ctx, bud("b2", "Loisirs")); !errors.Is(err, store.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}
	if err := s.AddBudget(ctx, bud("b2", "Santé")); err != nil {
		t.Fatalf("add: %v", err)
	}
	// moving b2 onto Loisirs collides with b1
	if err := s.UpdateBudget(ctx, bud("b2", "Loisirs")); !errors.Is(err, store.ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget on update, got %v", err)
	}
	// updating b1 in place keeps its own category
	changed := bud("b1", "Loisirs")
	changed.Limit = decimal.NewFromInt(9000)
	if err := s.UpdateBudget(ctx, changed); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteBudget(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	info, _ := s.Info(ctx)
	if info.Budgets != 2 || info.Backend != "memory" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing seed should not fail: %v", err)
	}
	if info, _ := s.Info(context.Background()); info.Transactions != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.json")
	content := `{
  "transactions": [
    {"id": "1", "type": "income", "amount": "450000", "category": "Salaire", "description": "Salaire", "date": "2024-12-01"},
    {"id": "2", "type": "expense", "amount": 85000, "category": "Logement", "description": "Loyer", "date": "2024-12-02"}
  ],
  "budgets": [
    {"id": "budget-1", "category": "Alimentation", "limit": 80000, "period": "monthly", "alertThreshold": 80}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	list, _ := s.ListTransactions(context.Background())
	if len(list) != 2 || list[0].ID != "1" || !list[1].Amount.Equal(decimal.NewFromInt(85000)) {
		t.Fatalf("unexpected seeded transactions %+v", list)
	}

	if err := os.WriteFile(path, []byte(`{"budgets":[{"id":"x","category":"A","limit":1,"period":"daily","alertThreshold":80}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period error, got %v", err)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AddTransaction(ctx, tx("a"))
	_ = s.AddBudget(ctx, bud("b", "Loisirs"))
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	info, _ := s.Info(ctx)
	if info.Transactions != 0 || info.Budgets != 0 {
		t.Fatalf("expected empty store after clear, got %+v", info)
	}
}
