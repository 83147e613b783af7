// Package store defines the Data Store ports shared by the memory and SQLite
// implementations.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned when no entity has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateBudget is returned when a category already has a budget.
	ErrDuplicateBudget = errors.New("a budget already exists for this category")
)

// Ports for persistence adapters.
type (
	// TransactionStore keeps the ledger. Lists are newest-added first.
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		AddTransaction(ctx context.Context, t core.Transaction) error
		// UpdateTransaction replaces the transaction with the same ID.
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	// BudgetStore keeps at most one budget per category.
	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		AddBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id string) error
	}

	// DataStore is the full persistence surface used by the services.
	DataStore interface {
		TransactionStore
		BudgetStore
		Info(ctx context.Context) (Info, error)
		Clear(ctx context.Context) error
		Close() error
	}
)

// Info reports store diagnostics.
type Info struct {
	Backend      string `json:"backend"`
	Transactions int    `json:"transactions"`
	Budgets      int    `json:"budgets"`
}

// Seed is the on-disk shape of a demo dataset.
type Seed struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
}
