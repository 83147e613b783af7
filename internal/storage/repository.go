package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toTransaction(row)
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := r.queries.CreateTransaction(ctx, fromTransaction(t)); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Kind,
		"amount", t.Amount.String(),
		"category", t.Category)
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateTransaction(ctx, fromTransaction(t))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := toBudget(row)
		if err != nil {
			return nil, fmt.Errorf("decode budget %s: %w", row.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return toBudget(row)
}

// AddBudget relies on the unique category index to reject a second budget
// for the same category.
func (r *SQLiteRepository) AddBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := r.queries.CreateBudget(ctx, fromBudget(b)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("budget %s: %w", b.Category, store.ErrDuplicateBudget)
		}
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateBudget(ctx, fromBudget(b))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("budget %s: %w", b.Category, store.ErrDuplicateBudget)
		}
		return fmt.Errorf("update budget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget %s: %w", b.ID, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	n, err := r.queries.DeleteBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Info(ctx context.Context) (store.Info, error) {
	txs, budgets, err := r.queries.CountRows(ctx)
	if err != nil {
		return store.Info{}, fmt.Errorf("count rows: %w", err)
	}
	return store.Info{Backend: "sqlite", Transactions: int(txs), Budgets: int(budgets)}, nil
}

// Clear deletes every transaction and budget in one database transaction.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.ClearTransactions(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if err := q.ClearBudgets(ctx); err != nil {
		return fmt.Errorf("clear budgets: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	slog.InfoContext(ctx, "All ledger data cleared")
	return nil
}

// Import inserts a seed dataset in a single database transaction.
func (r *SQLiteRepository) Import(ctx context.Context, seed store.Seed) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	// oldest first so that the newest-added ordering matches the seed order
	for i := len(seed.Transactions) - 1; i >= 0; i-- {
		t := seed.Transactions[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if err := q.CreateTransaction(ctx, fromTransaction(t)); err != nil {
			return fmt.Errorf("import transaction %s: %w", t.ID, err)
		}
	}
	for _, b := range seed.Budgets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("budget %s: %w", b.ID, err)
		}
		if err := q.CreateBudget(ctx, fromBudget(b)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("budget %s: %w", b.Category, store.ErrDuplicateBudget)
			}
			return fmt.Errorf("import budget %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func fromTransaction(t core.Transaction) Transaction {
	return Transaction{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toTransaction(row Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", row.Amount, err)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("created_at %q: %w", row.CreatedAt, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Kind:        core.Kind(row.Kind),
		Amount:      amount,
		Category:    row.Category,
		Description: row.Description,
		Date:        date,
		CreatedAt:   createdAt,
	}, nil
}

func fromBudget(b core.Budget) Budget {
	return Budget{
		ID:             b.ID,
		Category:       b.Category,
		LimitAmount:    b.Limit.String(),
		Period:         string(b.Period),
		AlertThreshold: b.AlertThreshold,
	}
}

func toBudget(row Budget) (core.Budget, error) {
	limit, err := decimal.NewFromString(row.LimitAmount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("limit %q: %w", row.LimitAmount, err)
	}
	return core.Budget{
		ID:             row.ID,
		Category:       row.Category,
		Limit:          limit,
		Period:         core.Period(row.Period),
		AlertThreshold: row.AlertThreshold,
	}, nil
}
