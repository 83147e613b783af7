package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Transaction struct {
	ID          string
	Kind        string
	Amount      string
	Category    string
	Description string
	Date        string
	CreatedAt   string
}

type Budget struct {
	ID             string
	Category       string
	LimitAmount    string
	Period         string
	AlertThreshold float64
}

const transactionColumns = `id, kind, amount, category, description, date, created_at`

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY rowid DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.Kind, &i.Amount, &i.Category, &i.Description, &i.Date, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i Transaction
	err := row.Scan(&i.ID, &i.Kind, &i.Amount, &i.Category, &i.Description, &i.Date, &i.CreatedAt)
	return i, err
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.Kind, arg.Amount, arg.Category, arg.Description, arg.Date, arg.CreatedAt)
	return err
}

const updateTransaction = `UPDATE transactions
SET kind = ?, amount = ?, category = ?, description = ?, date = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Kind, arg.Amount, arg.Category, arg.Description, arg.Date, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const budgetColumns = `id, category, limit_amount, period, alert_threshold`

const listBudgets = `SELECT ` + budgetColumns + ` FROM budgets ORDER BY rowid`

func (q *Queries) ListBudgets(ctx context.Context) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var i Budget
		if err := rows.Scan(&i.ID, &i.Category, &i.LimitAmount, &i.Period, &i.AlertThreshold); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id string) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, id)
	var i Budget
	err := row.Scan(&i.ID, &i.Category, &i.LimitAmount, &i.Period, &i.AlertThreshold)
	return i, err
}

const createBudget = `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, arg Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		arg.ID, arg.Category, arg.LimitAmount, arg.Period, arg.AlertThreshold)
	return err
}

const updateBudget = `UPDATE budgets
SET category = ?, limit_amount = ?, period = ?, alert_threshold = ?
WHERE id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, arg Budget) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBudget,
		arg.Category, arg.LimitAmount, arg.Period, arg.AlertThreshold, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countRows = `SELECT
    (SELECT COUNT(*) FROM transactions) AS transactions,
    (SELECT COUNT(*) FROM budgets) AS budgets`

func (q *Queries) CountRows(ctx context.Context) (transactions int64, budgets int64, err error) {
	err = q.db.QueryRowContext(ctx, countRows).Scan(&transactions, &budgets)
	return transactions, budgets, err
}

const clearTransactions = `DELETE FROM transactions`

func (q *Queries) ClearTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearTransactions)
	return err
}

const clearBudgets = `DELETE FROM budgets`

func (q *Queries) ClearBudgets(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearBudgets)
	return err
}
