package analytics

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Stats are the current month's totals.
type Stats struct {
	TotalExpenses      decimal.Decimal            `json:"totalExpenses"`
	TotalIncome        decimal.Decimal            `json:"totalIncome"`
	Balance            decimal.Decimal            `json:"balance"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expensesByCategory"`
	TransactionCount   int                        `json:"transactionCount"`
}

// Stats sums the transactions dated in the current calendar month.
// Balance is always TotalIncome minus TotalExpenses.
func (e *Engine) Stats(transactions []core.Transaction) Stats {
	month := currentMonth(transactions, e.today())
	expenses := sumWhere(month, filter{kind: core.Expense})
	income := sumWhere(month, filter{kind: core.Income})
	_, byCategory := categoryTotals(selectWhere(month, filter{kind: core.Expense}))
	return Stats{
		TotalExpenses:      expenses,
		TotalIncome:        income,
		Balance:            income.Sub(expenses),
		ExpensesByCategory: byCategory,
		TransactionCount:   len(month),
	}
}

// Report bundles every analytics view computed from one snapshot.
type Report struct {
	GeneratedAt core.Date         `json:"generatedAt"`
	Stats       Stats             `json:"stats"`
	Patterns    []SpendingPattern `json:"patterns"`
	Insight     Insight           `json:"insight"`
	Usages      []BudgetUsage     `json:"budgetUsages"`
	Suggestions []Suggestion      `json:"suggestions"`
}

// Analyze computes every view from a single snapshot and a single reading of
// the clock, so the parts of the report are mutually consistent.
func (e *Engine) Analyze(transactions []core.Transaction, budgets []core.Budget) Report {
	today := e.today()
	frozen := *e
	frozen.now = func() time.Time { return today.Time }

	patterns := frozen.Patterns(transactions, budgets)
	usages := frozen.BudgetUsages(budgets, transactions)
	in := insights(transactions, usages, today)
	return Report{
		GeneratedAt: today,
		Stats:       frozen.Stats(transactions),
		Patterns:    patterns,
		Insight:     in,
		Usages:      usages,
		Suggestions: frozen.suggest(transactions, budgets, patterns, usages, in, today),
	}
}
