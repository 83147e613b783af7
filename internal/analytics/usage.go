package analytics

import (
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// BudgetUsage is the spending measured against a budget over its current period.
type BudgetUsage struct {
	BudgetID     string          `json:"budgetId"`
	Category     string          `json:"category"`
	Limit        decimal.Decimal `json:"limit"`
	Period       core.Period     `json:"period"`
	PeriodStart  core.Date       `json:"periodStart"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Percentage   float64         `json:"percentage"`
	IsOverBudget bool            `json:"isOverBudget"`
	IsNearLimit  bool            `json:"isNearLimit"`
}

// BudgetUsage sums the expenses of b's category dated between the start of
// the current period and today, both inclusive. A non-positive limit yields
// a percentage of 0.
func (e *Engine) BudgetUsage(b core.Budget, transactions []core.Transaction) BudgetUsage {
	return budgetUsage(b, transactions, e.today())
}

func budgetUsage(b core.Budget, transactions []core.Transaction, today core.Date) BudgetUsage {
	start := b.Period.Start(today)
	spent := sumWhere(transactions, filter{
		kind:     core.Expense,
		category: b.Category,
		from:     start,
		to:       today,
	})
	pct := percentOf(spent, b.Limit)
	return BudgetUsage{
		BudgetID:     b.ID,
		Category:     b.Category,
		Limit:        b.Limit,
		Period:       b.Period,
		PeriodStart:  start,
		Spent:        spent,
		Remaining:    b.Limit.Sub(spent),
		Percentage:   pct,
		IsOverBudget: spent.GreaterThan(b.Limit),
		IsNearLimit:  pct >= b.AlertThreshold,
	}
}

// BudgetUsages evaluates every budget, preserving input order.
func (e *Engine) BudgetUsages(budgets []core.Budget, transactions []core.Transaction) []BudgetUsage {
	today := e.today()
	out := make([]BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetUsage(b, transactions, today))
	}
	return out
}

// utilization averages budget usage percentages, each capped at 100.
func utilization(usages []BudgetUsage) float64 {
	if len(usages) == 0 {
		return 0
	}
	var total float64
	for _, u := range usages {
		total += min(u.Percentage, 100)
	}
	return total / float64(len(usages))
}
