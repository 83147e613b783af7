package analytics

import (
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// RiskLevel classifies overall financial risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

const (
	topCategoryCount = 5
	trendMonths      = 3
)

// TopCategory is one entry of the current month's spending ranking.
type TopCategory struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
	Color      string          `json:"color"`
}

// Insight is a whole-portfolio snapshot for the current month.
type Insight struct {
	TotalSpending     decimal.Decimal `json:"totalSpending"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	SpendingTrend     Trend           `json:"spendingTrend"`
	TopCategories     []TopCategory   `json:"topCategories"`
	BudgetUtilization float64         `json:"budgetUtilization"`
	SavingsRate       float64         `json:"savingsRate"`
	RiskLevel         RiskLevel       `json:"riskLevel"`
	RiskScore         int             `json:"riskScore"`
}

// Insights computes the financial insight for the month containing today.
func (e *Engine) Insights(transactions []core.Transaction, budgets []core.Budget) Insight {
	today := e.today()
	return insights(transactions, e.BudgetUsages(budgets, transactions), today)
}

func insights(transactions []core.Transaction, usages []BudgetUsage, today core.Date) Insight {
	month := currentMonth(transactions, today)
	spending := sumWhere(month, filter{kind: core.Expense})
	income := sumWhere(month, filter{kind: core.Income})

	in := Insight{
		TotalSpending:     spending,
		TotalIncome:       income,
		SpendingTrend:     ClassifyTrend(floats(recentMonths(transactions, today, trendMonths))),
		TopCategories:     topCategories(month, spending),
		BudgetUtilization: utilization(usages),
	}
	if income.IsPositive() {
		in.SavingsRate = income.Sub(spending).Mul(hundred).Div(income).InexactFloat64()
	}
	in.RiskScore = riskScore(in, len(month) > 0)
	in.RiskLevel = riskLevelOf(in.RiskScore)
	return in
}

// recentMonths returns the expense totals of the last n calendar months,
// oldest first, ending with the month of today.
func recentMonths(transactions []core.Transaction, today core.Date, n int) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, n)
	for i := n - 1; i >= 0; i-- {
		key := monthOf(core.NewDate(today.Year(), today.Month()-i, 1))
		out = append(out, sumWhere(transactions, filter{kind: core.Expense, month: &key}))
	}
	return out
}

func topCategories(month []core.Transaction, totalSpending decimal.Decimal) []TopCategory {
	order, totals := categoryTotals(selectWhere(month, filter{kind: core.Expense}))
	top := make([]TopCategory, 0, len(order))
	for _, name := range order {
		top = append(top, TopCategory{
			Category:   name,
			Amount:     totals[name],
			Percentage: percentOf(totals[name], totalSpending),
			Color:      core.CategoryColor(core.Expense, name),
		})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount.GreaterThan(top[j].Amount)
	})
	if len(top) > topCategoryCount {
		top = top[:topCategoryCount]
	}
	return top
}

// riskScore adds points for a low savings rate, high budget utilization and
// rising spending. Savings points need at least one transaction this month;
// an empty month says nothing about saving.
func riskScore(in Insight, hasActivity bool) int {
	score := 0
	if hasActivity {
		switch {
		case in.SavingsRate < 5:
			score += 3
		case in.SavingsRate < 15:
			score += 2
		case in.SavingsRate < 25:
			score++
		}
	}
	switch {
	case in.BudgetUtilization > 90:
		score += 3
	case in.BudgetUtilization > 75:
		score += 2
	case in.BudgetUtilization > 60:
		score++
	}
	switch in.SpendingTrend {
	case Increasing:
		score += 2
	case Stable:
		score++
	}
	return score
}

func riskLevelOf(score int) RiskLevel {
	switch {
	case score >= 6:
		return RiskHigh
	case score >= 3:
		return RiskMedium
	default:
		return RiskLow
	}
}
