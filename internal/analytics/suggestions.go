package analytics

import (
	"fmt"
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// SuggestionKind identifies the rule that produced a suggestion.
type SuggestionKind string

const (
	NewBudget          SuggestionKind = "new_budget"
	BudgetIncrease     SuggestionKind = "budget_increase"
	BudgetDecrease     SuggestionKind = "budget_decrease"
	SpendingAlert      SuggestionKind = "spending_alert"
	SavingsOpportunity SuggestionKind = "savings_opportunity"
)

// Priority orders suggestions; see Weight.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight returns 3 for high, 2 for medium and 1 for low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Suggestion is an advisory produced by one rule for one category. Its ID is
// derived from the rule and the category, so identical inputs give identical IDs.
type Suggestion struct {
	ID              string           `json:"id"`
	Kind            SuggestionKind   `json:"type"`
	Category        string           `json:"category"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Reasoning       string           `json:"reasoning"`
	SuggestedAmount *decimal.Decimal `json:"suggestedAmount,omitempty"`
	CurrentAmount   *decimal.Decimal `json:"currentAmount,omitempty"`
	Confidence      int              `json:"confidence"`
	Priority        Priority         `json:"priority"`
	Actionable      bool             `json:"actionable"`
}

var (
	newBudgetFloor    = decimal.NewFromInt(10000)
	highPriorityFloor = decimal.NewFromInt(50000)
	newBudgetMargin   = decimal.RequireFromString("1.10")
	increaseMargin    = decimal.RequireFromString("1.15")
	decreaseMargin    = decimal.RequireFromString("1.05")
	alertFactor       = decimal.RequireFromString("1.5")
	savingsCut        = decimal.RequireFromString("0.9")
	savingsShare      = decimal.RequireFromString("0.1")
)

const (
	volatileConfidenceCut = 30
	alertVolatility       = 50
	overBudgetPercent     = 100
	underUsedPercent      = 60
	lowSavingsRate        = 10
	dominantSharePercent  = 30
)

func suggestionID(kind SuggestionKind, category string) string {
	prefix := map[SuggestionKind]string{
		NewBudget:          "new-budget",
		BudgetIncrease:     "increase-budget",
		BudgetDecrease:     "decrease-budget",
		SpendingAlert:      "spending-alert",
		SavingsOpportunity: "savings-opportunity",
	}[kind]
	return prefix + "-" + category
}

func amountPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Suggestions evaluates every rule against the snapshot and returns the
// results sorted by priority weight, then confidence, both descending.
func (e *Engine) Suggestions(transactions []core.Transaction, budgets []core.Budget) []Suggestion {
	today := e.today()
	patterns := e.Patterns(transactions, budgets)
	usages := e.BudgetUsages(budgets, transactions)
	return e.suggest(transactions, budgets, patterns, usages, insights(transactions, usages, today), today)
}

func (e *Engine) suggest(
	transactions []core.Transaction,
	budgets []core.Budget,
	patterns []SpendingPattern,
	usages []BudgetUsage,
	in Insight,
	today core.Date,
) []Suggestion {
	byCategory := make(map[string]SpendingPattern, len(patterns))
	for _, p := range patterns {
		byCategory[p.Category] = p
	}
	budgeted := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		budgeted[b.Category] = true
	}

	out := make([]Suggestion, 0)

	for _, p := range patterns {
		if budgeted[p.Category] || !p.AverageMonthly.GreaterThan(newBudgetFloor) {
			continue
		}
		s := Suggestion{
			ID:              suggestionID(NewBudget, p.Category),
			Kind:            NewBudget,
			Category:        p.Category,
			Title:           fmt.Sprintf("Créer un budget pour %s", p.Category),
			Description:     fmt.Sprintf("Vous dépensez en moyenne %s par mois dans cette catégorie.", e.money.Format(p.AverageMonthly)),
			Reasoning:       "Basé sur vos dépenses moyennes des derniers mois avec une marge de sécurité de 10%.",
			SuggestedAmount: amountPtr(p.AverageMonthly.Mul(newBudgetMargin).Ceil()),
			Confidence:      85,
			Priority:        PriorityMedium,
			Actionable:      true,
		}
		if p.Volatility >= volatileConfidenceCut {
			s.Confidence = 65
		}
		if p.AverageMonthly.GreaterThan(highPriorityFloor) {
			s.Priority = PriorityHigh
		}
		out = append(out, s)
	}

	for i, b := range budgets {
		p, ok := byCategory[b.Category]
		if !ok {
			continue
		}
		usage := usages[i]
		if usage.Percentage > overBudgetPercent && p.Trend == Increasing {
			out = append(out, Suggestion{
				ID:              suggestionID(BudgetIncrease, b.Category),
				Kind:            BudgetIncrease,
				Category:        b.Category,
				Title:           fmt.Sprintf("Augmenter le budget %s", b.Category),
				Description:     fmt.Sprintf("Votre budget actuel est dépassé de %.1f%%.", usage.Percentage-100),
				Reasoning:       "Vos dépenses dans cette catégorie sont en hausse et dépassent régulièrement le budget.",
				SuggestedAmount: amountPtr(p.AverageMonthly.Mul(increaseMargin).Ceil()),
				CurrentAmount:   amountPtr(b.Limit),
				Confidence:      80,
				Priority:        PriorityHigh,
				Actionable:      true,
			})
		}
		if usage.Percentage < underUsedPercent && p.Trend == Decreasing {
			out = append(out, Suggestion{
				ID:              suggestionID(BudgetDecrease, b.Category),
				Kind:            BudgetDecrease,
				Category:        b.Category,
				Title:           fmt.Sprintf("Réduire le budget %s", b.Category),
				Description:     fmt.Sprintf("Vous n'utilisez que %.1f%% de ce budget.", usage.Percentage),
				Reasoning:       "Vos dépenses dans cette catégorie diminuent et vous pourriez réallouer ces fonds.",
				SuggestedAmount: amountPtr(p.AverageMonthly.Mul(decreaseMargin).Ceil()),
				CurrentAmount:   amountPtr(b.Limit),
				Confidence:      75,
				Priority:        PriorityMedium,
				Actionable:      true,
			})
		}
	}

	monthStart := core.Monthly.Start(today)
	for _, p := range patterns {
		if p.Volatility <= alertVolatility {
			continue
		}
		spent := sumWhere(transactions, filter{kind: core.Expense, category: p.Category, from: monthStart, to: today})
		if !spent.GreaterThan(p.AverageMonthly.Mul(alertFactor)) {
			continue
		}
		out = append(out, Suggestion{
			ID:          suggestionID(SpendingAlert, p.Category),
			Kind:        SpendingAlert,
			Category:    p.Category,
			Title:       fmt.Sprintf("Dépenses élevées en %s", p.Category),
			Description: fmt.Sprintf("Vos dépenses ce mois (%s) sont 50%% plus élevées que la moyenne.", e.money.Format(spent)),
			Reasoning:   "Détection d'une anomalie dans vos habitudes de dépenses.",
			Confidence:  90,
			Priority:    PriorityHigh,
		})
	}

	if in.SavingsRate < lowSavingsRate && len(in.TopCategories) > 0 {
		top := in.TopCategories[0]
		if top.Percentage > dominantSharePercent {
			out = append(out, Suggestion{
				ID:       suggestionID(SavingsOpportunity, top.Category),
				Kind:     SavingsOpportunity,
				Category: top.Category,
				Title:    fmt.Sprintf("Opportunité d'épargne en %s", top.Category),
				Description: fmt.Sprintf("Cette catégorie représente %.1f%% de vos dépenses. Réduire de 10%% pourrait vous faire économiser %s.",
					top.Percentage, e.money.Format(top.Amount.Mul(savingsShare))),
				Reasoning:       fmt.Sprintf("Votre taux d'épargne est faible (%.1f%%). Optimiser vos plus grosses dépenses peut aider.", in.SavingsRate),
				SuggestedAmount: amountPtr(top.Amount.Mul(savingsCut).Ceil()),
				CurrentAmount:   amountPtr(top.Amount),
				Confidence:      70,
				Priority:        PriorityMedium,
				Actionable:      true,
			})
		}
	}

	SortSuggestions(out)
	return out
}

// SortSuggestions orders suggestions by priority weight, then confidence,
// both descending. Equal suggestions keep their relative order.
func SortSuggestions(s []Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		wi, wj := s[i].Priority.Weight(), s[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return s[i].Confidence > s[j].Confidence
	})
}
