// Package report renders an analytics report for the terminal.
package report

import (
	"fmt"
	"math"
	"strings"

	"fintrack/internal/analytics"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

type Styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Label    lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Summary  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		Section:  lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#bbbbbb")).Width(18),
		Positive: lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
		Negative: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d29b1d")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		Summary:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
	}
}

// Renderer turns a report into styled text.
type Renderer struct {
	styles Styles
	money  analytics.MoneyFormatter
}

func New(money analytics.MoneyFormatter) *Renderer {
	return &Renderer{styles: DefaultStyles(), money: money}
}

// Render lays out the summary, top categories, budgets, patterns and
// suggestions of r one below the other.
func (rd *Renderer) Render(r analytics.Report) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		rd.styles.Title.Render("Rapport financier du "+r.GeneratedAt.String()),
		rd.summaryView(r),
		rd.categoriesView(r.Insight.TopCategories),
		rd.budgetsView(r.Usages),
		rd.patternsView(r.Patterns),
		rd.suggestionsView(r.Suggestions),
	)
}

func (rd *Renderer) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, rd.styles.Label.Render(label), value)
}

func (rd *Renderer) summaryView(r analytics.Report) string {
	balance := rd.money.Format(r.Stats.Balance)
	if r.Stats.Balance.IsNegative() {
		balance = rd.styles.Negative.Render(balance)
	} else {
		balance = rd.styles.Positive.Render(balance)
	}

	risk := string(r.Insight.RiskLevel)
	switch r.Insight.RiskLevel {
	case analytics.RiskHigh:
		risk = rd.styles.Negative.Render(risk)
	case analytics.RiskMedium:
		risk = rd.styles.Warning.Render(risk)
	default:
		risk = rd.styles.Positive.Render(risk)
	}

	lines := []string{
		rd.row("Revenus du mois", rd.money.Format(r.Stats.TotalIncome)),
		rd.row("Dépenses du mois", rd.money.Format(r.Stats.TotalExpenses)),
		rd.row("Solde", balance),
		rd.row("Taux d'épargne", fmt.Sprintf("%.1f%%", r.Insight.SavingsRate)),
		rd.row("Tendance", string(r.Insight.SpendingTrend)),
		rd.row("Risque", fmt.Sprintf("%s (%d/100)", risk, r.Insight.RiskScore)),
	}
	return rd.styles.Summary.Render(strings.Join(lines, "\n"))
}

func (rd *Renderer) categoriesView(top []analytics.TopCategory) string {
	lines := []string{rd.styles.Section.Render("Principales catégories")}
	if len(top) == 0 {
		return strings.Join(append(lines, rd.styles.Muted.Render("Aucune dépense ce mois-ci.")), "\n")
	}
	for _, c := range top {
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(Bar(c.Percentage, barWidth))
		lines = append(lines, fmt.Sprintf("%s %s %5.1f%%  %s",
			rd.styles.Label.Render(c.Category), bar, c.Percentage, rd.money.Format(c.Amount)))
	}
	return strings.Join(lines, "\n")
}

func (rd *Renderer) budgetsView(usages []analytics.BudgetUsage) string {
	lines := []string{rd.styles.Section.Render("Budgets")}
	if len(usages) == 0 {
		return strings.Join(append(lines, rd.styles.Muted.Render("Aucun budget défini.")), "\n")
	}
	for _, u := range usages {
		status := rd.styles.Positive.Render("OK")
		switch {
		case u.IsOverBudget:
			status = rd.styles.Negative.Render("Dépassé")
		case u.IsNearLimit:
			status = rd.styles.Warning.Render("Proche de la limite")
		}
		lines = append(lines, fmt.Sprintf("%s %s / %s (%.0f%%, %s)  %s",
			rd.styles.Label.Render(u.Category),
			rd.money.Format(u.Spent), rd.money.Format(u.Limit),
			u.Percentage, u.Period, status))
	}
	return strings.Join(lines, "\n")
}

func (rd *Renderer) patternsView(patterns []analytics.SpendingPattern) string {
	lines := []string{rd.styles.Section.Render("Habitudes de dépense")}
	if len(patterns) == 0 {
		return strings.Join(append(lines, rd.styles.Muted.Render("Pas encore d'historique.")), "\n")
	}
	for _, p := range patterns {
		line := fmt.Sprintf("%s %s / mois  %s  volatilité %.0f%%",
			rd.styles.Label.Render(p.Category), rd.money.Format(p.AverageMonthly), trendArrow(p.Trend), p.Volatility)
		if p.Seasonality {
			line += rd.styles.Muted.Render("  saisonnier")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (rd *Renderer) suggestionsView(suggestions []analytics.Suggestion) string {
	lines := []string{rd.styles.Section.Render("Suggestions")}
	if len(suggestions) == 0 {
		return strings.Join(append(lines, rd.styles.Muted.Render("Rien à signaler.")), "\n")
	}
	for _, s := range suggestions {
		marker := rd.styles.Muted.Render("•")
		if s.Priority == analytics.PriorityHigh {
			marker = rd.styles.Negative.Render("!")
		}
		title := s.Title
		if s.Actionable && s.SuggestedAmount != nil {
			title += rd.styles.Positive.Render(" → " + rd.money.Format(*s.SuggestedAmount))
		}
		lines = append(lines,
			fmt.Sprintf("%s %s", marker, title),
			rd.styles.Muted.Render("  "+s.Description+" ["+s.ID+"]"))
	}
	return strings.Join(lines, "\n")
}

// Bar draws a horizontal gauge of width cells filled to pct percent.
// Values are clamped to [0, 100].
func Bar(pct float64, width int) string {
	pct = max(0, min(100, pct))
	filled := int(math.Round(pct * float64(width) / 100))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func trendArrow(t analytics.Trend) string {
	switch t {
	case analytics.Increasing:
		return "↑"
	case analytics.Decreasing:
		return "↓"
	default:
		return "→"
	}
}
