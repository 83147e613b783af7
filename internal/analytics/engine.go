// Package analytics turns a snapshot of transactions and budgets into
// statistics, spending patterns, insights and budget suggestions.
//
// Every computation is a pure function of its inputs and the engine clock.
// An Engine holds configuration only, so a single value is safe for
// concurrent use.
package analytics

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Engine computes analytics relative to the current time of its clock.
type Engine struct {
	now            func() time.Time
	insertionOrder bool
	money          MoneyFormatter
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used as "now". Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithInsertionOrderSeries keeps monthly series in order of first
// occurrence in the input instead of sorting them by month.
func WithInsertionOrderSeries() Option {
	return func(e *Engine) {
		e.insertionOrder = true
	}
}

// WithMoneyFormatter sets the formatter used in suggestion texts.
func WithMoneyFormatter(f MoneyFormatter) Option {
	return func(e *Engine) {
		e.money = f
	}
}

// New creates an Engine with the given options applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		money: NewMoneyFormatter(language.French, "FCFA"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's current calendar day.
func (e *Engine) Today() core.Date {
	return e.today()
}

func (e *Engine) today() core.Date {
	return core.DateOf(e.now())
}

// MoneyFormatter renders whole currency amounts with locale grouping.
type MoneyFormatter struct {
	printer *message.Printer
	label   string
}

// NewMoneyFormatter creates a formatter for the given locale. The label is
// appended after the number, e.g. "21 175 FCFA".
func NewMoneyFormatter(tag language.Tag, label string) MoneyFormatter {
	return MoneyFormatter{printer: message.NewPrinter(tag), label: label}
}

// Format rounds amount to a whole unit and formats it.
func (f MoneyFormatter) Format(amount decimal.Decimal) string {
	if f.printer == nil {
		f.printer = message.NewPrinter(language.French)
	}
	n := f.printer.Sprint(number.Decimal(amount.Round(0).IntPart(), number.MaxFractionDigits(0)))
	if f.label == "" {
		return n
	}
	return n + " " + f.label
}

var defaultEngine = New()

// ComputeStats returns current-month totals using the system clock.
func ComputeStats(transactions []core.Transaction) Stats {
	return defaultEngine.Stats(transactions)
}

// AnalyzePatterns returns spending patterns using the system clock.
func AnalyzePatterns(transactions []core.Transaction, budgets []core.Budget) []SpendingPattern {
	return defaultEngine.Patterns(transactions, budgets)
}

// GenerateInsights returns the financial insight using the system clock.
func GenerateInsights(transactions []core.Transaction, budgets []core.Budget) Insight {
	return defaultEngine.Insights(transactions, budgets)
}

// GenerateSuggestions returns ranked suggestions using the system clock.
func GenerateSuggestions(transactions []core.Transaction, budgets []core.Budget) []Suggestion {
	return defaultEngine.Suggestions(transactions, budgets)
}

// EvaluateBudgetUsage returns the current-period usage of b using the system clock.
func EvaluateBudgetUsage(b core.Budget, transactions []core.Transaction) BudgetUsage {
	return defaultEngine.BudgetUsage(b, transactions)
}
