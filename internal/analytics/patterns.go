package analytics

import (
	"math"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Trend is the coarse direction of a numeric series.
type Trend string

const (
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
	Stable     Trend = "stable"
)

// trendThreshold is the relative change between half means that counts as movement.
const trendThreshold = 0.10

// SpendingPattern summarizes the monthly spending of one expense category.
type SpendingPattern struct {
	Category       string          `json:"category"`
	AverageMonthly decimal.Decimal `json:"averageMonthly"`
	Trend          Trend           `json:"trend"`
	Volatility     float64         `json:"volatility"`
	Seasonality    bool            `json:"seasonality"`
	Months         int             `json:"months"`
}

// Patterns returns one SpendingPattern per catalog expense category that has
// at least one expense, in catalog order. Budgets do not affect the result.
func (e *Engine) Patterns(transactions []core.Transaction, _ []core.Budget) []SpendingPattern {
	patterns := make([]SpendingPattern, 0, len(core.ExpenseCategories))
	for _, c := range core.ExpenseCategories {
		matching := selectWhere(transactions, filter{kind: core.Expense, category: c.Name})
		if len(matching) == 0 {
			continue
		}
		series := monthlySeries(matching, !e.insertionOrder)
		values := floats(series)
		patterns = append(patterns, SpendingPattern{
			Category:       c.Name,
			AverageMonthly: meanDecimal(series),
			Trend:          ClassifyTrend(values),
			Volatility:     Volatility(values),
			Seasonality:    Seasonal(values),
			Months:         len(series),
		})
	}
	return patterns
}

// ClassifyTrend compares the mean of the first half of values with the mean of
// the second half. The split is at len/2, so for odd lengths the second half
// is the longer one. Fewer than two values are always Stable.
func ClassifyTrend(values []float64) Trend {
	if len(values) < 2 {
		return Stable
	}
	mid := len(values) / 2
	first, second := mean(values[:mid]), mean(values[mid:])
	if first == 0 {
		// no baseline to compare against
		if second > 0 {
			return Increasing
		}
		return Stable
	}
	change := (second - first) / first
	switch {
	case change > trendThreshold:
		return Increasing
	case change < -trendThreshold:
		return Decreasing
	default:
		return Stable
	}
}

// Volatility returns the population standard deviation of values as a
// percentage of their mean. It is 0 for fewer than two values or a
// non-positive mean.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	if avg <= 0 || allEqual(values) {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values))
	return finite(math.Sqrt(variance) / avg * 100)
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Seasonal reports whether values has at least six points and two or more
// local maxima. A missing neighbor at either end counts as 0.
func Seasonal(values []float64) bool {
	if len(values) < 6 {
		return false
	}
	peaks := 0
	for i, v := range values {
		var prev, next float64
		if i > 0 {
			prev = values[i-1]
		}
		if i < len(values)-1 {
			next = values[i+1]
		}
		if v > prev && v > next {
			peaks++
		}
	}
	return peaks >= 2
}
