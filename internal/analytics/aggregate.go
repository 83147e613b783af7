package analytics

import (
	"math"
	"sort"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type monthKey struct {
	year  int
	month int
}

func monthOf(d core.Date) monthKey {
	return monthKey{year: d.Year(), month: d.Month()}
}

func (k monthKey) before(other monthKey) bool {
	if k.year != other.year {
		return k.year < other.year
	}
	return k.month < other.month
}

// filter describes which transactions a sum should include. Zero fields
// match everything.
type filter struct {
	kind     core.Kind
	category string
	from     core.Date
	to       core.Date
	month    *monthKey
}

func (f filter) match(t core.Transaction) bool {
	if f.kind != "" && t.Kind != f.kind {
		return false
	}
	if f.category != "" && t.Category != f.category {
		return false
	}
	if !f.from.IsZero() && t.Date.Before(f.from.Time) {
		return false
	}
	if !f.to.IsZero() && t.Date.After(f.to.Time) {
		return false
	}
	if f.month != nil && monthOf(t.Date) != *f.month {
		return false
	}
	return true
}

// sumWhere adds up the amounts of matching transactions. An empty match is zero.
func sumWhere(transactions []core.Transaction, f filter) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if f.match(t) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

func selectWhere(transactions []core.Transaction, f filter) []core.Transaction {
	var out []core.Transaction
	for _, t := range transactions {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// currentMonth returns the transactions dated in the same calendar month as today.
func currentMonth(transactions []core.Transaction, today core.Date) []core.Transaction {
	key := monthOf(today)
	return selectWhere(transactions, filter{month: &key})
}

// monthlySeries groups transactions by calendar month and returns one sum
// per month. Groups appear in order of first occurrence unless chronological
// is set, in which case they are sorted oldest first.
func monthlySeries(transactions []core.Transaction, chronological bool) []decimal.Decimal {
	var keys []monthKey
	sums := make(map[monthKey]decimal.Decimal)
	for _, t := range transactions {
		k := monthOf(t.Date)
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
			sums[k] = decimal.Zero
		}
		sums[k] = sums[k].Add(t.Amount)
	}
	if chronological {
		sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	}
	series := make([]decimal.Decimal, len(keys))
	for i, k := range keys {
		series[i] = sums[k]
	}
	return series
}

// categoryTotals groups amounts by their literal category name, keeping
// the order in which categories first appear.
func categoryTotals(transactions []core.Transaction) ([]string, map[string]decimal.Decimal) {
	var order []string
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if _, ok := totals[t.Category]; !ok {
			order = append(order, t.Category)
			totals[t.Category] = decimal.Zero
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return order, totals
}

func meanDecimal(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}

func floats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// finite replaces NaN and infinities with 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
