package analytics

import (
	"fmt"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// fixedNow is Thursday 2025-06-12; its week starts on Sunday 2025-06-08.
func fixedNow() time.Time {
	return time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC)
}

var txSeq int

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTx(kind core.Kind, category, value string, date core.Date) core.Transaction {
	txSeq++
	return core.Transaction{
		ID:          fmt.Sprintf("tx-%d", txSeq),
		Kind:        kind,
		Amount:      amount(value),
		Category:    category,
		Description: category,
		Date:        date,
		CreatedAt:   date.Time,
	}
}

func expense(category, value string, date core.Date) core.Transaction {
	return newTx(core.Expense, category, value, date)
}

func income(category, value string, date core.Date) core.Transaction {
	return newTx(core.Income, category, value, date)
}

// scenarioTransactions is one Alimentation expense per month from March to
// June 2025 with the monthly series 10000, 12000, 25000, 30000.
func scenarioTransactions() []core.Transaction {
	return []core.Transaction{
		expense("Alimentation", "10000", core.NewDate(2025, 3, 10)),
		expense("Alimentation", "12000", core.NewDate(2025, 4, 10)),
		expense("Alimentation", "25000", core.NewDate(2025, 5, 10)),
		expense("Alimentation", "30000", core.NewDate(2025, 6, 5)),
	}
}

func budget(category, limit string, period core.Period) core.Budget {
	return core.Budget{
		ID:             "b-" + category,
		Category:       category,
		Limit:          amount(limit),
		Period:         period,
		AlertThreshold: core.DefaultAlertThreshold,
	}
}
