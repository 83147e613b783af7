package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// DefaultAlertThreshold is used for budgets created without an explicit threshold.
const DefaultAlertThreshold = 80

const dateLayout = "2006-01-02"

type (
	Kind string

	Period string

	// Date is a calendar date with no time-of-day semantics.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Kind        Kind            `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// TransactionPatch carries a partial update; nil fields are left untouched.
	TransactionPatch struct {
		Kind        *Kind            `json:"type,omitempty"`
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *Date            `json:"date,omitempty"`
	}

	Budget struct {
		ID             string          `json:"id"`
		Category       string          `json:"category"`
		Limit          decimal.Decimal `json:"limit"`
		Period         Period          `json:"period"`
		AlertThreshold float64         `json:"alertThreshold"`
	}

	BudgetPatch struct {
		Category       *string          `json:"category,omitempty"`
		Limit          *decimal.Decimal `json:"limit,omitempty"`
		Period         *Period          `json:"period,omitempty"`
		AlertThreshold *float64         `json:"alertThreshold,omitempty"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction type")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidThreshold   = errors.New("alert threshold must be between 1 and 100")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
)

// NewDate creates a new Date from year, month, day. Out of range values are
// normalized the way time.Date does (day 0 is the last day of the previous month).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// SameMonth reports whether d falls in the same calendar month as other.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// Between reports whether d lies in [start, end], both ends inclusive.
func (d Date) Between(start, end Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (k Kind) Validate() error {
	switch k {
	case Expense, Income:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// Label is the capitalized name used in exported files.
func (k Kind) Label() string {
	switch k {
	case Expense:
		return "Expense"
	case Income:
		return "Income"
	default:
		return string(k)
	}
}

func (p Period) Validate() error {
	switch p {
	case Weekly, Monthly:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}
}

// Start returns the first day of the period containing ref. Weeks start on Sunday.
func (p Period) Start(ref Date) Date {
	if p == Weekly {
		return NewDate(ref.Year(), ref.Month(), ref.Day()-int(ref.Weekday()))
	}
	return NewDate(ref.Year(), ref.Month(), 1)
}

// IsValidationError reports whether err comes from domain validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrInvalidKind, ErrInvalidPeriod,
		ErrInvalidThreshold, ErrEmptyDescription, ErrDescriptionTooLong, ErrEmptyCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return t.Date.Validate()
}

// SignedAmount returns the amount negated for expenses.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Apply returns a copy of t with the patch applied. The result is not validated.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := validateAmount(b.Limit); err != nil {
		return err
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}

func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
	}
	if p.Limit != nil {
		b.Limit = *p.Limit
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.AlertThreshold != nil {
		b.AlertThreshold = *p.AlertThreshold
	}
	return b
}
