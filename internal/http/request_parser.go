// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding and validating request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// decodeJSON decodes a single JSON object from the request body, rejecting
// unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		case core.IsValidationError(err):
			return err
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// Amount accepts a JSON number or a string using a dot or comma separator.
type Amount struct {
	decimal.Decimal
	set bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	a.set = true
	return nil
}

func (a *Amount) ptr() *decimal.Decimal {
	if a == nil || !a.set {
		return nil
	}
	d := a.Decimal
	return &d
}

// TransactionRequest is the body of POST /api/transactions.
type TransactionRequest struct {
	Type        core.Kind `json:"type"`
	Amount      Amount    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        core.Date `json:"date"`
}

// toTransaction builds the transaction, dating it today when no date is given.
func (req TransactionRequest) toTransaction(today core.Date) core.Transaction {
	date := req.Date
	if date.IsZero() {
		date = today
	}
	return core.Transaction{
		Kind:        core.Kind(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		Amount:      req.Amount.Decimal,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
}

// TransactionPatchRequest is the body of PATCH /api/transactions/{id}.
type TransactionPatchRequest struct {
	Type        *core.Kind `json:"type"`
	Amount      *Amount    `json:"amount"`
	Category    *string    `json:"category"`
	Description *string    `json:"description"`
	Date        *core.Date `json:"date"`
}

func (req TransactionPatchRequest) toPatch() core.TransactionPatch {
	return core.TransactionPatch{
		Kind:        req.Type,
		Amount:      req.Amount.ptr(),
		Category:    sanitizePtr(req.Category),
		Description: sanitizePtr(req.Description),
		Date:        req.Date,
	}
}

// BudgetRequest is the body of POST /api/budgets.
type BudgetRequest struct {
	Category       string      `json:"category"`
	Limit          Amount      `json:"limit"`
	Period         core.Period `json:"period"`
	AlertThreshold float64     `json:"alertThreshold"`
}

func (req BudgetRequest) toBudget() core.Budget {
	return core.Budget{
		Category:       sanitizeInput(req.Category),
		Limit:          req.Limit.Decimal,
		Period:         req.Period,
		AlertThreshold: req.AlertThreshold,
	}
}

// BudgetPatchRequest is the body of PATCH /api/budgets/{id}.
type BudgetPatchRequest struct {
	Category       *string      `json:"category"`
	Limit          *Amount      `json:"limit"`
	Period         *core.Period `json:"period"`
	AlertThreshold *float64     `json:"alertThreshold"`
}

func (req BudgetPatchRequest) toPatch() core.BudgetPatch {
	return core.BudgetPatch{
		Category:       sanitizePtr(req.Category),
		Limit:          req.Limit.ptr(),
		Period:         req.Period,
		AlertThreshold: req.AlertThreshold,
	}
}

// TransactionFilter narrows GET /api/transactions.
type TransactionFilter struct {
	Kind     core.Kind
	Category string
	From     core.Date
	To       core.Date
}

// ParseTransactionFilter reads type, category, from and to query parameters.
func ParseTransactionFilter(query url.Values) (TransactionFilter, error) {
	f := TransactionFilter{
		Kind:     core.Kind(strings.ToLower(strings.TrimSpace(query.Get("type")))),
		Category: sanitizeInput(query.Get("category")),
	}
	if f.Kind != "" {
		if err := f.Kind.Validate(); err != nil {
			return TransactionFilter{}, err
		}
	}
	for key, dst := range map[string]*core.Date{"from": &f.From, "to": &f.To} {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				return TransactionFilter{}, err
			}
			*dst = d
		}
	}
	return f, nil
}

// Match reports whether t passes the filter.
func (f TransactionFilter) Match(t core.Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	return true
}

// Apply returns the matching transactions in their original order.
func (f TransactionFilter) Apply(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
