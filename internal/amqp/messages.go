package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventTransactionRecorded EventType = "transaction.recorded"
	EventTransactionUpdated  EventType = "transaction.updated"
	EventTransactionDeleted  EventType = "transaction.deleted"
	EventBudgetChanged       EventType = "budget.changed"
)

// LedgerEvent is a lightweight notification about a ledger mutation.
// Consumers fetch the full entity from the data store when they need it.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	TransactionID string    `json:"transactionId,omitempty"`
	BudgetID      string    `json:"budgetId,omitempty"`
	Category      string    `json:"category"`
	Kind          core.Kind `json:"kind,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event about a transaction.
func NewTransactionEvent(typ EventType, t core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Type:          typ,
		TransactionID: t.ID,
		Category:      t.Category,
		Kind:          t.Kind,
		Timestamp:     time.Now(),
	}
}

// NewBudgetEvent creates a budget.changed event.
func NewBudgetEvent(b core.Budget) *LedgerEvent {
	return &LedgerEvent{
		Type:      EventBudgetChanged,
		BudgetID:  b.ID,
		Category:  b.Category,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
