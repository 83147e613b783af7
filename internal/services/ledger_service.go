package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"

	"github.com/google/uuid"
)

// EventPublisher delivers ledger events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, evt *amqp.LedgerEvent) error
}

// LedgerService orchestrates ledger mutations across the data store and AMQP.
// The store is the source of truth: publishing is best effort.
type LedgerService struct {
	store     store.DataStore
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	mu       sync.RWMutex
	onChange []func()
}

func NewLedgerService(s store.DataStore, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &LedgerService{
		store:     s,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// OnChange registers a hook run after every successful mutation.
func (s *LedgerService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *LedgerService) changed() {
	s.mu.RLock()
	hooks := append([]func(){}, s.onChange...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *LedgerService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx)
}

func (s *LedgerService) Info(ctx context.Context) (store.Info, error) {
	return s.store.Info(ctx)
}

// RecordTransaction assigns an ID and creation time, saves the transaction
// and publishes transaction.recorded. Any ID on the input is ignored.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = s.newID()
	t.CreatedAt = s.now().UTC()
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.AddTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	log.NewStructuredLogger(s.logger).
		LogTransactionRecorded(ctx, t.ID, string(t.Kind), t.Category, t.Amount)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionRecorded, t))
	s.changed()
	return t, nil
}

// UpdateTransaction applies a partial update and publishes transaction.updated.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	current, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		log.NewFields().
			WithTransaction(updated.ID, string(updated.Kind), updated.Category, updated.Amount).
			WithOperation(log.OpUpdate).
			ToSlice()...)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionUpdated, updated))
	s.changed()
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	current, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldOperation, log.OpDelete)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionDeleted, current))
	s.changed()
	return nil
}

// CreateBudget defaults the period to monthly and the alert threshold to 80%.
func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = s.newID()
	b.Category = strings.TrimSpace(b.Category)
	if b.Period == "" {
		b.Period = core.Monthly
	}
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if err := s.store.AddBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	s.logger.InfoContext(ctx, "Budget created",
		log.NewFields().WithBudget(b.ID, b.Category).WithOperation(log.OpCreate).ToSlice()...)

	s.publish(ctx, amqp.NewBudgetEvent(b))
	s.changed()
	return b, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, id string, patch core.BudgetPatch) (core.Budget, error) {
	current, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}

	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, updated); err != nil {
		return core.Budget{}, err
	}

	s.logger.InfoContext(ctx, "Budget updated",
		log.NewFields().WithBudget(updated.ID, updated.Category).WithOperation(log.OpUpdate).ToSlice()...)

	s.publish(ctx, amqp.NewBudgetEvent(updated))
	s.changed()
	return updated, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id string) error {
	current, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Budget deleted",
		log.NewFields().WithBudget(current.ID, current.Category).WithOperation(log.OpDelete).ToSlice()...)

	s.publish(ctx, amqp.NewBudgetEvent(current))
	s.changed()
	return nil
}

// Clear removes every transaction and budget.
func (s *LedgerService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	s.logger.WarnContext(ctx, "Ledger cleared", log.FieldOperation, log.OpDelete)
	s.changed()
	return nil
}

func (s *LedgerService) publish(ctx context.Context, evt *amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", "type", evt.Type)
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// The mutation is already persisted
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			"type", evt.Type,
			log.FieldCategory, evt.Category,
			log.FieldError, err.Error())
	}
}

// Close closes the store and the publisher when it supports closing.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
