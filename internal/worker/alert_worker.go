package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// LedgerReader is the part of the Data Store the worker reads.
type LedgerReader interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
}

// AlertWorker reacts to ledger events: it checks the budget of the touched
// category and copies new transactions to the configured exporter. Only
// transaction.recorded exports a row, so each transaction is exported once.
type AlertWorker struct {
	ledger   LedgerReader
	engine   *analytics.Engine
	exporter sheets.TransactionExporter
	logger   *log.Logger
}

// NewAlertWorker creates a worker. exporter may be nil.
func NewAlertWorker(ledger LedgerReader, engine *analytics.Engine, exporter sheets.TransactionExporter, logger *log.Logger) *AlertWorker {
	if engine == nil {
		engine = analytics.New()
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &AlertWorker{
		ledger:   ledger,
		engine:   engine,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single ledger event from AMQP. A returned error
// asks the broker to redeliver the message.
func (w *AlertWorker) HandleEvent(ctx context.Context, evt *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"type", evt.Type,
		log.FieldTransactionID, evt.TransactionID,
		log.FieldCategory, evt.Category)

	switch evt.Type {
	case amqp.EventTransactionRecorded:
		return w.handleRecorded(ctx, evt)
	case amqp.EventTransactionUpdated:
		_, err := w.checkTransaction(ctx, evt)
		return err
	case amqp.EventBudgetChanged:
		_, _, err := w.CheckCategory(ctx, evt.Category)
		return err
	case amqp.EventTransactionDeleted:
		return nil
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event", "type", evt.Type)
		return nil
	}
}

func (w *AlertWorker) handleRecorded(ctx context.Context, evt *amqp.LedgerEvent) error {
	t, err := w.checkTransaction(ctx, evt)
	if err != nil || t == nil {
		return err
	}

	if w.exporter == nil {
		return nil
	}
	ref, err := w.exporter.Append(ctx, *t)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export transaction",
			log.NewFields().
				WithTransaction(t.ID, string(t.Kind), t.Category, t.Amount).
				WithOperation(log.OpExport).
				WithError(err).
				ToSlice()...)
		return fmt.Errorf("export transaction: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction exported",
		log.FieldTransactionID, t.ID,
		"sheets_ref", ref)
	return nil
}

// checkTransaction loads the transaction named by evt and checks its budget
// when it is an expense. It returns nil when the transaction is gone.
func (w *AlertWorker) checkTransaction(ctx context.Context, evt *amqp.LedgerEvent) (*core.Transaction, error) {
	t, err := w.ledger.GetTransaction(ctx, evt.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted before we got to it
		w.logger.WarnContext(ctx, "Transaction no longer exists, skipping",
			log.FieldTransactionID, evt.TransactionID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if t.Kind == core.Expense {
		if _, _, err := w.CheckCategory(ctx, t.Category); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// CheckCategory evaluates the budget of category, if any, and logs a budget
// alert when it is near its limit or exceeded.
func (w *AlertWorker) CheckCategory(ctx context.Context, category string) (analytics.BudgetUsage, bool, error) {
	budgets, err := w.ledger.ListBudgets(ctx)
	if err != nil {
		return analytics.BudgetUsage{}, false, fmt.Errorf("list budgets: %w", err)
	}

	var budget *core.Budget
	for i := range budgets {
		if budgets[i].Category == category {
			budget = &budgets[i]
			break
		}
	}
	if budget == nil {
		return analytics.BudgetUsage{}, false, nil
	}

	txs, err := w.ledger.ListTransactions(ctx)
	if err != nil {
		return analytics.BudgetUsage{}, false, fmt.Errorf("list transactions: %w", err)
	}

	usage := w.engine.BudgetUsage(*budget, txs)
	alert := usage.IsOverBudget || usage.IsNearLimit
	if alert {
		w.logAlert(ctx, usage)
	}
	return usage, alert, nil
}

// Sweep re-evaluates every budget and returns those near or over their limit.
// It backs up event handling when messages are lost.
func (w *AlertWorker) Sweep(ctx context.Context) ([]analytics.BudgetUsage, error) {
	budgets, err := w.ledger.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}
	txs, err := w.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var alerts []analytics.BudgetUsage
	for _, u := range w.engine.BudgetUsages(budgets, txs) {
		if u.IsOverBudget || u.IsNearLimit {
			w.logAlert(ctx, u)
			alerts = append(alerts, u)
		}
	}

	w.logger.InfoContext(ctx, "Budget sweep completed",
		log.FieldOperation, log.OpSweep,
		"budgets", len(budgets),
		"alerts", len(alerts))
	return alerts, nil
}

func (w *AlertWorker) logAlert(ctx context.Context, u analytics.BudgetUsage) {
	level := "near_limit"
	if u.IsOverBudget {
		level = "over_budget"
	}
	w.logger.WarnContext(ctx, "budget alert",
		log.FieldBudgetID, u.BudgetID,
		log.FieldCategory, u.Category,
		log.FieldPercentage, u.Percentage,
		"spent", u.Spent.String(),
		"limit", u.Limit.String(),
		"level", level)
}
