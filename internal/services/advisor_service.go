package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrSuggestionNotFound is returned when no current suggestion has the requested id.
	ErrSuggestionNotFound = errors.New("suggestion not found")
	// ErrNotActionable is returned when applying a suggestion that proposes no budget change.
	ErrNotActionable = errors.New("suggestion is not actionable")
)

// reportTimeout bounds a report computation independently of the callers.
const reportTimeout = 30 * time.Second

// SnapshotSource reads the data the engine works on.
type SnapshotSource interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	GetBudget(ctx context.Context, id string) (core.Budget, error)
}

// BudgetWriter persists the budget changes carried by suggestions.
type BudgetWriter interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, id string, patch core.BudgetPatch) (core.Budget, error)
}

// Snapshot is a consistent view of the ledger.
type Snapshot struct {
	Transactions []core.Transaction
	Budgets      []core.Budget
}

// AdvisorService runs the analytics engine over data store snapshots.
// Reports are cached per calendar day until the next ledger change.
type AdvisorService struct {
	source  SnapshotSource
	budgets BudgetWriter
	engine  *analytics.Engine
	reports cache.Cache[analytics.Report]
	group   singleflight.Group
	gen     atomic.Uint64
	logger  *log.Logger
}

// NewAdvisorService wires the engine to its data. A nil reports cache
// disables caching.
func NewAdvisorService(source SnapshotSource, budgets BudgetWriter, engine *analytics.Engine, reports cache.Cache[analytics.Report], logger *log.Logger) *AdvisorService {
	if engine == nil {
		engine = analytics.New()
	}
	if logger == nil {
		logger = log.Default(log.ComponentAdvisor)
	}
	return &AdvisorService{
		source:  source,
		budgets: budgets,
		engine:  engine,
		reports: reports,
		logger:  logger.WithComponent(log.ComponentAdvisor),
	}
}

// Invalidate drops cached reports. Computations already in flight are keyed
// by the previous generation and will not be served afterwards.
func (s *AdvisorService) Invalidate() {
	s.gen.Add(1)
	if s.reports != nil {
		s.reports.Clear()
	}
}

// Snapshot loads transactions and budgets concurrently.
func (s *AdvisorService) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.source.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		budgets, err := s.source.ListBudgets(gctx)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		snap.Budgets = budgets
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Report returns every analytics view computed from one snapshot.
func (s *AdvisorService) Report(ctx context.Context) (analytics.Report, error) {
	key := s.engine.Today().String() + "#" + strconv.FormatUint(s.gen.Load(), 10)
	if s.reports != nil {
		if r, ok := s.reports.Get(key); ok {
			return r, nil
		}
	}

	// The computation is shared by every caller waiting on key, so it must
	// outlive the request that started it.
	ch := s.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()

		snap, err := s.Snapshot(sctx)
		if err != nil {
			return nil, err
		}
		r := s.engine.Analyze(snap.Transactions, snap.Budgets)
		if s.reports != nil {
			s.reports.Set(key, r)
		}
		s.logger.DebugContext(ctx, "Analytics report computed",
			log.FieldOperation, log.OpAnalyze,
			"transactions", len(snap.Transactions),
			"budgets", len(snap.Budgets),
			"suggestions", len(r.Suggestions))
		return r, nil
	})

	select {
	case <-ctx.Done():
		return analytics.Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return analytics.Report{}, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "Analytics report shared with concurrent caller")
		}
		return res.Val.(analytics.Report), nil
	}
}

func (s *AdvisorService) Stats(ctx context.Context) (analytics.Stats, error) {
	r, err := s.Report(ctx)
	return r.Stats, err
}

func (s *AdvisorService) Patterns(ctx context.Context) ([]analytics.SpendingPattern, error) {
	r, err := s.Report(ctx)
	return r.Patterns, err
}

func (s *AdvisorService) Insights(ctx context.Context) (analytics.Insight, error) {
	r, err := s.Report(ctx)
	return r.Insight, err
}

func (s *AdvisorService) Suggestions(ctx context.Context) ([]analytics.Suggestion, error) {
	r, err := s.Report(ctx)
	return r.Suggestions, err
}

func (s *AdvisorService) BudgetUsages(ctx context.Context) ([]analytics.BudgetUsage, error) {
	r, err := s.Report(ctx)
	return r.Usages, err
}

// BudgetUsage evaluates one budget against the current ledger.
func (s *AdvisorService) BudgetUsage(ctx context.Context, budgetID string) (analytics.BudgetUsage, error) {
	b, err := s.source.GetBudget(ctx, budgetID)
	if err != nil {
		return analytics.BudgetUsage{}, err
	}
	txs, err := s.source.ListTransactions(ctx)
	if err != nil {
		return analytics.BudgetUsage{}, fmt.Errorf("load transactions: %w", err)
	}
	return s.engine.BudgetUsage(b, txs), nil
}

// ApplySuggestion persists the budget change proposed by a current suggestion:
// a new monthly budget for new_budget, a new limit for budget_increase and
// budget_decrease.
func (s *AdvisorService) ApplySuggestion(ctx context.Context, id string) (core.Budget, error) {
	r, err := s.Report(ctx)
	if err != nil {
		return core.Budget{}, err
	}

	var sug *analytics.Suggestion
	for i := range r.Suggestions {
		if r.Suggestions[i].ID == id {
			sug = &r.Suggestions[i]
			break
		}
	}
	if sug == nil {
		return core.Budget{}, fmt.Errorf("%s: %w", id, ErrSuggestionNotFound)
	}
	if !sug.Actionable || sug.SuggestedAmount == nil {
		return core.Budget{}, fmt.Errorf("%s: %w", id, ErrNotActionable)
	}

	var applied core.Budget
	switch sug.Kind {
	case analytics.NewBudget:
		applied, err = s.budgets.CreateBudget(ctx, core.Budget{
			Category:       sug.Category,
			Limit:          *sug.SuggestedAmount,
			Period:         core.Monthly,
			AlertThreshold: core.DefaultAlertThreshold,
		})
	case analytics.BudgetIncrease, analytics.BudgetDecrease:
		existing, ok, lerr := budgetForCategory(ctx, s.source, sug.Category)
		if lerr != nil {
			return core.Budget{}, lerr
		}
		if !ok {
			return core.Budget{}, fmt.Errorf("%s: %w", id, ErrSuggestionNotFound)
		}
		limit := *sug.SuggestedAmount
		applied, err = s.budgets.UpdateBudget(ctx, existing.ID, core.BudgetPatch{Limit: &limit})
	default:
		return core.Budget{}, fmt.Errorf("%s: %w", id, ErrNotActionable)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("apply suggestion %s: %w", id, err)
	}

	log.NewStructuredLogger(s.logger).
		LogSuggestionApplied(ctx, sug.ID, string(sug.Kind), sug.Category)

	s.Invalidate()
	return applied, nil
}

func budgetForCategory(ctx context.Context, source SnapshotSource, category string) (core.Budget, bool, error) {
	budgets, err := source.ListBudgets(ctx)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("load budgets: %w", err)
	}
	for _, b := range budgets {
		if b.Category == category {
			return b, true, nil
		}
	}
	return core.Budget{}, false, nil
}
