package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	budgets      []core.Budget
}

func New() *Store {
	return &Store{}
}

// NewFromFile loads a JSON seed file. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	seed, ok, err := store.ReadSeed(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s, nil
	}
	if err := s.Load(seed); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}
	return s, nil
}

// Load replaces the store content with the seed. Seed order is kept as is.
func (s *Store) Load(seed store.Seed) error {
	seen := map[string]struct{}{}
	for _, b := range seed.Budgets {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("budget %s: %w", b.ID, err)
		}
		if _, ok := seen[b.Category]; ok {
			return fmt.Errorf("budget %s: %w", b.ID, store.ErrDuplicateBudget)
		}
		seen[b.Category] = struct{}{}
	}
	for _, t := range seed.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction(nil), seed.Transactions...)
	s.budgets = append([]core.Budget(nil), seed.Budgets...)
	return nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.transactionIndex(id); i >= 0 {
		return s.transactions[i], nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
}

// AddTransaction stores t at the front of the list.
func (s *Store) AddTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction{t}, s.transactions...)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(t.ID)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, store.ErrNotFound)
	}
	s.transactions[i] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets...), nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.budgetIndex(id); i >= 0 {
		return s.budgets[i], nil
	}
	return core.Budget{}, fmt.Errorf("budget %s: %w", id, store.ErrNotFound)
}

// AddBudget appends b unless its category already has a budget.
func (s *Store) AddBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryTaken(b.Category, "") {
		return fmt.Errorf("budget %s: %w", b.Category, store.ErrDuplicateBudget)
	}
	s.budgets = append(s.budgets, b)
	return nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(b.ID)
	if i < 0 {
		return fmt.Errorf("budget %s: %w", b.ID, store.ErrNotFound)
	}
	if s.categoryTaken(b.Category, b.ID) {
		return fmt.Errorf("budget %s: %w", b.Category, store.ErrDuplicateBudget)
	}
	s.budgets[i] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.budgetIndex(id)
	if i < 0 {
		return fmt.Errorf("budget %s: %w", id, store.ErrNotFound)
	}
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return nil
}

func (s *Store) Info(_ context.Context) (store.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Info{Backend: "memory", Transactions: len(s.transactions), Budgets: len(s.budgets)}, nil
}

// Clear removes all transactions and budgets.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.budgets = nil
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) transactionIndex(id string) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) budgetIndex(id string) int {
	for i, b := range s.budgets {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// categoryTaken reports whether a budget other than exceptID uses category.
func (s *Store) categoryTaken(category, exceptID string) bool {
	for _, b := range s.budgets {
		if b.Category == category && b.ID != exceptID {
			return true
		}
	}
	return false
}
