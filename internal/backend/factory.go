package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.ImportSeed {
		if err := f.importSeed(ctx, repo, config.SeedFile); err != nil {
			repo.Close()
			return nil, err
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

// importSeed loads the demo dataset only when the database holds nothing yet.
func (f *DefaultFactory) importSeed(ctx context.Context, repo *storage.SQLiteRepository, path string) error {
	info, err := repo.Info(ctx)
	if err != nil {
		return fmt.Errorf("inspect database: %w", err)
	}
	if info.Transactions > 0 || info.Budgets > 0 {
		f.logger.Info("Database not empty, skipping seed import",
			"transactions", info.Transactions,
			"budgets", info.Budgets)
		return nil
	}

	seed, ok, err := store.ReadSeed(path)
	if err != nil {
		return err
	}
	if !ok {
		f.logger.Warn("Seed file not found, starting empty", "seed_file", path)
		return nil
	}
	if err := repo.Import(ctx, seed); err != nil {
		return fmt.Errorf("import seed file %s: %w", path, err)
	}

	f.logger.Info("Imported seed data",
		"seed_file", path,
		"transactions", len(seed.Transactions),
		"budgets", len(seed.Budgets))
	return nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	s, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Store:   s,
		Cleanup: s.Close,
	}, nil
}
