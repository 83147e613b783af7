package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Ledger is the mutation and listing surface used by the handlers.
type Ledger interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, id string, patch core.BudgetPatch) (core.Budget, error)
	DeleteBudget(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Info(ctx context.Context) (store.Info, error)
}

// Advisor serves the analytics views.
type Advisor interface {
	Report(ctx context.Context) (analytics.Report, error)
	Stats(ctx context.Context) (analytics.Stats, error)
	Patterns(ctx context.Context) ([]analytics.SpendingPattern, error)
	Insights(ctx context.Context) (analytics.Insight, error)
	Suggestions(ctx context.Context) ([]analytics.Suggestion, error)
	BudgetUsage(ctx context.Context, budgetID string) (analytics.BudgetUsage, error)
	ApplySuggestion(ctx context.Context, id string) (core.Budget, error)
}

// Options configures the server. Zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
	Now                func() time.Time
}

type Server struct {
	http.Server
	ledger   Ledger
	advisor  Advisor
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger
	now      func() time.Time
}

// NewServer builds the router and the underlying http.Server.
func NewServer(addr string, ledger Ledger, advisor Advisor, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ledger:   ledger,
		advisor:  advisor,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(security.WithMaxBodyBytes(maxBodyBytes)),
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		now:      opts.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", handleCategories)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Patch("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Patch("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
			r.Get("/{id}/usage", s.handleBudgetUsage)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/patterns", s.handlePatterns)
		r.Get("/insights", s.handleInsights)
		r.Get("/suggestions", s.handleSuggestions)
		r.Post("/suggestions/{id}/apply", s.handleApplySuggestion)
		r.Get("/report", s.handleReport)

		r.Get("/export.csv", s.handleExportCSV)
		r.Delete("/data", s.handleClear)
	})

	return r
}

// Start begins background work owned by the server.
func (s *Server) Start() {
	s.limiter.Start()
}

// Shutdown stops the rate limiter and drains open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	info, err := s.ledger.Info(r.Context())
	if err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "data store unavailable").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"status": "ready", "store": info}).Write(w)
}
