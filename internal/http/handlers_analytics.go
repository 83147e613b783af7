package http

import (
	"bytes"
	"net/http"
	"strconv"

	"fintrack/internal/export"
	"fintrack/internal/log"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.advisor.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(stats).Write(w)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.advisor.Patterns(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(patterns).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insight, err := s.advisor.Insights(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(insight).Write(w)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.advisor.Suggestions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(suggestions).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.advisor.Report(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.advisor.BudgetUsage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(usage).Write(w)
}

func (s *Server) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.advisor.ApplySuggestion(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs = filter.Apply(txs)

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transactions exported",
		log.FieldOperation, log.OpExport,
		"count", len(txs),
		"bytes", buf.Len())

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
