// Package dashboard exposes the read-only reporting API over the tables
// the ingest pipeline maintains. It runs read queries and shapes rows to
// JSON; it owns no pipeline logic and performs no writes.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"salespipe/internal/db"
	"salespipe/internal/types"
)

// Query limits for the list endpoints.
const (
	defaultMetricDays = 30
	maxMetricDays     = 365
	defaultLogLimit   = 20
	maxLogLimit       = 200
)

// Reader is the read capability the dashboard needs from the store.
type Reader interface {
	DailyMetrics(ctx context.Context, days int) ([]types.DailyMetric, error)
	RecentQualityLogs(ctx context.Context, limit int) ([]types.QualityLogEntry, error)
	Summary(ctx context.Context) (db.Summary, error)
}

// Server holds the dashboard handlers and their dependencies.
type Server struct {
	Reader Reader
	Log    *slog.Logger
}

// Routes builds the chi router for the reporting API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/daily-metrics", s.handleDailyMetrics)
		r.Get("/quality-log", s.handleQualityLog)
		r.Get("/summary", s.handleSummary)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dailyMetricDTO is the JSON shape of one daily aggregate row. Money is
// serialized as decimal strings to avoid float drift in clients.
type dailyMetricDTO struct {
	Date                string    `json:"date"`
	TotalTransactions   int64     `json:"total_transactions"`
	TotalRevenue        string    `json:"total_revenue"`
	AvgTransactionValue string    `json:"avg_transaction_value"`
	TotalQuantity       int64     `json:"total_quantity"`
	UniqueCustomers     int64     `json:"unique_customers"`
	CalculatedAt        time.Time `json:"calculated_at"`
}

func (s *Server) handleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	days := clampQueryInt(r, "days", defaultMetricDays, maxMetricDays)

	metrics, err := s.Reader.DailyMetrics(r.Context(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]dailyMetricDTO, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, dailyMetricDTO{
			Date:                m.MetricDate.Format(types.DateFormat),
			TotalTransactions:   m.TotalTransactions,
			TotalRevenue:        m.TotalRevenue.StringFixed(2),
			AvgTransactionValue: m.AvgTransactionValue.StringFixed(2),
			TotalQuantity:       m.TotalQuantity,
			UniqueCustomers:     m.UniqueCustomers,
			CalculatedAt:        m.CalculatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"metrics": out})
}

// qualityLogDTO is the JSON shape of one batch quality entry, including
// the derived quality rate.
type qualityLogDTO struct {
	ID             int64     `json:"id"`
	File           string    `json:"file"`
	TotalRecords   int       `json:"total_records"`
	ValidRecords   int       `json:"valid_records"`
	InvalidRecords int       `json:"invalid_records"`
	QualityRate    float64   `json:"quality_rate"`
	ViolationCodes []string  `json:"violation_codes,omitempty"`
	ProcessedAt    time.Time `json:"processed_at"`
}

func (s *Server) handleQualityLog(w http.ResponseWriter, r *http.Request) {
	limit := clampQueryInt(r, "limit", defaultLogLimit, maxLogLimit)

	entries, err := s.Reader.RecentQualityLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]qualityLogDTO, 0, len(entries))
	for _, e := range entries {
		codes := make([]string, len(e.ViolationCodes))
		for i, c := range e.ViolationCodes {
			codes[i] = string(c)
		}
		out = append(out, qualityLogDTO{
			ID:             e.ID,
			File:           e.FileName,
			TotalRecords:   e.TotalRecords,
			ValidRecords:   e.ValidRecords,
			InvalidRecords: e.InvalidRecords,
			QualityRate:    types.QualityRate(e.ValidRecords, e.TotalRecords),
			ViolationCodes: codes,
			ProcessedAt:    e.ProcessedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Reader.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total_revenue":      summary.TotalRevenue.StringFixed(2),
		"total_transactions": summary.TotalTransactions,
		"days_tracked":       summary.DaysTracked,
		"last_calculated_at": summary.LastCalculatedAt,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.ErrorContext(r.Context(), "dashboard query failed",
		"path", r.URL.Path,
		"error", err,
	)
	// Read-only API: every failure here is a store error; details stay in
	// the logs.
	s.writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": "internal error",
	})
}

// clampQueryInt reads an integer query parameter, applying the default for
// absent/invalid values and capping at max.
func clampQueryInt(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
