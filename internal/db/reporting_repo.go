package db

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salespipe/internal/types"
)

// ReportingRepo provides the read-only queries behind the dashboard API.
// It never writes: the ingest pipeline is the sole writer of these tables.
type ReportingRepo struct {
	db DBTX
}

// NewReportingRepo creates a ReportingRepo backed by the given database
// connection.
func NewReportingRepo(db DBTX) *ReportingRepo {
	return &ReportingRepo{db: db}
}

// DailyMetrics returns the aggregate rows for the most recent days,
// newest first.
func (r *ReportingRepo) DailyMetrics(ctx context.Context, days int) ([]types.DailyMetric, error) {
	rows, err := r.db.Query(ctx, `
		SELECT metric_date, total_transactions, total_revenue,
		       avg_transaction_value, total_quantity, unique_customers, calculated_at
		FROM daily_metrics
		ORDER BY metric_date DESC
		LIMIT $1`, days)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query daily metrics", err)
	}
	defer rows.Close()

	var metrics []types.DailyMetric
	for rows.Next() {
		var m types.DailyMetric
		if err := rows.Scan(
			&m.MetricDate,
			&m.TotalTransactions,
			&m.TotalRevenue,
			&m.AvgTransactionValue,
			&m.TotalQuantity,
			&m.UniqueCustomers,
			&m.CalculatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan daily metric row", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating daily metric rows", err)
	}
	return metrics, nil
}

// RecentQualityLogs returns the latest quality log entries, newest first.
func (r *ReportingRepo) RecentQualityLogs(ctx context.Context, limit int) ([]types.QualityLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, file_name, total_records, valid_records, invalid_records,
		       COALESCE(error_types, ''), processed_at
		FROM data_quality_log
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query quality log", err)
	}
	defer rows.Close()

	var entries []types.QualityLogEntry
	for rows.Next() {
		var e types.QualityLogEntry
		var codes string
		if err := rows.Scan(
			&e.ID,
			&e.FileName,
			&e.TotalRecords,
			&e.ValidRecords,
			&e.InvalidRecords,
			&codes,
			&e.ProcessedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan quality log row", err)
		}
		e.ViolationCodes = splitCodes(codes)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating quality log rows", err)
	}
	return entries, nil
}

// Summary is the dashboard roll-up across all tracked dates.
type Summary struct {
	TotalRevenue      decimal.Decimal
	TotalTransactions int64
	DaysTracked       int64
	LastCalculatedAt  *time.Time
}

// Summary aggregates daily_metrics into the headline numbers shown on the
// dashboard landing view.
func (r *ReportingRepo) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_revenue), 0),
		       COALESCE(SUM(total_transactions), 0),
		       COUNT(*),
		       MAX(calculated_at)
		FROM daily_metrics`).Scan(
		&s.TotalRevenue,
		&s.TotalTransactions,
		&s.DaysTracked,
		&s.LastCalculatedAt,
	)
	if err != nil {
		return Summary{}, types.NewAppError(types.ErrCodeInternalDB, "failed to query summary", err)
	}
	return s, nil
}

// splitCodes parses the comma-joined error_types column back into codes.
func splitCodes(s string) []types.ViolationCode {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	codes := make([]types.ViolationCode, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, types.ViolationCode(p))
		}
	}
	return codes
}
