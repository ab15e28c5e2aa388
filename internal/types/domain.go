// Package types defines the shared domain model for the sales ingest
// pipeline: normalized transactions, daily aggregate metrics, quality log
// entries and the violation codes produced by validation.
package types

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used across the pipeline for
// transaction dates and metric dates (input CSV, archive CSV, API output).
const DateFormat = "2006-01-02"

// Transaction is a normalized, validated sales transaction ready for
// persistence. Quantity and UnitPrice are the parsed numeric values;
// TotalAmount is always Quantity * UnitPrice rounded to 2 decimal places.
// TransactionID is the natural key: the store absorbs re-inserts of the
// same ID without modifying the existing row.
type Transaction struct {
	TransactionID   string
	TransactionDate time.Time // calendar date, UTC midnight
	CustomerID      string
	Product         string
	Quantity        int64
	UnitPrice       decimal.Decimal
	TotalAmount     decimal.Decimal
	Region          string // optional, empty when absent
	PaymentMethod   string // optional, empty when absent
}

// ComputeTotal returns quantity * unitPrice rounded half away from zero to
// 2 decimal places, the rounding applied to every persisted amount.
func ComputeTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(2)
}

// DailyMetric is one fully recomputed aggregate row per calendar date.
// Rows are always derived from the complete set of stored transactions for
// MetricDate, never incrementally patched, so reprocessing and late files
// converge on correct values.
type DailyMetric struct {
	MetricDate          time.Time
	TotalTransactions   int64
	TotalRevenue        decimal.Decimal
	AvgTransactionValue decimal.Decimal
	TotalQuantity       int64
	UniqueCustomers     int64
	CalculatedAt        time.Time
}

// QualityLogEntry is one append-only data-quality record per batch
// invocation. Re-running the same file appends a second entry; only
// transactional data is deduplicated.
type QualityLogEntry struct {
	ID             int64
	FileName       string
	TotalRecords   int
	ValidRecords   int
	InvalidRecords int
	ViolationCodes []ViolationCode
	ProcessedAt    time.Time
}

// QualityRate returns the percentage of records that passed validation,
// rounded to 2 decimal places. A zero-record batch has a rate of 0.
func QualityRate(valid, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(valid) / float64(total) * 100
	return math.Round(rate*100) / 100
}
