package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"salespipe/internal/types"
)

// SalesRepo provides write access to the three pipeline tables:
// sales_transactions_clean, daily_metrics and data_quality_log. It is
// normally used through SalesStore.InTx so the whole batch commits
// atomically.
type SalesRepo struct {
	db DBTX
}

// NewSalesRepo creates a SalesRepo backed by the given database connection
// (pool or transaction).
func NewSalesRepo(db DBTX) *SalesRepo {
	return &SalesRepo{db: db}
}

const insertTransactionSQL = `
	INSERT INTO sales_transactions_clean
	    (transaction_id, transaction_date, customer_id, product,
	     quantity, price, total_amount, region, payment_method)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (transaction_id) DO NOTHING`

// InsertTransactions persists the batch of normalized transactions.
// Conflicts on transaction_id leave the existing row untouched: the
// uniqueness invariant is enforced by the store itself, not by pre-query,
// so concurrent writers resolve to first-writer-wins. Returns the number
// of rows actually inserted (re-submitted rows count zero).
func (r *SalesRepo) InsertTransactions(ctx context.Context, txs []types.Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(insertTransactionSQL,
			t.TransactionID,
			t.TransactionDate,
			t.CustomerID,
			t.Product,
			t.Quantity,
			t.UnitPrice,
			t.TotalAmount,
			nullIfEmpty(t.Region),
			nullIfEmpty(t.PaymentMethod),
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range txs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, types.NewAppError(types.ErrCodeInternalDB, "failed to insert transaction batch", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

const upsertDailyMetricsSQL = `
	INSERT INTO daily_metrics
	    (metric_date, total_transactions, total_revenue,
	     avg_transaction_value, total_quantity, unique_customers, calculated_at)
	SELECT transaction_date,
	       COUNT(*),
	       SUM(total_amount),
	       AVG(total_amount),
	       SUM(quantity),
	       COUNT(DISTINCT customer_id),
	       CURRENT_TIMESTAMP
	FROM sales_transactions_clean
	WHERE transaction_date = ANY($1::date[])
	GROUP BY transaction_date
	ON CONFLICT (metric_date)
	DO UPDATE SET
	    total_transactions    = EXCLUDED.total_transactions,
	    total_revenue         = EXCLUDED.total_revenue,
	    avg_transaction_value = EXCLUDED.avg_transaction_value,
	    total_quantity        = EXCLUDED.total_quantity,
	    unique_customers      = EXCLUDED.unique_customers,
	    calculated_at         = CURRENT_TIMESTAMP`

// UpsertDailyMetrics recomputes the aggregate row for every given calendar
// date from all stored transactions for that date, including rows from
// prior batches, and overwrites any existing row. Full recomputation (not
// incremental accumulation) keeps the metrics correct under reprocessing
// and late-arriving files. Dates outside the given set are untouched.
func (r *SalesRepo) UpsertDailyMetrics(ctx context.Context, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}

	params := make([]string, len(dates))
	for i, d := range dates {
		params[i] = d.Format(types.DateFormat)
	}

	if _, err := r.db.Exec(ctx, upsertDailyMetricsSQL, params); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert daily metrics", err)
	}
	return nil
}

const appendQualityLogSQL = `
	INSERT INTO data_quality_log
	    (file_name, total_records, valid_records, invalid_records, error_types)
	VALUES ($1, $2, $3, $4, $5)`

// AppendQualityLog appends exactly one quality entry for the batch.
// Entries are write-once history: re-running the same file appends a
// second, distinct entry. Violation codes are stored comma-joined.
func (r *SalesRepo) AppendQualityLog(ctx context.Context, entry types.QualityLogEntry) error {
	codes := make([]string, len(entry.ViolationCodes))
	for i, c := range entry.ViolationCodes {
		codes[i] = string(c)
	}

	_, err := r.db.Exec(ctx, appendQualityLogSQL,
		entry.FileName,
		entry.TotalRecords,
		entry.ValidRecords,
		entry.InvalidRecords,
		strings.Join(codes, ","),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to append quality log entry", err)
	}
	return nil
}

// nullIfEmpty maps the empty string to SQL NULL for optional columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
