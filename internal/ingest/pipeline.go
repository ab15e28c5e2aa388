package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"salespipe/internal/types"
)

// alertSubject is the SNS subject line for data-quality alerts.
const alertSubject = "Sales ETL Data Quality Alert"

// BatchWriter is the transaction-scoped store capability the pipeline
// needs: the valid-rows insert, the daily-metric recomputation and the
// quality-log append.
type BatchWriter interface {
	InsertTransactions(ctx context.Context, txs []types.Transaction) (int64, error)
	UpsertDailyMetrics(ctx context.Context, dates []time.Time) error
	AppendQualityLog(ctx context.Context, entry types.QualityLogEntry) error
}

// Store runs a batch unit of work in a single store transaction. All three
// writes commit together or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(BatchWriter) error) error
}

// ObjectStore abstracts batch input reads and archive writes.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// MetricsSink publishes the per-batch counters. Best-effort: the pipeline
// logs a returned error and continues.
type MetricsSink interface {
	Publish(ctx context.Context, validCount, invalidCount int, qualityRate float64) error
}

// AlertChannel delivers a data-quality alert. Best-effort, and a no-op
// when no destination is configured.
type AlertChannel interface {
	Enabled() bool
	Send(ctx context.Context, subject, message string) error
}

// Settings holds the pipeline tunables.
type Settings struct {
	// QualityAlertThreshold is the quality-rate percentage below which an
	// alert fires (strictly less than).
	QualityAlertThreshold float64
	Archive               ArchiveSettings
}

// Result is the success payload of one batch invocation.
type Result struct {
	File    string `json:"file"`
	Total   int    `json:"total"`
	Valid   int    `json:"valid"`
	Invalid int    `json:"invalid"`
}

// Pipeline orchestrates one batch invocation. All collaborators are
// injected at construction behind narrow interfaces; the pipeline itself
// holds no connection state and is safe to reuse across invocations.
type Pipeline struct {
	Settings Settings
	Log      *slog.Logger
	Store    Store
	Objects  ObjectStore
	Metrics  MetricsSink
	Alerts   AlertChannel
}

// Process runs the full ingest sequence for the object at bucket/key:
// parse, validate, persist, aggregate, quality-log, archive, notify.
//
// Store and input failures are fatal and returned; archive, metrics and
// alert failures are logged and never abort the batch. Re-running the same
// object is safe: the insert is idempotent on transaction_id, the metric
// upsert recomputes, and only the append-only quality log grows.
func (p *Pipeline) Process(ctx context.Context, bucket, key string) (Result, error) {
	batchID := uuid.New().String()
	log := p.Log.With("batch_id", batchID, "bucket", bucket, "key", key)

	log.InfoContext(ctx, "batch processing started")

	body, err := p.Objects.Get(ctx, bucket, key)
	if err != nil {
		return Result{}, err
	}
	content, err := DecodeBody(key, body)
	if err != nil {
		return Result{}, fmt.Errorf("decoding batch content: %w", err)
	}

	records, err := ParseBatch(content)
	if err != nil {
		return Result{}, fmt.Errorf("parsing batch content: %w", err)
	}

	var valid []types.Transaction
	violations := types.NewViolationSet()
	for _, r := range records {
		outcome := Validate(r)
		if outcome.Valid() {
			valid = append(valid, *outcome.Transaction)
			continue
		}
		violations.Add(outcome.Violations...)
	}

	total := len(records)
	invalidCount := total - len(valid)
	entry := types.QualityLogEntry{
		FileName:       key,
		TotalRecords:   total,
		ValidRecords:   len(valid),
		InvalidRecords: invalidCount,
		ViolationCodes: violations.Codes(),
	}

	var inserted int64
	err = p.Store.InTx(ctx, func(w BatchWriter) error {
		n, err := w.InsertTransactions(ctx, valid)
		if err != nil {
			return err
		}
		inserted = n

		if err := w.UpsertDailyMetrics(ctx, batchDates(valid)); err != nil {
			return err
		}
		return w.AppendQualityLog(ctx, entry)
	})
	if err != nil {
		return Result{}, err
	}

	log.InfoContext(ctx, "batch persisted",
		"total", total,
		"valid", len(valid),
		"invalid", invalidCount,
		"inserted", inserted,
	)

	if len(valid) > 0 {
		p.archive(ctx, log, bucket, key, valid)
	}

	rate := types.QualityRate(len(valid), total)
	if err := p.Metrics.Publish(ctx, len(valid), invalidCount, rate); err != nil {
		log.WarnContext(ctx, "failed to publish batch metrics", "error", err)
	}

	if rate < p.Settings.QualityAlertThreshold {
		p.alert(ctx, log, entry, rate)
	}

	log.InfoContext(ctx, "batch processing complete", "quality_rate", rate)

	return Result{File: key, Total: total, Valid: len(valid), Invalid: invalidCount}, nil
}

// archive writes the cleaned valid subset to the derived location. The
// transactional store is the source of truth; a failed archive write is
// logged and ignored.
func (p *Pipeline) archive(ctx context.Context, log *slog.Logger, bucket, key string, valid []types.Transaction) {
	outBucket, outKey := DeriveArchiveLocation(bucket, key, p.Settings.Archive)

	body, err := RenderProcessedCSV(valid)
	if err != nil {
		log.WarnContext(ctx, "failed to render processed batch", "error", err)
		return
	}
	if err := p.Objects.Put(ctx, outBucket, outKey, body, "text/csv"); err != nil {
		log.WarnContext(ctx, "failed to upload processed batch",
			"error", err,
			"archive_bucket", outBucket,
			"archive_key", outKey,
		)
		return
	}
	log.InfoContext(ctx, "processed batch archived",
		"archive_bucket", outBucket,
		"archive_key", outKey,
	)
}

// alert sends the data-quality alert. Failure to deliver is logged and
// ignored.
func (p *Pipeline) alert(ctx context.Context, log *slog.Logger, entry types.QualityLogEntry, rate float64) {
	if !p.Alerts.Enabled() {
		log.InfoContext(ctx, "quality below threshold but no alert channel configured",
			"quality_rate", rate,
		)
		return
	}

	message := fmt.Sprintf(
		"File: %s\nTotal: %d\nValid: %d\nInvalid: %d\nQuality: %.2f%%\nErrors: %v",
		entry.FileName, entry.TotalRecords, entry.ValidRecords,
		entry.InvalidRecords, rate, entry.ViolationCodes,
	)
	if err := p.Alerts.Send(ctx, alertSubject, message); err != nil {
		log.WarnContext(ctx, "failed to send quality alert", "error", err)
		return
	}
	log.InfoContext(ctx, "quality alert sent", "quality_rate", rate)
}

// batchDates returns the distinct calendar dates of the batch in ascending
// order, scoping the aggregate recomputation to the dates this batch
// touched.
func batchDates(txs []types.Transaction) []time.Time {
	seen := make(map[time.Time]struct{}, len(txs))
	for _, t := range txs {
		seen[t.TransactionDate] = struct{}{}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
