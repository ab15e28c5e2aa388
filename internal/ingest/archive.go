package ingest

import (
	"bytes"
	"encoding/csv"
	"path"
	"strconv"
	"strings"

	"salespipe/internal/types"
)

// processedHeader is the column order of the archived, cleaned batch. It
// extends the input header with the derived total_amount.
var processedHeader = []string{
	"transaction_id", "transaction_date", "customer_id", "product",
	"quantity", "price", "total_amount", "region", "payment_method",
}

// ArchiveSettings derives the archive location from the input location.
type ArchiveSettings struct {
	// RawMarker in the input bucket name is replaced with ProcessedMarker
	// to address the sibling archive bucket.
	RawMarker       string
	ProcessedMarker string
	// Suffix is appended to the object name before its extension.
	Suffix string
}

// DeriveArchiveLocation maps an input bucket/key to the archive
// bucket/key: "sales-raw-data"/"batch.csv" becomes
// "sales-processed-data"/"batch_processed.csv". A ".gz" suffix on the key
// is dropped since the archive is written uncompressed.
func DeriveArchiveLocation(bucket, key string, s ArchiveSettings) (string, string) {
	outBucket := strings.ReplaceAll(bucket, s.RawMarker, s.ProcessedMarker)

	base := strings.TrimSuffix(key, ".gz")
	ext := path.Ext(base)
	if ext == "" {
		ext = ".csv"
	}
	outKey := strings.TrimSuffix(base, ext) + s.Suffix + ext
	return outBucket, outKey
}

// RenderProcessedCSV serializes the normalized valid transactions with a
// header row, in input order.
func RenderProcessedCSV(txs []types.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(processedHeader); err != nil {
		return nil, err
	}
	for _, t := range txs {
		row := []string{
			t.TransactionID,
			t.TransactionDate.Format(types.DateFormat),
			t.CustomerID,
			t.Product,
			strconv.FormatInt(t.Quantity, 10),
			t.UnitPrice.String(),
			t.TotalAmount.StringFixed(2),
			t.Region,
			t.PaymentMethod,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
