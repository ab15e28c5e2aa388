// Package ingest implements the sales batch pipeline: parse the raw CSV
// batch, classify records under the validation policy, persist valid rows
// idempotently, recompute daily aggregates, log batch quality, archive the
// cleaned output and notify the metrics/alert channels.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Field is a raw textual field from one input row. Present distinguishes a
// column that existed in the row (possibly empty) from one that was absent
// entirely, so validation can tell "missing" apart from "unparseable".
type Field struct {
	Value   string
	Present bool
}

// RawRecord is the fixed-shape mapping of the known batch columns for one
// input row, original text preserved. It exists only within a single
// invocation.
type RawRecord struct {
	TransactionID   Field
	TransactionDate Field
	CustomerID      Field
	Product         Field
	Quantity        Field
	Price           Field
	Region          Field
	PaymentMethod   Field
}

// Input column names expected in the batch header row.
const (
	colTransactionID   = "transaction_id"
	colTransactionDate = "transaction_date"
	colCustomerID      = "customer_id"
	colProduct         = "product"
	colQuantity        = "quantity"
	colPrice           = "price"
	colRegion          = "region"
	colPaymentMethod   = "payment_method"
)

// ParseBatch turns raw batch content into an ordered sequence of
// RawRecords, one per non-header row. Column names come from the header;
// short or malformed rows are passed through with absent fields rather
// than rejected, deferring failure to validation. Content with a trailing
// ".gz" key is gunzipped first via DecodeBody.
func ParseBatch(content []byte) ([]RawRecord, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// Empty object: an empty batch, not a parse failure.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var records []RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A row the CSV reader cannot interpret still counts against
			// the batch: all fields absent routes it to the invalid set.
			records = append(records, RawRecord{})
			continue
		}
		records = append(records, recordFromRow(index, row))
	}
	return records, nil
}

// DecodeBody returns the uncompressed batch content. Objects with a .gz
// key suffix are gunzipped; everything else passes through unchanged.
func DecodeBody(key string, body []byte) ([]byte, error) {
	if !strings.HasSuffix(key, ".gz") {
		return body, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

func recordFromRow(index map[string]int, row []string) RawRecord {
	get := func(col string) Field {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return Field{}
		}
		return Field{Value: row[i], Present: true}
	}
	return RawRecord{
		TransactionID:   get(colTransactionID),
		TransactionDate: get(colTransactionDate),
		CustomerID:      get(colCustomerID),
		Product:         get(colProduct),
		Quantity:        get(colQuantity),
		Price:           get(colPrice),
		Region:          get(colRegion),
		PaymentMethod:   get(colPaymentMethod),
	}
}
