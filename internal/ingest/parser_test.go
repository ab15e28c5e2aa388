package ingest

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const sampleBatch = `transaction_id,transaction_date,customer_id,product,quantity,price,region,payment_method
tx-1,2024-03-01,CUST1001,Laptop,2,999.99,East,Credit Card
tx-2,2024-03-01,CUST1002,Mouse,1,25.50,West,PayPal
`

func TestParseBatch_OrderedRecords(t *testing.T) {
	records, err := ParseBatch([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.TransactionID.Value != "tx-1" || !first.TransactionID.Present {
		t.Errorf("unexpected transaction_id field: %+v", first.TransactionID)
	}
	if first.Product.Value != "Laptop" {
		t.Errorf("expected product Laptop, got %q", first.Product.Value)
	}
	if first.Price.Value != "999.99" {
		t.Errorf("expected raw price text preserved, got %q", first.Price.Value)
	}
	if records[1].TransactionID.Value != "tx-2" {
		t.Errorf("record order not preserved: %+v", records[1].TransactionID)
	}
}

func TestParseBatch_ShortRowHasAbsentFields(t *testing.T) {
	content := "transaction_id,transaction_date,customer_id,product,quantity,price,region,payment_method\n" +
		"tx-1,2024-03-01\n"

	records, err := ParseBatch([]byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if !r.TransactionID.Present || !r.TransactionDate.Present {
		t.Errorf("expected first two fields present, got %+v", r)
	}
	if r.Product.Present || r.Quantity.Present || r.Price.Present {
		t.Errorf("expected trailing fields absent, got %+v", r)
	}
}

func TestParseBatch_MissingColumnAbsentEverywhere(t *testing.T) {
	content := "transaction_id,product,quantity,price\n" +
		"tx-1,Laptop,2,10.00\n"

	records, err := ParseBatch([]byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].TransactionDate.Present {
		t.Error("expected transaction_date absent when column missing from header")
	}
	if records[0].Region.Present || records[0].PaymentMethod.Present {
		t.Error("expected optional columns absent when missing from header")
	}
}

func TestParseBatch_EmptyContent(t *testing.T) {
	records, err := ParseBatch(nil)
	if err != nil {
		t.Fatalf("unexpected error for empty content: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
}

func TestParseBatch_HeaderOnly(t *testing.T) {
	records, err := ParseBatch([]byte("transaction_id,product,quantity,price\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records for header-only batch, got %d", len(records))
	}
}

func TestParseBatch_EmptyRowCountsAgainstBatch(t *testing.T) {
	// A blank line inside the file is skipped by the CSV reader, but a row
	// of empty cells must surface as a record with empty present fields.
	content := "transaction_id,product,quantity,price\n" +
		",,,\n"

	records, err := ParseBatch([]byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].Product.Present || records[0].Product.Value != "" {
		t.Errorf("expected present-but-empty product, got %+v", records[0].Product)
	}
}

func TestDecodeBody_PassthroughForPlainKey(t *testing.T) {
	body := []byte(sampleBatch)
	out, err := DecodeBody("incoming/batch.csv", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, body) {
		t.Error("plain content modified by DecodeBody")
	}
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBody_Gunzip(t *testing.T) {
	out, err := DecodeBody("incoming/batch.csv.gz", gzipBytes(t, sampleBatch))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != sampleBatch {
		t.Error("gunzipped content does not match original")
	}
}

func TestDecodeBody_CorruptGzip(t *testing.T) {
	if _, err := DecodeBody("batch.csv.gz", []byte("not gzip")); err == nil {
		t.Fatal("expected error for corrupt gzip content")
	}
}
