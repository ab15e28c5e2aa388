package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salespipe/internal/types"
)

var testArchiveSettings = ArchiveSettings{
	RawMarker:       "raw",
	ProcessedMarker: "processed",
	Suffix:          "_processed",
}

func TestDeriveArchiveLocation(t *testing.T) {
	cases := []struct {
		bucket, key         string
		wantBucket, wantKey string
	}{
		{"sales-raw-data", "sales_batch.csv", "sales-processed-data", "sales_batch_processed.csv"},
		{"sales-raw-data", "incoming/2024/batch.csv", "sales-processed-data", "incoming/2024/batch_processed.csv"},
		{"sales-raw-data", "batch.csv.gz", "sales-processed-data", "batch_processed.csv"},
		{"sales-raw-data", "batch", "sales-processed-data", "batch_processed.csv"},
		{"acme-sales", "batch.csv", "acme-sales", "batch_processed.csv"},
	}
	for _, tc := range cases {
		gotBucket, gotKey := DeriveArchiveLocation(tc.bucket, tc.key, testArchiveSettings)
		if gotBucket != tc.wantBucket || gotKey != tc.wantKey {
			t.Errorf("DeriveArchiveLocation(%q, %q) = (%q, %q), want (%q, %q)",
				tc.bucket, tc.key, gotBucket, gotKey, tc.wantBucket, tc.wantKey)
		}
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestRenderProcessedCSV(t *testing.T) {
	txs := []types.Transaction{
		{
			TransactionID:   "tx-1",
			TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			CustomerID:      "CUST1001",
			Product:         "Laptop",
			Quantity:        2,
			UnitPrice:       mustDecimal(t, "999.99"),
			TotalAmount:     mustDecimal(t, "1999.98"),
			Region:          "East",
			PaymentMethod:   "Credit Card",
		},
		{
			TransactionID:   "tx-2",
			TransactionDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Product:         "Mouse",
			Quantity:        1,
			UnitPrice:       mustDecimal(t, "25.5"),
			TotalAmount:     mustDecimal(t, "25.5"),
		},
	}

	body, err := RenderProcessedCSV(txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), body)
	}
	wantHeader := "transaction_id,transaction_date,customer_id,product,quantity,price,total_amount,region,payment_method"
	if lines[0] != wantHeader {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "tx-1,2024-03-01,CUST1001,Laptop,2,999.99,1999.98,East,Credit Card" {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	// Money columns always render two decimal places for total_amount.
	if lines[2] != "tx-2,2024-03-02,,Mouse,1,25.5,25.50,," {
		t.Errorf("unexpected second row: %q", lines[2])
	}
}

func TestRenderProcessedCSV_RoundTripsThroughParser(t *testing.T) {
	txs := []types.Transaction{{
		TransactionID:   "tx-9",
		TransactionDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		CustomerID:      "CUST2000",
		Product:         "Desk, standing",
		Quantity:        1,
		UnitPrice:       mustDecimal(t, "449.00"),
		TotalAmount:     mustDecimal(t, "449.00"),
		Region:          "North",
		PaymentMethod:   "PayPal",
	}}

	body, err := RenderProcessedCSV(txs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := ParseBatch(body)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Product.Value != "Desk, standing" {
		t.Errorf("quoted product field mangled: %q", records[0].Product.Value)
	}
	if records[0].TransactionDate.Value != "2024-06-10" {
		t.Errorf("unexpected date text: %q", records[0].TransactionDate.Value)
	}
}
