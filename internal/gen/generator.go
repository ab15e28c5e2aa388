// Package gen produces synthetic sales batches for exercising the ingest
// pipeline: mostly clean rows with a configurable share of seeded defects
// covering every violation code, plus optional duplicate transaction IDs
// to exercise the idempotent writer.
package gen

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var (
	products = []string{
		"Laptop", "Phone", "Tablet", "Headphones", "Monitor",
		"Keyboard", "Mouse", "Webcam", "Speaker", "Charger",
	}
	regions        = []string{"East", "West", "North", "South", "Central"}
	paymentMethods = []string{"Credit Card", "Debit Card", "PayPal", "Cash"}
)

var header = []string{
	"transaction_id", "transaction_date", "customer_id", "product",
	"quantity", "price", "region", "payment_method",
}

// Options controls batch generation.
type Options struct {
	// Records is the number of rows to generate.
	Records int
	// DefectRate is the fraction of rows seeded with a data-quality
	// defect, in [0, 1].
	DefectRate float64
	// DuplicateRate is the fraction of rows that reuse a previously
	// generated transaction ID, in [0, 1).
	DuplicateRate float64
	// StartDate is the first day of the date window; rows get a random
	// date within DateSpreadDays of it.
	StartDate      time.Time
	DateSpreadDays int
	// Seed makes generation reproducible. Zero seeds from the clock.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.Records <= 0 {
		o.Records = 10000
	}
	if o.DateSpreadDays <= 0 {
		o.DateSpreadDays = 300
	}
	if o.StartDate.IsZero() {
		o.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// defect kinds cycled through when seeding bad rows. Each one maps to at
// least one violation code in the validator.
const defectKinds = 6

// Generate returns a CSV batch per the options, with header row.
func Generate(opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	var issued []string
	defects := 0
	for i := 0; i < opts.Records; i++ {
		id := uuid.New().String()
		if opts.DuplicateRate > 0 && len(issued) > 0 && rng.Float64() < opts.DuplicateRate {
			id = issued[rng.Intn(len(issued))]
		}
		issued = append(issued, id)

		row := cleanRow(rng, id, opts)
		if rng.Float64() < opts.DefectRate {
			corrupt(rng, row, defects)
			defects++
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func cleanRow(rng *rand.Rand, id string, opts Options) []string {
	date := opts.StartDate.AddDate(0, 0, rng.Intn(opts.DateSpreadDays))
	price := 10 + rng.Float64()*1990
	return []string{
		id,
		date.Format("2006-01-02"),
		fmt.Sprintf("CUST%04d", 1000+rng.Intn(9000)),
		products[rng.Intn(len(products))],
		fmt.Sprintf("%d", 1+rng.Intn(10)),
		fmt.Sprintf("%.2f", price),
		regions[rng.Intn(len(regions))],
		paymentMethods[rng.Intn(len(paymentMethods))],
	}
}

// corrupt mutates one clean row into a defective one. The defect kind
// rotates so a generated batch covers the whole violation surface.
func corrupt(rng *rand.Rand, row []string, n int) {
	switch n % defectKinds {
	case 0: // missing product
		row[3] = ""
	case 1: // "no value" placeholder product
		row[3] = "None"
	case 2: // non-positive quantity
		row[4] = fmt.Sprintf("%d", -rng.Intn(5))
	case 3: // unparseable quantity
		row[4] = "many"
	case 4: // unparseable price
		row[5] = "invalid"
	case 5: // malformed date
		row[1] = "11/10/2024"
	}
}
