package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salespipe/internal/types"
)

// noValuePlaceholder is the literal some upstream exporters write for "no
// value" in the product column.
const noValuePlaceholder = "None"

// Outcome is the result of validating one RawRecord. Exactly one variant
// holds: a valid record carries the normalized Transaction and no
// violations; an invalid record carries the original RawRecord and a
// non-empty violation set.
type Outcome struct {
	Transaction *types.Transaction
	Raw         RawRecord
	Violations  []types.ViolationCode
}

// Valid reports whether the record passed every rule.
func (o Outcome) Valid() bool {
	return len(o.Violations) == 0
}

// Validate classifies one RawRecord against the full rule set. Every rule
// is evaluated (no short-circuiting) so an invalid record carries every
// applicable violation code:
//
//   - missing_product: product absent, empty, or the "None" placeholder.
//   - quantity_not_int / invalid_quantity: quantity must parse as an
//     integer; a quantity that parses but is <= 0 (including an absent
//     quantity, which defaults to 0) is invalid_quantity instead.
//   - price_not_float / invalid_price: price must parse as a decimal; a
//     price that parses but is <= 0 is invalid_price instead.
//   - invalid_date: transaction_date absent or not YYYY-MM-DD. A malformed
//     date is a row-level failure, not a batch abort, because daily
//     aggregation is scoped to the parsed dates of the batch.
func Validate(r RawRecord) Outcome {
	var violations []types.ViolationCode

	if !r.Product.Present || r.Product.Value == "" || r.Product.Value == noValuePlaceholder {
		violations = append(violations, types.ViolationMissingProduct)
	}

	quantity, vc := parseQuantity(r.Quantity)
	if vc != "" {
		violations = append(violations, vc)
	}

	price, vc := parsePrice(r.Price)
	if vc != "" {
		violations = append(violations, vc)
	}

	date, err := parseDate(r.TransactionDate)
	if err != nil {
		violations = append(violations, types.ViolationInvalidDate)
	}

	if len(violations) > 0 {
		return Outcome{Raw: r, Violations: violations}
	}

	tx := &types.Transaction{
		TransactionID:   r.TransactionID.Value,
		TransactionDate: date,
		CustomerID:      r.CustomerID.Value,
		Product:         r.Product.Value,
		Quantity:        quantity,
		UnitPrice:       price,
		TotalAmount:     types.ComputeTotal(quantity, price),
		Region:          r.Region.Value,
		PaymentMethod:   r.PaymentMethod.Value,
	}
	return Outcome{Transaction: tx, Raw: r}
}

// parseQuantity returns the parsed quantity and a violation code, or ""
// when the quantity is acceptable. An absent field defaults to 0, which
// fails the positivity check rather than the parse.
func parseQuantity(f Field) (int64, types.ViolationCode) {
	if !f.Present {
		return 0, types.ViolationInvalidQuantity
	}
	q, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64)
	if err != nil {
		return 0, types.ViolationQuantityNotInt
	}
	if q <= 0 {
		return 0, types.ViolationInvalidQuantity
	}
	return q, ""
}

// parsePrice returns the parsed unit price and a violation code, or ""
// when the price is acceptable.
func parsePrice(f Field) (decimal.Decimal, types.ViolationCode) {
	if !f.Present {
		return decimal.Zero, types.ViolationPriceNotFloat
	}
	p, err := decimal.NewFromString(strings.TrimSpace(f.Value))
	if err != nil {
		return decimal.Zero, types.ViolationPriceNotFloat
	}
	if p.Sign() <= 0 {
		return decimal.Zero, types.ViolationInvalidPrice
	}
	return p, ""
}

func parseDate(f Field) (time.Time, error) {
	if !f.Present {
		return time.Time{}, errDateAbsent
	}
	return time.ParseInLocation(types.DateFormat, strings.TrimSpace(f.Value), time.UTC)
}

var errDateAbsent = &time.ParseError{Layout: types.DateFormat, Message: ": field absent"}
