package ingest

import (
	"testing"
	"time"

	"salespipe/internal/types"
)

func present(v string) Field {
	return Field{Value: v, Present: true}
}

func cleanRecord() RawRecord {
	return RawRecord{
		TransactionID:   present("tx-100"),
		TransactionDate: present("2024-03-15"),
		CustomerID:      present("CUST1234"),
		Product:         present("Laptop"),
		Quantity:        present("3"),
		Price:           present("19.99"),
		Region:          present("East"),
		PaymentMethod:   present("Credit Card"),
	}
}

func assertViolations(t *testing.T, o Outcome, want ...types.ViolationCode) {
	t.Helper()
	if o.Valid() {
		t.Fatalf("expected invalid outcome, got valid: %+v", o.Transaction)
	}
	if o.Transaction != nil {
		t.Error("invalid outcome must not carry a transaction")
	}
	if len(o.Violations) != len(want) {
		t.Fatalf("expected violations %v, got %v", want, o.Violations)
	}
	got := make(map[types.ViolationCode]bool, len(o.Violations))
	for _, c := range o.Violations {
		got[c] = true
	}
	for _, c := range want {
		if !got[c] {
			t.Errorf("missing violation %q in %v", c, o.Violations)
		}
	}
}

func TestValidate_CleanRecord(t *testing.T) {
	o := Validate(cleanRecord())
	if !o.Valid() {
		t.Fatalf("expected valid outcome, got violations %v", o.Violations)
	}

	tx := o.Transaction
	if tx == nil {
		t.Fatal("valid outcome must carry a transaction")
	}
	if tx.TransactionID != "tx-100" || tx.CustomerID != "CUST1234" || tx.Product != "Laptop" {
		t.Errorf("unexpected identity fields: %+v", tx)
	}
	if tx.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", tx.Quantity)
	}
	if tx.UnitPrice.String() != "19.99" {
		t.Errorf("expected unit price 19.99, got %s", tx.UnitPrice)
	}
	// 3 * 19.99 = 59.97
	if tx.TotalAmount.StringFixed(2) != "59.97" {
		t.Errorf("expected total 59.97, got %s", tx.TotalAmount)
	}
	wantDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !tx.TransactionDate.Equal(wantDate) {
		t.Errorf("expected date %v, got %v", wantDate, tx.TransactionDate)
	}
	if tx.Region != "East" || tx.PaymentMethod != "Credit Card" {
		t.Errorf("unexpected optional fields: %+v", tx)
	}
}

func TestValidate_TotalAmountInvariant(t *testing.T) {
	r := cleanRecord()
	r.Quantity = present("7")
	r.Price = present("1.006")

	o := Validate(r)
	if !o.Valid() {
		t.Fatalf("expected valid, got %v", o.Violations)
	}
	// 7 * 1.006 = 7.042 -> 7.04
	if o.Transaction.TotalAmount.StringFixed(2) != "7.04" {
		t.Errorf("expected total 7.04, got %s", o.Transaction.TotalAmount)
	}
}

func TestValidate_MissingProduct(t *testing.T) {
	for name, f := range map[string]Field{
		"empty":       present(""),
		"placeholder": present("None"),
		"absent":      {},
	} {
		t.Run(name, func(t *testing.T) {
			r := cleanRecord()
			r.Product = f
			assertViolations(t, Validate(r), types.ViolationMissingProduct)
		})
	}
}

func TestValidate_NegativeQuantityIsInvalidNotUnparseable(t *testing.T) {
	r := cleanRecord()
	r.Quantity = present("-1")
	assertViolations(t, Validate(r), types.ViolationInvalidQuantity)
}

func TestValidate_ZeroQuantity(t *testing.T) {
	r := cleanRecord()
	r.Quantity = present("0")
	assertViolations(t, Validate(r), types.ViolationInvalidQuantity)
}

func TestValidate_AbsentQuantityDefaultsToZero(t *testing.T) {
	r := cleanRecord()
	r.Quantity = Field{}
	assertViolations(t, Validate(r), types.ViolationInvalidQuantity)
}

func TestValidate_UnparseableQuantity(t *testing.T) {
	for _, v := range []string{"abc", "2.5", ""} {
		r := cleanRecord()
		r.Quantity = present(v)
		assertViolations(t, Validate(r), types.ViolationQuantityNotInt)
	}
}

func TestValidate_UnparseablePrice(t *testing.T) {
	r := cleanRecord()
	r.Price = present("invalid")
	assertViolations(t, Validate(r), types.ViolationPriceNotFloat)

	r.Price = Field{}
	assertViolations(t, Validate(r), types.ViolationPriceNotFloat)
}

func TestValidate_NonPositivePrice(t *testing.T) {
	for _, v := range []string{"-5.50", "0", "0.00"} {
		r := cleanRecord()
		r.Price = present(v)
		assertViolations(t, Validate(r), types.ViolationInvalidPrice)
	}
}

func TestValidate_MalformedDate(t *testing.T) {
	for _, v := range []string{"11/10/2024", "2024-13-01", "yesterday", ""} {
		r := cleanRecord()
		r.TransactionDate = present(v)
		assertViolations(t, Validate(r), types.ViolationInvalidDate)
	}

	r := cleanRecord()
	r.TransactionDate = Field{}
	assertViolations(t, Validate(r), types.ViolationInvalidDate)
}

func TestValidate_AllRulesEvaluated(t *testing.T) {
	// No short-circuiting: a record failing every rule carries every code.
	o := Validate(RawRecord{})
	assertViolations(t, o,
		types.ViolationMissingProduct,
		types.ViolationInvalidQuantity,
		types.ViolationPriceNotFloat,
		types.ViolationInvalidDate,
	)
}

func TestValidate_InvalidOutcomePreservesRawRecord(t *testing.T) {
	r := cleanRecord()
	r.Price = present("invalid")

	o := Validate(r)
	if o.Raw.Price.Value != "invalid" {
		t.Errorf("raw record not preserved: %+v", o.Raw)
	}
	if o.Raw.TransactionID.Value != "tx-100" {
		t.Errorf("raw record identity lost: %+v", o.Raw)
	}
}

func TestValidate_OptionalFieldsMayBeAbsent(t *testing.T) {
	r := cleanRecord()
	r.Region = Field{}
	r.PaymentMethod = Field{}

	o := Validate(r)
	if !o.Valid() {
		t.Fatalf("optional fields must not cause violations, got %v", o.Violations)
	}
	if o.Transaction.Region != "" || o.Transaction.PaymentMethod != "" {
		t.Errorf("expected empty optional fields, got %+v", o.Transaction)
	}
}

func TestValidate_WhitespaceNumericFields(t *testing.T) {
	r := cleanRecord()
	r.Quantity = present(" 4 ")
	r.Price = present(" 2.50 ")

	o := Validate(r)
	if !o.Valid() {
		t.Fatalf("expected whitespace-padded numerics to parse, got %v", o.Violations)
	}
	if o.Transaction.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", o.Transaction.Quantity)
	}
	if o.Transaction.TotalAmount.StringFixed(2) != "10.00" {
		t.Errorf("expected total 10.00, got %s", o.Transaction.TotalAmount)
	}
}
