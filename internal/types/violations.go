package types

import "sort"

// ViolationCode identifies a single validation rule failure on an input row.
type ViolationCode string

// Violation codes emitted by the record validator. Parse failures and
// range failures are distinct codes: a quantity that parses but is <= 0 is
// invalid_quantity, not quantity_not_int (same for price).
const (
	ViolationMissingProduct  ViolationCode = "missing_product"
	ViolationQuantityNotInt  ViolationCode = "quantity_not_int"
	ViolationInvalidQuantity ViolationCode = "invalid_quantity"
	ViolationPriceNotFloat   ViolationCode = "price_not_float"
	ViolationInvalidPrice    ViolationCode = "invalid_price"
	ViolationInvalidDate     ViolationCode = "invalid_date"
)

// ViolationSet accumulates the distinct violation codes observed across a
// batch. The quality log records aggregate-only granularity: repeated
// violations of the same kind across many rows collapse to one code.
type ViolationSet map[ViolationCode]struct{}

// NewViolationSet returns an empty set.
func NewViolationSet() ViolationSet {
	return make(ViolationSet)
}

// Add inserts the given codes into the set.
func (s ViolationSet) Add(codes ...ViolationCode) {
	for _, c := range codes {
		s[c] = struct{}{}
	}
}

// Codes returns the distinct codes in lexicographic order for deterministic
// persistence and alert messages.
func (s ViolationSet) Codes() []ViolationCode {
	if len(s) == 0 {
		return nil
	}
	out := make([]ViolationCode, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
