// Package qz converts between the integer minor unit used throughout the
// ledger ("halves", the smallest transactable unit of 0.5 QZ) and decimal QZ
// amounts used for display and request parsing. Amounts are never stored or
// computed as floating point.
package qz

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HalvesPerQZ is the number of minor units in one QZ.
const HalvesPerQZ = 2

var halvesPerQZ = decimal.NewFromInt(HalvesPerQZ)

// ToDecimal converts an amount in halves to a decimal QZ amount.
func ToDecimal(halves int64) decimal.Decimal {
	return decimal.NewFromInt(halves).Div(halvesPerQZ)
}

// FromDecimal converts a decimal QZ amount to halves. It fails if the amount
// is not a whole multiple of 0.5 QZ.
func FromDecimal(amount decimal.Decimal) (int64, error) {
	halves := amount.Mul(halvesPerQZ)
	if !halves.IsInteger() {
		return 0, fmt.Errorf("amount %s is not a multiple of 0.5 QZ", amount.String())
	}
	return halves.IntPart(), nil
}

// Format renders an amount in halves as a QZ string, e.g. 9 -> "4.5".
func Format(halves int64) string {
	return ToDecimal(halves).String()
}
