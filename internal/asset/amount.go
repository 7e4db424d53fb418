package asset

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits scales d to an integer of decimals places, truncating any
// extra precision. Negative amounts are rejected.
func ToBaseUnits(d decimal.Decimal, decimals uint8) (*big.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("asset: negative amount %s", d)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FromBaseUnits is the inverse of ToBaseUnits. A nil raw is zero.
func FromBaseUnits(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// Wei converts an 18-decimal amount into base units.
func Wei(d decimal.Decimal) (*big.Int, error) {
	return ToBaseUnits(d, 18)
}

// FromWei converts 18-decimal base units into an amount.
func FromWei(raw *big.Int) decimal.Decimal {
	return FromBaseUnits(raw, 18)
}
