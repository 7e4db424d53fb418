package domain

import "github.com/shopspring/decimal"

// ComputeCollateral returns the collateral to post for a leg. Buying an
// option needs none. A short put is collateralised in quote currency on the
// strike notional; a short call in base currency on the size. percent is on
// a 0-100 scale.
func ComputeCollateral(arb Arb, size, percent decimal.Decimal, isBuy bool) decimal.Decimal {
	if isBuy {
		return decimal.Zero
	}
	if arb.Type == Put {
		return arb.Strike.Mul(size).Div(hundred).Mul(percent)
	}
	return size.Div(hundred).Mul(percent)
}
