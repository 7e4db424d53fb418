package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument is one option quote on one venue.
type Instrument struct {
	Type       OptionType
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	Mid        decimal.Decimal
	Provider   Provider
	Strike     decimal.Decimal
	Expiration time.Time
	Term       string
	// ID is the venue identifier: an exchange instrument name such as
	// ETH-30DEC22-2000-C, or an on-chain strike id.
	ID string
}

// Arb pairs a cheap instrument to buy with a rich one to sell. Both legs
// share strike, expiry and option type.
type Arb struct {
	Buy        Instrument
	Sell       Instrument
	Strike     decimal.Decimal
	Term       string
	Expiration time.Time
	Amount     decimal.Decimal // expected profit per unit
	APY        decimal.Decimal
	Discount   decimal.Decimal
	Type       OptionType
}

// Legs returns the buy and sell instruments in execution order.
func (a Arb) Legs() [2]Instrument {
	return [2]Instrument{a.Buy, a.Sell}
}

// Label is a short human readable description used in logs and alerts.
func (a Arb) Label() string {
	return a.Term + " " + a.Strike.String() + " " + string(a.Type) +
		" " + string(a.Buy.Provider) + "->" + string(a.Sell.Provider)
}
