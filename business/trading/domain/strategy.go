package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StrategyConfig is the read-only strategy for an attempt. Only TradeSize,
// CollateralPercent and LegTimeout drive execution; the filter fields are
// carried for opportunity sources and future selection policies.
type StrategyConfig struct {
	Market             Underlying
	OptionTypes        []OptionType
	MaxCollateral      decimal.Decimal
	TradeSize          decimal.Decimal
	CollateralPercent  decimal.Decimal // 0-100
	IsBuyFirst         bool
	ProfitThreshold    decimal.Decimal
	MinAPY             decimal.Decimal
	SellLyraOnly       bool
	SpotStrikeDiff     decimal.Decimal
	MostProfitableOnly bool
	LegTimeout         time.Duration
}

var hundred = decimal.NewFromInt(100)

// Validate checks the fields execution depends on.
func (s StrategyConfig) Validate() error {
	if !s.TradeSize.IsPositive() {
		return fmt.Errorf("trade size must be positive, got %s", s.TradeSize)
	}
	if s.CollateralPercent.IsNegative() || s.CollateralPercent.GreaterThan(hundred) {
		return fmt.Errorf("collateral percent must be within [0,100], got %s", s.CollateralPercent)
	}
	if s.LegTimeout <= 0 {
		return fmt.Errorf("leg timeout must be positive")
	}
	return nil
}
