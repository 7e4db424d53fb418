package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/business/trading/domain"
)

// ConfiguredSizer trades the strategy's fixed size on every attempt.
var ConfiguredSizer = SizerFunc(func(_ domain.Arb, cfg domain.StrategyConfig) decimal.Decimal {
	return cfg.TradeSize
})

// CappedSizer trades the configured size unless the sell leg's collateral
// would exceed MaxCollateral, in which case the size is scaled down to fit.
// A zero MaxCollateral disables the cap.
var CappedSizer = SizerFunc(func(arb domain.Arb, cfg domain.StrategyConfig) decimal.Decimal {
	size := cfg.TradeSize
	if !cfg.MaxCollateral.IsPositive() || !cfg.CollateralPercent.IsPositive() {
		return size
	}
	collat := domain.ComputeCollateral(arb, size, cfg.CollateralPercent, false)
	if collat.LessThanOrEqual(cfg.MaxCollateral) {
		return size
	}
	return size.Mul(cfg.MaxCollateral).Div(collat)
})
