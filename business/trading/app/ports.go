// Package app contains application services and port definitions for the trading context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/business/trading/domain"
)

// TradeExecutor places one leg on one venue. Implementations never return
// errors: every failure is reported through a failed TradeResult.
type TradeExecutor interface {
	Provider() domain.Provider
	Execute(ctx context.Context, args domain.TradeArgs) domain.TradeResult
}

// Executors routes legs to venues by provider.
type Executors map[domain.Provider]TradeExecutor

// NewExecutors indexes executors by their provider.
func NewExecutors(execs ...TradeExecutor) Executors {
	m := make(Executors, len(execs))
	for _, e := range execs {
		m[e.Provider()] = e
	}
	return m
}

// Reporter records the outcome of each leg. Called once per executed leg.
type Reporter interface {
	ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
		strategy domain.StrategyConfig, legNumber int, isBuyLeg, isLastLeg bool)
}

// OpportunitySource supplies candidate arbs for a market.
type OpportunitySource interface {
	GetOpportunities(ctx context.Context, market domain.Underlying, cfg domain.StrategyConfig) ([]domain.Arb, error)
}

// Sizer decides the per-leg size of an attempt.
type Sizer interface {
	ComputeSize(arb domain.Arb, cfg domain.StrategyConfig) decimal.Decimal
}

// SizerFunc adapts a function to Sizer.
type SizerFunc func(arb domain.Arb, cfg domain.StrategyConfig) decimal.Decimal

func (f SizerFunc) ComputeSize(arb domain.Arb, cfg domain.StrategyConfig) decimal.Decimal {
	return f(arb, cfg)
}

// AdmissionLock serialises attempts on the same instrument across processes.
type AdmissionLock interface {
	// Acquire returns a release function, or an error if any key is held.
	Acquire(ctx context.Context, keys []string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ExecutionObserver is notified once per finished attempt.
type ExecutionObserver interface {
	OnExecution(ctx context.Context, exec domain.Execution)
}
