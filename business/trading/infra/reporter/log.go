// Package reporter contains the sinks that record executed legs.
package reporter

import (
	"context"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/logger"
)

// LogReporter writes one structured line per leg.
type LogReporter struct {
	logger logger.LoggerInterface
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(log logger.LoggerInterface) *LogReporter {
	return &LogReporter{logger: log}
}

func (r *LogReporter) ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
	strategy domain.StrategyConfig, legNumber int, isBuyLeg, isLastLeg bool) {
	args := []any{
		"attempt_id", app.AttemptFromContext(ctx),
		"arb", arb.Label(),
		"leg", legNumber,
		"side", side(isBuyLeg),
		"provider", result.Provider,
		"instrument", leg(arb, isBuyLeg).ID,
		"size", strategy.TradeSize.String(),
		"last", isLastLeg,
	}

	if result.IsSuccess {
		r.logger.Info(ctx, "leg filled", append(args, "price", result.PricePerOption.String())...)
		return
	}
	r.logger.Warn(ctx, "leg failed", append(args, "code", result.FailCode, "reason", result.FailReason)...)
}

func side(isBuy bool) string {
	if isBuy {
		return "buy"
	}
	return "sell"
}

func leg(arb domain.Arb, isBuy bool) domain.Instrument {
	if isBuy {
		return arb.Buy
	}
	return arb.Sell
}

// unhedged reports whether a result leaves the attempt with an open
// position. The sell leg only runs after the buy leg filled.
func unhedged(result domain.TradeResult, isBuyLeg bool) bool {
	return !isBuyLeg && !result.IsSuccess
}
