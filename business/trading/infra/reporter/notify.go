package reporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/logger"
)

const alertTimeout = 10 * time.Second

// Alerter delivers an operator alert.
type Alerter interface {
	Notify(ctx context.Context, title, message string) error
}

// NotifyReporter alerts operators when a sell leg fails after its buy leg
// filled. Every other leg is ignored.
type NotifyReporter struct {
	alerter Alerter
	logger  logger.LoggerInterface
}

// NewNotifyReporter creates a NotifyReporter.
func NewNotifyReporter(alerter Alerter, log logger.LoggerInterface) *NotifyReporter {
	return &NotifyReporter{alerter: alerter, logger: log}
}

func (r *NotifyReporter) ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
	strategy domain.StrategyConfig, _ int, isBuyLeg, _ bool) {
	if !unhedged(result, isBuyLeg) {
		return
	}

	// Delivery must not be cut short by the attempt ending.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()

	title := "Unhedged position: " + arb.Label()
	if err := r.alerter.Notify(ctx, title, partialMessage(ctx, arb, result, strategy)); err != nil {
		r.logger.Error(ctx, "partial hedge alert not delivered", "arb", arb.Label(), "error", err)
	}
}

func partialMessage(ctx context.Context, arb domain.Arb, result domain.TradeResult, strategy domain.StrategyConfig) string {
	var b strings.Builder
	if id := app.AttemptFromContext(ctx); id != "" {
		fmt.Fprintf(&b, "Attempt: %s\n", id)
	}
	size, ok := app.SizeFromContext(ctx)
	if !ok {
		size = strategy.TradeSize
	}
	fmt.Fprintf(&b, "Bought %s %s on %s (%s)\n", size, strategy.Market, arb.Buy.Provider, arb.Buy.ID)
	fmt.Fprintf(&b, "Sell on %s (%s) failed: %s\n", result.Provider, arb.Sell.ID, result.FailCode)
	fmt.Fprintf(&b, "Reason: %s", result.FailReason)
	return b.String()
}
