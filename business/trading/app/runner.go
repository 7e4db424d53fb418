package app

import (
	"context"
	"time"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

// RunnerConfig drives the attempt loop.
type RunnerConfig struct {
	Market   domain.Underlying
	Strategy domain.StrategyConfig
	Interval time.Duration
	// Once makes Run return after the first attempt.
	Once bool
}

// Runner fetches opportunities, selects one and hands it to the
// coordinator, on a fixed interval.
type Runner struct {
	source      OpportunitySource
	coordinator *Coordinator
	config      RunnerConfig
	logger      logger.LoggerInterface
}

// NewRunner creates a Runner.
func NewRunner(source OpportunitySource, coordinator *Coordinator, cfg RunnerConfig, log logger.LoggerInterface) *Runner {
	return &Runner{
		source:      source,
		coordinator: coordinator,
		config:      cfg,
		logger:      log,
	}
}

// Run loops until ctx is cancelled. Attempt failures are logged and never
// stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info(ctx, "starting arbitrage runner",
		"market", r.config.Market,
		"interval", r.config.Interval,
		"trade_size", r.config.Strategy.TradeSize.String(),
	)

	r.tick(ctx)
	if r.config.Once {
		return nil
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "runner stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, _, err := r.AttemptOnce(ctx); err != nil {
		r.logger.Warn(ctx, "arbitrage attempt refused", "error", err, "code", apperror.GetCode(err))
	}
}

// AttemptOnce performs a single fetch-select-execute cycle. ok is false when
// no opportunity was available.
func (r *Runner) AttemptOnce(ctx context.Context) (domain.Execution, bool, error) {
	candidates, err := r.source.GetOpportunities(ctx, r.config.Market, r.config.Strategy)
	if err != nil {
		return domain.Execution{}, false, apperror.Wrap(err, apperror.CodeOpportunitySource, string(r.config.Market))
	}

	arb, ok := SelectArb(candidates, r.config.Strategy)
	if !ok {
		r.logger.Info(ctx, "no arb available", "market", r.config.Market)
		return domain.Execution{}, false, nil
	}

	exec, err := r.coordinator.Run(ctx, arb, r.config.Market, r.config.Strategy)
	if err != nil {
		return domain.Execution{}, false, err
	}
	return exec, true, nil
}
