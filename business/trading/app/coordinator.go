package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

const (
	tracerName = "github.com/fd1az/options-arb/business/trading/app"
	meterName  = "github.com/fd1az/options-arb/business/trading/app"
)

// Coordinator executes an arb as two sequential legs: buy, then sell. The
// sell leg only runs if the buy leg filled. A Coordinator runs one attempt at
// a time.
type Coordinator struct {
	executors Executors
	reporter  Reporter
	sizer     Sizer
	lock      AdmissionLock
	lockTTL   time.Duration
	stable    string
	observers []ExecutionObserver
	logger    logger.LoggerInterface

	running atomic.Bool
	newID   func() string

	tracer  trace.Tracer
	metrics *coordinatorMetrics
}

type coordinatorMetrics struct {
	attempts    metric.Int64Counter
	legs        metric.Int64Counter
	legDuration metric.Float64Histogram
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithSizer replaces the default ConfiguredSizer.
func WithSizer(s Sizer) CoordinatorOption {
	return func(c *Coordinator) { c.sizer = s }
}

// WithAdmissionLock locks both instruments for the duration of an attempt.
func WithAdmissionLock(l AdmissionLock, ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.lock = l
		c.lockTTL = ttl
	}
}

// WithStableToken sets the stable token used for quote collateral on
// on-chain legs.
func WithStableToken(symbol string) CoordinatorOption {
	return func(c *Coordinator) { c.stable = symbol }
}

// WithObserver registers an observer for finished attempts.
func WithObserver(o ExecutionObserver) CoordinatorOption {
	return func(c *Coordinator) { c.observers = append(c.observers, o) }
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(executors Executors, reporter Reporter, log logger.LoggerInterface, opts ...CoordinatorOption) (*Coordinator, error) {
	c := &Coordinator{
		executors: executors,
		reporter:  reporter,
		sizer:     ConfiguredSizer,
		lockTTL:   5 * time.Minute,
		stable:    "sUSD",
		logger:    log,
		newID:     uuid.NewString,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Coordinator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &coordinatorMetrics{}

	c.metrics.attempts, err = meter.Int64Counter(
		"arb_attempts_total",
		metric.WithDescription("Arbitrage attempts by final status"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	c.metrics.legs, err = meter.Int64Counter(
		"arb_legs_total",
		metric.WithDescription("Executed legs by provider, side and outcome"),
		metric.WithUnit("{leg}"),
	)
	if err != nil {
		return err
	}

	c.metrics.legDuration, err = meter.Float64Histogram(
		"arb_leg_duration_seconds",
		metric.WithDescription("Wall time of a single leg"),
		metric.WithUnit("s"),
	)
	return err
}

// Run executes arb for market under cfg. The returned error is only set when
// the attempt was refused before any leg ran (another attempt in progress,
// instrument locked, invalid size). Venue failures are reported through the
// Execution's results and status.
func (c *Coordinator) Run(ctx context.Context, arb domain.Arb, market domain.Underlying, cfg domain.StrategyConfig) (domain.Execution, error) {
	if !c.running.CompareAndSwap(false, true) {
		return domain.Execution{}, apperror.New(apperror.CodeAttemptInProgress)
	}
	defer c.running.Store(false)

	attemptID := c.newID()
	ctx, span := c.tracer.Start(ctx, "trading.run",
		trace.WithAttributes(
			attribute.String("attempt_id", attemptID),
			attribute.String("market", string(market)),
			attribute.String("arb", arb.Label()),
		),
	)
	defer span.End()
	ctx = ContextWithAttempt(ctx, attemptID)

	size := c.sizer.ComputeSize(arb, cfg)
	if !size.IsPositive() {
		err := apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(fmt.Sprintf("computed size %s", size)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid size")
		return domain.Execution{}, err
	}
	ctx = ContextWithSize(ctx, size)

	if c.lock != nil {
		release, err := c.lock.Acquire(ctx, lockKeys(arb), c.lockTTL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lock held")
			return domain.Execution{}, apperror.Wrap(err, apperror.CodeLockHeld, arb.Label())
		}
		defer func() {
			// The lock must be released even if the attempt context is done.
			if err := release(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn(ctx, "failed to release instrument lock", "attempt_id", attemptID, "error", err)
			}
		}()
	}

	exec := domain.Execution{
		AttemptID: attemptID,
		Arb:       arb,
		Size:      size,
		StartedAt: time.Now(),
	}

	c.logger.Info(ctx, "executing arb",
		"attempt_id", attemptID,
		"arb", arb.Label(),
		"size", size.String(),
		"buy", arb.Buy.ID,
		"sell", arb.Sell.ID,
	)

	buyArgs := domain.NewTradeArgs(arb.Buy, market, size,
		domain.ComputeCollateral(arb, size, cfg.CollateralPercent, true), true, c.stable)
	exec.Buy = c.executeLeg(ctx, attemptID, buyArgs, cfg.LegTimeout)

	if !exec.Buy.IsSuccess {
		c.report(ctx, arb, exec.Buy, cfg, 1, true, true)
		exec.Status = domain.StatusAborted
		c.logger.Warn(ctx, "buy leg failed, skipping sell leg",
			"attempt_id", attemptID,
			"provider", exec.Buy.Provider,
			"code", exec.Buy.FailCode,
			"reason", exec.Buy.FailReason,
		)
		return c.finish(ctx, span, exec), nil
	}
	c.report(ctx, arb, exec.Buy, cfg, 1, true, false)

	// Cancellation is only honoured here, between the legs.
	var sell domain.TradeResult
	if err := ctx.Err(); err != nil {
		sell = domain.FailureResult(arb.Sell.Provider, apperror.CodeAttemptCancelled,
			fmt.Sprintf("attempt cancelled before sell leg: %v", err))
	} else {
		sellArgs := domain.NewTradeArgs(arb.Sell, market, size,
			domain.ComputeCollateral(arb, size, cfg.CollateralPercent, false), false, c.stable)
		sell = c.executeLeg(ctx, attemptID, sellArgs, cfg.LegTimeout)
	}
	exec.Sell = &sell
	c.report(ctx, arb, sell, cfg, 2, false, true)

	exec.Status = domain.StatusOf(exec.Buy, exec.Sell)
	if exec.Status == domain.StatusPartial {
		c.logger.Error(ctx, "sell leg failed after buy filled, position is unhedged",
			"attempt_id", attemptID,
			"bought", arb.Buy.ID,
			"buy_provider", arb.Buy.Provider,
			"buy_price", exec.Buy.PricePerOption.String(),
			"size", size.String(),
			"sell_provider", sell.Provider,
			"code", sell.FailCode,
			"reason", sell.FailReason,
		)
	}
	return c.finish(ctx, span, exec), nil
}

// InProgress reports whether an attempt is currently running.
func (c *Coordinator) InProgress() bool {
	return c.running.Load()
}

func (c *Coordinator) finish(ctx context.Context, span trace.Span, exec domain.Execution) domain.Execution {
	exec.Duration = time.Since(exec.StartedAt)

	c.metrics.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(exec.Status))))
	span.SetAttributes(attribute.String("status", string(exec.Status)))
	if exec.Status == domain.StatusCompleted {
		span.SetStatus(codes.Ok, "completed")
	} else {
		span.SetStatus(codes.Error, string(exec.Status))
	}

	if spread, ok := exec.Spread(); ok {
		c.logger.Info(ctx, "arb completed",
			"attempt_id", exec.AttemptID,
			"spread", spread.String(),
			"pnl", PnL(exec).String(),
			"duration", exec.Duration,
		)
	}

	for _, o := range c.observers {
		o.OnExecution(ctx, exec)
	}
	return exec
}

// executeLeg dispatches args to its venue under a deadline. A leg that does
// not return in time is reported as LEG_TIMEOUT; nothing is assumed about
// whether the venue committed it. Cancelling ctx does not interrupt the call.
func (c *Coordinator) executeLeg(ctx context.Context, attemptID string, args domain.TradeArgs, timeout time.Duration) domain.TradeResult {
	ctx, span := c.tracer.Start(ctx, "trading.leg",
		trace.WithAttributes(
			attribute.String("provider", string(args.Provider)),
			attribute.String("side", args.Side()),
			attribute.String("instrument", args.InstrumentID),
			attribute.String("size", args.Size.String()),
			attribute.String("collateral", args.Collateral.String()),
		),
	)
	defer span.End()

	start := time.Now()
	result := c.dispatch(ctx, attemptID, args, timeout)
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(
		attribute.String("provider", string(args.Provider)),
		attribute.String("side", args.Side()),
		attribute.Bool("success", result.IsSuccess),
	)
	c.metrics.legs.Add(ctx, 1, attrs)
	c.metrics.legDuration.Record(ctx, elapsed.Seconds(), attrs)

	if result.IsSuccess {
		span.SetAttributes(attribute.String("price", result.PricePerOption.String()))
		span.SetStatus(codes.Ok, "filled")
	} else {
		span.SetAttributes(attribute.String("fail_code", string(result.FailCode)))
		span.SetStatus(codes.Error, result.FailReason)
	}
	return result
}

func (c *Coordinator) dispatch(ctx context.Context, attemptID string, args domain.TradeArgs, timeout time.Duration) domain.TradeResult {
	executor, ok := c.executors[args.Provider]
	if !ok {
		return domain.FailureResult(args.Provider, apperror.CodeUnknownProvider,
			fmt.Sprintf("no executor registered for %s", args.Provider))
	}

	// Only the leg deadline may cut an in-flight venue request short.
	detached := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return c.safeExecute(detached, executor, args)
	}

	legCtx, cancel := context.WithTimeout(detached, timeout)
	defer cancel()

	done := make(chan domain.TradeResult, 1)
	go func() {
		done <- c.safeExecute(legCtx, executor, args)
	}()

	select {
	case result := <-done:
		return result
	case <-legCtx.Done():
		go c.drainLate(detached, attemptID, args, done)
		return domain.FailureResult(args.Provider, apperror.CodeLegTimeout,
			fmt.Sprintf("%s leg on %s exceeded %s", args.Side(), args.Provider, timeout))
	}
}

// drainLate logs the result of a leg that finished after its deadline so an
// operator can reconcile it by hand.
func (c *Coordinator) drainLate(ctx context.Context, attemptID string, args domain.TradeArgs, done <-chan domain.TradeResult) {
	result := <-done
	if result.IsSuccess {
		c.logger.Error(ctx, "leg filled after its deadline",
			"attempt_id", attemptID,
			"provider", args.Provider,
			"side", args.Side(),
			"instrument", args.InstrumentID,
			"price", result.PricePerOption.String(),
		)
	}
}

func (c *Coordinator) safeExecute(ctx context.Context, executor TradeExecutor, args domain.TradeArgs) (result domain.TradeResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(ctx, "executor panicked", "provider", args.Provider, "panic", r)
			result = domain.FailureResult(args.Provider, apperror.CodeInternalError, fmt.Sprintf("executor panic: %v", r))
		}
	}()
	return executor.Execute(ctx, args)
}

func (c *Coordinator) report(ctx context.Context, arb domain.Arb, result domain.TradeResult, cfg domain.StrategyConfig, leg int, isBuy, isLast bool) {
	if c.reporter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(ctx, "reporter panicked", "leg", leg, "panic", r)
		}
	}()
	c.reporter.ReportTrade(ctx, arb, result, cfg, leg, isBuy, isLast)
}

func lockKeys(arb domain.Arb) []string {
	return []string{
		"instrument:" + string(arb.Buy.Provider) + ":" + arb.Buy.ID,
		"instrument:" + string(arb.Sell.Provider) + ":" + arb.Sell.ID,
	}
}

// PnL returns the realised per-attempt PnL of a completed execution in the
// quote currency.
func PnL(exec domain.Execution) decimal.Decimal {
	spread, ok := exec.Spread()
	if !ok {
		return decimal.Zero
	}
	return spread.Mul(exec.Size)
}
