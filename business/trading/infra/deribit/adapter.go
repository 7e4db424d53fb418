// Package deribit executes option legs on the Deribit exchange over its
// JSON-RPC websocket API.
package deribit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/logger"
	"github.com/fd1az/options-arb/internal/ratelimit"
)

const (
	tracerName = "deribit"
	meterName  = "deribit"

	MainnetURL = "wss://www.deribit.com/ws/api/v2"
	TestnetURL = "wss://test.deribit.com/ws/api/v2"
)

// Config is the resolved network and credential pair for one adapter.
type Config struct {
	URL               string
	ClientID          string
	ClientSecret      string
	Testnet           bool
	RequestsPerSecond float64
	Burst             int
}

// ConfigFrom resolves the active network from application config.
func ConfigFrom(c config.DeribitConfig) Config {
	id, secret := c.Credentials()
	return Config{
		URL:               c.Endpoint(),
		ClientID:          id,
		ClientSecret:      secret,
		Testnet:           c.Testnet,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

type adapterMetrics struct {
	sessions metric.Int64Counter
	orders   metric.Int64Counter
}

// Adapter places market orders on Deribit. Each Execute opens its own
// session, authenticates, sends one order and closes the session on every
// path.
type Adapter struct {
	config  Config
	dial    Dialer
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates an Adapter. A nil dial uses DialWebSocket.
func NewAdapter(cfg Config, dial Dialer, log logger.LoggerInterface) (*Adapter, error) {
	if cfg.URL == "" {
		cfg.URL = MainnetURL
		if cfg.Testnet {
			cfg.URL = TestnetURL
		}
	}
	if dial == nil {
		dial = DialWebSocket
	}

	a := &Adapter{
		config:  cfg,
		dial:    dial,
		limiter: ratelimit.New("deribit", cfg.RequestsPerSecond, cfg.Burst),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return a, nil
}

func (a *Adapter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &adapterMetrics{}

	a.metrics.sessions, err = meter.Int64Counter(
		"deribit_sessions_total",
		metric.WithDescription("Websocket sessions opened for order placement"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	a.metrics.orders, err = meter.Int64Counter(
		"deribit_orders_total",
		metric.WithDescription("Orders placed by outcome"),
		metric.WithUnit("{order}"),
	)
	return err
}

// Provider implements app.TradeExecutor.
func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderDeribit
}

// Execute places a market order for args. It never returns an error; all
// failures are mapped to a failed TradeResult.
func (a *Adapter) Execute(ctx context.Context, args domain.TradeArgs) domain.TradeResult {
	ctx, span := a.tracer.Start(ctx, "deribit.execute",
		trace.WithAttributes(
			attribute.String("instrument", args.InstrumentID),
			attribute.String("side", args.Side()),
			attribute.String("amount", args.Size.String()),
			attribute.Bool("testnet", a.config.Testnet),
		),
	)
	defer span.End()

	result := a.execute(ctx, args)

	a.metrics.orders.Add(ctx, 1, metric.WithAttributes(
		attribute.String("side", args.Side()),
		attribute.Bool("success", result.IsSuccess),
		attribute.String("code", string(result.FailCode)),
	))
	if result.IsSuccess {
		span.SetAttributes(attribute.String("price", result.PricePerOption.String()))
		span.SetStatus(codes.Ok, "filled")
	} else {
		span.SetStatus(codes.Error, result.FailReason)
	}
	return result
}

func (a *Adapter) execute(ctx context.Context, args domain.TradeArgs) domain.TradeResult {
	if a.config.ClientID == "" || a.config.ClientSecret == "" {
		return domain.FailureResult(domain.ProviderDeribit, apperror.CodeMissingCredentials,
			fmt.Sprintf("deribit credentials missing (testnet=%v)", a.config.Testnet))
	}
	if args.InstrumentID == "" || !args.Size.IsPositive() {
		return domain.FailureResult(domain.ProviderDeribit, apperror.CodeInvalidInput,
			fmt.Sprintf("invalid order: instrument=%q amount=%s", args.InstrumentID, args.Size))
	}

	sess, err := a.dial(ctx, a.config.URL)
	if err != nil {
		a.logger.Warn(ctx, "deribit connection failed", "url", a.config.URL, "error", err)
		return domain.FailureFromError(domain.ProviderDeribit, apperror.CodeConnectionError,
			apperror.New(apperror.CodeConnectionError, apperror.WithContext(a.config.URL), apperror.WithCause(err)))
	}
	a.metrics.sessions.Add(ctx, 1)

	defer func() {
		if err := sess.Close(); err != nil {
			a.logger.Debug(ctx, "deribit session close", "error", err)
		}
	}()

	if err := a.authenticate(ctx, sess); err != nil {
		a.logger.Warn(ctx, "deribit authentication failed", "error", err)
		return domain.FailureFromError(domain.ProviderDeribit, apperror.CodeAuthenticationFailed, err)
	}

	order, err := a.placeOrder(ctx, sess, args)
	if err != nil {
		a.logger.Warn(ctx, "deribit order failed",
			"instrument", args.InstrumentID, "side", args.Side(), "error", err)
		return domain.FailureFromError(domain.ProviderDeribit, apperror.CodeOrderRejected, err)
	}

	return a.toResult(ctx, args, order)
}

func (a *Adapter) authenticate(ctx context.Context, sess Session) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return classify(err, apperror.CodeAuthenticationFailed)
	}

	var res authResult
	err := sess.Call(ctx, methodAuth, authParams{
		GrantType:    grantClientCredentials,
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
	}, &res)
	if err != nil {
		return classify(err, apperror.CodeAuthenticationFailed)
	}
	if res.AccessToken == "" {
		return apperror.New(apperror.CodeAuthenticationFailed,
			apperror.WithContext("auth response carried no access token"))
	}
	return nil
}

func (a *Adapter) placeOrder(ctx context.Context, sess Session, args domain.TradeArgs) (*OrderResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, classify(err, apperror.CodeOrderRejected)
	}

	method := methodSell
	if args.IsBuy {
		method = methodBuy
	}

	var res OrderResult
	err := sess.Call(ctx, method, orderParams{
		InstrumentName: args.InstrumentID,
		Amount:         json.Number(args.Size.String()),
		Type:           orderTypeMarket,
	}, &res)
	if err != nil {
		return nil, classify(err, apperror.CodeOrderRejected)
	}
	return &res, nil
}

// toResult converts an order response into a TradeResult. Only a response
// with at least one well-formed fill counts as success.
func (a *Adapter) toResult(ctx context.Context, args domain.TradeArgs, res *OrderResult) domain.TradeResult {
	if res.Trades == nil {
		return domain.FailureResult(domain.ProviderDeribit, apperror.CodeMalformedResponse,
			"order response has no trades field")
	}
	trades := *res.Trades
	if len(trades) == 0 {
		state := "unknown"
		if res.Order != nil {
			state = res.Order.OrderState
		}
		return domain.FailureResult(domain.ProviderDeribit, apperror.CodeOrderRejected,
			fmt.Sprintf("order for %s produced no trades (state %s)", args.InstrumentID, state))
	}

	first := trades[0]
	if first.Price == nil || first.IndexPrice == nil {
		return domain.FailureResult(domain.ProviderDeribit, apperror.CodeMalformedResponse,
			"first trade is missing price or index_price")
	}

	price := first.Price.Mul(*first.IndexPrice)
	a.logger.Info(ctx, "deribit order filled",
		"instrument", args.InstrumentID,
		"side", args.Side(),
		"amount", args.Size.String(),
		"price", first.Price.String(),
		"index_price", first.IndexPrice.String(),
		"price_per_option", price.String(),
		"trades", len(trades),
	)
	return domain.SuccessResult(domain.ProviderDeribit, price, res)
}

// classify maps session errors onto the venue taxonomy. Exchange error
// objects take the stage code; anything else means the transport failed.
func classify(err error, stage apperror.Code) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return apperror.New(stage, apperror.WithCause(err))
	}
	if apperror.HasCode(err, apperror.CodeMalformedResponse) {
		return err
	}
	return apperror.New(apperror.CodeConnectionError, apperror.WithCause(err))
}
