// Package ethereum implements the blockchain ports against an Optimism node
// through go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/options-arb/business/blockchain/app"
	"github.com/fd1az/options-arb/business/blockchain/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/cache"
	"github.com/fd1az/options-arb/internal/circuitbreaker"
	"github.com/fd1az/options-arb/internal/logger"
)

const (
	tracerName = "blockchain"
	meterName  = "blockchain"

	priceCacheKey = "current"
)

var _ app.GasOracle = (*GasOracle)(nil)

// GasBackend is the subset of ethclient.Client the oracle uses.
type GasBackend interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL    time.Duration
	MaxGasPrice *big.Int
	DefaultGas  uint64
	// MarginPercent is added on top of node estimates.
	MarginPercent uint64
}

// DefaultGasOracleConfig returns defaults for Optimism, where blocks land
// every two seconds and gas is cheap.
func DefaultGasOracleConfig() GasOracleConfig {
	return GasOracleConfig{
		CacheTTL:      4 * time.Second,
		MaxGasPrice:   big.NewInt(50_000_000_000), // 50 gwei
		DefaultGas:    2_000_000,
		MarginPercent: 20,
	}
}

type gasOracleMetrics struct {
	priceFetches metric.Int64Counter
	priceGwei    metric.Float64Gauge
	estimates    metric.Int64Counter
	cacheHits    metric.Int64Counter
}

// GasOracle quotes gas with a short-lived cache in front of the node.
type GasOracle struct {
	config  GasOracleConfig
	backend GasBackend
	logger  logger.LoggerInterface

	priceCache *cache.Cache[string, *domain.GasPrice]
	cb         *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle on backend.
func NewGasOracle(backend GasBackend, cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	if cfg.DefaultGas == 0 {
		cfg.DefaultGas = DefaultGasOracleConfig().DefaultGas
	}

	g := &GasOracle{
		config:     cfg,
		backend:    backend,
		logger:     log,
		priceCache: cache.New[string, *domain.GasPrice](time.Minute),
		cb:         circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:     otel.Tracer(tracerName),
	}
	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.priceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Gas price requests sent to the node"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.priceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Last fetched gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.estimates, err = meter.Int64Counter(
		"gas_estimate_total",
		metric.WithDescription("Gas estimation calls by outcome"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	return err
}

// GetGasPrice returns the cached price or fetches a new one.
func (g *GasOracle) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer span.End()

	if price, ok := g.priceCache.Get(ctx, priceCacheKey); ok {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.priceFetches.Add(ctx, 1)
	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.backend.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if apperror.HasCode(err, apperror.CodeCircuitOpen) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("suggest gas price"))
	}

	price := domain.NewGasPrice(wei)
	if capped := price.Capped(g.config.MaxGasPrice); capped != price {
		g.logger.Warn(ctx, "gas price above cap", "wei", wei.String(), "cap", g.config.MaxGasPrice.String())
		price = capped
	}

	g.priceCache.Set(ctx, priceCacheKey, price, g.config.CacheTTL)
	g.metrics.priceGwei.Record(ctx, price.Gwei())

	span.SetAttributes(attribute.Float64("gwei", price.Gwei()))
	span.SetStatus(codes.Ok, "fetched")
	return price, nil
}

// EstimateGas implements app.GasOracle.
func (g *GasOracle) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	to := ""
	if msg.To != nil {
		to = msg.To.Hex()
	}
	ctx, span := g.tracer.Start(ctx, "gas.estimate",
		trace.WithAttributes(
			attribute.String("to", to),
			attribute.Int("data_len", len(msg.Data)),
		),
	)
	defer span.End()

	gas, err := g.backend.EstimateGas(ctx, msg)
	if err != nil {
		g.metrics.estimates.Add(ctx, 1, metric.WithAttributes(attribute.Bool("fallback", true)))
		span.AddEvent("using_default_gas", trace.WithAttributes(
			attribute.Int64("default", int64(g.config.DefaultGas))))
		g.logger.Debug(ctx, "gas estimation failed, using default",
			"to", to, "default", g.config.DefaultGas, "error", err)
		return g.config.DefaultGas, nil
	}

	g.metrics.estimates.Add(ctx, 1, metric.WithAttributes(attribute.Bool("fallback", false)))
	gas += gas * g.config.MarginPercent / 100

	span.SetAttributes(attribute.Int64("gas", int64(gas)))
	span.SetStatus(codes.Ok, "estimated")
	return gas, nil
}

// Estimate returns a full estimate for msg at the current price.
func (g *GasOracle) Estimate(ctx context.Context, msg ethereum.CallMsg) (*domain.GasEstimate, error) {
	price, err := g.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	limit, err := g.EstimateGas(ctx, msg)
	if err != nil {
		return nil, err
	}
	return domain.NewGasEstimate(limit, price), nil
}

// Close stops the price cache.
func (g *GasOracle) Close() error {
	g.priceCache.Close()
	return nil
}
