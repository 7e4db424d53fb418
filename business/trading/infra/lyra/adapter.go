// Package lyra executes option legs on Lyra's OptionMarket contracts on
// Optimism.
package lyra

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainapp "github.com/fd1az/options-arb/business/blockchain/app"
	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/asset"
	"github.com/fd1az/options-arb/internal/circuitbreaker"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/logger"
)

const (
	tracerName = "lyra"
	meterName  = "lyra"

	bpsDenominator = 10_000
)

// Backend is the subset of ethclient.Client the adapter needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config holds the chain and market settings for the adapter.
type Config struct {
	ChainID *big.Int
	// OptionMarkets is keyed by upper-case underlying symbol.
	OptionMarkets map[string]common.Address
	Slippage      decimal.Decimal
	Iterations    int64
	// MaxGas caps the gas limit of a trade. Zero leaves it uncapped.
	MaxGas              uint64
	ReceiptPollInterval time.Duration
}

// ConfigFrom builds a Config from application config.
func ConfigFrom(l config.LyraConfig, o config.OptimismConfig) Config {
	markets := make(map[string]common.Address, len(l.OptionMarkets))
	for k, v := range l.OptionMarkets {
		if common.IsHexAddress(v) {
			markets[strings.ToUpper(k)] = common.HexToAddress(v)
		}
	}
	return Config{
		ChainID:             big.NewInt(o.ChainID),
		OptionMarkets:       markets,
		Slippage:            l.SlippageDecimal(),
		Iterations:          l.Iterations,
		MaxGas:              l.GasLimit,
		ReceiptPollInterval: l.ReceiptPollInterval,
	}
}

type adapterMetrics struct {
	trades      metric.Int64Counter
	receiptWait metric.Float64Histogram
}

// Adapter opens Lyra positions. A trade is simulated with eth_call to learn
// its cost, then submitted with slippage bounds around that cost.
type Adapter struct {
	config  Config
	backend Backend
	gas     chainapp.GasOracle
	signer  *Signer
	abi     abi.ABI
	logger  logger.LoggerInterface

	callCB *circuitbreaker.CircuitBreaker[[]byte]
	sendCB *circuitbreaker.CircuitBreaker[common.Hash]

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates an Adapter. A nil signer is allowed; every trade then
// fails with MISSING_CREDENTIALS.
func NewAdapter(cfg Config, backend Backend, gas chainapp.GasOracle, signer *Signer, log logger.LoggerInterface) (*Adapter, error) {
	parsed, err := abi.JSON(strings.NewReader(OptionMarketABI))
	if err != nil {
		return nil, fmt.Errorf("parse option market abi: %w", err)
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}
	if cfg.ChainID == nil {
		cfg.ChainID = big.NewInt(asset.ChainIDOptimism)
	}

	// Reverts are answers from a healthy node and must not trip the breaker.
	cbCfg := circuitbreaker.DefaultConfig("lyra-rpc")
	cbCfg.IsSuccessful = func(err error) bool { return err == nil || isRevert(err) }

	a := &Adapter{
		config:  cfg,
		backend: backend,
		gas:     gas,
		signer:  signer,
		abi:     parsed,
		logger:  log,
		callCB:  circuitbreaker.New[[]byte](cbCfg),
		sendCB:  circuitbreaker.New[common.Hash](cbCfg),
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

	a.metrics.trades, err = meter.Int64Counter(
		"lyra_trades_total",
		metric.WithDescription("openPosition attempts by outcome"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		return err
	}

	a.metrics.receiptWait, err = meter.Float64Histogram(
		"lyra_receipt_wait_seconds",
		metric.WithDescription("Time from submission to receipt"),
		metric.WithUnit("s"),
	)
	return err
}

// Provider implements app.TradeExecutor.
func (a *Adapter) Provider() domain.Provider {
	return domain.ProviderLyra
}

// Execute opens a position for args. It never returns an error; all
// failures are mapped to a failed TradeResult.
func (a *Adapter) Execute(ctx context.Context, args domain.TradeArgs) domain.TradeResult {
	ctx, span := a.tracer.Start(ctx, "lyra.execute",
		trace.WithAttributes(
			attribute.String("market", string(args.Market)),
			attribute.String("strike_id", args.InstrumentID),
			attribute.String("side", args.Side()),
			attribute.String("amount", args.Size.String()),
			attribute.String("collateral", args.Collateral.String()),
			attribute.String("stable", args.Stable),
		),
	)
	defer span.End()

	result := a.execute(ctx, args)

	a.metrics.trades.Add(ctx, 1, metric.WithAttributes(
		attribute.String("side", args.Side()),
		attribute.Bool("success", result.IsSuccess),
		attribute.String("code", string(result.FailCode)),
	))
	if result.IsSuccess {
		span.SetAttributes(attribute.String("price", result.PricePerOption.String()))
		span.SetStatus(codes.Ok, "position opened")
	} else {
		span.SetStatus(codes.Error, result.FailReason)
	}
	return result
}

func (a *Adapter) execute(ctx context.Context, args domain.TradeArgs) domain.TradeResult {
	if a.signer == nil {
		return domain.FailureResult(domain.ProviderLyra, apperror.CodeMissingCredentials, "lyra signer not configured")
	}

	market, ok := a.config.OptionMarkets[strings.ToUpper(string(args.Market))]
	if !ok {
		return domain.FailureResult(domain.ProviderLyra, apperror.CodeConfigurationError,
			fmt.Sprintf("no option market configured for %s", args.Market))
	}

	params, err := a.buildParams(args)
	if err != nil {
		return domain.FailureFromError(domain.ProviderLyra, apperror.CodeInvalidInput, err)
	}
	optionType := OptionType(params.OptionType)

	cost, err := a.simulate(ctx, market, params)
	if err != nil {
		a.logger.Warn(ctx, "lyra simulation failed",
			"strike_id", args.InstrumentID, "option_type", optionType.String(), "error", err)
		return domain.FailureFromError(domain.ProviderLyra, apperror.CodeOrderRejected, err)
	}
	a.applySlippage(&params, cost)

	receipt, err := a.submit(ctx, market, params)
	if err != nil {
		a.logger.Warn(ctx, "lyra submission failed",
			"strike_id", args.InstrumentID, "option_type", optionType.String(), "error", err)
		return domain.FailureFromError(domain.ProviderLyra, apperror.CodeConnectionError, err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		a.logger.Error(ctx, "lyra transaction reverted",
			"tx", receipt.TxHash.Hex(), "strike_id", args.InstrumentID, "gas_used", receipt.GasUsed)
		return domain.FailureResult(domain.ProviderLyra, apperror.CodeTransactionReverted,
			fmt.Sprintf("transaction %s reverted", receipt.TxHash.Hex()))
	}

	price := asset.FromWei(cost).Div(args.Size)
	a.logger.Info(ctx, "lyra position opened",
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
		"strike_id", args.InstrumentID,
		"option_type", optionType.String(),
		"amount", args.Size.String(),
		"total_cost", asset.FromWei(cost).String(),
		"price_per_option", price.String(),
	)
	return domain.SuccessResult(domain.ProviderLyra, price, receipt)
}

// buildParams maps a leg onto openPosition arguments with open cost bounds.
func (a *Adapter) buildParams(args domain.TradeArgs) (TradeInputParameters, error) {
	strikeID, ok := new(big.Int).SetString(strings.TrimSpace(args.InstrumentID), 10)
	if !ok || strikeID.Sign() <= 0 {
		return TradeInputParameters{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("strike id %q is not a positive integer", args.InstrumentID)))
	}
	if !args.Size.IsPositive() {
		return TradeInputParameters{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext("amount "+args.Size.String()))
	}

	amount, err := asset.Wei(args.Size)
	if err != nil {
		return TradeInputParameters{}, apperror.New(apperror.CodeInvalidAmount, apperror.WithCause(err))
	}
	collateral := new(big.Int)
	if !args.IsBuy {
		if collateral, err = asset.Wei(args.Collateral); err != nil {
			return TradeInputParameters{}, apperror.New(apperror.CodeInvalidAmount, apperror.WithCause(err))
		}
	}

	return TradeInputParameters{
		StrikeId:        strikeID,
		PositionId:      new(big.Int),
		Iterations:      big.NewInt(a.config.Iterations),
		OptionType:      uint8(positionType(args)),
		Amount:          amount,
		SetCollateralTo: collateral,
		MinTotalCost:    new(big.Int),
		MaxTotalCost:    new(big.Int).Set(maxUint256),
	}, nil
}

// positionType picks the OptionMarket enum for a leg. Short calls are
// collateralised in the base asset when args.Base is set.
func positionType(args domain.TradeArgs) OptionType {
	switch {
	case args.IsBuy && args.Type == domain.Call:
		return LongCall
	case args.IsBuy:
		return LongPut
	case args.Type == domain.Call && args.Base:
		return ShortCallBase
	case args.Type == domain.Call:
		return ShortCallQuote
	default:
		return ShortPutQuote
	}
}

// applySlippage bounds what a buy may pay and what a sell must receive.
func (a *Adapter) applySlippage(p *TradeInputParameters, cost *big.Int) {
	bps := a.config.Slippage.Mul(decimal.NewFromInt(bpsDenominator)).IntPart()
	denom := big.NewInt(bpsDenominator)

	if OptionType(p.OptionType).IsLong() {
		upper := new(big.Int).Mul(cost, big.NewInt(bpsDenominator+bps))
		p.MaxTotalCost = upper.Div(upper, denom)
		p.MinTotalCost = new(big.Int)
		return
	}
	lower := new(big.Int).Mul(cost, big.NewInt(bpsDenominator-bps))
	p.MinTotalCost = lower.Div(lower, denom)
	p.MaxTotalCost = new(big.Int).Set(maxUint256)
}

// simulate runs openPosition through eth_call and returns its total cost.
func (a *Adapter) simulate(ctx context.Context, market common.Address, p TradeInputParameters) (*big.Int, error) {
	ctx, span := a.tracer.Start(ctx, "lyra.simulate")
	defer span.End()

	data, err := a.abi.Pack(methodOpenPosition, p)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("encode openPosition"), apperror.WithCause(err))
	}

	out, err := a.callCB.Execute(func() ([]byte, error) {
		return a.backend.CallContract(ctx, ethereum.CallMsg{
			From: a.signer.Address(),
			To:   &market,
			Data: data,
		}, nil)
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, "simulate openPosition")
	}

	values, err := a.abi.Unpack(methodOpenPosition, out)
	if err != nil || len(values) != 1 {
		return nil, apperror.New(apperror.CodeMalformedResponse,
			apperror.WithContext("decode openPosition result"),
			apperror.WithCause(err))
	}
	res := *abi.ConvertType(values[0], new(OpenPositionResult)).(*OpenPositionResult)
	if res.TotalCost == nil {
		return nil, apperror.New(apperror.CodeMalformedResponse, apperror.WithContext("openPosition returned no cost"))
	}

	span.SetAttributes(attribute.String("total_cost", res.TotalCost.String()))
	return res.TotalCost, nil
}

// submit signs and sends the trade, then waits for its receipt.
func (a *Adapter) submit(ctx context.Context, market common.Address, p TradeInputParameters) (*types.Receipt, error) {
	ctx, span := a.tracer.Start(ctx, "lyra.submit")
	defer span.End()

	data, err := a.abi.Pack(methodOpenPosition, p)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
	}

	from := a.signer.Address()
	nonce, err := a.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, classify(err, "pending nonce")
	}
	price, err := a.gas.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	gasLimit, err := a.gas.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		To:       &market,
		GasPrice: price.Wei,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}
	if a.config.MaxGas > 0 && gasLimit > a.config.MaxGas {
		gasLimit = a.config.MaxGas
	}

	tx, err := a.signer.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &market,
		Value:    new(big.Int),
		Gas:      gasLimit,
		GasPrice: price.Wei,
		Data:     data,
	}), a.config.ChainID)
	if err != nil {
		return nil, apperror.New(apperror.CodeInternalError, apperror.WithContext("sign transaction"), apperror.WithCause(err))
	}

	hash, err := a.sendCB.Execute(func() (common.Hash, error) {
		return tx.Hash(), a.backend.SendTransaction(ctx, tx)
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, "send transaction")
	}

	span.SetAttributes(
		attribute.String("tx", hash.Hex()),
		attribute.Int64("nonce", int64(nonce)),
		attribute.Int64("gas_limit", int64(gasLimit)),
	)
	a.logger.Info(ctx, "lyra transaction sent", "tx", hash.Hex(), "nonce", nonce, "gas_limit", gasLimit, "gwei", price.Gwei())

	return a.waitReceipt(ctx, hash)
}

// waitReceipt polls until the transaction is mined or ctx ends.
func (a *Adapter) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	start := time.Now()
	ticker := time.NewTicker(a.config.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := a.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			a.metrics.receiptWait.Record(ctx, time.Since(start).Seconds())
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			a.logger.Debug(ctx, "receipt poll failed", "tx", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeServiceTimeout,
				apperror.WithContext("waiting for receipt of "+hash.Hex()),
				apperror.WithCause(ctx.Err()))
		case <-ticker.C:
		}
	}
}

// classify maps node errors onto the venue taxonomy. A revert is the market
// refusing the trade; anything else means the node could not be reached.
func classify(err error, op string) error {
	if apperror.HasCode(err, apperror.CodeCircuitOpen) {
		return err
	}
	if isRevert(err) {
		return apperror.New(apperror.CodeOrderRejected, apperror.WithContext(op), apperror.WithCause(err))
	}
	return apperror.New(apperror.CodeConnectionError, apperror.WithContext(op), apperror.WithCause(err))
}

func isRevert(err error) bool {
	if err == nil {
		return false
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
