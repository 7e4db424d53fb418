package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/business/trading/domain"
)

func testArb(typ domain.OptionType, strike string) domain.Arb {
	k := decimal.RequireFromString(strike)
	exp := time.Date(2022, 12, 30, 8, 0, 0, 0, time.UTC)
	return domain.Arb{
		Buy: domain.Instrument{
			Type: typ, Provider: domain.ProviderDeribit, Strike: k, Expiration: exp,
			Term: "30DEC22", ID: "ETH-30DEC22-" + strike + "-" + string(typ[0]),
			Ask: decimal.NewFromInt(40),
		},
		Sell: domain.Instrument{
			Type: typ, Provider: domain.ProviderLyra, Strike: k, Expiration: exp,
			Term: "30DEC22", ID: "42",
			Bid: decimal.NewFromInt(55),
		},
		Strike:     k,
		Term:       "30DEC22",
		Expiration: exp,
		Amount:     decimal.NewFromInt(15),
		Type:       typ,
	}
}

func testStrategy() domain.StrategyConfig {
	return domain.StrategyConfig{
		Market:            domain.ETH,
		OptionTypes:       []domain.OptionType{domain.Call, domain.Put},
		TradeSize:         decimal.RequireFromString("0.01"),
		CollateralPercent: decimal.NewFromInt(50),
		IsBuyFirst:        true,
		LegTimeout:        2 * time.Second,
	}
}

type fakeExecutor struct {
	provider domain.Provider

	mu    sync.Mutex
	calls []domain.TradeArgs
	fn    func(ctx context.Context, args domain.TradeArgs) domain.TradeResult
}

func newFakeExecutor(p domain.Provider, fn func(ctx context.Context, args domain.TradeArgs) domain.TradeResult) *fakeExecutor {
	return &fakeExecutor{provider: p, fn: fn}
}

func filling(price string) func(context.Context, domain.TradeArgs) domain.TradeResult {
	return func(_ context.Context, args domain.TradeArgs) domain.TradeResult {
		return domain.SuccessResult(args.Provider, decimal.RequireFromString(price), nil)
	}
}

func failing(reason string) func(context.Context, domain.TradeArgs) domain.TradeResult {
	return func(_ context.Context, args domain.TradeArgs) domain.TradeResult {
		return domain.FailureResult(args.Provider, "ORDER_REJECTED", reason)
	}
}

func (f *fakeExecutor) Provider() domain.Provider { return f.provider }

func (f *fakeExecutor) Execute(ctx context.Context, args domain.TradeArgs) domain.TradeResult {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	return f.fn(ctx, args)
}

func (f *fakeExecutor) Calls() []domain.TradeArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TradeArgs(nil), f.calls...)
}

type reportCall struct {
	attempt string
	leg     int
	isBuy   bool
	isLast  bool
	result  domain.TradeResult
}

type recordingReporter struct {
	mu    sync.Mutex
	calls []reportCall
}

func (r *recordingReporter) ReportTrade(ctx context.Context, _ domain.Arb, result domain.TradeResult,
	_ domain.StrategyConfig, leg int, isBuy, isLast bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reportCall{
		attempt: AttemptFromContext(ctx), leg: leg, isBuy: isBuy, isLast: isLast, result: result,
	})
}

func (r *recordingReporter) Calls() []reportCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reportCall(nil), r.calls...)
}

type fakeLock struct {
	mu       sync.Mutex
	err      error
	keys     []string
	released int
}

func (l *fakeLock) Acquire(_ context.Context, keys []string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = keys
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

type fakeSource struct {
	arbs []domain.Arb
	err  error
}

func (s fakeSource) GetOpportunities(context.Context, domain.Underlying, domain.StrategyConfig) ([]domain.Arb, error) {
	return s.arbs, s.err
}

var errSourceDown = errors.New("source down")
