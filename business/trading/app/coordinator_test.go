package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

func newTestCoordinator(t *testing.T, reporter Reporter, execs []TradeExecutor, opts ...CoordinatorOption) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(NewExecutors(execs...), reporter, logger.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	c.newID = func() string { return "attempt-1" }
	return c
}

func TestCoordinator_BothLegsFill(t *testing.T) {
	deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
	lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
	rep := &recordingReporter{}
	c := newTestCoordinator(t, rep, []TradeExecutor{deribit, lyra})

	exec, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if exec.Status != domain.StatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", exec.Status)
	}
	if exec.Sell == nil || !exec.Sell.IsSuccess {
		t.Fatalf("Sell = %+v, want filled", exec.Sell)
	}
	if exec.AttemptID != "attempt-1" {
		t.Errorf("AttemptID = %q", exec.AttemptID)
	}
	for _, call := range rep.Calls() {
		if call.attempt != "attempt-1" {
			t.Errorf("leg %d reported under attempt %q", call.leg, call.attempt)
		}
	}

	buyCalls, sellCalls := deribit.Calls(), lyra.Calls()
	if len(buyCalls) != 1 || len(sellCalls) != 1 {
		t.Fatalf("calls deribit=%d lyra=%d, want 1 each", len(buyCalls), len(sellCalls))
	}

	buy, sell := buyCalls[0], sellCalls[0]
	if !buy.IsBuy || sell.IsBuy {
		t.Errorf("sides buy=%v sell=%v", buy.IsBuy, sell.IsBuy)
	}
	if !buy.Collateral.IsZero() {
		t.Errorf("buy collateral = %s, want 0", buy.Collateral)
	}
	if !sell.Collateral.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("sell collateral = %s, want 7.5", sell.Collateral)
	}
	if !sell.Size.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("sell size = %s, want 0.01", sell.Size)
	}
	if sell.InstrumentID != "42" || buy.InstrumentID != "ETH-30DEC22-1500-P" {
		t.Errorf("instrument ids buy=%q sell=%q", buy.InstrumentID, sell.InstrumentID)
	}
	if !sell.Base || sell.Stable != "sUSD" {
		t.Errorf("sell base=%v stable=%q", sell.Base, sell.Stable)
	}

	want := []reportCall{{leg: 1, isBuy: true, isLast: false}, {leg: 2, isBuy: false, isLast: true}}
	got := rep.Calls()
	if len(got) != len(want) {
		t.Fatalf("reporter calls = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].leg != want[i].leg || got[i].isBuy != want[i].isBuy || got[i].isLast != want[i].isLast {
			t.Errorf("report %d = (%d,%v,%v), want (%d,%v,%v)", i,
				got[i].leg, got[i].isBuy, got[i].isLast, want[i].leg, want[i].isBuy, want[i].isLast)
		}
	}

	if pnl := PnL(exec); !pnl.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("PnL = %s, want 0.15", pnl)
	}
}

func TestCoordinator_FailedBuySkipsSell(t *testing.T) {
	deribit := newFakeExecutor(domain.ProviderDeribit, failing("no trades"))
	lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
	rep := &recordingReporter{}
	c := newTestCoordinator(t, rep, []TradeExecutor{deribit, lyra})

	exec, err := c.Run(context.Background(), testArb(domain.Call, "2000"), domain.ETH, testStrategy())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if exec.Status != domain.StatusAborted {
		t.Errorf("Status = %s, want ABORTED", exec.Status)
	}
	if exec.Sell != nil {
		t.Errorf("Sell = %+v, want nil", exec.Sell)
	}
	if exec.Buy.IsSuccess {
		t.Error("Buy.IsSuccess = true")
	}
	if n := len(lyra.Calls()); n != 0 {
		t.Errorf("sell executor called %d times, want 0", n)
	}

	calls := rep.Calls()
	if len(calls) != 1 || calls[0].leg != 1 || !calls[0].isBuy || !calls[0].isLast {
		t.Errorf("reporter calls = %+v, want single (1,true,true)", calls)
	}
}

func TestCoordinator_FailedSellIsPartial(t *testing.T) {
	deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
	lyra := newFakeExecutor(domain.ProviderLyra, failing("reverted"))
	c := newTestCoordinator(t, &recordingReporter{}, []TradeExecutor{deribit, lyra})

	exec, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exec.Status != domain.StatusPartial {
		t.Errorf("Status = %s, want PARTIAL", exec.Status)
	}
	if !exec.Buy.IsSuccess || exec.Sell == nil || exec.Sell.IsSuccess {
		t.Errorf("legs buy=%+v sell=%+v", exec.Buy, exec.Sell)
	}
	if !PnL(exec).IsZero() {
		t.Error("PnL of partial execution should be zero")
	}
}

func TestCoordinator_RoutesByInstrumentProvider(t *testing.T) {
	deribit := newFakeExecutor(domain.ProviderDeribit, filling("60"))
	lyra := newFakeExecutor(domain.ProviderLyra, filling("45"))
	c := newTestCoordinator(t, nil, []TradeExecutor{deribit, lyra})

	arb := testArb(domain.Call, "2000")
	arb.Buy, arb.Sell = arb.Sell, arb.Buy

	if _, err := c.Run(context.Background(), arb, domain.ETH, testStrategy()); err != nil {
		t.Fatal(err)
	}

	if calls := lyra.Calls(); len(calls) != 1 || !calls[0].IsBuy {
		t.Errorf("lyra calls = %+v, want one buy", calls)
	}
	if calls := deribit.Calls(); len(calls) != 1 || calls[0].IsBuy {
		t.Errorf("deribit calls = %+v, want one sell", calls)
	}
}

func TestCoordinator_LegFailures(t *testing.T) {
	tests := []struct {
		name     string
		buyFn    func(context.Context, domain.TradeArgs) domain.TradeResult
		execs    func(buy *fakeExecutor) []TradeExecutor
		timeout  time.Duration
		wantCode apperror.Code
	}{
		{
			name: "timeout",
			buyFn: func(ctx context.Context, args domain.TradeArgs) domain.TradeResult {
				<-ctx.Done()
				time.Sleep(10 * time.Millisecond)
				return domain.SuccessResult(args.Provider, decimal.NewFromInt(1), nil)
			},
			execs:    func(b *fakeExecutor) []TradeExecutor { return []TradeExecutor{b} },
			timeout:  20 * time.Millisecond,
			wantCode: apperror.CodeLegTimeout,
		},
		{
			name: "panic",
			buyFn: func(context.Context, domain.TradeArgs) domain.TradeResult {
				panic("nil map")
			},
			execs:    func(b *fakeExecutor) []TradeExecutor { return []TradeExecutor{b} },
			timeout:  time.Second,
			wantCode: apperror.CodeInternalError,
		},
		{
			name:     "unknown provider",
			buyFn:    filling("1"),
			execs:    func(*fakeExecutor) []TradeExecutor { return nil },
			timeout:  time.Second,
			wantCode: apperror.CodeUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buy := newFakeExecutor(domain.ProviderDeribit, tt.buyFn)
			c := newTestCoordinator(t, &recordingReporter{}, tt.execs(buy))

			cfg := testStrategy()
			cfg.LegTimeout = tt.timeout

			exec, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, cfg)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if exec.Status != domain.StatusAborted {
				t.Errorf("Status = %s, want ABORTED", exec.Status)
			}
			if exec.Buy.FailCode != tt.wantCode {
				t.Errorf("FailCode = %s, want %s", exec.Buy.FailCode, tt.wantCode)
			}
		})
	}
}

func TestCoordinator_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	deribit := newFakeExecutor(domain.ProviderDeribit, func(_ context.Context, args domain.TradeArgs) domain.TradeResult {
		once.Do(func() { close(started) })
		<-release
		return domain.FailureResult(args.Provider, apperror.CodeOrderRejected, "")
	})
	c := newTestCoordinator(t, nil, []TradeExecutor{deribit})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy())
	}()

	<-started
	if !c.InProgress() {
		t.Error("InProgress() = false during attempt")
	}

	_, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy())
	if apperror.GetCode(err) != apperror.CodeAttemptInProgress {
		t.Errorf("second Run() error = %v, want ATTEMPT_IN_PROGRESS", err)
	}

	close(release)
	<-done

	if n := len(deribit.Calls()); n != 1 {
		t.Errorf("executor calls = %d, want 1", n)
	}
	if c.InProgress() {
		t.Error("InProgress() = true after attempt finished")
	}
}

func TestCoordinator_AdmissionLock(t *testing.T) {
	t.Run("held lock refuses attempt", func(t *testing.T) {
		deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
		lock := &fakeLock{err: errors.New("key exists")}
		c := newTestCoordinator(t, nil, []TradeExecutor{deribit}, WithAdmissionLock(lock, time.Minute))

		_, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy())
		if apperror.GetCode(err) != apperror.CodeLockHeld {
			t.Errorf("Run() error = %v, want LOCK_HELD", err)
		}
		if len(deribit.Calls()) != 0 {
			t.Error("executor called while lock held")
		}
	})

	t.Run("lock released after attempt", func(t *testing.T) {
		deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
		lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
		lock := &fakeLock{}
		c := newTestCoordinator(t, nil, []TradeExecutor{deribit, lyra}, WithAdmissionLock(lock, time.Minute))

		if _, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy()); err != nil {
			t.Fatal(err)
		}
		if lock.released != 1 {
			t.Errorf("released = %d, want 1", lock.released)
		}
		want := []string{"instrument:DERIBIT:ETH-30DEC22-1500-P", "instrument:LYRA:42"}
		if len(lock.keys) != 2 || lock.keys[0] != want[0] || lock.keys[1] != want[1] {
			t.Errorf("keys = %v, want %v", lock.keys, want)
		}
	})
}

func TestCoordinator_InvalidSizeRefused(t *testing.T) {
	deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
	zero := SizerFunc(func(domain.Arb, domain.StrategyConfig) decimal.Decimal { return decimal.Zero })
	c := newTestCoordinator(t, nil, []TradeExecutor{deribit}, WithSizer(zero))

	_, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy())
	if apperror.GetCode(err) != apperror.CodeInvalidAmount {
		t.Errorf("Run() error = %v, want INVALID_AMOUNT", err)
	}
	if len(deribit.Calls()) != 0 {
		t.Error("executor called with zero size")
	}
}

type countingObserver struct{ statuses []domain.ExecutionStatus }

func (o *countingObserver) OnExecution(_ context.Context, e domain.Execution) {
	o.statuses = append(o.statuses, e.Status)
}

func TestCoordinator_NotifiesObservers(t *testing.T) {
	deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
	lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
	obs := &countingObserver{}
	c := newTestCoordinator(t, nil, []TradeExecutor{deribit, lyra}, WithObserver(obs))

	if _, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, testStrategy()); err != nil {
		t.Fatal(err)
	}
	if len(obs.statuses) != 1 || obs.statuses[0] != domain.StatusCompleted {
		t.Errorf("observer statuses = %v", obs.statuses)
	}
}

func TestCoordinator_ParentCancelDoesNotInterruptLeg(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(cancel context.CancelFunc, started <-chan struct{}, release chan<- struct{})
		// cancelInLeg cancels from inside the buy executor right before it fills.
		cancelInLeg bool
	}{
		{
			name: "cancelled while buy in flight",
			cancel: func(cancel context.CancelFunc, started <-chan struct{}, release chan<- struct{}) {
				<-started
				cancel()
				time.Sleep(20 * time.Millisecond)
				close(release)
			},
		},
		{
			name:        "cancelled as buy fills",
			cancelInLeg: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			started := make(chan struct{})
			release := make(chan struct{})
			var legErr error
			deribit := newFakeExecutor(domain.ProviderDeribit, func(legCtx context.Context, args domain.TradeArgs) domain.TradeResult {
				if tt.cancelInLeg {
					cancel()
				} else {
					close(started)
					<-release
				}
				legErr = legCtx.Err()
				return domain.SuccessResult(args.Provider, decimal.NewFromInt(40), nil)
			})
			lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
			rep := &recordingReporter{}
			c := newTestCoordinator(t, rep, []TradeExecutor{deribit, lyra})

			if tt.cancel != nil {
				go tt.cancel(cancel, started, release)
			}

			exec, err := c.Run(ctx, testArb(domain.Put, "1500"), domain.ETH, testStrategy())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if legErr != nil {
				t.Errorf("buy leg context done mid-call: %v", legErr)
			}
			if !exec.Buy.IsSuccess {
				t.Fatalf("Buy = %+v, want filled", exec.Buy)
			}
			if exec.Status != domain.StatusPartial {
				t.Errorf("Status = %s, want PARTIAL", exec.Status)
			}
			if n := len(lyra.Calls()); n != 0 {
				t.Errorf("sell executor called %d times after cancellation", n)
			}
			if exec.Sell == nil || exec.Sell.FailCode != apperror.CodeAttemptCancelled {
				t.Errorf("Sell = %+v, want ATTEMPT_CANCELLED", exec.Sell)
			}

			calls := rep.Calls()
			if len(calls) != 2 || calls[1].leg != 2 || calls[1].isBuy || calls[1].result.IsSuccess {
				t.Errorf("reporter calls = %+v, want filled buy then failed sell", calls)
			}
		})
	}
}

func TestCoordinator_LateFillAfterDeadline(t *testing.T) {
	errorLogs := make(chan string, 4)
	log := logger.New(io.Discard, logger.LevelError, "test", func(_ context.Context, r slog.Record) {
		errorLogs <- r.Message
	})

	deribit := newFakeExecutor(domain.ProviderDeribit, func(_ context.Context, args domain.TradeArgs) domain.TradeResult {
		time.Sleep(60 * time.Millisecond)
		return domain.SuccessResult(args.Provider, decimal.NewFromInt(40), nil)
	})
	lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
	c, err := NewCoordinator(NewExecutors(deribit, lyra), &recordingReporter{}, log)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testStrategy()
	cfg.LegTimeout = 10 * time.Millisecond

	exec, err := c.Run(context.Background(), testArb(domain.Put, "1500"), domain.ETH, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exec.Status != domain.StatusAborted || exec.Buy.FailCode != apperror.CodeLegTimeout {
		t.Errorf("Status = %s, FailCode = %s, want ABORTED/LEG_TIMEOUT", exec.Status, exec.Buy.FailCode)
	}
	if n := len(lyra.Calls()); n != 0 {
		t.Errorf("sell executor called %d times after buy timeout", n)
	}

	select {
	case msg := <-errorLogs:
		if msg != "leg filled after its deadline" {
			t.Errorf("error log = %q", msg)
		}
	case <-time.After(time.Second):
		t.Error("late fill was not logged")
	}
}
