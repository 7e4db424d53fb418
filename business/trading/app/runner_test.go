package app

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

func newTestRunner(t *testing.T, src OpportunitySource, execs ...TradeExecutor) *Runner {
	t.Helper()
	c := newTestCoordinator(t, nil, execs)
	return NewRunner(src, c, RunnerConfig{
		Market:   domain.ETH,
		Strategy: testStrategy(),
		Interval: time.Hour,
		Once:     true,
	}, logger.NewNop())
}

func TestRunner_AttemptOnce(t *testing.T) {
	t.Run("no opportunities", func(t *testing.T) {
		deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
		r := newTestRunner(t, fakeSource{}, deribit)

		_, ok, err := r.AttemptOnce(context.Background())
		if err != nil || ok {
			t.Errorf("AttemptOnce() ok=%v err=%v, want false nil", ok, err)
		}
		if len(deribit.Calls()) != 0 {
			t.Error("executor called without an opportunity")
		}
	})

	t.Run("source failure", func(t *testing.T) {
		r := newTestRunner(t, fakeSource{err: errSourceDown})

		_, _, err := r.AttemptOnce(context.Background())
		if apperror.GetCode(err) != apperror.CodeOpportunitySource {
			t.Errorf("AttemptOnce() error = %v, want OPPORTUNITY_SOURCE_FAILED", err)
		}
	})

	t.Run("executes first arb", func(t *testing.T) {
		deribit := newFakeExecutor(domain.ProviderDeribit, filling("40"))
		lyra := newFakeExecutor(domain.ProviderLyra, filling("55"))
		src := fakeSource{arbs: []domain.Arb{testArb(domain.Put, "1500"), testArb(domain.Call, "2000")}}
		r := newTestRunner(t, src, deribit, lyra)

		exec, ok, err := r.AttemptOnce(context.Background())
		if err != nil || !ok {
			t.Fatalf("AttemptOnce() ok=%v err=%v", ok, err)
		}
		if exec.Status != domain.StatusCompleted {
			t.Errorf("Status = %s", exec.Status)
		}
		if got := deribit.Calls()[0].InstrumentID; got != "ETH-30DEC22-1500-P" {
			t.Errorf("first leg instrument = %q, want the first candidate", got)
		}
	})
}

func TestRunner_RunOnceReturns(t *testing.T) {
	r := newTestRunner(t, fakeSource{})

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() with Once did not return")
	}
}

func TestRunner_StopsOnCancel(t *testing.T) {
	r := newTestRunner(t, fakeSource{})
	r.config.Once = false
	r.config.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
