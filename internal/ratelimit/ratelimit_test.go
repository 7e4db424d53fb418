package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/options-arb/internal/apperror"
)

func TestLimiter_Burst(t *testing.T) {
	l := New("deribit", 1, 2)

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should allow two immediate requests")
	}
	if l.Allow() {
		t.Error("third immediate request should be limited")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := New("deribit", 0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if apperror.GetCode(err) != apperror.CodeRateLimitExceeded {
		t.Errorf("Wait() error = %v, want RATE_LIMIT_EXCEEDED", err)
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	l := New("off", 0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("request %d limited with rate disabled", i)
		}
	}
}
