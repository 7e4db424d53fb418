package app

import (
	"context"

	"github.com/shopspring/decimal"
)

type (
	attemptKey struct{}
	sizeKey    struct{}
)

// ContextWithAttempt tags ctx with the id of the running attempt.
func ContextWithAttempt(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptKey{}, id)
}

// AttemptFromContext returns the attempt id set by the coordinator, or "".
func AttemptFromContext(ctx context.Context) string {
	id, _ := ctx.Value(attemptKey{}).(string)
	return id
}

// ContextWithSize tags ctx with the size both legs of the attempt trade.
func ContextWithSize(ctx context.Context, size decimal.Decimal) context.Context {
	return context.WithValue(ctx, sizeKey{}, size)
}

// SizeFromContext returns the attempt size set by the coordinator.
func SizeFromContext(ctx context.Context) (decimal.Decimal, bool) {
	size, ok := ctx.Value(sizeKey{}).(decimal.Decimal)
	return size, ok
}
