package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/internal/apperror"
)

// TradeArgs is the venue-agnostic order for one leg. Collateral, Base and
// Stable only matter to on-chain venues.
type TradeArgs struct {
	Provider     Provider
	Market       Underlying
	Type         OptionType
	InstrumentID string
	Strike       decimal.Decimal
	Size         decimal.Decimal
	IsBuy        bool
	Collateral   decimal.Decimal
	// Base collateralises short calls in the underlying instead of the
	// stable token.
	Base   bool
	Stable string
}

// NewTradeArgs builds the order for one leg of arb.
func NewTradeArgs(inst Instrument, market Underlying, size, collateral decimal.Decimal, isBuy bool, stable string) TradeArgs {
	return TradeArgs{
		Provider:     inst.Provider,
		Market:       market,
		Type:         inst.Type,
		InstrumentID: inst.ID,
		Strike:       inst.Strike,
		Size:         size,
		IsBuy:        isBuy,
		Collateral:   collateral,
		Base:         true,
		Stable:       stable,
	}
}

// Side returns "buy" or "sell".
func (a TradeArgs) Side() string {
	if a.IsBuy {
		return "buy"
	}
	return "sell"
}

// TradeResult is the outcome of one leg. PricePerOption is only meaningful
// when IsSuccess is true.
type TradeResult struct {
	IsSuccess      bool
	PricePerOption decimal.Decimal
	Provider       Provider
	FailCode       apperror.Code
	FailReason     string
	ExecutedAt     time.Time
	// Raw holds the venue response for diagnostics. It is never interpreted
	// by the coordinator.
	Raw any
}

// SuccessResult builds a filled-leg result.
func SuccessResult(provider Provider, price decimal.Decimal, raw any) TradeResult {
	return TradeResult{
		IsSuccess:      true,
		PricePerOption: price,
		Provider:       provider,
		ExecutedAt:     time.Now(),
		Raw:            raw,
	}
}

// FailureResult is the single canonical way to describe a failed leg.
func FailureResult(provider Provider, code apperror.Code, reason string) TradeResult {
	if reason == "" {
		reason = apperror.Message(code)
	}
	return TradeResult{
		IsSuccess:      false,
		PricePerOption: decimal.Zero,
		Provider:       provider,
		FailCode:       code,
		FailReason:     reason,
		ExecutedAt:     time.Now(),
	}
}

// FailureFromError converts an adapter error into a failure result, keeping
// the error's code when it carries one.
func FailureFromError(provider Provider, fallback apperror.Code, err error) TradeResult {
	code := fallback
	if apperror.IsAppError(err) {
		code = apperror.GetCode(err)
	}
	reason := apperror.Message(code)
	if err != nil {
		reason = err.Error()
	}
	return FailureResult(provider, code, reason)
}

// ExecutionStatus summarises a two-leg attempt.
type ExecutionStatus string

const (
	// StatusCompleted means both legs filled.
	StatusCompleted ExecutionStatus = "COMPLETED"
	// StatusAborted means the buy leg failed and the sell leg was skipped.
	StatusAborted ExecutionStatus = "ABORTED"
	// StatusPartial means the buy leg filled and the sell leg failed. The
	// position is unhedged.
	StatusPartial ExecutionStatus = "PARTIAL"
)

// Execution is what one coordinator run produced. Sell is nil when the sell
// leg never ran.
type Execution struct {
	AttemptID string
	Arb       Arb
	Size      decimal.Decimal
	Buy       TradeResult
	Sell      *TradeResult
	Status    ExecutionStatus
	StartedAt time.Time
	Duration  time.Duration
}

// StatusOf derives the status from leg results.
func StatusOf(buy TradeResult, sell *TradeResult) ExecutionStatus {
	switch {
	case !buy.IsSuccess:
		return StatusAborted
	case sell == nil || !sell.IsSuccess:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

// Spread returns sell minus buy price per option for a completed execution.
func (e Execution) Spread() (decimal.Decimal, bool) {
	if e.Status != StatusCompleted || e.Sell == nil {
		return decimal.Zero, false
	}
	return e.Sell.PricePerOption.Sub(e.Buy.PricePerOption), true
}
