package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

const writeTimeout = 5 * time.Second

// Execer is the subset of pgxpool.Pool the store writes through.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const insertLeg = `
	INSERT INTO trade_legs (attempt_id, leg_number, side, provider, instrument, success, price, fail_code, fail_reason, raw, executed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (attempt_id, leg_number) DO NOTHING`

const insertAttempt = `
	INSERT INTO arb_attempts (id, label, option_type, strike, expiration, size, status, buy_provider, sell_provider, buy_price, sell_price, pnl, started_at, duration_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO NOTHING`

// TradeStore records every leg and every finished attempt. Write failures
// are logged and never reach the coordinator.
type TradeStore struct {
	db     Execer
	logger logger.LoggerInterface
}

// NewTradeStore creates a TradeStore.
func NewTradeStore(db Execer, log logger.LoggerInterface) *TradeStore {
	return &TradeStore{db: db, logger: log}
}

// ReportTrade implements app.Reporter.
func (s *TradeStore) ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
	_ domain.StrategyConfig, legNumber int, isBuyLeg, _ bool) {
	inst := arb.Sell
	side := "sell"
	if isBuyLeg {
		inst, side = arb.Buy, "buy"
	}

	var price, failCode, failReason any
	if result.IsSuccess {
		price = result.PricePerOption
	} else {
		failCode, failReason = string(result.FailCode), result.FailReason
	}

	attemptID := app.AttemptFromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, insertLeg,
		attemptID, legNumber, side, string(result.Provider), inst.ID,
		result.IsSuccess, price, failCode, failReason, rawJSON(result.Raw), result.ExecutedAt,
	)
	if err != nil {
		s.logger.Error(ctx, "failed to store trade leg",
			"error", apperror.New(apperror.CodeStoreError, apperror.WithCause(err)),
			"attempt_id", attemptID,
			"leg", legNumber,
		)
	}
}

// OnExecution implements app.ExecutionObserver.
func (s *TradeStore) OnExecution(ctx context.Context, exec domain.Execution) {
	var buyPrice, sellPrice, expiration any
	if exec.Buy.IsSuccess {
		buyPrice = exec.Buy.PricePerOption
	}
	if exec.Sell != nil && exec.Sell.IsSuccess {
		sellPrice = exec.Sell.PricePerOption
	}
	if !exec.Arb.Expiration.IsZero() {
		expiration = exec.Arb.Expiration
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, insertAttempt,
		exec.AttemptID, exec.Arb.Label(), string(exec.Arb.Type), exec.Arb.Strike, expiration,
		exec.Size, string(exec.Status), string(exec.Arb.Buy.Provider), string(exec.Arb.Sell.Provider),
		buyPrice, sellPrice, app.PnL(exec), exec.StartedAt, exec.Duration.Milliseconds(),
	)
	if err != nil {
		s.logger.Error(ctx, "failed to store attempt",
			"error", apperror.New(apperror.CodeStoreError, apperror.WithCause(err)),
			"attempt_id", exec.AttemptID,
		)
	}
}

func rawJSON(v any) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
