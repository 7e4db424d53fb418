package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/business/blockchain/domain"
	"github.com/fd1az/options-arb/internal/logger"
)

// Token is an ERC20 the wallet service reports on.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

// WalletService reports the signing wallet's balances. It only observes;
// it never blocks a trade on a low balance.
type WalletService struct {
	reader BalanceReader
	tokens []Token
	logger logger.LoggerInterface
}

// NewWalletService creates a WalletService for tokens.
func NewWalletService(reader BalanceReader, tokens []Token, log logger.LoggerInterface) *WalletService {
	return &WalletService{reader: reader, tokens: tokens, logger: log}
}

// Balances reads ether and every configured token. A token that cannot be
// read is skipped and logged.
func (s *WalletService) Balances(ctx context.Context, account common.Address) (domain.WalletBalances, error) {
	wei, err := s.reader.EtherBalance(ctx, account)
	if err != nil {
		return domain.WalletBalances{}, err
	}

	out := domain.WalletBalances{
		Address: account,
		Ether:   decimal.NewFromBigInt(wei, -18),
	}
	for _, t := range s.tokens {
		raw, err := s.reader.TokenBalance(ctx, t.Address, account)
		if err != nil {
			s.logger.Warn(ctx, "token balance unavailable", "token", t.Symbol, "error", err)
			continue
		}
		out.Tokens = append(out.Tokens, domain.NewTokenBalance(t.Symbol, t.Address, raw, t.Decimals))
	}
	return out, nil
}

// LogBalances logs the wallet's balances at info level.
func (s *WalletService) LogBalances(ctx context.Context, account common.Address) {
	b, err := s.Balances(ctx, account)
	if err != nil {
		s.logger.Warn(ctx, "wallet balance unavailable", "account", account.Hex(), "error", err)
		return
	}

	args := []any{"account", b.Address.Hex(), "ETH", b.Ether.String()}
	for _, t := range b.Tokens {
		args = append(args, t.Symbol, t.Balance.String())
	}
	s.logger.Info(ctx, "wallet balances", args...)
}
