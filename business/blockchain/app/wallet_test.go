package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/internal/logger"
)

type fakeReader struct {
	ether    *big.Int
	etherErr error
	tokens   map[common.Address]*big.Int
}

func (f *fakeReader) EtherBalance(context.Context, common.Address) (*big.Int, error) {
	return f.ether, f.etherErr
}

func (f *fakeReader) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f.tokens[token]; ok {
		return b, nil
	}
	return nil, errors.New("execution reverted")
}

func TestWalletService_Balances(t *testing.T) {
	susd := common.HexToAddress("0x8c6f28f2F1A3C87F0f938b96d27520d9751ec8d9")
	seth := common.HexToAddress("0xE405de8F52ba7559f9df3C368500B6E6ae6Cee49")
	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)
	usd, _ := new(big.Int).SetString("2500500000000000000000", 10)

	reader := &fakeReader{ether: oneEther, tokens: map[common.Address]*big.Int{susd: usd}}
	svc := NewWalletService(reader, []Token{
		{Symbol: "sUSD", Address: susd, Decimals: 18},
		{Symbol: "sETH", Address: seth, Decimals: 18},
	}, logger.NewNop())

	got, err := svc.Balances(context.Background(), common.HexToAddress("0x01"))
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	if !got.Ether.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Ether = %s, want 1", got.Ether)
	}
	if len(got.Tokens) != 1 {
		t.Fatalf("Tokens = %+v, want only sUSD", got.Tokens)
	}
	if !got.Tokens[0].Balance.Equal(decimal.RequireFromString("2500.5")) {
		t.Errorf("sUSD = %s, want 2500.5", got.Tokens[0].Balance)
	}
}

func TestWalletService_BalancesEtherFailure(t *testing.T) {
	svc := NewWalletService(&fakeReader{etherErr: errors.New("dial tcp: refused")}, nil, logger.NewNop())

	if _, err := svc.Balances(context.Background(), common.Address{}); err == nil {
		t.Fatal("Balances() should fail when ether balance is unavailable")
	}
	// Logging never panics on failure.
	svc.LogBalances(context.Background(), common.Address{})
}
