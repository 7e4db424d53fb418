package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func TestGasPrice_Gwei(t *testing.T) {
	p := NewGasPrice(big.NewInt(1_500_000_000))
	if got := p.Gwei(); got != 1.5 {
		t.Errorf("Gwei() = %v, want 1.5", got)
	}
	if NewGasPrice(nil).Wei.Sign() != 0 {
		t.Error("nil wei should be zero")
	}
}

func TestGasPrice_Capped(t *testing.T) {
	max := big.NewInt(100)
	tests := []struct {
		name string
		wei  int64
		want int64
	}{
		{"below", 50, 50},
		{"equal", 100, 100},
		{"above", 500, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewGasPrice(big.NewInt(tt.wei)).Capped(max)
			if got.Wei.Int64() != tt.want {
				t.Errorf("Capped() = %s, want %d", got.Wei, tt.want)
			}
		})
	}
}

func TestGasEstimate_Fee(t *testing.T) {
	e := NewGasEstimate(21000, NewGasPrice(big.NewInt(1_000_000_000)))
	if e.FeeWei().String() != "21000000000000" {
		t.Errorf("FeeWei() = %s", e.FeeWei())
	}
	if !e.FeeEther().Equal(decimal.RequireFromString("0.000021")) {
		t.Errorf("FeeEther() = %s", e.FeeEther())
	}
}

func TestNewTokenBalance(t *testing.T) {
	raw, _ := new(big.Int).SetString("1250000000000000000", 10)
	b := NewTokenBalance("sUSD", common.Address{}, raw, 18)
	if !b.Balance.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("Balance = %s, want 1.25", b.Balance)
	}
}
