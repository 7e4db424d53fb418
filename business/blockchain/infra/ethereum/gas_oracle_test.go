package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

type fakeGasBackend struct {
	price       *big.Int
	priceErr    error
	gas         uint64
	estimateErr error
	priceCalls  atomic.Int32
}

func (f *fakeGasBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.priceCalls.Add(1)
	return f.price, f.priceErr
}

func (f *fakeGasBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.gas, f.estimateErr
}

func newOracle(t *testing.T, b GasBackend) *GasOracle {
	t.Helper()
	cfg := DefaultGasOracleConfig()
	cfg.CacheTTL = time.Minute
	g, err := NewGasOracle(b, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewGasOracle() error = %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGasOracle_GetGasPriceCaches(t *testing.T) {
	b := &fakeGasBackend{price: big.NewInt(1_000_000)}
	g := newOracle(t, b)

	for i := 0; i < 3; i++ {
		p, err := g.GetGasPrice(context.Background())
		if err != nil {
			t.Fatalf("GetGasPrice() error = %v", err)
		}
		if p.Wei.Int64() != 1_000_000 {
			t.Errorf("Wei = %s", p.Wei)
		}
	}
	if n := b.priceCalls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}

func TestGasOracle_GetGasPriceCapped(t *testing.T) {
	g := newOracle(t, &fakeGasBackend{price: big.NewInt(900_000_000_000)})

	p, err := g.GetGasPrice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Wei.Cmp(DefaultGasOracleConfig().MaxGasPrice) != 0 {
		t.Errorf("Wei = %s, want cap", p.Wei)
	}
}

func TestGasOracle_GetGasPriceError(t *testing.T) {
	g := newOracle(t, &fakeGasBackend{priceErr: errors.New("503 service unavailable")})

	_, err := g.GetGasPrice(context.Background())
	if !apperror.HasCode(err, apperror.CodeEthereumRPCError) {
		t.Errorf("error = %v, want ETHEREUM_RPC_ERROR", err)
	}
}

func TestGasOracle_GetGasPriceCircuitOpens(t *testing.T) {
	g := newOracle(t, &fakeGasBackend{priceErr: errors.New("timeout")})

	var err error
	for i := 0; i < 6; i++ {
		_, err = g.GetGasPrice(context.Background())
	}
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("error after repeated failures = %v, want CIRCUIT_OPEN", err)
	}
}

func TestGasOracle_EstimateGas(t *testing.T) {
	to := common.HexToAddress("0x01")
	tests := []struct {
		name    string
		backend *fakeGasBackend
		want    uint64
	}{
		{"margin applied", &fakeGasBackend{gas: 100_000}, 120_000},
		{"fallback on failure", &fakeGasBackend{estimateErr: errors.New("execution reverted")}, DefaultGasOracleConfig().DefaultGas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newOracle(t, tt.backend)
			got, err := g.EstimateGas(context.Background(), ethereum.CallMsg{To: &to})
			if err != nil {
				t.Fatalf("EstimateGas() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EstimateGas() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGasOracle_Estimate(t *testing.T) {
	g := newOracle(t, &fakeGasBackend{price: big.NewInt(10), gas: 1000})

	e, err := g.Estimate(context.Background(), ethereum.CallMsg{})
	if err != nil {
		t.Fatal(err)
	}
	if e.GasLimit != 1200 || e.FeeWei().Int64() != 12000 {
		t.Errorf("estimate = limit %d fee %s", e.GasLimit, e.FeeWei())
	}
}
