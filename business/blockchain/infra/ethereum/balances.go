package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/options-arb/business/blockchain/app"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/circuitbreaker"
)

// ERC20ABI covers the read-only calls the wallet reporter needs.
const ERC20ABI = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var _ app.BalanceReader = (*BalanceReader)(nil)

// BalanceBackend is the subset of ethclient.Client used for balances.
type BalanceBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BalanceReader reads ether and ERC20 balances at the latest block.
type BalanceReader struct {
	backend BalanceBackend
	erc20   abi.ABI
	cb      *circuitbreaker.CircuitBreaker[*big.Int]
}

// NewBalanceReader creates a BalanceReader.
func NewBalanceReader(backend BalanceBackend) (*BalanceReader, error) {
	parsed, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	return &BalanceReader{
		backend: backend,
		erc20:   parsed,
		cb:      circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("balance-reader")),
	}, nil
}

// EtherBalance implements app.BalanceReader.
func (r *BalanceReader) EtherBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := r.cb.Execute(func() (*big.Int, error) {
		return r.backend.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext("ether balance of "+account.Hex()),
			apperror.WithCause(err))
	}
	return bal, nil
}

// TokenBalance implements app.BalanceReader.
func (r *BalanceReader) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := r.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("encode balanceOf: %w", err)
	}

	bal, err := r.cb.Execute(func() (*big.Int, error) {
		out, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if err != nil {
			return nil, err
		}
		values, err := r.erc20.Unpack("balanceOf", out)
		if err != nil {
			return nil, err
		}
		if len(values) != 1 {
			return nil, fmt.Errorf("balanceOf returned %d values", len(values))
		}
		return abi.ConvertType(values[0], new(big.Int)).(*big.Int), nil
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("balanceOf %s on %s", account.Hex(), token.Hex())),
			apperror.WithCause(err))
	}
	return bal, nil
}
