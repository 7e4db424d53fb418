// Package app defines the chain-facing ports used by the on-chain venue and
// the wallet reporter.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/options-arb/business/blockchain/domain"
)

// GasOracle quotes gas for Optimism transactions.
type GasOracle interface {
	// GetGasPrice returns the current legacy gas price, possibly cached.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// EstimateGas estimates gas for msg with a safety margin. It falls back
	// to the configured default limit when the node cannot estimate.
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// BalanceReader reads wallet balances.
type BalanceReader interface {
	EtherBalance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
}
