package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TokenBalance is an ERC20 balance scaled by the token's decimals.
type TokenBalance struct {
	Symbol  string
	Token   common.Address
	Raw     *big.Int
	Balance decimal.Decimal
}

// NewTokenBalance scales raw by decimals.
func NewTokenBalance(symbol string, token common.Address, raw *big.Int, decimals int32) TokenBalance {
	if raw == nil {
		raw = new(big.Int)
	}
	return TokenBalance{
		Symbol:  symbol,
		Token:   token,
		Raw:     raw,
		Balance: decimal.NewFromBigInt(raw, -decimals),
	}
}

// WalletBalances is a point-in-time view of the signing wallet.
type WalletBalances struct {
	Address common.Address
	Ether   decimal.Decimal
	Tokens  []TokenBalance
}
