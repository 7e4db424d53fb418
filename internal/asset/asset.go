// Package asset describes the on-chain tokens the wallet holds and converts
// between human amounts and token base units.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Asset is a native coin or an ERC20 token on one chain.
type Asset struct {
	Symbol   string
	Name     string
	ChainID  uint64
	Address  common.Address // zero for native coins
	Decimals uint8
	Native   bool
}

// NewToken describes an ERC20 token.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return &Asset{Symbol: symbol, Name: name, ChainID: chainID, Address: address, Decimals: decimals}
}

// NewNative describes a chain's native coin.
func NewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	return &Asset{Symbol: symbol, Name: name, ChainID: chainID, Decimals: decimals, Native: true}
}

// Key uniquely identifies the asset across chains.
func (a *Asset) Key() string {
	if a.Native {
		return fmt.Sprintf("%d:native", a.ChainID)
	}
	return fmt.Sprintf("%d:%s", a.ChainID, a.Address.Hex())
}

func (a *Asset) String() string {
	return fmt.Sprintf("%s(%d)", a.Symbol, a.ChainID)
}
