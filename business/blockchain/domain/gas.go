// Package domain holds the chain-level value types shared by the on-chain
// venue and the wallet reporter.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice is a legacy gas price quote.
type GasPrice struct {
	Wei       *big.Int
	FetchedAt time.Time
}

// NewGasPrice wraps wei. A nil wei is treated as zero.
func NewGasPrice(wei *big.Int) *GasPrice {
	if wei == nil {
		wei = new(big.Int)
	}
	return &GasPrice{Wei: new(big.Int).Set(wei), FetchedAt: time.Now()}
}

// Gwei returns the price in gwei.
func (p *GasPrice) Gwei() float64 {
	f, _ := decimal.NewFromBigInt(p.Wei, -9).Float64()
	return f
}

// Capped returns p, or a price of max when p exceeds it.
func (p *GasPrice) Capped(max *big.Int) *GasPrice {
	if max == nil || p.Wei.Cmp(max) <= 0 {
		return p
	}
	return &GasPrice{Wei: new(big.Int).Set(max), FetchedAt: p.FetchedAt}
}

// GasEstimate is a gas limit paired with the price it was quoted at.
type GasEstimate struct {
	GasLimit uint64
	Price    *GasPrice
}

// NewGasEstimate builds an estimate.
func NewGasEstimate(limit uint64, price *GasPrice) *GasEstimate {
	return &GasEstimate{GasLimit: limit, Price: price}
}

// FeeWei is the maximum fee the transaction can burn.
func (e *GasEstimate) FeeWei() *big.Int {
	return new(big.Int).Mul(e.Price.Wei, new(big.Int).SetUint64(e.GasLimit))
}

// FeeEther is FeeWei in ether.
func (e *GasEstimate) FeeEther() decimal.Decimal {
	return decimal.NewFromBigInt(e.FeeWei(), -18)
}
