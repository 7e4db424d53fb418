package lyra

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OptionType is the OptionMarket position enum.
type OptionType uint8

const (
	LongCall OptionType = iota
	LongPut
	ShortCallBase
	ShortCallQuote
	ShortPutQuote
)

func (t OptionType) String() string {
	switch t {
	case LongCall:
		return "LONG_CALL"
	case LongPut:
		return "LONG_PUT"
	case ShortCallBase:
		return "SHORT_CALL_BASE"
	case ShortCallQuote:
		return "SHORT_CALL_QUOTE"
	case ShortPutQuote:
		return "SHORT_PUT_QUOTE"
	}
	return "UNKNOWN"
}

// IsLong reports whether the position is bought.
func (t OptionType) IsLong() bool {
	return t == LongCall || t == LongPut
}

// OptionMarketABI covers OptionMarket.openPosition only.
const OptionMarketABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "strikeId", "type": "uint256"},
					{"internalType": "uint256", "name": "positionId", "type": "uint256"},
					{"internalType": "uint256", "name": "iterations", "type": "uint256"},
					{"internalType": "enum OptionMarket.OptionType", "name": "optionType", "type": "uint8"},
					{"internalType": "uint256", "name": "amount", "type": "uint256"},
					{"internalType": "uint256", "name": "setCollateralTo", "type": "uint256"},
					{"internalType": "uint256", "name": "minTotalCost", "type": "uint256"},
					{"internalType": "uint256", "name": "maxTotalCost", "type": "uint256"},
					{"internalType": "address", "name": "referrer", "type": "address"}
				],
				"internalType": "struct OptionMarket.TradeInputParameters",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "openPosition",
		"outputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "positionId", "type": "uint256"},
					{"internalType": "uint256", "name": "totalCost", "type": "uint256"},
					{"internalType": "uint256", "name": "totalFee", "type": "uint256"}
				],
				"internalType": "struct OptionMarket.Result",
				"name": "result",
				"type": "tuple"
			}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const methodOpenPosition = "openPosition"

// TradeInputParameters mirrors the openPosition argument tuple. Field names
// follow the ABI so the encoder can match them.
type TradeInputParameters struct {
	StrikeId        *big.Int
	PositionId      *big.Int
	Iterations      *big.Int
	OptionType      uint8
	Amount          *big.Int
	SetCollateralTo *big.Int
	MinTotalCost    *big.Int
	MaxTotalCost    *big.Int
	Referrer        common.Address
}

// OpenPositionResult mirrors the openPosition return tuple.
type OpenPositionResult struct {
	PositionId *big.Int
	TotalCost  *big.Int
	TotalFee   *big.Int
}

// maxUint256 leaves a cost bound open.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
