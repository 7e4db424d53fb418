package asset

import "github.com/ethereum/go-ethereum/common"

const ChainIDOptimism = 10

// Synthetix synths on Optimism. Lyra markets settle in sUSD.
var (
	AddrSUSD = common.HexToAddress("0x8c6f28f2F1A3C87F0f938b96d27520d9751ec8d9")
	AddrSETH = common.HexToAddress("0xE405de8F52ba7559f9df3C368500B6E6ae6Cee49")
	AddrSBTC = common.HexToAddress("0x298B9B95708152ff6968aafd889c6586e9169f1D")
)

var (
	ETH  = NewNative(ChainIDOptimism, "ETH", "Ether", 18)
	SUSD = NewToken(ChainIDOptimism, AddrSUSD, "sUSD", "Synth sUSD", 18)
	SETH = NewToken(ChainIDOptimism, AddrSETH, "sETH", "Synth sETH", 18)
	SBTC = NewToken(ChainIDOptimism, AddrSBTC, "sBTC", "Synth sBTC", 18)
)

// DefaultRegistry returns a registry holding the Optimism assets above.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{ETH, SUSD, SETH, SBTC} {
		_ = r.Register(a)
	}
	return r
}
