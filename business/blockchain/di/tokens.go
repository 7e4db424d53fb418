// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/options-arb/business/blockchain/app"
	"github.com/fd1az/options-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	GasOracle     = di.NewToken[app.GasOracle]("blockchain.GasOracle")
	WalletService = di.NewToken[*app.WalletService]("blockchain.WalletService")
)

// Private dependency tokens - internal to blockchain module
var (
	BalanceReader = di.NewToken[app.BalanceReader]("blockchain:balanceReader")
)

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetWalletService(c di.ServiceRegistry) *app.WalletService {
	return di.GetToken(c, WalletService)
}

func GetBalanceReader(c di.ServiceRegistry) app.BalanceReader {
	return di.GetToken(c, BalanceReader)
}
