// Package blockchain implements the Optimism chain context: gas quotes for
// the on-chain venue and wallet balance reporting.
package blockchain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/options-arb/business/blockchain/app"
	blockchainDI "github.com/fd1az/options-arb/business/blockchain/di"
	"github.com/fd1az/options-arb/business/blockchain/infra/ethereum"
	"github.com/fd1az/options-arb/internal/asset"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/di"
	"github.com/fd1az/options-arb/internal/logger"
	"github.com/fd1az/options-arb/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracle, err := ethereum.NewGasOracle(client, ethereum.DefaultGasOracleConfig(), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BalanceReader, func(sr di.ServiceRegistry) app.BalanceReader {
		client := sr.Get("ethClient").(*ethclient.Client)

		reader, err := ethereum.NewBalanceReader(client)
		if err != nil {
			panic("failed to create balance reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, blockchainDI.WalletService, func(sr di.ServiceRegistry) *app.WalletService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		return app.NewWalletService(blockchainDI.GetBalanceReader(sr), walletTokens(cfg, registry), log)
	})

	return nil
}

// walletTokens lists the stable token plus every synth the registry knows.
func walletTokens(cfg *config.Config, registry *asset.Registry) []app.Token {
	var tokens []app.Token
	seen := make(map[common.Address]bool)

	if common.IsHexAddress(cfg.Lyra.StableAddress) {
		addr := common.HexToAddress(cfg.Lyra.StableAddress)
		tokens = append(tokens, app.Token{Symbol: cfg.Lyra.StableToken, Address: addr, Decimals: 18})
		seen[addr] = true
	}
	for _, a := range registry.Tokens() {
		if seen[a.Address] {
			continue
		}
		tokens = append(tokens, app.Token{Symbol: a.Symbol, Address: a.Address, Decimals: int32(a.Decimals)})
		seen[a.Address] = true
	}
	return tokens
}

// Startup checks the node is reachable. The module stays usable when it is
// not; on-chain legs fail individually instead.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if _, err := blockchainDI.GetGasOracle(mono.Services()).GetGasPrice(ctx); err != nil {
		log.Warn(ctx, "optimism node unreachable at startup", "error", err)
	}

	log.Info(ctx, "blockchain module started", "chain_id", mono.Config().Optimism.ChainID)
	return nil
}
