// Package trading implements the trading bounded context: venue adapters,
// the two-leg coordinator and the reporters that record each attempt.
package trading

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	blockchainDI "github.com/fd1az/options-arb/business/blockchain/di"
	"github.com/fd1az/options-arb/business/trading/app"
	tradingDI "github.com/fd1az/options-arb/business/trading/di"
	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/business/trading/infra/deribit"
	"github.com/fd1az/options-arb/business/trading/infra/lyra"
	"github.com/fd1az/options-arb/business/trading/infra/opportunity"
	"github.com/fd1az/options-arb/business/trading/infra/postgres"
	"github.com/fd1az/options-arb/business/trading/infra/redislock"
	"github.com/fd1az/options-arb/business/trading/infra/reporter"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/di"
	"github.com/fd1az/options-arb/internal/logger"
	"github.com/fd1az/options-arb/internal/monolith"
	"github.com/fd1az/options-arb/internal/notify"
)

// Module implements the trading bounded context.
type Module struct{}

// RegisterServices registers all trading services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradingDI.Executors, func(sr di.ServiceRegistry) app.Executors {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var execs []app.TradeExecutor
		if cfg.Deribit.Enabled {
			a, err := deribit.NewAdapter(deribit.ConfigFrom(cfg.Deribit), nil, log)
			if err != nil {
				panic("failed to create deribit adapter: " + err.Error())
			}
			execs = append(execs, a)
		}
		if cfg.Lyra.Enabled {
			execs = append(execs, newLyraAdapter(sr, cfg, log))
		}
		return app.NewExecutors(execs...)
	})

	di.RegisterToken(c, tradingDI.Notifier, func(sr di.ServiceRegistry) *notify.Notifier {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var senders []notify.Sender
		if n := cfg.Notify; n.DiscordWebhookID != "" && n.DiscordWebhookToken != "" {
			d, err := notify.NewDiscordSender(n.DiscordWebhookID, n.DiscordWebhookToken)
			if err != nil {
				panic("failed to create discord sender: " + err.Error())
			}
			senders = append(senders, d)
		}
		if n := cfg.Notify; n.TelegramBotToken != "" && n.TelegramChatID != "" {
			t, err := notify.NewTelegramSender(n.TelegramBotToken, n.TelegramChatID, "")
			if err != nil {
				panic("failed to create telegram sender: " + err.Error())
			}
			senders = append(senders, t)
		}
		return notify.NewNotifier(log, senders...)
	})

	di.RegisterToken(c, tradingDI.TUIReporter, func(sr di.ServiceRegistry) *reporter.TUIReporter {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.App.TUIMode {
			return nil
		}
		return reporter.NewTUIReporter(nil)
	})

	di.RegisterToken(c, tradingDI.PostgresClient, func(sr di.ServiceRegistry) *postgres.Client {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Postgres.Enabled {
			return nil
		}
		client, err := postgres.New(context.Background(), cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			panic("failed to connect to postgres: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, tradingDI.RedisClient, func(sr di.ServiceRegistry) *redis.Client {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Redis.Enabled {
			return nil
		}
		rdb, err := redislock.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			panic("failed to connect to redis: " + err.Error())
		}
		return rdb
	})

	di.RegisterToken(c, tradingDI.AdmissionLock, func(sr di.ServiceRegistry) app.AdmissionLock {
		rdb := tradingDI.GetRedisClient(sr)
		if rdb == nil {
			return nil
		}
		return redislock.New(rdb)
	})

	di.RegisterToken(c, tradingDI.Reporter, func(sr di.ServiceRegistry) *reporter.MultiReporter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		multi := reporter.NewMultiReporter(reporter.NewLogReporter(log))
		if tui := tradingDI.GetTUIReporter(sr); tui != nil {
			multi.Add(tui)
		} else {
			multi.Add(reporter.NewConsoleReporter(nil))
		}
		if n := tradingDI.GetNotifier(sr); n.Enabled() {
			multi.Add(reporter.NewNotifyReporter(n, log))
		}
		if pg := tradingDI.GetPostgresClient(sr); pg != nil {
			multi.Add(postgres.NewTradeStore(pg.Pool(), log))
		}
		log.Info(context.Background(), "trade reporters configured", "count", multi.Len(), "tui", cfg.App.TUIMode)
		return multi
	})

	di.RegisterToken(c, tradingDI.Coordinator, func(sr di.ServiceRegistry) *app.Coordinator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		multi := tradingDI.GetReporter(sr)

		opts := []app.CoordinatorOption{
			app.WithStableToken(cfg.Lyra.StableToken),
			app.WithObserver(multi),
		}
		if cfg.Strategy.Sizer == "capped" {
			opts = append(opts, app.WithSizer(app.CappedSizer))
		}
		if lock := tradingDI.GetAdmissionLock(sr); lock != nil {
			opts = append(opts, app.WithAdmissionLock(lock, cfg.Redis.LockTTL))
		}

		coord, err := app.NewCoordinator(tradingDI.GetExecutors(sr), multi, log, opts...)
		if err != nil {
			panic("failed to create coordinator: " + err.Error())
		}
		return coord
	})

	di.RegisterToken(c, tradingDI.OpportunitySource, func(sr di.ServiceRegistry) app.OpportunitySource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return opportunity.NewFileSource(cfg.Runner.OpportunitiesFile, log)
	})

	di.RegisterToken(c, tradingDI.Runner, func(sr di.ServiceRegistry) *app.Runner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		strategy, err := StrategyFrom(cfg.Strategy)
		if err != nil {
			panic("invalid strategy: " + err.Error())
		}
		return app.NewRunner(
			tradingDI.GetOpportunitySource(sr),
			tradingDI.GetCoordinator(sr),
			app.RunnerConfig{
				Market:   strategy.Market,
				Strategy: strategy,
				Interval: cfg.Runner.Interval,
				Once:     cfg.Runner.Once,
			},
			log,
		)
	})

	return nil
}

// newLyraAdapter wires the on-chain adapter. A missing or bad key leaves
// the adapter unsigned so its legs fail with MISSING_CREDENTIALS.
func newLyraAdapter(sr di.ServiceRegistry, cfg *config.Config, log logger.LoggerInterface) *lyra.Adapter {
	client := sr.Get("ethClient").(*ethclient.Client)

	var signer *lyra.Signer
	if cfg.Lyra.PrivateKey != "" {
		s, err := lyra.NewSigner(cfg.Lyra.PrivateKey)
		if err != nil {
			log.Error(context.Background(), "lyra private key rejected, on-chain legs disabled", "error", err)
		} else {
			signer = s
		}
	}

	a, err := lyra.NewAdapter(lyra.ConfigFrom(cfg.Lyra, cfg.Optimism), client, blockchainDI.GetGasOracle(sr), signer, log)
	if err != nil {
		panic("failed to create lyra adapter: " + err.Error())
	}
	return a
}

// StrategyFrom converts the configured strategy into its domain form.
func StrategyFrom(c config.StrategyConfig) (domain.StrategyConfig, error) {
	market, err := domain.ParseUnderlying(c.Market)
	if err != nil {
		return domain.StrategyConfig{}, err
	}

	types := make([]domain.OptionType, 0, len(c.OptionTypes))
	for _, s := range c.OptionTypes {
		t, err := domain.ParseOptionType(s)
		if err != nil {
			return domain.StrategyConfig{}, err
		}
		types = append(types, t)
	}

	s := domain.StrategyConfig{
		Market:             market,
		OptionTypes:        types,
		MaxCollateral:      decimal.NewFromFloat(c.MaxCollateral),
		TradeSize:          decimal.NewFromFloat(c.TradeSize),
		CollateralPercent:  decimal.NewFromFloat(c.CollateralPercent),
		IsBuyFirst:         c.IsBuyFirst,
		ProfitThreshold:    decimal.NewFromFloat(c.ProfitThreshold),
		MinAPY:             decimal.NewFromFloat(c.MinAPY),
		SellLyraOnly:       c.SellLyraOnly,
		SpotStrikeDiff:     decimal.NewFromFloat(c.SpotStrikeDiff),
		MostProfitableOnly: c.MostProfitableOnly,
		LegTimeout:         c.LegTimeout,
	}
	if err := s.Validate(); err != nil {
		return domain.StrategyConfig{}, fmt.Errorf("strategy: %w", err)
	}
	return s, nil
}

// Startup resolves the trading graph, prepares storage and reports venue
// readiness.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	sr := mono.Services()

	if pg := tradingDI.GetPostgresClient(sr); pg != nil {
		mono.AddCloser(monolith.CloserFunc(func() error {
			pg.Close()
			return nil
		}))
		if err := pg.RunMigrations(ctx); err != nil {
			return err
		}
		mono.RegisterCheck("postgres", pg.Ping)
	}
	if rdb := tradingDI.GetRedisClient(sr); rdb != nil {
		mono.AddCloser(rdb)
		mono.RegisterCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	multi := tradingDI.GetReporter(sr)
	mono.AddCloser(multi)

	// Resolving the runner builds the full graph so wiring errors surface here.
	tradingDI.GetRunner(sr)

	executors := tradingDI.GetExecutors(sr)
	tui := tradingDI.GetTUIReporter(sr)
	for _, p := range []domain.Provider{domain.ProviderDeribit, domain.ProviderLyra} {
		_, ready := executors[p]
		note := "enabled"
		if !ready {
			note = "disabled"
		}
		if tui != nil {
			tui.VenueStatus(p.String(), ready, note)
		}
		log.Info(ctx, "venue", "provider", p, "enabled", ready)
	}

	if cfg.Lyra.Enabled && cfg.Lyra.PrivateKey != "" {
		if signer, err := lyra.NewSigner(cfg.Lyra.PrivateKey); err == nil {
			blockchainDI.GetWalletService(sr).LogBalances(ctx, signer.Address())
		}
	}

	if n := tradingDI.GetNotifier(sr); n.Enabled() {
		log.Info(ctx, "alerts enabled", "senders", strings.Join(n.Senders(), ","))
	}

	log.Info(ctx, "trading module started", "market", cfg.Strategy.Market, "sizer", cfg.Strategy.Sizer)
	return nil
}
