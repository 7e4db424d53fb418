// Package main is the entry point for the options arbitrage executor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/options-arb/business/blockchain"
	"github.com/fd1az/options-arb/business/trading"
	tradingDI "github.com/fd1az/options-arb/business/trading/di"
	"github.com/fd1az/options-arb/internal/apm"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/health"
	"github.com/fd1az/options-arb/internal/logger"
	"github.com/fd1az/options-arb/internal/metrics"
	"github.com/fd1az/options-arb/internal/monolith"
	"github.com/fd1az/options-arb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	tuiMode := flag.Bool("tui", false, "Show the live dashboard instead of console output")
	once := flag.Bool("once", false, "Run a single attempt and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("options-arb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *tuiMode, *once); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func run(ctx context.Context, configPath string, tuiMode, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode
	if once {
		cfg.Runner.Once = true
	}

	var log *logger.Logger
	if tuiMode {
		// Logs would tear the dashboard; errors are surfaced in it instead.
		log = logger.New(io.Discard, parseLevel(cfg.App.LogLevel), cfg.App.Name, func(_ context.Context, r slog.Record) {
			ui.Send(ui.ErrorMsg{Error: errors.New(r.Message)})
		})
	} else {
		log = logger.New(os.Stderr, parseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	}
	log.Info(ctx, "starting options arbitrage executor",
		"version", version,
		"environment", cfg.App.Environment,
		"market", cfg.Strategy.Market,
	)

	traceProvider, err := apm.NewTraceProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer traceProvider.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Telemetry.Enabled {
		mp, err := metrics.NewMetricProvider(ctx, metrics.FromTelemetry(cfg.Telemetry)...)
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer mp.Shutdown(context.Background())

		g.Go(func() error {
			return metrics.ServePrometheusMetrics(gctx, log, metrics.WithPort(cfg.Telemetry.PrometheusPort))
		})
	}

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
		healthServer = nil
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		defer healthServer.Stop(context.Background())
	}

	mono, err := monolith.New(cfg, log, healthServer)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "error releasing resources", "error", err)
		}
	}()

	// Dependency order: trading resolves the gas oracle and wallet service.
	modules := []monolith.Module{
		&blockchain.Module{},
		&trading.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	startAndRun := func(ctx context.Context) error {
		if err := mono.StartModules(ctx, modules...); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		return tradingDI.GetRunner(mono.Services()).Run(ctx)
	}

	if !tuiMode {
		g.Go(func() error {
			// Once mode finishes here; stop the metrics server with it.
			defer cancel()
			return startAndRun(gctx)
		})
		return g.Wait()
	}

	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	g.Go(func() error {
		select {
		case <-startSignal:
		case <-gctx.Done():
			return nil
		}
		if err := startAndRun(gctx); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			return err
		}
		return nil
	})

	uiErr := ui.Run()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if uiErr != nil {
		return fmt.Errorf("TUI error: %w", uiErr)
	}
	return nil
}
