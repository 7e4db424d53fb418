// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/multierr"

	"github.com/fd1az/options-arb/internal/asset"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/di"
	"github.com/fd1az/options-arb/internal/health"
	"github.com/fd1az/options-arb/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	// AddCloser registers a resource released by Close, in reverse order.
	AddCloser(io.Closer)
	// RegisterCheck exposes a dependency on the health endpoint.
	RegisterCheck(name string, check func(context.Context) error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
	health        *health.Server

	mu      sync.Mutex
	closers []io.Closer
}

// New creates a new Monolith instance. hs may be nil when no health server
// runs; checks are then dropped.
func New(cfg *config.Config, log logger.LoggerInterface, hs *health.Server) (*app, error) {
	ethClient, err := ethclient.Dial(cfg.Optimism.HTTPURL)
	if err != nil {
		return nil, err
	}

	// Use default asset registry (pre-populated with Optimism assets)
	assetRegistry := asset.DefaultRegistry()

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("assetRegistry", assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		container:     container,
		health:        hs,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

func (a *app) AddCloser(c io.Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, c)
}

func (a *app) RegisterCheck(name string, check func(context.Context) error) {
	if a.health == nil {
		return
	}
	a.health.RegisterCheck(name, check)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases registered resources newest first, then the node client.
func (a *app) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return err
}
