// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Optimism  OptimismConfig  `mapstructure:"optimism"`
	Lyra      LyraConfig      `mapstructure:"lyra"`
	Deribit   DeribitConfig   `mapstructure:"deribit"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set from flags
}

// OptimismConfig is the L2 node the on-chain venue settles on.
type OptimismConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID int64  `mapstructure:"chain_id"`
}

// LyraConfig configures the on-chain options venue.
type LyraConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	PrivateKey string `mapstructure:"private_key"`
	// OptionMarkets maps an underlying (ETH, BTC) to its OptionMarket contract.
	OptionMarkets map[string]string `mapstructure:"option_markets"`
	StableToken   string            `mapstructure:"stable_token"`
	StableAddress string            `mapstructure:"stable_address"`
	// Slippage bounds min/max total cost around the simulated cost, as a fraction.
	Slippage            float64       `mapstructure:"slippage"`
	Iterations          int64         `mapstructure:"iterations"`
	GasLimit            uint64        `mapstructure:"gas_limit"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
}

// OptionMarketAddress returns the OptionMarket contract for market.
func (c *LyraConfig) OptionMarketAddress(market string) (common.Address, bool) {
	for k, v := range c.OptionMarkets {
		if strings.EqualFold(k, market) && common.IsHexAddress(v) {
			return common.HexToAddress(v), true
		}
	}
	return common.Address{}, false
}

// SlippageDecimal returns slippage as decimal.Decimal.
func (c *LyraConfig) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Slippage)
}

// DeribitConfig carries both mainnet and testnet credentials; Testnet
// selects which pair and which endpoint are used.
type DeribitConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Testnet             bool          `mapstructure:"testnet"`
	URL                 string        `mapstructure:"url"`
	TestnetURL          string        `mapstructure:"testnet_url"`
	ClientID            string        `mapstructure:"client_id"`
	ClientSecret        string        `mapstructure:"client_secret"`
	TestnetClientID     string        `mapstructure:"testnet_client_id"`
	TestnetClientSecret string        `mapstructure:"testnet_client_secret"`
	RequestsPerSecond   float64       `mapstructure:"requests_per_second"`
	Burst               int           `mapstructure:"burst"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
}

// Endpoint returns the websocket URL for the selected network.
func (c *DeribitConfig) Endpoint() string {
	if c.Testnet {
		return c.TestnetURL
	}
	return c.URL
}

// Credentials returns the client id and secret for the selected network.
func (c *DeribitConfig) Credentials() (string, string) {
	if c.Testnet {
		return c.TestnetClientID, c.TestnetClientSecret
	}
	return c.ClientID, c.ClientSecret
}

// StrategyConfig holds the trading strategy. CollateralPercent is expressed
// on a 0-100 scale.
type StrategyConfig struct {
	Market             string        `mapstructure:"market"`
	OptionTypes        []string      `mapstructure:"option_types"`
	MaxCollateral      float64       `mapstructure:"max_collateral"`
	TradeSize          float64       `mapstructure:"trade_size"`
	CollateralPercent  float64       `mapstructure:"collateral_percent"`
	Sizer              string        `mapstructure:"sizer"` // fixed | capped
	IsBuyFirst         bool          `mapstructure:"is_buy_first"`
	ProfitThreshold    float64       `mapstructure:"profit_threshold"`
	MinAPY             float64       `mapstructure:"min_apy"`
	SellLyraOnly       bool          `mapstructure:"sell_lyra_only"`
	SpotStrikeDiff     float64       `mapstructure:"spot_strike_diff"`
	MostProfitableOnly bool          `mapstructure:"most_profitable_only"`
	LegTimeout         time.Duration `mapstructure:"leg_timeout"`
}

// RunnerConfig drives the attempt loop.
type RunnerConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	Once              bool          `mapstructure:"once"`
	OpportunitiesFile string        `mapstructure:"opportunities_file"`
}

// PostgresConfig enables the trade-leg audit store.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RedisConfig enables the cross-process instrument lock.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// NotifyConfig configures operator alerts. Senders with empty credentials
// are skipped.
type NotifyConfig struct {
	DiscordWebhookID    string `mapstructure:"discord_webhook_id"`
	DiscordWebhookToken string `mapstructure:"discord_webhook_token"`
	TelegramBotToken    string `mapstructure:"telegram_bot_token"`
	TelegramChatID      string `mapstructure:"telegram_chat_id"`
}

// HealthConfig configures the health endpoint.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin | otlp-grpc | otlp-http | console
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("optimism.http_url", "ARB_OPTIMISM_HTTP_URL", "OPTIMISM_RPC_URL")

	v.BindEnv("lyra.private_key", "ARB_LYRA_PRIVATE_KEY", "PRIVATE_KEY")

	v.BindEnv("deribit.testnet", "ARB_DERIBIT_TESTNET")
	v.BindEnv("deribit.client_id", "ARB_DERIBIT_CLIENT_ID", "DERIBIT_CLIENT_ID")
	v.BindEnv("deribit.client_secret", "ARB_DERIBIT_CLIENT_SECRET", "DERIBIT_CLIENT_SECRET")
	v.BindEnv("deribit.testnet_client_id", "ARB_DERIBIT_TESTNET_CLIENT_ID", "DERIBIT_TESTNET_CLIENT_ID")
	v.BindEnv("deribit.testnet_client_secret", "ARB_DERIBIT_TESTNET_CLIENT_SECRET", "DERIBIT_TESTNET_CLIENT_SECRET")

	v.BindEnv("postgres.dsn", "ARB_POSTGRES_DSN", "DATABASE_URL")
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	v.BindEnv("notify.discord_webhook_id", "ARB_DISCORD_WEBHOOK_ID")
	v.BindEnv("notify.discord_webhook_token", "ARB_DISCORD_WEBHOOK_TOKEN")
	v.BindEnv("notify.telegram_bot_token", "ARB_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("notify.telegram_chat_id", "ARB_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "options-arb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("optimism.http_url", "https://mainnet.optimism.io")
	v.SetDefault("optimism.chain_id", 10)

	v.SetDefault("lyra.enabled", true)
	v.SetDefault("lyra.stable_token", "sUSD")
	v.SetDefault("lyra.stable_address", "0x8c6f28f2F1A3C87F0f938b96d27520d9751ec8d9")
	v.SetDefault("lyra.slippage", 0.02)
	v.SetDefault("lyra.iterations", 1)
	v.SetDefault("lyra.gas_limit", 3_000_000)
	v.SetDefault("lyra.receipt_poll_interval", "2s")

	v.SetDefault("deribit.enabled", true)
	v.SetDefault("deribit.testnet", true)
	v.SetDefault("deribit.url", "wss://www.deribit.com/ws/api/v2")
	v.SetDefault("deribit.testnet_url", "wss://test.deribit.com/ws/api/v2")
	v.SetDefault("deribit.requests_per_second", 5)
	v.SetDefault("deribit.burst", 5)
	v.SetDefault("deribit.dial_timeout", "10s")

	v.SetDefault("strategy.market", "ETH")
	v.SetDefault("strategy.option_types", []string{"CALL", "PUT"})
	v.SetDefault("strategy.max_collateral", 0)
	v.SetDefault("strategy.trade_size", 1)
	v.SetDefault("strategy.collateral_percent", 50)
	v.SetDefault("strategy.sizer", "fixed")
	v.SetDefault("strategy.is_buy_first", true)
	v.SetDefault("strategy.profit_threshold", 0)
	v.SetDefault("strategy.min_apy", 0)
	v.SetDefault("strategy.leg_timeout", "60s")

	v.SetDefault("runner.interval", "30s")
	v.SetDefault("runner.opportunities_file", "opportunities.json")

	v.SetDefault("postgres.max_conns", 4)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.lock_ttl", "5m")

	v.SetDefault("health.port", 8081)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "options-arb")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Strategy.Market == "" {
		return fmt.Errorf("strategy.market is required")
	}
	if c.Strategy.TradeSize <= 0 {
		return fmt.Errorf("strategy.trade_size must be positive, got %v", c.Strategy.TradeSize)
	}
	if c.Strategy.CollateralPercent < 0 || c.Strategy.CollateralPercent > 100 {
		return fmt.Errorf("strategy.collateral_percent must be within [0,100], got %v", c.Strategy.CollateralPercent)
	}
	if c.Strategy.LegTimeout <= 0 {
		return fmt.Errorf("strategy.leg_timeout must be positive")
	}
	switch c.Strategy.Sizer {
	case "", "fixed", "capped":
	default:
		return fmt.Errorf("strategy.sizer must be fixed or capped, got %q", c.Strategy.Sizer)
	}
	if c.Runner.Interval <= 0 {
		return fmt.Errorf("runner.interval must be positive")
	}

	if c.Lyra.Enabled {
		if c.Optimism.HTTPURL == "" {
			return fmt.Errorf("optimism.http_url is required when lyra is enabled")
		}
		if _, ok := c.Lyra.OptionMarketAddress(c.Strategy.Market); !ok {
			return fmt.Errorf("lyra.option_markets has no valid address for market %s", c.Strategy.Market)
		}
		if !common.IsHexAddress(c.Lyra.StableAddress) {
			return fmt.Errorf("invalid lyra.stable_address: %s", c.Lyra.StableAddress)
		}
		if c.Lyra.Slippage < 0 || c.Lyra.Slippage >= 1 {
			return fmt.Errorf("lyra.slippage must be within [0,1)")
		}
	}

	if c.Deribit.Enabled && c.Deribit.Endpoint() == "" {
		return fmt.Errorf("deribit endpoint is required (testnet=%v)", c.Deribit.Testnet)
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when postgres is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
