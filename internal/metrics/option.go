package metrics

import (
	"strconv"
	"strings"

	"github.com/fd1az/options-arb/internal/config"
)

type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "customOtelCollector"
	InsecureOtel                = false
	SecureOtel                  = true
)

func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

type OptionFn func(config Config) Config

func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// FromTelemetry always exports to Prometheus, and also pushes to the OTLP
// collector when the trace provider is an otlp one with an endpoint.
func FromTelemetry(t config.TelemetryConfig) []OptionFn {
	opts := []OptionFn{
		WithServiceName(t.ServiceName),
		WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}),
	}
	if strings.HasPrefix(t.TraceProvider, "otlp") && t.OTLPEndpoint != "" {
		insecure := strings.HasPrefix(t.OTLPEndpoint, "http://")
		opts = append(opts, WithProviderConfig(NewOtelCollectorConfig(t.OTLPEndpoint, nil, insecure)))
	}
	return opts
}

type PromServerConfig struct {
	port string
}

type PromOptionFn func(config PromServerConfig) PromServerConfig

func WithPort(port int) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		if port > 0 {
			config.port = strconv.Itoa(port)
		}
		return config
	}
}
