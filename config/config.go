package config

import (
	"os"

	"github.com/ipfs-force-community/metrics"
	"github.com/pelletier/go-toml"

	"github.com/ipfs-force-community/zuck-wallet/provider"
	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/types"
)

const (
	// Configuration file name
	ConfigFile = "config.toml"
)

type Config struct {
	API       *APIConfig
	Storage   *storage.Config
	Wallet    *types.StateConfig
	Providers *provider.Config
	Pairing   *types.PairingConfig
	Metrics   *metrics.MetricsConfig
	Trace     *metrics.TraceConfig
}

type APIConfig struct {
	ListenAddress string
	// Token, when set, is required for every write call. Requests without it can only read.
	Token         string
	// Origins allowed to open the event stream, empty allows any.
	Origins       []string
}

func DefaultConfig() *Config {
	cfg := &Config{
		API:       &APIConfig{ListenAddress: "/ip4/127.0.0.1/tcp/45180", Origins: []string{"http://localhost:3000"}},
		Storage:   storage.DefaultConfig(),
		Wallet:    types.DefaultStateConfig(),
		Providers: provider.DefaultConfig(),
		Pairing:   types.DefaultPairingConfig(),
		Metrics:   metrics.DefaultMetricsConfig(),
		Trace:     metrics.DefaultTraceConfig(),
	}
	namespace := "zuck_wallet"
	cfg.Metrics.Exporter.Prometheus.Namespace = namespace
	cfg.Metrics.Exporter.Graphite.Namespace = namespace
	cfg.Metrics.Exporter.Prometheus.EndPoint = "/ip4/0.0.0.0/tcp/45181"
	cfg.Metrics.Exporter.Graphite.Port = 45181
	cfg.Trace.ServerName = "zuck-wallet"
	cfg.Trace.JaegerEndpoint = ""

	return cfg
}

func ReadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	err = toml.Unmarshal(data, cfg)

	return cfg, err
}

func WriteConfig(filePath string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
