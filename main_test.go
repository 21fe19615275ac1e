package main

import (
	"testing"

	"github.com/ipfs-force-community/metrics"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		shutdown, err := setupTracing(metrics.DefaultTraceConfig())
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		shutdown()

		shutdown, err = setupTracing(nil)
		require.NoError(t, err)
		shutdown()
	})

	t.Run("enabled", func(t *testing.T) {
		cfg := metrics.DefaultTraceConfig()
		cfg.JaegerTracingEnabled = true
		cfg.ServerName = "zuck-wallet-test"
		cfg.JaegerEndpoint = "http://127.0.0.1:14268/api/traces"

		shutdown, err := setupTracing(cfg)
		require.NoError(t, err)
		shutdown()
	})
}
