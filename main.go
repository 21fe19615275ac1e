package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.opencensus.io/plugin/ochttp"

	"github.com/ipfs-force-community/zuck-wallet/api"
	"github.com/ipfs-force-community/zuck-wallet/cmds"
	"github.com/ipfs-force-community/zuck-wallet/config"
	"github.com/ipfs-force-community/zuck-wallet/events"
	walletmetrics "github.com/ipfs-force-community/zuck-wallet/metrics"
	"github.com/ipfs-force-community/zuck-wallet/pairing"
	"github.com/ipfs-force-community/zuck-wallet/provider"
	"github.com/ipfs-force-community/zuck-wallet/server"
	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/version"
	"github.com/ipfs-force-community/zuck-wallet/walletstate"
)

var log = logging.Logger("main")

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "zuck-wallet",
		Usage: "local wallet connection daemon for the zuckbuck site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "host address and port the wallet api will listen on",
				Value:   "/ip4/127.0.0.1/tcp/45180",
				EnvVars: []string{"ZUCK_WALLET_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "directory holding config and state",
				Value:   "~/.zuck-wallet",
				EnvVars: []string{"ZUCK_WALLET_REPO"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "api token required for write calls",
				EnvVars: []string{"ZUCK_WALLET_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "INFO",
				EnvVars: []string{"ZUCK_WALLET_LOG_LEVEL"},
			},
		},
		Before: func(cctx *cli.Context) error {
			return logging.SetLogLevel("*", cctx.String("log-level"))
		},
		Commands: append([]*cli.Command{runCmd, initCmd}, cmds.WalletCmds...),
	}
	app.Version = version.UserVersion
	if err := app.Run(os.Args); err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write the default config into the repo",
	Action: func(cctx *cli.Context) error {
		repo, err := repoPath(cctx.String("repo"))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(repo, 0755); err != nil {
			return err
		}
		cfgPath := filepath.Join(repo, config.ConfigFile)
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("config %s already exists", cfgPath)
		}
		if err := config.WriteConfig(cfgPath, config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Println("write config to", cfgPath)
		return nil
	},
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start zuck-wallet daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "storage", Usage: "storage type, leveldb or memory"},
		&cli.StringFlag{Name: "phantom-bridge", Usage: "phantom bridge json-rpc url", EnvVars: []string{"ZUCK_WALLET_PHANTOM_BRIDGE"}},
		&cli.StringFlag{Name: "ethereum-rpc", Usage: "EIP-1193 wallet json-rpc url", EnvVars: []string{"ZUCK_WALLET_ETHEREUM_RPC"}},
		&cli.DurationFlag{Name: "verify-interval", Usage: "how often the connection is re-verified"},
		&cli.StringFlag{Name: "walletconnect-project", EnvVars: []string{"ZUCK_WALLET_WALLETCONNECT_PROJECT"}},
		&cli.StringFlag{Name: "jaeger-proxy", EnvVars: []string{"ZUCK_WALLET_JAEGER_PROXY"}},
		&cli.Float64Flag{Name: "trace-sampler", EnvVars: []string{"ZUCK_WALLET_TRACE_SAMPLER"}, Value: 1.0},
	},
	Action: func(cctx *cli.Context) error {
		repo, err := repoPath(cctx.String("repo"))
		if err != nil {
			return err
		}
		cfg, err := loadConfig(repo)
		if err != nil {
			return err
		}

		if cctx.IsSet("listen") {
			cfg.API.ListenAddress = cctx.String("listen")
		}
		if cctx.IsSet("token") {
			cfg.API.Token = cctx.String("token")
		}
		if cctx.IsSet("storage") {
			cfg.Storage.Type = cctx.String("storage")
		}
		if cctx.IsSet("phantom-bridge") {
			cfg.Providers.PhantomBridge = cctx.String("phantom-bridge")
		}
		if cctx.IsSet("ethereum-rpc") {
			cfg.Providers.EthereumRPC = cctx.String("ethereum-rpc")
		}
		if cctx.IsSet("verify-interval") {
			cfg.Wallet.VerifyInterval = cctx.Duration("verify-interval")
		}
		if cctx.IsSet("walletconnect-project") {
			cfg.Pairing.ProjectID = cctx.String("walletconnect-project")
		}
		if proxy := strings.TrimSpace(cctx.String("jaeger-proxy")); len(proxy) > 0 {
			cfg.Trace.JaegerTracingEnabled = true
			cfg.Trace.JaegerEndpoint = proxy
			cfg.Trace.ProbabilitySampler = cctx.Float64("trace-sampler")
		}

		return RunMain(cctx.Context, repo, cfg)
	},
}

func repoPath(repo string) (string, error) {
	if strings.HasPrefix(repo, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		repo = filepath.Join(home, strings.TrimPrefix(repo, "~"))
	}
	return repo, nil
}

func loadConfig(repo string) (*config.Config, error) {
	cfgPath := filepath.Join(repo, config.ConfigFile)
	cfg, err := config.ReadConfig(cfgPath)
	if err == nil {
		log.Infof("load config from %s", cfgPath)
		return cfg, nil
	}
	if os.IsNotExist(err) {
		log.Infof("config %s not found, use default config", cfgPath)
		return config.DefaultConfig(), nil
	}
	return nil, errors.Wrapf(err, "read config %s", cfgPath)
}

func RunMain(ctx context.Context, repo string, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Infof("zuck-wallet current version %s, listen %s", version.UserVersion, cfg.API.ListenAddress)

	if err := os.MkdirAll(repo, 0755); err != nil {
		return err
	}
	store, err := storage.Open(repo, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("close storage: %v", err)
		}
	}()

	providers, err := provider.Open(ctx, cfg.Providers)
	if err != nil {
		return err
	}
	defer providers.Close()

	sessions := pairing.NewRegistry(ctx, cfg.Pairing)
	mgr := walletstate.NewManager(cfg.Wallet, store, providers.SolanaProvider(), providers.EthereumProvider(), sessions)
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Stop()

	if err := walletmetrics.SetupMetrics(ctx, cfg.Metrics, mgr, sessions); err != nil {
		return err
	}

	hub := events.NewHub(ctx, mgr, cfg.API.Origins, logging.Logger("events").With("listen", cfg.API.ListenAddress))

	log.Info("Setting up control endpoint at " + cfg.API.ListenAddress)
	handler := server.NewRouter(server.Options{
		API:      api.NewWalletAPIImpl(mgr),
		Sessions: sessions,
		Events:   hub,
		Store:    store,
		Token:    cfg.API.Token,
	})

	shutdownTracing, err := setupTracing(cfg.Trace)
	if err != nil {
		return err
	}
	defer shutdownTracing()
	if cfg.Trace.JaegerTracingEnabled {
		// the opencensus bridge installed by SetupJaegerTracing forwards ochttp spans
		handler = &ochttp.Handler{Handler: handler}
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-ctx.Done():
			log.Warn("received shutdown")
		}
		cancel()
	}()

	return server.Serve(ctx, cfg.API.ListenAddress, handler)
}

// setupTracing registers the jaeger tracer provider when tracing is enabled
// and returns the func that flushes it on exit.
func setupTracing(cfg *metrics.TraceConfig) (func(), error) {
	if cfg == nil || !cfg.JaegerTracingEnabled {
		return func() {}, nil
	}
	tp, err := metrics.SetupJaegerTracing(cfg.ServerName, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "register %s jaeger exporter to %s", cfg.ServerName, cfg.JaegerEndpoint)
	}
	log.Infof("register jaeger-tracing exporter to %s, with node-name:%s", cfg.JaegerEndpoint, cfg.ServerName)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.ShutdownJaeger(ctx, tp); err != nil {
			log.Warnf("shutdown jaeger: %v", err)
		}
	}, nil
}
