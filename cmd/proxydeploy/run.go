package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"platform-hq/proxydeploy/pkg/cache"
	"platform-hq/proxydeploy/pkg/cli"
	"platform-hq/proxydeploy/pkg/config"
	"platform-hq/proxydeploy/pkg/deployment"
	"platform-hq/proxydeploy/pkg/gatewayversion"
	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/platform/cloudhub"
	"platform-hq/proxydeploy/pkg/platform/coreservices"
	"platform-hq/proxydeploy/pkg/platform/hybrid"
	"platform-hq/proxydeploy/pkg/platform/proxybuilder"
	"platform-hq/proxydeploy/pkg/proxygen"
	"platform-hq/proxydeploy/pkg/server"
	"platform-hq/proxydeploy/pkg/server/handlers"
	"platform-hq/proxydeploy/pkg/telemetry/health"
	"platform-hq/proxydeploy/pkg/telemetry/logging"
	"platform-hq/proxydeploy/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy deployment gateway",
	Long: `Start the proxy deployment gateway with the given configuration.

Examples:
  # Start with default config
  proxydeploy run

  # Start with custom config
  proxydeploy run --config /etc/proxydeploy/config.yaml

  # Override listen address
  proxydeploy run --listen 0.0.0.0:8080

  # Validate config without starting
  proxydeploy run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload configuration when the file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx := cli.SignalContext()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	store, janitor, err := buildCache(cfg.Cache)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	if janitor != nil {
		if err := janitor.Start(ctx); err != nil {
			return err
		}
		defer janitor.Stop()
	}

	catalog, err := buildCatalog(cfg.GatewayVersions)
	if err != nil {
		return cli.NewConfigError(cfg.GatewayVersions.CatalogFile, err.Error())
	}

	threshold, err := server.NewThreshold(cfg.GatewayVersions)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	// Backend clients, all reporting through the shared collector.
	backend := func(name string, bc config.BackendConfig) *platform.Client {
		return platform.NewClient(name, bc.BaseURL, bc.Timeout, platform.WithRecorder(collector))
	}

	apiManager := apimanager.New(backend(apimanager.Backend, cfg.Platform.APIManager.BackendConfig), cfg.Platform.APIManager)
	coreServices := coreservices.New(backend(coreservices.Backend, cfg.Platform.CoreServices), cfg.Auth.ServiceToken)
	cloudhubClient := cloudhub.NewClient(backend(cloudhub.Backend, cfg.Platform.CloudHub.BackendConfig), cloudhub.WithCache(store))
	hybridClient := hybrid.NewClient(backend(hybrid.Backend, cfg.Platform.Hybrid))
	builder := proxybuilder.New(backend(proxybuilder.Backend, cfg.Platform.ProxyBuilder.BackendConfig))

	generator := proxygen.New(builder, cfg.Platform.ProxyBuilder)
	chDeployer := cloudhub.NewDeployer(cloudhubClient, apiManager, coreServices, catalog, cfg.Platform.CloudHub)
	hyDeployer := hybrid.NewDeployer(hybridClient)

	orchestrator := deployment.NewService(apiManager, generator, chDeployer, hyDeployer, deployment.WithRecorder(collector))

	redirect := handlers.NewRedirect(
		cfg.Platform.APIManager.BaseURL+cfg.Platform.APIManager.ProxiesXAPIPath,
		server.APIPrefix,
		cfg.Server.WriteTimeout,
	)

	checker := health.NewChecker(health.BuildInfo{Version: Version, Commit: GitCommit, Date: BuildDate})

	srv := server.New(cfg.Server, cfg.Auth, server.Deps{
		Deployments: handlers.NewDeployment(orchestrator, threshold, redirect),
		Proxy:       handlers.NewProxy(apiManager, generator, redirect),
		Redirect:    redirect,
		Metrics:     collector,
		Health:      checker,
	})
	checker.Register("server", func() error {
		if !srv.IsRunning() {
			return fmt.Errorf("server is not running")
		}
		return nil
	})

	if runFlags.watch {
		watcher := config.NewWatcher(cfgFile, slog.Default())
		go func() {
			err := watcher.Watch(ctx, func(updated *config.Config) {
				// Logging is the one concern that can change without a
				// restart; everything else is wired at startup.
				if _, err := logging.Setup(updated.Telemetry.Logging); err != nil {
					slog.Warn("reloaded logging config rejected", "error", err)
					return
				}
				slog.Info("configuration reloaded; backend wiring changes take effect after restart")
			})
			if err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	return srv.Start(ctx)
}

// buildCache builds the configured cache backend and, when retention is
// set, its sweep janitor. A disabled cache yields nil.
func buildCache(cfg config.CacheConfig) (cache.Cache, *cache.Janitor, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	var store cache.Cache
	switch cfg.Backend {
	case "", "memory":
		store = cache.NewMemory(cfg.MaxEntries)
	case "sqlite":
		db, err := cache.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		store = db
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if cfg.Retention <= 0 {
		return store, nil, nil
	}
	return store, cache.NewJanitor(store, cfg.Retention, cfg.SweepSchedule), nil
}

// buildCatalog loads the gateway version catalog from the configured file,
// falling back to the built-in catalog.
func buildCatalog(cfg config.GatewayVersionsConfig) (*gatewayversion.Catalog, error) {
	if cfg.CatalogFile == "" {
		return gatewayversion.Default(), nil
	}

	entries, err := config.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	descriptors := make([]gatewayversion.Descriptor, len(entries))
	for i, entry := range entries {
		descriptors[i] = gatewayversion.Descriptor{
			ID:                      entry.ID,
			Label:                   entry.Label,
			ProxyFileNameSuffix:     entry.ProxyFileNameSuffix,
			Condition:               entry.Condition,
			BackwardsCompatibleWith: entry.BackwardsCompatibleWith,
			RAMLVersionSupported:    entry.RAMLVersionSupported,
		}
	}
	return gatewayversion.NewCatalog(descriptors)
}
