package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/gateway"
	"mercator-hq/relay/pkg/server"
	"mercator-hq/relay/pkg/stats"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	logFormat     string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address and forwards /v1/chat/completions,
/v1/messages and /v1/models to the upstream, retrying transient failures.

With --watch, edits to the configuration file are applied without a restart:
the access key, retry settings, keyword lists and timeouts take effect for new
requests. SIGHUP triggers the same reload.

Examples:
  # Start from environment variables
  PROXY_URL=https://llm.example.com API_KEY=sk-... MY_ACCESS_KEY=secret relay run

  # Start with a config file and hot reload
  relay run --config relay.yaml --watch

  # Override listen address
  relay run --listen 0.0.0.0:9090

  # Validate config without starting server
  relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.logFormat, "log-format", "", "override log format (json, text, console)")
	runCmd.Flags().BoolVarP(&runFlags.watch, "watch", "w", false, "reload the config file when it changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.logFormat != "" {
		cfg.Telemetry.Logging.Format = runFlags.logFormat
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)

	opts, err := gateway.OptionsFromConfig(cfg)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	logger.Info("starting relay",
		"version", Version,
		"config", configSource(),
		"upstream", cfg.Upstream.BaseURL,
		"max_attempts", cfg.Retry.MaxAttempts,
		"backoff", cfg.Retry.Backoff.Policy,
	)

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:             cfg.Upstream.BaseURL,
		APIKey:              cfg.Upstream.APIKey,
		AnthropicVersion:    cfg.Upstream.AnthropicVersion,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	}, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create upstream client: %w", err))
	}
	defer client.Close()

	recorder := stats.NewRecorder(cfg.Stats.Capacity)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	gw, err := gateway.New(gateway.Config{
		Upstream: client,
		Recorder: recorder,
		Metrics:  collector,
		Logger:   logger,
		Options:  opts,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	reporter := stats.NewReporter(recorder, cfg.Stats.ReportSchedule, logger)
	if err := reporter.Start(ctx); err != nil {
		logger.Warn("failed to start stats reporter", "error", err)
	}
	defer reporter.Stop()

	startReloaders(ctx, gw, logger)

	srvCfg := server.Config{
		Proxy:    &cfg.Proxy,
		Gateway:  gw,
		Recorder: recorder,
		Logger:   logger,
	}
	if cfg.Telemetry.Metrics.Enabled {
		srvCfg.Metrics = collector.Handler()
		srvCfg.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	srv, err := server.NewServer(srvCfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	snap := recorder.Snapshot()
	logger.Info("relay stopped",
		"total", snap.TotalRequests,
		"success", snap.SuccessRequests,
		"failed", snap.FailedRequests,
	)
	return nil
}

// startReloaders applies configuration changes to the gateway on file edits
// (with --watch) and on SIGHUP. Only a file-backed configuration can reload.
func startReloaders(ctx context.Context, gw *gateway.Gateway, logger *slog.Logger) {
	if cfgFile == "" {
		return
	}

	apply := func(cfg *config.Config) {
		opts, err := gateway.OptionsFromConfig(cfg)
		if err == nil {
			err = gw.Apply(opts)
		}
		if err != nil {
			logger.Error("failed to apply reloaded configuration", "error", err)
			return
		}
		logger.Info("gateway options updated", "max_attempts", opts.MaxAttempts)
	}

	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultWatchDebounce, logger)
		if err != nil {
			logger.Error("failed to start config watcher", "error", err)
		} else {
			go func() {
				if err := watcher.Watch(ctx, apply); err != nil {
					logger.Error("config watcher stopped", "error", err)
				}
			}()
		}
	}

	hup, stopHUP := cli.ReloadSignal()
	go func() {
		defer stopHUP()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				cfg, err := config.ReloadConfig(cfgFile)
				if err != nil {
					logger.Error("configuration reload failed, keeping previous configuration", "error", err)
					continue
				}
				logger.Info("configuration reloaded on SIGHUP", "path", cfgFile)
				apply(cfg)
			}
		}
	}()
}

func configSource() string {
	if cfgFile == "" {
		return "environment"
	}
	return cfgFile
}
