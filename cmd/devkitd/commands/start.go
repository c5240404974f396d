package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/devkit-go/devkit/internal/controlplane/api"
	"github.com/devkit-go/devkit/internal/controlplane/api/auth"
	"github.com/devkit-go/devkit/internal/logger"
	"github.com/devkit-go/devkit/internal/telemetry"
	"github.com/devkit-go/devkit/pkg/binding"
	badgerstore "github.com/devkit-go/devkit/pkg/binding/badger"
	memorystore "github.com/devkit-go/devkit/pkg/binding/memory"
	bindstore "github.com/devkit-go/devkit/pkg/binding/store"
	"github.com/devkit-go/devkit/pkg/config"
	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/dispatch"
	"github.com/devkit-go/devkit/pkg/drivers/mem"
	"github.com/devkit-go/devkit/pkg/drivers/null"
	"github.com/devkit-go/devkit/pkg/metrics"
	promMetrics "github.com/devkit-go/devkit/pkg/metrics/prometheus"
	"github.com/devkit-go/devkit/pkg/registry"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the devkit daemon",
	Long: `Start the devkit daemon with the specified configuration.

The daemon registers the configured drivers, binds their device nodes,
and serves the control plane API until interrupted.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/devkit/config.yaml.

Examples:
  # Start with default config location
  devkitd start

  # Start with custom config file
  devkitd start --config /etc/devkit/config.yaml

  # Start with environment variable overrides
  DEVKIT_LOGGING_LEVEL=DEBUG devkitd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "devkit",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "devkit",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.ControlPlane.Port))
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Binding store: bindings survive restarts on the badger backend
	st, err := newBindingStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("binding store close error", "error", err)
		}
	}()

	bindings, err := binding.NewTableWithStore(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to load binding table: %w", err)
	}
	logger.Info("Binding table loaded", "backend", cfg.Store.Backend, "bindings", bindings.Count())

	reg := registry.New()
	if err := registerDrivers(ctx, cfg, reg, bindings); err != nil {
		return err
	}
	logger.Info("Drivers registered", "count", reg.Count())

	dispatcher := dispatch.New(reg, bindings,
		dispatch.WithMetrics(promMetrics.NewDispatchMetrics()),
	)

	apiServer, err := api.NewServer(cfg.ControlPlane, api.Deps{
		Registry:   reg,
		Bindings:   bindings,
		Dispatcher: dispatcher,
		Credential: auth.Credential{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	// Hot-reload the log level when the config file changes
	if source := getConfigSource(GetConfigFile()); source != "defaults" {
		go func() {
			err := config.Watch(ctx, source, func(newCfg *config.Config) {
				logger.SetLevel(newCfg.Logging.Level)
				logger.Info("Log level reloaded", "level", newCfg.Logging.Level)
			})
			if err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	logger.Info("Daemon is running. Press Ctrl+C to stop.")

	if err := apiServer.Start(ctx); err != nil {
		logger.Error("API server error", "error", err)
		return err
	}

	// Start returns after graceful shutdown; give in-flight driver calls
	// a bounded window before the store closes
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Daemon stopped gracefully")
	return nil
}

// newBindingStore builds the binding persistence backend from configuration.
func newBindingStore(cfg *config.Config) (bindstore.Store, error) {
	switch cfg.Store.Backend {
	case "badger":
		st, err := badgerstore.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store at %q: %w", cfg.Store.Path, err)
		}
		return st, nil
	case "memory", "":
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// registerDrivers registers configured drivers and binds their static nodes.
func registerDrivers(ctx context.Context, cfg *config.Config, reg *registry.Registry, bindings *binding.Table) error {
	for _, d := range cfg.Drivers {
		drv, err := newDriver(d)
		if err != nil {
			return err
		}

		major, err := reg.Register(d.Name, drv, d.Major)
		if err != nil {
			return fmt.Errorf("failed to register driver %q: %w", d.Name, err)
		}
		logger.Info("Driver registered", "driver", d.Name, "type", d.Type, "major", major)

		for _, n := range d.Nodes {
			kind, err := device.ParseNodeKind(n.Kind)
			if err != nil {
				return fmt.Errorf("driver %q: %w", d.Name, err)
			}
			node := device.Node{Kind: kind, Major: major, Minor: n.Minor}

			// Nodes restored from a persistent store are already bound
			if _, err := bindings.Resolve(node); err == nil {
				continue
			}
			if err := bindings.Bind(ctx, node, major); err != nil {
				return fmt.Errorf("failed to bind node %s: %w", node, err)
			}
			logger.Info("Node bound", "node", node.String(), "driver", d.Name)
		}
	}
	return nil
}

// newDriver constructs a driver instance from its configuration.
func newDriver(d config.DriverConfig) (device.Driver, error) {
	switch d.Type {
	case "mem":
		return mem.New(int(d.Size)), nil
	case "null":
		return null.New(), nil
	default:
		return nil, fmt.Errorf("unknown driver type: %q", d.Type)
	}
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
