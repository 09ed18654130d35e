// Package app provides the shared entry point of the mercury binary: it
// loads configuration, builds the ambient services and drives the module
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/mercury/internal/config"
	"github.com/flemzord/mercury/internal/core"
	"github.com/flemzord/mercury/internal/logging"
	"github.com/flemzord/mercury/internal/security"
	"github.com/flemzord/mercury/internal/telemetry"
	"github.com/flemzord/mercury/modules/channel/messenger"

	// Compiled-in modules.
	_ "github.com/flemzord/mercury/internal/gateway"
	_ "github.com/flemzord/mercury/modules/store/sqlite"
)

const telemetryShutdownTimeout = 5 * time.Second

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string
}

// Runtime is a loaded, not yet started, application.
type Runtime struct {
	Logger     *slog.Logger
	ConfigPath string
	ModuleIDs  []string

	app      *core.App
	shutdown telemetry.ShutdownFunc
	started  bool
}

// Prepare resolves and validates the configuration, builds the logger,
// tracer provider and metrics registry, and loads every configured module.
func Prepare(ctx context.Context, params RunParams) (*Runtime, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	redactor := security.NewRedactor()
	logger, err := logging.New(cfg.Logging, redactor)
	if err != nil {
		return nil, err
	}

	tp, shutdown, err := telemetry.Setup(ctx, cfg.Tracing, params.Version)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	appCtx := core.NewAppContext(logger, dataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService(security.ServiceName, redactor)
	appCtx.RegisterService(telemetry.ServiceName, tp)
	appCtx.RegisterService(messenger.ServiceMetricsRegistry, registry)
	appCtx.RegisterService("config.path", cfgPath)

	application := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := application.LoadModules(ids); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return &Runtime{
		Logger:     logger,
		ConfigPath: cfgPath,
		ModuleIDs:  ids,
		app:        application,
		shutdown:   shutdown,
	}, nil
}

// Start starts all loaded modules.
func (rt *Runtime) Start() error {
	if err := rt.app.Start(); err != nil {
		rt.flushTelemetry()
		return err
	}
	rt.started = true
	rt.Logger.Info("mercury started", "config", rt.ConfigPath, "modules", len(rt.ModuleIDs))
	return nil
}

// Stop stops the modules in reverse order and flushes pending spans. On a
// runtime that was never started it releases the loaded modules.
func (rt *Runtime) Stop() {
	if rt.started {
		rt.app.Stop()
		rt.started = false
	} else {
		rt.app.Release()
	}
	rt.flushTelemetry()
	rt.Logger.Info("shutdown complete")
}

func (rt *Runtime) flushTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := rt.shutdown(ctx); err != nil {
		rt.Logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// Run loads configuration, starts all modules, and blocks until SIGINT or
// SIGTERM is received.
func Run(params RunParams) error {
	rt, err := Prepare(context.Background(), params)
	if err != nil {
		return err
	}
	if err := rt.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	rt.Logger.Info("shutdown signal received", "signal", sig.String())
	rt.Stop()
	return nil
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/mercury/mercury.yaml → ~/.config/mercury/mercury.yaml → ./mercury.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "mercury", "mercury.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "mercury", "mercury.yaml"))
	}

	candidates = append(candidates, "mercury.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/mercury if set, otherwise ~/.local/share/mercury.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "mercury")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mercury")
}
