package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/countergrid/internal/ctxlog"
	"github.com/vk/countergrid/internal/engine"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/globalstate/memory"
	"github.com/vk/countergrid/internal/globalstate/sqlite"
	"github.com/vk/countergrid/internal/metrics"
	"github.com/vk/countergrid/internal/registry"
	"github.com/vk/countergrid/internal/runner"
	"github.com/vk/countergrid/internal/scenario"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	logClose io.Closer
	registry *registry.Registry
	metrics  *metrics.Metrics
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logW, logClose := logOutput(outW, cfg.LogFile)
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewWith(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "sessions", reg.Sessions())

	return &App{
		outW:     outW,
		logger:   logger,
		logClose: logClose,
		registry: reg,
		metrics:  metrics.New(),
		config:   cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's metrics. This is primarily for testing.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Run loads the scenario, executes it against global state and writes the
// requested report and metrics.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer func() {
		if a.logClose != nil {
			err = errors.Join(err, a.logClose.Close())
		}
	}()

	sc, err := scenario.Load(ctx, a.config.ScenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, store.Close()) }()

	eng := engine.New(store, a.registry, engine.WithMetrics(a.metrics))
	a.logger.Info("Running scenario.", "steps", len(sc.Steps), "accounts", len(sc.Accounts), "workers", a.config.WorkerCount)

	report, runErr := runner.New(eng, a.config.WorkerCount).Run(ctx, sc)

	if err := a.writeReport(report); err != nil {
		return errors.Join(runErr, err)
	}
	if a.config.MetricsPath != "" {
		if err := a.metrics.WriteTextfile(a.config.MetricsPath); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("scenario failed: %w", runErr)
	}

	a.logger.Info("Scenario passed.", "steps", len(report.Steps))
	return nil
}

func (a *App) openStore(ctx context.Context) (globalstate.Store, error) {
	if a.config.StatePath == "" {
		a.logger.Debug("Using in-memory global state.")
		return memory.New(), nil
	}
	a.logger.Debug("Opening SQLite global state.", "path", a.config.StatePath)
	store, err := sqlite.Open(ctx, a.config.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}
	return store, nil
}

func (a *App) writeReport(report *runner.Report) error {
	switch a.config.ReportPath {
	case "":
		return nil
	case "-":
		return report.WriteYAML(a.outW)
	}
	f, err := os.Create(a.config.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
