package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/dsl"
	"github.com/vk/reconfgrid/internal/executor"
	"github.com/vk/reconfgrid/internal/hcltopology"
	"github.com/vk/reconfgrid/internal/history"
	"github.com/vk/reconfgrid/internal/topology"
)

var (
	ErrMissingScript         = errors.New("no reconfiguration script given")
	ErrMissingTopology       = errors.New("no topology path given")
	ErrMissingHistory        = errors.New("no history database given")
	ErrConfigurationMismatch = errors.New("script and topology name different configurations")
	ErrNoWorkflow            = errors.New("linear plans have no workflow")
)

// TopologyLoader produces the current, booted configuration.
type TopologyLoader interface {
	Load(ctx context.Context, paths ...string) (*topology.Graph, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   TopologyLoader
	runner   executor.Runner
	registry *prometheus.Registry
	metrics  *executor.Metrics
}

// Option overrides one of the App's collaborators.
type Option func(*App)

// WithLoader replaces the HCL topology loader.
func WithLoader(l TopologyLoader) Option {
	return func(a *App) { a.loader = l }
}

// WithRunner replaces the command runner chosen from the configuration.
func WithRunner(r executor.Runner) Option {
	return func(a *App) { a.runner = r }
}

// NewApp is the constructor for the main application. Logs, and the output
// of the commands it runs, go to outW.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	registry := prometheus.NewRegistry()
	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   hcltopology.NewLoader(),
		registry: registry,
		metrics:  executor.NewMetrics(registry),
	}
	if cfg.DryRun {
		a.runner = &executor.DryRunner{}
	} else {
		a.runner = &executor.ShellRunner{Shell: "/bin/sh", Stdout: outW, Stderr: outW}
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("App created.", "strategy", cfg.Strategy, "dry_run", cfg.DryRun, "workers", cfg.Workers)
	return a
}

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Check reads and interprets the reconfiguration script. Syntax problems
// are returned as dsl.Diagnostics.
func (a *App) Check(ctx context.Context) (*dsl.Program, error) {
	logger := ctxlog.FromContext(a.context(ctx))
	if a.config.ScriptPath == "" {
		return nil, ErrMissingScript
	}
	src, err := os.ReadFile(a.config.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	program, err := dsl.Interpret(string(src))
	if err != nil {
		logger.Debug("Script rejected.", "script", a.config.ScriptPath, "error", err)
		return nil, err
	}
	logger.Debug("Script interpreted.", "configuration", program.Configuration, "operations", len(program.Formula))
	return program, nil
}

func (a *App) loadTopology(ctx context.Context) (*topology.Graph, error) {
	if a.config.TopologyPath == "" {
		return nil, ErrMissingTopology
	}
	g, err := a.loader.Load(ctx, a.config.TopologyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Topology loaded.", "configuration", g.Namespace(), "deployments", g.Len())
	return g, nil
}

// rename returns g under the configured namespace override, if any.
func (a *App) rename(g *topology.Graph) (*topology.Graph, error) {
	if a.config.Namespace == "" || a.config.Namespace == g.Namespace() {
		return g, nil
	}
	s := g.Snapshot()
	s.Namespace = a.config.Namespace
	return topology.FromSnapshot(s)
}

// History lists the recorded snapshots of a namespace, oldest first.
func (a *App) History(ctx context.Context, namespace string) ([]history.Entry, error) {
	ctx = a.context(ctx)
	store, err := a.openHistory(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(ctx, namespace)
}

func (a *App) openHistory(ctx context.Context) (*history.Store, error) {
	if a.config.HistoryDSN == "" {
		return nil, ErrMissingHistory
	}
	store, err := history.Open(ctx, a.config.HistoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}
