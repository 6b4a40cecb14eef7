package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/executor"
	"github.com/vk/reconfgrid/internal/history"
)

// Apply plans the reconfiguration and executes it. On success the returned
// plan's Source holds the reconfigured, started configuration. With a
// history database the configuration is recorded before and after.
func (a *App) Apply(ctx context.Context) (*Plan, error) {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	p, err := a.Plan(ctx)
	if err != nil {
		return nil, err
	}

	var store *history.Store
	if a.config.HistoryDSN != "" {
		if store, err = a.openHistory(ctx); err != nil {
			return nil, err
		}
		defer store.Close()
		if err := a.record(ctx, store, "before "+filepath.Base(a.config.ScriptPath), p); err != nil {
			return nil, err
		}
	}

	if a.config.MetricsAddr != "" {
		srv, err := a.startMetricsServer(ctx, a.config.MetricsAddr)
		if err != nil {
			return nil, err
		}
		defer srv.close(ctx)
	}

	if p.Empty() {
		logger.Warn("Nothing to execute, configuration already matches the script.")
	}
	exec := executor.New(a.runner,
		executor.WithWorkers(a.config.Workers),
		executor.WithBackoff(a.config.Backoff),
		executor.WithMetrics(a.metrics),
	)
	if p.Linear != nil {
		err = exec.ApplyLinear(ctx, p.Source, p.Linear)
	} else {
		err = exec.Apply(ctx, p.Source, p.Delta, p.Workflow)
	}
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	logger.Info("Reconfiguration applied.", "configuration", p.Source.Namespace(), "deployments", p.Source.Len())

	if store != nil {
		if err := a.record(ctx, store, "after "+filepath.Base(a.config.ScriptPath), p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (a *App) record(ctx context.Context, store *history.Store, label string, p *Plan) error {
	version, err := store.Record(ctx, label, p.Source)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Configuration recorded.", "configuration", p.Source.Namespace(), "version", version)
	return nil
}
