package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/plan"
	"github.com/vk/reconfgrid/internal/topology"
	"github.com/vk/reconfgrid/internal/workflow"
)

// ErrNoEntry is returned when a workflow to run has no Initial event.
var ErrNoEntry = errors.New("workflow has no initial event")

// Executor runs workflows and linear plans through a Runner.
type Executor struct {
	runner  Runner
	workers int64
	backoff time.Duration
	metrics *Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers bounds the number of tasks running at once.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = int64(n)
		}
	}
}

// WithBackoff sets the pause after every stop action.
func WithBackoff(d time.Duration) Option {
	return func(e *Executor) { e.backoff = d }
}

// WithMetrics records task metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New returns an executor. Without WithWorkers it runs up to 10 tasks at once.
func New(runner Runner, opts ...Option) *Executor {
	e := &Executor{runner: runner, workers: 10}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a compliant workflow. Non-compliant workflows are refused
// with an error matching workflow.ErrNonCompliant.
func (e *Executor) Run(ctx context.Context, w *workflow.Workflow) error {
	logger := ctxlog.FromContext(ctx)
	if err := w.Validate(); err != nil {
		return fmt.Errorf("refusing to run: %w", err)
	}
	entry, ok := w.Entry()
	if !ok {
		return ErrNoEntry
	}
	w.Reset()

	r := &run{
		executor: e,
		workflow: w,
		slots:    semaphore.NewWeighted(e.workers),
	}
	r.group, ctx = errgroup.WithContext(ctx)

	logger.Info("Executing workflow.", "tasks", len(w.Tasks()), "workers", e.workers)
	r.deliver(ctx, entry)
	if err := r.group.Wait(); err != nil {
		logger.Error("Workflow execution failed.", "error", err)
		return err
	}
	logger.Info("Workflow executed.")
	return nil
}

// Apply runs the workflow and, on success, replaces the graph with the
// delta's target, every deployment of which is then started.
func (e *Executor) Apply(ctx context.Context, g *topology.Graph, d *plan.Delta, w *workflow.Workflow) error {
	if err := e.Run(ctx, w); err != nil {
		return err
	}
	return commit(ctx, g, d.Target)
}

// RunLinear executes the actions of a linear plan one after another.
func (e *Executor) RunLinear(ctx context.Context, l *plan.Linear) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Executing linear plan.", "actions", len(l.Actions))
	for i, a := range l.Actions {
		if err := e.execute(ctx, a); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	logger.Info("Linear plan executed.")
	return nil
}

// ApplyLinear runs a linear plan and replaces the graph with its target.
func (e *Executor) ApplyLinear(ctx context.Context, g *topology.Graph, l *plan.Linear) error {
	if err := e.RunLinear(ctx, l); err != nil {
		return err
	}
	return commit(ctx, g, l.Target)
}

func commit(ctx context.Context, g, target *topology.Graph) error {
	next := target.Clone()
	if err := next.Boot(ctx); err != nil {
		return fmt.Errorf("booting target configuration: %w", err)
	}
	g.Replace(next)
	ctxlog.FromContext(ctx).Debug("Configuration replaced.", "configuration", g.Namespace(), "deployments", g.Len())
	return nil
}

func (e *Executor) execute(ctx context.Context, a action.Action) error {
	logger := ctxlog.FromContext(ctx).With("action", a.Key())
	logger.Debug("Executing action.")

	started := time.Now()
	err := e.runner.Run(ctx, action.Commands(a))
	e.metrics.observe(a.Kind, time.Since(started), err)
	if err != nil {
		return fmt.Errorf("task %q: %w", a.Key(), err)
	}
	logger.Info("Action completed.", "duration", time.Since(started))

	if a.Kind == action.Stop && e.backoff > 0 {
		select {
		case <-time.After(e.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// run holds the state of one workflow execution.
type run struct {
	executor *Executor
	workflow *workflow.Workflow
	group    *errgroup.Group
	slots    *semaphore.Weighted
}

// deliver hands a token to n and schedules it once it becomes runnable.
func (r *run) deliver(ctx context.Context, n *workflow.Node) {
	required := max(r.workflow.InDegree(n.ID), 1)
	if !n.Receive(required) {
		return
	}
	r.group.Go(func() error { return r.fire(ctx, n) })
}

func (r *run) fire(ctx context.Context, n *workflow.Node) error {
	if n.Kind == workflow.Task {
		if err := r.slots.Acquire(ctx, 1); err != nil {
			return err
		}
		err := r.executor.execute(ctx, n.Action)
		r.slots.Release(1)
		if err != nil {
			return err
		}
	}
	for _, next := range r.workflow.Successors(n.ID) {
		r.deliver(ctx, next)
	}
	return nil
}
