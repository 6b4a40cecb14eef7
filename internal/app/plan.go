package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/dsl"
	"github.com/vk/reconfgrid/internal/plan"
	"github.com/vk/reconfgrid/internal/topology"
	"github.com/vk/reconfgrid/internal/workflow"
)

// Plan is a computed, not yet executed reconfiguration. Delta and Workflow
// are set for the phased and confluent strategies, Linear for the linear one.
type Plan struct {
	Program  *dsl.Program
	Source   *topology.Graph
	Strategy string
	Delta    *plan.Delta
	Workflow *workflow.Workflow
	Linear   *plan.Linear
}

// Target returns the configuration the plan leads to.
func (p *Plan) Target() *topology.Graph {
	if p.Linear != nil {
		return p.Linear.Target
	}
	return p.Delta.Target
}

// Empty reports whether executing the plan would run no action.
func (p *Plan) Empty() bool {
	if p.Linear != nil {
		return len(p.Linear.Actions) == 0
	}
	return p.Delta.Empty()
}

// Plan interprets the script, loads the topology and computes the
// reconfiguration with the configured strategy.
func (a *App) Plan(ctx context.Context) (*Plan, error) {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	program, err := a.Check(ctx)
	if err != nil {
		return nil, err
	}
	source, err := a.loadTopology(ctx)
	if err != nil {
		return nil, err
	}
	if program.Configuration != source.Namespace() {
		return nil, fmt.Errorf("%w: script targets %q, topology describes %q",
			ErrConfigurationMismatch, program.Configuration, source.Namespace())
	}
	if source, err = a.rename(source); err != nil {
		return nil, err
	}

	p := &Plan{Program: program, Source: source, Strategy: a.config.Strategy}
	if p.Strategy == StrategyLinear {
		if p.Linear, err = plan.Linearize(ctx, source, program.Formula); err != nil {
			return nil, fmt.Errorf("failed to linearize: %w", err)
		}
		logger.Info("Linear plan ready.", "actions", len(p.Linear.Actions))
		return p, nil
	}

	target, replacements, err := program.Formula.Sorted().Target(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to compute target configuration: %w", err)
	}
	if p.Delta, err = plan.NewDelta(source, target, replacements...); err != nil {
		return nil, err
	}
	strategy, err := workflow.ParseStrategy(p.Strategy)
	if err != nil {
		return nil, err
	}
	if p.Workflow, err = workflow.FromDelta(ctx, p.Delta, strategy); err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}
	logger.Info("Reconfiguration planned.",
		"stop", len(p.Delta.ToStop), "remove", len(p.Delta.ToRemove),
		"add", len(p.Delta.ToAdd), "start", len(p.Delta.ToStart),
		"tasks", len(p.Workflow.Tasks()))
	return p, nil
}

// WriteDOT plans the reconfiguration and writes its workflow as DOT.
func (a *App) WriteDOT(ctx context.Context, out io.Writer) error {
	p, err := a.Plan(ctx)
	if err != nil {
		return err
	}
	if p.Workflow == nil {
		return ErrNoWorkflow
	}
	return workflow.WriteDOT(out, p.Workflow)
}
