package workflow

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/plan"
)

// Strategy selects how a delta is laid out as a workflow.
type Strategy int

const (
	// StrategyPhased runs all stops, then removals, then additions, then
	// starts, each phase in parallel where its constraints allow.
	StrategyPhased Strategy = iota
	// StrategyConfluent builds one graph from every constraint so unrelated
	// actions of different kinds may overlap.
	StrategyConfluent
)

func (s Strategy) String() string {
	if s == StrategyConfluent {
		return "confluent"
	}
	return "phased"
}

// ParseStrategy maps a strategy name to its value.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "phased":
		return StrategyPhased, nil
	case "confluent":
		return StrategyConfluent, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

var phases = []action.Kind{action.Stop, action.Remove, action.Add, action.Start}

// FromDelta builds the wrapped, compliant workflow executing d.
func FromDelta(ctx context.Context, d *plan.Delta, s Strategy, opts ...Option) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	actions, constraints := d.Actions(), d.Constraints()

	var w *Workflow
	switch s {
	case StrategyConfluent:
		w = Build(actions, constraints, opts...)
		w.GroupBothEnds()
	default:
		w = New(opts...)
		for _, kind := range phases {
			tasks := lo.Filter(actions, func(a action.Action, _ int) bool { return a.Kind == kind })
			sub := Build(tasks, plan.Phase(constraints, kind), opts...)
			sub.GroupBothEnds()
			if err := w.Append(sub); err != nil {
				return nil, fmt.Errorf("linking %s phase: %w", kind, err)
			}
			logger.Debug("Workflow phase built.", "phase", kind.String(), "tasks", len(tasks))
		}
	}
	if err := w.Wrap(); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Workflow built.", "strategy", s.String(), "nodes", w.Len(), "flows", len(w.Flows()))
	return w, nil
}
