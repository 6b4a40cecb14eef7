package plan

import (
	"context"
	"fmt"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/topology"
)

// Linear is a totally ordered atomic plan obtained by replaying a formula
// step by step and recording every status transition it causes.
type Linear struct {
	Actions []action.Action
	Target  *topology.Graph
}

// Linearize refines each abstract operation into additions and removals and
// records the start/stop actions the traversal performs on a private copy
// of source. Bind and release only rewire the copy.
func Linearize(ctx context.Context, source *topology.Graph, f Formula) (*Linear, error) {
	l := &linearizer{ctx: ctx, work: source.Clone()}
	for i, op := range f {
		if err := l.step(op); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i+1, op, err)
		}
	}
	if err := l.work.CheckAcyclic(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTargetContainsCycles, err)
	}
	ctxlog.FromContext(ctx).Debug("Linear plan computed.", "configuration", source.Namespace(), "actions", len(l.actions))
	return &Linear{Actions: l.actions, Target: l.work}, nil
}

type linearizer struct {
	ctx     context.Context
	work    *topology.Graph
	actions []action.Action
}

func (l *linearizer) step(op Operation) error {
	switch op := op.(type) {
	case Add:
		if err := op.Apply(l.ctx, l.work); err != nil {
			return err
		}
		return l.added(op.Deployment.Name, nil)
	case Remove:
		if !l.work.Contains(op.Name) {
			return fmt.Errorf("%q in configuration %q: %w", op.Name, l.work.Namespace(), ErrDeploymentToRemoveNotFound)
		}
		return l.remove(op.Name, false)
	case Replace:
		archive, err := l.work.Archive(op.Old)
		if err != nil {
			return fmt.Errorf("%q in configuration %q: %w", op.Old, l.work.Namespace(), ErrDeploymentToReplaceNotFound)
		}
		if op.New.Name != op.Old && l.work.Contains(op.New.Name) {
			return fmt.Errorf("%q in configuration %q: %w", op.New.Name, l.work.Namespace(), ErrDeploymentToAddAlreadyExists)
		}
		if err := l.remove(op.Old, true); err != nil {
			return err
		}
		d := op.New
		d.Status = topology.Stopped
		if err := l.work.Add(l.ctx, d, archive.Requirements...); err != nil {
			return err
		}
		return l.added(d.Name, &archive)
	default:
		return op.Apply(l.ctx, l.work)
	}
}

// remove stops name and its requirers, removes it, and restarts the former
// requirers unless a replacement is about to take its place.
func (l *linearizer) remove(name string, partOfReplacement bool) error {
	requirers := l.work.Requirers(name)
	removal, err := l.work.ActionFor(action.Remove, name)
	if err != nil {
		return err
	}
	if err := l.record(l.work.Stop(name)); err != nil {
		return err
	}
	if err := l.work.RemoveDeployment(l.ctx, name); err != nil {
		return err
	}
	l.actions = append(l.actions, removal)
	if partOfReplacement {
		return nil
	}
	for _, r := range requirers {
		if err := l.record(l.work.Start(r.Name)); err != nil {
			return err
		}
	}
	return nil
}

// added records the addition of an already inserted deployment, reattaches
// archived requirers, and starts everything that now depends on it.
func (l *linearizer) added(name string, archive *topology.Archive) error {
	addition, err := l.work.ActionFor(action.Add, name)
	if err != nil {
		return err
	}
	l.actions = append(l.actions, addition)
	if archive != nil {
		for _, requirer := range archive.Requirers {
			if err := l.work.Bind(requirer, name); err != nil {
				return err
			}
		}
		for _, requirer := range l.work.Requirers(name) {
			if err := l.record(l.work.Start(requirer.Name)); err != nil {
				return err
			}
		}
	}
	return l.record(l.work.Start(name))
}

func (l *linearizer) record(actions []action.Action, err error) error {
	if err != nil {
		return err
	}
	l.actions = append(l.actions, actions...)
	return nil
}
