package plan

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/topology"
)

// Formula is an ordered sequence of abstract operations.
type Formula []Operation

// Replacement records that Old is superseded by New, so the new deployment
// starts only after the old one is gone.
type Replacement struct {
	Old string
	New string
}

// Sorted returns the formula stably ordered by decreasing priority:
// replacements first, removals last.
func (f Formula) Sorted() Formula {
	sorted := slices.Clone(f)
	slices.SortStableFunc(sorted, func(a, b Operation) int {
		return b.Priority() - a.Priority()
	})
	return sorted
}

// Transparent reports whether the formula only rewires dependencies and
// therefore needs no runtime action.
func (f Formula) Transparent() bool {
	return lo.EveryBy(f, func(op Operation) bool {
		switch op.(type) {
		case Bind, *Bind, Release, *Release:
			return true
		default:
			return false
		}
	})
}

// Replacements lists the replacement facts carried by the formula.
func (f Formula) Replacements() []Replacement {
	return lo.FilterMap(f, func(op Operation, _ int) (Replacement, bool) {
		r, ok := op.(Replace)
		return Replacement{Old: r.Old, New: r.New.Name}, ok
	})
}

// Target replays the formula on a private copy of source and returns the
// resulting configuration with the formula's replacements. The source graph
// is never modified.
func (f Formula) Target(ctx context.Context, source *topology.Graph) (*topology.Graph, []Replacement, error) {
	logger := ctxlog.FromContext(ctx)
	target := source.Clone()
	for i, op := range f {
		if err := op.Apply(ctx, target); err != nil {
			return nil, nil, fmt.Errorf("operation %d (%s): %w", i+1, op, err)
		}
	}
	if err := target.CheckAcyclic(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTargetContainsCycles, err)
	}
	logger.Debug("Target configuration computed.", "configuration", source.Namespace(), "operations", len(f), "deployments", target.Len())
	return target, f.Replacements(), nil
}

func (f Formula) String() string {
	lines := lo.Map(f, func(op Operation, _ int) string { return op.String() })
	return strings.Join(lines, "\n")
}
