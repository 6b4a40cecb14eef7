package plan

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/vk/reconfgrid/internal/topology"
)

// Delta is the difference between a source and a target configuration,
// expressed as the deployments to stop, remove, add and start. All name
// lists are sorted. A Delta is not modified after NewDelta returns.
type Delta struct {
	Source       *topology.Graph
	Target       *topology.Graph
	ToStop       []string
	ToRemove     []string
	ToAdd        []string
	ToStart      []string
	Replacements []Replacement
}

// NewDelta computes the delta between two graphs that share the same
// name-based identity scheme.
func NewDelta(source, target *topology.Graph, replacements ...Replacement) (*Delta, error) {
	sourceNames, targetNames := source.Names(), target.Names()

	toRemove, toAdd := lo.Difference(sourceNames, targetNames)

	stopRequirers, err := transitiveRequirers(source, toRemove)
	if err != nil {
		return nil, fmt.Errorf("delta on source configuration: %w", err)
	}
	toStop := lo.Union(toRemove, stopRequirers)
	awaitingRestart := lo.Without(toStop, toRemove...)

	addRequirers, err := transitiveRequirers(target, toAdd)
	if err != nil {
		return nil, fmt.Errorf("delta on target configuration: %w", err)
	}
	restartRequirers, err := transitiveRequirers(target, awaitingRestart)
	if err != nil {
		return nil, fmt.Errorf("delta on target configuration: %w", err)
	}
	toStart := lo.Union(awaitingRestart, toAdd, addRequirers, restartRequirers)

	return &Delta{
		Source:       source,
		Target:       target,
		ToStop:       sorted(toStop),
		ToRemove:     sorted(toRemove),
		ToAdd:        sorted(toAdd),
		ToStart:      sorted(toStart),
		Replacements: slices.Clone(replacements),
	}, nil
}

// AwaitingRestart lists deployments that are stopped but survive into the target.
func (d *Delta) AwaitingRestart() []string {
	return lo.Without(d.ToStop, d.ToRemove...)
}

// Empty reports whether the delta calls for no action at all.
func (d *Delta) Empty() bool {
	return len(d.ToStop) == 0 && len(d.ToRemove) == 0 && len(d.ToAdd) == 0 && len(d.ToStart) == 0
}

func transitiveRequirers(g *topology.Graph, names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		requirers, err := g.TransitiveRequirers(name)
		if err != nil {
			return nil, err
		}
		for _, r := range requirers {
			out = append(out, r.Name)
		}
	}
	return lo.Uniq(out), nil
}

func sorted(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	if out == nil {
		return []string{}
	}
	return out
}
