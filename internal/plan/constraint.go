package plan

import (
	"fmt"
	"slices"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/topology"
)

// Constraint requires Before to complete before After begins.
type Constraint struct {
	Before action.Action
	After  action.Action
}

func (c Constraint) String() string {
	return c.Before.Key() + " -> " + c.After.Key()
}

// Actions returns the atomic actions the delta calls for: stops and removals
// resolved against the source, additions and starts against the target.
func (d *Delta) Actions() []action.Action {
	var out []action.Action
	out = append(out, d.actions(d.Source, action.Stop, d.ToStop)...)
	out = append(out, d.actions(d.Source, action.Remove, d.ToRemove)...)
	out = append(out, d.actions(d.Target, action.Add, d.ToAdd)...)
	out = append(out, d.actions(d.Target, action.Start, d.ToStart)...)
	return out
}

// Constraints derives the precedence pairs between the delta's actions.
func (d *Delta) Constraints() []Constraint {
	seen := make(map[[2]string]bool)
	var out []Constraint
	add := func(before, after action.Action) {
		k := [2]string{before.Key(), after.Key()}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, Constraint{Before: before, After: after})
	}

	stopping := set(d.ToStop)
	for _, x := range d.ToStop {
		for _, y := range d.Source.Requirements(x) {
			if stopping[y.Name] {
				add(d.action(d.Source, action.Stop, x), d.action(d.Source, action.Stop, y.Name))
			}
		}
	}

	for _, x := range d.ToStart {
		for _, r := range d.Target.Requirers(x) {
			add(d.action(d.Target, action.Start, x), d.action(d.Target, action.Start, r.Name))
		}
	}

	for _, x := range d.ToRemove {
		add(d.action(d.Source, action.Stop, x), d.action(d.Source, action.Remove, x))
	}

	for _, x := range d.ToAdd {
		add(d.action(d.Target, action.Add, x), d.action(d.Target, action.Start, x))
	}

	for _, x := range d.AwaitingRestart() {
		add(d.action(d.Source, action.Stop, x), d.action(d.Target, action.Start, x))
	}

	removing, starting := set(d.ToRemove), set(d.ToStart)
	for _, r := range d.Replacements {
		if !removing[r.Old] || !starting[r.New] {
			continue
		}
		add(d.action(d.Source, action.Remove, r.Old), d.action(d.Target, action.Start, r.New))
	}
	return out
}

// Phase returns the constraints whose endpoints are both of the given kind.
func Phase(constraints []Constraint, kind action.Kind) []Constraint {
	return slices.DeleteFunc(slices.Clone(constraints), func(c Constraint) bool {
		return c.Before.Kind != kind || c.After.Kind != kind
	})
}

func (d *Delta) actions(g *topology.Graph, kind action.Kind, names []string) []action.Action {
	out := make([]action.Action, 0, len(names))
	for _, name := range names {
		out = append(out, d.action(g, kind, name))
	}
	return out
}

func (d *Delta) action(g *topology.Graph, kind action.Kind, name string) action.Action {
	a, err := g.ActionFor(kind, name)
	if err != nil {
		// Delta sets are derived from these very graphs.
		panic(fmt.Sprintf("plan: %v", err))
	}
	return a
}

func set(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
