package workflow

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/vk/reconfgrid/internal/action"
	"github.com/vk/reconfgrid/internal/plan"
)

// Build creates a workflow with one task node per distinct action and flows
// honouring the constraints. Every constraint endpoint must be among tasks.
// The result is not grouped or wrapped.
func Build(tasks []action.Action, constraints []plan.Constraint, opts ...Option) *Workflow {
	w := New(opts...)
	for _, a := range tasks {
		w.task(a)
	}

	naive := make([]Flow, 0, len(constraints))
	seen := make(map[Flow]bool, len(constraints))
	for _, c := range constraints {
		f := Flow{From: w.constrained(c.Before, c).ID, To: w.constrained(c.After, c).ID}
		if !seen[f] {
			seen[f] = true
			naive = append(naive, f)
		}
	}

	flows := removeTangents(naive)
	outs, ins := adjacency(flows)

	for _, f := range flows {
		if len(outs[f.From]) == 1 && len(ins[f.To]) == 1 {
			w.link(w.mustNode(f.From), w.mustNode(f.To))
		}
	}

	splitOf := make(map[string]*Node)
	for _, source := range sourcesOf(flows) {
		if len(outs[source]) < 2 {
			continue
		}
		split := w.control(Split)
		w.link(w.mustNode(source), split)
		for _, target := range outs[source] {
			w.link(split, w.mustNode(target))
		}
		splitOf[source] = split
	}

	joinOf := make(map[string]*Node)
	var syncPoints []string
	for _, target := range targetsOf(flows) {
		if len(ins[target]) < 2 {
			continue
		}
		join := w.control(Join)
		for _, source := range ins[target] {
			w.link(w.mustNode(source), join)
		}
		w.link(join, w.mustNode(target))
		joinOf[target] = join
		syncPoints = append(syncPoints, target)
	}

	// A flow that is both split and synced leaves its source with two
	// outgoing flows; route it through the split into the join instead.
	for _, target := range syncPoints {
		join := joinOf[target]
		for _, source := range ins[target] {
			split, ok := splitOf[source]
			if !ok {
				continue
			}
			w.unlink(w.mustNode(source), join)
			w.link(split, join)
			w.unlink(split, w.mustNode(target))
		}
	}
	return w
}

func (w *Workflow) constrained(a action.Action, c plan.Constraint) *Node {
	n, ok := w.index[a.Key()]
	if !ok {
		panic(fmt.Sprintf("workflow: constraint %q refers to action %q which is not a task", c, a.Key()))
	}
	return n
}

// removeTangents drops every flow whose endpoints are connected by another
// path. On an acyclic flow set this is the transitive reduction.
func removeTangents(flows []Flow) []Flow {
	kept := make([]Flow, 0, len(flows))
	for i, f := range flows {
		if !hasPathAvoiding(flows, i, f.From, f.To) {
			kept = append(kept, f)
		}
	}
	return kept
}

func hasPathAvoiding(flows []Flow, skip int, from, to string) bool {
	next := make(map[string][]string)
	for i, f := range flows {
		if i != skip {
			next[f.From] = append(next[f.From], f.To)
		}
	}
	visited := map[string]bool{}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		queue = append(queue, next[current]...)
	}
	return false
}

func adjacency(flows []Flow) (outs, ins map[string][]string) {
	outs, ins = make(map[string][]string), make(map[string][]string)
	for _, f := range flows {
		outs[f.From] = append(outs[f.From], f.To)
		ins[f.To] = append(ins[f.To], f.From)
	}
	return outs, ins
}

func sourcesOf(flows []Flow) []string {
	return lo.Uniq(lo.Map(flows, func(f Flow, _ int) string { return f.From }))
}

func targetsOf(flows []Flow) []string {
	return lo.Uniq(lo.Map(flows, func(f Flow, _ int) string { return f.To }))
}
