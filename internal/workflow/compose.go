package workflow

import (
	"fmt"
)

// GroupInitialNodes unifies several entries behind a single Split gateway.
func (w *Workflow) GroupInitialNodes() {
	initial := w.InitialNodes()
	if len(initial) < 2 {
		return
	}
	split := w.control(Split)
	for _, n := range initial {
		w.link(split, n)
	}
}

// GroupFinalNodes unifies several exits into a single Join gateway.
func (w *Workflow) GroupFinalNodes() {
	final := w.FinalNodes()
	if len(final) < 2 {
		return
	}
	join := w.control(Join)
	for _, n := range final {
		w.link(n, join)
	}
}

// GroupBothEnds groups the entries, then the exits.
func (w *Workflow) GroupBothEnds() {
	w.GroupInitialNodes()
	w.GroupFinalNodes()
}

// Wrap brackets the workflow with an Initial and a Final event. An empty
// workflow becomes Initial -> Final. Wrapping an already wrapped workflow is
// a no-op.
func (w *Workflow) Wrap() error {
	if w.Empty() {
		w.link(w.control(Initial), w.control(Final))
		return nil
	}
	initial, final := w.InitialNodes(), w.FinalNodes()
	if len(initial) != 1 || len(final) != 1 {
		return fmt.Errorf("%w: %d entries, %d exits", ErrNotWrappable, len(initial), len(final))
	}
	first, last := initial[0], final[0]
	if first.Kind == Initial || last.Kind == Final {
		return nil
	}
	start, end := w.control(Initial), w.control(Final)
	w.link(start, first)
	w.link(last, end)
	return nil
}

// Append composes next after w: w's single exit flows into next's single
// entry. Empty workflows are neutral. The node sets must be disjoint; next
// must not be used afterwards.
func (w *Workflow) Append(next *Workflow) error {
	if next.Empty() {
		return nil
	}
	if w.Empty() {
		w.adopt(next)
		return nil
	}
	final, initial := w.FinalNodes(), next.InitialNodes()
	if len(final) != 1 || final[0].Kind == Final {
		return fmt.Errorf("%w: first workflow must have one exit that is not a final event", ErrNotLinkable)
	}
	if len(initial) != 1 || initial[0].Kind == Initial {
		return fmt.Errorf("%w: second workflow must have one entry that is not an initial event", ErrNotLinkable)
	}
	for _, n := range next.nodes {
		if _, shared := w.index[n.ID]; shared {
			return fmt.Errorf("%w: node %q belongs to both workflows", ErrNotLinkable, n.ID)
		}
	}
	last, first := final[0], initial[0]
	w.adopt(next)
	w.link(last, first)
	return nil
}

func (w *Workflow) adopt(other *Workflow) {
	for _, n := range other.nodes {
		w.insert(n)
	}
	for _, f := range other.Flows() {
		w.link(w.index[f.From], w.index[f.To])
	}
}
