package workflow

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/vk/reconfgrid/internal/action"
)

// Workflow is a directed graph of nodes. Outgoing adjacency is authoritative;
// the incoming index is kept in sync by link and unlink. A Workflow is built
// by a single goroutine; executing it only reads the structure.
type Workflow struct {
	// nodes keeps insertion order so flows and DOT output are deterministic.
	nodes []*Node
	index map[string]*Node
	out   map[string][]string
	in    map[string][]string
	newID func() string
}

// Option configures a new Workflow.
type Option func(*Workflow)

// WithIDGenerator overrides the generator of control node ids.
func WithIDGenerator(gen func() string) Option {
	return func(w *Workflow) { w.newID = gen }
}

// New returns an empty workflow.
func New(opts ...Option) *Workflow {
	w := &Workflow{
		index: make(map[string]*Node),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Len returns the number of nodes.
func (w *Workflow) Len() int {
	return len(w.nodes)
}

// Empty reports whether the workflow has no node.
func (w *Workflow) Empty() bool {
	return len(w.nodes) == 0
}

// Nodes returns the nodes in insertion order.
func (w *Workflow) Nodes() []*Node {
	return slices.Clone(w.nodes)
}

// Node returns the node with the given id.
func (w *Workflow) Node(id string) (*Node, bool) {
	n, ok := w.index[id]
	return n, ok
}

// Tasks returns the task nodes in insertion order.
func (w *Workflow) Tasks() []*Node {
	return w.filter(func(n *Node) bool { return n.Kind == Task })
}

// Successors returns the nodes id flows into.
func (w *Workflow) Successors(id string) []*Node {
	return w.resolve(w.out[id])
}

// Predecessors returns the nodes flowing into id.
func (w *Workflow) Predecessors(id string) []*Node {
	return w.resolve(w.in[id])
}

// InDegree returns the number of incoming flows of id.
func (w *Workflow) InDegree(id string) int {
	return len(w.in[id])
}

// OutDegree returns the number of outgoing flows of id.
func (w *Workflow) OutDegree(id string) int {
	return len(w.out[id])
}

// Flows recomputes the flow set from the adjacency.
func (w *Workflow) Flows() []Flow {
	var flows []Flow
	for _, n := range w.nodes {
		for _, to := range w.out[n.ID] {
			flows = append(flows, Flow{From: n.ID, To: to})
		}
	}
	return flows
}

// InitialNodes returns the nodes without incoming flows.
func (w *Workflow) InitialNodes() []*Node {
	return w.filter(func(n *Node) bool { return len(w.in[n.ID]) == 0 })
}

// FinalNodes returns the nodes without outgoing flows.
func (w *Workflow) FinalNodes() []*Node {
	return w.filter(func(n *Node) bool { return len(w.out[n.ID]) == 0 })
}

// Entry returns the Initial event of a wrapped workflow.
func (w *Workflow) Entry() (*Node, bool) {
	initial := w.InitialNodes()
	if len(initial) != 1 || initial[0].Kind != Initial {
		return nil, false
	}
	return initial[0], true
}

// Reset clears every node's tokens.
func (w *Workflow) Reset() {
	for _, n := range w.nodes {
		n.Reset()
	}
}

// task returns the task node of a, inserting it on first use.
func (w *Workflow) task(a action.Action) *Node {
	if n, ok := w.index[a.Key()]; ok {
		return n
	}
	n := &Node{ID: a.Key(), Kind: Task, Action: a}
	w.insert(n)
	return n
}

func (w *Workflow) control(kind Kind) *Node {
	n := &Node{ID: w.newID(), Kind: kind}
	w.insert(n)
	return n
}

func (w *Workflow) insert(n *Node) {
	if _, ok := w.index[n.ID]; ok {
		panic(fmt.Sprintf("workflow: duplicate node id %q", n.ID))
	}
	w.index[n.ID] = n
	w.nodes = append(w.nodes, n)
}

func (w *Workflow) mustNode(id string) *Node {
	n, ok := w.index[id]
	if !ok {
		panic(fmt.Sprintf("workflow: node %q not found", id))
	}
	return n
}

// link adds the flow from -> to; it is a no-op if the flow exists.
func (w *Workflow) link(from, to *Node) {
	if slices.Contains(w.out[from.ID], to.ID) {
		return
	}
	w.out[from.ID] = append(w.out[from.ID], to.ID)
	w.in[to.ID] = append(w.in[to.ID], from.ID)
}

func (w *Workflow) unlink(from, to *Node) {
	w.out[from.ID] = slices.DeleteFunc(w.out[from.ID], func(id string) bool { return id == to.ID })
	w.in[to.ID] = slices.DeleteFunc(w.in[to.ID], func(id string) bool { return id == from.ID })
}

func (w *Workflow) resolve(ids []string) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.mustNode(id))
	}
	return out
}

func (w *Workflow) filter(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range w.nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
