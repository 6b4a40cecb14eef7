package workflow

import (
	"sync/atomic"

	"github.com/vk/reconfgrid/internal/action"
)

// Kind distinguishes task nodes from control nodes.
type Kind int

const (
	Task Kind = iota
	Initial
	Split
	Join
	Final
)

func (k Kind) String() string {
	switch k {
	case Task:
		return "task"
	case Initial:
		return "initial"
	case Split:
		return "split"
	case Join:
		return "join"
	case Final:
		return "final"
	default:
		return "unknown"
	}
}

// Node is a vertex of a workflow. Task nodes are identified by their
// action's key; control nodes by a generated id.
type Node struct {
	ID     string
	Kind   Kind
	Action action.Action

	tokens atomic.Int32
	fired  atomic.Bool
}

// IsGateway reports whether the node is a Split or a Join.
func (n *Node) IsGateway() bool {
	return n.Kind == Split || n.Kind == Join
}

// IsEvent reports whether the node is an Initial or a Final event.
func (n *Node) IsEvent() bool {
	return n.Kind == Initial || n.Kind == Final
}

// Receive delivers one token and reports whether the node became runnable
// with it. A node becomes runnable at most once until Reset.
func (n *Node) Receive(required int) bool {
	return int(n.tokens.Add(1)) >= required && n.fired.CompareAndSwap(false, true)
}

// Tokens returns the number of tokens delivered so far.
func (n *Node) Tokens() int {
	return int(n.tokens.Load())
}

// Reset clears the token counter before a new run.
func (n *Node) Reset() {
	n.tokens.Store(0)
	n.fired.Store(false)
}

func (n *Node) String() string {
	if n.Kind == Task {
		return n.Action.Key()
	}
	return n.Kind.String()
}

// Flow is a directed edge between two nodes, by id.
type Flow struct {
	From string
	To   string
}

func (f Flow) String() string {
	return f.From + " -> " + f.To
}
