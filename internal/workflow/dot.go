package workflow

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const taskNodeStyle = `node [shape=rect, style="rounded,filled", fillcolor="#ffffff", fontname="Helvetica", fontsize=10];`

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]`)

// DOTID returns the identifier of n in DOT output.
func DOTID(n *Node) string {
	id := strings.ReplaceAll(n.ID, "-", "_")
	switch n.Kind {
	case Initial:
		return "init_" + id
	case Split:
		return "split_" + id
	case Join:
		return "join_" + id
	case Final:
		return "end_" + id
	default:
		return nonIdentifier.ReplaceAllString(n.Action.Key(), "_")
	}
}

func dotNode(n *Node) string {
	switch n.Kind {
	case Initial:
		return DOTID(n) + ` [label="", shape=circle, width=0.2, height=0.2, fixedsize=true, style=filled, fillcolor="#000000"];`
	case Split, Join:
		return DOTID(n) + ` [label="+", shape=diamond, width=0.35, height=0.35, fixedsize=true, style=filled, fillcolor="#ffffff", fontsize=20, fontname="Helvetica-Bold"];`
	case Final:
		return DOTID(n) + ` [label="", shape=doublecircle, width=0.17, height=0.17, fixedsize=true, style=filled, fillcolor="#000000"];`
	default:
		return fmt.Sprintf("%s [label=%q];", DOTID(n), n.Action.Key())
	}
}

// WriteDOT renders the workflow for Graphviz. The output depends only on the
// node insertion order and the control node ids.
func WriteDOT(out io.Writer, w *Workflow) error {
	b := bufio.NewWriter(out)
	line := func(indent bool, s string) {
		if indent {
			b.WriteString("\t")
		}
		b.WriteString(s)
		b.WriteString("\n")
	}

	line(false, "// dot code for concrete workflow generated by reconfgrid")
	line(false, "digraph ConcreteWorkflowBPMN {")
	line(true, "rankdir=TB;")
	line(true, "bgcolor=white;")
	line(true, "nodesep=0.5;")

	line(true, "// Event nodes")
	for _, n := range w.filter((*Node).IsEvent) {
		line(true, dotNode(n))
	}
	line(true, "// Parallel gateways")
	for _, n := range w.filter((*Node).IsGateway) {
		line(true, dotNode(n))
	}
	line(true, "// Tasks")
	line(true, taskNodeStyle)
	for _, n := range w.Tasks() {
		line(true, dotNode(n))
	}
	line(true, "// Flows")
	for _, f := range w.Flows() {
		line(true, DOTID(w.index[f.From])+" -> "+DOTID(w.index[f.To])+";")
	}
	line(false, "}")
	return b.Flush()
}
