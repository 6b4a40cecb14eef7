package workflow

import (
	"fmt"
	"strings"
)

// Violation describes one node breaking the compliance rules.
type Violation struct {
	Node     string
	Kind     Kind
	Incoming int
	Outgoing int
}

func (v Violation) String() string {
	return fmt.Sprintf("%s node %q has %d incoming and %d outgoing flows", v.Kind, v.Node, v.Incoming, v.Outgoing)
}

// ComplianceError lists every violation found by Validate.
type ComplianceError struct {
	Violations []Violation
	// NoEntry is set when the workflow is not entered through exactly one
	// Initial event.
	NoEntry bool
}

func (e *ComplianceError) Error() string {
	parts := make([]string, 0, len(e.Violations)+1)
	if e.NoEntry {
		parts = append(parts, "workflow is not entered through a single initial event")
	}
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return ErrNonCompliant.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ComplianceError) Unwrap() error {
	return ErrNonCompliant
}

// Compliant reports whether a node of the given kind may have these degrees.
func Compliant(kind Kind, incoming, outgoing int) bool {
	switch kind {
	case Task:
		return incoming <= 1 && outgoing <= 1
	case Initial:
		return incoming == 0 && outgoing == 1
	case Split:
		return incoming == 1 && outgoing > 1
	case Join:
		return incoming > 1 && outgoing == 1
	case Final:
		return incoming == 1 && outgoing == 0
	default:
		return false
	}
}

// Validate checks every node's degrees and that the workflow is entered
// through a single Initial event.
func (w *Workflow) Validate() error {
	var violations []Violation
	for _, n := range w.nodes {
		in, out := w.InDegree(n.ID), w.OutDegree(n.ID)
		if !Compliant(n.Kind, in, out) {
			violations = append(violations, Violation{Node: n.ID, Kind: n.Kind, Incoming: in, Outgoing: out})
		}
	}
	_, entered := w.Entry()
	if len(violations) == 0 && entered {
		return nil
	}
	return &ComplianceError{Violations: violations, NoEntry: !entered}
}
