package workflow

import "errors"

var (
	// ErrNonCompliant is matched by every *ComplianceError.
	ErrNonCompliant = errors.New("workflow is not compliant")
	// ErrNotWrappable is returned when a workflow has several entries or exits.
	ErrNotWrappable = errors.New("workflow must have exactly one entry and one exit to be wrapped")
	// ErrNotLinkable is returned when two workflows cannot be composed in sequence.
	ErrNotLinkable = errors.New("workflows cannot be linked")
	// ErrUnknownStrategy is returned for an unrecognised strategy name.
	ErrUnknownStrategy = errors.New("unknown workflow strategy")
)
