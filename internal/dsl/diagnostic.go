package dsl

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies a problem found in reconfiguration source.
type DiagnosticKind int

const (
	EmptyInput DiagnosticKind = iota
	ExpectedConfiguration
	UnexpectedToken
	ExpectedSemicolon
	ExpectedOperationOrEnd
	OutOfContext
	InvalidIdentifier
	UnknownSymbol
	EmptyStringLiteral
	MultilineString
	UnclosedStringLiteral
	InvalidPath
	MissingManifestExtension
	InvalidManifestExtension
	EmptySet
)

// Diagnostic is one lexical, syntactic or semantic problem. Line is 0 when
// the problem has no source position.
type Diagnostic struct {
	Line    int
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

// Diagnostics is the complete list of problems found in one source text.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// Has reports whether any diagnostic is of the given kind.
func (ds Diagnostics) Has(kind DiagnosticKind) bool {
	for _, d := range ds {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func diag(kind DiagnosticKind, line int, format string, args ...any) Diagnostic {
	return Diagnostic{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
