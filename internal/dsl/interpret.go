package dsl

import (
	"slices"
)

// Interpret lexes, analyzes and translates src. When any problem is found
// the returned error is a Diagnostics value listing all of them by line.
func Interpret(src string) (*Program, error) {
	tokens, lexical := Lex(src)
	diags := append(lexical, Analyze(tokens)...)
	if len(diags) > 0 {
		slices.SortStableFunc(diags, func(a, b Diagnostic) int { return a.Line - b.Line })
		return nil, diags
	}
	return Translate(tokens), nil
}
