package dsl

import (
	"github.com/samber/lo"

	"github.com/vk/reconfgrid/internal/plan"
	"github.com/vk/reconfgrid/internal/topology"
)

// Program is the translation of a well-formed reconfiguration text.
type Program struct {
	Configuration string
	Formula       plan.Formula
}

type statement []Token

// Translate turns an analyzed token stream into a program. The formula is
// sorted by priority, then every name a replacement retires is rewritten to
// its successor. Tokens must be free of diagnostics.
func Translate(tokens []Token) *Program {
	p := &Program{}
	var f plan.Formula
	for _, s := range statements(tokens) {
		switch s[0].Keyword {
		case KeywordConfiguration:
			p.Configuration = s[1].Value
		case KeywordAdd:
			f = append(f, plan.Add{
				Deployment:   topology.NewDeployment(s[1].Value, s[2].Value),
				Requirements: identifiers(s[3:]),
			})
		case KeywordRemove:
			f = append(f, plan.Remove{Name: s[1].Value})
		case KeywordReplace:
			f = append(f, plan.Replace{Old: s[1].Value, New: topology.NewDeployment(s[3].Value, s[4].Value)})
		case KeywordBind:
			f = append(f, plan.Bind{Name: s[1].Value, Requirements: identifiers(s[3:])})
		case KeywordUnbind:
			f = append(f, plan.Release{Name: s[1].Value, Others: identifiers(s[3:])})
		}
	}
	p.Formula = rewrite(f.Sorted())
	return p
}

// statements slices tokens at statement keywords; each closes at a semicolon.
func statements(tokens []Token) []statement {
	var out []statement
	var current statement
	for _, t := range tokens {
		switch {
		case t.Kind == KindKeyword && statementKeywords[t.Keyword]:
			current = statement{t}
		case t.Kind == KindSemicolon:
			if len(current) > 0 {
				out = append(out, current)
			}
			current = nil
		case current != nil:
			current = append(current, t)
		}
	}
	return out
}

func identifiers(tokens []Token) []string {
	return lo.FilterMap(tokens, func(t Token, _ int) (string, bool) {
		return t.Value, t.Kind == KindIdentifier
	})
}

// rewrite redirects references to replaced deployments. Replacements are
// resolved in order so a later replace may name an earlier successor.
func rewrite(f plan.Formula) plan.Formula {
	successors := map[string]string{}
	resolve := func(name string) string {
		seen := map[string]bool{}
		for !seen[name] {
			next, ok := successors[name]
			if !ok {
				break
			}
			seen[name] = true
			name = next
		}
		return name
	}
	resolveAll := func(names []string) []string {
		return lo.Map(names, func(n string, _ int) string { return resolve(n) })
	}

	out := make(plan.Formula, 0, len(f))
	for _, op := range f {
		if r, ok := op.(plan.Replace); ok {
			r.Old = resolve(r.Old)
			successors[r.Old] = r.New.Name
			out = append(out, r)
		}
	}
	for _, op := range f {
		switch op := op.(type) {
		case plan.Replace:
		case plan.Add:
			op.Requirements = resolveAll(op.Requirements)
			out = append(out, op)
		case plan.Remove:
			op.Name = resolve(op.Name)
			out = append(out, op)
		case plan.Bind:
			op.Name = resolve(op.Name)
			op.Requirements = resolveAll(op.Requirements)
			out = append(out, op)
		case plan.Release:
			op.Name = resolve(op.Name)
			op.Others = resolveAll(op.Others)
			out = append(out, op)
		default:
			out = append(out, op)
		}
	}
	return out
}
