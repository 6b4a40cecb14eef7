package dsl

import (
	"net/url"
	"path"
	"slices"
)

// phase tracks which part of a statement the analyzer is inside.
type phase int

const (
	phaseBeginning phase = iota
	phaseNaming
	phaseAddingDeployment
	phaseAddingRequirements
	phaseRemoving
	phaseReplacingOld
	phaseReplacingNew
	phaseBindingDeployment
	phaseBindingSet
	phaseReleasingDeployment
	phaseReleasingSet
	phaseBreak
)

func (p phase) inSet() bool {
	return p == phaseAddingRequirements || p == phaseBindingSet || p == phaseReleasingSet
}

var operationClasses = []Class{
	keyword(KeywordAdd),
	keyword(KeywordRemove),
	keyword(KeywordReplace),
	keyword(KeywordBind),
	keyword(KeywordUnbind),
	kind(KindEnd),
}

// Analyze checks a token stream produced by Lex and returns every syntactic
// and semantic problem it finds. It does not stop at the first one.
func Analyze(tokens []Token) Diagnostics {
	a := &analyzer{expected: []Class{keyword(KeywordConfiguration)}}
	if len(tokens) == 0 || tokens[0].Kind == KindEnd {
		line := 1
		if len(tokens) > 0 {
			line = tokens[0].Line
		}
		return Diagnostics{diag(EmptyInput, line, "Empty input; code must begin with a 'configuration' expression")}
	}
	for i, t := range tokens {
		a.visit(i, t, tokens)
		if t.Kind == KindEnd {
			break
		}
	}
	return a.diags
}

type analyzer struct {
	phase    phase
	expected []Class
	previous *Token
	diags    Diagnostics
}

func (a *analyzer) visit(i int, t Token, tokens []Token) {
	if t.Kind == KindUnknown {
		a.report(diag(UnknownSymbol, t.Line, "Unknown symbol '%s'", t.Value))
		return
	}
	a.checkExpected(i, t)
	a.checkSemantics(t)
	a.phase = advance(a.phase, t)
	if t.Kind == KindOpenBrace && i+1 < len(tokens) && tokens[i+1].Kind == KindCloseBrace {
		switch a.phase {
		case phaseBindingSet:
			a.report(diag(EmptySet, t.Line, "Deployment sets must not be empty in a 'bind' operation"))
		case phaseReleasingSet:
			a.report(diag(EmptySet, t.Line, "Deployment sets must not be empty in an 'unbind' operation"))
		}
	}
	a.expected = expectations(a.phase, t)
	a.previous = &t
}

func (a *analyzer) checkExpected(i int, t Token) {
	if slices.Contains(a.expected, t.Class()) {
		return
	}
	switch {
	case i == 0:
		a.report(diag(ExpectedConfiguration, t.Line, "Expected configuration; code must begin with a 'configuration' expression"))
	case t.Is(KeywordConfiguration):
		a.report(diag(OutOfContext, t.Line, "Unwelcome 'configuration'; it may only open the code"))
	case len(a.expected) == 1 && a.expected[0].Kind == KindSemicolon:
		a.report(diag(ExpectedSemicolon, t.Line, "Expected semicolon; found %s", t))
	case a.previous != nil && a.previous.Kind == KindSemicolon:
		a.report(diag(ExpectedOperationOrEnd, t.Line, "Expected an operation or end of code; found %s", t))
	default:
		a.report(diag(UnexpectedToken, t.Line, "Expected %s; found %s", describe(a.expected), t))
	}
}

func (a *analyzer) checkSemantics(t Token) {
	switch t.Kind {
	case KindIdentifier:
		if !validIdentifier(t.Value) {
			a.report(diag(InvalidIdentifier, t.Line, "Invalid deployment name '%s'; names must not start with a digit or be a lone underscore", t.Value))
		}
	case KindString:
		if t.Value == "" {
			a.report(diag(EmptyStringLiteral, t.Line, "Empty string literal"))
			return
		}
		if a.phase == phaseAddingDeployment || a.phase == phaseReplacingNew {
			a.checkManifest(t)
		}
	}
}

func (a *analyzer) checkManifest(t Token) {
	u, err := url.Parse(t.Value)
	if err != nil {
		a.report(diag(InvalidPath, t.Line, "Invalid path '%s'", t.Value))
		return
	}
	switch ext := path.Ext(u.Path); ext {
	case ".yaml", ".yml":
	case "":
		a.report(diag(MissingManifestExtension, t.Line, "Path does not have an extension, which is required"))
	default:
		a.report(diag(InvalidManifestExtension, t.Line, "Invalid manifest file extension '%s'; supported extensions are '.yaml' and '.yml'", ext))
	}
}

func (a *analyzer) report(d Diagnostic) {
	a.diags = append(a.diags, d)
}

func validIdentifier(name string) bool {
	if name == "" || name == "_" {
		return false
	}
	first := name[0]
	return first < '0' || first > '9'
}

// advance updates the phase with the current token before its expectations
// are computed.
func advance(p phase, t Token) phase {
	switch t.Kind {
	case KindSemicolon:
		return phaseBreak
	case KindKeyword:
	default:
		return p
	}
	switch t.Keyword {
	case KeywordConfiguration:
		if p == phaseBeginning {
			return phaseNaming
		}
	case KeywordAdd:
		return phaseAddingDeployment
	case KeywordRequiring:
		if p == phaseAddingDeployment {
			return phaseAddingRequirements
		}
	case KeywordRemove:
		return phaseRemoving
	case KeywordReplace:
		return phaseReplacingOld
	case KeywordWith:
		if p == phaseReplacingOld {
			return phaseReplacingNew
		}
	case KeywordBind:
		return phaseBindingDeployment
	case KeywordTo:
		if p == phaseBindingDeployment {
			return phaseBindingSet
		}
	case KeywordUnbind:
		return phaseReleasingDeployment
	case KeywordFrom:
		if p == phaseReleasingDeployment {
			return phaseReleasingSet
		}
	}
	return p
}

// expectations lists the token classes allowed right after t.
func expectations(p phase, t Token) []Class {
	semicolon := kind(KindSemicolon)
	switch t.Kind {
	case KindKeyword:
		switch t.Keyword {
		case KeywordConfiguration:
			return []Class{kind(KindString)}
		case KeywordRequiring, KeywordTo, KeywordFrom:
			return []Class{kind(KindOpenBrace)}
		default:
			return []Class{kind(KindIdentifier)}
		}
	case KindIdentifier:
		switch {
		case p == phaseAddingDeployment:
			return []Class{kind(KindString)}
		case p.inSet():
			return []Class{kind(KindComma), kind(KindCloseBrace)}
		case p == phaseReplacingOld:
			return []Class{keyword(KeywordWith)}
		case p == phaseReplacingNew:
			return []Class{kind(KindString)}
		case p == phaseBindingDeployment:
			return []Class{keyword(KeywordTo)}
		case p == phaseReleasingDeployment:
			return []Class{keyword(KeywordFrom)}
		}
		return []Class{semicolon}
	case KindString:
		if p == phaseAddingDeployment {
			return []Class{semicolon, keyword(KeywordRequiring)}
		}
		return []Class{semicolon}
	case KindComma:
		return []Class{kind(KindIdentifier)}
	case KindOpenBrace:
		return []Class{kind(KindIdentifier), kind(KindCloseBrace)}
	case KindCloseBrace:
		return []Class{semicolon}
	case KindSemicolon:
		return operationClasses
	}
	return nil
}
