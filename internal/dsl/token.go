package dsl

import (
	"fmt"
	"strings"
)

// Kind classifies a token.
type Kind int

const (
	KindKeyword Kind = iota
	KindIdentifier
	KindString
	KindComma
	KindOpenBrace
	KindCloseBrace
	KindSemicolon
	KindWhitespace
	KindUnknown
	KindEnd
)

// Keyword enumerates the reserved words of the language.
type Keyword string

const (
	KeywordConfiguration Keyword = "configuration"
	KeywordAdd           Keyword = "add"
	KeywordRequiring     Keyword = "requiring"
	KeywordRemove        Keyword = "remove"
	KeywordReplace       Keyword = "replace"
	KeywordWith          Keyword = "with"
	KeywordBind          Keyword = "bind"
	KeywordTo            Keyword = "to"
	KeywordUnbind        Keyword = "unbind"
	KeywordFrom          Keyword = "from"
)

var keywords = map[string]Keyword{
	"configuration": KeywordConfiguration,
	"add":           KeywordAdd,
	"requiring":     KeywordRequiring,
	"remove":        KeywordRemove,
	"replace":       KeywordReplace,
	"with":          KeywordWith,
	"bind":          KeywordBind,
	"to":            KeywordTo,
	"unbind":        KeywordUnbind,
	"from":          KeywordFrom,
}

// statementKeywords open a statement.
var statementKeywords = map[Keyword]bool{
	KeywordConfiguration: true,
	KeywordAdd:           true,
	KeywordRemove:        true,
	KeywordReplace:       true,
	KeywordBind:          true,
	KeywordUnbind:        true,
}

// Token is a lexeme with its source line (1-based).
type Token struct {
	Kind    Kind
	Keyword Keyword
	Value   string
	Line    int
}

// Class is what the analyzer expects: a token kind, refined by the keyword
// for keyword tokens.
type Class struct {
	Kind    Kind
	Keyword Keyword
}

// Class returns the token's class.
func (t Token) Class() Class {
	return Class{Kind: t.Kind, Keyword: t.Keyword}
}

// Is reports whether the token is the given keyword.
func (t Token) Is(k Keyword) bool {
	return t.Kind == KindKeyword && t.Keyword == k
}

// Disposable tokens are dropped before analysis.
func (t Token) Disposable() bool {
	return t.Kind == KindWhitespace
}

func (t Token) String() string {
	switch t.Kind {
	case KindIdentifier:
		return fmt.Sprintf("identifier '%s'", t.Value)
	case KindUnknown:
		return fmt.Sprintf("unknown symbol '%s'", t.Value)
	default:
		return t.Class().String()
	}
}

func (c Class) String() string {
	switch c.Kind {
	case KindKeyword:
		return fmt.Sprintf("'%s'", c.Keyword)
	case KindIdentifier:
		return "deployment"
	case KindString:
		return "string literal"
	case KindComma:
		return "comma"
	case KindOpenBrace:
		return "'{'"
	case KindCloseBrace:
		return "'}'"
	case KindSemicolon:
		return "semicolon"
	case KindWhitespace:
		return "whitespace"
	case KindEnd:
		return "end of code"
	default:
		return "unknown symbol"
	}
}

func describe(classes []Class) string {
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", or ")
}

func keyword(k Keyword) Class {
	return Class{Kind: KindKeyword, Keyword: k}
}

func kind(k Kind) Class {
	return Class{Kind: k}
}
