package dsl

import (
	"strings"
	"unicode"
)

// Lex splits src into tokens. Whitespace is filtered out and an End token is
// appended. Lexical problems are reported as diagnostics; a string literal
// spanning lines is still emitted, an unterminated one is not.
func Lex(src string) ([]Token, Diagnostics) {
	l := &lexer{src: []rune(src), line: 1}
	l.run()
	l.tokens = append(l.tokens, Token{Kind: KindEnd, Line: l.line})
	return l.tokens, l.diags
}

type lexer struct {
	src    []rune
	pos    int
	line   int
	tokens []Token
	diags  Diagnostics
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		r := l.src[l.pos]
		switch {
		case unicode.IsSpace(r):
			l.whitespace()
		case isWordRune(r):
			l.word()
		case r == '"':
			l.literal()
		default:
			l.symbol(r)
		}
	}
}

func (l *lexer) whitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
}

func (l *lexer) word() {
	start := l.pos
	for l.pos < len(l.src) && isWordRune(l.src[l.pos]) {
		l.pos++
	}
	value := string(l.src[start:l.pos])
	if kw, ok := keywords[value]; ok {
		l.emit(Token{Kind: KindKeyword, Keyword: kw, Value: value, Line: l.line})
		return
	}
	l.emit(Token{Kind: KindIdentifier, Value: value, Line: l.line})
}

func (l *lexer) literal() {
	line := l.line
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\n' {
			l.line++
		}
		b.WriteRune(l.src[l.pos])
		l.pos++
	}
	if l.pos >= len(l.src) {
		l.diags = append(l.diags, diag(UnclosedStringLiteral, line, "Unclosed string literal"))
		return
	}
	l.pos++ // closing quote
	value := b.String()
	if strings.ContainsRune(value, '\n') {
		l.diags = append(l.diags, diag(MultilineString, line, "String literals must not span multiple lines"))
	}
	l.emit(Token{Kind: KindString, Value: value, Line: line})
}

func (l *lexer) symbol(r rune) {
	l.pos++
	var k Kind
	switch r {
	case ',':
		k = KindComma
	case ';':
		k = KindSemicolon
	case '{':
		k = KindOpenBrace
	case '}':
		k = KindCloseBrace
	default:
		k = KindUnknown
	}
	l.emit(Token{Kind: k, Value: string(r), Line: l.line})
}

func (l *lexer) emit(t Token) {
	if t.Disposable() {
		return
	}
	l.tokens = append(l.tokens, t)
}

func isWordRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
