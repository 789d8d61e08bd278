package wkt

import (
	"unicode"
	"unicode/utf8"
)

// lexer splits WKT into words (keywords and numbers) and single
// punctuation characters. A minus sign is always its own token.
type lexer struct {
	input string
	pos   int
}

func isPunct(c byte) bool {
	switch c {
	case '(', ')', ',', ';', '=', '-':
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// next returns the next raw token, or false at the end of input.
func (l *lexer) next() (string, bool) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return "", false
	}

	start := l.pos
	if isPunct(l.input[l.pos]) {
		l.pos++
		return l.input[start:l.pos], true
	}

	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isPunct(c) {
			break
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos], true
}

// tokenStream is a lazy, peekable view over the lexer that folds a lone
// "-" into the token after it, so "- 1.5" and "-1.5" both yield "-1.5".
type tokenStream struct {
	lex     lexer
	peeked  string
	hasPeek bool
}

func newTokenStream(input string) *tokenStream {
	return &tokenStream{lex: lexer{input: input}}
}

func (t *tokenStream) pull() (string, bool) {
	tok, ok := t.lex.next()
	if !ok {
		return "", false
	}
	if tok != "-" {
		return tok, true
	}

	following, ok := t.lex.next()
	if !ok {
		return tok, true
	}
	return "-" + following, true
}

func (t *tokenStream) next() (string, bool) {
	if t.hasPeek {
		t.hasPeek = false
		return t.peeked, true
	}
	return t.pull()
}

func (t *tokenStream) peek() (string, bool) {
	if !t.hasPeek {
		tok, ok := t.pull()
		if !ok {
			return "", false
		}
		t.peeked, t.hasPeek = tok, true
	}
	return t.peeked, true
}
