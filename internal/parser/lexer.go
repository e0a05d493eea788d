package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNewline
	tokSemi
	tokPipe
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokEquals
	tokPlus
	tokIdent
	tokString
	// tokError carries a lexical error to the position where the parser
	// reaches it.
	tokError
)

var tokenNames = map[tokenType]string{
	tokEOF:     "end of file",
	tokNewline: "newline",
	tokSemi:    "';'",
	tokPipe:    "'|'",
	tokLBrace:  "'{'",
	tokRBrace:  "'}'",
	tokLParen:  "'('",
	tokRParen:  "')'",
	tokComma:   "','",
	tokColon:   "':'",
	tokEquals:  "'='",
	tokPlus:    "'+'",
	tokIdent:   "identifier",
	tokString:  "string",
	tokError:   "invalid token",
}

func (t tokenType) String() string { return tokenNames[t] }

// stringPart is one piece of a string literal: plain text or a ${name}
// reference.
type stringPart struct {
	text  string
	isRef bool
	rng   hcl.Range
}

type token struct {
	typ   tokenType
	text  string
	parts []stringPart
	rng   hcl.Range
	err   error
}

func (t token) describe() string {
	switch t.typ {
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	case tokString:
		return "string literal"
	default:
		return t.typ.String()
	}
}

type lexer struct {
	filename string
	src      []byte
	pos      hcl.Pos
	// base is the byte offset of src[0]; fragments may start mid-file.
	base int
}

func newLexer(filename string, src []byte, start hcl.Pos) *lexer {
	return &lexer{filename: filename, src: src, pos: start, base: start.Byte}
}

func (l *lexer) offset() int { return l.pos.Byte - l.base }

func (l *lexer) peekRune(ahead int) rune {
	off := l.offset()
	for i := 0; ; i++ {
		if off >= len(l.src) {
			return -1
		}
		r, size := utf8.DecodeRune(l.src[off:])
		if i == ahead {
			return r
		}
		off += size
	}
}

func (l *lexer) advance() rune {
	off := l.offset()
	if off >= len(l.src) {
		return -1
	}
	r, size := utf8.DecodeRune(l.src[off:])
	l.pos.Byte += size
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
	return r
}

func (l *lexer) rangeFrom(start hcl.Pos) hcl.Range {
	return hcl.Range{Filename: l.filename, Start: start, End: l.pos}
}

func (l *lexer) errorf(start hcl.Pos, format string, args ...any) error {
	return &SyntaxError{Range: l.rangeFrom(start), Message: fmt.Sprintf(format, args...)}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}

var punctuation = map[rune]tokenType{
	';': tokSemi,
	'|': tokPipe,
	'{': tokLBrace,
	'}': tokRBrace,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
	':': tokColon,
	'=': tokEquals,
	'+': tokPlus,
}

// next scans one token. Whitespace other than newlines and comments are
// skipped.
func (l *lexer) next() (token, error) {
	l.skipBlank()
	start := l.pos
	r := l.peekRune(0)
	switch {
	case r == -1:
		return token{typ: tokEOF, rng: l.rangeFrom(start)}, nil
	case r == '\n':
		l.advance()
		return token{typ: tokNewline, rng: l.rangeFrom(start)}, nil
	case r == '"' || r == '\'':
		return l.scanString()
	case isIdentStart(r):
		var sb strings.Builder
		for isIdentPart(l.peekRune(0)) {
			sb.WriteRune(l.advance())
		}
		return token{typ: tokIdent, text: sb.String(), rng: l.rangeFrom(start)}, nil
	}
	if typ, ok := punctuation[r]; ok {
		l.advance()
		return token{typ: typ, text: string(r), rng: l.rangeFrom(start)}, nil
	}
	l.advance()
	return token{}, l.errorf(start, "unexpected character %q", r)
}

func (l *lexer) skipBlank() {
	for {
		r := l.peekRune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\r':
			l.advance()
		case r == '#' || (r == '/' && l.peekRune(1) == '/'):
			for r := l.peekRune(0); r != '\n' && r != -1; r = l.peekRune(0) {
				l.advance()
			}
		default:
			return
		}
	}
}

var escapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
}

// scanString reads a quoted literal, splitting it into text and ${name}
// parts. Strings may span lines.
func (l *lexer) scanString() (token, error) {
	start := l.pos
	quote := l.advance()

	var parts []stringPart
	var sb strings.Builder
	textStart := l.pos
	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, stringPart{text: sb.String(), rng: l.rangeFrom(textStart)})
			sb.Reset()
		}
	}

	for {
		r := l.peekRune(0)
		switch {
		case r == -1:
			return token{}, l.errorf(start, "unterminated string literal")
		case r == quote:
			flush()
			l.advance()
			return token{typ: tokString, parts: parts, rng: l.rangeFrom(start)}, nil
		case r == '\\':
			escStart := l.pos
			l.advance()
			e, ok := escapes[l.peekRune(0)]
			if !ok {
				l.advance()
				return token{}, l.errorf(escStart, "invalid escape sequence")
			}
			l.advance()
			sb.WriteRune(e)
		case r == '$' && l.peekRune(1) == '$':
			l.advance()
			l.advance()
			sb.WriteRune('$')
		case r == '$' && l.peekRune(1) == '{':
			flush()
			refStart := l.pos
			l.advance()
			l.advance()
			var name strings.Builder
			if !isIdentStart(l.peekRune(0)) {
				return token{}, l.errorf(refStart, "expected variable name after '${'")
			}
			for isIdentPart(l.peekRune(0)) {
				name.WriteRune(l.advance())
			}
			if l.peekRune(0) != '}' {
				return token{}, l.errorf(refStart, "unterminated variable reference")
			}
			l.advance()
			parts = append(parts, stringPart{text: name.String(), isRef: true, rng: l.rangeFrom(refStart)})
			textStart = l.pos
		default:
			sb.WriteRune(l.advance())
		}
		if sb.Len() == 0 {
			textStart = l.pos
		}
	}
}
