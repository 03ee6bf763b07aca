// Package lexer converts NTL source text into a token stream. The scan is a
// single forward pass with one byte of lookahead for the multi-character
// operators (two for "..."); no backtracking and no semantic interpretation
// (integer values stay as text until lowering parses them).
package lexer

import (
	"fmt"

	"github.com/grailbio/base/errors"

	"github.com/harlanhaskins/ntl/source"
)

// Lexer scans one source buffer.
type Lexer struct {
	smap *source.Map
	src  string
	pos  int
}

// New creates a lexer over the given source map.
func New(smap *source.Map) *Lexer {
	return &Lexer{smap: smap, src: smap.Source()}
}

// Tokenize scans the entire buffer. The returned slice always ends with an
// EOF token. An unrecognized character is fatal: the Unknown token is the
// last one in the returned slice and err describes it.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		sawNewline := l.skipBlanks()
		if n := len(toks); n > 0 && sawNewline {
			toks[n-1].HasTrailingNewline = true
		}
		tok := l.scan()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
		if tok.Kind == Unknown {
			return toks, errors.E(fmt.Sprintf("%s: unrecognized character '%s'", tok.Range.Start, tok.Text))
		}
	}
}

// skipBlanks advances past whitespace and line comments, reporting whether a
// newline was crossed.
func (l *Lexer) skipBlanks() (sawNewline bool) {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; c {
		case ' ', '\t', '\r':
			l.pos++
		case '\n', ';':
			// Semicolons are statement separators with no token of their
			// own; they behave exactly like a line break.
			sawNewline = true
			l.pos++
		case '/':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
				l.pos += 2
				for l.pos < len(l.src) && l.src[l.pos] != '\n' {
					l.pos++
				}
				continue
			}
			return sawNewline
		default:
			return sawNewline
		}
	}
	return sawNewline
}

func (l *Lexer) scan() Token {
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Range: l.smap.RangeOf(l.pos, l.pos)}
	}
	start := l.pos
	c := l.src[l.pos]

	if isIdentStart(c) {
		return l.scanIdentOrKeyword()
	}
	if isDigit(c) {
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: IntegerLiteral, Range: l.smap.RangeOf(start, l.pos), Text: l.src[start:l.pos]}
	}
	if c == '"' {
		return l.scanString()
	}
	return l.scanOperator()
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentContinue(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	r := l.smap.RangeOf(start, l.pos)
	switch text {
	case "_":
		return Token{Kind: Underscore, Range: r}
	case "true":
		return Token{Kind: BooleanLiteral, Range: r, Bool: true}
	case "false":
		return Token{Kind: BooleanLiteral, Range: r, Bool: false}
	}
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Range: r}
	}
	return Token{Kind: Identifier, Range: r, Text: text}
}

// scanString scans a double-quoted literal. The core performs no escape
// processing; the literal's text is the raw bytes between the quotes.
func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{Kind: Unknown, Range: l.smap.RangeOf(start, l.pos), Text: `"`}
	}
	l.pos++ // closing quote
	return Token{
		Kind:  StringLiteral,
		Range: l.smap.RangeOf(start, l.pos),
		Text:  l.src[start+1 : l.pos-1],
	}
}

func (l *Lexer) scanOperator() Token {
	start := l.pos
	c := l.src[l.pos]
	l.pos++
	var next byte
	if l.pos < len(l.src) {
		next = l.src[l.pos]
	}

	tok := func(k Kind) Token {
		return Token{Kind: k, Range: l.smap.RangeOf(start, l.pos)}
	}

	switch c {
	case '+':
		return tok(Plus)
	case '-':
		if next == '>' {
			l.pos++
			return tok(Arrow)
		}
		return tok(Minus)
	case '!':
		if next == '=' {
			l.pos++
			return tok(BangEqual)
		}
		return tok(Bang)
	case '*':
		return tok(Star)
	case '/':
		return tok(Slash)
	case '%':
		return tok(Percent)
	case '&':
		if next == '&' {
			l.pos++
			return tok(AmpAmp)
		}
		return tok(Ampersand)
	case '|':
		if next == '|' {
			l.pos++
			return tok(PipePipe)
		}
		// A lone '|' has no meaning in NTL.
		return Token{Kind: Unknown, Range: l.smap.RangeOf(start, l.pos), Text: "|"}
	case '=':
		if next == '=' {
			l.pos++
			return tok(EqualEqual)
		}
		return tok(Equal)
	case '<':
		if next == '=' {
			l.pos++
			return tok(LessEqual)
		}
		return tok(Less)
	case '>':
		if next == '=' {
			l.pos++
			return tok(GreaterEqual)
		}
		return tok(Greater)
	case '.':
		if next == '.' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '.' {
			l.pos += 2
			return tok(Ellipsis)
		}
		return tok(Dot)
	case '@':
		return tok(At)
	case '(':
		return tok(LeftParen)
	case ')':
		return tok(RightParen)
	case '{':
		return tok(LeftBrace)
	case '}':
		return tok(RightBrace)
	case ':':
		return tok(Colon)
	case ',':
		return tok(Comma)
	}
	return Token{Kind: Unknown, Range: l.smap.RangeOf(start, l.pos), Text: string(c)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
