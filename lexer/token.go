package lexer

import (
	"fmt"

	"github.com/harlanhaskins/ntl/source"
)

// Kind identifies the lexical class of a token. The enumeration is closed;
// the parser switches exhaustively over it.
type Kind uint8

const (
	// EOF is the synthetic token terminating every token stream.
	EOF Kind = iota
	// Unknown is an unrecognized character. Producing one is fatal.
	Unknown

	// Keywords.
	KwFunc
	KwVar
	KwStruct
	KwReturn
	KwExtern
	KwIf
	KwElse

	// Literals and identifiers.
	Identifier
	IntegerLiteral
	StringLiteral
	BooleanLiteral

	// Operators.
	Plus       // +
	Minus      // -
	Bang       // !
	Star       // *
	Ampersand  // &
	Slash      // /
	Percent    // %
	Equal      // =
	Arrow      // ->
	AmpAmp     // &&
	PipePipe   // ||
	EqualEqual // ==
	BangEqual  // !=
	Less       // <
	LessEqual  // <=
	Greater    // >
	GreaterEqual // >=
	Dot        // .
	Ellipsis   // ...
	At         // @

	// Delimiters.
	LeftParen  // (
	RightParen // )
	LeftBrace  // {
	RightBrace // }
	Colon      // :
	Comma      // ,
	Underscore // _
)

var kindNames = [...]string{
	EOF:            "EOF",
	Unknown:        "unknown",
	KwFunc:         "func",
	KwVar:          "var",
	KwStruct:       "struct",
	KwReturn:       "return",
	KwExtern:       "extern",
	KwIf:           "if",
	KwElse:         "else",
	Identifier:     "identifier",
	IntegerLiteral: "integer literal",
	StringLiteral:  "string literal",
	BooleanLiteral: "boolean literal",
	Plus:           "+",
	Minus:          "-",
	Bang:           "!",
	Star:           "*",
	Ampersand:      "&",
	Slash:          "/",
	Percent:        "%",
	Equal:          "=",
	Arrow:          "->",
	AmpAmp:         "&&",
	PipePipe:       "||",
	EqualEqual:     "==",
	BangEqual:      "!=",
	Less:           "<",
	LessEqual:      "<=",
	Greater:        ">",
	GreaterEqual:   ">=",
	Dot:            ".",
	Ellipsis:       "...",
	At:             "@",
	LeftParen:      "(",
	RightParen:     ")",
	LeftBrace:      "{",
	RightBrace:     "}",
	Colon:          ":",
	Comma:          ",",
	Underscore:     "_",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Token is one lexical element of an NTL source buffer.
type Token struct {
	Kind  Kind
	Range source.Range
	// Text is the source text for identifiers, integer literals, and string
	// literals (with the quotes stripped). Empty for fixed-spelling tokens.
	Text string
	// Bool is the value of a BooleanLiteral.
	Bool bool
	// HasTrailingNewline is set when at least one newline separates this
	// token from the next. The parser uses it for statement recovery.
	HasTrailingNewline bool
}

// String returns a readable description, for error messages and debugging.
func (t Token) String() string {
	switch t.Kind {
	case Identifier, IntegerLiteral:
		return fmt.Sprintf("%s '%s'", t.Kind, t.Text)
	case StringLiteral:
		return fmt.Sprintf("string literal %q", t.Text)
	case BooleanLiteral:
		return fmt.Sprintf("boolean literal '%t'", t.Bool)
	case Unknown:
		return fmt.Sprintf("unrecognized character '%s'", t.Text)
	default:
		return fmt.Sprintf("'%s'", t.Kind)
	}
}

// keywords rewrites identifier spellings into keyword tokens. true and false
// become BooleanLiteral in the scanner itself.
var keywords = map[string]Kind{
	"func":   KwFunc,
	"var":    KwVar,
	"struct": KwStruct,
	"return": KwReturn,
	"extern": KwExtern,
	"if":     KwIf,
	"else":   KwElse,
}
