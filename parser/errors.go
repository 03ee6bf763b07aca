package parser

import (
	"fmt"

	"github.com/harlanhaskins/ntl/lexer"
	"github.com/harlanhaskins/ntl/source"
)

// ErrorKind enumerates every way a parse can fail. The set is closed. The
// pipeline returns a parse failure to its caller as an error; it does not
// convert it to a diagnostic.
type ErrorKind uint8

const (
	// UnexpectedToken is a token that cannot start the construct being
	// parsed.
	UnexpectedToken ErrorKind = iota
	// ExpectedToken is a specific token that was required but absent.
	ExpectedToken
	// ExpectedIdentifier is a missing name.
	ExpectedIdentifier
	// ExpectedType is a missing type reference.
	ExpectedType
	// UnderscoreArgumentLabel is a literal "_:" argument label at a call
	// site, which the grammar rejects outright.
	UnderscoreArgumentLabel
)

// Error is a parse failure. Parse errors abort the current parse and
// propagate to the pipeline; the parser never recovers past one.
type Error struct {
	Kind     ErrorKind
	Loc      source.Location
	Found    lexer.Token
	Expected lexer.Kind // set for ExpectedToken
	Context  string     // what was being parsed, for the message
}

// Error renders the failure with a "line:column" location prefix.
func (e *Error) Error() string {
	switch e.Kind {
	case ExpectedToken:
		return fmt.Sprintf("%s: expected '%s'%s, found %s", e.Loc, e.Expected, inContext(e.Context), e.Found)
	case ExpectedIdentifier:
		return fmt.Sprintf("%s: expected identifier%s, found %s", e.Loc, inContext(e.Context), e.Found)
	case ExpectedType:
		return fmt.Sprintf("%s: expected type%s, found %s", e.Loc, inContext(e.Context), e.Found)
	case UnderscoreArgumentLabel:
		return fmt.Sprintf("%s: '_' is not a valid argument label", e.Loc)
	default:
		return fmt.Sprintf("%s: unexpected %s%s", e.Loc, e.Found, inContext(e.Context))
	}
}

func inContext(ctx string) string {
	if ctx == "" {
		return ""
	}
	return " " + ctx
}
