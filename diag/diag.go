// Package diag accumulates compiler diagnostics. Each phase of the pipeline
// borrows one Collector and appends errors, warnings, and notes in source
// order; errors block the next phase but never abort the current one, so the
// tree is annotated as far as possible even for ill-typed input.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harlanhaskins/ntl/source"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	// Error blocks progression to the next compilation phase.
	Error Severity = iota
	// Warning never blocks.
	Warning
	// Note attaches context to another diagnostic or reports statistics.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Category identifies what a diagnostic is about. The set is closed: tools
// that consume diagnostics switch on these values.
type Category string

// Type-checker categories.
const (
	UnknownType              Category = "unknown-type"
	UndefinedVariable        Category = "undefined-variable"
	TypeMismatch             Category = "type-mismatch"
	InvalidOperation         Category = "invalid-operation"
	InvalidBinaryOperands    Category = "invalid-binary-operands"
	InvalidUnaryOperand      Category = "invalid-unary-operand"
	NonBooleanCondition      Category = "non-boolean-condition"
	NotCallable              Category = "not-callable"
	ArgumentCountMismatch    Category = "argument-count-mismatch"
	MissingArgumentLabel     Category = "missing-argument-label"
	UnexpectedArgumentLabel  Category = "unexpected-argument-label"
	IncorrectArgumentLabel   Category = "incorrect-argument-label"
	ArgumentLabelOrder       Category = "argument-label-order-mismatch"
	CannotTakeAddress        Category = "cannot-take-address"
	CannotAssign             Category = "cannot-assign"
	CannotDereference        Category = "cannot-dereference"
	InvalidMemberAccess      Category = "invalid-member-access"
	UnknownMember            Category = "unknown-member"
	MissingInitializer       Category = "missing-initializer"
	MissingFieldType         Category = "missing-field-type"
	VariadicArgument         Category = "variadic-argument"
)

// Lowering and analysis categories.
const (
	CannotComputeAddress Category = "cannot-compute-address"
	UninitializedVar     Category = "uninitialized-variable"
	WriteOnlyVar         Category = "write-only-variable"
	VariableSummary      Category = "variable-summary"
)

// Diagnostic is one message keyed by a source range and a category.
type Diagnostic struct {
	Severity Severity
	Category Category
	Range    source.Range
	Message  string
}

// String renders the diagnostic in the wire format:
// "<line>:<col>-<endcol>: <severity> [<category>]: <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s]: %s", d.Range, d.Severity, d.Category, d.Message)
}

// Collector accumulates diagnostics for one compilation. It is not
// goroutine-safe: each pipeline run owns its own collector.
type Collector struct {
	diags     []Diagnostic
	numErrors int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a fully formed diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.diags = append(c.diags, d)
	if d.Severity == Error {
		c.numErrors++
	}
}

// Errorf appends an error diagnostic.
func (c *Collector) Errorf(r source.Range, cat Category, format string, args ...interface{}) {
	c.Add(Diagnostic{Severity: Error, Category: cat, Range: r, Message: fmt.Sprintf(format, args...)})
}

// Warningf appends a warning diagnostic.
func (c *Collector) Warningf(r source.Range, cat Category, format string, args ...interface{}) {
	c.Add(Diagnostic{Severity: Warning, Category: cat, Range: r, Message: fmt.Sprintf(format, args...)})
}

// Notef appends a note diagnostic.
func (c *Collector) Notef(r source.Range, cat Category, format string, args ...interface{}) {
	c.Add(Diagnostic{Severity: Note, Category: cat, Range: r, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any error-severity diagnostic was added.
func (c *Collector) HasErrors() bool { return c.numErrors > 0 }

// ErrorCount returns the number of error-severity diagnostics.
func (c *Collector) ErrorCount() int { return c.numErrors }

// Count returns the total number of diagnostics.
func (c *Collector) Count() int { return len(c.diags) }

// Diagnostics returns all diagnostics in the order they were added.
func (c *Collector) Diagnostics() []Diagnostic { return c.diags }

// String renders every diagnostic on its own line in the wire format.
func (c *Collector) String() string {
	var sb strings.Builder
	for _, d := range c.diags {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan)
)

// Render writes the diagnostics to w. When colorize is true the severity is
// highlighted; the rest of the line stays identical to the wire format so
// rendered output remains machine-parsable.
func (c *Collector) Render(w io.Writer, colorize bool) {
	for _, d := range c.diags {
		if !colorize {
			fmt.Fprintln(w, d.String())
			continue
		}
		var sev string
		switch d.Severity {
		case Error:
			sev = errorColor.Sprint(d.Severity)
		case Warning:
			sev = warningColor.Sprint(d.Severity)
		default:
			sev = noteColor.Sprint(d.Severity)
		}
		fmt.Fprintf(w, "%s: %s [%s]: %s\n", d.Range, sev, d.Category, d.Message)
	}
}
