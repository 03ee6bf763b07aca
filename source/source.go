// Package source tracks positions in NTL source text. Every token and AST
// node carries a Range so diagnostics can point back at the code that
// produced them.
package source

import (
	"fmt"
	"sort"
)

// Location is a position in a source buffer. Line and Column are 1-based;
// Offset is the 0-based byte offset.
type Location struct {
	Line   int
	Column int
	Offset int
}

// String renders the location as "line:column".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Range is a half-open span [Start, End) of source text.
type Range struct {
	Start Location
	End   Location
}

// String renders the range for diagnostics: "line:col-endcol" when the range
// is on one line, "line:col-line:col" when it spans lines.
func (r Range) String() string {
	if r.Start.Line == r.End.Line {
		return fmt.Sprintf("%d:%d-%d", r.Start.Line, r.Start.Column, r.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}

// Span joins two ranges into the smallest range covering both.
func Span(a, b Range) Range {
	r := a
	if b.Start.Offset < r.Start.Offset {
		r.Start = b.Start
	}
	if b.End.Offset > r.End.Offset {
		r.End = b.End
	}
	return r
}

// Map resolves byte offsets in one source buffer to line/column pairs.
// It is built once per compilation and shared read-only between phases.
type Map struct {
	src string
	// lineStarts[i] is the byte offset of the first byte of line i+1.
	// lineStarts[0] is always 0.
	lineStarts []int
}

// NewMap indexes the given source text.
func NewMap(src string) *Map {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Map{src: src, lineStarts: starts}
}

// Source returns the text the map was built from.
func (m *Map) Source() string { return m.src }

// Locate converts a byte offset into a Location.
//
// REQUIRES: 0 <= offset <= len(source).
func (m *Map) Locate(offset int) Location {
	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > offset
	})
	// line is now the 1-based line number.
	return Location{
		Line:   line,
		Column: offset - m.lineStarts[line-1] + 1,
		Offset: offset,
	}
}

// RangeOf converts a byte span into a Range.
func (m *Map) RangeOf(start, end int) Range {
	return Range{Start: m.Locate(start), End: m.Locate(end)}
}

// Line returns the text of the given 1-based line, without its trailing
// newline. It returns "" for out-of-range lines.
func (m *Map) Line(n int) string {
	if n < 1 || n > len(m.lineStarts) {
		return ""
	}
	start := m.lineStarts[n-1]
	end := len(m.src)
	if n < len(m.lineStarts) {
		end = m.lineStarts[n] - 1
	}
	if end > 0 && end <= len(m.src) && end > start && m.src[end-1] == '\r' {
		end--
	}
	return m.src[start:end]
}
