package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harlanhaskins/ntl/source"
)

func TestLocate(t *testing.T) {
	m := source.NewMap("ab\ncd\n\nxyz")
	assert.Equal(t, source.Location{Line: 1, Column: 1, Offset: 0}, m.Locate(0))
	assert.Equal(t, source.Location{Line: 1, Column: 3, Offset: 2}, m.Locate(2)) // the newline itself
	assert.Equal(t, source.Location{Line: 2, Column: 1, Offset: 3}, m.Locate(3))
	assert.Equal(t, source.Location{Line: 3, Column: 1, Offset: 6}, m.Locate(6))
	assert.Equal(t, source.Location{Line: 4, Column: 3, Offset: 9}, m.Locate(9))
	assert.Equal(t, source.Location{Line: 4, Column: 4, Offset: 10}, m.Locate(10)) // one past the end
}

func TestLine(t *testing.T) {
	m := source.NewMap("ab\ncd\r\nxyz")
	assert.Equal(t, "ab", m.Line(1))
	assert.Equal(t, "cd", m.Line(2))
	assert.Equal(t, "xyz", m.Line(3))
	assert.Equal(t, "", m.Line(0))
	assert.Equal(t, "", m.Line(4))
}

func TestRangeString(t *testing.T) {
	m := source.NewMap("hello\nworld")
	assert.Equal(t, "1:2-4", m.RangeOf(1, 3).String())
	assert.Equal(t, "1:2-2:3", m.RangeOf(1, 8).String())
}

func TestSpan(t *testing.T) {
	m := source.NewMap("hello world")
	a, b := m.RangeOf(0, 5), m.RangeOf(6, 11)
	assert.Equal(t, m.RangeOf(0, 11), source.Span(a, b))
	assert.Equal(t, m.RangeOf(0, 11), source.Span(b, a))
}
