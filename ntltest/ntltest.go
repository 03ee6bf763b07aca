// Package ntltest provides helpers for tests that need source compiled
// partway through the pipeline without caring how the phases wire
// together.
package ntltest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/check"
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/lexer"
	"github.com/harlanhaskins/ntl/lower"
	"github.com/harlanhaskins/ntl/nir"
	"github.com/harlanhaskins/ntl/parser"
	"github.com/harlanhaskins/ntl/source"
)

// Parse lexes and parses src, failing the test on any error.
func Parse(t testing.TB, src string) *ast.Module {
	t.Helper()
	toks, err := lexer.New(source.NewMap(src)).Tokenize()
	require.NoError(t, err)
	m, err := parser.New(toks).Parse()
	require.NoError(t, err)
	return m
}

// Check parses and type-checks src. The collector is returned so tests can
// assert on diagnostics; checking errors do not fail the test.
func Check(t testing.TB, src string) (*ast.Module, *check.Info, *diag.Collector) {
	t.Helper()
	m := Parse(t, src)
	diags := diag.NewCollector()
	info := check.Check(m, diags)
	return m, info, diags
}

// Lower compiles src to validated NIR, failing the test on any diagnostic
// error or validation failure.
func Lower(t testing.TB, src string) (*nir.Module, *check.Info) {
	t.Helper()
	m, info, diags := Check(t, src)
	require.False(t, diags.HasErrors(), diags.String())
	mod := lower.Lower(m, info, diags)
	require.False(t, diags.HasErrors(), diags.String())
	require.NoError(t, nir.ValidateModule(mod))
	return mod, info
}
