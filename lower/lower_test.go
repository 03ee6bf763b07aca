package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlanhaskins/ntl/check"
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/lexer"
	"github.com/harlanhaskins/ntl/nir"
	"github.com/harlanhaskins/ntl/parser"
	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/types"
)

func lowerSrc(t *testing.T, src string) (*nir.Module, *diag.Collector) {
	t.Helper()
	toks, err := lexer.New(source.NewMap(src)).Tokenize()
	require.NoError(t, err)
	m, err := parser.New(toks).Parse()
	require.NoError(t, err)
	diags := diag.NewCollector()
	info := check.Check(m, diags)
	require.False(t, diags.HasErrors(), diags.String())
	mod := Lower(m, info, diags)
	require.NoError(t, nir.ValidateModule(mod))
	return mod, diags
}

func instrsOf(f *nir.Function) []nir.Instr {
	var all []nir.Instr
	for _, b := range f.Blocks {
		all = append(all, b.Instrs...)
	}
	return all
}

func TestParameterPromotion(t *testing.T) {
	mod, _ := lowerSrc(t, "func f(_ x: Int, _ y: Int) -> Int { return x + y }")
	f := mod.Lookup("f")
	require.NotNil(t, f)

	entry := f.Entry()
	require.Len(t, entry.Params, 2)

	// Two allocas, each fed by a store of the incoming parameter.
	var allocas []*nir.Alloca
	var stores []*nir.Store
	for _, in := range entry.Instrs {
		switch in := in.(type) {
		case *nir.Alloca:
			allocas = append(allocas, in)
		case *nir.Store:
			stores = append(stores, in)
		}
	}
	require.Len(t, allocas, 2)
	require.Len(t, stores, 2)
	assert.Equal(t, "x", allocas[0].Hint)
	assert.Equal(t, allocas[0], stores[0].Addr)
	assert.Equal(t, nir.Value(entry.Params[0]), stores[0].Val)
}

func TestVarBindingLowering(t *testing.T) {
	mod, _ := lowerSrc(t, "func f() -> Int { var x: Int = 41; return x + 1 }")
	// A var with an initializer is one alloca plus one store.
	f := mod.Lookup("f")
	var alloca *nir.Alloca
	var store *nir.Store
	var load *nir.Load
	for _, in := range instrsOf(f) {
		switch in := in.(type) {
		case *nir.Alloca:
			alloca = in
		case *nir.Store:
			store = in
		case *nir.Load:
			load = in
		}
	}
	require.NotNil(t, alloca)
	require.NotNil(t, store)
	require.NotNil(t, load)
	assert.Equal(t, "x", alloca.Hint)
	assert.Equal(t, nir.Value(alloca), store.Addr)
	assert.Equal(t, nir.Value(alloca), load.Addr)
}

func TestShortCircuitAnd(t *testing.T) {
	mod, _ := lowerSrc(t, `
func rhs() -> Bool { return true }
func f(_ a: Bool) -> Bool { return a && rhs() }
`)
	f := mod.Lookup("f")
	require.NotNil(t, f)

	// entry branches to "continue" and "merge"; merge has one Bool param.
	entry := f.Entry()
	br, ok := entry.Term.(*nir.Branch)
	require.True(t, ok)
	assert.Equal(t, "continue", br.True.Name)
	assert.Equal(t, "merge", br.False.Name)

	// The short-circuit edge feeds false into the merge parameter.
	require.Len(t, br.FalseArgs, 1)
	fc, ok := br.FalseArgs[0].(*nir.Constant)
	require.True(t, ok)
	assert.False(t, fc.Bool)
	require.Empty(t, br.TrueArgs)

	merge := br.False
	require.Len(t, merge.Params, 1)
	assert.Equal(t, types.Bool, merge.Params[0].Type())

	// The right operand is evaluated only in the continue block.
	var calls int
	for _, in := range br.True.Instrs {
		if _, ok := in.(*nir.Call); ok {
			calls++
		}
	}
	assert.Equal(t, 1, calls)
	jump, ok := br.True.Term.(*nir.Jump)
	require.True(t, ok)
	assert.Equal(t, merge, jump.Target)
	require.Len(t, jump.Args, 1)
}

func TestShortCircuitOr(t *testing.T) {
	mod, _ := lowerSrc(t, `
func rhs() -> Bool { return true }
func f(_ a: Bool) -> Bool { return a || rhs() }
`)
	f := mod.Lookup("f")
	br, ok := f.Entry().Term.(*nir.Branch)
	require.True(t, ok)
	// For "||" the true edge short-circuits with true.
	assert.Equal(t, "merge", br.True.Name)
	assert.Equal(t, "continue", br.False.Name)
	require.Len(t, br.TrueArgs, 1)
	tc := br.TrueArgs[0].(*nir.Constant)
	assert.True(t, tc.Bool)
}

func TestNoLogicalInstructions(t *testing.T) {
	// Short-circuit operators always lower to control flow, never to
	// logical_and / logical_or instructions.
	mod, _ := lowerSrc(t, "func f(_ a: Bool, _ b: Bool) -> Bool { return a && b || a }")
	for _, in := range instrsOf(mod.Lookup("f")) {
		if bin, ok := in.(*nir.BinaryOp); ok {
			assert.NotEqual(t, nir.LogAnd, bin.Op)
			assert.NotEqual(t, nir.LogOr, bin.Op)
		}
	}
}

func TestIfElseChain(t *testing.T) {
	mod, _ := lowerSrc(t, `
func g(_ n: Int) -> Int {
    if n > 10 { return 1 } else if n > 5 { return 2 } else { return 3 }
}
`)
	g := mod.Lookup("g")
	names := make([]string, len(g.Blocks))
	for i, b := range g.Blocks {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"entry", "merge", "then", "cond", "then1", "else_block"}, names)

	// Every block is terminated; the unreachable merge got the synthesized
	// zero return.
	merge := g.Blocks[1]
	ret, ok := merge.Term.(*nir.Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
	zero, ok := ret.Value.(*nir.Constant)
	require.True(t, ok)
	assert.Equal(t, int64(0), zero.Int)
}

func TestMethodLowering(t *testing.T) {
	mod, _ := lowerSrc(t, `
struct Counter {
    var value: Int
    func inc(_ d: Int) { value = value + d }
}
func main() {
    var c: Counter
    c.inc(5)
}
`)
	inc := mod.Lookup("Counter_inc")
	require.NotNil(t, inc)

	// Implicit receiver: *Counter prepended to the declared parameter.
	params := inc.Params()
	require.Len(t, params, 2)
	recv, ok := params[0].(*types.Pointer)
	require.True(t, ok)
	_, isStruct := recv.Elem.(*types.Struct)
	assert.True(t, isStruct)
	assert.Equal(t, types.Int, params[1])

	// The implicit field write goes through a field address off self.
	var fieldAddrs []*nir.FieldAddress
	for _, in := range instrsOf(inc) {
		if fa, ok := in.(*nir.FieldAddress); ok {
			fieldAddrs = append(fieldAddrs, fa)
		}
	}
	require.NotEmpty(t, fieldAddrs)

	// The call site passes the receiver's address.
	main := mod.Lookup("main")
	var call *nir.Call
	for _, in := range instrsOf(main) {
		if c, ok := in.(*nir.Call); ok {
			call = c
		}
	}
	require.NotNil(t, call)
	assert.Equal(t, "Counter_inc", call.Callee)
	require.Len(t, call.Args, 2)
	_, isAlloca := call.Args[0].(*nir.Alloca)
	assert.True(t, isAlloca)
}

func TestMemberChainFlattening(t *testing.T) {
	mod, _ := lowerSrc(t, `
struct Inner { var x: Int }
struct Outer { var in: Inner }
func f(_ o: Outer) -> Int { return o.in.x }
`)
	f := mod.Lookup("f")
	var fa *nir.FieldAddress
	for _, in := range instrsOf(f) {
		if a, ok := in.(*nir.FieldAddress); ok {
			require.Nil(t, fa, "expected a single flattened field address")
			fa = a
		}
	}
	require.NotNil(t, fa)
	require.Len(t, fa.Path, 2)
	assert.Equal(t, "in", fa.Path[0].Str())
	assert.Equal(t, "x", fa.Path[1].Str())
}

func TestCastLowering(t *testing.T) {
	mod, _ := lowerSrc(t, "func main() -> Int32 { return Int32(7) }")
	var cast *nir.Cast
	for _, in := range instrsOf(mod.Lookup("main")) {
		if c, ok := in.(*nir.Cast); ok {
			cast = c
		}
	}
	require.NotNil(t, cast)
	assert.Equal(t, types.Int32, cast.Target)
}

func TestDefaultReturns(t *testing.T) {
	mod, _ := lowerSrc(t, "func f() { }")
	ret, ok := mod.Lookup("f").Entry().Term.(*nir.Return)
	require.True(t, ok)
	assert.Nil(t, ret.Value)

	mod, _ = lowerSrc(t, "func g() -> Int { var x: Int = 1 }")
	ret, ok = mod.Lookup("g").Entry().Term.(*nir.Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
	zero := ret.Value.(*nir.Constant)
	assert.Equal(t, int64(0), zero.Int)
}

func TestExternNotLowered(t *testing.T) {
	mod, _ := lowerSrc(t, `
@extern(c) func printf(_ fmt: *Int8, ...) -> Int32
func main() { printf("hi") }
`)
	assert.Nil(t, mod.Lookup("printf"))
	main := mod.Lookup("main")
	require.NotNil(t, main)
	var call *nir.Call
	for _, in := range instrsOf(main) {
		if c, ok := in.(*nir.Call); ok {
			call = c
		}
	}
	require.NotNil(t, call)
	assert.Equal(t, "printf", call.Callee)
}

func TestStatementsAfterReturnDropped(t *testing.T) {
	mod, _ := lowerSrc(t, "func f() -> Int { return 1\n return 2 }")
	f := mod.Lookup("f")
	require.Len(t, f.Blocks, 1)
	ret := f.Entry().Term.(*nir.Return)
	one := ret.Value.(*nir.Constant)
	assert.Equal(t, int64(1), one.Int)
}
