package nir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

func TestFunctionConstruction(t *testing.T) {
	f := NewFunction("f", []types.Type{types.Int, types.Int}, types.Int)
	entry := f.Entry()
	require.Len(t, entry.Params, 2)
	assert.Equal(t, []types.Type{types.Int, types.Int}, f.Params())

	sum := entry.NewBinary(IntAdd, entry.Params[0], entry.Params[1])
	assert.Equal(t, types.Int, sum.Type())
	entry.SetTerm(&Return{Value: sum})

	require.NoError(t, Validate(f))
}

func TestBlockNameUniquing(t *testing.T) {
	f := NewFunction("f", nil, types.Void)
	a := f.NewBlock("then")
	b := f.NewBlock("then")
	c := f.NewBlock("merge")
	assert.Equal(t, "then", a.Name)
	assert.Equal(t, "then1", b.Name)
	assert.Equal(t, "merge", c.Name)
}

func TestNoInstrAfterTerminator(t *testing.T) {
	f := NewFunction("f", nil, types.Void)
	entry := f.Entry()
	entry.SetTerm(&Return{})
	assert.Panics(t, func() { entry.NewAlloca(types.Int, "x") })
	assert.Panics(t, func() { entry.SetTerm(&Return{}) })
}

func TestLoadTypeDerived(t *testing.T) {
	f := NewFunction("f", nil, types.Int)
	entry := f.Entry()
	slot := entry.NewAlloca(types.Int, "x")
	assert.True(t, types.Equal(types.NewPointer(types.Int), slot.Type()))
	ld := entry.NewLoad(slot)
	assert.Equal(t, types.Int, ld.Type())
	entry.SetTerm(&Return{Value: ld})
	require.NoError(t, Validate(f))
}

func TestFieldAddressPath(t *testing.T) {
	inner := types.NewStruct(symbol.Intern("Inner"))
	inner.Fields = []types.Field{{Name: symbol.Intern("x"), Type: types.Int}}
	outer := types.NewStruct(symbol.Intern("Outer"))
	outer.Fields = []types.Field{{Name: symbol.Intern("in"), Type: inner}}

	f := NewFunction("f", nil, types.Int)
	entry := f.Entry()
	slot := entry.NewAlloca(outer, "o")
	addr := entry.NewFieldAddress(slot, []symbol.ID{symbol.Intern("in"), symbol.Intern("x")})
	assert.True(t, types.Equal(types.NewPointer(types.Int), addr.Type()))
	ld := entry.NewLoad(addr)
	entry.SetTerm(&Return{Value: ld})
	require.NoError(t, Validate(f))
}

func TestValidateArity(t *testing.T) {
	f := NewFunction("f", nil, types.Void)
	entry := f.Entry()
	merge := f.NewBlock("merge")
	merge.AddParam(types.Bool, "")
	merge.SetTerm(&Return{})

	entry.SetTerm(&Jump{Target: merge}) // missing the argument
	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 args")
}

func TestValidateMissingTerminator(t *testing.T) {
	f := NewFunction("f", nil, types.Void)
	require.Error(t, Validate(f))
}

func TestValidateBranchTypes(t *testing.T) {
	f := NewFunction("f", []types.Type{types.Bool}, types.Void)
	entry := f.Entry()
	a := f.NewBlock("a")
	bblk := f.NewBlock("b")
	a.SetTerm(&Return{})
	bblk.SetTerm(&Return{})
	entry.SetTerm(&Branch{Cond: entry.Params[0], True: a, False: bblk})
	require.NoError(t, Validate(f))

	g := NewFunction("g", []types.Type{types.Int}, types.Void)
	ga := g.NewBlock("a")
	gb := g.NewBlock("b")
	ga.SetTerm(&Return{})
	gb.SetTerm(&Return{})
	g.Entry().SetTerm(&Branch{Cond: g.Entry().Params[0], True: ga, False: gb})
	require.Error(t, Validate(g))
}

func TestFingerprint(t *testing.T) {
	build := func(extra bool) *Function {
		f := NewFunction("f", []types.Type{types.Int}, types.Int)
		entry := f.Entry()
		v := Value(entry.Params[0])
		if extra {
			v = entry.NewBinary(IntAdd, v, NewIntConst(types.Int, 1))
		}
		entry.SetTerm(&Return{Value: v})
		return f
	}
	assert.Equal(t, build(false).Fingerprint(), build(false).Fingerprint())
	assert.NotEqual(t, build(false).Fingerprint(), build(true).Fingerprint())
}

func TestListing(t *testing.T) {
	f := NewFunction("main", nil, types.Int32)
	entry := f.Entry()
	slot := entry.NewAlloca(types.Int, "x")
	entry.NewStore(slot, NewIntConst(types.Int, 7))
	ld := entry.NewLoad(slot)
	cast := entry.NewCast(ld, types.Int32)
	entry.SetTerm(&Return{Value: cast})

	s := f.String()
	assert.Contains(t, s, "func main() -> Int32 {")
	assert.Contains(t, s, "alloca Int  ; x")
	assert.Contains(t, s, "store %v0, 7")
	assert.Contains(t, s, "cast %v2 to Int32")
	assert.Contains(t, s, "ret %v3")
}

func TestModuleLookup(t *testing.T) {
	m := NewModule()
	f := NewFunction("main", nil, types.Void)
	f.Entry().SetTerm(&Return{})
	m.Add(f)
	assert.Equal(t, f, m.Lookup("main"))
	assert.Nil(t, m.Lookup("missing"))
	assert.Panics(t, func() { m.Add(NewFunction("main", nil, types.Void)) })
	require.NoError(t, ValidateModule(m))
}
