package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

func TestBasicEquality(t *testing.T) {
	assert.True(t, types.Equal(types.Int, types.Int))
	assert.False(t, types.Equal(types.Int, types.Int32))
	assert.False(t, types.Equal(types.Int, types.Bool))

	// Unknown is the error sink: it never equals anything.
	assert.False(t, types.Equal(types.Unknown, types.Unknown))
	assert.False(t, types.Equal(types.Unknown, types.Int))
}

func TestPointerEquality(t *testing.T) {
	a := types.NewPointer(types.Int8)
	b := types.NewPointer(types.Int8)
	c := types.NewPointer(types.Int)
	assert.True(t, types.Equal(a, b))
	assert.False(t, types.Equal(a, c))
	assert.True(t, types.Equal(types.NewPointer(a), types.NewPointer(b)))
	assert.Equal(t, "*Int8", a.String())
}

func TestStructNominalEquality(t *testing.T) {
	a := types.NewStruct(symbol.Intern("Counter"))
	a.Fields = []types.Field{{Name: symbol.Intern("value"), Type: types.Int}}
	b := types.NewStruct(symbol.Intern("Counter"))
	c := types.NewStruct(symbol.Intern("Point"))
	// Nominal: same name, equal, regardless of fields attached so far.
	assert.True(t, types.Equal(a, b))
	assert.False(t, types.Equal(a, c))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestStructLookups(t *testing.T) {
	s := types.NewStruct(symbol.Intern("Pair"))
	s.Fields = []types.Field{
		{Name: symbol.Intern("first"), Type: types.Int},
		{Name: symbol.Intern("second"), Type: types.Bool},
	}
	assert.Equal(t, 1, s.FieldIndex(symbol.Intern("second")))
	assert.Equal(t, -1, s.FieldIndex(symbol.Intern("third")))
	assert.Equal(t, types.Int, s.Field(symbol.Intern("first")))
	assert.Nil(t, s.Field(symbol.Intern("third")))
}

func TestFuncEquality(t *testing.T) {
	none := symbol.Invalid
	a := types.NewFunc([]types.Type{types.Int, types.Int}, []symbol.ID{none, none}, types.Int, false)
	b := types.NewFunc([]types.Type{types.Int, types.Int}, []symbol.ID{symbol.Intern("x"), none}, types.Int, false)
	c := types.NewFunc([]types.Type{types.Int}, []symbol.ID{none}, types.Int, false)
	v := types.NewFunc([]types.Type{types.Int, types.Int}, []symbol.ID{none, none}, types.Int, true)

	// Labels are not part of the signature identity.
	assert.True(t, types.Equal(a, b))
	assert.False(t, types.Equal(a, c))
	assert.False(t, types.Equal(a, v))
	assert.Equal(t, "(Int, Int) -> Int", a.String())
	assert.Equal(t, "(Int, Int, ...) -> Int", v.String())
}

func TestDropReceiver(t *testing.T) {
	owner := types.NewStruct(symbol.Intern("Counter"))
	m := types.NewFunc(
		[]types.Type{owner, types.Int},
		[]symbol.ID{symbol.Intern("self"), symbol.Invalid},
		types.Void, false)
	bound := m.DropReceiver()
	assert.Equal(t, []types.Type{types.Int}, bound.Params)
	assert.Equal(t, []symbol.ID{symbol.Invalid}, bound.Labels)
}

func TestPredicates(t *testing.T) {
	assert.True(t, types.IsInteger(types.Int8))
	assert.False(t, types.IsInteger(types.Bool))
	assert.True(t, types.IsCastTarget(types.Bool))
	assert.False(t, types.IsCastTarget(types.Void))
	assert.True(t, types.IsVoid(types.Void))
}

func TestHashDistinguishes(t *testing.T) {
	assert.NotEqual(t, types.Int.Hash(), types.Int32.Hash())
	assert.NotEqual(t, types.NewPointer(types.Int).Hash(), types.Int.Hash())
	assert.NotEqual(t,
		types.NewPointer(types.NewPointer(types.Int)).Hash(),
		types.NewPointer(types.Int).Hash())
}
