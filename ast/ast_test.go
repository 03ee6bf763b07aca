package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

func TestOperatorPredicates(t *testing.T) {
	assert.True(t, Add.IsArithmetic())
	assert.False(t, Add.IsComparison())
	assert.True(t, Le.IsComparison())
	assert.True(t, LogicalAnd.IsLogical())
	assert.False(t, Mul.IsLogical())
	assert.Equal(t, "&&", LogicalAnd.String())
	assert.Equal(t, "<=", Le.String())
	assert.Equal(t, "!", Not.String())
}

func TestResolvedTypeSlots(t *testing.T) {
	e := &IntegerLiteral{Text: "42"}
	assert.Nil(t, e.Type())
	e.SetType(types.Int)
	assert.Equal(t, types.Int, e.Type())

	tn := &NamedType{Name: symbol.Intern("Int")}
	assert.Nil(t, tn.ResolvedType())
	tn.SetResolvedType(types.Int)
	assert.Equal(t, types.Int, tn.ResolvedType())
}

func TestExprText(t *testing.T) {
	one := &IntegerLiteral{Text: "1"}
	two := &IntegerLiteral{Text: "2"}
	sum := &BinaryExpr{Op: Add, Left: one, Right: two}
	neg := &UnaryExpr{Op: Neg, Operand: sum}
	assert.Equal(t, "-((1 + 2))", ExprText(neg))

	s := &StringLiteral{Value: "hi"}
	assert.Equal(t, `"hi"`, ExprText(s))

	b := &BooleanLiteral{Value: false}
	assert.Equal(t, "false", ExprText(b))
}

func TestTypeText(t *testing.T) {
	inner := &NamedType{Name: symbol.Intern("Int8")}
	ptr := &PointerType{Elem: inner}
	assert.Equal(t, "*Int8", TypeText(ptr))
}

func TestPrintExtern(t *testing.T) {
	fn := &FuncDecl{
		Name: symbol.Intern("puts"),
		Params: []*Param{
			{Label: symbol.Invalid, Name: symbol.Intern("s"),
				Type: &PointerType{Elem: &NamedType{Name: symbol.Intern("Int8")}}},
		},
		ReturnType: &NamedType{Name: symbol.Intern("Int32")},
		IsExtern:   true,
	}
	m := &Module{Decls: []Decl{&ExternDecl{Convention: "c", Func: fn}}}
	assert.Equal(t, "@extern(c) func puts(_ s: *Int8) -> Int32\n", Print(m))
}

func TestNodeRange(t *testing.T) {
	r := source.Range{
		Start: source.Location{Line: 1, Column: 1, Offset: 0},
		End:   source.Location{Line: 1, Column: 3, Offset: 2},
	}
	n := &Identifier{ExprBase: ExprBase{Base: Base{Rng: r}}, Name: symbol.Intern("ab")}
	assert.Equal(t, r, n.Range())
}
