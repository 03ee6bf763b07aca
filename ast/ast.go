// Package ast defines the NTL syntax tree. The parser creates nodes, the
// type checker fills each expression's and type node's resolved-type slot
// exactly once, and later phases read the tree without mutating it.
package ast

import (
	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Range() source.Range
}

// Base carries the source range common to all nodes.
type Base struct {
	Rng source.Range
}

// Range returns the node's source extent.
func (b Base) Range() source.Range { return b.Rng }

// ExprBase carries the range and the mutable resolved-type slot common to
// all expressions. The slot is nil until the type checker fills it.
type ExprBase struct {
	Base
	ResolvedType types.Type
}

// Type returns the checker-resolved type, or nil before checking.
func (b *ExprBase) Type() types.Type { return b.ResolvedType }

// SetType fills the resolved-type slot.
func (b *ExprBase) SetType(t types.Type) { b.ResolvedType = t }

// TypeBase carries the range and resolved-type slot common to type nodes.
type TypeBase struct {
	Base
	Resolved types.Type
}

// Module is the root of one parsed source buffer.
type Module struct {
	Base
	Decls []Decl
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl is a top-level or struct-body declaration.
type Decl interface {
	Node
	declNode()
}

// Param is a declared function parameter.
type Param struct {
	Base
	// Label is the external argument label. Invalid means the parameter
	// takes no label (declared "_ name: T").
	Label symbol.ID
	// Name is the internal parameter name.
	Name symbol.ID
	// Type is nil only for the synthesized variadic marker.
	Type TypeNode
	// Variadic is set on the trailing "..." marker parameter.
	Variadic bool
}

// FuncDecl declares a function or method. A nil Body together with IsExtern
// declares an external function.
type FuncDecl struct {
	Base
	Name      symbol.ID
	NameRange source.Range
	Params    []*Param
	// ReturnType is nil when omitted; the resolved return type is then Void.
	ReturnType TypeNode
	Body       *Block
	IsExtern   bool

	// ResolvedType is the checker-computed signature. For methods it
	// includes the implicit receiver as the first parameter.
	ResolvedType *types.Func
}

func (*FuncDecl) declNode() {}

// ExternDecl wraps a function declared with @extern(convention).
type ExternDecl struct {
	Base
	// Convention is the calling-convention string between the parentheses,
	// "c" in every currently accepted program.
	Convention string
	Func       *FuncDecl
}

func (*ExternDecl) declNode() {}

// StructDecl declares a record type with fields and methods.
type StructDecl struct {
	Base
	Name      symbol.ID
	NameRange source.Range
	// Fields are the struct's var bindings, in declaration order. Each has
	// a required type node and an optional initializer.
	Fields  []*VarBinding
	Methods []*FuncDecl

	// ResolvedType is filled by the checker's first pass.
	ResolvedType *types.Struct
}

func (*StructDecl) declNode() {}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt is a statement inside a block.
type Stmt interface {
	Node
	stmtNode()
}

// Block is a braced statement sequence.
type Block struct {
	Base
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// VarBinding is "var name[: T] [= expr]". It doubles as a struct field
// declaration, where the type is required.
type VarBinding struct {
	Base
	Name      symbol.ID
	NameRange source.Range
	Type      TypeNode // nil when inferred
	Init      Expr     // nil when absent

	// ResolvedType is the declared or inferred type of the binding.
	ResolvedType types.Type
}

func (*VarBinding) stmtNode() {}

// AssignStmt is "name = expr" for a bare identifier target.
type AssignStmt struct {
	Base
	Name      symbol.ID
	NameRange source.Range
	Value     Expr

	// ImplicitSelfField is set by the checker when the name resolved to a
	// field of the method's enclosing struct rather than a local.
	ImplicitSelfField bool
}

func (*AssignStmt) stmtNode() {}

// MemberAssignStmt is "base.member = expr" where base is a bare identifier.
type MemberAssignStmt struct {
	Base
	BaseName    symbol.ID
	BaseRange   source.Range
	Member      symbol.ID
	MemberRange source.Range
	Value       Expr
}

func (*MemberAssignStmt) stmtNode() {}

// LValueAssignStmt is "lvalue = expr" for any other assignable target:
// dereferences, parenthesized lvalues, and longer member chains.
type LValueAssignStmt struct {
	Base
	Target Expr
	Value  Expr
}

func (*LValueAssignStmt) stmtNode() {}

// ReturnStmt is "return [expr]".
type ReturnStmt struct {
	Base
	Value Expr // nil for a bare return
}

func (*ReturnStmt) stmtNode() {}

// ExprStmt is an expression evaluated for its effects.
type ExprStmt struct {
	Base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// IfClause is one "(else) if cond { ... }" arm.
type IfClause struct {
	Cond Expr
	Body *Block
}

// IfStmt is an if/else-if chain with an optional trailing else.
type IfStmt struct {
	Base
	Clauses []IfClause
	Else    *Block // nil when absent
}

func (*IfStmt) stmtNode() {}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr is an expression node. Every expression carries a mutable
// resolved-type slot filled by the checker.
type Expr interface {
	Node
	Type() types.Type
	SetType(types.Type)
	exprNode()
}

// IntegerLiteral keeps its source spelling; the value is interpreted when
// lowering, not while parsing.
type IntegerLiteral struct {
	ExprBase
	Text string
}

func (*IntegerLiteral) exprNode() {}

// StringLiteral is a double-quoted literal, quotes stripped, no escapes.
type StringLiteral struct {
	ExprBase
	Value string
}

func (*StringLiteral) exprNode() {}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	ExprBase
	Value bool
}

func (*BooleanLiteral) exprNode() {}

// Identifier is a name reference. The checker records whether the name
// resolved to a field of the enclosing struct rather than a variable.
type Identifier struct {
	ExprBase
	Name symbol.ID

	// ImplicitSelfField is set by the checker when the identifier resolved
	// to a field of the method's enclosing struct.
	ImplicitSelfField bool
}

func (*Identifier) exprNode() {}

// BinaryExpr is "left op right".
type BinaryExpr struct {
	ExprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is "op operand".
type UnaryExpr struct {
	ExprBase
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// CallArg is one argument at a call site with its optional label.
type CallArg struct {
	// Label is symbol.Invalid for an unlabeled argument.
	Label      symbol.ID
	LabelRange source.Range
	Value      Expr
}

// CallExpr is "fn(args...)".
type CallExpr struct {
	ExprBase
	Fn   Expr
	Args []CallArg
}

func (*CallExpr) exprNode() {}

// CastExpr is the cast-call form "T(x)" where T names a primitive type. The
// parser forms it syntactically: primitive type names are reserved, so the
// shape is decidable without type information.
type CastExpr struct {
	ExprBase
	Target TypeNode
	Value  Expr
}

func (*CastExpr) exprNode() {}

// MemberAccessExpr is "base.member".
type MemberAccessExpr struct {
	ExprBase
	Member      symbol.ID
	MemberRange source.Range
	BaseExpr    Expr
}

func (*MemberAccessExpr) exprNode() {}

// ----------------------------------------------------------------------------
// Type nodes
// ----------------------------------------------------------------------------

// TypeNode is a syntactic type reference.
type TypeNode interface {
	Node
	// ResolvedType returns the checker-resolved type, or nil.
	ResolvedType() types.Type
	SetResolvedType(types.Type)
	typeNode()
}

// ResolvedType returns the resolved-type slot.
func (b *TypeBase) ResolvedType() types.Type { return b.Resolved }

// SetResolvedType fills the resolved-type slot.
func (b *TypeBase) SetResolvedType(t types.Type) { b.Resolved = t }

// NamedType is a type spelled as a bare name: Int, Bool, a struct name.
type NamedType struct {
	TypeBase
	Name symbol.ID
}

func (*NamedType) typeNode() {}

// PointerType is "*T".
type PointerType struct {
	TypeBase
	Elem TypeNode
}

func (*PointerType) typeNode() {}
