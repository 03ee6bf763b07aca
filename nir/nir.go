// Package nir defines the compiler's mid-level IR: a control-flow graph of
// basic blocks in SSA form. Merges are modeled by block parameters rather
// than phi nodes; every terminator supplies one argument per parameter of
// its target block.
//
// Values and blocks are identified by pointer. A Function owns its blocks
// and every instruction inside them; nothing in this package is shared
// between functions, so independent compilations never contend.
package nir

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// Value is anything an instruction can consume: constants, undef, block
// parameters, and result-producing instructions.
type Value interface {
	// Type returns the value's NTL type.
	Type() types.Type
	// Ref returns the value's spelling in a listing, e.g. "%v3" or "42".
	Ref() string
}

// Constant is a literal value. Exactly one payload field is meaningful,
// chosen by the constant's type.
type Constant struct {
	typ  types.Type
	Int  int64
	Bool bool
	Str  string
}

// NewIntConst creates an integer constant of the given integer type.
func NewIntConst(t types.Type, v int64) *Constant {
	if !types.IsInteger(t) {
		log.Panicf("nir: integer constant of type %s", t)
	}
	return &Constant{typ: t, Int: v}
}

// NewBoolConst creates a boolean constant.
func NewBoolConst(v bool) *Constant { return &Constant{typ: types.Bool, Bool: v} }

// NewStringConst creates a string constant of type *Int8.
func NewStringConst(s string) *Constant {
	return &Constant{typ: types.NewPointer(types.Int8), Str: s}
}

// VoidConst is the unit value.
func VoidConst() *Constant { return &Constant{typ: types.Void} }

func (c *Constant) Type() types.Type { return c.typ }

func (c *Constant) Ref() string {
	switch {
	case c.typ == types.Bool:
		return fmt.Sprintf("%t", c.Bool)
	case c.typ == types.Void:
		return "void"
	case types.IsInteger(c.typ):
		return fmt.Sprintf("%d", c.Int)
	default:
		return fmt.Sprintf("%q", c.Str)
	}
}

// Undef is an uninitialized value of a given type. Well-typed programs
// never observe one; it exists so default returns have an operand.
type Undef struct {
	typ types.Type
}

// NewUndef creates an undef value.
func NewUndef(t types.Type) *Undef { return &Undef{typ: t} }

func (u *Undef) Type() types.Type { return u.typ }
func (u *Undef) Ref() string      { return "undef" }

// BlockParam is a typed incoming value of a basic block. The entry block's
// parameters are the function's parameters.
type BlockParam struct {
	typ   types.Type
	block *Block
	// Index is the parameter's position within its block.
	Index int
	// Hint is an optional source-level name, for listings only.
	Hint string
}

func (p *BlockParam) Type() types.Type { return p.typ }
func (p *BlockParam) Block() *Block    { return p.block }

func (p *BlockParam) Ref() string {
	return fmt.Sprintf("%%%s.%d", p.block.Name, p.Index)
}

// ----------------------------------------------------------------------------
// Instructions
// ----------------------------------------------------------------------------

// Instr is one instruction inside a block. Instructions that produce a
// non-void result are themselves Values.
type Instr interface {
	Value
	// Operands returns the values the instruction reads.
	Operands() []Value
}

// instr carries the listing id shared by all instructions.
type instr struct {
	id int
}

func (i *instr) Ref() string { return fmt.Sprintf("%%v%d", i.id) }

// Op names a NIR operation. One namespace covers unary and binary
// operations; the C emitter maps each name to its C spelling.
type Op string

// Binary operation names. Comparisons and logic produce Bool; arithmetic
// produces the operand type.
const (
	IntAdd Op = "integer_add"
	IntSub Op = "integer_sub"
	IntMul Op = "integer_mul"
	IntDiv Op = "integer_div"
	IntRem Op = "integer_rem"
	IntEq  Op = "integer_eq"
	IntNe  Op = "integer_ne"
	IntLt  Op = "integer_lt"
	IntLe  Op = "integer_le"
	IntGt  Op = "integer_gt"
	IntGe  Op = "integer_ge"
	LogAnd Op = "logical_and"
	LogOr  Op = "logical_or"
)

// IsComparison reports whether the operation yields Bool from integer or
// boolean operands.
func (op Op) IsComparison() bool {
	switch op {
	case IntEq, IntNe, IntLt, IntLe, IntGt, IntGe:
		return true
	}
	return false
}

// BinaryOp computes "op l, r".
type BinaryOp struct {
	instr
	Op   Op
	L, R Value
}

func (b *BinaryOp) Type() types.Type {
	if b.Op.IsComparison() || b.Op == LogAnd || b.Op == LogOr {
		return types.Bool
	}
	return b.L.Type()
}

func (b *BinaryOp) Operands() []Value { return []Value{b.L, b.R} }

// Unary operation names.
const (
	IntNeg Op = "integer_neg"
	LogNot Op = "logical_not"
)

// UnaryOp computes "op x".
type UnaryOp struct {
	instr
	Op Op
	X  Value
}

func (u *UnaryOp) Type() types.Type  { return u.X.Type() }
func (u *UnaryOp) Operands() []Value { return []Value{u.X} }

// Alloca reserves one stack slot and yields its address. The builder emits
// one per local and per parameter so every name follows a uniform
// load/store protocol.
type Alloca struct {
	instr
	Elem types.Type
	// Hint is the source-level variable name, for listings and the
	// unused-variable analysis report.
	Hint string
	// Rng is the declaration's source range, carried as debug info so
	// analyses can point diagnostics back at the variable.
	Rng source.Range
}

func (a *Alloca) Type() types.Type  { return types.NewPointer(a.Elem) }
func (a *Alloca) Operands() []Value { return nil }

// Load reads through an address.
type Load struct {
	instr
	Addr Value
	// typ is derived from the address's pointee at construction; Validate
	// re-checks the agreement.
	typ types.Type
}

func (l *Load) Type() types.Type  { return l.typ }
func (l *Load) Operands() []Value { return []Value{l.Addr} }

// Store writes a value through an address. It produces no result.
type Store struct {
	instr
	Addr Value
	Val  Value
}

func (s *Store) Type() types.Type  { return types.Void }
func (s *Store) Operands() []Value { return []Value{s.Addr, s.Val} }

// Cast converts between primitive representations.
type Cast struct {
	instr
	X      Value
	Target types.Type
}

func (c *Cast) Type() types.Type  { return c.Target }
func (c *Cast) Operands() []Value { return []Value{c.X} }

// FieldExtract projects a field out of a struct value.
type FieldExtract struct {
	instr
	Base  Value
	Field symbol.ID
	typ   types.Type
}

func (f *FieldExtract) Type() types.Type  { return f.typ }
func (f *FieldExtract) Operands() []Value { return []Value{f.Base} }

// FieldAddress offsets a struct address through a field path, yielding the
// address of the last field. It is the NIR analogue of a GEP.
type FieldAddress struct {
	instr
	Base Value
	Path []symbol.ID
	typ  types.Type // Pointer(last field type)
}

func (f *FieldAddress) Type() types.Type  { return f.typ }
func (f *FieldAddress) Operands() []Value { return []Value{f.Base} }

// Call invokes a function by name. Calls are conservatively treated as
// side-effecting by every transform.
type Call struct {
	instr
	Callee string
	Args   []Value
	Ret    types.Type
}

func (c *Call) Type() types.Type  { return c.Ret }
func (c *Call) Operands() []Value { return c.Args }

// ----------------------------------------------------------------------------
// Terminators
// ----------------------------------------------------------------------------

// Terminator ends a block. Successor lists are derived from it.
type Terminator interface {
	// Successors returns the blocks control may transfer to.
	Successors() []*Block
	// Operands returns the values the terminator reads.
	Operands() []Value
}

// Jump transfers control unconditionally, binding Args to the target's
// parameters.
type Jump struct {
	Target *Block
	Args   []Value
}

func (j *Jump) Successors() []*Block { return []*Block{j.Target} }
func (j *Jump) Operands() []Value    { return j.Args }

// Branch transfers control on a boolean condition. Each side binds its own
// argument list to its target's parameters.
type Branch struct {
	Cond      Value
	True      *Block
	TrueArgs  []Value
	False     *Block
	FalseArgs []Value
}

func (b *Branch) Successors() []*Block { return []*Block{b.True, b.False} }

func (b *Branch) Operands() []Value {
	ops := []Value{b.Cond}
	ops = append(ops, b.TrueArgs...)
	ops = append(ops, b.FalseArgs...)
	return ops
}

// Return leaves the function. Value is nil for void returns.
type Return struct {
	Value Value
}

func (r *Return) Successors() []*Block { return nil }

func (r *Return) Operands() []Value {
	if r.Value == nil {
		return nil
	}
	return []Value{r.Value}
}
