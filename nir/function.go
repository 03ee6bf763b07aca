package nir

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/hash"
	"github.com/harlanhaskins/ntl/source"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// Module is an ordered collection of lowered functions.
type Module struct {
	Funcs []*Function
	// byName indexes Funcs; names are unique after mangling.
	byName map[string]*Function
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{byName: map[string]*Function{}}
}

// Add appends a function.
func (m *Module) Add(f *Function) {
	if _, ok := m.byName[f.Name]; ok {
		log.Panicf("nir: duplicate function %s", f.Name)
	}
	m.Funcs = append(m.Funcs, f)
	m.byName[f.Name] = f
}

// Lookup finds a function by name, or nil.
func (m *Module) Lookup(name string) *Function {
	return m.byName[name]
}

// Function is one lowered NTL function or method. Its parameters are
// exactly the entry block's parameters.
type Function struct {
	Name   string
	Return types.Type
	Blocks []*Block
	// Rng is the source range of the declaration this function was lowered
	// from, kept as debug info for diagnostics over NIR.
	Rng source.Range

	nextValue int
	blockSeq  map[string]int
}

// NewFunction creates a function with an empty entry block carrying the
// given parameter types.
func NewFunction(name string, params []types.Type, ret types.Type) *Function {
	f := &Function{Name: name, Return: ret, blockSeq: map[string]int{}}
	entry := f.NewBlock("entry")
	for _, pt := range params {
		entry.AddParam(pt, "")
	}
	return f
}

// Entry returns the function's entry block.
func (f *Function) Entry() *Block { return f.Blocks[0] }

// Params returns the entry block's parameter types.
func (f *Function) Params() []types.Type {
	entry := f.Entry()
	ts := make([]types.Type, len(entry.Params))
	for i, p := range entry.Params {
		ts[i] = p.typ
	}
	return ts
}

// NewBlock appends a fresh block. The name is uniquified with a numeric
// suffix when it was used before, so lowering can reuse scheme names like
// "then" freely.
func (f *Function) NewBlock(name string) *Block {
	seq := f.blockSeq[name]
	f.blockSeq[name] = seq + 1
	if seq > 0 {
		name = fmt.Sprintf("%s%d", name, seq)
	}
	b := &Block{fn: f, Name: name}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Function) nextValueID() int {
	id := f.nextValue
	f.nextValue++
	return id
}

// Fingerprint hashes the function body: blocks, parameters, instruction
// kinds and operand references, and terminators. Transform passes use it to
// detect whether a rewrite changed anything.
func (f *Function) Fingerprint() hash.Hash {
	h := hash.String(f.Name)
	for _, b := range f.Blocks {
		h = h.Merge(hash.String(b.Name))
		h = h.Merge(hash.Int(int64(len(b.Params))))
		for _, in := range b.Instrs {
			h = h.Merge(hash.String(instrText(in)))
		}
		if b.Term != nil {
			h = h.Merge(hash.String(termText(b.Term)))
		}
	}
	return h
}

// Block is a basic block: ordered parameters, ordered instructions, and
// exactly one terminator once sealed.
type Block struct {
	fn     *Function
	Name   string
	Params []*BlockParam
	Instrs []Instr
	Term   Terminator
}

// Func returns the owning function.
func (b *Block) Func() *Function { return b.fn }

// Terminated reports whether the block is sealed.
func (b *Block) Terminated() bool { return b.Term != nil }

// AddParam appends a typed block parameter.
func (b *Block) AddParam(t types.Type, hint string) *BlockParam {
	p := &BlockParam{typ: t, block: b, Index: len(b.Params), Hint: hint}
	b.Params = append(b.Params, p)
	return p
}

// append adds an instruction, enforcing the invariant that nothing follows
// a terminator.
func (b *Block) append(in Instr) {
	if b.Terminated() {
		log.Panicf("nir: instruction after terminator in %s.%s", b.fn.Name, b.Name)
	}
	b.Instrs = append(b.Instrs, in)
}

// SetTerm seals the block.
func (b *Block) SetTerm(t Terminator) {
	if b.Terminated() {
		log.Panicf("nir: block %s.%s already terminated", b.fn.Name, b.Name)
	}
	b.Term = t
}

// ----------------------------------------------------------------------------
// Instruction constructors
// ----------------------------------------------------------------------------

// NewBinary appends "op l, r".
func (b *Block) NewBinary(op Op, l, r Value) *BinaryOp {
	in := &BinaryOp{instr: instr{id: b.fn.nextValueID()}, Op: op, L: l, R: r}
	b.append(in)
	return in
}

// NewUnary appends "op x".
func (b *Block) NewUnary(op Op, x Value) *UnaryOp {
	in := &UnaryOp{instr: instr{id: b.fn.nextValueID()}, Op: op, X: x}
	b.append(in)
	return in
}

// NewAlloca appends a stack allocation of elem.
func (b *Block) NewAlloca(elem types.Type, hint string) *Alloca {
	in := &Alloca{instr: instr{id: b.fn.nextValueID()}, Elem: elem, Hint: hint}
	b.append(in)
	return in
}

// NewLoad appends a load; the result type is the address's pointee.
//
// REQUIRES: addr has pointer type.
func (b *Block) NewLoad(addr Value) *Load {
	pt, ok := addr.Type().(*types.Pointer)
	if !ok {
		log.Panicf("nir: load through non-pointer %s", addr.Type())
	}
	in := &Load{instr: instr{id: b.fn.nextValueID()}, Addr: addr, typ: pt.Elem}
	b.append(in)
	return in
}

// NewStore appends a store.
func (b *Block) NewStore(addr, val Value) *Store {
	in := &Store{instr: instr{id: b.fn.nextValueID()}, Addr: addr, Val: val}
	b.append(in)
	return in
}

// NewCast appends a representation conversion.
func (b *Block) NewCast(x Value, target types.Type) *Cast {
	in := &Cast{instr: instr{id: b.fn.nextValueID()}, X: x, Target: target}
	b.append(in)
	return in
}

// NewFieldExtract appends a struct-value field projection.
//
// REQUIRES: base is a struct value with the named field.
func (b *Block) NewFieldExtract(base Value, field symbol.ID) *FieldExtract {
	st, ok := base.Type().(*types.Struct)
	if !ok {
		log.Panicf("nir: field extract from non-struct %s", base.Type())
	}
	ft := st.Field(field)
	if ft == nil {
		log.Panicf("nir: struct %s has no field %s", st, field.Str())
	}
	in := &FieldExtract{instr: instr{id: b.fn.nextValueID()}, Base: base, Field: field, typ: ft}
	b.append(in)
	return in
}

// NewFieldAddress appends a field-path offset from a struct address.
//
// REQUIRES: base is a pointer to a struct and path walks existing fields.
func (b *Block) NewFieldAddress(base Value, path []symbol.ID) *FieldAddress {
	pt, ok := base.Type().(*types.Pointer)
	if !ok {
		log.Panicf("nir: field address from non-pointer %s", base.Type())
	}
	cur := pt.Elem
	for _, field := range path {
		st, ok := cur.(*types.Struct)
		if !ok {
			log.Panicf("nir: field path step through non-struct %s", cur)
		}
		cur = st.Field(field)
		if cur == nil {
			log.Panicf("nir: struct %s has no field %s", st, field.Str())
		}
	}
	in := &FieldAddress{
		instr: instr{id: b.fn.nextValueID()},
		Base:  base, Path: path, typ: types.NewPointer(cur),
	}
	b.append(in)
	return in
}

// NewCall appends a call to the named function.
func (b *Block) NewCall(callee string, args []Value, ret types.Type) *Call {
	in := &Call{instr: instr{id: b.fn.nextValueID()}, Callee: callee, Args: args, Ret: ret}
	b.append(in)
	return in
}
