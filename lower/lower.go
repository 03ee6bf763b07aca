// Package lower translates type-annotated NTL syntax trees into NIR. Every
// local and parameter gets an entry-block alloca so names follow one
// load/store protocol; short-circuit operators and if statements become
// branches with merge-block parameters.
//
// A lowering error aborts the function it occurred in; other functions
// continue, matching the phase error policy of the rest of the pipeline.
package lower

import (
	"strconv"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/check"
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/nir"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// abortFunc is the panic sentinel that unwinds one function's lowering
// after a diagnostic has been reported.
type abortFunc struct{}

// Lower builds a NIR module from a checked tree. Extern declarations are
// not lowered; calls to them stay symbolic and resolve at interpretation or
// link time.
func Lower(m *ast.Module, info *check.Info, diags *diag.Collector) *nir.Module {
	mod := nir.NewModule()
	b := &builder{info: info, diags: diags, mod: mod}
	for _, d := range m.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			b.lowerFunc(d, nil)
		case *ast.StructDecl:
			for _, method := range d.Methods {
				b.lowerFunc(method, d.ResolvedType)
			}
		}
	}
	return mod
}

type builder struct {
	info  *check.Info
	diags *diag.Collector
	mod   *nir.Module
}

// lowerFunc lowers one function or method, recovering from the abort
// sentinel so one broken body does not stop its siblings.
func (b *builder) lowerFunc(d *ast.FuncDecl, owner *types.Struct) {
	if d.Body == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortFunc); !ok {
				panic(r)
			}
		}
	}()

	name := d.Name.Str()
	var params []types.Type
	if owner != nil {
		name = check.MangleMethod(owner.Name, d.Name)
		params = append(params, types.NewPointer(owner))
	}
	for _, param := range d.Params {
		if param.Type == nil {
			continue // bare variadic marker
		}
		params = append(params, param.Type.ResolvedType())
	}
	ret := d.ResolvedType.Return

	fn := nir.NewFunction(name, params, ret)
	fn.Rng = d.Rng
	fc := &funcCtx{
		b: b, fn: fn, cur: fn.Entry(),
		vars:  map[symbol.ID]nir.Value{},
		owner: owner,
	}

	// Promote every parameter to an alloca so it can be addressed and
	// reassigned like any local. The implicit receiver is already an
	// address and stays a raw block parameter.
	entryParams := fn.Entry().Params
	idx := 0
	if owner != nil {
		fc.selfAddr = entryParams[0]
		entryParams[0].Hint = "self"
		idx = 1
	}
	for _, param := range d.Params {
		if param.Type == nil {
			continue
		}
		incoming := entryParams[idx]
		incoming.Hint = param.Name.Str()
		idx++
		slot := fc.cur.NewAlloca(param.Type.ResolvedType(), param.Name.Str())
		slot.Rng = param.Rng
		fc.cur.NewStore(slot, incoming)
		fc.vars[param.Name] = slot
	}

	fc.block(d.Body)

	// Fall off the end: synthesize the default return.
	if !fc.cur.Terminated() {
		if types.IsVoid(ret) {
			fc.cur.SetTerm(&nir.Return{})
		} else {
			fc.cur.SetTerm(&nir.Return{Value: zeroValue(ret)})
		}
	}
	b.mod.Add(fn)
}

// zeroValue is the value of the synthesized default return: zero for
// integers, false for booleans, and an undef bit pattern otherwise, which
// well-typed programs never reach.
func zeroValue(t types.Type) nir.Value {
	switch {
	case types.IsInteger(t):
		return nir.NewIntConst(t, 0)
	case t == types.Bool:
		return nir.NewBoolConst(false)
	default:
		return nir.NewUndef(t)
	}
}

// funcCtx is the lowering cursor: the function under construction and the
// block new instructions append to. Everything that creates blocks or
// terminators updates cur before returning.
type funcCtx struct {
	b   *builder
	fn  *nir.Function
	cur *nir.Block

	// vars maps source names to their alloca addresses.
	vars     map[symbol.ID]nir.Value
	owner    *types.Struct
	selfAddr nir.Value
}

func (fc *funcCtx) abort(rng ast.Node, format string, args ...interface{}) {
	fc.b.diags.Errorf(rng.Range(), diag.CannotComputeAddress, format, args...)
	panic(abortFunc{})
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (fc *funcCtx) block(blk *ast.Block) {
	for _, s := range blk.Stmts {
		if fc.cur.Terminated() {
			// Statements after a return are unreachable; the builder may
			// not append past a terminator.
			return
		}
		fc.stmt(s)
	}
}

func (fc *funcCtx) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarBinding:
		slot := fc.cur.NewAlloca(s.ResolvedType, s.Name.Str())
		slot.Rng = s.Rng
		fc.vars[s.Name] = slot
		if s.Init != nil {
			v := fc.expr(s.Init)
			fc.cur.NewStore(slot, v)
		}
	case *ast.AssignStmt:
		v := fc.expr(s.Value)
		var addr nir.Value
		if s.ImplicitSelfField {
			addr = fc.cur.NewFieldAddress(fc.selfAddr, []symbol.ID{s.Name})
		} else {
			addr = fc.varAddr(s, s.Name)
		}
		fc.cur.NewStore(addr, v)
	case *ast.MemberAssignStmt:
		v := fc.expr(s.Value)
		base := fc.varAddr(s, s.BaseName)
		addr := fc.cur.NewFieldAddress(base, []symbol.ID{s.Member})
		fc.cur.NewStore(addr, v)
	case *ast.LValueAssignStmt:
		v := fc.expr(s.Value)
		addr := fc.address(s.Target)
		fc.cur.NewStore(addr, v)
	case *ast.ReturnStmt:
		if s.Value == nil {
			fc.cur.SetTerm(&nir.Return{})
			return
		}
		v := fc.expr(s.Value)
		fc.cur.SetTerm(&nir.Return{Value: v})
	case *ast.ExprStmt:
		fc.expr(s.X)
	case *ast.IfStmt:
		fc.ifStmt(s)
	case *ast.Block:
		fc.block(s)
	default:
		log.Panicf("lower: unhandled statement %T", s)
	}
}

// ifStmt lowers a clause chain. Each clause branches between its body and
// the next decision point: a fresh cond block, the else block, or the
// shared merge block.
func (fc *funcCtx) ifStmt(s *ast.IfStmt) {
	merge := fc.fn.NewBlock("merge")
	for i, clause := range s.Clauses {
		cond := fc.expr(clause.Cond)
		then := fc.fn.NewBlock("then")
		var next *nir.Block
		switch {
		case i+1 < len(s.Clauses):
			next = fc.fn.NewBlock("cond")
		case s.Else != nil:
			next = fc.fn.NewBlock("else_block")
		default:
			next = merge
		}
		fc.cur.SetTerm(&nir.Branch{Cond: cond, True: then, False: next})

		fc.cur = then
		fc.block(clause.Body)
		if !fc.cur.Terminated() {
			fc.cur.SetTerm(&nir.Jump{Target: merge})
		}
		fc.cur = next
	}
	if s.Else != nil {
		fc.block(s.Else)
		if !fc.cur.Terminated() {
			fc.cur.SetTerm(&nir.Jump{Target: merge})
		}
		fc.cur = merge
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func (fc *funcCtx) expr(e ast.Expr) nir.Value {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		v, err := strconv.ParseInt(e.Text, 10, 64)
		if err != nil {
			// Digits only, so only overflow lands here; saturate silently.
			v = 1<<63 - 1
		}
		t := e.Type()
		if !types.IsInteger(t) {
			t = types.Int
		}
		return nir.NewIntConst(t, v)
	case *ast.StringLiteral:
		return nir.NewStringConst(e.Value)
	case *ast.BooleanLiteral:
		return nir.NewBoolConst(e.Value)
	case *ast.Identifier:
		return fc.cur.NewLoad(fc.identifierAddr(e))
	case *ast.UnaryExpr:
		switch e.Op {
		case ast.Neg:
			return fc.cur.NewUnary(nir.IntNeg, fc.expr(e.Operand))
		case ast.Not:
			return fc.cur.NewUnary(nir.LogNot, fc.expr(e.Operand))
		case ast.AddressOf:
			return fc.address(e.Operand)
		case ast.Deref:
			return fc.cur.NewLoad(fc.expr(e.Operand))
		}
	case *ast.BinaryExpr:
		if e.Op.IsLogical() {
			return fc.shortCircuit(e)
		}
		l := fc.expr(e.Left)
		r := fc.expr(e.Right)
		return fc.cur.NewBinary(binOp(e.Op), l, r)
	case *ast.CastExpr:
		return fc.cur.NewCast(fc.expr(e.Value), e.Target.ResolvedType())
	case *ast.CallExpr:
		return fc.call(e)
	case *ast.MemberAccessExpr:
		if addressable(e.BaseExpr) {
			return fc.cur.NewLoad(fc.address(e))
		}
		// The base is a temporary struct value; project out of it.
		base := fc.expr(e.BaseExpr)
		return fc.cur.NewFieldExtract(base, e.Member)
	}
	log.Panicf("lower: unhandled expression %T", e)
	return nil
}

func binOp(op ast.BinaryOp) nir.Op {
	switch op {
	case ast.Add:
		return nir.IntAdd
	case ast.Sub:
		return nir.IntSub
	case ast.Mul:
		return nir.IntMul
	case ast.Div:
		return nir.IntDiv
	case ast.Rem:
		return nir.IntRem
	case ast.Eq:
		return nir.IntEq
	case ast.Ne:
		return nir.IntNe
	case ast.Lt:
		return nir.IntLt
	case ast.Le:
		return nir.IntLe
	case ast.Gt:
		return nir.IntGt
	case ast.Ge:
		return nir.IntGe
	}
	log.Panicf("lower: no NIR op for %s", op)
	return ""
}

// shortCircuit lowers "&&" and "||" to control flow. The right operand is
// evaluated only along the continue edge; the other edge feeds the
// operator's short-circuit constant into the merge parameter.
func (fc *funcCtx) shortCircuit(e *ast.BinaryExpr) nir.Value {
	l := fc.expr(e.Left)
	cont := fc.fn.NewBlock("continue")
	merge := fc.fn.NewBlock("merge")
	result := merge.AddParam(types.Bool, "")

	if e.Op == ast.LogicalAnd {
		fc.cur.SetTerm(&nir.Branch{
			Cond: l,
			True: cont, False: merge,
			FalseArgs: []nir.Value{nir.NewBoolConst(false)},
		})
	} else {
		fc.cur.SetTerm(&nir.Branch{
			Cond: l,
			True: merge, TrueArgs: []nir.Value{nir.NewBoolConst(true)},
			False: cont,
		})
	}

	fc.cur = cont
	r := fc.expr(e.Right) // may create blocks and move the cursor
	if !fc.cur.Terminated() {
		fc.cur.SetTerm(&nir.Jump{Target: merge, Args: []nir.Value{r}})
	}
	fc.cur = merge
	return result
}

func (fc *funcCtx) call(e *ast.CallExpr) nir.Value {
	switch fn := e.Fn.(type) {
	case *ast.Identifier:
		sig := fc.b.info.Funcs[fn.Name]
		if sig == nil {
			log.Panicf("lower: call to unresolved function %s", fn.Name.Str())
		}
		args := make([]nir.Value, len(e.Args))
		for i, arg := range e.Args {
			args[i] = fc.expr(arg.Value)
		}
		return fc.cur.NewCall(fn.Name.Str(), args, sig.Return)
	case *ast.MemberAccessExpr:
		st, ok := fn.BaseExpr.Type().(*types.Struct)
		if !ok {
			fc.abort(fn.BaseExpr, "cannot call a method on a value of type %s", fn.BaseExpr.Type())
		}
		sig := st.Method(fn.Member)
		if sig == nil {
			log.Panicf("lower: call to unresolved method %s.%s", st, fn.Member.Str())
		}
		if !addressable(fn.BaseExpr) {
			fc.abort(fn.BaseExpr, "cannot compute the address of the method receiver")
		}
		recv := fc.address(fn.BaseExpr)
		args := make([]nir.Value, 0, len(e.Args)+1)
		args = append(args, recv)
		for _, arg := range e.Args {
			args = append(args, fc.expr(arg.Value))
		}
		return fc.cur.NewCall(check.MangleMethod(st.Name, fn.Member), args, sig.Return)
	default:
		fc.abort(e.Fn, "cannot lower an indirect call")
		return nil
	}
}

// ----------------------------------------------------------------------------
// Addresses
// ----------------------------------------------------------------------------

// addressable reports whether address can compute an address for e without
// reporting an error.
func addressable(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Identifier:
		return true
	case *ast.UnaryExpr:
		return e.Op == ast.Deref
	case *ast.MemberAccessExpr:
		return addressable(e.BaseExpr)
	}
	return false
}

// address computes the location an lvalue expression names. Member chains
// flatten to a single field-path offset from the base address.
func (fc *funcCtx) address(e ast.Expr) nir.Value {
	switch e := e.(type) {
	case *ast.Identifier:
		return fc.identifierAddr(e)
	case *ast.UnaryExpr:
		if e.Op == ast.Deref {
			return fc.expr(e.Operand)
		}
	case *ast.MemberAccessExpr:
		var path []symbol.ID
		base := ast.Expr(e)
		for {
			m, ok := base.(*ast.MemberAccessExpr)
			if !ok {
				break
			}
			path = append([]symbol.ID{m.Member}, path...)
			base = m.BaseExpr
		}
		return fc.cur.NewFieldAddress(fc.address(base), path)
	}
	fc.abort(e, "cannot compute the address of this expression")
	return nil
}

func (fc *funcCtx) identifierAddr(e *ast.Identifier) nir.Value {
	if e.ImplicitSelfField {
		return fc.cur.NewFieldAddress(fc.selfAddr, []symbol.ID{e.Name})
	}
	if fc.owner != nil && e.Name == symbol.Self {
		return fc.selfAddr
	}
	addr, ok := fc.vars[e.Name]
	if !ok {
		log.Panicf("lower: no storage for %s", e.Name.Str())
	}
	if _, isParam := addr.(*nir.BlockParam); isParam {
		// Parameters are only addressable through their entry alloca.
		fc.abort(e, "cannot take the address of parameter '%s'", e.Name.Str())
	}
	return addr
}

// varAddr is identifierAddr for statement targets that carry only a name.
func (fc *funcCtx) varAddr(at ast.Node, name symbol.ID) nir.Value {
	if addr, ok := fc.vars[name]; ok {
		return addr
	}
	if fc.owner != nil {
		if fc.owner.Field(name) != nil {
			return fc.cur.NewFieldAddress(fc.selfAddr, []symbol.ID{name})
		}
	}
	fc.abort(at, "no storage for '%s'", name.Str())
	return nil
}
