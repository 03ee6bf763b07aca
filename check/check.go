// Package check performs semantic analysis over a parsed NTL module. It
// runs two passes: the first populates the global scope with type and
// function signatures, the second walks every body, resolves names, and
// fills the resolved-type slot of every expression and type node.
//
// Errors never abort checking: the tree is annotated as far as possible so
// later phases and tools can consume partial results.
package check

import (
	"strings"

	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// Info is what the checker learned about a module. The NIR builder and the
// C emitter consume it alongside the annotated tree.
type Info struct {
	// Structs holds every declared struct type in declaration order.
	Structs []*types.Struct
	// Funcs maps function names to signatures. Method signatures are not
	// included; they live on their struct type.
	Funcs map[symbol.ID]*types.Func
	// Externs records which function names were declared @extern.
	Externs map[symbol.ID]bool
}

// Checker holds the state of one semantic analysis.
type Checker struct {
	diags *diag.Collector
	info  *Info

	// typeNames maps a name usable in type position to its type.
	typeNames map[symbol.ID]types.Type

	// Current function context.
	scopes        []*scope
	currentStruct *types.Struct // non-nil inside method bodies
	currentReturn types.Type
}

// Check analyses the module, reporting problems to diags and filling the
// tree's resolved-type slots. The returned Info is valid even when errors
// were reported, but later phases should consult diags.HasErrors before
// lowering.
func Check(m *ast.Module, diags *diag.Collector) *Info {
	c := &Checker{
		diags: diags,
		info: &Info{
			Funcs:   map[symbol.ID]*types.Func{},
			Externs: map[symbol.ID]bool{},
		},
		typeNames: map[symbol.ID]types.Type{
			symbol.Int:   types.Int,
			symbol.Int8:  types.Int8,
			symbol.Int32: types.Int32,
			symbol.Bool:  types.Bool,
			symbol.Void:  types.Void,
		},
	}
	c.collect(m)
	c.checkBodies(m)
	return c.info
}

// MangleMethod returns the NIR-level name of a struct method.
func MangleMethod(owner, method symbol.ID) string {
	return owner.Str() + "_" + method.Str()
}

// ----------------------------------------------------------------------------
// Pass 1: global scope
// ----------------------------------------------------------------------------

func (c *Checker) collect(m *ast.Module) {
	// Struct shells first so fields may reference structs declared later.
	for _, d := range m.Decls {
		if sd, ok := d.(*ast.StructDecl); ok {
			st := types.NewStruct(sd.Name)
			sd.ResolvedType = st
			c.info.Structs = append(c.info.Structs, st)
			c.typeNames[sd.Name] = st
		}
	}
	for _, d := range m.Decls {
		switch d := d.(type) {
		case *ast.StructDecl:
			c.collectStruct(d)
		case *ast.FuncDecl:
			c.info.Funcs[d.Name] = c.signature(d, nil)
			d.ResolvedType = c.info.Funcs[d.Name]
		case *ast.ExternDecl:
			c.info.Funcs[d.Func.Name] = c.signature(d.Func, nil)
			c.info.Externs[d.Func.Name] = true
			d.Func.ResolvedType = c.info.Funcs[d.Func.Name]
		}
	}
}

func (c *Checker) collectStruct(d *ast.StructDecl) {
	st := d.ResolvedType
	for _, f := range d.Fields {
		var ft types.Type = types.Unknown
		if f.Type == nil {
			c.diags.Errorf(f.Rng, diag.MissingFieldType,
				"struct field '%s' must declare a type", f.Name.Str())
		} else {
			ft = c.resolveType(f.Type)
		}
		f.ResolvedType = ft
		st.Fields = append(st.Fields, types.Field{Name: f.Name, Type: ft})
	}
	for _, method := range d.Methods {
		sig := c.signature(method, st)
		method.ResolvedType = sig
		st.Methods = append(st.Methods, types.Method{Name: method.Name, Type: sig})
	}
}

// signature builds a function type from a declaration. For methods, owner
// is the enclosing struct and an implicit self parameter is prepended.
func (c *Checker) signature(d *ast.FuncDecl, owner *types.Struct) *types.Func {
	var (
		params   []types.Type
		labels   []symbol.ID
		variadic bool
	)
	if owner != nil {
		params = append(params, owner)
		labels = append(labels, symbol.Invalid)
	}
	for _, param := range d.Params {
		if param.Variadic && param.Type == nil {
			// The bare "..." marker carries no declared parameter.
			variadic = true
			continue
		}
		pt := c.resolveType(param.Type)
		params = append(params, pt)
		labels = append(labels, param.Label)
		if param.Variadic {
			variadic = true
		}
	}
	ret := types.Type(types.Void)
	if d.ReturnType != nil {
		ret = c.resolveType(d.ReturnType)
	}
	return types.NewFunc(params, labels, ret, variadic)
}

func (c *Checker) resolveType(tn ast.TypeNode) types.Type {
	switch tn := tn.(type) {
	case *ast.NamedType:
		t, ok := c.typeNames[tn.Name]
		if !ok {
			c.diags.Errorf(tn.Rng, diag.UnknownType, "unknown type '%s'", tn.Name.Str())
			t = types.Unknown
		}
		tn.SetResolvedType(t)
		return t
	case *ast.PointerType:
		elem := c.resolveType(tn.Elem)
		t := types.Type(types.NewPointer(elem))
		if elem == types.Unknown {
			t = types.Unknown
		}
		tn.SetResolvedType(t)
		return t
	}
	return types.Unknown
}

// ----------------------------------------------------------------------------
// Pass 2: bodies
// ----------------------------------------------------------------------------

func (c *Checker) checkBodies(m *ast.Module) {
	for _, d := range m.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			c.checkFunc(d, nil)
		case *ast.StructDecl:
			for _, method := range d.Methods {
				c.checkFunc(method, d.ResolvedType)
			}
		}
	}
}

func (c *Checker) checkFunc(d *ast.FuncDecl, owner *types.Struct) {
	if d.Body == nil {
		return
	}
	c.currentStruct = owner
	c.currentReturn = d.ResolvedType.Return
	c.pushScope()
	if owner != nil {
		c.bind(symbol.Self, owner)
	}
	for _, param := range d.Params {
		if param.Type == nil {
			continue
		}
		c.bind(param.Name, param.Type.ResolvedType())
	}
	c.checkBlock(d.Body)
	c.popScope()
	c.currentStruct = nil
	c.currentReturn = nil
}

func (c *Checker) checkBlock(b *ast.Block) {
	c.pushScope()
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	c.popScope()
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarBinding:
		c.checkVarBinding(s)
	case *ast.AssignStmt:
		c.checkAssign(s)
	case *ast.MemberAssignStmt:
		c.checkMemberAssign(s)
	case *ast.LValueAssignStmt:
		c.checkLValueAssign(s)
	case *ast.ReturnStmt:
		c.checkReturn(s)
	case *ast.ExprStmt:
		c.checkExpr(s.X)
	case *ast.IfStmt:
		for _, clause := range s.Clauses {
			ct := c.checkExpr(clause.Cond)
			if known(ct) && ct != types.Bool {
				c.diags.Errorf(clause.Cond.Range(), diag.NonBooleanCondition,
					"condition has type %s, expected Bool", ct)
			}
			c.checkBlock(clause.Body)
		}
		if s.Else != nil {
			c.checkBlock(s.Else)
		}
	case *ast.Block:
		c.checkBlock(s)
	}
}

func (c *Checker) checkVarBinding(s *ast.VarBinding) {
	var declared types.Type
	if s.Type != nil {
		declared = c.resolveType(s.Type)
	}
	var inferred types.Type
	if s.Init != nil {
		inferred = c.checkExpr(s.Init)
	}
	switch {
	case declared != nil && inferred != nil:
		if known(declared) && known(inferred) && !types.Equal(declared, inferred) {
			c.diags.Errorf(s.Init.Range(), diag.TypeMismatch,
				"expected %s, found %s", declared, inferred)
		}
		s.ResolvedType = declared
	case declared != nil:
		s.ResolvedType = declared
	case inferred != nil:
		s.ResolvedType = inferred
	default:
		c.diags.Errorf(s.Rng, diag.MissingInitializer,
			"variable '%s' needs a type annotation or an initializer", s.Name.Str())
		s.ResolvedType = types.Unknown
	}
	c.bind(s.Name, s.ResolvedType)
}

func (c *Checker) checkAssign(s *ast.AssignStmt) {
	vt := c.checkExpr(s.Value)
	target, isField := c.resolveName(s.Name)
	if target == nil {
		c.diags.Errorf(s.NameRange, diag.UndefinedVariable,
			"use of undefined variable '%s'", s.Name.Str())
		return
	}
	s.ImplicitSelfField = isField
	if known(target) && known(vt) && !types.Equal(target, vt) {
		c.diags.Errorf(s.Value.Range(), diag.TypeMismatch,
			"expected %s, found %s", target, vt)
	}
}

func (c *Checker) checkMemberAssign(s *ast.MemberAssignStmt) {
	vt := c.checkExpr(s.Value)
	base, _ := c.resolveName(s.BaseName)
	if base == nil {
		c.diags.Errorf(s.BaseRange, diag.UndefinedVariable,
			"use of undefined variable '%s'", s.BaseName.Str())
		return
	}
	st, ok := base.(*types.Struct)
	if !ok {
		if known(base) {
			c.diags.Errorf(s.BaseRange, diag.InvalidMemberAccess,
				"type %s has no members", base)
		}
		return
	}
	ft := st.Field(s.Member)
	if ft == nil {
		c.diags.Errorf(s.MemberRange, diag.UnknownMember,
			"type %s has no member '%s'", st, s.Member.Str())
		return
	}
	if known(ft) && known(vt) && !types.Equal(ft, vt) {
		c.diags.Errorf(s.Value.Range(), diag.TypeMismatch,
			"expected %s, found %s", ft, vt)
	}
}

func (c *Checker) checkLValueAssign(s *ast.LValueAssignStmt) {
	vt := c.checkExpr(s.Value)
	tt := c.checkExpr(s.Target)
	if !c.isLValue(s.Target) {
		if known(tt) {
			c.diags.Errorf(s.Target.Range(), diag.CannotAssign,
				"cannot assign to a value of type %s", tt)
		}
		return
	}
	if known(tt) && known(vt) && !types.Equal(tt, vt) {
		c.diags.Errorf(s.Value.Range(), diag.TypeMismatch,
			"expected %s, found %s", tt, vt)
	}
}

func (c *Checker) checkReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		if known(c.currentReturn) && c.currentReturn != types.Void {
			c.diags.Errorf(s.Rng, diag.TypeMismatch,
				"expected %s, found Void", c.currentReturn)
		}
		return
	}
	vt := c.checkExpr(s.Value)
	if known(c.currentReturn) && known(vt) && !types.Equal(c.currentReturn, vt) {
		c.diags.Errorf(s.Value.Range(), diag.TypeMismatch,
			"expected %s, found %s", c.currentReturn, vt)
	}
}

// resolveName finds what a bare identifier refers to in the current
// context: a scoped variable, or a field of the enclosing struct inside a
// method body. The second result reports the implicit-field case.
func (c *Checker) resolveName(name symbol.ID) (types.Type, bool) {
	if t, ok := c.lookupVar(name); ok {
		return t, false
	}
	if c.currentStruct != nil {
		if ft := c.currentStruct.Field(name); ft != nil {
			return ft, true
		}
	}
	return nil, false
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// known reports whether a type took part in successful resolution. Checks
// against Unknown are skipped so one bad expression does not cascade.
func known(t types.Type) bool {
	return t != nil && t != types.Unknown
}

func (c *Checker) checkExpr(e ast.Expr) types.Type {
	t := c.typeOf(e)
	e.SetType(t)
	return t
}

func (c *Checker) typeOf(e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		return types.Int
	case *ast.StringLiteral:
		return types.NewPointer(types.Int8)
	case *ast.BooleanLiteral:
		return types.Bool
	case *ast.Identifier:
		t, isField := c.resolveName(e.Name)
		if t == nil {
			c.diags.Errorf(e.Rng, diag.UndefinedVariable,
				"use of undefined variable '%s'", e.Name.Str())
			return types.Unknown
		}
		e.ImplicitSelfField = isField
		return t
	case *ast.UnaryExpr:
		return c.typeOfUnary(e)
	case *ast.BinaryExpr:
		return c.typeOfBinary(e)
	case *ast.CastExpr:
		c.checkExpr(e.Value)
		return c.resolveType(e.Target)
	case *ast.CallExpr:
		return c.typeOfCall(e)
	case *ast.MemberAccessExpr:
		return c.typeOfMember(e)
	}
	return types.Unknown
}

func (c *Checker) typeOfUnary(e *ast.UnaryExpr) types.Type {
	ot := c.checkExpr(e.Operand)
	if !known(ot) {
		return types.Unknown
	}
	switch e.Op {
	case ast.Neg:
		if types.IsInteger(ot) {
			return ot
		}
		c.diags.Errorf(e.Rng, diag.InvalidUnaryOperand,
			"operator '-' cannot be applied to %s", ot)
	case ast.Not:
		if ot == types.Bool {
			return types.Bool
		}
		c.diags.Errorf(e.Rng, diag.InvalidUnaryOperand,
			"operator '!' cannot be applied to %s", ot)
	case ast.AddressOf:
		if c.isLValue(e.Operand) {
			return types.NewPointer(ot)
		}
		c.diags.Errorf(e.Rng, diag.CannotTakeAddress,
			"cannot take the address of a value of type %s", ot)
	case ast.Deref:
		if pt, ok := ot.(*types.Pointer); ok {
			return pt.Elem
		}
		c.diags.Errorf(e.Rng, diag.CannotDereference,
			"cannot dereference a value of type %s", ot)
	}
	return types.Unknown
}

func (c *Checker) typeOfBinary(e *ast.BinaryExpr) types.Type {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	if !known(lt) || !known(rt) {
		if e.Op.IsArithmetic() {
			return types.Unknown
		}
		return types.Bool
	}
	bad := func() types.Type {
		c.diags.Errorf(e.Rng, diag.InvalidBinaryOperands,
			"operator '%s' cannot be applied to %s and %s", e.Op, lt, rt)
		return types.Unknown
	}
	switch {
	case e.Op.IsArithmetic():
		if types.IsInteger(lt) && types.Equal(lt, rt) {
			return lt
		}
		return bad()
	case e.Op.IsLogical():
		if lt == types.Bool && rt == types.Bool {
			return types.Bool
		}
		return bad()
	case e.Op == ast.Eq || e.Op == ast.Ne:
		if types.Equal(lt, rt) {
			return types.Bool
		}
		return bad()
	default: // ordered comparisons
		if types.Equal(lt, rt) && (types.IsInteger(lt) || lt == types.Bool) {
			return types.Bool
		}
		return bad()
	}
}

func (c *Checker) typeOfMember(e *ast.MemberAccessExpr) types.Type {
	bt := c.checkExpr(e.BaseExpr)
	if !known(bt) {
		return types.Unknown
	}
	st, ok := bt.(*types.Struct)
	if !ok {
		c.diags.Errorf(e.BaseExpr.Range(), diag.InvalidMemberAccess,
			"type %s has no members", bt)
		return types.Unknown
	}
	if ft := st.Field(e.Member); ft != nil {
		return ft
	}
	if mt := st.Method(e.Member); mt != nil {
		return mt.DropReceiver()
	}
	c.diags.Errorf(e.MemberRange, diag.UnknownMember,
		"type %s has no member '%s'", st, e.Member.Str())
	return types.Unknown
}

func (c *Checker) typeOfCall(e *ast.CallExpr) types.Type {
	// Argument values are always checked, even when the callee is broken,
	// so their resolved-type slots fill.
	argTypes := make([]types.Type, len(e.Args))
	for i, arg := range e.Args {
		argTypes[i] = c.checkExpr(arg.Value)
	}

	var sig *types.Func
	switch fn := e.Fn.(type) {
	case *ast.Identifier:
		if s, ok := c.info.Funcs[fn.Name]; ok {
			sig = s
			fn.SetType(s)
			break
		}
		if t, ok := c.typeNames[fn.Name]; ok {
			// A type name in call position that survived the parser's cast
			// carve-out is a struct; structs are not callable.
			c.diags.Errorf(fn.Rng, diag.NotCallable, "type %s is not callable", t)
			fn.SetType(types.Unknown)
			return types.Unknown
		}
		c.diags.Errorf(fn.Rng, diag.UndefinedVariable,
			"use of undefined variable '%s'", fn.Name.Str())
		fn.SetType(types.Unknown)
		return types.Unknown
	case *ast.MemberAccessExpr:
		mt := c.checkExpr(fn)
		if !known(mt) {
			return types.Unknown
		}
		s, ok := mt.(*types.Func)
		if !ok {
			c.diags.Errorf(fn.Range(), diag.NotCallable, "value of type %s is not callable", mt)
			return types.Unknown
		}
		sig = s
	default:
		ft := c.checkExpr(fn)
		if known(ft) {
			c.diags.Errorf(fn.Range(), diag.NotCallable, "value of type %s is not callable", ft)
		}
		return types.Unknown
	}

	c.checkArity(e, sig, argTypes)
	c.checkLabels(e, sig)
	return sig.Return
}

func (c *Checker) checkArity(e *ast.CallExpr, sig *types.Func, argTypes []types.Type) {
	declared := len(sig.Params)
	switch {
	case sig.Variadic && len(e.Args) < declared:
		c.diags.Errorf(e.Rng, diag.ArgumentCountMismatch,
			"expected at least %d arguments, found %d", declared, len(e.Args))
		return
	case !sig.Variadic && len(e.Args) != declared:
		c.diags.Errorf(e.Rng, diag.ArgumentCountMismatch,
			"expected %d arguments, found %d", declared, len(e.Args))
		return
	}
	for i, at := range argTypes {
		if i >= declared {
			// Beyond the declared parameters of a variadic signature any
			// type goes; a note records the promotion.
			c.diags.Notef(e.Args[i].Value.Range(), diag.VariadicArgument,
				"passing %s as a variadic argument", at)
			continue
		}
		pt := sig.Params[i]
		if pt == types.CVarArgs {
			continue
		}
		if known(pt) && known(at) && !types.Equal(pt, at) {
			c.diags.Errorf(e.Args[i].Value.Range(), diag.TypeMismatch,
				"expected %s, found %s", pt, at)
		}
	}
}

// checkLabels compares supplied argument labels against declared ones. When
// the same labels appear in the wrong order, a single order-mismatch error
// replaces the per-position reports.
func (c *Checker) checkLabels(e *ast.CallExpr, sig *types.Func) {
	n := len(e.Args)
	if len(sig.Labels) < n {
		n = len(sig.Labels)
	}
	if c.labelsOutOfOrder(e, sig, n) {
		c.diags.Errorf(e.Rng, diag.ArgumentLabelOrder,
			"argument labels are out of order (expected %s, got %s)",
			labelList(sig.Labels[:n]), suppliedLabelList(e.Args[:n]))
		return
	}
	for i := 0; i < n; i++ {
		declared, got := sig.Labels[i], e.Args[i].Label
		argRange := e.Args[i].Value.Range()
		if e.Args[i].Label != symbol.Invalid {
			argRange = e.Args[i].LabelRange
		}
		switch {
		case declared == got:
		case declared == symbol.Invalid:
			c.diags.Errorf(argRange, diag.UnexpectedArgumentLabel,
				"unexpected argument label '%s'", got.Str())
		case got == symbol.Invalid:
			c.diags.Errorf(argRange, diag.MissingArgumentLabel,
				"missing argument label '%s'", declared.Str())
		default:
			c.diags.Errorf(argRange, diag.IncorrectArgumentLabel,
				"incorrect argument label (expected '%s', got '%s')",
				declared.Str(), got.Str())
		}
	}
}

// labelsOutOfOrder reports whether the supplied non-nil labels are exactly
// the declared set in a different order.
func (c *Checker) labelsOutOfOrder(e *ast.CallExpr, sig *types.Func, n int) bool {
	declared := map[symbol.ID]int{}
	supplied := map[symbol.ID]int{}
	ordered := true
	var declaredSeq, suppliedSeq []symbol.ID
	for i := 0; i < n; i++ {
		if sig.Labels[i] != symbol.Invalid {
			declared[sig.Labels[i]]++
			declaredSeq = append(declaredSeq, sig.Labels[i])
		}
		if e.Args[i].Label != symbol.Invalid {
			supplied[e.Args[i].Label]++
			suppliedSeq = append(suppliedSeq, e.Args[i].Label)
		}
		if sig.Labels[i] != e.Args[i].Label {
			ordered = false
		}
	}
	if ordered || len(declared) != len(supplied) {
		return false
	}
	for l, count := range declared {
		if supplied[l] != count {
			return false
		}
	}
	// Same multiset, different order.
	return !equalSeq(declaredSeq, suppliedSeq)
}

func equalSeq(a, b []symbol.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func labelList(labels []symbol.ID) string {
	var parts []string
	for _, l := range labels {
		if l != symbol.Invalid {
			parts = append(parts, l.Str())
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func suppliedLabelList(args []ast.CallArg) string {
	var parts []string
	for _, a := range args {
		if a.Label != symbol.Invalid {
			parts = append(parts, a.Label.Str())
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// isLValue reports whether an already-checked expression denotes a mutable
// location: a named variable or field, a dereference, or a member chain
// rooted at one.
func (c *Checker) isLValue(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Identifier:
		return true
	case *ast.UnaryExpr:
		return e.Op == ast.Deref
	case *ast.MemberAccessExpr:
		return c.isLValue(e.BaseExpr)
	}
	return false
}
