// Package cemit prints a NIR module as one C translation unit. The output
// order is fixed: standard headers, struct typedefs, extern prototypes,
// forward declarations, then one definition per function. Control flow uses
// labels and gotos; block parameters become locals assigned before each
// jump.
package cemit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/check"
	"github.com/harlanhaskins/ntl/nir"
	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// Emit renders the whole translation unit.
func Emit(mod *nir.Module, info *check.Info) string {
	e := &emitter{info: info}
	e.line("#include <stdbool.h>")
	e.line("#include <stdint.h>")
	e.line("")

	for _, st := range sortStructs(info.Structs) {
		e.structTypedef(st)
	}
	if len(info.Structs) > 0 {
		e.line("")
	}

	e.externs()
	e.forwardDecls(mod)

	for _, f := range mod.Funcs {
		e.line("")
		newFuncEmitter(e, f).emit()
	}
	return e.sb.String()
}

type emitter struct {
	info *check.Info
	sb   strings.Builder
}

func (e *emitter) line(format string, args ...interface{}) {
	fmt.Fprintf(&e.sb, format, args...)
	e.sb.WriteByte('\n')
}

// cType returns the C spelling of an NTL type.
func cType(t types.Type) string {
	switch t := t.(type) {
	case *types.Basic:
		switch t {
		case types.Int:
			return "int64_t"
		case types.Int8:
			return "char"
		case types.Int32:
			return "int32_t"
		case types.Bool:
			return "bool"
		case types.Void:
			return "void"
		}
	case *types.Pointer:
		return cType(t.Elem) + "*"
	case *types.Struct:
		return "struct " + t.Name.Str()
	}
	log.Panicf("cemit: no C type for %s", t)
	return ""
}

func (e *emitter) structTypedef(st *types.Struct) {
	var fields strings.Builder
	for _, f := range st.Fields {
		fmt.Fprintf(&fields, "%s %s; ", cType(f.Type), f.Name.Str())
	}
	e.line("typedef struct %s { %s} %s;", st.Name.Str(), fields.String(), st.Name.Str())
}

// externs prints prototypes for @extern functions, sorted by name so the
// output is deterministic regardless of map iteration.
func (e *emitter) externs() {
	var names []string
	for name := range e.info.Externs {
		names = append(names, name.Str())
	}
	sort.Strings(names)
	for _, name := range names {
		sig := e.info.Funcs[symbol.Intern(name)]
		e.line("extern %s %s(%s);", cType(sig.Return), name, protoParams(sig))
	}
	if len(names) > 0 {
		e.line("")
	}
}

func protoParams(sig *types.Func) string {
	var parts []string
	for _, p := range sig.Params {
		parts = append(parts, cType(p))
	}
	if sig.Variadic {
		parts = append(parts, "...")
	}
	if len(parts) == 0 {
		return "void"
	}
	return strings.Join(parts, ", ")
}

func (e *emitter) forwardDecls(mod *nir.Module) {
	for _, f := range mod.Funcs {
		e.line("%s;", newFuncEmitter(e, f).signature())
	}
}

// ----------------------------------------------------------------------------
// Function bodies
// ----------------------------------------------------------------------------

// funcEmitter prints one function. It owns the value-name table: entry
// parameters and allocas take their source names when possible, everything
// else falls back to the vN scheme from the NIR listing.
type funcEmitter struct {
	e     *emitter
	f     *nir.Function
	names map[nir.Value]string
	taken map[string]bool
}

func newFuncEmitter(e *emitter, f *nir.Function) *funcEmitter {
	fe := &funcEmitter{
		e: e, f: f,
		names: map[nir.Value]string{},
		taken: map[string]bool{},
	}
	for i, p := range f.Entry().Params {
		hint := p.Hint
		if hint == "" {
			hint = fmt.Sprintf("p%d", i)
		}
		fe.names[p] = fe.claim(hint)
	}
	for _, b := range f.Blocks {
		if b != f.Entry() {
			for _, p := range b.Params {
				fe.names[p] = fe.claim(fmt.Sprintf("%s_%d", b.Name, p.Index))
			}
		}
		for _, in := range b.Instrs {
			if a, ok := in.(*nir.Alloca); ok && a.Hint != "" {
				fe.names[in] = fe.claim(a.Hint)
				continue
			}
			fe.names[in] = fe.claim(strings.TrimPrefix(in.Ref(), "%"))
		}
	}
	return fe
}

// cReserved lists C keywords that NTL names and block labels must not
// shadow.
var cReserved = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true,
	"else": true, "enum": true, "extern": true, "float": true, "for": true,
	"goto": true, "if": true, "int": true, "long": true, "register": true,
	"return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "struct": true, "switch": true, "typedef": true,
	"union": true, "unsigned": true, "void": true, "volatile": true,
	"while": true, "bool": true, "true": true, "false": true,
}

// cLabel renders a block name as a C label, renaming keyword collisions.
func cLabel(name string) string {
	if cReserved[name] {
		return name + "_"
	}
	return name
}

// claim reserves a C identifier, appending a counter on collision.
func (fe *funcEmitter) claim(name string) string {
	if cReserved[name] {
		name += "_"
	}
	if !fe.taken[name] {
		fe.taken[name] = true
		return name
	}
	for i := 2; ; i++ {
		cand := fmt.Sprintf("%s%d", name, i)
		if !fe.taken[cand] {
			fe.taken[cand] = true
			return cand
		}
	}
}

// signature prints the function header. main keeps the C return type int.
func (fe *funcEmitter) signature() string {
	ret := cType(fe.f.Return)
	if fe.f.Name == "main" {
		ret = "int"
	}
	var params []string
	for _, p := range fe.f.Entry().Params {
		params = append(params, fmt.Sprintf("%s %s", cType(p.Type()), fe.names[p]))
	}
	if len(params) == 0 {
		return fmt.Sprintf("%s %s(void)", ret, fe.f.Name)
	}
	return fmt.Sprintf("%s %s(%s)", ret, fe.f.Name, strings.Join(params, ", "))
}

func (fe *funcEmitter) emit() {
	e := fe.e
	e.line("%s {", fe.signature())

	// Declarations first: every alloca as a local of its element type,
	// every non-void instruction result as a temporary, and every
	// non-entry block parameter.
	for _, b := range fe.f.Blocks {
		for _, in := range b.Instrs {
			switch in := in.(type) {
			case *nir.Alloca:
				e.line("    %s %s;", cType(in.Elem), fe.names[in])
			case *nir.Store:
			default:
				if !types.IsVoid(in.Type()) {
					e.line("    %s %s;", cType(in.Type()), fe.names[in])
				}
			}
		}
		if b != fe.f.Entry() {
			for _, p := range b.Params {
				e.line("    %s %s;", cType(p.Type()), fe.names[p])
			}
		}
	}

	for _, b := range fe.f.Blocks {
		if b != fe.f.Entry() {
			e.line("%s:;", cLabel(b.Name))
		}
		for _, in := range b.Instrs {
			fe.instr(in)
		}
		fe.term(b.Term)
	}
	e.line("}")
}

// ref prints a value as a C expression. An alloca's value is the address
// of its local.
func (fe *funcEmitter) ref(v nir.Value) string {
	switch v := v.(type) {
	case *nir.Constant:
		return constText(v)
	case *nir.Undef:
		return zeroText(v.Type())
	case *nir.Alloca:
		return "&" + fe.names[v]
	case *nir.BlockParam:
		return fe.names[v]
	case nir.Instr:
		return fe.names[v]
	}
	log.Panicf("cemit: unhandled value %T", v)
	return ""
}

func constText(c *nir.Constant) string {
	t := c.Type()
	switch {
	case t == types.Bool:
		return fmt.Sprintf("%t", c.Bool)
	case t == types.Void:
		return "0"
	case types.IsInteger(t):
		return fmt.Sprintf("%d", c.Int)
	default:
		return cQuote(c.Str)
	}
}

func cQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func zeroText(t types.Type) string {
	switch t := t.(type) {
	case *types.Basic:
		if t == types.Bool {
			return "false"
		}
		return "0"
	case *types.Struct:
		return fmt.Sprintf("(struct %s){0}", t.Name.Str())
	default:
		return "0"
	}
}

var cOps = map[nir.Op]string{
	nir.IntAdd: "+",
	nir.IntSub: "-",
	nir.IntMul: "*",
	nir.IntDiv: "/",
	nir.IntRem: "%%",
	nir.IntEq:  "==",
	nir.IntNe:  "!=",
	nir.IntLt:  "<",
	nir.IntLe:  "<=",
	nir.IntGt:  ">",
	nir.IntGe:  ">=",
	nir.LogAnd: "&&",
	nir.LogOr:  "||",
}

func (fe *funcEmitter) instr(in nir.Instr) {
	e := fe.e
	switch in := in.(type) {
	case *nir.Alloca:
		// Declared at the top; nothing happens at the instruction site.
	case *nir.BinaryOp:
		e.line("    %s = %s "+cOps[in.Op]+" %s;", fe.names[in], fe.ref(in.L), fe.ref(in.R))
	case *nir.UnaryOp:
		op := "-"
		if in.Op == nir.LogNot {
			op = "!"
		}
		e.line("    %s = %s%s;", fe.names[in], op, fe.ref(in.X))
	case *nir.Load:
		e.line("    %s = *%s;", fe.names[in], fe.ref(in.Addr))
	case *nir.Store:
		e.line("    *%s = %s;", fe.ref(in.Addr), fe.ref(in.Val))
	case *nir.Cast:
		e.line("    %s = (%s)%s;", fe.names[in], cType(in.Target), fe.ref(in.X))
	case *nir.FieldExtract:
		e.line("    %s = %s.%s;", fe.names[in], fe.ref(in.Base), in.Field.Str())
	case *nir.FieldAddress:
		e.line("    %s = &%s;", fe.names[in], fe.fieldPlace(in))
	case *nir.Call:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = fe.ref(a)
		}
		if types.IsVoid(in.Ret) {
			e.line("    %s(%s);", in.Callee, strings.Join(args, ", "))
		} else {
			e.line("    %s = %s(%s);", fe.names[in], in.Callee, strings.Join(args, ", "))
		}
	default:
		log.Panicf("cemit: unhandled instruction %T", in)
	}
}

// fieldPlace renders the lvalue a FieldAddress points at. An alloca base
// prints as the plain dotted local; any other base dereferences its
// pointer expression first.
func (fe *funcEmitter) fieldPlace(in *nir.FieldAddress) string {
	var sb strings.Builder
	if a, ok := in.Base.(*nir.Alloca); ok {
		sb.WriteString(fe.names[a])
	} else {
		sb.WriteString("(*" + fe.ref(in.Base) + ")")
	}
	for _, f := range in.Path {
		sb.WriteByte('.')
		sb.WriteString(f.Str())
	}
	return sb.String()
}

func (fe *funcEmitter) term(t nir.Terminator) {
	e := fe.e
	switch t := t.(type) {
	case *nir.Jump:
		fe.bindArgs(t.Target, t.Args, "    ")
		e.line("    goto %s;", cLabel(t.Target.Name))
	case *nir.Branch:
		e.line("    if (%s) {", fe.ref(t.Cond))
		fe.bindArgs(t.True, t.TrueArgs, "        ")
		e.line("        goto %s;", cLabel(t.True.Name))
		e.line("    } else {")
		fe.bindArgs(t.False, t.FalseArgs, "        ")
		e.line("        goto %s;", cLabel(t.False.Name))
		e.line("    }")
	case *nir.Return:
		if t.Value == nil {
			e.line("    return;")
		} else {
			e.line("    return %s;", fe.ref(t.Value))
		}
	default:
		log.Panicf("cemit: unhandled terminator %T", t)
	}
}

func (fe *funcEmitter) bindArgs(target *nir.Block, args []nir.Value, indent string) {
	for i, a := range args {
		fe.e.line("%s%s = %s;", indent, fe.names[target.Params[i]], fe.ref(a))
	}
}
