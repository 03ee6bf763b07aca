package interp

import (
	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/nir"
	"github.com/harlanhaskins/ntl/types"
)

// Interp executes functions of one NIR module. It is single-threaded and
// synchronous; a fresh execution context is created per function
// invocation, sharing only the function table and the builtin registry.
type Interp struct {
	mod      *nir.Module
	builtins *Registry
}

// New creates an interpreter over a module and a builtin registry. Passing
// a nil registry is allowed; every call then requires a NIR body.
func New(mod *nir.Module, builtins *Registry) *Interp {
	if builtins == nil {
		builtins = NewRegistry()
	}
	return &Interp{mod: mod, builtins: builtins}
}

// Run invokes the named function and converts failures to errors. The
// result must fit the public value surface: integers, bool, string, or
// void. Returning a pointer or a struct by value is a type mismatch.
func (ip *Interp) Run(entry string, args []Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				result, err = Value{}, e
				return
			}
			panic(r)
		}
	}()
	v := ip.call(entry, args)
	switch v.kind {
	case KVoid, KInt, KInt8, KInt32, KBool, KString:
		return v, nil
	default:
		return Value{}, Errorf(TypeMismatch,
			"function '%s' returned a %s, which cannot cross the public boundary", entry, v.kind)
	}
}

// call dispatches by name: NIR functions first, then builtins.
func (ip *Interp) call(name string, args []Value) Value {
	if fn := ip.mod.Lookup(name); fn != nil {
		return ip.exec(fn, args)
	}
	if builtin, ok := ip.builtins.lookup(name); ok {
		v, err := builtin(args)
		if err != nil {
			if e, ok := err.(*Error); ok {
				panic(e)
			}
			panic(Errorf(TypeMismatch, "builtin '%s': %v", name, err))
		}
		return v
	}
	panic(Errorf(UnknownFunction, "no function or builtin named '%s'", name))
}

// frame is one invocation's execution context.
type frame struct {
	ip  *Interp
	fn  *nir.Function
	env map[nir.Value]Value
}

// exec runs one function to its return.
func (ip *Interp) exec(fn *nir.Function, args []Value) Value {
	entry := fn.Entry()
	if len(args) != len(entry.Params) {
		panic(Errorf(InvalidArgumentCount,
			"function '%s' takes %d arguments, got %d", fn.Name, len(entry.Params), len(args)))
	}
	f := &frame{ip: ip, fn: fn, env: map[nir.Value]Value{}}

	block := entry
	incoming := args
	for {
		for i, p := range block.Params {
			f.env[p] = incoming[i]
		}
		for _, in := range block.Instrs {
			f.env[in] = f.instr(in)
		}
		switch t := block.Term.(type) {
		case *nir.Jump:
			incoming = f.evalAll(t.Args)
			block = t.Target
		case *nir.Branch:
			if f.eval(t.Cond).Bool() {
				incoming = f.evalAll(t.TrueArgs)
				block = t.True
			} else {
				incoming = f.evalAll(t.FalseArgs)
				block = t.False
			}
		case *nir.Return:
			if t.Value == nil {
				return Void()
			}
			return f.eval(t.Value)
		default:
			log.Panicf("interp: unhandled terminator %T in %s", t, fn.Name)
		}
	}
}

func (f *frame) evalAll(vals []nir.Value) []Value {
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = f.eval(v)
	}
	return out
}

// eval resolves an SSA value in the current frame.
func (f *frame) eval(v nir.Value) Value {
	switch v := v.(type) {
	case *nir.Constant:
		return constValue(v)
	case *nir.Undef:
		return defaultValue(v.Type())
	default:
		val, ok := f.env[v]
		if !ok {
			log.Panicf("interp: %s evaluated before definition in %s", v.Ref(), f.fn.Name)
		}
		return val
	}
}

func constValue(c *nir.Constant) Value {
	t := c.Type()
	switch {
	case t == types.Bool:
		return Bool(c.Bool)
	case t == types.Void:
		return Void()
	case t == types.Int:
		return Int(c.Int)
	case t == types.Int8:
		return Int8(int8(c.Int))
	case t == types.Int32:
		return Int32(int32(c.Int))
	default:
		return String(c.Str)
	}
}

func (f *frame) instr(in nir.Instr) Value {
	switch in := in.(type) {
	case *nir.BinaryOp:
		return f.binary(in)
	case *nir.UnaryOp:
		x := f.eval(in.X)
		if in.Op == nir.LogNot {
			return Bool(!x.Bool())
		}
		return truncate(x.kind, -x.Int64())
	case *nir.Alloca:
		c := &cell{value: defaultValue(in.Elem)}
		return Value{kind: KPointer, addr: Address{cell: c}}
	case *nir.Load:
		return f.pointer(in.Addr).load()
	case *nir.Store:
		v := f.eval(in.Val)
		f.pointer(in.Addr).store(v)
		return Void()
	case *nir.Cast:
		return cast(f.eval(in.X), in.Target)
	case *nir.FieldExtract:
		base := f.eval(in.Base)
		if base.kind != KStruct {
			panic(Errorf(TypeMismatch, "field extract from %s value", base.kind))
		}
		fv, ok := base.st.vals[in.Field]
		if !ok {
			panic(Errorf(TypeMismatch, "no field '%s'", in.Field.Str()))
		}
		return fv
	case *nir.FieldAddress:
		return Value{kind: KPointer, addr: f.pointer(in.Base).field(in.Path)}
	case *nir.Call:
		return f.ip.call(in.Callee, f.evalAll(in.Args))
	default:
		log.Panicf("interp: unhandled instruction %T", in)
		return Value{}
	}
}

// pointer evaluates an operand that must be an address.
func (f *frame) pointer(v nir.Value) Address {
	pv := f.eval(v)
	if pv.kind != KPointer {
		panic(Errorf(InvalidPointer, "expected a pointer, found %s", pv.kind))
	}
	return pv.addr
}

func (f *frame) binary(in *nir.BinaryOp) Value {
	l := f.eval(in.L)
	r := f.eval(in.R)
	switch in.Op {
	case nir.LogAnd:
		return Bool(l.Bool() && r.Bool())
	case nir.LogOr:
		return Bool(l.Bool() || r.Bool())
	case nir.IntEq:
		return Bool(equalValues(l, r))
	case nir.IntNe:
		return Bool(!equalValues(l, r))
	case nir.IntLt:
		return Bool(l.Int64() < r.Int64())
	case nir.IntLe:
		return Bool(l.Int64() <= r.Int64())
	case nir.IntGt:
		return Bool(l.Int64() > r.Int64())
	case nir.IntGe:
		return Bool(l.Int64() >= r.Int64())
	case nir.IntAdd:
		return truncate(l.kind, l.Int64()+r.Int64())
	case nir.IntSub:
		return truncate(l.kind, l.Int64()-r.Int64())
	case nir.IntMul:
		return truncate(l.kind, l.Int64()*r.Int64())
	case nir.IntDiv:
		if r.Int64() == 0 {
			panic(Errorf(DivideByZero, "integer division by zero"))
		}
		return truncate(l.kind, l.Int64()/r.Int64())
	case nir.IntRem:
		if r.Int64() == 0 {
			panic(Errorf(DivideByZero, "integer remainder by zero"))
		}
		return truncate(l.kind, l.Int64()%r.Int64())
	default:
		log.Panicf("interp: unhandled binary op %s", in.Op)
		return Value{}
	}
}

func equalValues(l, r Value) bool {
	switch l.kind {
	case KBool:
		return r.kind == KBool && l.b == r.b
	case KInt, KInt8, KInt32:
		return l.i == r.i
	case KString:
		return r.kind == KString && l.s == r.s
	default:
		panic(Errorf(TypeMismatch, "cannot compare %s values", l.kind))
	}
}

// truncate wraps an integer result to the width of its kind.
func truncate(k Kind, v int64) Value {
	switch k {
	case KInt8:
		return Int8(int8(v))
	case KInt32:
		return Int32(int32(v))
	default:
		return Int(v)
	}
}

// cast converts between primitive representations: integer width changes
// truncate, booleans pass through, and string values may adopt the *Int8
// pointer type. Any other conversion is a type-mismatch error.
func cast(v Value, target types.Type) Value {
	integer := v.kind == KInt || v.kind == KInt8 || v.kind == KInt32
	switch {
	case target == types.Int && integer:
		return Int(v.Int64())
	case target == types.Int8 && integer:
		return Int8(int8(v.Int64()))
	case target == types.Int32 && integer:
		return Int32(int32(v.Int64()))
	case target == types.Bool && v.kind == KBool:
		return v
	}
	if pt, ok := target.(*types.Pointer); ok && pt.Elem == types.Int8 && v.kind == KString {
		return v
	}
	panic(Errorf(TypeMismatch, "cannot cast %s value to %s", v.kind, target))
}
