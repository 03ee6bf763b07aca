// Package interp executes NIR directly. The interpreter walks one
// function's CFG at a time, with a value model mirroring the NTL type
// system and a field-path memory model for allocas.
package interp

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/symbol"
	"github.com/harlanhaskins/ntl/types"
)

// Kind discriminates runtime values.
type Kind uint8

const (
	// KVoid is the unit value.
	KVoid Kind = iota
	// KInt is a 64-bit integer.
	KInt
	// KInt8 is an 8-bit integer.
	KInt8
	// KInt32 is a 32-bit integer.
	KInt32
	// KBool is a boolean.
	KBool
	// KString is a C-string value; it is the runtime form of *Int8
	// literals.
	KString
	// KPointer is an address into interpreter memory.
	KPointer
	// KStruct is a struct value with ordered fields.
	KStruct
)

func (k Kind) String() string {
	switch k {
	case KVoid:
		return "void"
	case KInt:
		return "int"
	case KInt8:
		return "int8"
	case KInt32:
		return "int32"
	case KBool:
		return "bool"
	case KString:
		return "string"
	case KPointer:
		return "pointer"
	case KStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// Value is one runtime value. Values copy freely; struct values copy their
// field table on write, never alias it.
type Value struct {
	kind Kind
	i    int64
	b    bool
	s    string
	addr Address
	st   *structValue
}

// structValue is an ordered field map.
type structValue struct {
	names []symbol.ID
	vals  map[symbol.ID]Value
}

func (sv *structValue) clone() *structValue {
	n := &structValue{names: sv.names, vals: make(map[symbol.ID]Value, len(sv.vals))}
	for k, v := range sv.vals {
		n.vals[k] = v
	}
	return n
}

// Void is the unit value.
func Void() Value { return Value{kind: KVoid} }

// Int creates a 64-bit integer value.
func Int(v int64) Value { return Value{kind: KInt, i: v} }

// Int8 creates an 8-bit integer value.
func Int8(v int8) Value { return Value{kind: KInt8, i: int64(v)} }

// Int32 creates a 32-bit integer value.
func Int32(v int32) Value { return Value{kind: KInt32, i: int64(v)} }

// Bool creates a boolean value.
func Bool(v bool) Value { return Value{kind: KBool, b: v} }

// String creates a C-string value.
func String(s string) Value { return Value{kind: KString, s: s} }

// Kind returns the value's runtime kind.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer payload.
//
// REQUIRES: v is one of the integer kinds.
func (v Value) Int64() int64 {
	switch v.kind {
	case KInt, KInt8, KInt32:
		return v.i
	}
	log.Panicf("interp: Int64 on %s value", v.kind)
	return 0
}

// Bool returns the boolean payload.
//
// REQUIRES: v.Kind() == KBool.
func (v Value) Bool() bool {
	if v.kind != KBool {
		log.Panicf("interp: Bool on %s value", v.kind)
	}
	return v.b
}

// Str returns the string payload.
//
// REQUIRES: v.Kind() == KString.
func (v Value) Str() string {
	if v.kind != KString {
		log.Panicf("interp: Str on %s value", v.kind)
	}
	return v.s
}

// String renders the value for logs and builtin formatting.
func (v Value) String() string {
	switch v.kind {
	case KVoid:
		return "void"
	case KInt, KInt8, KInt32:
		return fmt.Sprintf("%d", v.i)
	case KBool:
		return fmt.Sprintf("%t", v.b)
	case KString:
		return v.s
	case KPointer:
		return "<pointer>"
	case KStruct:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, name := range v.st.names {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", name.Str(), v.st.vals[name])
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return "<invalid>"
	}
}

// cell is one allocation. Allocations live for the duration of the
// function invocation that created them.
type cell struct {
	value Value
}

// Address names a location: an allocation plus a field path into it.
type Address struct {
	cell *cell
	path []symbol.ID
}

// field returns the address extended by a field path.
func (a Address) field(path []symbol.ID) Address {
	if len(path) == 0 {
		return a
	}
	joined := make([]symbol.ID, 0, len(a.path)+len(path))
	joined = append(joined, a.path...)
	joined = append(joined, path...)
	return Address{cell: a.cell, path: joined}
}

// defaultValue builds the initial contents of an allocation: zero for
// integers, false for booleans, recursively defaulted structs, the empty
// string for *Int8 (modelling C string literals), and a void placeholder
// for other pointers, which invalidPointer-faults when dereferenced.
func defaultValue(t types.Type) Value {
	switch t := t.(type) {
	case *types.Basic:
		switch t {
		case types.Int:
			return Int(0)
		case types.Int8:
			return Int8(0)
		case types.Int32:
			return Int32(0)
		case types.Bool:
			return Bool(false)
		default:
			return Void()
		}
	case *types.Pointer:
		if t.Elem == types.Int8 {
			return String("")
		}
		return Void()
	case *types.Struct:
		sv := &structValue{vals: map[symbol.ID]Value{}}
		for _, f := range t.Fields {
			sv.names = append(sv.names, f.Name)
			sv.vals[f.Name] = defaultValue(f.Type)
		}
		return Value{kind: KStruct, st: sv}
	}
	return Void()
}

// load copies the value at an address, traversing the field path.
func (a Address) load() Value {
	if a.cell == nil {
		panic(&Error{Kind: InvalidPointer, Msg: "dereference of invalid pointer"})
	}
	v := a.cell.value
	for _, f := range a.path {
		if v.kind != KStruct {
			panic(&Error{Kind: InvalidPointer, Msg: fmt.Sprintf("field path through %s value", v.kind)})
		}
		fv, ok := v.st.vals[f]
		if !ok {
			panic(&Error{Kind: InvalidPointer, Msg: fmt.Sprintf("no field '%s'", f.Str())})
		}
		v = fv
	}
	return v
}

// store writes through an address. Struct-valued parents along the path
// are rebuilt so the update is visible to subsequent loads.
func (a Address) store(v Value) {
	if a.cell == nil {
		panic(&Error{Kind: InvalidPointer, Msg: "store through invalid pointer"})
	}
	a.cell.value = storePath(a.cell.value, a.path, v)
}

func storePath(parent Value, path []symbol.ID, v Value) Value {
	if len(path) == 0 {
		return v
	}
	if parent.kind != KStruct {
		panic(&Error{Kind: InvalidPointer, Msg: fmt.Sprintf("field path through %s value", parent.kind)})
	}
	field, ok := parent.st.vals[path[0]]
	if !ok {
		panic(&Error{Kind: InvalidPointer, Msg: fmt.Sprintf("no field '%s'", path[0].Str())})
	}
	updated := parent.st.clone()
	updated.vals[path[0]] = storePath(field, path[1:], v)
	return Value{kind: KStruct, st: updated}
}
