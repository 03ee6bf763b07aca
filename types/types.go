// Package types defines the NTL type system. Types are immutable once
// constructed; the checker and the NIR builder share them freely across
// goroutine-independent compilations.
//
// Equality is structural by type identifier: by variant for primitives, by
// pointee for pointers, by name for structs (nominal), and by full signature
// for functions.
package types

import (
	"strings"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/hash"
	"github.com/harlanhaskins/ntl/symbol"
)

// Type is the interface satisfied by every NTL type.
type Type interface {
	// String returns the NTL spelling of the type.
	String() string
	// Hash returns a structural hash. Types that are Equal have equal
	// hashes; the converse holds up to murmur3 collision odds, except for
	// Unknown, which hashes like itself but equals nothing.
	Hash() hash.Hash
}

// Basic is a primitive type. The package-level singletons below are the only
// instances, so Basic values compare with ==.
type Basic struct {
	name string
	// width is the integer width in bits, or 0 for non-integer primitives.
	width int
}

var (
	// Int is the 64-bit signed default integer type.
	Int = &Basic{name: "Int", width: 64}
	// Int8 is an 8-bit signed integer. String literals point at it.
	Int8 = &Basic{name: "Int8", width: 8}
	// Int32 is a 32-bit signed integer.
	Int32 = &Basic{name: "Int32", width: 32}
	// Bool is the boolean type.
	Bool = &Basic{name: "Bool"}
	// Void is the unit type of functions with no return value.
	Void = &Basic{name: "Void"}
	// Unknown is the error sink. It compares unequal to everything,
	// including itself, so one bad expression does not cascade mismatches.
	Unknown = &Basic{name: "<<error>>"}
	// CVarArgs marks the variadic tail of an extern signature. Any value
	// matches a CVarArgs slot.
	CVarArgs = &Basic{name: "..."}
)

func (b *Basic) String() string  { return b.name }
func (b *Basic) Hash() hash.Hash { return hash.String("basic:" + b.name) }

// Width returns the bit width of an integer primitive, 0 otherwise.
func (b *Basic) Width() int { return b.width }

// Pointer is a typed pointer.
type Pointer struct {
	Elem Type
}

// NewPointer returns the pointer type *elem.
func NewPointer(elem Type) *Pointer { return &Pointer{Elem: elem} }

func (p *Pointer) String() string  { return "*" + p.Elem.String() }
func (p *Pointer) Hash() hash.Hash { return hash.String("ptr").Merge(p.Elem.Hash()) }

// Field is a named struct field.
type Field struct {
	Name symbol.ID
	Type Type
}

// Method is a named struct method. Type's first parameter is the implicit
// receiver.
type Method struct {
	Name symbol.ID
	Type *Func
}

// Struct is a nominal record type with ordered fields and methods.
type Struct struct {
	Name    symbol.ID
	Fields  []Field
	Methods []Method
}

// NewStruct returns an empty struct type with the given name. Fields and
// methods are attached by the checker's first pass.
func NewStruct(name symbol.ID) *Struct { return &Struct{Name: name} }

func (s *Struct) String() string { return s.Name.Str() }

func (s *Struct) Hash() hash.Hash {
	// Nominal identity: the name alone determines equality.
	return hash.String("struct").Merge(s.Name.Hash())
}

// FieldIndex returns the position of the named field, or -1.
func (s *Struct) FieldIndex(name symbol.ID) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field returns the named field's type, or nil.
func (s *Struct) Field(name symbol.ID) Type {
	if i := s.FieldIndex(name); i >= 0 {
		return s.Fields[i].Type
	}
	return nil
}

// Method returns the named method's type, or nil.
func (s *Struct) Method(name symbol.ID) *Func {
	for _, m := range s.Methods {
		if m.Name == name {
			return m.Type
		}
	}
	return nil
}

// Func is a function signature. Labels runs parallel to Params;
// symbol.Invalid marks a parameter with no external label.
type Func struct {
	Params   []Type
	Labels   []symbol.ID
	Return   Type
	Variadic bool
}

// NewFunc builds a function signature.
//
// REQUIRES: len(params) == len(labels).
func NewFunc(params []Type, labels []symbol.ID, ret Type, variadic bool) *Func {
	if len(params) != len(labels) {
		log.Panicf("types: %d params, %d labels", len(params), len(labels))
	}
	return &Func{Params: params, Labels: labels, Return: ret, Variadic: variadic}
}

func (f *Func) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	if f.Variadic {
		if len(f.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(") -> ")
	sb.WriteString(f.Return.String())
	return sb.String()
}

func (f *Func) Hash() hash.Hash {
	h := hash.String("func")
	for _, p := range f.Params {
		h = h.Merge(p.Hash())
	}
	h = h.Merge(f.Return.Hash())
	h = h.Merge(hash.Bool(f.Variadic))
	return h
}

// DropReceiver returns the signature with the implicit self parameter (and
// its label) removed. It is what a bound method reference types as.
func (f *Func) DropReceiver() *Func {
	if len(f.Params) == 0 {
		log.Panicf("types: DropReceiver on nullary signature %s", f)
	}
	return &Func{
		Params:   f.Params[1:],
		Labels:   f.Labels[1:],
		Return:   f.Return,
		Variadic: f.Variadic,
	}
}

// Equal reports structural equality. Unknown equals nothing, itself
// included.
func Equal(a, b Type) bool {
	if a == Unknown || b == Unknown || a == nil || b == nil {
		return false
	}
	switch at := a.(type) {
	case *Basic:
		return a == b
	case *Pointer:
		bt, ok := b.(*Pointer)
		return ok && Equal(at.Elem, bt.Elem)
	case *Struct:
		bt, ok := b.(*Struct)
		return ok && at.Name == bt.Name
	case *Func:
		bt, ok := b.(*Func)
		if !ok || len(at.Params) != len(bt.Params) || at.Variadic != bt.Variadic {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return Equal(at.Return, bt.Return)
	}
	log.Panicf("types: unhandled type %T", a)
	return false
}

// IsInteger reports whether t is one of the integer primitives.
func IsInteger(t Type) bool {
	return t == Int || t == Int8 || t == Int32
}

// IsCastTarget reports whether t may be named as a cast constructor T(x).
func IsCastTarget(t Type) bool {
	return IsInteger(t) || t == Bool
}

// IsVoid reports whether t is Void.
func IsVoid(t Type) bool { return t == Void }
