package nir

import (
	"fmt"

	"github.com/grailbio/base/errors"

	"github.com/harlanhaskins/ntl/types"
)

// Validate checks the function's structural invariants: every block sealed
// by exactly one terminator, terminator argument arity and types matching
// the target's parameters, every load result agreeing with its address's
// pointee, and every instruction result produced exactly once. It returns
// the first violation found, or nil.
func Validate(f *Function) error {
	if len(f.Blocks) == 0 {
		return errors.E(fmt.Sprintf("%s: function has no blocks", f.Name))
	}
	seen := map[Instr]bool{}
	for _, b := range f.Blocks {
		if b.Term == nil {
			return errors.E(fmt.Sprintf("%s.%s: block has no terminator", f.Name, b.Name))
		}
		for _, in := range b.Instrs {
			if seen[in] {
				return errors.E(fmt.Sprintf("%s.%s: %s produced more than once", f.Name, b.Name, in.Ref()))
			}
			seen[in] = true
			if ld, ok := in.(*Load); ok {
				pt, ok := ld.Addr.Type().(*types.Pointer)
				if !ok {
					return errors.E(fmt.Sprintf("%s.%s: %s loads through non-pointer %s",
						f.Name, b.Name, ld.Ref(), ld.Addr.Type()))
				}
				if !types.Equal(ld.Type(), pt.Elem) && known(ld.Type()) && known(pt.Elem) {
					return errors.E(fmt.Sprintf("%s.%s: %s has type %s but address points at %s",
						f.Name, b.Name, ld.Ref(), ld.Type(), pt.Elem))
				}
			}
		}
		if err := checkTermArgs(f, b); err != nil {
			return err
		}
	}
	return nil
}

func known(t types.Type) bool { return t != nil && t != types.Unknown }

func checkTermArgs(f *Function, b *Block) error {
	check := func(target *Block, args []Value) error {
		if len(args) != len(target.Params) {
			return errors.E(fmt.Sprintf("%s.%s: %d args for %s which has %d params",
				f.Name, b.Name, len(args), target.Name, len(target.Params)))
		}
		for i, a := range args {
			pt := target.Params[i].Type()
			if known(a.Type()) && known(pt) && !types.Equal(a.Type(), pt) {
				return errors.E(fmt.Sprintf("%s.%s: arg %d has type %s, %s.%d expects %s",
					f.Name, b.Name, i, a.Type(), target.Name, i, pt))
			}
		}
		return nil
	}
	switch t := b.Term.(type) {
	case *Jump:
		return check(t.Target, t.Args)
	case *Branch:
		if known(t.Cond.Type()) && t.Cond.Type() != types.Bool {
			return errors.E(fmt.Sprintf("%s.%s: branch condition has type %s", f.Name, b.Name, t.Cond.Type()))
		}
		if err := check(t.True, t.TrueArgs); err != nil {
			return err
		}
		return check(t.False, t.FalseArgs)
	case *Return:
		if t.Value != nil && known(t.Value.Type()) && known(f.Return) &&
			!types.Equal(t.Value.Type(), f.Return) {
			return errors.E(fmt.Sprintf("%s.%s: returning %s from function returning %s",
				f.Name, b.Name, t.Value.Type(), f.Return))
		}
		return nil
	}
	return nil
}

// ValidateModule validates every function, returning the first failure.
func ValidateModule(m *Module) error {
	for _, f := range m.Funcs {
		if err := Validate(f); err != nil {
			return err
		}
	}
	return nil
}
