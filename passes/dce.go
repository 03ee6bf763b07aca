package passes

import (
	"github.com/harlanhaskins/ntl/nir"
)

// DCE removes instructions whose results nothing reads. Stores have no
// result and calls are conservatively treated as side-effecting, so both
// always survive; control flow, terminators, and block parameters are never
// touched. The sweep iterates to a fixed point because removing one dead
// instruction can orphan its operands.
type DCE struct{}

// Name implements Pass.
func (DCE) Name() string { return "dce" }

// Transform implements FunctionTransform.
func (DCE) Transform(f *nir.Function) bool {
	changed := false
	for removeDead(f) {
		changed = true
	}
	return changed
}

func removeDead(f *nir.Function) bool {
	used := map[nir.Value]bool{}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			for _, op := range in.Operands() {
				used[op] = true
			}
		}
		if b.Term != nil {
			for _, op := range b.Term.Operands() {
				used[op] = true
			}
		}
	}

	removed := false
	for _, b := range f.Blocks {
		kept := b.Instrs[:0]
		for _, in := range b.Instrs {
			if removable(in) && !used[in] {
				removed = true
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	return removed
}

func removable(in nir.Instr) bool {
	switch in.(type) {
	case *nir.Store, *nir.Call:
		return false
	}
	return true
}
