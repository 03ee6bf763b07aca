package passes

import (
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/nir"
)

// UnusedVars classifies every alloca in a function by how its address is
// used: never touched at all, written but never read, or read. The first
// two produce warnings; a trailing note summarizes the function.
//
// Any reference that is not a store address counts as a read-like use —
// including passing the address to a call or another instruction — so
// taking a variable's address silences the write-only warning even when
// nothing ever loads through the pointer.
type UnusedVars struct{}

// Name implements Pass.
func (UnusedVars) Name() string { return "unused-vars" }

type allocaUsage struct {
	loaded     bool
	storeCount int
}

// Analyze implements FunctionAnalysis.
func (UnusedVars) Analyze(f *nir.Function, diags *diag.Collector) {
	var allocas []*nir.Alloca
	usage := map[*nir.Alloca]*allocaUsage{}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if a, ok := in.(*nir.Alloca); ok {
				allocas = append(allocas, a)
				usage[a] = &allocaUsage{}
			}
		}
	}
	if len(allocas) == 0 {
		return
	}

	note := func(v nir.Value, f func(u *allocaUsage)) {
		if a, ok := v.(*nir.Alloca); ok {
			if u := usage[a]; u != nil {
				f(u)
			}
		}
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			switch in := in.(type) {
			case *nir.Load:
				note(in.Addr, func(u *allocaUsage) { u.loaded = true })
			case *nir.Store:
				note(in.Addr, func(u *allocaUsage) { u.storeCount++ })
				// An alloca appearing as the stored value is its address
				// escaping into another slot, which counts as a use.
				note(in.Val, func(u *allocaUsage) { u.loaded = true })
			default:
				for _, op := range in.Operands() {
					note(op, func(u *allocaUsage) { u.loaded = true })
				}
			}
		}
		if b.Term != nil {
			for _, op := range b.Term.Operands() {
				note(op, func(u *allocaUsage) { u.loaded = true })
			}
		}
	}

	var uninitialized, writeOnly int
	for _, a := range allocas {
		u := usage[a]
		switch {
		case u.loaded:
		case u.storeCount == 0:
			uninitialized++
			diags.Warningf(a.Rng, diag.UninitializedVar,
				"variable '%s' is never initialized or read", a.Hint)
		default:
			writeOnly++
			diags.Warningf(a.Rng, diag.WriteOnlyVar,
				"variable '%s' is written %d time(s) but never read", a.Hint, u.storeCount)
		}
	}
	diags.Notef(f.Rng, diag.VariableSummary,
		"function '%s': %d stack slots, %d never used, %d write-only",
		f.Name, len(allocas), uninitialized, writeOnly)
}
