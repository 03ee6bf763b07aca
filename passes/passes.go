// Package passes transforms and analyses NIR. The manager is a plain list:
// passes run in registration order over each function, with no dependency
// tracking.
package passes

import (
	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/hash"
	"github.com/harlanhaskins/ntl/nir"
)

// Pass is the common surface of every pass kind.
type Pass interface {
	Name() string
}

// FunctionTransform rewrites one function in place and reports whether it
// changed anything.
type FunctionTransform interface {
	Pass
	Transform(f *nir.Function) bool
}

// FunctionAnalysis reads one function and may emit diagnostics.
type FunctionAnalysis interface {
	Pass
	Analyze(f *nir.Function, diags *diag.Collector)
}

// ModulePass operates on the whole function list at once.
type ModulePass interface {
	Pass
	RunModule(m *nir.Module, diags *diag.Collector)
}

// Manager runs a pass list over a module.
type Manager struct {
	passes []Pass
}

// NewManager creates an empty manager.
func NewManager() *Manager { return &Manager{} }

// Add appends a pass.
//
// REQUIRES: p implements FunctionTransform, FunctionAnalysis, or ModulePass.
func (mgr *Manager) Add(p Pass) {
	switch p.(type) {
	case FunctionTransform, FunctionAnalysis, ModulePass:
	default:
		log.Panicf("passes: %s implements no pass kind", p.Name())
	}
	mgr.passes = append(mgr.passes, p)
}

// Run executes every pass, in order, over every function. At debug
// verbosity a transform that claims "no change" is cross-checked against
// the function's fingerprint.
func (mgr *Manager) Run(m *nir.Module, diags *diag.Collector) {
	for _, p := range mgr.passes {
		switch p := p.(type) {
		case FunctionTransform:
			for _, f := range m.Funcs {
				debug := log.At(log.Debug)
				var before hash.Hash
				if debug {
					before = f.Fingerprint()
				}
				changed := p.Transform(f)
				if debug {
					after := f.Fingerprint()
					if !changed && before != after {
						log.Panicf("passes: %s changed %s but reported no change", p.Name(), f.Name)
					}
					log.Debug.Printf("pass %s on %s: changed=%t", p.Name(), f.Name, changed)
				}
			}
		case FunctionAnalysis:
			for _, f := range m.Funcs {
				p.Analyze(f, diags)
			}
		case ModulePass:
			p.RunModule(m, diags)
		}
	}
}
