// Package pipeline sequences the compiler phases: lex, parse, typecheck,
// lower, passes, and finally C emission or interpretation. Phases are
// strictly ordered; an error in one phase blocks the next. The lexer and
// parser stop at their first error; type checking and lowering keep going
// and report every error they find. The pipeline owns every intermediate
// artifact, so independent inputs can compile on independent goroutines.
package pipeline

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/cemit"
	"github.com/harlanhaskins/ntl/check"
	"github.com/harlanhaskins/ntl/diag"
	"github.com/harlanhaskins/ntl/interp"
	"github.com/harlanhaskins/ntl/lexer"
	"github.com/harlanhaskins/ntl/lower"
	"github.com/harlanhaskins/ntl/nir"
	"github.com/harlanhaskins/ntl/parser"
	"github.com/harlanhaskins/ntl/passes"
	"github.com/harlanhaskins/ntl/source"
)

// Stage names how far Run should take a source buffer.
type Stage int

const (
	// Tokens stops after lexing.
	Tokens Stage = iota
	// AST stops after parsing.
	AST
	// TypeChecked stops after semantic analysis.
	TypeChecked
	// NIR stops after lowering and passes.
	NIR
	// C runs the whole way to a translation unit.
	C
)

// Options tune a run. Verbose only changes log output, never behavior.
type Options struct {
	// Optimize runs dead-code elimination over the lowered functions.
	Optimize bool
	// RunAnalysisPasses runs the diagnostic analyses (unused variables)
	// and validates the NIR after every transform.
	RunAnalysisPasses bool
	// Verbose logs per-phase progress at the default (info) level.
	Verbose bool
}

// Result carries the products of every phase that ran. Later fields are
// zero when Run stopped early or a phase blocked.
type Result struct {
	Diags  *diag.Collector
	Tokens []lexer.Token
	Module *ast.Module
	Info   *check.Info
	NIR    *nir.Module
	C      string
}

// Run compiles one source buffer through the requested stage. The returned
// Result always carries the diagnostics collector; err is non-nil when a
// phase blocked progression.
func Run(src string, stopAt Stage, opts Options) (*Result, error) {
	res := &Result{Diags: diag.NewCollector()}
	smap := source.NewMap(src)

	if opts.Verbose {
		log.Printf("pipeline: lexing %d bytes", len(src))
	}
	toks, err := lexer.New(smap).Tokenize()
	res.Tokens = toks
	if err != nil {
		return res, err
	}
	if stopAt == Tokens {
		return res, nil
	}

	if opts.Verbose {
		log.Printf("pipeline: parsing %d tokens", len(toks))
	}
	m, err := parser.New(toks).Parse()
	if err != nil {
		return res, err
	}
	res.Module = m
	if stopAt == AST {
		return res, nil
	}

	if opts.Verbose {
		log.Printf("pipeline: type checking %d declarations", len(m.Decls))
	}
	res.Info = check.Check(m, res.Diags)
	if res.Diags.HasErrors() {
		return res, blockingError("type checking", res.Diags)
	}
	if stopAt == TypeChecked {
		return res, nil
	}

	if opts.Verbose {
		log.Printf("pipeline: lowering to NIR")
	}
	mod := lower.Lower(m, res.Info, res.Diags)
	res.NIR = mod
	if res.Diags.HasErrors() {
		return res, blockingError("lowering", res.Diags)
	}

	mgr := passes.NewManager()
	if opts.RunAnalysisPasses {
		mgr.Add(passes.UnusedVars{})
	}
	if opts.Optimize {
		mgr.Add(passes.DCE{})
	}
	mgr.Run(mod, res.Diags)
	if opts.RunAnalysisPasses {
		if err := nir.ValidateModule(mod); err != nil {
			return res, err
		}
	}
	if stopAt == NIR {
		return res, nil
	}

	if opts.Verbose {
		log.Printf("pipeline: emitting C for %d functions", len(mod.Funcs))
	}
	res.C = cemit.Emit(mod, res.Info)
	return res, nil
}

// blockingError summarizes why a phase blocked: the first error diagnostic
// stands for the batch.
func blockingError(phase string, diags *diag.Collector) error {
	for _, d := range diags.Diagnostics() {
		if d.Severity == diag.Error {
			return errors.E(fmt.Sprintf("%s failed: %s", phase, d))
		}
	}
	return errors.E(fmt.Sprintf("%s failed", phase))
}

// RunAll compiles independent source buffers on parallel workers. Results
// are positional; the first blocking error aborts the batch.
func RunAll(srcs []string, stopAt Stage, opts Options) ([]*Result, error) {
	results := make([]*Result, len(srcs))
	err := traverse.Each(len(srcs), func(i int) error {
		r, err := Run(srcs[i], stopAt, opts)
		results[i] = r
		return err
	})
	return results, err
}

// Interpret compiles the source and executes the entry function over the
// NIR. The registry provides host builtins for extern declarations; nil is
// allowed when the program declares none.
func Interpret(src, entry string, args []interp.Value, builtins *interp.Registry) (interp.Value, error) {
	res, err := Run(src, NIR, Options{})
	if err != nil {
		return interp.Value{}, err
	}
	if entry == "" {
		entry = "main"
	}
	return interp.New(res.NIR, builtins).Run(entry, args)
}

// Recover runs cb, converting any panic into an error. Internal invariant
// violations in the compiler surface as log.Panicf; hosts that prefer an
// error wrap the pipeline call with Recover.
func Recover(cb func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.E(fmt.Sprintf("panic: %v", e))
		}
	}()
	cb()
	return nil
}
