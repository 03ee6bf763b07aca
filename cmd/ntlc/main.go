// ntlc is the NTL compiler front-end: it compiles one source file to C or
// runs it in the NIR interpreter.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"

	"github.com/harlanhaskins/ntl/ast"
	"github.com/harlanhaskins/ntl/interp"
	"github.com/harlanhaskins/ntl/pipeline"
)

var (
	outputFlag   = flag.String("output", "", "File to write the generated C to. Empty means stdout.")
	runFlag      = flag.Bool("run", false, "Interpret main() instead of emitting C.")
	stopAtFlag   = flag.String("stop-at", "", "Stop after the named stage: tokens, ast, typecheck, nir.")
	optimizeFlag = flag.Bool("optimize", false, "Run dead-code elimination before emission.")
	analyzeFlag  = flag.Bool("analyze", false, "Run analysis passes and report warnings.")
	verboseFlag  = flag.Bool("verbose", false, "Log per-phase progress.")
)

func stage() pipeline.Stage {
	switch *stopAtFlag {
	case "":
		return pipeline.C
	case "tokens":
		return pipeline.Tokens
	case "ast":
		return pipeline.AST
	case "typecheck":
		return pipeline.TypeChecked
	case "nir":
		return pipeline.NIR
	}
	must.Truef(false, "unknown -stop-at stage '%s'", *stopAtFlag)
	return pipeline.C
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	flag.Parse()
	must.True(len(flag.Args()) == 1, "usage: ntlc [flags] file.ntl")

	src, err := os.ReadFile(flag.Arg(0))
	must.Nilf(err, "read %s", flag.Arg(0))

	opts := pipeline.Options{
		Optimize:          *optimizeFlag,
		RunAnalysisPasses: *analyzeFlag,
		Verbose:           *verboseFlag,
	}

	if *runFlag {
		reg := interp.NewRegistry()
		interp.RegisterStdlib(reg, os.Stdout)
		v, err := pipeline.Interpret(string(src), "main", nil, reg)
		if err != nil {
			log.Error.Printf("%s: %v", flag.Arg(0), err)
			os.Exit(1)
		}
		if v.Kind() != interp.KVoid {
			fmt.Println(v)
		}
		return
	}

	res, err := pipeline.Run(string(src), stage(), opts)
	if res != nil {
		res.Diags.Render(os.Stderr, !color.NoColor)
	}
	if err != nil {
		log.Error.Printf("%s: %v", flag.Arg(0), err)
		os.Exit(1)
	}

	switch stage() {
	case pipeline.Tokens:
		for _, tok := range res.Tokens {
			fmt.Printf("%s: %s\n", tok.Range, tok)
		}
	case pipeline.AST, pipeline.TypeChecked:
		fmt.Print(ast.Print(res.Module))
	case pipeline.NIR:
		for _, f := range res.NIR.Funcs {
			fmt.Print(f.String())
		}
	case pipeline.C:
		if *outputFlag == "" {
			fmt.Print(res.C)
			return
		}
		must.Nilf(os.WriteFile(*outputFlag, []byte(res.C), 0644), "write %s", *outputFlag)
	}
}
