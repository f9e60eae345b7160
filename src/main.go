package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minicc/src/backend"
	"minicc/src/frontend"
	"minicc/src/ir"
	"minicc/src/ir/lir"
	"minicc/src/ir/llvm"
	"minicc/src/ir/opt"
	"minicc/src/util"
)

func main() {
	os.Exit(run())
}

// run drives the pipeline: parse, semantic analysis, IR generation, optimisation and code
// generation. Each stage reports a Result line, except the LLVM back end selected by -ll; the
// driver halts at the first failing stage and maps it to its exit code.
func run() int {
	// Parse command line arguments.
	options, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		return util.ExitUsage
	}

	// Read source code.
	src, err := util.ReadSource(options)
	if err != nil {
		fmt.Printf("Could not read source code: %s\n", err)
		return util.ExitParse
	}

	// If -ts flag was passed: output token stream and exit.
	if options.TokenStream {
		s, err := frontend.TokenStream(src)
		fmt.Print(s)
		if err != nil {
			fmt.Printf("Syntax error: %s\n", err)
			return util.ExitParse
		}
		return util.ExitOK
	}

	// A textual IR input skips the frontend: only the optimiser and back end run over it.
	if strings.HasSuffix(options.Src, ".ll") {
		m, err := lir.ParseModule(src)
		if err != nil {
			fmt.Printf("IR parse error: %s\n", err)
			fmt.Println("Result: IR parsing unsuccessful.")
			return util.ExitParse
		}
		fmt.Println("Result: IR parsing successful.")
		return middleAndBackEnd(options, m)
	}

	// Generate syntax tree by lexing and parsing source code.
	root, err := frontend.Parse(src)
	if err != nil {
		fmt.Println(err)
		fmt.Println("Result: Syntax analysis unsuccessful.")
		return util.ExitParse
	}
	fmt.Println("Result: Syntax analysis successful.")
	if options.Verbose {
		root.Print(0)
	}

	// Perform semantic analysis: every use of a variable must be covered by a declaration.
	ok, diags := ir.Analyse(root)
	if !ok {
		for _, e1 := range diags.Errors() {
			fmt.Println(e1)
		}
		fmt.Println("Result: Semantic analysis unsuccessful.")
		return util.ExitSemantic
	}
	fmt.Println("Result: Semantic analysis successful.")

	// The -ll flag delegates optimisation and code generation to LLVM.
	if options.LLVM {
		if err := llvm.GenLLVM(options, root); err != nil {
			fmt.Printf("Error reported by LLVM: %s\n", err)
			return util.ExitBackend
		}
		return util.ExitOK
	}

	// Generate IR.
	m := ir.Build(root, options.Src)
	if err := lir.Validate(m); err != nil {
		fmt.Printf("IR generation error: %s\n", err)
		fmt.Println("Result: IR generation unsuccessful.")
		return util.ExitBackend
	}
	fmt.Println("Result: IR generation successful.")
	if options.EmitIR {
		path := pathWithSuffix(options.Src, "_manual.ll")
		if err := util.WriteFile(path, m.String()); err != nil {
			fmt.Printf("Could not write %s: %s\n", path, err)
			return util.ExitBackend
		}
	}

	return middleAndBackEnd(options, m)
}

// middleAndBackEnd optimises Module m and lowers it to assembler.
func middleAndBackEnd(options util.Options, m *lir.Module) int {
	if !options.NoOptimise {
		opt.Optimise(m)
		if err := lir.Validate(m); err != nil {
			fmt.Printf("Optimiser error: %s\n", err)
			fmt.Println("Result: Optimisation unsuccessful.")
			return util.ExitBackend
		}
		fmt.Println("Result: Optimisation successful.")
		if options.EmitIR {
			path := pathWithSuffix(options.Src, "_opt.ll")
			if err := util.WriteFile(path, m.String()); err != nil {
				fmt.Printf("Could not write %s: %s\n", path, err)
				return util.ExitBackend
			}
		}
	}
	if options.Verbose {
		fmt.Print(m.String())
	}

	// Generate assembler.
	out := options.Out
	if len(out) == 0 {
		out = pathWithSuffix(options.Src, ".s")
	}
	asm, err := backend.GenerateAssembler(options, m)
	if err != nil {
		fmt.Printf("Code generation error: %s\n", err)
		fmt.Println("Result: Code generation unsuccessful.")
		// A partial output of the failing stage is invalid; remove it.
		_ = os.Remove(out)
		return util.ExitBackend
	}
	if err := util.WriteFile(out, asm); err != nil {
		fmt.Printf("Could not write %s: %s\n", out, err)
		_ = os.Remove(out)
		return util.ExitBackend
	}
	fmt.Println("Result: Code generation successful.")
	return util.ExitOK
}

// pathWithSuffix swaps the extension of path for the given suffix, keeping its directory.
func pathWithSuffix(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}
