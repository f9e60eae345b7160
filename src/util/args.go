package util

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/xyproto/env/v2"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the compiler configuration assembled from environment variables and command line arguments.
type Options struct {
	Src         string // Path to source file. Either a MiniC .c file or a textual IR .ll file.
	Out         string // Path to output file. Derived from Src when empty.
	Verbose     bool   // Set true if compiler should log statistical data to stdout.
	TokenStream bool   // Set true if compiler should output token stream and exit.
	EmitIR      bool   // Set true if compiler should write the textual IR before and after optimisation.
	NoOptimise  bool   // Set true if the optimiser should be skipped.
	LLVM        bool   // Set true if compiler should use the LLVM framework for code generation.
	TargetArch  int    // Output target architecture.
}

// ---------------------
// ----- Constants -----
// ---------------------

const appVersion = "miniC compiler 1.0"

// Target machine architectures.
const (
	UnknownArch = iota
	X86_32
	X86_64
	Aarch64
)

// Exit codes returned by the driver. Each pipeline stage maps its failure to one of these.
const (
	ExitOK       = 0 // Compilation succeeded.
	ExitUsage    = 1 // Command line argument error.
	ExitParse    = 2 // File open error or lexical/syntax error.
	ExitSemantic = 3 // Semantic analysis reported undeclared variables.
	ExitBackend  = 4 // IR generation or back end failure.
)

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments. Environment variables MINICC_ARCH, MINICC_OUT and
// MINICC_VERBOSE provide defaults that command line flags override.
func ParseArgs() (Options, error) {
	opt := Options{}

	// Environment defaults.
	if arch, err := parseArch(env.Str("MINICC_ARCH", "x86_32")); err == nil {
		opt.TargetArch = arch
	} else {
		return opt, err
	}
	opt.Out = env.Str("MINICC_OUT")
	opt.Verbose = env.Bool("MINICC_VERBOSE")

	if len(os.Args) < 2 {
		return opt, fmt.Errorf("usage: %s [flags] <input.c>", os.Args[0])
	}
	args := os.Args[1:]
	// Help and version need no source file, so they are honoured in the last position too.
	switch args[len(args)-1] {
	case "-h", "--h", "-help", "--help":
		printHelp()
		os.Exit(ExitOK)
	case "-v", "--v", "-version", "--version":
		fmt.Println(appVersion)
		os.Exit(ExitOK)
	}
	for i1 := 0; i1 < len(args)-1; i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			// Help and usage.
			printHelp()
			os.Exit(ExitOK)
		case "-ll":
			// Use LLVM IR and LLVM code generator.
			opt.LLVM = true
		case "-ir":
			// Emit textual IR before and after optimisation.
			opt.EmitIR = true
		case "-noopt":
			// Skip the optimiser.
			opt.NoOptimise = true
		case "-o":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected path to output file, got new flag %s", args[i1+1])
			}
			opt.Out = args[i1+1]
			i1++
		case "-arch":
			// Output architecture.
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected architecture identifier, got new flag %s", args[i1+1])
			}
			if arch, err := parseArch(args[i1+1]); err != nil {
				return opt, err
			} else {
				opt.TargetArch = arch
			}
			i1++
		case "-ts":
			// Output token stream.
			opt.TokenStream = true
		case "-v", "--v", "-version", "--version":
			// Application version.
			fmt.Println(appVersion)
			os.Exit(ExitOK)
		case "-vb":
			// Verbose mode.
			opt.Verbose = true
		default:
			return opt, fmt.Errorf("unexpected flag: %s", args[i1])
		}
	}
	opt.Src = args[len(args)-1]
	if strings.HasPrefix(opt.Src, "-") {
		return opt, fmt.Errorf("expected path to source file, got flag %s", opt.Src)
	}
	return opt, nil
}

// parseArch translates an architecture identifier into its Options constant.
func parseArch(s string) (int, error) {
	switch s {
	case "x86_32", "i386":
		return X86_32, nil
	case "x86_64":
		return X86_64, nil
	case "aarch64":
		return Aarch64, nil
	default:
		return UnknownArch, fmt.Errorf("unexpected architecture identifier: %s", s)
	}
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "--h, --help")
	_, _ = fmt.Fprintln(w, "-arch\tOutput architecture type. Only 'x86_32' is supported by the native back end.")
	_, _ = fmt.Fprintln(w, "-ir\tWrite the textual IR before and after optimisation next to the source file.")
	_, _ = fmt.Fprintln(w, "-ll\tUse LLVM to optimise and generate output code.")
	_, _ = fmt.Fprintln(w, "-noopt\tSkip the optimiser and lower the unoptimised IR.")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output file.")
	_, _ = fmt.Fprintln(w, "-ts\tOutput the tokens of the source code and exit.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(w, "--v, --version")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print compiler statistics to stdout.")
	_ = w.Flush()
}
