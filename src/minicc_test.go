package main

import (
	"strings"
	"testing"

	"minicc/src/backend"
	"minicc/src/frontend"
	"minicc/src/ir"
	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
	"minicc/src/ir/opt"
	"minicc/src/util"
)

// -----------------------------
// ----- Type definitions ------
// -----------------------------

// scenario defines an end-to-end source program under an informative name; the tests that use
// it check the properties its compiled forms must show.
type scenario struct {
	name string // Informative name of scenario.
	src  string // The MiniC source as a string.
}

// ----------------------
// ----- Functions ------
// ----------------------

// helperPipeline runs the frontend, semantic analysis, IR generation and optimisation, and
// returns both the optimised module and the generated assembler.
func helperPipeline(t *testing.T, src string) (*lir.Module, string) {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	if ok, diags := ir.Analyse(root); !ok {
		t.Fatalf("semantic analysis failed: %v", diags.Errors())
	}
	m := ir.Build(root, "scenario.c")
	if err := lir.Validate(m); err != nil {
		t.Fatalf("IR not well formed after generation: %s", err)
	}
	opt.Optimise(m)
	if err := lir.Validate(m); err != nil {
		t.Fatalf("IR not well formed after optimisation: %s", err)
	}
	asm, err := backend.GenerateAssembler(util.Options{TargetArch: util.X86_32}, m)
	if err != nil {
		t.Fatalf("code generation failed: %s", err)
	}
	return m, asm
}

// helperCount counts the instructions of Module m with opcode op.
func helperCount(m *lir.Module, op types.Opcode) int {
	n := 0
	for _, f := range m.Functions() {
		for _, b := range f.Blocks() {
			for _, inst := range b.Instructions() {
				if inst.Opcode() == op {
					n++
				}
			}
		}
	}
	return n
}

// scenarios holds the end-to-end programs exercised by the pipeline tests.
var scenarios = []scenario{
	{
		name: "add-and-print",
		src: "extern void print(int);\nextern int read();\n" +
			"int f(int x){ int a; a = x + 10; print(a); return a; }\n",
	},
	{
		name: "cse-collapse",
		src: "extern void print(int);\nextern int read();\n" +
			"int f(int x){ int a; a = x*10; int b; b = x*10; return a+b; }\n",
	},
	{
		name: "fold-propagate",
		src: "extern void print(int);\nextern int read();\n" +
			"int f(int x){ int a; a = 2+3; return a; }\n",
	},
	{
		name: "if-else",
		src: "extern void print(int);\nextern int read();\n" +
			"int f(int x){ int a; if (x > 0) { a = 1; } else { a = 2; } return a; }\n",
	},
	{
		name: "while-sum",
		src: "extern void print(int);\nextern int read();\n" +
			"int f(int x){ int i; int s; i = 0; s = 0; while (i < x) { s = s + i; i = i + 1; } return s; }\n",
	},
	{
		name: "read-print",
		src: "extern void print(int);\nextern int read();\n" +
			"int f(int x){ int v; v = read(); print(v); return v; }\n",
	},
}

// TestScenariosCompile verifies every end-to-end program flows through the entire pipeline
// into assembler with a well formed shape.
func TestScenariosCompile(t *testing.T) {
	for _, e1 := range scenarios {
		t.Run(e1.name, func(t *testing.T) {
			_, asm := helperPipeline(t, e1.src)
			for _, want := range []string{"\t.globl\tf", "f:", "\tleave", "\tret"} {
				if !strings.Contains(asm, want) {
					t.Errorf("assembler lacks %q:\n%s", want, asm)
				}
			}
		})
	}
}

// TestScenarioCSE verifies the cse-collapse scenario shares one multiplication.
func TestScenarioCSE(t *testing.T) {
	m, _ := helperPipeline(t, scenarios[1].src)
	if n := helperCount(m, types.Mul); n != 1 {
		t.Errorf("expected one mul after CSE, got %d", n)
	}
}

// TestScenarioFolding verifies the fold-propagate scenario returns the literal five.
func TestScenarioFolding(t *testing.T) {
	m, asm := helperPipeline(t, scenarios[2].src)
	if n := helperCount(m, types.Add); n != 0 {
		t.Errorf("expected the add to fold away, got %d", n)
	}
	if !strings.Contains(asm, "\tmovl\t$5, %eax") {
		t.Errorf("folded return value not materialised:\n%s", asm)
	}
}

// TestScenarioReadPrint verifies both external calls survive into the assembler.
func TestScenarioReadPrint(t *testing.T) {
	_, asm := helperPipeline(t, scenarios[5].src)
	if !strings.Contains(asm, "\tcall\tread@PLT") {
		t.Errorf("read call missing:\n%s", asm)
	}
	if !strings.Contains(asm, "\tcall\tprint@PLT") {
		t.Errorf("print call missing:\n%s", asm)
	}
}

// TestStageSeparation verifies the textual IR written by the frontend stage feeds the
// optimiser and back end unchanged in meaning: the module is re-parsed from its printed form
// before optimisation and code generation.
func TestStageSeparation(t *testing.T) {
	src := scenarios[4].src
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	if ok, _ := ir.Analyse(root); !ok {
		t.Fatal("semantic analysis failed")
	}
	m1 := ir.Build(root, "scenario.c")

	// Serialize and reload, as the standalone optimiser stage would.
	m2, err := lir.ParseModule(m1.String())
	if err != nil {
		t.Fatalf("stage boundary parse failed: %s", err)
	}
	opt.Optimise(m2)
	if err := lir.Validate(m2); err != nil {
		t.Fatalf("optimised reloaded module not well formed: %s", err)
	}

	// Serialize and reload again, as the standalone code generator stage would.
	m3, err := lir.ParseModule(m2.String())
	if err != nil {
		t.Fatalf("second stage boundary parse failed: %s", err)
	}
	asm, err := backend.GenerateAssembler(util.Options{TargetArch: util.X86_32}, m3)
	if err != nil {
		t.Fatalf("code generation failed: %s", err)
	}
	if !strings.Contains(asm, "\tjl\t.L") {
		t.Errorf("loop comparison lost across stage boundaries:\n%s", asm)
	}
}

// TestMutatedPredicatesDiffer verifies flipping a predicate changes the emitted code: the
// mutation shows up as a different conditional jump.
func TestMutatedPredicatesDiffer(t *testing.T) {
	base := "extern void print(int);\nextern int read();\n" +
		"int f(int x){ int a; if (x > 0) { a = 1; } else { a = 2; } return a; }\n"
	mutated := strings.Replace(base, "x > 0", "x < 0", 1)
	_, asm1 := helperPipeline(t, base)
	_, asm2 := helperPipeline(t, mutated)
	if asm1 == asm2 {
		t.Error("mutating the predicate produced identical assembler")
	}
	if !strings.Contains(asm1, "\tjg\t") || !strings.Contains(asm2, "\tjl\t") {
		t.Error("mutated predicates do not lower to their distinct jumps")
	}
}

// BenchmarkCompile benchmarks the full native pipeline over the scenario programs.
func BenchmarkCompile(b *testing.B) {
	for i1 := 0; i1 < b.N; i1++ {
		for _, e1 := range scenarios {
			root, err := frontend.Parse(e1.src)
			if err != nil {
				b.Fatal(err)
			}
			if ok, _ := ir.Analyse(root); !ok {
				b.Fatal("semantic analysis failed")
			}
			m := ir.Build(root, "bench.c")
			opt.Optimise(m)
			if _, err := backend.GenerateAssembler(util.Options{TargetArch: util.X86_32}, m); err != nil {
				b.Fatal(err)
			}
		}
	}
}
