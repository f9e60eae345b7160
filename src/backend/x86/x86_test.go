package x86

import (
	"strings"
	"testing"

	"minicc/src/frontend"
	"minicc/src/ir"
	"minicc/src/ir/lir"
	"minicc/src/ir/opt"
	"minicc/src/util"
)

// helperCompile parses, lowers, optionally optimises and generates x86-32 assembler for a
// function body.
func helperCompile(t *testing.T, body string, optimise bool) string {
	t.Helper()
	src := "extern void print(int);\nextern int read();\nint f(int x) {\n" + body + "\n}\n"
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	if ok, diags := ir.Analyse(root); !ok {
		t.Fatalf("semantic analysis failed: %v", diags.Errors())
	}
	m := ir.Build(root, "test.c")
	if optimise {
		opt.Optimise(m)
	}
	if err := lir.Validate(m); err != nil {
		t.Fatalf("IR not well formed: %s", err)
	}
	asm, err := GenX86(util.Options{TargetArch: util.X86_32}, m)
	if err != nil {
		t.Fatalf("code generation failed: %s", err)
	}
	return asm
}

// TestGenDirectives verifies the assembler scaffold and function directives.
func TestGenDirectives(t *testing.T) {
	asm := helperCompile(t, "return x;", true)
	for _, want := range []string{
		"\t.file\t\"test.c\"",
		"\t.text",
		"\t.globl\tf",
		"\t.type\tf, @function",
		"f:",
		".LFB0:",
		"\tpushl\t%ebp",
		"\tmovl\t%esp, %ebp",
		"\tleave",
		"\tret",
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("assembler lacks %q:\n%s", want, asm)
		}
	}
}

// TestGenParameterSlot verifies the parameter is addressed at 8(%ebp): above the return
// address and the saved frame pointer, and that its entry store emits no code.
func TestGenParameterSlot(t *testing.T) {
	asm := helperCompile(t, "return x;", true)
	if !strings.Contains(asm, "8(%ebp)") {
		t.Errorf("parameter slot 8(%%ebp) not referenced:\n%s", asm)
	}
	// The entry store of the argument is skipped: nothing is ever moved to 8(%ebp).
	if strings.Contains(asm, ", 8(%ebp)") {
		t.Errorf("argument was redundantly stored to its own slot:\n%s", asm)
	}
}

// TestGenLocalSlots verifies locals live at negative offsets behind the saved EBX.
func TestGenLocalSlots(t *testing.T) {
	asm := helperCompile(t, "int a; a = x + 10; print(a); return a;", true)
	for _, want := range []string{
		"\tpushl\t%ebx",
		"\tsubl\t$4, %esp",
		"-8(%ebp)",
		"\taddl\t$10, %ebx",
		"\tmovl\t-4(%ebp), %ebx", // EBX restore before leave.
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("assembler lacks %q:\n%s", want, asm)
		}
	}
}

// TestGenCall verifies the cdecl call sequence: caller saved pushes, argument push, PLT
// call, argument cleanup and restores.
func TestGenCall(t *testing.T) {
	asm := helperCompile(t, "print(x); return x;", true)
	idx := func(s string) int { return strings.Index(asm, s) }
	seq := []string{
		"\tpushl\t%ebx\n\tpushl\t%ecx\n\tpushl\t%edx\n",
		"\tcall\tprint@PLT\n",
		"\taddl\t$4, %esp\n",
		"\tpopl\t%edx\n\tpopl\t%ecx\n\tpopl\t%ebx\n",
	}
	last := -1
	for _, e1 := range seq {
		i1 := idx(e1)
		if i1 < 0 {
			t.Fatalf("assembler lacks %q:\n%s", e1, asm)
		}
		if i1 < last {
			t.Fatalf("call sequence out of order at %q:\n%s", e1, asm)
		}
		last = i1
	}
}

// TestGenReadResult verifies the result of read moves out of the return register.
func TestGenReadResult(t *testing.T) {
	asm := helperCompile(t, "int v; v = read(); print(v); return v;", true)
	if !strings.Contains(asm, "\tcall\tread@PLT\n") {
		t.Fatalf("read call missing:\n%s", asm)
	}
	if !strings.Contains(asm, "\tmovl\t%eax, ") {
		t.Errorf("read result never moved from %%eax:\n%s", asm)
	}
}

// TestGenConditionalJumps verifies every predicate lowers to its conditional jump.
func TestGenConditionalJumps(t *testing.T) {
	tests := []struct {
		rel  string
		jump string
	}{
		{"<", "\tjl\t"},
		{">", "\tjg\t"},
		{"<=", "\tjle\t"},
		{">=", "\tjge\t"},
		{"==", "\tje\t"},
		{"!=", "\tjne\t"},
	}
	for _, e1 := range tests {
		asm := helperCompile(t, "int a; if (x "+e1.rel+" 0) { a = 1; } else { a = 2; } return a;", true)
		if !strings.Contains(asm, e1.jump) {
			t.Errorf("relation %q: conditional jump %q missing:\n%s", e1.rel, e1.jump, asm)
		}
		if !strings.Contains(asm, "\tcmpl\t$0, ") {
			t.Errorf("relation %q: compare against 0 missing:\n%s", e1.rel, asm)
		}
		if !strings.Contains(asm, "\tjmp\t.L") {
			t.Errorf("relation %q: fallthrough jump missing:\n%s", e1.rel, asm)
		}
	}
}

// TestGenWhileLoop verifies the loop skeleton: a back edge and a conditional exit.
func TestGenWhileLoop(t *testing.T) {
	asm := helperCompile(t, "int i; int s; i = 0; s = 0; while (i < x) { s = s + i; i = i + 1; } return s;", true)
	if !strings.Contains(asm, "\tjl\t.L") {
		t.Errorf("loop condition jump missing:\n%s", asm)
	}
	if strings.Count(asm, "\tjmp\t.L") < 2 {
		t.Errorf("expected entry and back edge jumps:\n%s", asm)
	}
}

// TestGenDivision verifies the idivl lowering preserves EDX and stages the divisor on the
// stack.
func TestGenDivision(t *testing.T) {
	asm := helperCompile(t, "return x / 2;", true)
	idx := func(s string) int { return strings.Index(asm, s) }
	seq := []string{
		"\tpushl\t%edx\n",
		"\tpushl\t$2\n",
		"\tcltd\n",
		"\tidivl\t(%esp)\n",
		"\taddl\t$4, %esp\n",
		"\tpopl\t%edx\n",
	}
	last := -1
	for _, e1 := range seq {
		i1 := idx(e1)
		if i1 < 0 {
			t.Fatalf("division sequence lacks %q:\n%s", e1, asm)
		}
		if i1 < last {
			t.Fatalf("division sequence out of order at %q:\n%s", e1, asm)
		}
		last = i1
	}
}

// TestGenFoldedBranch verifies a constant condition lowers to a single unconditional jump.
func TestGenFoldedBranch(t *testing.T) {
	asm := helperCompile(t, "int a; if (1 < 2) { a = 1; } else { a = 2; } return a;", true)
	for _, jcc := range []string{"\tjl\t", "\tjg\t", "\tje\t", "\tjne\t", "\tjle\t", "\tjge\t"} {
		if strings.Contains(asm, jcc) {
			t.Errorf("folded condition still emits %q:\n%s", jcc, asm)
		}
	}
	if !strings.Contains(asm, "\tjmp\t.L") {
		t.Errorf("folded branch lacks unconditional jump:\n%s", asm)
	}
}

// TestGenSpill verifies a spilled value is stored to and read from its frame slot.
func TestGenSpill(t *testing.T) {
	body := "int a; int b; int c; int d; int e; int g; int h; int i;\n" +
		"a=1; b=2; c=3; d=4; e=5; g=6; h=7; i=8;\n" +
		"return ((a+b)+(c+d)) + ((e+g)+(h+i));"
	asm := helperCompile(t, body, false)
	// The spilled load stages through the scratch register into its slot.
	if !strings.Contains(asm, "\tmovl\t%eax, -") {
		t.Errorf("spill store through %%eax missing:\n%s", asm)
	}
}

// TestGenMinimalFunction verifies a hand built function without locals lowers cleanly.
func TestGenMinimalFunction(t *testing.T) {
	m := lir.CreateModule("test.c")
	f := m.CreateFunction("f")
	b := f.CreateBlock()
	b.CreateRet(lir.ConstInt(0))
	asm, err := GenX86(util.Options{TargetArch: util.X86_32}, m)
	if err != nil {
		t.Fatalf("x86-32 generation failed: %s", err)
	}
	if !strings.Contains(asm, "\tmovl\t$0, %eax") {
		t.Errorf("constant return not moved into %%eax:\n%s", asm)
	}
	if strings.Contains(asm, "subl") {
		t.Errorf("frameless function subtracts from %%esp:\n%s", asm)
	}
}
