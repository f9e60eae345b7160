package backend

import (
	"strings"
	"testing"

	"minicc/src/ir/lir"
	"minicc/src/util"
)

// helperModule builds a minimal well formed module.
func helperModule() *lir.Module {
	m := lir.CreateModule("test.c")
	f := m.CreateFunction("f")
	b := f.CreateBlock()
	b.CreateRet(lir.ConstInt(0))
	return m
}

// TestDispatchX86 verifies the x86-32 target is routed to the native back end.
func TestDispatchX86(t *testing.T) {
	asm, err := GenerateAssembler(util.Options{TargetArch: util.X86_32}, helperModule())
	if err != nil {
		t.Fatalf("x86-32 dispatch failed: %s", err)
	}
	if !strings.Contains(asm, "\t.globl\tf") {
		t.Errorf("assembler lacks the function directive:\n%s", asm)
	}
}

// TestDispatchUnsupported verifies other targets report a clear error.
func TestDispatchUnsupported(t *testing.T) {
	for _, arch := range []int{util.X86_64, util.Aarch64, util.UnknownArch} {
		if _, err := GenerateAssembler(util.Options{TargetArch: arch}, helperModule()); err == nil {
			t.Errorf("architecture %d must be rejected by the native back end", arch)
		}
	}
}
