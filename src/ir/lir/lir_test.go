package lir

import (
	"strings"
	"testing"

	"minicc/src/ir/lir/types"
)

// helperModule builds a small module by hand:
//
//	define i32 @f(i32 %0) {
//	b1:
//	  %2 = alloca i32, align 4
//	  store i32 %0, i32* %2, align 4
//	  %4 = load i32, i32* %2, align 4
//	  %5 = add i32 %4, 1
//	  ret i32 %5
//	}
func helperModule() (*Module, *Function, *Block) {
	m := CreateModule("test.c")
	f := m.CreateFunction("f")
	b := f.CreateBlock()
	cell := b.CreateAlloca("x")
	b.CreateStore(f.Param(), cell)
	l := b.CreateLoad(cell)
	a := b.CreateAdd(l, ConstInt(1))
	b.CreateRet(a)
	return m, f, b
}

// TestReplaceAllUsesWith verifies use redirection leaves the victim disconnected.
func TestReplaceAllUsesWith(t *testing.T) {
	_, f, b := helperModule()
	insts := b.Instructions()
	l := insts[2].(*LoadInstruction)
	a := insts[3].(*DataInstruction)

	if f.NumUses(l) != 1 {
		t.Fatalf("expected 1 use of the load, got %d", f.NumUses(l))
	}
	f.ReplaceAllUsesWith(l, ConstInt(7))
	if f.HasUsers(l) {
		t.Error("load still has users after replace-all-uses-with")
	}
	c, ok := a.Operand1().(*Constant)
	if !ok || c.Value() != 7 {
		t.Error("add operand was not redirected to the constant")
	}
}

// TestErase verifies erasure removes the instruction from its parent.
func TestErase(t *testing.T) {
	_, f, b := helperModule()
	l := b.Instructions()[2].(*LoadInstruction)
	f.ReplaceAllUsesWith(l, ConstInt(7))
	n := len(b.Instructions())
	b.Erase(l)
	if len(b.Instructions()) != n-1 {
		t.Error("erase did not shrink the block")
	}
	for _, inst := range b.Instructions() {
		if inst == Instruction(l) {
			t.Error("erased instruction still present")
		}
	}
}

// TestAppendAfterTerminator verifies that appending to a terminated block panics; the
// builder must start a fresh block instead.
func TestAppendAfterTerminator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when appending behind a terminator")
		}
	}()
	_, _, b := helperModule()
	b.CreateAlloca("dead")
}

// TestSameValue verifies constants compare by value and instructions by identity.
func TestSameValue(t *testing.T) {
	if !SameValue(ConstInt(4), ConstInt(4)) {
		t.Error("equal constants are not the same value")
	}
	if SameValue(ConstInt(4), ConstInt(5)) {
		t.Error("distinct constants compare equal")
	}
	if SameValue(ConstBool(true), ConstInt(1)) {
		t.Error("i1 and i32 constants compare equal")
	}
	_, _, b := helperModule()
	l := b.Instructions()[2]
	a := b.Instructions()[3]
	if SameValue(l, a) {
		t.Error("distinct instructions compare equal")
	}
	if !SameValue(l, l) {
		t.Error("an instruction is not the same value as itself")
	}
}

// TestValidateUnterminated verifies the validator rejects a block without a terminator.
func TestValidateUnterminated(t *testing.T) {
	m := CreateModule("test.c")
	f := m.CreateFunction("f")
	b := f.CreateBlock()
	b.CreateAlloca("x")
	if err := Validate(m); err == nil {
		t.Error("expected validation failure for unterminated block")
	}
}

// TestValidateDominance verifies the validator rejects an operand defined in a block that
// does not dominate its use.
func TestValidateDominance(t *testing.T) {
	m := CreateModule("test.c")
	f := m.CreateFunction("f")
	entry := f.CreateBlock()
	left := f.CreateBlock()
	right := f.CreateBlock()
	exit := f.CreateBlock()

	cell := entry.CreateAlloca("a")
	entry.CreateStore(f.Param(), cell)
	cmp := entry.CreateICmp(types.Sgt, f.Param(), ConstInt(0))
	entry.CreateCondBr(cmp, left, right)

	// The load lives only on the left path but the exit block uses it on both.
	l := left.CreateLoad(cell)
	left.CreateBr(exit)
	right.CreateBr(exit)
	exit.CreateRet(l)

	if err := Validate(m); err == nil {
		t.Error("expected dominance violation")
	} else if !strings.Contains(err.Error(), "dominate") {
		t.Errorf("unexpected error: %s", err)
	}
}

// TestValidateAccepts verifies the validator accepts a diamond whose exit only uses values
// available on every path.
func TestValidateAccepts(t *testing.T) {
	m := CreateModule("test.c")
	f := m.CreateFunction("f")
	entry := f.CreateBlock()
	left := f.CreateBlock()
	right := f.CreateBlock()
	exit := f.CreateBlock()

	cell := entry.CreateAlloca("a")
	entry.CreateStore(f.Param(), cell)
	cmp := entry.CreateICmp(types.Sgt, f.Param(), ConstInt(0))
	entry.CreateCondBr(cmp, left, right)
	left.CreateStore(ConstInt(1), cell)
	left.CreateBr(exit)
	right.CreateStore(ConstInt(2), cell)
	right.CreateBr(exit)
	l := exit.CreateLoad(cell)
	exit.CreateRet(l)

	if err := Validate(m); err != nil {
		t.Errorf("valid diamond rejected: %s", err)
	}
}

// TestModulePrint verifies the shape of the textual IR.
func TestModulePrint(t *testing.T) {
	m, _, _ := helperModule()
	m.CreateExtern("print", types.Void, types.I32)
	s := m.String()
	for _, want := range []string{
		"target triple = \"i386-pc-linux-gnu\"",
		"declare void @print(i32)",
		"define i32 @f(i32 %0) {",
		"alloca i32, align 4",
		"store i32 %0, i32* ",
		"ret i32 ",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("textual IR lacks %q:\n%s", want, s)
		}
	}
}

// TestParseModuleErrors verifies malformed textual IR is rejected with a line diagnostic.
func TestParseModuleErrors(t *testing.T) {
	tests := []string{
		"define i32 @f(i32 %0) {\nb1:\n  %2 = add i32 %9, 1\n  ret i32 %2\n}",
		"define i32 @f(i32 %0) {\nb1:\n  br label %nowhere\n  ret i32 0\n}",
		"define i32 @f(i32 %0) {\nb1:\n  %2 = frobnicate i32 %0\n  ret i32 %2\n}",
	}
	for _, e1 := range tests {
		if _, err := ParseModule(e1); err == nil {
			t.Errorf("expected parse error for:\n%s", e1)
		} else if !strings.Contains(err.Error(), "line") {
			t.Errorf("error lacks line info: %s", err)
		}
	}
}
