package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// BranchInstruction defines an unconditional or conditional branch instruction. Its block
// targets are structural references, not value operands.
type BranchInstruction struct {
	b    *Block // b is the basic block element that owns this instruction.
	id   int    // id is the unique identifier of this instruction in the function body.
	cond Value  // cond is the i1 condition value. Nil for unconditional branches.
	thn  *Block // thn is the target for unconditional branches and the true target of conditional branches.
	els  *Block // els is the false target of conditional branches. Nil for unconditional branches.
}

// ReturnInstruction defines a return statement.
type ReturnInstruction struct {
	b   *Block // b is the basic block element that owns this instruction.
	id  int    // id is the unique identifier of this instruction in the function body.
	val Value  // val is the returned value.
}

// ------------------------------
// ----- Branch instruction -----
// ------------------------------

// Id returns the unique id of the BranchInstruction.
func (inst *BranchInstruction) Id() int {
	return inst.id
}

// Name returns an informational name for the BranchInstruction; branches produce no value.
func (inst *BranchInstruction) Name() string {
	return fmt.Sprintf("branch%d", inst.id)
}

// DataType returns types.Void; no result is generated for a branch instruction.
func (inst *BranchInstruction) DataType() types.DataType {
	return types.Void
}

// Opcode returns types.CondBr for conditional and types.Br for unconditional branches.
func (inst *BranchInstruction) Opcode() types.Opcode {
	if inst.cond != nil {
		return types.CondBr
	}
	return types.Br
}

// Cond returns the i1 condition value of a conditional BranchInstruction, or nil.
func (inst *BranchInstruction) Cond() Value {
	return inst.cond
}

// Then returns the target of unconditional branches and the true target of conditional ones.
func (inst *BranchInstruction) Then() *Block {
	return inst.thn
}

// Else returns the false target of conditional branches, or nil.
func (inst *BranchInstruction) Else() *Block {
	return inst.els
}

// Operands returns the condition value for conditional branches, nothing otherwise.
func (inst *BranchInstruction) Operands() []Value {
	if inst.cond != nil {
		return []Value{inst.cond}
	}
	return nil
}

// SetOperand replaces the condition value of a conditional BranchInstruction.
func (inst *BranchInstruction) SetOperand(i int, v Value) {
	if inst.cond == nil || i != 0 {
		panic(fmt.Sprintf("branch has no operand at index %d", i))
	}
	inst.cond = v
}

// Parent returns the block that owns the BranchInstruction.
func (inst *BranchInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the BranchInstruction.
func (inst *BranchInstruction) String() string {
	if inst.cond == nil {
		return fmt.Sprintf("br label %%%s", inst.thn.Name())
	}
	return fmt.Sprintf("br i1 %s, label %%%s, label %%%s",
		inst.cond.Name(), inst.thn.Name(), inst.els.Name())
}

// ------------------------------
// ----- Return instruction -----
// ------------------------------

// Id returns the unique id of the ReturnInstruction.
func (inst *ReturnInstruction) Id() int {
	return inst.id
}

// Name returns an informational name for the ReturnInstruction; returns produce no value.
func (inst *ReturnInstruction) Name() string {
	return fmt.Sprintf("ret%d", inst.id)
}

// DataType returns types.Void; the returned value leaves the function.
func (inst *ReturnInstruction) DataType() types.DataType {
	return types.Void
}

// Opcode returns types.Ret.
func (inst *ReturnInstruction) Opcode() types.Opcode {
	return types.Ret
}

// Value returns the returned value.
func (inst *ReturnInstruction) Value() Value {
	return inst.val
}

// Operands returns the returned value.
func (inst *ReturnInstruction) Operands() []Value {
	return []Value{inst.val}
}

// SetOperand replaces the returned value.
func (inst *ReturnInstruction) SetOperand(i int, v Value) {
	if i != 0 {
		panic(fmt.Sprintf("ret has one operand, got index %d", i))
	}
	inst.val = v
}

// Parent returns the block that owns the ReturnInstruction.
func (inst *ReturnInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the ReturnInstruction.
func (inst *ReturnInstruction) String() string {
	return fmt.Sprintf("ret i32 %s", inst.val.Name())
}
