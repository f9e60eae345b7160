package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// CompareInstruction defines an integer comparison yielding an i1 value. The back end lowers
// the comparison to a flag setting instruction consumed by the conditional branch of the same
// block.
type CompareInstruction struct {
	b        *Block          // b is the basic block element that owns this instruction.
	id       int             // id is the unique identifier of this instruction in the function body.
	pred     types.Predicate // Comparison predicate.
	op1, op2 Value           // op1 and op2 hold the first and second operands.
}

// ---------------------
// ----- functions -----
// ---------------------

// Id returns the unique identifier of the CompareInstruction inst.
func (inst *CompareInstruction) Id() int {
	return inst.id
}

// Name returns the textual IR name of CompareInstruction inst's result value.
func (inst *CompareInstruction) Name() string {
	return fmt.Sprintf("%%%d", inst.id)
}

// DataType returns types.I1; a comparison yields a single bit.
func (inst *CompareInstruction) DataType() types.DataType {
	return types.I1
}

// Opcode returns types.ICmp.
func (inst *CompareInstruction) Opcode() types.Opcode {
	return types.ICmp
}

// Predicate returns the comparison predicate of CompareInstruction inst.
func (inst *CompareInstruction) Predicate() types.Predicate {
	return inst.pred
}

// Operand1 returns the first operand of CompareInstruction inst.
func (inst *CompareInstruction) Operand1() Value {
	return inst.op1
}

// Operand2 returns the second operand of CompareInstruction inst.
func (inst *CompareInstruction) Operand2() Value {
	return inst.op2
}

// Operands returns the operands of CompareInstruction inst.
func (inst *CompareInstruction) Operands() []Value {
	return []Value{inst.op1, inst.op2}
}

// SetOperand replaces operand i of CompareInstruction inst.
func (inst *CompareInstruction) SetOperand(i int, v Value) {
	switch i {
	case 0:
		inst.op1 = v
	case 1:
		inst.op2 = v
	default:
		panic(fmt.Sprintf("icmp has two operands, got index %d", i))
	}
}

// Parent returns the block that owns the CompareInstruction.
func (inst *CompareInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the CompareInstruction.
func (inst *CompareInstruction) String() string {
	return fmt.Sprintf("%s = icmp %s i32 %s, %s", inst.Name(), inst.pred.String(),
		inst.op1.Name(), inst.op2.Name())
}
