package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// DataInstruction defines an arithmetic instruction that leaves its result in a new value.
// Binary operations carry two operands; the negate operation carries one.
type DataInstruction struct {
	b        *Block       // b is the basic block element that owns this instruction.
	id       int          // id is the unique identifier of this instruction in the function body.
	op       types.Opcode // One of types.Add, types.Sub, types.Mul, types.UDiv, types.Neg.
	op1, op2 Value        // op1 and op2 hold the first and second operands. op2 is nil for Neg.
}

// ---------------------
// ----- functions -----
// ---------------------

// Id returns the unique identifier of the DataInstruction inst.
func (inst *DataInstruction) Id() int {
	return inst.id
}

// Name returns the textual IR name of DataInstruction inst's result value.
func (inst *DataInstruction) Name() string {
	return fmt.Sprintf("%%%d", inst.id)
}

// DataType returns types.I32; arithmetic is integer only.
func (inst *DataInstruction) DataType() types.DataType {
	return types.I32
}

// Opcode returns the arithmetic operation of DataInstruction inst.
func (inst *DataInstruction) Opcode() types.Opcode {
	return inst.op
}

// Operand1 returns the first operand of DataInstruction inst.
func (inst *DataInstruction) Operand1() Value {
	return inst.op1
}

// Operand2 returns the second operand of DataInstruction inst, or nil for the unary negate.
func (inst *DataInstruction) Operand2() Value {
	return inst.op2
}

// Operands returns the operands of DataInstruction inst.
func (inst *DataInstruction) Operands() []Value {
	if inst.op == types.Neg {
		return []Value{inst.op1}
	}
	return []Value{inst.op1, inst.op2}
}

// SetOperand replaces operand i of DataInstruction inst.
func (inst *DataInstruction) SetOperand(i int, v Value) {
	switch i {
	case 0:
		inst.op1 = v
	case 1:
		if inst.op == types.Neg {
			panic("neg has one operand")
		}
		inst.op2 = v
	default:
		panic(fmt.Sprintf("arithmetic instruction has at most two operands, got index %d", i))
	}
}

// Parent returns the block that owns the DataInstruction.
func (inst *DataInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the DataInstruction. Negate prints in its
// sub form, which is what the LLVM builder emits for integer negation.
func (inst *DataInstruction) String() string {
	if inst.op == types.Neg {
		return fmt.Sprintf("%s = sub i32 0, %s", inst.Name(), inst.op1.Name())
	}
	return fmt.Sprintf("%s = %s i32 %s, %s", inst.Name(), inst.op.String(),
		inst.op1.Name(), inst.op2.Name())
}
