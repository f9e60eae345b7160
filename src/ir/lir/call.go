package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// CallInstruction defines a call to an externally linked function. A call to read yields an
// i32; a call to print yields nothing. A call result without users is still retained: calls
// are side effects.
type CallInstruction struct {
	b      *Block  // b is the basic block element that owns this instruction.
	id     int     // id is the unique identifier of this instruction in the function body.
	callee *Extern // The external function being called.
	arg    Value   // Optional argument. Nil for zero-argument callees.
}

// ---------------------
// ----- functions -----
// ---------------------

// Id returns the unique id of the CallInstruction.
func (inst *CallInstruction) Id() int {
	return inst.id
}

// Name returns the textual IR name of the call result, or an informational name for void calls.
func (inst *CallInstruction) Name() string {
	if inst.callee.rtyp == types.Void {
		return fmt.Sprintf("call%d", inst.id)
	}
	return fmt.Sprintf("%%%d", inst.id)
}

// DataType returns the return type of the callee.
func (inst *CallInstruction) DataType() types.DataType {
	return inst.callee.rtyp
}

// Opcode returns types.Call.
func (inst *CallInstruction) Opcode() types.Opcode {
	return types.Call
}

// Callee returns the external function being called.
func (inst *CallInstruction) Callee() *Extern {
	return inst.callee
}

// Arg returns the call argument, or nil for zero-argument callees.
func (inst *CallInstruction) Arg() Value {
	return inst.arg
}

// Operands returns the call argument if present.
func (inst *CallInstruction) Operands() []Value {
	if inst.arg != nil {
		return []Value{inst.arg}
	}
	return nil
}

// SetOperand replaces the call argument.
func (inst *CallInstruction) SetOperand(i int, v Value) {
	if inst.arg == nil || i != 0 {
		panic(fmt.Sprintf("call has no operand at index %d", i))
	}
	inst.arg = v
}

// Parent returns the block that owns the CallInstruction.
func (inst *CallInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the CallInstruction.
func (inst *CallInstruction) String() string {
	if inst.callee.rtyp == types.Void {
		if inst.arg != nil {
			return fmt.Sprintf("call void @%s(i32 %s)", inst.callee.name, inst.arg.Name())
		}
		return fmt.Sprintf("call void @%s()", inst.callee.name)
	}
	if inst.arg != nil {
		return fmt.Sprintf("%s = call i32 @%s(i32 %s)", inst.Name(), inst.callee.name, inst.arg.Name())
	}
	return fmt.Sprintf("%s = call i32 @%s()", inst.Name(), inst.callee.name)
}
