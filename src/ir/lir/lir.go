// Package lir provides the intermediate representation of the compiler: a module of functions,
// each a control flow graph of basic blocks holding three-address instructions in a memory
// based alloca/load/store form. The textual rendering follows LLVM's conventions for the
// subset of instructions the front end generates.
package lir

import (
	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Value defines an operand of an instruction. A Value is either an instruction that produces
// a result, a function parameter or an integer constant. Basic block branch targets are held
// by the branch instructions directly and are not Values.
type Value interface {
	Id() int                  // Unique identifier assigned to the Value inside its function. Constants have no identity and return a negative id.
	Name() string             // Textual IR name of the Value, e.g. %4 or a literal for constants.
	DataType() types.DataType // Type of the value produced.
	String() string           // Textual IR representation.
}

// Instruction defines an IR instruction owned by a basic block. Instructions that produce a
// result are also Values and can be referenced by later instructions.
type Instruction interface {
	Value
	Opcode() types.Opcode       // The closed operation set of the IR.
	Operands() []Value          // Value operands in instruction order. Branch targets excluded.
	SetOperand(i int, v Value)  // Replace operand i. Used by replace-all-uses-with.
	Parent() *Block             // The basic block that owns the instruction.
}

// ---------------------
// ----- Constants -----
// ---------------------

// constantId marks Values without instruction identity.
const constantId = -1

// ---------------------
// ----- Functions -----
// ---------------------

// HasResult returns true if Instruction inst produces a value that other instructions may use.
func HasResult(inst Instruction) bool {
	return inst.DataType() != types.Void
}
