package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// AllocaInstruction reserves a stack cell for a local variable or the parameter and yields
// its pointer. The pointer's identity is the variable: loads and stores name it as operand.
type AllocaInstruction struct {
	b     *Block // b is the basic block element that owns this instruction.
	id    int    // id is the unique identifier of this instruction in the function body.
	ident string // Source name of the declared variable. Informational.
}

// LoadInstruction reads the integer stored in the cell of its pointer operand.
type LoadInstruction struct {
	b   *Block // b is the basic block element that owns this instruction.
	id  int    // id is the unique identifier of this instruction in the function body.
	src Value  // src is the pointer to load from.
}

// StoreInstruction writes an integer value to the cell of its pointer operand. Stores are the
// definitions of the reaching-definitions analysis.
type StoreInstruction struct {
	b   *Block // b is the basic block element that owns this instruction.
	id  int    // id is the unique identifier of this instruction in the function body.
	src Value  // src is the integer value to store.
	dst Value  // dst is the pointer to store to.
}

// ------------------------------
// ----- Alloca instruction -----
// ------------------------------

// Id returns the unique id of the AllocaInstruction.
func (inst *AllocaInstruction) Id() int {
	return inst.id
}

// Name returns the textual IR name of the pointer produced by the AllocaInstruction.
func (inst *AllocaInstruction) Name() string {
	return fmt.Sprintf("%%%d", inst.id)
}

// Ident returns the source variable name the cell was declared for.
func (inst *AllocaInstruction) Ident() string {
	return inst.ident
}

// DataType returns types.Pointer; an alloca yields the address of its cell.
func (inst *AllocaInstruction) DataType() types.DataType {
	return types.Pointer
}

// Opcode returns types.Alloca.
func (inst *AllocaInstruction) Opcode() types.Opcode {
	return types.Alloca
}

// Operands returns nil; an alloca has no value operands.
func (inst *AllocaInstruction) Operands() []Value {
	return nil
}

// SetOperand panics; an alloca has no operands to replace.
func (inst *AllocaInstruction) SetOperand(i int, v Value) {
	panic("alloca has no operands")
}

// Parent returns the block that owns the AllocaInstruction.
func (inst *AllocaInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the AllocaInstruction.
func (inst *AllocaInstruction) String() string {
	return fmt.Sprintf("%s = alloca i32, align 4", inst.Name())
}

// ----------------------------
// ----- Load instruction -----
// ----------------------------

// Id returns the unique id of the LoadInstruction.
func (inst *LoadInstruction) Id() int {
	return inst.id
}

// Name returns the textual IR name of the value produced by the LoadInstruction.
func (inst *LoadInstruction) Name() string {
	return fmt.Sprintf("%%%d", inst.id)
}

// DataType returns types.I32.
func (inst *LoadInstruction) DataType() types.DataType {
	return types.I32
}

// Opcode returns types.Load.
func (inst *LoadInstruction) Opcode() types.Opcode {
	return types.Load
}

// Pointer returns the pointer operand of the LoadInstruction.
func (inst *LoadInstruction) Pointer() Value {
	return inst.src
}

// Operands returns the pointer operand.
func (inst *LoadInstruction) Operands() []Value {
	return []Value{inst.src}
}

// SetOperand replaces the pointer operand.
func (inst *LoadInstruction) SetOperand(i int, v Value) {
	if i != 0 {
		panic(fmt.Sprintf("load has one operand, got index %d", i))
	}
	inst.src = v
}

// Parent returns the block that owns the LoadInstruction.
func (inst *LoadInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the LoadInstruction.
func (inst *LoadInstruction) String() string {
	return fmt.Sprintf("%s = load i32, i32* %s, align 4", inst.Name(), inst.src.Name())
}

// -----------------------------
// ----- Store instruction -----
// -----------------------------

// Id returns the unique id of the StoreInstruction.
func (inst *StoreInstruction) Id() int {
	return inst.id
}

// Name returns an informational name for the StoreInstruction; stores produce no value.
func (inst *StoreInstruction) Name() string {
	return fmt.Sprintf("store%d", inst.id)
}

// DataType returns types.Void; a store produces no value.
func (inst *StoreInstruction) DataType() types.DataType {
	return types.Void
}

// Opcode returns types.Store.
func (inst *StoreInstruction) Opcode() types.Opcode {
	return types.Store
}

// Source returns the stored value.
func (inst *StoreInstruction) Source() Value {
	return inst.src
}

// Pointer returns the pointer operand; the memory cell this store defines.
func (inst *StoreInstruction) Pointer() Value {
	return inst.dst
}

// Operands returns the stored value and the pointer.
func (inst *StoreInstruction) Operands() []Value {
	return []Value{inst.src, inst.dst}
}

// SetOperand replaces operand i: 0 is the stored value, 1 the pointer.
func (inst *StoreInstruction) SetOperand(i int, v Value) {
	switch i {
	case 0:
		inst.src = v
	case 1:
		inst.dst = v
	default:
		panic(fmt.Sprintf("store has two operands, got index %d", i))
	}
}

// Parent returns the block that owns the StoreInstruction.
func (inst *StoreInstruction) Parent() *Block {
	return inst.b
}

// String returns the textual IR representation of the StoreInstruction.
func (inst *StoreInstruction) String() string {
	return fmt.Sprintf("store i32 %s, i32* %s, align 4", inst.src.Name(), inst.dst.Name())
}
