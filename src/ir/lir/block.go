package lir

import (
	"fmt"
	"strings"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Block defines a basic block: a sequence of instructions ended by exactly one terminator.
// Blocks are created unlinked; branches of other blocks link them into the control flow graph.
type Block struct {
	f            *Function     // Parent function that owns the basic block.
	id           int           // Unique identifier of basic block.
	instructions []Instruction // Instructions in the basic block, terminator last.
	term         Instruction   // Branch or return instruction ending the block.
}

// ---------------------
// ----- Constants -----
// ---------------------

// labelBlockPrefix defines the textual IR prefix of basic block labels.
const labelBlockPrefix = "b"

// ---------------------
// ----- functions -----
// ---------------------

// Id returns the uniquely assigned identifier of Block b.
func (b *Block) Id() int {
	return b.id
}

// Name returns the textual IR label of Block b.
func (b *Block) Name() string {
	return fmt.Sprintf("%s%d", labelBlockPrefix, b.id)
}

// Parent returns the function that owns Block b.
func (b *Block) Parent() *Function {
	return b.f
}

// Instructions returns the instructions of Block b in order.
func (b *Block) Instructions() []Instruction {
	return b.instructions
}

// Terminator returns the branch or return instruction ending Block b, or nil if the block is
// not yet terminated.
func (b *Block) Terminator() Instruction {
	return b.term
}

// Terminated returns true if Block b ends in a terminator.
func (b *Block) Terminated() bool {
	return b.term != nil
}

// Successors returns the blocks Block b may transfer control to.
func (b *Block) Successors() []*Block {
	if br, ok := b.term.(*BranchInstruction); ok {
		if br.els != nil {
			return []*Block{br.thn, br.els}
		}
		return []*Block{br.thn}
	}
	return nil
}

// Erase removes Instruction inst from Block b, invalidating its identity. All uses must have
// been redirected before erasure.
func (b *Block) Erase(inst Instruction) {
	for i1, e1 := range b.instructions {
		if e1 == inst {
			b.instructions = append(b.instructions[:i1], b.instructions[i1+1:]...)
			if b.term == inst {
				b.term = nil
			}
			return
		}
	}
	panic(fmt.Sprintf("block %s: cannot erase %s, not a member", b.Name(), inst.Name()))
}

// String returns the textual IR representation of Block b.
func (b *Block) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s:\n", b.Name()))
	for _, e1 := range b.instructions {
		sb.WriteString("  ")
		sb.WriteString(e1.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// append adds Instruction inst to the end of Block b. Appending to a terminated block is
// forbidden; the builder starts a fresh block for statements behind a return.
func (b *Block) append(inst Instruction) {
	if b.term != nil {
		panic(fmt.Sprintf("block %s is terminated by %s, cannot append %s",
			b.Name(), b.term.Name(), inst.Name()))
	}
	b.instructions = append(b.instructions, inst)
}

// ---------------------------------
// ----- Instruction builders ------
// ---------------------------------

// CreateAlloca reserves a stack cell for the named variable and yields its pointer.
func (b *Block) CreateAlloca(ident string) *AllocaInstruction {
	inst := &AllocaInstruction{
		b:     b,
		id:    b.f.getId(),
		ident: ident,
	}
	b.append(inst)
	return inst
}

// CreateLoad loads the integer stored at pointer src.
func (b *Block) CreateLoad(src Value) *LoadInstruction {
	if src.DataType() != types.Pointer {
		panic(fmt.Sprintf("cannot load from %s operand %s", src.DataType().String(), src.Name()))
	}
	inst := &LoadInstruction{
		b:   b,
		id:  b.f.getId(),
		src: src,
	}
	b.append(inst)
	return inst
}

// CreateStore stores the integer Value src to pointer dst.
func (b *Block) CreateStore(src, dst Value) *StoreInstruction {
	if src.DataType() != types.I32 {
		panic(fmt.Sprintf("cannot store %s operand %s", src.DataType().String(), src.Name()))
	}
	if dst.DataType() != types.Pointer {
		panic(fmt.Sprintf("cannot store to %s operand %s", dst.DataType().String(), dst.Name()))
	}
	inst := &StoreInstruction{
		b:   b,
		id:  b.f.getId(),
		src: src,
		dst: dst,
	}
	b.append(inst)
	return inst
}

// CreateAdd creates an addition instruction. The result = op1 + op2.
func (b *Block) CreateAdd(op1, op2 Value) *DataInstruction {
	return b.createData(types.Add, op1, op2)
}

// CreateSub creates a subtraction instruction. The result = op1 - op2.
func (b *Block) CreateSub(op1, op2 Value) *DataInstruction {
	return b.createData(types.Sub, op1, op2)
}

// CreateMul creates a multiplication instruction. The result = op1 * op2.
func (b *Block) CreateMul(op1, op2 Value) *DataInstruction {
	return b.createData(types.Mul, op1, op2)
}

// CreateDiv creates a division instruction. The result = op1 / op2.
func (b *Block) CreateDiv(op1, op2 Value) *DataInstruction {
	return b.createData(types.UDiv, op1, op2)
}

// CreateNeg creates an arithmetic negate instruction. The result = -op1.
func (b *Block) CreateNeg(op1 Value) *DataInstruction {
	if op1.DataType() != types.I32 {
		panic(fmt.Sprintf("operand %s of neg is not i32", op1.Name()))
	}
	inst := &DataInstruction{
		b:   b,
		id:  b.f.getId(),
		op:  types.Neg,
		op1: op1,
	}
	b.append(inst)
	return inst
}

// createData creates a binary arithmetic instruction with Opcode op.
func (b *Block) createData(op types.Opcode, op1, op2 Value) *DataInstruction {
	if op1.DataType() != types.I32 {
		panic(fmt.Sprintf("operand 1 of %s is not i32: %s", op.String(), op1.Name()))
	}
	if op2.DataType() != types.I32 {
		panic(fmt.Sprintf("operand 2 of %s is not i32: %s", op.String(), op2.Name()))
	}
	inst := &DataInstruction{
		b:   b,
		id:  b.f.getId(),
		op:  op,
		op1: op1,
		op2: op2,
	}
	b.append(inst)
	return inst
}

// CreateICmp creates a comparison instruction yielding an i1.
func (b *Block) CreateICmp(pred types.Predicate, op1, op2 Value) *CompareInstruction {
	if op1.DataType() != types.I32 || op2.DataType() != types.I32 {
		panic(fmt.Sprintf("operands of icmp %s are not i32: %s, %s",
			pred.String(), op1.Name(), op2.Name()))
	}
	inst := &CompareInstruction{
		b:    b,
		id:   b.f.getId(),
		pred: pred,
		op1:  op1,
		op2:  op2,
	}
	b.append(inst)
	return inst
}

// CreateCall creates a call to the external function callee with optional argument arg.
func (b *Block) CreateCall(callee *Extern, arg Value) *CallInstruction {
	if len(callee.params) == 1 && arg == nil {
		panic(fmt.Sprintf("call to %s expects an argument", callee.name))
	}
	if len(callee.params) == 0 && arg != nil {
		panic(fmt.Sprintf("call to %s takes no argument, got %s", callee.name, arg.Name()))
	}
	inst := &CallInstruction{
		b:      b,
		id:     b.f.getId(),
		callee: callee,
		arg:    arg,
	}
	b.append(inst)
	return inst
}

// CreateBr creates an unconditional branch instruction, terminating Block b.
func (b *Block) CreateBr(dst *Block) *BranchInstruction {
	inst := &BranchInstruction{
		b:   b,
		id:  b.f.getId(),
		thn: dst,
	}
	b.append(inst)
	b.term = inst
	return inst
}

// CreateCondBr creates a conditional branch on i1 Value cond, terminating Block b.
func (b *Block) CreateCondBr(cond Value, thn, els *Block) *BranchInstruction {
	if cond.DataType() != types.I1 {
		panic(fmt.Sprintf("condition %s of conditional branch is not i1", cond.Name()))
	}
	inst := &BranchInstruction{
		b:    b,
		id:   b.f.getId(),
		cond: cond,
		thn:  thn,
		els:  els,
	}
	b.append(inst)
	b.term = inst
	return inst
}

// CreateRet creates a return instruction, terminating Block b.
func (b *Block) CreateRet(val Value) *ReturnInstruction {
	if val.DataType() != types.I32 {
		panic(fmt.Sprintf("return value %s is not i32", val.Name()))
	}
	inst := &ReturnInstruction{
		b:   b,
		id:  b.f.getId(),
		val: val,
	}
	b.append(inst)
	b.term = inst
	return inst
}
