package lir

import (
	"fmt"
	"strings"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Function represents a function definition: a name, the fixed i32(i32) signature, and the
// basic blocks of its body. The first block is the entry block.
type Function struct {
	m      *Module        // Parent module.
	name   string         // Linker name of the function.
	rtyp   types.DataType // Return type.
	param  *Param         // The single integer parameter.
	blocks []*Block       // Basic blocks in order of creation.
	seq    int            // Sequence number for assigning unique identifiers to all children.
}

// Param represents the incoming function argument. It is stored into its alloca once at
// function entry; every other access to the parameter goes through memory.
type Param struct {
	f  *Function // Parent function.
	id int       // Unique identifier of parameter.
}

// ----------------------------
// ----- Function methods -----
// ----------------------------

// Name returns the linker name of Function f.
func (f *Function) Name() string {
	return f.name
}

// ReturnType returns the return type of Function f.
func (f *Function) ReturnType() types.DataType {
	return f.rtyp
}

// Param returns the parameter of Function f.
func (f *Function) Param() *Param {
	return f.param
}

// Blocks returns the basic blocks of Function f in order of creation.
func (f *Function) Blocks() []*Block {
	return f.blocks
}

// Entry returns the entry basic block of Function f, or nil if no block has been created.
func (f *Function) Entry() *Block {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// CreateBlock creates a new basic Block for Function f.
func (f *Function) CreateBlock() *Block {
	b := &Block{
		f:            f,
		id:           f.getId(),
		instructions: make([]Instruction, 0, 16),
	}
	f.blocks = append(f.blocks, b)
	return b
}

// getId returns a unique identifier for any child of Function f.
func (f *Function) getId() int {
	id := f.seq
	f.seq++
	return id
}

// ReplaceAllUsesWith redirects every use of Value old in the function body to Value new.
// The victim is left disconnected; the caller erases it later. Uses are found by a full
// operand rescan, which is linear in the function size.
func (f *Function) ReplaceAllUsesWith(old, new Value) {
	for _, b := range f.blocks {
		for _, inst := range b.instructions {
			for i1, e1 := range inst.Operands() {
				if SameValue(e1, old) {
					inst.SetOperand(i1, new)
				}
			}
		}
	}
}

// HasUsers returns true if any instruction in the function body uses Value v as an operand.
func (f *Function) HasUsers(v Value) bool {
	return f.NumUses(v) > 0
}

// NumUses returns the number of operand slots in the function body that reference Value v.
func (f *Function) NumUses(v Value) int {
	n := 0
	for _, b := range f.blocks {
		for _, inst := range b.instructions {
			for _, e1 := range inst.Operands() {
				if SameValue(e1, v) {
					n++
				}
			}
		}
	}
	return n
}

// Predecessors returns, for every basic block of Function f, the blocks that branch to it.
// The entry block has no predecessors unless a loop header targets it.
func (f *Function) Predecessors() map[*Block][]*Block {
	preds := make(map[*Block][]*Block, len(f.blocks))
	for _, b := range f.blocks {
		for _, s := range b.Successors() {
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

// String returns the textual IR representation of Function f.
func (f *Function) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("define %s @%s(%s %s) {\n", f.rtyp.String(), f.name,
		f.param.DataType().String(), f.param.Name()))
	for i1, e1 := range f.blocks {
		if i1 > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(e1.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// -------------------------
// ----- Param methods -----
// -------------------------

// Id returns the unique identifier assigned to Param p when it was created.
func (p *Param) Id() int {
	return p.id
}

// Name returns the textual IR name of Param p.
func (p *Param) Name() string {
	return fmt.Sprintf("%%%d", p.id)
}

// DataType returns types.I32; MiniC parameters are integers.
func (p *Param) DataType() types.DataType {
	return types.I32
}

// String returns the textual IR representation of Param p.
func (p *Param) String() string {
	return p.Name()
}

// --------------------------
// ----- Value equality -----
// --------------------------

// SameValue reports whether two Values are the same operand. Instructions and parameters
// compare by identity; constants, which have no identity, compare by type and value.
func SameValue(a, b Value) bool {
	ca, aok := a.(*Constant)
	cb, bok := b.(*Constant)
	if aok || bok {
		return aok && bok && ca.typ == cb.typ && ca.val == cb.val
	}
	return a == b
}
