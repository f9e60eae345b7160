package x86

import (
	"fmt"

	backend "minicc/src/backend/lir"
	"minicc/src/backend/regfile"
	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
	"minicc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// generator holds the per-run state of the x86-32 code generator.
type generator struct {
	wr  *util.Writer
	rf  regfile.RegisterFile
	lbl util.Labeller

	// Per function state.
	f       *lir.Function
	alloc   backend.Allocation
	offsets map[lir.Value]int    // Stack offset per alloca and per spilled value.
	labels  map[*lir.Block]string // Text label per basic block, in order of appearance.
	frame   int                   // Bytes of locals subtracted from the stack pointer.
}

// ---------------------
// ----- Constants -----
// ---------------------

// wordSize is the stack slot size of the 32-bit target.
const wordSize = 4

// paramOffset is the frame offset of the stacked argument: above the saved frame pointer and
// the return address.
const paramOffset = 8

// ---------------------
// ----- Functions -----
// ---------------------

// GenX86 lowers Module m to x86-32 assembly and returns the assembler text.
func GenX86(opt util.Options, m *lir.Module) (string, error) {
	g := &generator{
		wr: &util.Writer{},
		rf: CreateRegisterFile(),
	}
	g.wr.Write("\t.file\t%q\n", m.Name)
	g.wr.Write("\t.text\n")

	for _, f := range m.Functions() {
		if err := g.genFunction(f); err != nil {
			return "", err
		}
	}
	return g.wr.String(), nil
}

// genFunction allocates registers, lays out the stack frame and lowers every basic block of
// Function f.
func (g *generator) genFunction(f *lir.Function) error {
	g.f = f
	g.alloc = backend.AllocateRegisters(f, g.rf)

	// Assign a text label to every basic block in order of appearance.
	g.labels = make(map[*lir.Block]string, len(f.Blocks()))
	for _, b := range f.Blocks() {
		g.labels[b] = g.lbl.NextBlock()
	}

	g.buildOffsets()

	// Prologue.
	g.wr.Write("\t.globl\t%s\n", f.Name())
	g.wr.Write("\t.type\t%s, @function\n", f.Name())
	g.wr.Label(f.Name())
	g.wr.Label(g.lbl.NextFunction())
	g.wr.Ins1("pushl", g.rf.FP().String())
	g.wr.Ins2("movl", g.rf.SP().String(), g.rf.FP().String())
	if g.alloc.UsedCalleeSaved {
		g.wr.Ins1("pushl", regNames[ebx])
	}
	if g.frame > 0 {
		g.wr.Ins2("subl", fmt.Sprintf("$%d", g.frame), g.rf.SP().String())
	}

	for _, b := range f.Blocks() {
		g.wr.Label(g.labels[b])
		for _, inst := range b.Instructions() {
			if err := g.genInstruction(inst); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildOffsets computes the frame offset of every alloca and every spilled value. The alloca
// holding the incoming parameter reuses the argument's slot above the frame pointer; all
// other cells grow downwards, behind the saved callee saved register if one is pushed.
func (g *generator) buildOffsets() {
	g.offsets = make(map[lir.Value]int, 8)
	g.frame = 0

	param := g.paramAlloca()
	next := -wordSize
	if g.alloc.UsedCalleeSaved {
		next -= wordSize
	}
	assign := func(v lir.Value) {
		g.offsets[v] = next
		next -= wordSize
		g.frame += wordSize
	}

	for _, b := range g.f.Blocks() {
		for _, inst := range b.Instructions() {
			if inst.Opcode() == types.Alloca {
				if inst == param {
					g.offsets[inst] = paramOffset
				} else {
					assign(inst)
				}
				continue
			}
			if g.alloc.Spills[inst] {
				assign(inst)
			}
		}
	}
}

// paramAlloca returns the alloca holding the incoming argument: the destination of a store
// whose source is the function parameter. Nil when the parameter is unnamed and never stored.
func (g *generator) paramAlloca() lir.Instruction {
	for _, b := range g.f.Blocks() {
		for _, inst := range b.Instructions() {
			if s, ok := inst.(*lir.StoreInstruction); ok {
				if _, isParam := s.Source().(*lir.Param); isParam {
					if cell, ok2 := s.Pointer().(*lir.AllocaInstruction); ok2 {
						return cell
					}
				}
			}
		}
	}
	return nil
}

// ---------------------------
// ----- Operand helpers -----
// ---------------------------

// loc returns the assembler operand for Value v: an immediate for constants, a register for
// register-allocated values, and a frame slot for allocas and spilled values.
func (g *generator) loc(v lir.Value) string {
	if c, ok := v.(*lir.Constant); ok {
		return fmt.Sprintf("$%d", c.Value())
	}
	inst, ok := v.(lir.Instruction)
	if !ok {
		panic(fmt.Sprintf("value %s has no location", v.Name()))
	}
	if r, ok2 := g.alloc.Regs[inst]; ok2 {
		return r.String()
	}
	if off, ok2 := g.offsets[inst]; ok2 {
		return g.mem(off)
	}
	panic(fmt.Sprintf("value %s was neither allocated nor spilled", v.Name()))
}

// inRegister returns true if Value v resides in a physical register.
func (g *generator) inRegister(v lir.Value) bool {
	if inst, ok := v.(lir.Instruction); ok {
		_, ok2 := g.alloc.Regs[inst]
		return ok2
	}
	return false
}

// mem renders a frame pointer relative operand.
func (g *generator) mem(off int) string {
	return fmt.Sprintf("%d(%s)", off, g.rf.FP().String())
}

// offsetOf returns the frame offset of pointer operand v, which must be an alloca.
func (g *generator) offsetOf(v lir.Value) int {
	off, ok := g.offsets[v]
	if !ok {
		panic(fmt.Sprintf("pointer %s has no frame slot", v.Name()))
	}
	return off
}
