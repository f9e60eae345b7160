package x86

import (
	"fmt"

	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
)

// -------------------
// ----- Globals -----
// -------------------

// arithOps maps the binary arithmetic opcodes onto their two-operand x86 mnemonics.
var arithOps = map[types.Opcode]string{
	types.Add: "addl",
	types.Sub: "subl",
	types.Mul: "imull",
}

// ---------------------
// ----- Functions -----
// ---------------------

// genInstruction lowers a single IR instruction. Allocas reserve frame slots only and emit no
// code.
func (g *generator) genInstruction(inst lir.Instruction) error {
	switch e1 := inst.(type) {
	case *lir.AllocaInstruction:
		// The frame slot was reserved by buildOffsets.
	case *lir.LoadInstruction:
		g.genLoad(e1)
	case *lir.StoreInstruction:
		g.genStore(e1)
	case *lir.DataInstruction:
		if e1.Opcode() == types.UDiv {
			g.genDiv(e1)
		} else if e1.Opcode() == types.Neg {
			g.genNeg(e1)
		} else {
			g.genArith(e1)
		}
	case *lir.CompareInstruction:
		g.genCompare(e1)
	case *lir.CallInstruction:
		g.genCall(e1)
	case *lir.BranchInstruction:
		if e1.Opcode() == types.CondBr {
			return g.genCondBranch(e1)
		}
		g.wr.Ins1("jmp", g.labels[e1.Then()])
	case *lir.ReturnInstruction:
		g.genReturn(e1)
	default:
		return fmt.Errorf("unsupported instruction %s in function %s", inst.Name(), g.f.Name())
	}
	return nil
}

// genLoad reads the cell of the load's pointer into the destination.
func (g *generator) genLoad(l *lir.LoadInstruction) {
	src := g.mem(g.offsetOf(l.Pointer()))
	if g.inRegister(l) {
		g.wr.Ins2("movl", src, g.loc(l))
		return
	}
	// A spilled destination goes through the scratch register.
	scratch := g.rf.Scratch().String()
	g.wr.Ins2("movl", src, scratch)
	g.wr.Ins2("movl", scratch, g.loc(l))
}

// genStore writes a value to the cell of the store's pointer. The entry store of the
// incoming argument is skipped: the argument already sits in its slot above the frame
// pointer.
func (g *generator) genStore(s *lir.StoreInstruction) {
	if _, isParam := s.Source().(*lir.Param); isParam {
		return
	}
	dst := g.mem(g.offsetOf(s.Pointer()))
	src := g.loc(s.Source())
	if !g.inRegister(s.Source()) {
		if _, isConst := s.Source().(*lir.Constant); !isConst {
			// Memory to memory moves stage through the scratch register.
			scratch := g.rf.Scratch().String()
			g.wr.Ins2("movl", src, scratch)
			src = scratch
		}
	}
	g.wr.Ins2("movl", src, dst)
}

// genArith lowers add, sub and mul in two-operand form: the destination is materialised with
// the left operand, then combined with the right.
func (g *generator) genArith(d *lir.DataInstruction) {
	dst := g.dest(d)
	if lhs := g.loc(d.Operand1()); lhs != dst {
		g.wr.Ins2("movl", lhs, dst)
	}
	g.wr.Ins2(arithOps[d.Opcode()], g.loc(d.Operand2()), dst)
	g.storeBack(d, dst)
}

// genNeg lowers the arithmetic negate.
func (g *generator) genNeg(d *lir.DataInstruction) {
	dst := g.dest(d)
	if op := g.loc(d.Operand1()); op != dst {
		g.wr.Ins2("movl", op, dst)
	}
	g.wr.Ins1("negl", dst)
	g.storeBack(d, dst)
}

// genDiv lowers division with idivl. The divisor is staged on the stack so immediates and
// every register divide uniformly, and EDX is preserved around the sign extension it is
// clobbered by.
func (g *generator) genDiv(d *lir.DataInstruction) {
	edxReg := regNames[edx]
	eaxReg := g.rf.Scratch().String()
	sp := g.rf.SP().String()

	g.wr.Ins1("pushl", edxReg)
	g.wr.Ins1("pushl", g.loc(d.Operand2()))
	g.wr.Ins2("movl", g.loc(d.Operand1()), eaxReg)
	g.wr.Ins0("cltd")
	g.wr.Ins1("idivl", fmt.Sprintf("(%s)", sp))
	g.wr.Ins2("addl", fmt.Sprintf("$%d", wordSize), sp)
	g.wr.Ins1("popl", edxReg)
	if dst := g.loc(d); dst != eaxReg {
		g.wr.Ins2("movl", eaxReg, dst)
	}
}

// genCompare lowers icmp: the left operand is materialised into the destination register and
// compared against the right operand, leaving the flags for the conditional branch of this
// block. The i1 result itself is never stored.
func (g *generator) genCompare(c *lir.CompareInstruction) {
	dst := g.destRegister(c)
	if lhs := g.loc(c.Operand1()); lhs != dst {
		g.wr.Ins2("movl", lhs, dst)
	}
	g.wr.Ins2("cmpl", g.loc(c.Operand2()), dst)
}

// genCall lowers a call under cdecl: the allocatable registers are caller saved around the
// call, the argument is pushed and popped by the caller, and an integer result moves from
// the return register to its location.
func (g *generator) genCall(c *lir.CallInstruction) {
	for _, r := range g.rf.Allocatable() {
		g.wr.Ins1("pushl", r.String())
	}
	if c.Arg() != nil {
		g.wr.Ins1("pushl", g.loc(c.Arg()))
	}
	g.wr.Ins1("call", fmt.Sprintf("%s@PLT", c.Callee().Name()))
	if c.Arg() != nil {
		g.wr.Ins2("addl", fmt.Sprintf("$%d", wordSize), g.rf.SP().String())
	}
	regs := g.rf.Allocatable()
	for i1 := len(regs) - 1; i1 >= 0; i1-- {
		g.wr.Ins1("popl", regs[i1].String())
	}
	if c.Callee().ReturnType() == types.I32 {
		if dst := g.loc(c); dst != g.rf.Ret().String() {
			g.wr.Ins2("movl", g.rf.Ret().String(), dst)
		}
	}
}

// genCondBranch lowers a conditional branch. The condition is the compare instruction of this
// block whose flags are still valid, or an i1 constant after folding, which collapses to an
// unconditional jump.
func (g *generator) genCondBranch(b *lir.BranchInstruction) error {
	if c, ok := b.Cond().(*lir.Constant); ok {
		if c.Value() != 0 {
			g.wr.Ins1("jmp", g.labels[b.Then()])
		} else {
			g.wr.Ins1("jmp", g.labels[b.Else()])
		}
		return nil
	}
	cmp, ok := b.Cond().(*lir.CompareInstruction)
	if !ok {
		return fmt.Errorf("condition %s of branch in function %s is not a comparison",
			b.Cond().Name(), g.f.Name())
	}
	if cmp.Parent() != b.Parent() {
		return fmt.Errorf("comparison %s does not set flags for branch in block %s",
			cmp.Name(), b.Parent().Name())
	}
	g.wr.Ins1(jumpFor(cmp.Predicate()), g.labels[b.Then()])
	g.wr.Ins1("jmp", g.labels[b.Else()])
	return nil
}

// genReturn moves the returned value into the return register, restores the callee saved
// register if the prologue pushed it, and tears the frame down.
func (g *generator) genReturn(r *lir.ReturnInstruction) {
	ret := g.rf.Ret().String()
	if v := g.loc(r.Value()); v != ret {
		g.wr.Ins2("movl", v, ret)
	}
	if g.alloc.UsedCalleeSaved {
		g.wr.Ins2("movl", g.mem(-wordSize), regNames[ebx])
	}
	g.wr.Ins0("leave")
	g.wr.Ins0("ret")
}

// dest returns the register an arithmetic result is computed in: its allocated register, or
// the scratch register for spilled results.
func (g *generator) dest(inst lir.Instruction) string {
	if g.alloc.Spills[inst] {
		return g.rf.Scratch().String()
	}
	return g.loc(inst)
}

// destRegister is dest for instructions whose result may be unused after optimisation; an
// unallocated result computes into the scratch register.
func (g *generator) destRegister(inst lir.Instruction) string {
	if g.inRegister(inst) {
		return g.loc(inst)
	}
	return g.rf.Scratch().String()
}

// storeBack writes a spilled result from the scratch register to its frame slot.
func (g *generator) storeBack(inst lir.Instruction, dst string) {
	if g.alloc.Spills[inst] {
		g.wr.Ins2("movl", dst, g.mem(g.offsets[inst]))
	}
}
