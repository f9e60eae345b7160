// Package lir provides the register allocator that maps IR values onto the physical
// registers of the target register file.
package lir

import (
	"minicc/src/backend/regfile"
	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Allocation is the result of register allocation for one function: every value-producing
// instruction is mapped to either a physical register or a spill slot, and UsedCalleeSaved
// records whether a callee saved register was ever handed out, so the code generator can
// decide whether to preserve it in the prologue.
type Allocation struct {
	Regs            map[lir.Instruction]regfile.Register // Values assigned a physical register.
	Spills          map[lir.Instruction]bool             // Values assigned a stack slot.
	UsedCalleeSaved bool
}

// ---------------------
// ----- Functions -----
// ---------------------

// AllocateRegisters runs the per-block linear scan over every basic block of Function f and
// merges the block assignments into one function-wide Allocation. Allocation is block local:
// every value the builder produces is consumed within its defining block, and variables live
// across blocks are memory cells.
func AllocateRegisters(f *lir.Function, rf regfile.RegisterFile) Allocation {
	a := Allocation{
		Regs:   make(map[lir.Instruction]regfile.Register, 32),
		Spills: make(map[lir.Instruction]bool, 8),
	}
	for _, b := range f.Blocks() {
		allocateBlock(b, rf, &a)
	}
	return a
}

// allocateBlock runs the linear scan over a single basic block.
func allocateBlock(b *lir.Block, rf regfile.RegisterFile, a *Allocation) {
	// Instruction indexing: allocas are memory, not register candidates.
	idx := make([]lir.Instruction, 0, len(b.Instructions()))
	for _, inst := range b.Instructions() {
		if inst.Opcode() != types.Alloca {
			idx = append(idx, inst)
		}
	}

	// Liveness: the sorted indices at which each block-local value is defined or used. Only
	// values first produced within this block have a local live range.
	live := make(map[lir.Instruction][]int, len(idx))
	for i1, inst := range idx {
		if lir.HasResult(inst) {
			live[inst] = []int{i1}
		}
		for _, e1 := range inst.Operands() {
			if op, ok := e1.(lir.Instruction); ok {
				if l, ok2 := live[op]; ok2 {
					live[op] = append(l, i1)
				}
			}
		}
	}

	lastUse := func(v lir.Instruction) int {
		l := live[v]
		return l[len(l)-1]
	}
	// remaining counts the uses of v strictly behind index i.
	remaining := func(v lir.Instruction, i int) int {
		n := 0
		for _, e1 := range live[v] {
			if e1 > i {
				n++
			}
		}
		return n
	}

	avail := append([]regfile.Register{}, rf.Allocatable()...)
	assigned := make(map[lir.Instruction]regfile.Register, rf.K())

	take := func(inst lir.Instruction, r regfile.Register) {
		assigned[inst] = r
		a.Regs[inst] = r
		if rf.CalleeSaved(r) {
			a.UsedCalleeSaved = true
		}
	}
	release := func(i int) {
		for v, r := range assigned {
			if lastUse(v) <= i {
				avail = append(avail, r)
				delete(assigned, v)
			}
		}
	}

	for i1, inst := range idx {
		if !lir.HasResult(inst) {
			release(i1)
			continue
		}

		// Two-operand reuse: when the first operand of an arithmetic instruction dies here
		// and holds a register, the result takes that register. This mirrors the x86
		// two-operand form, where the destination starts out holding the left operand.
		reused := false
		switch inst.Opcode() {
		case types.Add, types.Sub, types.Mul:
			d := inst.(*lir.DataInstruction)
			if op1, ok := d.Operand1().(lir.Instruction); ok {
				if r, ok2 := assigned[op1]; ok2 && lastUse(op1) == i1 {
					delete(assigned, op1)
					take(inst, r)
					reused = true
				}
			}
		}

		if !reused {
			if len(avail) > 0 {
				r := avail[0]
				avail = avail[1:]
				take(inst, r)
			} else {
				spill(inst, i1, assigned, remaining, a)
			}
		}
		release(i1)
	}
}

// spill resolves register pressure at instruction inst: the currently assigned value with the
// fewest remaining uses is the victim. If the victim has fewer remaining uses than inst, the
// victim moves to a stack slot and its register is reassigned to inst; otherwise inst itself
// is spilled. A spilled value lives in memory over its whole range.
func spill(inst lir.Instruction, i int, assigned map[lir.Instruction]regfile.Register,
	remaining func(lir.Instruction, int) int, a *Allocation) {

	var victim lir.Instruction
	vuses := 0
	for v := range assigned {
		if n := remaining(v, i); victim == nil || n < vuses {
			victim = v
			vuses = n
		}
	}
	if victim != nil && vuses < remaining(inst, i) {
		r := assigned[victim]
		delete(assigned, victim)
		delete(a.Regs, victim)
		a.Spills[victim] = true
		assigned[inst] = r
		a.Regs[inst] = r
		return
	}
	a.Spills[inst] = true
}
