package opt

import (
	"minicc/src/ir/lir"
)

// ---------------------
// ----- Functions -----
// ---------------------

// eliminateDeadCode erases, from Block b, every instruction that has no users and no side
// effects. Stores, terminators and calls are side effects; calls are kept conservatively even
// though print and read could be classified further. Marked instructions are collected first
// and erased after the traversal, keeping iteration valid.
func eliminateDeadCode(f *lir.Function, b *lir.Block) bool {
	var toErase []lir.Instruction
	for _, inst := range b.Instructions() {
		if inst.Opcode().HasSideEffects() {
			continue
		}
		if f.HasUsers(inst) {
			continue
		}
		toErase = append(toErase, inst)
	}
	for _, inst := range toErase {
		b.Erase(inst)
	}
	return len(toErase) > 0
}
