package opt

import (
	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
)

// ---------------------
// ----- Functions -----
// ---------------------

// eliminateSubexpressions redirects, within Block b, every instruction that recomputes an
// earlier instruction's result to that earlier instruction. Loads additionally require that no
// store in between writes their cell; the scan is intra-block, which keeps the pass local.
// Returns true iff any use was redirected.
func eliminateSubexpressions(f *lir.Function, b *lir.Block) bool {
	prior := make(map[types.Opcode][]lir.Instruction, 8)
	changed := false

	for _, inst := range b.Instructions() {
		switch inst.Opcode() {
		case types.Alloca:
			// An alloca's value identity is its purpose; never merge.
			continue
		case types.Store, types.Call, types.Br, types.CondBr, types.Ret:
			// Side effects are never CSE candidates.
			continue
		}

		op := inst.Opcode()
		for _, prev := range prior[op] {
			if !f.HasUsers(prev) {
				continue
			}
			if !equivalent(prev, inst) {
				continue
			}
			if op == types.Load && !safeToMergeLoads(b, prev, inst) {
				continue
			}
			f.ReplaceAllUsesWith(inst, prev)
			changed = true
			break
		}
		prior[op] = append(prior[op], inst)
	}
	return changed
}

// equivalent reports whether two instructions of the same opcode compute the same value:
// same operand count, operands pairwise identical, and for compares the same predicate.
func equivalent(a, b lir.Instruction) bool {
	if ca, ok := a.(*lir.CompareInstruction); ok {
		if ca.Predicate() != b.(*lir.CompareInstruction).Predicate() {
			return false
		}
	}
	aops, bops := a.Operands(), b.Operands()
	if len(aops) != len(bops) {
		return false
	}
	for i1 := range aops {
		if !lir.SameValue(aops[i1], bops[i1]) {
			return false
		}
		if aops[i1].DataType() != bops[i1].DataType() {
			return false
		}
	}
	return true
}

// safeToMergeLoads scans Block b from the earlier load up to, but not including, the later
// one and reports whether the loaded cell is left unmodified: no intervening store writes the
// load's pointer.
func safeToMergeLoads(b *lir.Block, earlier, later lir.Instruction) bool {
	ptr := earlier.(*lir.LoadInstruction).Pointer()
	scanning := false
	for _, inst := range b.Instructions() {
		if inst == earlier {
			scanning = true
			continue
		}
		if inst == later {
			break
		}
		if !scanning {
			continue
		}
		if s, ok := inst.(*lir.StoreInstruction); ok && lir.SameValue(s.Pointer(), ptr) {
			return false
		}
	}
	return true
}
