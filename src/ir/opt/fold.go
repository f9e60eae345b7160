package opt

import (
	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
)

// ---------------------
// ----- Functions -----
// ---------------------

// foldConstants replaces, within Block b, every arithmetic and compare instruction whose
// operands are all integer constants by the computed constant. The folded instruction is left
// in place for dead code elimination to erase. Returns true iff any replacement occurred.
func foldConstants(f *lir.Function, b *lir.Block) bool {
	changed := false
	for _, inst := range b.Instructions() {
		switch inst.Opcode() {
		case types.Add, types.Sub, types.Mul, types.UDiv, types.Neg, types.ICmp:
			if !f.HasUsers(inst) {
				// Nothing references the result; leave it for dead code elimination.
				continue
			}
			if c := foldInstruction(inst); c != nil {
				f.ReplaceAllUsesWith(inst, c)
				changed = true
			}
		}
	}
	return changed
}

// foldInstruction computes the constant result of inst if all its operands are constants,
// using two's complement 32-bit arithmetic. Returns nil when the instruction cannot fold.
func foldInstruction(inst lir.Instruction) *lir.Constant {
	ops := inst.Operands()
	vals := make([]int32, len(ops))
	for i1, e1 := range ops {
		c, ok := e1.(*lir.Constant)
		if !ok {
			return nil
		}
		vals[i1] = c.Value()
	}

	switch inst.Opcode() {
	case types.Add:
		return lir.ConstInt(vals[0] + vals[1])
	case types.Sub:
		return lir.ConstInt(vals[0] - vals[1])
	case types.Mul:
		return lir.ConstInt(vals[0] * vals[1])
	case types.UDiv:
		if vals[1] == 0 {
			// Division by a constant zero is undefined; keep the instruction and let the
			// generated code trap at run time.
			return nil
		}
		return lir.ConstInt(vals[0] / vals[1])
	case types.Neg:
		return lir.ConstInt(-vals[0])
	case types.ICmp:
		cmp := inst.(*lir.CompareInstruction)
		a, b := vals[0], vals[1]
		switch cmp.Predicate() {
		case types.Slt:
			return lir.ConstBool(a < b)
		case types.Sgt:
			return lir.ConstBool(a > b)
		case types.Sle:
			return lir.ConstBool(a <= b)
		case types.Sge:
			return lir.ConstBool(a >= b)
		case types.Eq:
			return lir.ConstBool(a == b)
		default:
			return lir.ConstBool(a != b)
		}
	}
	return nil
}
