package x86

import (
	"minicc/src/ir/lir/types"
)

// -------------------
// ----- Globals -----
// -------------------

// jumps maps each comparison predicate onto the conditional jump taken when the compare
// cmpl rhs, lhs left flags describing lhs - rhs.
var jumps = map[types.Predicate]string{
	types.Eq:  "je",
	types.Ne:  "jne",
	types.Sgt: "jg",
	types.Sge: "jge",
	types.Slt: "jl",
	types.Sle: "jle",
}

// ---------------------
// ----- Functions -----
// ---------------------

// jumpFor returns the conditional jump mnemonic for predicate p.
func jumpFor(p types.Predicate) string {
	return jumps[p]
}
