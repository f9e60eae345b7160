// Package opt implements the optimiser: reaching-definitions based constant propagation over
// whole functions, and per-block constant folding, common subexpression elimination and dead
// code elimination, iterated to a fixpoint.
//
// Every pass either erases instructions or redirects uses to constants or earlier values, so
// the instruction count never grows and the loop terminates.
package opt

import (
	"minicc/src/ir/lir"
)

// ---------------------
// ----- Functions -----
// ---------------------

// Optimise runs the optimiser over every function of Module m until a full round changes
// nothing.
func Optimise(m *lir.Module) {
	for _, f := range m.Functions() {
		optimiseFunction(f)
	}
}

// optimiseFunction iterates the passes over Function f until none of them reports a change.
// The whole-function constant propagation runs first each round, then the local passes per
// block, mirroring their order of dependence: propagation exposes foldable operands, folding
// exposes dead instructions.
func optimiseFunction(f *lir.Function) {
	for changed := true; changed; {
		changed = false

		changed = propagateConstants(f) || changed

		for _, b := range f.Blocks() {
			changed = foldConstants(f, b) || changed
			changed = eliminateSubexpressions(f, b) || changed
			changed = eliminateDeadCode(f, b) || changed
		}
	}
}
