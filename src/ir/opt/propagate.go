package opt

import (
	"minicc/src/ir/lir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// storeSet is a set of store instructions; the element type of the reaching-definitions
// lattice. Definitions are stores, the memory cell of a definition is its pointer operand.
type storeSet map[*lir.StoreInstruction]bool

// ---------------------
// ----- Functions -----
// ---------------------

// propagateConstants runs the reaching-definitions constant propagation over Function f: a
// load whose reaching stores all write the same constant is replaced by that constant.
// Returns true iff any load was replaced.
func propagateConstants(f *lir.Function) bool {
	// Group the function's stores by the cell they write.
	storesByCell := make(map[lir.Value][]*lir.StoreInstruction, 8)
	for _, b := range f.Blocks() {
		for _, inst := range b.Instructions() {
			if s, ok := inst.(*lir.StoreInstruction); ok {
				storesByCell[s.Pointer()] = append(storesByCell[s.Pointer()], s)
			}
		}
	}

	gen, kill := buildGenKill(f, storesByCell)
	in := solveDataflow(f, gen, kill)

	// Rewrite phase: simulate the reaching definitions through each block and replace loads
	// covered by a single constant. Replaced loads are erased after their block's walk.
	changed := false
	for _, b := range f.Blocks() {
		r := in[b].clone()
		var toErase []lir.Instruction
		for _, inst := range b.Instructions() {
			switch e1 := inst.(type) {
			case *lir.StoreInstruction:
				for _, k := range storesByCell[e1.Pointer()] {
					if k != e1 {
						delete(r, k)
					}
				}
				r[e1] = true
			case *lir.LoadInstruction:
				if c := reachingConstant(e1, storesByCell, r); c != nil {
					f.ReplaceAllUsesWith(e1, c)
					toErase = append(toErase, e1)
					changed = true
				}
			}
		}
		for _, inst := range toErase {
			b.Erase(inst)
		}
	}
	return changed
}

// buildGenKill computes the gen and kill sets per basic block. gen[B] holds the stores of B
// not overwritten later within B; kill[B] holds every store in the function writing a cell
// that some store of B also writes, excluding B's own surviving stores.
func buildGenKill(f *lir.Function, storesByCell map[lir.Value][]*lir.StoreInstruction) (map[*lir.Block]storeSet, map[*lir.Block]storeSet) {
	gen := make(map[*lir.Block]storeSet, len(f.Blocks()))
	kill := make(map[*lir.Block]storeSet, len(f.Blocks()))

	for _, b := range f.Blocks() {
		gen[b] = storeSet{}
		kill[b] = storeSet{}
		for _, inst := range b.Instructions() {
			s, ok := inst.(*lir.StoreInstruction)
			if !ok {
				continue
			}
			gen[b][s] = true
			for _, other := range storesByCell[s.Pointer()] {
				if other == s {
					continue
				}
				kill[b][other] = true
				// A store of this block overwritten by a later one moves from the gen
				// set to the kill set.
				delete(gen[b], other)
			}
		}
		for s := range gen[b] {
			delete(kill[b], s)
		}
	}
	return gen, kill
}

// solveDataflow iterates the forward may-reach equations to their fixpoint and returns the
// IN set per block: IN[B] = union of OUT[P] over predecessors, OUT[B] = (IN[B] - kill[B])
// union gen[B]. The lattice is finite and the transfer is monotonic, so iteration terminates.
func solveDataflow(f *lir.Function, gen, kill map[*lir.Block]storeSet) map[*lir.Block]storeSet {
	preds := f.Predecessors()
	in := make(map[*lir.Block]storeSet, len(f.Blocks()))
	out := make(map[*lir.Block]storeSet, len(f.Blocks()))
	for _, b := range f.Blocks() {
		in[b] = storeSet{}
		out[b] = gen[b].clone()
	}

	for changed := true; changed; {
		changed = false
		for _, b := range f.Blocks() {
			newIn := storeSet{}
			for _, p := range preds[b] {
				for s := range out[p] {
					newIn[s] = true
				}
			}
			in[b] = newIn

			newOut := storeSet{}
			for s := range newIn {
				if !kill[b][s] {
					newOut[s] = true
				}
			}
			for s := range gen[b] {
				newOut[s] = true
			}
			if !newOut.equal(out[b]) {
				out[b] = newOut
				changed = true
			}
		}
	}
	return in
}

// reachingConstant returns the constant every reaching store of the load's cell writes, or
// nil if the reaching set is empty or the stores disagree or write non-constants.
func reachingConstant(l *lir.LoadInstruction, storesByCell map[lir.Value][]*lir.StoreInstruction, r storeSet) *lir.Constant {
	var first *lir.Constant
	n := 0
	for _, s := range storesByCell[l.Pointer()] {
		if !r[s] {
			continue
		}
		c, ok := s.Source().(*lir.Constant)
		if !ok {
			return nil
		}
		if first == nil {
			first = c
		} else if c.Value() != first.Value() {
			return nil
		}
		n++
	}
	if n == 0 {
		return nil
	}
	return first
}

// ---------------------------
// ----- storeSet logic ------
// ---------------------------

func (s storeSet) clone() storeSet {
	c := make(storeSet, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

func (s storeSet) equal(o storeSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}
