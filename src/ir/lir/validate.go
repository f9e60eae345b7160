package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// availSet tracks which values are available at a program point during the structural
// dominance check. The universe flag stands in for "all values"; it is the starting
// assumption for blocks not yet reached by the forward iteration.
type availSet struct {
	universe bool
	m        map[Value]bool
}

// ---------------------
// ----- functions -----
// ---------------------

// Validate checks the well-formedness invariants of Module m: terminator uniqueness, operand
// typing and structural dominance of operand definitions. A nil return means the module may
// be handed to the optimiser and the back end. A violation indicates a compiler bug, not a
// user error.
func Validate(m *Module) error {
	for _, f := range m.functions {
		if err := validateFunction(f); err != nil {
			return err
		}
	}
	return nil
}

// validateFunction checks terminators and operand availability for a single function.
func validateFunction(f *Function) error {
	if len(f.blocks) == 0 {
		return fmt.Errorf("function %s has no basic blocks", f.name)
	}

	// Terminator uniqueness: exactly one terminator, and it is the last instruction.
	for _, b := range f.blocks {
		if !b.Terminated() {
			return fmt.Errorf("function %s: block %s is not terminated", f.name, b.Name())
		}
		for i1, e1 := range b.instructions {
			last := i1 == len(b.instructions)-1
			if e1.Opcode().IsTerminator() != last {
				if last {
					return fmt.Errorf("function %s: block %s does not end in a terminator",
						f.name, b.Name())
				}
				return fmt.Errorf("function %s: block %s holds terminator %s before its end",
					f.name, b.Name(), e1.Name())
			}
		}
	}

	// Structural dominance: a forward must-availability iteration. A value is available on
	// entry to a block only if it is available at the exit of every predecessor. The builder
	// emits single-entry single-exit regions, so the fixpoint of this iteration is the
	// dominance relation restricted to what operands may legally reference.
	preds := f.Predecessors()
	in := make(map[*Block]*availSet, len(f.blocks))
	for _, b := range f.blocks {
		in[b] = &availSet{universe: true}
	}
	entry := f.Entry()
	in[entry] = &availSet{m: map[Value]bool{f.param: true}}

	for changed := true; changed; {
		changed = false
		for _, b := range f.blocks {
			if b == entry {
				continue
			}
			next := &availSet{universe: true}
			for _, p := range preds[b] {
				next.intersect(blockOut(p, in[p]))
			}
			if !next.equal(in[b]) {
				in[b] = next
				changed = true
			}
		}
	}

	// Check every operand against what is available at its use.
	for _, b := range f.blocks {
		avail := in[b].clone()
		for _, inst := range b.instructions {
			for _, e1 := range inst.Operands() {
				switch e1.(type) {
				case *Constant:
					// Constants are always available.
				default:
					if !avail.has(e1) {
						return fmt.Errorf("function %s: block %s: operand %s of %s does not dominate its use",
							f.name, b.Name(), e1.Name(), inst.Name())
					}
				}
			}
			if err := checkTypes(inst); err != nil {
				return fmt.Errorf("function %s: block %s: %s", f.name, b.Name(), err)
			}
			if HasResult(inst) {
				avail.add(inst)
			}
		}
	}
	return nil
}

// checkTypes verifies the operand and result typing rules of a single instruction.
func checkTypes(inst Instruction) error {
	switch inst.Opcode() {
	case types.Add, types.Sub, types.Mul, types.UDiv, types.Neg, types.ICmp:
		for _, e1 := range inst.Operands() {
			if e1.DataType() != types.I32 {
				return fmt.Errorf("operand %s of %s is not i32", e1.Name(), inst.Name())
			}
		}
	case types.Load:
		if inst.(*LoadInstruction).src.DataType() != types.Pointer {
			return fmt.Errorf("pointer operand of %s is not a pointer", inst.Name())
		}
	case types.Store:
		s := inst.(*StoreInstruction)
		if s.src.DataType() != types.I32 {
			return fmt.Errorf("stored value of %s is not i32", inst.Name())
		}
		if s.dst.DataType() != types.Pointer {
			return fmt.Errorf("pointer operand of %s is not a pointer", inst.Name())
		}
	case types.CondBr:
		if inst.(*BranchInstruction).cond.DataType() != types.I1 {
			return fmt.Errorf("condition of %s is not i1", inst.Name())
		}
	case types.Ret:
		if inst.(*ReturnInstruction).val.DataType() != types.I32 {
			return fmt.Errorf("return value of %s is not i32", inst.Name())
		}
	}
	return nil
}

// --------------------------
// ----- availSet logic -----
// --------------------------

// blockOut returns the availability at the exit of block b given availability in at its entry.
func blockOut(b *Block, in *availSet) *availSet {
	if in.universe {
		return in
	}
	out := in.clone()
	for _, inst := range b.instructions {
		if HasResult(inst) {
			out.add(inst)
		}
	}
	return out
}

func (s *availSet) clone() *availSet {
	if s.universe {
		return &availSet{universe: true}
	}
	m := make(map[Value]bool, len(s.m))
	for k := range s.m {
		m[k] = true
	}
	return &availSet{m: m}
}

func (s *availSet) add(v Value) {
	if s.universe {
		return
	}
	if s.m == nil {
		s.m = make(map[Value]bool)
	}
	s.m[v] = true
}

func (s *availSet) has(v Value) bool {
	return s.universe || s.m[v]
}

func (s *availSet) intersect(o *availSet) {
	if o.universe {
		return
	}
	if s.universe {
		s.universe = false
		s.m = make(map[Value]bool, len(o.m))
		for k := range o.m {
			s.m[k] = true
		}
		return
	}
	for k := range s.m {
		if !o.m[k] {
			delete(s.m, k)
		}
	}
}

func (s *availSet) equal(o *availSet) bool {
	if s.universe || o.universe {
		return s.universe == o.universe
	}
	if len(s.m) != len(o.m) {
		return false
	}
	for k := range s.m {
		if !o.m[k] {
			return false
		}
	}
	return true
}
