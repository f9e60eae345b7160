package lir

import (
	"fmt"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Constant is an integer literal operand. Constants are not instructions: they have no
// identity, no parent block, and equal constants are interchangeable.
type Constant struct {
	typ types.DataType // Either types.I32 or, for folded comparisons, types.I1.
	val int32          // Two's complement 32-bit value. 0 or 1 for i1.
}

// ---------------------
// ----- functions -----
// ---------------------

// ConstInt returns an i32 constant with value v.
func ConstInt(v int32) *Constant {
	return &Constant{typ: types.I32, val: v}
}

// ConstBool returns an i1 constant.
func ConstBool(v bool) *Constant {
	c := &Constant{typ: types.I1}
	if v {
		c.val = 1
	}
	return c
}

// Id returns the marker identifier of constants; constants have no instruction identity.
func (c *Constant) Id() int {
	return constantId
}

// Name returns the literal spelling of Constant c.
func (c *Constant) Name() string {
	if c.typ == types.I1 {
		if c.val != 0 {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%d", c.val)
}

// DataType returns the type of Constant c.
func (c *Constant) DataType() types.DataType {
	return c.typ
}

// Value returns the integer value of Constant c.
func (c *Constant) Value() int32 {
	return c.val
}

// String returns the literal spelling of Constant c.
func (c *Constant) String() string {
	return c.Name()
}
