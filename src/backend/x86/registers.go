// Package x86 lowers the IR to 32-bit x86 assembly in GNU assembler syntax.
package x86

import (
	"minicc/src/backend/regfile"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// register implements regfile.Register for the x86-32 register file.
type register struct {
	id   int    // Index into the register table.
	name string // Assembler spelling, e.g. %ebx.
}

// registerFile implements regfile.RegisterFile for x86-32.
type registerFile struct {
	regs [numRegisters]*register
}

// ---------------------
// ----- Constants -----
// ---------------------

// Register indices. EBX, ECX and EDX are allocatable; EAX is the reserved scratch register
// and carries return values per cdecl.
const (
	ebx = iota
	ecx
	edx
	eax
	ebp
	esp
	numRegisters
)

// allocatable is the number of registers the allocator may hand out.
const allocatable = 3

// -------------------
// ----- Globals -----
// -------------------

// regNames holds the assembler spelling per register index.
var regNames = [numRegisters]string{
	"%ebx",
	"%ecx",
	"%edx",
	"%eax",
	"%ebp",
	"%esp",
}

// ---------------------
// ----- Functions -----
// ---------------------

// CreateRegisterFile returns the x86-32 register file.
func CreateRegisterFile() regfile.RegisterFile {
	rf := &registerFile{}
	for i1 := 0; i1 < numRegisters; i1++ {
		rf.regs[i1] = &register{id: i1, name: regNames[i1]}
	}
	return rf
}

// Id returns the register table index of register r.
func (r *register) Id() int {
	return r.id
}

// String returns the assembler spelling of register r.
func (r *register) String() string {
	return r.name
}

// SP returns the stack pointer register.
func (rf *registerFile) SP() regfile.Register {
	return rf.regs[esp]
}

// FP returns the frame pointer register.
func (rf *registerFile) FP() regfile.Register {
	return rf.regs[ebp]
}

// Scratch returns the reserved scratch register. It is never allocated; the code generator
// uses it to stage memory to memory moves and spilled results.
func (rf *registerFile) Scratch() regfile.Register {
	return rf.regs[eax]
}

// Ret returns the return value register of the cdecl calling convention.
func (rf *registerFile) Ret() regfile.Register {
	return rf.regs[eax]
}

// Allocatable returns the allocatable registers in allocation order.
func (rf *registerFile) Allocatable() []regfile.Register {
	return []regfile.Register{rf.regs[ebx], rf.regs[ecx], rf.regs[edx]}
}

// CalleeSaved returns true if register r must be preserved by the function that uses it.
// Of the allocatable registers only EBX is callee saved under cdecl.
func (rf *registerFile) CalleeSaved(r regfile.Register) bool {
	return r.Id() == ebx
}

// K returns the number of allocatable registers.
func (rf *registerFile) K() int {
	return allocatable
}
