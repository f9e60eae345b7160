package lir

import (
	"fmt"
	"strings"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Module defines a compiled program: its external declarations and its functions.
type Module struct {
	Name      string      // Name of module; the source file name.
	Target    string      // Target triple recorded in the textual IR.
	externs   []*Extern   // External function declarations, resolved at link time.
	functions []*Function // Functions defined in the module.
}

// Extern defines an externally linked function: a name and a signature, no body.
type Extern struct {
	name   string           // Linker name of the function.
	rtyp   types.DataType   // Return type.
	params []types.DataType // Parameter types.
}

// ---------------------
// ----- Constants -----
// ---------------------

// defaultTarget is the triple recorded when the creator does not supply one.
const defaultTarget = "i386-pc-linux-gnu"

// ---------------------
// ----- functions -----
// ---------------------

// CreateModule creates a new empty module with the given name.
func CreateModule(name string) *Module {
	m := Module{
		externs:   make([]*Extern, 0, 2),
		functions: make([]*Function, 0, 1),
	}
	if len(name) > 0 {
		m.Name = name
	} else {
		m.Name = "module"
	}
	m.Target = defaultTarget
	return &m
}

// CreateExtern declares an external function with return type rtyp and parameter types params.
func (m *Module) CreateExtern(name string, rtyp types.DataType, params ...types.DataType) *Extern {
	e := &Extern{
		name:   name,
		rtyp:   rtyp,
		params: params,
	}
	m.externs = append(m.externs, e)
	return e
}

// CreateFunction creates a new empty function with signature i32(i32) and the given name.
// MiniC functions always carry one integer parameter in their signature, named or not.
func (m *Module) CreateFunction(name string) *Function {
	f := &Function{
		m:      m,
		name:   name,
		rtyp:   types.I32,
		blocks: make([]*Block, 0, 8),
	}
	f.param = &Param{f: f, id: f.getId()}
	m.functions = append(m.functions, f)
	return f
}

// Externs returns the external declarations of Module m.
func (m *Module) Externs() []*Extern {
	return m.externs
}

// Functions returns the functions defined in Module m.
func (m *Module) Functions() []*Function {
	return m.functions
}

// GetExtern returns the named external declaration of Module m, if it exists. If no extern
// with the given name exists, nil is returned.
func (m *Module) GetExtern(name string) *Extern {
	for _, e1 := range m.externs {
		if e1.name == name {
			return e1
		}
	}
	return nil
}

// GetFunction returns the named function of Module m, if it exists. If no function with the
// given name exists, nil is returned.
func (m *Module) GetFunction(name string) *Function {
	for _, e1 := range m.functions {
		if e1.name == name {
			return e1
		}
	}
	return nil
}

// String returns the textual IR representation of the module.
func (m *Module) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("; ModuleID = '%s'\n", m.Name))
	sb.WriteString(fmt.Sprintf("source_filename = %q\n", m.Name))
	sb.WriteString(fmt.Sprintf("target triple = %q\n", m.Target))

	for _, e1 := range m.externs {
		sb.WriteRune('\n')
		sb.WriteString(e1.String())
		sb.WriteRune('\n')
	}
	for _, e1 := range m.functions {
		sb.WriteRune('\n')
		sb.WriteString(e1.String())
	}
	return sb.String()
}

// -------------------------
// ----- Extern methods -----
// -------------------------

// Name returns the linker name of Extern e.
func (e *Extern) Name() string {
	return e.name
}

// ReturnType returns the return type of Extern e.
func (e *Extern) ReturnType() types.DataType {
	return e.rtyp
}

// Params returns the parameter types of Extern e.
func (e *Extern) Params() []types.DataType {
	return e.params
}

// String returns the textual IR declaration of Extern e.
func (e *Extern) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("declare %s @%s(", e.rtyp.String(), e.name))
	for i1, e1 := range e.params {
		sb.WriteString(e1.String())
		if i1 < len(e.params)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteRune(')')
	return sb.String()
}
