// parse.go reads the textual IR subset this compiler emits. The textual format is the
// serialization contract between the pipeline stages: the driver accepts a .ll file and runs
// only the optimiser and the back end over it.

package lir

import (
	"fmt"
	"strconv"
	"strings"

	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// moduleParser holds the state of one ParseModule run.
type moduleParser struct {
	m      *Module
	f      *Function         // Function currently being read.
	cur    *Block            // Block instructions are appended to.
	blocks map[string]*Block // Label to block of the current function.
	values map[string]Value  // Textual value name to Value of the current function.
	line   int               // Current line number for diagnostics.
}

// ---------------------
// ----- functions -----
// ---------------------

// ParseModule parses the textual IR subset emitted by Module.String. The input must define
// whole functions; forward references to block labels are allowed, forward references to
// values are not, mirroring the dominance invariant. Builder assertions tripped by malformed
// input, like an instruction behind a terminator, surface as errors rather than panics: the
// input is user supplied here.
func ParseModule(src string) (m *Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("malformed IR: %v", r)
		}
	}()
	return parseModule(src)
}

func parseModule(src string) (*Module, error) {
	p := &moduleParser{
		m: CreateModule("module"),
	}
	lines := strings.Split(src, "\n")

	for i1 := 0; i1 < len(lines); i1++ {
		p.line = i1 + 1
		s := strings.TrimSpace(lines[i1])
		switch {
		case len(s) == 0 || strings.HasPrefix(s, ";"):
			// Blank line or comment.
		case strings.HasPrefix(s, "source_filename"):
			if name, err := unquote(s); err == nil {
				p.m.Name = name
			}
		case strings.HasPrefix(s, "target triple"):
			if triple, err := unquote(s); err == nil {
				p.m.Target = triple
			}
		case strings.HasPrefix(s, "declare "):
			if err := p.parseDeclare(s); err != nil {
				return nil, err
			}
		case strings.HasPrefix(s, "define "):
			// Scan ahead for the labels of the function body so branches can reference
			// blocks before their label line has been read.
			if err := p.beginFunction(s, lines[i1+1:]); err != nil {
				return nil, err
			}
		case s == "}":
			if p.f == nil {
				return nil, p.errorf("unmatched '}'")
			}
			p.f, p.cur, p.blocks, p.values = nil, nil, nil, nil
		case strings.HasSuffix(s, ":"):
			label := strings.TrimSuffix(s, ":")
			b, ok := p.blocks[label]
			if !ok {
				return nil, p.errorf("unknown label %q", label)
			}
			p.cur = b
		default:
			if p.f == nil {
				return nil, p.errorf("instruction outside function body: %s", s)
			}
			if err := p.parseInstruction(s); err != nil {
				return nil, err
			}
		}
	}
	if p.f != nil {
		return nil, fmt.Errorf("unterminated function %s", p.f.Name())
	}
	return p.m, nil
}

// errorf builds a diagnostic carrying the current line number.
func (p *moduleParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", p.line, fmt.Sprintf(format, args...))
}

// unquote extracts the first double quoted string of line s.
func unquote(s string) (string, error) {
	i1 := strings.IndexRune(s, '"')
	i2 := strings.LastIndex(s, "\"")
	if i1 < 0 || i2 <= i1 {
		return "", fmt.Errorf("no quoted string in %q", s)
	}
	return s[i1+1 : i2], nil
}

// parseDeclare reads an external function declaration.
func (p *moduleParser) parseDeclare(s string) error {
	// declare void @print(i32)
	// declare i32 @read()
	rest := strings.TrimPrefix(s, "declare ")
	open := strings.IndexRune(rest, '(')
	close_ := strings.LastIndex(rest, ")")
	if open < 0 || close_ < open {
		return p.errorf("malformed declare: %s", s)
	}
	head := strings.Fields(rest[:open])
	if len(head) != 2 || !strings.HasPrefix(head[1], "@") {
		return p.errorf("malformed declare: %s", s)
	}
	rtyp, err := p.parseType(head[0])
	if err != nil {
		return err
	}
	name := strings.TrimPrefix(head[1], "@")
	params := make([]types.DataType, 0, 1)
	for _, e1 := range splitOperands(rest[open+1 : close_]) {
		t, err := p.parseType(strings.Fields(e1)[0])
		if err != nil {
			return err
		}
		params = append(params, t)
	}
	p.m.CreateExtern(name, rtyp, params...)
	return nil
}

// beginFunction reads a define line and pre-creates the blocks of its body.
func (p *moduleParser) beginFunction(s string, body []string) error {
	// define i32 @f(i32 %0) {
	open := strings.IndexRune(s, '(')
	at := strings.IndexRune(s, '@')
	if open < 0 || at < 0 || at > open {
		return p.errorf("malformed define: %s", s)
	}
	name := s[at+1 : open]
	p.f = p.m.CreateFunction(name)
	p.blocks = make(map[string]*Block, 8)
	p.values = make(map[string]Value, 32)

	// Bind the parameter's textual name.
	close_ := strings.IndexRune(s, ')')
	if close_ < open {
		return p.errorf("malformed define: %s", s)
	}
	args := strings.Fields(s[open+1 : close_])
	if len(args) == 2 {
		p.values[args[1]] = p.f.Param()
	}

	// Pre-create one block per label up to the closing brace.
	for _, e1 := range body {
		t := strings.TrimSpace(e1)
		if t == "}" {
			break
		}
		if strings.HasSuffix(t, ":") && !strings.HasPrefix(t, ";") {
			label := strings.TrimSuffix(t, ":")
			if _, ok := p.blocks[label]; ok {
				return p.errorf("duplicate label %q", label)
			}
			p.blocks[label] = p.f.CreateBlock()
		}
	}
	p.cur = p.f.Entry()
	return nil
}

// parseInstruction reads one instruction line into the current block.
func (p *moduleParser) parseInstruction(s string) error {
	if p.cur == nil {
		return p.errorf("instruction before first label: %s", s)
	}

	// Split off the optional result binding.
	var result string
	if strings.HasPrefix(s, "%") {
		eq := strings.Index(s, " = ")
		if eq < 0 {
			return p.errorf("malformed instruction: %s", s)
		}
		result = s[:eq]
		s = s[eq+3:]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return p.errorf("empty instruction")
	}

	var v Value
	var err error
	switch fields[0] {
	case "alloca":
		v = p.cur.CreateAlloca(result)
	case "load":
		// load i32, i32* %p, align 4
		ops := splitOperands(strings.TrimPrefix(s, "load "))
		if len(ops) < 2 {
			return p.errorf("malformed load: %s", s)
		}
		ptr, err := p.parseOperand(ops[1])
		if err != nil {
			return err
		}
		v = p.cur.CreateLoad(ptr)
	case "store":
		// store i32 %v, i32* %p, align 4
		ops := splitOperands(strings.TrimPrefix(s, "store "))
		if len(ops) < 2 {
			return p.errorf("malformed store: %s", s)
		}
		src, err := p.parseOperand(ops[0])
		if err != nil {
			return err
		}
		dst, err := p.parseOperand(ops[1])
		if err != nil {
			return err
		}
		p.cur.CreateStore(src, dst)
	case "add", "sub", "mul", "udiv":
		ops := splitOperands(strings.TrimPrefix(s, fields[0]+" "))
		if len(ops) != 2 {
			return p.errorf("malformed %s: %s", fields[0], s)
		}
		op1, err := p.parseOperand(ops[0])
		if err != nil {
			return err
		}
		op2, err := p.parseOperand(ops[1])
		if err != nil {
			return err
		}
		switch fields[0] {
		case "add":
			v = p.cur.CreateAdd(op1, op2)
		case "sub":
			v = p.cur.CreateSub(op1, op2)
		case "mul":
			v = p.cur.CreateMul(op1, op2)
		case "udiv":
			v = p.cur.CreateDiv(op1, op2)
		}
	case "icmp":
		// icmp slt i32 %a, %b
		if len(fields) < 3 {
			return p.errorf("malformed icmp: %s", s)
		}
		pred, err := p.parsePredicate(fields[1])
		if err != nil {
			return err
		}
		ops := splitOperands(strings.TrimPrefix(s, "icmp "+fields[1]+" "))
		if len(ops) != 2 {
			return p.errorf("malformed icmp: %s", s)
		}
		op1, err := p.parseOperand(ops[0])
		if err != nil {
			return err
		}
		op2, err := p.parseOperand(ops[1])
		if err != nil {
			return err
		}
		v = p.cur.CreateICmp(pred, op1, op2)
	case "br":
		if len(fields) < 3 {
			return p.errorf("malformed br: %s", s)
		}
		if fields[1] == "label" {
			// br label %b2
			dst, err := p.parseLabel(fields[2])
			if err != nil {
				return err
			}
			p.cur.CreateBr(dst)
			break
		}
		// br i1 %c, label %b1, label %b2
		ops := splitOperands(strings.TrimPrefix(s, "br "))
		if len(ops) != 3 {
			return p.errorf("malformed conditional br: %s", s)
		}
		cond, err := p.parseOperand(ops[0])
		if err != nil {
			return err
		}
		thn, err := p.parseLabel(strings.Fields(ops[1])[1])
		if err != nil {
			return err
		}
		els, err := p.parseLabel(strings.Fields(ops[2])[1])
		if err != nil {
			return err
		}
		p.cur.CreateCondBr(cond, thn, els)
	case "call":
		v, err = p.parseCall(s)
		if err != nil {
			return err
		}
	case "ret":
		ops := splitOperands(strings.TrimPrefix(s, "ret "))
		if len(ops) != 1 {
			return p.errorf("malformed ret: %s", s)
		}
		val, err := p.parseOperand(ops[0])
		if err != nil {
			return err
		}
		p.cur.CreateRet(val)
	default:
		return p.errorf("unexpected instruction: %s", s)
	}

	if len(result) > 0 {
		if v == nil {
			return p.errorf("instruction produces no result to bind to %s", result)
		}
		p.values[result] = v
	}
	return nil
}

// parseCall reads a call instruction.
func (p *moduleParser) parseCall(s string) (Value, error) {
	// call void @print(i32 %v) | call i32 @read()
	at := strings.IndexRune(s, '@')
	open := strings.IndexRune(s, '(')
	close_ := strings.LastIndex(s, ")")
	if at < 0 || open < at || close_ < open {
		return nil, p.errorf("malformed call: %s", s)
	}
	callee := p.m.GetExtern(s[at+1 : open])
	if callee == nil {
		return nil, p.errorf("call to undeclared function in %q", s)
	}
	var arg Value
	inner := strings.TrimSpace(s[open+1 : close_])
	if len(inner) > 0 {
		a, err := p.parseOperand(inner)
		if err != nil {
			return nil, err
		}
		arg = a
	}
	call := p.cur.CreateCall(callee, arg)
	if callee.ReturnType() == types.Void {
		return nil, nil
	}
	return call, nil
}

// parseOperand reads a typed operand such as "i32 %4", "i32 7", "i1 true" or "i32* %2".
// The leading type is optional; bare "%4" and bare literals are accepted.
func (p *moduleParser) parseOperand(s string) (Value, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return nil, p.errorf("empty operand")
	}
	tok := fields[len(fields)-1]
	if strings.HasPrefix(tok, "%") {
		if v, ok := p.values[tok]; ok {
			return v, nil
		}
		return nil, p.errorf("use of undefined value %s", tok)
	}
	switch tok {
	case "true":
		return ConstBool(true), nil
	case "false":
		return ConstBool(false), nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, p.errorf("malformed operand %q", s)
	}
	return ConstInt(int32(n)), nil
}

// parseLabel resolves a %label reference to its pre-created block.
func (p *moduleParser) parseLabel(s string) (*Block, error) {
	label := strings.TrimSuffix(strings.TrimPrefix(s, "%"), ",")
	if b, ok := p.blocks[label]; ok {
		return b, nil
	}
	return nil, p.errorf("branch to unknown label %q", label)
}

// parsePredicate reads an icmp predicate name.
func (p *moduleParser) parsePredicate(s string) (types.Predicate, error) {
	switch s {
	case "slt":
		return types.Slt, nil
	case "sgt":
		return types.Sgt, nil
	case "sle":
		return types.Sle, nil
	case "sge":
		return types.Sge, nil
	case "eq":
		return types.Eq, nil
	case "ne":
		return types.Ne, nil
	default:
		return types.Slt, p.errorf("unexpected icmp predicate %q", s)
	}
}

// parseType reads a data type name.
func (p *moduleParser) parseType(s string) (types.DataType, error) {
	switch s {
	case "void":
		return types.Void, nil
	case "i1":
		return types.I1, nil
	case "i32":
		return types.I32, nil
	case "i32*":
		return types.Pointer, nil
	default:
		return types.Void, p.errorf("unexpected type %q", s)
	}
}

// splitOperands splits a comma separated operand list, trimming whitespace and dropping the
// trailing align attribute of memory instructions.
func splitOperands(s string) []string {
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, e1 := range parts {
		t := strings.TrimSpace(e1)
		if len(t) == 0 || strings.HasPrefix(t, "align") {
			continue
		}
		res = append(res, t)
	}
	return res
}
