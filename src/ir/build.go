package ir

import (
	"fmt"
	"path/filepath"

	"minicc/src/ir/lir"
	"minicc/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// builder holds the state of one AST to IR lowering run: the module under construction, the
// current function and insertion block, and the symbol table mapping variable names to their
// stack cells.
type builder struct {
	m    *lir.Module
	f    *lir.Function
	cur  *lir.Block
	vars map[string]*lir.AllocaInstruction
}

// ---------------------
// ----- Functions -----
// ---------------------

// Build lowers a semantically valid syntax tree into an IR module. Build never fails on valid
// input; structural violations of the tree panic, since they indicate a compiler bug in the
// parser, not a user error.
func Build(root *Node, srcName string) *lir.Module {
	b := &builder{
		m:    lir.CreateModule(filepath.Base(srcName)),
		vars: make(map[string]*lir.AllocaInstruction, 8),
	}
	for _, e1 := range root.Children {
		switch e1.Typ {
		case EXTERN:
			b.buildExtern(e1)
		case FUNCTION:
			b.buildFunction(e1)
		default:
			panic(fmt.Sprintf("expected EXTERN or FUNCTION at top level, got %s", e1.Type()))
		}
	}
	return b.m
}

// buildExtern declares one of the two externally linked functions.
func (b *builder) buildExtern(n *Node) {
	name := n.Data.(string)
	if name == "read" {
		b.m.CreateExtern(name, types.I32)
	} else {
		b.m.CreateExtern(name, types.Void, types.I32)
	}
}

// buildFunction creates the function, its entry block and the parameter's stack cell, then
// lowers the body.
func (b *builder) buildFunction(n *Node) {
	name := n.Data.(string)
	params := n.Children[0]
	body := n.Children[1]

	b.f = b.m.CreateFunction(name)
	b.cur = b.f.CreateBlock()

	// The parameter is stored once at function entry; all further accesses go through its
	// stack cell.
	if len(params.Children) > 0 {
		pname := params.Children[0].Data.(string)
		cell := b.cur.CreateAlloca(pname)
		b.cur.CreateStore(b.f.Param(), cell)
		b.vars[pname] = cell
	}

	b.buildStatement(body)

	// A function whose trailing block falls off the end, like an if-else where both branches
	// return, still needs a terminator to keep every block well formed. The dangling block is
	// unreachable; returning zero from it is never observable.
	if !b.cur.Terminated() {
		b.cur.CreateRet(lir.ConstInt(0))
	}

	b.f = nil
	b.cur = nil
	b.vars = make(map[string]*lir.AllocaInstruction, 8)
}

// buildStatement lowers a single statement into the current insertion block.
func (b *builder) buildStatement(n *Node) {
	switch n.Typ {
	case BLOCK:
		for _, e1 := range n.Children {
			if b.cur.Terminated() {
				// Statements behind a return are still lowered faithfully, into a fresh
				// unlinked block. Appending to a terminated block is forbidden.
				b.cur = b.f.CreateBlock()
			}
			b.buildStatement(e1)
		}
	case DECLARATION:
		name := n.Data.(string)
		cell := b.cur.CreateAlloca(name)
		b.vars[name] = cell
	case ASSIGNMENT:
		v := b.buildExpression(n.Children[0])
		b.cur.CreateStore(v, b.cell(n.Data.(string)))
	case RETURN_STATEMENT:
		v := b.buildExpression(n.Children[0])
		b.cur.CreateRet(v)
	case CALL:
		b.buildCall(n)
	case IF_STATEMENT:
		b.buildIf(n)
	case WHILE_STATEMENT:
		b.buildWhile(n)
	default:
		panic(fmt.Sprintf("unexpected statement node %s", n.String()))
	}
}

// buildIf lowers an if or if-else statement into a single-entry single-exit region. The then
// and else bodies are lowered before the condition, which is emitted into the predecessor
// block, mirroring the order the blocks were appended in.
func (b *builder) buildIf(n *Node) {
	pred := b.cur

	ifB := b.f.CreateBlock()
	b.cur = ifB
	b.buildStatement(n.Children[1])
	lastThen := b.cur

	var elseB, lastElse *lir.Block
	if len(n.Children) > 2 {
		elseB = b.f.CreateBlock()
		b.cur = elseB
		b.buildStatement(n.Children[2])
		lastElse = b.cur
	}

	b.cur = pred
	k := b.buildRelation(n.Children[0])

	exit := b.f.CreateBlock()
	if elseB != nil {
		pred.CreateCondBr(k, ifB, elseB)
	} else {
		pred.CreateCondBr(k, ifB, exit)
	}

	if !lastThen.Terminated() {
		lastThen.CreateBr(exit)
	}
	if lastElse != nil && !lastElse.Terminated() {
		lastElse.CreateBr(exit)
	}
	b.cur = exit
}

// buildWhile lowers a while loop: header holding the condition, body branching back to the
// header, and the after block for the loop exit.
func (b *builder) buildWhile(n *Node) {
	header := b.f.CreateBlock()
	b.cur.CreateBr(header)

	body := b.f.CreateBlock()
	b.cur = body
	b.buildStatement(n.Children[1])
	if !b.cur.Terminated() {
		b.cur.CreateBr(header)
	}

	after := b.f.CreateBlock()
	b.cur = header
	k := b.buildRelation(n.Children[0])
	header.CreateCondBr(k, body, after)

	b.cur = after
}

// buildCall lowers a call to print or read. A read expression used as a value yields the
// call's result; a statement call's unused result is kept, calls are side effects.
func (b *builder) buildCall(n *Node) lir.Value {
	name := n.Data.(string)
	callee := b.m.GetExtern(name)
	if callee == nil {
		panic(fmt.Sprintf("call to undeclared function %q", name))
	}
	var arg lir.Value
	if len(n.Children) > 0 {
		arg = b.buildExpression(n.Children[0])
	}
	return b.cur.CreateCall(callee, arg)
}

// buildRelation lowers a relational expression to an i1 value.
func (b *builder) buildRelation(n *Node) lir.Value {
	if n.Typ != RELATION {
		panic(fmt.Sprintf("expected RELATION as condition, got %s", n.String()))
	}
	lhs := b.buildExpression(n.Children[0])
	rhs := b.buildExpression(n.Children[1])
	return b.cur.CreateICmp(relPredicate(n.Data.(string)), lhs, rhs)
}

// buildExpression lowers an arithmetic expression to an i32 value.
func (b *builder) buildExpression(n *Node) lir.Value {
	switch n.Typ {
	case INTEGER_DATA:
		return lir.ConstInt(int32(n.Data.(int)))
	case IDENTIFIER_DATA:
		return b.cur.CreateLoad(b.cell(n.Data.(string)))
	case CALL:
		return b.buildCall(n)
	case EXPRESSION:
		if len(n.Children) == 1 {
			// Unary minus.
			return b.cur.CreateNeg(b.buildExpression(n.Children[0]))
		}
		lhs := b.buildExpression(n.Children[0])
		rhs := b.buildExpression(n.Children[1])
		switch n.Data.(string) {
		case "+":
			return b.cur.CreateAdd(lhs, rhs)
		case "-":
			return b.cur.CreateSub(lhs, rhs)
		case "*":
			return b.cur.CreateMul(lhs, rhs)
		case "/":
			return b.cur.CreateDiv(lhs, rhs)
		default:
			panic(fmt.Sprintf("unexpected operator %q", n.Data))
		}
	default:
		panic(fmt.Sprintf("unexpected expression node %s", n.String()))
	}
}

// cell returns the stack cell bound to name. Semantic analysis has verified every use, so a
// miss is a compiler bug.
func (b *builder) cell(name string) *lir.AllocaInstruction {
	if c, ok := b.vars[name]; ok {
		return c
	}
	panic(fmt.Sprintf("variable %q has no stack cell", name))
}

// relPredicate maps a source relational operator onto its icmp predicate.
func relPredicate(op string) types.Predicate {
	switch op {
	case "<":
		return types.Slt
	case ">":
		return types.Sgt
	case "<=":
		return types.Sle
	case ">=":
		return types.Sge
	case "==":
		return types.Eq
	case "!=":
		return types.Ne
	default:
		panic(fmt.Sprintf("unexpected relational operator %q", op))
	}
}
