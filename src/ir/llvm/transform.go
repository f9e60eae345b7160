// Package llvm provides means to transform the syntax tree into LLVM IR for the system
// installed LLVM runtime. It is the alternate back end behind the -ll flag: the same frontend
// and semantic analysis feed it, but optimisation and code generation are delegated to LLVM,
// which emits a native object file instead of assembler text.
package llvm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

import (
	"tinygo.org/x/go-llvm"
)

import (
	ast "minicc/src/ir"
	"minicc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// generator carries the builder state of one GenLLVM run.
type generator struct {
	b    llvm.Builder
	m    llvm.Module
	fun  llvm.Value
	vars map[string]llvm.Value // Variable name to its alloca.
}

// ---------------------
// ----- Constants -----
// ---------------------

const mapSize = 16 // Predefined size for a decently sized symbol table hash table.

// -------------------
// ----- globals -----
// -------------------

// i defines the integer type of MiniC values.
var i = llvm.Int32Type()

// predicates maps source relational operators onto LLVM integer predicates.
var predicates = map[string]llvm.IntPredicate{
	"<":  llvm.IntSLT,
	">":  llvm.IntSGT,
	"<=": llvm.IntSLE,
	">=": llvm.IntSGE,
	"==": llvm.IntEQ,
	"!=": llvm.IntNE,
}

// ---------------------
// ----- functions -----
// ---------------------

// GenLLVM generates LLVM IR from the root ast.Node of the syntax tree and compiles it to an
// object file using the LLVM target machine for the selected architecture.
func GenLLVM(opt util.Options, root *ast.Node) error {
	if root == nil {
		return errors.New("syntax tree node is <nil>")
	}
	if len(root.Children) < 3 {
		return errors.New("syntax tree root is not a full program")
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	b := ctx.NewBuilder()
	defer b.Dispose()

	m := ctx.NewModule(filepath.Base(opt.Src))
	defer m.Dispose()

	g := &generator{
		b:    b,
		m:    m,
		vars: make(map[string]llvm.Value, mapSize),
	}

	for _, e1 := range root.Children {
		switch e1.Typ {
		case ast.EXTERN:
			g.genExtern(e1)
		case ast.FUNCTION:
			if err := g.genFunction(e1); err != nil {
				return err
			}
		default:
			return fmt.Errorf("expected node of type EXTERN or FUNCTION, got %s", e1.Type())
		}
	}

	if opt.Verbose {
		fmt.Println("LLVM IR:")
		m.Dump()
	}

	// Initialise LLVM code generation.
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	triple, err := targetTriple(opt)
	if err != nil {
		return err
	}
	t, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return err
	}

	tm := t.CreateTargetMachine(triple, "generic", "",
		llvm.CodeGenLevelDefault,
		llvm.RelocDefault,
		llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()

	m.SetDataLayout(td.String())
	m.SetTarget(tm.Triple())

	// Compile target and store in memory.
	buf, err := tm.EmitToMemoryBuffer(m, llvm.ObjectFile)
	if err != nil {
		return err
	} else if buf.IsNil() {
		return errors.New("could not emit compiled code to memory")
	}

	// Open/create file and write compiled code to output file.
	out := opt.Out
	if len(out) == 0 {
		out = fmt.Sprintf("%s.o", strings.TrimSuffix(opt.Src, filepath.Ext(opt.Src)))
	}
	fd, err := os.OpenFile(out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fd.Write(buf.Bytes()); err != nil {
		_ = fd.Close()
		return err
	}
	return fd.Close()
}

// genExtern declares print or read in the LLVM module.
func (g *generator) genExtern(n *ast.Node) {
	name := n.Data.(string)
	var ftyp llvm.Type
	if name == "read" {
		ftyp = llvm.FunctionType(i, nil, false)
	} else {
		ftyp = llvm.FunctionType(llvm.VoidType(), []llvm.Type{i}, false)
	}
	llvm.AddFunction(g.m, name, ftyp)
}

// genFunction generates the function header, stores the incoming argument into its alloca
// and lowers the body.
func (g *generator) genFunction(n *ast.Node) error {
	name := n.Data.(string)
	params := n.Children[0]
	body := n.Children[1]

	ftyp := llvm.FunctionType(i, []llvm.Type{i}, false)
	g.fun = llvm.AddFunction(g.m, name, ftyp)

	bb := llvm.AddBasicBlock(g.fun, "")
	g.b.SetInsertPointAtEnd(bb)

	if len(params.Children) > 0 {
		pname := params.Children[0].Data.(string)
		alloc := g.b.CreateAlloca(i, pname)
		g.b.CreateStore(g.fun.Param(0), alloc)
		g.vars[pname] = alloc
	}

	if _, err := g.genStatement(body); err != nil {
		return err
	}
	g.vars = make(map[string]llvm.Value, mapSize)
	return nil
}

// genStatement lowers one statement at the builder's insertion point. The returned bool is
// set when the statement generated a return, which terminates the current basic block;
// statements behind a return in the same block are unreachable and are skipped on this path.
func (g *generator) genStatement(n *ast.Node) (bool, error) {
	switch n.Typ {
	case ast.BLOCK:
		for _, e1 := range n.Children {
			ret, err := g.genStatement(e1)
			if err != nil {
				return false, err
			}
			if ret {
				return true, nil
			}
		}
	case ast.DECLARATION:
		name := n.Data.(string)
		alloc := g.b.CreateAlloca(i, name)
		g.vars[name] = alloc
	case ast.ASSIGNMENT:
		v, err := g.genExpression(n.Children[0])
		if err != nil {
			return false, err
		}
		cell, ok := g.vars[n.Data.(string)]
		if !ok {
			return false, fmt.Errorf("variable %q has no stack cell", n.Data)
		}
		g.b.CreateStore(v, cell)
	case ast.RETURN_STATEMENT:
		v, err := g.genExpression(n.Children[0])
		if err != nil {
			return false, err
		}
		g.b.CreateRet(v)
		return true, nil
	case ast.CALL:
		if _, err := g.genCall(n); err != nil {
			return false, err
		}
	case ast.IF_STATEMENT:
		return g.genIf(n)
	case ast.WHILE_STATEMENT:
		return false, g.genWhile(n)
	default:
		return false, fmt.Errorf("unexpected statement node %s", n.String())
	}
	return false, nil
}

// genIf lowers an if or if-else statement. The bodies are generated before the condition,
// which is emitted into the block the statement started in. The returned bool is set when
// both branches return, in which case no convergence block is reachable.
func (g *generator) genIf(n *ast.Node) (bool, error) {
	pred := g.b.GetInsertBlock()

	thn := llvm.AddBasicBlock(g.fun, "")
	g.b.SetInsertPointAtEnd(thn)
	retA, err := g.genStatement(n.Children[1])
	if err != nil {
		return false, err
	}
	lastThen := g.b.GetInsertBlock()

	var els, lastElse llvm.BasicBlock
	retB := false
	hasElse := len(n.Children) > 2
	if hasElse {
		els = llvm.AddBasicBlock(g.fun, "")
		g.b.SetInsertPointAtEnd(els)
		if retB, err = g.genStatement(n.Children[2]); err != nil {
			return false, err
		}
		lastElse = g.b.GetInsertBlock()
	}

	g.b.SetInsertPointAtEnd(pred)
	cond, err := g.genRelation(n.Children[0])
	if err != nil {
		return false, err
	}

	if hasElse && retA && retB {
		// Both branches return; no convergence block is needed.
		g.b.CreateCondBr(cond, thn, els)
		return true, nil
	}

	exit := llvm.AddBasicBlock(g.fun, "")
	if hasElse {
		g.b.CreateCondBr(cond, thn, els)
	} else {
		g.b.CreateCondBr(cond, thn, exit)
	}

	if !retA {
		g.b.SetInsertPointAtEnd(lastThen)
		g.b.CreateBr(exit)
	}
	if hasElse && !retB {
		g.b.SetInsertPointAtEnd(lastElse)
		g.b.CreateBr(exit)
	}

	g.b.SetInsertPointAtEnd(exit)
	return false, nil
}

// genWhile lowers a while loop: the condition lives in its own header block so the body can
// branch back to it.
func (g *generator) genWhile(n *ast.Node) error {
	header := llvm.AddBasicBlock(g.fun, "")
	g.b.CreateBr(header)

	body := llvm.AddBasicBlock(g.fun, "")
	g.b.SetInsertPointAtEnd(body)
	ret, err := g.genStatement(n.Children[1])
	if err != nil {
		return err
	}
	if !ret {
		g.b.CreateBr(header)
	}

	after := llvm.AddBasicBlock(g.fun, "")
	g.b.SetInsertPointAtEnd(header)
	cond, err := g.genRelation(n.Children[0])
	if err != nil {
		return err
	}
	g.b.CreateCondBr(cond, body, after)

	g.b.SetInsertPointAtEnd(after)
	return nil
}

// genCall lowers a call to print or read.
func (g *generator) genCall(n *ast.Node) (llvm.Value, error) {
	name := n.Data.(string)
	target := g.m.NamedFunction(name)
	if target.IsNil() {
		return llvm.Value{}, fmt.Errorf("call to undeclared function %q", name)
	}
	args := make([]llvm.Value, 0, 1)
	if len(n.Children) > 0 {
		arg, err := g.genExpression(n.Children[0])
		if err != nil {
			return llvm.Value{}, err
		}
		args = append(args, arg)
	}
	return g.b.CreateCall(target, args, ""), nil
}

// genRelation lowers a relational expression to an i1 value.
func (g *generator) genRelation(n *ast.Node) (llvm.Value, error) {
	op1, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	op2, err := g.genExpression(n.Children[1])
	if err != nil {
		return llvm.Value{}, err
	}
	pred, ok := predicates[n.Data.(string)]
	if !ok {
		return llvm.Value{}, fmt.Errorf("unexpected relational operator %q", n.Data)
	}
	return g.b.CreateICmp(pred, op1, op2, ""), nil
}

// genExpression lowers an arithmetic expression to an i32 value.
func (g *generator) genExpression(n *ast.Node) (llvm.Value, error) {
	switch n.Typ {
	case ast.INTEGER_DATA:
		return llvm.ConstInt(i, uint64(uint32(int32(n.Data.(int)))), true), nil
	case ast.IDENTIFIER_DATA:
		cell, ok := g.vars[n.Data.(string)]
		if !ok {
			return llvm.Value{}, fmt.Errorf("variable %q has no stack cell", n.Data)
		}
		return g.b.CreateLoad(cell, ""), nil
	case ast.CALL:
		return g.genCall(n)
	case ast.EXPRESSION:
		if len(n.Children) == 1 {
			op1, err := g.genExpression(n.Children[0])
			if err != nil {
				return llvm.Value{}, err
			}
			return g.b.CreateSub(llvm.ConstInt(i, 0, false), op1, ""), nil
		}
		op1, err := g.genExpression(n.Children[0])
		if err != nil {
			return llvm.Value{}, err
		}
		op2, err := g.genExpression(n.Children[1])
		if err != nil {
			return llvm.Value{}, err
		}
		switch n.Data.(string) {
		case "+":
			return g.b.CreateAdd(op1, op2, ""), nil
		case "-":
			return g.b.CreateSub(op1, op2, ""), nil
		case "*":
			return g.b.CreateMul(op1, op2, ""), nil
		case "/":
			return g.b.CreateSDiv(op1, op2, ""), nil
		default:
			return llvm.Value{}, fmt.Errorf("unexpected operator %q", n.Data)
		}
	default:
		return llvm.Value{}, fmt.Errorf("unexpected expression node %s", n.String())
	}
}

// targetTriple builds the LLVM target triple for the selected architecture.
func targetTriple(opt util.Options) (string, error) {
	switch opt.TargetArch {
	case util.X86_32:
		return "i386-pc-linux-gnu", nil
	case util.X86_64:
		return "x86_64-pc-linux-gnu", nil
	case util.Aarch64:
		return "aarch64-pc-linux-gnu", nil
	default:
		return "", fmt.Errorf("unsupported target architecture %d", opt.TargetArch)
	}
}
