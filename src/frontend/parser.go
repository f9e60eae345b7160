// parser.go implements the recursive descent parser for MiniC. A Parser object confines all
// parsing state: the lexer, the lookahead token and the error slot. Syntax errors report the
// line number and the last token read, and halt the parse.

package frontend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"minicc/src/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Parser reads tokens from the lexer and builds the syntax tree.
type Parser struct {
	l   *lexer
	tok item // Lookahead token.
}

// parseError carries a syntax error up to Parse through the panic path, keeping the grammar
// functions free of error plumbing.
type parseError struct {
	err error
}

// ---------------------
// ----- Functions -----
// ---------------------

// Parse parses the syntax tree from the source code.
func Parse(src string) (root *ir.Node, err error) {
	p := &Parser{l: newLexer(src, lexGlobal)}

	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				root, err = nil, pe.err
				return
			}
			panic(r)
		}
	}()

	p.next()
	root = p.parseProgram()
	if root == nil {
		return nil, errors.New("root node is <nil>")
	}
	return root, nil
}

// TokenStream outputs the token stream of the given source string.
func TokenStream(src string) (string, error) {
	l := newLexer(src, lexGlobal)
	sb := strings.Builder{}
	tw := tabwriter.NewWriter(&sb, 10, 20, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Value\tType\tPosition\n")
	for {
		t := l.nextItem()
		switch t.typ {
		case itemEOF:
			err := tw.Flush()
			return sb.String(), err
		case itemError:
			_ = tw.Flush()
			return sb.String(), errors.New(t.val)
		default:
			_, _ = fmt.Fprintf(tw, "%q\t%s\tline: %d:%d\n", t.val, typeName(t.typ), t.line, t.pos)
		}
	}
}

// -------------------------
// ----- Token helpers -----
// -------------------------

// next advances the lookahead token. A lexer error token aborts the parse.
func (p *Parser) next() {
	p.tok = p.l.nextItem()
	if p.tok.typ == itemError {
		panic(parseError{errors.New(p.tok.val)})
	}
}

// expect consumes a token of type typ or aborts the parse.
func (p *Parser) expect(typ itemType) item {
	if p.tok.typ != typ {
		p.fail()
	}
	t := p.tok
	p.next()
	return t
}

// accept consumes a token of type typ if it is the lookahead.
func (p *Parser) accept(typ itemType) bool {
	if p.tok.typ == typ {
		p.next()
		return true
	}
	return false
}

// fail aborts the parse, reporting the line and the last token read.
func (p *Parser) fail() {
	last := p.tok.val
	if p.tok.typ == itemEOF {
		last = "EOF"
	}
	panic(parseError{fmt.Errorf("Syntax error (line: %d). Last token: %s", p.tok.line, last)})
}

// node builds a syntax tree node carrying the position of token t.
func (p *Parser) node(typ ir.NodeType, data interface{}, t item, children ...*ir.Node) *ir.Node {
	return &ir.Node{
		Typ:      typ,
		Line:     t.line,
		Pos:      t.pos,
		Data:     data,
		Children: children,
	}
}

// ---------------------------
// ----- Grammar rules -------
// ---------------------------

// parseProgram parses exactly two external declarations, one function and the end of file.
func (p *Parser) parseProgram() *ir.Node {
	start := p.tok
	ext1 := p.parseExtern()
	ext2 := p.parseExtern()
	fun := p.parseFunction()
	p.expect(itemEOF)
	return p.node(ir.PROGRAM, nil, start, ext1, ext2, fun)
}

// parseExtern parses an external declaration such as 'extern void print(int);'. The parameter
// may be a bare 'int' with no name; this empty-parameter form is retained for compatibility.
func (p *Parser) parseExtern() *ir.Node {
	start := p.expect(EXTERN)
	if !p.accept(VOID) {
		p.expect(INT)
	}
	name := p.expect(IDENTIFIER)
	p.expect('(')
	if p.accept(INT) {
		p.accept(IDENTIFIER)
	}
	p.expect(')')
	p.expect(';')
	return p.node(ir.EXTERN, name.val, start)
}

// parseFunction parses 'int <name>(int? <p>) { ... }'.
func (p *Parser) parseFunction() *ir.Node {
	start := p.expect(INT)
	name := p.expect(IDENTIFIER)
	p.expect('(')
	params := p.node(ir.PARAMETER_LIST, nil, p.tok)
	if p.accept(INT) {
		pn := p.expect(IDENTIFIER)
		params.Children = append(params.Children, p.node(ir.IDENTIFIER_DATA, pn.val, pn))
	}
	p.expect(')')
	body := p.parseBlock()
	return p.node(ir.FUNCTION, name.val, start, params, body)
}

// parseBlock parses '{ decls stmts }'. Declarations conventionally precede the statements of
// a block, but the grammar accepts them anywhere a statement may stand: the IR builder emits
// allocas mid-block either way.
func (p *Parser) parseBlock() *ir.Node {
	start := p.expect('{')
	block := p.node(ir.BLOCK, nil, start)
	for p.tok.typ != itemType('}') {
		block.Children = append(block.Children, p.parseStatement())
	}
	p.expect('}')
	return block
}

// parseStatement parses a single statement. Blocks, if and while carry no terminating
// semicolon; the other statements do.
func (p *Parser) parseStatement() *ir.Node {
	switch p.tok.typ {
	case itemType('{'):
		return p.parseBlock()
	case INT:
		decl := p.tok
		p.next()
		name := p.expect(IDENTIFIER)
		p.expect(';')
		return p.node(ir.DECLARATION, name.val, decl)
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case RETURN:
		start := p.tok
		p.next()
		expr := p.parseExpression()
		p.expect(';')
		return p.node(ir.RETURN_STATEMENT, nil, start, expr)
	case IDENTIFIER:
		name := p.tok
		p.next()
		if p.tok.typ == itemType('(') {
			call := p.parseCallRest(name)
			p.expect(';')
			return call
		}
		p.expect('=')
		expr := p.parseExpression()
		p.expect(';')
		return p.node(ir.ASSIGNMENT, name.val, name, expr)
	default:
		p.fail()
		return nil
	}
}

// parseIf parses 'if (relation) stmt' with an optional 'else stmt'.
func (p *Parser) parseIf() *ir.Node {
	start := p.expect(IF)
	p.expect('(')
	cond := p.parseRelation()
	p.expect(')')
	then := p.parseStatement()
	if p.accept(ELSE) {
		els := p.parseStatement()
		return p.node(ir.IF_STATEMENT, nil, start, cond, then, els)
	}
	return p.node(ir.IF_STATEMENT, nil, start, cond, then)
}

// parseWhile parses 'while (relation) stmt'.
func (p *Parser) parseWhile() *ir.Node {
	start := p.expect(WHILE)
	p.expect('(')
	cond := p.parseRelation()
	p.expect(')')
	body := p.parseStatement()
	return p.node(ir.WHILE_STATEMENT, nil, start, cond, body)
}

// parseRelation parses 'expr relop expr'. Relational operators appear only in conditions.
func (p *Parser) parseRelation() *ir.Node {
	lhs := p.parseExpression()
	var op string
	t := p.tok
	switch p.tok.typ {
	case itemType('<'):
		op = "<"
	case itemType('>'):
		op = ">"
	case LE:
		op = "<="
	case GE:
		op = ">="
	case EQ:
		op = "=="
	case NE:
		op = "!="
	default:
		p.fail()
	}
	p.next()
	rhs := p.parseExpression()
	return p.node(ir.RELATION, op, t, lhs, rhs)
}

// parseExpression parses additive expressions with left associativity.
func (p *Parser) parseExpression() *ir.Node {
	lhs := p.parseTerm()
	for p.tok.typ == itemType('+') || p.tok.typ == itemType('-') {
		t := p.tok
		op := string(rune(p.tok.typ))
		p.next()
		rhs := p.parseTerm()
		lhs = p.node(ir.EXPRESSION, op, t, lhs, rhs)
	}
	return lhs
}

// parseTerm parses multiplicative expressions with left associativity.
func (p *Parser) parseTerm() *ir.Node {
	lhs := p.parseFactor()
	for p.tok.typ == itemType('*') || p.tok.typ == itemType('/') {
		t := p.tok
		op := string(rune(p.tok.typ))
		p.next()
		rhs := p.parseFactor()
		lhs = p.node(ir.EXPRESSION, op, t, lhs, rhs)
	}
	return lhs
}

// parseFactor parses unary minus, parenthesised expressions, literals, variables and calls.
func (p *Parser) parseFactor() *ir.Node {
	switch p.tok.typ {
	case itemType('-'):
		t := p.tok
		p.next()
		return p.node(ir.EXPRESSION, "-", t, p.parseFactor())
	case itemType('('):
		p.next()
		expr := p.parseExpression()
		p.expect(')')
		return expr
	case INTEGER:
		t := p.tok
		p.next()
		n, err := strconv.Atoi(t.val)
		if err != nil {
			p.fail()
		}
		return p.node(ir.INTEGER_DATA, int(int32(n)), t)
	case IDENTIFIER:
		name := p.tok
		p.next()
		if p.tok.typ == itemType('(') {
			return p.parseCallRest(name)
		}
		return p.node(ir.IDENTIFIER_DATA, name.val, name)
	default:
		p.fail()
		return nil
	}
}

// parseCallRest parses the argument list of a call whose callee name has been consumed.
func (p *Parser) parseCallRest(name item) *ir.Node {
	p.expect('(')
	if p.accept(itemType(')')) {
		return p.node(ir.CALL, name.val, name)
	}
	arg := p.parseExpression()
	p.expect(')')
	return p.node(ir.CALL, name.val, name, arg)
}
