package frontend

import (
	"strings"
	"testing"

	"minicc/src/ir"
)

// helperProgram wraps a function body in the fixed MiniC program scaffold.
func helperProgram(body string) string {
	return "extern void print(int);\nextern int read();\nint f(int x) {\n" + body + "\n}\n"
}

// TestParseProgram verifies the overall shape of a parsed program.
func TestParseProgram(t *testing.T) {
	root, err := Parse(helperProgram("int a; a = x + 1; return a;"))
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	if root.Typ != ir.PROGRAM || len(root.Children) != 3 {
		t.Fatalf("expected PROGRAM with 3 children, got %s with %d", root.Type(), len(root.Children))
	}
	if root.Children[0].Typ != ir.EXTERN || root.Children[0].Data.(string) != "print" {
		t.Errorf("expected first extern to be print, got %s", root.Children[0].String())
	}
	if root.Children[1].Typ != ir.EXTERN || root.Children[1].Data.(string) != "read" {
		t.Errorf("expected second extern to be read, got %s", root.Children[1].String())
	}
	fun := root.Children[2]
	if fun.Typ != ir.FUNCTION || fun.Data.(string) != "f" {
		t.Fatalf("expected FUNCTION f, got %s", fun.String())
	}
	params := fun.Children[0]
	if len(params.Children) != 1 || params.Children[0].Data.(string) != "x" {
		t.Errorf("expected one parameter x, got %s", params.String())
	}
	block := fun.Children[1]
	if block.Typ != ir.BLOCK || len(block.Children) != 3 {
		t.Fatalf("expected BLOCK with 3 statements, got %d", len(block.Children))
	}
	if block.Children[0].Typ != ir.DECLARATION {
		t.Errorf("expected DECLARATION first, got %s", block.Children[0].String())
	}
	if block.Children[1].Typ != ir.ASSIGNMENT {
		t.Errorf("expected ASSIGNMENT second, got %s", block.Children[1].String())
	}
	if block.Children[2].Typ != ir.RETURN_STATEMENT {
		t.Errorf("expected RETURN third, got %s", block.Children[2].String())
	}
}

// TestParseDeterminism verifies that parsing a valid source twice yields structurally
// identical trees.
func TestParseDeterminism(t *testing.T) {
	src := helperProgram("int a; int b; a = 1; b = 2; while (a < x) { a = a + b; } return a;")
	r1, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	r2, err := Parse(src)
	if err != nil {
		t.Fatalf("second parse failed: %s", err)
	}
	if !helperEqualTrees(r1, r2) {
		t.Error("two parses of the same source differ structurally")
	}
}

// helperEqualTrees compares two trees by type, data and shape.
func helperEqualTrees(a, b *ir.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Typ != b.Typ || a.Data != b.Data || len(a.Children) != len(b.Children) {
		return false
	}
	for i1 := range a.Children {
		if !helperEqualTrees(a.Children[i1], b.Children[i1]) {
			return false
		}
	}
	return true
}

// TestParsePrecedence verifies that multiplication binds tighter than addition and that
// unary minus binds tighter still.
func TestParsePrecedence(t *testing.T) {
	root, err := Parse(helperProgram("return 1 + 2 * -3;"))
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	ret := root.Children[2].Children[1].Children[0]
	add := ret.Children[0]
	if add.Typ != ir.EXPRESSION || add.Data.(string) != "+" {
		t.Fatalf("expected + at the top, got %s", add.String())
	}
	mul := add.Children[1]
	if mul.Typ != ir.EXPRESSION || mul.Data.(string) != "*" {
		t.Fatalf("expected * as right child of +, got %s", mul.String())
	}
	neg := mul.Children[1]
	if neg.Typ != ir.EXPRESSION || neg.Data.(string) != "-" || len(neg.Children) != 1 {
		t.Fatalf("expected unary - under *, got %s", neg.String())
	}
}

// TestParseIfElse verifies if-else statement shapes.
func TestParseIfElse(t *testing.T) {
	root, err := Parse(helperProgram("int a; if (x > 0) { a = 1; } else { a = 2; } return a;"))
	if err != nil {
		t.Fatalf("parse failed: %s", err)
	}
	block := root.Children[2].Children[1]
	ifStmt := block.Children[1]
	if ifStmt.Typ != ir.IF_STATEMENT || len(ifStmt.Children) != 3 {
		t.Fatalf("expected IF with cond, then and else, got %s with %d children",
			ifStmt.String(), len(ifStmt.Children))
	}
	if ifStmt.Children[0].Typ != ir.RELATION || ifStmt.Children[0].Data.(string) != ">" {
		t.Errorf("expected > relation, got %s", ifStmt.Children[0].String())
	}
}

// TestParseEmptyExternParameter verifies the compatibility rule accepting 'int' with no name
// in an extern parameter list.
func TestParseEmptyExternParameter(t *testing.T) {
	if _, err := Parse("extern void print(int);\nextern int read();\nint f(int x) { return x; }\n"); err != nil {
		t.Errorf("empty extern parameter rejected: %s", err)
	}
}

// TestParseErrors verifies that malformed sources report the line of the offending token.
func TestParseErrors(t *testing.T) {
	tests := []string{
		"extern void print(int)\nextern int read();\nint f(int x) { return x; }", // Missing ';'.
		helperProgram("a = ;"),             // Missing expression.
		helperProgram("if (x) { a = 1; }"), // Condition is not a relation.
		helperProgram("int a"),             // Missing ';' after declaration.
		helperProgram("return x;") + "junk",
	}
	for _, e1 := range tests {
		if _, err := Parse(e1); err == nil {
			t.Errorf("expected syntax error for %q", e1)
		} else if !strings.Contains(err.Error(), "line") {
			t.Errorf("error %q does not name a line", err)
		}
	}
}

// TestTokenStream verifies the -ts output path.
func TestTokenStream(t *testing.T) {
	s, err := TokenStream("int f(int x) { return x; }")
	if err != nil {
		t.Fatalf("token stream failed: %s", err)
	}
	for _, want := range []string{"IDENTIFIER", "INT", "RETURN"} {
		if !strings.Contains(s, want) {
			t.Errorf("token stream output lacks %s", want)
		}
	}
}
