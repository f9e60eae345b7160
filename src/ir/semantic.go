package ir

import (
	"fmt"

	"minicc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// scope is one level of the scope stack: the set of names declared at that level.
type scope map[string]bool

// ---------------------
// ----- Functions -----
// ---------------------

// Analyse traverses the syntax tree rooted at root and checks that every variable use refers
// to a declared name. Every offending use is reported into the returned error collector; a
// name used N times yields N messages. The boolean is true iff the tree is semantically valid.
// The scope stack is nonempty whenever a statement or expression is visited.
func Analyse(root *Node) (bool, *util.Perror) {
	pe := util.NewPerror(0)
	if root == nil {
		pe.Append(fmt.Errorf("syntax tree is empty"))
		return false, pe
	}
	st := util.Stack{}
	traverse(root, &st, pe)
	return pe.Len() == 0, pe
}

// traverse recursively visits Node n, maintaining the scope stack st and reporting
// undeclared uses into pe.
func traverse(n *Node, st *util.Stack, pe *util.Perror) {
	if n == nil {
		return
	}
	switch n.Typ {
	case PROGRAM:
		for _, e1 := range n.Children {
			traverse(e1, st, pe)
		}
	case EXTERN:
		// Extern nodes are ignored; print and read are not variables.
	case FUNCTION:
		// Push a scope seeded with the parameter, if any.
		sc := scope{}
		params := n.Children[0]
		for _, e1 := range params.Children {
			sc[e1.Data.(string)] = true
		}
		st.Push(sc)
		traverse(n.Children[1], st, pe)
		st.Pop()
	case BLOCK:
		st.Push(scope{})
		for _, e1 := range n.Children {
			traverse(e1, st, pe)
		}
		st.Pop()
	case DECLARATION:
		// Insert into the top scope. Redeclaration in the same scope silently merges;
		// all MiniC variables are integers, so a redeclaration cannot change a type.
		st.Peek().(scope)[n.Data.(string)] = true
	case ASSIGNMENT:
		lookup(n.Data.(string), n, st, pe)
		traverse(n.Children[0], st, pe)
	case IDENTIFIER_DATA:
		lookup(n.Data.(string), n, st, pe)
	case INTEGER_DATA:
		// Constants carry no names.
	case CALL:
		for _, e1 := range n.Children {
			traverse(e1, st, pe)
		}
	default:
		// Statements and expressions: visit all children.
		for _, e1 := range n.Children {
			traverse(e1, st, pe)
		}
	}
}

// lookup searches the scope stack top-down for name. A miss is reported into pe.
func lookup(name string, n *Node, st *util.Stack, pe *util.Perror) {
	for i1 := 1; i1 <= st.Size(); i1++ {
		if st.Get(i1).(scope)[name] {
			return
		}
	}
	pe.Append(fmt.Errorf("Error: undeclared variable '%s'", name))
}
