package ast

import "github.com/mna/qscript/lang/stringtable"

type (
	// DefFunc declares a named function: func Name(Params...) Body.
	DefFunc struct {
		Name   stringtable.Token
		Params []stringtable.Token
		Body   Expr
	}

	// DefVar declares and initializes a local variable.
	DefVar struct {
		Name stringtable.Token
		Init Expr
	}

	// Block is a statement sequence introducing a new lexical scope.
	Block struct {
		Stmts []Stmt
	}

	// While loops while Pred is truthy.
	While struct {
		Pred Expr
		Body Stmt
	}

	// ForEach iterates the elements of Iter from last to first (see
	// spec.md §4.2), binding each to Name in turn.
	ForEach struct {
		Name stringtable.Token
		Iter Expr
		Body Stmt
	}

	// ForLoop iterates Name from Start to End (see spec open question (a)
	// on the initial-increment behavior, implemented literally).
	ForLoop struct {
		Name       stringtable.Token
		Start, End Expr
		Body       Stmt
	}

	// With evaluates Pred reversibly, binds the reversed value to Name for
	// the extent of Body, then runs Pred's inverse to restore/rewrite the
	// source-level locations Pred read.
	With struct {
		Name stringtable.Token
		Pred Expr
		Body Stmt
	}

	// Return returns Expr's value from the enclosing function.
	Return struct {
		Expr Expr
	}

	// ExprStmt evaluates Expr and discards its value.
	ExprStmt struct {
		Expr Expr
	}

	// Print formats Fmt with Args and writes the result to the thread's
	// output.
	Print struct {
		Fmt  stringtable.Token
		Args []Expr
	}
)

func (*DefFunc) stmtNode()  {}
func (*DefVar) stmtNode()   {}
func (*Block) stmtNode()    {}
func (*While) stmtNode()    {}
func (*ForEach) stmtNode()  {}
func (*ForLoop) stmtNode()  {}
func (*With) stmtNode()     {}
func (*Return) stmtNode()   {}
func (*ExprStmt) stmtNode() {}
func (*Print) stmtNode()    {}

func (n *DefFunc) Walk(v Visitor) { Walk(v, n.Body) }
func (n *DefVar) Walk(v Visitor)  { Walk(v, n.Init) }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *While) Walk(v Visitor) {
	Walk(v, n.Pred)
	Walk(v, n.Body)
}
func (n *ForEach) Walk(v Visitor) {
	Walk(v, n.Iter)
	Walk(v, n.Body)
}
func (n *ForLoop) Walk(v Visitor) {
	Walk(v, n.Start)
	Walk(v, n.End)
	Walk(v, n.Body)
}
func (n *With) Walk(v Visitor) {
	Walk(v, n.Pred)
	Walk(v, n.Body)
}
func (n *Return) Walk(v Visitor)   { Walk(v, n.Expr) }
func (n *ExprStmt) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *Print) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}
