package ast

import "github.com/mna/qscript/lang/stringtable"

type (
	Int   struct{ Value int64 }
	Float struct{ Value float64 }
	Bool  struct{ Value bool }

	// Ref references a local variable or a function by name.
	Ref struct{ Name stringtable.Token }

	If struct {
		Pred, Then, Else Expr
	}

	// ExprBlock is a block expression: statements followed by a tail
	// expression whose value is the block's value.
	ExprBlock struct {
		Stmts []Stmt
		Tail  Expr
	}

	Call struct {
		Fn   Expr
		Args []Expr
	}

	// Assign assigns Expr's value to Name, yielding that value.
	Assign struct {
		Name stringtable.Token
		Expr Expr
	}

	Array struct{ Elems []Expr }

	// Move reads and clears the local named Name, yielding its prior value.
	Move struct{ Name stringtable.Token }

	Get struct{ Array, Index Expr }

	Put struct{ Array, Index, Value Expr }

	Slice struct{ Array, Lo, Hi Expr }

	Len struct{ Expr Expr }

	// QAlloc allocates an N-qubit register initialized to the integer value
	// Init, read as a computational-basis bitmask.
	QAlloc struct{ N, Init Expr }

	// Invoke calls Fn with zero arguments.
	Invoke struct{ Fn Expr }

	// Apply calls Fn with exactly one argument.
	Apply struct{ Fn, Arg Expr }

	UnaryOp struct {
		Op   UnOp
		Expr Expr
	}

	BinaryOp struct {
		Left  Expr
		Op    BinOp
		Right Expr
	}

	// Cat concatenates two values into (or onto) an array.
	Cat struct{ Left, Right Expr }
)

func (*Int) exprNode()       {}
func (*Float) exprNode()     {}
func (*Bool) exprNode()      {}
func (*Ref) exprNode()       {}
func (*If) exprNode()        {}
func (*ExprBlock) exprNode() {}
func (*Call) exprNode()      {}
func (*Assign) exprNode()    {}
func (*Array) exprNode()     {}
func (*Move) exprNode()      {}
func (*Get) exprNode()       {}
func (*Put) exprNode()       {}
func (*Slice) exprNode()     {}
func (*Len) exprNode()       {}
func (*QAlloc) exprNode()    {}
func (*Invoke) exprNode()    {}
func (*Apply) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*BinaryOp) exprNode()  {}
func (*Cat) exprNode()       {}

func (n *Int) Walk(Visitor)   {}
func (n *Float) Walk(Visitor) {}
func (n *Bool) Walk(Visitor)  {}
func (n *Ref) Walk(Visitor)   {}
func (n *If) Walk(v Visitor) {
	Walk(v, n.Pred)
	Walk(v, n.Then)
	Walk(v, n.Else)
}
func (n *ExprBlock) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
	Walk(v, n.Tail)
}
func (n *Call) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
	Walk(v, n.Fn)
}
func (n *Assign) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *Array) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}
func (n *Move) Walk(Visitor) {}
func (n *Get) Walk(v Visitor) {
	Walk(v, n.Array)
	Walk(v, n.Index)
}
func (n *Put) Walk(v Visitor) {
	Walk(v, n.Array)
	Walk(v, n.Index)
	Walk(v, n.Value)
}
func (n *Slice) Walk(v Visitor) {
	Walk(v, n.Array)
	Walk(v, n.Lo)
	Walk(v, n.Hi)
}
func (n *Len) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *QAlloc) Walk(v Visitor) {
	Walk(v, n.N)
	Walk(v, n.Init)
}
func (n *Invoke) Walk(v Visitor) { Walk(v, n.Fn) }
func (n *Apply) Walk(v Visitor) {
	Walk(v, n.Fn)
	Walk(v, n.Arg)
}
func (n *UnaryOp) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *BinaryOp) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *Cat) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
