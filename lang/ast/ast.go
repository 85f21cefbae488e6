// Package ast defines the node shapes the compiler consumes: the AST
// contract between the (out of scope) parser front end and the QScript
// compiler (see SPEC_FULL.md §A and spec.md §1, §3).
//
// Unlike the teacher's lossless, position-tracking AST (lang/ast in the
// mna/nenuphar sources this package is adapted from), QScript's AST carries
// no source positions: the concrete grammar is an external collaborator,
// and the compiler's only position-like obligation is to name the
// offending identifier in an error message, which it does directly via
// stringtable.Token, not via a span into source text.
package ast

// Node is implemented by every AST node.
type Node interface {
	// Walk visits this node and its children with v.
	Walk(v Visitor)
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}
