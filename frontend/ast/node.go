package ast

import "fmt"

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
	fmt.Stringer
}

// Expr is the interface for all expression nodes in the AST.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}

// Stmt is the interface for all statement nodes in the AST.
type Stmt interface {
	Node
	stmtNode() // Marker method to distinguish statements
}

// Type is the interface for all type nodes in the AST.
// It is what the user wrote, and not the same as a types.Type
type Type interface {
	Node
	typeNode() // Marker method to distinguish types
}
