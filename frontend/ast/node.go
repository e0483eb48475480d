package ast

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
}

// Expr is the interface for all expression nodes in the AST.
type Expr interface {
	Node
	exprNode() // marker method to distinguish expressions
}

// Stmt is the interface for all statement nodes in the AST.
type Stmt interface {
	Node
	stmtNode() // marker method to distinguish statements
}

// Type is the interface for all type annotation nodes in the AST.
type Type interface {
	Node
	typeNode() // marker method to distinguish type annotations
}

// Pattern is the interface for all match patterns in the AST.
type Pattern interface {
	Node
	patternNode() // marker method to distinguish patterns
}

// Decl is the interface for all top-level declarations.
type Decl interface {
	Node
	declNode() // marker method to distinguish declarations
}

// Module is a single compilation unit: an ordered list of top-level items.
type Module struct {
	Range
	Name  string
	Decls []Decl
}
