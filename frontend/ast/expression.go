package ast

// LitKind distinguishes the literal forms the lexer can produce.
type LitKind int

const (
	LitUnit LitKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

func (k LitKind) String() string {
	switch k {
	case LitUnit:
		return "unit"
	case LitBool:
		return "bool"
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitString:
		return "string"
	default:
		return "unknown"
	}
}

// Literal is a literal constant expression.
// Value holds the literal's source text; for LitString it is the
// unquoted, unescaped contents.
type Literal struct {
	Range
	Kind  LitKind
	Value string
}

// Var is a reference to a named binding.
type Var struct {
	Range
	Name string
}

// Call applies a callee to zero or more arguments.
type Call struct {
	Range
	Fn   Expr
	Args []Expr
}

// BinOp is the operator of a Binary expression.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpAnd
	OpOr
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// Arithmetic reports whether the operator requires numeric operands.
func (op BinOp) Arithmetic() bool {
	return op == OpAdd || op == OpSub || op == OpMul || op == OpDiv
}

// Comparison reports whether the operator produces Bool from two
// operands of a shared type.
func (op BinOp) Comparison() bool {
	switch op {
	case OpEq, OpNotEq, OpLess, OpLessEq, OpGreater, OpGreaterEq:
		return true
	}
	return false
}

// Logical reports whether the operator works on Bool operands.
func (op BinOp) Logical() bool {
	return op == OpAnd || op == OpOr
}

// Binary is an infix operator expression.
type Binary struct {
	Range
	Op   BinOp
	Lhs  Expr
	Rhs  Expr
}

// If is a conditional expression. Else may be nil, in which case the
// expression has type Unit.
type If struct {
	Range
	Cond Expr
	Then Expr
	Else Expr
}

// While is a loop expression of type Unit.
type While struct {
	Range
	Cond Expr
	Body Expr
}

// Block is a brace-delimited sequence of statements; its value is the
// value of the final expression statement, or unit.
type Block struct {
	Range
	Stmts []Stmt
}

// MatchArm is one arm of a Match expression.
type MatchArm struct {
	Range
	Pattern Pattern
	Body    Expr
}

// Match scrutinises a value against an ordered list of arms.
type Match struct {
	Range
	Scrutinee Expr
	Arms      []MatchArm
}

// Lambda is an anonymous function literal.
type Lambda struct {
	Range
	Params []Param
	Body   Expr
}

// TupleExpr constructs a fixed-arity tuple.
type TupleExpr struct {
	Range
	Elems []Expr
}

// ListExpr constructs a homogeneous list.
type ListExpr struct {
	Range
	Elems []Expr
}

func (*Literal) exprNode()   {}
func (*Var) exprNode()       {}
func (*Call) exprNode()      {}
func (*Binary) exprNode()    {}
func (*If) exprNode()        {}
func (*While) exprNode()     {}
func (*Block) exprNode()     {}
func (*Match) exprNode()     {}
func (*Lambda) exprNode()    {}
func (*TupleExpr) exprNode() {}
func (*ListExpr) exprNode()  {}
