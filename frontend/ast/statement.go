package ast

// LetStmt introduces a new binding in the enclosing block.
type LetStmt struct {
	Range
	Name string
	Init Expr
}

// ExprStmt evaluates an expression for its value and effects.
type ExprStmt struct {
	Range
	E Expr
}

func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}

// Param is a named function parameter with a mandatory type annotation.
type Param struct {
	Range
	Name string
	Type Type
}

// FuncDecl is a top-level function. Extern declarations have no body
// and describe host operations; their parameters may use reference
// types. Ret may be nil (inferred from the body; Unit for externs) and
// Effects may be nil (pure for externs, inferred otherwise).
type FuncDecl struct {
	Range
	Name    string
	Params  []Param
	Ret     Type
	Effects *EffectAnnot
	Body    Expr
	Extern  bool
}

// EffectAnnot is a declared effect row: the `! {Fs, Net}` part of a
// signature. An absent annotation is represented by a nil *EffectAnnot,
// not an empty one: an empty annotation declares the function pure.
type EffectAnnot struct {
	Range
	Tags []string
}

// FieldDef is a named field of a product type declaration.
type FieldDef struct {
	Range
	Name string
	Type Type
}

// VariantDef is one alternative of a sum type declaration. A unit
// variant has no payload.
type VariantDef struct {
	Range
	Name    string
	Payload []Type
}

// TypeDecl declares a user algebraic data type: either a product
// (Fields non-empty) or a sum (Variants non-empty), never both.
type TypeDecl struct {
	Range
	Name     string
	Params   []string
	Fields   []FieldDef
	Variants []VariantDef
}

func (*FuncDecl) declNode() {}
func (*TypeDecl) declNode() {}
