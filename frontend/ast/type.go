package ast

// NamedType refers to a type by name: a builtin constant (Int, Bool,
// Float, String, Unit, Never), a capability type (Fs, Net, Time, Rand,
// Model), a type parameter in scope, or a user ADT applied to zero or
// more arguments.
type NamedType struct {
	Range
	Name string
	Args []Type
}

// RefType is a non-owning view of a capability; only legal in extern
// parameter positions.
type RefType struct {
	Range
	Of Type
}

// TupleType is a fixed-arity tuple annotation.
type TupleType struct {
	Range
	Elems []Type
}

// FuncType is a function type annotation carrying an effect row; a nil
// Effects means the empty (pure) row.
type FuncType struct {
	Range
	Params  []Type
	Ret     Type
	Effects *EffectAnnot
}

func (*NamedType) typeNode() {}
func (*RefType) typeNode()   {}
func (*TupleType) typeNode() {}
func (*FuncType) typeNode()  {}
