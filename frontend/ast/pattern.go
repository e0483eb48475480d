package ast

// WildcardPattern matches anything without binding.
type WildcardPattern struct {
	Range
}

// BindPattern matches anything and binds it to a name.
type BindPattern struct {
	Range
	Name string
}

// LiteralPattern matches a literal constant.
type LiteralPattern struct {
	Range
	Kind  LitKind
	Value string
}

// TuplePattern destructures a fixed-arity tuple.
type TuplePattern struct {
	Range
	Elems []Pattern
}

// CtorPattern matches a sum variant or a product constructor, with one
// subpattern per payload element (or field, in declaration order).
// A unit variant has zero subpatterns.
type CtorPattern struct {
	Range
	Name string
	Args []Pattern
}

func (*WildcardPattern) patternNode() {}
func (*BindPattern) patternNode()     {}
func (*LiteralPattern) patternNode()  {}
func (*TuplePattern) patternNode()    {}
func (*CtorPattern) patternNode()     {}
