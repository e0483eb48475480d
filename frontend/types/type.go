package types

import (
	"fmt"
	"strings"
)

// Ty is the closed algebra of semantic types. Every case is handled
// exhaustively by the unifier, the kind computation, the pattern
// simplifier and the ADT field resolver; adding a case here must update
// all of them together.
type Ty interface {
	tyNode()
	String() string
}

// Var is a type variable: an identity with no structure, unbound until
// the substitution maps it to something.
type Var struct {
	ID int
}

// Const is a builtin ground type: Unit, Bool, Int, Float or String.
type Const struct {
	Name string
}

// Arrow is a function type: ordered parameters, a return type, and the
// effect row the function performs when called.
type Arrow struct {
	Params  []Ty
	Ret     Ty
	Effects Row
}

// Tuple is a fixed-arity heterogeneous product.
type Tuple struct {
	Elems []Ty
}

// List is the builtin homogeneous list type.
type List struct {
	Elem Ty
}

// Named is an instance of a user-declared algebraic data type.
type Named struct {
	Name string
	Args []Ty
}

// Cap is a capability leaf type: the unforgeable token authorising the
// matching effect. Capability types are intrinsically affine.
type Cap struct {
	Kind CapKind
}

// Ref is a non-owning view of a capability. It is always unrestricted
// and may only appear in extern parameter positions.
type Ref struct {
	Of CapKind
}

// Never is the bottom type: no value of it is ever produced, and it
// unifies only with itself.
type Never struct{}

func (*Var) tyNode()   {}
func (*Const) tyNode() {}
func (*Arrow) tyNode() {}
func (*Tuple) tyNode() {}
func (*List) tyNode()  {}
func (*Named) tyNode() {}
func (*Cap) tyNode()   {}
func (*Ref) tyNode()   {}
func (*Never) tyNode() {}

func (t *Var) String() string   { return fmt.Sprintf("'t%d", t.ID) }
func (t *Const) String() string { return t.Name }

func (t *Arrow) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	s := fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), t.Ret.String())
	if !t.Effects.Empty() {
		s += " ! " + t.Effects.String()
	}
	return s
}

func (t *Tuple) String() string {
	elems := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

func (t *List) String() string { return "List[" + t.Elem.String() + "]" }

func (t *Named) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "[" + strings.Join(args, ", ") + "]"
}

func (t *Cap) String() string   { return t.Kind.String() }
func (t *Ref) String() string   { return "&" + t.Of.String() }
func (t *Never) String() string { return "Never" }

// Equal is structural equality, used by tests and by the closed-row
// comparisons; it does not consult any substitution.
func Equal(a, b Ty) bool {
	switch a := a.(type) {
	case *Var:
		b, ok := b.(*Var)
		return ok && a.ID == b.ID
	case *Const:
		b, ok := b.(*Const)
		return ok && a.Name == b.Name
	case *Arrow:
		b, ok := b.(*Arrow)
		if !ok || len(a.Params) != len(b.Params) || !RowEqual(a.Effects, b.Effects) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Ret, b.Ret)
	case *Tuple:
		b, ok := b.(*Tuple)
		if !ok || len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case *List:
		b, ok := b.(*List)
		return ok && Equal(a.Elem, b.Elem)
	case *Named:
		b, ok := b.(*Named)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Cap:
		b, ok := b.(*Cap)
		return ok && a.Kind == b.Kind
	case *Ref:
		b, ok := b.(*Ref)
		return ok && a.Of == b.Of
	case *Never:
		_, ok := b.(*Never)
		return ok
	default:
		return false
	}
}
