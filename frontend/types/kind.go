package types

// Kind classifies how many times a value of a type may be used.
type Kind int

const (
	// Unrestricted values may be used any number of times.
	Unrestricted Kind = iota
	// Affine values may be used at most once.
	Affine
)

func (k Kind) String() string {
	if k == Affine {
		return "affine"
	}
	return "unrestricted"
}

// KindOf computes the kind of a fully (or partially) resolved type.
// Capability leaves are intrinsically affine, and affinity propagates
// through tuples, list elements and ADT type arguments: a container
// holding an affine value is itself affine, otherwise the container
// could be duplicated to launder the capability inside it.
//
// Residual type variables are treated as unrestricted; the move checker
// runs after substitution, so a residual variable means the value's
// type was never constrained to hold a capability.
func (c *Ctx) KindOf(t Ty) Kind {
	switch t := c.Sub.Apply(t).(type) {
	case *Cap:
		return Affine
	case *Tuple:
		for _, e := range t.Elems {
			if c.KindOf(e) == Affine {
				return Affine
			}
		}
		return Unrestricted
	case *List:
		return c.KindOf(t.Elem)
	case *Named:
		for _, a := range t.Args {
			if c.KindOf(a) == Affine {
				return Affine
			}
		}
		return Unrestricted
	default:
		// Var, Const, Arrow, Ref, Never
		return Unrestricted
	}
}
