package types

import "fmt"

// Field is a named field of a product definition. Its Type may mention
// the definition's parameter variables.
type Field struct {
	Name string
	Type Ty
}

// Variant is one alternative of a sum definition; a unit variant has an
// empty payload.
type Variant struct {
	Name    string
	Payload []Ty
}

// Def is a registered algebraic data type definition. Params and
// ParamVars run in parallel: ParamVars[i] is the type-variable identity
// standing for Params[i] inside field and payload types.
type Def struct {
	Name      string
	Params    []string
	ParamVars []int
	Fields    []Field
	Variants  []Variant
}

// IsSum reports whether the definition is a sum (variants) rather than
// a product (fields).
func (d *Def) IsSum() bool { return len(d.Variants) > 0 }

// Instance is the definition applied to its own parameter variables.
func (d *Def) Instance() *Named {
	args := make([]Ty, len(d.ParamVars))
	for i, id := range d.ParamVars {
		args[i] = &Var{ID: id}
	}
	return &Named{Name: d.Name, Args: args}
}

// VariantIndex finds a variant by name.
func (d *Def) VariantIndex(name string) (int, bool) {
	for i, v := range d.Variants {
		if v.Name == name {
			return i, true
		}
	}
	return 0, false
}

// DefineErrKind classifies a rejected type registration.
type DefineErrKind int

const (
	// DefineReserved: the type or constructor name collides with a
	// builtin or capability type name.
	DefineReserved DefineErrKind = iota
	// DefineDuplicate: the type or constructor name is already taken.
	DefineDuplicate
	// DefineCapabilityPayload: a field or variant payload contains a
	// capability or reference type.
	DefineCapabilityPayload
)

// DefineError reports why a type definition was rejected.
type DefineError struct {
	Kind     DefineErrKind
	TypeName string
	Detail   string
}

func (e *DefineError) Error() string {
	switch e.Kind {
	case DefineReserved:
		return fmt.Sprintf("type %s: name %s is reserved", e.TypeName, e.Detail)
	case DefineDuplicate:
		return fmt.Sprintf("type %s: %s is already defined", e.TypeName, e.Detail)
	default:
		return fmt.Sprintf("type %s: %s may not contain a capability type", e.TypeName, e.Detail)
	}
}

type ctorRef struct {
	typeName string
	variant  int // -1 for a product constructor
}

// Registry holds every user type definition of a compilation unit.
// It is populated during the registration pass and read-only afterwards.
type Registry struct {
	defs  map[string]*Def
	ctors map[string]ctorRef
}

func NewRegistry() *Registry {
	return &Registry{
		defs:  make(map[string]*Def),
		ctors: make(map[string]ctorRef),
	}
}

// Define registers a type definition, enforcing the naming and payload
// rules. Capability leaves are rejected anywhere inside the definition,
// including through nested type expressions: a capability stored inside
// a data structure would become an ambient authority pool reachable
// without being passed a parameter.
func (r *Registry) Define(d *Def) *DefineError {
	if ReservedTypeName(d.Name) {
		return &DefineError{Kind: DefineReserved, TypeName: d.Name, Detail: d.Name}
	}
	if _, taken := r.defs[d.Name]; taken {
		return &DefineError{Kind: DefineDuplicate, TypeName: d.Name, Detail: d.Name}
	}
	if _, taken := r.ctors[d.Name]; taken {
		return &DefineError{Kind: DefineDuplicate, TypeName: d.Name, Detail: d.Name}
	}
	for _, f := range d.Fields {
		if containsCap(f.Type) {
			return &DefineError{Kind: DefineCapabilityPayload, TypeName: d.Name, Detail: "field " + f.Name}
		}
	}
	for _, v := range d.Variants {
		if ReservedTypeName(v.Name) {
			return &DefineError{Kind: DefineReserved, TypeName: d.Name, Detail: v.Name}
		}
		if _, taken := r.ctors[v.Name]; taken {
			return &DefineError{Kind: DefineDuplicate, TypeName: d.Name, Detail: v.Name}
		}
		if _, taken := r.defs[v.Name]; taken {
			return &DefineError{Kind: DefineDuplicate, TypeName: d.Name, Detail: v.Name}
		}
		for _, p := range v.Payload {
			if containsCap(p) {
				return &DefineError{Kind: DefineCapabilityPayload, TypeName: d.Name, Detail: "variant " + v.Name}
			}
		}
	}

	r.defs[d.Name] = d
	if d.IsSum() {
		for i, v := range d.Variants {
			r.ctors[v.Name] = ctorRef{typeName: d.Name, variant: i}
		}
	} else {
		r.ctors[d.Name] = ctorRef{typeName: d.Name, variant: -1}
	}
	return nil
}

func containsCap(t Ty) bool {
	switch t := t.(type) {
	case *Cap, *Ref:
		return true
	case *Arrow:
		for _, p := range t.Params {
			if containsCap(p) {
				return true
			}
		}
		return containsCap(t.Ret)
	case *Tuple:
		for _, e := range t.Elems {
			if containsCap(e) {
				return true
			}
		}
		return false
	case *List:
		return containsCap(t.Elem)
	case *Named:
		for _, a := range t.Args {
			if containsCap(a) {
				return true
			}
		}
		return false
	default:
		// Var, Const, Never
		return false
	}
}

// Lookup finds a definition by type name.
func (r *Registry) Lookup(name string) (*Def, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// LookupCtor resolves a constructor name to its definition and variant
// index; the index is -1 for a product constructor.
func (r *Registry) LookupCtor(name string) (*Def, int, bool) {
	ref, ok := r.ctors[name]
	if !ok {
		return nil, 0, false
	}
	return r.defs[ref.typeName], ref.variant, true
}

// CtorScheme builds the polymorphic type of a constructor: an arrow
// from the payload (or field types, in declaration order) to the ADT
// instance, quantified over the definition's parameters. A unit variant
// is a plain value of the instance type, not a function.
func (d *Def) CtorScheme(variant int) Scheme {
	inst := d.Instance()
	var params []Ty
	if variant >= 0 {
		params = d.Variants[variant].Payload
	} else {
		params = make([]Ty, len(d.Fields))
		for i, f := range d.Fields {
			params[i] = f.Type
		}
	}
	var body Ty
	if len(params) == 0 && variant >= 0 {
		body = inst
	} else {
		body = &Arrow{Params: params, Ret: inst, Effects: EmptyRow()}
	}
	return Scheme{TypeVars: append([]int(nil), d.ParamVars...), Body: body}
}

// ResolvePayload substitutes the instance's concrete type arguments
// into a variant's payload types. Both the move checker and the
// exhaustiveness checker need this: the kind (and shape) of a
// pattern-bound field whose declared type is a bare parameter is only
// known under the scrutinee's instantiation.
func (d *Def) ResolvePayload(variant int, args []Ty) []Ty {
	var payload []Ty
	if variant >= 0 {
		payload = d.Variants[variant].Payload
	} else {
		payload = make([]Ty, len(d.Fields))
		for i, f := range d.Fields {
			payload[i] = f.Type
		}
	}
	return d.resolveAll(payload, args)
}

func (d *Def) resolveAll(tys []Ty, args []Ty) []Ty {
	tvs := make(map[int]Ty, len(d.ParamVars))
	for i, id := range d.ParamVars {
		if i < len(args) {
			tvs[id] = args[i]
		}
	}
	out := make([]Ty, len(tys))
	for i, t := range tys {
		out[i] = rename(t, tvs, nil)
	}
	return out
}
