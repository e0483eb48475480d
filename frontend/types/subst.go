package types

// Subst maps type-variable and effect-variable identities to their
// resolved contents. It grows monotonically while solving and is never
// rolled back; types are resolved by applying it on read, so the type
// graph itself stays acyclic and immutable.
type Subst struct {
	types map[int]Ty
	rows  map[int]Row
}

func NewSubst() *Subst {
	return &Subst{
		types: make(map[int]Ty),
		rows:  make(map[int]Row),
	}
}

// BindType records that type variable id stands for t. The caller is
// responsible for the occurs check.
func (s *Subst) BindType(id int, t Ty) { s.types[id] = t }

// BindRow records that effect variable id stands for r.
func (s *Subst) BindRow(id int, r Row) { s.rows[id] = r }

// TypeBinding returns the direct binding of a type variable, if any.
func (s *Subst) TypeBinding(id int) (Ty, bool) {
	t, ok := s.types[id]
	return t, ok
}

// Apply resolves every bound variable in t, recursively. Unbound
// variables are left in place.
func (s *Subst) Apply(t Ty) Ty {
	switch t := t.(type) {
	case *Var:
		if bound, ok := s.types[t.ID]; ok {
			return s.Apply(bound)
		}
		return t
	case *Const, *Cap, *Ref, *Never:
		return t
	case *Arrow:
		params := make([]Ty, len(t.Params))
		for i, p := range t.Params {
			params[i] = s.Apply(p)
		}
		return &Arrow{Params: params, Ret: s.Apply(t.Ret), Effects: s.ApplyRow(t.Effects)}
	case *Tuple:
		elems := make([]Ty, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = s.Apply(e)
		}
		return &Tuple{Elems: elems}
	case *List:
		return &List{Elem: s.Apply(t.Elem)}
	case *Named:
		args := make([]Ty, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.Apply(a)
		}
		return &Named{Name: t.Name, Args: args}
	default:
		return t
	}
}

// ApplyRow resolves the row's tail chain, folding every resolved
// remainder's tags into the concrete part.
func (s *Subst) ApplyRow(r Row) Row {
	tags := r.Tags
	tail := r.Tail
	for tail != NoTail {
		bound, ok := s.rows[tail]
		if !ok {
			break
		}
		tags = UnionTags(tags, bound.Tags)
		tail = bound.Tail
	}
	return Row{Tags: tags, Tail: tail}
}

// Occurs reports whether type variable id occurs in t under the
// current substitution.
func (s *Subst) Occurs(id int, t Ty) bool {
	switch t := t.(type) {
	case *Var:
		if t.ID == id {
			return true
		}
		if bound, ok := s.types[t.ID]; ok {
			return s.Occurs(id, bound)
		}
		return false
	case *Arrow:
		for _, p := range t.Params {
			if s.Occurs(id, p) {
				return true
			}
		}
		return s.Occurs(id, t.Ret)
	case *Tuple:
		for _, e := range t.Elems {
			if s.Occurs(id, e) {
				return true
			}
		}
		return false
	case *List:
		return s.Occurs(id, t.Elem)
	case *Named:
		for _, a := range t.Args {
			if s.Occurs(id, a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// RowOccurs reports whether effect variable id occurs as the tail of r
// under the current substitution. A row must never contain itself.
func (s *Subst) RowOccurs(id int, r Row) bool {
	tail := r.Tail
	for tail != NoTail {
		if tail == id {
			return true
		}
		bound, ok := s.rows[tail]
		if !ok {
			return false
		}
		tail = bound.Tail
	}
	return false
}

// FreeVars collects the unbound type and effect variables of t under
// the substitution.
func (s *Subst) FreeVars(t Ty, tvs map[int]bool, rvs map[int]bool) {
	switch t := s.Apply(t).(type) {
	case *Var:
		tvs[t.ID] = true
	case *Arrow:
		for _, p := range t.Params {
			s.FreeVars(p, tvs, rvs)
		}
		s.FreeVars(t.Ret, tvs, rvs)
		if row := s.ApplyRow(t.Effects); row.Open() {
			rvs[row.Tail] = true
		}
	case *Tuple:
		for _, e := range t.Elems {
			s.FreeVars(e, tvs, rvs)
		}
	case *List:
		s.FreeVars(t.Elem, tvs, rvs)
	case *Named:
		for _, a := range t.Args {
			s.FreeVars(a, tvs, rvs)
		}
	}
}
