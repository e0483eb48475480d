package types

import "sort"

// Scheme is a type universally quantified over a set of type variables
// and effect variables (let-polymorphism). A monomorphic type is a
// scheme with no quantified variables.
type Scheme struct {
	TypeVars []int
	RowVars  []int
	Body     Ty
}

// Mono wraps a type as an unquantified scheme.
func Mono(t Ty) Scheme { return Scheme{Body: t} }

// Poly reports whether the scheme quantifies anything.
func (s Scheme) Poly() bool { return len(s.TypeVars) > 0 || len(s.RowVars) > 0 }

// Instantiate produces a fresh monomorphic copy of the scheme: every
// quantified variable is replaced by a new one from the context's
// supply. Unquantified variables are left untouched.
func (c *Ctx) Instantiate(s Scheme) Ty {
	if !s.Poly() {
		return s.Body
	}
	tvs := make(map[int]Ty, len(s.TypeVars))
	for _, id := range s.TypeVars {
		tvs[id] = c.FreshVar()
	}
	rvs := make(map[int]int, len(s.RowVars))
	for _, id := range s.RowVars {
		rvs[id] = c.FreshRowVar()
	}
	return rename(s.Body, tvs, rvs)
}

// rename substitutes quantified variables without touching the global
// substitution.
func rename(t Ty, tvs map[int]Ty, rvs map[int]int) Ty {
	switch t := t.(type) {
	case *Var:
		if fresh, ok := tvs[t.ID]; ok {
			return fresh
		}
		return t
	case *Arrow:
		params := make([]Ty, len(t.Params))
		for i, p := range t.Params {
			params[i] = rename(p, tvs, rvs)
		}
		return &Arrow{Params: params, Ret: rename(t.Ret, tvs, rvs), Effects: renameRow(t.Effects, rvs)}
	case *Tuple:
		elems := make([]Ty, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = rename(e, tvs, rvs)
		}
		return &Tuple{Elems: elems}
	case *List:
		return &List{Elem: rename(t.Elem, tvs, rvs)}
	case *Named:
		args := make([]Ty, len(t.Args))
		for i, a := range t.Args {
			args[i] = rename(a, tvs, rvs)
		}
		return &Named{Name: t.Name, Args: args}
	default:
		return t
	}
}

func renameRow(r Row, rvs map[int]int) Row {
	if r.Open() {
		if fresh, ok := rvs[r.Tail]; ok {
			return Row{Tags: r.Tags, Tail: fresh}
		}
	}
	return r
}

// Generalize quantifies the variables of t that are free under the
// substitution but not free in the environment. envTvs and envRvs must
// be computed from the environment as it stands right now, not from a
// stale snapshot: quantifying a variable still visible in the
// environment is unsound.
func (c *Ctx) Generalize(t Ty, envTvs, envRvs map[int]bool) Scheme {
	t = c.Sub.Apply(t)
	tvs := make(map[int]bool)
	rvs := make(map[int]bool)
	c.Sub.FreeVars(t, tvs, rvs)

	var quantT, quantR []int
	for id := range tvs {
		if !envTvs[id] {
			quantT = append(quantT, id)
		}
	}
	for id := range rvs {
		if !envRvs[id] {
			quantR = append(quantR, id)
		}
	}
	sort.Ints(quantT)
	sort.Ints(quantR)
	return Scheme{TypeVars: quantT, RowVars: quantR, Body: t}
}
