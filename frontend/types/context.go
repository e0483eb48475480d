package types

import (
	"fmt"

	"github.com/rill-lang/rill/internal/limits"
)

// Ctx threads the mutable checking state through every pass: the fresh
// variable supply, the growing substitution, the ADT registry (frozen
// after registration) and the resource limit table. It is built once
// per compilation unit and never shared between units.
type Ctx struct {
	Sub    *Subst
	Reg    *Registry
	Limits limits.Table

	nextType int
	nextRow  int
	limitErr error
}

func NewCtx(reg *Registry, lim limits.Table) *Ctx {
	return &Ctx{
		Sub:    NewSubst(),
		Reg:    reg,
		Limits: lim,
	}
}

// FreshVar allocates a new unbound type variable.
func (c *Ctx) FreshVar() *Var {
	v := &Var{ID: c.nextType}
	c.nextType++
	return v
}

// FreshRowVar allocates a new effect variable identity.
func (c *Ctx) FreshRowVar() int {
	if c.nextRow >= c.Limits.MaxEffectVars && c.limitErr == nil {
		c.limitErr = fmt.Errorf("effect variable count exceeds limit %d", c.Limits.MaxEffectVars)
	}
	id := c.nextRow
	c.nextRow++
	return id
}

// FreshOpenRow allocates an open row with no concrete tags yet.
func (c *Ctx) FreshOpenRow() Row {
	return Row{Tail: c.FreshRowVar()}
}

// LimitErr reports whether any hard limit was crossed while allocating.
func (c *Ctx) LimitErr() error { return c.limitErr }

// Resolve fully applies the substitution to t.
func (c *Ctx) Resolve(t Ty) Ty { return c.Sub.Apply(t) }

// ResolveRow fully applies the substitution to r.
func (c *Ctx) ResolveRow(r Row) Row { return c.Sub.ApplyRow(r) }
