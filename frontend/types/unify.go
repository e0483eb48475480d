package types

import "fmt"

// UnifyErrKind classifies why unification failed.
type UnifyErrKind int

const (
	// UnifyMismatch means two types (or two closed rows) have
	// irreconcilable shapes.
	UnifyMismatch UnifyErrKind = iota
	// UnifyOccurs means a variable would have to contain itself.
	UnifyOccurs
	// UnifyArity means two same-shaped types disagree on arity.
	UnifyArity
)

// UnifyError reports a failed unification. Left and Right always carry
// the types as resolved under the substitution at failure time, never
// raw placeholders.
type UnifyError struct {
	Kind  UnifyErrKind
	Left  Ty
	Right Ty

	// set for UnifyOccurs
	VarID int

	// set for UnifyArity
	Want, Got int

	// set when the conflict is between effect rows
	LeftRow, RightRow *Row
}

func (e *UnifyError) Error() string {
	switch e.Kind {
	case UnifyOccurs:
		if e.LeftRow != nil {
			return fmt.Sprintf("effect row %s would contain itself", e.LeftRow)
		}
		return fmt.Sprintf("type 't%d occurs inside %s and would be infinite", e.VarID, e.Right)
	case UnifyArity:
		return fmt.Sprintf("arity mismatch: %s has %d elements but %s has %d", e.Left, e.Want, e.Right, e.Got)
	default:
		if e.LeftRow != nil {
			return fmt.Sprintf("effect rows %s and %s do not match", e.LeftRow, e.RightRow)
		}
		return fmt.Sprintf("type mismatch: %s is not %s", e.Left, e.Right)
	}
}

// Unify makes a and b equal under the context's substitution, growing
// it as needed, or reports the first irreconcilable conflict.
func (c *Ctx) Unify(a, b Ty) *UnifyError {
	a = c.Sub.Apply(a)
	b = c.Sub.Apply(b)

	if av, ok := a.(*Var); ok {
		return c.bindVar(av, b)
	}
	if bv, ok := b.(*Var); ok {
		return c.bindVar(bv, a)
	}

	switch a := a.(type) {
	case *Const:
		if b, ok := b.(*Const); ok && a.Name == b.Name {
			return nil
		}
	case *Arrow:
		b, ok := b.(*Arrow)
		if !ok {
			break
		}
		if len(a.Params) != len(b.Params) {
			return &UnifyError{Kind: UnifyArity, Left: a, Right: b, Want: len(a.Params), Got: len(b.Params)}
		}
		for i := range a.Params {
			if err := c.Unify(a.Params[i], b.Params[i]); err != nil {
				return err
			}
		}
		if err := c.Unify(a.Ret, b.Ret); err != nil {
			return err
		}
		return c.UnifyRows(a.Effects, b.Effects)
	case *Tuple:
		b, ok := b.(*Tuple)
		if !ok {
			break
		}
		if len(a.Elems) != len(b.Elems) {
			return &UnifyError{Kind: UnifyArity, Left: a, Right: b, Want: len(a.Elems), Got: len(b.Elems)}
		}
		for i := range a.Elems {
			if err := c.Unify(a.Elems[i], b.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case *List:
		if b, ok := b.(*List); ok {
			return c.Unify(a.Elem, b.Elem)
		}
	case *Named:
		b, ok := b.(*Named)
		if !ok || a.Name != b.Name {
			break
		}
		if len(a.Args) != len(b.Args) {
			return &UnifyError{Kind: UnifyArity, Left: a, Right: b, Want: len(a.Args), Got: len(b.Args)}
		}
		for i := range a.Args {
			if err := c.Unify(a.Args[i], b.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case *Cap:
		if b, ok := b.(*Cap); ok && a.Kind == b.Kind {
			return nil
		}
	case *Ref:
		if b, ok := b.(*Ref); ok && a.Of == b.Of {
			return nil
		}
	case *Never:
		if _, ok := b.(*Never); ok {
			return nil
		}
	}
	return &UnifyError{Kind: UnifyMismatch, Left: a, Right: b}
}

func (c *Ctx) bindVar(v *Var, t Ty) *UnifyError {
	if tv, ok := t.(*Var); ok && tv.ID == v.ID {
		return nil
	}
	if c.Sub.Occurs(v.ID, t) {
		return &UnifyError{Kind: UnifyOccurs, VarID: v.ID, Left: v, Right: t}
	}
	c.Sub.BindType(v.ID, t)
	return nil
}

// UnifyRows makes two effect rows equal. Closed rows must carry
// identical concrete sets; a closed row against an open one resolves
// the tail to the difference; two open rows share a fresh common tail.
func (c *Ctx) UnifyRows(a, b Row) *UnifyError {
	a = c.Sub.ApplyRow(a)
	b = c.Sub.ApplyRow(b)

	rowErr := func() *UnifyError {
		return &UnifyError{Kind: UnifyMismatch, LeftRow: &a, RightRow: &b}
	}

	switch {
	case !a.Open() && !b.Open():
		if TagsEqual(a.Tags, b.Tags) {
			return nil
		}
		return rowErr()

	case !a.Open() && b.Open():
		return c.closeTail(b, a, rowErr)

	case a.Open() && !b.Open():
		return c.closeTail(a, b, rowErr)

	default:
		if a.Tail == b.Tail {
			if TagsEqual(a.Tags, b.Tags) {
				return nil
			}
			// same remainder cannot absorb two different sets
			return &UnifyError{Kind: UnifyOccurs, VarID: a.Tail, LeftRow: &a, RightRow: &b}
		}
		shared := c.FreshRowVar()
		c.Sub.BindRow(a.Tail, Row{Tags: DiffTags(b.Tags, a.Tags), Tail: shared})
		c.Sub.BindRow(b.Tail, Row{Tags: DiffTags(a.Tags, b.Tags), Tail: shared})
		return nil
	}
}

// closeTail resolves open's tail so that open equals closed.
func (c *Ctx) closeTail(open, closed Row, rowErr func() *UnifyError) *UnifyError {
	if !SubsetTags(open.Tags, closed.Tags) {
		return rowErr()
	}
	remainder := Row{Tags: DiffTags(closed.Tags, open.Tags), Tail: NoTail}
	if c.Sub.RowOccurs(open.Tail, remainder) {
		return &UnifyError{Kind: UnifyOccurs, VarID: open.Tail, LeftRow: &open, RightRow: &closed}
	}
	c.Sub.BindRow(open.Tail, remainder)
	return nil
}
