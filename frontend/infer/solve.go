package infer

import (
	"fmt"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
)

// solve drains the constraint list: all type equalities first, in
// generation order, then the numeric obligations, then the effect
// subsets to a fixpoint. Effects go last so row content never interacts
// with type shapes that are still unresolved.
func (e *Engine) solve() rillerr.RillError {
	if err := e.solveEqualities(); err != nil {
		return err
	}

	for _, ob := range e.numeric {
		t := e.ctx.Resolve(ob.t)
		if v, ok := t.(*types.Var); ok {
			// unconstrained arithmetic defaults to Int
			if uerr := e.ctx.Unify(v, types.TyInt); uerr != nil {
				return unifyErr(uerr, ob.at)
			}
			continue
		}
		if !types.Numeric(t) {
			return rillerr.New(rillerr.NewTypeMismatch{Positioner: ob.at, First: types.TyInt, Second: t})
		}
	}

	return e.solveEffects()
}

// solveEqualities applies every not-yet-applied type equality to the
// substitution, in generation order. inferBlock calls this before each
// let-generalization so schemes are quantified under the substitution
// grown so far; solve calls it once more for whatever the body emitted
// after the last let.
func (e *Engine) solveEqualities() rillerr.RillError {
	for ; e.solvedEq < len(e.constraints); e.solvedEq++ {
		eq, ok := e.constraints[e.solvedEq].(TypeEqual)
		if !ok {
			continue
		}
		if uerr := e.ctx.Unify(eq.A, eq.B); uerr != nil {
			return unifyErr(uerr, eq.At)
		}
	}
	return nil
}

func (e *Engine) solveEffects() rillerr.RillError {
	iters := 0
	for changed := true; changed; {
		changed = false
		for _, c := range e.constraints {
			sub, ok := c.(EffectSubset)
			if !ok {
				continue
			}
			iters++
			if iters > e.ctx.Limits.MaxSolverIters {
				return rillerr.New(rillerr.NewResourceLimit{
					Positioner: sub.At,
					Detail:     fmt.Sprintf("effect solver exceeded %d iterations", e.ctx.Limits.MaxSolverIters),
				})
			}

			s := e.ctx.ResolveRow(sub.Sub)
			p := e.ctx.ResolveRow(sub.Super)
			missing := types.DiffTags(s.Tags, p.Tags)
			if len(missing) == 0 {
				continue
			}
			if !p.Open() {
				return rillerr.New(rillerr.NewEffectRowMismatch{
					Positioner: sub.At,
					Detail:     fmt.Sprintf("effects %v are not allowed by the expected row %s", missing, p),
				})
			}
			// grow the accumulator's tail, keeping it open for
			// whatever else flows in later
			e.ctx.Sub.BindRow(p.Tail, types.Row{Tags: missing, Tail: e.ctx.FreshRowVar()})
			changed = true
		}
	}
	return nil
}

// unifyErr converts a unifier failure into a positioned error. The
// types reported are the ones resolved under the substitution at
// failure time, never raw placeholders.
func unifyErr(uerr *types.UnifyError, at ast.Positioner) rillerr.RillError {
	switch uerr.Kind {
	case types.UnifyOccurs:
		return rillerr.New(rillerr.NewOccurs{Positioner: at, Detail: uerr.Error()})
	case types.UnifyArity:
		return rillerr.New(rillerr.NewArity{Positioner: at, Detail: uerr.Error()})
	default:
		if uerr.LeftRow != nil {
			return rillerr.New(rillerr.NewEffectRowMismatch{Positioner: at, Detail: uerr.Error()})
		}
		return rillerr.New(rillerr.NewTypeMismatch{Positioner: at, First: uerr.Left, Second: uerr.Right})
	}
}
