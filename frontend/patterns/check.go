// Package patterns decides exhaustiveness and redundancy of match
// expressions by recursive specialization over a pattern matrix
// (Maranget's usefulness algorithm). Non-exhaustive matches are
// reported with a witness: a concrete pattern no arm covers.
package patterns

import (
	"fmt"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/infer"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/log"
	"github.com/rill-lang/rill/util"
)

var logger = log.DefaultLogger.With("section", "patterns")

// Check analyzes every match expression of every surviving function.
// The first non-exhaustive match stops that function; redundancy
// findings are advisory and never stop anything.
func Check(res *infer.Result) *rillerr.Errors {
	var errs *rillerr.Errors
	for _, fn := range res.Funcs {
		if fn.Err != nil || fn.Decl.Extern {
			continue
		}
		matches := collectMatches(fn.Decl.Body)
		for _, m := range matches {
			advisories, err := checkMatch(res, m)
			errs = errs.Merge(advisories)
			if err != nil {
				fn.Err = err
				errs = errs.With(err)
				if err.Code() == rillerr.ResourceLimit {
					// a blown matrix budget fails the whole unit
					return errs
				}
				break
			}
		}
	}
	return errs
}

func collectMatches(expr ast.Expr) []*ast.Match {
	var out []*ast.Match
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch e := e.(type) {
		case *ast.Match:
			out = append(out, e)
			walk(e.Scrutinee)
			for _, arm := range e.Arms {
				walk(arm.Body)
			}
		case *ast.Call:
			walk(e.Fn)
			for _, a := range e.Args {
				walk(a)
			}
		case *ast.Binary:
			walk(e.Lhs)
			walk(e.Rhs)
		case *ast.If:
			walk(e.Cond)
			walk(e.Then)
			if e.Else != nil {
				walk(e.Else)
			}
		case *ast.While:
			walk(e.Cond)
			walk(e.Body)
		case *ast.Block:
			for _, s := range e.Stmts {
				switch s := s.(type) {
				case *ast.LetStmt:
					walk(s.Init)
				case *ast.ExprStmt:
					walk(s.E)
				}
			}
		case *ast.Lambda:
			walk(e.Body)
		case *ast.TupleExpr:
			for _, el := range e.Elems {
				walk(el)
			}
		case *ast.ListExpr:
			for _, el := range e.Elems {
				walk(el)
			}
		}
	}
	walk(expr)
	return out
}

// fullyResolved reports whether t contains no residual type variables.
func fullyResolved(ctx *types.Ctx, t types.Ty) bool {
	switch t := ctx.Resolve(t).(type) {
	case *types.Var:
		return false
	case *types.Arrow:
		for _, p := range t.Params {
			if !fullyResolved(ctx, p) {
				return false
			}
		}
		return fullyResolved(ctx, t.Ret)
	case *types.Tuple:
		for _, e := range t.Elems {
			if !fullyResolved(ctx, e) {
				return false
			}
		}
		return true
	case *types.List:
		return fullyResolved(ctx, t.Elem)
	case *types.Named:
		for _, a := range t.Args {
			if !fullyResolved(ctx, a) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func checkMatch(res *infer.Result, m *ast.Match) (*rillerr.Errors, rillerr.RillError) {
	scrutT, ok := res.TypeOf(m.Scrutinee)
	if !ok || !fullyResolved(res.Ctx, scrutT) {
		// residual variables mean the scrutinee's shape is unknown;
		// skip conservatively instead of guessing
		logger.Debug("skipping exhaustiveness for unresolved scrutinee")
		return nil, nil
	}

	a := &analyzer{ctx: res.Ctx}
	rows := make([][]pat, len(m.Arms))
	for i, arm := range m.Arms {
		rows[i] = []pat{simplify(arm.Pattern)}
	}
	mat := &matrix{rows: rows, colTypes: []types.Ty{scrutT}}

	var advisories *rillerr.Errors
	for i := range rows {
		above := &matrix{rows: rows[:i], colTypes: mat.colTypes}
		useful, err := a.useful(above, rows[i], 0)
		if err != nil {
			return advisories, err
		}
		if !useful {
			advisories = advisories.With(rillerr.New(rillerr.NewRedundantArm{
				Positioner: m.Arms[i],
				ArmIndex:   i,
			}))
		}
	}

	w, err := a.witness(mat, 0)
	if err != nil {
		return advisories, err
	}
	if w != nil {
		return advisories, rillerr.New(rillerr.NewNonExhaustiveMatch{
			Positioner: m,
			Witness:    w[0].String(),
		})
	}
	return advisories, nil
}

type analyzer struct {
	ctx *types.Ctx
}

func (a *analyzer) bounds(m *matrix, depth int, at string) rillerr.RillError {
	if depth > a.ctx.Limits.MaxPatternDepth {
		return rillerr.New(rillerr.NewResourceLimit{
			Positioner: ast.Range{},
			Detail:     fmt.Sprintf("pattern analysis depth exceeds limit %d (%s)", a.ctx.Limits.MaxPatternDepth, at),
		})
	}
	if m.cells() > a.ctx.Limits.MaxPatternCells {
		return rillerr.New(rillerr.NewResourceLimit{
			Positioner: ast.Range{},
			Detail:     fmt.Sprintf("pattern matrix size exceeds limit %d (%s)", a.ctx.Limits.MaxPatternCells, at),
		})
	}
	return nil
}

// witness returns a pattern vector no row of the matrix covers, or nil
// when the matrix is exhaustive over its column types.
func (a *analyzer) witness(m *matrix, depth int) ([]pat, rillerr.RillError) {
	if err := a.bounds(m, depth, "witness"); err != nil {
		return nil, err
	}
	if len(m.colTypes) == 0 {
		if len(m.rows) == 0 {
			return []pat{}, nil // uncovered: the empty vector
		}
		return nil, nil
	}

	sigs, complete := signature(a.ctx, m.colTypes[0])
	heads := m.headCtors()

	if complete && allPresent(sigs, heads) {
		for _, sig := range sigs {
			sub, err := a.witness(m.specialize(sig), depth+1)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				head := patCtor{name: sig.name, args: sub[:sig.arity]}
				return append([]pat{head}, sub[sig.arity:]...), nil
			}
		}
		return nil, nil
	}

	// incomplete signature: a default row suffices to witness; the
	// head is the first missing constructor when we can name one
	sub, err := a.witness(m.defaulted(), depth+1)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}
	head := a.missingHead(sigs, heads)
	return append([]pat{head}, sub...), nil
}

func (a *analyzer) missingHead(sigs []ctorSig, heads util.MSet[string]) pat {
	for _, sig := range sigs {
		if !heads.Contains(sig.name) {
			args := make([]pat, sig.arity)
			for i := range args {
				args[i] = patWild{}
			}
			return patCtor{name: sig.name, args: args}
		}
	}
	return patWild{}
}

func allPresent(sigs []ctorSig, heads util.MSet[string]) bool {
	if len(sigs) == 0 {
		return false
	}
	for _, sig := range sigs {
		if !heads.Contains(sig.name) {
			return false
		}
	}
	return true
}

// useful reports whether the query row can match a value no matrix row
// matches first. A row that is not useful against the rows above it is
// redundant.
func (a *analyzer) useful(m *matrix, q []pat, depth int) (bool, rillerr.RillError) {
	if err := a.bounds(m, depth, "useful"); err != nil {
		return false, err
	}
	if len(q) == 0 {
		return len(m.rows) == 0, nil
	}

	switch head := q[0].(type) {
	case patCtor:
		sigs, _ := signature(a.ctx, m.colTypes[0])
		sig := ctorSig{name: head.name, arity: len(head.args)}
		for _, s := range sigs {
			if s.name == head.name {
				sig = s
			}
		}
		return a.useful(m.specialize(sig), append(append([]pat(nil), head.args...), q[1:]...), depth+1)

	case patLit:
		return a.useful(m.specializeLit(head), q[1:], depth+1)

	default: // wildcard
		sigs, complete := signature(a.ctx, m.colTypes[0])
		heads := m.headCtors()
		if complete && allPresent(sigs, heads) {
			for _, sig := range sigs {
				wilds := make([]pat, sig.arity)
				for i := range wilds {
					wilds[i] = patWild{}
				}
				ok, err := a.useful(m.specialize(sig), append(wilds, q[1:]...), depth+1)
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
		return a.useful(m.defaulted(), q[1:], depth+1)
	}
}
