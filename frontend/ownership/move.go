// Package ownership is the affine move checker: an independent pass,
// run once substitution is complete, rejecting any program that uses an
// affine binding more than once. It never touches unification state;
// it only reads the finalized types.
package ownership

import (
	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/infer"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/log"
)

var logger = log.DefaultLogger.With("section", "ownership")

// Check move-checks every function that survived the earlier passes.
// The binding table is scoped per function and discarded afterwards.
func Check(res *infer.Result) *rillerr.Errors {
	var errs *rillerr.Errors
	for _, fn := range res.Funcs {
		if fn.Err != nil || fn.Decl.Extern {
			continue
		}
		c := &checker{ctx: res.Ctx, res: res, gens: make(map[string]int)}
		c.scope = newScope(nil)
		for i, p := range fn.Decl.Params {
			c.introduce(p.Name, res.Ctx.Resolve(fn.ParamTypes[i]))
		}
		if err := c.checkExpr(fn.Decl.Body); err != nil {
			fn.Err = err
			errs = errs.With(err)
		}
	}
	return errs
}

type checker struct {
	ctx *types.Ctx
	res *infer.Result

	scope       *scope
	all         []*binding
	gens        map[string]int
	loopDepth   int
	lambdaDepth int

	// bindings consumed by the call currently having its arguments
	// evaluated, to distinguish "passed twice in one call" from a
	// plain use-after-move
	inCall map[*binding]ast.Range
}

func (c *checker) introduce(name string, t types.Ty) *binding {
	c.gens[name]++
	b := &binding{
		name:        name,
		gen:         c.gens[name],
		kind:        c.ctx.KindOf(t),
		loopDepth:   c.loopDepth,
		lambdaDepth: c.lambdaDepth,
	}
	c.scope.vars[name] = b
	c.all = append(c.all, b)
	return b
}

// use records a (possibly consuming) use of name. Borrowed uses pass
// borrow=true and never consume the referent.
func (c *checker) use(name string, at ast.Positioner, borrow bool) rillerr.RillError {
	b := c.scope.lookup(name)
	if b == nil || b.kind != types.Affine {
		return nil
	}
	if b.lambdaDepth < c.lambdaDepth {
		return rillerr.New(rillerr.NewAffineCapture{Positioner: at, Name: name})
	}
	if b.loopDepth < c.loopDepth {
		// one static use inside the loop would be many runtime ones
		return rillerr.New(rillerr.NewUseInLoop{Positioner: at, Name: name})
	}
	if b.consumed {
		if c.inCall != nil {
			if first, ok := c.inCall[b]; ok {
				return rillerr.New(rillerr.SecondConsume{Positioner: at, Name: name, FirstAt: first})
			}
		}
		return rillerr.New(rillerr.NewUseAfterConsume{
			Positioner: at,
			Name:       name,
			ConsumedAt: b.consumedAt,
			InBranch:   b.inBranch,
		})
	}
	if borrow {
		return nil
	}
	b.consumed = true
	b.consumedAt = ast.RangeOf(at)
	b.inBranch = false
	if c.inCall != nil {
		c.inCall[b] = b.consumedAt
	}
	logger.Debug("consumed", "name", name, "gen", b.gen, "at", b.consumedAt.String())
	return nil
}

func (c *checker) checkExpr(expr ast.Expr) rillerr.RillError {
	switch expr := expr.(type) {
	case *ast.Literal:
		return nil

	case *ast.Var:
		return c.use(expr.Name, expr, false)

	case *ast.Call:
		return c.checkCall(expr)

	case *ast.Binary:
		if err := c.checkExpr(expr.Lhs); err != nil {
			return err
		}
		return c.checkExpr(expr.Rhs)

	case *ast.If:
		return c.checkIf(expr)

	case *ast.While:
		return c.checkWhile(expr)

	case *ast.Block:
		return c.checkBlock(expr)

	case *ast.Match:
		return c.checkMatch(expr)

	case *ast.Lambda:
		return c.checkLambda(expr)

	case *ast.TupleExpr:
		for _, el := range expr.Elems {
			if err := c.checkExpr(el); err != nil {
				return err
			}
		}
		return nil

	case *ast.ListExpr:
		for _, el := range expr.Elems {
			if err := c.checkExpr(el); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

// checkCall evaluates arguments left to right with cumulative state:
// passing the same affine binding twice in one call fails at the second
// occurrence. Arguments in reference-parameter positions (extern
// borrows) do not consume the referent.
func (c *checker) checkCall(call *ast.Call) rillerr.RillError {
	if err := c.checkExpr(call.Fn); err != nil {
		return err
	}

	var params []types.Ty
	if fnT, ok := c.res.TypeOf(call.Fn); ok {
		if arrow, ok := fnT.(*types.Arrow); ok && len(arrow.Params) == len(call.Args) {
			params = arrow.Params
		}
	}

	outerCall := c.inCall
	c.inCall = make(map[*binding]ast.Range)
	defer func() { c.inCall = outerCall }()

	for i, arg := range call.Args {
		borrowed := false
		if params != nil {
			if _, isRef := c.ctx.Resolve(params[i]).(*types.Ref); isRef {
				borrowed = true
			}
		}
		if v, ok := arg.(*ast.Var); ok && borrowed {
			if err := c.use(v.Name, v, true); err != nil {
				return err
			}
			continue
		}
		if err := c.checkExpr(arg); err != nil {
			return err
		}
	}
	return nil
}

// checkIf applies the pessimistic join: a binding consumed in any
// branch is consumed after the conditional, whichever branch actually
// runs. No runtime information exists statically, so the
// over-approximation is the only safe choice.
func (c *checker) checkIf(cond *ast.If) rillerr.RillError {
	if err := c.checkExpr(cond.Cond); err != nil {
		return err
	}

	before := c.snapshot()
	if err := c.checkExpr(cond.Then); err != nil {
		return err
	}
	afterThen := c.snapshot()

	c.restore(before)
	if cond.Else != nil {
		if err := c.checkExpr(cond.Else); err != nil {
			return err
		}
	}
	afterElse := c.snapshot()

	c.join(before, afterThen, afterElse)
	return nil
}

func (c *checker) checkWhile(loop *ast.While) rillerr.RillError {
	c.loopDepth++
	defer func() { c.loopDepth-- }()
	// the condition re-runs every iteration just like the body
	if err := c.checkExpr(loop.Cond); err != nil {
		return err
	}
	return c.checkExpr(loop.Body)
}

func (c *checker) checkBlock(block *ast.Block) rillerr.RillError {
	outer := c.scope
	c.scope = newScope(outer)
	defer func() { c.scope = outer }()

	for _, stmt := range block.Stmts {
		switch stmt := stmt.(type) {
		case *ast.LetStmt:
			// evaluating the initialiser consumes any affine source,
			// transferring ownership to the new binding
			if err := c.checkExpr(stmt.Init); err != nil {
				return err
			}
			t, ok := c.res.TypeOf(stmt.Init)
			if !ok {
				t = types.TyUnit
			}
			c.introduce(stmt.Name, t)
		case *ast.ExprStmt:
			if err := c.checkExpr(stmt.E); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *checker) checkMatch(match *ast.Match) rillerr.RillError {
	if err := c.checkExpr(match.Scrutinee); err != nil {
		return err
	}
	scrutT, _ := c.res.TypeOf(match.Scrutinee)

	before := c.snapshot()
	states := make([]map[*binding]bindingState, 0, len(match.Arms))
	for _, arm := range match.Arms {
		c.restore(before)
		outer := c.scope
		c.scope = newScope(outer)
		err := c.bindPattern(arm.Pattern, scrutT)
		if err == nil {
			err = c.checkExpr(arm.Body)
		}
		c.scope = outer
		if err != nil {
			return err
		}
		states = append(states, c.snapshot())
	}
	c.restore(before)
	c.join(before, states...)
	return nil
}

// bindPattern introduces the pattern's bindings with the kinds of the
// types they actually hold. A field declared with a bare type parameter
// has its kind determined by the scrutinee's concrete instantiation,
// resolved through the ADT definition.
func (c *checker) bindPattern(pat ast.Pattern, scrut types.Ty) rillerr.RillError {
	if scrut != nil {
		scrut = c.ctx.Resolve(scrut)
	}
	switch pat := pat.(type) {
	case *ast.WildcardPattern, *ast.LiteralPattern:
		return nil

	case *ast.BindPattern:
		if scrut == nil {
			scrut = types.TyUnit
		}
		c.introduce(pat.Name, scrut)
		return nil

	case *ast.TuplePattern:
		tup, ok := scrut.(*types.Tuple)
		for i, sub := range pat.Elems {
			var elem types.Ty
			if ok && i < len(tup.Elems) {
				elem = tup.Elems[i]
			}
			if err := c.bindPattern(sub, elem); err != nil {
				return err
			}
		}
		return nil

	case *ast.CtorPattern:
		def, variant, ok := c.ctx.Reg.LookupCtor(pat.Name)
		if !ok {
			return nil // inference reported this already
		}
		var payload []types.Ty
		if named, isNamed := scrut.(*types.Named); isNamed {
			payload = def.ResolvePayload(variant, named.Args)
		} else {
			payload = def.ResolvePayload(variant, nil)
		}
		for i, sub := range pat.Args {
			var field types.Ty
			if i < len(payload) {
				field = c.ctx.Resolve(payload[i])
			}
			if err := c.bindPattern(sub, field); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

// checkLambda rejects capture of affine bindings outright. Whether a
// capturing closure should instead become affine itself is an open
// design question; until that is settled the conservative rule stands.
func (c *checker) checkLambda(lam *ast.Lambda) rillerr.RillError {
	outer := c.scope
	c.scope = newScope(outer)
	c.lambdaDepth++
	defer func() {
		c.lambdaDepth--
		c.scope = outer
	}()

	for _, p := range lam.Params {
		var t types.Ty = types.TyUnit
		if lamT, ok := c.res.TypeOf(lam); ok {
			if arrow, ok := lamT.(*types.Arrow); ok {
				for i, lp := range lam.Params {
					if lp.Name == p.Name && i < len(arrow.Params) {
						t = arrow.Params[i]
					}
				}
			}
		}
		c.introduce(p.Name, t)
	}
	return c.checkExpr(lam.Body)
}

func (c *checker) snapshot() map[*binding]bindingState {
	st := make(map[*binding]bindingState, len(c.all))
	for _, b := range c.all {
		st[b] = b.state()
	}
	return st
}

func (c *checker) restore(st map[*binding]bindingState) {
	for b, s := range st {
		b.restore(s)
	}
}

// join folds branch outcomes pessimistically: consumed anywhere means
// consumed afterwards. A binding consumed in only some branches is
// flagged inBranch so the eventual diagnostic can say so.
func (c *checker) join(before map[*binding]bindingState, branches ...map[*binding]bindingState) {
	for b, base := range before {
		if base.consumed {
			continue
		}
		consumedIn := 0
		var at ast.Range
		for _, br := range branches {
			if st, ok := br[b]; ok && st.consumed {
				consumedIn++
				at = st.consumedAt
			}
		}
		if consumedIn == 0 {
			continue
		}
		b.consumed = true
		b.consumedAt = at
		b.inBranch = consumedIn < len(branches)
	}
}
