package infer

import (
	"fmt"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
)

func litType(kind ast.LitKind) types.Ty {
	switch kind {
	case ast.LitUnit:
		return types.TyUnit
	case ast.LitBool:
		return types.TyBool
	case ast.LitInt:
		return types.TyInt
	case ast.LitFloat:
		return types.TyFloat
	default:
		return types.TyString
	}
}

// inferExpr walks one expression, emitting constraints for every
// position. The returned type may still contain unresolved variables;
// e.record keeps the raw type, which is substituted on read once the
// solver has run.
func (e *Engine) inferExpr(env *TypeEnv, expr ast.Expr) (types.Ty, rillerr.RillError) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.ctx.Limits.MaxInferDepth {
		return nil, rillerr.New(rillerr.NewResourceLimit{
			Positioner: expr,
			Detail:     fmt.Sprintf("expression nesting exceeds limit %d", e.ctx.Limits.MaxInferDepth),
		})
	}

	switch expr := expr.(type) {
	case *ast.Literal:
		return e.record(expr, litType(expr.Kind)), nil

	case *ast.Var:
		scheme, ok := env.Lookup(expr.Name)
		if !ok {
			return nil, rillerr.New(rillerr.NewUnknownIdentifier{Positioner: expr, Name: expr.Name})
		}
		return e.record(expr, e.ctx.Instantiate(scheme)), nil

	case *ast.Call:
		return e.inferCall(env, expr)

	case *ast.Binary:
		return e.inferBinary(env, expr)

	case *ast.If:
		return e.inferIf(env, expr)

	case *ast.While:
		condT, err := e.inferExpr(env, expr.Cond)
		if err != nil {
			return nil, err
		}
		e.emit(TypeEqual{A: types.TyBool, B: condT, At: expr.Cond})
		if _, err := e.inferExpr(env, expr.Body); err != nil {
			return nil, err
		}
		return e.record(expr, types.TyUnit), nil

	case *ast.Block:
		return e.inferBlock(env, expr)

	case *ast.Match:
		return e.inferMatch(env, expr)

	case *ast.Lambda:
		return e.inferLambda(env, expr)

	case *ast.TupleExpr:
		elems := make([]types.Ty, len(expr.Elems))
		for i, el := range expr.Elems {
			t, err := e.inferExpr(env, el)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return e.record(expr, &types.Tuple{Elems: elems}), nil

	case *ast.ListExpr:
		elem := types.Ty(e.ctx.FreshVar())
		for _, el := range expr.Elems {
			t, err := e.inferExpr(env, el)
			if err != nil {
				return nil, err
			}
			e.emit(TypeEqual{A: elem, B: t, At: el})
		}
		return e.record(expr, &types.List{Elem: elem}), nil

	default:
		return nil, rillerr.New(rillerr.Unclassified{
			Positioner: expr,
			From:       fmt.Errorf("unhandled expression %T", expr),
		})
	}
}

// inferCall types a call: one equality constraint per argument, one for
// the callee shape, and one effect-subset constraint propagating the
// callee's row into the enclosing function's accumulator.
func (e *Engine) inferCall(env *TypeEnv, call *ast.Call) (types.Ty, rillerr.RillError) {
	fnT, err := e.inferExpr(env, call.Fn)
	if err != nil {
		return nil, err
	}

	argTys := make([]types.Ty, len(call.Args))
	for i, arg := range call.Args {
		t, err := e.inferExpr(env, arg)
		if err != nil {
			return nil, err
		}
		argTys[i] = t
	}

	// When the callee's arrow is already concrete (externs, pass-one
	// signatures) constrain against its own parameter types so borrow
	// positions are visible: an argument for a reference parameter is
	// the capability itself, lent for the duration of the call.
	if arrow, ok := e.ctx.Resolve(fnT).(*types.Arrow); ok && len(arrow.Params) == len(call.Args) {
		for i, p := range arrow.Params {
			expected := p
			if ref, isRef := e.ctx.Resolve(p).(*types.Ref); isRef {
				expected = &types.Cap{Kind: ref.Of}
			}
			e.emit(TypeEqual{A: expected, B: argTys[i], At: call.Args[i]})
		}
		e.emit(EffectSubset{Sub: arrow.Effects, Super: e.acc, At: call})
		return e.record(call, arrow.Ret), nil
	}

	params := make([]types.Ty, len(call.Args))
	for i := range params {
		params[i] = e.ctx.FreshVar()
	}
	ret := e.ctx.FreshVar()
	row := e.ctx.FreshOpenRow()

	e.emit(TypeEqual{A: fnT, B: &types.Arrow{Params: params, Ret: ret, Effects: row}, At: call.Fn})
	for i := range params {
		e.emit(TypeEqual{A: params[i], B: argTys[i], At: call.Args[i]})
	}
	e.emit(EffectSubset{Sub: row, Super: e.acc, At: call})
	return e.record(call, ret), nil
}

func (e *Engine) inferBinary(env *TypeEnv, bin *ast.Binary) (types.Ty, rillerr.RillError) {
	lhs, err := e.inferExpr(env, bin.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := e.inferExpr(env, bin.Rhs)
	if err != nil {
		return nil, err
	}

	switch {
	case bin.Op.Arithmetic():
		e.emit(TypeEqual{A: lhs, B: rhs, At: bin})
		e.numeric = append(e.numeric, numericOb{t: lhs, at: bin})
		return e.record(bin, lhs), nil
	case bin.Op.Comparison():
		e.emit(TypeEqual{A: lhs, B: rhs, At: bin})
		return e.record(bin, types.TyBool), nil
	default: // logical
		e.emit(TypeEqual{A: types.TyBool, B: lhs, At: bin.Lhs})
		e.emit(TypeEqual{A: types.TyBool, B: rhs, At: bin.Rhs})
		return e.record(bin, types.TyBool), nil
	}
}

func (e *Engine) inferIf(env *TypeEnv, cond *ast.If) (types.Ty, rillerr.RillError) {
	condT, err := e.inferExpr(env, cond.Cond)
	if err != nil {
		return nil, err
	}
	e.emit(TypeEqual{A: types.TyBool, B: condT, At: cond.Cond})

	thenT, err := e.inferExpr(env, cond.Then)
	if err != nil {
		return nil, err
	}
	if cond.Else == nil {
		return e.record(cond, types.TyUnit), nil
	}
	elseT, err := e.inferExpr(env, cond.Else)
	if err != nil {
		return nil, err
	}
	return e.record(cond, e.joinBranches(thenT, elseT, cond)), nil
}

// joinBranches unifies two branch result types, except that a branch of
// bottom type imposes no obligation: a diverging branch still performs
// its effects but contributes no value.
func (e *Engine) joinBranches(a, b types.Ty, at ast.Positioner) types.Ty {
	if _, never := e.ctx.Resolve(a).(*types.Never); never {
		return b
	}
	if _, never := e.ctx.Resolve(b).(*types.Never); never {
		return a
	}
	e.emit(TypeEqual{A: a, B: b, At: at})
	return a
}

func (e *Engine) inferBlock(env *TypeEnv, block *ast.Block) (types.Ty, rillerr.RillError) {
	var last types.Ty = types.TyUnit
	scope := env
	for i, stmt := range block.Stmts {
		switch stmt := stmt.(type) {
		case *ast.LetStmt:
			initT, err := e.inferExpr(scope, stmt.Init)
			if err != nil {
				return nil, err
			}
			// let-polymorphism: apply the pending equalities first, then
			// quantify what the current environment leaves free; a stale
			// substitution here would quantify variables that pending
			// constraints tie to monomorphic types
			if err := e.solveEqualities(); err != nil {
				return nil, err
			}
			envTvs, envRvs := scope.FreeVars(e.ctx)
			scope = scope.Declare(stmt.Name, e.ctx.Generalize(initT, envTvs, envRvs))
			last = types.TyUnit
		case *ast.ExprStmt:
			t, err := e.inferExpr(scope, stmt.E)
			if err != nil {
				return nil, err
			}
			if i == len(block.Stmts)-1 {
				last = t
			}
		}
	}
	return e.record(block, last), nil
}

func (e *Engine) inferMatch(env *TypeEnv, match *ast.Match) (types.Ty, rillerr.RillError) {
	scrutT, err := e.inferExpr(env, match.Scrutinee)
	if err != nil {
		return nil, err
	}

	var result types.Ty
	for _, arm := range match.Arms {
		armEnv, err := e.bindPattern(env, arm.Pattern, scrutT)
		if err != nil {
			return nil, err
		}
		bodyT, err := e.inferExpr(armEnv, arm.Body)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = bodyT
		} else {
			result = e.joinBranches(result, bodyT, arm.Body)
		}
	}
	if result == nil {
		result = types.TyUnit
	}
	return e.record(match, result), nil
}

// bindPattern types a pattern against the scrutinee type, extending the
// environment with the pattern's bindings.
func (e *Engine) bindPattern(env *TypeEnv, pat ast.Pattern, scrut types.Ty) (*TypeEnv, rillerr.RillError) {
	switch pat := pat.(type) {
	case *ast.WildcardPattern:
		return env, nil

	case *ast.BindPattern:
		return env.Declare(pat.Name, types.Mono(scrut)), nil

	case *ast.LiteralPattern:
		e.emit(TypeEqual{A: scrut, B: litType(pat.Kind), At: pat})
		return env, nil

	case *ast.TuplePattern:
		elems := make([]types.Ty, len(pat.Elems))
		for i := range elems {
			elems[i] = e.ctx.FreshVar()
		}
		e.emit(TypeEqual{A: scrut, B: &types.Tuple{Elems: elems}, At: pat})
		for i, sub := range pat.Elems {
			var err rillerr.RillError
			env, err = e.bindPattern(env, sub, elems[i])
			if err != nil {
				return nil, err
			}
		}
		return env, nil

	case *ast.CtorPattern:
		def, variant, ok := e.ctx.Reg.LookupCtor(pat.Name)
		if !ok {
			return nil, rillerr.New(rillerr.NewUnknownIdentifier{Positioner: pat, Name: pat.Name})
		}
		args := make([]types.Ty, len(def.ParamVars))
		for i := range args {
			args[i] = e.ctx.FreshVar()
		}
		e.emit(TypeEqual{A: scrut, B: &types.Named{Name: def.Name, Args: args}, At: pat})

		payload := def.ResolvePayload(variant, args)
		if len(pat.Args) != len(payload) {
			return nil, rillerr.New(rillerr.NewArity{
				Positioner: pat,
				Detail:     fmt.Sprintf("pattern %s expects %d fields, found %d", pat.Name, len(payload), len(pat.Args)),
			})
		}
		for i, sub := range pat.Args {
			var err rillerr.RillError
			env, err = e.bindPattern(env, sub, payload[i])
			if err != nil {
				return nil, err
			}
		}
		return env, nil

	default:
		return nil, rillerr.New(rillerr.Unclassified{
			Positioner: pat,
			From:       fmt.Errorf("unhandled pattern %T", pat),
		})
	}
}

// inferLambda types an anonymous function. The lambda gets its own
// effect accumulator; its effects reach the enclosing function only if
// the lambda is actually called there.
func (e *Engine) inferLambda(env *TypeEnv, lam *ast.Lambda) (types.Ty, rillerr.RillError) {
	ts := newSignatureScope()
	params := make([]types.Ty, len(lam.Params))
	scope := env
	for i, p := range lam.Params {
		if p.Type != nil {
			resolved, err := e.resolveType(ts, p.Type, false)
			if err != nil {
				return nil, err
			}
			params[i] = resolved
		} else {
			params[i] = e.ctx.FreshVar()
		}
		scope = scope.Declare(p.Name, types.Mono(params[i]))
	}

	outer := e.acc
	lamAcc := e.ctx.FreshOpenRow()
	e.acc = lamAcc
	bodyT, err := e.inferExpr(scope, lam.Body)
	e.acc = outer
	if err != nil {
		return nil, err
	}
	return e.record(lam, &types.Arrow{Params: params, Ret: bodyT, Effects: lamAcc}), nil
}
