package infer

import (
	"log/slog"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/log"
)

var logger = log.DefaultLogger.With("section", "infer")

// Engine generates and solves constraints for one module. It is not
// reusable across modules: the type context, constraint list and
// recorded expression types all belong to a single compilation unit.
type Engine struct {
	ctx    *types.Ctx
	logger *slog.Logger

	constraints []Constraint
	numeric     []numericOb

	// solvedEq marks how far into constraints the type equalities have
	// already been applied to the substitution. Equalities are drained
	// incrementally at every generalization point, not only at the end
	// of the body, so a let-bound scheme never quantifies a variable a
	// pending constraint would have pinned.
	solvedEq int

	// acc is the effect accumulator of the function (or lambda) body
	// currently being walked.
	acc   types.Row
	depth int

	exprTypes map[ast.Expr]types.Ty
}

// numericOb is a deferred obligation that a type resolves to Int or
// Float; arithmetic operators emit one per use.
type numericOb struct {
	t  types.Ty
	at ast.Positioner
}

// FuncInfo is the per-function outcome of inference.
type FuncInfo struct {
	Decl       *ast.FuncDecl
	Scheme     types.Scheme
	Arrow      *types.Arrow // monomorphic signature used while checking the body
	ParamTypes []types.Ty
	Acc        types.Row // body effect accumulator; resolve for the inferred row
	Declared   *types.Row
	Err        rillerr.RillError
}

// Result is the typed program handed to the later passes: a substituted
// type for every expression node plus the finalized signatures.
type Result struct {
	Ctx       *types.Ctx
	Env       *TypeEnv
	Funcs     []*FuncInfo
	ExprTypes map[ast.Expr]types.Ty
	Errors    *rillerr.Errors
}

// TypeOf returns the fully substituted type recorded for an expression.
func (r *Result) TypeOf(e ast.Expr) (types.Ty, bool) {
	t, ok := r.ExprTypes[e]
	if !ok {
		return nil, false
	}
	return r.Ctx.Resolve(t), true
}

func NewEngine(ctx *types.Ctx) *Engine {
	return &Engine{
		ctx:       ctx,
		logger:    logger,
		exprTypes: make(map[ast.Expr]types.Ty),
	}
}

// RegisterTypes runs the type registration pass: every TypeDecl is
// resolved and entered into the registry before any signature or body
// is looked at, making the types-before-bodies ordering an explicit
// data dependency.
func (e *Engine) RegisterTypes(m *ast.Module) *rillerr.Errors {
	var errs *rillerr.Errors
	for _, decl := range m.Decls {
		td, ok := decl.(*ast.TypeDecl)
		if !ok {
			continue
		}
		if err := e.registerType(td); err != nil {
			errs = errs.With(err)
		}
	}
	return errs
}

func (e *Engine) registerType(td *ast.TypeDecl) rillerr.RillError {
	paramVars := make([]int, len(td.Params))
	for i := range td.Params {
		paramVars[i] = e.ctx.FreshVar().ID
	}
	ts := newDeclScope(td.Params, paramVars)

	def := &types.Def{
		Name:      td.Name,
		Params:    append([]string(nil), td.Params...),
		ParamVars: paramVars,
	}
	for _, f := range td.Fields {
		ft, err := e.resolveType(ts, f.Type, false)
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, types.Field{Name: f.Name, Type: ft})
	}
	for _, v := range td.Variants {
		variant := types.Variant{Name: v.Name}
		for _, p := range v.Payload {
			pt, err := e.resolveType(ts, p, false)
			if err != nil {
				return err
			}
			variant.Payload = append(variant.Payload, pt)
		}
		def.Variants = append(def.Variants, variant)
	}

	if defErr := e.ctx.Reg.Define(def); defErr != nil {
		switch defErr.Kind {
		case types.DefineReserved:
			return rillerr.New(rillerr.NewReservedName{Positioner: td, Name: defErr.Detail})
		case types.DefineDuplicate:
			return rillerr.New(rillerr.NewDuplicateDefinition{Positioner: td, Name: defErr.Detail})
		default:
			return rillerr.New(rillerr.NewCapabilityInType{Positioner: td, TypeName: td.Name, Where: defErr.Detail})
		}
	}
	return nil
}

// CtorEnv binds every registered constructor in the environment, so
// constructor applications infer like ordinary (polymorphic) calls.
func (e *Engine) CtorEnv(m *ast.Module, env *TypeEnv) *TypeEnv {
	for _, decl := range m.Decls {
		td, ok := decl.(*ast.TypeDecl)
		if !ok {
			continue
		}
		def, ok := e.ctx.Reg.Lookup(td.Name)
		if !ok {
			continue // registration failed; already reported
		}
		if def.IsSum() {
			for i, v := range def.Variants {
				env = env.Declare(v.Name, def.CtorScheme(i))
			}
		} else {
			env = env.Declare(def.Name, def.CtorScheme(-1))
		}
	}
	return env
}

// DeclareSignatures is pass one: every top-level function's declared or
// placeholder signature is entered into the environment, enabling
// forward references and mutual recursion before any body is inferred.
func (e *Engine) DeclareSignatures(m *ast.Module, env *TypeEnv) (*TypeEnv, []*FuncInfo, *rillerr.Errors) {
	var errs *rillerr.Errors
	var funcs []*FuncInfo
	seen := map[string]bool{}

	for _, decl := range m.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if seen[fd.Name] {
			errs = errs.With(rillerr.New(rillerr.NewDuplicateDefinition{Positioner: fd, Name: fd.Name}))
			continue
		}
		seen[fd.Name] = true

		info, err := e.declareSignature(fd)
		if err != nil {
			errs = errs.With(err)
			continue
		}
		funcs = append(funcs, info)
		env = env.Declare(fd.Name, types.Mono(info.Arrow))
	}
	return env, funcs, errs
}

func (e *Engine) declareSignature(fd *ast.FuncDecl) (*FuncInfo, rillerr.RillError) {
	ts := newSignatureScope()

	params := make([]types.Ty, len(fd.Params))
	for i, p := range fd.Params {
		if p.Type == nil {
			params[i] = e.ctx.FreshVar()
			continue
		}
		resolved, err := e.resolveType(ts, p.Type, fd.Extern)
		if err != nil {
			return nil, err
		}
		params[i] = resolved
	}

	var ret types.Ty
	switch {
	case fd.Ret != nil:
		resolved, err := e.resolveType(ts, fd.Ret, false)
		if err != nil {
			return nil, err
		}
		ret = resolved
	case fd.Extern:
		// an extern has no body to infer from
		ret = types.TyUnit
	default:
		// unannotated: the return type is pinned by the body and may
		// generalize, so `fn id(x) { x }` stays polymorphic
		ret = e.ctx.FreshVar()
	}

	info := &FuncInfo{Decl: fd, ParamTypes: params}

	var sigRow types.Row
	if fd.Effects != nil {
		declared, err := e.resolveEffects(fd.Effects)
		if err != nil {
			return nil, err
		}
		info.Declared = &declared
		sigRow = declared
		info.Acc = e.ctx.FreshOpenRow()
	} else if fd.Extern {
		// an extern without an annotation is pure
		pure := types.EmptyRow()
		info.Declared = &pure
		sigRow = pure
		info.Acc = types.EmptyRow()
	} else {
		// no annotation: the signature row is the body accumulator
		// itself and resolves to whatever the body performs
		info.Acc = e.ctx.FreshOpenRow()
		sigRow = info.Acc
	}

	info.Arrow = &types.Arrow{Params: params, Ret: ret, Effects: sigRow}
	return info, nil
}

// InferBodies is pass two: each function body is inferred and solved
// independently; the first irreconcilable error stops that function but
// its siblings are still checked against the pass-one signatures.
func (e *Engine) InferBodies(m *ast.Module, env *TypeEnv, funcs []*FuncInfo) *Result {
	res := &Result{Ctx: e.ctx, Funcs: funcs, ExprTypes: e.exprTypes}
	var errs *rillerr.Errors

	for _, info := range funcs {
		if info.Decl.Extern {
			info.Scheme = e.generalizeSignature(env, info)
			env = env.Declare(info.Decl.Name, info.Scheme)
			continue
		}
		err := e.inferBody(env, info)
		if err != nil {
			info.Err = err
			errs = errs.With(err)
			if err.Code() == rillerr.ResourceLimit {
				// limit violations fail the whole unit; siblings are
				// not worth checking against a hostile input
				res.Env = env
				res.Errors = errs
				return res
			}
		}
		if limitErr := e.ctx.LimitErr(); limitErr != nil {
			fatal := rillerr.New(rillerr.NewResourceLimit{Positioner: info.Decl, Detail: limitErr.Error()})
			errs = errs.With(fatal)
			res.Env = env
			res.Errors = errs
			return res
		}
		info.Scheme = e.generalizeSignature(env, info)
		env = env.Declare(info.Decl.Name, info.Scheme)
	}

	res.Env = env
	res.Errors = errs
	return res
}

func (e *Engine) inferBody(env *TypeEnv, info *FuncInfo) rillerr.RillError {
	e.constraints = e.constraints[:0]
	e.numeric = e.numeric[:0]
	e.solvedEq = 0
	e.depth = 0
	e.acc = info.Acc

	bodyEnv := env
	for i, p := range info.Decl.Params {
		bodyEnv = bodyEnv.Declare(p.Name, types.Mono(info.ParamTypes[i]))
	}

	bodyT, err := e.inferExpr(bodyEnv, info.Decl.Body)
	if err != nil {
		return err
	}
	if _, diverges := e.ctx.Resolve(bodyT).(*types.Never); !diverges {
		e.emit(TypeEqual{A: info.Arrow.Ret, B: bodyT, At: info.Decl.Body})
	}

	e.logger.Debug("inferred body, solving",
		"fn", info.Decl.Name,
		"constraints", len(e.constraints))
	return e.solve()
}

// generalizeSignature quantifies the variables of the finalized
// signature that are not visible from the rest of the environment. The
// function's own pass-one binding is removed first: a recursive call in
// the body must not pin the signature's variables as free.
func (e *Engine) generalizeSignature(env *TypeEnv, info *FuncInfo) types.Scheme {
	envTvs, envRvs := env.Remove(info.Decl.Name).FreeVars(e.ctx)
	return e.ctx.Generalize(info.Arrow, envTvs, envRvs)
}

func (e *Engine) emit(c Constraint) {
	e.constraints = append(e.constraints, c)
}

func (e *Engine) record(expr ast.Expr, t types.Ty) types.Ty {
	e.exprTypes[expr] = t
	return t
}
