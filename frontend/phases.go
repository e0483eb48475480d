package frontend

import (
	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/effects"
	"github.com/rill-lang/rill/frontend/infer"
	"github.com/rill-lang/rill/frontend/ownership"
	"github.com/rill-lang/rill/frontend/patterns"
	"github.com/rill-lang/rill/frontend/rillerr"
)

// registrationPhase enters every user type into the registry before
// any signature is read. Types come strictly before bodies.
func registrationPhase(engine *infer.Engine, m *ast.Module) *rillerr.Errors {
	return engine.RegisterTypes(m)
}

// inferencePhase runs the two inference passes: signatures first, so
// forward references and mutual recursion resolve, then each body.
func inferencePhase(engine *infer.Engine, m *ast.Module) (*infer.Result, *rillerr.Errors) {
	env := engine.CtorEnv(m, infer.NewTypeEnv())
	env, funcs, errs := engine.DeclareSignatures(m, env)
	res := engine.InferBodies(m, env, funcs)
	return res, errs.Merge(res.Errors)
}

// verdictPhase runs the three post-substitution checks in order. Each
// skips functions an earlier check already failed, so every function
// gets at most one (non-advisory) diagnostic per run.
func verdictPhase(res *infer.Result) *rillerr.Errors {
	errs := effects.Check(res)
	if errs.HasFatal() {
		return errs
	}
	errs = errs.Merge(ownership.Check(res))
	if errs.HasFatal() {
		return errs
	}
	return errs.Merge(patterns.Check(res))
}
