// Package frontend sequences the checking pipeline for one module:
// type registration, two-pass constraint inference, effect and
// capability validation, the affine move check, and exhaustiveness
// analysis. Data flows strictly downward; no phase re-enters an
// earlier one.
package frontend

import (
	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/infer"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/limits"
	"github.com/rill-lang/rill/internal/log"
)

var logger = log.DefaultLogger.With("section", "frontend")

// CheckModule runs the full pipeline. The returned result carries a
// substituted type for every expression and a verdict per function;
// when the errors accumulator has a (non-advisory) error the program
// must not be evaluated.
func CheckModule(m *ast.Module, lim limits.Table) (*infer.Result, *rillerr.Errors) {
	ctx := types.NewCtx(types.NewRegistry(), lim)
	engine := infer.NewEngine(ctx)
	var errs *rillerr.Errors

	errs = errs.Merge(registrationPhase(engine, m))
	if errs.HasFatal() {
		return nil, errs
	}

	res, inferErrs := inferencePhase(engine, m)
	errs = errs.Merge(inferErrs)
	if errs.HasFatal() {
		return res, errs
	}

	errs = errs.Merge(verdictPhase(res))
	logger.Debug("pipeline finished",
		"module", m.Name,
		"functions", len(res.Funcs),
		"errors", len(errs.Errors()))
	return res, errs
}
