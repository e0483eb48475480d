// Package effects resolves inferred effect rows against declared
// annotations and enforces the capability discipline: every concrete
// effect a function performs must be backed by a parameter carrying the
// matching authority token.
package effects

import (
	"github.com/rill-lang/rill/frontend/infer"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/log"
	"github.com/rill-lang/rill/util"
)

var logger = log.DefaultLogger.With("section", "effects")

// Check validates every function of the module. Functions that already
// failed inference are skipped; their siblings still get full effect
// and capability diagnostics.
func Check(res *infer.Result) *rillerr.Errors {
	var errs *rillerr.Errors
	for _, fn := range res.Funcs {
		if fn.Err != nil {
			continue
		}
		if err := checkFunc(res.Ctx, fn); err != nil {
			fn.Err = err
			errs = errs.With(err)
		}
	}
	return errs
}

func checkFunc(ctx *types.Ctx, fn *infer.FuncInfo) rillerr.RillError {
	inferred := ctx.ResolveRow(fn.Acc)
	row := inferred
	if fn.Declared != nil {
		// the declared row must be a superset of what the body
		// performs; extra declared tags are forward-compatible slack
		missing := types.DiffTags(inferred.Tags, fn.Declared.Tags)
		if len(missing) > 0 {
			return rillerr.New(rillerr.NewUndeclaredEffect{
				Positioner: fn.Decl,
				Fn:         fn.Decl.Name,
				Missing:    missing,
				Declared:   fn.Declared.Tags,
			})
		}
		row = *fn.Declared
	}

	logger.Debug("effect row finalized", "fn", fn.Decl.Name, "row", row.String())
	return validateCapabilities(ctx, fn, row)
}

// validateCapabilities runs for every function, unconditionally. A
// function with zero capability parameters and a non-empty concrete row
// must fail here: skipping the check when no capability parameters are
// present would let an entire call chain perform effects with no
// authority anywhere.
//
// Tags hidden behind an open tail are exempt: their concrete content is
// unknown at this site and is re-checked wherever it becomes concrete.
func validateCapabilities(ctx *types.Ctx, fn *infer.FuncInfo, row types.Row) rillerr.RillError {
	avail := availableCapabilities(ctx, fn)
	for _, tag := range row.Tags {
		kind, ok := types.CapForEffect(tag)
		if !ok {
			return rillerr.New(rillerr.NewUnknownEffect{Positioner: fn.Decl, Tag: tag})
		}
		if !avail.Contains(kind) {
			return rillerr.New(rillerr.NewMissingCapability{
				Positioner: fn.Decl,
				Fn:         fn.Decl.Name,
				Effect:     tag,
			})
		}
	}
	return nil
}

// availableCapabilities collects every authority the function's
// parameters carry. A borrowed capability authorises the effect too,
// but only extern declarations may take references.
func availableCapabilities(ctx *types.Ctx, fn *infer.FuncInfo) util.MSet[types.CapKind] {
	avail := util.NewEmptySet[types.CapKind]()
	for _, p := range fn.ParamTypes {
		switch p := ctx.Resolve(p).(type) {
		case *types.Cap:
			avail.Add(p.Kind)
		case *types.Ref:
			if fn.Decl.Extern {
				avail.Add(p.Of)
			}
		}
	}
	return avail
}

// EntryCapabilities implements the entry-point contract: every
// parameter of the designated entry function typed as a capability leaf
// is a request for that authority, granted by the runtime from an
// external manifest. There is no other way a capability value comes
// into existence.
func EntryCapabilities(res *infer.Result, entry string) ([]types.CapKind, bool) {
	for _, fn := range res.Funcs {
		if fn.Decl.Name != entry || fn.Decl.Extern {
			continue
		}
		var caps []types.CapKind
		for _, p := range fn.ParamTypes {
			if cap, ok := res.Ctx.Resolve(p).(*types.Cap); ok {
				caps = append(caps, cap.Kind)
			}
		}
		return caps, true
	}
	return nil, false
}
