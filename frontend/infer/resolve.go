package infer

import (
	"unicode"
	"unicode/utf8"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
)

// typeScope resolves lowercase type names inside one signature or type
// declaration. In signatures any lowercase name is a scoped type
// variable, shared across the whole signature; in type declarations
// only the declared parameters are in scope.
type typeScope struct {
	vars   map[string]*types.Var
	closed bool // reject lowercase names not already present
}

func newSignatureScope() *typeScope {
	return &typeScope{vars: make(map[string]*types.Var)}
}

func newDeclScope(params []string, paramVars []int) *typeScope {
	ts := &typeScope{vars: make(map[string]*types.Var, len(params)), closed: true}
	for i, p := range params {
		ts.vars[p] = &types.Var{ID: paramVars[i]}
	}
	return ts
}

func lowerName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r)
}

// resolveType converts a syntactic type annotation into a semantic
// type. Reference types are only accepted when allowRef is set (extern
// parameter positions).
func (e *Engine) resolveType(ts *typeScope, t ast.Type, allowRef bool) (types.Ty, rillerr.RillError) {
	switch t := t.(type) {
	case *ast.NamedType:
		return e.resolveNamed(ts, t)

	case *ast.RefType:
		if !allowRef {
			return nil, rillerr.New(rillerr.NewMisplacedReference{Positioner: t})
		}
		named, ok := t.Of.(*ast.NamedType)
		if ok && len(named.Args) == 0 {
			if kind, isCap := types.CapKindNamed(named.Name); isCap {
				return &types.Ref{Of: kind}, nil
			}
		}
		return nil, rillerr.New(rillerr.NewMisplacedReference{Positioner: t})

	case *ast.TupleType:
		elems := make([]types.Ty, len(t.Elems))
		for i, el := range t.Elems {
			resolved, err := e.resolveType(ts, el, false)
			if err != nil {
				return nil, err
			}
			elems[i] = resolved
		}
		return &types.Tuple{Elems: elems}, nil

	case *ast.FuncType:
		params := make([]types.Ty, len(t.Params))
		for i, p := range t.Params {
			resolved, err := e.resolveType(ts, p, false)
			if err != nil {
				return nil, err
			}
			params[i] = resolved
		}
		var ret types.Ty = types.TyUnit
		if t.Ret != nil {
			resolved, err := e.resolveType(ts, t.Ret, false)
			if err != nil {
				return nil, err
			}
			ret = resolved
		}
		row, err := e.resolveEffects(t.Effects)
		if err != nil {
			return nil, err
		}
		return &types.Arrow{Params: params, Ret: ret, Effects: row}, nil

	default:
		return nil, rillerr.New(rillerr.Unclassified{Positioner: t})
	}
}

func (e *Engine) resolveNamed(ts *typeScope, t *ast.NamedType) (types.Ty, rillerr.RillError) {
	arity := func(want int) rillerr.RillError {
		if len(t.Args) != want {
			return rillerr.New(rillerr.NewArity{
				Positioner: t,
				Detail:     t.Name + " expects a different number of type arguments",
			})
		}
		return nil
	}

	switch t.Name {
	case "Unit", "Bool", "Int", "Float", "String":
		if err := arity(0); err != nil {
			return nil, err
		}
		return &types.Const{Name: t.Name}, nil
	case "Never":
		if err := arity(0); err != nil {
			return nil, err
		}
		return &types.Never{}, nil
	case "List":
		if err := arity(1); err != nil {
			return nil, err
		}
		elem, err := e.resolveType(ts, t.Args[0], false)
		if err != nil {
			return nil, err
		}
		return &types.List{Elem: elem}, nil
	}

	if kind, isCap := types.CapKindNamed(t.Name); isCap {
		if err := arity(0); err != nil {
			return nil, err
		}
		return &types.Cap{Kind: kind}, nil
	}

	if lowerName(t.Name) {
		if err := arity(0); err != nil {
			return nil, err
		}
		if v, ok := ts.vars[t.Name]; ok {
			return v, nil
		}
		if ts.closed {
			return nil, rillerr.New(rillerr.NewUnknownIdentifier{Positioner: t, Name: t.Name})
		}
		v := e.ctx.FreshVar()
		ts.vars[t.Name] = v
		return v, nil
	}

	def, ok := e.ctx.Reg.Lookup(t.Name)
	if !ok {
		return nil, rillerr.New(rillerr.NewUnknownIdentifier{Positioner: t, Name: t.Name})
	}
	if len(t.Args) != len(def.Params) {
		return nil, rillerr.New(rillerr.NewArity{
			Positioner: t,
			Detail:     t.Name + " expects a different number of type arguments",
		})
	}
	args := make([]types.Ty, len(t.Args))
	for i, a := range t.Args {
		resolved, err := e.resolveType(ts, a, false)
		if err != nil {
			return nil, err
		}
		args[i] = resolved
	}
	return &types.Named{Name: t.Name, Args: args}, nil
}

// resolveEffects validates a declared effect annotation and returns the
// (closed) row it denotes. A nil annotation is the empty row here;
// callers that treat absence as "infer instead" must check for nil
// before calling.
func (e *Engine) resolveEffects(annot *ast.EffectAnnot) (types.Row, rillerr.RillError) {
	if annot == nil {
		return types.EmptyRow(), nil
	}
	for _, tag := range annot.Tags {
		if !types.KnownEffect(tag) {
			return types.EmptyRow(), rillerr.New(rillerr.NewUnknownEffect{Positioner: annot, Tag: tag})
		}
	}
	return types.ClosedRow(annot.Tags...), nil
}
