package types_test

import (
	"testing"

	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx() *types.Ctx {
	return types.NewCtx(types.NewRegistry(), limits.Default())
}

func TestUnifyReflexive(t *testing.T) {
	cases := map[string]types.Ty{
		"const": types.TyInt,
		"arrow": &types.Arrow{
			Params:  []types.Ty{types.TyInt, types.TyString},
			Ret:     types.TyBool,
			Effects: types.ClosedRow("Fs"),
		},
		"tuple": &types.Tuple{Elems: []types.Ty{types.TyInt, types.TyBool}},
		"list":  &types.List{Elem: types.TyFloat},
		"named": &types.Named{Name: "Opt", Args: []types.Ty{types.TyInt}},
		"cap":   &types.Cap{Kind: types.CapFs},
		"ref":   &types.Ref{Of: types.CapNet},
		"never": &types.Never{},
	}
	for name, ty := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := newCtx()
			assert.Nil(t, ctx.Unify(ty, ty))
		})
	}
}

func TestUnifyBindsVar(t *testing.T) {
	ctx := newCtx()
	v := ctx.FreshVar()
	require.Nil(t, ctx.Unify(v, types.TyInt))
	assert.True(t, types.Equal(types.TyInt, ctx.Resolve(v)))
}

func TestUnifyVarWithItself(t *testing.T) {
	ctx := newCtx()
	v := ctx.FreshVar()
	assert.Nil(t, ctx.Unify(v, v))
	_, bound := ctx.Sub.TypeBinding(v.ID)
	assert.False(t, bound, "self-unification must not grow the substitution")
}

func TestUnifyOccurs(t *testing.T) {
	ctx := newCtx()
	v := ctx.FreshVar()
	inside := &types.List{Elem: v}
	err := ctx.Unify(v, inside)
	require.NotNil(t, err)
	assert.Equal(t, types.UnifyOccurs, err.Kind)
	assert.Equal(t, v.ID, err.VarID)
}

func TestUnifyOccursThroughChain(t *testing.T) {
	ctx := newCtx()
	a, b := ctx.FreshVar(), ctx.FreshVar()
	require.Nil(t, ctx.Unify(a, b))
	err := ctx.Unify(b, &types.Tuple{Elems: []types.Ty{a, types.TyInt}})
	require.NotNil(t, err)
	assert.Equal(t, types.UnifyOccurs, err.Kind)
}

func TestUnifyMismatch(t *testing.T) {
	ctx := newCtx()
	err := ctx.Unify(types.TyInt, types.TyString)
	require.NotNil(t, err)
	assert.Equal(t, types.UnifyMismatch, err.Kind)
}

func TestUnifyArrowArity(t *testing.T) {
	ctx := newCtx()
	one := &types.Arrow{Params: []types.Ty{types.TyInt}, Ret: types.TyUnit, Effects: types.EmptyRow()}
	two := &types.Arrow{Params: []types.Ty{types.TyInt, types.TyInt}, Ret: types.TyUnit, Effects: types.EmptyRow()}
	err := ctx.Unify(one, two)
	require.NotNil(t, err)
	assert.Equal(t, types.UnifyArity, err.Kind)
	assert.Equal(t, 1, err.Want)
	assert.Equal(t, 2, err.Got)
}

func TestUnifyCapKindsAreDistinct(t *testing.T) {
	ctx := newCtx()
	err := ctx.Unify(&types.Cap{Kind: types.CapFs}, &types.Cap{Kind: types.CapNet})
	require.NotNil(t, err)
	assert.Equal(t, types.UnifyMismatch, err.Kind)
}

func TestUnifyCapNeverUnifiesWithRef(t *testing.T) {
	ctx := newCtx()
	err := ctx.Unify(&types.Cap{Kind: types.CapFs}, &types.Ref{Of: types.CapFs})
	assert.NotNil(t, err)
}

func TestUnifyRowsClosedClosed(t *testing.T) {
	ctx := newCtx()
	assert.Nil(t, ctx.UnifyRows(types.ClosedRow("Fs", "Net"), types.ClosedRow("Net", "Fs")))

	err := ctx.UnifyRows(types.ClosedRow("Fs"), types.ClosedRow("Net"))
	assert.NotNil(t, err)
}

func TestUnifyRowsClosedAgainstOpen(t *testing.T) {
	ctx := newCtx()
	tail := ctx.FreshRowVar()
	open := types.OpenRow(tail, "Fs")
	closed := types.ClosedRow("Fs", "Net")

	require.Nil(t, ctx.UnifyRows(open, closed))
	got := ctx.ResolveRow(open)
	assert.False(t, got.Open())
	assert.Equal(t, []string{"Fs", "Net"}, got.Tags)
}

func TestUnifyRowsOpenTagsNotInClosed(t *testing.T) {
	ctx := newCtx()
	tail := ctx.FreshRowVar()
	open := types.OpenRow(tail, "Time")
	err := ctx.UnifyRows(open, types.ClosedRow("Fs"))
	assert.NotNil(t, err)
}

func TestUnifyRowsOpenOpen(t *testing.T) {
	ctx := newCtx()
	a := types.OpenRow(ctx.FreshRowVar(), "Fs")
	b := types.OpenRow(ctx.FreshRowVar(), "Net")

	require.Nil(t, ctx.UnifyRows(a, b))
	ra, rb := ctx.ResolveRow(a), ctx.ResolveRow(b)
	assert.Equal(t, []string{"Fs", "Net"}, ra.Tags)
	assert.Equal(t, []string{"Fs", "Net"}, rb.Tags)
	assert.True(t, ra.Open(), "the union stays open behind a shared tail")
	assert.Equal(t, ra.Tail, rb.Tail)
}

func TestUnifyArrowRows(t *testing.T) {
	ctx := newCtx()
	pure := &types.Arrow{Params: []types.Ty{types.TyInt}, Ret: types.TyInt, Effects: types.EmptyRow()}
	fs := &types.Arrow{Params: []types.Ty{types.TyInt}, Ret: types.TyInt, Effects: types.ClosedRow("Fs")}
	err := ctx.Unify(pure, fs)
	require.NotNil(t, err)
	assert.NotNil(t, err.LeftRow)
}

func TestKindOf(t *testing.T) {
	ctx := newCtx()
	cases := []struct {
		name string
		ty   types.Ty
		want types.Kind
	}{
		{"int", types.TyInt, types.Unrestricted},
		{"cap", &types.Cap{Kind: types.CapFs}, types.Affine},
		{"ref", &types.Ref{Of: types.CapFs}, types.Unrestricted},
		{"tuple with cap", &types.Tuple{Elems: []types.Ty{types.TyInt, &types.Cap{Kind: types.CapNet}}}, types.Affine},
		{"plain tuple", &types.Tuple{Elems: []types.Ty{types.TyInt, types.TyBool}}, types.Unrestricted},
		{"list of caps", &types.List{Elem: &types.Cap{Kind: types.CapTime}}, types.Affine},
		{"named over cap", &types.Named{Name: "Box", Args: []types.Ty{&types.Cap{Kind: types.CapRand}}}, types.Affine},
		{"arrow", &types.Arrow{Ret: types.TyUnit, Effects: types.EmptyRow()}, types.Unrestricted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ctx.KindOf(tc.ty))
		})
	}
}

func TestKindOfThroughSubstitution(t *testing.T) {
	ctx := newCtx()
	v := ctx.FreshVar()
	require.Nil(t, ctx.Unify(v, &types.Cap{Kind: types.CapFs}))
	assert.Equal(t, types.Affine, ctx.KindOf(v))
}
