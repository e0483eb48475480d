package types_test

import (
	"testing"

	"github.com/rill-lang/rill/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optionDef builds `type Opt[a] = Some(a) | None` with parameter
// variable 100.
func optionDef() *types.Def {
	return &types.Def{
		Name:      "Opt",
		Params:    []string{"a"},
		ParamVars: []int{100},
		Variants: []types.Variant{
			{Name: "Some", Payload: []types.Ty{&types.Var{ID: 100}}},
			{Name: "None"},
		},
	}
}

func TestDefineSum(t *testing.T) {
	reg := types.NewRegistry()
	require.Nil(t, reg.Define(optionDef()))

	d, ok := reg.Lookup("Opt")
	require.True(t, ok)
	assert.True(t, d.IsSum())

	d, idx, ok := reg.LookupCtor("Some")
	require.True(t, ok)
	assert.Equal(t, "Opt", d.Name)
	assert.Equal(t, 0, idx)

	_, idx, ok = reg.LookupCtor("None")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestDefineProduct(t *testing.T) {
	reg := types.NewRegistry()
	require.Nil(t, reg.Define(&types.Def{
		Name: "Point",
		Fields: []types.Field{
			{Name: "x", Type: types.TyInt},
			{Name: "y", Type: types.TyInt},
		},
	}))

	d, idx, ok := reg.LookupCtor("Point")
	require.True(t, ok)
	assert.Equal(t, -1, idx, "a product is constructed through its type name")
	assert.False(t, d.IsSum())
}

func TestDefineRejectsReservedNames(t *testing.T) {
	reg := types.NewRegistry()
	for _, name := range []string{"Int", "Unit", "Never", "List", "Fs", "Model"} {
		err := reg.Define(&types.Def{Name: name})
		require.NotNil(t, err, "name %s", name)
		assert.Equal(t, types.DefineReserved, err.Kind)
	}
}

func TestDefineRejectsReservedVariant(t *testing.T) {
	reg := types.NewRegistry()
	err := reg.Define(&types.Def{
		Name:     "Weird",
		Variants: []types.Variant{{Name: "Fs"}},
	})
	require.NotNil(t, err)
	assert.Equal(t, types.DefineReserved, err.Kind)
}

func TestDefineRejectsDuplicates(t *testing.T) {
	reg := types.NewRegistry()
	require.Nil(t, reg.Define(optionDef()))

	err := reg.Define(&types.Def{Name: "Opt"})
	require.NotNil(t, err)
	assert.Equal(t, types.DefineDuplicate, err.Kind)

	// a constructor name is taken module-wide, not per type
	err = reg.Define(&types.Def{
		Name:     "Opt2",
		Variants: []types.Variant{{Name: "Some", Payload: []types.Ty{types.TyInt}}},
	})
	require.NotNil(t, err)
	assert.Equal(t, types.DefineDuplicate, err.Kind)
}

func TestDefineRejectsCapabilityPayload(t *testing.T) {
	reg := types.NewRegistry()
	cases := map[string]types.Ty{
		"bare cap":   &types.Cap{Kind: types.CapFs},
		"ref":        &types.Ref{Of: types.CapNet},
		"nested":     &types.Tuple{Elems: []types.Ty{types.TyInt, &types.List{Elem: &types.Cap{Kind: types.CapTime}}}},
		"arrow param": &types.Arrow{Params: []types.Ty{&types.Cap{Kind: types.CapRand}}, Ret: types.TyUnit, Effects: types.EmptyRow()},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			err := reg.Define(&types.Def{
				Name:     "Box" + name,
				Variants: []types.Variant{{Name: "Mk" + name, Payload: []types.Ty{payload}}},
			})
			require.NotNil(t, err)
			assert.Equal(t, types.DefineCapabilityPayload, err.Kind)
		})
	}
}

func TestCtorScheme(t *testing.T) {
	d := optionDef()

	some := d.CtorScheme(0)
	assert.Equal(t, []int{100}, some.TypeVars)
	arrow, ok := some.Body.(*types.Arrow)
	require.True(t, ok)
	require.Len(t, arrow.Params, 1)
	assert.True(t, arrow.Effects.Empty(), "construction is pure")

	none := d.CtorScheme(1)
	_, isArrow := none.Body.(*types.Arrow)
	assert.False(t, isArrow, "a unit variant is a value, not a function")
}

func TestInstantiateCtorScheme(t *testing.T) {
	ctx := newCtx()
	d := optionDef()

	first := ctx.Instantiate(d.CtorScheme(0))
	second := ctx.Instantiate(d.CtorScheme(0))
	a1 := first.(*types.Arrow).Params[0].(*types.Var)
	a2 := second.(*types.Arrow).Params[0].(*types.Var)
	assert.NotEqual(t, a1.ID, a2.ID, "each use gets fresh variables")

	require.Nil(t, ctx.Unify(a1, types.TyInt))
	ret := ctx.Resolve(first.(*types.Arrow).Ret).(*types.Named)
	assert.True(t, types.Equal(types.TyInt, ret.Args[0]))
}

func TestResolvePayload(t *testing.T) {
	d := optionDef()
	payload := d.ResolvePayload(0, []types.Ty{types.TyString})
	require.Len(t, payload, 1)
	assert.True(t, types.Equal(types.TyString, payload[0]))
}

func TestGeneralizeSkipsEnvVars(t *testing.T) {
	ctx := newCtx()
	bound := ctx.FreshVar()
	free := ctx.FreshVar()
	arrow := &types.Arrow{Params: []types.Ty{bound}, Ret: free, Effects: types.EmptyRow()}

	s := ctx.Generalize(arrow, map[int]bool{bound.ID: true}, nil)
	assert.Equal(t, []int{free.ID}, s.TypeVars, "variables pinned by the environment stay monomorphic")
}
