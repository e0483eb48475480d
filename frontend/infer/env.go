package infer

import (
	"github.com/benbjohnson/immutable"

	"github.com/rill-lang/rill/frontend/types"
)

// TypeEnv is a persistent mapping from names to type schemes. Scoping
// is by value: extending an environment returns a new one sharing
// structure with the old, so inner scopes never mutate outer ones.
type TypeEnv struct {
	vars *immutable.Map[string, types.Scheme]
}

func NewTypeEnv() *TypeEnv {
	return &TypeEnv{vars: immutable.NewMap[string, types.Scheme](nil)}
}

// Declare returns an environment with name bound to scheme, shadowing
// any previous binding.
func (e *TypeEnv) Declare(name string, s types.Scheme) *TypeEnv {
	return &TypeEnv{vars: e.vars.Set(name, s)}
}

// Remove returns an environment without any binding for name.
func (e *TypeEnv) Remove(name string) *TypeEnv {
	return &TypeEnv{vars: e.vars.Delete(name)}
}

// Lookup finds the scheme bound to name.
func (e *TypeEnv) Lookup(name string) (types.Scheme, bool) {
	return e.vars.Get(name)
}

// FreeVars collects every type and effect variable free in the
// environment under the current substitution. Generalization must call
// this on the environment as it stands at the let, not on a stale
// snapshot.
func (e *TypeEnv) FreeVars(ctx *types.Ctx) (tvs map[int]bool, rvs map[int]bool) {
	tvs = make(map[int]bool)
	rvs = make(map[int]bool)
	itr := e.vars.Iterator()
	for !itr.Done() {
		_, scheme, _ := itr.Next()
		bodyTvs := make(map[int]bool)
		bodyRvs := make(map[int]bool)
		ctx.Sub.FreeVars(scheme.Body, bodyTvs, bodyRvs)
		for _, q := range scheme.TypeVars {
			delete(bodyTvs, q)
		}
		for _, q := range scheme.RowVars {
			delete(bodyRvs, q)
		}
		for id := range bodyTvs {
			tvs[id] = true
		}
		for id := range bodyRvs {
			rvs[id] = true
		}
	}
	return tvs, rvs
}
