package ownership

import (
	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/types"
)

// binding is one environment entry, identified by (name, generation)
// rather than by name alone: shadowing introduces a new generation, so
// consumption of one generation can never be confused with another.
type binding struct {
	name string
	gen  int
	kind types.Kind

	consumed   bool
	consumedAt ast.Range
	// inBranch marks consumption decided by the pessimistic join: the
	// binding was consumed in some but not all branches of a
	// conditional, so it must be treated as consumed afterwards.
	inBranch bool

	// nesting context at introduction, for the loop and capture rules
	loopDepth   int
	lambdaDepth int
}

// scope is one frame of the chain. Lookup and consumption both resolve
// through the entire chain: marking a consumed binding must reach the
// frame that owns it, never insert a tombstone into an inner frame.
type scope struct {
	parent *scope
	vars   map[string]*binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*binding)}
}

// lookup resolves name through the whole chain, innermost first.
func (s *scope) lookup(name string) *binding {
	for frame := s; frame != nil; frame = frame.parent {
		if b, ok := frame.vars[name]; ok {
			return b
		}
	}
	return nil
}

// bindingState snapshots the mutable part of a binding for branch joins.
type bindingState struct {
	consumed   bool
	consumedAt ast.Range
	inBranch   bool
}

func (b *binding) state() bindingState {
	return bindingState{consumed: b.consumed, consumedAt: b.consumedAt, inBranch: b.inBranch}
}

func (b *binding) restore(st bindingState) {
	b.consumed = st.consumed
	b.consumedAt = st.consumedAt
	b.inBranch = st.inBranch
}
