package infer

import (
	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/types"
)

// Constraint is one obligation emitted while walking a function body.
// Constraints carry the span of the expression that produced them so
// solver failures point at source, and they are consumed strictly in
// generation order.
type Constraint interface {
	constraintNode()
	Span() ast.Positioner
}

// TypeEqual requires two types to unify.
type TypeEqual struct {
	A, B types.Ty
	At   ast.Positioner
}

// EffectSubset requires every effect of Sub to be present in Super.
// These are solved after all type equalities, so effect content never
// interacts with unresolved type shapes.
type EffectSubset struct {
	Sub   types.Row
	Super types.Row
	At    ast.Positioner
}

func (TypeEqual) constraintNode()    {}
func (EffectSubset) constraintNode() {}

func (c TypeEqual) Span() ast.Positioner    { return c.At }
func (c EffectSubset) Span() ast.Positioner { return c.At }
