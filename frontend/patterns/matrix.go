package patterns

import (
	"strings"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/util"
)

// pat is the simplified pattern form the matrix algorithm works on:
// wildcards, literals, and constructors with subpatterns. Bindings are
// wildcards here; tuples are a single anonymous constructor.
type pat interface {
	patNode()
	String() string
}

type patWild struct{}

type patLit struct {
	kind  ast.LitKind
	value string
}

type patCtor struct {
	name string
	args []pat
}

func (patWild) patNode() {}
func (patLit) patNode()  {}
func (patCtor) patNode() {}

func (patWild) String() string { return "_" }

func (p patLit) String() string {
	if p.kind == ast.LitString {
		return "\"" + p.value + "\""
	}
	return p.value
}

func (p patCtor) String() string {
	if p.name == tupleCtor {
		parts := make([]string, len(p.args))
		for i, a := range p.args {
			parts[i] = a.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	if len(p.args) == 0 {
		return p.name
	}
	parts := make([]string, len(p.args))
	for i, a := range p.args {
		parts[i] = a.String()
	}
	return p.name + "(" + strings.Join(parts, ", ") + ")"
}

// tupleCtor is the anonymous constructor name used for tuple patterns.
const tupleCtor = "(,)"

// simplify lowers an AST pattern. Bool literals become nullary
// constructors so the two-valued signature can be complete.
func simplify(p ast.Pattern) pat {
	switch p := p.(type) {
	case *ast.WildcardPattern, *ast.BindPattern:
		return patWild{}
	case *ast.LiteralPattern:
		if p.Kind == ast.LitBool {
			return patCtor{name: p.Value}
		}
		if p.Kind == ast.LitUnit {
			return patCtor{name: "()"}
		}
		return patLit{kind: p.Kind, value: p.Value}
	case *ast.TuplePattern:
		args := make([]pat, len(p.Elems))
		for i, el := range p.Elems {
			args[i] = simplify(el)
		}
		return patCtor{name: tupleCtor, args: args}
	case *ast.CtorPattern:
		args := make([]pat, len(p.Args))
		for i, a := range p.Args {
			args[i] = simplify(a)
		}
		return patCtor{name: p.Name, args: args}
	default:
		return patWild{}
	}
}

// ctorSig describes one constructor of a column type's signature.
type ctorSig struct {
	name  string
	arity int
	// argTypes are the column types the constructor's subpatterns
	// introduce when the matrix is specialized on it
	argTypes []types.Ty
}

// signature enumerates the constructors of a column type, and whether
// that enumeration is complete. Numeric and string literals have an
// unbounded signature; function, capability and list columns can only
// be matched by wildcards.
func signature(ctx *types.Ctx, t types.Ty) (sigs []ctorSig, complete bool) {
	switch t := ctx.Resolve(t).(type) {
	case *types.Const:
		switch t.Name {
		case "Bool":
			return []ctorSig{{name: "true"}, {name: "false"}}, true
		case "Unit":
			return []ctorSig{{name: "()"}}, true
		}
		return nil, false
	case *types.Tuple:
		return []ctorSig{{name: tupleCtor, arity: len(t.Elems), argTypes: t.Elems}}, true
	case *types.Named:
		def, ok := ctx.Reg.Lookup(t.Name)
		if !ok {
			return nil, false
		}
		if !def.IsSum() {
			payload := def.ResolvePayload(-1, t.Args)
			return []ctorSig{{name: def.Name, arity: len(payload), argTypes: payload}}, true
		}
		for i, v := range def.Variants {
			payload := def.ResolvePayload(i, t.Args)
			sigs = append(sigs, ctorSig{name: v.Name, arity: len(payload), argTypes: payload})
		}
		return sigs, true
	default:
		return nil, false
	}
}

// matrix is rows of simplified patterns against a column-type vector.
// It exists only for the duration of one match expression's analysis.
type matrix struct {
	rows     [][]pat
	colTypes []types.Ty
}

func (m *matrix) cells() int {
	n := 0
	for _, r := range m.rows {
		n += len(r)
	}
	return n
}

// specialize filters and expands the matrix for rows compatible with
// the given head constructor in column 0.
func (m *matrix) specialize(sig ctorSig) *matrix {
	out := &matrix{colTypes: append(append([]types.Ty(nil), sig.argTypes...), m.colTypes[1:]...)}
	for _, row := range m.rows {
		switch head := row[0].(type) {
		case patWild:
			newRow := make([]pat, 0, sig.arity+len(row)-1)
			for i := 0; i < sig.arity; i++ {
				newRow = append(newRow, patWild{})
			}
			out.rows = append(out.rows, append(newRow, row[1:]...))
		case patCtor:
			if head.name == sig.name {
				out.rows = append(out.rows, append(append([]pat(nil), head.args...), row[1:]...))
			}
		}
	}
	return out
}

// specializeLit keeps rows whose head matches the literal exactly, plus
// wildcard rows.
func (m *matrix) specializeLit(lit patLit) *matrix {
	out := &matrix{colTypes: m.colTypes[1:]}
	for _, row := range m.rows {
		switch head := row[0].(type) {
		case patWild:
			out.rows = append(out.rows, row[1:])
		case patLit:
			if head.value == lit.value {
				out.rows = append(out.rows, row[1:])
			}
		}
	}
	return out
}

// defaulted keeps only rows with a wildcard head, dropping column 0.
func (m *matrix) defaulted() *matrix {
	out := &matrix{colTypes: m.colTypes[1:]}
	for _, row := range m.rows {
		if _, ok := row[0].(patWild); ok {
			out.rows = append(out.rows, row[1:])
		}
	}
	return out
}

// headCtors collects the distinct constructor names present in column 0.
func (m *matrix) headCtors() util.MSet[string] {
	heads := util.NewEmptySet[string]()
	for _, row := range m.rows {
		if c, ok := row[0].(patCtor); ok {
			heads.Add(c.name)
		}
	}
	return heads
}
