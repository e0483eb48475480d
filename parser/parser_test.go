package parser_test

import (
	"go/token"
	"testing"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/internal/limits"
	"github.com/rill-lang/rill/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParse(t *testing.T, input string) (ast.Module, *rillerr.Errors) {
	t.Helper()
	m, cErrs, err := parser.ParseToAST(token.NewFileSet(), "test.rill", []byte(input), limits.Default())
	require.NoError(t, err)
	return m, cErrs
}

func mustParse(t *testing.T, input string) ast.Module {
	t.Helper()
	m, cErrs := testParse(t, input)
	require.False(t, cErrs.HasError(), "parse errors: %v", cErrs.Errors())
	return m
}

func TestNoPanics(t *testing.T) {
	files := map[string]string{
		"empty program":     ``,
		"lone fn":           `fn`,
		"fn without body":   `fn f()`,
		"unclosed brace":    `fn f() {`,
		"unclosed paren":    `fn f( {`,
		"stray punctuation": `} ) ] ,`,
		"unterminated str":  `fn f() { "abc }`,
		"stray character":   `fn f() { @ }`,
	}
	for name, file := range files {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, _, _ = parser.ParseToAST(token.NewFileSet(), "test.rill", []byte(file), limits.Default())
			})
		})
	}
}

func TestModuleName(t *testing.T) {
	m := mustParse(t, `fn f() { () }`)
	assert.Equal(t, "test", m.Name)
}

func TestFuncDecl(t *testing.T) {
	m := mustParse(t, `
fn add(a: Int, b: Int) -> Int { a + b }
`)
	require.Len(t, m.Decls, 1)
	fd, ok := m.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fd.Name)
	assert.Len(t, fd.Params, 2)
	assert.False(t, fd.Extern)
	assert.Nil(t, fd.Effects)
	require.NotNil(t, fd.Ret)
	assert.Equal(t, "Int", fd.Ret.(*ast.NamedType).Name)
}

func TestUnannotatedParam(t *testing.T) {
	m := mustParse(t, `fn id(x) { x }`)
	fd := m.Decls[0].(*ast.FuncDecl)
	require.Len(t, fd.Params, 1)
	assert.Nil(t, fd.Params[0].Type)
}

func TestExternDecl(t *testing.T) {
	m := mustParse(t, `
extern fn read_line(h: &Fs, prompt: String) -> String ! {Fs}
`)
	fd := m.Decls[0].(*ast.FuncDecl)
	assert.True(t, fd.Extern)
	assert.Nil(t, fd.Body)
	require.NotNil(t, fd.Effects)
	assert.Equal(t, []string{"Fs"}, fd.Effects.Tags)

	ref, ok := fd.Params[0].Type.(*ast.RefType)
	require.True(t, ok)
	assert.Equal(t, "Fs", ref.Of.(*ast.NamedType).Name)
}

func TestEmptyEffectAnnotIsNotNil(t *testing.T) {
	m := mustParse(t, `fn pure() -> Int ! {} { 1 }`)
	fd := m.Decls[0].(*ast.FuncDecl)
	require.NotNil(t, fd.Effects, "an explicit empty row declares purity")
	assert.Empty(t, fd.Effects.Tags)
}

func TestTypeDeclSum(t *testing.T) {
	m := mustParse(t, `type Opt[a] = Some(a) | None`)
	td := m.Decls[0].(*ast.TypeDecl)
	assert.Equal(t, "Opt", td.Name)
	assert.Equal(t, []string{"a"}, td.Params)
	require.Len(t, td.Variants, 2)
	assert.Equal(t, "Some", td.Variants[0].Name)
	assert.Len(t, td.Variants[0].Payload, 1)
	assert.Empty(t, td.Variants[1].Payload)
	assert.Empty(t, td.Fields)
}

func TestTypeDeclProduct(t *testing.T) {
	m := mustParse(t, `type Point = { x: Int, y: Int }`)
	td := m.Decls[0].(*ast.TypeDecl)
	require.Len(t, td.Fields, 2)
	assert.Equal(t, "x", td.Fields[0].Name)
	assert.Empty(t, td.Variants)
}

func TestPrecedence(t *testing.T) {
	m := mustParse(t, `fn f() -> Int { 1 + 2 * 3 }`)
	body := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block)
	e := body.Stmts[0].(*ast.ExprStmt).E.(*ast.Binary)
	assert.Equal(t, ast.OpAdd, e.Op)
	rhs := e.Rhs.(*ast.Binary)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestLeftAssociativity(t *testing.T) {
	m := mustParse(t, `fn f() -> Int { 1 - 2 - 3 }`)
	e := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.Binary)
	assert.Equal(t, ast.OpSub, e.Op)
	lhs := e.Lhs.(*ast.Binary)
	assert.Equal(t, ast.OpSub, lhs.Op)
	assert.Equal(t, "3", e.Rhs.(*ast.Literal).Value)
}

func TestComparisonBindsLooserThanArithmetic(t *testing.T) {
	m := mustParse(t, `fn f() -> Bool { 1 + 1 == 2 }`)
	e := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.Binary)
	assert.Equal(t, ast.OpEq, e.Op)
}

func TestUnitLiteral(t *testing.T) {
	m := mustParse(t, `fn f() { () }`)
	lit := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.Literal)
	assert.Equal(t, ast.LitUnit, lit.Kind)
}

func TestTupleVersusParen(t *testing.T) {
	m := mustParse(t, `fn f() { (1, "a"); (2) }`)
	stmts := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts
	_, isTuple := stmts[0].(*ast.ExprStmt).E.(*ast.TupleExpr)
	assert.True(t, isTuple)
	_, isLit := stmts[1].(*ast.ExprStmt).E.(*ast.Literal)
	assert.True(t, isLit, "a single parenthesised expression is not a tuple")
}

func TestListLiteral(t *testing.T) {
	m := mustParse(t, `fn f() { [1, 2, 3] }`)
	list := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.ListExpr)
	assert.Len(t, list.Elems, 3)
}

func TestStringEscapes(t *testing.T) {
	m := mustParse(t, `fn f() -> String { "a\nb\"c" }`)
	lit := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.Literal)
	assert.Equal(t, "a\nb\"c", lit.Value)
}

func TestLineComments(t *testing.T) {
	m := mustParse(t, `
// leading comment
fn f() -> Int { 1 } // trailing
`)
	assert.Len(t, m.Decls, 1)
}

func TestMatchExpression(t *testing.T) {
	m := mustParse(t, `
fn f(o) -> Int {
	match o {
		Some(x) => x,
		(a, _) => a,
		1 => 1,
		other => other,
		_ => 0
	}
}
`)
	match := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.Match)
	require.Len(t, match.Arms, 5)
	_, isCtor := match.Arms[0].Pattern.(*ast.CtorPattern)
	assert.True(t, isCtor)
	_, isTuple := match.Arms[1].Pattern.(*ast.TuplePattern)
	assert.True(t, isTuple)
	_, isLit := match.Arms[2].Pattern.(*ast.LiteralPattern)
	assert.True(t, isLit)
	_, isBind := match.Arms[3].Pattern.(*ast.BindPattern)
	assert.True(t, isBind)
	_, isWild := match.Arms[4].Pattern.(*ast.WildcardPattern)
	assert.True(t, isWild)
}

func TestLambdaExpression(t *testing.T) {
	m := mustParse(t, `fn f() { let g = fn(x) x + 1; g(1) }`)
	block := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block)
	let := block.Stmts[0].(*ast.LetStmt)
	lam, ok := let.Init.(*ast.Lambda)
	require.True(t, ok)
	assert.Len(t, lam.Params, 1)
}

func TestIfElseChain(t *testing.T) {
	m := mustParse(t, `
fn f(n: Int) -> Int {
	if n < 0 { 0 } else if n == 0 { 1 } else { 2 }
}
`)
	e := m.Decls[0].(*ast.FuncDecl).Body.(*ast.Block).Stmts[0].(*ast.ExprStmt).E.(*ast.If)
	_, chained := e.Else.(*ast.If)
	assert.True(t, chained)
}

func TestSyntaxErrorPosition(t *testing.T) {
	fset := token.NewFileSet()
	_, cErrs, err := parser.ParseToAST(fset, "test.rill", []byte("fn f() { let = 1 }"), limits.Default())
	require.NoError(t, err)
	require.True(t, cErrs.HasError())
	e := cErrs.Errors()[0]
	assert.Equal(t, rillerr.ParseFailure, e.Code())
	pos := fset.Position(e.Pos())
	assert.Equal(t, 1, pos.Line)
	assert.Greater(t, pos.Column, 1)
}

func TestParseDepthLimit(t *testing.T) {
	lim := limits.Default()
	lim.MaxParseDepth = 8
	deep := "fn f() -> Int { ((((((((((1)))))))))) }"
	_, cErrs, err := parser.ParseToAST(token.NewFileSet(), "test.rill", []byte(deep), lim)
	require.NoError(t, err)
	assert.True(t, cErrs.HasFatal())
}

func TestTokenLimit(t *testing.T) {
	lim := limits.Default()
	lim.MaxTokens = 3
	_, cErrs, err := parser.ParseToAST(token.NewFileSet(), "test.rill", []byte("fn f() -> Int { 1 }"), lim)
	require.NoError(t, err)
	assert.True(t, cErrs.HasFatal())
}

func TestSourceByteLimit(t *testing.T) {
	lim := limits.Default()
	lim.MaxSourceBytes = 4
	_, cErrs, err := parser.ParseToAST(token.NewFileSet(), "test.rill", []byte("fn f() { () }"), lim)
	require.NoError(t, err)
	assert.True(t, cErrs.HasFatal())
}
