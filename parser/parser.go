package parser

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/internal/limits"
)

// parser is a hand-written recursive descent parser over the token
// stream. Binary expressions use precedence climbing. Nesting depth is
// bounded by the configured parse depth limit.
type parser struct {
	lex    *lexer
	tok    Token
	lim    limits.Table
	depth  int
	errors *rillerr.Errors
	fatal  bool
}

type parseAbort struct{}

// fail records an error and unwinds to the nearest recovery point.
// The parser stops at the first syntax error rather than attempting
// resynchronisation.
func (p *parser) fail(at ast.Positioner, format string, args ...any) {
	p.errors = p.errors.With(rillerr.New(rillerr.NewParse{
		Positioner: at,
		Message:    fmt.Sprintf(format, args...),
	}))
	p.fatal = true
	panic(parseAbort{})
}

func (p *parser) failLimit(at ast.Positioner, detail string) {
	p.errors = p.errors.With(rillerr.New(rillerr.NewResourceLimit{
		Positioner: at,
		Detail:     detail,
	}))
	p.fatal = true
	panic(parseAbort{})
}

func (p *parser) span(t Token) ast.Range {
	return ast.Range{PosStart: t.Pos, PosEnd: t.End}
}

func (p *parser) advance() Token {
	prev := p.tok
	next, lexErr := p.lex.next()
	if lexErr != nil {
		at := ast.Range{PosStart: lexErr.pos, PosEnd: lexErr.pos}
		if strings.Contains(lexErr.msg, "token count") {
			p.failLimit(at, lexErr.msg)
		}
		p.fail(at, "%s", lexErr.msg)
	}
	p.tok = next
	return prev
}

func (p *parser) at(tt TokenType) bool { return p.tok.Type == tt }

func (p *parser) accept(tt TokenType) (Token, bool) {
	if p.tok.Type == tt {
		return p.advance(), true
	}
	return Token{}, false
}

func (p *parser) expect(tt TokenType, what string) Token {
	if p.tok.Type != tt {
		p.fail(p.span(p.tok), "expected %s, found %s", what, describe(p.tok))
	}
	return p.advance()
}

func describe(t Token) string {
	if t.Type == EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

func (p *parser) enter(at ast.Positioner) {
	p.depth++
	if p.depth > p.lim.MaxParseDepth {
		p.failLimit(at, fmt.Sprintf("nesting depth exceeds limit %d", p.lim.MaxParseDepth))
	}
}

func (p *parser) leave() { p.depth-- }

// parseModule parses a whole compilation unit.
func (p *parser) parseModule(name string) ast.Module {
	start := p.tok.Pos
	var decls []ast.Decl
	for !p.at(EOF) {
		decls = append(decls, p.parseDecl())
	}
	end := p.tok.End
	return ast.Module{
		Range: ast.Range{PosStart: start, PosEnd: end},
		Name:  name,
		Decls: decls,
	}
}

func (p *parser) parseDecl() ast.Decl {
	switch p.tok.Type {
	case KwType:
		return p.parseTypeDecl()
	case KwExtern:
		ext := p.advance()
		if !p.at(KwFn) {
			p.fail(p.span(p.tok), "expected \"fn\" after \"extern\", found %s", describe(p.tok))
		}
		return p.parseFuncDecl(ext.Pos, true)
	case KwFn:
		return p.parseFuncDecl(p.tok.Pos, false)
	}
	p.fail(p.span(p.tok), "expected a declaration, found %s", describe(p.tok))
	return nil
}

// parseTypeDecl parses `type Name[T, U] = ...` where the right-hand
// side is either a product `{ field: T, ... }` or a sum
// `Ctor(T) | Ctor2 | ...`.
func (p *parser) parseTypeDecl() *ast.TypeDecl {
	kw := p.expect(KwType, "\"type\"")
	name := p.expect(IDENT, "type name")
	if !isUpper(name.Lexeme) {
		p.fail(p.span(name), "type name %q must start with an uppercase letter", name.Lexeme)
	}

	var params []string
	if _, ok := p.accept(LBRACKET); ok {
		for {
			pn := p.expect(IDENT, "type parameter")
			if isUpper(pn.Lexeme) {
				p.fail(p.span(pn), "type parameter %q must start with a lowercase letter", pn.Lexeme)
			}
			params = append(params, pn.Lexeme)
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
		p.expect(RBRACKET, "\"]\"")
	}

	p.expect(ASSIGN, "\"=\"")

	decl := &ast.TypeDecl{Name: name.Lexeme, Params: params}
	var end token.Pos
	if p.at(LBRACE) {
		end = p.parseProductBody(decl)
	} else {
		end = p.parseSumBody(decl)
	}
	decl.Range = ast.Range{PosStart: kw.Pos, PosEnd: end}
	return decl
}

func (p *parser) parseProductBody(decl *ast.TypeDecl) token.Pos {
	p.expect(LBRACE, "\"{\"")
	for {
		fn := p.expect(IDENT, "field name")
		p.expect(COLON, "\":\"")
		ft := p.parseType()
		decl.Fields = append(decl.Fields, ast.FieldDef{
			Range: ast.Range{PosStart: fn.Pos, PosEnd: ast.RangeOf(ft).PosEnd},
			Name:  fn.Lexeme,
			Type:  ft,
		})
		if _, ok := p.accept(COMMA); !ok {
			break
		}
		if p.at(RBRACE) {
			break
		}
	}
	close := p.expect(RBRACE, "\"}\"")
	return close.End
}

func (p *parser) parseSumBody(decl *ast.TypeDecl) token.Pos {
	var end token.Pos
	for {
		v := p.expect(IDENT, "variant name")
		if !isUpper(v.Lexeme) {
			p.fail(p.span(v), "variant name %q must start with an uppercase letter", v.Lexeme)
		}
		variant := ast.VariantDef{Name: v.Lexeme}
		end = v.End
		if _, ok := p.accept(LPAREN); ok {
			for {
				t := p.parseType()
				variant.Payload = append(variant.Payload, t)
				if _, ok := p.accept(COMMA); !ok {
					break
				}
			}
			close := p.expect(RPAREN, "\")\"")
			end = close.End
		}
		variant.Range = ast.Range{PosStart: v.Pos, PosEnd: end}
		decl.Variants = append(decl.Variants, variant)
		if _, ok := p.accept(PIPE); !ok {
			break
		}
	}
	return end
}

// parseFuncDecl parses the signature and, for non-extern functions, the
// body. Extern parameters may carry reference types.
func (p *parser) parseFuncDecl(start token.Pos, extern bool) *ast.FuncDecl {
	p.expect(KwFn, "\"fn\"")
	name := p.expect(IDENT, "function name")
	if isUpper(name.Lexeme) {
		p.fail(p.span(name), "function name %q must start with a lowercase letter", name.Lexeme)
	}

	decl := &ast.FuncDecl{Name: name.Lexeme, Extern: extern}
	p.expect(LPAREN, "\"(\"")
	if !p.at(RPAREN) {
		for {
			pn := p.expect(IDENT, "parameter name")
			param := ast.Param{Name: pn.Lexeme}
			param.Range = p.span(pn)
			if _, ok := p.accept(COLON); ok {
				param.Type = p.parseType()
				param.Range.PosEnd = ast.RangeOf(param.Type).PosEnd
			}
			decl.Params = append(decl.Params, param)
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
	}
	p.expect(RPAREN, "\")\"")

	if _, ok := p.accept(ARROW); ok {
		decl.Ret = p.parseType()
	}
	if p.at(BANG) {
		decl.Effects = p.parseEffectAnnot()
	}

	var end token.Pos
	if extern {
		if last := p.lastSignatureEnd(decl); last.IsValid() {
			end = last
		} else {
			end = name.End
		}
	} else {
		body := p.parseBlock()
		decl.Body = body
		end = body.PosEnd
	}
	decl.Range = ast.Range{PosStart: start, PosEnd: end}
	return decl
}

func (p *parser) lastSignatureEnd(decl *ast.FuncDecl) token.Pos {
	if decl.Effects != nil {
		return decl.Effects.PosEnd
	}
	if decl.Ret != nil {
		return ast.RangeOf(decl.Ret).PosEnd
	}
	return token.NoPos
}

// parseEffectAnnot parses `! {Fs, Net}`. An empty set `! {}` declares
// the function pure, which is distinct from no annotation at all.
func (p *parser) parseEffectAnnot() *ast.EffectAnnot {
	bang := p.expect(BANG, "\"!\"")
	p.expect(LBRACE, "\"{\"")
	annot := &ast.EffectAnnot{Tags: []string{}}
	if !p.at(RBRACE) {
		for {
			tag := p.expect(IDENT, "effect name")
			annot.Tags = append(annot.Tags, tag.Lexeme)
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
	}
	close := p.expect(RBRACE, "\"}\"")
	annot.Range = ast.Range{PosStart: bang.Pos, PosEnd: close.End}
	return annot
}

// parseType parses a type annotation. Reference types parse anywhere;
// whether a reference is legal in its position is decided during type
// resolution, where the diagnostic can name the enclosing function.
func (p *parser) parseType() ast.Type {
	p.enter(p.span(p.tok))
	defer p.leave()

	switch p.tok.Type {
	case AMP:
		amp := p.advance()
		inner := p.parseType()
		return &ast.RefType{
			Range: ast.Range{PosStart: amp.Pos, PosEnd: ast.RangeOf(inner).PosEnd},
			Of:    inner,
		}
	case KwFn:
		return p.parseFuncType()
	case LPAREN:
		open := p.advance()
		if close, ok := p.accept(RPAREN); ok {
			return &ast.NamedType{
				Range: ast.Range{PosStart: open.Pos, PosEnd: close.End},
				Name:  "Unit",
			}
		}
		first := p.parseType()
		if _, ok := p.accept(RPAREN); ok {
			return first
		}
		elems := []ast.Type{first}
		for {
			p.expect(COMMA, "\",\" or \")\"")
			elems = append(elems, p.parseType())
			if close, ok := p.accept(RPAREN); ok {
				return &ast.TupleType{
					Range: ast.Range{PosStart: open.Pos, PosEnd: close.End},
					Elems: elems,
				}
			}
		}
	case IDENT:
		name := p.advance()
		nt := &ast.NamedType{Name: name.Lexeme}
		end := name.End
		if _, ok := p.accept(LBRACKET); ok {
			for {
				nt.Args = append(nt.Args, p.parseType())
				if _, ok := p.accept(COMMA); !ok {
					break
				}
			}
			close := p.expect(RBRACKET, "\"]\"")
			end = close.End
		}
		nt.Range = ast.Range{PosStart: name.Pos, PosEnd: end}
		return nt
	}
	p.fail(p.span(p.tok), "expected a type, found %s", describe(p.tok))
	return nil
}

func (p *parser) parseFuncType() ast.Type {
	kw := p.expect(KwFn, "\"fn\"")
	p.expect(LPAREN, "\"(\"")
	ft := &ast.FuncType{}
	if !p.at(RPAREN) {
		for {
			ft.Params = append(ft.Params, p.parseType())
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
	}
	close := p.expect(RPAREN, "\")\"")
	end := close.End
	if _, ok := p.accept(ARROW); ok {
		ft.Ret = p.parseType()
		end = ast.RangeOf(ft.Ret).PosEnd
	}
	if p.at(BANG) {
		ft.Effects = p.parseEffectAnnot()
		end = ft.Effects.PosEnd
	}
	ft.Range = ast.Range{PosStart: kw.Pos, PosEnd: end}
	return ft
}

// parseBlock parses `{ stmt; ...; expr }`. Statements are separated by
// semicolons; a trailing expression without a semicolon is the block's
// value.
func (p *parser) parseBlock() *ast.Block {
	open := p.expect(LBRACE, "\"{\"")
	block := &ast.Block{}
	for !p.at(RBRACE) {
		block.Stmts = append(block.Stmts, p.parseStmt())
		if _, ok := p.accept(SEMICOLON); !ok {
			break
		}
	}
	close := p.expect(RBRACE, "\"}\"")
	block.Range = ast.Range{PosStart: open.Pos, PosEnd: close.End}
	return block
}

func (p *parser) parseStmt() ast.Stmt {
	if p.at(KwLet) {
		kw := p.advance()
		name := p.expect(IDENT, "binding name")
		if isUpper(name.Lexeme) {
			p.fail(p.span(name), "binding name %q must start with a lowercase letter", name.Lexeme)
		}
		p.expect(ASSIGN, "\"=\"")
		init := p.parseExpr()
		return &ast.LetStmt{
			Range: ast.Range{PosStart: kw.Pos, PosEnd: ast.RangeOf(init).PosEnd},
			Name:  name.Lexeme,
			Init:  init,
		}
	}
	e := p.parseExpr()
	return &ast.ExprStmt{Range: ast.RangeOf(e), E: e}
}

func (p *parser) parseExpr() ast.Expr {
	p.enter(p.span(p.tok))
	defer p.leave()
	return p.parseBinary(0)
}

// binOpFor maps an operator token to its BinOp and precedence level.
// Higher binds tighter; comparison operators do not chain.
func binOpFor(tt TokenType) (ast.BinOp, int, bool) {
	switch tt {
	case OROR:
		return ast.OpOr, 1, true
	case ANDAND:
		return ast.OpAnd, 2, true
	case EQ:
		return ast.OpEq, 3, true
	case NEQ:
		return ast.OpNotEq, 3, true
	case LESS:
		return ast.OpLess, 3, true
	case LESSEQ:
		return ast.OpLessEq, 3, true
	case GREATER:
		return ast.OpGreater, 3, true
	case GREATEREQ:
		return ast.OpGreaterEq, 3, true
	case PLUS:
		return ast.OpAdd, 4, true
	case MINUS:
		return ast.OpSub, 4, true
	case STAR:
		return ast.OpMul, 5, true
	case SLASH:
		return ast.OpDiv, 5, true
	}
	return 0, 0, false
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	lhs := p.parsePostfix()
	for {
		op, prec, ok := binOpFor(p.tok.Type)
		if !ok || prec < minPrec {
			return lhs
		}
		p.advance()
		rhs := p.parseBinary(prec + 1)
		lhs = &ast.Binary{
			Range: ast.RangeBetween(lhs, rhs),
			Op:    op,
			Lhs:   lhs,
			Rhs:   rhs,
		}
	}
}

func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for p.at(LPAREN) {
		p.advance()
		call := &ast.Call{Fn: e}
		if !p.at(RPAREN) {
			for {
				call.Args = append(call.Args, p.parseExpr())
				if _, ok := p.accept(COMMA); !ok {
					break
				}
			}
		}
		close := p.expect(RPAREN, "\")\"")
		call.Range = ast.Range{PosStart: ast.RangeOf(e).PosStart, PosEnd: close.End}
		e = call
	}
	return e
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.tok
	switch tok.Type {
	case INT:
		p.advance()
		return &ast.Literal{Range: p.span(tok), Kind: ast.LitInt, Value: tok.Lexeme}
	case FLOAT:
		p.advance()
		return &ast.Literal{Range: p.span(tok), Kind: ast.LitFloat, Value: tok.Lexeme}
	case STRING:
		p.advance()
		return &ast.Literal{Range: p.span(tok), Kind: ast.LitString, Value: tok.Lexeme}
	case KwTrue, KwFalse:
		p.advance()
		return &ast.Literal{Range: p.span(tok), Kind: ast.LitBool, Value: tok.Lexeme}
	case IDENT:
		p.advance()
		return &ast.Var{Range: p.span(tok), Name: tok.Lexeme}
	case LPAREN:
		return p.parseParen()
	case LBRACKET:
		return p.parseList()
	case LBRACE:
		return p.parseBlock()
	case KwIf:
		return p.parseIf()
	case KwWhile:
		return p.parseWhile()
	case KwMatch:
		return p.parseMatch()
	case KwFn:
		return p.parseLambda()
	}
	p.fail(p.span(tok), "expected an expression, found %s", describe(tok))
	return nil
}

// parseParen disambiguates unit `()`, a parenthesised expression
// `(e)`, and a tuple `(a, b)`.
func (p *parser) parseParen() ast.Expr {
	open := p.expect(LPAREN, "\"(\"")
	if close, ok := p.accept(RPAREN); ok {
		return &ast.Literal{
			Range: ast.Range{PosStart: open.Pos, PosEnd: close.End},
			Kind:  ast.LitUnit,
		}
	}
	first := p.parseExpr()
	if _, ok := p.accept(RPAREN); ok {
		return first
	}
	elems := []ast.Expr{first}
	for {
		p.expect(COMMA, "\",\" or \")\"")
		elems = append(elems, p.parseExpr())
		if close, ok := p.accept(RPAREN); ok {
			return &ast.TupleExpr{
				Range: ast.Range{PosStart: open.Pos, PosEnd: close.End},
				Elems: elems,
			}
		}
	}
}

func (p *parser) parseList() ast.Expr {
	open := p.expect(LBRACKET, "\"[\"")
	list := &ast.ListExpr{}
	if !p.at(RBRACKET) {
		for {
			list.Elems = append(list.Elems, p.parseExpr())
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
	}
	close := p.expect(RBRACKET, "\"]\"")
	list.Range = ast.Range{PosStart: open.Pos, PosEnd: close.End}
	return list
}

func (p *parser) parseIf() ast.Expr {
	kw := p.expect(KwIf, "\"if\"")
	cond := p.parseExpr()
	then := p.parseBlock()
	out := &ast.If{Cond: cond, Then: then}
	end := then.PosEnd
	if _, ok := p.accept(KwElse); ok {
		if p.at(KwIf) {
			out.Else = p.parseIf()
		} else {
			out.Else = p.parseBlock()
		}
		end = ast.RangeOf(out.Else).PosEnd
	}
	out.Range = ast.Range{PosStart: kw.Pos, PosEnd: end}
	return out
}

func (p *parser) parseWhile() ast.Expr {
	kw := p.expect(KwWhile, "\"while\"")
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.While{
		Range: ast.Range{PosStart: kw.Pos, PosEnd: body.PosEnd},
		Cond:  cond,
		Body:  body,
	}
}

func (p *parser) parseMatch() ast.Expr {
	kw := p.expect(KwMatch, "\"match\"")
	scrut := p.parseExpr()
	p.expect(LBRACE, "\"{\"")
	m := &ast.Match{Scrutinee: scrut}
	for !p.at(RBRACE) {
		pat := p.parsePattern()
		p.expect(FATARROW, "\"=>\"")
		body := p.parseExpr()
		m.Arms = append(m.Arms, ast.MatchArm{
			Range:   ast.RangeBetween(pat, body),
			Pattern: pat,
			Body:    body,
		})
		if _, ok := p.accept(COMMA); !ok {
			break
		}
	}
	close := p.expect(RBRACE, "\"}\"")
	if len(m.Arms) == 0 {
		p.fail(ast.Range{PosStart: kw.Pos, PosEnd: close.End}, "match expression has no arms")
	}
	m.Range = ast.Range{PosStart: kw.Pos, PosEnd: close.End}
	return m
}

// parseLambda parses `fn(x, y: Int) expr`. Parameter annotations are
// optional; unannotated parameters get fresh type variables.
func (p *parser) parseLambda() ast.Expr {
	kw := p.expect(KwFn, "\"fn\"")
	p.expect(LPAREN, "\"(\"")
	lam := &ast.Lambda{}
	if !p.at(RPAREN) {
		for {
			pn := p.expect(IDENT, "parameter name")
			param := ast.Param{Name: pn.Lexeme}
			param.Range = p.span(pn)
			if _, ok := p.accept(COLON); ok {
				param.Type = p.parseType()
				param.Range.PosEnd = ast.RangeOf(param.Type).PosEnd
			}
			lam.Params = append(lam.Params, param)
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
	}
	p.expect(RPAREN, "\")\"")
	lam.Body = p.parseExpr()
	lam.Range = ast.Range{PosStart: kw.Pos, PosEnd: ast.RangeOf(lam.Body).PosEnd}
	return lam
}

func (p *parser) parsePattern() ast.Pattern {
	p.enter(p.span(p.tok))
	defer p.leave()

	tok := p.tok
	switch tok.Type {
	case INT:
		p.advance()
		return &ast.LiteralPattern{Range: p.span(tok), Kind: ast.LitInt, Value: tok.Lexeme}
	case FLOAT:
		p.advance()
		return &ast.LiteralPattern{Range: p.span(tok), Kind: ast.LitFloat, Value: tok.Lexeme}
	case STRING:
		p.advance()
		return &ast.LiteralPattern{Range: p.span(tok), Kind: ast.LitString, Value: tok.Lexeme}
	case KwTrue, KwFalse:
		p.advance()
		return &ast.LiteralPattern{Range: p.span(tok), Kind: ast.LitBool, Value: tok.Lexeme}
	case IDENT:
		p.advance()
		if tok.Lexeme == "_" {
			return &ast.WildcardPattern{Range: p.span(tok)}
		}
		if !isUpper(tok.Lexeme) {
			return &ast.BindPattern{Range: p.span(tok), Name: tok.Lexeme}
		}
		ctor := &ast.CtorPattern{Name: tok.Lexeme}
		end := tok.End
		if _, ok := p.accept(LPAREN); ok {
			for {
				ctor.Args = append(ctor.Args, p.parsePattern())
				if _, ok := p.accept(COMMA); !ok {
					break
				}
			}
			close := p.expect(RPAREN, "\")\"")
			end = close.End
		}
		ctor.Range = ast.Range{PosStart: tok.Pos, PosEnd: end}
		return ctor
	case LPAREN:
		open := p.advance()
		if close, ok := p.accept(RPAREN); ok {
			return &ast.LiteralPattern{
				Range: ast.Range{PosStart: open.Pos, PosEnd: close.End},
				Kind:  ast.LitUnit,
			}
		}
		first := p.parsePattern()
		if _, ok := p.accept(RPAREN); ok {
			return first
		}
		elems := []ast.Pattern{first}
		for {
			p.expect(COMMA, "\",\" or \")\"")
			elems = append(elems, p.parsePattern())
			if close, ok := p.accept(RPAREN); ok {
				return &ast.TuplePattern{
					Range: ast.Range{PosStart: open.Pos, PosEnd: close.End},
					Elems: elems,
				}
			}
		}
	}
	p.fail(p.span(tok), "expected a pattern, found %s", describe(tok))
	return nil
}

func isUpper(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}
