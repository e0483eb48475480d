package parser

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// special
	EOF TokenType = iota
	ILLEGAL

	// punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACE   // "{"
	RBRACE   // "}"
	LBRACKET // "["
	RBRACKET // "]"
	COMMA
	SEMICOLON
	COLON
	PIPE     // "|"
	FATARROW // "=>"
	ARROW    // "->"
	BANG     // "!"
	AMP      // "&"
	ASSIGN   // "="

	// operators
	PLUS
	MINUS
	STAR
	SLASH
	EQ   // "=="
	NEQ  // "!="
	LESS
	LESSEQ
	GREATER
	GREATEREQ
	ANDAND // "&&"
	OROR   // "||"

	// literals and identifiers
	IDENT
	INT
	FLOAT
	STRING

	// keywords
	KwFn
	KwLet
	KwExtern
	KwType
	KwIf
	KwElse
	KwWhile
	KwMatch
	KwTrue
	KwFalse
)

var keywords = map[string]TokenType{
	"fn":     KwFn,
	"let":    KwLet,
	"extern": KwExtern,
	"type":   KwType,
	"if":     KwIf,
	"else":   KwElse,
	"while":  KwWhile,
	"match":  KwMatch,
	"true":   KwTrue,
	"false":  KwFalse,
}

// Token is one lexical token with its source span.
type Token struct {
	Type   TokenType
	Lexeme string
	Pos    token.Pos
	End    token.Pos
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return fmt.Sprintf("%q", t.Lexeme)
	}
	return fmt.Sprintf("token(%d)", t.Type)
}

// lexer scans a source buffer into tokens, enforcing the token-count
// limit as it goes.
type lexer struct {
	src       string
	file      *token.File
	offset    int
	maxTokens int
	count     int
}

func newLexer(src string, file *token.File, maxTokens int) *lexer {
	return &lexer{src: src, file: file, maxTokens: maxTokens}
}

type lexError struct {
	msg string
	pos token.Pos
}

func (e *lexError) Error() string { return e.msg }

func (l *lexer) pos() token.Pos { return l.file.Pos(l.offset) }

func (l *lexer) peek() byte {
	if l.offset >= len(l.src) {
		return 0
	}
	return l.src[l.offset]
}

func (l *lexer) peek2() byte {
	if l.offset+1 >= len(l.src) {
		return 0
	}
	return l.src[l.offset+1]
}

func (l *lexer) skipSpace() {
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.offset++
			continue
		}
		if c == '/' && l.peek2() == '/' {
			for l.offset < len(l.src) && l.src[l.offset] != '\n' {
				l.offset++
			}
			continue
		}
		return
	}
}

// next scans one token.
func (l *lexer) next() (Token, *lexError) {
	l.skipSpace()
	l.count++
	if l.count > l.maxTokens {
		return Token{}, &lexError{msg: fmt.Sprintf("token count exceeds limit %d", l.maxTokens), pos: l.pos()}
	}

	start := l.pos()
	if l.offset >= len(l.src) {
		return Token{Type: EOF, Pos: start, End: start}, nil
	}

	c := l.src[l.offset]
	switch {
	case c == '"':
		return l.scanString()
	case c >= '0' && c <= '9':
		return l.scanNumber()
	case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
		return l.scanIdent()
	}

	two := func(tt TokenType) (Token, *lexError) {
		l.offset += 2
		return Token{Type: tt, Lexeme: l.src[l.file.Offset(start):l.offset], Pos: start, End: l.pos()}, nil
	}
	one := func(tt TokenType) (Token, *lexError) {
		l.offset++
		return Token{Type: tt, Lexeme: string(c), Pos: start, End: l.pos()}, nil
	}

	switch c {
	case '(':
		return one(LPAREN)
	case ')':
		return one(RPAREN)
	case '{':
		return one(LBRACE)
	case '}':
		return one(RBRACE)
	case '[':
		return one(LBRACKET)
	case ']':
		return one(RBRACKET)
	case ',':
		return one(COMMA)
	case ';':
		return one(SEMICOLON)
	case ':':
		return one(COLON)
	case '+':
		return one(PLUS)
	case '-':
		if l.peek2() == '>' {
			return two(ARROW)
		}
		return one(MINUS)
	case '*':
		return one(STAR)
	case '/':
		return one(SLASH)
	case '=':
		if l.peek2() == '=' {
			return two(EQ)
		}
		if l.peek2() == '>' {
			return two(FATARROW)
		}
		return one(ASSIGN)
	case '!':
		if l.peek2() == '=' {
			return two(NEQ)
		}
		return one(BANG)
	case '<':
		if l.peek2() == '=' {
			return two(LESSEQ)
		}
		return one(LESS)
	case '>':
		if l.peek2() == '=' {
			return two(GREATEREQ)
		}
		return one(GREATER)
	case '&':
		if l.peek2() == '&' {
			return two(ANDAND)
		}
		return one(AMP)
	case '|':
		if l.peek2() == '|' {
			return two(OROR)
		}
		return one(PIPE)
	}
	return Token{}, &lexError{msg: fmt.Sprintf("unexpected character %q", c), pos: start}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) scanIdent() (Token, *lexError) {
	start := l.offset
	startPos := l.pos()
	for l.offset < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.offset:])
		if !isIdentPart(r) {
			break
		}
		l.offset += size
	}
	lexeme := l.src[start:l.offset]
	tt := IDENT
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: startPos, End: l.pos()}, nil
}

func (l *lexer) scanNumber() (Token, *lexError) {
	start := l.offset
	startPos := l.pos()
	for l.offset < len(l.src) && l.src[l.offset] >= '0' && l.src[l.offset] <= '9' {
		l.offset++
	}
	tt := INT
	if l.peek() == '.' && l.peek2() >= '0' && l.peek2() <= '9' {
		tt = FLOAT
		l.offset++
		for l.offset < len(l.src) && l.src[l.offset] >= '0' && l.src[l.offset] <= '9' {
			l.offset++
		}
	}
	return Token{Type: tt, Lexeme: l.src[start:l.offset], Pos: startPos, End: l.pos()}, nil
}

func (l *lexer) scanString() (Token, *lexError) {
	startPos := l.pos()
	l.offset++ // opening quote
	sb := &strings.Builder{}
	for {
		if l.offset >= len(l.src) {
			return Token{}, &lexError{msg: "unterminated string literal", pos: startPos}
		}
		c := l.src[l.offset]
		if c == '"' {
			l.offset++
			return Token{Type: STRING, Lexeme: sb.String(), Pos: startPos, End: l.pos()}, nil
		}
		if c == '\\' {
			l.offset++
			if l.offset >= len(l.src) {
				return Token{}, &lexError{msg: "unterminated string literal", pos: startPos}
			}
			switch l.src[l.offset] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				return Token{}, &lexError{msg: fmt.Sprintf("unknown escape \\%c", l.src[l.offset]), pos: l.pos()}
			}
			l.offset++
			continue
		}
		sb.WriteByte(c)
		l.offset++
	}
}
