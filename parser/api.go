package parser

import (
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/internal/limits"
)

// ParseToAST parses the given source into a module AST. Positions in
// the result index into fset, which the caller owns so diagnostics can
// be rendered against the original source. Syntax errors and exceeded
// limits come back in the error accumulator; the final error return is
// reserved for internal failures.
func ParseToAST(fset *token.FileSet, filename string, src []byte, lim limits.Table) (ast.Module, *rillerr.Errors, error) {
	logger := slog.With("section", "frontend").With("section", "parser")

	file := fset.AddFile(filename, -1, len(src))
	file.SetLinesForContent(src)
	if len(src) > lim.MaxSourceBytes {
		var errs *rillerr.Errors
		errs = errs.With(rillerr.New(rillerr.NewResourceLimit{
			Positioner: ast.Range{PosStart: file.Pos(0), PosEnd: file.Pos(0)},
			Detail:     fmt.Sprintf("source size %d bytes exceeds limit %d", len(src), lim.MaxSourceBytes),
		}))
		return ast.Module{}, errs, nil
	}

	p := &parser{
		lex: newLexer(string(src), file, lim.MaxTokens),
		lim: lim,
	}

	var module ast.Module
	err := func() (outErr error) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(parseAbort); ok {
					return
				}
				outErr = fmt.Errorf("internal parser panic: %v", r)
			}
		}()
		p.advance() // prime the first token
		module = p.parseModule(moduleName(filename))
		return nil
	}()
	if err != nil {
		return ast.Module{}, nil, err
	}

	if p.fatal {
		logger.Debug("parse failed", "file", filename)
		return ast.Module{}, p.errors, nil
	}
	logger.Debug("parsed module", "file", filename, "decls", len(module.Decls))
	return module, p.errors, nil
}

func moduleName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
