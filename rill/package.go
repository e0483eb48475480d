package rill

import (
	"fmt"
	"go/token"
	"io/fs"
	"path"
	"strings"
	"testing/fstest"

	"github.com/rill-lang/rill/frontend"
	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/effects"
	"github.com/rill-lang/rill/frontend/infer"
	"github.com/rill-lang/rill/frontend/rillerr"
	"github.com/rill-lang/rill/frontend/types"
	"github.com/rill-lang/rill/internal/limits"
	"github.com/rill-lang/rill/internal/log"
	"github.com/rill-lang/rill/parser"
)

var packageLogger = log.DefaultLogger.With("section", "package")

// Package is a single checked build unit.
type Package struct {
	name   string
	syntax ast.Module
	fset   *token.FileSet
	src    []byte
	errors *rillerr.Errors
	result *infer.Result
}

func (p *Package) Name() string          { return p.name }
func (p *Package) Syntax() ast.Module    { return p.syntax }
func (p *Package) FileSet() *token.FileSet { return p.fset }
func (p *Package) Errors() *rillerr.Errors { return p.errors }
func (p *Package) Result() *infer.Result { return p.result }

// Diagnostics renders every collected error against the package
// source, one block per diagnostic.
func (p *Package) Diagnostics() []string {
	var out []string
	for _, e := range p.errors.Errors() {
		out = append(out, rillerr.FormatWithCodeAndSource(e, p.fset, p.src))
	}
	return out
}

// EntryCapabilities lists the capability parameters of the named entry
// function, in declaration order. The second result is false when no
// such function exists.
func (p *Package) EntryCapabilities(entry string) ([]types.CapKind, bool) {
	if p.result == nil {
		return nil, false
	}
	return effects.EntryCapabilities(p.result, entry)
}

// PkgLoadSettings configures LoadPackage.
type PkgLoadSettings struct {
	// Dir is the folder inside the filesystem holding the package
	// sources; the default is ".".
	Dir string
	// Limits override the default resource limits when non-nil.
	Limits *limits.Table
}

// ReadFileDirFS is the filesystem surface LoadPackage needs; os.DirFS
// and fstest.MapFS both satisfy it.
type ReadFileDirFS interface {
	fs.ReadFileFS
	fs.ReadDirFS
}

// LoadPackage reads, parses and checks the single source file found in
// dir. The returned Package is non-nil whenever parsing got far enough
// to produce diagnostics; inspect Errors for the verdict.
func LoadPackage(dir ReadFileDirFS, config PkgLoadSettings) (*Package, error) {
	dirPath := config.Dir
	if dirPath == "" {
		dirPath = "."
	}
	entries, err := dir.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	var sources []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rill") {
			sources = append(sources, e.Name())
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no .rill source file in %q", dirPath)
	}
	if len(sources) > 1 {
		packageLogger.Warn("multiple source files found, but multi-file packages are not supported yet; using the first one")
	}
	src, err := dir.ReadFile(path.Join(dirPath, sources[0]))
	if err != nil {
		return nil, err
	}
	return checkBytes(sources[0], src, config)
}

func checkBytes(filename string, src []byte, config PkgLoadSettings) (*Package, error) {
	lim := limits.Default()
	if config.Limits != nil {
		lim = *config.Limits
	}

	pkg := &Package{fset: token.NewFileSet(), src: src}

	module, parseErrors, err := parser.ParseToAST(pkg.fset, filename, src, lim)
	pkg.errors = pkg.errors.Merge(parseErrors)
	if err != nil {
		return nil, fmt.Errorf("parse to AST: %w", err)
	}
	pkg.name = module.Name
	pkg.syntax = module
	if pkg.errors.HasError() {
		return pkg, nil
	}

	result, checkErrors := frontend.CheckModule(&pkg.syntax, lim)
	pkg.result = result
	pkg.errors = pkg.errors.Merge(checkErrors)
	return pkg, nil
}

// NewPackageFromBytes checks a single in-memory source end-to-end,
// meant for testing.
func NewPackageFromBytes(data []byte) (*Package, *rillerr.Errors, error) {
	filesystem := fstest.MapFS{
		"test.rill": &fstest.MapFile{
			Data: data,
		},
	}
	pkg, err := LoadPackage(filesystem, PkgLoadSettings{})
	if err != nil {
		return nil, nil, err
	}
	return pkg, pkg.errors, nil
}
