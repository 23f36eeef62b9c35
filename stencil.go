// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stencil compiles templates to Go source.
//
// A template is text with print statements {{ ... }}, tags {% ... %} and
// comments {# ... #}. Compile turns a template into a Go file that declares
// a type for the template, and one for each embedded template, and registers
// them in the runtime package. The generated package is compiled together
// with the application that renders the templates with a runtime.Env:
//
//	unit, err := stencil.Compile("index.html", src, stencil.Options{Package: "views"})
//	if err != nil {
//		return err
//	}
//	err = os.WriteFile(filepath.Join("views", stencil.FileName(unit.Name)), unit.Code, 0o644)
//
// CompileFS compiles the templates of a file system concurrently.
package stencil

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	goruntime "runtime"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/mod/module"
	"golang.org/x/sync/errgroup"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/internal/compiler"
)

type (
	// Options are the options of a compilation.
	Options = compiler.Options

	// Unit is a compiled template.
	Unit = compiler.Unit

	// SyntaxError is the error returned for a template with a syntax error.
	SyntaxError = compiler.SyntaxError

	// LogicError is the error returned when a callable of the registry has
	// an invalid descriptor.
	LogicError = compiler.LogicError

	// Pass is a rewriting pass that can be added with Options.Passes.
	Pass = compiler.Pass

	// EscapeStrategy returns the escaping strategy of a template given its
	// name.
	EscapeStrategy = compiler.EscapeStrategy

	// Optimization is a set of optimizations.
	Optimization = compiler.Optimization
)

// Optimizations that can be disabled with Options.NoOptimize.
const (
	OptimizeFor       = compiler.OptimizeFor
	OptimizeRawFilter = compiler.OptimizeRawFilter
	OptimizePrint     = compiler.OptimizePrint
	OptimizeAll       = compiler.OptimizeAll
)

// NameStrategy chooses the escaping strategy from the extension of the
// template name: "js" for .js, "css" for .css, none for .txt and "html"
// otherwise.
var NameStrategy EscapeStrategy = compiler.NameStrategy

// StaticStrategy returns an EscapeStrategy that always returns strategy.
func StaticStrategy(strategy string) EscapeStrategy {
	return compiler.StaticStrategy(strategy)
}

// TemplateExtensions are the extensions of the files compiled by CompileFS
// when no name is given.
var TemplateExtensions = []string{".html", ".htm", ".xml", ".txt", ".js", ".css", ".md"}

// ErrInvalidOptions is the error wrapped by the errors returned for invalid
// options.
var ErrInvalidOptions = errors.New("stencil: invalid options")

// Compile compiles the template with the given name and source.
//
// If the template has an error, Compile returns a *SyntaxError.
func Compile(name string, src []byte, opts Options) (*Unit, error) {
	if err := checkOptions(&opts); err != nil {
		return nil, err
	}
	return compiler.Compile(ast.Source{Name: name, Code: string(src)}, opts)
}

// CompileFS compiles the named templates of fsys and returns the units in
// the same order as names. If names is empty, it compiles the files of fsys
// returned by Glob.
//
// At most jobs templates are compiled concurrently; if jobs is not
// positive, the limit is GOMAXPROCS. CompileFS stops at the first error.
func CompileFS(ctx context.Context, fsys fs.FS, names []string, jobs int, opts Options) ([]*Unit, error) {
	if err := checkOptions(&opts); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		var err error
		names, err = Glob(fsys, TemplateExtensions...)
		if err != nil {
			return nil, err
		}
	}
	if jobs <= 0 {
		jobs = goruntime.GOMAXPROCS(0)
	}
	units := make([]*Unit, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := fs.ReadFile(fsys, name)
			if err != nil {
				return err
			}
			source := ast.Source{Name: name, Code: string(src)}
			if opts.Debug {
				source.Path = name
			}
			units[i], err = compiler.Compile(source, opts)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// Glob returns, sorted, the names of the regular files of fsys with one of
// the given extensions. Files and directories whose name starts with a dot
// are skipped.
func Glob(fsys fs.FS, exts ...string) ([]string, error) {
	var names []string
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				names = append(names, name)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// FileName returns the name of the Go file of the compiled template with the
// given name. The name has no build constraint and is not ignored by the go
// command. For example, "pages/index.html" has file name
// "stencil_pages_index_html_gen.go".
func FileName(name string) string {
	var b strings.Builder
	b.WriteString("stencil_")
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString("_gen.go")
	return b.String()
}

// checkOptions checks the package name and the import paths of opts.
func checkOptions(opts *Options) error {
	if opts.Package != "" && (!token.IsIdentifier(opts.Package) || opts.Package == "_") {
		return fmt.Errorf("%w: package name %q is not a valid identifier", ErrInvalidOptions, opts.Package)
	}
	if opts.RuntimeImport != "" {
		if err := module.CheckImportPath(opts.RuntimeImport); err != nil {
			return fmt.Errorf("%w: runtime import: %s", ErrInvalidOptions, err)
		}
	}
	for _, path := range opts.Imports {
		if err := module.CheckImportPath(path); err != nil {
			return fmt.Errorf("%w: import: %s", ErrInvalidOptions, err)
		}
	}
	return nil
}
