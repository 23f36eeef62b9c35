// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
)

// DefaultRuntimeImport is the default import path of the runtime package
// used by the generated code.
const DefaultRuntimeImport = "github.com/open2b/stencil/runtime"

// Options are the options of a compilation.
type Options struct {

	// Registry holds the filters, functions and tests. If nil, the default
	// registry is used.
	Registry *builtin.Registry

	// Logger logs the deprecation notices and the progress of the
	// compilation. If nil, nothing is logged.
	Logger *slog.Logger

	// Package is the name of the package of the generated code. If empty,
	// it is "templates".
	Package string

	// RuntimeImport is the import path of the runtime package. If empty, it
	// is DefaultRuntimeImport.
	RuntimeImport string

	// Imports are the import paths of the packages of the callables with a
	// Func not in the runtime package.
	Imports []string

	// Escape returns the default escaping strategy of a template. If nil,
	// the strategy is "html".
	Escape EscapeStrategy

	// NoEscape disables the escaping.
	NoEscape bool

	// StrictVariables makes the lookup of an undefined variable an error.
	StrictVariables bool

	// Sandbox instruments the templates to be checked by the security
	// policy of the environment.
	Sandbox bool

	// Profile instruments the templates for the profiler.
	Profile bool

	// Debug keeps the template source in the generated code.
	Debug bool

	// NoOptimize are the optimizations that are disabled.
	NoOptimize Optimization

	// NoFormat disables the formatting of the generated code.
	NoFormat bool

	// Passes are additional rewriting passes.
	Passes []Pass
}

func (opts *Options) packageName() string {
	if opts.Package == "" {
		return "templates"
	}
	return opts.Package
}

func (opts *Options) registry() *builtin.Registry {
	if opts.Registry == nil {
		return builtin.Default()
	}
	return opts.Registry
}

func (opts *Options) logger() *slog.Logger {
	if opts.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return opts.Logger
}

func (opts *Options) runtimeImport() string {
	if opts.RuntimeImport == "" {
		return DefaultRuntimeImport
	}
	return opts.RuntimeImport
}

// passes returns the rewriting passes enabled by the options.
func (opts *Options) passes(registry *builtin.Registry) []Pass {
	var passes []Pass
	if !opts.NoEscape {
		passes = append(passes, NewEscaper(registry, opts.Escape))
	}
	if opts.Sandbox {
		passes = append(passes, NewSandbox())
	}
	if opts.Profile {
		passes = append(passes, NewProfiler())
	}
	if o := OptimizeAll &^ opts.NoOptimize; o != OptimizeNone {
		passes = append(passes, NewOptimizer(o))
	}
	return append(passes, opts.Passes...)
}

// Unit is a compiled template.
type Unit struct {
	Name      string      // name of the template.
	Code      []byte      // Go source.
	DebugInfo map[int]int // lines of the Go source mapped to lines of the template.
	Embedded  int         // number of embedded templates.
}

// Rewrite parses the source of a template and applies the rewriting passes
// enabled by opts. It returns the module of the template followed by the
// modules of its embedded templates. If the source has an error, it returns
// a *SyntaxError.
func Rewrite(source ast.Source, opts Options) (modules []*ast.Module, err error) {

	registry := opts.registry()
	logger := opts.logger().With("template", source.Name)

	tree, err := ParseTemplate(source, registry, logger)
	if err != nil {
		return nil, err
	}

	defer recoverError(source.Name, &err)

	modules = flattenModules(tree, nil)
	traverser := NewTraverser(logger, opts.passes(registry)...)
	for i, m := range modules {
		modules[i] = traverser.Traverse(m).(*ast.Module)
	}
	logger.Debug("tree rewritten", "modules", len(modules))

	return modules, nil
}

// Compile compiles the source of a template and returns the compiled unit.
// If the source has an error, it returns a *SyntaxError.
func Compile(source ast.Source, opts Options) (unit *Unit, err error) {

	opts.Registry = opts.registry()

	modules, err := Rewrite(source, opts)
	if err != nil {
		return nil, err
	}

	defer recoverError(source.Name, &err)

	c := NewCompiler(opts.Registry, &opts)
	code := []byte(c.compileFile(modules))

	if !opts.NoFormat {
		filename := strings.TrimSuffix(source.Name, ".go") + ".go"
		code, err = imports.Process(filename, code, &imports.Options{
			Comments:   true,
			TabIndent:  true,
			TabWidth:   8,
			FormatOnly: true,
		})
		if err != nil {
			return nil, fmt.Errorf("compiler: cannot format the code of template %q: %w", source.Name, err)
		}
	}

	info := debugInfo(string(code))
	code = bytes.Replace(code, []byte(debugInfoPlaceholder), []byte(debugInfoLiteral(info)), 1)
	opts.logger().Debug("template compiled", "template", source.Name, "bytes", len(code), "embedded", len(modules)-1)

	return &Unit{
		Name:      source.Name,
		Code:      code,
		DebugInfo: info,
		Embedded:  len(modules) - 1,
	}, nil
}

// recoverError recovers a *SyntaxError or a *LogicError panic and stores it
// in err. Other panics are propagated.
func recoverError(name string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *SyntaxError:
		if e.Path == "" {
			e.Path = name
		}
		*err = e
	case *LogicError:
		*err = e
	default:
		panic(r)
	}
}

// flattenModules appends a module and, recursively, its embedded modules to
// modules.
func flattenModules(m *ast.Module, modules []*ast.Module) []*ast.Module {
	modules = append(modules, m)
	for _, e := range m.Embedded {
		modules = flattenModules(e, modules)
	}
	return modules
}
