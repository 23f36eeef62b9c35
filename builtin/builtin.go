// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package builtin declares the descriptors of the filters, functions and
// tests that can be called in a template, and the registry that holds them.
//
// A descriptor is static data: the compiler never inspects a Go function to
// know its parameters. For example, the descriptor of a filter with a
// required and an optional parameter
//
//	&builtin.Callable{
//		Kind:   builtin.FilterKind,
//		Name:   "truncate",
//		Func:   "mypkg.Truncate",
//		Params: []builtin.Param{builtin.Required("value"), builtin.Optional("length", 30)},
//	}
//
// is called by the generated code as mypkg.Truncate(value, length).
package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/open2b/stencil/ast"
)

// Kind is the kind of a callable.
type Kind int

const (
	FilterKind Kind = iota
	FunctionKind
	TestKind
)

func (k Kind) String() string {
	return []string{"filter", "function", "test"}[k]
}

// Param is a parameter of a callable.
type Param struct {
	Name       string
	Optional   bool        // reports whether the parameter can be omitted.
	HasDefault bool        // reports whether Default is the default value.
	Default    interface{} // default value: nil, bool, int, float64, string or an array.
}

// Required returns a required parameter.
func Required(name string) Param {
	return Param{Name: name}
}

// Optional returns an optional parameter with a default value.
func Optional(name string, def interface{}) Param {
	return Param{Name: name, Optional: true, HasDefault: true, Default: def}
}

// Callable describes a filter, a function or a test.
type Callable struct {
	Kind Kind
	Name string

	// Func is the Go expression, in the generated code, of the function
	// that implements the callable. If it is empty, the callable is called
	// by name through the environment at run time.
	Func string

	// Params are the declared parameters. For filters and tests, the first
	// parameter receives the filtered or tested value.
	Params []Param

	NeedsEnv     bool // the environment is passed as first argument.
	NeedsContext bool // the context is passed after the environment.

	// Variadic reports whether the arguments that do not match a parameter
	// are collected in the last parameter that must be an array with an
	// empty array as default value.
	Variadic bool

	// Safe is the list of contexts in which the returned value is safe.
	// "all" means every context. SafeFunc, if not nil, computes the list
	// from the arguments and is used in place of Safe.
	Safe     []string
	SafeFunc func(args []ast.Argument) []string

	// PreservesSafety is, for a filter, the list of contexts for which the
	// filter preserves the safety of its input.
	PreservesSafety []string

	// PreEscape is, for a filter, the strategy used to escape the input
	// before the filter is applied.
	PreEscape string

	// OneMandatoryArgument reports, for a test, whether the test takes an
	// argument that can be written without parenthesis as in "is same as x".
	OneMandatoryArgument bool

	Deprecated  string // version since the callable is deprecated.
	Alternative string // callable to use in place of a deprecated one.
}

// SafeFor returns the contexts in which the value returned by the callable,
// with the given arguments, is safe. It returns nil if the callable does not
// declare any safety.
func (c *Callable) SafeFor(args []ast.Argument) []string {
	if c.SafeFunc != nil {
		return c.SafeFunc(args)
	}
	return c.Safe
}

// DeprecationMessage returns the message to report when a deprecated
// callable is used.
func (c *Callable) DeprecationMessage() string {
	msg := fmt.Sprintf("%s %q is deprecated since version %s", c.Kind, c.Name, c.Deprecated)
	if c.Alternative != "" {
		msg += fmt.Sprintf(", use %q instead", c.Alternative)
	}
	return msg
}

// Signature returns the signature of the callable as "name(a, b, c)".
func (c *Callable) Signature() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, p := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return b.String()
}

// Registry is a set of callables. A registry must not be modified while it is
// used by a compilation, read access is safe for concurrent use.
type Registry struct {
	callables [3]map[string]*Callable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.callables {
		r.callables[i] = map[string]*Callable{}
	}
	return r
}

// Add adds the callables to the registry. A callable replaces a callable of
// the same kind with the same name.
func (r *Registry) Add(callables ...*Callable) error {
	for _, c := range callables {
		if c.Name == "" {
			return fmt.Errorf("builtin: %s has no name", c.Kind)
		}
		if c.Kind < FilterKind || c.Kind > TestKind {
			return fmt.Errorf("builtin: invalid kind %d for %q", c.Kind, c.Name)
		}
		seen := map[string]bool{}
		for _, p := range c.Params {
			if p.Name == "" {
				return fmt.Errorf("builtin: %s %q has a parameter with no name", c.Kind, c.Name)
			}
			if seen[p.Name] {
				return fmt.Errorf("builtin: %s %q has a duplicated parameter %q", c.Kind, c.Name, p.Name)
			}
			seen[p.Name] = true
		}
		r.callables[c.Kind][c.Name] = c
	}
	return nil
}

// Filter returns the filter with the given name, or nil.
func (r *Registry) Filter(name string) *Callable {
	return r.callables[FilterKind][name]
}

// Function returns the function with the given name, or nil.
func (r *Registry) Function(name string) *Callable {
	return r.callables[FunctionKind][name]
}

// Test returns the test with the given name, or nil.
func (r *Registry) Test(name string) *Callable {
	return r.callables[TestKind][name]
}

// Lookup returns the callable of kind k with the given name, or nil.
func (r *Registry) Lookup(k Kind, name string) *Callable {
	return r.callables[k][name]
}

// Names returns the sorted names of the callables of kind k.
func (r *Registry) Names(k Kind) []string {
	names := make([]string, 0, len(r.callables[k]))
	for name := range r.callables[k] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterNames returns the sorted names of the filters.
func (r *Registry) FilterNames() []string { return r.Names(FilterKind) }

// FunctionNames returns the sorted names of the functions.
func (r *Registry) FunctionNames() []string { return r.Names(FunctionKind) }

// TestNames returns the sorted names of the tests.
func (r *Registry) TestNames() []string { return r.Names(TestKind) }

// Clone returns a copy of the registry. The callables are shared.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, m := range r.callables {
		for name, callable := range m {
			c.callables[k][name] = callable
		}
	}
	return c
}
