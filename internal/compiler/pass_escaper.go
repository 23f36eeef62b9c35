// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"path"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
)

// EscapeStrategy returns the default escaping strategy of a template given
// its name. An empty strategy disables the escaping.
type EscapeStrategy func(name string) string

// StaticStrategy returns an EscapeStrategy that always returns strategy.
func StaticStrategy(strategy string) EscapeStrategy {
	return func(string) string { return strategy }
}

// NameStrategy is the EscapeStrategy that chooses the strategy from the
// extension of the template name.
func NameStrategy(name string) string {
	switch path.Ext(name) {
	case ".js":
		return "js"
	case ".css":
		return "css"
	case ".txt":
		return ""
	}
	return "html"
}

// Escaper is the pass that escapes the printed values.
type Escaper struct {
	registry        *builtin.Registry
	strategy        EscapeStrategy
	safety          *SafetyAnalysis
	traverser       *Traverser
	defaultStrategy string
	statusStack     []string
	blocks          map[string]string
	safeVars        []string
}

// NewEscaper returns a new escaper. strategy returns the default strategy
// of a template, if it is nil the default strategy is "html".
func NewEscaper(registry *builtin.Registry, strategy EscapeStrategy) *Escaper {
	if strategy == nil {
		strategy = StaticStrategy("html")
	}
	safety := NewSafetyAnalysis(registry)
	return &Escaper{
		registry:  registry,
		strategy:  strategy,
		safety:    safety,
		traverser: NewTraverser(nil, safety),
		blocks:    map[string]string{},
	}
}

func (e *Escaper) Name() string { return "escaper" }

func (e *Escaper) Priority() int { return 0 }

func (e *Escaper) Enter(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.Module:
		e.defaultStrategy = e.strategy(n.Source.Name)
		e.statusStack = nil
		e.safeVars = nil
		e.blocks = map[string]string{}
	case *ast.AutoEscape:
		e.statusStack = append(e.statusStack, n.Strategy)
	case *ast.Block:
		if s, ok := e.blocks[n.Name]; ok {
			e.statusStack = append(e.statusStack, s)
		} else {
			e.statusStack = append(e.statusStack, e.needEscaping())
		}
	case *ast.Import:
		e.safeVars = append(e.safeVars, n.Var.Name)
	}
	return node
}

func (e *Escaper) Leave(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.Module:
		e.defaultStrategy = ""
		e.safeVars = nil
		e.blocks = map[string]string{}
	case *ast.Filter:
		return e.preEscapeFilter(n)
	case *ast.Print:
		typ := e.needEscaping()
		if typ == "" {
			return n
		}
		if cond, ok := n.Expr.(*ast.Conditional); ok && e.shouldUnwrapConditional(cond, typ) {
			return ast.NewDo(cond.Line, e.unwrapConditional(cond, typ))
		}
		if e.isSafeFor(typ, n.Expr) {
			return n
		}
		return ast.NewPrint(n.Line, e.escaperFilter(typ, n.Expr))
	case *ast.AutoEscape, *ast.Block:
		e.statusStack = e.statusStack[:len(e.statusStack)-1]
	case *ast.BlockReference:
		e.blocks[n.Name] = e.needEscaping()
	}
	return node
}

// shouldUnwrapConditional reports whether only one of the branches of cond
// is safe for typ.
func (e *Escaper) shouldUnwrapConditional(cond *ast.Conditional, typ string) bool {
	return e.isSafeFor(typ, cond.Then) != e.isSafeFor(typ, cond.Else)
}

// unwrapConditional transforms the print of "a ? b : c" into "a ? print b :
// print c" escaping the branches separately.
func (e *Escaper) unwrapConditional(cond *ast.Conditional, typ string) *ast.Conditional {
	branch := func(expr ast.Expression) ast.Expression {
		if c, ok := expr.(*ast.Conditional); ok && e.shouldUnwrapConditional(c, typ) {
			return e.unwrapConditional(c, typ)
		}
		if e.isSafeFor(typ, expr) {
			return ast.NewInlinePrint(expr.Pos(), expr)
		}
		return ast.NewInlinePrint(expr.Pos(), e.escaperFilter(typ, expr))
	}
	return ast.NewConditional(cond.Line, cond.Cond, branch(cond.Then), branch(cond.Else))
}

// preEscapeFilter escapes the operand of a filter that requires an escaped
// input.
func (e *Escaper) preEscapeFilter(filter *ast.Filter) ast.Node {
	c := e.registry.Filter(filter.Name)
	if c == nil || c.PreEscape == "" {
		return filter
	}
	if e.isSafeFor(c.PreEscape, filter.Node) {
		return filter
	}
	filter.Node = e.escaperFilter(c.PreEscape, filter.Node)
	return filter
}

// isSafeFor reports whether expr is safe for the strategy typ.
func (e *Escaper) isSafeFor(typ string, expr ast.Expression) bool {
	safe, ok := e.safety.Safe(expr)
	if !ok {
		e.safety.SetSafeVars(e.safeVars)
		e.traverser.Traverse(expr)
		safe, _ = e.safety.Safe(expr)
	}
	return containsString(safe, typ) || containsString(safe, "all")
}

// needEscaping returns the strategy of the current region, or the empty
// string if the escaping is disabled.
func (e *Escaper) needEscaping() string {
	if n := len(e.statusStack); n > 0 {
		return e.statusStack[n-1]
	}
	return e.defaultStrategy
}

// escaperFilter returns the escape filter applied to expr.
func (e *Escaper) escaperFilter(typ string, expr ast.Expression) *ast.Filter {
	line := expr.Pos()
	return ast.NewFilter(line, expr, "escape", []ast.Argument{
		{Value: ast.NewConstant(line, typ)},
		{Value: ast.NewConstant(line, nil)},
		{Value: ast.NewConstant(line, true)},
	})
}
