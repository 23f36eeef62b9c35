// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/stencil/ast"
)

// usages collects the first usage of names.
type usages struct {
	list []ast.Usage
	seen map[string]bool
}

func (u *usages) add(name string, line int) {
	if u.seen == nil {
		u.seen = map[string]bool{}
	}
	if !u.seen[name] {
		u.seen[name] = true
		u.list = append(u.list, ast.Usage{Name: name, Line: line})
	}
}

// Sandbox is the pass that instruments a template to be checked against a
// security policy at run time. It collects the tags, filters and functions
// used by the template, adds a check of them at the start of the rendering,
// replaces the print statements with sandboxed print statements and checks
// the values that are converted to strings.
type Sandbox struct {
	inModule  bool
	tags      usages
	filters   usages
	functions usages
}

func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) Priority() int { return 0 }

func (s *Sandbox) Enter(node ast.Node) ast.Node {
	if _, ok := node.(*ast.Module); ok {
		s.inModule = true
		s.tags = usages{}
		s.filters = usages{}
		s.functions = usages{}
		return node
	}
	if !s.inModule {
		return node
	}
	if tag := node.NodeTag(); tag != "" {
		s.tags.add(tag, node.Pos())
	}
	switch n := node.(type) {
	case *ast.Filter:
		s.filters.add(n.Name, n.Line)
	case *ast.Function:
		s.functions.add(n.Name, n.Line)
	case *ast.Binary:
		// The range operator calls the range function.
		if n.Op == ast.OperatorRange {
			s.functions.add("range", n.Line)
		}
	}
	return node
}

func (s *Sandbox) Leave(node ast.Node) ast.Node {
	if m, ok := node.(*ast.Module); ok {
		s.inModule = false
		m.Prepend(ast.DisplayStart, ast.NewCheckSecurity(s.tags.list, s.filters.list, s.functions.list))
		return node
	}
	if !s.inModule {
		return node
	}
	switch n := node.(type) {
	case *ast.Print:
		return ast.NewSandboxedPrint(n.Line, n.Expr)
	case *ast.InlinePrint:
		n.Expr = checkToString(n.Expr)
	case *ast.Filter:
		// The operand is checked before the filter converts it, escape
		// filter included.
		n.Node = checkToString(n.Node)
	case *ast.Binary:
		if n.Op == ast.OperatorConcat {
			n.Left = checkToString(n.Left)
			n.Right = checkToString(n.Right)
		}
	}
	return node
}

// checkToString wraps expr, if it is a variable or an attribute, in a node
// that checks that its value can be converted to a string.
func checkToString(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.Name:
		if e.IsSpecial() {
			return expr
		}
		return ast.NewCheckToString(e.Line, e)
	case *ast.GetAttr:
		return ast.NewCheckToString(e.Line, e)
	}
	return expr
}
