// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"sort"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
)

// safeAll is the safety of an expression that is safe in every context.
var safeAll = []string{"all"}

// SafetyAnalysis computes, for every expression, the contexts in which its
// value is already escaped. The results are memoized per node and are valid
// only for the tree on which the analysis has been run.
type SafetyAnalysis struct {
	registry *builtin.Registry
	data     map[ast.Node][]string
	safeVars map[string]bool
}

// NewSafetyAnalysis returns a new safety analysis that takes the callables
// from registry.
func NewSafetyAnalysis(registry *builtin.Registry) *SafetyAnalysis {
	return &SafetyAnalysis{
		registry: registry,
		data:     map[ast.Node][]string{},
		safeVars: map[string]bool{},
	}
}

func (sa *SafetyAnalysis) Name() string { return "safety" }

func (sa *SafetyAnalysis) Priority() int { return 0 }

// SetSafeVars sets the names of the variables whose attributes are safe.
func (sa *SafetyAnalysis) SetSafeVars(names []string) {
	sa.safeVars = make(map[string]bool, len(names))
	for _, name := range names {
		sa.safeVars[name] = true
	}
}

// Safe returns the safety of node and true, or nil and false if it has not
// been computed.
func (sa *SafetyAnalysis) Safe(node ast.Node) ([]string, bool) {
	safe, ok := sa.data[node]
	return safe, ok
}

func (sa *SafetyAnalysis) setSafe(node ast.Node, safe []string) {
	sa.data[node] = safe
}

func (sa *SafetyAnalysis) Enter(node ast.Node) ast.Node {
	return node
}

func (sa *SafetyAnalysis) Leave(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.Constant:
		sa.setSafe(n, safeAll)
	case *ast.BlockReferenceExpr, *ast.Parent:
		sa.setSafe(n, safeAll)
	case *ast.Conditional:
		sa.setSafe(n, intersectSafe(sa.get(n.Then), sa.get(n.Else)))
	case *ast.CheckToString:
		sa.setSafe(n, sa.get(n.Expr))
	case *ast.Filter:
		var safe []string
		if c := sa.registry.Filter(n.Name); c != nil {
			safe = c.SafeFor(n.Arguments)
			if safe == nil {
				safe = intersectSafe(sa.get(n.Node), c.PreservesSafety)
			}
		}
		sa.setSafe(n, safe)
	case *ast.Function:
		var safe []string
		if c := sa.registry.Function(n.Name); c != nil {
			safe = c.SafeFor(n.Arguments)
		}
		sa.setSafe(n, safe)
	case *ast.MethodCall:
		if n.Safe {
			sa.setSafe(n, safeAll)
		} else {
			sa.setSafe(n, []string{})
		}
	case *ast.GetAttr:
		if name, ok := n.Node.(*ast.Name); ok && sa.safeVars[name.Name] {
			sa.setSafe(n, safeAll)
		} else {
			sa.setSafe(n, []string{})
		}
	case ast.Expression:
		sa.setSafe(n, []string{})
	}
	return node
}

// get returns the safety of node, or nil if it is unknown.
func (sa *SafetyAnalysis) get(node ast.Node) []string {
	return sa.data[node]
}

// intersectSafe returns the intersection of two safety sets. "all" is the
// set of every context. The result is sorted.
func intersectSafe(a, b []string) []string {
	if a == nil || b == nil {
		return []string{}
	}
	if containsString(a, "all") {
		return normalizeSafe(b)
	}
	if containsString(b, "all") {
		return normalizeSafe(a)
	}
	safe := []string{}
	for _, s := range a {
		if containsString(b, s) && !containsString(safe, s) {
			safe = append(safe, s)
		}
	}
	sort.Strings(safe)
	return safe
}

// normalizeSafe returns a sorted copy of safe without duplicates.
func normalizeSafe(safe []string) []string {
	if containsString(safe, "all") {
		return safeAll
	}
	n := make([]string, 0, len(safe))
	for _, s := range safe {
		if !containsString(n, s) {
			n = append(n, s)
		}
	}
	sort.Strings(n)
	return n
}

func containsString(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
