// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/stencil/ast"
)

// Optimization is a set of optimizations of the Optimizer.
type Optimization int

const (
	// OptimizeFor builds the loop variable only for the loops that use it.
	OptimizeFor Optimization = 1 << iota
	// OptimizeRawFilter removes the calls of the raw filter.
	OptimizeRawFilter
	// OptimizePrint prints block references, parent calls and constant
	// strings directly.
	OptimizePrint

	OptimizeNone Optimization = 0
	OptimizeAll               = OptimizeFor | OptimizeRawFilter | OptimizePrint
)

// Optimizer is the pass that optimizes the tree.
type Optimizer struct {
	optimizations Optimization
	loops         []*ast.For
	loopsTargets  []string
}

// NewOptimizer returns a new optimizer that applies the given optimizations.
func NewOptimizer(optimizations Optimization) *Optimizer {
	return &Optimizer{optimizations: optimizations}
}

func (o *Optimizer) Name() string { return "optimizer" }

func (o *Optimizer) Priority() int { return 255 }

func (o *Optimizer) Enter(node ast.Node) ast.Node {
	if o.optimizations&OptimizeFor != 0 {
		o.enterOptimizeFor(node)
	}
	return node
}

func (o *Optimizer) Leave(node ast.Node) ast.Node {
	if o.optimizations&OptimizeFor != 0 {
		o.leaveOptimizeFor(node)
	}
	if o.optimizations&OptimizeRawFilter != 0 {
		node = optimizeRawFilter(node)
	}
	if o.optimizations&OptimizePrint != 0 {
		node = optimizePrint(node)
	}
	return node
}

// optimizePrint replaces the print of a constant string with a text, and
// the print of a block reference or of a parent call with the expression
// itself, that is rendered directly.
func optimizePrint(node ast.Node) ast.Node {
	n, ok := node.(*ast.Print)
	if !ok {
		return node
	}
	switch expr := n.Expr.(type) {
	case *ast.Constant:
		if s, ok := expr.Value.(string); ok {
			return ast.NewText(expr.Line, s)
		}
	case *ast.BlockReferenceExpr:
		expr.Output = true
		return expr
	case *ast.Parent:
		expr.Output = true
		return expr
	}
	return node
}

// optimizeRawFilter removes a raw filter.
func optimizeRawFilter(node ast.Node) ast.Node {
	if n, ok := node.(*ast.Filter); ok && n.Name == "raw" {
		return n.Node
	}
	return node
}

func (o *Optimizer) enterOptimizeFor(node ast.Node) {
	switch n := node.(type) {
	case *ast.Module:
		o.loops = nil
		o.loopsTargets = nil
		return
	case *ast.For:
		// The loop variable is disabled until something uses it.
		n.WithLoop = false
		o.loops = append([]*ast.For{n}, o.loops...)
		o.loopsTargets = append([]string{n.KeyTarget.Name, n.ValueTarget.Name}, o.loopsTargets...)
		return
	}
	if len(o.loops) == 0 {
		return
	}
	switch n := node.(type) {
	case *ast.Name:
		if n.Name == "loop" {
			n.AlwaysDefined = true
			o.addLoopToCurrent()
		} else if containsString(o.loopsTargets, n.Name) {
			n.AlwaysDefined = true
		}
	case *ast.BlockReference, *ast.BlockReferenceExpr:
		o.addLoopToCurrent()
	case *ast.Include:
		if !n.Only {
			o.addLoopToAll()
		}
	case *ast.Embed:
		if !n.Only {
			o.addLoopToAll()
		}
	case *ast.Function:
		if n.Name == "include" && includeWithContext(n) {
			o.addLoopToAll()
		}
	case *ast.GetAttr:
		attr, isConst := n.Attribute.(*ast.Constant)
		if !isConst || attr.Value == "parent" {
			if o.loops[0].WithLoop {
				o.addLoopToAll()
			} else if name, ok := n.Node.(*ast.Name); ok && name.Name == "loop" {
				o.addLoopToAll()
			}
		}
	}
}

func (o *Optimizer) leaveOptimizeFor(node ast.Node) {
	if _, ok := node.(*ast.For); ok {
		o.loops = o.loops[1:]
		o.loopsTargets = o.loopsTargets[2:]
	}
}

func (o *Optimizer) addLoopToCurrent() {
	o.loops[0].WithLoop = true
}

func (o *Optimizer) addLoopToAll() {
	for _, loop := range o.loops {
		loop.WithLoop = true
	}
}

// includeWithContext reports whether a call of the include function passes
// the context, that is it has not a with_context argument with value false.
func includeWithContext(n *ast.Function) bool {
	for i, arg := range n.Arguments {
		if arg.Name == "with_context" || arg.Name == "" && i == 2 {
			if c, ok := arg.Value.(*ast.Constant); ok && c.Value == false {
				return false
			}
		}
	}
	return true
}
