// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package astutil

import (
	"github.com/open2b/stencil/ast"
)

// Visitor's Visit method is invoked for every node encountered by Walk.
type Visitor interface {
	Visit(node ast.Node) (w Visitor)
}

// Walk visits a tree in depth. Initially it calls v.Visit(node), where node
// must not be nil. If the value w returned by v.Visit(node) is not nil, Walk
// is called recursively with w on all the children of the node. Finally it
// calls w.Visit(nil).
//
// Walk does not descend in the embedded templates of a module.
func Walk(v Visitor, node ast.Node) {
	if v == nil {
		panic("v can't be nil")
	}
	if node == nil {
		panic("node can't be nil")
	}
	v = v.Visit(node)
	if v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child.Node)
	}
	v.Visit(nil)
}

type inspector func(ast.Node) bool

func (f inspector) Visit(node ast.Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth, calling f(node) for each node. If f
// returns true, Inspect invokes f recursively for each of the children of
// node, followed by a call of f(nil).
func Inspect(node ast.Node, f func(ast.Node) bool) {
	Walk(inspector(f), node)
}
