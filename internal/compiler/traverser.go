// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"log/slog"
	"sort"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/ast/astutil"
)

// Pass is a rewriting pass applied to a tree by a Traverser.
//
// Enter is called before the children of a node are traversed and Leave
// after. Both can return a different node that replaces the node. Leave can
// return nil to remove a node from a list of statements.
type Pass interface {
	Name() string
	Priority() int
	Enter(node ast.Node) ast.Node
	Leave(node ast.Node) ast.Node
}

// Traverser applies passes to a tree.
type Traverser struct {
	passes []Pass
	logger *slog.Logger
}

// NewTraverser returns a traverser that applies the given passes in order of
// priority. Passes with the same priority are applied in the given order.
func NewTraverser(logger *slog.Logger, passes ...Pass) *Traverser {
	tr := &Traverser{passes: append([]Pass(nil), passes...), logger: logger}
	sort.SliceStable(tr.passes, func(i, j int) bool {
		return tr.passes[i].Priority() < tr.passes[j].Priority()
	})
	if tr.logger == nil {
		tr.logger = slog.New(slog.DiscardHandler)
	}
	return tr
}

// Traverse applies the passes to node, one pass at a time over the whole
// tree, and returns the resulting node. If node is a module, the nodes of
// its pre-traversal extension point are moved at the beginning of the body
// before the first pass.
func (tr *Traverser) Traverse(node ast.Node) ast.Node {
	if m, ok := node.(*ast.Module); ok {
		if pre := m.Points[ast.PreTraversal]; len(pre) > 0 {
			m.Body = append(append([]ast.Node{}, pre...), m.Body...)
			m.Points[ast.PreTraversal] = nil
		}
	}
	for _, pass := range tr.passes {
		tr.logger.Debug("pass start", "pass", pass.Name(), "priority", pass.Priority())
		node = traverseForPass(pass, node)
		if node == nil {
			break
		}
	}
	return node
}

// traverseForPass applies pass to node and its children.
func traverseForPass(pass Pass, node ast.Node) ast.Node {
	node = pass.Enter(node)
	astutil.Rewrite(node, func(_ string, child ast.Node) ast.Node {
		return traverseForPass(pass, child)
	})
	return pass.Leave(node)
}
