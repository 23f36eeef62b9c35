// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package astutil

import (
	"fmt"

	"github.com/open2b/stencil/ast"
)

// Clone returns a deep copy of node. The copy does not share nodes or
// attributes with node.
func Clone(node ast.Node) ast.Node {
	if node == nil {
		return nil
	}
	var c ast.Node
	switch n := node.(type) {
	case *ast.Module:
		cp := *n
		cp.Base = n.Base.Copy()
		if n.Embedded != nil {
			cp.Embedded = make([]*ast.Module, len(n.Embedded))
			for i, m := range n.Embedded {
				cp.Embedded[i] = Clone(m).(*ast.Module)
			}
		}
		cp.Points[ast.PreTraversal] = cloneList(n.Points[ast.PreTraversal])
		c = &cp
	case *ast.Trait:
		cp := *n
		cp.Base = n.Base.Copy()
		cp.Targets = append([]ast.TraitTarget(nil), n.Targets...)
		c = &cp
	case *ast.Nodes:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Text:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Print:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.SandboxedPrint:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Set:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.If:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.For:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.ForLoop:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Block:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.BlockReference:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Include:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Embed:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Import:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Macro:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Flush:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Spaceless:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Sandbox:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.AutoEscape:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Do:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.With:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Deprecated:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.CheckSecurity:
		cp := *n
		cp.Base = n.Base.Copy()
		cp.Tags = append([]ast.Usage(nil), n.Tags...)
		cp.Filters = append([]ast.Usage(nil), n.Filters...)
		cp.Functions = append([]ast.Usage(nil), n.Functions...)
		c = &cp
	case *ast.ProfilerEnter:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.ProfilerLeave:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Constant:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Name:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.AssignName:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.TempName:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Array:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.GetAttr:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.MethodCall:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Filter:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Function:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Test:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.DefinedTest:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Unary:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Binary:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Conditional:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.NullCoalesce:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.BlockReferenceExpr:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.Parent:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.InlinePrint:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	case *ast.CheckToString:
		cp := *n
		cp.Base = n.Base.Copy()
		c = &cp
	default:
		panic(fmt.Sprintf("astutil: unexpected node type %T", node))
	}
	// Rewrite allocates new slices, so the copy does not share them.
	Rewrite(c, func(_ string, child ast.Node) ast.Node {
		return Clone(child)
	})
	return c
}

// CloneExpression returns a deep copy of expr.
func CloneExpression(expr ast.Expression) ast.Expression {
	if expr == nil {
		return nil
	}
	return Clone(expr).(ast.Expression)
}

func cloneList(nodes []ast.Node) []ast.Node {
	if nodes == nil {
		return nil
	}
	out := make([]ast.Node, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(n)
	}
	return out
}
