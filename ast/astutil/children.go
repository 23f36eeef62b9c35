// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package astutil

import (
	"fmt"
	"strconv"

	"github.com/open2b/stencil/ast"
)

// Slot is a named child of a node. The children of a list have names in the
// form "name[i]".
type Slot struct {
	Name string
	Node ast.Node
}

// Rewrite calls f for every child of node, in order, and replaces the child
// with the returned node. If f returns nil for an element of a list, the
// element is removed. A nil value for any other child is a programming error.
//
// Rewrite never reuses the slices of node, so a shallow copy of node can be
// rewritten without affecting the original.
func Rewrite(node ast.Node, f func(name string, child ast.Node) ast.Node) {
	switch n := node.(type) {
	case *ast.Module:
		n.Parent = expr(f, "parent", n.Parent)
		n.Body = list(f, "body", n.Body)
		n.Blocks = blocks(f, "blocks", n.Blocks)
		n.Macros = macros(f, "macros", n.Macros)
		if n.Traits != nil {
			traits := make([]*ast.Trait, 0, len(n.Traits))
			for i, t := range n.Traits {
				if r := f("traits["+strconv.Itoa(i)+"]", t); r != nil {
					traits = append(traits, r.(*ast.Trait))
				}
			}
			n.Traits = traits
		}
		for p := ast.ConstructorStart; p <= ast.ClassEnd; p++ {
			n.Points[p] = list(f, p.String(), n.Points[p])
		}
	case *ast.Trait:
		n.Template = expr(f, "template", n.Template)
	case *ast.Nodes:
		n.Nodes = list(f, "nodes", n.Nodes)
	case *ast.Text, *ast.Flush, *ast.BlockReference, *ast.CheckSecurity,
		*ast.ProfilerEnter, *ast.ProfilerLeave, *ast.ForLoop:
	case *ast.Print:
		n.Expr = expr(f, "expr", n.Expr)
	case *ast.SandboxedPrint:
		n.Expr = expr(f, "expr", n.Expr)
	case *ast.Set:
		n.Names = exprs(f, "names", n.Names)
		n.Values = exprs(f, "values", n.Values)
		n.Body = list(f, "body", n.Body)
	case *ast.If:
		branches := make([]ast.IfBranch, len(n.Branches))
		for i, b := range n.Branches {
			is := strconv.Itoa(i)
			branches[i].Cond = expr(f, "tests["+is+"]", b.Cond)
			branches[i].Body = list(f, "bodies["+is+"]", b.Body)
		}
		n.Branches = branches
		n.Else = list(f, "else", n.Else)
	case *ast.For:
		n.KeyTarget = assignName(f, "key_target", n.KeyTarget)
		n.ValueTarget = assignName(f, "value_target", n.ValueTarget)
		n.Seq = expr(f, "seq", n.Seq)
		n.Body = list(f, "body", n.Body)
		n.Else = list(f, "else", n.Else)
		if n.Step != nil {
			n.Step = required(f, "loop", n.Step).(*ast.ForLoop)
		}
	case *ast.Block:
		n.Body = list(f, "body", n.Body)
	case *ast.Include:
		n.Expr = expr(f, "expr", n.Expr)
		n.Variables = expr(f, "variables", n.Variables)
	case *ast.Embed:
		n.Variables = expr(f, "variables", n.Variables)
	case *ast.Import:
		n.Expr = expr(f, "expr", n.Expr)
		n.Var = assignName(f, "var", n.Var)
	case *ast.Macro:
		arguments := make([]ast.MacroArgument, len(n.Arguments))
		for i, a := range n.Arguments {
			arguments[i] = ast.MacroArgument{Name: a.Name, Default: expr(f, "arguments["+a.Name+"]", a.Default)}
		}
		n.Arguments = arguments
		n.Body = list(f, "body", n.Body)
	case *ast.Spaceless:
		n.Body = list(f, "body", n.Body)
	case *ast.Sandbox:
		n.Body = list(f, "body", n.Body)
	case *ast.AutoEscape:
		n.Body = list(f, "body", n.Body)
	case *ast.Do:
		n.Expr = expr(f, "expr", n.Expr)
	case *ast.With:
		n.Variables = expr(f, "variables", n.Variables)
		n.Body = list(f, "body", n.Body)
	case *ast.Deprecated:
		n.Expr = expr(f, "expr", n.Expr)

	case *ast.Constant, *ast.Name, *ast.AssignName, *ast.TempName, *ast.Parent:
	case *ast.Array:
		pairs := make([]ast.Pair, len(n.Pairs))
		for i, p := range n.Pairs {
			is := strconv.Itoa(i)
			pairs[i].Key = expr(f, "keys["+is+"]", p.Key)
			pairs[i].Value = expr(f, "values["+is+"]", p.Value)
		}
		n.Pairs = pairs
	case *ast.GetAttr:
		n.Node = expr(f, "node", n.Node)
		n.Attribute = expr(f, "attribute", n.Attribute)
		if n.Arguments != nil {
			n.Arguments = required(f, "arguments", n.Arguments).(*ast.Array)
		}
	case *ast.MethodCall:
		n.Node = expr(f, "node", n.Node)
		n.Arguments = required(f, "arguments", n.Arguments).(*ast.Array)
	case *ast.Filter:
		n.Node = expr(f, "node", n.Node)
		n.Arguments = arguments(f, n.Arguments)
	case *ast.Function:
		n.Arguments = arguments(f, n.Arguments)
	case *ast.Test:
		n.Node = expr(f, "node", n.Node)
		n.Arguments = arguments(f, n.Arguments)
	case *ast.DefinedTest:
		n.Node = expr(f, "node", n.Node)
	case *ast.Unary:
		n.Expr = expr(f, "node", n.Expr)
	case *ast.Binary:
		n.Left = expr(f, "left", n.Left)
		n.Right = expr(f, "right", n.Right)
	case *ast.Conditional:
		n.Cond = expr(f, "expr1", n.Cond)
		n.Then = expr(f, "expr2", n.Then)
		n.Else = expr(f, "expr3", n.Else)
	case *ast.NullCoalesce:
		n.Test = expr(f, "test", n.Test)
		n.Left = expr(f, "left", n.Left)
		n.Right = expr(f, "right", n.Right)
	case *ast.BlockReferenceExpr:
		n.Name = expr(f, "name", n.Name)
		n.Template = expr(f, "template", n.Template)
	case *ast.InlinePrint:
		n.Expr = expr(f, "node", n.Expr)
	case *ast.CheckToString:
		n.Expr = expr(f, "node", n.Expr)
	default:
		panic(fmt.Sprintf("astutil: unexpected node type %T", node))
	}
}

func required(f func(string, ast.Node) ast.Node, name string, child ast.Node) ast.Node {
	r := f(name, child)
	if r == nil {
		panic(fmt.Sprintf("astutil: child %q cannot be removed", name))
	}
	return r
}

func expr(f func(string, ast.Node) ast.Node, name string, e ast.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	r, ok := required(f, name, e).(ast.Expression)
	if !ok {
		panic(fmt.Sprintf("astutil: child %q must be an expression", name))
	}
	return r
}

func assignName(f func(string, ast.Node) ast.Node, name string, n *ast.AssignName) *ast.AssignName {
	if n == nil {
		return nil
	}
	return required(f, name, n).(*ast.AssignName)
}

func exprs(f func(string, ast.Node) ast.Node, name string, list []ast.Expression) []ast.Expression {
	if list == nil {
		return nil
	}
	out := make([]ast.Expression, 0, len(list))
	for i, e := range list {
		if r := f(name+"["+strconv.Itoa(i)+"]", e); r != nil {
			out = append(out, r.(ast.Expression))
		}
	}
	return out
}

func list(f func(string, ast.Node) ast.Node, name string, nodes []ast.Node) []ast.Node {
	if nodes == nil {
		return nil
	}
	out := make([]ast.Node, 0, len(nodes))
	for i, n := range nodes {
		if r := f(name+"["+strconv.Itoa(i)+"]", n); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func blocks(f func(string, ast.Node) ast.Node, name string, nodes []*ast.Block) []*ast.Block {
	if nodes == nil {
		return nil
	}
	out := make([]*ast.Block, 0, len(nodes))
	for _, n := range nodes {
		if r := f(name+"["+n.Name+"]", n); r != nil {
			out = append(out, r.(*ast.Block))
		}
	}
	return out
}

func macros(f func(string, ast.Node) ast.Node, name string, nodes []*ast.Macro) []*ast.Macro {
	if nodes == nil {
		return nil
	}
	out := make([]*ast.Macro, 0, len(nodes))
	for _, n := range nodes {
		if r := f(name+"["+n.Name+"]", n); r != nil {
			out = append(out, r.(*ast.Macro))
		}
	}
	return out
}

func arguments(f func(string, ast.Node) ast.Node, args []ast.Argument) []ast.Argument {
	if args == nil {
		return nil
	}
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		name := a.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		out[i] = ast.Argument{Name: a.Name, Value: expr(f, "arguments["+name+"]", a.Value)}
	}
	return out
}

// Children returns the children of node in order.
func Children(node ast.Node) []Slot {
	var slots []Slot
	Rewrite(node, func(name string, child ast.Node) ast.Node {
		slots = append(slots, Slot{name, child})
		return child
	})
	return slots
}

// Child returns the child of node with the given name, or nil.
func Child(node ast.Node, name string) ast.Node {
	for _, s := range Children(node) {
		if s.Name == name {
			return s.Node
		}
	}
	return nil
}

// HasChild reports whether node has a child with the given name.
func HasChild(node ast.Node, name string) bool {
	return Child(node, name) != nil
}

// SetChild replaces the child of node with the given name. It reports
// whether the child exists.
func SetChild(node ast.Node, name string, child ast.Node) bool {
	found := false
	Rewrite(node, func(n string, c ast.Node) ast.Node {
		if n == name {
			found = true
			if child.Pos() == ast.UnknownLine {
				child.SetPos(node.Pos())
			}
			return child
		}
		return c
	})
	return found
}
