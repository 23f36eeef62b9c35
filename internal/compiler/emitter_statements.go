// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strconv"

	"github.com/open2b/stencil/ast"
)

// compileBody compiles a list of statements.
func (c *Compiler) compileBody(nodes []ast.Node) {
	for _, node := range nodes {
		c.compileNode(node)
	}
}

// compileNode compiles a statement.
func (c *Compiler) compileNode(node ast.Node) {

	switch n := node.(type) {

	case *ast.Text:
		if n.Data == "" {
			return
		}
		c.AddDebugInfo(n)
		c.Write("w.WriteString(").String(n.Data).Raw(")\n")

	case *ast.Print:
		c.AddDebugInfo(n)
		c.Write("w.Print(").Subcompile(n.Expr).Raw(")\n")

	case *ast.SandboxedPrint:
		c.AddDebugInfo(n)
		c.Write("w.Print(t.Env.EnsureToStringAllowed(").Subcompile(n.Expr).Raw("))\n")

	case *ast.Nodes:
		c.compileBody(n.Nodes)

	case *ast.AutoEscape:
		c.compileBody(n.Body)

	case *ast.Set:
		c.compileSet(n)

	case *ast.If:
		c.compileIf(n)

	case *ast.For:
		c.compileFor(n)

	case *ast.ForLoop:
		if n.HasElse {
			c.Writeln("iterated = true")
		}
		if n.WithLoop {
			c.Writeln("loop.Next()")
		}

	case *ast.BlockReference:
		c.AddDebugInfo(n)
		c.Write("t.DisplayBlock(w, ").String(n.Name).Raw(", ctx, blocks, true)\n")

	case *ast.BlockReferenceExpr:
		c.AddDebugInfo(n)
		if n.Template != nil {
			c.Write("t.DisplayBlockOf(w, ").Subcompile(n.Template).Raw(", ").Subcompile(n.Name).Raw(", ctx)\n")
		} else {
			c.Write("t.DisplayBlock(w, ").Subcompile(n.Name).Raw(", ctx, blocks, true)\n")
		}

	case *ast.Parent:
		c.AddDebugInfo(n)
		c.Write("t.DisplayParentBlock(w, ").String(n.Name).Raw(", ctx, blocks)\n")

	case *ast.Include:
		c.AddDebugInfo(n)
		c.Write("t.Include(w, ctx, ").Subcompile(n.Expr).Raw(", ")
		c.compileOptionalExpr(n.Variables)
		c.Raw(", " + strconv.FormatBool(n.Only) + ", " + strconv.FormatBool(n.IgnoreMissing) + ")\n")

	case *ast.Embed:
		c.AddDebugInfo(n)
		c.Write("t.Embed(w, ctx, " + strconv.Itoa(n.Index) + ", ")
		c.compileOptionalExpr(n.Variables)
		c.Raw(", " + strconv.FormatBool(n.Only) + ", " + strconv.FormatBool(n.IgnoreMissing) + ")\n")

	case *ast.Import:
		c.AddDebugInfo(n)
		c.Write("macros[").String(n.Var.Name).Raw("] = t.Import(").Subcompile(n.Expr).Raw(")\n")
		if n.Global {
			c.Write("t.Imports[").String(n.Var.Name).Raw("] = macros[").String(n.Var.Name).Raw("]\n")
		}

	case *ast.Spaceless:
		c.AddDebugInfo(n)
		c.Writeln("{")
		c.Indent()
		c.Writeln("outer := w")
		c.Writeln("w := runtime.NewBuffer()")
		c.compileBody(n.Body)
		c.Writeln("outer.WriteString(runtime.Spaceless(w.String()))")
		c.Outdent()
		c.Writeln("}")

	case *ast.Sandbox:
		c.AddDebugInfo(n)
		c.Writeln("func() {")
		c.Indent()
		c.Writeln("defer t.Env.EnableSandbox()()")
		c.compileBody(n.Body)
		c.Outdent()
		c.Writeln("}()")

	case *ast.Do:
		c.AddDebugInfo(n)
		c.Write("_ = ").Subcompile(n.Expr).Raw("\n")

	case *ast.With:
		c.AddDebugInfo(n)
		c.Writeln("{")
		c.Indent()
		c.Write("ctx := t.With(ctx, ")
		c.compileOptionalExpr(n.Variables)
		c.Raw(", " + strconv.FormatBool(n.Only) + ")\n")
		c.compileBody(n.Body)
		c.Outdent()
		c.Writeln("}")

	case *ast.Deprecated:
		c.AddDebugInfo(n)
		c.Write("t.Deprecated(").Subcompile(n.Expr).Raw(")\n")

	case *ast.Flush:
		c.AddDebugInfo(n)
		c.Writeln("w.Flush()")

	case *ast.CheckSecurity:
		c.Write("t.CheckSecurity(")
		c.compileUsages(n.Tags)
		c.Raw(", ")
		c.compileUsages(n.Filters)
		c.Raw(", ")
		c.compileUsages(n.Functions)
		c.Raw(")\n")

	case *ast.ProfilerEnter:
		c.Write(n.VarName + " := t.Env.Profiler().Enter(t.TemplateName(), ").String(n.Kind).Raw(", ").String(n.Name).Raw(")\n")

	case *ast.ProfilerLeave:
		c.Writeln("t.Env.Profiler().Leave(%s)", n.VarName)

	default:
		panic(logicError("cannot compile a node of type %T", node))
	}

}

// compileOptionalExpr compiles expr or writes nil if expr is nil.
func (c *Compiler) compileOptionalExpr(expr ast.Expression) {
	if expr == nil {
		c.Raw("nil")
		return
	}
	c.Subcompile(expr)
}

// compileUsages writes a slice of usages.
func (c *Compiler) compileUsages(usages []ast.Usage) {
	if len(usages) == 0 {
		c.Raw("nil")
		return
	}
	c.Raw("[]runtime.Usage{")
	for i, u := range usages {
		if i > 0 {
			c.Raw(", ")
		}
		c.Raw("{").String(u.Name).Raw(", " + strconv.Itoa(u.Line) + "}")
	}
	c.Raw("}")
}

// compileSet compiles a set statement.
func (c *Compiler) compileSet(n *ast.Set) {

	c.AddDebugInfo(n)

	// Temporary variables are local variables of the generated code.
	for _, name := range n.Names {
		if temp, ok := name.(*ast.TempName); ok {
			c.Writeln("var %s interface{}", temp.Name)
			c.Writeln("_ = %s", temp.Name)
		}
	}

	if n.Capture {
		c.Writeln("{")
		c.Indent()
		c.Writeln("w := runtime.NewBuffer()")
		c.compileBody(n.Body)
		c.Write()
		c.compileTarget(n.Names[0])
		c.Raw(" = w.Safe()\n")
		c.Outdent()
		c.Writeln("}")
		return
	}

	c.Write()
	for i, name := range n.Names {
		if i > 0 {
			c.Raw(", ")
		}
		c.compileTarget(name)
	}
	c.Raw(" = ")
	for i, value := range n.Values {
		if i > 0 {
			c.Raw(", ")
		}
		if s, ok := value.(*ast.Constant); ok && n.Safe {
			if _, ok := s.Value.(string); ok {
				c.Raw("runtime.Safe(").Subcompile(value).Raw(")")
				continue
			}
		}
		c.Subcompile(value)
	}
	c.Raw("\n")
}

// compileTarget compiles the target of an assignment.
func (c *Compiler) compileTarget(target ast.Expression) {
	switch t := target.(type) {
	case *ast.AssignName:
		c.Raw("ctx[").String(t.Name).Raw("]")
	case *ast.TempName:
		c.Raw(t.Name)
	default:
		panic(logicError("cannot assign to a node of type %T", target))
	}
}

// compileIf compiles an if statement.
func (c *Compiler) compileIf(n *ast.If) {
	c.AddDebugInfo(n)
	for i, branch := range n.Branches {
		if i == 0 {
			c.Write("if runtime.Bool(")
		} else {
			c.Write("} else if runtime.Bool(")
		}
		c.Subcompile(branch.Cond).Raw(") {\n")
		c.Indent()
		c.compileBody(branch.Body)
		c.Outdent()
	}
	if n.Else != nil {
		c.Writeln("} else {")
		c.Indent()
		c.compileBody(n.Else)
		c.Outdent()
	}
	c.Writeln("}")
}

// compileFor compiles a for statement. The loop runs in a copy of the
// context; after the loop, the variables of the enclosing context changed in
// the loop are copied back, except the loop targets.
func (c *Compiler) compileFor(n *ast.For) {

	c.AddDebugInfo(n)

	n.Step.WithLoop = n.WithLoop
	n.Step.HasElse = n.Else != nil

	c.Writeln("{")
	c.Indent()
	c.Writeln("parentCtx := ctx")
	c.Writeln("ctx := ctx.Clone()")
	c.Writeln(`ctx["_parent"] = parentCtx`)
	c.Write("seq := runtime.Iterate(").Subcompile(n.Seq).Raw(")\n")
	if n.WithLoop {
		c.Writeln("loop := runtime.NewLoop(parentCtx, seq)")
		c.Writeln(`ctx["loop"] = loop`)
	}
	if n.Else != nil {
		c.Writeln("iterated := false")
	}
	c.Writeln("for i, n := 0, seq.Len(); i < n; i++ {")
	c.Indent()
	c.Write("ctx[").String(n.KeyTarget.Name).Raw("], ctx[").String(n.ValueTarget.Name).Raw("] = seq.Key(i), seq.Value(i)\n")
	c.compileBody(n.Body)
	c.compileNode(n.Step)
	c.Outdent()
	c.Writeln("}")
	if n.Else != nil {
		c.Writeln("if !iterated {")
		c.Indent()
		c.compileBody(n.Else)
		c.Outdent()
		c.Writeln("}")
	}
	c.Write("runtime.MergeScope(parentCtx, ctx, ").String(n.KeyTarget.Name).Raw(", ").String(n.ValueTarget.Name).Raw(`, "loop", "_parent")` + "\n")
	c.Outdent()
	c.Writeln("}")
}
