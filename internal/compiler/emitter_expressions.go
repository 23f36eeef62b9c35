// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strconv"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
	"github.com/open2b/stencil/runtime"
)

// Runtime functions of the binary operators that have a function.
var binaryFunctions = map[ast.OperatorType]string{
	ast.OperatorBitOr:        "runtime.BitOr",
	ast.OperatorBitXor:       "runtime.BitXor",
	ast.OperatorBitAnd:       "runtime.BitAnd",
	ast.OperatorEqual:        "runtime.Equal",
	ast.OperatorSpaceship:    "runtime.Compare",
	ast.OperatorLess:         "runtime.Less",
	ast.OperatorGreater:      "runtime.Greater",
	ast.OperatorGreaterEqual: "runtime.GreaterEqual",
	ast.OperatorLessEqual:    "runtime.LessEqual",
	ast.OperatorIn:           "runtime.In",
	ast.OperatorMatches:      "runtime.Matches",
	ast.OperatorStartsWith:   "runtime.StartsWith",
	ast.OperatorEndsWith:     "runtime.EndsWith",
	ast.OperatorAdd:          "runtime.Add",
	ast.OperatorSub:          "runtime.Sub",
	ast.OperatorConcat:       "runtime.Concat",
	ast.OperatorMul:          "runtime.Mul",
	ast.OperatorDiv:          "runtime.Div",
	ast.OperatorFloorDiv:     "runtime.FloorDiv",
	ast.OperatorMod:          "runtime.Mod",
	ast.OperatorPower:        "runtime.Pow",
}

var callTypes = map[ast.CallType]string{
	ast.AnyCall:        "runtime.AnyCall",
	ast.ArrayCall:      "runtime.ArrayCall",
	ast.MethodCallType: "runtime.MethodCall",
}

// compileExpr compiles an expression. The value of every compiled
// expression can be assigned to an interface{}.
func (c *Compiler) compileExpr(expr ast.Expression) {

	switch n := expr.(type) {

	case *ast.Constant:
		c.Repr(n.Value)

	case *ast.Name:
		c.compileName(n)

	case *ast.AssignName:
		c.Raw("ctx[").String(n.Name).Raw("]")

	case *ast.TempName:
		c.Raw(n.Name)

	case *ast.Array:
		c.compileArray(n)

	case *ast.GetAttr:
		c.Raw("t.GetAttr(").Subcompile(n.Node).Raw(", ").Subcompile(n.Attribute).Raw(", ")
		c.compileOptionalExpr(arrayOrNil(n.Arguments))
		c.Raw(", " + callTypes[n.CallType])
		c.Raw(", " + strconv.FormatBool(n.IsDefinedTest) + ", " + strconv.FormatBool(n.IgnoreStrictCheck) + ")")

	case *ast.MethodCall:
		if n.IsDefinedTest {
			c.Raw("t.HasMacro(")
			c.compileMacroTemplate(n.Node)
			c.Raw(", ").String(n.Method).Raw(")")
			return
		}
		c.Raw("t.CallMacro(")
		c.compileMacroTemplate(n.Node)
		c.Raw(", ").String(n.Method).Raw(", ").Subcompile(n.Arguments).Raw(")")

	case *ast.Filter:
		c.compileCall(n, n.Node)

	case *ast.Function:
		if n.Name == "constant" && n.Attr("is_defined_test") == true && len(n.Arguments) > 0 {
			c.Raw("t.Env.HasConstant(").Subcompile(n.Arguments[0].Value).Raw(")")
			return
		}
		c.compileCall(n, nil)

	case *ast.Test:
		c.compileCall(n, n.Node)

	case *ast.DefinedTest:
		if name, ok := n.Node.(*ast.Name); ok && name.IsSpecial() {
			c.Raw("true")
			return
		}
		c.Subcompile(n.Node)

	case *ast.Unary:
		switch n.Op {
		case ast.OperatorNot:
			c.Raw("!runtime.Bool(").Subcompile(n.Expr).Raw(")")
		case ast.OperatorNeg:
			c.Raw("runtime.Neg(").Subcompile(n.Expr).Raw(")")
		case ast.OperatorPos:
			c.Raw("runtime.Pos(").Subcompile(n.Expr).Raw(")")
		}

	case *ast.Binary:
		c.compileBinary(n)

	case *ast.Conditional:
		c.Raw("func() interface{} {\n")
		c.Indent()
		c.Write("if runtime.Bool(").Subcompile(n.Cond).Raw(") {\n")
		c.Indent().Write("return ").Subcompile(n.Then).Raw("\n").Outdent()
		c.Writeln("}")
		c.Write("return ").Subcompile(n.Else).Raw("\n")
		c.Outdent()
		c.Write("}()")

	case *ast.NullCoalesce:
		c.Raw("func() interface{} {\n")
		c.Indent()
		c.Write("if runtime.Bool(").Subcompile(n.Test).Raw(") {\n")
		c.Indent().Write("return ").Subcompile(n.Left).Raw("\n").Outdent()
		c.Writeln("}")
		c.Write("return ").Subcompile(n.Right).Raw("\n")
		c.Outdent()
		c.Write("}()")

	case *ast.BlockReferenceExpr:
		if n.IsDefinedTest {
			c.Raw("t.HasBlock(").Subcompile(n.Name).Raw(", ctx, blocks, ")
		} else {
			c.Raw("t.RenderBlock(").Subcompile(n.Name).Raw(", ctx, blocks, ")
		}
		c.compileOptionalExpr(n.Template)
		c.Raw(")")

	case *ast.Parent:
		c.Raw("t.RenderParentBlock(").String(n.Name).Raw(", ctx, blocks)")

	case *ast.InlinePrint:
		c.Raw("runtime.InlinePrint(w, ").Subcompile(n.Expr).Raw(")")

	case *ast.CheckToString:
		c.Raw("t.Env.EnsureToStringAllowed(").Subcompile(n.Expr).Raw(")")

	default:
		panic(logicError("cannot compile an expression of type %T", expr))
	}

}

// arrayOrNil returns a as an expression, or nil if a is nil.
func arrayOrNil(a *ast.Array) ast.Expression {
	if a == nil {
		return nil
	}
	return a
}

// compileName compiles the lookup of a variable.
func (c *Compiler) compileName(n *ast.Name) {
	switch n.Name {
	case "_self":
		c.Raw("t.Self")
		return
	case "_context":
		c.Raw("ctx")
		return
	case "_charset":
		c.Raw("t.Env.Charset()")
		return
	}
	switch {
	case n.IsDefinedTest:
		c.Raw("ctx.Has(").String(n.Name).Raw(")")
	case c.opts.StrictVariables && !n.IgnoreStrictCheck && !n.AlwaysDefined:
		c.Raw("t.Var(ctx, ").String(n.Name).Raw(")")
	default:
		c.Raw("ctx[").String(n.Name).Raw("]")
	}
}

// compileMacroTemplate compiles the template on which a macro is called.
func (c *Compiler) compileMacroTemplate(node ast.Expression) {
	if name, ok := node.(*ast.Name); ok && !name.IsSpecial() {
		c.Raw("macros[").String(name.Name).Raw("]")
		return
	}
	c.Subcompile(node)
}

// compileArray compiles an array literal: a slice if it is a sequence, an
// ordered map otherwise.
func (c *Compiler) compileArray(n *ast.Array) {
	if n.IsSequence() {
		c.Raw("[]interface{}{")
		for i, p := range n.Pairs {
			if i > 0 {
				c.Raw(", ")
			}
			c.Subcompile(p.Value)
		}
		c.Raw("}")
		return
	}
	c.Raw("runtime.NewMap(")
	for i, p := range n.Pairs {
		if i > 0 {
			c.Raw(", ")
		}
		c.Subcompile(p.Key).Raw(", ").Subcompile(p.Value)
	}
	c.Raw(")")
}

// compileBinary compiles a binary operator.
func (c *Compiler) compileBinary(n *ast.Binary) {
	switch n.Op {
	case ast.OperatorOr:
		c.Raw("(runtime.Bool(").Subcompile(n.Left).Raw(") || runtime.Bool(").Subcompile(n.Right).Raw("))")
		return
	case ast.OperatorAnd:
		c.Raw("(runtime.Bool(").Subcompile(n.Left).Raw(") && runtime.Bool(").Subcompile(n.Right).Raw("))")
		return
	case ast.OperatorXor:
		c.Raw("(runtime.Bool(").Subcompile(n.Left).Raw(") != runtime.Bool(").Subcompile(n.Right).Raw("))")
		return
	case ast.OperatorNotEqual:
		c.Raw("!runtime.Equal(").Subcompile(n.Left).Raw(", ").Subcompile(n.Right).Raw(")")
		return
	case ast.OperatorNotIn:
		c.Raw("!runtime.In(").Subcompile(n.Left).Raw(", ").Subcompile(n.Right).Raw(")")
		return
	case ast.OperatorRange:
		c.Raw("runtime.Range(").Subcompile(n.Left).Raw(", ").Subcompile(n.Right).Raw(", 1)")
		return
	case ast.OperatorMatches:
		if p, ok := n.Right.(*ast.Constant); ok {
			if s, ok := p.Value.(string); ok {
				if _, err := runtime.CompilePattern(s); err != nil {
					panic(syntaxError(n.Line, "Regexp %q passed to \"matches\" is not valid: %s.", s, err))
				}
			}
		}
	}
	fn, ok := binaryFunctions[n.Op]
	if !ok {
		panic(logicError("unknown binary operator %s", n.Op))
	}
	c.Raw(fn + "(").Subcompile(n.Left).Raw(", ").Subcompile(n.Right).Raw(")")
}

// compileCall compiles the call of a filter, a function or a test. node is
// the filtered or tested value, it is nil for functions.
func (c *Compiler) compileCall(n ast.Call, node ast.Expression) {

	var kind builtin.Kind
	switch n.CallKind() {
	case "filter":
		kind = builtin.FilterKind
	case "function":
		kind = builtin.FunctionKind
	default:
		kind = builtin.TestKind
	}
	callable := c.registry.Lookup(kind, n.CallName())
	if callable == nil {
		panic(unknownNameError(n.Pos(), n.CallName(), c.registry.Names(kind), "Unknown %q %s.", n.CallName(), kind))
	}

	args := bindArguments(callable, n.CallArguments(), n.Pos())

	first := true
	arg := func(s string) {
		if !first {
			c.Raw(", ")
		}
		first = false
		c.Raw(s)
	}

	if callable.Func == "" {
		switch kind {
		case builtin.FilterKind:
			c.Raw("t.Env.CallFilter(")
		case builtin.FunctionKind:
			c.Raw("t.Env.CallFunction(")
		default:
			c.Raw("t.Env.CallTest(")
		}
		arg(strconv.Quote(callable.Name))
		arg("ctx")
	} else {
		c.Raw(callable.Func + "(")
		if callable.NeedsEnv {
			arg("t.Env")
		}
		if callable.NeedsContext {
			arg("ctx")
		}
	}
	if node != nil {
		arg("")
		c.Subcompile(node)
	}
	for _, a := range args {
		arg("")
		c.Subcompile(a)
	}
	c.Raw(")")
}
