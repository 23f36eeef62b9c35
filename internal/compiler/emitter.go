// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/open2b/stencil/ast"
)

// unitNamespace is the namespace of the UUIDs used in the names of the
// compiled units.
var unitNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/open2b/stencil/unit"))

// debugInfoPlaceholder is replaced with the debug info once the generated
// source has been formatted.
const debugInfoPlaceholder = "/*debuginfo*/"

// templateHash returns the hash of a template name used in the names of the
// generated types.
func templateHash(name string) string {
	id := uuid.NewSHA1(unitNamespace, []byte(name))
	return strings.ReplaceAll(id.String(), "-", "")[:16]
}

// UnitTypeName returns the name of the generated type of the unit with the
// given index of a template.
func UnitTypeName(name string, index int) string {
	return "Template_" + templateHash(name) + "_" + strconv.Itoa(index)
}

// compileFile returns the Go source of a file with the units of a template
// and of its embedded templates. modules[0] is the template.
func (c *Compiler) compileFile(modules []*ast.Module) string {

	c.Reset()

	runtimeImport := c.opts.runtimeImport()
	if path.Base(runtimeImport) == "runtime" {
		c.addImport(runtimeImport, "")
	} else {
		c.addImport(runtimeImport, "runtime")
	}
	for _, imp := range c.opts.Imports {
		c.addImport(imp, "")
	}

	name := modules[0].Source.Name
	hash := templateHash(name)

	// Units.
	for _, m := range modules {
		c.compileUnit(m, hash)
	}
	units := c.buf.String()
	c.buf.Reset()

	c.Writeln("// Code generated by stencil. DO NOT EDIT.")
	c.Writeln("")
	c.Writeln("package %s", c.opts.packageName())
	c.Writeln("")
	c.compileImports()
	c.Writeln("")
	c.Writeln("func init() {")
	c.Indent()
	for _, m := range modules {
		typ := UnitTypeName(m.Source.Name, m.Index)
		c.Write("runtime.Register(").String(name).Raw(", " + strconv.Itoa(m.Index) + ", func(env *runtime.Env) runtime.Unit {\n")
		c.Indent()
		c.Writeln("t := &%s{Template: runtime.NewTemplate(env)}", typ)
		c.Writeln("t.Self = t")
		if hasConstructor(m) {
			c.Writeln("t.construct()")
		}
		c.Writeln("return t")
		c.Outdent()
		c.Writeln("})")
	}
	c.Outdent()
	c.Writeln("}")
	c.Writeln("")
	c.Writeln("var debugInfo_%s = map[int]int{%s}", hash, debugInfoPlaceholder)
	c.Raw(units)

	return c.buf.String()
}

// compileImports writes the import declaration.
func (c *Compiler) compileImports() {
	paths := make([]string, 0, len(c.imports))
	for p := range c.imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	c.Writeln("import (")
	c.Indent()
	for _, p := range paths {
		if name := c.imports[p]; name != "" {
			c.Write(name + " ").String(p).Raw("\n")
		} else {
			c.Write().String(p).Raw("\n")
		}
	}
	c.Outdent()
	c.Writeln(")")
}

// compileUnit writes the type of a module and its methods.
func (c *Compiler) compileUnit(m *ast.Module, hash string) {

	c.module = m
	c.unit = UnitTypeName(m.Source.Name, m.Index)
	c.lastLine = 0

	c.Writeln("")
	if m.Index == 0 {
		c.Writeln("// %s is the template %s.", c.unit, strconv.Quote(m.Source.Name))
	} else {
		c.Writeln("// %s is the template embedded at index %d in %s.", c.unit, m.Index, strconv.Quote(m.Source.Name))
	}
	c.Writeln("type %s struct {", c.unit)
	c.Indent()
	c.Writeln("*runtime.Template")
	c.Outdent()
	c.Writeln("}")

	c.compileConstructor(m)
	c.compileParentMethod(m)
	c.compileDisplay(m)
	c.compileBlocks(m)
	c.compileMacros(m)
	c.compileGetters(m, hash)
	c.compileClassEnd(m)
}

// hasConstructor reports whether the unit of m has a construct method.
// A unit without blocks and traits leaves its blocks nil.
func hasConstructor(m *ast.Module) bool {
	return len(m.Blocks) > 0 || len(m.Traits) > 0 ||
		len(m.Point(ast.ConstructorStart)) > 0 || len(m.Point(ast.ConstructorEnd)) > 0
}

// compileConstructor writes the construct method that initializes the
// blocks and the traits.
func (c *Compiler) compileConstructor(m *ast.Module) {
	if !hasConstructor(m) {
		return
	}
	c.Writeln("")
	c.Writeln("func (t *%s) construct() {", c.unit)
	c.Indent()
	c.compileBody(m.Point(ast.ConstructorStart))
	if len(m.Traits) > 0 {
		c.Writeln("t.Traits = runtime.MergeBlocks(")
		c.Indent()
		for _, trait := range m.Traits {
			c.AddDebugInfo(trait)
			c.Write("t.UseTrait(").Subcompile(trait.Template).Raw(", ")
			if len(trait.Targets) == 0 {
				c.Raw("nil")
			} else {
				c.Raw("[][2]string{")
				for i, target := range trait.Targets {
					if i > 0 {
						c.Raw(", ")
					}
					c.Raw("{").String(target.Name).Raw(", ").String(target.Alias).Raw("}")
				}
				c.Raw("}")
			}
			c.Raw("),\n")
		}
		c.Outdent()
		c.Writeln(")")
	}
	if len(m.Blocks) == 0 {
		c.Writeln("t.Blocks = runtime.MergeBlocks(t.Traits)")
	} else {
		c.Writeln("t.Blocks = runtime.MergeBlocks(t.Traits, runtime.Blocks{")
		c.Indent()
		for _, b := range m.Blocks {
			c.Write().String(b.Name).Raw(": {Template: t, Name: ").String(b.Name).Raw("},\n")
		}
		c.Outdent()
		c.Writeln("})")
	}
	c.compileBody(m.Point(ast.ConstructorEnd))
	c.Outdent()
	c.Writeln("}")
}

// compileParentMethod writes the Parent method that returns the parent
// template.
func (c *Compiler) compileParentMethod(m *ast.Module) {
	c.Writeln("")
	c.Writeln("func (t *%s) Parent(ctx runtime.Context) interface{} {", c.unit)
	c.Indent()
	if m.Parent == nil {
		c.Writeln("return nil")
	} else {
		c.Writeln("macros := t.Imports.Clone()")
		c.Writeln("_ = macros")
		c.Writeln("blocks := runtime.Blocks(nil)")
		c.Writeln("_ = blocks")
		c.AddDebugInfo(m.Parent)
		c.Write("return ").Subcompile(m.Parent).Raw("\n")
	}
	c.Outdent()
	c.Writeln("}")
}

// compileDisplay writes the Display method that renders the template.
func (c *Compiler) compileDisplay(m *ast.Module) {
	c.Writeln("")
	c.Writeln("func (t *%s) Display(w *runtime.Writer, ctx runtime.Context, blocks runtime.Blocks) {", c.unit)
	c.Indent()
	c.Writeln("macros := t.Imports.Clone()")
	c.Writeln("_ = macros")
	c.compileBody(m.Point(ast.DisplayStart))
	if m.Parent != nil {
		c.AddDebugInfo(m.Parent)
		c.Writeln("parent := t.LoadParent(ctx)")
	}
	c.compileBody(m.Body)
	if m.Parent != nil {
		c.Writeln("t.DisplayParent(w, parent, ctx, blocks)")
	}
	c.compileBody(m.Point(ast.DisplayEnd))
	c.Outdent()
	c.Writeln("}")
}

// compileBlocks writes a method for each block and the Block method that
// returns the blocks by name.
func (c *Compiler) compileBlocks(m *ast.Module) {
	for _, b := range m.Blocks {
		c.Writeln("")
		c.Writeln("func (t *%s) %s(w *runtime.Writer, ctx runtime.Context, blocks runtime.Blocks) {", c.unit, identifier("block_", b.Name))
		c.Indent()
		c.Writeln("ctx = ctx.Clone()")
		c.Writeln("macros := t.Imports.Clone()")
		c.Writeln("_ = macros")
		c.compileBody(b.Body)
		c.Outdent()
		c.Writeln("}")
	}
	c.Writeln("")
	c.Writeln("func (t *%s) Block(name string) runtime.BlockFunc {", c.unit)
	c.Indent()
	if len(m.Blocks) > 0 {
		c.Writeln("switch name {")
		for _, b := range m.Blocks {
			c.Write("case ").String(b.Name).Raw(":\n")
			c.Indent()
			c.Writeln("return t.%s", identifier("block_", b.Name))
			c.Outdent()
		}
		c.Writeln("}")
	}
	c.Writeln("return nil")
	c.Outdent()
	c.Writeln("}")
}

// compileMacros writes a method for each macro and the Macro method that
// returns the macros by name.
func (c *Compiler) compileMacros(m *ast.Module) {
	for _, macro := range m.Macros {
		c.Writeln("")
		c.Writeln("func (t *%s) %s(args *runtime.Map) runtime.Safe {", c.unit, identifier("macro_", macro.Name))
		c.Indent()
		c.AddDebugInfo(macro)
		c.Writeln("macros := t.Imports.Clone()")
		c.Writeln("_ = macros")
		c.Writeln("ctx := t.Env.MergeGlobals(runtime.Context{")
		c.Indent()
		names := make([]string, len(macro.Arguments))
		for i, arg := range macro.Arguments {
			names[i] = arg.Name
			c.Write().String(arg.Name).Raw(": args.Arg(" + strconv.Itoa(i) + ", ").String(arg.Name).Raw(", ")
			if arg.Default == nil {
				c.Raw("nil")
			} else {
				c.Subcompile(arg.Default)
			}
			c.Raw("),\n")
		}
		c.Write().String(ast.VarArgsName).Raw(": args.VarArgs(" + strconv.Itoa(len(names)))
		for _, name := range names {
			c.Raw(", ").String(name)
		}
		c.Raw("),\n")
		c.Outdent()
		c.Writeln("})")
		c.Writeln("blocks := runtime.Blocks(nil)")
		c.Writeln("_ = blocks")
		c.Writeln("w := runtime.NewBuffer()")
		c.compileBody(macro.Body)
		c.Writeln("return w.Safe()")
		c.Outdent()
		c.Writeln("}")
	}
	c.Writeln("")
	c.Writeln("func (t *%s) Macro(name string) runtime.MacroFunc {", c.unit)
	c.Indent()
	if len(m.Macros) > 0 {
		c.Writeln("switch name {")
		for _, macro := range m.Macros {
			c.Write("case ").String(macro.Name).Raw(":\n")
			c.Indent()
			c.Writeln("return t.%s", identifier("macro_", macro.Name))
			c.Outdent()
		}
		c.Writeln("}")
	}
	c.Writeln("return nil")
	c.Outdent()
	c.Writeln("}")
}

// compileGetters writes the methods that describe the template.
func (c *Compiler) compileGetters(m *ast.Module, hash string) {
	c.Writeln("")
	c.Writeln("func (t *%s) TemplateName() string {", c.unit)
	c.Indent().Write("return ").String(m.Source.Name).Raw("\n").Outdent()
	c.Writeln("}")
	c.Writeln("")
	c.Writeln("func (t *%s) IsTraitable() bool {", c.unit)
	c.Indent().Writeln("return %t", m.IsTraitable()).Outdent()
	c.Writeln("}")
	c.Writeln("")
	c.Writeln("func (t *%s) DebugInfo() map[int]int {", c.unit)
	c.Indent().Writeln("return debugInfo_%s", hash).Outdent()
	c.Writeln("}")
	c.Writeln("")
	c.Writeln("func (t *%s) SourceContext() runtime.Source {", c.unit)
	c.Indent()
	c.Write("return runtime.Source{Name: ").String(m.Source.Name).Raw(", Path: ").String(m.Source.Path)
	if c.opts.Debug {
		c.Raw(", Code: ").String(m.Source.Code)
	}
	c.Raw("}\n")
	c.Outdent()
	c.Writeln("}")
}

// compileClassEnd writes the nodes of the class end extension point. They
// can only be texts, and their data is written as Go declarations.
func (c *Compiler) compileClassEnd(m *ast.Module) {
	for _, node := range m.Point(ast.ClassEnd) {
		text, ok := node.(*ast.Text)
		if !ok {
			panic(logicError("unexpected node %T in the class end of template %q", node, m.Source.Name))
		}
		c.Writeln("")
		c.Raw(text.Data)
		c.Raw("\n")
	}
}
