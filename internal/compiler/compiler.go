// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler implements the parsing of templates, the rewriting passes
// and the generation of the Go source of the compiled templates.
//
// # Parsing
//
// A template is parsed with
//
//	ParseTemplate(...)
//
// that returns the tree of the template with its embedded templates.
//
// # Rewriting
//
// The tree is rewritten by a Traverser that applies a sequence of passes, as
// the Escaper, the Sandbox, the Profiler and the Optimizer.
//
// # Generating
//
// The rewritten tree is compiled to Go source by a Compiler. Compile does all
// the three steps.
package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
)

// debugInfoMarker is the prefix of the comments that mark the source line of
// the following generated code.
const debugInfoMarker = "// line "

// Compiler writes the Go source of compiled templates.
type Compiler struct {
	registry *builtin.Registry
	opts     *Options

	buf         strings.Builder
	indentation int
	lastLine    int // last source line written as debug info.
	varNameSalt int

	imports map[string]string // imported packages, path to name.

	module *ast.Module // module in compilation.
	unit   string      // name of the type of the unit in compilation.
}

// NewCompiler returns a new compiler that takes the callables from registry.
func NewCompiler(registry *builtin.Registry, opts *Options) *Compiler {
	if registry == nil {
		registry = builtin.Default()
	}
	if opts == nil {
		opts = &Options{}
	}
	return &Compiler{
		registry: registry,
		opts:     opts,
		imports:  map[string]string{},
	}
}

// Source returns the source written so far.
func (c *Compiler) Source() string {
	return c.buf.String()
}

// Reset resets the compiler so that it can be used to compile another file.
func (c *Compiler) Reset() {
	c.buf.Reset()
	c.indentation = 0
	c.lastLine = 0
	c.varNameSalt = 0
	c.imports = map[string]string{}
	c.module = nil
	c.unit = ""
}

// Raw writes s as is.
func (c *Compiler) Raw(s string) *Compiler {
	c.buf.WriteString(s)
	return c
}

// Write writes each string prefixed by the current indentation. With no
// strings, it writes only the indentation.
func (c *Compiler) Write(s ...string) *Compiler {
	if len(s) == 0 {
		c.buf.WriteString(strings.Repeat("\t", c.indentation))
	}
	for _, line := range s {
		c.buf.WriteString(strings.Repeat("\t", c.indentation))
		c.buf.WriteString(line)
	}
	return c
}

// Writeln writes a formatted line with the current indentation.
func (c *Compiler) Writeln(format string, a ...interface{}) *Compiler {
	if len(a) > 0 {
		format = fmt.Sprintf(format, a...)
	}
	c.Write(format)
	c.buf.WriteByte('\n')
	return c
}

// String writes s as a Go interpreted string literal.
func (c *Compiler) String(s string) *Compiler {
	c.buf.WriteString(strconv.Quote(s))
	return c
}

// Repr writes the Go representation of a value. A float is always written as
// a float literal and the keys of a map are written in sorted order.
func (c *Compiler) Repr(v interface{}) *Compiler {
	switch v := v.(type) {
	case nil:
		c.Raw("nil")
	case bool:
		c.Raw(strconv.FormatBool(v))
	case int:
		c.Raw(strconv.Itoa(v))
	case int64:
		c.Raw(strconv.FormatInt(v, 10))
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if strings.ContainsAny(s, "IN") {
			panic(logicError("cannot represent the float %s", s))
		}
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		c.Raw(s)
	case string:
		c.String(v)
	case []interface{}:
		c.Raw("[]interface{}{")
		for i, e := range v {
			if i > 0 {
				c.Raw(", ")
			}
			c.Repr(e)
		}
		c.Raw("}")
	case []string:
		c.Raw("[]string{")
		for i, e := range v {
			if i > 0 {
				c.Raw(", ")
			}
			c.String(e)
		}
		c.Raw("}")
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		c.Raw("map[string]interface{}{")
		for i, k := range keys {
			if i > 0 {
				c.Raw(", ")
			}
			c.String(k).Raw(": ").Repr(v[k])
		}
		c.Raw("}")
	default:
		panic(logicError("cannot represent a value of type %T", v))
	}
	return c
}

// Indent increases the indentation.
func (c *Compiler) Indent() *Compiler {
	c.indentation++
	return c
}

// Outdent decreases the indentation. It panics if the indentation would
// become negative.
func (c *Compiler) Outdent() *Compiler {
	if c.indentation == 0 {
		panic(logicError("unable to outdent, the indentation would become negative"))
	}
	c.indentation--
	return c
}

// TempName returns a new name for a variable of the generated code.
func (c *Compiler) TempName(prefix string) string {
	name := "__internal_compile_" + prefix + strconv.Itoa(c.varNameSalt)
	c.varNameSalt++
	return name
}

// AddDebugInfo writes a marker with the line of node if it differs from the
// line of the last marker. The markers are turned in the debug info of the
// compiled template after the source has been formatted.
func (c *Compiler) AddDebugInfo(node ast.Node) *Compiler {
	if line := node.Pos(); line > 0 && line != c.lastLine {
		c.Writeln(debugInfoMarker + strconv.Itoa(line))
		c.lastLine = line
	}
	return c
}

// Subcompile compiles node. A statement is written with the current
// indentation, an expression is written as is.
func (c *Compiler) Subcompile(node ast.Node) *Compiler {
	if expr, ok := node.(ast.Expression); ok && !isOutputExpression(expr) {
		c.compileExpr(expr)
		return c
	}
	c.compileNode(node)
	return c
}

// addImport adds an import of the generated file. name is the name used to
// refer the package and it is empty if it is the name of the package.
func (c *Compiler) addImport(path, name string) {
	c.imports[path] = name
}

// isOutputExpression reports whether expr is an expression that renders
// itself, used as a statement.
func isOutputExpression(expr ast.Expression) bool {
	switch n := expr.(type) {
	case *ast.BlockReferenceExpr:
		return n.Output
	case *ast.Parent:
		return n.Output
	}
	return false
}

// debugInfo returns the debug info of a formatted source: the line of the
// first generated line following each marker mapped to the source line.
func debugInfo(src string) map[int]int {
	info := map[int]int{}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, debugInfoMarker) {
			continue
		}
		n, err := strconv.Atoi(line[len(debugInfoMarker):])
		if err != nil {
			continue
		}
		// Line numbers are 1-based and the code follows the marker.
		info[i+2] = n
	}
	return info
}

// debugInfoLiteral returns the Go literal of the elements of a debug info
// map, in order of generated line.
func debugInfoLiteral(info map[int]int) string {
	keys := make([]int, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(k))
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(info[k]))
	}
	return b.String()
}

// identifier returns a Go identifier with the given prefix for a name of a
// block or of a macro.
func identifier(prefix, name string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range name {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_x%x_", r)
		}
	}
	return b.String()
}
