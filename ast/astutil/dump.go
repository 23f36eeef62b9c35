// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package astutil implements functions to enumerate, rewrite, clone, walk
// and dump a tree.
package astutil

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/open2b/stencil/ast"
)

type dumper struct {
	output      io.Writer
	indentLevel int
	names       []string // names of the slots to print, in visit order.
}

type errVisitor struct {
	err error
}

func (e errVisitor) Error() string {
	return e.err.Error()
}

// Visit writes the representation of node, correctly indented.
func (d *dumper) Visit(node ast.Node) Visitor {

	if node == nil {
		d.indentLevel--
		return nil
	}

	d.indentLevel++

	if n, ok := node.(*ast.Module); ok {
		d.write("Module: %s\n", strconv.Quote(n.Source.Name))
		d.pushNames(n)
		return d
	}

	var text string
	switch n := node.(type) {
	case *ast.Text:
		text = strconv.Quote(truncate(n.Data, 30))
	case *ast.Block:
		text = n.Name
	case *ast.BlockReference:
		text = n.Name
	case *ast.Macro:
		text = n.Name
	case *ast.For:
		text = n.ValueTarget.Name + " in " + n.Seq.String()
	case *ast.Print:
		text = n.Expr.String()
	case *ast.ProfilerEnter:
		text = n.Kind + " " + n.Name
	case ast.Expression:
		text = n.String()
	}

	name := ""
	if len(d.names) > 0 {
		name = d.names[0]
		d.names = d.names[1:]
	}

	d.write("%s", strings.Repeat("│    ", d.indentLevel))
	typ := fmt.Sprintf("%T", node)[5:]
	if name != "" {
		typ = name + ": " + typ
	}
	line := "?"
	if l := node.Pos(); l != ast.UnknownLine {
		line = strconv.Itoa(l)
	}
	if text == "" {
		d.write("%s (%s)", typ, line)
	} else {
		d.write("%s (%s) %s", typ, line, text)
	}
	for _, a := range node.Attrs() {
		d.write(" %s=%v", a.Name, a.Value)
	}
	d.write("\n")
	d.pushNames(node)

	return d
}

// pushNames prepends the names of the children of node to the names that
// have still to be printed.
func (d *dumper) pushNames(node ast.Node) {
	slots := Children(node)
	names := make([]string, len(slots), len(slots)+len(d.names))
	for i, s := range slots {
		names[i] = s.Name
	}
	d.names = append(names, d.names...)
}

func (d *dumper) write(format string, a ...interface{}) {
	_, err := fmt.Fprintf(d.output, format, a...)
	if err != nil {
		panic(errVisitor{err})
	}
}

// Dump writes the dump of node on w. Embedded templates of a module are
// dumped after the module.
func Dump(w io.Writer, node ast.Node) (err error) {

	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(errVisitor); ok {
				err = t.err
			} else {
				panic(r)
			}
		}
	}()

	if node == nil {
		return errors.New("can't dump a nil tree")
	}

	d := dumper{output: w, indentLevel: -1}
	Walk(&d, node)

	if m, ok := node.(*ast.Module); ok {
		for _, e := range m.Embedded {
			if err := Dump(w, e); err != nil {
				return err
			}
		}
	}

	return nil
}

func truncate(s string, maxRunes int) string {
	if maxRunes < 0 {
		panic("astutil: maxRunes can not be negative")
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
