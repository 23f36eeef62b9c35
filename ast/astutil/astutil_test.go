// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package astutil_test

import (
	"bytes"
	"testing"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/ast/astutil"
)

func testModule() *ast.Module {
	return ast.NewModule(ast.Source{Name: "index.html"}, []ast.Node{
		ast.NewText(1, "Hello "),
		ast.NewPrint(1, ast.NewFilter(1, ast.NewName(1, "name"), "upper", nil)),
		ast.NewIf(2, []ast.IfBranch{{
			Cond: ast.NewName(2, "admin"),
			Body: []ast.Node{ast.NewText(2, "!")},
		}}, nil),
	}, nil)
}

func TestChildren(t *testing.T) {
	m := testModule()
	slots := astutil.Children(m)
	names := []string{"body[0]", "body[1]", "body[2]"}
	if len(slots) != len(names) {
		t.Fatalf("unexpected %d children, expecting %d", len(slots), len(names))
	}
	for i, s := range slots {
		if s.Name != names[i] {
			t.Errorf("unexpected name %q, expecting %q", s.Name, names[i])
		}
	}
	ifNode := m.Body[2]
	if !astutil.HasChild(ifNode, "tests[0]") || !astutil.HasChild(ifNode, "bodies[0][0]") {
		t.Fatalf("expecting if children")
	}
	if astutil.HasChild(ifNode, "else[0]") {
		t.Fatalf("unexpected else child")
	}
}

func TestSetChild(t *testing.T) {
	print := ast.NewPrint(4, ast.NewName(4, "a"))
	c := ast.NewConstant(ast.UnknownLine, "b")
	if !astutil.SetChild(print, "expr", c) {
		t.Fatalf("expecting child expr")
	}
	if print.Expr != c {
		t.Fatalf("child has not been replaced")
	}
	if c.Line != 4 {
		t.Fatalf("unexpected line %d, expecting 4", c.Line)
	}
	if astutil.SetChild(print, "body", c) {
		t.Fatalf("unexpected child body")
	}
}

func TestRewriteRemove(t *testing.T) {
	m := testModule()
	astutil.Rewrite(m, func(_ string, child ast.Node) ast.Node {
		if _, ok := child.(*ast.Text); ok {
			return nil
		}
		return child
	})
	if len(m.Body) != 2 {
		t.Fatalf("unexpected %d nodes, expecting 2", len(m.Body))
	}
}

func TestClone(t *testing.T) {
	m := testModule()
	m.Body[1].SetAttr("checked", true)
	c := astutil.Clone(m).(*ast.Module)
	var original, cloned bytes.Buffer
	if err := astutil.Dump(&original, m); err != nil {
		t.Fatal(err)
	}
	if err := astutil.Dump(&cloned, c); err != nil {
		t.Fatal(err)
	}
	if original.String() != cloned.String() {
		t.Fatalf("unexpected clone:\n%s\nexpecting:\n%s", cloned.String(), original.String())
	}
	// The clone must not share nodes, lists and attributes.
	c.Body[1].(*ast.Print).Expr.(*ast.Filter).Name = "lower"
	c.Body[1].SetAttr("checked", false)
	c.Body = c.Body[:1]
	c.Body[0].(*ast.Text).Data = "Bye "
	if m.Body[1].(*ast.Print).Expr.(*ast.Filter).Name != "upper" {
		t.Fatalf("clone shares the filter")
	}
	if m.Body[1].Attr("checked") != true {
		t.Fatalf("clone shares the attributes")
	}
	if len(m.Body) != 3 || m.Body[0].(*ast.Text).Data != "Hello " {
		t.Fatalf("clone shares the body")
	}
}

func TestInspect(t *testing.T) {
	var names []string
	astutil.Inspect(testModule(), func(node ast.Node) bool {
		if n, ok := node.(*ast.Name); ok {
			names = append(names, n.Name)
		}
		return true
	})
	if len(names) != 2 || names[0] != "name" || names[1] != "admin" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestDump(t *testing.T) {
	var b bytes.Buffer
	err := astutil.Dump(&b, testModule())
	if err != nil {
		t.Fatal(err)
	}
	expected := `Module: "index.html"
│    body[0]: Text (1) "Hello "
│    body[1]: Print (1) name|upper
│    │    expr: Filter (1) name|upper
│    │    │    node: Name (1) name
│    body[2]: If (2)
│    │    tests[0]: Name (2) admin
│    │    bodies[0][0]: Text (2) "!"
`
	if b.String() != expected {
		t.Fatalf("unexpected dump:\n%s\nexpecting:\n%s", b.String(), expected)
	}
}
