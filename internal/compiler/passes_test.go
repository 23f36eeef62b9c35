// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/ast/astutil"
	"github.com/open2b/stencil/builtin"
)

// rewrite parses src as the template name and applies passes to it.
func rewrite(t *testing.T, name, src string, passes ...Pass) *ast.Module {
	t.Helper()
	tree, err := ParseTemplate(ast.Source{Name: name, Code: src}, nil, nil)
	require.NoError(t, err, "source %q", src)
	return NewTraverser(nil, passes...).Traverse(tree).(*ast.Module)
}

// printed returns the expression of the first print statement of node.
func printed(t *testing.T, node ast.Node) string {
	t.Helper()
	var expr ast.Expression
	astutil.Inspect(node, func(n ast.Node) bool {
		if expr != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.Print:
			expr = n.Expr
		case *ast.SandboxedPrint:
			expr = n.Expr
		case *ast.Do:
			expr = n.Expr
		}
		return expr == nil
	})
	require.NotNil(t, expr, "no print statement")
	return expr.String()
}

func TestIntersectSafe(t *testing.T) {
	sets := [][]string{
		{},
		{"html"},
		{"js", "html"},
		{"css", "html", "html"},
		{"url"},
		{"all"},
	}
	for _, x := range sets {
		assert.Equal(t, normalizeSafe(x), intersectSafe(x, safeAll), "intersect(%v, all)", x)
		assert.Equal(t, normalizeSafe(x), intersectSafe(safeAll, x), "intersect(all, %v)", x)
		assert.Equal(t, []string{}, intersectSafe(x, nil), "intersect(%v, nil)", x)
		for _, y := range sets {
			assert.Equal(t, intersectSafe(x, y), intersectSafe(y, x), "intersect(%v, %v)", x, y)
		}
	}
	assert.Equal(t, []string{"html"}, intersectSafe([]string{"js", "html"}, []string{"html", "css"}))
	assert.Equal(t, []string{"css", "html"}, normalizeSafe([]string{"html", "css", "html"}))
	assert.Equal(t, safeAll, normalizeSafe([]string{"html", "all"}))
}

func TestSafetyAnalysis(t *testing.T) {
	tests := []struct {
		src  string
		safe []string
	}{
		{`{{ 'a' }}`, []string{"all"}},
		{`{{ a }}`, []string{}},
		{`{{ a|raw }}`, []string{"all"}},
		{`{{ a|escape }}`, []string{"html"}},
		{`{{ a|escape('js') }}`, []string{"js"}},
		{`{{ a|escape(b) }}`, []string{}},
		{`{{ a|upper }}`, []string{}},
		{`{{ a|nl2br }}`, []string{"html"}},
		{`{{ a ? 'x' : 'y' }}`, []string{"all"}},
		{`{{ a ? 'x' : b|escape }}`, []string{"html"}},
		{`{{ a ? 'x' : b }}`, []string{}},
		{`{{ include('a.html') }}`, []string{"all"}},
	}
	for _, test := range tests {
		tree := parse(t, test.src)
		print, ok := tree.Body[0].(*ast.Print)
		require.True(t, ok, "source %q", test.src)
		sa := NewSafetyAnalysis(builtin.Default())
		NewTraverser(nil, sa).Traverse(print.Expr)
		safe, ok := sa.Safe(print.Expr)
		require.True(t, ok, "source %q", test.src)
		assert.Equal(t, test.safe, safe, "source %q", test.src)
	}
}

func TestEscaper(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"index.html", `{{ a }}`, `a|escape("html", null, true)`},
		{"index.html", `{{ 'x' }}`, `"x"`},
		{"index.html", `{{ a|raw }}`, `a|raw`},
		{"index.html", `{{ a|upper }}`, `a|upper|escape("html", null, true)`},
		{"index.html", `{{ a|e }}`, `a|e`},
		{"index.html", `{{ a|escape('js') }}`, `a|escape("js")|escape("html", null, true)`},
		{"index.html", `{{ a|nl2br }}`, `a|escape("html", null, true)|nl2br`},
		{"index.html", `{{ a ? 'x' : b }}`, `(a ? "x" : b|escape("html", null, true))`},
		{"index.html", `{{ a ? b : c }}`, `(a ? b : c)|escape("html", null, true)`},
		{"index.html", `{% autoescape 'js' %}{{ a }}{% endautoescape %}`, `a|escape("js", null, true)`},
		{"index.html", `{% autoescape false %}{{ a }}{% endautoescape %}`, `a`},
		{"index.html", `{% import 'forms.html' as forms %}{{ forms.input() }}`, `forms.input()`},
		{"app.js", `{{ a }}`, `a|escape("js", null, true)`},
		{"style.css", `{{ a }}`, `a|escape("css", null, true)`},
		{"mail.txt", `{{ a }}`, `a`},
	}
	for _, test := range tests {
		tree := rewrite(t, test.name, test.src, NewEscaper(builtin.Default(), NameStrategy))
		assert.Equal(t, test.expected, printed(t, tree), "%s: source %q", test.name, test.src)
	}
}

func TestEscaperStaticStrategy(t *testing.T) {
	tree := rewrite(t, "mail.txt", `{{ a }}`, NewEscaper(builtin.Default(), StaticStrategy("html")))
	assert.Equal(t, `a|escape("html", null, true)`, printed(t, tree))
	tree = rewrite(t, "index.html", `{{ a }}`, NewEscaper(builtin.Default(), StaticStrategy("")))
	assert.Equal(t, `a`, printed(t, tree))
}

func TestEscaperUnwrapsConditional(t *testing.T) {
	tree := rewrite(t, "index.html", `{{ a ? 'x' : b }}`, NewEscaper(builtin.Default(), nil))
	do, ok := tree.Body[0].(*ast.Do)
	require.True(t, ok, "expected a do statement, got %T", tree.Body[0])
	cond, ok := do.Expr.(*ast.Conditional)
	require.True(t, ok)
	assert.IsType(t, &ast.InlinePrint{}, cond.Then)
	assert.IsType(t, &ast.InlinePrint{}, cond.Else)
}

func TestOptimizeFor(t *testing.T) {
	tests := []struct {
		src       string
		withLoops []bool
	}{
		{`{% for i in 1..3 %}{{ i }}{% endfor %}`, []bool{false}},
		{`{% for i in 1..3 %}{{ loop.index }}{% endfor %}`, []bool{true}},
		{`{% for k, v in a %}{{ k }}{{ v }}{% endfor %}`, []bool{false}},
		{`{% for i in a %}{% for j in i %}{{ j }}{% endfor %}{% endfor %}`, []bool{false, false}},
		{`{% for i in a %}{% for j in i %}{{ loop.index }}{% endfor %}{% endfor %}`, []bool{false, true}},
		{`{% for i in a %}{% for j in i %}{{ loop.parent.loop.index }}{% endfor %}{% endfor %}`, []bool{true, true}},
		{`{% for i in a %}{% include 'b.html' %}{% endfor %}`, []bool{true}},
		{`{% for i in a %}{% include 'b.html' only %}{% endfor %}`, []bool{false}},
		{`{% for i in a %}{{ include('b.html') }}{% endfor %}`, []bool{true}},
		{`{% for i in a %}{{ include('b.html', with_context = false) }}{% endfor %}`, []bool{false}},
		{`{% for i in a %}{{ block('b') }}{% endfor %}`, []bool{true}},
		{`{% for i in a %}{{ i[k] }}{% endfor %}`, []bool{false}},
	}
	for _, test := range tests {
		tree := rewrite(t, "index.html", test.src, NewOptimizer(OptimizeFor))
		var withLoops []bool
		astutil.Inspect(tree, func(n ast.Node) bool {
			if f, ok := n.(*ast.For); ok {
				withLoops = append(withLoops, f.WithLoop)
			}
			return true
		})
		assert.Equal(t, test.withLoops, withLoops, "source %q", test.src)
	}
}

func TestOptimizeForDefinesTargets(t *testing.T) {
	tree := rewrite(t, "index.html", `{% for i in a %}{{ i }}{{ b }}{% endfor %}`, NewOptimizer(OptimizeFor))
	defined := map[string]bool{}
	astutil.Inspect(tree, func(n ast.Node) bool {
		if name, ok := n.(*ast.Name); ok {
			defined[name.Name] = name.AlwaysDefined
		}
		return true
	})
	assert.True(t, defined["i"])
	assert.False(t, defined["b"])
	assert.False(t, defined["a"])
}

func TestOptimizeRawFilterAndPrint(t *testing.T) {
	tree := rewrite(t, "index.html", `{{ a|raw|upper }}`, NewOptimizer(OptimizeRawFilter))
	assert.Equal(t, `a|upper`, printed(t, tree))

	tree = rewrite(t, "index.html", `{{ 'x' }}`, NewOptimizer(OptimizePrint))
	require.Len(t, tree.Body, 1)
	text, ok := tree.Body[0].(*ast.Text)
	require.True(t, ok, "expected a text, got %T", tree.Body[0])
	assert.Equal(t, "x", text.Data)

	tree = rewrite(t, "index.html", `{{ 5 }}`, NewOptimizer(OptimizePrint))
	assert.IsType(t, &ast.Print{}, tree.Body[0])

	tree = rewrite(t, "index.html", `{{ 'x' }}`, NewOptimizer(OptimizeNone))
	assert.IsType(t, &ast.Print{}, tree.Body[0])
}

func TestOptimizerRunsAfterEscaper(t *testing.T) {
	// The escaper sees the raw filter before the optimizer removes it.
	tree := rewrite(t, "index.html", `{{ a|raw }}`, NewOptimizer(OptimizeAll), NewEscaper(builtin.Default(), nil))
	assert.Equal(t, `a`, printed(t, tree))
}

func TestSandbox(t *testing.T) {
	src := "{% for i in 1..3 %}\n{{ i|upper }}{{ i|upper|lower }}{{ max(i, 2) }}\n{% endfor %}{% if a %}{% endif %}"
	tree := rewrite(t, "index.html", src, NewSandbox())

	start := tree.Points[ast.DisplayStart]
	require.NotEmpty(t, start)
	check, ok := start[0].(*ast.CheckSecurity)
	require.True(t, ok, "expected a security check, got %T", start[0])
	assert.Equal(t, []ast.Usage{{Name: "for", Line: 1}, {Name: "if", Line: 3}}, check.Tags)
	assert.Equal(t, []ast.Usage{{Name: "upper", Line: 2}, {Name: "lower", Line: 2}}, check.Filters)
	assert.Equal(t, []ast.Usage{{Name: "range", Line: 1}, {Name: "max", Line: 2}}, check.Functions)

	var prints, sandboxed int
	astutil.Inspect(tree, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Print:
			prints++
		case *ast.SandboxedPrint:
			sandboxed++
		}
		return true
	})
	assert.Equal(t, 0, prints)
	assert.Equal(t, 3, sandboxed)
}

func TestSandboxTags(t *testing.T) {
	tests := []struct {
		src  string
		tags []ast.Usage
	}{
		{"{% extends 'layout.html' %}\n{% block a %}{% endblock %}", []ast.Usage{{Name: "extends", Line: 1}, {Name: "block", Line: 2}}},
		{"{% macro m() %}{% endmacro %}", []ast.Usage{{Name: "macro", Line: 1}}},
		{"{% use 'blocks.html' %}\n{% block a %}{% endblock %}", []ast.Usage{{Name: "block", Line: 2}, {Name: "use", Line: 1}}},
		{"{% embed 'card.html' %}{% endembed %}", []ast.Usage{{Name: "embed", Line: 1}}},
	}
	for _, test := range tests {
		tree := rewrite(t, "index.html", test.src, NewSandbox())
		check, ok := tree.Points[ast.DisplayStart][0].(*ast.CheckSecurity)
		require.True(t, ok, "source %q", test.src)
		assert.Equal(t, test.tags, check.Tags, "source %q", test.src)
	}
}

// checkedOperand returns the operand of the escape filter of the first print
// statement of node.
func checkedOperand(t *testing.T, node ast.Node) ast.Expression {
	t.Helper()
	var filter *ast.Filter
	astutil.Inspect(node, func(n ast.Node) bool {
		if f, ok := n.(*ast.Filter); ok && f.Name == "escape" && filter == nil {
			filter = f
		}
		return filter == nil
	})
	require.NotNil(t, filter, "no escape filter")
	return filter.Node
}

func TestSandboxWithEscaper(t *testing.T) {
	passes := func() []Pass {
		return []Pass{NewEscaper(builtin.Default(), nil), NewSandbox()}
	}

	// The value is checked before the escape filter converts it.
	tree := rewrite(t, "index.html", `{{ a }}`, passes()...)
	assert.Equal(t, `a|escape("html", null, true)`, printed(t, tree))
	check, ok := checkedOperand(t, tree).(*ast.CheckToString)
	require.True(t, ok, "expected a string check, got %T", checkedOperand(t, tree))
	assert.Equal(t, "a", check.Expr.String())

	tree = rewrite(t, "index.html", `{{ a.b|upper }}`, passes()...)
	assert.IsType(t, &ast.CheckToString{}, checkedOperand(t, tree).(*ast.Filter).Node)

	// Conditional branches printed inline.
	tree = rewrite(t, "index.html", `{{ a ? 'x' : b }}`, passes()...)
	do, ok := tree.Body[0].(*ast.Do)
	require.True(t, ok, "expected a do statement, got %T", tree.Body[0])
	inline, ok := do.Expr.(*ast.Conditional).Else.(*ast.InlinePrint)
	require.True(t, ok)
	assert.IsType(t, &ast.CheckToString{}, inline.Expr.(*ast.Filter).Node)

	// Without escaping.
	tree = rewrite(t, "index.html", `{{ a ~ 'x' }}`, NewSandbox())
	concat := tree.Body[0].(*ast.SandboxedPrint).Expr.(*ast.Binary)
	assert.IsType(t, &ast.CheckToString{}, concat.Left)
	assert.IsType(t, &ast.Constant{}, concat.Right)

	module := rewrite(t, "index.html", `x`)
	module.Body = []ast.Node{ast.NewDo(1, ast.NewInlinePrint(1, ast.NewName(1, "a")))}
	module = NewTraverser(nil, NewSandbox()).Traverse(module).(*ast.Module)
	assert.IsType(t, &ast.CheckToString{}, module.Body[0].(*ast.Do).Expr.(*ast.InlinePrint).Expr)
}

func TestProfiler(t *testing.T) {
	src := `{% block a %}x{% endblock %}{% macro m() %}y{% endmacro %}`
	tree := rewrite(t, "index.html", src, NewProfiler())

	name := regexp.MustCompile(`^__internal_profile_[0-9a-f]{16}$`)

	start := tree.Points[ast.DisplayStart]
	require.NotEmpty(t, start)
	enter, ok := start[0].(*ast.ProfilerEnter)
	require.True(t, ok)
	assert.Equal(t, ast.ProfileTemplate, enter.Kind)
	assert.Equal(t, "index.html", enter.Name)
	assert.Regexp(t, name, enter.VarName)

	end := tree.Points[ast.DisplayEnd]
	require.NotEmpty(t, end)
	leave, ok := end[len(end)-1].(*ast.ProfilerLeave)
	require.True(t, ok)
	assert.Equal(t, enter.VarName, leave.VarName)

	require.Len(t, tree.Blocks, 1)
	body := tree.Blocks[0].Body
	require.Len(t, body, 3)
	blockEnter, ok := body[0].(*ast.ProfilerEnter)
	require.True(t, ok)
	assert.Equal(t, ast.ProfileBlock, blockEnter.Kind)
	assert.Regexp(t, name, blockEnter.VarName)
	assert.NotEqual(t, enter.VarName, blockEnter.VarName)
	assert.IsType(t, &ast.ProfilerLeave{}, body[2])

	require.Len(t, tree.Macros, 1)
	macroEnter, ok := tree.Macros[0].Body[0].(*ast.ProfilerEnter)
	require.True(t, ok)
	assert.Equal(t, ast.ProfileMacro, macroEnter.Kind)

	// The names do not change from a compilation to another.
	again := rewrite(t, "index.html", src, NewProfiler())
	assert.Equal(t, enter.VarName, again.Points[ast.DisplayStart][0].(*ast.ProfilerEnter).VarName)
	assert.Equal(t, blockEnter.VarName, again.Blocks[0].Body[0].(*ast.ProfilerEnter).VarName)

	other := rewrite(t, "other.html", src, NewProfiler())
	assert.NotEqual(t, enter.VarName, other.Points[ast.DisplayStart][0].(*ast.ProfilerEnter).VarName)
}

// recorder is a pass that records the order in which it is applied.
type recorder struct {
	name     string
	priority int
	log      *[]string
}

func (r recorder) Name() string  { return r.name }
func (r recorder) Priority() int { return r.priority }

func (r recorder) Enter(node ast.Node) ast.Node {
	if _, ok := node.(*ast.Module); ok {
		*r.log = append(*r.log, r.name+" enter")
	}
	return node
}

func (r recorder) Leave(node ast.Node) ast.Node {
	switch node.(type) {
	case *ast.Module:
		*r.log = append(*r.log, r.name+" leave")
	case *ast.Text:
		if r.name == "untext" {
			return nil
		}
	}
	return node
}

func TestTraverser(t *testing.T) {
	var log []string
	tree := rewrite(t, "index.html", `a{{ b }}c`,
		recorder{"late", 255, &log},
		recorder{"first", 0, &log},
		recorder{"untext", 10, &log},
		recorder{"second", 0, &log},
	)
	assert.Equal(t, []string{
		"first enter", "first leave",
		"second enter", "second leave",
		"untext enter", "untext leave",
		"late enter", "late leave",
	}, log)
	require.Len(t, tree.Body, 1)
	assert.IsType(t, &ast.Print{}, tree.Body[0])
}

func TestTraverserPreTraversal(t *testing.T) {
	tree := parse(t, `b`)
	tree.Points[ast.PreTraversal] = []ast.Node{ast.NewText(1, "a")}
	tree = NewTraverser(nil).Traverse(tree).(*ast.Module)
	require.Len(t, tree.Body, 2)
	assert.Equal(t, "a", tree.Body[0].(*ast.Text).Data)
	assert.Empty(t, tree.Points[ast.PreTraversal])
}
