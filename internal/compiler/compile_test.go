// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open2b/stencil/ast"
)

func compile(t *testing.T, src string, opts Options) string {
	t.Helper()
	opts.NoFormat = true
	unit, err := Compile(ast.Source{Name: "index.html", Code: src}, opts)
	require.NoError(t, err, "source %q", src)
	return string(unit.Code)
}

func TestCompileCode(t *testing.T) {
	tests := []struct {
		src         string
		opts        Options
		contains    []string
		notContains []string
	}{
		{
			src:      `{{ a }}`,
			contains: []string{`w.Print(runtime.FilterEscape(t.Env, ctx["a"], "html", nil, true))`},
		},
		{
			src:         `{{ 'x'|raw }}`,
			contains:    []string{`w.WriteString("x")`},
			notContains: []string{`FilterRaw`, `FilterEscape`},
		},
		{
			src:         `{{ a|raw }}`,
			contains:    []string{`w.Print(ctx["a"])`},
			notContains: []string{`FilterEscape`},
		},
		{
			src:         `{{ a }}`,
			opts:        Options{NoEscape: true},
			contains:    []string{`w.Print(ctx["a"])`},
			notContains: []string{`FilterEscape`},
		},
		{
			src:      `{{ a }}`,
			opts:     Options{NoEscape: true, StrictVariables: true},
			contains: []string{`w.Print(t.Var(ctx, "a"))`},
		},
		{
			src:         `{% for i in 1..3 %}{{ i }}{% endfor %}`,
			notContains: []string{`runtime.NewLoop`},
		},
		{
			src:      `{% for i in 1..3 %}{{ loop.index }}{% endfor %}`,
			contains: []string{`runtime.NewLoop`},
		},
		{
			src:      `{% for i in 1..3 %}{{ i }}{% endfor %}`,
			opts:     Options{NoOptimize: OptimizeFor},
			contains: []string{`runtime.NewLoop`},
		},
		{
			src:      `{{ a }}`,
			opts:     Options{Sandbox: true},
			contains: []string{`t.CheckSecurity(`, `w.Print(t.Env.EnsureToStringAllowed(runtime.FilterEscape(t.Env, t.Env.EnsureToStringAllowed(ctx["a"]), "html", nil, true)))`},
		},
		{
			src:      `{{ a ? 'x' : b.c }}`,
			opts:     Options{Sandbox: true},
			contains: []string{`runtime.InlinePrint(w, runtime.FilterEscape(t.Env, t.Env.EnsureToStringAllowed(`},
		},
		{
			src:      `{{ a }}`,
			opts:     Options{Profile: true},
			contains: []string{`t.Env.Profiler().Enter(t.TemplateName(), "template", "index.html")`, `t.Env.Profiler().Leave(__internal_profile_`},
		},
		{
			src:         `text`,
			notContains: []string{`construct()`},
		},
		{
			src:      `{% block a %}{% endblock %}`,
			contains: []string{`t.construct()`, `t.Blocks = runtime.MergeBlocks(t.Traits, runtime.Blocks{`},
		},
		{
			src:      `{% use 'blocks.html' %}`,
			contains: []string{`t.construct()`, `t.UseTrait(`},
		},
		{
			src:      `text`,
			opts:     Options{Package: "views"},
			contains: []string{"package views\n"},
		},
		{
			src:      `text`,
			opts:     Options{RuntimeImport: "example.com/stencilrt"},
			contains: []string{`runtime "example.com/stencilrt"`},
		},
	}
	for _, test := range tests {
		code := compile(t, test.src, test.opts)
		assert.True(t, strings.HasPrefix(code, "// Code generated by stencil. DO NOT EDIT.\n"), "source %q", test.src)
		for _, s := range test.contains {
			assert.Contains(t, code, s, "source %q", test.src)
		}
		for _, s := range test.notContains {
			assert.NotContains(t, code, s, "source %q", test.src)
		}
	}
}

func TestCompileUnit(t *testing.T) {
	src := "Hello {{ name }}!\n{% embed 'card.html' %}{% block body %}x{% endblock %}{% endembed %}"
	unit, err := Compile(ast.Source{Name: "index.html", Code: src}, Options{NoFormat: true})
	require.NoError(t, err)
	assert.Equal(t, "index.html", unit.Name)
	assert.Equal(t, 1, unit.Embedded)
	code := string(unit.Code)
	assert.Contains(t, code, "type "+UnitTypeName("index.html", 0)+" struct {")
	assert.Contains(t, code, "type "+UnitTypeName("index.html", 1)+" struct {")
	assert.Contains(t, code, `runtime.Register("index.html", 0, func(env *runtime.Env) runtime.Unit {`)
	assert.Contains(t, code, `runtime.Register("index.html", 1, func(env *runtime.Env) runtime.Unit {`)
	assert.NotContains(t, code, debugInfoPlaceholder)
}

func TestUnitTypeName(t *testing.T) {
	name := UnitTypeName("index.html", 0)
	assert.Regexp(t, `^Template_[0-9a-f]{16}_0$`, name)
	assert.Equal(t, name, UnitTypeName("index.html", 0))
	assert.NotEqual(t, name, UnitTypeName("other.html", 0))
	assert.Equal(t, strings.TrimSuffix(name, "0")+"3", UnitTypeName("index.html", 3))
}

func TestCompileIsDeterministic(t *testing.T) {
	src := "{% extends 'base.html' %}\n{% block a %}{{ a|upper }}{% for k, v in b %}{{ k }}{{ loop.index }}{% endfor %}{% endblock %}\n" +
		"{% block b %}{{ {z: 1, a: 2}|keys|join(',') }}{% endblock %}{% macro m(x, y = 2) %}{{ x ~ y }}{% endmacro %}"
	opts := Options{Sandbox: true, Profile: true}
	first, err := Compile(ast.Source{Name: "page.html", Code: src}, opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		unit, err := Compile(ast.Source{Name: "page.html", Code: src}, opts)
		require.NoError(t, err)
		assert.Equal(t, string(first.Code), string(unit.Code))
		assert.Equal(t, first.DebugInfo, unit.DebugInfo)
	}
}

func TestCompileDebugInfo(t *testing.T) {
	src := "a\n{{ b }}\n\n{% if c %}\n{{ d }}{% endif %}"
	unit, err := Compile(ast.Source{Name: "index.html", Code: src}, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, unit.DebugInfo)
	lines := strings.Split(string(unit.Code), "\n")
	seen := map[int]bool{}
	for generated, line := range unit.DebugInfo {
		require.True(t, generated >= 2 && generated <= len(lines), "generated line %d", generated)
		marker := strings.TrimSpace(lines[generated-2])
		assert.Equal(t, debugInfoMarker+strconv.Itoa(line), marker, "generated line %d", generated)
		seen[line] = true
	}
	for _, line := range []int{1, 2, 4, 5} {
		assert.True(t, seen[line], "template line %d has no debug info", line)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src  string
		line int
		msg  string
	}{
		{"{{ a", 1, `Unclosed "variable".`},
		{"\n{{ a|uppercas }}", 2, `Unknown "uppercas" filter.`},
		{"\n\n{{ a|replace }}", 3, `Value for argument "from" is required for filter "replace".`},
		{"{{ a|round(1, 'ceil', 3) }}", 1, `Unknown argument #3 for filter "round(precision, method)".`},
	}
	for _, test := range tests {
		_, err := Compile(ast.Source{Name: "index.html", Code: test.src}, Options{})
		require.Error(t, err, "source %q", test.src)
		var e *SyntaxError
		require.True(t, errors.As(err, &e), "source %q: unexpected error %v", test.src, err)
		assert.Equal(t, "index.html", e.Path, "source %q", test.src)
		assert.Equal(t, test.line, e.Line, "source %q", test.src)
		assert.Contains(t, e.Msg, test.msg, "source %q", test.src)
	}
}

func TestRewrite(t *testing.T) {
	src := `{{ a }}{% embed 'card.html' %}{% block body %}{{ b }}{% endblock %}{% endembed %}`
	modules, err := Rewrite(ast.Source{Name: "index.html", Code: src}, Options{})
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, 0, modules[0].Index)
	assert.Equal(t, 1, modules[1].Index)
	assert.Equal(t, `a|escape("html", null, true)`, printed(t, modules[0]))
	assert.Equal(t, `b|escape("html", null, true)`, printed(t, modules[1]))

	modules, err = Rewrite(ast.Source{Name: "index.html", Code: src}, Options{NoEscape: true})
	require.NoError(t, err)
	assert.Equal(t, `a`, printed(t, modules[0]))
}
