// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/open2b/stencil/ast"
)

var typeCheckTemplates = []struct {
	name string
	src  string
	opts Options
}{
	{"loop.html", `{% for i in 1..3 %}{{ i }}{% endfor %}`, Options{}},
	{"items.html", `<ul>{% for k, v in items %}<li>{{ loop.index }} {{ k }}: {{ v|upper }}</li>{% else %}none{% endfor %}</ul>`, Options{}},
	{"layout.html", "<title>{% block title %}Home{% endblock %}</title>\n{% block body %}{% endblock %}", Options{}},
	{"page.html", "{% extends 'layout.html' %}\n{% block title %}{{ parent() }} - {{ title|default('Page') }}{% endblock %}" +
		"{% block body %}{{ block('title') }}{% endblock %}", Options{}},
	{"card.html", `<div>{% block body %}{% endblock %}</div>`, Options{}},
	{"embed.html", `{% embed 'card.html' with {a: 1} %}{% block body %}{{ a ~ b }}{% endblock %}{% endembed %}`, Options{}},
	{"forms.html", "{% macro input(name, value = '', type = 'text') %}<input type=\"{{ type }}\" name=\"{{ name }}\" value=\"{{ value|e('html_attr') }}\">{% endmacro %}\n" +
		"{% import _self as forms %}{{ forms.input('q', q) }}", Options{}},
	{"traits.html", "{% use 'card.html' with body as content %}\n{{ block('content') }}", Options{}},
	{"sandboxed.html", "{% set s = a ~ 'x' %}{{ a }}{{ a.b|lower }}{{ c ? 'x' : d }}{{ max(1, e) }}{% if f %}{{ f }}{% endif %}",
		Options{Sandbox: true}},
	{"profiled.html", `{% block a %}{{ a }}{% endblock %}{% macro m() %}{% endmacro %}`, Options{Profile: true, StrictVariables: true}},
	{"mail.txt", `Hello {{ name }}, {{ amount|number_format(2) }} {{ 'now'|date('Y') }}`, Options{}},
}

// TestGeneratedCodeTypeChecks compiles templates in a package of the module
// and type-checks the generated code.
func TestGeneratedCodeTypeChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not found")
	}

	dir, err := os.MkdirTemp(".", "typecheck")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	for i, tpl := range typeCheckTemplates {
		opts := tpl.opts
		opts.Package = "views"
		unit, err := Compile(ast.Source{Name: tpl.name, Code: tpl.src}, opts)
		require.NoError(t, err, "template %s", tpl.name)
		file := filepath.Join(dir, "unit_"+strconv.Itoa(i)+".go")
		require.NoError(t, os.WriteFile(file, unit.Code, 0o644))
	}

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:  abs,
	}
	pkgs, err := packages.Load(cfg, ".")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "views", pkgs[0].Name)
	for _, e := range pkgs[0].Errors {
		t.Errorf("%s", e)
	}
	require.NotNil(t, pkgs[0].Types)
	for _, tpl := range typeCheckTemplates {
		typ := UnitTypeName(tpl.name, 0)
		assert.NotNil(t, pkgs[0].Types.Scope().Lookup(typ), "type %s of %s", typ, tpl.name)
	}
}
