// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open2b/stencil/ast"
)

func TestDefault(t *testing.T) {
	r := Default()
	for _, name := range []string{"escape", "e", "raw", "upper", "default", "markdown_to_html"} {
		if r.Filter(name) == nil {
			t.Errorf("missing filter %q", name)
		}
	}
	for _, name := range []string{"range", "max", "include", "cycle"} {
		if r.Function(name) == nil {
			t.Errorf("missing function %q", name)
		}
	}
	for _, name := range []string{"defined", "divisible by", "same as", "null", "none"} {
		if r.Test(name) == nil {
			t.Errorf("missing test %q", name)
		}
	}
	// Variadic callables end with a parameter with an empty array as default.
	for k := FilterKind; k <= TestKind; k++ {
		for _, name := range r.Names(k) {
			c := r.Lookup(k, name)
			if !c.Variadic {
				continue
			}
			last := c.Params[len(c.Params)-1]
			if d, ok := last.Default.([]interface{}); !ok || len(d) != 0 {
				t.Errorf("%s %q: last parameter has default %#v", k, name, last.Default)
			}
		}
	}
}

func TestSafeFor(t *testing.T) {
	r := Default()
	escape := r.Filter("escape")
	tests := []struct {
		args []ast.Argument
		safe []string
	}{
		{nil, []string{"html"}},
		{[]ast.Argument{{Value: ast.NewConstant(1, "js")}}, []string{"js"}},
		{[]ast.Argument{{Value: ast.NewName(1, "strategy")}}, []string{}},
	}
	for _, test := range tests {
		assert.Equal(t, test.safe, escape.SafeFor(test.args))
	}
	assert.Equal(t, []string{"all"}, r.Filter("raw").SafeFor(nil))
	assert.Nil(t, r.Filter("upper").SafeFor(nil))
	assert.Equal(t, "html", r.Filter("nl2br").PreEscape)
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		c   *Callable
		err string
	}{
		{&Callable{Kind: FilterKind}, "builtin: filter has no name"},
		{&Callable{Kind: Kind(5), Name: "a"}, `builtin: invalid kind 5 for "a"`},
		{&Callable{Kind: FunctionKind, Name: "f", Params: []Param{{}}}, `builtin: function "f" has a parameter with no name`},
		{&Callable{Kind: TestKind, Name: "t", Params: []Param{Required("a"), Required("a")}}, `builtin: test "t" has a duplicated parameter "a"`},
	}
	for _, test := range tests {
		err := r.Add(test.c)
		if assert.Error(t, err) {
			assert.Equal(t, test.err, err.Error())
		}
	}
	require.NoError(t, r.Add(&Callable{Kind: FilterKind, Name: "b"}, &Callable{Kind: FilterKind, Name: "a"}))
	assert.Equal(t, []string{"a", "b"}, r.FilterNames())
	assert.Empty(t, r.FunctionNames())

	c := r.Clone()
	require.NoError(t, c.Add(&Callable{Kind: FilterKind, Name: "c"}))
	assert.Nil(t, r.Filter("c"))
	assert.NotNil(t, c.Filter("a"))
}

func TestCallableMessages(t *testing.T) {
	c := &Callable{Kind: FilterKind, Name: "old", Params: []Param{Required("value"), Optional("n", 1)}, Deprecated: "2.1", Alternative: "new"}
	assert.Equal(t, `filter "old" is deprecated since version 2.1, use "new" instead`, c.DeprecationMessage())
	assert.Equal(t, "old(value, n)", c.Signature())
}

const registryYAML = `
filters:
  - name: money
    func: shop.Money
    params:
      - name: value
      - name: currency
        default: EUR
      - name: precision
        optional: true
    safe: [html]
functions:
  - name: now
    func: shop.Now
    needs_env: true
    params:
      - name: zones
        default: []
    variadic: true
tests:
  - name: expensive
    func: shop.IsExpensive
    params:
      - name: value
      - name: limit
        default: 100
`

func TestLoadYAML(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadYAML(strings.NewReader(registryYAML)))

	money := r.Filter("money")
	require.NotNil(t, money)
	assert.Equal(t, "shop.Money", money.Func)
	assert.Equal(t, []string{"html"}, money.Safe)
	require.Len(t, money.Params, 3)
	assert.Equal(t, Required("value"), money.Params[0])
	assert.Equal(t, Optional("currency", "EUR"), money.Params[1])
	assert.Equal(t, Param{Name: "precision", Optional: true}, money.Params[2])

	now := r.Function("now")
	require.NotNil(t, now)
	assert.True(t, now.NeedsEnv)
	assert.True(t, now.Variadic)
	assert.Equal(t, []interface{}{}, now.Params[0].Default)

	expensive := r.Test("expensive")
	require.NotNil(t, expensive)
	assert.Equal(t, 100, expensive.Params[1].Default)
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{"filters:\n  - name: a\n", `builtin: filter "a" has no func`},
		{"functions:\n  - name: f\n    func: p.F\n    params:\n      - default: 1\n", `builtin: function "f" has a parameter with no name`},
		{"filters:\n  - name: a\n    fnc: p.A\n", "builtin: cannot decode registry"},
	}
	for _, test := range tests {
		err := NewRegistry().LoadYAML(strings.NewReader(test.src))
		if assert.Error(t, err, test.src) {
			assert.Contains(t, err.Error(), test.err)
		}
	}
	assert.NoError(t, NewRegistry().LoadYAML(strings.NewReader("")))
}
