// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mdEscapeCases = []struct {
	src      string
	expected string
}{
	{``, ``},
	{`a`, `a`},
	{`*`, `\*`},
	{`*+`, `\*\+`},
	{`\`, `\\`},
	{`\\`, `\\\\`},
	{"\\`*_{}[]()#+-.!|<&", "\\\\\\`\\*\\_\\{\\}\\[\\]\\(\\)\\#\\+\\-\\.\\!\\|\\<\\&"},
	{`a+è[]b\*c`, `a\+è\[\]b\\\*c`},
	{" ", "\u00a0"},
	{"  ", "\u00a0\u00a0"},
	{" a", "\u00a0a"},
	{"  a", "\u00a0 a"},
	{"a ", "a\u00a0"},
	{"a  ", "a\u00a0\u00a0"},
	{"\t", "\u00a0"},
	{"\t\t", "\u00a0\u00a0"},
	{"\ta", "\u00a0a"},
	{"\t\ta", "\u00a0\ta"},
	{"a\t", "a\u00a0"},
	{"a\t\t", "a\u00a0\u00a0"},
	{" \ta\t ", "\u00a0\ta\u00a0\u00a0"},
}

func TestMarkdownEscape(t *testing.T) {
	for _, cas := range mdEscapeCases {
		var b strings.Builder
		markdownEscape(&b, cas.src)
		assert.Equal(t, cas.expected, b.String(), "src: %q", cas.src)
	}
}

func TestJSStringEscape(t *testing.T) {
	var b strings.Builder
	jsStringEscape(&b, "a\u2028b&\u2029c")
	assert.Equal(t, `a\u2028b\u0026\u2029c`, b.String())
}

func TestFilterEscape(t *testing.T) {
	env := NewEnv(nil)
	tests := []struct {
		value    interface{}
		strategy interface{}
		expected interface{}
	}{
		{`<a href="x">'&'</a>`, "html", Safe(`&lt;a href=&#34;x&#34;&gt;&#39;&amp;&#39;&lt;/a&gt;`)},
		{`a b=c`, "html_attr", Safe(`a&#32;b&#61;c`)},
		{`</script>'`, "js", Safe(`\u003c\/script\u003e\u0027`)},
		{`a"b`, "css", Safe(`a\22 b`)},
		{`a b/c?d=é`, "url", Safe(`a%20b%2Fc%3Fd%3D%C3%A9`)},
		{`*a*`, "markdown", Safe(`\*a\*`)},
		{nil, "html", nil},
		{5, "html", 5},
		{true, "js", true},
		{[]interface{}{"<"}, "html", []interface{}{"<"}},
		{"a", nil, Safe("a")},
		{"\xffa", "html", Safe("\uFFFDa")},
	}
	for _, test := range tests {
		got := FilterEscape(env, test.value, test.strategy, nil, false)
		assert.Equal(t, test.expected, got, "value %#v, strategy %v", test.value, test.strategy)
	}
}

func TestFilterEscapeSafe(t *testing.T) {
	env := NewEnv(nil)
	assert.Equal(t, Safe("<b>"), FilterEscape(env, Safe("<b>"), "html", nil, true))
	assert.Equal(t, Safe("&lt;b&gt;"), FilterEscape(env, Safe("<b>"), "html", nil, false))
}

func TestFilterEscapeErrors(t *testing.T) {
	env := NewEnv(nil)
	require.PanicsWithValue(t,
		errorf("Invalid escaping strategy %q (valid ones: css, html, html_attr, js, markdown, url).", "xml"),
		func() { FilterEscape(env, "a", "xml", nil, false) })
	require.PanicsWithValue(t, errorf("The charset %q is not supported.", "ISO-8859-1"),
		func() { FilterEscape(env, "a", "html", "ISO-8859-1", false) })
}
