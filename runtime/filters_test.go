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

func TestStringFilters(t *testing.T) {
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"abbreviate short", FilterAbbreviate("hello", 10), "hello"},
		{"abbreviate", FilterAbbreviate("Lorem ipsum dolor sit amet", 15), "Lorem ipsum..."},
		{"abbreviate comma", FilterAbbreviate("Lorem ipsum, dolor", 15), "Lorem ipsum..."},
		{"capitalize", FilterCapitalize("hELLO wORLD"), "Hello world"},
		{"title", FilterTitle("hELLO wORLD"), "Hello World"},
		{"upper", FilterUpper("àbc"), "ÀBC"},
		{"lower", FilterLower("ÀBC"), "àbc"},
		{"kebab", FilterKebab("HelloWorld foo_bar"), "hello-world-foo-bar"},
		{"kebab acronym", FilterKebab("parseHTTPRequest"), "parse-http-request"},
		{"slug", FilterSlug("Hello, World!"), "hello-world"},
		{"trim", FilterTrim("  a  ", nil, "both"), "a"},
		{"trim left", FilterTrim("xxaxx", "x", "left"), "axx"},
		{"trim right", FilterTrim("xxaxx", "x", "right"), "xxa"},
		{"replace", FilterReplace("I like this and that", NewMap("this", "cats", "that", "dogs")), "I like cats and dogs"},
		{"replace longest", FilterReplace("abc", NewMap("a", "1", "ab", "2")), "2c"},
		{"reverse string", FilterReverse("àbc", false), "cbà"},
		{"first string", FilterFirst("àbc"), "à"},
		{"last string", FilterLast("abc"), "c"},
		{"slice string", FilterSlice("abcdef", 1, 2, false), "bc"},
		{"slice negative", FilterSlice("abcdef", -2, nil, false), "ef"},
		{"slice negative length", FilterSlice("abcdef", 1, -2, false), "bcd"},
		{"url encode", FilterURLEncode("a b&c"), "a%20b%26c"},
		{"url encode array", FilterURLEncode(NewMap("a", "1 2", "b", "x")), "a=1%202&b=x"},
		{"nl2br", FilterNl2br("a\nb\r\nc"), Safe("a<br />\nb<br />\r\nc")},
		{"spaceless", FilterSpaceless("<div>\n  <b>a</b>\n</div>"), Safe("<div><b>a</b></div>")},
		{"striptags", FilterStripTags("<p>a &amp; <b>b</b></p>", nil), "a & b"},
		{"striptags allowed", FilterStripTags("<p>a <b>b</b></p>", "<b>"), "a <b>b</b>"},
		{"sanitize", FilterSanitizeHTML(`<a href="http://x" onclick="y">a</a><script>b</script>`), Safe(`<a href="http://x" rel="nofollow">a</a>`)},
		{"markdown", FilterMarkdownToHTML("# Title\n\n*a*"), Safe("<h1>Title</h1>\n<p><em>a</em></p>\n")},
		{"raw", FilterRaw("<b>"), "<b>"},
		{"length", FilterLength("àbc"), 3},
		{"default", FilterDefault("", "x"), "x"},
		{"default zero", FilterDefault(0, "x"), 0},
		{"abs", FilterAbs(-3), 3},
		{"abs float", FilterAbs("-1.5"), 1.5},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.got, test.name)
	}
}

func TestArrayFilters(t *testing.T) {
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"first", FilterFirst([]interface{}{1, 2}), 1},
		{"first empty", FilterFirst([]interface{}{}), nil},
		{"last", FilterLast(NewMap("a", 1, "b", 2)), 2},
		{"keys", FilterKeys(NewMap("a", 1, "b", 2)), []interface{}{"a", "b"}},
		{"keys null", FilterKeys(nil), []interface{}{}},
		{"join", FilterJoin([]interface{}{1, 2, 3}, ", ", nil), "1, 2, 3"},
		{"join and", FilterJoin([]interface{}{1, 2, 3}, ", ", " and "), "1, 2 and 3"},
		{"join one", FilterJoin([]interface{}{1}, ", ", " and "), "1"},
		{"merge sequences", FilterMerge([]interface{}{1, 2}, []interface{}{3}), []interface{}{1, 2, 3}},
		{"reverse", FilterReverse([]interface{}{1, 2, 3}, false), []interface{}{3, 2, 1}},
		{"slice", FilterSlice([]interface{}{1, 2, 3, 4}, 1, 2, false), []interface{}{2, 3}},
		{"split", FilterSplit("a,b,c", ",", nil), []interface{}{"a", "b", "c"}},
		{"split limit", FilterSplit("a,b,c", ",", 2), []interface{}{"a", "b,c"}},
		{"split negative limit", FilterSplit("a,b,c", ",", -1), []interface{}{"a", "b"}},
		{"split chars", FilterSplit("abc", "", nil), []interface{}{"a", "b", "c"}},
		{"split chunks", FilterSplit("abcde", "", 2), []interface{}{"ab", "cd", "e"}},
		{"column", FilterColumn([]interface{}{NewMap("id", 1, "name", "a"), NewMap("id", 2, "name", "b")}, "name", nil), []interface{}{"a", "b"}},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.got, test.name)
	}
}

func TestFilterMerge(t *testing.T) {
	m := FilterMerge(NewMap("a", 1, "b", 2), NewMap("b", 3, 0, "x")).(*Map)
	assert.Equal(t, []interface{}{"a", "b", 0}, m.Keys())
	assert.Equal(t, []interface{}{1, 3, "x"}, m.Values())
	require.PanicsWithValue(t, errorf("The merge filter only works with arrays, got %q as first argument.", "string"),
		func() { FilterMerge("a", []interface{}{}) })
}

func TestFilterColumnIndex(t *testing.T) {
	type row struct {
		ID   int
		Name string
	}
	m := FilterColumn([]interface{}{row{10, "a"}, row{20, "b"}}, "Name", "ID").(*Map)
	assert.Equal(t, []interface{}{10, 20}, m.Keys())
	assert.Equal(t, []interface{}{"a", "b"}, m.Values())
}

func TestFilterSort(t *testing.T) {
	m := FilterSort([]interface{}{3, 1, 2}).(*Map)
	assert.Equal(t, []interface{}{1, 2, 0}, m.Keys())
	assert.Equal(t, []interface{}{1, 2, 3}, m.Values())
	m = FilterSort(NewMap("x", "b", "y", "a")).(*Map)
	assert.Equal(t, []interface{}{"y", "x"}, m.Keys())
}

func TestFilterBatch(t *testing.T) {
	batches := FilterBatch([]interface{}{"a", "b", "c"}, 2, "-", false).([]interface{})
	require.Len(t, batches, 2)
	assert.Equal(t, []interface{}{"a", "b"}, batches[0].(*Map).Values())
	assert.Equal(t, []interface{}{"c", "-"}, batches[1].(*Map).Values())
	batches = FilterBatch([]interface{}{"a", "b", "c"}, 2, nil, true).([]interface{})
	assert.Equal(t, []interface{}{2}, batches[1].(*Map).Keys())
}

func TestFilterFormat(t *testing.T) {
	tests := []struct {
		format   string
		args     []interface{}
		expected string
	}{
		{"%s and %s", []interface{}{"a", "b"}, "a and b"},
		{"%d%%", []interface{}{"42abc"}, "42%"},
		{"%05d", []interface{}{-42}, "-0042"},
		{"%-5s|", []interface{}{"ab"}, "ab   |"},
		{"%'*6s", []interface{}{"ab"}, "****ab"},
		{"%.2f", []interface{}{3.14159}, "3.14"},
		{"%+d", []interface{}{5}, "+5"},
		{"%x %X %o %b", []interface{}{255, 255, 8, 5}, "ff FF 10 101"},
		{"%c", []interface{}{65}, "A"},
		{"%2$s %1$s", []interface{}{"a", "b"}, "b a"},
		{"%.1e", []interface{}{1500}, "1.5e+3"},
		{"%.3s", []interface{}{"abcdef"}, "abc"},
	}
	for _, test := range tests {
		got := FilterFormat(test.format, test.args)
		assert.Equal(t, test.expected, got, "format %q", test.format)
	}
	require.PanicsWithValue(t, errorf("%d arguments are required, %d given.", 3, 2),
		func() { FilterFormat("%s %s", []interface{}{"a"}) })
}

func TestFilterJSONEncode(t *testing.T) {
	assert.Equal(t, `{"a":[1,"x\/y"]}`, FilterJSONEncode(NewMap("a", []interface{}{1, "x/y"}), 0))
	assert.Equal(t, `{"a":"x/y"}`, FilterJSONEncode(NewMap("a", "x/y"), jsonUnescapedSlashes))
	assert.Equal(t, "[\n    1\n]", FilterJSONEncode([]interface{}{1}, jsonPrettyPrint))
}

func TestFilterNumberFormat(t *testing.T) {
	env := NewEnv(nil)
	assert.Equal(t, "1,235", FilterNumberFormat(env, 1234.5, nil, nil, nil))
	assert.Equal(t, "1,234.50", FilterNumberFormat(env, 1234.5, 2, nil, nil))
	assert.Equal(t, "1.234,50", FilterNumberFormat(env, "1234.5", 2, ",", "."))
	assert.Equal(t, "-1 000 000", FilterNumberFormat(env, -1000000, 0, nil, " "))
	env = NewEnv(&Options{Decimals: 1, DecimalPoint: ",", ThousandsSeparator: "'"})
	assert.Equal(t, "12'345,7", FilterNumberFormat(env, 12345.67, nil, nil, nil))
}

func TestFilterRound(t *testing.T) {
	assert.Equal(t, 3.0, FilterRound(2.5, 0, "common"))
	assert.Equal(t, -3.0, FilterRound(-2.5, 0, "common"))
	assert.Equal(t, 2.35, FilterRound(2.345, 2, "common"))
	assert.Equal(t, 2.4, FilterRound(2.31, 1, "ceil"))
	assert.Equal(t, 2.3, FilterRound(2.39, 1, "floor"))
	require.PanicsWithValue(t, errorf(`The round filter only supports the "common", "ceil", and "floor" methods.`),
		func() { FilterRound(1, 0, "up") })
}

func TestFilterTrimSide(t *testing.T) {
	require.Panics(t, func() { FilterTrim("a", nil, "middle") })
	assert.Equal(t, "a", FilterTrim("\t\n a \x00", nil, "both"))
	assert.True(t, strings.HasPrefix(FilterTrim(" a ", nil, "right").(string), " "))
}
