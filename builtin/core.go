// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"github.com/open2b/stencil/ast"
)

var html = []string{"html"}

// escapeIsSafe returns the contexts in which the value returned by the
// escape filter is safe: the strategy if it is a constant.
func escapeIsSafe(args []ast.Argument) []string {
	if len(args) == 0 {
		return html
	}
	if c, ok := args[0].Value.(*ast.Constant); ok {
		if s, ok := c.Value.(string); ok {
			return []string{s}
		}
	}
	return []string{}
}

func filter(name, fn string, params ...Param) *Callable {
	return &Callable{Kind: FilterKind, Name: name, Func: "runtime." + fn, Params: params}
}

func function(name, fn string, params ...Param) *Callable {
	return &Callable{Kind: FunctionKind, Name: name, Func: "runtime." + fn, Params: params}
}

func test(name, fn string, params ...Param) *Callable {
	return &Callable{Kind: TestKind, Name: name, Func: "runtime." + fn, Params: params}
}

func withEnv(c *Callable) *Callable {
	c.NeedsEnv = true
	return c
}

func withSafe(c *Callable, safe ...string) *Callable {
	c.Safe = safe
	return c
}

func variadic(c *Callable) *Callable {
	c.Variadic = true
	return c
}

var empty = []interface{}{}

// Core returns the core filters, functions and tests. The implementations
// are in the runtime package.
func Core() []*Callable {

	escape := withEnv(filter("escape", "FilterEscape",
		Required("value"), Optional("strategy", "html"), Optional("charset", nil), Optional("autoescape", false)))
	escape.SafeFunc = escapeIsSafe
	e := *escape
	e.Name = "e"

	nl2br := withSafe(filter("nl2br", "FilterNl2br", Required("value")), "html")
	nl2br.PreEscape = "html"

	include := withSafe(function("include", "FunctionInclude",
		Required("template"), Optional("variables", empty), Optional("with_context", true),
		Optional("ignore_missing", false), Optional("sandboxed", false)), "all")
	include.NeedsEnv = true
	include.NeedsContext = true

	divisibleBy := test("divisible by", "TestDivisibleBy", Required("value"), Required("num"))
	divisibleBy.OneMandatoryArgument = true
	sameAs := test("same as", "TestSameAs", Required("value"), Required("compare"))
	sameAs.OneMandatoryArgument = true

	spaceless := withSafe(filter("spaceless", "FilterSpaceless", Required("value")), "html")
	spaceless.Deprecated = "1.0"

	return []*Callable{

		// Filters.
		filter("abbreviate", "FilterAbbreviate", Required("value"), Required("length")),
		filter("abs", "FilterAbs", Required("number")),
		filter("batch", "FilterBatch", Required("items"), Required("size"), Optional("fill", nil), Optional("preserve_keys", true)),
		filter("capitalize", "FilterCapitalize", Required("value")),
		filter("column", "FilterColumn", Required("array"), Required("name"), Optional("index", nil)),
		withEnv(filter("date", "FilterDate", Required("date"), Optional("format", nil), Optional("timezone", nil))),
		filter("default", "FilterDefault", Required("value"), Optional("default", "")),
		escape,
		&e,
		filter("first", "FilterFirst", Required("item")),
		variadic(filter("format", "FilterFormat", Required("format"), Optional("values", empty))),
		filter("join", "FilterJoin", Required("value"), Optional("glue", ""), Optional("and", nil)),
		filter("json_encode", "FilterJSONEncode", Required("value"), Optional("options", 0)),
		filter("kebab", "FilterKebab", Required("value")),
		filter("keys", "FilterKeys", Required("array")),
		filter("last", "FilterLast", Required("item")),
		filter("length", "FilterLength", Required("thing")),
		filter("lower", "FilterLower", Required("value")),
		withSafe(filter("markdown_to_html", "FilterMarkdownToHTML", Required("value")), "html"),
		filter("merge", "FilterMerge", Required("arr1"), Required("arr2")),
		nl2br,
		withEnv(filter("number_format", "FilterNumberFormat", Required("number"), Optional("decimal", nil),
			Optional("decimal_point", nil), Optional("thousand_sep", nil))),
		withSafe(filter("raw", "FilterRaw", Required("value")), "all"),
		filter("replace", "FilterReplace", Required("str"), Required("from")),
		filter("reverse", "FilterReverse", Required("item"), Optional("preserve_keys", false)),
		filter("round", "FilterRound", Required("value"), Optional("precision", 0), Optional("method", "common")),
		withSafe(filter("sanitize_html", "FilterSanitizeHTML", Required("value")), "html"),
		filter("slice", "FilterSlice", Required("item"), Required("start"), Optional("length", nil), Optional("preserve_keys", false)),
		filter("slug", "FilterSlug", Required("value")),
		filter("sort", "FilterSort", Required("array")),
		spaceless,
		filter("split", "FilterSplit", Required("value"), Required("delimiter"), Optional("limit", nil)),
		filter("striptags", "FilterStripTags", Required("value"), Optional("allowable_tags", nil)),
		filter("title", "FilterTitle", Required("value")),
		filter("trim", "FilterTrim", Required("value"), Optional("character_mask", nil), Optional("side", "both")),
		filter("upper", "FilterUpper", Required("value")),
		filter("url_encode", "FilterURLEncode", Required("url")),

		// Functions.
		withEnv(function("constant", "FunctionConstant", Required("constant"))),
		function("cycle", "FunctionCycle", Required("values"), Required("position")),
		withEnv(function("date", "FunctionDate", Optional("date", nil), Optional("timezone", nil))),
		include,
		variadic(function("max", "FunctionMax", Optional("values", empty))),
		variadic(function("min", "FunctionMin", Optional("values", empty))),
		withEnv(function("random", "FunctionRandom", Optional("values", nil), Optional("max", nil))),
		function("range", "Range", Required("low"), Required("high"), Optional("step", 1)),

		// Tests.
		withEnv(test("constant", "TestConstant", Required("value"), Required("constant"))),
		{Kind: TestKind, Name: "defined", Params: []Param{Required("value")}},
		divisibleBy,
		test("empty", "TestEmpty", Required("value")),
		test("even", "TestEven", Required("value")),
		test("iterable", "TestIterable", Required("value")),
		test("mapping", "TestMapping", Required("value")),
		test("none", "TestNull", Required("value")),
		test("null", "TestNull", Required("value")),
		test("odd", "TestOdd", Required("value")),
		sameAs,
		test("sequence", "TestSequence", Required("value")),
	}
}

// Default returns a new registry with the core filters, functions and tests.
func Default() *Registry {
	r := NewRegistry()
	if err := r.Add(Core()...); err != nil {
		panic(err)
	}
	return r
}
