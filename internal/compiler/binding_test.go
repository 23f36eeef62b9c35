// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
)

// bind binds args to c and returns the string form of the bound arguments
// or the syntax error.
func bind(c *builtin.Callable, args ...ast.Argument) (bound []string, err *SyntaxError) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	for _, e := range bindArguments(c, args, 1) {
		bound = append(bound, e.String())
	}
	return bound, nil
}

func pos(v interface{}) ast.Argument {
	return ast.Argument{Value: ast.NewConstant(1, v)}
}

func named(name string, v interface{}) ast.Argument {
	return ast.Argument{Name: name, Value: ast.NewConstant(1, v)}
}

func TestBindArguments(t *testing.T) {
	f := &builtin.Callable{Kind: builtin.FunctionKind, Name: "f",
		Params: []builtin.Param{builtin.Required("a"), builtin.Optional("b", 2), builtin.Optional("c", 3)}}
	tests := []struct {
		args     []ast.Argument
		expected []string
		err      string
	}{
		{[]ast.Argument{pos(1)}, []string{"1", "2", "3"}, ""},
		{[]ast.Argument{pos(1), pos(5)}, []string{"1", "5", "3"}, ""},
		{[]ast.Argument{pos(1), named("c", 5)}, []string{"1", "2", "5"}, ""},
		{[]ast.Argument{named("c", 5), named("a", 1)}, []string{"1", "2", "5"}, ""},
		{[]ast.Argument{named("a", 1)}, []string{"1", "2", "3"}, ""},
		{nil, nil, `Value for argument "a" is required for function "f".`},
		{[]ast.Argument{pos(1), pos(2), pos(3), pos(4)}, nil, `Unknown argument #4 for function "f(a, b, c)".`},
		{[]ast.Argument{pos(1), pos(2), pos(3), pos(4), named("d", 5)}, nil, `Unknown arguments #4, "d" for function "f(a, b, c)".`},
		{[]ast.Argument{pos(1), named("d", 4), named("e", 5)}, nil, `Unknown arguments "d", "e" for function "f(a, b, c)".`},
		{[]ast.Argument{named("a", 1), pos(2)}, nil, `Positional arguments cannot be used after named arguments for function "f".`},
		{[]ast.Argument{pos(1), named("a", 2)}, nil, `Argument "a" is defined twice for function "f".`},
		{[]ast.Argument{named("b", 1), named("b", 2)}, nil, `Argument "b" is defined twice for function "f".`},
	}
	for _, test := range tests {
		bound, err := bind(f, test.args...)
		if test.err != "" {
			if assert.NotNil(t, err, "args %v", test.args) {
				assert.Equal(t, test.err, err.Msg)
			}
			continue
		}
		require.Nil(t, err, "args %v", test.args)
		assert.Equal(t, test.expected, bound, "args %v", test.args)
	}
}

func TestBindOptionalWithoutDefault(t *testing.T) {
	f := &builtin.Callable{Kind: builtin.FunctionKind, Name: "f",
		Params: []builtin.Param{builtin.Required("a"), {Name: "b", Optional: true}, builtin.Optional("c", 3)}}
	bound, err := bind(f, pos(1))
	require.Nil(t, err)
	assert.Equal(t, []string{"1", "null", "3"}, bound)

	_, err = bind(f, pos(1), named("c", 5))
	require.NotNil(t, err)
	assert.Equal(t, `Argument "c" could not be assigned for function "f(a, b, c)" because it has no default value for optional argument "b".`, err.Msg)
}

func TestBindFilterAndTest(t *testing.T) {
	truncate := &builtin.Callable{Kind: builtin.FilterKind, Name: "truncate",
		Params: []builtin.Param{builtin.Required("value"), builtin.Optional("length", 30), builtin.Optional("ellipsis", "...")}}
	bound, err := bind(truncate)
	require.Nil(t, err)
	assert.Equal(t, []string{"30", `"..."`}, bound)
	bound, err = bind(truncate, named("ellipsis", "!"))
	require.Nil(t, err)
	assert.Equal(t, []string{"30", `"!"`}, bound)

	_, err = bind(truncate, named("value", "x"))
	require.NotNil(t, err)
	assert.Equal(t, `Unknown argument "value" for filter "truncate(length, ellipsis)".`, err.Msg)

	divisible := builtin.Default().Test("divisible by")
	bound, err = bind(divisible, pos(3))
	require.Nil(t, err)
	assert.Equal(t, []string{"3"}, bound)
}

func TestBindVariadic(t *testing.T) {
	v := &builtin.Callable{Kind: builtin.FunctionKind, Name: "v", Variadic: true,
		Params: []builtin.Param{builtin.Required("a"), builtin.Optional("b", "x"), builtin.Optional("rest", []interface{}{})}}
	tests := []struct {
		args     []ast.Argument
		expected []string
	}{
		{[]ast.Argument{pos(1)}, []string{"1", `"x"`, "[]"}},
		{[]ast.Argument{pos(1), pos(2), pos(3), pos(4)}, []string{"1", "2", "[3, 4]"}},
		{[]ast.Argument{pos(1), named("k", 4), named("b", 5)}, []string{"1", "5", `{"k": 4}`}},
		{[]ast.Argument{pos(1), pos(2), pos(3), named("k", 4), named("j", 5)}, []string{"1", "2", `{0: 3, "k": 4, "j": 5}`}},
		{[]ast.Argument{named("z", 1), named("a", 2)}, []string{"2", `"x"`, `{"z": 1}`}},
	}
	for _, test := range tests {
		bound, err := bind(v, test.args...)
		require.Nil(t, err, "args %v", test.args)
		assert.Equal(t, test.expected, bound, "args %v", test.args)
	}
}

func TestBindLogicErrors(t *testing.T) {
	w := &builtin.Callable{Kind: builtin.FunctionKind, Name: "w", Variadic: true,
		Params: []builtin.Param{builtin.Required("a"), builtin.Required("rest")}}
	assert.PanicsWithError(t, `logic error: the last parameter of function "w" must be an array with an empty array as default value`,
		func() { bindArguments(w, nil, 1) })
	f := &builtin.Callable{Kind: builtin.FilterKind, Name: "f"}
	assert.PanicsWithError(t, `logic error: filter "f" must have at least one parameter`,
		func() { bindArguments(f, nil, 1) })
}

// TestBindLaw checks that, for every split of the parameters between
// positional and named arguments, the binding returns one argument per
// parameter in the declared order.
func TestBindLaw(t *testing.T) {
	for n := 1; n <= 5; n++ {
		params := make([]builtin.Param, n)
		for i := range params {
			params[i] = builtin.Optional(fmt.Sprintf("p%d", i), fmt.Sprintf("d%d", i))
		}
		c := &builtin.Callable{Kind: builtin.FunctionKind, Name: "f", Params: params}
		for k := 0; k <= n; k++ {
			// k positional arguments, then every other parameter by name in
			// reverse order.
			var args []ast.Argument
			supplied := map[int]bool{}
			for i := 0; i < k; i++ {
				args = append(args, pos(fmt.Sprintf("v%d", i)))
				supplied[i] = true
			}
			for i := n - 1; i >= k; i -= 2 {
				args = append(args, named(fmt.Sprintf("p%d", i), fmt.Sprintf("v%d", i)))
				supplied[i] = true
			}
			bound, err := bind(c, args...)
			require.Nil(t, err, "n=%d k=%d", n, k)
			require.Len(t, bound, n, "n=%d k=%d", n, k)
			for i, b := range bound {
				expected := fmt.Sprintf(`"d%d"`, i)
				if supplied[i] {
					expected = fmt.Sprintf(`"v%d"`, i)
				}
				assert.Equal(t, expected, b, "n=%d k=%d", n, k)
			}
			if k < n {
				// Extra arguments are collected by a variadic callable.
				vparams := append(append([]builtin.Param{}, params...), builtin.Optional("rest", []interface{}{}))
				vc := &builtin.Callable{Kind: builtin.FunctionKind, Name: "v", Params: vparams, Variadic: true}
				extra := append(append([]ast.Argument{}, args...), named("x", 1), named("y", 2))
				bound, err := bind(vc, extra...)
				require.Nil(t, err)
				require.Len(t, bound, n+1)
				assert.True(t, strings.HasSuffix(bound[n], `"x": 1, "y": 2}`), bound[n])
			}
		}
	}
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, `{"a": 1, "b": [true, "x"]}`,
		defaultValue(1, map[string]interface{}{"b": []interface{}{true, "x"}, "a": int64(1)}).String())
	assert.Equal(t, `["a", "b"]`, defaultValue(1, []string{"a", "b"}).String())
	assert.Equal(t, "null", defaultValue(1, nil).String())
	assert.PanicsWithError(t, "logic error: unsupported default value of type complex128", func() { defaultValue(1, 1i) })
}
