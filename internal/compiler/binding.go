// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/builtin"
)

// bindArguments binds the arguments of a call of c to its declared
// parameters and returns the arguments in the order of the parameters. For
// filters and tests the first parameter, that receives the filtered or tested
// value, is not bound.
//
// A returned argument is never nil: parameters not passed get their default
// value, or a null constant if they have no default value. If c is variadic,
// the last returned argument is an array with the arguments that do not match
// a parameter.
func bindArguments(c *builtin.Callable, args []ast.Argument, line int) []ast.Expression {

	params := c.Params
	if c.Kind != builtin.FunctionKind {
		if len(params) == 0 {
			panic(logicError("%s %q must have at least one parameter", c.Kind, c.Name))
		}
		params = params[1:]
	}
	if c.Variadic {
		if len(params) == 0 {
			panic(logicError("variadic %s %q has no parameters", c.Kind, c.Name))
		}
		last := params[len(params)-1]
		if !last.Optional || !last.HasDefault || !isEmptyArray(last.Default) {
			panic(logicError("the last parameter of %s %q must be an array with an empty array as default value", c.Kind, c.Name))
		}
		params = params[:len(params)-1]
	}

	// Partition the arguments.
	var positional []ast.Expression
	named := map[string]ast.Expression{}
	var namedOrder []string
	for _, arg := range args {
		if arg.Name == "" {
			if len(named) > 0 {
				panic(syntaxError(line, "Positional arguments cannot be used after named arguments for %s %q.", c.Kind, c.Name))
			}
			positional = append(positional, arg.Value)
			continue
		}
		if _, ok := named[arg.Name]; ok {
			panic(syntaxError(line, "Argument %q is defined twice for %s %q.", arg.Name, c.Kind, c.Name))
		}
		named[arg.Name] = arg.Value
		namedOrder = append(namedOrder, arg.Name)
	}

	bound := make([]ast.Expression, 0, len(params)+1)
	var fillers []ast.Expression
	var missing []string
	pos := 0
	for _, param := range params {
		if value, ok := named[param.Name]; ok {
			if pos < len(positional) {
				panic(syntaxError(line, "Argument %q is defined twice for %s %q.", param.Name, c.Kind, c.Name))
			}
			if len(missing) > 0 {
				s := ""
				if len(missing) > 1 {
					s = "s"
				}
				panic(syntaxError(line, "Argument %q could not be assigned for %s %q because it has no default value for optional argument%s \"%s\".",
					param.Name, c.Kind, c.Signature(), s, strings.Join(missing, `", "`)))
			}
			bound = append(bound, fillers...)
			bound = append(bound, value)
			fillers = nil
			delete(named, param.Name)
			continue
		}
		if pos < len(positional) {
			bound = append(bound, fillers...)
			bound = append(bound, positional[pos])
			fillers = nil
			pos++
			continue
		}
		switch {
		case param.HasDefault:
			fillers = append(fillers, defaultValue(line, param.Default))
		case param.Optional:
			missing = append(missing, param.Name)
			fillers = append(fillers, ast.NewConstant(line, nil))
		default:
			panic(syntaxError(line, "Value for argument %q is required for %s %q.", param.Name, c.Kind, c.Name))
		}
	}
	bound = append(bound, fillers...)

	if c.Variadic {
		rest := ast.NewArray(line, nil)
		for _, value := range positional[pos:] {
			rest.AddElement(value, nil)
		}
		for _, name := range namedOrder {
			if value, ok := named[name]; ok {
				rest.AddElement(value, ast.NewConstant(line, name))
			}
		}
		return append(bound, rest)
	}

	// Orphan arguments. A positional argument is named by its position in
	// the call, starting from 1 and not counting the filtered or tested
	// value.
	var orphans []string
	for i := pos; i < len(positional); i++ {
		orphans = append(orphans, "#"+strconv.Itoa(i+1))
	}
	for _, name := range namedOrder {
		if _, ok := named[name]; ok {
			orphans = append(orphans, strconv.Quote(name))
		}
	}
	if len(orphans) > 0 {
		s := ""
		if len(orphans) > 1 {
			s = "s"
		}
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = p.Name
		}
		panic(syntaxError(line, "Unknown argument%s %s for %s \"%s(%s)\".",
			s, strings.Join(orphans, ", "), c.Kind, c.Name, strings.Join(names, ", ")))
	}

	return bound
}

// isEmptyArray reports whether v is an empty array.
func isEmptyArray(v interface{}) bool {
	switch v := v.(type) {
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// defaultValue returns the node of a default value of a parameter.
func defaultValue(line int, v interface{}) ast.Expression {
	switch v := v.(type) {
	case nil, bool, int, float64, string:
		return ast.NewConstant(line, v)
	case int64:
		return ast.NewConstant(line, int(v))
	case float32:
		return ast.NewConstant(line, float64(v))
	case []interface{}:
		array := ast.NewArray(line, nil)
		for _, e := range v {
			array.AddElement(defaultValue(line, e), nil)
		}
		return array
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		array := ast.NewArray(line, nil)
		for _, k := range keys {
			array.AddElement(defaultValue(line, v[k]), ast.NewConstant(line, k))
		}
		return array
	case []string:
		array := ast.NewArray(line, nil)
		for _, e := range v {
			array.AddElement(ast.NewConstant(line, e), nil)
		}
		return array
	}
	panic(logicError("unsupported default value of type %T", v))
}
