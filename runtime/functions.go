// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"math"
	"unicode/utf8"
)

// FunctionConstant returns the value of the constant with the given name.
func FunctionConstant(env *Env, constant interface{}) interface{} {
	name := String(constant)
	v, ok := env.Constant(name)
	if !ok {
		panic(errorf("Constant %q is undefined.", name))
	}
	return v
}

// FunctionInclude renders the template template and returns the output. The
// context of the template has the variables of ctx only if withContext is
// true.
func FunctionInclude(env *Env, ctx Context, template, variables, withContext, ignoreMissing, sandboxed interface{}) interface{} {
	u, err := env.loadValue(template)
	if err != nil {
		var notFound *NotFoundError
		if Bool(ignoreMissing) && errors.As(err, &notFound) {
			return Safe("")
		}
		panic(err)
	}
	scope := contextOf(variables, `Variables passed to the "include" function or tag must be iterable, got %q.`)
	if Bool(withContext) {
		c := ctx.Clone()
		for k, v := range scope {
			c[k] = v
		}
		scope = c
	}
	if Bool(sandboxed) {
		defer env.EnableSandbox()()
	}
	w := NewBuffer()
	u.Base().Render(w, scope, nil)
	return w.Safe()
}

// extremeValues returns the values of the arguments of the max and min
// functions. A single array argument is expanded.
func extremeValues(name string, values interface{}) []interface{} {
	vs := ToMap(values).values
	if len(vs) == 1 && isArray(vs[0]) {
		vs = ToMap(vs[0]).values
	}
	if len(vs) == 0 {
		panic(errorf("The %s function requires at least one value.", name))
	}
	return vs
}

// FunctionMax returns the greatest of values.
func FunctionMax(values interface{}) interface{} {
	vs := extremeValues("max", values)
	m := vs[0]
	for _, v := range vs[1:] {
		if Greater(v, m) {
			m = v
		}
	}
	return m
}

// FunctionMin returns the least of values.
func FunctionMin(values interface{}) interface{} {
	vs := extremeValues("min", values)
	m := vs[0]
	for _, v := range vs[1:] {
		if Less(v, m) {
			m = v
		}
	}
	return m
}

// FunctionRandom returns a random value:
//
//   - a random character of a string;
//   - a random element of an array;
//   - a random integer between 0 and an integer, or between the integer and
//     max if max is not nil;
//   - a random integer if values is nil.
func FunctionRandom(env *Env, values, maximum interface{}) interface{} {
	switch v := values.(type) {
	case nil:
		if maximum == nil {
			return env.intN(math.MaxInt)
		}
		return randomInt(env, 0, toInt(maximum))
	case string, Safe:
		s := String(v)
		if s == "" {
			return ""
		}
		n := env.intN(utf8.RuneCountInString(s))
		return string([]rune(s)[n])
	case bool, int, float64:
		if maximum == nil {
			return randomInt(env, 0, toInt(v))
		}
		return randomInt(env, toInt(v), toInt(maximum))
	}
	if m, ok := toMap(values); ok {
		if m.Len() == 0 {
			panic(errorf("The random function cannot pick from an empty array."))
		}
		return m.values[env.intN(m.Len())]
	}
	return randomInt(env, 0, toInt(values))
}

// randomInt returns a random integer in [lo, hi]. lo and hi can be swapped.
func randomInt(env *Env, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo < 0 || hi-lo == math.MaxInt {
		return lo + env.intN(math.MaxInt)
	}
	return lo + env.intN(hi-lo+1)
}
