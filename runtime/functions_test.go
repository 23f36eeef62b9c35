// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionMaxMin(t *testing.T) {
	assert.Equal(t, 5, FunctionMax([]interface{}{1, 5, 3}))
	assert.Equal(t, 5, FunctionMax([]interface{}{[]interface{}{1, 5, 3}}))
	assert.Equal(t, "b", FunctionMax([]interface{}{"a", "b"}))
	assert.Equal(t, 1, FunctionMin([]interface{}{NewMap("x", 4, "y", 1)}))
	assert.Equal(t, -2.5, FunctionMin(NewMap(0, 3, 1, -2.5)))
	require.PanicsWithValue(t, errorf("The %s function requires at least one value.", "max"),
		func() { FunctionMax([]interface{}{}) })
}

func TestFunctionConstant(t *testing.T) {
	env := NewEnv(&Options{Constants: map[string]interface{}{"APP": "stencil"}})
	assert.Equal(t, "stencil", FunctionConstant(env, "APP"))
	assert.True(t, TestConstant(env, "stencil", "APP"))
	assert.False(t, TestConstant(env, "other", "APP"))
	require.PanicsWithValue(t, errorf("Constant %q is undefined.", "NOPE"), func() { FunctionConstant(env, "NOPE") })
}

func TestFunctionRandom(t *testing.T) {
	env := NewEnv(&Options{Seed: 42})
	for i := 0; i < 50; i++ {
		n := FunctionRandom(env, 5, nil).(int)
		assert.True(t, 0 <= n && n <= 5, "%d", n)
		n = FunctionRandom(env, 10, 12).(int)
		assert.True(t, 10 <= n && n <= 12, "%d", n)
		n = FunctionRandom(env, nil, 3).(int)
		assert.True(t, 0 <= n && n <= 3, "%d", n)
		c := FunctionRandom(env, "àbc", nil).(string)
		assert.Contains(t, []string{"à", "b", "c"}, c)
		v := FunctionRandom(env, []interface{}{"x", "y"}, nil)
		assert.True(t, slices.Contains([]interface{}{"x", "y"}, v))
	}
	assert.Equal(t, "", FunctionRandom(env, "", nil))
	assert.GreaterOrEqual(t, FunctionRandom(env, nil, nil).(int), 0)

	// The same seed returns the same values.
	a, b := NewEnv(&Options{Seed: 7}), NewEnv(&Options{Seed: 7})
	for i := 0; i < 10; i++ {
		assert.Equal(t, FunctionRandom(a, 1000, nil), FunctionRandom(b, 1000, nil))
	}
}

func TestTestFunctions(t *testing.T) {
	tests := []struct {
		name     string
		got      bool
		expected bool
	}{
		{"divisible by", TestDivisibleBy(9, 3), true},
		{"not divisible by", TestDivisibleBy(10, 3), false},
		{"divisible by float", TestDivisibleBy(7.5, 2.5), true},
		{"empty null", TestEmpty(nil), true},
		{"empty string", TestEmpty(""), true},
		{"empty array", TestEmpty([]interface{}{}), true},
		{"empty map", TestEmpty(NewMap()), true},
		{"empty false", TestEmpty(false), true},
		{"empty zero", TestEmpty(0), false},
		{"empty string zero", TestEmpty("0"), false},
		{"empty stringer", TestEmpty(stringer{}), false},
		{"even", TestEven(4), true},
		{"odd", TestOdd(-3), true},
		{"even string", TestEven("3"), false},
		{"iterable array", TestIterable([]int{1}), true},
		{"iterable map", TestIterable(NewMap("a", 1)), true},
		{"iterable string", TestIterable("abc"), false},
		{"iterable iterator", TestIterable(slices.Values([]int{1})), true},
		{"mapping", TestMapping(NewMap("a", 1)), true},
		{"mapping sequence", TestMapping([]interface{}{1}), false},
		{"mapping go map", TestMapping(map[int]int{}), true},
		{"sequence", TestSequence([]interface{}{1}), true},
		{"sequence map", TestSequence(NewMap(0, "a", 1, "b")), true},
		{"sequence mapping", TestSequence(NewMap("a", 1)), false},
		{"sequence string", TestSequence("ab"), false},
		{"null", TestNull(nil), true},
		{"null pointer", TestNull((*user)(nil)), true},
		{"not null", TestNull(0), false},
		{"same as", TestSameAs(1, 1), true},
		{"same as different types", TestSameAs(1, 1.0), false},
		{"same as string", TestSameAs("1", 1), false},
		{"same as null", TestSameAs(nil, nil), true},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.got, test.name)
	}
	m := NewMap("a", 1)
	assert.True(t, TestSameAs(m, m))
	assert.False(t, TestSameAs(m, NewMap("a", 1)))
	s := []interface{}{1}
	assert.True(t, TestSameAs(s, s))
	assert.False(t, TestSameAs(s, []interface{}{1}))
	require.PanicsWithValue(t, errorf("Modulo by zero."), func() { TestDivisibleBy(1, 0) })
}
