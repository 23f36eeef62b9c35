// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"iter"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seqOf(s *Seq) ([]interface{}, []interface{}) {
	var keys, values []interface{}
	for i := 0; i < s.Len(); i++ {
		keys = append(keys, s.Key(i))
		values = append(values, s.Value(i))
	}
	return keys, values
}

func TestIterate(t *testing.T) {
	tests := []struct {
		name   string
		v      interface{}
		keys   []interface{}
		values []interface{}
	}{
		{"null", nil, nil, nil},
		{"string", "abc", nil, nil},
		{"sequence", []interface{}{"a", "b"}, []interface{}{0, 1}, []interface{}{"a", "b"}},
		{"map", NewMap("x", 1, 5, 2), []interface{}{"x", 5}, []interface{}{1, 2}},
		{"go slice", []int{7, 8}, []interface{}{0, 1}, []interface{}{7, 8}},
		{"go map", map[string]int{"b": 2, "a": 1}, []interface{}{"a", "b"}, []interface{}{1, 2}},
		{"iter.Seq", iter.Seq[string](slices.Values([]string{"p", "q"})), []interface{}{0, 1}, []interface{}{"p", "q"}},
		{"iter.Seq2", iter.Seq2[string, int](maps.All(map[string]int{"k": 3})), []interface{}{"k"}, []interface{}{3}},
	}
	for _, test := range tests {
		keys, values := seqOf(Iterate(test.v))
		assert.Equal(t, test.keys, keys, test.name)
		assert.Equal(t, test.values, values, test.name)
	}
}

func TestLoop(t *testing.T) {
	parent := Context{"a": 1}
	loop := NewLoop(parent, Iterate([]interface{}{"x", "y", "z"}))
	get := func(key string) interface{} {
		v, ok := loop.Get(key)
		assert.True(t, ok, key)
		return v
	}
	assert.Equal(t, 1, get("index"))
	assert.Equal(t, 0, get("index0"))
	assert.Equal(t, 3, get("revindex"))
	assert.Equal(t, 2, get("revindex0"))
	assert.Equal(t, true, get("first"))
	assert.Equal(t, false, get("last"))
	assert.Equal(t, 3, get("length"))
	assert.Equal(t, parent, get("parent"))
	loop.Next()
	loop.Next()
	assert.Equal(t, 3, get("index"))
	assert.Equal(t, true, get("last"))
	_, ok := loop.Get("next")
	assert.False(t, ok)
}

func TestFunctionCycle(t *testing.T) {
	values := []interface{}{"odd", "even"}
	assert.Equal(t, "odd", FunctionCycle(values, 0))
	assert.Equal(t, "even", FunctionCycle(values, 3))
	assert.Equal(t, "even", FunctionCycle(values, -1))
	assert.Equal(t, "a", FunctionCycle("a", 2))
}

func TestSpaceless(t *testing.T) {
	assert.Equal(t, "<div><strong>foo</strong></div>", Spaceless("  <div>\n   <strong>foo</strong>\n</div> "))
	assert.Equal(t, "<b> a </b>", Spaceless("<b> a </b>"))
}
