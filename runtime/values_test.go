// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeys(t *testing.T) {
	m := NewMap("a", 1, "5", 2, 1.7, 3, true, 4, nil, 5, "05", 6)
	assert.Equal(t, []interface{}{"a", 5, 1, "", "05"}, m.Keys())
	assert.Equal(t, []interface{}{1, 2, 4, 5, 6}, m.Values())
	m.Append("x")
	v, ok := m.Get("6")
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.False(t, m.IsSequence())
}

func TestMapSequence(t *testing.T) {
	m := newSequence([]interface{}{"a", "b"})
	assert.True(t, m.IsSequence())
	m.Set(5, "c")
	m.Append("d")
	assert.Equal(t, []interface{}{0, 1, 5, 6}, m.Keys())
	assert.False(t, m.IsSequence())
	var nilMap *Map
	_, ok := nilMap.Get(0)
	assert.False(t, ok)
	assert.Equal(t, 0, nilMap.Len())
}

func TestMapArgs(t *testing.T) {
	args := NewMap(0, "x", "b", "y", 1, "z", "c", "w")
	assert.Equal(t, "x", args.Arg(0, "a", nil))
	assert.Equal(t, "y", args.Arg(5, "b", nil))
	assert.Equal(t, "def", args.Arg(6, "d", "def"))
	rest := args.VarArgs(1, "b")
	assert.Equal(t, []interface{}{0, "c"}, rest.Keys())
	assert.Equal(t, []interface{}{"z", "w"}, rest.Values())
}

func TestMapMarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewMap("b", 1, "a", []interface{}{true, nil}))
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":[true,null]}`, string(b))
	b, err = json.Marshal(newSequence([]interface{}{"x", 2.5}))
	require.NoError(t, err)
	assert.Equal(t, `["x",2.5]`, string(b))
}

func TestToMap(t *testing.T) {
	m, ok := toMap(map[string]int{"b": 2, "a": 1})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b"}, m.Keys())
	m, ok = toMap([]string{"x", "y"})
	require.True(t, ok)
	assert.True(t, m.IsSequence())
	_, ok = toMap("abc")
	assert.False(t, ok)
	_, ok = toMap([]byte("abc"))
	assert.False(t, ok)
	assert.Equal(t, 0, ToMap(5).Len())
}

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestString(t *testing.T) {
	tests := []struct {
		v        interface{}
		expected string
	}{
		{nil, ""},
		{"a", "a"},
		{Safe("<b>"), "<b>"},
		{true, "1"},
		{false, ""},
		{42, "42"},
		{int64(7), "7"},
		{1.5, "1.5"},
		{3.0, "3"},
		{0.1 + 0.2, "0.3"},
		{1e20, "1.0E+20"},
		{math.Inf(1), "INF"},
		{math.NaN(), "NAN"},
		{[]interface{}{1}, "Array"},
		{stringer{}, "stringer"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, String(test.v), "value %#v", test.v)
	}
}

func TestBool(t *testing.T) {
	falsy := []interface{}{nil, false, 0, 0.0, "", "0", Safe(""), []interface{}{}, NewMap(), Context{}, []int{}, (*int)(nil)}
	for _, v := range falsy {
		assert.False(t, Bool(v), "value %#v", v)
	}
	truthy := []interface{}{true, 1, -1, 0.1, "a", "0.0", " ", []interface{}{0}, NewMap("a", nil), stringer{}, uint8(3)}
	for _, v := range truthy {
		assert.True(t, Bool(v), "value %#v", v)
	}
}

func TestLength(t *testing.T) {
	assert.Equal(t, 0, Length(nil))
	assert.Equal(t, 3, Length("àèì"))
	assert.Equal(t, 2, Length([]int{1, 2}))
	assert.Equal(t, 1, Length(map[string]interface{}{"a": 1}))
}
