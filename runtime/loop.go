// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"reflect"
	"strings"
	"unicode"
)

// Seq is the sequence of keys and values iterated by a for loop.
type Seq struct {
	keys   []interface{}
	values []interface{}
}

// Iterate returns the sequence of the keys and values of v. A value that is
// not iterable is an empty sequence.
func Iterate(v interface{}) *Seq {
	switch v := v.(type) {
	case nil:
		return &Seq{}
	case *Seq:
		return v
	case []interface{}:
		s := &Seq{keys: make([]interface{}, len(v)), values: v}
		for i := range v {
			s.keys[i] = i
		}
		return s
	case *Map:
		return &Seq{keys: v.Keys(), values: v.Values()}
	case Unit:
		return &Seq{}
	}
	if m, ok := toMap(v); ok {
		return &Seq{keys: m.keys, values: m.values}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		return iterateFunc(rv)
	}
	return &Seq{}
}

// iterateFunc iterates over a range-over-func iterator.
func iterateFunc(rv reflect.Value) *Seq {
	s := &Seq{}
	switch {
	case rv.IsNil():
	case rv.Type().CanSeq2():
		for k, v := range rv.Seq2() {
			s.keys = append(s.keys, k.Interface())
			s.values = append(s.values, v.Interface())
		}
	case rv.Type().CanSeq():
		for v := range rv.Seq() {
			s.keys = append(s.keys, len(s.keys))
			s.values = append(s.values, v.Interface())
		}
	}
	return s
}

// Len returns the length of the sequence.
func (s *Seq) Len() int { return len(s.keys) }

// Key returns the i-th key.
func (s *Seq) Key(i int) interface{} { return s.keys[i] }

// Value returns the i-th value.
func (s *Seq) Value(i int) interface{} { return s.values[i] }

// Loop is the value of the loop variable of a for loop.
type Loop struct {
	parent Context
	index0 int
	length int
}

// NewLoop returns the loop variable of a loop on seq in the context parent.
func NewLoop(parent Context, seq *Seq) *Loop {
	return &Loop{parent: parent, length: seq.Len()}
}

// Next moves the loop to the next iteration.
func (l *Loop) Next() {
	l.index0++
}

// Get returns the value of an attribute of the loop.
func (l *Loop) Get(key interface{}) (interface{}, bool) {
	switch String(key) {
	case "index":
		return l.index0 + 1, true
	case "index0":
		return l.index0, true
	case "revindex":
		return l.length - l.index0, true
	case "revindex0":
		return l.length - l.index0 - 1, true
	case "first":
		return l.index0 == 0, true
	case "last":
		return l.index0 == l.length-1, true
	case "length":
		return l.length, true
	case "parent":
		return l.parent, true
	}
	return nil, false
}

// FunctionCycle returns the value of values at the given position, cycling
// over the values.
func FunctionCycle(values, position interface{}) interface{} {
	m, ok := toMap(values)
	if !ok || m.Len() == 0 {
		return values
	}
	i := toInt(position) % m.Len()
	if i < 0 {
		i += m.Len()
	}
	return m.values[i]
}

// Spaceless removes the whitespace between HTML tags and the leading and
// trailing whitespace.
func Spaceless(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)
		if c != '>' {
			continue
		}
		j := i + 1
		for j < len(s) && unicode.IsSpace(rune(s[j])) {
			j++
		}
		if j > i+1 && j < len(s) && s[j] == '<' {
			i = j - 1
		}
	}
	return strings.TrimSpace(b.String())
}
