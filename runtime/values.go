// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Safe is a string that is safe to be written without escaping.
type Safe string

// Map is an ordered map with integer and string keys. It is the value of
// the array literals that are not sequences.
type Map struct {
	keys   []interface{}
	values []interface{}
	index  map[interface{}]int
	next   int // next integer key.
}

// NewMap returns a new map with the given keys and values, in the form
// key1, value1, key2, value2, ... It panics if the number of arguments is odd.
func NewMap(kv ...interface{}) *Map {
	if len(kv)%2 != 0 {
		panic("runtime: odd number of arguments to NewMap")
	}
	m := &Map{index: make(map[interface{}]int, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// newSequence returns a new map with the elements of s as values.
func newSequence(s []interface{}) *Map {
	m := &Map{index: make(map[interface{}]int, len(s))}
	for _, v := range s {
		m.Append(v)
	}
	return m
}

// normalizeKey returns the key of a map: an int or a string.
func normalizeKey(key interface{}) interface{} {
	switch k := key.(type) {
	case int:
		return k
	case string:
		return stringKey(k)
	case Safe:
		return stringKey(string(k))
	case nil:
		return ""
	case bool:
		if k {
			return 1
		}
		return 0
	case float64:
		return int(k)
	case float32:
		return int(k)
	}
	if i, err := cast.ToIntE(key); err == nil {
		return i
	}
	return String(key)
}

// stringKey returns s as an int if it is the decimal representation of an
// integer, otherwise it returns s.
func stringKey(s string) interface{} {
	if s == "" || s == "-0" || len(s) > 1 && (s[0] == '0' || s[0] == '-' && s[1] == '0') {
		return s
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}

// Set sets the value of key.
func (m *Map) Set(key, value interface{}) {
	key = normalizeKey(key)
	if m.index == nil {
		m.index = map[interface{}]int{}
	}
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	if i, ok := key.(int); ok && i >= m.next {
		m.next = i + 1
	}
}

// Append appends value with the next integer key.
func (m *Map) Append(value interface{}) {
	m.Set(m.next, value)
}

// Get returns the value of key and reports whether key exists.
func (m *Map) Get(key interface{}) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	if i, ok := m.index[normalizeKey(key)]; ok {
		return m.values[i], true
	}
	return nil, false
}

// Len returns the number of elements of m.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys of m in order.
func (m *Map) Keys() []interface{} {
	return append([]interface{}(nil), m.keys...)
}

// Values returns the values of m in order.
func (m *Map) Values() []interface{} {
	return append([]interface{}(nil), m.values...)
}

// Clone returns a copy of m.
func (m *Map) Clone() *Map {
	c := &Map{
		keys:   append([]interface{}(nil), m.keys...),
		values: append([]interface{}(nil), m.values...),
		index:  make(map[interface{}]int, len(m.keys)),
		next:   m.next,
	}
	for k, i := range m.index {
		c.index[k] = i
	}
	return c
}

// IsSequence reports whether the keys of m are 0, 1, 2, ...
func (m *Map) IsSequence() bool {
	for i, k := range m.keys {
		if k != i {
			return false
		}
	}
	return true
}

// Arg returns the argument with position pos or, if not passed by
// position, with the given name. If it is not passed, it returns def.
func (m *Map) Arg(pos int, name string, def interface{}) interface{} {
	if v, ok := m.Get(pos); ok {
		return v
	}
	if v, ok := m.Get(name); ok {
		return v
	}
	return def
}

// VarArgs returns the arguments that are neither among the first n
// positional arguments nor passed with one of the given names.
func (m *Map) VarArgs(n int, names ...string) *Map {
	args := NewMap()
	if m == nil {
		return args
	}
	for i, k := range m.keys {
		switch k := k.(type) {
		case int:
			if k >= n {
				args.Append(m.values[i])
			}
		case string:
			named := false
			for _, name := range names {
				if k == name {
					named = true
					break
				}
			}
			if !named {
				args.Set(k, m.values[i])
			}
		}
	}
	return args
}

// MarshalJSON marshals m as a JSON array if it is a sequence, otherwise as
// a JSON object.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m.IsSequence() {
		return json.Marshal(m.values)
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(String(k))
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		value, err := json.Marshal(m.values[i])
		if err != nil {
			return nil, err
		}
		b.Write(value)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// toMap returns v as a map. It returns false if v is not a sequence or a
// mapping. The keys of Go maps are sorted.
func toMap(v interface{}) (*Map, bool) {
	switch v := v.(type) {
	case *Map:
		return v, true
	case []interface{}:
		return newSequence(v), true
	case Context:
		return mapOfStrings(v), true
	case map[string]interface{}:
		return mapOfStrings(v), true
	case *Seq:
		m := NewMap()
		for i := range v.keys {
			m.Set(v.keys[i], v.values[i])
		}
		return m, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		m := &Map{index: make(map[interface{}]int, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			m.Append(rv.Index(i).Interface())
		}
		return m, true
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return String(keys[i].Interface()) < String(keys[j].Interface())
		})
		m := &Map{index: make(map[interface{}]int, len(keys))}
		for _, k := range keys {
			m.Set(k.Interface(), rv.MapIndex(k).Interface())
		}
		return m, true
	}
	return nil, false
}

func mapOfStrings(v map[string]interface{}) *Map {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := &Map{index: make(map[interface{}]int, len(keys))}
	for _, k := range keys {
		m.Set(k, v[k])
	}
	return m
}

// ToMap returns v as a map. A value that is not a sequence or a mapping is
// returned as an empty map.
func ToMap(v interface{}) *Map {
	if m, ok := toMap(v); ok {
		return m
	}
	return NewMap()
}

// isArray reports whether v is a sequence or a mapping.
func isArray(v interface{}) bool {
	switch v.(type) {
	case *Map, []interface{}, Context, map[string]interface{}:
		return true
	case nil, string, Safe, []byte:
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// typeName returns the name of the type of v used in the error messages.
func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string, Safe:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	}
	if isArray(v) {
		return "array"
	}
	return reflect.TypeOf(v).String()
}

// String returns the string representation of v.
func String(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case Safe:
		return string(v)
	case bool:
		if v {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	if isArray(v) {
		return "Array"
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// formatFloat formats f with at most 14 significant digits.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	s := strconv.FormatFloat(f, 'g', 14, 64)
	if i := strings.IndexByte(s, 'e'); i > 0 {
		mantissa := s[:i]
		if strings.Contains(mantissa, ".") {
			mantissa = strings.TrimRight(strings.TrimRight(mantissa, "0"), ".")
		}
		if !strings.Contains(mantissa, ".") {
			mantissa += ".0"
		}
		s = mantissa + "E" + s[i+1:]
	}
	return s
}

// Bool returns the truth value of v. null, false, 0, 0.0, "", "0" and the
// empty arrays are false.
func Bool(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0"
	case Safe:
		return v != "" && v != "0"
	case *Map:
		return v.Len() > 0
	case []interface{}:
		return len(v) > 0
	case Context:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	case interface{ Len() int }:
		return v.Len() > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		s := rv.String()
		return s != "" && s != "0"
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// Length returns the length of v: the number of characters of a string or
// the number of elements of an array.
func Length(v interface{}) int {
	switch v := v.(type) {
	case nil:
		return 0
	case string:
		return len([]rune(v))
	case Safe:
		return len([]rune(v))
	case *Map:
		return v.Len()
	case []interface{}:
		return len(v)
	case interface{ Len() int }:
		return v.Len()
	}
	if m, ok := toMap(v); ok {
		return m.Len()
	}
	return len([]rune(String(v)))
}
