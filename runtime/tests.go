// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"math"
	"reflect"
)

// TestConstant reports whether value is equal to the constant with the
// given name.
func TestConstant(env *Env, value, constant interface{}) bool {
	return Equal(value, FunctionConstant(env, constant))
}

// TestDivisibleBy reports whether value is divisible by num.
func TestDivisibleBy(value, num interface{}) bool {
	a, b := toNumber(value), toNumber(num)
	x, ok1 := a.(int)
	y, ok2 := b.(int)
	if ok1 && ok2 {
		if y == 0 {
			panic(errorf("Modulo by zero."))
		}
		return x%y == 0
	}
	d := toFloat(b)
	if d == 0 {
		panic(errorf("Modulo by zero."))
	}
	return math.Mod(toFloat(a), d) == 0
}

// TestEmpty reports whether value is empty: null, false, the empty string,
// an empty array or a value whose string form is empty. Zero is not empty.
func TestEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case Safe:
		return v == ""
	case int, float64:
		return false
	case *Loop:
		return false
	case fmt.Stringer:
		if m, ok := toMap(value); ok {
			return m.Len() == 0
		}
		return v.String() == ""
	}
	if m, ok := toMap(value); ok {
		return m.Len() == 0
	}
	return isNull(value)
}

// TestEven reports whether value is even.
func TestEven(value interface{}) bool {
	return toInt(value)%2 == 0
}

// TestOdd reports whether value is odd.
func TestOdd(value interface{}) bool {
	return toInt(value)%2 != 0
}

// TestIterable reports whether value can be iterated by a for loop.
func TestIterable(value interface{}) bool {
	switch value.(type) {
	case nil, string, Safe:
		return false
	case *Seq:
		return true
	}
	if isArray(value) {
		return true
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Func && (rv.Type().CanSeq() || rv.Type().CanSeq2())
}

// TestMapping reports whether value is a mapping: an array whose keys are
// not the sequence 0, 1, 2, ...
func TestMapping(value interface{}) bool {
	switch v := value.(type) {
	case *Map:
		return !v.IsSequence()
	case Context, map[string]interface{}:
		return true
	}
	return value != nil && reflect.ValueOf(value).Kind() == reflect.Map
}

// TestSequence reports whether value is a sequence: an array whose keys are
// the sequence 0, 1, 2, ...
func TestSequence(value interface{}) bool {
	switch v := value.(type) {
	case *Map:
		return v.IsSequence()
	case []interface{}:
		return true
	case nil, string, Safe, []byte:
		return false
	}
	k := reflect.ValueOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// TestNull reports whether value is null.
func TestNull(value interface{}) bool {
	return isNull(value)
}

// TestSameAs reports whether value and compare are identical: they have the
// same type and the same value or, for references, they refer to the same
// value.
func TestSameAs(value, compare interface{}) bool {
	if value == nil || compare == nil {
		return isNull(value) && isNull(compare)
	}
	t1, t2 := reflect.TypeOf(value), reflect.TypeOf(compare)
	if t1 != t2 {
		return false
	}
	if t1.Comparable() {
		return value == compare
	}
	v1, v2 := reflect.ValueOf(value), reflect.ValueOf(compare)
	switch v1.Kind() {
	case reflect.Slice:
		return v1.Len() == v2.Len() && (v1.Len() == 0 || v1.Pointer() == v2.Pointer())
	case reflect.Map, reflect.Func:
		return v1.Pointer() == v2.Pointer()
	}
	return false
}
