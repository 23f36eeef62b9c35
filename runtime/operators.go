// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// toNumber returns v as an int or a float64. A string is converted from its
// leading numeric part, a value without a numeric representation is 0.
func toNumber(v interface{}) interface{} {
	switch v := v.(type) {
	case nil:
		return 0
	case int:
		return v
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return parseNumber(v)
	case Safe:
		return parseNumber(string(v))
	case float32:
		return float64(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := cast.ToInt64E(v)
		if err != nil || int64(int(i)) != i {
			return cast.ToFloat64(v)
		}
		return int(i)
	}
	if isArray(v) {
		if Length(v) > 0 {
			return 1
		}
		return 0
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f
	}
	return 0
}

// parseNumber parses the leading numeric part of s.
func parseNumber(s string) interface{} {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := cast.ToFloat64E(s); err == nil && !strings.ContainsAny(s, "xXpP_") {
		return f
	}
	// Leading numeric part.
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9':
			seenDigit = true
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if end == 0 {
		return 0
	}
	if i, err := strconv.Atoi(s[:end]); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
		return f
	}
	return 0
}

// numericString reports whether s is entirely numeric and, if it is,
// returns its value.
func numericString(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	if strings.ContainsAny(s, "xXpP_") || strings.EqualFold(s, "inf") || strings.EqualFold(s, "nan") ||
		strings.EqualFold(s, "+inf") || strings.EqualFold(s, "-inf") {
		return nil, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// numeric returns v as a number if v is a number or a numeric string.
func numeric(v interface{}) (interface{}, bool) {
	switch v := v.(type) {
	case int, float64:
		return v, true
	case string:
		return numericString(v)
	case Safe:
		return numericString(string(v))
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return toNumber(v), true
	}
	return nil, false
}

func toInt(v interface{}) int {
	switch n := toNumber(v).(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := toNumber(v).(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// arith applies an arithmetic operator to a and b. fi is used if both are
// integers and returns false on overflow, in which case ff is used.
func arith(a, b interface{}, fi func(x, y int) (int, bool), ff func(x, y float64) float64) interface{} {
	x, y := toNumber(a), toNumber(b)
	if i, ok := x.(int); ok {
		if j, ok := y.(int); ok {
			if r, ok := fi(i, j); ok {
				return r
			}
			return ff(float64(i), float64(j))
		}
	}
	return ff(toFloat(x), toFloat(y))
}

// Add returns a + b. If both are arrays, it returns their union.
func Add(a, b interface{}) interface{} {
	if isArray(a) && isArray(b) {
		m := ToMap(a).Clone()
		r := ToMap(b)
		for i, k := range r.keys {
			if _, ok := m.Get(k); !ok {
				m.Set(k, r.values[i])
			}
		}
		return m
	}
	return arith(a, b, func(x, y int) (int, bool) {
		r := x + y
		return r, (r > x) == (y > 0)
	}, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b.
func Sub(a, b interface{}) interface{} {
	return arith(a, b, func(x, y int) (int, bool) {
		r := x - y
		return r, (r < x) == (y > 0)
	}, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b.
func Mul(a, b interface{}) interface{} {
	return arith(a, b, func(x, y int) (int, bool) {
		if x == 0 || y == 0 {
			return 0, true
		}
		r := x * y
		return r, r/y == x && !(x == -1 && y == math.MinInt) && !(y == -1 && x == math.MinInt)
	}, func(x, y float64) float64 { return x * y })
}

// Div returns a / b. The result is an integer only if both operands are
// integers and b divides a.
func Div(a, b interface{}) interface{} {
	y := toNumber(b)
	if toFloat(y) == 0 {
		panic(errorf("Division by zero."))
	}
	x := toNumber(a)
	if i, ok := x.(int); ok {
		if j, ok := y.(int); ok && i%j == 0 && !(i == math.MinInt && j == -1) {
			return i / j
		}
	}
	return toFloat(x) / toFloat(y)
}

// FloorDiv returns the integer part of the floor of a / b.
func FloorDiv(a, b interface{}) interface{} {
	return int(math.Floor(toFloat(Div(a, b))))
}

// Mod returns the remainder of the integer division of a by b.
func Mod(a, b interface{}) interface{} {
	y := toInt(b)
	if y == 0 {
		panic(errorf("Modulo by zero."))
	}
	if y == -1 {
		return 0
	}
	return toInt(a) % y
}

// Pow returns a raised to the power of b.
func Pow(a, b interface{}) interface{} {
	return arith(a, b, func(x, y int) (int, bool) {
		if y < 0 {
			return 0, false
		}
		r := 1
		for ; y > 0; y-- {
			n := r * x
			if x != 0 && n/x != r {
				return 0, false
			}
			r = n
		}
		return r, true
	}, math.Pow)
}

// Neg returns -a.
func Neg(a interface{}) interface{} {
	switch n := toNumber(a).(type) {
	case int:
		if n == math.MinInt {
			return -float64(n)
		}
		return -n
	case float64:
		return -n
	}
	return 0
}

// Pos returns a as a number.
func Pos(a interface{}) interface{} {
	return toNumber(a)
}

// BitAnd returns a & b.
func BitAnd(a, b interface{}) interface{} { return toInt(a) & toInt(b) }

// BitOr returns a | b.
func BitOr(a, b interface{}) interface{} { return toInt(a) | toInt(b) }

// BitXor returns a ^ b.
func BitXor(a, b interface{}) interface{} { return toInt(a) ^ toInt(b) }

// Concat returns the concatenation of the string representations of a and b.
func Concat(a, b interface{}) interface{} {
	return String(a) + String(b)
}

// isNull reports whether v is nil or a nil pointer.
func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil() && !isArray(v)
	}
	return false
}

// Equal reports whether a and b are loosely equal. Numbers and numeric
// strings are compared as numbers, null is equal to the false values and
// arrays are equal if they have the same keys with equal values.
func Equal(a, b interface{}) bool {
	if _, ok := a.(bool); ok {
		return a.(bool) == Bool(b)
	}
	if _, ok := b.(bool); ok {
		return Bool(a) == b.(bool)
	}
	if isNull(a) || isNull(b) {
		if isNull(a) && isNull(b) {
			return true
		}
		other := a
		if isNull(a) {
			other = b
		}
		switch other.(type) {
		case string, Safe:
			return String(other) == ""
		}
		if _, ok := numeric(other); ok {
			return toFloat(other) == 0
		}
		if isArray(other) {
			return Length(other) == 0
		}
		return false
	}
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return compareNumbers(x, y) == 0
		}
		if isString(b) {
			return String(a) == String(b)
		}
	} else if isString(a) && isString(b) {
		return String(a) == String(b)
	} else if isString(a) {
		if _, ok := numeric(b); ok {
			return String(a) == String(b)
		}
	}
	if isArray(a) || isArray(b) {
		if !isArray(a) || !isArray(b) {
			return false
		}
		x, y := ToMap(a), ToMap(b)
		if x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, ok := y.Get(k)
			if !ok || !Equal(x.values[i], v) {
				return false
			}
		}
		return true
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func isString(v interface{}) bool {
	switch v.(type) {
	case string, Safe:
		return true
	}
	return false
}

// compareNumbers compares two numbers returned by numeric.
func compareNumbers(x, y interface{}) int {
	if i, ok := x.(int); ok {
		if j, ok := y.(int); ok {
			switch {
			case i < j:
				return -1
			case i > j:
				return 1
			}
			return 0
		}
	}
	f, g := toFloat(x), toFloat(y)
	switch {
	case f < g:
		return -1
	case f > g:
		return 1
	}
	return 0
}

// Compare returns -1, 0 or 1 if a is respectively less than, equal to or
// greater than b.
func Compare(a, b interface{}) int {
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if aBool || bBool || isNull(a) || isNull(b) {
		x, y := Bool(a), Bool(b)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return compareNumbers(x, y)
		}
	}
	if isArray(a) && isArray(b) {
		x, y := ToMap(a), ToMap(b)
		if c := compareNumbers(x.Len(), y.Len()); c != 0 {
			return c
		}
		for i, k := range x.keys {
			v, ok := y.Get(k)
			if !ok {
				return 1
			}
			if c := Compare(x.values[i], v); c != 0 {
				return c
			}
		}
		return 0
	}
	if Equal(a, b) {
		return 0
	}
	return strings.Compare(String(a), String(b))
}

// Less reports whether a < b.
func Less(a, b interface{}) bool { return Compare(a, b) < 0 }

// LessEqual reports whether a <= b.
func LessEqual(a, b interface{}) bool { return Compare(a, b) <= 0 }

// Greater reports whether a > b.
func Greater(a, b interface{}) bool { return Compare(a, b) > 0 }

// GreaterEqual reports whether a >= b.
func GreaterEqual(a, b interface{}) bool { return Compare(a, b) >= 0 }

// In reports whether a is contained in b: a substring of a string, or a
// value of an array.
func In(a, b interface{}) bool {
	if isString(b) {
		switch a.(type) {
		case string, Safe, int, float64:
			return strings.Contains(String(b), String(a))
		}
		return false
	}
	if isArray(b) {
		m := ToMap(b)
		for _, v := range m.values {
			if Equal(a, v) {
				return true
			}
		}
		return false
	}
	if s, ok := b.(*Seq); ok {
		for _, v := range s.values {
			if Equal(a, v) {
				return true
			}
		}
	}
	return false
}

// StartsWith reports whether the string representation of a starts with
// the string representation of b.
func StartsWith(a, b interface{}) bool {
	return strings.HasPrefix(String(a), String(b))
}

// EndsWith reports whether the string representation of a ends with the
// string representation of b.
func EndsWith(a, b interface{}) bool {
	return strings.HasSuffix(String(a), String(b))
}

// Range returns the values from low to high, both included, separated by
// step. If low and high are single characters, the values are characters.
func Range(low, high, step interface{}) []interface{} {
	s := toNumber(step)
	if toFloat(s) == 0 {
		panic(errorf("The step of a range cannot be zero."))
	}
	if l, ok := low.(string); ok && utf8.RuneCountInString(l) == 1 {
		if h, ok := high.(string); ok && utf8.RuneCountInString(h) == 1 {
			if _, ok := numericString(l); !ok {
				lr, _ := utf8.DecodeRuneInString(l)
				hr, _ := utf8.DecodeRuneInString(h)
				st := rune(math.Abs(float64(toInt(s))))
				if st == 0 {
					st = 1
				}
				var values []interface{}
				if lr <= hr {
					for r := lr; r <= hr; r += st {
						values = append(values, string(r))
					}
				} else {
					for r := lr; r >= hr; r -= st {
						values = append(values, string(r))
					}
				}
				return values
			}
		}
	}
	l, h := toNumber(low), toNumber(high)
	li, lok := l.(int)
	hi, hok := h.(int)
	si, sok := s.(int)
	if lok && hok && sok {
		if si < 0 {
			si = -si
		}
		values := make([]interface{}, 0, abs(hi-li)/si+1)
		if li <= hi {
			for i := li; i <= hi; i += si {
				values = append(values, i)
			}
		} else {
			for i := li; i >= hi; i -= si {
				values = append(values, i)
			}
		}
		return values
	}
	lf, hf, sf := toFloat(l), toFloat(h), math.Abs(toFloat(s))
	var values []interface{}
	if lf <= hf {
		for i := 0; lf+float64(i)*sf <= hf; i++ {
			values = append(values, lf+float64(i)*sf)
		}
	} else {
		for i := 0; lf-float64(i)*sf >= hf; i++ {
			values = append(values, lf-float64(i)*sf)
		}
	}
	return values
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
