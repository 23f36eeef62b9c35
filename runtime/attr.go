// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CallType is the type of an attribute access.
type CallType int

const (
	AnyCall    CallType = iota // a.b
	ArrayCall                  // a["b"]
	MethodCall                 // a.b()
)

// keyed is implemented by the values with keys other than the arrays.
type keyed interface {
	Get(key interface{}) (interface{}, bool)
}

// GetAttr returns the attribute attr of obj: an element of an array, a field
// or the result of a method call. args are the arguments of a method call.
//
// If isDefinedTest is true, it reports whether the attribute exists. If the
// attribute does not exist, it returns nil unless the environment has
// strict variables and ignoreStrictCheck is false.
func (t *Template) GetAttr(obj, attr, args interface{}, callType CallType, isDefinedTest, ignoreStrictCheck bool) interface{} {

	strict := t.Env.strict && !ignoreStrictCheck

	// Arrays.
	k, isKeyed := obj.(keyed)
	if callType != MethodCall {
		if isKeyed {
			if v, ok := k.Get(attr); ok {
				if isDefinedTest {
					return true
				}
				return v
			}
		} else if isArray(obj) {
			if v, ok := ToMap(obj).Get(attr); ok {
				if isDefinedTest {
					return true
				}
				return v
			}
		}
		if callType == ArrayCall || isKeyed || isArray(obj) {
			if isDefinedTest {
				return false
			}
			if !strict {
				return nil
			}
			if m, ok := toMap(obj); ok {
				if m.Len() == 0 {
					panic(errorf("Key %q does not exist as the array is empty.", String(attr)))
				}
				keys := make([]string, m.Len())
				for i, k := range m.keys {
					keys[i] = String(k)
				}
				panic(errorf("Key %q for array with keys %q does not exist.", String(attr), strings.Join(keys, ", ")))
			}
			if isKeyed {
				panic(errorf("Key %q does not exist.", String(attr)))
			}
			panic(errorf("Impossible to access a key (%q) on a %s variable (%q).", String(attr), typeName(obj), String(obj)))
		}
	}

	name := String(attr)

	// Macros of an imported template.
	if u, ok := obj.(Unit); ok {
		if isDefinedTest {
			return u.Macro(name) != nil
		}
		return t.CallMacro(u, name, args)
	}

	if isNull(obj) || !isObject(obj) {
		if isDefinedTest {
			return false
		}
		if !strict {
			return nil
		}
		if callType == MethodCall {
			panic(errorf("Impossible to invoke a method (%q) on a %s variable (%q).", name, typeName(obj), String(obj)))
		}
		panic(errorf("Impossible to access an attribute (%q) on a %s variable (%q).", name, typeName(obj), String(obj)))
	}

	rv := reflect.ValueOf(obj)

	// Fields.
	if callType == AnyCall {
		if f, ok := field(rv, name); ok {
			if isDefinedTest {
				return true
			}
			if t.Env.IsSandboxed() {
				t.checkAllowed(obj, name, false)
			}
			return f.Interface()
		}
	}

	// Methods.
	if m, mname, ok := method(rv, name); ok {
		if isDefinedTest {
			return true
		}
		if t.Env.IsSandboxed() {
			t.checkAllowed(obj, mname, true)
		}
		return call(m, mname, args)
	}

	if isDefinedTest {
		return false
	}
	if !strict {
		return nil
	}
	goName := exported(name)
	panic(errorf("Neither the field %q nor one of the methods %q, \"Get%s\", \"Is%s\" or \"Has%s\" exist on type %s.",
		goName, goName, goName, goName, goName, rv.Type()))
}

// checkAllowed checks that the field or the method name of obj is allowed
// by the security policy.
func (t *Template) checkAllowed(obj interface{}, name string, isMethod bool) {
	policy := t.Env.policy
	if policy == nil {
		policy = &SecurityPolicy{}
	}
	var err error
	if isMethod {
		err = policy.CheckMethodAllowed(obj, name)
	} else {
		err = policy.CheckPropertyAllowed(obj, name)
	}
	if err != nil {
		panic(err)
	}
}

// isObject reports whether v can have fields or methods.
func isObject(v interface{}) bool {
	switch v.(type) {
	case string, Safe, bool, int, float64:
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.NumMethod() > 0 {
		return true
	}
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

// exported returns name with the first letter in upper case and the
// underscores removed, with the following letters in upper case.
func exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// field returns the exported field name of the struct rv.
func field(rv reflect.Value, name string) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for _, n := range []string{name, exported(name)} {
		if r, _ := utf8.DecodeRuneInString(n); !unicode.IsUpper(r) {
			continue
		}
		if f := rv.FieldByName(n); f.IsValid() && f.CanInterface() {
			return f, true
		}
	}
	return reflect.Value{}, false
}

// method returns the method name of rv, or one of the methods GetName,
// IsName and HasName, and its name.
func method(rv reflect.Value, name string) (reflect.Value, string, bool) {
	goName := exported(name)
	for _, n := range []string{name, goName, "Get" + goName, "Is" + goName, "Has" + goName} {
		if r, _ := utf8.DecodeRuneInString(n); !unicode.IsUpper(r) {
			continue
		}
		if m := rv.MethodByName(n); m.IsValid() {
			return m, n, true
		}
		if rv.Kind() != reflect.Ptr && rv.CanAddr() {
			if m := rv.Addr().MethodByName(n); m.IsValid() {
				return m, n, true
			}
		}
	}
	return reflect.Value{}, "", false
}

// call calls the method m with the arguments args. If the method returns
// a non-nil error as last result, call panics with the error.
func call(m reflect.Value, name string, args interface{}) interface{} {
	var in []interface{}
	if args != nil {
		in = ToMap(args).Values()
	}
	typ := m.Type()
	numIn := typ.NumIn()
	if typ.IsVariadic() {
		if len(in) < numIn-1 {
			panic(errorf("Too few arguments to method %s: %d passed and at least %d expected.", name, len(in), numIn-1))
		}
	} else if len(in) != numIn {
		panic(errorf("Wrong number of arguments to method %s: %d passed and %d expected.", name, len(in), numIn))
	}
	values := make([]reflect.Value, len(in))
	for i, arg := range in {
		var pt reflect.Type
		if typ.IsVariadic() && i >= numIn-1 {
			pt = typ.In(numIn - 1).Elem()
		} else {
			pt = typ.In(i)
		}
		values[i] = convert(arg, pt, name, i)
	}
	out := m.Call(values)
	if n := len(out); n > 0 {
		if err, ok := out[n-1].Interface().(error); ok && typ.Out(n-1) == errorType {
			if err != nil {
				panic(err)
			}
			out = out[:n-1]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// convert converts arg to the type typ of the i-th parameter of a method.
func convert(arg interface{}, typ reflect.Type, name string, i int) reflect.Value {
	if arg == nil {
		return reflect.Zero(typ)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(typ) {
		return v
	}
	switch typ.Kind() {
	case reflect.String:
		return reflect.ValueOf(String(arg)).Convert(typ)
	case reflect.Bool:
		return reflect.ValueOf(Bool(arg)).Convert(typ)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(toInt(arg)).Convert(typ)
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(toFloat(arg)).Convert(typ)
	}
	if v.Type().ConvertibleTo(typ) {
		return v.Convert(typ)
	}
	panic(errorf("Cannot use %s as argument %d of method %s of type %s.", typeName(arg), i+1, name, typ))
}
