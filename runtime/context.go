// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

// Context holds the variables of a rendering.
type Context map[string]interface{}

// Clone returns a shallow copy of ctx.
func (ctx Context) Clone() Context {
	c := make(Context, len(ctx)+2)
	for k, v := range ctx {
		c[k] = v
	}
	return c
}

// Has reports whether ctx has the variable name.
func (ctx Context) Has(name string) bool {
	_, ok := ctx[name]
	return ok
}

// MergeScope copies to parent the variables of ctx, except the excluded
// ones. It is called at the end of a loop to keep the variables assigned in
// its body.
func MergeScope(parent, ctx Context, excluded ...string) {
	for k, v := range ctx {
		skip := false
		for _, e := range excluded {
			if k == e {
				skip = true
				break
			}
		}
		if !skip {
			parent[k] = v
		}
	}
}

// contextOf returns the variables of v, that must be a mapping, as a
// context. msg is the error message if v is not a mapping.
func contextOf(v interface{}, msg string) Context {
	ctx := Context{}
	if v == nil {
		return ctx
	}
	m, ok := toMap(v)
	if !ok {
		panic(errorf(msg, typeName(v)))
	}
	for i, k := range m.keys {
		ctx[String(k)] = m.values[i]
	}
	return ctx
}
