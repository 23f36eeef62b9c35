// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"reflect"
	"strings"
)

// Usage is the usage of a tag, a filter or a function in a template.
type Usage struct {
	Name string
	Line int
}

// SecurityPolicy is the policy checked by the sandbox. The names of the
// methods and of the fields are compared case insensitively.
type SecurityPolicy struct {
	Tags       []string
	Filters    []string
	Functions  []string
	Methods    map[string][]string // allowed methods by type name.
	Properties map[string][]string // allowed fields by type name.
}

// SecurityError is the error of a violation of the security policy.
type SecurityError struct {
	Kind string // "tag", "filter", "function", "method" or "property".
	Name string
	Type string // type of the object, for methods and properties.
}

func (err *SecurityError) Error() string {
	switch err.Kind {
	case "method":
		return fmt.Sprintf("Calling %q method on a %q object is not allowed.", err.Name, err.Type)
	case "property":
		return fmt.Sprintf("Calling %q property on a %q object is not allowed.", err.Name, err.Type)
	}
	return fmt.Sprintf("%s %q is not allowed.", strings.ToUpper(err.Kind[:1])+err.Kind[1:], err.Name)
}

func contains(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

// CheckSecurity checks the tags, filters and functions. It returns the
// line and the error of the first violation.
func (p *SecurityPolicy) CheckSecurity(tags, filters, functions []Usage) (int, error) {
	for _, u := range tags {
		if !contains(p.Tags, u.Name) {
			return u.Line, &SecurityError{Kind: "tag", Name: u.Name}
		}
	}
	for _, u := range filters {
		if !contains(p.Filters, u.Name) {
			return u.Line, &SecurityError{Kind: "filter", Name: u.Name}
		}
	}
	for _, u := range functions {
		if !contains(p.Functions, u.Name) {
			return u.Line, &SecurityError{Kind: "function", Name: u.Name}
		}
	}
	return 0, nil
}

// objectType returns the name of the type of obj used by the policy: the
// name of the type with its package path, without the pointer.
func objectType(obj interface{}) string {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// allowed reports whether name is allowed for obj in allowed.
func allowed(allowed map[string][]string, obj interface{}, name string) bool {
	for _, n := range allowed[objectType(obj)] {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// CheckMethodAllowed checks whether the method of obj can be called.
func (p *SecurityPolicy) CheckMethodAllowed(obj interface{}, method string) error {
	if _, ok := obj.(Unit); ok {
		return nil
	}
	if !allowed(p.Methods, obj, method) {
		return &SecurityError{Kind: "method", Name: method, Type: objectType(obj)}
	}
	return nil
}

// CheckPropertyAllowed checks whether the field of obj can be read.
func (p *SecurityPolicy) CheckPropertyAllowed(obj interface{}, property string) error {
	if !allowed(p.Properties, obj, property) {
		return &SecurityError{Kind: "property", Name: property, Type: objectType(obj)}
	}
	return nil
}
