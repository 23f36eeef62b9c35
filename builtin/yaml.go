// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlParam struct {
	Name     string    `yaml:"name"`
	Optional bool      `yaml:"optional"`
	Default  yaml.Node `yaml:"default"`
}

type yamlCallable struct {
	Name                 string      `yaml:"name"`
	Func                 string      `yaml:"func"`
	Params               []yamlParam `yaml:"params"`
	NeedsEnv             bool        `yaml:"needs_env"`
	NeedsContext         bool        `yaml:"needs_context"`
	Variadic             bool        `yaml:"variadic"`
	Safe                 []string    `yaml:"safe"`
	PreservesSafety      []string    `yaml:"preserves_safety"`
	PreEscape            string      `yaml:"pre_escape"`
	OneMandatoryArgument bool        `yaml:"one_mandatory_argument"`
	Deprecated           string      `yaml:"deprecated"`
	Alternative          string      `yaml:"alternative"`
}

type yamlRegistry struct {
	Filters   []yamlCallable `yaml:"filters"`
	Functions []yamlCallable `yaml:"functions"`
	Tests     []yamlCallable `yaml:"tests"`
}

// LoadYAML reads callable descriptors in YAML format from r and adds them to
// the registry. For example:
//
//	filters:
//	  - name: money
//	    func: shop.Money
//	    params:
//	      - name: value
//	      - name: currency
//	        default: EUR
//	    safe: [html]
//	functions:
//	  - name: now
//	    func: shop.Now
//	    needs_env: true
//
// A parameter with a default value is optional.
func (r *Registry) LoadYAML(in io.Reader) error {
	var doc yamlRegistry
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("builtin: cannot decode registry: %w", err)
	}
	var callables []*Callable
	for k, list := range [][]yamlCallable{doc.Filters, doc.Functions, doc.Tests} {
		for _, y := range list {
			c, err := y.callable(Kind(k))
			if err != nil {
				return err
			}
			callables = append(callables, c)
		}
	}
	return r.Add(callables...)
}

func (y yamlCallable) callable(k Kind) (*Callable, error) {
	if y.Func == "" {
		return nil, fmt.Errorf("builtin: %s %q has no func", k, y.Name)
	}
	c := &Callable{
		Kind:                 k,
		Name:                 y.Name,
		Func:                 y.Func,
		NeedsEnv:             y.NeedsEnv,
		NeedsContext:         y.NeedsContext,
		Variadic:             y.Variadic,
		Safe:                 y.Safe,
		PreservesSafety:      y.PreservesSafety,
		PreEscape:            y.PreEscape,
		OneMandatoryArgument: y.OneMandatoryArgument,
		Deprecated:           y.Deprecated,
		Alternative:          y.Alternative,
	}
	for _, p := range y.Params {
		param := Param{Name: p.Name, Optional: p.Optional}
		if !p.Default.IsZero() {
			var v interface{}
			if err := p.Default.Decode(&v); err != nil {
				return nil, fmt.Errorf("builtin: invalid default value for parameter %q of %s %q: %w", p.Name, k, y.Name, err)
			}
			param.Optional = true
			param.HasDefault = true
			param.Default = v
		}
		c.Params = append(c.Params, param)
	}
	return c, nil
}
