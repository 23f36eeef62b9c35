// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/open2b/stencil/ast"
)

// profilerNamespace is the namespace of the UUIDs of the profiled regions.
var profilerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/open2b/stencil/profiler"))

// Profiler is the pass that wraps the rendering of a template, and of its
// blocks and macros, with the instrumentation of the profiler.
type Profiler struct {
	template string
	index    int
}

func NewProfiler() *Profiler {
	return &Profiler{}
}

func (p *Profiler) Name() string { return "profiler" }

func (p *Profiler) Priority() int { return 0 }

func (p *Profiler) Enter(node ast.Node) ast.Node {
	if m, ok := node.(*ast.Module); ok {
		p.template = m.Source.Name
		p.index = m.Index
	}
	return node
}

func (p *Profiler) Leave(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.Module:
		name := p.varName(ast.ProfileTemplate, n.Source.Name)
		n.Prepend(ast.DisplayStart, ast.NewProfilerEnter(ast.ProfileTemplate, n.Source.Name, name))
		n.Append(ast.DisplayEnd, ast.NewProfilerLeave(name))
	case *ast.Block:
		name := p.varName(ast.ProfileBlock, n.Name)
		n.Body = p.wrap(ast.ProfileBlock, n.Name, name, n.Body)
	case *ast.Macro:
		name := p.varName(ast.ProfileMacro, n.Name)
		n.Body = p.wrap(ast.ProfileMacro, n.Name, name, n.Body)
	}
	return node
}

func (p *Profiler) wrap(kind, name, varName string, body []ast.Node) []ast.Node {
	nodes := make([]ast.Node, 0, len(body)+2)
	nodes = append(nodes, ast.NewProfilerEnter(kind, name, varName))
	nodes = append(nodes, body...)
	return append(nodes, ast.NewProfilerLeave(varName))
}

// varName returns the name of the correlation variable of a region. The
// name depends only on the template and on the region.
func (p *Profiler) varName(kind, name string) string {
	key := p.template + "\x00" + strconv.Itoa(p.index) + "\x00" + kind + "\x00" + name
	id := uuid.NewSHA1(profilerNamespace, []byte(key))
	return "__internal_profile_" + strings.ReplaceAll(id.String(), "-", "")[:16]
}
