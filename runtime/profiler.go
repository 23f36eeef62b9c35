// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Profile is a node of the profile of a rendering.
type Profile struct {
	Template string
	Kind     string // "template", "block" or "macro".
	Name     string
	Start    time.Time
	Duration time.Duration
	Children []*Profile
}

// Profiler records the profile of the renderings of an environment. A nil
// *Profiler records nothing.
type Profiler struct {
	mu    sync.Mutex
	root  *Profile
	stack []*Profile
}

// NewProfiler returns a new profiler.
func NewProfiler() *Profiler {
	root := &Profile{Kind: "root", Name: "main", Start: time.Now()}
	return &Profiler{root: root, stack: []*Profile{root}}
}

// Enter starts the profile of a template, a block or a macro.
func (p *Profiler) Enter(template, kind, name string) *Profile {
	if p == nil {
		return nil
	}
	prof := &Profile{Template: template, Kind: kind, Name: name, Start: time.Now()}
	p.mu.Lock()
	top := p.stack[len(p.stack)-1]
	top.Children = append(top.Children, prof)
	p.stack = append(p.stack, prof)
	p.mu.Unlock()
	return prof
}

// Leave ends the profile prof.
func (p *Profiler) Leave(prof *Profile) {
	if p == nil || prof == nil {
		return
	}
	prof.Duration = time.Since(prof.Start)
	p.mu.Lock()
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == prof {
			p.stack = p.stack[:i]
			break
		}
	}
	p.mu.Unlock()
}

// Root returns the root of the profile.
func (p *Profiler) Root() *Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root.Duration = time.Since(p.root.Start)
	return p.root
}

// String returns the profile as an indented tree.
func (prof *Profile) String() string {
	var b strings.Builder
	prof.dump(&b, 0)
	return b.String()
}

func (prof *Profile) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch prof.Kind {
	case "root":
		b.WriteString(prof.Name)
	case "template":
		b.WriteString(prof.Template)
	default:
		fmt.Fprintf(b, "%s::%s(%s)", prof.Template, prof.Kind, prof.Name)
	}
	fmt.Fprintf(b, " %s\n", prof.Duration.Round(time.Microsecond))
	for _, c := range prof.Children {
		c.dump(b, depth+1)
	}
}
