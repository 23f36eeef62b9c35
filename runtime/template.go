// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"sort"
	"sync"
)

// Unit is a compiled template or a template embedded in a compiled
// template. The types of the units are generated by the compiler and embed
// *Template.
//
// A unit is created each time a template is loaded and it is not safe for
// concurrent use.
type Unit interface {
	Base() *Template
	TemplateName() string
	Parent(ctx Context) interface{}
	Display(w *Writer, ctx Context, blocks Blocks)
	Block(name string) BlockFunc
	Macro(name string) MacroFunc
	IsTraitable() bool
	DebugInfo() map[int]int
	SourceContext() Source
}

// Source describes the source of a template.
type Source struct {
	Name string
	Path string
	Code string // empty if the template has not been compiled in debug mode.
}

// BlockFunc is the function of a block.
type BlockFunc func(w *Writer, ctx Context, blocks Blocks)

// MacroFunc is the function of a macro.
type MacroFunc func(args *Map) Safe

// Block is a block defined in a template.
type Block struct {
	Template Unit
	Name     string // name of the block in Template.
}

// display displays the block.
func (b Block) display(w *Writer, ctx Context, blocks Blocks) {
	f := b.Template.Block(b.Name)
	if f == nil {
		panic(errorf("Block %q on template %q does not exist.", b.Name, b.Template.TemplateName()))
	}
	f(w, ctx, blocks)
}

// Blocks maps the names of the blocks to their definitions.
type Blocks map[string]Block

// MergeBlocks returns a new Blocks with the blocks of all the arguments.
// The blocks of an argument replace those with the same name of the
// previous arguments.
func MergeBlocks(blocks ...Blocks) Blocks {
	merged := Blocks{}
	for _, bb := range blocks {
		for name, b := range bb {
			merged[name] = b
		}
	}
	return merged
}

// Imports maps the names of the imported templates to the templates.
type Imports map[string]Unit

// Clone returns a copy of imports. It never returns nil.
func (imports Imports) Clone() Imports {
	c := make(Imports, len(imports))
	for name, u := range imports {
		c[name] = u
	}
	return c
}

// Factory returns a new unit in env.
type Factory func(env *Env) Unit

type unitKey struct {
	name  string
	index int
}

var registry = struct {
	sync.RWMutex
	factories map[unitKey]Factory
}{factories: map[unitKey]Factory{}}

// Register registers the factory of the unit with the given index of the
// template name. The index of a template is 0, the embedded templates have
// the following indexes. It is called by the init functions of the
// generated code and it panics if the unit is already registered.
func Register(name string, index int, factory Factory) {
	registry.Lock()
	defer registry.Unlock()
	key := unitKey{name, index}
	if _, ok := registry.factories[key]; ok {
		panic("runtime: template " + name + " already registered")
	}
	registry.factories[key] = factory
}

// factory returns the factory of a unit.
func factory(name string, index int) (Factory, bool) {
	registry.RLock()
	f, ok := registry.factories[unitKey{name, index}]
	registry.RUnlock()
	return f, ok
}

// Templates returns the sorted names of the registered templates.
func Templates() []string {
	registry.RLock()
	var names []string
	for key := range registry.factories {
		if key.index == 0 {
			names = append(names, key.name)
		}
	}
	registry.RUnlock()
	sort.Strings(names)
	return names
}

// Template implements the methods shared by the units.
type Template struct {
	Env     *Env
	Self    Unit    // unit that embeds the template.
	Blocks  Blocks  // blocks of the template and of its traits.
	Traits  Blocks  // blocks of the traits.
	Imports Imports // templates imported globally.

	parent       Unit
	parentLoaded bool
}

// NewTemplate returns a new template in env.
func NewTemplate(env *Env) *Template {
	return &Template{Env: env, Imports: Imports{}}
}

// Base returns t.
func (t *Template) Base() *Template {
	return t
}

// Render displays the template with ctx merged with the globals, and with
// blocks merged with the blocks of the template.
func (t *Template) Render(w *Writer, ctx Context, blocks Blocks) {
	t.Self.Display(w, t.Env.MergeGlobals(ctx), MergeBlocks(t.Blocks, blocks))
}

// LoadParent loads and returns the parent template. It returns nil if the
// template has no parent.
func (t *Template) LoadParent(ctx Context) Unit {
	if t.parentLoaded {
		return t.parent
	}
	p := t.Self.Parent(ctx)
	t.parentLoaded = true
	if p == nil {
		return nil
	}
	t.parent = t.Env.load(p)
	return t.parent
}

// DisplayParent displays the parent template with the blocks of t.
func (t *Template) DisplayParent(w *Writer, parent Unit, ctx Context, blocks Blocks) {
	if parent == nil {
		panic(errorf("The parent template of %q is not defined.", t.Self.TemplateName()))
	}
	parent.Base().Render(w, ctx, MergeBlocks(t.Blocks, blocks))
}

// DisplayBlock displays the block name. If useBlocks is true, the blocks
// passed are searched before those of the template.
func (t *Template) DisplayBlock(w *Writer, name interface{}, ctx Context, blocks Blocks, useBlocks bool) {
	n := String(name)
	if useBlocks {
		if b, ok := blocks[n]; ok {
			b.display(w, ctx, blocks)
			return
		}
	}
	if b, ok := t.Blocks[n]; ok {
		b.display(w, ctx, blocks)
		return
	}
	if parent := t.LoadParent(ctx); parent != nil {
		parent.Base().DisplayBlock(w, n, ctx, MergeBlocks(t.Blocks, blocks), false)
		return
	}
	if _, ok := blocks[n]; ok {
		panic(errorf("Block %q should not call parent() in %q as the block does not exist in the parent template.",
			n, t.Self.TemplateName()))
	}
	panic(errorf("Block %q on template %q does not exist.", n, t.Self.TemplateName()))
}

// DisplayBlockOf displays the block name of the template template.
func (t *Template) DisplayBlockOf(w *Writer, template, name interface{}, ctx Context) {
	u := t.Env.load(template)
	u.Base().DisplayBlock(w, name, ctx, nil, true)
}

// DisplayParentBlock displays the block name as defined by the traits or
// by the parent template.
func (t *Template) DisplayParentBlock(w *Writer, name string, ctx Context, blocks Blocks) {
	if b, ok := t.Traits[name]; ok {
		b.display(w, ctx, blocks)
		return
	}
	if parent := t.LoadParent(ctx); parent != nil {
		parent.Base().DisplayBlock(w, name, ctx, blocks, false)
		return
	}
	panic(errorf("The template %q has no parent and no traits defining the %q block.", t.Self.TemplateName(), name))
}

// RenderBlock renders the block name, of the template template if it is not
// nil, and returns the output.
func (t *Template) RenderBlock(name interface{}, ctx Context, blocks Blocks, template interface{}) Safe {
	w := NewBuffer()
	if template != nil {
		t.DisplayBlockOf(w, template, name, ctx)
	} else {
		t.DisplayBlock(w, name, ctx, blocks, true)
	}
	return w.Safe()
}

// RenderParentBlock renders the parent block name and returns the output.
func (t *Template) RenderParentBlock(name string, ctx Context, blocks Blocks) Safe {
	w := NewBuffer()
	t.DisplayParentBlock(w, name, ctx, blocks)
	return w.Safe()
}

// HasBlock reports whether the block name is defined, in the template
// template if it is not nil.
func (t *Template) HasBlock(name interface{}, ctx Context, blocks Blocks, template interface{}) bool {
	if template != nil {
		u, err := t.Env.loadValue(template)
		if err != nil {
			return false
		}
		return u.Base().HasBlock(name, ctx, nil, nil)
	}
	n := String(name)
	if _, ok := blocks[n]; ok {
		return true
	}
	if _, ok := t.Blocks[n]; ok {
		return true
	}
	if parent := t.LoadParent(ctx); parent != nil {
		return parent.Base().HasBlock(n, ctx, nil, nil)
	}
	return false
}

// Include displays the template template. If only is true, the context of
// the included template has only the variables vars, otherwise it has also
// the variables of ctx. If ignoreMissing is true, a missing template is
// ignored.
func (t *Template) Include(w *Writer, ctx Context, template, vars interface{}, only, ignoreMissing bool) {
	u, err := t.Env.loadValue(template)
	if err != nil {
		var notFound *NotFoundError
		if ignoreMissing && errors.As(err, &notFound) {
			return
		}
		panic(err)
	}
	u.Base().Render(w, t.scope(ctx, vars, only, `Variables passed to the "include" function or tag must be iterable, got %q.`), nil)
}

// Embed displays the embedded template with the given index.
func (t *Template) Embed(w *Writer, ctx Context, index int, vars interface{}, only, ignoreMissing bool) {
	u := t.Env.loadEmbedded(t.Self.TemplateName(), index)
	scope := t.scope(ctx, vars, only, `Variables passed to the "embed" tag must be iterable, got %q.`)
	if ignoreMissing {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(*NotFoundError); !ok {
					panic(r)
				}
			}
		}()
	}
	u.Base().Render(w, scope, nil)
}

// scope returns the context of an included template.
func (t *Template) scope(ctx Context, vars interface{}, only bool, msg string) Context {
	scope := contextOf(vars, msg)
	if only {
		return scope
	}
	c := ctx.Clone()
	for k, v := range scope {
		c[k] = v
	}
	return c
}

// Import loads the template template to call its macros.
func (t *Template) Import(template interface{}) Unit {
	return t.Env.load(template)
}

// CallMacro calls the macro name of the template template.
func (t *Template) CallMacro(template interface{}, name string, args interface{}) Safe {
	u, ok := template.(Unit)
	if !ok {
		panic(errorf("Macro %q is not defined: the template has not been imported.", name))
	}
	f := u.Macro(name)
	if f == nil {
		panic(errorf("Macro %q is not defined in template %q.", name, u.TemplateName()))
	}
	return f(ToMap(args))
}

// HasMacro reports whether the template template has the macro name.
func (t *Template) HasMacro(template interface{}, name string) bool {
	u, ok := template.(Unit)
	return ok && u.Macro(name) != nil
}

// Var returns the value of the variable name. It panics if the variable
// does not exist.
func (t *Template) Var(ctx Context, name string) interface{} {
	v, ok := ctx[name]
	if !ok {
		panic(errorf("Variable %q does not exist.", name))
	}
	return v
}

// With returns the context of a with tag.
func (t *Template) With(ctx Context, vars interface{}, only bool) Context {
	scope := t.scope(ctx, vars, only, `Variables passed to a "with" tag must be a hash, got %q.`)
	scope["_parent"] = ctx
	return scope
}

// Deprecated logs a deprecation notice.
func (t *Template) Deprecated(msg interface{}) {
	t.Env.logger.Warn(String(msg), "template", t.Self.TemplateName())
}

// CheckSecurity checks the tags, filters and functions used by the
// template against the security policy, if the sandbox is enabled.
func (t *Template) CheckSecurity(tags, filters, functions []Usage) {
	if line, err := t.Env.CheckSecurity(tags, filters, functions); err != nil {
		panic(&Error{Template: t.Self.TemplateName(), Line: line, Err: err})
	}
}

// UseTrait returns the blocks of the trait template, with the blocks
// renamed as in renames.
func (t *Template) UseTrait(template interface{}, renames [][2]string) Blocks {
	u := t.Env.load(template)
	if !u.IsTraitable() {
		panic(errorf("Template %q cannot be used as a trait.", u.TemplateName()))
	}
	blocks := MergeBlocks(u.Base().Blocks)
	for _, r := range renames {
		b, ok := blocks[r[0]]
		if !ok {
			panic(errorf("Block %q is not defined in trait %q.", r[0], u.TemplateName()))
		}
		blocks[r[1]] = b
		delete(blocks, r[0])
	}
	return blocks
}
