// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast declares the types used to define the template trees.
//
// For example, the source in an "articles.html" file:
//
//	{% for article in articles %}
//	<div>{{ article.title }}</div>
//	{% endfor %}
//
// is represented with the tree:
//
//	ast.NewModule(ast.Source{Name: "articles.html"}, []ast.Node{
//		ast.NewFor(1,
//			ast.NewAssignName(1, "_key"),
//			ast.NewAssignName(1, "article"),
//			ast.NewName(1, "articles"),
//			[]ast.Node{
//				ast.NewText(1, "\n<div>"),
//				ast.NewPrint(2, ast.NewGetAttr(2,
//					ast.NewName(2, "article"),
//					ast.NewConstant(2, "title"),
//					nil, ast.AnyCall)),
//				ast.NewText(2, "</div>\n"),
//			},
//			nil,
//		),
//	}, nil)
package ast

import (
	"strconv"
	"strings"
)

// UnknownLine is the line of a node whose position in the source is not
// known. It is replaced with the line of the parent when the node is added
// to the tree.
const UnknownLine = -1

// Node is an element of the tree.
type Node interface {
	Pos() int              // line in the source, UnknownLine if unknown
	SetPos(line int)       // set the line
	NodeTag() string       // name of the tag that produced the node
	SetNodeTag(tag string) // set the tag name
	Attr(name string) interface{}
	SetAttr(name string, value interface{})
	HasAttr(name string) bool
	Attrs() []Attribute
}

// Attribute is a compile-time metadata of a node. Value is a scalar (string,
// bool, int, float64 or nil) or a literal array ([]interface{} or
// map[string]interface{}), never a Node.
type Attribute struct {
	Name  string
	Value interface{}
}

// Base is embedded in every node and implements the Node interface.
type Base struct {
	Line  int    // line in the source.
	Tag   string // originating tag.
	attrs []Attribute
}

func base(line int) Base {
	return Base{Line: line}
}

// Copy returns a copy of b that does not share the attributes.
func (b Base) Copy() Base {
	b.attrs = append([]Attribute(nil), b.attrs...)
	return b
}

func (b *Base) Pos() int { return b.Line }

func (b *Base) SetPos(line int) { b.Line = line }

func (b *Base) NodeTag() string { return b.Tag }

func (b *Base) SetNodeTag(tag string) { b.Tag = tag }

// Attr returns the value of the attribute with the given name or nil if the
// attribute does not exist.
func (b *Base) Attr(name string) interface{} {
	for _, a := range b.attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}

// SetAttr sets the value of an attribute. Attributes keep the order in which
// they have been set the first time.
func (b *Base) SetAttr(name string, value interface{}) {
	for i, a := range b.attrs {
		if a.Name == name {
			b.attrs[i].Value = value
			return
		}
	}
	b.attrs = append(b.attrs, Attribute{name, value})
}

func (b *Base) HasAttr(name string) bool {
	for _, a := range b.attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Attrs returns the attributes in insertion order.
func (b *Base) Attrs() []Attribute {
	return b.attrs
}

// Source is the source of a template.
type Source struct {
	Name string // name of the template.
	Path string // path of the file, if any.
	Code string // source code.
}

// ExtensionPoint identifies a list of nodes of a Module in which the rewriting
// passes inject code.
type ExtensionPoint int

const (
	ConstructorStart ExtensionPoint = iota
	ConstructorEnd
	DisplayStart
	DisplayEnd
	ClassEnd
	PreTraversal
)

func (p ExtensionPoint) String() string {
	return []string{"constructor_start", "constructor_end", "display_start",
		"display_end", "class_end", "pre_traversal"}[p]
}

// Module node represents a whole template, the root of a tree.
type Module struct {
	Base
	Source   Source
	Body     []Node     // nodes of the body.
	Blocks   []*Block   // blocks in order of definition.
	Macros   []*Macro   // macros in order of definition.
	Parent   Expression // parent template, nil if the template does not extend.
	Traits   []*Trait   // used templates.
	Embedded []*Module  // embedded templates.
	Index    int        // 0 for a template, greater than 0 for embedded templates.
	Points   [6][]Node  // extension points.
}

func NewModule(source Source, body []Node, parent Expression) *Module {
	if body == nil {
		body = []Node{}
	}
	return &Module{Base: base(1), Source: source, Body: body, Parent: parent}
}

// Block returns the block with the given name, or nil.
func (n *Module) Block(name string) *Block {
	for _, b := range n.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Macro returns the macro with the given name, or nil.
func (n *Module) Macro(name string) *Macro {
	for _, m := range n.Macros {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Point returns the nodes of the extension point p.
func (n *Module) Point(p ExtensionPoint) []Node {
	return n.Points[p]
}

// Prepend adds nodes at the beginning of the extension point p.
func (n *Module) Prepend(p ExtensionPoint, nodes ...Node) {
	n.Points[p] = append(append([]Node{}, nodes...), n.Points[p]...)
}

// Append adds nodes at the end of the extension point p.
func (n *Module) Append(p ExtensionPoint, nodes ...Node) {
	n.Points[p] = append(n.Points[p], nodes...)
}

// IsTraitable reports whether the template can be used as a trait, that is it
// has no parent, no macros and its body contains only white space text and
// block references. The result is not cached because the passes can rewrite
// the body.
func (n *Module) IsTraitable() bool {
	if n.Parent != nil || len(n.Macros) > 0 {
		return false
	}
	for _, node := range n.Body {
		switch node := node.(type) {
		case *Text:
			if strings.TrimSpace(node.Data) != "" {
				return false
			}
		case *BlockReference:
		default:
			return false
		}
	}
	return true
}

// Trait node represents a template used with {% use %}.
type Trait struct {
	Base
	Template Expression    // template, it is always a constant.
	Targets  []TraitTarget // renamed blocks.
}

// TraitTarget is a block imported from a trait with a different name.
type TraitTarget struct {
	Name  string // name of the block in the trait.
	Alias string // name of the block in the template.
}

func NewTrait(line int, template Expression, targets []TraitTarget) *Trait {
	return &Trait{base(line), template, targets}
}

// Nodes node represents a sequence of statements without a scope.
type Nodes struct {
	Base
	Nodes []Node
}

func NewNodes(line int, nodes []Node) *Nodes {
	return &Nodes{base(line), nodes}
}

// Text node represents a text in the source.
type Text struct {
	Base
	Data string
}

func NewText(line int, data string) *Text {
	return &Text{base(line), data}
}

func (n *Text) String() string {
	return n.Data
}

// Print node represents a statement {{ ... }}.
type Print struct {
	Base
	Expr Expression
}

func NewPrint(line int, expr Expression) *Print {
	return &Print{base(line), expr}
}

func (n *Print) String() string {
	return "{{ " + n.Expr.String() + " }}"
}

// SandboxedPrint node represents a statement {{ ... }} in a sandboxed
// template. The value is checked against the security policy before it is
// rendered.
type SandboxedPrint struct {
	Base
	Expr Expression
}

func NewSandboxedPrint(line int, expr Expression) *SandboxedPrint {
	return &SandboxedPrint{base(line), expr}
}

// Set node represents a statement {% set ... %}.
type Set struct {
	Base
	Names   []Expression // AssignName or TempName nodes.
	Values  []Expression // values, nil if Capture is true.
	Body    []Node       // captured body.
	Capture bool         // reports whether the body is captured.
	Safe    bool         // reports whether the value is safe markup.
}

func NewSet(line int, names []Expression, values []Expression, body []Node, capture bool) *Set {
	n := &Set{Base: base(line), Names: names, Values: values, Body: body, Capture: capture}
	if capture {
		n.Safe = true
		// A captured text is a constant.
		if len(body) == 1 {
			if text, ok := body[0].(*Text); ok {
				n.Values = []Expression{NewConstant(text.Line, text.Data)}
				n.Body = nil
				n.Capture = false
			}
		}
	}
	return n
}

// IfBranch is a condition with its body.
type IfBranch struct {
	Cond Expression
	Body []Node
}

// If node represents a statement {% if ... %}.
type If struct {
	Base
	Branches []IfBranch // if and elseif branches.
	Else     []Node     // else body, nil if there is no else.
}

func NewIf(line int, branches []IfBranch, els []Node) *If {
	return &If{base(line), branches, els}
}

// For node represents a statement {% for ... in ... %}.
type For struct {
	Base
	KeyTarget   *AssignName
	ValueTarget *AssignName
	Seq         Expression
	Body        []Node
	Else        []Node   // nil if there is no else.
	Step        *ForLoop // per-iteration step, executed after the body.
	WithLoop    bool     // reports whether the loop variable must be built.
}

func NewFor(line int, key, value *AssignName, seq Expression, body, els []Node) *For {
	if body == nil {
		body = []Node{}
	}
	return &For{
		Base:        base(line),
		KeyTarget:   key,
		ValueTarget: value,
		Seq:         seq,
		Body:        body,
		Else:        els,
		Step:        NewForLoop(line),
		WithLoop:    true,
	}
}

// ForLoop node represents the step executed at the end of every iteration of
// a For node. Its flags are copied from the owning For node before it is
// compiled.
type ForLoop struct {
	Base
	WithLoop bool
	HasElse  bool
}

func NewForLoop(line int) *ForLoop {
	return &ForLoop{Base: base(line)}
}

// Block node represents a statement {% block ... %}.
type Block struct {
	Base
	Name string
	Body []Node
}

func NewBlock(line int, name string, body []Node) *Block {
	if body == nil {
		body = []Node{}
	}
	return &Block{base(line), name, body}
}

// BlockReference node represents the position of a block in the body of the
// template that defined it.
type BlockReference struct {
	Base
	Name string
}

func NewBlockReference(line int, name string) *BlockReference {
	return &BlockReference{base(line), name}
}

// Include node represents a statement {% include ... %}.
type Include struct {
	Base
	Expr          Expression // template.
	Variables     Expression // variables, nil if there are no variables.
	Only          bool
	IgnoreMissing bool
}

func NewInclude(line int, expr, variables Expression, only, ignoreMissing bool) *Include {
	return &Include{base(line), expr, variables, only, ignoreMissing}
}

// Embed node represents a statement {% embed ... %}. The embedded template
// is the Module with index Index in the Embedded field of the root.
type Embed struct {
	Base
	Name          string
	Index         int
	Variables     Expression
	Only          bool
	IgnoreMissing bool
}

func NewEmbed(line int, name string, index int, variables Expression, only, ignoreMissing bool) *Embed {
	return &Embed{base(line), name, index, variables, only, ignoreMissing}
}

// Import node represents the statements {% import ... %} and
// {% from ... import ... %}.
type Import struct {
	Base
	Expr   Expression  // imported template.
	Var    *AssignName // variable that holds the imported template.
	Global bool        // reports whether the import is in the main scope.
}

func NewImport(line int, expr Expression, v *AssignName, global bool) *Import {
	return &Import{base(line), expr, v, global}
}

// MacroArgument is an argument of a macro with its default value.
type MacroArgument struct {
	Name    string
	Default Expression // constant, nil if there is no default value.
}

// Macro node represents a statement {% macro ... %}.
type Macro struct {
	Base
	Name      string
	Arguments []MacroArgument
	Body      []Node
}

// VarArgsName is the name of the variable holding the arbitrary arguments
// passed to a macro.
const VarArgsName = "varargs"

func NewMacro(line int, name string, arguments []MacroArgument, body []Node) *Macro {
	if body == nil {
		body = []Node{}
	}
	return &Macro{base(line), name, arguments, body}
}

// Flush node represents a statement {% flush %}.
type Flush struct {
	Base
}

func NewFlush(line int) *Flush {
	return &Flush{base(line)}
}

// Spaceless node represents a statement {% spaceless %}.
type Spaceless struct {
	Base
	Body []Node
}

func NewSpaceless(line int, body []Node) *Spaceless {
	return &Spaceless{base(line), body}
}

// Sandbox node represents a statement {% sandbox %}.
type Sandbox struct {
	Base
	Body []Node
}

func NewSandbox(line int, body []Node) *Sandbox {
	return &Sandbox{base(line), body}
}

// AutoEscape node represents a statement {% autoescape %}. Strategy is empty
// if the escaping is disabled.
type AutoEscape struct {
	Base
	Strategy string
	Body     []Node
}

func NewAutoEscape(line int, strategy string, body []Node) *AutoEscape {
	return &AutoEscape{base(line), strategy, body}
}

// Do node represents a statement {% do ... %}.
type Do struct {
	Base
	Expr Expression
}

func NewDo(line int, expr Expression) *Do {
	return &Do{base(line), expr}
}

// With node represents a statement {% with ... %}.
type With struct {
	Base
	Variables Expression // nil if there are no variables.
	Only      bool
	Body      []Node
}

func NewWith(line int, variables Expression, only bool, body []Node) *With {
	return &With{base(line), variables, only, body}
}

// Deprecated node represents a statement {% deprecated ... %}.
type Deprecated struct {
	Base
	Expr Expression
}

func NewDeprecated(line int, expr Expression) *Deprecated {
	return &Deprecated{base(line), expr}
}

// Usage is the first usage of a tag, filter or function in a template.
type Usage struct {
	Name string
	Line int
}

// CheckSecurity node checks, at run time, the tags, filters and functions
// used by a template against the security policy.
type CheckSecurity struct {
	Base
	Tags      []Usage
	Filters   []Usage
	Functions []Usage
}

func NewCheckSecurity(tags, filters, functions []Usage) *CheckSecurity {
	return &CheckSecurity{Base: base(UnknownLine), Tags: tags, Filters: filters, Functions: functions}
}

// Profile kinds.
const (
	ProfileTemplate = "template"
	ProfileBlock    = "block"
	ProfileMacro    = "macro"
)

// ProfilerEnter node starts the profiling of a region.
type ProfilerEnter struct {
	Base
	Kind    string // ProfileTemplate, ProfileBlock or ProfileMacro.
	Name    string // name of the template, block or macro.
	VarName string // name of the correlation variable.
}

func NewProfilerEnter(kind, name, varName string) *ProfilerEnter {
	return &ProfilerEnter{base(UnknownLine), kind, name, varName}
}

// ProfilerLeave node ends the profiling of a region.
type ProfilerLeave struct {
	Base
	VarName string
}

func NewProfilerLeave(varName string) *ProfilerLeave {
	return &ProfilerLeave{base(UnknownLine), varName}
}

func (n *Module) String() string {
	return "module " + strconv.Quote(n.Source.Name)
}
