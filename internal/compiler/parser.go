// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/ast/astutil"
	"github.com/open2b/stencil/builtin"
)

// importedSymbol is a template or a macro imported with the import and from
// tags.
type importedSymbol struct {
	name string          // name of the macro, empty for templates.
	node *ast.AssignName // variable that holds the imported template.
}

// scope is the state of the parsing of a single module. It is saved and
// restored when an embedded template is parsed.
type scope struct {
	module     *ast.Module
	parent     ast.Expression
	blocks     []*ast.Block
	macros     []*ast.Macro
	traits     []*ast.Trait
	embedded   []*ast.Module
	blockStack []string
	imports    []map[string]importedSymbol // last is the current scope, first is the main scope.
}

// parsing is a parsing state.
type parsing struct {

	// Token stream.
	stream *tokenStream

	// Name of the parsed template.
	name string

	// Source of the parsed template.
	source ast.Source

	// Callables.
	registry *builtin.Registry

	// Tag parsers.
	tags map[string]TagParser

	// Logger for the deprecation notices.
	logger *slog.Logger

	// State of the module in parsing.
	scope

	// Counter used for the temporary variable names.
	varNameSalt int

	// Counter used for the indexes of the embedded templates.
	embedIndex int
}

// ParseTemplate parses the source of a template and returns the tree. The
// embedded templates are in the Embedded field of the returned module.
func ParseTemplate(source ast.Source, registry *builtin.Registry, logger *slog.Logger) (tree *ast.Module, err error) {

	if registry == nil {
		registry = builtin.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lex := scanTemplate(source.Code)
	p := &parsing{
		stream:   newTokenStream(lex),
		name:     source.Name,
		source:   source,
		registry: registry,
		tags:     coreTags(),
		logger:   logger,
	}

	defer func() {
		lex.Stop()
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *SyntaxError:
				if e.Path == "" {
					e.Path = source.Name
				}
				tree = nil
				err = e
			case *LogicError:
				tree = nil
				err = e
			default:
				panic(r)
			}
		}
	}()

	tree = p.parseModule(nil, "", false)

	return tree, nil
}

// parseModule parses a module until test returns true or the end of the
// template. The state of the current module is saved and restored so that it
// can be called to parse an embedded template.
func (p *parsing) parseModule(test func(token) bool, opener string, dropNeedle bool) *ast.Module {

	saved := p.scope
	p.scope = scope{
		module:  ast.NewModule(p.source, nil, nil),
		imports: []map[string]importedSymbol{{}},
	}

	body := p.subparse(test, opener, dropNeedle)
	if p.parent != nil {
		body = p.filterBodyNodes(body)
	}

	module := p.module
	module.Body = body
	module.Parent = p.parent
	module.Blocks = p.blocks
	module.Macros = p.macros
	module.Traits = p.traits
	module.Embedded = p.embedded

	p.scope = saved

	return module
}

// subparse parses the statements until test returns true for the name of a
// tag. opener is the tag for which the statements are parsed and it is used
// in the error messages. If dropNeedle is true, the name is consumed.
func (p *parsing) subparse(test func(token) bool, opener string, dropNeedle bool) []ast.Node {

	line := p.stream.current().lin
	nodes := []ast.Node{}

	for !p.stream.isEOF() {
		switch tok := p.stream.current(); tok.typ {
		case tokenText:
			p.stream.next()
			nodes = append(nodes, ast.NewText(tok.lin, tok.txt))
		case tokenVarStart:
			p.stream.next()
			expr := p.parseExpression(0)
			p.stream.expect(tokenVarEnd, "", "")
			nodes = append(nodes, ast.NewPrint(tok.lin, expr))
		case tokenBlockStart:
			p.stream.next()
			tok = p.stream.current()
			if tok.typ != tokenName {
				panic(syntaxError(tok.lin, "A block must start with a tag name."))
			}
			if test != nil && test(tok) {
				if dropNeedle {
					p.stream.next()
				}
				return nodes
			}
			tag, ok := p.tags[tok.txt]
			if !ok {
				if test != nil {
					msg := fmt.Sprintf("Unexpected %q tag", tok.txt)
					if opener != "" {
						msg += fmt.Sprintf(" (expecting closing tag for the %q tag defined near line %d).", opener, line)
					}
					panic(syntaxError(tok.lin, "%s", msg))
				}
				panic(unknownNameError(tok.lin, tok.txt, p.tagNames(), "Unknown %q tag.", tok.txt))
			}
			p.stream.next()
			if node := tag.Parse(p, tok); node != nil {
				node.SetNodeTag(tag.Tag())
				nodes = append(nodes, node)
			}
		default:
			panic(syntaxError(tok.lin, "Lexer or parser ended up in unsupported state."))
		}
	}

	if test != nil {
		if opener != "" {
			panic(syntaxError(p.stream.current().lin, "Unexpected end of template (expecting closing tag for the %q tag defined near line %d).", opener, line))
		}
		panic(syntaxError(p.stream.current().lin, "Unexpected end of template."))
	}

	return nodes
}

// tagNames returns the names of the tags.
func (p *parsing) tagNames() []string {
	names := make([]string, 0, len(p.tags))
	for name := range p.tags {
		names = append(names, name)
	}
	return names
}

// filterBodyNodes removes, from the body of a template that extends another
// template, the nodes that only output white space, and returns an error
// for any other output.
func (p *parsing) filterBodyNodes(body []ast.Node) []ast.Node {
	filtered := make([]ast.Node, 0, len(body))
	for _, node := range body {
		if n := p.filterBodyNode(node, false); n != nil {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

const contentOutsideBlocks = "A template that extends another one cannot include content outside blocks." +
	" Did you forget to put the content inside a {%% block %%} tag?"

func (p *parsing) filterBodyNode(node ast.Node, nested bool) ast.Node {
	switch n := node.(type) {
	case *ast.Text:
		if isBlank(n.Data) {
			return nil
		}
		if strings.HasPrefix(n.Data, "\uFEFF") && isBlank(n.Data[3:]) {
			return nil
		}
		panic(syntaxError(n.Line, contentOutsideBlocks))
	case *ast.Print, *ast.SandboxedPrint, *ast.Include, *ast.Embed:
		panic(syntaxError(node.Pos(), contentOutsideBlocks))
	case *ast.Set:
		// A block in a captured body is a definition and it is also rendered.
		return node
	case *ast.BlockReference:
		if nested {
			panic(syntaxError(n.Line, "A block definition cannot be nested under non-capturing nodes."))
		}
		return nil
	case ast.Expression:
		return node
	}
	if _, ok := node.(*ast.Nodes); !ok {
		nested = true
	}
	astutil.Rewrite(node, func(_ string, child ast.Node) ast.Node {
		return p.filterBodyNode(child, nested)
	})
	return node
}

// isBlank reports whether s contains only white space.
func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}

// varName returns a new name for a temporary variable.
func (p *parsing) varName() string {
	name := fmt.Sprintf("__internal_parse_%d", p.varNameSalt)
	p.varNameSalt++
	return name
}

// block returns the block with the given name of the module in parsing, or
// nil if it does not exist.
func (p *parsing) block(name string) *ast.Block {
	for _, b := range p.blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// macro returns the macro with the given name of the module in parsing, or
// nil if it does not exist.
func (p *parsing) macro(name string) *ast.Macro {
	for _, m := range p.macros {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (p *parsing) pushBlockStack(name string) {
	p.blockStack = append(p.blockStack, name)
}

func (p *parsing) popBlockStack() {
	p.blockStack = p.blockStack[:len(p.blockStack)-1]
}

// peekBlockStack returns the name of the block in parsing or the empty
// string if it is not parsing a block.
func (p *parsing) peekBlockStack() string {
	if len(p.blockStack) == 0 {
		return ""
	}
	return p.blockStack[len(p.blockStack)-1]
}

func (p *parsing) pushLocalScope() {
	p.imports = append(p.imports, map[string]importedSymbol{})
}

func (p *parsing) popLocalScope() {
	p.imports = p.imports[:len(p.imports)-1]
}

// isMainScope reports whether it is parsing in the main scope, that is not
// in a block or in a macro.
func (p *parsing) isMainScope() bool {
	return len(p.imports) == 1
}

// addImportedSymbol adds an imported symbol of type typ, "template" or
// "function", to the current scope.
func (p *parsing) addImportedSymbol(typ, alias, name string, node *ast.AssignName) {
	p.imports[len(p.imports)-1][typ+":"+alias] = importedSymbol{name: name, node: node}
}

// importedSymbol returns the imported symbol of type typ with the given alias
// looking first in the current scope and then in the main scope.
func (p *parsing) importedSymbol(typ, alias string) (importedSymbol, bool) {
	key := typ + ":" + alias
	if s, ok := p.imports[len(p.imports)-1][key]; ok {
		return s, true
	}
	s, ok := p.imports[0][key]
	return s, ok
}

// hasTraits reports whether the module in parsing uses other templates.
func (p *parsing) hasTraits() bool {
	return len(p.traits) > 0
}

// embedTemplate adds an embedded template to the module in parsing.
func (p *parsing) embedTemplate(module *ast.Module) {
	p.embedIndex++
	module.Index = p.embedIndex
	p.embedded = append(p.embedded, module)
}

// deprecated logs the use of a deprecated callable.
func (p *parsing) deprecated(c *builtin.Callable, line int) {
	if c.Deprecated != "" {
		p.logger.Warn(c.DeprecationMessage(), "template", p.name, "line", line)
	}
}
