// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/stencil/ast"
)

// TagParser parses a tag. Parse is called with the token of the tag name
// already consumed and must consume the tokens up to and including the end of
// the tag. It returns the node of the tag, or nil if the tag only changes the
// state of the parsing.
type TagParser interface {
	Tag() string
	Parse(p *parsing, tok token) ast.Node
}

type tagFunc struct {
	name  string
	parse func(p *parsing, tok token) ast.Node
}

func (t tagFunc) Tag() string { return t.name }

func (t tagFunc) Parse(p *parsing, tok token) ast.Node { return t.parse(p, tok) }

// coreTags returns the core tag parsers.
func coreTags() map[string]TagParser {
	tags := map[string]TagParser{}
	for _, t := range []tagFunc{
		{"apply", parseApply},
		{"autoescape", parseAutoEscape},
		{"block", parseBlock},
		{"deprecated", parseDeprecated},
		{"do", parseDo},
		{"embed", parseEmbed},
		{"extends", parseExtends},
		{"flush", parseFlush},
		{"for", parseFor},
		{"from", parseFrom},
		{"if", parseIf},
		{"import", parseImport},
		{"include", parseInclude},
		{"macro", parseMacro},
		{"sandbox", parseSandbox},
		{"set", parseSet},
		{"spaceless", parseSpaceless},
		{"use", parseUse},
		{"with", parseWith},
	} {
		tags[t.name] = t
	}
	return tags
}

// decide returns a function that reports whether a token is the name of one
// of the given tags.
func decide(names ...string) func(token) bool {
	return func(tok token) bool {
		return tok.is(tokenName, names...)
	}
}

var (
	decideApplyEnd      = decide("endapply")
	decideAutoEscapeEnd = decide("endautoescape")
	decideBlockEnd      = decide("endblock")
	decideEmbedEnd      = decide("endembed")
	decideForFork       = decide("else", "endfor")
	decideForEnd        = decide("endfor")
	decideIfFork        = decide("elseif", "else", "endif")
	decideIfEnd         = decide("endif")
	decideMacroEnd      = decide("endmacro")
	decideSandboxEnd    = decide("endsandbox")
	decideSetEnd        = decide("endset")
	decideSpacelessEnd  = decide("endspaceless")
	decideWithEnd       = decide("endwith")
)

// expectEnd expects the end of a tag.
func (p *parsing) expectEnd() {
	p.stream.expect(tokenBlockEnd, "", "")
}

// {% apply upper|trim %}...{% endapply %}
func parseApply(p *parsing, tok token) ast.Node {
	name := p.varName()
	filter := p.parseFilterExpressionRaw(ast.NewTempName(tok.lin, name))
	p.expectEnd()
	body := p.subparse(decideApplyEnd, "apply", true)
	p.expectEnd()
	set := ast.NewSet(tok.lin, []ast.Expression{ast.NewTempName(tok.lin, name)}, nil, body, true)
	return ast.NewNodes(tok.lin, []ast.Node{set, ast.NewPrint(tok.lin, filter)})
}

// {% autoescape 'js' %}...{% endautoescape %}
func parseAutoEscape(p *parsing, tok token) ast.Node {
	strategy := "html"
	if !p.stream.test(tokenBlockEnd) {
		expr := p.parseExpression(0)
		c, ok := expr.(*ast.Constant)
		if !ok {
			panic(syntaxError(tok.lin, "An escaping strategy must be a string or false."))
		}
		switch v := c.Value.(type) {
		case bool:
			if !v {
				strategy = ""
			}
		case string:
			strategy = v
		default:
			panic(syntaxError(tok.lin, "An escaping strategy must be a string or false."))
		}
	}
	p.expectEnd()
	body := p.subparse(decideAutoEscapeEnd, "autoescape", true)
	p.expectEnd()
	return ast.NewAutoEscape(tok.lin, strategy, body)
}

// {% block name %}...{% endblock %} or {% block name expr %}
func parseBlock(p *parsing, tok token) ast.Node {
	name := p.stream.expect(tokenName, "", "").txt
	if b := p.block(name); b != nil {
		panic(syntaxError(p.stream.current().lin, "The block '%s' has already been defined line %d.", name, b.Line))
	}
	block := ast.NewBlock(tok.lin, name, nil)
	block.SetNodeTag("block")
	p.blocks = append(p.blocks, block)
	p.pushLocalScope()
	p.pushBlockStack(name)
	if _, ok := p.stream.nextIf(tokenBlockEnd); ok {
		block.Body = p.subparse(decideBlockEnd, "block", true)
		if end, ok := p.stream.nextIf(tokenName); ok && end.txt != name {
			panic(syntaxError(end.lin, "Expected endblock for block %q (but %q given).", name, end.txt))
		}
	} else {
		block.Body = []ast.Node{ast.NewPrint(tok.lin, p.parseExpression(0))}
	}
	p.expectEnd()
	p.popBlockStack()
	p.popLocalScope()
	return ast.NewBlockReference(tok.lin, name)
}

// {% deprecated 'message' %}
func parseDeprecated(p *parsing, tok token) ast.Node {
	expr := p.parseExpression(0)
	p.expectEnd()
	return ast.NewDeprecated(tok.lin, expr)
}

// {% do expr %}
func parseDo(p *parsing, tok token) ast.Node {
	expr := p.parseExpression(0)
	p.expectEnd()
	return ast.NewDo(tok.lin, expr)
}

// {% embed 'template' with {...} only %}...{% endembed %}
//
// The body is parsed as a template that extends the embedded template.
func parseEmbed(p *parsing, tok token) ast.Node {
	parent := p.parseExpression(0)
	vars, only, ignoreMissing := p.parseIncludeArguments()
	parentTok := token{typ: tokenString, txt: "__parent__", lin: tok.lin}
	fake := true
	switch n := parent.(type) {
	case *ast.Constant:
		if s, ok := n.Value.(string); ok {
			parentTok.txt = s
			fake = false
		}
	case *ast.Name:
		parentTok = token{typ: tokenName, txt: n.Name, lin: tok.lin}
		fake = false
	}
	p.stream.inject(
		token{typ: tokenBlockStart, txt: "{%", lin: tok.lin},
		token{typ: tokenName, txt: "extends", lin: tok.lin},
		parentTok,
		token{typ: tokenBlockEnd, txt: "%}", lin: tok.lin},
	)
	module := p.parseModule(decideEmbedEnd, "embed", true)
	if fake {
		module.Parent = parent
	}
	p.embedTemplate(module)
	p.expectEnd()
	return ast.NewEmbed(tok.lin, module.Source.Name, module.Index, vars, only, ignoreMissing)
}

// {% extends 'template' %}
func parseExtends(p *parsing, tok token) ast.Node {
	if p.peekBlockStack() != "" {
		panic(syntaxError(tok.lin, `Cannot use "extend" in a block.`))
	}
	if !p.isMainScope() {
		panic(syntaxError(tok.lin, `Cannot use "extend" in a macro.`))
	}
	if p.parent != nil {
		panic(syntaxError(tok.lin, "Multiple extends tags are forbidden."))
	}
	p.parent = p.parseExpression(0)
	p.parent.SetNodeTag("extends")
	p.expectEnd()
	return nil
}

// {% flush %}
func parseFlush(p *parsing, tok token) ast.Node {
	p.expectEnd()
	return ast.NewFlush(tok.lin)
}

// {% for k, v in seq %}...{% else %}...{% endfor %}
func parseFor(p *parsing, tok token) ast.Node {
	targets := p.parseAssignmentExpression()
	p.stream.expect(tokenOperator, "in", "")
	seq := p.parseExpression(0)
	p.expectEnd()
	body := p.subparse(decideForFork, "for", false)
	var els []ast.Node
	if p.stream.next().txt == "else" {
		p.expectEnd()
		els = p.subparse(decideForEnd, "for", true)
	}
	p.expectEnd()
	var key, value *ast.AssignName
	if len(targets) > 1 {
		key, value = targets[0], targets[1]
	} else {
		key, value = ast.NewAssignName(tok.lin, "_key"), targets[0]
	}
	return ast.NewFor(tok.lin, key, value, seq, body, els)
}

// {% from 'template' import a, b as c %}
func parseFrom(p *parsing, tok token) ast.Node {
	expr := p.parseExpression(0)
	p.stream.expect(tokenName, "import", "")
	type target struct{ name, alias string }
	var targets []target
	for {
		name := p.stream.expect(tokenName, "", "").txt
		alias := name
		if _, ok := p.stream.nextIf(tokenName, "as"); ok {
			alias = p.stream.expect(tokenName, "", "").txt
		}
		targets = append(targets, target{name, alias})
		if _, ok := p.stream.nextIf(tokenPunctuation, ","); !ok {
			break
		}
	}
	p.expectEnd()
	v := ast.NewAssignName(tok.lin, p.varName())
	for _, t := range targets {
		p.addImportedSymbol("function", t.alias, t.name, v)
	}
	return ast.NewImport(tok.lin, expr, v, p.isMainScope())
}

// {% if a %}...{% elseif b %}...{% else %}...{% endif %}
func parseIf(p *parsing, tok token) ast.Node {
	cond := p.parseExpression(0)
	p.expectEnd()
	branches := []ast.IfBranch{{Cond: cond, Body: p.subparse(decideIfFork, "if", false)}}
	var els []ast.Node
	for end := false; !end; {
		switch t := p.stream.next(); t.txt {
		case "else":
			p.expectEnd()
			els = p.subparse(decideIfEnd, "if", false)
		case "elseif":
			cond := p.parseExpression(0)
			p.expectEnd()
			branches = append(branches, ast.IfBranch{Cond: cond, Body: p.subparse(decideIfFork, "if", false)})
		case "endif":
			end = true
		default:
			panic(syntaxError(t.lin, "Unexpected end of template. Expected one of the tags \"else\", \"elseif\","+
				" or \"endif\" to close the \"if\" block started at line %d.", tok.lin))
		}
	}
	p.expectEnd()
	return ast.NewIf(tok.lin, branches, els)
}

// {% import 'template' as name %}
func parseImport(p *parsing, tok token) ast.Node {
	expr := p.parseExpression(0)
	p.stream.expect(tokenName, "as", "")
	name := p.stream.expect(tokenName, "", "")
	v := ast.NewAssignName(name.lin, name.txt)
	p.addImportedSymbol("template", name.txt, "", v)
	p.expectEnd()
	return ast.NewImport(tok.lin, expr, v, p.isMainScope())
}

// {% include 'template' ignore missing with {...} only %}
func parseInclude(p *parsing, tok token) ast.Node {
	expr := p.parseExpression(0)
	vars, only, ignoreMissing := p.parseIncludeArguments()
	return ast.NewInclude(tok.lin, expr, vars, only, ignoreMissing)
}

// parseIncludeArguments parses the arguments of the include and embed tags
// and the end of the tag.
func (p *parsing) parseIncludeArguments() (vars ast.Expression, only, ignoreMissing bool) {
	if _, ok := p.stream.nextIf(tokenName, "ignore"); ok {
		p.stream.expect(tokenName, "missing", "")
		ignoreMissing = true
	}
	if _, ok := p.stream.nextIf(tokenName, "with"); ok {
		vars = p.parseExpression(0)
	}
	if _, ok := p.stream.nextIf(tokenName, "only"); ok {
		only = true
	}
	p.expectEnd()
	return vars, only, ignoreMissing
}

// {% macro name(a, b = 1) %}...{% endmacro %}
func parseMacro(p *parsing, tok token) ast.Node {
	name := p.stream.expect(tokenName, "", "").txt
	args := p.parseMacroArguments(name)
	p.expectEnd()
	p.pushLocalScope()
	body := p.subparse(decideMacroEnd, "macro", true)
	if end, ok := p.stream.nextIf(tokenName); ok && end.txt != name {
		panic(syntaxError(end.lin, "Expected endmacro for macro %q (but %q given).", name, end.txt))
	}
	p.popLocalScope()
	p.expectEnd()
	if m := p.macro(name); m != nil {
		panic(syntaxError(tok.lin, "The macro %q has already been defined line %d.", name, m.Line))
	}
	macro := ast.NewMacro(tok.lin, name, args, body)
	macro.SetNodeTag("macro")
	p.macros = append(p.macros, macro)
	return nil
}

// {% sandbox %}{% include 'template' %}{% endsandbox %}
func parseSandbox(p *parsing, tok token) ast.Node {
	p.expectEnd()
	body := p.subparse(decideSandboxEnd, "sandbox", true)
	p.expectEnd()
	for _, node := range body {
		switch n := node.(type) {
		case *ast.Include:
		case *ast.Text:
			if !isBlank(n.Data) {
				panic(syntaxError(n.Line, `Only "include" tags are allowed within a "sandbox" section.`))
			}
		default:
			panic(syntaxError(node.Pos(), `Only "include" tags are allowed within a "sandbox" section.`))
		}
	}
	return ast.NewSandbox(tok.lin, body)
}

// {% set a, b = 1, 2 %} or {% set a %}...{% endset %}
func parseSet(p *parsing, tok token) ast.Node {
	targets := p.parseAssignmentExpression()
	names := make([]ast.Expression, len(targets))
	for i, t := range targets {
		names[i] = t
	}
	if _, ok := p.stream.nextIf(tokenOperator, "="); ok {
		values := p.parseMultitargetExpression()
		p.expectEnd()
		if len(names) != len(values) {
			panic(syntaxError(tok.lin, "When using set, you must have the same number of variables and assignments."))
		}
		return ast.NewSet(tok.lin, names, values, nil, false)
	}
	if len(names) > 1 {
		panic(syntaxError(tok.lin, "When using set with a block, you cannot have a multi-target."))
	}
	p.expectEnd()
	body := p.subparse(decideSetEnd, "set", true)
	p.expectEnd()
	return ast.NewSet(tok.lin, names, nil, body, true)
}

// {% spaceless %}...{% endspaceless %}
func parseSpaceless(p *parsing, tok token) ast.Node {
	p.expectEnd()
	body := p.subparse(decideSpacelessEnd, "spaceless", true)
	p.expectEnd()
	return ast.NewSpaceless(tok.lin, body)
}

// {% use 'template' with a as b, c %}
func parseUse(p *parsing, tok token) ast.Node {
	template := p.parseExpression(0)
	if c, ok := template.(*ast.Constant); !ok {
		panic(syntaxError(tok.lin, `The template references in a "use" statement must be a string.`))
	} else if _, ok := c.Value.(string); !ok {
		panic(syntaxError(tok.lin, `The template references in a "use" statement must be a string.`))
	}
	var targets []ast.TraitTarget
	if _, ok := p.stream.nextIf(tokenName, "with"); ok {
		for {
			name := p.stream.expect(tokenName, "", "").txt
			alias := name
			if _, ok := p.stream.nextIf(tokenName, "as"); ok {
				alias = p.stream.expect(tokenName, "", "").txt
			}
			targets = append(targets, ast.TraitTarget{Name: name, Alias: alias})
			if _, ok := p.stream.nextIf(tokenPunctuation, ","); !ok {
				break
			}
		}
	}
	p.expectEnd()
	trait := ast.NewTrait(tok.lin, template, targets)
	trait.SetNodeTag("use")
	p.traits = append(p.traits, trait)
	return nil
}

// {% with {...} only %}...{% endwith %}
func parseWith(p *parsing, tok token) ast.Node {
	var vars ast.Expression
	only := false
	if !p.stream.test(tokenBlockEnd) {
		vars = p.parseExpression(0)
		_, only = p.stream.nextIf(tokenName, "only")
	}
	p.expectEnd()
	body := p.subparse(decideWithEnd, "with", true)
	p.expectEnd()
	return ast.NewWith(tok.lin, vars, only, body)
}
