// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strconv"
	"strings"

	"github.com/open2b/stencil/ast"
	"github.com/open2b/stencil/ast/astutil"
)

// Operators that are not represented by an ast.OperatorType.
const (
	opIs ast.OperatorType = -1 - iota
	opIsNot
	opNullCoalesce
)

type operator struct {
	precedence int
	typ        ast.OperatorType
	right      bool // right associative.
}

var unaryOperators = map[string]operator{
	"not": {50, ast.OperatorNot, false},
	"-":   {500, ast.OperatorNeg, false},
	"+":   {500, ast.OperatorPos, false},
}

var binaryOperators = map[string]operator{
	"or":          {10, ast.OperatorOr, false},
	"xor":         {12, ast.OperatorXor, false},
	"and":         {15, ast.OperatorAnd, false},
	"b-or":        {16, ast.OperatorBitOr, false},
	"b-xor":       {17, ast.OperatorBitXor, false},
	"b-and":       {18, ast.OperatorBitAnd, false},
	"==":          {20, ast.OperatorEqual, false},
	"!=":          {20, ast.OperatorNotEqual, false},
	"<=>":         {20, ast.OperatorSpaceship, false},
	"<":           {20, ast.OperatorLess, false},
	">":           {20, ast.OperatorGreater, false},
	">=":          {20, ast.OperatorGreaterEqual, false},
	"<=":          {20, ast.OperatorLessEqual, false},
	"not in":      {20, ast.OperatorNotIn, false},
	"in":          {20, ast.OperatorIn, false},
	"matches":     {20, ast.OperatorMatches, false},
	"starts with": {20, ast.OperatorStartsWith, false},
	"ends with":   {20, ast.OperatorEndsWith, false},
	"..":          {25, ast.OperatorRange, false},
	"+":           {30, ast.OperatorAdd, false},
	"-":           {30, ast.OperatorSub, false},
	"~":           {40, ast.OperatorConcat, false},
	"*":           {60, ast.OperatorMul, false},
	"/":           {60, ast.OperatorDiv, false},
	"//":          {60, ast.OperatorFloorDiv, false},
	"%":           {60, ast.OperatorMod, false},
	"is":          {100, opIs, false},
	"is not":      {100, opIsNot, false},
	"**":          {200, ast.OperatorPower, true},
	"??":          {300, opNullCoalesce, true},
}

func isUnary(tok token) bool {
	if tok.typ != tokenOperator {
		return false
	}
	_, ok := unaryOperators[tok.txt]
	return ok
}

func isBinary(tok token) bool {
	if tok.typ != tokenOperator {
		return false
	}
	_, ok := binaryOperators[tok.txt]
	return ok
}

// isNameOperator reports whether an operator token can be used as a name,
// as "not" or "in".
func isNameOperator(tok token) bool {
	if tok.typ != tokenOperator || !isNameStart(tok.txt[0]) {
		return false
	}
	for i := 1; i < len(tok.txt); i++ {
		if !isNameChar(tok.txt[i]) {
			return false
		}
	}
	return true
}

// parseNumber parses the text of a number token.
func parseNumber(s string) interface{} {
	if strings.IndexAny(s, ".eE") < 0 {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// parseExpression parses an expression with operators with precedence
// greater or equal to precedence. If precedence is zero, it also parses the
// conditional operator.
func (p *parsing) parseExpression(precedence int) ast.Expression {
	expr := p.parsePrimary()
	tok := p.stream.current()
	for isBinary(tok) && binaryOperators[tok.txt].precedence >= precedence {
		op := binaryOperators[tok.txt]
		p.stream.next()
		switch op.typ {
		case opIs:
			expr = p.parseTestExpression(expr)
		case opIsNot:
			expr = ast.NewUnary(tok.lin, ast.OperatorNot, p.parseTestExpression(expr))
		default:
			next := op.precedence + 1
			if op.right {
				next = op.precedence
			}
			right := p.parseExpression(next)
			if op.typ == opNullCoalesce {
				expr = p.nullCoalesce(tok.lin, expr, right)
			} else {
				expr = ast.NewBinary(tok.lin, op.typ, expr, right)
			}
		}
		tok = p.stream.current()
	}
	if precedence == 0 {
		return p.parseConditionalExpression(expr)
	}
	return expr
}

// nullCoalesce returns the expression left ?? right.
func (p *parsing) nullCoalesce(line int, left, right ast.Expression) ast.Expression {
	test := p.definedTest(left.Pos(), astutil.CloneExpression(left))
	// The value of a block reference is never null.
	if _, ok := left.(*ast.BlockReferenceExpr); !ok {
		null := ast.NewTest(left.Pos(), astutil.CloneExpression(left), "null", nil)
		test = ast.NewBinary(left.Pos(), ast.OperatorAnd, test, ast.NewUnary(left.Pos(), ast.OperatorNot, null))
	}
	return ast.NewNullCoalesce(line, test, left, right)
}

// parsePrimary parses a unary expression, a parenthesized expression or a
// primary expression.
func (p *parsing) parsePrimary() ast.Expression {
	tok := p.stream.current()
	if isUnary(tok) {
		op := unaryOperators[tok.txt]
		p.stream.next()
		expr := p.parseExpression(op.precedence)
		return p.parsePostfixExpression(ast.NewUnary(tok.lin, op.typ, expr))
	}
	if tok.is(tokenPunctuation, "(") {
		p.stream.next()
		expr := p.parseExpression(0)
		p.stream.expect(tokenPunctuation, ")", "An opened parenthesis is not properly closed")
		return p.parsePostfixExpression(expr)
	}
	return p.parsePrimaryExpression()
}

// parseConditionalExpression parses the conditional operators following
// expr: "expr ? a : b", "expr ?: b" and "expr ? a".
func (p *parsing) parseConditionalExpression(expr ast.Expression) ast.Expression {
	for {
		if _, ok := p.stream.nextIf(tokenPunctuation, "?"); !ok {
			return expr
		}
		var then, els ast.Expression
		if _, ok := p.stream.nextIf(tokenPunctuation, ":"); !ok {
			then = p.parseExpression(0)
			if _, ok := p.stream.nextIf(tokenPunctuation, ":"); ok {
				els = p.parseExpression(0)
			} else {
				els = ast.NewConstant(p.stream.current().lin, "")
			}
		} else {
			then = astutil.CloneExpression(expr)
			els = p.parseExpression(0)
		}
		expr = ast.NewConditional(p.stream.current().lin, expr, then, els)
	}
}

// parsePrimaryExpression parses a literal, a name, a function call, an array
// or a hash, followed by its postfix operators.
func (p *parsing) parsePrimaryExpression() ast.Expression {
	var node ast.Expression
	tok := p.stream.current()
	switch {
	case tok.typ == tokenName:
		p.stream.next()
		switch tok.txt {
		case "true", "TRUE":
			node = ast.NewConstant(tok.lin, true)
		case "false", "FALSE":
			node = ast.NewConstant(tok.lin, false)
		case "none", "NONE", "null", "NULL":
			node = ast.NewConstant(tok.lin, nil)
		default:
			if p.stream.test(tokenPunctuation, "(") {
				node = p.functionNode(tok.txt, tok.lin)
			} else {
				node = ast.NewName(tok.lin, tok.txt)
			}
		}
	case tok.typ == tokenNumber:
		p.stream.next()
		node = ast.NewConstant(tok.lin, parseNumber(tok.txt))
	case tok.typ == tokenString || tok.typ == tokenInterpolationStart:
		node = p.parseStringExpression()
	case isNameOperator(tok):
		// In this context, operators are names.
		p.stream.next()
		node = ast.NewName(tok.lin, tok.txt)
	case tok.typ == tokenOperator && (tok.txt == "-" || tok.txt == "+"):
		p.stream.next()
		expr := p.parsePrimaryExpression()
		node = ast.NewUnary(tok.lin, unaryOperators[tok.txt].typ, expr)
	case tok.typ == tokenOperator && isUnary(tok):
		panic(syntaxError(tok.lin, "Unexpected unary operator %q.", tok.txt))
	case tok.is(tokenPunctuation, "["):
		node = p.parseSequenceExpression()
	case tok.is(tokenPunctuation, "{"):
		node = p.parseMappingExpression()
	default:
		panic(syntaxError(tok.lin, "Unexpected token %q of value %q.", tok.typ.String(), tok.txt))
	}
	return p.parsePostfixExpression(node)
}

// parseStringExpression parses a string with interpolations.
func (p *parsing) parseStringExpression() ast.Expression {
	var nodes []ast.Expression
	// A string cannot be followed by another string.
	nextCanBeString := true
	for {
		if nextCanBeString {
			if tok, ok := p.stream.nextIf(tokenString); ok {
				nodes = append(nodes, ast.NewConstant(tok.lin, tok.txt))
				nextCanBeString = false
				continue
			}
		}
		if _, ok := p.stream.nextIf(tokenInterpolationStart); ok {
			nodes = append(nodes, p.parseExpression(0))
			p.stream.expect(tokenInterpolationEnd, "", "")
			nextCanBeString = true
			continue
		}
		break
	}
	expr := nodes[0]
	for _, node := range nodes[1:] {
		expr = ast.NewBinary(node.Pos(), ast.OperatorConcat, expr, node)
	}
	return expr
}

// parseSequenceExpression parses an array literal. An element can have a
// key as in [1, 2, "a": 3].
func (p *parsing) parseSequenceExpression() ast.Expression {
	p.stream.expect(tokenPunctuation, "[", "A sequence element was expected")
	node := ast.NewArray(p.stream.current().lin, nil)
	first := true
	for !p.stream.test(tokenPunctuation, "]") {
		if !first {
			p.stream.expect(tokenPunctuation, ",", "A sequence element must be followed by a comma")
			// Trailing comma.
			if p.stream.test(tokenPunctuation, "]") {
				break
			}
		}
		first = false
		value := p.parseExpression(0)
		if _, ok := p.stream.nextIf(tokenPunctuation, ":"); ok {
			key := value
			value = p.parseExpression(0)
			node.AddElement(value, key)
			continue
		}
		node.AddElement(value, nil)
	}
	p.stream.expect(tokenPunctuation, "]", "An opened sequence is not properly closed")
	return node
}

// parseMappingExpression parses a hash literal.
func (p *parsing) parseMappingExpression() ast.Expression {
	p.stream.expect(tokenPunctuation, "{", "A mapping element was expected")
	node := ast.NewArray(p.stream.current().lin, nil)
	first := true
	for !p.stream.test(tokenPunctuation, "}") {
		if !first {
			p.stream.expect(tokenPunctuation, ",", "A mapping value must be followed by a comma")
			// Trailing comma.
			if p.stream.test(tokenPunctuation, "}") {
				break
			}
		}
		first = false
		// A key can be a number, a string, a name or an expression enclosed
		// in parentheses.
		var key ast.Expression
		tok := p.stream.current()
		switch {
		case tok.typ == tokenName:
			p.stream.next()
			key = ast.NewConstant(tok.lin, tok.txt)
			// {a} is a shortcut for {a: a}.
			if p.stream.test(tokenPunctuation, ",", "}") {
				node.AddElement(ast.NewName(tok.lin, tok.txt), key)
				continue
			}
		case tok.typ == tokenString:
			p.stream.next()
			key = ast.NewConstant(tok.lin, tok.txt)
		case tok.typ == tokenNumber:
			p.stream.next()
			key = ast.NewConstant(tok.lin, parseNumber(tok.txt))
		case tok.is(tokenPunctuation, "("):
			key = p.parseExpression(0)
		default:
			panic(syntaxError(tok.lin, "A mapping key must be a quoted string, a number, a name, or an expression"+
				" enclosed in parentheses (unexpected token %q of value %q.", tok.typ.String(), tok.txt))
		}
		p.stream.expect(tokenPunctuation, ":", "A mapping key must be followed by a colon (:)")
		node.AddElement(p.parseExpression(0), key)
	}
	p.stream.expect(tokenPunctuation, "}", "An opened mapping is not properly closed")
	return node
}

// parsePostfixExpression parses the attribute accesses, subscripts and
// filters that follow node.
func (p *parsing) parsePostfixExpression(node ast.Expression) ast.Expression {
	for {
		tok := p.stream.current()
		switch {
		case tok.is(tokenPunctuation, ".", "["):
			node = p.parseSubscriptExpression(node)
		case tok.is(tokenPunctuation, "|"):
			node = p.parseFilterExpression(node)
		default:
			return node
		}
	}
}

// parseSubscriptExpression parses a.b, a.b(args), a[b] and a[b:c].
func (p *parsing) parseSubscriptExpression(node ast.Expression) ast.Expression {
	tok := p.stream.next()
	line := tok.lin
	if tok.txt == "." {
		tok = p.stream.next()
		var attr ast.Expression
		switch {
		case tok.typ == tokenName || isNameOperator(tok):
			attr = ast.NewConstant(line, tok.txt)
		case tok.typ == tokenNumber:
			attr = ast.NewConstant(line, parseNumber(tok.txt))
		default:
			panic(syntaxError(line, "Expected name or number, got value %q of type %s.", tok.txt, tok.typ))
		}
		var args *ast.Array
		if p.stream.test(tokenPunctuation, "(") {
			args = ast.NewArray(line, nil)
			for _, arg := range p.parseArguments(true) {
				var key ast.Expression
				if arg.Name != "" {
					key = ast.NewConstant(arg.Value.Pos(), arg.Name)
				}
				args.AddElement(arg.Value, key)
			}
		}
		if name, ok := node.(*ast.Name); ok {
			if _, ok := p.importedSymbol("template", name.Name); ok {
				method, ok := attr.(*ast.Constant).Value.(string)
				if !ok {
					panic(syntaxError(line, "Dynamic macro names are not supported (called on %q).", name.Name))
				}
				if args == nil {
					args = ast.NewArray(line, nil)
				}
				call := ast.NewMethodCall(line, name, method, args)
				call.Safe = true
				return call
			}
		}
		typ := ast.AnyCall
		if args != nil {
			typ = ast.MethodCallType
		}
		return ast.NewGetAttr(line, node, attr, args, typ)
	}
	// Subscript or slice.
	var arg ast.Expression
	slice := false
	if p.stream.test(tokenPunctuation, ":") {
		slice = true
		arg = ast.NewConstant(line, 0)
	} else {
		arg = p.parseExpression(0)
	}
	if _, ok := p.stream.nextIf(tokenPunctuation, ":"); ok {
		slice = true
	}
	if slice {
		var length ast.Expression
		if p.stream.test(tokenPunctuation, "]") {
			length = ast.NewConstant(line, nil)
		} else {
			length = p.parseExpression(0)
		}
		p.filterCallable("slice", line)
		filter := ast.NewFilter(line, node, "slice", []ast.Argument{{Value: arg}, {Value: length}})
		p.stream.expect(tokenPunctuation, "]", "")
		return filter
	}
	p.stream.expect(tokenPunctuation, "]", "")
	return ast.NewGetAttr(line, node, arg, nil, ast.ArrayCall)
}

// parseFilterExpression parses the filters that follow node.
func (p *parsing) parseFilterExpression(node ast.Expression) ast.Expression {
	p.stream.next()
	return p.parseFilterExpressionRaw(node)
}

// parseFilterExpressionRaw parses a list of filters, separated by '|',
// applied to node.
func (p *parsing) parseFilterExpressionRaw(node ast.Expression) ast.Expression {
	for {
		tok := p.stream.expect(tokenName, "", "")
		var args []ast.Argument
		if p.stream.test(tokenPunctuation, "(") {
			args = p.parseArguments(true)
		}
		p.filterCallable(tok.txt, tok.lin)
		node = p.filterNode(tok.lin, node, tok.txt, args)
		if !p.stream.test(tokenPunctuation, "|") {
			return node
		}
		p.stream.next()
	}
}

// filterNode returns the node of a filter. The default filter applied to a
// name or an attribute is only applied if the operand is defined.
func (p *parsing) filterNode(line int, node ast.Expression, name string, args []ast.Argument) ast.Expression {
	filter := ast.NewFilter(line, node, name, args)
	if name != "default" {
		return filter
	}
	switch node.(type) {
	case *ast.Name, *ast.GetAttr:
	default:
		return filter
	}
	test := p.definedTest(node.Pos(), astutil.CloneExpression(node))
	var els ast.Expression
	if len(args) > 0 {
		els = astutil.CloneExpression(args[0].Value)
	} else {
		els = ast.NewConstant(node.Pos(), "")
	}
	return ast.NewConditional(node.Pos(), test, filter, els)
}

// filterCallable checks that the filter exists.
func (p *parsing) filterCallable(name string, line int) {
	c := p.registry.Filter(name)
	if c == nil {
		panic(unknownNameError(line, name, p.registry.FilterNames(), "Unknown %q filter.", name))
	}
	p.deprecated(c, line)
}

// parseArguments parses the arguments of a call. If named is true, the
// arguments can be named as in "name = value".
func (p *parsing) parseArguments(named bool) []ast.Argument {
	args := []ast.Argument{}
	p.stream.expect(tokenPunctuation, "(", "A list of arguments must begin with an opening parenthesis")
	for !p.stream.test(tokenPunctuation, ")") {
		if len(args) > 0 {
			p.stream.expect(tokenPunctuation, ",", "Arguments must be separated by a comma")
			// Trailing comma.
			if p.stream.test(tokenPunctuation, ")") {
				break
			}
		}
		value := p.parseExpression(0)
		name := ""
		if named {
			if tok, ok := p.stream.nextIf(tokenOperator, "="); ok {
				n, ok := value.(*ast.Name)
				if !ok {
					panic(syntaxError(tok.lin, "A parameter name must be a string, %q given.", value.String()))
				}
				name = n.Name
				value = p.parseExpression(0)
			}
		}
		args = append(args, ast.Argument{Name: name, Value: value})
	}
	p.stream.expect(tokenPunctuation, ")", "A list of arguments must be closed by a parenthesis")
	return args
}

// parseMacroArguments parses the arguments of a macro definition.
func (p *parsing) parseMacroArguments(macro string) []ast.MacroArgument {
	args := []ast.MacroArgument{}
	p.stream.expect(tokenPunctuation, "(", "A list of arguments must begin with an opening parenthesis")
	for !p.stream.test(tokenPunctuation, ")") {
		if len(args) > 0 {
			p.stream.expect(tokenPunctuation, ",", "Arguments must be separated by a comma")
			if p.stream.test(tokenPunctuation, ")") {
				break
			}
		}
		tok := p.stream.expect(tokenName, "", "An argument must be a name")
		arg := ast.MacroArgument{Name: tok.txt}
		if _, ok := p.stream.nextIf(tokenOperator, "="); ok {
			value := p.parsePrimaryExpression()
			if !isConstantExpression(value) {
				panic(syntaxError(tok.lin, "A default value for an argument must be a constant (a boolean, a string, a number, or an array)."))
			}
			arg.Default = value
		}
		if arg.Name == ast.VarArgsName {
			panic(syntaxError(tok.lin, "The argument %q in macro %q cannot be defined because the variable %q is reserved for arbitrary arguments.",
				ast.VarArgsName, macro, ast.VarArgsName))
		}
		for _, a := range args {
			if a.Name == arg.Name {
				panic(syntaxError(tok.lin, "The argument %q is defined twice for macro %q.", arg.Name, macro))
			}
		}
		args = append(args, arg)
	}
	p.stream.expect(tokenPunctuation, ")", "A list of arguments must be closed by a parenthesis")
	return args
}

// isConstantExpression reports whether node is a constant, an array of
// constants or a negated constant.
func isConstantExpression(node ast.Expression) bool {
	switch n := node.(type) {
	case *ast.Constant:
		return true
	case *ast.Unary:
		if n.Op == ast.OperatorNeg || n.Op == ast.OperatorPos {
			return isConstantExpression(n.Expr)
		}
	case *ast.Array:
		for _, pair := range n.Pairs {
			if !isConstantExpression(pair.Key) || !isConstantExpression(pair.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// functionNode parses the arguments of a function call and returns the
// node.
func (p *parsing) functionNode(name string, line int) ast.Expression {
	switch name {
	case "parent":
		p.parseArguments(false)
		block := p.peekBlockStack()
		if block == "" {
			panic(syntaxError(line, `Calling "parent" outside a block is forbidden.`))
		}
		if p.parent == nil && !p.hasTraits() {
			panic(syntaxError(line, `Calling "parent" on a template that does not extend nor "use" another template is forbidden.`))
		}
		return ast.NewParent(line, block)
	case "block":
		args := p.parseArguments(false)
		if len(args) < 1 {
			panic(syntaxError(line, `The "block" function takes one argument (the block name).`))
		}
		var template ast.Expression
		if len(args) > 1 {
			template = args[1].Value
		}
		return ast.NewBlockReferenceExpr(line, args[0].Value, template)
	case "attribute":
		args := p.parseArguments(false)
		if len(args) < 2 {
			panic(syntaxError(line, `The "attribute" function takes at least two arguments (the variable and the attributes).`))
		}
		var arguments *ast.Array
		typ := ast.AnyCall
		if len(args) > 2 {
			arguments, _ = args[2].Value.(*ast.Array)
			if arguments == nil {
				panic(syntaxError(line, `The third argument of the "attribute" function must be an array.`))
			}
			typ = ast.MethodCallType
		}
		return ast.NewGetAttr(line, args[0].Value, args[1].Value, arguments, typ)
	}
	if s, ok := p.importedSymbol("function", name); ok {
		args := ast.NewArray(line, nil)
		for _, arg := range p.parseArguments(true) {
			var key ast.Expression
			if arg.Name != "" {
				key = ast.NewConstant(arg.Value.Pos(), arg.Name)
			}
			args.AddElement(arg.Value, key)
		}
		call := ast.NewMethodCall(line, ast.NewName(line, s.node.Name), s.name, args)
		call.Safe = true
		return call
	}
	args := p.parseArguments(true)
	c := p.registry.Function(name)
	if c == nil {
		panic(unknownNameError(line, name, p.registry.FunctionNames(), "Unknown %q function.", name))
	}
	p.deprecated(c, line)
	return ast.NewFunction(line, name, args)
}

// parseTestExpression parses the test applied to node.
func (p *parsing) parseTestExpression(node ast.Expression) ast.Expression {
	line := node.Pos()
	name := p.stream.expect(tokenName, "", "").txt
	c := p.registry.Test(name)
	if c == nil && p.stream.test(tokenName) {
		// Two words test.
		if c = p.registry.Test(name + " " + p.stream.current().txt); c != nil {
			name = c.Name
			p.stream.next()
		}
	}
	if c == nil {
		panic(unknownNameError(line, name, p.registry.TestNames(), "Unknown %q test.", name))
	}
	p.deprecated(c, line)
	var args []ast.Argument
	if p.stream.test(tokenPunctuation, "(") {
		args = p.parseArguments(true)
	} else if c.OneMandatoryArgument {
		args = []ast.Argument{{Value: p.parsePrimaryExpression()}}
	}
	if name == "defined" {
		if n, ok := node.(*ast.Name); ok {
			if s, ok := p.importedSymbol("function", n.Name); ok {
				call := ast.NewMethodCall(line, ast.NewName(line, s.node.Name), s.name, ast.NewArray(line, nil))
				call.Safe = true
				node = call
			}
		}
		return p.definedTest(p.stream.current().lin, node)
	}
	return ast.NewTest(p.stream.current().lin, node, name, args)
}

// definedTest returns the defined test of node.
func (p *parsing) definedTest(line int, node ast.Expression) ast.Expression {
	switch n := node.(type) {
	case *ast.Name:
		n.IsDefinedTest = true
	case *ast.GetAttr:
		n.IsDefinedTest = true
		changeIgnoreStrictCheck(n)
	case *ast.BlockReferenceExpr:
		n.IsDefinedTest = true
	case *ast.Function:
		if n.Name != "constant" {
			panic(syntaxError(line, `The "defined" test only works with simple variables.`))
		}
		n.SetAttr("is_defined_test", true)
	case *ast.Constant, *ast.Array:
		node = ast.NewConstant(node.Pos(), true)
	case *ast.MethodCall:
		n.IsDefinedTest = true
	default:
		panic(syntaxError(line, `The "defined" test only works with simple variables.`))
	}
	return ast.NewDefinedTest(line, node)
}

// changeIgnoreStrictCheck marks a chain of attribute accesses so that an
// undefined attribute is not an error.
func changeIgnoreStrictCheck(n *ast.GetAttr) {
	n.Optimizable = false
	n.IgnoreStrictCheck = true
	switch node := n.Node.(type) {
	case *ast.GetAttr:
		changeIgnoreStrictCheck(node)
	case *ast.Name:
		node.IgnoreStrictCheck = true
	}
}

// parseAssignmentExpression parses a list of names separated by commas.
func (p *parsing) parseAssignmentExpression() []*ast.AssignName {
	var targets []*ast.AssignName
	for {
		tok := p.stream.current()
		if isNameOperator(tok) {
			p.stream.next()
		} else {
			p.stream.expect(tokenName, "", "Only variables can be assigned to")
		}
		switch strings.ToLower(tok.txt) {
		case "true", "false", "none", "null":
			panic(syntaxError(tok.lin, "You cannot assign a value to %q.", tok.txt))
		}
		targets = append(targets, ast.NewAssignName(tok.lin, tok.txt))
		if _, ok := p.stream.nextIf(tokenPunctuation, ","); !ok {
			return targets
		}
	}
}

// parseMultitargetExpression parses a list of expressions separated by
// commas.
func (p *parsing) parseMultitargetExpression() []ast.Expression {
	var targets []ast.Expression
	for {
		targets = append(targets, p.parseExpression(0))
		if _, ok := p.stream.nextIf(tokenPunctuation, ","); !ok {
			return targets
		}
	}
}
