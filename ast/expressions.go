// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"strconv"
	"strings"
)

// Expression node represents an expression.
type Expression interface {
	Node
	String() string
	isExpression()
}

type expression struct{}

func (expression) isExpression() {}

// OperatorType represents an operator type.
type OperatorType int

const (
	OperatorNot          OperatorType = iota // not
	OperatorNeg                              // unary -
	OperatorPos                              // unary +
	OperatorOr                               // or
	OperatorXor                              // xor
	OperatorAnd                              // and
	OperatorBitOr                            // b-or
	OperatorBitXor                           // b-xor
	OperatorBitAnd                           // b-and
	OperatorEqual                            // ==
	OperatorNotEqual                         // !=
	OperatorSpaceship                        // <=>
	OperatorLess                             // <
	OperatorGreater                          // >
	OperatorGreaterEqual                     // >=
	OperatorLessEqual                        // <=
	OperatorNotIn                            // not in
	OperatorIn                               // in
	OperatorMatches                          // matches
	OperatorStartsWith                       // starts with
	OperatorEndsWith                         // ends with
	OperatorRange                            // ..
	OperatorAdd                              // +
	OperatorSub                              // -
	OperatorConcat                           // ~
	OperatorMul                              // *
	OperatorDiv                              // /
	OperatorFloorDiv                         // //
	OperatorMod                              // %
	OperatorPower                            // **
)

func (op OperatorType) String() string {
	return []string{"not", "-", "+", "or", "xor", "and", "b-or", "b-xor", "b-and",
		"==", "!=", "<=>", "<", ">", ">=", "<=", "not in", "in", "matches",
		"starts with", "ends with", "..", "+", "-", "~", "*", "/", "//", "%", "**"}[op]
}

// IsUnary reports whether op is a unary operator.
func (op OperatorType) IsUnary() bool {
	return op <= OperatorPos
}

// CallType is the type of call of a GetAttr expression.
type CallType int

const (
	AnyCall        CallType = iota // a.b
	ArrayCall                      // a[b]
	MethodCallType                 // a.b()
)

func (t CallType) String() string {
	return []string{"any", "array", "method"}[t]
}

// Constant node represents a literal value: a string, an integer, a float,
// a boolean or nil for none and null.
type Constant struct {
	Base
	expression
	Value interface{}
}

func NewConstant(line int, value interface{}) *Constant {
	return &Constant{Base: base(line), Value: value}
}

func (n *Constant) String() string {
	switch v := n.Value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	panic("unexpected constant value")
}

// Name node represents the lookup of a variable.
type Name struct {
	Base
	expression
	Name              string
	IsDefinedTest     bool // reports whether it is the operand of a defined test.
	IgnoreStrictCheck bool // reports whether a missing variable is not an error.
	AlwaysDefined     bool // reports whether the variable is always defined.
}

func NewName(line int, name string) *Name {
	return &Name{Base: base(line), Name: name}
}

func (n *Name) String() string { return n.Name }

// IsSpecial reports whether the name refers to a special variable: _self,
// _context or _charset.
func (n *Name) IsSpecial() bool {
	return n.Name == "_self" || n.Name == "_context" || n.Name == "_charset"
}

// AssignName node represents the target of an assignment.
type AssignName struct {
	Base
	expression
	Name string
}

func NewAssignName(line int, name string) *AssignName {
	return &AssignName{Base: base(line), Name: name}
}

func (n *AssignName) String() string { return n.Name }

// TempName node represents a variable of the generated code.
type TempName struct {
	Base
	expression
	Name string
}

func NewTempName(line int, name string) *TempName {
	return &TempName{Base: base(line), Name: name}
}

func (n *TempName) String() string { return "$" + n.Name }

// Pair is a key/value pair of an array literal.
type Pair struct {
	Key   Expression
	Value Expression
}

// Array node represents an array or hash literal.
type Array struct {
	Base
	expression
	Pairs []Pair
	index int // next implicit key.
}

func NewArray(line int, pairs []Pair) *Array {
	n := &Array{Base: base(line)}
	for _, p := range pairs {
		n.AddElement(p.Value, p.Key)
	}
	return n
}

// AddElement adds an element. If key is nil, the key is the next implicit
// index, that is the highest non-negative integer constant key seen so far
// plus one.
func (n *Array) AddElement(value, key Expression) {
	if key == nil {
		key = NewConstant(value.Pos(), n.index)
		n.index++
	} else if c, ok := key.(*Constant); ok {
		if i, ok := c.Value.(int); ok && i >= n.index {
			n.index = i + 1
		}
	}
	n.Pairs = append(n.Pairs, Pair{key, value})
}

// IsSequence reports whether the keys are the integers 0, 1, 2, ... in order.
func (n *Array) IsSequence() bool {
	for i, p := range n.Pairs {
		c, ok := p.Key.(*Constant)
		if !ok {
			return false
		}
		if k, ok := c.Value.(int); !ok || k != i {
			return false
		}
	}
	return true
}

// HasElement reports whether the array has an element with a constant key
// equal to key.
func (n *Array) HasElement(key interface{}) bool {
	for _, p := range n.Pairs {
		if c, ok := p.Key.(*Constant); ok && c.Value == key {
			return true
		}
	}
	return false
}

func (n *Array) String() string {
	var b strings.Builder
	if n.IsSequence() {
		b.WriteByte('[')
		for i, p := range n.Pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Value.String())
		}
		b.WriteByte(']')
		return b.String()
	}
	b.WriteByte('{')
	for i, p := range n.Pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		if _, ok := p.Key.(*Constant); ok {
			b.WriteString(p.Key.String())
		} else {
			b.WriteString("(" + p.Key.String() + ")")
		}
		b.WriteString(": ")
		b.WriteString(p.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Argument is an argument of a call. Name is empty for positional arguments.
type Argument struct {
	Name  string
	Value Expression
}

func argumentsString(args []Argument) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Name != "" {
			b.WriteString(a.Name)
			b.WriteString(" = ")
		}
		b.WriteString(a.Value.String())
	}
	b.WriteByte(')')
	return b.String()
}

// GetAttr node represents an access to an attribute or an item: a.b, a[b]
// and a.b(args).
type GetAttr struct {
	Base
	expression
	Node              Expression
	Attribute         Expression
	Arguments         *Array // nil if it is not a method call.
	CallType          CallType
	IsDefinedTest     bool
	IgnoreStrictCheck bool
	Optimizable       bool
}

func NewGetAttr(line int, node, attribute Expression, arguments *Array, callType CallType) *GetAttr {
	return &GetAttr{Base: base(line), Node: node, Attribute: attribute,
		Arguments: arguments, CallType: callType, Optimizable: true}
}

func (n *GetAttr) String() string {
	if n.CallType == ArrayCall {
		return n.Node.String() + "[" + n.Attribute.String() + "]"
	}
	s := n.Node.String() + "."
	if c, ok := n.Attribute.(*Constant); ok {
		if v, ok := c.Value.(string); ok {
			s += v
		} else {
			s += c.String()
		}
	} else {
		s += "(" + n.Attribute.String() + ")"
	}
	if n.Arguments != nil {
		var args []Argument
		for _, p := range n.Arguments.Pairs {
			args = append(args, Argument{Value: p.Value})
		}
		s += argumentsString(args)
	}
	return s
}

// MethodCall node represents the call of a macro of an imported template.
type MethodCall struct {
	Base
	expression
	Node          Expression
	Method        string
	Arguments     *Array
	Safe          bool
	IsDefinedTest bool
}

func NewMethodCall(line int, node Expression, method string, arguments *Array) *MethodCall {
	return &MethodCall{Base: base(line), Node: node, Method: method, Arguments: arguments}
}

func (n *MethodCall) String() string {
	var args []Argument
	for _, p := range n.Arguments.Pairs {
		if c, ok := p.Key.(*Constant); ok {
			if name, ok := c.Value.(string); ok {
				args = append(args, Argument{Name: name, Value: p.Value})
				continue
			}
		}
		args = append(args, Argument{Value: p.Value})
	}
	return n.Node.String() + "." + n.Method + argumentsString(args)
}

// Call is implemented by the Filter, Function and Test nodes.
type Call interface {
	Expression
	CallKind() string
	CallName() string
	CallArguments() []Argument
}

// Filter node represents the application of a filter: node|name(args).
type Filter struct {
	Base
	expression
	Node      Expression
	Name      string
	Arguments []Argument
}

func NewFilter(line int, node Expression, name string, arguments []Argument) *Filter {
	return &Filter{Base: base(line), Node: node, Name: name, Arguments: arguments}
}

func (n *Filter) CallKind() string          { return "filter" }
func (n *Filter) CallName() string          { return n.Name }
func (n *Filter) CallArguments() []Argument { return n.Arguments }

func (n *Filter) String() string {
	s := n.Node.String() + "|" + n.Name
	if len(n.Arguments) > 0 {
		s += argumentsString(n.Arguments)
	}
	return s
}

// Function node represents the call of a function: name(args).
type Function struct {
	Base
	expression
	Name      string
	Arguments []Argument
}

func NewFunction(line int, name string, arguments []Argument) *Function {
	return &Function{Base: base(line), Name: name, Arguments: arguments}
}

func (n *Function) CallKind() string          { return "function" }
func (n *Function) CallName() string          { return n.Name }
func (n *Function) CallArguments() []Argument { return n.Arguments }

func (n *Function) String() string {
	return n.Name + argumentsString(n.Arguments)
}

// Test node represents a test: node is name(args).
type Test struct {
	Base
	expression
	Node      Expression
	Name      string
	Arguments []Argument
}

func NewTest(line int, node Expression, name string, arguments []Argument) *Test {
	return &Test{Base: base(line), Node: node, Name: name, Arguments: arguments}
}

func (n *Test) CallKind() string          { return "test" }
func (n *Test) CallName() string          { return n.Name }
func (n *Test) CallArguments() []Argument { return n.Arguments }

func (n *Test) String() string {
	s := n.Node.String() + " is " + n.Name
	if len(n.Arguments) > 0 {
		s += argumentsString(n.Arguments)
	}
	return s
}

// DefinedTest node represents the test "node is defined".
type DefinedTest struct {
	Base
	expression
	Node Expression
}

func NewDefinedTest(line int, node Expression) *DefinedTest {
	return &DefinedTest{Base: base(line), Node: node}
}

func (n *DefinedTest) String() string {
	return n.Node.String() + " is defined"
}

// Unary node represents a unary operator.
type Unary struct {
	Base
	expression
	Op   OperatorType
	Expr Expression
}

func NewUnary(line int, op OperatorType, expr Expression) *Unary {
	return &Unary{Base: base(line), Op: op, Expr: expr}
}

func (n *Unary) String() string {
	if n.Op == OperatorNot {
		return "not " + n.Expr.String()
	}
	return n.Op.String() + n.Expr.String()
}

// Binary node represents a binary operator.
type Binary struct {
	Base
	expression
	Op    OperatorType
	Left  Expression
	Right Expression
}

func NewBinary(line int, op OperatorType, left, right Expression) *Binary {
	return &Binary{Base: base(line), Op: op, Left: left, Right: right}
}

func (n *Binary) String() string {
	if n.Op == OperatorRange {
		return n.Left.String() + ".." + n.Right.String()
	}
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

// Conditional node represents the ternary operator.
type Conditional struct {
	Base
	expression
	Cond Expression
	Then Expression
	Else Expression
}

func NewConditional(line int, cond, then, els Expression) *Conditional {
	return &Conditional{Base: base(line), Cond: cond, Then: then, Else: els}
}

func (n *Conditional) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

// NullCoalesce node represents the expression left ?? right. Test is the
// condition that reports whether left is defined and not null, it is built
// on a clone of left.
type NullCoalesce struct {
	Base
	expression
	Test  Expression
	Left  Expression
	Right Expression
}

func NewNullCoalesce(line int, test, left, right Expression) *NullCoalesce {
	return &NullCoalesce{Base: base(line), Test: test, Left: left, Right: right}
}

func (n *NullCoalesce) String() string {
	return "(" + n.Left.String() + " ?? " + n.Right.String() + ")"
}

// BlockReferenceExpr node represents the function block(name, template).
type BlockReferenceExpr struct {
	Base
	expression
	Name          Expression
	Template      Expression // nil if it is the current template.
	Output        bool       // reports whether the block is rendered.
	IsDefinedTest bool
}

func NewBlockReferenceExpr(line int, name, template Expression) *BlockReferenceExpr {
	return &BlockReferenceExpr{Base: base(line), Name: name, Template: template}
}

func (n *BlockReferenceExpr) String() string {
	if n.Template != nil {
		return "block(" + n.Name.String() + ", " + n.Template.String() + ")"
	}
	return "block(" + n.Name.String() + ")"
}

// Parent node represents the function parent() in a block.
type Parent struct {
	Base
	expression
	Name   string // name of the block.
	Output bool
}

func NewParent(line int, name string) *Parent {
	return &Parent{Base: base(line), Name: name}
}

func (n *Parent) String() string { return "parent()" }

// InlinePrint node represents an expression that prints its value and
// evaluates to the empty string.
type InlinePrint struct {
	Base
	expression
	Expr Expression
}

func NewInlinePrint(line int, expr Expression) *InlinePrint {
	return &InlinePrint{Base: base(line), Expr: expr}
}

func (n *InlinePrint) String() string { return n.Expr.String() }

// CheckToString node represents an expression whose value, in a sandboxed
// template, can be converted to a string only if the security policy allows
// its String method.
type CheckToString struct {
	Base
	expression
	Expr Expression
}

func NewCheckToString(line int, expr Expression) *CheckToString {
	return &CheckToString{Base: base(line), Expr: expr}
}

func (n *CheckToString) String() string { return n.Expr.String() }
