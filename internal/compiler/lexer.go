// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"sort"
	"strings"
)

// operators are the operators recognized in expressions, longest first.
var operators = func() []string {
	ops := []string{"=", "not", "-", "+", "or", "xor", "and", "b-or", "b-xor",
		"b-and", "==", "!=", "<=>", "<", ">", ">=", "<=", "not in", "in",
		"matches", "starts with", "ends with", "..", "~", "*", "/", "//", "%",
		"is", "is not", "**", "??"}
	sort.SliceStable(ops, func(i, j int) bool { return len(ops[i]) > len(ops[j]) })
	return ops
}()

const punctuation = "()[]{}?:.,|"

type lexState int

const (
	stateData lexState = iota
	stateBlock
	stateVar
	stateString
	stateInterpolation
)

// bracket is an open bracket, a double quote or an interpolation.
type bracket struct {
	b    string
	line int
}

// lexer maintains the scanner status.
type lexer struct {
	src      string       // source with normalized newlines
	p        int          // current position in src
	line     int          // current line starting from 1
	state    lexState     // current state
	states   []lexState   // previous states
	brackets []bracket    // open brackets
	tagLine  int          // line of the current '{%' or '{{'
	tokens   chan token   // tokens, is closed at the end of the scan
	err      *SyntaxError // error, reports whether there was an error
}

// scanTemplate scans a template source and returns a lexer.
func scanTemplate(src string) *lexer {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	lex := &lexer{
		src:    src,
		line:   1,
		tokens: make(chan token, 20),
	}
	go lex.scan()
	return lex
}

// Stop stops the lexing and closes the tokens channel.
func (l *lexer) Stop() {
	for range l.tokens {
	}
}

func (l *lexer) errorf(line int, format string, a ...interface{}) {
	panic(syntaxError(line, format, a...))
}

// emit emits a token. Empty text tokens are not emitted.
func (l *lexer) emit(typ tokenTyp, txt string) {
	if typ == tokenText && txt == "" {
		return
	}
	l.tokens <- token{typ: typ, txt: txt, lin: l.line}
}

// advance advances n bytes counting the new lines.
func (l *lexer) advance(n int) {
	l.line += strings.Count(l.src[l.p:l.p+n], "\n")
	l.p += n
}

func (l *lexer) pushState(s lexState) {
	l.states = append(l.states, l.state)
	l.state = s
}

func (l *lexer) popState() {
	l.state = l.states[len(l.states)-1]
	l.states = l.states[:len(l.states)-1]
}

// scan scans the source by placing the tokens on the tokens channel. If an
// error occurs, it puts the error in err, closes the channel and returns.
func (l *lexer) scan() {
	defer close(l.tokens)
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(*SyntaxError); ok {
				l.err = err
				return
			}
			panic(r)
		}
	}()
	for l.p < len(l.src) {
		switch l.state {
		case stateData:
			l.lexData()
		case stateBlock:
			l.lexTag(tokenBlockEnd, "%}", true)
		case stateVar:
			l.lexTag(tokenVarEnd, "}}", false)
		case stateString:
			l.lexString()
		case stateInterpolation:
			l.lexInterpolation()
		}
	}
	if n := len(l.brackets); n > 0 {
		b := l.brackets[n-1]
		l.errorf(b.line, "Unclosed %q.", b.b)
	}
	switch l.state {
	case stateBlock:
		l.errorf(l.tagLine, `Unclosed "block".`)
	case stateVar:
		l.errorf(l.tagLine, `Unclosed "variable".`)
	}
	l.emit(tokenEOF, "")
}

// lexData lexes the text up to the next tag.
func (l *lexer) lexData() {
	rest := l.src[l.p:]
	i := indexTagStart(rest)
	if i < 0 {
		l.emit(tokenText, rest)
		l.advance(len(rest))
		return
	}
	text := rest[:i]
	n := 2
	if i+2 < len(rest) {
		switch rest[i+2] {
		case '-':
			text = strings.TrimRight(text, " \t\n\r\x00\x0b")
			n = 3
		case '~':
			text = strings.TrimRight(text, " \t\x00\x0b")
			n = 3
		}
	}
	l.emit(tokenText, text)
	l.advance(i)
	switch rest[i+1] {
	case '#':
		l.lexComment(n)
	case '%':
		if end, ok := l.matchVerbatim(l.p + n); ok {
			line := l.line
			l.advance(end - l.p)
			l.lexVerbatim(line)
			return
		}
		l.tagLine = l.line
		l.emit(tokenBlockStart, "")
		l.advance(n)
		l.pushState(stateBlock)
	case '{':
		l.tagLine = l.line
		l.emit(tokenVarStart, "")
		l.advance(n)
		l.pushState(stateVar)
	}
}

// indexTagStart returns the index of the first "{{", "{%" or "{#" in s, or
// -1 if there is none.
func indexTagStart(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' {
			switch s[i+1] {
			case '{', '%', '#':
				return i
			}
		}
	}
	return -1
}

// lexComment lexes a comment. n is the length of the comment start.
func (l *lexer) lexComment(n int) {
	line := l.line
	rest := l.src[l.p+n:]
	i := strings.Index(rest, "#}")
	if i < 0 {
		l.errorf(line, "Unclosed comment.")
	}
	end := l.p + n + i + 2
	switch {
	case i > 0 && rest[i-1] == '-':
		end = skip(l.src, end, isSpace)
	case i > 0 && rest[i-1] == '~':
		end = skip(l.src, end, isLineSpace)
	case end < len(l.src) && l.src[end] == '\n':
		end++
	}
	l.advance(end - l.p)
}

// matchTagEnd matches, at position p, white spaces followed by the closing
// delimiter close with its trimming modifier. It returns the position after
// the match.
func matchTagEnd(src string, p int, close string, eatNewline bool) (int, bool) {
	q := skip(src, p, isSpace)
	rest := src[q:]
	switch {
	case strings.HasPrefix(rest, "-"+close):
		return skip(src, q+1+len(close), isSpace), true
	case strings.HasPrefix(rest, "~"+close):
		return skip(src, q+1+len(close), isLineSpace), true
	case strings.HasPrefix(rest, close):
		q += len(close)
		if eatNewline && q < len(src) && src[q] == '\n' {
			q++
		}
		return q, true
	}
	return 0, false
}

// matchVerbatim matches, at position p, the rest of a verbatim tag.
func (l *lexer) matchVerbatim(p int) (int, bool) {
	q := skip(l.src, p, isSpace)
	if !strings.HasPrefix(l.src[q:], "verbatim") {
		return 0, false
	}
	return matchTagEnd(l.src, q+len("verbatim"), "%}", false)
}

// lexVerbatim lexes the content of a verbatim tag as a text. line is the line
// of the verbatim tag.
func (l *lexer) lexVerbatim(line int) {
	for i := l.p; ; {
		j := strings.Index(l.src[i:], "{%")
		if j < 0 {
			l.errorf(line, `Unexpected end of file: Unclosed "verbatim" block.`)
		}
		start := i + j
		q := start + 2
		var trim byte
		if q < len(l.src) && (l.src[q] == '-' || l.src[q] == '~') {
			trim = l.src[q]
			q++
		}
		q = skip(l.src, q, isSpace)
		if strings.HasPrefix(l.src[q:], "endverbatim") {
			if end, ok := matchTagEnd(l.src, q+len("endverbatim"), "%}", false); ok {
				text := l.src[l.p:start]
				switch trim {
				case '-':
					text = strings.TrimRight(text, " \t\n\r\x00\x0b")
				case '~':
					text = strings.TrimRight(text, " \t\x00\x0b")
				}
				l.emit(tokenText, text)
				l.advance(end - l.p)
				return
			}
		}
		i = start + 2
	}
}

// lexTag lexes inside a block or a print tag.
func (l *lexer) lexTag(end tokenTyp, close string, eatNewline bool) {
	if len(l.brackets) == 0 {
		if p, ok := matchTagEnd(l.src, l.p, close, eatNewline); ok {
			l.emit(end, "")
			l.advance(p - l.p)
			l.popState()
			return
		}
	}
	l.lexExpression()
}

// lexExpression lexes a token of an expression.
func (l *lexer) lexExpression() {

	l.advance(skip(l.src, l.p, isSpace) - l.p)
	if l.p == len(l.src) {
		return
	}

	rest := l.src[l.p:]
	c := rest[0]

	// Operators.
	if n, op := l.matchOperator(); n > 0 {
		l.emit(tokenOperator, op)
		l.advance(n)
		return
	}

	// Names.
	if isNameStart(c) {
		n := 1
		for n < len(rest) && isNameChar(rest[n]) {
			n++
		}
		l.emit(tokenName, rest[:n])
		l.advance(n)
		return
	}

	// Numbers.
	if isDigit(c) {
		n := skip(rest, 0, isDigit)
		if n+1 < len(rest) && rest[n] == '.' && isDigit(rest[n+1]) {
			n = skip(rest, n+1, isDigit)
		}
		if n < len(rest) && (rest[n] == 'e' || rest[n] == 'E') {
			q := n + 1
			if q < len(rest) && (rest[q] == '+' || rest[q] == '-') {
				q++
			}
			if q < len(rest) && isDigit(rest[q]) {
				n = skip(rest, q, isDigit)
			}
		}
		l.emit(tokenNumber, rest[:n])
		l.advance(n)
		return
	}

	// Punctuation.
	if strings.IndexByte(punctuation, c) >= 0 {
		switch c {
		case '(', '[', '{':
			l.brackets = append(l.brackets, bracket{string(c), l.line})
		case ')', ']', '}':
			if len(l.brackets) == 0 {
				l.errorf(l.line, "Unexpected %q.", string(c))
			}
			b := l.brackets[len(l.brackets)-1]
			l.brackets = l.brackets[:len(l.brackets)-1]
			if b.b != string(opening(c)) {
				l.errorf(b.line, "Unclosed %q.", b.b)
			}
		}
		l.emit(tokenPunctuation, string(c))
		l.advance(1)
		return
	}

	// Strings.
	if c == '"' || c == '\'' {
		if n, ok := quoted(rest); ok {
			l.emit(tokenString, unescape(rest[1:n-1]))
			l.advance(n)
			return
		}
		if c == '"' {
			l.brackets = append(l.brackets, bracket{`"`, l.line})
			l.advance(1)
			l.pushState(stateString)
			return
		}
	}

	l.errorf(l.line, "Unexpected character %q.", string(c))
}

// matchOperator matches an operator at the current position. It returns the
// length of the match and the operator.
func (l *lexer) matchOperator() (int, string) {
	rest := l.src[l.p:]
	afterDot := l.p > 0 && (l.src[l.p-1] == '.' || l.src[l.p-1] == '|')
	for _, op := range operators {
		if isLetter(op[0]) && afterDot {
			continue
		}
		n := 0
		for i, part := range strings.Split(op, " ") {
			if i > 0 {
				m := skip(rest, n, isSpace)
				if m == n {
					n = -1
					break
				}
				n = m
			}
			if !strings.HasPrefix(rest[n:], part) {
				n = -1
				break
			}
			n += len(part)
		}
		if n < 0 {
			continue
		}
		if isLetter(op[len(op)-1]) {
			if n == len(rest) || !(isSpace(rest[n]) || strings.IndexByte("()[{", rest[n]) >= 0) {
				continue
			}
		}
		return n, op
	}
	return 0, ""
}

// lexString lexes the content of a double quoted string with interpolations.
func (l *lexer) lexString() {
	rest := l.src[l.p:]
	if strings.HasPrefix(rest, "#{") {
		l.brackets = append(l.brackets, bracket{"#{", l.line})
		l.emit(tokenInterpolationStart, "#{")
		l.advance(2)
		l.pushState(stateInterpolation)
		return
	}
	i := 0
	for i < len(rest) {
		c := rest[i]
		if c == '\\' {
			i += 2
			continue
		}
		if c == '"' || c == '#' && i+1 < len(rest) && rest[i+1] == '{' {
			break
		}
		i++
	}
	if i > len(rest) {
		i = len(rest)
	}
	if i > 0 {
		l.emit(tokenString, unescape(rest[:i]))
		l.advance(i)
		return
	}
	// rest starts with the closing quote.
	l.brackets = l.brackets[:len(l.brackets)-1]
	l.advance(1)
	l.popState()
}

// lexInterpolation lexes inside a string interpolation.
func (l *lexer) lexInterpolation() {
	if b := l.brackets[len(l.brackets)-1]; b.b == "#{" {
		q := skip(l.src, l.p, isSpace)
		if q < len(l.src) && l.src[q] == '}' {
			l.brackets = l.brackets[:len(l.brackets)-1]
			l.advance(q - l.p)
			l.emit(tokenInterpolationEnd, "}")
			l.advance(1)
			l.popState()
			return
		}
	}
	l.lexExpression()
}

// quoted returns the length of the quoted string at the beginning of s. It
// returns false if the string is not terminated or if it is a double quoted
// string with interpolations.
func quoted(s string) (int, bool) {
	q := s[0]
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == q:
			return i + 1, true
		case q == '"' && c == '#':
			return 0, false
		}
	}
	return 0, false
}

// unescape replaces the C-like escape sequences in s.
func unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'e':
			b.WriteByte(0x1b)
		case 'x':
			v, n := 0, 0
			for n < 2 && i+1 < len(s) && isHex(s[i+1]) {
				i++
				v = v*16 + hexValue(s[i])
				n++
			}
			if n == 0 {
				b.WriteByte('x')
			} else {
				b.WriteByte(byte(v))
			}
		default:
			if c >= '0' && c <= '7' {
				v := int(c - '0')
				for n := 1; n < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
					i++
					v = v*8 + int(s[i]-'0')
				}
				b.WriteByte(byte(v))
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func opening(c byte) byte {
	switch c {
	case ')':
		return '('
	case ']':
		return '['
	}
	return '{'
}

// skip returns the position of the first byte of s, starting from p, for
// which f returns false.
func skip(s string, p int, f func(byte) bool) int {
	for p < len(s) && f(s[p]) {
		p++
	}
	return p
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isLineSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == 0 || c == '\v'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func hexValue(c byte) int {
	switch {
	case isDigit(c):
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	}
	return int(c-'A') + 10
}

func isNameStart(c byte) bool {
	return isLetter(c) || c == '_' || c >= 0x7f
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c)
}
