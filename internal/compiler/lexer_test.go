// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lex returns the tokens of src and the lexing error, if any.
func lex(src string) ([]token, *SyntaxError) {
	l := scanTemplate(src)
	var tokens []token
	for tok := range l.tokens {
		tokens = append(tokens, tok)
	}
	return tokens, l.err
}

var typeTests = map[string][]tokenTyp{
	``:                {tokenEOF},
	`a`:               {tokenText, tokenEOF},
	`{`:               {tokenText, tokenEOF},
	`a } b`:           {tokenText, tokenEOF},
	`{{a}}`:           {tokenVarStart, tokenName, tokenVarEnd, tokenEOF},
	`{{ a }}`:         {tokenVarStart, tokenName, tokenVarEnd, tokenEOF},
	`{{ a.b }}`:       {tokenVarStart, tokenName, tokenPunctuation, tokenName, tokenVarEnd, tokenEOF},
	`{{ a|upper }}`:   {tokenVarStart, tokenName, tokenPunctuation, tokenName, tokenVarEnd, tokenEOF},
	`{{ -1 }}`:        {tokenVarStart, tokenOperator, tokenNumber, tokenVarEnd, tokenEOF},
	`{{ 1.5e3 }}`:     {tokenVarStart, tokenNumber, tokenVarEnd, tokenEOF},
	`{{ 'a' ~ "b" }}`: {tokenVarStart, tokenString, tokenOperator, tokenString, tokenVarEnd, tokenEOF},
	`{{ [1, 2] }}`: {tokenVarStart, tokenPunctuation, tokenNumber, tokenPunctuation, tokenNumber,
		tokenPunctuation, tokenVarEnd, tokenEOF},
	`{{ {a: 1} }}`: {tokenVarStart, tokenPunctuation, tokenName, tokenPunctuation, tokenNumber,
		tokenPunctuation, tokenVarEnd, tokenEOF},
	`{{ a ? b : c }}`: {tokenVarStart, tokenName, tokenPunctuation, tokenName, tokenPunctuation,
		tokenName, tokenVarEnd, tokenEOF},
	`{% if a %}`:                             {tokenBlockStart, tokenName, tokenName, tokenBlockEnd, tokenEOF},
	`{%if a%}b`:                              {tokenBlockStart, tokenName, tokenName, tokenBlockEnd, tokenText, tokenEOF},
	`{# comment #}`:                          {tokenEOF},
	`a{# comment #}b`:                        {tokenText, tokenText, tokenEOF},
	`{% verbatim %}{{ a }}{% endverbatim %}`: {tokenText, tokenEOF},
	`{{ "a#{b}c" }}`: {tokenVarStart, tokenString, tokenInterpolationStart, tokenName,
		tokenInterpolationEnd, tokenString, tokenVarEnd, tokenEOF},
	`{{ "#{ {a: 1}.a }" }}`: {tokenVarStart, tokenInterpolationStart, tokenPunctuation, tokenName,
		tokenPunctuation, tokenNumber, tokenPunctuation, tokenPunctuation, tokenName,
		tokenInterpolationEnd, tokenVarEnd, tokenEOF},
}

func TestTokenTypeString(t *testing.T) {
	for typ := tokenEOF; typ <= tokenInterpolationEnd; typ++ {
		assert.Equal(t, tokenTypeNames[typ], typ.String())
		assert.NotEmpty(t, typ.String())
	}
	assert.Panics(t, func() { _ = tokenTyp(-1).String() })
}

func TestLexerTypes(t *testing.T) {
	for src, expected := range typeTests {
		tokens, err := lex(src)
		require.Nil(t, err, "source %q", src)
		types := make([]tokenTyp, len(tokens))
		for i, tok := range tokens {
			types[i] = tok.typ
		}
		assert.Equal(t, expected, types, "source %q", src)
	}
}

func TestLexerOperators(t *testing.T) {
	tests := []struct {
		src      string
		expected []string
	}{
		{`{{ a not in b }}`, []string{"a", "not in", "b"}},
		{`{{ a  is   not b }}`, []string{"a", "is not", "b"}},
		{`{{ a starts with b }}`, []string{"a", "starts with", "b"}},
		{`{{ a ** 2 // 3 }}`, []string{"a", "**", "2", "//", "3"}},
		{`{{ a ?? b }}`, []string{"a", "??", "b"}},
		{`{{ a <=> b }}`, []string{"a", "<=>", "b"}},
		{`{{ 1..3 }}`, []string{"1", "..", "3"}},
		{`{{ not(a) }}`, []string{"not", "(", "a", ")"}},
		{`{{ a.or }}`, []string{"a", ".", "or"}},
		{`{{ a|in }}`, []string{"a", "|", "in"}},
		{`{{ order }}`, []string{"order"}},
		{`{{ notice }}`, []string{"notice"}},
		{`{{ a b-and b }}`, []string{"a", "b-and", "b"}},
	}
	for _, test := range tests {
		tokens, err := lex(test.src)
		require.Nil(t, err, "source %q", test.src)
		var texts []string
		for _, tok := range tokens[1 : len(tokens)-2] {
			texts = append(texts, tok.txt)
		}
		assert.Equal(t, test.expected, texts, "source %q", test.src)
	}
}

func TestLexerStrings(t *testing.T) {
	tests := map[string]string{
		`{{ 'a\'b' }}`:      `a'b`,
		`{{ "a\"b" }}`:      `a"b`,
		`{{ 'a\nb' }}`:      "a\nb",
		`{{ 'a\x41b' }}`:    "aAb",
		`{{ 'a\101b' }}`:    "aAb",
		`{{ 'a\\b' }}`:      `a\b`,
		`{{ 'a#{b}' }}`:     "a#{b}",
		`{{ "a\#{b}" }}`:    "a#{b}",
		`{{ 'a\qb' }}`:      "aqb",
		`{{ "" }}`:          "",
		`{{ "tab\there" }}`: "tab\there",
	}
	for src, expected := range tests {
		tokens, err := lex(src)
		require.Nil(t, err, "source %q", src)
		require.Equal(t, tokenString, tokens[1].typ, "source %q", src)
		assert.Equal(t, expected, tokens[1].txt, "source %q", src)
	}
}

func TestLexerWhitespaceControl(t *testing.T) {
	tests := []struct {
		src   string
		texts []string
	}{
		{"a \n {{- b -}} \n c", []string{"a", "c"}},
		{"a \n {{~ b ~}} \n c", []string{"a \n", "\n c"}},
		{"{% if a %}\nb", []string{"b"}},
		{"{{ a }}\nb", []string{"\nb"}},
		{"a  {#- c -#}  b", []string{"a", "b"}},
		{"a {# c #}\nb", []string{"a ", "b"}},
		{"{% verbatim %} {{ a }} {%- endverbatim %}", []string{" {{ a }}"}},
	}
	for _, test := range tests {
		tokens, err := lex(test.src)
		require.Nil(t, err, "source %q", test.src)
		var texts []string
		for _, tok := range tokens {
			if tok.typ == tokenText {
				texts = append(texts, tok.txt)
			}
		}
		assert.Equal(t, test.texts, texts, "source %q", test.src)
	}
}

func TestLexerLines(t *testing.T) {
	tokens, err := lex("a\n{{ b }}\n{{\nc }}\r\n{% if\r d %}")
	require.Nil(t, err)
	var lines []int
	for _, tok := range tokens {
		lines = append(lines, tok.lin)
	}
	// a\n, {{, b, }}, \n, {{, c, }}, \n, {%, if, d, %}, EOF
	assert.Equal(t, []int{1, 2, 2, 2, 2, 3, 4, 4, 4, 5, 5, 6, 6, 6}, lines)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		src  string
		line int
		msg  string
	}{
		{"{{ a", 1, `Unclosed "variable".`},
		{"{% if a", 1, `Unclosed "block".`},
		{"a\n{% if (a %}", 2, `Unclosed "(".`},
		{"{{ a ] }}", 1, `Unexpected "]".`},
		{"{{ [a }}", 1, `Unclosed "[".`},
		{"\n\n{# a", 3, "Unclosed comment."},
		{"{{ @ }}", 1, `Unexpected character "@".`},
		{"{{ 'abc }}", 1, `Unexpected character "'".`},
		{"{{ \"a\n#{b }}", 1, `Unclosed "\"".`},
		{"{% verbatim %}a", 1, `Unexpected end of file: Unclosed "verbatim" block.`},
	}
	for _, test := range tests {
		_, err := lex(test.src)
		if assert.NotNil(t, err, "source %q", test.src) {
			assert.Equal(t, test.line, err.Line, "source %q", test.src)
			assert.Equal(t, test.msg, err.Msg, "source %q", test.src)
		}
	}
}

func TestLexerStop(t *testing.T) {
	l := scanTemplate("{{ a }}{{ b }}{{ c }}")
	tok := <-l.tokens
	assert.Equal(t, tokenVarStart, tok.typ)
	l.Stop()
	_, ok := <-l.tokens
	assert.False(t, ok)
}
