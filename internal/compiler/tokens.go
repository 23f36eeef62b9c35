// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
)

// Token type.
type tokenTyp int

const (
	tokenEOF                tokenTyp = iota // eof
	tokenText                               // text
	tokenBlockStart                         // {%
	tokenVarStart                           // {{
	tokenBlockEnd                           // %}
	tokenVarEnd                             // }}
	tokenName                               // name
	tokenNumber                             // 12, 1.5
	tokenString                             // "abc", 'abc'
	tokenOperator                           // +, not in, ...
	tokenPunctuation                        // ( ) [ ] { } ? : . , |
	tokenInterpolationStart                 // #{
	tokenInterpolationEnd                   // }
)

var tokenTypeNames = map[tokenTyp]string{
	tokenEOF:                "end of template",
	tokenText:               "text",
	tokenBlockStart:         "begin of statement block",
	tokenVarStart:           "begin of print statement",
	tokenBlockEnd:           "end of statement block",
	tokenVarEnd:             "end of print statement",
	tokenName:               "name",
	tokenNumber:             "number",
	tokenString:             "string",
	tokenOperator:           "operator",
	tokenPunctuation:        "punctuation",
	tokenInterpolationStart: "begin of string interpolation",
	tokenInterpolationEnd:   "end of string interpolation",
}

func (tt tokenTyp) String() string {
	if s, ok := tokenTypeNames[tt]; ok {
		return s
	}
	panic("invalid token type")
}

// Information about a token to return.
type token struct {
	typ tokenTyp // type
	txt string   // token text, unquoted for strings
	lin int      // line of the first character
}

// String returns the string that represents the token.
func (tok token) String() string {
	if tok.typ == tokenText {
		return fmt.Sprintf("%q", tok.txt)
	}
	return fmt.Sprintf("%s %q", tok.typ, tok.txt)
}

// is reports whether the token has type typ and, if values is not empty, a
// text equal to one of the values.
func (tok token) is(typ tokenTyp, values ...string) bool {
	if tok.typ != typ {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if tok.txt == v {
			return true
		}
	}
	return false
}
