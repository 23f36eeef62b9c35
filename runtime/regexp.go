// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"strings"
	"sync"

	"github.com/coregx/coregex"
)

// patterns caches the compiled patterns of the matches operator.
var patterns sync.Map

// CompilePattern compiles a pattern of the matches operator. A pattern is
// enclosed in delimiters, as "/^a+$/", and the closing delimiter can be
// followed by the flags i, m, s and x.
func CompilePattern(pattern string) (*coregex.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*coregex.Regexp), nil
	}
	expr, err := patternExpr(pattern)
	if err != nil {
		return nil, err
	}
	re, err := coregex.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

// patternExpr returns the regular expression of a delimited pattern.
func patternExpr(pattern string) (string, error) {
	if len(pattern) < 2 {
		return "", errors.New("missing delimiters")
	}
	open := pattern[0]
	if open == '\\' || '0' <= open && open <= '9' || 'a' <= open && open <= 'z' || 'A' <= open && open <= 'Z' ||
		open == ' ' || open == '\t' || open == '\n' {
		return "", errors.New("delimiter must not be alphanumeric, backslash or whitespace")
	}
	closing := open
	switch open {
	case '(':
		closing = ')'
	case '[':
		closing = ']'
	case '{':
		closing = '}'
	case '<':
		closing = '>'
	}
	end := strings.LastIndexByte(pattern, closing)
	if end <= 0 {
		return "", errors.New("no ending delimiter found")
	}
	expr := pattern[1:end]
	var flags strings.Builder
	for _, f := range pattern[end+1:] {
		switch f {
		case 'i', 'm', 's':
			flags.WriteRune(f)
		case 'x':
			expr = stripExtended(expr)
		case 'u', 'D':
		default:
			return "", errors.New("unknown modifier '" + string(f) + "'")
		}
	}
	if flags.Len() > 0 {
		expr = "(?" + flags.String() + ")" + expr
	}
	return expr, nil
}

// stripExtended removes the whitespace and the comments of an extended
// pattern.
func stripExtended(expr string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && i+1 < len(expr):
			b.WriteByte(c)
			i++
			b.WriteByte(expr[i])
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case !inClass && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			continue
		case !inClass && c == '#':
			for i < len(expr) && expr[i] != '\n' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Matches reports whether the string representation of subject matches
// pattern.
func Matches(subject, pattern interface{}) bool {
	re, err := CompilePattern(String(pattern))
	if err != nil {
		panic(errorf("Regexp %q passed to \"matches\" is not valid: %s.", String(pattern), err))
	}
	return re.MatchString(String(subject))
}
