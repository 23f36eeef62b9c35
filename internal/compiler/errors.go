// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError records a template error with the path and the line where the
// error occurred.
type SyntaxError struct {
	Path        string
	Line        int
	Msg         string
	Suggestions []string // names similar to an unknown name.
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.Path, e.Line, e.Message())
}

// Message returns the message with the suggestions, if any.
func (e *SyntaxError) Message() string {
	switch n := len(e.Suggestions); n {
	case 0:
		return e.Msg
	case 1:
		return e.Msg + " Did you mean " + strconv.Quote(e.Suggestions[0]) + "?"
	default:
		quoted := make([]string, n)
		for i, s := range e.Suggestions {
			quoted[i] = strconv.Quote(s)
		}
		return e.Msg + " Did you mean " + strings.Join(quoted[:n-1], ", ") + " or " + quoted[n-1] + "?"
	}
}

// syntaxError returns a SyntaxError at the given line. The path is set when
// the error is recovered.
func syntaxError(line int, format string, a ...interface{}) *SyntaxError {
	return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, a...)}
}

// unknownNameError returns a SyntaxError for an unknown name, with the
// similar names among candidates as suggestions.
func unknownNameError(line int, name string, candidates []string, format string, a ...interface{}) *SyntaxError {
	err := syntaxError(line, format, a...)
	err.Suggestions = suggestions(name, candidates)
	return err
}

// LogicError is an error in the configuration of the compiler, as a
// misconfigured filter, function or test. It is never caused by the source
// of a template.
type LogicError struct {
	Msg string
}

func (e *LogicError) Error() string {
	return "logic error: " + e.Msg
}

func logicError(format string, a ...interface{}) *LogicError {
	return &LogicError{Msg: fmt.Sprintf(format, a...)}
}
