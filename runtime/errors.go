// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"fmt"
	goruntime "runtime"
	"sort"
	"strconv"
	"strings"
)

// Error is an error occurred rendering a template.
type Error struct {
	Template string // name of the template, empty if unknown.
	Line     int    // line in the template, 0 if unknown.
	Err      error
}

func (err *Error) Error() string {
	var b strings.Builder
	if err.Template != "" {
		b.WriteString(err.Template)
		if err.Line > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(err.Line))
		}
		b.WriteString(": ")
	}
	b.WriteString(err.Err.Error())
	return b.String()
}

func (err *Error) Unwrap() error {
	return err.Err
}

// runtimeError represents an error raised by the runtime helpers.
type runtimeError string

func (err runtimeError) Error() string { return string(err) }
func (err runtimeError) RuntimeError() {}

// errorf returns a runtime error with a formatted message.
func errorf(format string, a ...interface{}) runtimeError {
	return runtimeError(fmt.Sprintf(format, a...))
}

// NotFoundError is returned when a template does not exist.
type NotFoundError struct {
	Name string
}

func (err *NotFoundError) Error() string {
	return fmt.Sprintf("Unable to find template %q.", err.Name)
}

// sourceLine returns the template line of the generated line, given the
// debug info of the unit. It returns 0 if no line is known.
func sourceLine(info map[int]int, line int) int {
	if len(info) == 0 {
		return 0
	}
	keys := make([]int, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	i := sort.SearchInts(keys, line+1) - 1
	if i < 0 {
		return 0
	}
	return info[keys[i]]
}

// position returns the name and the line of the template whose code is in
// the innermost frame of the stack of the calling goroutine.
func (env *Env) position(skip int) (string, int) {
	pcs := make([]uintptr, 100)
	n := goruntime.Callers(skip+1, pcs)
	frames := goruntime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if u, ok := env.unitOf(frame.Function); ok {
			return u.TemplateName(), sourceLine(u.DebugInfo(), frame.Line)
		}
		if !more {
			break
		}
	}
	return "", 0
}

// convertPanic converts the value of a recovered panic to an error. It must
// be called by a deferred function, so the frames of the panic are still on
// the stack.
func (env *Env) convertPanic(msg interface{}) error {
	var err error
	switch msg := msg.(type) {
	case *Error:
		if msg.Template != "" {
			return msg
		}
		err = msg.Err
	case error:
		err = msg
	case string:
		err = errors.New(msg)
	default:
		panic(msg)
	}
	name, line := env.position(3)
	return &Error{Template: name, Line: line, Err: err}
}
