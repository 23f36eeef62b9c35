// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// checkEvery is the number of writes between two checks of the context.
const checkEvery = 256

// Writer is the writer of the rendered output. The errors of the
// underlying writer are sticky: after the first error, the writes are
// ignored and Err returns the error.
type Writer struct {
	ctx    context.Context
	out    *bufio.Writer    // nil for a buffer.
	buf    *strings.Builder // nil for an output writer.
	writes int
	err    error
}

// NewWriter returns a writer that writes to w. The rendering is stopped when
// ctx is done.
func NewWriter(ctx context.Context, w io.Writer) *Writer {
	return &Writer{ctx: ctx, out: bufio.NewWriter(w)}
}

// NewBuffer returns a writer that writes to memory.
func NewBuffer() *Writer {
	return &Writer{buf: &strings.Builder{}}
}

// WriteString writes s.
func (w *Writer) WriteString(s string) {
	if w.err != nil || s == "" {
		return
	}
	if w.buf != nil {
		w.buf.WriteString(s)
		return
	}
	w.writes++
	if w.ctx != nil && w.writes%checkEvery == 0 {
		if err := w.ctx.Err(); err != nil {
			panic(err)
		}
	}
	_, w.err = w.out.WriteString(s)
}

// Print writes the string representation of v.
func (w *Writer) Print(v interface{}) {
	w.WriteString(String(v))
}

// Flush flushes the buffered data to the underlying writer.
func (w *Writer) Flush() {
	if w.out != nil && w.err == nil {
		w.err = w.out.Flush()
	}
}

// Err returns the first error occurred writing to the underlying writer.
func (w *Writer) Err() error {
	return w.err
}

// String returns the data written to a buffer.
func (w *Writer) String() string {
	if w.buf == nil {
		return ""
	}
	return w.buf.String()
}

// Safe returns the data written to a buffer as a safe string.
func (w *Writer) Safe() Safe {
	return Safe(w.String())
}

// InlinePrint writes v and returns an empty string, so it can be used
// inside an expression.
func InlinePrint(w *Writer, v interface{}) interface{} {
	w.Print(v)
	return ""
}
