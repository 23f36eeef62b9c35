// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternExpr(t *testing.T) {
	tests := []struct {
		pattern string
		expr    string
		err     string
	}{
		{`/^a+$/`, `^a+$`, ""},
		{`#a/b#i`, `(?i)a/b`, ""},
		{`{a}ms`, `(?ms)a`, ""},
		{"/a b # comment\n c/x", `abc`, ""},
		{`/[a b]/x`, `[a b]`, ""},
		{`/a/u`, `a`, ""},
		{`a`, "", "missing delimiters"},
		{`aba`, "", "delimiter must not be alphanumeric, backslash or whitespace"},
		{`/a`, "", "no ending delimiter found"},
		{`/a/q`, "", "unknown modifier 'q'"},
	}
	for _, test := range tests {
		expr, err := patternExpr(test.pattern)
		if test.err != "" {
			assert.EqualError(t, err, test.err, "pattern %q", test.pattern)
			continue
		}
		require.NoError(t, err, "pattern %q", test.pattern)
		assert.Equal(t, test.expr, expr, "pattern %q", test.pattern)
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Hello", `/^h/i`))
	assert.False(t, Matches("Hello", `/^h/`))
	assert.True(t, Matches(123, `/^\d+$/`))
	re1, err := CompilePattern(`/x/`)
	require.NoError(t, err)
	re2, err := CompilePattern(`/x/`)
	require.NoError(t, err)
	assert.Same(t, re1, re2)
	assert.Panics(t, func() { Matches("a", `/(/`) })
}
