// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
)

// tokenStream reads the tokens from a lexer and buffers the tokens needed
// for the lookahead. The first buffered token is the current token.
type tokenStream struct {
	lex  *lexer
	buf  []token
	line int // line of the last read token.
}

func newTokenStream(lex *lexer) *tokenStream {
	return &tokenStream{lex: lex, line: 1}
}

// fill reads tokens from the lexer until the token at position n can be
// looked up. It returns false if there are no more tokens. If the lexer
// stopped with an error, fill panics with the error.
func (s *tokenStream) fill(n int) bool {
	for len(s.buf) <= n {
		tok, ok := <-s.lex.tokens
		if !ok {
			if s.lex.err != nil {
				panic(s.lex.err)
			}
			return false
		}
		s.buf = append(s.buf, tok)
		s.line = tok.lin
	}
	return true
}

// current returns the current token.
func (s *tokenStream) current() token {
	if !s.fill(0) {
		panic(syntaxError(s.line, "Unexpected end of template."))
	}
	return s.buf[0]
}

// look returns the token n positions after the current token.
func (s *tokenStream) look(n int) token {
	if !s.fill(n) {
		panic(syntaxError(s.line, "Unexpected end of template."))
	}
	return s.buf[n]
}

// next returns the current token and moves to the next one.
func (s *tokenStream) next() token {
	tok := s.current()
	if tok.typ == tokenEOF {
		panic(syntaxError(tok.lin, "Unexpected end of template."))
	}
	s.buf = s.buf[1:]
	return tok
}

// nextIf moves to the next token if the current token has type typ and one
// of the values. It returns the current token and true if it moved.
func (s *tokenStream) nextIf(typ tokenTyp, values ...string) (token, bool) {
	if tok := s.current(); tok.is(typ, values...) {
		return s.next(), true
	}
	return token{}, false
}

// test reports whether the current token has type typ and one of the values.
func (s *tokenStream) test(typ tokenTyp, values ...string) bool {
	return s.current().is(typ, values...)
}

// expect moves to the next token if the current token has type typ and, if
// value is not empty, the given value. Otherwise it panics with a syntax
// error prefixed by msg.
func (s *tokenStream) expect(typ tokenTyp, value string, msg string) token {
	tok := s.current()
	var ok bool
	if value == "" {
		ok = tok.is(typ)
	} else {
		ok = tok.is(typ, value)
	}
	if !ok {
		if msg != "" {
			msg += ". "
		}
		got := ""
		if tok.txt != "" {
			got = fmt.Sprintf(" of value %q", tok.txt)
		}
		want := ""
		if value != "" {
			want = fmt.Sprintf(" with value %q", value)
		}
		panic(syntaxError(tok.lin, "%sUnexpected token %q%s (%q expected%s).", msg, tok.typ.String(), got, typ.String(), want))
	}
	return s.next()
}

// inject inserts tokens before the current token.
func (s *tokenStream) inject(tokens ...token) {
	s.fill(0)
	s.buf = append(append([]token{}, tokens...), s.buf...)
}

// isEOF reports whether the current token is the end of the template.
func (s *tokenStream) isEOF() bool {
	return s.current().typ == tokenEOF
}
