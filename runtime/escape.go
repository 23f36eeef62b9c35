// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strings"
	"unicode/utf8"
)

const hexchars = "0123456789ABCDEF"

// escapers are the escaping strategies of the escape filter.
var escapers = map[string]func(b *strings.Builder, s string){
	"html":      htmlEscape,
	"html_attr": attributeEscape,
	"js":        jsStringEscape,
	"css":       cssStringEscape,
	"url":       queryEscape,
	"markdown":  markdownEscape,
}

// FilterEscape escapes value with the given strategy. A Safe value is not
// escaped if autoescape is true; null, booleans and numbers are never
// escaped.
func FilterEscape(env *Env, value, strategy, charset, autoescape interface{}) interface{} {
	if s, ok := value.(Safe); ok && Bool(autoescape) {
		return s
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case Safe:
		s = string(v)
	case nil, bool, int, float64:
		return value
	default:
		if isArray(v) {
			return value
		}
		s = String(v)
	}
	name := "html"
	if strategy != nil {
		name = String(strategy)
	}
	escape, ok := escapers[name]
	if !ok {
		panic(errorf("Invalid escaping strategy %q (valid ones: css, html, html_attr, js, markdown, url).", name))
	}
	if c := String(charset); c != "" && !strings.EqualFold(c, "UTF-8") && !strings.EqualFold(c, "UTF8") {
		panic(errorf("The charset %q is not supported.", c))
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	var b strings.Builder
	b.Grow(len(s))
	escape(&b, s)
	return Safe(b.String())
}

// htmlEscape escapes the string s, so it can be placed inside HTML, and
// writes it to b.
func htmlEscape(b *strings.Builder, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '"':
			esc = "&#34;"
		case '\'':
			esc = "&#39;"
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		default:
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(esc)
		last = i + 1
	}
	b.WriteString(s[last:])
}

// attributeEscape escapes the string s, so it can be placed inside an
// unquoted HTML attribute value, and writes it to b.
func attributeEscape(b *strings.Builder, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '&':
			esc = "&amp;"
		case '\t':
			esc = "&#09;"
		case '\n':
			esc = "&#10;"
		case '\r':
			esc = "&#13;"
		case '\x0C':
			esc = "&#12;"
		case ' ':
			esc = "&#32;"
		case '"':
			esc = "&#34;"
		case '\'':
			esc = "&#39;"
		case '=':
			esc = "&#61;"
		case '`':
			esc = "&#96;"
		default:
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(esc)
		last = i + 1
	}
	b.WriteString(s[last:])
}

// prefixWithSpace reports whether the byte c, in a CSS string, must be
// preceded by a space when an escape sequence precedes it.
func prefixWithSpace(c byte) bool {
	switch c {
	case '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

var cssStringEscapes = []string{
	0:    `\0`,
	1:    `\1`,
	2:    `\2`,
	3:    `\3`,
	4:    `\4`,
	5:    `\5`,
	6:    `\6`,
	7:    `\7`,
	8:    `\8`,
	'\t': `\9`,
	'\n': `\a`,
	11:   `\b`,
	'\f': `\c`,
	'\r': `\d`,
	14:   `\e`,
	15:   `\f`,
	16:   `\10`,
	17:   `\11`,
	18:   `\12`,
	19:   `\13`,
	20:   `\14`,
	21:   `\15`,
	22:   `\16`,
	23:   `\17`,
	24:   `\18`,
	25:   `\19`,
	26:   `\1a`,
	27:   `\1b`,
	28:   `\1c`,
	29:   `\1d`,
	30:   `\1e`,
	31:   `\1f`,
	'"':  `\22`,
	'&':  `\26`,
	'\'': `\27`,
	'(':  `\28`,
	')':  `\29`,
	'+':  `\2b`,
	'/':  `\2f`,
	':':  `\3a`,
	';':  `\3b`,
	'<':  `\3c`,
	'>':  `\3e`,
	'\\': `\\`,
	'{':  `\7b`,
	'}':  `\7d`,
}

// cssStringEscape escapes the string s, so it can be placed inside a CSS
// string with single or double quotes, and writes it to b.
func cssStringEscape(b *strings.Builder, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if int(c) >= len(cssStringEscapes) || cssStringEscapes[c] == "" {
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(cssStringEscapes[c])
		if c != '\\' && (i == len(s)-1 || prefixWithSpace(s[i+1])) {
			b.WriteByte(' ')
		}
		last = i + 1
	}
	b.WriteString(s[last:])
}

// jsStringEscapes contains the runes that must be escaped when placed within
// a JavaScript string with single or double quotes, in addition to the runes
// U+2028 and U+2029.
var jsStringEscapes = []string{
	0:    `\u0000`,
	1:    `\u0001`,
	2:    `\u0002`,
	3:    `\u0003`,
	4:    `\u0004`,
	5:    `\u0005`,
	6:    `\u0006`,
	7:    `\u0007`,
	'\b': `\b`,
	'\t': `\t`,
	'\n': `\n`,
	'\v': `\u000b`,
	'\f': `\f`,
	'\r': `\r`,
	14:   `\u000e`,
	15:   `\u000f`,
	16:   `\u0010`,
	17:   `\u0011`,
	18:   `\u0012`,
	19:   `\u0013`,
	20:   `\u0014`,
	21:   `\u0015`,
	22:   `\u0016`,
	23:   `\u0017`,
	24:   `\u0018`,
	25:   `\u0019`,
	26:   `\u001a`,
	27:   `\u001b`,
	28:   `\u001c`,
	29:   `\u001d`,
	30:   `\u001e`,
	31:   `\u001f`,
	'"':  `\"`,
	'&':  `\u0026`,
	'\'': `\u0027`,
	'<':  `\u003c`,
	'>':  `\u003e`,
	'\\': `\\`,
	'/':  `\/`,
}

// jsStringEscape escapes the string s so it can be placed within a
// JavaScript string with single or double quotes, and writes it to b.
func jsStringEscape(b *strings.Builder, s string) {
	last := 0
	for i, c := range s {
		var esc string
		switch {
		case int(c) < len(jsStringEscapes):
			esc = jsStringEscapes[c]
		case c == '\u2028':
			esc = `\u2028`
		case c == '\u2029':
			esc = `\u2029`
		}
		if esc == "" {
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(esc)
		last = i + utf8.RuneLen(c)
	}
	b.WriteString(s[last:])
}

// queryEscape escapes the string s, so it can be placed inside a URL path
// segment or query, and writes it to b. The space is escaped as "%20".
func queryEscape(b *strings.Builder, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			continue
		}
		b.WriteString(s[last:i])
		b.WriteByte('%')
		b.WriteByte(hexchars[c>>4])
		b.WriteByte(hexchars[c&0xF])
		last = i + 1
	}
	b.WriteString(s[last:])
}

const nbsp = "\u00a0"

// markdownEscape escapes the string s, so it can be placed inside Markdown,
// and writes it to b.
func markdownEscape(b *strings.Builder, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		esc := `\`
		switch s[i] {
		case '\\', '`', '*', '_', '{', '}', '[', ']', '(', ')', '#', '+', '-', '=', '.', '!', '|', '<', '>', '~', '&':
		case ' ', '\t':
			if 0 < i && i < len(s)-1 {
				if c := s[i+1]; c != ' ' && c != '\t' {
					continue
				}
			}
			esc = nbsp
		default:
			continue
		}
		b.WriteString(s[last:i])
		b.WriteString(esc)
		if s[i] == ' ' || s[i] == '\t' {
			last = i + 1
		} else {
			last = i
		}
	}
	b.WriteString(s[last:])
}
