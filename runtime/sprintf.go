// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// sprintf formats args according to a printf format:
//
//	%[argnum$][flags][width][.precision]specifier
//
// where the flags are '-', '+', '0', ' ' and a quote followed by a padding
// character, and the specifiers are b, c, d, e, E, f, F, g, G, o, s, u, x, X
// and %.
func sprintf(format string, args []interface{}) string {
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(format) {
			panic(errorf("Missing format specifier at end of string."))
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}

		// Argument number.
		argnum := -1
		if j := skipDigits(format, i); j < len(format) && j > i && format[j] == '$' {
			n, _ := strconv.Atoi(format[i:j])
			if n == 0 {
				panic(errorf("Argument number specifier must be greater than zero and less than %d.", len(args)+1))
			}
			argnum = n - 1
			i = j + 1
		}

		// Flags.
		left, plus := false, false
		pad := byte(' ')
	flags:
		for ; i < len(format); i++ {
			switch format[i] {
			case '-':
				left = true
			case '+':
				plus = true
			case '0':
				pad = '0'
			case ' ':
				pad = ' '
			case '\'':
				if i+1 < len(format) {
					i++
					pad = format[i]
				}
			default:
				break flags
			}
		}

		// Width and precision.
		width, precision := 0, -1
		j := skipDigits(format, i)
		width, _ = strconv.Atoi(format[i:j])
		i = j
		if i < len(format) && format[i] == '.' {
			j = skipDigits(format, i+1)
			precision, _ = strconv.Atoi(format[i+1 : j])
			i = j
		}
		if i == len(format) {
			panic(errorf("Missing format specifier at end of string."))
		}

		var arg interface{}
		if argnum < 0 {
			argnum = next
			next++
		}
		if argnum >= len(args) {
			panic(errorf("%d arguments are required, %d given.", argnum+2, len(args)+1))
		}
		arg = args[argnum]

		var s string
		numeric := true
		switch verb := format[i]; verb {
		case 'b':
			s = strconv.FormatUint(uint64(toInt(arg)), 2)
		case 'c':
			s = string(rune(toInt(arg)))
			width = 0
		case 'd':
			n := toInt(arg)
			s = strconv.Itoa(n)
			if plus && n >= 0 {
				s = "+" + s
			}
		case 'u':
			s = strconv.FormatUint(uint64(toInt(arg)), 10)
		case 'o':
			s = strconv.FormatUint(uint64(toInt(arg)), 8)
		case 'x':
			s = strconv.FormatUint(uint64(toInt(arg)), 16)
		case 'X':
			s = strings.ToUpper(strconv.FormatUint(uint64(toInt(arg)), 16))
		case 'e', 'E', 'f', 'F', 'g', 'G':
			if precision < 0 {
				precision = 6
			}
			f := toFloat(arg)
			fv := verb
			if fv == 'F' {
				fv = 'f'
			}
			s = strconv.FormatFloat(f, fv, precision, 64)
			if verb == 'e' || verb == 'E' {
				s = trimExponent(s)
			}
			if plus && f >= 0 {
				s = "+" + s
			}
		case 's':
			s = String(arg)
			if precision >= 0 && utf8.RuneCountInString(s) > precision {
				s = string([]rune(s)[:precision])
			}
			numeric = false
		default:
			panic(errorf("Unknown format specifier %q.", string(verb)))
		}

		if n := utf8.RuneCountInString(s); n < width {
			padding := strings.Repeat(string(pad), width-n)
			switch {
			case left && pad == '0' && numeric:
				s += strings.Repeat(" ", width-n)
			case left:
				s += padding
			case pad == '0' && numeric && len(s) > 0 && (s[0] == '-' || s[0] == '+'):
				s = s[:1] + padding + s[1:]
			default:
				s = padding + s
			}
		}
		b.WriteString(s)
	}
	return b.String()
}

func skipDigits(s string, i int) int {
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	return i
}

// trimExponent removes the leading zeros of the exponent of s, as in
// "1.5e+3" instead of "1.5e+03".
func trimExponent(s string) string {
	p := strings.IndexAny(s, "eE")
	if p < 0 || p+2 >= len(s) {
		return s
	}
	exp := strings.TrimLeft(s[p+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:p+2] + exp
}
