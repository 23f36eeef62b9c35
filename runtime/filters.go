// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"bytes"
	"html"
	"math"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	markdown  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugcPolicy = bluemonday.UGCPolicy()
	stripAll  = bluemonday.StrictPolicy()
)

// whitespace is the default character mask of the trim filter.
const whitespace = " \t\n\r\x00\x0B"

// FilterAbbreviate abbreviates value to at most length characters. If it is
// longer, the abbreviated string is cut at a space and ends with "...".
func FilterAbbreviate(value, length interface{}) interface{} {
	const spaces = " \n\r\t\f"
	s := strings.TrimRight(String(value), spaces)
	n := toInt(length)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 3 {
		return ""
	}
	s = string(runes[:n-2])
	if p := strings.LastIndexAny(s, spaces); p > 0 {
		s = strings.TrimRight(s[:p], spaces)
	} else {
		s = ""
	}
	s = strings.TrimRight(s, ".,")
	return s + "..."
}

// FilterAbs returns the absolute value of number.
func FilterAbs(number interface{}) interface{} {
	switch n := toNumber(number).(type) {
	case int:
		if n < 0 {
			if n == math.MinInt {
				return -float64(n)
			}
			return -n
		}
		return n
	case float64:
		return math.Abs(n)
	}
	return 0
}

// FilterBatch splits items in batches of size elements. If fill is not nil,
// the last batch is filled with fill.
func FilterBatch(items, size, fill, preserveKeys interface{}) interface{} {
	n := toInt(size)
	if n <= 0 {
		panic(errorf("The size of a batch must be greater than zero."))
	}
	m := ToMap(items)
	var batches []interface{}
	var batch *Map
	for i, k := range m.keys {
		if i%n == 0 {
			batch = NewMap()
			batches = append(batches, batch)
		}
		if Bool(preserveKeys) {
			batch.Set(k, m.values[i])
		} else {
			batch.Append(m.values[i])
		}
	}
	if fill != nil && batch != nil {
		for batch.Len() < n {
			batch.Append(fill)
		}
	}
	if batches == nil {
		return []interface{}{}
	}
	return batches
}

// FilterCapitalize returns value with the first character in upper case and
// the others in lower case.
func FilterCapitalize(value interface{}) interface{} {
	s := String(value)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + cases.Lower(language.Und).String(s[size:])
}

// element returns the element key of v, an array or an object.
func element(v, key interface{}) (interface{}, bool) {
	if k, ok := v.(keyed); ok {
		return k.Get(key)
	}
	if m, ok := toMap(v); ok {
		return m.Get(key)
	}
	if v == nil || !isObject(v) {
		return nil, false
	}
	if f, ok := field(reflect.ValueOf(v), String(key)); ok {
		return f.Interface(), true
	}
	return nil, false
}

// FilterColumn returns the values of the column name of array. If index is
// not nil, the values are keyed by the column index.
func FilterColumn(array, name, index interface{}) interface{} {
	column := NewMap()
	for _, row := range ToMap(array).values {
		v, ok := element(row, name)
		if !ok {
			continue
		}
		if index != nil {
			if k, ok := element(row, index); ok {
				column.Set(k, v)
				continue
			}
		}
		column.Append(v)
	}
	if column.IsSequence() {
		return column.values
	}
	return column
}

// FilterDefault returns def if value is empty, otherwise value.
func FilterDefault(value, def interface{}) interface{} {
	if TestEmpty(value) {
		return def
	}
	return value
}

// FilterFirst returns the first element of an array or the first character
// of a string.
func FilterFirst(item interface{}) interface{} {
	if isString(item) || !isArray(item) {
		s := String(item)
		if s == "" {
			return ""
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(r)
	}
	m := ToMap(item)
	if m.Len() == 0 {
		return nil
	}
	return m.values[0]
}

// FilterLast returns the last element of an array or the last character of
// a string.
func FilterLast(item interface{}) interface{} {
	if isString(item) || !isArray(item) {
		s := String(item)
		if s == "" {
			return ""
		}
		r, _ := utf8.DecodeLastRuneInString(s)
		return string(r)
	}
	m := ToMap(item)
	if m.Len() == 0 {
		return nil
	}
	return m.values[m.Len()-1]
}

// FilterFormat formats values according to the printf format.
func FilterFormat(format, values interface{}) interface{} {
	return sprintf(String(format), ToMap(values).values)
}

// FilterJoin joins the values of value with glue. If and is not nil, it is
// used to join the last two values.
func FilterJoin(value, glue, and interface{}) interface{} {
	if value == nil {
		return ""
	}
	values := ToMap(value).values
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = String(v)
	}
	g := String(glue)
	if and == nil || len(parts) < 2 {
		return strings.Join(parts, g)
	}
	return strings.Join(parts[:len(parts)-1], g) + String(and) + parts[len(parts)-1]
}

// JSON encoding options.
const (
	jsonHexTag           = 1
	jsonHexAmp           = 2
	jsonHexApos          = 4
	jsonHexQuot          = 8
	jsonUnescapedSlashes = 64
	jsonPrettyPrint      = 128
)

// FilterJSONEncode returns the JSON encoding of value. options can contain
// the pretty print option.
func FilterJSONEncode(value, options interface{}) interface{} {
	opts := toInt(options)
	var b []byte
	var err error
	if opts&jsonPrettyPrint != 0 {
		b, err = json.MarshalIndent(value, "", "    ")
	} else {
		b, err = json.Marshal(value)
	}
	if err != nil {
		panic(errorf("Cannot encode a value of type %s to JSON: %s.", typeName(value), err))
	}
	if opts&jsonUnescapedSlashes == 0 {
		b = bytes.ReplaceAll(b, []byte("/"), []byte(`\/`))
	}
	return string(b)
}

// FilterKebab returns value in kebab case.
func FilterKebab(value interface{}) interface{} {
	s := String(value)
	var b strings.Builder
	b.Grow(len(s) + 2)
	noDash := false // the last written rune is not a dash.
	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; i++ {
		r := runes[i]
		switch {
		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			noDash = true
		case unicode.IsUpper(r):
			if noDash && (unicode.IsLower(runes[i-1]) || i+1 < n && unicode.IsLower(runes[i+1])) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			noDash = true
		default:
			if noDash && i+1 < n {
				b.WriteByte('-')
				noDash = false
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// FilterKeys returns the keys of array.
func FilterKeys(array interface{}) interface{} {
	if array == nil {
		return []interface{}{}
	}
	return ToMap(array).Keys()
}

// FilterLength returns the length of thing.
func FilterLength(thing interface{}) interface{} {
	return Length(thing)
}

// FilterLower returns value in lower case.
func FilterLower(value interface{}) interface{} {
	return cases.Lower(language.Und).String(String(value))
}

// FilterUpper returns value in upper case.
func FilterUpper(value interface{}) interface{} {
	return cases.Upper(language.Und).String(String(value))
}

// FilterTitle returns value with the first letter of each word in upper
// case and the others in lower case.
func FilterTitle(value interface{}) interface{} {
	return cases.Title(language.English).String(String(value))
}

// FilterMarkdownToHTML converts the Markdown value to HTML.
func FilterMarkdownToHTML(value interface{}) interface{} {
	var b bytes.Buffer
	if err := markdown.Convert([]byte(String(value)), &b); err != nil {
		panic(errorf("Cannot convert Markdown to HTML: %s.", err))
	}
	return Safe(b.String())
}

// FilterMerge merges two arrays. The values with an integer key are
// appended, the values with a string key replace those with the same key.
func FilterMerge(arr1, arr2 interface{}) interface{} {
	if !isArray(arr1) && arr1 != nil {
		panic(errorf("The merge filter only works with arrays, got %q as first argument.", typeName(arr1)))
	}
	if !isArray(arr2) && arr2 != nil {
		panic(errorf("The merge filter only works with arrays, got %q as second argument.", typeName(arr2)))
	}
	merged := NewMap()
	for _, arr := range []interface{}{arr1, arr2} {
		m := ToMap(arr)
		for i, k := range m.keys {
			if _, ok := k.(int); ok {
				merged.Append(m.values[i])
			} else {
				merged.Set(k, m.values[i])
			}
		}
	}
	if merged.IsSequence() {
		return merged.values
	}
	return merged
}

// FilterNl2br inserts a line break before the newlines of value.
func FilterNl2br(value interface{}) interface{} {
	s := String(value)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\n' && c != '\r' {
			b.WriteByte(c)
			continue
		}
		b.WriteString("<br />")
		b.WriteByte(c)
		if i+1 < len(s) && (s[i+1] == '\n' || s[i+1] == '\r') && s[i+1] != c {
			i++
			b.WriteByte(s[i])
		}
	}
	return Safe(b.String())
}

// FilterNumberFormat formats number with the given number of decimals and
// the given separators. The defaults are those of the environment.
func FilterNumberFormat(env *Env, number, decimals, decimalPoint, thousandSep interface{}) interface{} {
	d := env.decimals
	if decimals != nil {
		d = toInt(decimals)
	}
	point := env.decimalPoint
	if decimalPoint != nil {
		point = String(decimalPoint)
	}
	sep := env.thousandsSep
	if thousandSep != nil {
		sep = String(thousandSep)
	}
	var dec decimal.Decimal
	switch n := toNumber(number).(type) {
	case int:
		dec = decimal.NewFromInt(int64(n))
	case float64:
		dec = decimal.NewFromFloat(n)
	}
	s := dec.Round(int32(d)).StringFixed(int32(d))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteByte(intPart[i])
	}
	if fracPart != "" {
		b.WriteString(point)
		b.WriteString(fracPart)
	}
	return b.String()
}

// FilterRaw returns value. Its value is never escaped.
func FilterRaw(value interface{}) interface{} {
	return value
}

// FilterReplace replaces in str the keys of from with their values. Longer
// keys are replaced first.
func FilterReplace(str, from interface{}) interface{} {
	if !isArray(from) {
		panic(errorf("The replace filter expects an array or \"Traversable\" as replace values, got %q.", typeName(from)))
	}
	m := ToMap(from)
	type pair struct{ old, new string }
	pairs := make([]pair, 0, m.Len())
	for i, k := range m.keys {
		if old := String(k); old != "" {
			pairs = append(pairs, pair{old, String(m.values[i])})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return len(pairs[i].old) > len(pairs[j].old) })
	oldnew := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		oldnew = append(oldnew, p.old, p.new)
	}
	return strings.NewReplacer(oldnew...).Replace(String(str))
}

// FilterReverse reverses the characters of a string or the elements of an
// array. The integer keys are preserved only if preserveKeys is true.
func FilterReverse(item, preserveKeys interface{}) interface{} {
	if !isArray(item) {
		runes := []rune(String(item))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	}
	m := ToMap(item)
	reversed := NewMap()
	for i := m.Len() - 1; i >= 0; i-- {
		k := m.keys[i]
		if _, ok := k.(int); ok && !Bool(preserveKeys) {
			reversed.Append(m.values[i])
		} else {
			reversed.Set(k, m.values[i])
		}
	}
	if reversed.IsSequence() {
		return reversed.values
	}
	return reversed
}

// FilterRound rounds value to precision decimals with the method "common",
// "ceil" or "floor".
func FilterRound(value, precision, method interface{}) interface{} {
	p := int32(toInt(precision))
	d := decimal.NewFromFloat(toFloat(value))
	switch String(method) {
	case "common":
		d = d.Round(p)
	case "ceil":
		d = d.RoundCeil(p)
	case "floor":
		d = d.RoundFloor(p)
	default:
		panic(errorf(`The round filter only supports the "common", "ceil", and "floor" methods.`))
	}
	return d.InexactFloat64()
}

// FilterSanitizeHTML sanitizes the HTML value keeping the user generated
// content.
func FilterSanitizeHTML(value interface{}) interface{} {
	return Safe(ugcPolicy.Sanitize(String(value)))
}

// FilterSlice extracts a slice of a string or of an array. A negative start
// counts from the end, a negative length stops before the end.
func FilterSlice(item, start, length, preserveKeys interface{}) interface{} {
	var n int
	isArr := isArray(item)
	var m *Map
	var runes []rune
	if isArr {
		m = ToMap(item)
		n = m.Len()
	} else {
		runes = []rune(String(item))
		n = len(runes)
	}
	from := toInt(start)
	if from < 0 {
		from = max(n+from, 0)
	}
	from = min(from, n)
	to := n
	if length != nil {
		l := toInt(length)
		if l < 0 {
			to = max(n+l, from)
		} else {
			to = min(from+l, n)
		}
	}
	if !isArr {
		return string(runes[from:to])
	}
	sliced := NewMap()
	for i := from; i < to; i++ {
		k := m.keys[i]
		if _, ok := k.(int); ok && !Bool(preserveKeys) {
			sliced.Append(m.values[i])
		} else {
			sliced.Set(k, m.values[i])
		}
	}
	if sliced.IsSequence() {
		return sliced.values
	}
	return sliced
}

// FilterSlug returns the slug of value.
func FilterSlug(value interface{}) interface{} {
	return slug.Make(String(value))
}

// FilterSort sorts the values of array preserving the keys.
func FilterSort(array interface{}) interface{} {
	if !isArray(array) {
		panic(errorf("The sort filter only works with arrays, got %q.", typeName(array)))
	}
	m := ToMap(array)
	idx := make([]int, m.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return Less(m.values[idx[i]], m.values[idx[j]])
	})
	sorted := NewMap()
	for _, i := range idx {
		sorted.Set(m.keys[i], m.values[i])
	}
	return sorted
}

// FilterSpaceless removes the whitespace between HTML tags.
func FilterSpaceless(value interface{}) interface{} {
	return Safe(Spaceless(String(value)))
}

// FilterSplit splits value by delimiter. If delimiter is empty, value is
// split in chunks of limit characters. A positive limit is the maximum
// number of elements, a negative one removes the last elements.
func FilterSplit(value, delimiter, limit interface{}) interface{} {
	s, sep := String(value), String(delimiter)
	var parts []string
	if sep == "" {
		size := 1
		if limit != nil && toInt(limit) > 0 {
			size = toInt(limit)
		}
		runes := []rune(s)
		for i := 0; i < len(runes); i += size {
			parts = append(parts, string(runes[i:min(i+size, len(runes))]))
		}
	} else {
		switch l := toInt(limit); {
		case limit == nil:
			parts = strings.Split(s, sep)
		case l > 0:
			parts = strings.SplitN(s, sep, l)
		case l == 0:
			parts = []string{s}
		default:
			parts = strings.Split(s, sep)
			parts = parts[:max(len(parts)+l, 0)]
		}
	}
	values := make([]interface{}, len(parts))
	for i, p := range parts {
		values[i] = p
	}
	return values
}

// FilterStripTags strips the HTML tags of value, except the allowable tags,
// given as "<a><b>" or as an array of tag names.
func FilterStripTags(value, allowableTags interface{}) interface{} {
	s := String(value)
	if allowableTags == nil {
		return html.UnescapeString(stripAll.Sanitize(s))
	}
	var tags []string
	if isArray(allowableTags) {
		for _, v := range ToMap(allowableTags).values {
			tags = append(tags, strings.ToLower(strings.Trim(String(v), "</> ")))
		}
	} else {
		tags = strings.FieldsFunc(strings.ToLower(String(allowableTags)), func(r rune) bool {
			return r == '<' || r == '>' || r == '/' || unicode.IsSpace(r)
		})
	}
	if len(tags) == 0 {
		return html.UnescapeString(stripAll.Sanitize(s))
	}
	policy := bluemonday.NewPolicy()
	policy.AllowElements(tags...)
	return policy.Sanitize(s)
}

// FilterTrim trims the characters of characterMask from the side "both",
// "left" or "right" of value.
func FilterTrim(value, characterMask, side interface{}) interface{} {
	s := String(value)
	mask := whitespace
	if characterMask != nil {
		mask = String(characterMask)
	}
	switch String(side) {
	case "both":
		return strings.Trim(s, mask)
	case "left":
		return strings.TrimLeft(s, mask)
	case "right":
		return strings.TrimRight(s, mask)
	}
	panic(errorf(`Trimming side must be "left", "right" or "both".`))
}

// FilterURLEncode encodes url as a URL path segment. An array is encoded
// as a query string.
func FilterURLEncode(url interface{}) interface{} {
	var b strings.Builder
	if !isArray(url) {
		queryEscape(&b, String(url))
		return b.String()
	}
	m := ToMap(url)
	for i, k := range m.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		queryEscape(&b, String(k))
		b.WriteByte('=')
		queryEscape(&b, String(m.values[i]))
	}
	return b.String()
}
