// Copyright 2020 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"strconv"
	"strings"
	"time"
)

// Time is a date and time value returned by the date function. Its methods
// can be called from templates, for example {{ date().year }} and
// {{ date().format('Y-m-d') }}.
type Time struct {
	t time.Time
}

// NewTime returns a Time value at the time of t.
func NewTime(t time.Time) Time {
	return Time{t}
}

// Add returns the time t+d.
func (t Time) Add(d time.Duration) Time {
	return Time{t.t.Add(d)}
}

// AddDate returns the time corresponding to adding the given number of
// years, months and days to t.
func (t Time) AddDate(years, months, days int) Time {
	return Time{t.t.AddDate(years, months, days)}
}

// After reports whether the time instant t is after u.
func (t Time) After(u Time) bool { return t.t.After(u.t) }

// Before reports whether the time instant t is before u.
func (t Time) Before(u Time) bool { return t.t.Before(u.t) }

// Equal reports whether t and u represent the same time instant.
func (t Time) Equal(u Time) bool { return t.t.Equal(u.t) }

// Format formats t with a date format such as "Y-m-d H:i:s".
func (t Time) Format(format string) string {
	return formatDate(t.t, format)
}

// IsZero reports whether t represents the zero time instant.
func (t Time) IsZero() bool { return t.t.IsZero() }

func (t Time) Year() int       { return t.t.Year() }
func (t Time) Month() int      { return int(t.t.Month()) }
func (t Time) Day() int        { return t.t.Day() }
func (t Time) Hour() int       { return t.t.Hour() }
func (t Time) Minute() int     { return t.t.Minute() }
func (t Time) Second() int     { return t.t.Second() }
func (t Time) Nanosecond() int { return t.t.Nanosecond() }
func (t Time) Weekday() int    { return int(t.t.Weekday()) }
func (t Time) YearDay() int    { return t.t.YearDay() }

// Timestamp returns t as a Unix time in seconds.
func (t Time) Timestamp() int64 { return t.t.Unix() }

// Timezone returns the name of the location of t.
func (t Time) Timezone() string { return t.t.Location().String() }

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration { return t.t.Sub(u.t) }

// UTC returns t with the location set to UTC.
func (t Time) UTC() Time { return Time{t.t.UTC()} }

// Time returns t as a time.Time value.
func (t Time) Time() time.Time { return t.t }

// String returns t formatted as "Y-m-d H:i:s".
func (t Time) String() string {
	return formatDate(t.t, "Y-m-d H:i:s")
}

// MarshalJSON returns t in the RFC 3339 format.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.t.Format(time.RFC3339))), nil
}

// dateLayouts are the layouts of the date strings accepted by toTime.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"January 2, 2006 15:04",
	"January 2, 2006",
	"2 January 2006",
}

// timezone returns the location of the timezone argument tz. If tz is nil
// it returns the default location; if it is false it returns nil, to keep
// the location of the date.
func (env *Env) timezone(tz interface{}) *time.Location {
	switch tz := tz.(type) {
	case nil:
		return env.location
	case bool:
		if !tz {
			return nil
		}
		return env.location
	case *time.Location:
		return tz
	}
	name := String(tz)
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(errorf("Unknown or bad timezone (%s).", name))
	}
	return loc
}

// toTime converts v to a time. v can be a date value, a Unix timestamp, a
// date string or null for the current time.
func (env *Env) toTime(v, tz interface{}) time.Time {
	var t time.Time
	loc := env.timezone(tz)
	switch d := v.(type) {
	case nil:
		t = time.Now()
	case Time:
		t = d.t
	case time.Time:
		t = d
	case *time.Time:
		t = *d
	case int:
		t = time.Unix(int64(d), 0)
	case int64:
		t = time.Unix(d, 0)
	case float64:
		sec := int64(d)
		t = time.Unix(sec, int64((d-float64(sec))*1e9))
	default:
		s := strings.TrimSpace(String(v))
		switch {
		case s == "" || strings.EqualFold(s, "now"):
			t = time.Now()
		case strings.EqualFold(s, "today"):
			n := time.Now().In(orLocal(loc))
			t = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
		default:
			if n, ok := numericString(s); ok {
				return env.toTime(n, tz)
			}
			parsed := false
			for _, layout := range dateLayouts {
				if p, err := time.ParseInLocation(layout, s, orLocal(loc)); err == nil {
					t, parsed = p, true
					break
				}
			}
			if !parsed {
				panic(errorf("Failed to parse time string (%s).", s))
			}
		}
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// FilterDate formats date with format. If format is nil, the default date
// format is used. A duration is formatted with the duration format "%d days"
// by default.
func FilterDate(env *Env, date, format, timezone interface{}) interface{} {
	if d, ok := date.(time.Duration); ok {
		f := "%d days"
		if format != nil {
			f = String(format)
		}
		return formatDuration(d, f)
	}
	f := env.dateFormat
	if format != nil {
		f = String(format)
	}
	return formatDate(env.toTime(date, timezone), f)
}

// FunctionDate returns date as a date value.
func FunctionDate(env *Env, date, timezone interface{}) interface{} {
	return Time{env.toTime(date, timezone)}
}

// formatDate formats t with the date format. Each letter of format is
// replaced by a part of the date; a backslash escapes the next character.
func formatDate(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch c {
		case 'd':
			pad2(&b, t.Day())
		case 'D':
			b.WriteString(t.Weekday().String()[:3])
		case 'j':
			b.WriteString(strconv.Itoa(t.Day()))
		case 'l':
			b.WriteString(t.Weekday().String())
		case 'N':
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			b.WriteString(strconv.Itoa(wd))
		case 'S':
			b.WriteString(ordinalSuffix(t.Day()))
		case 'w':
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'z':
			b.WriteString(strconv.Itoa(t.YearDay() - 1))
		case 'W':
			_, w := t.ISOWeek()
			pad2(&b, w)
		case 'F':
			b.WriteString(t.Month().String())
		case 'm':
			pad2(&b, int(t.Month()))
		case 'M':
			b.WriteString(t.Month().String()[:3])
		case 'n':
			b.WriteString(strconv.Itoa(int(t.Month())))
		case 't':
			b.WriteString(strconv.Itoa(time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()))
		case 'L':
			if y := t.Year(); y%4 == 0 && (y%100 != 0 || y%400 == 0) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		case 'o':
			y, _ := t.ISOWeek()
			b.WriteString(strconv.Itoa(y))
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			pad2(&b, t.Year()%100)
		case 'a':
			b.WriteString(t.Format("pm"))
		case 'A':
			b.WriteString(t.Format("PM"))
		case 'g':
			b.WriteString(t.Format("3"))
		case 'G':
			b.WriteString(strconv.Itoa(t.Hour()))
		case 'h':
			b.WriteString(t.Format("03"))
		case 'H':
			pad2(&b, t.Hour())
		case 'i':
			pad2(&b, t.Minute())
		case 's':
			pad2(&b, t.Second())
		case 'u':
			b.WriteString(leftPad(t.Nanosecond()/1000, 6))
		case 'v':
			b.WriteString(leftPad(t.Nanosecond()/1000000, 3))
		case 'e':
			b.WriteString(t.Location().String())
		case 'I':
			if t.IsDST() {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		case 'O':
			b.WriteString(t.Format("-0700"))
		case 'P':
			b.WriteString(t.Format("-07:00"))
		case 'p':
			if _, off := t.Zone(); off == 0 {
				b.WriteByte('Z')
			} else {
				b.WriteString(t.Format("-07:00"))
			}
		case 'T':
			b.WriteString(t.Format("MST"))
		case 'Z':
			_, off := t.Zone()
			b.WriteString(strconv.Itoa(off))
		case 'c':
			b.WriteString(t.Format("2006-01-02T15:04:05-07:00"))
		case 'r':
			b.WriteString(t.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
		case 'U':
			b.WriteString(strconv.FormatInt(t.Unix(), 10))
		case '\\':
			if i+1 < len(format) {
				i++
				b.WriteByte(format[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func pad2(b *strings.Builder, n int) {
	if n < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(n))
}

func leftPad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// formatDuration formats d with a duration format: %d days, %h hours,
// %i minutes, %s seconds, %a total days, %R sign and %% a percent.
func formatDuration(d time.Duration, format string) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	days := int(d / (24 * time.Hour))
	rest := d % (24 * time.Hour)
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'd', 'a':
			b.WriteString(strconv.Itoa(days))
		case 'h', 'H':
			b.WriteString(strconv.Itoa(int(rest / time.Hour)))
		case 'i', 'I':
			b.WriteString(strconv.Itoa(int(rest % time.Hour / time.Minute)))
		case 's', 'S':
			b.WriteString(strconv.Itoa(int(rest % time.Minute / time.Second)))
		case 'R':
			b.WriteString(sign)
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
