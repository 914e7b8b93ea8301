package goofx

import (
	"strconv"
	"strings"
	"time"
)

// Grammar bounds. Time fields accept 60 here and are checked against the calendar afterwards.
const (
	maxTimeField = 60
	minOffset    = -12
	maxOffset    = 14
)

// ParseDateTime parses an OFX date-time value of the form
//
//	YYYYMMDD[HHMMSS[.XXX][[gmt offset[:tz name]]]]
//
// and returns it as an instant in UTC together with the unconsumed remainder of s. Missing time
// fields default to zero and a missing offset means UTC. The zone name is ignored.
func ParseDateTime(s string) (time.Time, string, error) {
	var (
		c                                       = cursor{src: s}.skipSpace()
		year, month, day                        int
		hour, minute, second, milli, offsetHour int
		err                                     error
	)
	if c, year, err = fixedDigits(c, 4, "year"); err != nil {
		return time.Time{}, s, err
	}
	if c, month, err = fixedDigits(c, 2, "month"); err != nil {
		return time.Time{}, s, err
	}
	if month < 1 || month > 12 {
		return time.Time{}, s, parseError(c.pos-2, "month %02d out of range", month)
	}
	if c, day, err = fixedDigits(c, 2, "day"); err != nil {
		return time.Time{}, s, err
	}
	if day < 1 || day > 31 {
		return time.Time{}, s, parseError(c.pos-2, "day %02d out of range", day)
	}

	if leadingDigits(c) >= 6 {
		for _, f := range []struct {
			name string
			dst  *int
		}{{"hour", &hour}, {"minute", &minute}, {"second", &second}} {
			c, *f.dst, _ = fixedDigits(c, 2, f.name)
			if *f.dst > maxTimeField {
				return time.Time{}, s, parseError(c.pos-2, "%s %02d out of range", f.name, *f.dst)
			}
		}
		if c.peek() == '.' && leadingDigits(c.advance(1)) >= 3 {
			c, milli, _ = fixedDigits(c.advance(1), 3, "millisecond")
		}
		if c, offsetHour, err = gmtOffset(c); err != nil {
			return time.Time{}, s, err
		}
	}

	t, err := calendarTime(year, month, day, hour, minute, second, milli, offsetHour)
	if err != nil {
		return time.Time{}, s, err
	}
	return t, c.rest(), nil
}

// fixedDigits reads exactly n decimal digits.
func fixedDigits(c cursor, n int, field string) (cursor, int, error) {
	next, digits, ok := c.take(n)
	if !ok {
		return c, 0, incomplete(c.pos, "expected %d digit %s", n, field)
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return c, 0, parseError(c.pos, "invalid %s %q", field, digits)
		}
	}
	v, _ := strconv.Atoi(digits)
	return next, v, nil
}

func leadingDigits(c cursor) int {
	n := 0
	for n < len(c.rest()) && isDigit(c.rest()[n]) {
		n++
	}
	return n
}

// gmtOffset parses an optional bracketed offset such as "[-5:EST]" or "[ +2 ]".
func gmtOffset(c cursor) (cursor, int, error) {
	b := c.skipSpace()
	if b.peek() != '[' {
		return c, 0, nil
	}
	b = b.advance(1).skipSpace()
	sign := 1
	switch b.peek() {
	case '-':
		sign = -1
		b = b.advance(1).skipSpace()
	case '+':
		b = b.advance(1).skipSpace()
	}
	n := leadingDigits(b)
	if n == 0 {
		if b.eof() {
			return c, 0, incomplete(b.pos, "expected gmt offset")
		}
		return c, 0, parseError(b.pos, "invalid gmt offset %q", b.rest())
	}
	hours, err := strconv.Atoi(b.rest()[:n])
	if err != nil {
		return c, 0, parseError(b.pos, "invalid gmt offset %q", b.rest()[:n])
	}
	hours *= sign
	if hours < minOffset || hours > maxOffset {
		return c, 0, parseError(b.pos, "gmt offset %d out of range", hours)
	}
	b = b.advance(n).skipSpace()
	if b.peek() == ':' {
		end := strings.IndexByte(b.rest(), ']')
		if end < 0 {
			return c, 0, incomplete(b.pos, "unterminated gmt offset")
		}
		b = b.advance(end)
	}
	switch {
	case b.eof():
		return c, 0, incomplete(b.pos, "unterminated gmt offset")
	case b.peek() != ']':
		return c, 0, parseError(b.pos, "expected ']' in gmt offset, found %q", b.peek())
	}
	return b.advance(1), hours, nil
}

// calendarTime validates the fields against the calendar and folds the offset into the instant.
func calendarTime(year, month, day, hour, minute, second, milli, offsetHour int) (time.Time, error) {
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, parseError(-1, "invalid time of day %02d:%02d:%02d", hour, minute, second)
	}
	if last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		return time.Time{}, parseError(-1, "invalid date %04d-%02d-%02d", year, month, day)
	}
	zone := time.FixedZone("", offsetHour*60*60)
	return time.Date(year, time.Month(month), day, hour, minute, second, milli*int(time.Millisecond), zone).UTC(), nil
}
