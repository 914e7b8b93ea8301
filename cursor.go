package goofx

import "strings"

// cursor is a position in an input string. Parsing functions take a cursor by value and return
// the advanced cursor, so no parser holds mutable state of its own.
type cursor struct {
	src string
	pos int
}

func (c cursor) eof() bool {
	return c.pos >= len(c.src)
}

// peek returns the byte at the cursor, or 0 at end of input.
func (c cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func (c cursor) rest() string {
	return c.src[c.pos:]
}

func (c cursor) advance(n int) cursor {
	c.pos += n
	if c.pos > len(c.src) {
		c.pos = len(c.src)
	}
	return c
}

func (c cursor) hasPrefix(s string) bool {
	return strings.HasPrefix(c.rest(), s)
}

func (c cursor) skipSpace() cursor {
	for !c.eof() && isSpace(c.src[c.pos]) {
		c.pos++
	}
	return c
}

// take returns the next n bytes, or false if fewer remain.
func (c cursor) take(n int) (cursor, string, bool) {
	if len(c.src)-c.pos < n {
		return c, "", false
	}
	return c.advance(n), c.src[c.pos : c.pos+n], true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
