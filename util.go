package goofx

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Character entities recognised in leaf text.
var entities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"quot": `"`,
	"apos": "'",
	"nbsp": "\u00a0",
}

// unescapeString returns s with character entities replaced. Unknown or unterminated entities
// are an error.
func unescapeString(s string) (string, error) {
	i := strings.IndexByte(s, '&')
	if i < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i >= 0 {
		b.WriteString(s[:i])
		s = s[i+1:]
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return "", parseError(-1, "unterminated entity &%s", excerpt(s))
		}
		r, err := entity(s[:end])
		if err != nil {
			return "", err
		}
		b.WriteString(r)
		s = s[end+1:]
		i = strings.IndexByte(s, '&')
	}
	b.WriteString(s)
	return b.String(), nil
}

// entity resolves a named or numeric entity, given without '&' and ';'.
func entity(name string) (string, error) {
	if r, ok := entities[name]; ok {
		return r, nil
	}
	if !strings.HasPrefix(name, "#") {
		return "", parseError(-1, "unknown entity &%s;", name)
	}
	digits, base := name[1:], 10
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		digits, base = digits[1:], 16
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return "", parseError(-1, "invalid character reference &%s;", name)
	}
	return string(rune(n)), nil
}
