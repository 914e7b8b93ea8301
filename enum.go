package goofx

import (
	"strconv"
	"strings"
)

// Enum is implemented by types decoded from a closed set of tokens.
//
// Variants lists the variant names in declaration order. Leaf text must equal the upper-cased
// name exactly. Enums with an integer kind decode to the index of the matching variant, enums
// with a string kind decode to the upper-cased name itself.
type Enum interface {
	Variants() []string
}

// matchVariant returns the index of the variant whose upper-cased name equals text.
func matchVariant(text string, variants []string) (int, bool) {
	for i, v := range variants {
		if text == strings.ToUpper(v) {
			return i, true
		}
	}
	return -1, false
}

func variantName(variants []string, i int) string {
	if i < 0 || i >= len(variants) {
		return strconv.Itoa(i)
	}
	return strings.ToUpper(variants[i])
}

func parseEnum[T ~int](text string, variants []string) (T, bool) {
	i, ok := matchVariant(text, variants)
	return T(i), ok
}
