package goofx

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"
)

// Element is a node of an OFX document body. A leaf carries Text, an aggregate carries
// Children; never both. Name and Text are slices of the parsed input, not copies.
type Element struct {
	Name     string
	Text     string
	Children []*Element
	Offset   int // Byte offset of the open tag.
}

// IsLeaf returns true if the element has no child elements.
func (e *Element) IsLeaf() bool {
	return len(e.Children) == 0
}

// HasEscapes returns true if the leaf text contains character entities.
func (e *Element) HasEscapes() bool {
	return strings.IndexByte(e.Text, '&') >= 0
}

// Child returns the first child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Dump writes an indented outline of the element tree to w.
func (e *Element) Dump(w io.Writer) error {
	return e.dump(w, 0)
}

func (e *Element) dump(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	if e.IsLeaf() {
		_, err := fmt.Fprintf(w, "%s%s: %s\n", indent, e.Name, e.Text)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, e.Name); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := c.dump(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ParseElement parses an OFX markup body holding exactly one root element.
//
// Leaf elements may omit their close tag. Right after an open tag, another open tag means the
// element is an aggregate and must be closed explicitly; anything else is leaf text running up
// to the next '<'. That '<' either closes the leaf, or belongs to a sibling or to the parent.
func ParseElement(body string) (*Element, error) {
	return parseBody(cursor{src: body})
}

// parseBody parses the root element at c and rejects anything but whitespace after it.
func parseBody(c cursor) (*Element, error) {
	c, root, err := parseElement(c.skipSpace(), newTagStack())
	if err != nil {
		return nil, err
	}
	if c = c.skipSpace(); !c.eof() {
		return nil, newError(ErrTrailingInput, c.pos, "unexpected %q after </%s>", excerpt(c.rest()), root.Name)
	}
	return root, nil
}

// parseElement parses one element starting at an open tag. open holds the enclosing aggregates.
func parseElement(c cursor, open *tagStack) (cursor, *Element, error) {
	start := c.pos
	c, name, err := openTag(c)
	if err != nil {
		return c, nil, err
	}
	el := &Element{Name: name, Offset: start}

	if content := c.skipSpace(); isOpenTag(content) {
		if glog.V(3) {
			glog.Infof("<%s> is aggregate at depth %d", name, open.Size())
		}
		open.Push(name)
		c = content
		for {
			c = c.skipSpace()
			switch {
			case c.eof():
				return c, nil, incomplete(c.pos, "expected </%s>, open: %v", name, open.Dump())
			case c.hasPrefix("</"):
				next, closing, err := closeTag(c)
				if err != nil {
					return c, nil, err
				}
				if closing != name {
					return c, nil, parseError(c.pos, "unexpected </%s>, expected </%s>", closing, name)
				}
				open.Pop()
				return next, el, nil
			default:
				var child *Element
				if c, child, err = parseElement(c, open); err != nil {
					return c, nil, err
				}
				el.Children = append(el.Children, child)
			}
		}
	}

	end := strings.IndexByte(c.rest(), '<')
	if end < 0 {
		end = len(c.rest())
	}
	el.Text = strings.TrimSpace(c.rest()[:end])
	c = c.advance(end)
	if glog.V(3) {
		glog.Infof("<%s> is leaf (%s)", name, excerpt(el.Text))
	}
	if !c.hasPrefix("</") {
		if !c.eof() && !isOpenTag(c) {
			return c, nil, parseError(c.pos, "invalid tag %q in <%s>", excerpt(c.rest()), name)
		}
		return c, el, nil
	}
	next, closing, err := closeTag(c)
	if err != nil {
		return c, nil, err
	}
	switch {
	case closing == name:
		return next, el, nil
	case open.Contains(closing):
		// The leaf omitted its close tag; leave the ancestor's for the caller.
		return c, el, nil
	default:
		return c, nil, parseError(c.pos, "unexpected </%s> after <%s>", closing, name)
	}
}

func openTag(c cursor) (cursor, string, error) {
	if c.eof() {
		return c, "", incomplete(c.pos, "expected open tag")
	}
	if c.peek() != '<' {
		return c, "", parseError(c.pos, "expected '<', found %q", excerpt(c.rest()))
	}
	return tagEnd(c, c.advance(1))
}

func closeTag(c cursor) (cursor, string, error) {
	return tagEnd(c, c.advance(2))
}

// tagEnd reads the tag name at c and the closing '>'. start is the position of the tag.
func tagEnd(start, c cursor) (cursor, string, error) {
	from := c.pos
	for !c.eof() && isNameByte(c.peek()) {
		c = c.advance(1)
	}
	name := c.src[from:c.pos]
	switch {
	case c.eof():
		return start, "", incomplete(c.pos, "unterminated tag")
	case name == "":
		return start, "", parseError(start.pos, "invalid tag %q", excerpt(start.rest()))
	case c.peek() != '>':
		return start, "", parseError(start.pos, "malformed tag <%s", name)
	}
	return c.advance(1), name, nil
}

func isOpenTag(c cursor) bool {
	r := c.rest()
	return len(r) > 1 && r[0] == '<' && isNameByte(r[1])
}

func isNameByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || isDigit(b) || b == '.' || b == '_' || b == '-'
}

// excerpt shortens s for error messages.
func excerpt(s string) string {
	const max = 16
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
