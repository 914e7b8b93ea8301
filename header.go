package goofx

import (
	"fmt"
	"strconv"
	"strings"
)

// ContentType is the DATA header value.
type ContentType int

const (
	ContentTypeOFXSGML ContentType = iota
)

var contentTypeVariants = []string{"OFXSGML"}

func (ContentType) Variants() []string { return contentTypeVariants }
func (t ContentType) String() string   { return variantName(contentTypeVariants, int(t)) }

// MarshalText renders the header token.
func (t ContentType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Security is the SECURITY header value.
type Security int

const (
	SecurityNone Security = iota
	SecurityType1
)

var securityVariants = []string{"NONE", "TYPE1"}

func (Security) Variants() []string { return securityVariants }
func (s Security) String() string   { return variantName(securityVariants, int(s)) }

// MarshalText renders the header token.
func (s Security) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Encoding is the ENCODING header value.
type Encoding int

const (
	EncodingUSASCII Encoding = iota
	EncodingUTF8
	EncodingUnicode
)

var encodingVariants = []string{"USASCII", "UTF-8", "UNICODE"}

func (Encoding) Variants() []string { return encodingVariants }
func (e Encoding) String() string   { return variantName(encodingVariants, int(e)) }

// MarshalText renders the header token.
func (e Encoding) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// Charset is the CHARSET header value.
type Charset int

const (
	CharsetISO88591 Charset = iota
	CharsetWindowsLatin1
	CharsetNone
)

var charsetVariants = []string{"ISO-8859-1", "1252", "NONE"}

func (Charset) Variants() []string { return charsetVariants }
func (c Charset) String() string   { return variantName(charsetVariants, int(c)) }

// MarshalText renders the header token.
func (c Charset) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Header is the key:value preamble of an OFX 1.x document.
type Header struct {
	HeaderVersion int         `json:"ofxheader" yaml:"ofxheader"`
	Data          ContentType `json:"data" yaml:"data"`
	Version       int         `json:"version" yaml:"version"`
	Security      Security    `json:"security" yaml:"security"`
	Encoding      Encoding    `json:"encoding" yaml:"encoding"`
	Charset       Charset     `json:"charset" yaml:"charset"`
	Compression   string      `json:"compression" yaml:"compression"`
	OldFileUID    string      `json:"oldfileuid" yaml:"oldfileuid"`
	NewFileUID    string      `json:"newfileuid" yaml:"newfileuid"`
}

// headerField is one line of the header, in the order the format mandates.
type headerField struct {
	key   string
	set   func(h *Header, value string) error
	value func(h Header) string
}

var headerFields = []headerField{
	{"OFXHEADER", func(h *Header, v string) (err error) {
		h.HeaderVersion, err = parseHeaderInt(v, 100, 100)
		return err
	}, func(h Header) string { return strconv.Itoa(h.HeaderVersion) }},
	{"DATA", func(h *Header, v string) (err error) {
		h.Data, err = parseHeaderEnum[ContentType](v, contentTypeVariants)
		return err
	}, func(h Header) string { return h.Data.String() }},
	{"VERSION", func(h *Header, v string) (err error) {
		h.Version, err = parseHeaderInt(v, 100, 199)
		return err
	}, func(h Header) string { return strconv.Itoa(h.Version) }},
	{"SECURITY", func(h *Header, v string) (err error) {
		h.Security, err = parseHeaderEnum[Security](v, securityVariants)
		return err
	}, func(h Header) string { return h.Security.String() }},
	{"ENCODING", func(h *Header, v string) (err error) {
		h.Encoding, err = parseHeaderEnum[Encoding](v, encodingVariants)
		return err
	}, func(h Header) string { return h.Encoding.String() }},
	{"CHARSET", func(h *Header, v string) (err error) {
		h.Charset, err = parseHeaderEnum[Charset](v, charsetVariants)
		return err
	}, func(h Header) string { return h.Charset.String() }},
	{"COMPRESSION", func(h *Header, v string) error {
		h.Compression = v
		return nil
	}, func(h Header) string { return h.Compression }},
	{"OLDFILEUID", func(h *Header, v string) error {
		h.OldFileUID = v
		return nil
	}, func(h Header) string { return h.OldFileUID }},
	{"NEWFILEUID", func(h *Header, v string) error {
		h.NewFileUID = v
		return nil
	}, func(h Header) string { return h.NewFileUID }},
}

func parseHeaderInt(v string, min, max int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < min || n > max {
		return 0, fmt.Errorf("out of range [%d, %d]", min, max)
	}
	return n, nil
}

func parseHeaderEnum[T ~int](v string, variants []string) (T, error) {
	t, ok := parseEnum[T](v, variants)
	if !ok {
		return t, fmt.Errorf("unknown token, expected one of %s", strings.Join(variants, ", "))
	}
	return t, nil
}

// ParseHeader parses the header block at the start of text. It returns the header and the byte
// offset of the markup body that follows the blank line terminating the header.
func ParseHeader(text string) (Header, int, error) {
	var h Header
	c := cursor{src: text}.skipSpace()
	for _, f := range headerFields {
		next, line, err := headerLine(c, f.key)
		if err != nil {
			return Header{}, 0, err
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return Header{}, 0, parseError(c.pos, "malformed header line %q, expected %s:VALUE", line, f.key)
		}
		if key != f.key {
			return Header{}, 0, parseError(c.pos, "expected header %s, found %q", f.key, key)
		}
		if err := f.set(&h, strings.TrimSpace(value)); err != nil {
			return Header{}, 0, parseError(c.pos, "invalid %s %q: %s", f.key, strings.TrimSpace(value), err)
		}
		c = next
	}
	next, line, err := headerLine(c, "blank line")
	if err != nil {
		return Header{}, 0, err
	}
	if strings.TrimSpace(line) != "" {
		return Header{}, 0, parseError(c.pos, "expected blank line after header, found %q", line)
	}
	return h, next.pos, nil
}

// headerLine reads one newline-terminated line, without its line ending.
func headerLine(c cursor, want string) (cursor, string, error) {
	i := strings.IndexByte(c.rest(), '\n')
	if i < 0 {
		return c, "", incomplete(c.pos, "input ended before %s", want)
	}
	line := strings.TrimSuffix(c.rest()[:i], "\r")
	return c.advance(i + 1), line, nil
}

// String renders the header block, including the blank line terminator.
func (h Header) String() string {
	var b strings.Builder
	for _, f := range headerFields {
		b.WriteString(f.key)
		b.WriteByte(':')
		b.WriteString(f.value(h))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}
