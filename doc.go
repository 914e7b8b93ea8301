/*
Package goofx is an OFX library that decodes OFX 1.x (SGML) documents into Go values.

OFX 1.x documents frequently omit the close tags of leaf elements. goofx parses the markup into
a tree of Elements, resolving each omitted close tag with one token of lookahead, and then
decodes the tree into any Go type:

	var rs goofx.Response
	header, err := goofx.Unmarshal(text, &rs)

Struct fields match child tags by their upper-cased name or by an `ofx:"NAME"` tag. Pointer
fields and fields tagged `ofx:",optional"` may be absent. A map field tagged
`ofx:",flatten"` collects leaves that match no other field. Fields of type RawString borrow
their text from the input instead of copying it. Date-times decode into time.Time in UTC.

All errors wrap one of the Err* kinds and can be classified with errors.Is.
*/
package goofx
