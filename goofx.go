package goofx

import (
	"io"

	"github.com/golang/glog"
)

// Document is a parsed OFX response document.
type Document struct {
	Header Header   `json:"header" yaml:"header"`
	OFX    Response `json:"ofx" yaml:"ofx"`
}

// Unmarshal decodes the OFX document text into the value pointed to by v and returns the
// document header.
//
// Every child of the root element must be consumed by v: a root child that is never decoded,
// read with Decoder.Text or Decoder.Borrow, or returned by an Aggregate cursor is
// ErrTrailingInput. Strings decoded as RawString share memory with text.
func Unmarshal(text string, v interface{}) (Header, error) {
	h, body, err := ParseHeader(text)
	if err != nil {
		return Header{}, err
	}
	root, err := parseBody(cursor{src: text, pos: body})
	if err != nil {
		return Header{}, err
	}
	d := newRootDecoder(root)
	if err := d.Decode(root, v); err != nil {
		return Header{}, asError(err)
	}
	if next := d.unconsumed(); next != nil {
		return Header{}, newError(ErrTrailingInput, next.Offset, "%s: unexpected <%s>", root.Name, next.Name)
	}
	glog.V(2).Infof("decoded OFX %d document into %T", h.Version, v)
	return h, nil
}

// Parse parses the given OFX document text into a Document.
func Parse(text string) (*Document, error) {
	document := &Document{}
	h, err := Unmarshal(text, &document.OFX)
	if err != nil {
		return nil, err
	}
	document.Header = h
	return document, nil
}

// NewDocument reads an OFX document from reader, converts it to UTF-8 according to its CHARSET
// header and parses it into a Document.
func NewDocument(reader io.Reader) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, asError(err)
	}
	text, err := Transcode(data)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

// Transactions returns all transactions from the OFX document.
// These may belong to different accounts but we're assuming that by being placed along with an
// account metadata file, all txns are meant to be imported into the same account specified by the
// account metadata.
func (d *Document) Transactions() []Transaction {
	txns := make([]Transaction, 0)
	for _, b := range d.OFX.Bank {
		for _, trs := range b.Statements {
			if trs.Statement == nil || trs.Statement.TransactionList == nil {
				continue
			}
			txns = append(txns, trs.Statement.TransactionList.Transactions...)
		}
	}
	return txns
}
