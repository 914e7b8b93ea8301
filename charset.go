package goofx

import (
	"github.com/golang/glog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Transcode returns data as UTF-8 text, decoding it with the character set named by its header.
// Documents declaring a UTF-8 or UNICODE encoding, or no charset, are returned unchanged.
func Transcode(data []byte) (string, error) {
	h, _, err := ParseHeader(string(data))
	if err != nil {
		return "", err
	}
	enc := charsetEncoding(h)
	if enc == nil {
		return string(data), nil
	}
	glog.V(2).Infof("transcoding %s/%s document to UTF-8", h.Encoding, h.Charset)
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", newError(ErrParse, -1, "invalid %s text: %v", h.Charset, err)
	}
	return string(out), nil
}

func charsetEncoding(h Header) encoding.Encoding {
	if h.Encoding != EncodingUSASCII {
		return nil
	}
	switch h.Charset {
	case CharsetWindowsLatin1:
		return charmap.Windows1252
	case CharsetISO88591:
		return charmap.ISO8859_1
	}
	return nil
}
