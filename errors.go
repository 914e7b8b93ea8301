package goofx

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of these, so callers
// classify failures with errors.Is.
var (
	ErrDeserialize           = errors.New("deserialization failed")
	ErrEscapesInEnumVariant  = errors.New("escape sequences in enum variant names are not supported")
	ErrInvalidBorrowedString = errors.New("expected borrowed string is invalid due to escape sequences in the input")
	ErrInvalidTupleLength    = errors.New("sequence ended but more tuple elements were expected")
	ErrTrailingInput         = errors.New("trailing input remaining")
	ErrParse                 = errors.New("parse error")
	ErrParseIncomplete       = errors.New("parser expected more data")
	ErrUnsupportedDataType   = errors.New("unsupported data type")
	ErrUnknown               = errors.New("unknown error")
)

// Error is a decode failure of a given Kind.
type Error struct {
	Kind   error  // One of the Err* kinds above.
	Msg    string // Optional diagnostic.
	Offset int    // Byte offset into the input, -1 when unknown.
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("error - %s", e.Kind)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("error - %s: %s (offset %d)", e.Kind, e.Msg, e.Offset)
	}
	return fmt.Sprintf("error - %s: %s", e.Kind, e.Msg)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, offset int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Offset: offset}
}

func parseError(offset int, format string, args ...interface{}) *Error {
	return newError(ErrParse, offset, format, args...)
}

func incomplete(offset int, format string, args ...interface{}) *Error {
	return newError(ErrParseIncomplete, offset, format, args...)
}

func deserializeError(format string, args ...interface{}) *Error {
	return newError(ErrDeserialize, -1, format, args...)
}

// asError maps any error into the closed set of kinds.
func asError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: ErrUnknown, Msg: err.Error(), Offset: -1}
}
