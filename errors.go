package zipcore

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ErrorKind is the closed set of error kinds the core can report
// (spec.md §7). Errors are always values — the core never panics on
// malformed input.
type ErrorKind int

const (
	// MissingEOCD: no EOCD signature found in the tail window.
	MissingEOCD ErrorKind = iota + 1
	// FalseEOCD: candidate EOCD signature found but its geometry is
	// inconsistent; Error.Offset carries the candidate offset so callers
	// may retry LocateEOCD with a smaller end-offset.
	FalseEOCD
	// InvalidSignature: an unexpected 4-byte marker where a known one was
	// required.
	InvalidSignature
	// InvalidField: a numeric field is out of its legal range.
	InvalidField
	// TruncatedSource: a record extends past the end of the source.
	TruncatedSource
	// BufferTooSmall: the caller's scratch buffer cannot hold a single CD
	// or local-header record; Error.Required reports the needed size.
	BufferTooSmall
	// InvalidZip64Extra: the ZIP64 extra field payload is too short for
	// the fields it was expected to carry.
	InvalidZip64Extra
	// InvalidEncoding: a path or comment is not valid UTF-8.
	InvalidEncoding
	// CRCMismatch: the verifying reader's computed CRC-32 does not match
	// the CD-declared value.
	CRCMismatch
	// SizeMismatch: the verifying reader's byte count does not match the
	// CD-declared uncompressed size.
	SizeMismatch
	// IOError: the underlying source or sink failed; Err wraps it.
	IOError
)

func (k ErrorKind) String() string {
	switch k {
	case MissingEOCD:
		return "MissingEOCD"
	case FalseEOCD:
		return "FalseEOCD"
	case InvalidSignature:
		return "InvalidSignature"
	case InvalidField:
		return "InvalidField"
	case TruncatedSource:
		return "TruncatedSource"
	case BufferTooSmall:
		return "BufferTooSmall"
	case InvalidZip64Extra:
		return "InvalidZip64Extra"
	case InvalidEncoding:
		return "InvalidEncoding"
	case CRCMismatch:
		return "CRCMismatch"
	case SizeMismatch:
		return "SizeMismatch"
	case IOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this package. All fields
// besides Kind and Msg are zero unless the Kind documents otherwise.
type Error struct {
	Kind ErrorKind
	Msg  string

	// Offset is the false-EOCD candidate offset, valid when Kind == FalseEOCD.
	Offset int64
	// Required is the scratch-buffer size needed, valid when Kind == BufferTooSmall.
	Required int
	// Err is the wrapped platform/transport error, valid when Kind == IOError.
	Err error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("zipcore: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func errMissingEOCD() *Error {
	return &Error{Kind: MissingEOCD, Msg: "EOCD signature not found in tail window"}
}

func errFalseEOCD(offset int64) *Error {
	return &Error{
		Kind:   FalseEOCD,
		Msg:    fmt.Sprintf("candidate EOCD at offset %d has inconsistent comment length", offset),
		Offset: offset,
	}
}

func errInvalidSignature(want, got uint32) *Error {
	return &Error{Kind: InvalidSignature, Msg: fmt.Sprintf("want signature %#08x, got %#08x", want, got)}
}

func errInvalidField(msg string) *Error {
	return &Error{Kind: InvalidField, Msg: msg}
}

func errTruncated() *Error {
	return &Error{Kind: TruncatedSource, Msg: "record extends past end of source"}
}

func errBufferTooSmall(required int) *Error {
	return &Error{
		Kind:     BufferTooSmall,
		Msg:      fmt.Sprintf("scratch buffer too small, need at least %s", humanize.Bytes(uint64(required))),
		Required: required,
	}
}

func errInvalidZip64Extra(msg string) *Error {
	return &Error{Kind: InvalidZip64Extra, Msg: msg}
}

func errInvalidEncoding() *Error {
	return &Error{Kind: InvalidEncoding, Msg: "not valid UTF-8"}
}

func errCRCMismatch(want, got uint32) *Error {
	return &Error{Kind: CRCMismatch, Msg: fmt.Sprintf("want CRC-32 %#08x, got %#08x", want, got)}
}

func errSizeMismatch(want, got uint64) *Error {
	return &Error{
		Kind: SizeMismatch,
		Msg: fmt.Sprintf("want %s (%d bytes), got %s (%d bytes)",
			humanize.Bytes(want), want, humanize.Bytes(got), got),
	}
}

func errIO(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: IOError, Msg: err.Error(), Err: err}
}
