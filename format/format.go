/*
Package format defines the errors shared by every asset decoder.

Decoders wrap one of these sentinels so that callers can classify a failure
with errors.Is regardless of which layer detected it.
*/
package format

import "errors"

var (
	// ErrBufferTooSmall is returned when a declared uncompressed size exceeds
	// the capacity of the destination buffer. Nothing is written.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrCorruptStream is returned when compressed data is truncated or its
	// length accounting does not add up.
	ErrCorruptStream = errors.New("corrupt stream")

	// ErrMalformedTable is returned when a table or record does not hold
	// together, such as an index out of range.
	ErrMalformedTable = errors.New("malformed table")

	// ErrUnsupportedVariant is returned for inputs that are not recognised.
	ErrUnsupportedVariant = errors.New("unsupported variant")
)
