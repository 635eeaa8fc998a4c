package protocol

import (
	"errors"
	"fmt"
)

// Framing errors.
var (
	// ErrShortBuffer is returned by the Bit Codec when fewer than 4 bytes
	// are given to a decode routine.
	ErrShortBuffer = errors.New("protocol: buffer shorter than 4 bytes")

	// ErrShortFrame is returned by Disassemble when a frame is too short
	// to hold its declared header.
	ErrShortFrame = errors.New("protocol: frame shorter than declared header")

	// ErrUnknownType is returned by Disassemble for a command/response
	// type outside the recognized set when no opaque pass-through applies.
	ErrUnknownType = errors.New("protocol: unknown frame type")

	// ErrTruncated is returned by the Chain Walker when a declared size
	// exceeds the bytes available or a next=1 flag has fewer than 4
	// follow-on bytes, by DecodeAdcQueue when the samples don't fill whole
	// sample widths, and by the PD prelude decoder when fewer than 12 bytes
	// are given. A truncated inner PD event record is not an error.
	ErrTruncated = errors.New("protocol: logical packet truncated")

	// ErrWrongSize is returned by a payload decoder whose body length
	// contract isn't met (e.g. ADC-44 not exactly 44 bytes).
	ErrWrongSize = errors.New("protocol: payload body has the wrong size")

	// ErrUnsupportedRate is returned by ParseSampleRate for an sps value
	// the device firmware does not define.
	ErrUnsupportedRate = errors.New("protocol: unsupported sample rate")

	// ErrUnexpectedAttribute is returned by a caller (session) when a
	// response's decoded chain doesn't contain the logical packet kind the
	// request was expected to produce.
	ErrUnexpectedAttribute = errors.New("protocol: response chain missing expected attribute")
)

// RejectError is returned when the device answers a request with a Reject
// response: a single byte reason code the device supplies, formatted for
// humans but preserved verbatim for programmatic dispatch.
type RejectError struct {
	Code byte
}

func (e RejectError) Error() string {
	return fmt.Sprintf("protocol: request rejected, reason code 0x%02X", e.Code)
}
