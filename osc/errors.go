package osc

import (
	"errors"
	"fmt"
)

// Decode failures wrap exactly one of these, so callers can test with errors.Is.
var (
	ErrUnrecognizedPacket = errors.New("osc: unrecognized packet")
	ErrTruncated          = errors.New("osc: truncated input")
	ErrInvalidEncoding    = errors.New("osc: invalid encoding")
	ErrUnsupportedTypeTag = errors.New("osc: unsupported type tag")
	ErrLimitExceeded      = errors.New("osc: depth or size limit exceeded")
)

// Construction errors.
var (
	ErrInvalidAddress  = errors.New("osc: invalid address pattern")
	ErrInvalidArgument = errors.New("osc: invalid argument")
)

// DecodeError describes where and why decoding a packet failed. Offset is
// relative to the start of the top-level packet, also for nested elements.
type DecodeError struct {
	Offset int
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorReason maps an error to a short label, used for metrics and logs.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrUnrecognizedPacket):
		return "unrecognized_packet"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, ErrUnsupportedTypeTag):
		return "unsupported_type_tag"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	default:
		return "other"
	}
}
