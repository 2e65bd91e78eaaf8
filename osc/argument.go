package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Argument is a single OSC argument. The set of implementations is closed:
// String, Int32, Float32, Blob, Timetag, Int64, Float64, Bool and Nil.
type Argument interface {
	// TypeTag returns the character announcing this argument in the type tag
	// string.
	TypeTag() TypeTag

	appendArgument(b []byte) []byte
}

type (
	// String is an OSC-string argument. It must be valid UTF-8 without NUL bytes.
	String string
	// Int32 is a 32-bit big-endian two's complement integer.
	Int32 int32
	// Float32 is a 32-bit big-endian IEEE 754 number.
	Float32 float32
	// Blob is an arbitrary byte sequence, sent with a length prefix.
	Blob []byte
	// Int64 is a 64-bit big-endian two's complement integer.
	Int64 int64
	// Float64 is a 64-bit big-endian IEEE 754 number.
	Float64 float64
	// Bool is sent as the T or F tag and carries no data.
	Bool bool
	// Nil is sent as the N tag and carries no data.
	Nil struct{}
)

var (
	_ Argument = String("")
	_ Argument = Int32(0)
	_ Argument = Float32(0)
	_ Argument = Blob(nil)
	_ Argument = Timetag(0)
	_ Argument = Int64(0)
	_ Argument = Float64(0)
	_ Argument = Bool(false)
	_ Argument = Nil{}
)

func (String) TypeTag() TypeTag  { return TypeString }
func (Int32) TypeTag() TypeTag   { return TypeInt32 }
func (Float32) TypeTag() TypeTag { return TypeFloat32 }
func (Blob) TypeTag() TypeTag    { return TypeBlob }
func (Int64) TypeTag() TypeTag   { return TypeInt64 }
func (Float64) TypeTag() TypeTag { return TypeFloat64 }
func (Nil) TypeTag() TypeTag     { return TypeNil }

func (v Bool) TypeTag() TypeTag {
	if v {
		return TypeTrue
	}
	return TypeFalse
}

func (v String) appendArgument(b []byte) []byte { return appendString(b, string(v)) }
func (v Blob) appendArgument(b []byte) []byte   { return appendBlob(b, v) }
func (Bool) appendArgument(b []byte) []byte     { return b }
func (Nil) appendArgument(b []byte) []byte      { return b }

func (v Int32) appendArgument(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(v))
}

func (v Float32) appendArgument(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, math.Float32bits(float32(v)))
}

func (v Int64) appendArgument(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(v))
}

func (v Float64) appendArgument(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, math.Float64bits(float64(v)))
}

// validateArgument rejects values the wire format cannot carry.
func validateArgument(a Argument) error {
	switch v := a.(type) {
	case nil:
		return fmt.Errorf("%w: nil argument", ErrInvalidArgument)
	case String:
		return validateString(string(v))
	case Blob:
		if int64(len(v)) > math.MaxInt32 {
			return fmt.Errorf("%w: blob of %d bytes", ErrInvalidArgument, len(v))
		}
	}
	return nil
}

func validateString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: string contains NUL", ErrInvalidArgument)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidArgument)
	}
	return nil
}

// argumentsEqual compares two arguments by value. Floats compare by bit
// pattern so NaN payloads survive a round trip.
func argumentsEqual(a, b Argument) bool {
	switch x := a.(type) {
	case Blob:
		y, ok := b.(Blob)
		return ok && bytes.Equal(x, y)
	case Float32:
		y, ok := b.(Float32)
		return ok && math.Float32bits(float32(x)) == math.Float32bits(float32(y))
	case Float64:
		y, ok := b.(Float64)
		return ok && math.Float64bits(float64(x)) == math.Float64bits(float64(y))
	default:
		return a == b
	}
}

// cloneArgument deep-copies blobs; every other variant is a plain value.
func cloneArgument(a Argument) Argument {
	if v, ok := a.(Blob); ok {
		return Blob(bytes.Clone(v))
	}
	return a
}

func formatArgument(a Argument) string {
	switch v := a.(type) {
	case Nil:
		return "Nil"
	case Blob:
		return fmt.Sprintf("blob(%d)", len(v))
	case Timetag:
		return fmt.Sprintf("%d", v.TimeTag())
	default:
		return fmt.Sprintf("%v", v)
	}
}
