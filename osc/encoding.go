package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	bit32Size = 4
	bit64Size = 8
)

////
// Decoding
////

// reader is a cursor over one packet or one bundle element. Methods advance
// off only when they succeed; after a failure the whole decode is abandoned.
type reader struct {
	buf  []byte
	off  int
	base int // offset of buf[0] within the top-level packet
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) fail(kind error, format string, args ...interface{}) error {
	return &DecodeError{Offset: r.base + r.off, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// sub returns a reader scoped to the next n bytes and advances past them.
func (r *reader) sub(n int) *reader {
	s := &reader{buf: r.buf[r.off : r.off+n], base: r.base + r.off}
	r.off += n
	return s
}

// readString reads a NUL terminated, 4-byte padded OSC-string.
func (r *reader) readString() (string, error) {
	pos := bytes.IndexByte(r.buf[r.off:], 0)
	if pos == -1 {
		return "", r.fail(ErrTruncated, "unterminated string")
	}
	raw := r.buf[r.off : r.off+pos]
	if !utf8.Valid(raw) {
		return "", r.fail(ErrInvalidEncoding, "string is not valid UTF-8")
	}
	n := pos + 1
	n += padBytesNeeded(n)
	if n > r.remaining() {
		return "", r.fail(ErrTruncated, "string padding")
	}
	r.off += n
	return string(raw), nil
}

func (r *reader) readUint32() (uint32, error) {
	if r.remaining() < bit32Size {
		return 0, r.fail(ErrTruncated, "need %d bytes, have %d", bit32Size, r.remaining())
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += bit32Size
	return v, nil
}

func (r *reader) readUint64() (uint64, error) {
	if r.remaining() < bit64Size {
		return 0, r.fail(ErrTruncated, "need %d bytes, have %d", bit64Size, r.remaining())
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += bit64Size
	return v, nil
}

func (r *reader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *reader) readFloat32() (float32, error) {
	v, err := r.readUint32()
	return math.Float32frombits(v), err
}

func (r *reader) readInt64() (int64, error) {
	v, err := r.readUint64()
	return int64(v), err
}

func (r *reader) readFloat64() (float64, error) {
	v, err := r.readUint64()
	return math.Float64frombits(v), err
}

func (r *reader) readTimetag() (Timetag, error) {
	v, err := r.readUint64()
	return Timetag(v), err
}

// readBlob reads a length prefixed blob and skips its padding. The returned
// slice is a copy.
func (r *reader) readBlob() ([]byte, error) {
	start := r.off
	blobLen, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	if blobLen < 0 {
		r.off = start
		return nil, r.fail(ErrInvalidEncoding, "negative blob length %d", blobLen)
	}
	n := int(blobLen)
	if n+padBytesNeeded(n) > r.remaining() {
		r.off = start
		return nil, r.fail(ErrTruncated, "blob of %d bytes", n)
	}
	blob := make([]byte, n)
	copy(blob, r.buf[r.off:])
	r.off += n + padBytesNeeded(n)
	return blob, nil
}

////
// Encoding
////

// appendString appends str as a NUL terminated OSC-string padded to a
// multiple of 4 bytes.
func appendString(b []byte, str string) []byte {
	b = append(b, str...)
	b = append(b, 0)
	return appendPadding(b, len(str)+1)
}

// appendBlob appends the length prefix, the data and the padding.
func appendBlob(b []byte, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, data...)
	return appendPadding(b, len(data))
}

func appendPadding(b []byte, elementLen int) []byte {
	for i := padBytesNeeded(elementLen); i > 0; i-- {
		b = append(b, 0)
	}
	return b
}

// padBytesNeeded determines how many bytes are needed to fill up to the next 4
// byte length.
func padBytesNeeded(elementLen int) int {
	return (4 - (elementLen % 4)) % 4
}
