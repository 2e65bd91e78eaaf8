package osc

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	bundleTagString = "#bundle"
	// bundleHeader is the padded encoding of bundleTagString.
	bundleHeader = bundleTagString + "\x00"
)

// Bundle represents an OSC bundle. It consists of the OSC-string "#bundle"
// followed by an OSC Time Tag, followed by zero or more OSC bundle/message
// elements. The OSC-timetag is a 64-bit fixed point time tag. See
// http://opensoundcontrol.org/spec-1_0.html for more information.
type Bundle struct {
	Timetag  Timetag
	Elements []Packet
	replyTo  ReplyChannel
}

// Verify that Bundle implements the Packet interface.
var _ Packet = (*Bundle)(nil)

// NewBundle returns a bundle with the immediate time tag.
func NewBundle(elems ...Packet) *Bundle {
	return &Bundle{Timetag: Immediately, Elements: elems}
}

// NewBundleWithTime returns a bundle to be processed at t.
func NewBundleWithTime(t time.Time, elems ...Packet) *Bundle {
	return &Bundle{Timetag: NewTimetagFromTime(t), Elements: elems}
}

// Append appends an OSC bundle or OSC message to the bundle.
func (b *Bundle) Append(pck Packet) error {
	if isNilPacket(pck) {
		return fmt.Errorf("%w: nil bundle element", ErrInvalidArgument)
	}
	b.Elements = append(b.Elements, pck)
	return nil
}

// ReplyTo returns the channel the bundle arrived on, or nil for bundles
// built locally.
func (b *Bundle) ReplyTo() ReplyChannel { return b.replyTo }

func (b *Bundle) setReplyTo(rc ReplyChannel) {
	b.replyTo = rc
	for _, e := range b.Elements {
		if !isNilPacket(e) {
			e.setReplyTo(rc)
		}
	}
}

// Equal reports whether both bundles have the same time tag and equal
// elements in the same order.
func (b *Bundle) Equal(o *Bundle) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Timetag != o.Timetag || len(b.Elements) != len(o.Elements) {
		return false
	}
	for i := range b.Elements {
		if !PacketsEqual(b.Elements[i], o.Elements[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the bundle and all of its elements.
func (b *Bundle) Clone() *Bundle {
	c := &Bundle{Timetag: b.Timetag, replyTo: b.replyTo}
	if b.Elements != nil {
		c.Elements = make([]Packet, len(b.Elements))
		for i, e := range b.Elements {
			c.Elements[i] = ClonePacket(e)
		}
	}
	return c
}

// String implements the fmt.Stringer interface.
func (b *Bundle) String() string {
	if b == nil {
		return ""
	}
	elems := make([]string, len(b.Elements))
	for i, e := range b.Elements {
		if isNilPacket(e) {
			elems[i] = "<nil>"
			continue
		}
		elems[i] = e.String()
	}
	return fmt.Sprintf("#bundle %d [%s]", b.Timetag.TimeTag(), strings.Join(elems, "; "))
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (b *Bundle) MarshalBinary() ([]byte, error) {
	return b.AppendBinary(nil)
}

// AppendBinary appends the encoded bundle to buf with the following format:
// 1. Bundle string: '#bundle'
// 2. OSC timetag
// 3. Length of first OSC bundle element
// 4. First bundle element
// 5. Length of n OSC bundle element
// 6. n bundle element
func (b *Bundle) AppendBinary(buf []byte) ([]byte, error) {
	return b.appendPacket(buf, 1, DefaultMaxDepth)
}

func (b *Bundle) appendPacket(buf []byte, depth, maxDepth int) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil bundle", ErrInvalidArgument)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: bundle nesting deeper than %d", ErrLimitExceeded, maxDepth)
	}

	buf = append(buf, bundleHeader...)
	buf = b.Timetag.appendArgument(buf)

	for _, e := range b.Elements {
		if isNilPacket(e) {
			return nil, fmt.Errorf("%w: nil bundle element", ErrInvalidArgument)
		}

		// Reserve the size field and fill it in once the element is written.
		at := len(buf)
		buf = append(buf, 0, 0, 0, 0)

		var err error
		if buf, err = e.appendPacket(buf, depth+1, maxDepth); err != nil {
			return nil, err
		}

		size := len(buf) - at - bit32Size
		if size > math.MaxInt32 {
			return nil, fmt.Errorf("%w: bundle element of %d bytes", ErrLimitExceeded, size)
		}
		binary.BigEndian.PutUint32(buf[at:], uint32(size))
	}

	return buf, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	if r.remaining() == 0 || data[0] != '#' {
		return r.fail(ErrUnrecognizedPacket, "not an OSC bundle")
	}
	bundle, err := defaultDecoder.decodeBundle(r, 1)
	if err != nil {
		return err
	}
	*b = *bundle
	return nil
}

// decodeBundle reads the header, the time tag and all elements of r. depth is
// the nesting level of this bundle, starting at 1.
func (d *Decoder) decodeBundle(r *reader, depth int) (*Bundle, error) {
	if depth > d.maxDepth() {
		return nil, r.fail(ErrLimitExceeded, "bundle nesting deeper than %d", d.maxDepth())
	}

	if r.remaining() < len(bundleHeader) {
		return nil, r.fail(ErrTruncated, "bundle header")
	}
	if string(r.buf[r.off:r.off+len(bundleHeader)]) != bundleHeader {
		return nil, r.fail(ErrInvalidEncoding, "invalid bundle start tag")
	}
	r.off += len(bundleHeader)

	tt, err := r.readTimetag()
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Timetag: tt}
	for r.remaining() > 0 {
		if r.remaining() < bit32Size {
			return nil, r.fail(ErrInvalidEncoding, "%d trailing bytes do not form an element", r.remaining())
		}
		length, _ := r.readInt32()
		if length < 0 || int(length) > r.remaining() {
			r.off -= bit32Size
			return nil, r.fail(ErrInvalidEncoding, "invalid bundle element length %d", length)
		}

		p, err := d.decodePacket(r.sub(int(length)), depth)
		if err != nil {
			return nil, err
		}
		bundle.Elements = append(bundle.Elements, p)
	}

	return bundle, nil
}
