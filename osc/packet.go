package osc

import (
	"encoding"
	"fmt"
	"net"
)

// DefaultMaxDepth is the deepest bundle nesting decoded or encoded unless a
// Decoder or Encoder says otherwise. A top-level bundle has depth 1.
const DefaultMaxDepth = 16

// Packet is the interface for Message and Bundle. No other implementations
// exist.
type Packet interface {
	encoding.BinaryMarshaler
	fmt.Stringer

	// AppendBinary appends the wire encoding of the packet to b.
	AppendBinary(b []byte) ([]byte, error)
	// ReplyTo returns the channel the packet was received on, if any.
	ReplyTo() ReplyChannel

	setReplyTo(ReplyChannel)
	// appendPacket encodes the packet at nesting depth, failing once a
	// bundle is nested deeper than maxDepth.
	appendPacket(b []byte, depth, maxDepth int) ([]byte, error)
}

// ReplyChannel sends packets back to the peer a packet came from. The packet
// does not own the channel; it stays valid only while the connection it
// belongs to is open.
type ReplyChannel interface {
	Reply(p Packet) error
	RemoteAddr() net.Addr
}

// Destination receives fully decoded top-level packets.
type Destination interface {
	TakePacket(p Packet)
}

// DestinationFunc adapts a function to the Destination interface.
type DestinationFunc func(p Packet)

// TakePacket calls f(p).
func (f DestinationFunc) TakePacket(p Packet) { f(p) }

// Decoder turns bytes into packets. The zero value is ready to use.
type Decoder struct {
	// MaxDepth bounds bundle nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

var defaultDecoder = &Decoder{}

func (d *Decoder) maxDepth() int {
	if d == nil || d.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return d.MaxDepth
}

// Decode decodes one packet from data and attaches reply to it and to all of
// its nested elements. On failure no packet is returned; the error is a
// *DecodeError wrapping one of the Err* decode sentinels.
func (d *Decoder) Decode(data []byte, reply ReplyChannel) (Packet, error) {
	p, err := d.decodePacket(&reader{buf: data}, 0)
	if err != nil {
		return nil, err
	}
	if reply != nil {
		p.setReplyTo(reply)
	}
	return p, nil
}

// decodePacket dispatches on the first byte of r. depth is the nesting level
// of the enclosing bundle, 0 at the top level.
func (d *Decoder) decodePacket(r *reader, depth int) (Packet, error) {
	if r.remaining() == 0 {
		return nil, r.fail(ErrUnrecognizedPacket, "empty packet")
	}

	switch r.buf[r.off] {
	case '/': // An OSC Message starts with a '/'
		return decodeMessage(r)
	case '#': // An OSC bundle starts with a '#'
		return d.decodeBundle(r, depth+1)
	default:
		return nil, r.fail(ErrUnrecognizedPacket, "leading byte %#02x", r.buf[r.off])
	}
}

// Decode decodes data with the default limits.
func Decode(data []byte, reply ReplyChannel) (Packet, error) {
	return defaultDecoder.Decode(data, reply)
}

// ParsePacket parses the given data as an OSC packet.
func ParsePacket(data []byte) (Packet, error) {
	return defaultDecoder.Decode(data, nil)
}

// Encoder turns packets into bytes. The zero value is ready to use.
type Encoder struct {
	// MaxDepth bounds bundle nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

var defaultEncoder = &Encoder{}

func (e *Encoder) maxDepth() int {
	if e == nil || e.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return e.MaxDepth
}

// Encode returns the wire encoding of p.
func (e *Encoder) Encode(p Packet) ([]byte, error) {
	return e.AppendPacket(nil, p)
}

// AppendPacket appends the wire encoding of p to b.
func (e *Encoder) AppendPacket(b []byte, p Packet) ([]byte, error) {
	if isNilPacket(p) {
		return nil, fmt.Errorf("%w: nil packet", ErrInvalidArgument)
	}
	return p.appendPacket(b, 1, e.maxDepth())
}

// Encode returns the wire encoding of p with the default limits.
func Encode(p Packet) ([]byte, error) {
	return defaultEncoder.Encode(p)
}

// isNilPacket reports whether p is nil or a nil *Message or *Bundle.
func isNilPacket(p Packet) bool {
	switch v := p.(type) {
	case nil:
		return true
	case *Message:
		return v == nil
	case *Bundle:
		return v == nil
	default:
		return false
	}
}

// PacketsEqual reports whether a and b are the same kind of packet with equal
// contents.
func PacketsEqual(a, b Packet) bool {
	switch x := a.(type) {
	case *Message:
		y, ok := b.(*Message)
		return ok && x.Equal(y)
	case *Bundle:
		y, ok := b.(*Bundle)
		return ok && x.Equal(y)
	default:
		return a == nil && b == nil
	}
}

// ClonePacket returns a deep copy of p.
func ClonePacket(p Packet) Packet {
	if isNilPacket(p) {
		return nil
	}
	switch x := p.(type) {
	case *Message:
		return x.Clone()
	case *Bundle:
		return x.Clone()
	default:
		return nil
	}
}
