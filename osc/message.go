package osc

import (
	"fmt"
	"strings"
)

// Message represents a single OSC message. An OSC message consists of an OSC
// address pattern and zero or more arguments.
type Message struct {
	address   string
	Arguments []Argument
	replyTo   ReplyChannel
}

// Verify that Messages implements the Packet interface.
var _ Packet = (*Message)(nil)

// NewMessage returns a new Message. The address parameter is the OSC address
// pattern; it must start with '/'.
func NewMessage(addr string, args ...Argument) (*Message, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	m := &Message{address: addr}
	if err := m.Append(args...); err != nil {
		return nil, err
	}
	return m, nil
}

// MustMessage is like NewMessage but panics if the message is invalid. It is
// meant for addresses and arguments known at compile time.
func MustMessage(addr string, args ...Argument) *Message {
	m, err := NewMessage(addr, args...)
	if err != nil {
		panic(err)
	}
	return m
}

func validateAddress(addr string) error {
	if !strings.HasPrefix(addr, "/") {
		return fmt.Errorf("%w: %q does not start with '/'", ErrInvalidAddress, addr)
	}
	if err := validateString(addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

// Address returns the OSC address pattern.
func (m *Message) Address() string { return m.address }

// AddressParts returns the non-empty '/' separated segments of the address.
func (m *Message) AddressParts() []string {
	return addressParts(m.address)
}

func addressParts(addr string) []string {
	return strings.FieldsFunc(addr, func(r rune) bool { return r == '/' })
}

// ReplyTo returns the channel the message arrived on, or nil for messages
// built locally.
func (m *Message) ReplyTo() ReplyChannel { return m.replyTo }

func (m *Message) setReplyTo(rc ReplyChannel) { m.replyTo = rc }

// Append appends the given arguments to the arguments list. Nothing is
// appended if any argument is invalid.
func (m *Message) Append(args ...Argument) error {
	for _, a := range args {
		if err := validateArgument(a); err != nil {
			return err
		}
	}
	m.Arguments = append(m.Arguments, args...)
	return nil
}

// ClearData removes all arguments from the OSC Message.
func (m *Message) ClearData() {
	m.Arguments = m.Arguments[:0]
}

// CountArguments returns the number of arguments.
func (m *Message) CountArguments() int {
	return len(m.Arguments)
}

// Match returns true, if the OSC address pattern of the OSC Message matches the given
// address. The match is case sensitive!
func (m *Message) Match(addr string) bool {
	return matchAddress(m.address, addr)
}

// TypeTags returns the type tag string.
func (m *Message) TypeTags() string {
	return GetTypeTag(m.Arguments)
}

// Equal reports whether both messages have the same address and arguments.
// Reply channels are not compared.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.address != o.address || len(m.Arguments) != len(o.Arguments) {
		return false
	}
	for i := range m.Arguments {
		if !argumentsEqual(m.Arguments[i], o.Arguments[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the message. The reply channel is shared.
func (m *Message) Clone() *Message {
	c := &Message{address: m.address, replyTo: m.replyTo}
	if m.Arguments != nil {
		c.Arguments = make([]Argument, len(m.Arguments))
		for i, a := range m.Arguments {
			c.Arguments[i] = cloneArgument(a)
		}
	}
	return c
}

// String implements the fmt.Stringer interface.
func (m *Message) String() string {
	if m == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.address)
	sb.WriteByte(' ')
	sb.WriteString(m.TypeTags())
	for _, arg := range m.Arguments {
		sb.WriteByte(' ')
		sb.WriteString(formatArgument(arg))
	}
	return sb.String()
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (m *Message) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(nil)
}

// AppendBinary appends the encoded message to b. The layout is:
// 1. OSC Address Pattern
// 2. OSC Type Tag String
// 3. OSC Arguments
func (m *Message) AppendBinary(b []byte) ([]byte, error) {
	return m.appendPacket(b, 1, DefaultMaxDepth)
}

func (m *Message) appendPacket(b []byte, _, _ int) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidArgument)
	}
	if err := validateAddress(m.address); err != nil {
		return nil, err
	}
	for _, arg := range m.Arguments {
		if err := validateArgument(arg); err != nil {
			return nil, err
		}
	}

	b = appendString(b, m.address)
	b = appendString(b, m.TypeTags())
	for _, arg := range m.Arguments {
		b = arg.appendArgument(b)
	}
	return b, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (m *Message) UnmarshalBinary(data []byte) error {
	r := &reader{buf: data}
	if r.remaining() == 0 || data[0] != '/' {
		return r.fail(ErrUnrecognizedPacket, "not an OSC message")
	}
	msg, err := decodeMessage(r)
	if err != nil {
		return err
	}
	*m = *msg
	return nil
}

// decodeMessage reads the address pattern, the type tag string and the
// arguments. It consumes all of r.
func decodeMessage(r *reader) (*Message, error) {
	addr, err := r.readString()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(addr, "/") {
		return nil, r.fail(ErrInvalidEncoding, "address %q does not start with '/'", addr)
	}

	if r.remaining() == 0 {
		return nil, r.fail(ErrTruncated, "missing type tag string")
	}
	typetags, err := r.readString()
	if err != nil {
		return nil, err
	}

	msg := &Message{address: addr}
	if typetags != "" && typetags != "," {
		if msg.Arguments, err = readArguments(r, typetags); err != nil {
			return nil, err
		}
	}

	if r.remaining() != 0 {
		return nil, r.fail(ErrInvalidEncoding, "%d trailing bytes after arguments", r.remaining())
	}
	return msg, nil
}

// readArguments decodes one argument per tag. Every tag is checked before
// any data is read, so an unknown tag never leaves a partial message.
func readArguments(r *reader, typetags string) ([]Argument, error) {
	// If the typetag doesn't start with ',', it's not valid
	if typetags[0] != ',' {
		return nil, r.fail(ErrInvalidEncoding, "type tag string %q does not start with ','", typetags)
	}
	tags := typetags[1:]
	for i := 0; i < len(tags); i++ {
		if !TypeTag(tags[i]).Supported() {
			return nil, r.fail(ErrUnsupportedTypeTag, "%q", tags[i])
		}
	}

	args := make([]Argument, 0, len(tags))
	for i := 0; i < len(tags); i++ {
		var (
			arg Argument
			err error
		)
		switch TypeTag(tags[i]) {
		case TypeInt32:
			var v int32
			v, err = r.readInt32()
			arg = Int32(v)
		case TypeFloat32:
			var v float32
			v, err = r.readFloat32()
			arg = Float32(v)
		case TypeString:
			var v string
			v, err = r.readString()
			arg = String(v)
		case TypeBlob:
			var v []byte
			v, err = r.readBlob()
			arg = Blob(v)
		case TypeTimeTag:
			arg, err = r.readTimetag()
		case TypeInt64:
			var v int64
			v, err = r.readInt64()
			arg = Int64(v)
		case TypeFloat64:
			var v float64
			v, err = r.readFloat64()
			arg = Float64(v)
		case TypeTrue:
			arg = Bool(true)
		case TypeFalse:
			arg = Bool(false)
		case TypeNil:
			arg = Nil{}
		}
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}
