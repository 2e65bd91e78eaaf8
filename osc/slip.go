package osc

import (
	"errors"

	"github.com/rs/zerolog"
)

// SLIP byte codes (RFC 1055), used by OSC 1.1 to frame packets on streams.
const (
	SLIPEnd    = 0xC0
	SLIPEsc    = 0xDB
	SLIPEscEnd = 0xDC
	SLIPEscEsc = 0xDD
)

// DefaultMaxStreamPacketSize bounds the packets a Deframer accumulates.
const DefaultMaxStreamPacketSize = 1 << 20

// AppendSLIP appends packet to dst, escaping END and ESC bytes, and
// terminates it with a single END byte.
func AppendSLIP(dst, packet []byte) []byte {
	for _, b := range packet {
		switch b {
		case SLIPEnd:
			dst = append(dst, SLIPEsc, SLIPEscEnd)
		case SLIPEsc:
			dst = append(dst, SLIPEsc, SLIPEscEsc)
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, SLIPEnd)
}

// Deframer recovers packets from a SLIP framed byte stream. It belongs to
// exactly one connection: escape state carries over between Feed calls and
// must never be shared with another stream. A Deframer is not safe for
// concurrent use.
type Deframer struct {
	// Decoder decodes every completed frame. Nil uses the default limits.
	Decoder *Decoder
	// Destination receives each decoded packet.
	Destination Destination
	// MaxPacketSize bounds a single frame. Zero means
	// DefaultMaxStreamPacketSize.
	MaxPacketSize int
	Logger        *zerolog.Logger
	Metrics       *Metrics

	reply    ReplyChannel
	buf      []byte
	escaped  bool
	overflow bool
}

// NewDeframer returns a deframer for the connection reply, delivering packets
// to dest.
func NewDeframer(reply ReplyChannel, dest Destination) *Deframer {
	return &Deframer{Destination: dest, reply: reply}
}

// Feed processes one chunk of stream data. Every END byte completes a frame,
// which is decoded and handed to the destination. Feed always consumes the
// whole chunk; decode failures of the frames it completed are returned
// joined.
func (d *Deframer) Feed(chunk []byte) error {
	var errs []error
	for _, b := range chunk {
		if d.escaped {
			d.escaped = false
			switch b {
			case SLIPEscEnd:
				d.append(SLIPEnd)
			case SLIPEscEsc:
				d.append(SLIPEsc)
			default:
				// Protocol violation. Pass the byte along and keep going.
				d.logger().Warn().
					Str("remote", remoteString(d.reply)).
					Uint8("byte", b).
					Msg("osc: SLIP protocol violation, unexpected byte after ESC")
				d.Metrics.observeSLIPViolation()
				d.append(b)
			}
			continue
		}

		switch b {
		case SLIPEnd:
			if err := d.emit(); err != nil {
				errs = append(errs, err)
			}
		case SLIPEsc:
			d.escaped = true
		default:
			d.append(b)
		}
	}
	return errors.Join(errs...)
}

// Reset drops any partial frame and pending escape, as on connection
// teardown.
func (d *Deframer) Reset() {
	d.buf = d.buf[:0]
	d.escaped = false
	d.overflow = false
}

// Buffered returns the number of bytes of the frame in progress.
func (d *Deframer) Buffered() int { return len(d.buf) }

// EscapePending reports whether the last byte fed was an unfinished escape.
func (d *Deframer) EscapePending() bool { return d.escaped }

func (d *Deframer) append(b byte) {
	if d.overflow {
		return
	}
	if len(d.buf) >= d.maxPacketSize() {
		d.overflow = true
		d.buf = d.buf[:0]
		return
	}
	d.buf = append(d.buf, b)
}

func (d *Deframer) maxPacketSize() int {
	if d.MaxPacketSize <= 0 {
		return DefaultMaxStreamPacketSize
	}
	return d.MaxPacketSize
}

// emit decodes the accumulated frame and resets the accumulator whatever the
// outcome.
func (d *Deframer) emit() error {
	defer func() {
		d.buf = d.buf[:0]
		d.overflow = false
	}()

	if d.overflow {
		err := &DecodeError{Err: ErrLimitExceeded, Detail: "stream packet larger than limit"}
		d.Metrics.observeError(transportStream, err)
		return err
	}

	d.Metrics.observeBytes(transportStream, len(d.buf))
	p, err := d.Decoder.Decode(d.buf, d.reply)
	if err != nil {
		d.Metrics.observeError(transportStream, err)
		return err
	}
	d.Metrics.observePacket(transportStream, p)
	if d.Destination != nil {
		d.Destination.TakePacket(p)
	}
	return nil
}

func (d *Deframer) logger() *zerolog.Logger {
	return loggerOrDefault(d.Logger)
}
