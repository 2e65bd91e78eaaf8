package osc

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Client enables you to send OSC Packets to a specified server, over UDP
// (Dial) or a SLIP framed TCP stream (DialStream).
type Client struct {
	Decoder *Decoder
	Encoder *Encoder
	Logger  *zerolog.Logger

	conn   net.Conn
	stream *streamConn // nil for datagram clients
}

// Verify that a Client can be replied through.
var _ ReplyChannel = (*Client)(nil)

// Dial creates a new OSC Client with a UDP connection to the specified server.
func Dial(addr string) (*Client, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp", nil, a)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// DialStream creates a new OSC Client with a TCP connection to the specified
// server. Packets are SLIP framed.
func DialStream(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, stream: newStreamConn(conn, nil)}, nil
}

// Send sends an OSC Packet to the server.
func (c *Client) Send(packet Packet) error {
	if c.stream != nil {
		return c.stream.send(c.Encoder, packet)
	}

	data, err := c.Encoder.Encode(packet)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

// Reply implements the ReplyChannel interface; it is the same as Send.
func (c *Client) Reply(p Packet) error { return c.Send(p) }

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// LocalAddr returns the local end of the connection.
func (c *Client) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Serve reads packets sent back by the server and hands them to dest until
// ctx is done or the connection fails. Packets that do not decode are logged
// and dropped.
func (c *Client) Serve(ctx context.Context, dest Destination) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	log := loggerOrDefault(c.Logger)
	var d *Deframer
	if c.stream != nil {
		d = NewDeframer(c, DestinationFunc(func(p Packet) { deliver(dest, p, log) }))
		d.Decoder = c.Decoder
		d.Logger = log
	}

	buf := make([]byte, MaxPacketSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if d != nil {
				if ferr := d.Feed(buf[:n]); ferr != nil {
					log.Debug().Err(ferr).Msg("osc: dropping reply")
				}
			} else if p, derr := c.Decoder.Decode(buf[:n], c); derr != nil {
				log.Debug().Err(derr).Msg("osc: dropping reply")
			} else {
				deliver(dest, p, log)
			}
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

// streamConn writes SLIP framed packets to a stream. Writes are serialized so
// replies from several goroutines never interleave.
type streamConn struct {
	mu   sync.Mutex
	conn net.Conn
	enc  *Encoder
}

func newStreamConn(conn net.Conn, enc *Encoder) *streamConn {
	return &streamConn{conn: conn, enc: enc}
}

func (c *streamConn) Reply(p Packet) error { return c.send(c.enc, p) }

func (c *streamConn) send(enc *Encoder, p Packet) error {
	data, err := enc.Encode(p)
	if err != nil {
		return err
	}
	frame := AppendSLIP(make([]byte, 0, len(data)+8), data)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.conn.Write(frame)
	return err
}

func (c *streamConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
