package osc

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Server represents an OSC server. It receives packets over UDP
// (ListenAndServe) or over SLIP framed TCP streams (ListenAndServeStream) and
// hands every decoded packet to Dispatcher.
type Server struct {
	Addr       string
	Dispatcher Destination
	// ReadTimeout bounds each datagram read, and the idle time of a stream
	// connection before it is closed.
	ReadTimeout time.Duration
	// Decoder bounds received packets. Replies are encoded with the same
	// bundle nesting limit.
	Decoder *Decoder
	// MaxStreamPacketSize bounds one SLIP frame. Zero means
	// DefaultMaxStreamPacketSize.
	MaxStreamPacketSize int
	Logger              *zerolog.Logger
	Metrics             *Metrics
}

// ListenAndServe listens on the UDP address s.Addr and serves packets until
// ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.ListenPacket("udp", s.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	return s.Serve(ctx, ln)
}

// Serve retrieves incoming OSC packets from the given connection and dispatches retrieved OSC packets.
// Packets that fail to decode are logged and dropped. Serve returns nil once
// ctx is done, or the first read error.
func (s *Server) Serve(ctx context.Context, c net.PacketConn) error {
	if s.Dispatcher == nil {
		s.Dispatcher = NewDispatcher()
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		p, addr, err := s.ReceivePacket(c)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var de *DecodeError
			if errors.As(err, &de) {
				s.logger().Debug().Err(err).Stringer("remote", addr).Msg("osc: dropping packet")
				continue
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go s.deliver(p)
	}
}

// ReceivePacket reads one datagram from c and decodes it. The returned
// packet replies to the datagram's sender through c.
func (s *Server) ReceivePacket(c net.PacketConn) (Packet, net.Addr, error) {
	if s.ReadTimeout != 0 {
		if err := c.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return nil, nil, err
		}
	}

	b := bPool.Get().(*[]byte)
	defer bPool.Put(b)

	n, addr, err := c.ReadFrom(*b)
	if err != nil {
		return nil, addr, err
	}

	s.Metrics.observeBytes(transportUDP, n)
	p, err := s.Decoder.Decode((*b)[:n], &packetReply{conn: c, addr: addr, enc: s.encoder()})
	if err != nil {
		s.Metrics.observeError(transportUDP, err)
		return nil, addr, err
	}
	s.Metrics.observePacket(transportUDP, p)
	return p, addr, nil
}

// ListenAndServeStream listens on the TCP address s.Addr and serves SLIP
// framed connections until ctx is done.
func (s *Server) ListenAndServeStream(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	return s.ServeStream(ctx, ln)
}

// ServeStream accepts connections from ln and serves each with its own
// Deframer. It returns nil once ctx is done, after all connections closed.
func (s *Server) ServeStream(ctx context.Context, ln net.Listener) error {
	if s.Dispatcher == nil {
		s.Dispatcher = NewDispatcher()
	}
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// serveConn feeds one stream connection through a Deframer. Packets are
// delivered in stream order on this goroutine.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	log := s.logger().With().Stringer("remote", conn.RemoteAddr()).Logger()
	log.Debug().Msg("osc: stream connection opened")

	d := NewDeframer(newStreamConn(conn, s.encoder()), DestinationFunc(s.deliver))
	d.Decoder = s.Decoder
	d.MaxPacketSize = s.MaxStreamPacketSize
	d.Logger = &log
	d.Metrics = s.Metrics
	defer d.Reset()

	buf := make([]byte, 4096)
	for {
		if s.ReadTimeout != 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
				return
			}
		}
		n, err := conn.Read(buf)
		if n > 0 {
			if ferr := d.Feed(buf[:n]); ferr != nil {
				log.Debug().Err(ferr).Msg("osc: dropping stream packet")
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Debug().Err(err).Msg("osc: stream read failed")
			}
			log.Debug().Msg("osc: stream connection closed")
			return
		}
	}
}

func (s *Server) deliver(p Packet) {
	deliver(s.Dispatcher, p, s.logger())
}

func (s *Server) encoder() *Encoder {
	return &Encoder{MaxDepth: s.Decoder.maxDepth()}
}

func (s *Server) logger() *zerolog.Logger {
	return loggerOrDefault(s.Logger)
}

// deliver hands p to dest, logging a panic instead of crashing the server.
func deliver(dest Destination, p Packet, log *zerolog.Logger) {
	defer func() {
		if err := recover(); err != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			log.Error().
				Str("remote", remoteString(p.ReplyTo())).
				Interface("panic", err).
				Bytes("stack", buf).
				Msg("osc: panic handling packet")
		}
	}()
	dest.TakePacket(p)
}

// packetReply answers a datagram by writing to its source address.
type packetReply struct {
	conn net.PacketConn
	addr net.Addr
	enc  *Encoder
}

func (r *packetReply) Reply(p Packet) error {
	data, err := r.enc.Encode(p)
	if err != nil {
		return err
	}
	_, err = r.conn.WriteTo(data, r.addr)
	return err
}

func (r *packetReply) RemoteAddr() net.Addr { return r.addr }
