package osc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketHandler serves OSC over WebSocket. Every binary message is one
// packet; text messages are ignored. Replies are sent back as binary messages
// on the same connection, encoded with the Decoder's bundle nesting limit.
type WebSocketHandler struct {
	Destination Destination
	Decoder     *Decoder
	Upgrader    websocket.Upgrader
	// MaxPacketSize bounds one WebSocket message. Zero means
	// DefaultMaxStreamPacketSize.
	MaxPacketSize int
	Logger        *zerolog.Logger
	Metrics       *Metrics
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := loggerOrDefault(h.Logger)

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("osc: websocket upgrade failed")
		return
	}
	defer conn.Close()

	limit := h.MaxPacketSize
	if limit <= 0 {
		limit = DefaultMaxStreamPacketSize
	}
	conn.SetReadLimit(int64(limit))

	l := log.With().Stringer("remote", conn.RemoteAddr()).Logger()
	l.Debug().Msg("osc: websocket connection opened")
	defer func() {
		l.Debug().Msg("osc: websocket connection closed")
	}()

	dest := h.Destination
	if dest == nil {
		dest = NewDispatcher()
	}
	ws := newWSConn(conn, &Encoder{MaxDepth: h.Decoder.maxDepth()})
	_ = serveWebSocket(r.Context(), ws, h.Decoder, dest, h.Metrics, &l)
}

// WebSocketClient sends OSC packets to a WebSocketHandler.
type WebSocketClient struct {
	Decoder *Decoder
	Logger  *zerolog.Logger

	conn *wsConn
}

// DialWebSocket connects to the ws:// or wss:// URL.
func DialWebSocket(ctx context.Context, url string) (*WebSocketClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &WebSocketClient{conn: newWSConn(conn, nil)}, nil
}

// Send sends an OSC Packet as one binary message.
func (c *WebSocketClient) Send(p Packet) error {
	return c.conn.Reply(p)
}

// Serve reads packets sent back by the server and hands them to dest until
// ctx is done or the connection closes.
func (c *WebSocketClient) Serve(ctx context.Context, dest Destination) error {
	return serveWebSocket(ctx, c.conn, c.Decoder, dest, nil, loggerOrDefault(c.Logger))
}

// Close sends a close frame and closes the connection.
func (c *WebSocketClient) Close() error {
	c.conn.mu.Lock()
	_ = c.conn.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.mu.Unlock()
	return c.conn.conn.Close()
}

// serveWebSocket reads binary messages from c until it fails, decoding each
// into a packet for dest.
func serveWebSocket(ctx context.Context, c *wsConn, dec *Decoder, dest Destination, m *Metrics, log *zerolog.Logger) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.Close()
	})
	defer stop()

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Debug().Err(err).Msg("osc: websocket read failed")
			return err
		}
		if mt != websocket.BinaryMessage {
			log.Debug().Int("type", mt).Msg("osc: ignoring non-binary websocket message")
			continue
		}

		m.observeBytes(transportWebSocket, len(data))
		p, err := dec.Decode(data, c)
		if err != nil {
			m.observeError(transportWebSocket, err)
			log.Debug().Err(err).Msg("osc: dropping packet")
			continue
		}
		m.observePacket(transportWebSocket, p)
		deliver(dest, p, log)
	}
}

// wsConn is the reply channel of a WebSocket connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	enc  *Encoder
}

func newWSConn(conn *websocket.Conn, enc *Encoder) *wsConn {
	return &wsConn{conn: conn, enc: enc}
}

func (c *wsConn) Reply(p Packet) error {
	data, err := c.enc.Encode(p)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
