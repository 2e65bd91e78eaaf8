package osc

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebSocketHandler(t *testing.T) {
	received := &collector{}
	d := NewDispatcher()
	err := d.AddMethodFunc("/ws", func(msg *Message) {
		received.TakePacket(msg)
		_ = msg.ReplyTo().Reply(MustMessage("/ws/ack", msg.Arguments...))
	})
	if err != nil {
		t.Fatal(err)
	}

	h := &WebSocketHandler{Destination: d, Metrics: NewMetrics(prometheus.NewRegistry())}
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	replies := &collector{}
	go func() { _ = client.Serve(ctx, replies) }()

	// Text messages and undecodable packets are skipped.
	client.conn.mu.Lock()
	_ = client.conn.conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	_ = client.conn.conn.WriteMessage(websocket.BinaryMessage, []byte("nonsense"))
	client.conn.mu.Unlock()

	if err := client.Send(MustMessage("/ws", String("payload"))); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "reply", func() bool { return len(replies.get()) == 1 })
	if got := received.get(); len(got) != 1 {
		t.Errorf("received %d packets, want 1", len(got))
	}
	want := MustMessage("/ws/ack", String("payload"))
	if got := replies.get()[0]; !PacketsEqual(got, want) {
		t.Errorf("reply = %v, want %v", got, want)
	}
	if v := testutil.ToFloat64(h.Metrics.decodeErrors.WithLabelValues(transportWebSocket, "unrecognized_packet")); v != 1 {
		t.Errorf("decode errors = %v, want 1", v)
	}
	if v := testutil.ToFloat64(h.Metrics.packets.WithLabelValues(transportWebSocket, "message")); v != 1 {
		t.Errorf("decoded packets = %v, want 1", v)
	}
}
