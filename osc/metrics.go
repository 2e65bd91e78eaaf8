package osc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transport labels.
const (
	transportUDP       = "udp"
	transportStream    = "stream"
	transportWebSocket = "websocket"
)

// Metrics counts traffic through servers and deframers. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	packets        *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	bytes          *prometheus.CounterVec
	slipViolations prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		packets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "osc",
				Name:      "packets_decoded_total",
				Help:      "Top-level OSC packets decoded.",
			},
			[]string{"transport", "kind"},
		),
		decodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "osc",
				Name:      "decode_errors_total",
				Help:      "OSC packets rejected by the decoder.",
			},
			[]string{"transport", "reason"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "osc",
				Name:      "received_bytes_total",
				Help:      "Bytes of OSC packet data received, after deframing.",
			},
			[]string{"transport"},
		),
		slipViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "osc",
				Subsystem: "slip",
				Name:      "protocol_violations_total",
				Help:      "Bytes following a SLIP ESC that were neither ESC_END nor ESC_ESC.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.packets, m.decodeErrors, m.bytes, m.slipViolations)
	}
	return m
}

func (m *Metrics) observePacket(transport string, p Packet) {
	if m == nil {
		return
	}
	kind := "message"
	if _, ok := p.(*Bundle); ok {
		kind = "bundle"
	}
	m.packets.WithLabelValues(transport, kind).Inc()
}

func (m *Metrics) observeError(transport string, err error) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(transport, errorReason(err)).Inc()
}

func (m *Metrics) observeBytes(transport string, n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(transport).Add(float64(n))
}

func (m *Metrics) observeSLIPViolation() {
	if m == nil {
		return
	}
	m.slipViolations.Inc()
}
