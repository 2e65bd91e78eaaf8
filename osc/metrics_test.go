package osc

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_nil(t *testing.T) {
	var m *Metrics
	m.observePacket(transportUDP, NewBundle())
	m.observeError(transportUDP, ErrTruncated)
	m.observeBytes(transportUDP, 10)
	m.observeSLIPViolation()
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observePacket(transportStream, NewBundle())
	m.observePacket(transportStream, MustMessage("/a"))
	m.observePacket(transportStream, MustMessage("/b"))
	m.observeBytes(transportStream, 12)
	m.observeError(transportStream, &DecodeError{Err: ErrTruncated})
	m.observeError(transportStream, errors.New("other"))

	if v := testutil.ToFloat64(m.packets.WithLabelValues(transportStream, "bundle")); v != 1 {
		t.Errorf("bundles = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.packets.WithLabelValues(transportStream, "message")); v != 2 {
		t.Errorf("messages = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.bytes.WithLabelValues(transportStream)); v != 12 {
		t.Errorf("bytes = %v, want 12", v)
	}
	if v := testutil.ToFloat64(m.decodeErrors.WithLabelValues(transportStream, "truncated")); v != 1 {
		t.Errorf("truncated errors = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.decodeErrors.WithLabelValues(transportStream, "other")); v != 1 {
		t.Errorf("other errors = %v, want 1", v)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DecodeError{Err: ErrUnrecognizedPacket}, "unrecognized_packet"},
		{&DecodeError{Err: ErrTruncated}, "truncated"},
		{&DecodeError{Err: ErrInvalidEncoding}, "invalid_encoding"},
		{&DecodeError{Err: ErrUnsupportedTypeTag}, "unsupported_type_tag"},
		{&DecodeError{Err: ErrLimitExceeded}, "limit_exceeded"},
		{ErrInvalidAddress, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := errorReason(tt.err); got != tt.want {
				t.Errorf("errorReason(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
