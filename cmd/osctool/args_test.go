package main

import (
	"testing"

	"github.com/osckit/go-osc/osc"
)

func TestParseArgument(t *testing.T) {
	tests := []struct {
		raw     string
		want    osc.Argument
		wantErr bool
	}{
		{"i:42", osc.Int32(42), false},
		{"i:0x10", osc.Int32(16), false},
		{"i:99999999999", nil, true},
		{"h:-7", osc.Int64(-7), false},
		{"f:0.5", osc.Float32(0.5), false},
		{"d:1e3", osc.Float64(1000), false},
		{"s:hello:world", osc.String("hello:world"), false},
		{"s:", osc.String(""), false},
		{"b:cafe", osc.Blob{0xca, 0xfe}, false},
		{"b:xyz", nil, true},
		{"t:immediate", osc.Immediately, false},
		{"t:3.4", osc.NewTimetag(3, 4), false},
		{"t:0x100000002", osc.NewTimetag(1, 2), false},
		{"t:soon", nil, true},
		{"T", osc.Bool(true), false},
		{"F", osc.Bool(false), false},
		{"N", osc.Nil{}, false},
		{"x:1", nil, true},
		{"42", nil, true},
		{"ii:1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseArgument(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgument() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			m1 := osc.MustMessage("/x", got)
			m2 := osc.MustMessage("/x", tt.want)
			if !m1.Equal(m2) {
				t.Errorf("parseArgument() = %v, want %v", m1, m2)
			}
		})
	}
}

func TestParseTimetag_now(t *testing.T) {
	tt, err := parseTimetag("now")
	if err != nil {
		t.Fatal(err)
	}
	if tt.IsImmediate() || tt.SecondsSinceEpoch() == 0 {
		t.Errorf("parseTimetag(now) = %d", tt)
	}
}

func TestSendOptions_packet(t *testing.T) {
	tests := []struct {
		name    string
		opts    sendOptions
		args    []string
		bundle  bool
		wantErr bool
	}{
		{"message", sendOptions{}, []string{"/a", "i:1"}, false, false},
		{"bundle", sendOptions{bundle: true}, []string{"/a"}, true, false},
		{"delayed", sendOptions{delay: 1}, []string{"/a"}, true, false},
		{"bad_address", sendOptions{}, []string{"a"}, false, true},
		{"bad_argument", sendOptions{}, []string{"/a", "q:1"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.opts.packet(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("packet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if _, ok := p.(*osc.Bundle); ok != tt.bundle {
				t.Errorf("packet() = %T, bundle %t", p, tt.bundle)
			}
		})
	}
}
