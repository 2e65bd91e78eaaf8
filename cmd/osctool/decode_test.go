package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/osckit/go-osc/osc"
)

func TestDecodeCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		{"argument", []string{"2f6869002c000000"}, "", "/hi ,\n", false},
		{"stdin_with_spaces", nil, "2f686900 2c000000\n", "/hi ,\n", false},
		{"slip", []string{"--slip", "2f6869002c000000c0"}, "", "/hi ,\n", false},
		{"slip_two_frames", []string{"--slip", "2f6869002c000000c02f6869002c000000c0"}, "", "/hi ,\n/hi ,\n", false},
		{"not_hex", []string{"zz"}, "", "", true},
		{"truncated", []string{"2f686900"}, "", "", true},
		{"bad_format", []string{"-o", "xml", "2f6869002c000000"}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := decodeCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetIn(strings.NewReader(tt.stdin))
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRunDecode_slipErrors(t *testing.T) {
	ok, err := osc.Encode(osc.MustMessage("/ok"))
	if err != nil {
		t.Fatal(err)
	}
	var stream []byte
	stream = osc.AppendSLIP(stream, []byte("junk"))
	stream = osc.AppendSLIP(stream, ok)
	stream = append(stream, '/', 'x')

	var out bytes.Buffer
	err = runDecode(&out, &decodeOptions{slip: true, output: "text"}, stream)
	if !errors.Is(err, osc.ErrUnrecognizedPacket) {
		t.Errorf("runDecode() error = %v, want %v", err, osc.ErrUnrecognizedPacket)
	}
	if err == nil || !strings.Contains(err.Error(), "2 bytes after the last END") {
		t.Errorf("runDecode() error = %v, want trailing bytes reported", err)
	}
	if out.String() != "/ok ,\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunDecode_yaml(t *testing.T) {
	b := &osc.Bundle{Timetag: osc.NewTimetag(0, 1), Elements: []osc.Packet{
		osc.MustMessage("/a", osc.Int32(0), osc.Bool(false), osc.Blob{0xca, 0xfe}, osc.Nil{}),
	}}
	raw, err := osc.Encode(b)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runDecode(&out, &decodeOptions{output: "yaml"}, raw); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"value: 0", "value: false", "value: null"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}

	var docs []packetDoc
	if err := yaml.Unmarshal(out.Bytes(), &docs); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	if len(docs) != 1 || docs[0].Kind != "bundle" || len(docs[0].Elements) != 1 {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].Timetag == nil || *docs[0].Timetag != 1 {
		t.Errorf("timetag = %v, want 1", docs[0].Timetag)
	}
	m := docs[0].Elements[0]
	if m.Address != "/a" || len(m.Arguments) != 4 {
		t.Fatalf("message = %+v", m)
	}
	if m.Arguments[0].Type != "i" || m.Arguments[0].Value != 0 {
		t.Errorf("int argument = %+v", m.Arguments[0])
	}
	if m.Arguments[1].Type != "F" || m.Arguments[1].Value != false {
		t.Errorf("bool argument = %+v", m.Arguments[1])
	}
	if m.Arguments[2].Value != "cafe" {
		t.Errorf("blob argument = %+v", m.Arguments[2])
	}
	if m.Arguments[3].Type != "N" || m.Arguments[3].Value != nil {
		t.Errorf("nil argument = %+v", m.Arguments[3])
	}
}
