package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.InfoLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.NoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseLevel(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %t, want %v, %t", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestConfigure_json(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var buf bytes.Buffer
	logger, err := Configure(Config{Level: "warn", Format: FormatJSON, Out: &buf}, "osctool")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info().Msg("hidden")
	log.Warn().Msg("shown")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output %q is not one JSON entry: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["app"] != "osctool" {
		t.Errorf("entry = %v", entry)
	}
}

func TestConfigure_envOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, FormatJSON)
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var buf bytes.Buffer
	logger, err := Configure(Config{Level: "debug", Format: FormatConsole, Out: &buf}, "osctool")
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != zerolog.ErrorLevel {
		t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), zerolog.ErrorLevel)
	}
	logger.Error().Msg("boom")
	if !json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("output %q is not JSON", buf.String())
	}
}

func TestConfigure_invalid(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	if _, err := Configure(Config{Level: "loud"}, "osctool"); err == nil {
		t.Error("Configure() accepted an unknown level")
	}
	if _, err := Configure(Config{Format: "xml"}, "osctool"); err == nil {
		t.Error("Configure() accepted an unknown format")
	}
}
