// Package config loads the osctool serve configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/osckit/go-osc/osc"
)

type Config struct {
	UDPAddr        string
	TCPAddr        string
	HTTPAddr       string
	WSPath         string
	MetricsPath    string
	ReadTimeout    time.Duration
	MaxBundleDepth int
	MaxPacketSize  int
	LogLevel       string
	LogFormat      string
}

// config.toml key mapping.
type fileConfig struct {
	UDPAddr        string `toml:"udp_addr"`
	TCPAddr        string `toml:"tcp_addr"`
	HTTPAddr       string `toml:"http_addr"`
	WSPath         string `toml:"ws_path"`
	MetricsPath    string `toml:"metrics_path"`
	ReadTimeout    string `toml:"read_timeout"`
	MaxBundleDepth int    `toml:"max_bundle_depth"`
	MaxPacketSize  int    `toml:"max_packet_size"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
}

func Default() Config {
	return Config{
		UDPAddr:        "127.0.0.1:8765",
		WSPath:         "/osc",
		MetricsPath:    "/metrics",
		MaxBundleDepth: osc.DefaultMaxDepth,
		MaxPacketSize:  osc.DefaultMaxStreamPacketSize,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("udp_addr") {
		cfg.UDPAddr = strings.TrimSpace(raw.UDPAddr)
	}
	if meta.IsDefined("tcp_addr") {
		cfg.TCPAddr = strings.TrimSpace(raw.TCPAddr)
	}
	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if meta.IsDefined("ws_path") {
		cfg.WSPath = strings.TrimSpace(raw.WSPath)
	}
	if meta.IsDefined("metrics_path") {
		cfg.MetricsPath = strings.TrimSpace(raw.MetricsPath)
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("max_bundle_depth") {
		cfg.MaxBundleDepth = raw.MaxBundleDepth
	}
	if meta.IsDefined("max_packet_size") {
		cfg.MaxPacketSize = raw.MaxPacketSize
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first impossible setting.
func (c Config) Validate() error {
	if c.UDPAddr == "" && c.TCPAddr == "" && c.HTTPAddr == "" {
		return errors.New("config: no transport enabled, set udp_addr, tcp_addr or http_addr")
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("config: read_timeout %v is negative", c.ReadTimeout)
	}
	if c.MaxBundleDepth < 1 {
		return fmt.Errorf("config: max_bundle_depth %d must be at least 1", c.MaxBundleDepth)
	}
	if c.MaxPacketSize < 16 {
		return fmt.Errorf("config: max_packet_size %d is smaller than an empty bundle", c.MaxPacketSize)
	}
	if c.HTTPAddr != "" {
		if !strings.HasPrefix(c.WSPath, "/") {
			return fmt.Errorf("config: ws_path %q must start with '/'", c.WSPath)
		}
		if !strings.HasPrefix(c.MetricsPath, "/") {
			return fmt.Errorf("config: metrics_path %q must start with '/'", c.MetricsPath)
		}
		if c.WSPath == c.MetricsPath {
			return fmt.Errorf("config: ws_path and metrics_path are both %q", c.WSPath)
		}
	}
	return nil
}
