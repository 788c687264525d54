// Package config loads the demo server's hashnav.json configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "hashnav.json"

	// DefaultHost is the default demo server host.
	DefaultHost = "localhost"

	// DefaultPort is the default demo server port.
	DefaultPort = 3000

	// DefaultMarker is the default routing marker.
	DefaultMarker = "!"
)

// Config is the hashnav.json schema.
type Config struct {
	// Host is the address the demo server binds to.
	Host string `json:"host,omitempty"`

	// Port is the demo server port.
	Port int `json:"port,omitempty"`

	// Marker is the routing marker prefixed to route fragments.
	Marker string `json:"marker,omitempty"`

	// Metrics enables the /metrics Prometheus endpoint.
	Metrics bool `json:"metrics,omitempty"`

	// Blocked lists route paths the demo guard vetoes, to exercise
	// rollback from the browser.
	Blocked []string `json:"blocked,omitempty"`

	// AllowAnyOrigin disables the websocket same-origin check. Only for
	// local experiments.
	AllowAnyOrigin bool `json:"allowAnyOrigin,omitempty"`
}

// New returns a config populated with defaults.
func New() *Config {
	return &Config{
		Host:    DefaultHost,
		Port:    DefaultPort,
		Marker:  DefaultMarker,
		Metrics: true,
	}
}

// Load reads the config at path, applying defaults for absent fields.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
