// Package config loads and validates Pulse client configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration errors.
var (
	ErrNoServers = errors.New("no broker servers configured")
)

// Config holds the client configuration.
type Config struct {
	// Servers is the list of broker addresses (host:port) to try in order.
	Servers []string `yaml:"servers"`

	// TLS configures transport security.
	TLS TLS `yaml:"tls"`

	// Reconnect configures automatic reconnection.
	Reconnect Reconnect `yaml:"reconnect"`

	// MaxMessageSize is the maximum frame payload size in bytes.
	MaxMessageSize uint32 `yaml:"max_message_size"`

	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// Development switches logging to human-readable debug output.
	Development bool `yaml:"development"`
}

// TLS holds transport security settings.
type TLS struct {
	// CertFile and KeyFile name an optional client certificate pair.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// CAFile names a PEM bundle of broker CAs. Empty means the host roots.
	CAFile string `yaml:"ca_file"`

	// ServerName is the expected broker certificate name.
	ServerName string `yaml:"server_name"`

	// Insecure disables certificate verification. Testing only.
	Insecure bool `yaml:"insecure"`
}

// Reconnect holds automatic reconnection settings.
type Reconnect struct {
	// Disabled turns automatic reconnection off.
	Disabled bool `yaml:"disabled"`

	// InitialDelay is the first backoff delay.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier is the backoff growth factor.
	Multiplier float64 `yaml:"multiplier"`

	// Jitter is the maximum random fraction added to each delay.
	Jitter float64 `yaml:"jitter"`
}

// Default returns the default client configuration.
func Default() *Config {
	return &Config{
		Servers:        []string{"localhost:4333"},
		MaxMessageSize: 65536,
		ConnectTimeout: 30 * time.Second,
		Reconnect: Reconnect{
			InitialDelay: 1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			Jitter:       0.25,
		},
	}
}

// Load reads a YAML configuration file. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return ErrNoServers
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("tls: cert_file and key_file must be set together")
	}
	if c.MaxMessageSize == 0 {
		return fmt.Errorf("max_message_size must be positive")
	}
	if c.Reconnect.Multiplier != 0 && c.Reconnect.Multiplier <= 1 {
		return fmt.Errorf("reconnect: multiplier must be greater than 1")
	}
	if c.Reconnect.Jitter < 0 || c.Reconnect.Jitter > 1 {
		return fmt.Errorf("reconnect: jitter must be within [0, 1]")
	}
	return nil
}
