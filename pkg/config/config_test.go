package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"localhost:4333"}, cfg.Servers)
	assert.Equal(t, uint32(65536), cfg.MaxMessageSize)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 1*time.Second, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 60*time.Second, cfg.Reconnect.MaxDelay)
	assert.False(t, cfg.Reconnect.Disabled)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
servers:
  - broker-1.example.com:4333
  - broker-2.example.com:4333
tls:
  ca_file: /etc/pulse/ca.pem
  server_name: broker.example.com
reconnect:
  initial_delay: 500ms
  max_delay: 10s
max_message_size: 131072
connect_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1.example.com:4333", "broker-2.example.com:4333"}, cfg.Servers)
	assert.Equal(t, "/etc/pulse/ca.pem", cfg.TLS.CAFile)
	assert.Equal(t, "broker.example.com", cfg.TLS.ServerName)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Reconnect.MaxDelay)
	assert.Equal(t, uint32(131072), cfg.MaxMessageSize)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)

	// Unspecified fields keep defaults.
	assert.Equal(t, 2.0, cfg.Reconnect.Multiplier)
	assert.Equal(t, 0.25, cfg.Reconnect.Jitter)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "servers: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "no servers",
			mutate:  func(c *Config) { c.Servers = nil },
			wantErr: "no broker servers",
		},
		{
			name:    "cert without key",
			mutate:  func(c *Config) { c.TLS.CertFile = "client.pem" },
			wantErr: "must be set together",
		},
		{
			name:    "key without cert",
			mutate:  func(c *Config) { c.TLS.KeyFile = "client.key" },
			wantErr: "must be set together",
		},
		{
			name:    "zero max message size",
			mutate:  func(c *Config) { c.MaxMessageSize = 0 },
			wantErr: "max_message_size",
		},
		{
			name:    "multiplier at most one",
			mutate:  func(c *Config) { c.Reconnect.Multiplier = 1.0 },
			wantErr: "multiplier",
		},
		{
			name:    "jitter out of range",
			mutate:  func(c *Config) { c.Reconnect.Jitter = 1.5 },
			wantErr: "jitter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
