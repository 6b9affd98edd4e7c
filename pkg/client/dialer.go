package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/pulse-protocol/pulse-go/pkg/config"
	"github.com/pulse-protocol/pulse-go/pkg/transport"
)

// newDialer builds the production dialer from the TLS settings in cfg.
func newDialer(cfg *config.Config) (Dialer, error) {
	tlsConf := &transport.TLSConfig{
		ServerName:         cfg.TLS.ServerName,
		InsecureSkipVerify: cfg.TLS.Insecure,
	}

	if cfg.TLS.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConf.Certificate = &cert
	}

	if cfg.TLS.CAFile != "" {
		pem, err := os.ReadFile(cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.TLS.CAFile)
		}
		tlsConf.RootCAs = pool
	}

	tcpClient, err := transport.NewClient(transport.ClientConfig{
		TLSConfig:      tlsConf,
		MaxMessageSize: cfg.MaxMessageSize,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, address string) (Transport, error) {
		return tcpClient.Connect(ctx, address)
	}, nil
}
