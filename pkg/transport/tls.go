package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
)

// TLS constants for the Pulse protocol.
const (
	// ALPN protocol identifier for Pulse.
	ALPNProtocol = "pulse/1"

	// DefaultPort is the default Pulse broker port.
	DefaultPort = 4333
)

// TLSConfig holds configuration for Pulse TLS connections.
type TLSConfig struct {
	// Certificate is the optional client certificate. Brokers that require
	// mutual TLS reject the handshake when it is absent.
	Certificate *tls.Certificate

	// RootCAs is the pool of trusted CA certificates for verifying the
	// broker. Nil means the host's root set.
	RootCAs *x509.CertPool

	// ServerName is the expected broker name for certificate verification.
	ServerName string

	// InsecureSkipVerify disables certificate verification.
	// Only for testing - never use in production!
	InsecureSkipVerify bool

	// VerifyPeerCertificate is an optional callback for custom certificate verification.
	VerifyPeerCertificate func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error
}

// NewClientTLSConfig creates a TLS configuration for a Pulse client.
func NewClientTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("TLSConfig is required")
	}

	tlsConfig := &tls.Config{
		// TLS 1.3 only - no fallback
		MinVersion: tls.VersionTLS13,
		MaxVersion: tls.VersionTLS13,

		// CA pool for verifying broker certificates
		RootCAs: cfg.RootCAs,

		// Broker name for verification
		ServerName: cfg.ServerName,

		// ALPN protocol
		NextProtos: []string{ALPNProtocol},

		// Curve preferences for key exchange
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},

		// Session tickets disabled (no resumption)
		SessionTicketsDisabled: true,

		// Custom verification callback
		VerifyPeerCertificate: cfg.VerifyPeerCertificate,

		// For testing only
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.Certificate != nil {
		tlsConfig.Certificates = []tls.Certificate{*cfg.Certificate}
	}

	return tlsConfig, nil
}

// VerifyTLS13 checks that a TLS connection is using TLS 1.3.
func VerifyTLS13(state tls.ConnectionState) error {
	if state.Version != tls.VersionTLS13 {
		return fmt.Errorf("TLS version %x is not TLS 1.3 (0x0304)", state.Version)
	}
	return nil
}

// VerifyALPN checks that the negotiated ALPN protocol is correct.
func VerifyALPN(state tls.ConnectionState) error {
	if state.NegotiatedProtocol != ALPNProtocol {
		return fmt.Errorf("ALPN protocol %q is not %q", state.NegotiatedProtocol, ALPNProtocol)
	}
	return nil
}

// VerifyConnection performs standard Pulse connection verification.
func VerifyConnection(state tls.ConnectionState) error {
	if err := VerifyTLS13(state); err != nil {
		return err
	}
	if err := VerifyALPN(state); err != nil {
		return err
	}
	return nil
}
