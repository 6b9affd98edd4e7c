package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrConnectionClosed indicates I/O on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// ClientConfig configures a Pulse transport client.
type ClientConfig struct {
	// TLSConfig contains TLS settings.
	TLSConfig *TLSConfig

	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout is the connection timeout (default: 30s).
	ConnectTimeout time.Duration
}

// Client dials TLS connections to Pulse brokers.
type Client struct {
	config  ClientConfig
	tlsConf *tls.Config
}

// NewClient creates a new transport client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	if config.TLSConfig == nil {
		return nil, fmt.Errorf("TLSConfig is required")
	}

	tlsConf, err := NewClientTLSConfig(config.TLSConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS config: %w", err)
	}

	return &Client{
		config:  config,
		tlsConf: tlsConf,
	}, nil
}

// Connect establishes a connection to the specified broker address.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	// Dial TCP connection
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	// TLS handshake
	tlsConn := tls.Client(conn, c.tlsConf)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("TLS handshake failed: %w", err)
	}

	// Verify TLS version and ALPN
	state := tlsConn.ConnectionState()
	if err := VerifyConnection(state); err != nil {
		tlsConn.Close()
		return nil, fmt.Errorf("connection verification failed: %w", err)
	}

	clientConn := &ClientConn{
		conn:     tlsConn,
		framer:   NewFramerWithMaxSize(tlsConn, c.config.MaxMessageSize),
		tlsState: state,
		closeCh:  make(chan struct{}),
	}

	return clientConn, nil
}

// ClientConn represents an established connection to a broker.
type ClientConn struct {
	conn     *tls.Conn
	framer   *Framer
	tlsState tls.ConnectionState
	closeCh  chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// TLSState returns the TLS connection state.
func (c *ClientConn) TLSState() tls.ConnectionState {
	return c.tlsState
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send sends an encoded frame to the broker.
func (c *ClientConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	return c.framer.WriteFrame(data)
}

// Receive receives a frame from the broker with timeout.
// A timeout of zero blocks until a frame arrives or the connection fails.
func (c *ClientConn) Receive(timeout time.Duration) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	return c.framer.ReadFrame()
}

// SetLogger configures frame logging for this connection.
// Pass nil to disable logging.
func (c *ClientConn) SetLogger(logger *zap.Logger, connID string) {
	c.framer.SetLogger(logger, connID)
}

// Close closes the connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
