package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pulse-protocol/pulse-go/pkg/codec"
	"github.com/pulse-protocol/pulse-go/pkg/config"
	"github.com/pulse-protocol/pulse-go/pkg/connection"
	"github.com/pulse-protocol/pulse-go/pkg/subscription"
	"github.com/pulse-protocol/pulse-go/pkg/wire"
)

// Client errors.
var (
	ErrNotConnected = errors.New("not connected to a broker")
	ErrClientClosed = errors.New("client closed")
)

// Transport is the established broker connection the client performs I/O on.
// Implemented by transport.ClientConn.
type Transport interface {
	Send(data []byte) error
	Receive(timeout time.Duration) ([]byte, error)
	Close() error
}

// Dialer establishes a transport connection to a broker address.
type Dialer func(ctx context.Context, address string) (Transport, error)

// Conn is a client connection to a Pulse broker.
type Conn struct {
	cfg    *config.Config
	dial   Dialer
	logger *zap.Logger

	registry *subscription.Registry
	invoker  *codec.Invoker
	manager  *connection.Manager

	// active counts live handler registrations across the registry.
	active atomic.Int64

	mu        sync.RWMutex
	tc        Transport
	serverIdx int

	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates a client from the given configuration. logger may be nil.
// Call Connect to establish the broker connection.
func New(cfg *config.Config, logger *zap.Logger) (*Conn, error) {
	dial, err := newDialer(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithDialer(cfg, dial, logger)
}

// NewWithDialer creates a client using a custom dialer.
func NewWithDialer(cfg *config.Config, dial Dialer, logger *zap.Logger) (*Conn, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Conn{
		cfg:    cfg,
		dial:   dial,
		logger: logger,
	}

	c.invoker = codec.NewInvoker(c, logger)
	c.registry = subscription.NewRegistry(c, c.invoker, &c.active, logger)

	c.manager = connection.NewManagerWithBackoff(c.dialAndStart, connection.BackoffConfig{
		Initial:    cfg.Reconnect.InitialDelay,
		Max:        cfg.Reconnect.MaxDelay,
		Multiplier: cfg.Reconnect.Multiplier,
		Jitter:     cfg.Reconnect.Jitter,
	})
	c.manager.SetAutoReconnect(!cfg.Reconnect.Disabled)
	c.manager.OnReconnecting(func(attempt int, delay time.Duration) {
		logger.Info("reconnecting to broker",
			zap.Int("attempt", attempt), zap.Duration("delay", delay))
	})
	c.manager.OnDisconnected(func() {
		logger.Warn("broker connection lost")
	})
	c.manager.StartReconnectLoop()

	return c, nil
}

// Connect establishes the broker connection. Already-registered
// subscriptions are replayed once connected.
func (c *Conn) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.manager.Connect(ctx)
}

// IsConnected reports whether the client currently holds a broker connection.
func (c *Conn) IsConnected() bool {
	return c.manager.IsConnected()
}

// State returns the connection state.
func (c *Conn) State() connection.State {
	return c.manager.State()
}

// ActiveSubscriptions returns the live wire subscriptions, ordered by id.
func (c *Conn) ActiveSubscriptions() []subscription.Active {
	return c.registry.ListActive()
}

// ActiveHandlers returns the number of live handler registrations.
func (c *Conn) ActiveHandlers() int64 {
	return c.registry.ActiveHandlers()
}

// dialAndStart tries each configured server in order, starting after the one
// that last succeeded. On success it installs the transport, starts the read
// loop and replays live subscriptions.
func (c *Conn) dialAndStart(ctx context.Context) error {
	servers := c.cfg.Servers

	var lastErr error
	for i := range servers {
		c.mu.RLock()
		idx := (c.serverIdx + i) % len(servers)
		c.mu.RUnlock()
		addr := servers[idx]

		tc, err := c.dial(ctx, addr)
		if err != nil {
			c.logger.Debug("dial failed", zap.String("server", addr), zap.Error(err))
			lastErr = err
			continue
		}

		c.mu.Lock()
		c.tc = tc
		c.serverIdx = idx
		c.mu.Unlock()

		c.wg.Add(1)
		go c.readLoop(tc)

		if err := c.resubscribeAll(tc); err != nil {
			c.logger.Warn("subscription replay failed", zap.Error(err))
			tc.Close()
			lastErr = err
			continue
		}

		c.logger.Info("connected to broker", zap.String("server", addr))
		return nil
	}

	return fmt.Errorf("all brokers unreachable: %w", lastErr)
}

// resubscribeAll replays every live wire subscription on a fresh connection.
func (c *Conn) resubscribeAll(tc Transport) error {
	for _, a := range c.registry.ListActive() {
		data, err := wire.EncodeFrame(wire.Sub(a.SID, a.Subject, a.Queue))
		if err != nil {
			return err
		}
		if err := tc.Send(data); err != nil {
			return err
		}
		c.logger.Debug("resubscribed",
			zap.Uint64("sid", a.SID), zap.String("subject", a.Subject))
	}
	return nil
}

// readLoop decodes incoming frames and routes them until the connection
// fails or the client closes.
func (c *Conn) readLoop(tc Transport) {
	defer c.wg.Done()

	for {
		data, err := tc.Receive(0)
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Debug("read loop terminated", zap.Error(err))
			c.dropTransport(tc)
			c.manager.NotifyConnectionLost()
			return
		}

		frame, err := wire.DecodeFrame(data)
		if err != nil {
			c.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		c.handleFrame(tc, frame)
	}
}

func (c *Conn) handleFrame(tc Transport, frame *wire.Frame) {
	switch frame.Op {
	case wire.OpMsg:
		if frame.Reply != "" {
			if err := c.registry.DispatchToRequestHandler(frame.SID, frame.Reply, frame.Payload); err != nil {
				c.logger.Warn("request dispatch failed",
					zap.Uint64("sid", frame.SID), zap.Error(err))
			}
			return
		}
		c.registry.DispatchToHandlers(frame.SID, frame.Payload)

	case wire.OpPing:
		data, err := wire.EncodeFrame(wire.Pong(frame.Seq))
		if err == nil {
			if err := tc.Send(data); err != nil {
				c.logger.Debug("pong failed", zap.Error(err))
			}
		}

	case wire.OpPong:
		// No outstanding ping bookkeeping on the client side.

	case wire.OpClose:
		c.logger.Info("broker requested close")
		tc.Close()

	default:
		c.logger.Warn("unexpected frame from broker", zap.Stringer("op", frame.Op))
	}
}

// dropTransport clears the current transport if it is still tc.
func (c *Conn) dropTransport(tc Transport) {
	c.mu.Lock()
	if c.tc == tc {
		c.tc = nil
	}
	c.mu.Unlock()
	tc.Close()
}

// send transmits an encoded frame on the current transport.
func (c *Conn) send(data []byte) error {
	c.mu.RLock()
	tc := c.tc
	c.mu.RUnlock()

	if tc == nil {
		return ErrNotConnected
	}
	return tc.Send(data)
}

// SubscribeAsync issues a wire SUB for a new subscription. Called by the
// registry outside its mutex.
func (c *Conn) SubscribeAsync(sid uint64, subject, queue string) error {
	data, err := wire.EncodeFrame(wire.Sub(sid, subject, queue))
	if err != nil {
		return err
	}
	return c.send(data)
}

// PostUnsubscribe enqueues a wire UNSUB. Called by the registry while its
// mutex is held, so the actual send happens on a fresh goroutine.
func (c *Conn) PostUnsubscribe(sid uint64) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		data, err := wire.EncodeFrame(wire.Unsub(sid))
		if err != nil {
			return
		}
		if err := c.send(data); err != nil {
			c.logger.Debug("unsubscribe not sent",
				zap.Uint64("sid", sid), zap.Error(err))
		}
	}()
}

// Publish sends an encoded payload to a subject.
func (c *Conn) Publish(subject string, data []byte) error {
	return c.publish(subject, "", data)
}

func (c *Conn) publish(subject, reply string, payload []byte) error {
	data, err := wire.EncodeFrame(wire.Pub(subject, reply, payload))
	if err != nil {
		return err
	}
	return c.send(data)
}

// Close tears down the client: the registry is disposed, a CLOSE frame is
// sent best-effort and the transport is closed. Close is idempotent.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.registry.Dispose()

	c.mu.Lock()
	tc := c.tc
	c.tc = nil
	c.mu.Unlock()

	if tc != nil {
		if data, err := wire.EncodeFrame(wire.Close()); err == nil {
			tc.Send(data)
		}
		tc.Close()
	}

	c.manager.Close()
	c.wg.Wait()
	return nil
}

// Compile-time collaborator checks.
var (
	_ subscription.Conn = (*Conn)(nil)
	_ codec.Publisher   = (*Conn)(nil)
)
