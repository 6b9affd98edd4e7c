package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pulse-protocol/pulse-go/pkg/config"
	"github.com/pulse-protocol/pulse-go/pkg/wire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTransport is an in-memory Transport. Sent frames are decoded and
// recorded; incoming frames are injected through deliver.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []*wire.Frame
	sendErr error

	incoming  chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (t *fakeTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	frame, err := wire.DecodeFrame(data)
	if err != nil {
		return err
	}
	t.sent = append(t.sent, frame)
	return nil
}

func (t *fakeTransport) Receive(timeout time.Duration) ([]byte, error) {
	select {
	case data := <-t.incoming:
		return data, nil
	case <-t.closed:
		return nil, io.EOF
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// deliver injects a frame as if the broker sent it.
func (t *fakeTransport) deliver(tb testing.TB, frame *wire.Frame) {
	tb.Helper()
	data, err := wire.EncodeFrame(frame)
	if err != nil {
		tb.Fatalf("EncodeFrame failed: %v", err)
	}
	t.incoming <- data
}

// framesByOp returns the sent frames with the given op.
func (t *fakeTransport) framesByOp(op wire.Op) []*wire.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*wire.Frame
	for _, f := range t.sent {
		if f.Op == op {
			out = append(out, f)
		}
	}
	return out
}

// waitForFrames polls until cond holds for the sent frames of the given op.
func (t *fakeTransport) waitForFrames(op wire.Op, cond func([]*wire.Frame) bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond(t.framesByOp(op)) {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

// fakeDialer hands out a fresh fakeTransport per dial.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	dialErr    error
}

func (d *fakeDialer) dial(ctx context.Context, address string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	t := newFakeTransport()
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.transports) {
		return nil
	}
	return d.transports[i]
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Reconnect.InitialDelay = time.Millisecond
	cfg.Reconnect.MaxDelay = 5 * time.Millisecond
	cfg.Reconnect.Jitter = 0
	return cfg
}

func newConnectedClient(t *testing.T) (*Conn, *fakeDialer) {
	t.Helper()

	dialer := &fakeDialer{}
	c, err := NewWithDialer(testConfig(), dialer.dial, nil)
	if err != nil {
		t.Fatalf("NewWithDialer failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return c, dialer
}

type event struct {
	Name string `cbor:"1,keyasint"`
	Seq  int    `cbor:"2,keyasint"`
}

func TestConnectDialFailure(t *testing.T) {
	dialer := &fakeDialer{dialErr: errors.New("network down")}
	c, err := NewWithDialer(testConfig(), dialer.dial, nil)
	if err != nil {
		t.Fatalf("NewWithDialer failed: %v", err)
	}
	defer c.Close()

	if err := c.Connect(context.Background()); err == nil {
		t.Error("expected connect error when every broker is unreachable")
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after failed connect")
	}
}

func TestSubscribeSendsSub(t *testing.T) {
	c, dialer := newConnectedClient(t)
	tc := dialer.transport(0)

	h, err := Subscribe(c, "orders.created", func(event) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	subs := tc.framesByOp(wire.OpSub)
	if len(subs) != 1 {
		t.Fatalf("SUB frames = %d, want 1", len(subs))
	}
	if subs[0].SID != h.SID() || subs[0].Subject != "orders.created" {
		t.Errorf("SUB frame = %+v", subs[0])
	}
}

func TestSharedSubscriptionSingleWireSub(t *testing.T) {
	c, dialer := newConnectedClient(t)
	tc := dialer.transport(0)

	h1, err := Subscribe(c, "orders.created", func(event) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	h2, err := Subscribe(c, "orders.created", func(event) {})
	if err != nil {
		t.Fatalf("second Subscribe failed: %v", err)
	}

	if got := len(tc.framesByOp(wire.OpSub)); got != 1 {
		t.Errorf("SUB frames = %d, want 1", got)
	}

	h1.Dispose()
	time.Sleep(10 * time.Millisecond)
	if got := len(tc.framesByOp(wire.OpUnsub)); got != 0 {
		t.Errorf("UNSUB sent while a handler is still attached")
	}

	h2.Dispose()
	if !tc.waitForFrames(wire.OpUnsub, func(fs []*wire.Frame) bool {
		return len(fs) == 1 && fs[0].SID == h1.SID()
	}) {
		t.Errorf("UNSUB frames = %+v, want one for sid %d", tc.framesByOp(wire.OpUnsub), h1.SID())
	}
}

func TestIncomingMessageReachesHandler(t *testing.T) {
	c, dialer := newConnectedClient(t)
	tc := dialer.transport(0)

	got := make(chan event, 1)
	h, err := Subscribe(c, "orders.created", func(e event) { got <- e })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	payload, err := wire.Marshal(event{Name: "created", Seq: 7})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	tc.deliver(t, wire.Msg(h.SID(), "orders.created", "", payload))

	select {
	case e := <-got:
		if e.Name != "created" || e.Seq != 7 {
			t.Errorf("handler received %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestUnknownSIDDropped(t *testing.T) {
	c, dialer := newConnectedClient(t)
	tc := dialer.transport(0)

	got := make(chan event, 1)
	if _, err := Subscribe(c, "orders.created", func(e event) { got <- e }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	payload, _ := wire.Marshal(event{Name: "stray"})
	tc.deliver(t, wire.Msg(999, "orders.created", "", payload))

	select {
	case e := <-got:
		t.Errorf("handler invoked for unknown sid: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	_, dialer := newConnectedClient(t)
	tc := dialer.transport(0)

	tc.deliver(t, wire.Ping(42))

	if !tc.waitForFrames(wire.OpPong, func(fs []*wire.Frame) bool {
		return len(fs) == 1 && fs[0].Seq == 42
	}) {
		t.Errorf("PONG frames = %+v, want one with seq 42", tc.framesByOp(wire.OpPong))
	}
}

func TestReconnectReplaysSubscriptions(t *testing.T) {
	c, dialer := newConnectedClient(t)
	tc1 := dialer.transport(0)

	h, err := Subscribe(c, "orders.created", func(event) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	hq, err := SubscribeQueue(c, "orders.created", "workers", func(event) {})
	if err != nil {
		t.Fatalf("SubscribeQueue failed: %v", err)
	}

	// Drop the connection; the manager redials and replays both SUBs.
	tc1.Close()

	deadline := time.Now().Add(5 * time.Second)
	for dialer.dials() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	tc2 := dialer.transport(1)
	if tc2 == nil {
		t.Fatal("client never redialed")
	}

	if !tc2.waitForFrames(wire.OpSub, func(fs []*wire.Frame) bool { return len(fs) == 2 }) {
		t.Fatalf("replayed SUB frames = %+v, want 2", tc2.framesByOp(wire.OpSub))
	}

	// The replay reuses the original wire ids.
	sids := map[uint64]string{}
	for _, f := range tc2.framesByOp(wire.OpSub) {
		sids[f.SID] = f.Queue
	}
	if q, ok := sids[h.SID()]; !ok || q != "" {
		t.Errorf("plain subscription not replayed: %v", sids)
	}
	if q, ok := sids[hq.SID()]; !ok || q != "workers" {
		t.Errorf("queue subscription not replayed: %v", sids)
	}
}

func TestSubscribeWhileDisconnectedRollsBack(t *testing.T) {
	dialer := &fakeDialer{}
	c, err := NewWithDialer(testConfig(), dialer.dial, nil)
	if err != nil {
		t.Fatalf("NewWithDialer failed: %v", err)
	}
	defer c.Close()

	_, err = Subscribe(c, "orders.created", func(event) {})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Subscribe error = %v, want ErrNotConnected", err)
	}
	if got := c.ActiveHandlers(); got != 0 {
		t.Errorf("ActiveHandlers() = %d, want 0 after rollback", got)
	}
	if got := len(c.ActiveSubscriptions()); got != 0 {
		t.Errorf("ActiveSubscriptions() = %v, want empty", c.ActiveSubscriptions())
	}
}

func TestCloseSendsCloseFrame(t *testing.T) {
	c, dialer := newConnectedClient(t)
	tc := dialer.transport(0)

	if _, err := Subscribe(c, "orders.created", func(event) {}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := len(tc.framesByOp(wire.OpClose)); got != 1 {
		t.Errorf("CLOSE frames = %d, want 1", got)
	}
	if got := c.ActiveHandlers(); got != 0 {
		t.Errorf("ActiveHandlers() = %d, want 0 after close", got)
	}

	// Close is idempotent and the API fails afterwards.
	if err := c.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	if err := c.Connect(context.Background()); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Connect after close error = %v, want ErrClientClosed", err)
	}
}
