package subscription

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Conn is the connection collaborator the registry issues wire commands
// through. Implemented by the client connection.
type Conn interface {
	// SubscribeAsync sends a wire SUB for the given subscription id. It may
	// block on I/O and may fail; the registry rolls back on failure.
	SubscribeAsync(sid uint64, subject, queue string) error

	// PostUnsubscribe enqueues a wire UNSUB for the given subscription id.
	// It must not block and must not call back into the registry: it is
	// invoked while the registry mutex is held.
	PostUnsubscribe(sid uint64)
}

// Invoker is the payload codec collaborator that deserializes payloads and
// invokes handlers. It is called outside the registry mutex and may take
// arbitrary time.
type Invoker interface {
	// InvokeHandlers decodes data as payloadType and invokes every occupied
	// slot in the snapshot with the decoded value. Nil entries are freed
	// slots and must be skipped.
	InvokeHandlers(payloadType reflect.Type, data []byte, handlers []any)

	// InvokeRequest decodes data as payloadType, invokes the single handler,
	// encodes its result as responseType and publishes it to reply.
	InvokeRequest(payloadType, responseType reflect.Type, data []byte, reply string, handler any) error
}

// Active describes one live wire subscription, as reported by ListActive.
type Active struct {
	SID     uint64
	Subject string
	Queue   string
}

// Registry multiplexes handler registrations onto wire subscriptions for one
// connection. All methods are safe for concurrent use.
type Registry struct {
	conn    Conn
	invoker Invoker
	logger  *zap.Logger

	// active is the process-wide count of live handler registrations,
	// shared with the owning connection for observability. It is updated
	// atomically and is not a guarded invariant of the registry.
	active *atomic.Int64

	mu      sync.Mutex
	nextSID uint64
	bySID   map[uint64]*Subscription
	byKey   map[string]*Subscription
	closed  bool
}

// NewRegistry creates a registry for the given connection and invoker.
// active may be nil, in which case the registry keeps its own counter.
// logger may be nil.
func NewRegistry(conn Conn, invoker Invoker, active *atomic.Int64, logger *zap.Logger) *Registry {
	if active == nil {
		active = &atomic.Int64{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		conn:    conn,
		invoker: invoker,
		logger:  logger,
		active:  active,
		bySID:   make(map[uint64]*Subscription),
		byKey:   make(map[string]*Subscription),
	}
}

// subjectKey builds the index key for a subject and queue group. Distinct
// queue groups on the same subject are distinct registrations.
func subjectKey(subject, queue string) string {
	if queue == "" {
		return subject
	}
	return subject + "|" + queue
}

// Subscribe registers a handler for a subject, creating the wire
// subscription if this is the first handler on the key. handler must be a
// func whose single parameter has the given payload type; the codec invoker
// performs the call. The wire SUB is issued outside the registry mutex and
// only for a newly created subscription; if it fails, the registration is
// rolled back and the transport error returned.
func (r *Registry) Subscribe(subject, queue string, payloadType reflect.Type, handler any) (*Handle, error) {
	return r.subscribe(subject, queue, payloadType, nil, handler)
}

// SubscribeRequest registers a request/response handler for a subject.
// handler must be a func taking the payload type and returning the response
// type and an error. A subject carries either plain or request/response
// registrations, never both.
func (r *Registry) SubscribeRequest(subject string, payloadType, responseType reflect.Type, handler any) (*Handle, error) {
	if responseType == nil {
		return nil, fmt.Errorf("response type must not be nil")
	}
	return r.subscribe(subject, "", payloadType, responseType, handler)
}

func (r *Registry) subscribe(subject, queue string, payloadType, responseType reflect.Type, handler any) (*Handle, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject must not be empty")
	}
	if payloadType == nil {
		return nil, fmt.Errorf("payload type must not be nil")
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	key := subjectKey(subject, queue)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}

	if s, ok := r.byKey[key]; ok {
		// Attach to the existing subscription. No wire traffic: the SUB for
		// this key was already issued when the subscription was created.
		if (s.responseType != nil) != (responseType != nil) {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: subject %q", ErrCategoryConflict, key)
		}
		if s.payloadType != payloadType {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: subject %q registered with payload type %v, got %v",
				ErrTypeConflict, key, s.payloadType, payloadType)
		}
		if responseType != nil && s.responseType != responseType {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: subject %q registered with response type %v, got %v",
				ErrTypeConflict, key, s.responseType, responseType)
		}

		slot := s.attachLocked(handler)
		r.mu.Unlock()
		return &Handle{sub: s, slot: slot}, nil
	}

	// First handler on this key: allocate the next wire id and index the new
	// subscription before releasing the mutex, so a racing Subscribe on the
	// same key attaches instead of double-subscribing.
	r.nextSID++
	sid := r.nextSID
	s := newSubscription(r, sid, key, subject, queue, payloadType, responseType)
	slot := s.attachLocked(handler)
	r.bySID[sid] = s
	r.byKey[key] = s
	r.mu.Unlock()

	h := &Handle{sub: s, slot: slot}

	if err := r.conn.SubscribeAsync(sid, subject, queue); err != nil {
		// Roll back through the normal detach path: the handle disposal
		// removes both index entries and reverts the counters.
		h.Dispose()
		return nil, fmt.Errorf("subscribe %q: %w", subject, err)
	}

	r.logger.Debug("wire subscription created",
		zap.Uint64("sid", sid),
		zap.String("subject", subject),
		zap.String("queue", queue))

	return h, nil
}

// DispatchToHandlers delivers a payload to every handler of the given wire
// id. An unknown id is dropped silently: it is the expected race between a
// late message and a completed unsubscribe, not an error. Handlers are
// invoked outside the registry mutex on a snapshot of the slot list.
func (r *Registry) DispatchToHandlers(sid uint64, payload []byte) {
	r.mu.Lock()
	s, ok := r.bySID[sid]
	if !ok {
		r.mu.Unlock()
		return
	}
	if s.responseType != nil {
		r.mu.Unlock()
		r.logger.Debug("dropping plain message for request/response subscription",
			zap.Uint64("sid", sid), zap.String("subject", s.subject))
		return
	}
	snapshot := s.slots.Snapshot()
	payloadType := s.payloadType
	r.mu.Unlock()

	r.invoker.InvokeHandlers(payloadType, payload, snapshot)
}

// DispatchToRequestHandler delivers a request payload to the responder for
// the given wire id. The first occupied slot in the snapshot answers;
// additional handlers registered on the same subject are ignored for this
// message. An unknown id is dropped silently. Dispatching a request to a
// subscription that is not a request/response registration fails with
// ErrNotRequestSubscription.
func (r *Registry) DispatchToRequestHandler(sid uint64, reply string, payload []byte) error {
	r.mu.Lock()
	s, ok := r.bySID[sid]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if s.responseType == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: sid %d subject %q", ErrNotRequestSubscription, sid, s.subject)
	}
	snapshot := s.slots.Snapshot()
	payloadType := s.payloadType
	responseType := s.responseType
	r.mu.Unlock()

	for _, h := range snapshot {
		if h == nil {
			continue
		}
		return r.invoker.InvokeRequest(payloadType, responseType, payload, reply, h)
	}
	return nil
}

// ListActive returns a copy of the live wire subscriptions, ordered by wire
// id. Safe to call concurrently with any other operation.
func (r *Registry) ListActive() []Active {
	r.mu.Lock()
	out := make([]Active, 0, len(r.bySID))
	for _, s := range r.bySID {
		out = append(out, Active{SID: s.sid, Subject: s.subject, Queue: s.queue})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SID < out[j].SID })
	return out
}

// Dispose tears down the registry. Every subscription's slot list is
// disposed and both indices are cleared. No UNSUB is issued per
// subscription: the owning connection is shutting the transport down itself.
// Subscribe fails after Dispose; dispatch returns silently.
func (r *Registry) Dispose() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, s := range r.bySID {
		s.removed = true
		r.active.Add(int64(-s.handlers))
		s.handlers = 0
		s.slots.Dispose()
	}
	r.bySID = make(map[uint64]*Subscription)
	r.byKey = make(map[string]*Subscription)
	r.mu.Unlock()
}

// removeLocked deletes both index entries for a subscription. The registry
// mutex must be held.
func (r *Registry) removeLocked(key string, sid uint64) {
	delete(r.byKey, key)
	delete(r.bySID, sid)
}

// ActiveHandlers returns the current value of the shared live-handler
// registration counter.
func (r *Registry) ActiveHandlers() int64 {
	return r.active.Load()
}
