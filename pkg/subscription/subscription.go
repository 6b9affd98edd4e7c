package subscription

import "reflect"

// Subscription is the ref-counted registry entry shared by every handler
// registered on the same subject key. It owns the decision of when the wire
// subscription must be cancelled.
type Subscription struct {
	registry *Registry

	sid     uint64
	key     string
	subject string
	queue   string

	// payloadType is fixed at creation; later attaches must match exactly.
	payloadType reflect.Type

	// responseType is non-nil iff this is a request/response registration.
	responseType reflect.Type

	handlers int
	slots    *slotList

	// removed guards the teardown transition: it happens at most once.
	removed bool
}

func newSubscription(r *Registry, sid uint64, key, subject, queue string, payloadType, responseType reflect.Type) *Subscription {
	return &Subscription{
		registry:     r,
		sid:          sid,
		key:          key,
		subject:      subject,
		queue:        queue,
		payloadType:  payloadType,
		responseType: responseType,
		slots:        newSlotList(),
	}
}

// SID returns the wire subscription id.
func (s *Subscription) SID() uint64 {
	return s.sid
}

// Subject returns the subscribed subject.
func (s *Subscription) Subject() string {
	return s.subject
}

// Queue returns the queue group, or "" for none.
func (s *Subscription) Queue() string {
	return s.queue
}

// IsRequest returns true for request/response registrations.
func (s *Subscription) IsRequest() bool {
	return s.responseType != nil
}

// attachLocked inserts a handler, increments the live-handler count and the
// shared registration metric, and returns the new slot id. The registry
// mutex must be held by the caller.
func (s *Subscription) attachLocked(handler any) int {
	id := s.slots.Add(handler)
	s.handlers++
	s.registry.active.Add(1)
	return id
}

// DetachHandler removes the handler in the given slot. It acquires the
// registry mutex itself; callers must not hold it. When the live-handler
// count reaches zero the subscription is removed from both indices, its slot
// list is disposed, and an UNSUB is posted for its wire id, all within the
// same mutex acquisition and at most once per subscription.
func (s *Subscription) DetachHandler(slot int) {
	r := s.registry
	r.mu.Lock()

	if s.removed {
		r.mu.Unlock()
		return
	}

	s.slots.Remove(slot)
	s.handlers--
	r.active.Add(-1)

	if s.handlers > 0 {
		r.mu.Unlock()
		return
	}

	s.removed = true
	r.removeLocked(s.key, s.sid)
	s.slots.Dispose()

	// PostUnsubscribe is an enqueue by contract: it must not block and must
	// not call back into the registry, so issuing it under the mutex keeps
	// index removal and the UNSUB atomic with respect to racing Subscribes.
	r.conn.PostUnsubscribe(s.sid)
	r.mu.Unlock()
}
