package subscription

import "sync/atomic"

// Handle represents one registered handler. Disposing the handle is the only
// way the handler is ever detached; there is no remove-by-id API.
type Handle struct {
	sub      *Subscription
	slot     int
	released atomic.Bool
}

// Subject returns the subject this handle's handler is registered on.
func (h *Handle) Subject() string {
	return h.sub.subject
}

// Queue returns the queue group of the underlying subscription, or "".
func (h *Handle) Queue() string {
	return h.sub.queue
}

// SID returns the wire subscription id the handler is attached to.
func (h *Handle) SID() uint64 {
	return h.sub.sid
}

// Dispose detaches the handler. The first call drives the detach path; every
// later call is a no-op. Dispose never fails.
func (h *Handle) Dispose() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.sub.DetachHandler(h.slot)
}
