// Package subscription implements the client-side subscription registry for
// Pulse connections.
//
// The registry multiplexes many handler registrations onto a smaller set of
// wire subscriptions: N handlers registered on the same subject (and queue
// group) share exactly one SUB on the wire, and the UNSUB is issued exactly
// once when the last handler is disposed.
//
// # Structure
//
// Each active subject holds one ref-counted Subscription, indexed both by
// wire subscription id and by subject key. Handlers live in a slot list with
// stable integer ids; freed slots are reused to bound memory under churn.
// Registering a handler returns a Handle whose Dispose is the only detach
// path and is safe to call more than once.
//
// # Locking
//
// A single mutex guards both indices, the handler counts, and all slot-list
// mutation. Nothing else is guarded by it: the wire SUB during Subscribe and
// every handler invocation happen after the mutex is released, operating on a
// snapshot taken while it was held. A message dispatched concurrently with a
// detach may therefore still reach a handler that was just removed, or may
// observe the freed slot and skip it; both are accepted outcomes of the
// snapshot discipline.
//
// # Type safety
//
// Every subscription fixes its payload type (and, for request/response
// registrations, its response type) at creation. Later attaches to the same
// subject must declare identical types or fail with ErrTypeConflict; mixing
// plain and request/response registrations on one subject fails with
// ErrCategoryConflict.
package subscription
