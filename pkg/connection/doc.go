// Package connection manages the lifecycle of a broker connection.
//
// The Manager tracks connection state and drives automatic reconnection
// with exponential backoff and jitter. It does not perform I/O itself:
// the owning client supplies a ConnectFunc that dials the broker and
// calls NotifyConnectionLost when its read loop fails.
//
// Backoff follows the sequence 1s, 2s, 4s, ... capped at 60s, with up to
// 25% random jitter added to each delay so a fleet of clients does not
// reconnect in lockstep after a broker restart.
package connection
