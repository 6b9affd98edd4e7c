// Package client implements the Pulse client connection.
//
// A Conn owns one broker connection and the subscription registry that
// multiplexes typed handlers onto wire subscriptions. The generic
// package-level functions (Subscribe, Publish, Request, RespondTo) are the
// public API; they bind Go types to subjects and delegate bookkeeping to
// the registry.
//
// The connection reconnects automatically with exponential backoff and
// replays all live subscriptions after each reconnect, so handlers survive
// broker restarts without application involvement.
package client
