// Package transport provides the Pulse client transport layer.
//
// The transport layer handles:
//   - TLS 1.3 connections to brokers
//   - Length-prefixed message framing
//   - Connection lifecycle (dial, send, receive, close)
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Frames               │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│         TLS 1.3                │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # TLS Requirements
//
// Pulse requires TLS 1.3 with no fallback to earlier versions and the
// "pulse/1" ALPN protocol. Client certificates are optional; brokers that
// require mutual TLS reject connections without one during the handshake.
package transport
