// Package wire defines the CBOR wire format for the Pulse protocol.
//
// Pulse uses CBOR (RFC 8949) with integer map keys for compact encoding.
// Every frame is length-prefixed and transmitted over TLS 1.3.
//
// # Frame Model
//
// All traffic is carried by a single Frame structure whose meaning is
// determined by its operation:
//   - SUB/UNSUB: client registers or cancels a wire subscription
//   - PUB: client publishes a payload to a subject
//   - MSG: broker delivers a payload for a wire subscription id
//   - PING/PONG: liveness probes
//   - CLOSE: graceful connection shutdown
//
// # CBOR Integer Keys
//
// All maps use integer keys for compactness. The key mappings are defined
// as constants in this package. Absent keys are omitted from the encoding.
package wire
