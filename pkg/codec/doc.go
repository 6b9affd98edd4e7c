// Package codec bridges raw wire payloads and typed Go handlers. It decodes
// CBOR payloads into the registered payload type and calls the handler
// functions through reflection, so the registry itself never touches payload
// bytes or handler signatures.
package codec
