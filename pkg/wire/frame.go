package wire

import (
	"fmt"
)

// CBOR map keys for frame encoding.
const (
	KeyOp      = 1
	KeySID     = 2
	KeySubject = 3
	KeyQueue   = 4
	KeyReply   = 5
	KeyPayload = 6
	KeySeq     = 7
)

// Frame is the single wire-level message of the Pulse protocol.
//
// CBOR encoding:
//
//	{
//	  1: op,       // uint8
//	  2: sid,      // uint64: wire subscription id (SUB, UNSUB, MSG)
//	  3: subject,  // string (SUB, PUB, MSG)
//	  4: queue,    // string: queue group (SUB)
//	  5: reply,    // string: reply subject (PUB, MSG)
//	  6: payload,  // bytes: application payload (PUB, MSG)
//	  7: seq       // uint32: sequence number (PING, PONG)
//	}
//
// Keys that do not apply to an operation are absent.
type Frame struct {
	Op      Op     `cbor:"1,keyasint"`
	SID     uint64 `cbor:"2,keyasint,omitempty"`
	Subject string `cbor:"3,keyasint,omitempty"`
	Queue   string `cbor:"4,keyasint,omitempty"`
	Reply   string `cbor:"5,keyasint,omitempty"`
	Payload []byte `cbor:"6,keyasint,omitempty"`
	Seq     uint32 `cbor:"7,keyasint,omitempty"`
}

// Validate checks that the frame is well formed for its operation.
func (f *Frame) Validate() error {
	if !f.Op.IsValid() {
		return fmt.Errorf("invalid operation: %d", uint8(f.Op))
	}

	switch f.Op {
	case OpSub:
		if f.SID == 0 {
			return fmt.Errorf("SUB requires a non-zero sid")
		}
		if f.Subject == "" {
			return fmt.Errorf("SUB requires a subject")
		}
	case OpUnsub:
		if f.SID == 0 {
			return fmt.Errorf("UNSUB requires a non-zero sid")
		}
	case OpPub:
		if f.Subject == "" {
			return fmt.Errorf("PUB requires a subject")
		}
	case OpMsg:
		if f.SID == 0 {
			return fmt.Errorf("MSG requires a non-zero sid")
		}
		if f.Subject == "" {
			return fmt.Errorf("MSG requires a subject")
		}
	}

	return nil
}

// Sub builds a SUB frame for a wire subscription.
func Sub(sid uint64, subject, queue string) *Frame {
	return &Frame{Op: OpSub, SID: sid, Subject: subject, Queue: queue}
}

// Unsub builds an UNSUB frame for a wire subscription.
func Unsub(sid uint64) *Frame {
	return &Frame{Op: OpUnsub, SID: sid}
}

// Pub builds a PUB frame. reply may be empty for fire-and-forget publishes.
func Pub(subject, reply string, payload []byte) *Frame {
	return &Frame{Op: OpPub, Subject: subject, Reply: reply, Payload: payload}
}

// Msg builds a MSG frame as delivered by a broker.
func Msg(sid uint64, subject, reply string, payload []byte) *Frame {
	return &Frame{Op: OpMsg, SID: sid, Subject: subject, Reply: reply, Payload: payload}
}

// Ping builds a PING frame with the given sequence number.
func Ping(seq uint32) *Frame {
	return &Frame{Op: OpPing, Seq: seq}
}

// Pong builds a PONG frame answering the given sequence number.
func Pong(seq uint32) *Frame {
	return &Frame{Op: OpPong, Seq: seq}
}

// Close builds a CLOSE frame.
func Close() *Frame {
	return &Frame{Op: OpClose}
}
