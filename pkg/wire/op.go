package wire

// Op identifies a Pulse protocol operation.
type Op uint8

const (
	// OpSub registers a wire subscription for a subject.
	// Direction: client to broker.
	OpSub Op = 1

	// OpUnsub cancels a wire subscription.
	// Direction: client to broker.
	OpUnsub Op = 2

	// OpPub publishes a payload to a subject.
	// Direction: client to broker.
	OpPub Op = 3

	// OpMsg delivers a payload for a wire subscription id.
	// Direction: broker to client.
	OpMsg Op = 4

	// OpPing probes connection liveness.
	OpPing Op = 5

	// OpPong answers a ping, echoing its sequence number.
	OpPong Op = 6

	// OpClose initiates graceful connection close.
	OpClose Op = 7
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpSub:
		return "SUB"
	case OpUnsub:
		return "UNSUB"
	case OpPub:
		return "PUB"
	case OpMsg:
		return "MSG"
	case OpPing:
		return "PING"
	case OpPong:
		return "PONG"
	case OpClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the operation is a known Pulse operation.
func (o Op) IsValid() bool {
	return o >= OpSub && o <= OpClose
}
