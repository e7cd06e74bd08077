// Package transport is the unicast packet interface both binaries are written
// against, together with an in-memory implementation used by tests and by
// single-process play.
package transport

// DeliveryMode selects the delivery guarantee for one packet.
type DeliveryMode int

const (
	Unreliable DeliveryMode = iota
	ReliableSequenced
	ReliableUnordered
)

func (m DeliveryMode) String() string {
	switch m {
	case Unreliable:
		return "unreliable"
	case ReliableSequenced:
		return "reliable-sequenced"
	case ReliableUnordered:
		return "reliable-unordered"
	}
	return "unknown"
}

// EventKind distinguishes what Poll reported.
type EventKind int

const (
	Packet EventKind = iota
	Connect
	Disconnect
	Timeout
)

func (k EventKind) String() string {
	switch k {
	case Packet:
		return "packet"
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Event is one notification from the transport. Payload is set for Packet.
type Event struct {
	Kind    EventKind
	Addr    string
	Payload []byte
}

// Transport sends and receives whole packets addressed by peer address.
// Poll never blocks; it drains everything received since the last call.
type Transport interface {
	Send(addr string, payload []byte, mode DeliveryMode) error
	Poll() []Event
	Close() error
}
