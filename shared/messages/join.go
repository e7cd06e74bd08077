package messages

import "github.com/automoto/driftline/shared/tick"

// EstablishConnection is the handshake packet. The client sends it once after
// the transport connects and the server answers with the same packet.
type EstablishConnection struct{}

// Ping carries the server clock to a client. Probe zero is the bootstrap probe
// the client resets its local clock from; later probes only feed the offset
// estimate.
type Ping struct {
	Timestamp tick.Timestamp
	Probe     uint16
}

func (EstablishConnection) Type() PacketType { return TypeEstablishConnection }
func (Ping) Type() PacketType                { return TypePing }

func (p Ping) Stamp() tick.Timestamp { return p.Timestamp }

func (p Ping) shifted(offset int32) Packet {
	p.Timestamp = p.Timestamp.Add(offset)
	return p
}
