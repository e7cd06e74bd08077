package messages

import (
	"github.com/automoto/driftline/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
)

// Input is sent from client to server every client tick.
// Echo is the last server ping timestamp advanced by the ticks the client held it,
// which lets the server measure the round trip without a separate pong.
type Input struct {
	Timestamp    tick.Timestamp // client clock when sent
	Echo         tick.Timestamp
	Acceleration mgl64.Vec2
}

func (Input) Type() PacketType { return TypeInput }

func (p Input) Stamp() tick.Timestamp { return p.Timestamp }

func (p Input) shifted(offset int32) Packet {
	p.Timestamp = p.Timestamp.Add(offset)
	return p
}
