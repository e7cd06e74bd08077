package messages

import (
	"github.com/automoto/driftline/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
)

// NetworkID names a networked object on the wire. Client and server each map it
// to their own entity.
type NetworkID uint16

// StaticMesh is a full update: location and velocity of one object at Timestamp.
type StaticMesh struct {
	Timestamp tick.Timestamp
	NetworkID NetworkID
	Location  mgl64.Vec3
	Velocity  mgl64.Vec3
}

// Velocity is the between-full-update delta, sent only when an object's
// velocity changed.
type Velocity struct {
	Timestamp tick.Timestamp
	NetworkID NetworkID
	Velocity  mgl64.Vec3
}

func (StaticMesh) Type() PacketType { return TypeStaticMesh }
func (Velocity) Type() PacketType   { return TypeVelocity }

func (p StaticMesh) Stamp() tick.Timestamp { return p.Timestamp }
func (p Velocity) Stamp() tick.Timestamp   { return p.Timestamp }

func (p StaticMesh) shifted(offset int32) Packet {
	p.Timestamp = p.Timestamp.Add(offset)
	return p
}

func (p Velocity) shifted(offset int32) Packet {
	p.Timestamp = p.Timestamp.Add(offset)
	return p
}
