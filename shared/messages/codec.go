// Package messages defines the packets exchanged between client and server and
// their binary encoding.
//
// Every packet starts with a two byte header: the protocol version followed by
// the packet type. Fields follow in declaration order, little-endian, with
// vectors as consecutive float64 components.
package messages

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
)

type PacketType uint8

const (
	TypeEstablishConnection PacketType = iota + 1
	TypeInput
	TypePing
	TypeStaticMesh
	TypeVelocity
)

func (t PacketType) String() string {
	switch t {
	case TypeEstablishConnection:
		return "EstablishConnection"
	case TypeInput:
		return "Input"
	case TypePing:
		return "Ping"
	case TypeStaticMesh:
		return "StaticMesh"
	case TypeVelocity:
		return "Velocity"
	}
	return fmt.Sprintf("PacketType(%d)", uint8(t))
}

const headerSize = 2

// bodySize is the exact payload length after the header for each type.
var bodySize = map[PacketType]int{
	TypeEstablishConnection: 0,
	TypeInput:               4 + 4 + 2*8,
	TypePing:                4 + 2,
	TypeStaticMesh:          4 + 2 + 3*8 + 3*8,
	TypeVelocity:            4 + 2 + 3*8,
}

var (
	ErrShortPacket   = errors.New("messages: packet too short")
	ErrTrailingBytes = errors.New("messages: trailing bytes after packet")
	ErrVersion       = errors.New("messages: unsupported protocol version")
	ErrUnknownPacket = errors.New("messages: unknown packet type")
)

// Packet is implemented by every message type in this package.
type Packet interface {
	Type() PacketType
}

// Stamped packets carry a simulation timestamp that crosses the clock boundary
// between server and client.
type Stamped interface {
	Packet
	Stamp() tick.Timestamp
	shifted(offset int32) Packet
}

// Shift moves the timestamp of p by offset ticks. Packets without a timestamp
// are returned unchanged.
func Shift(p Packet, offset int32) Packet {
	if s, ok := p.(Stamped); ok {
		return s.shifted(offset)
	}
	return p
}

// ClientBound reports whether p is a packet the server sends to clients.
func ClientBound(p Packet) bool {
	switch p.Type() {
	case TypeEstablishConnection, TypePing, TypeStaticMesh, TypeVelocity:
		return true
	}
	return false
}

// ServerBound reports whether p is a packet clients send to the server.
func ServerBound(p Packet) bool {
	switch p.Type() {
	case TypeEstablishConnection, TypeInput:
		return true
	}
	return false
}

// Encode serializes p with its header.
func Encode(p Packet) []byte {
	t := p.Type()
	buf := make([]byte, 0, headerSize+bodySize[t])
	buf = append(buf, netconfig.ProtocolVersion, byte(t))

	switch m := p.(type) {
	case EstablishConnection:
	case Input:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Timestamp))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Echo))
		buf = appendVec(buf, m.Acceleration[:])
	case Ping:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Timestamp))
		buf = binary.LittleEndian.AppendUint16(buf, m.Probe)
	case StaticMesh:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Timestamp))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(m.NetworkID))
		buf = appendVec(buf, m.Location[:])
		buf = appendVec(buf, m.Velocity[:])
	case Velocity:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Timestamp))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(m.NetworkID))
		buf = appendVec(buf, m.Velocity[:])
	default:
		panic(fmt.Sprintf("messages: cannot encode %T", p))
	}
	return buf
}

// Decode parses one packet. The buffer must contain exactly one packet.
func Decode(b []byte) (Packet, error) {
	if len(b) < headerSize {
		return nil, ErrShortPacket
	}
	if b[0] != netconfig.ProtocolVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, b[0])
	}
	t := PacketType(b[1])
	size, ok := bodySize[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPacket, b[1])
	}
	body := b[headerSize:]
	if len(body) < size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPacket, t, size, len(body))
	}
	if len(body) > size {
		return nil, fmt.Errorf("%w: %s", ErrTrailingBytes, t)
	}

	r := reader{buf: body}
	switch t {
	case TypeEstablishConnection:
		return EstablishConnection{}, nil
	case TypeInput:
		var m Input
		m.Timestamp = tick.Timestamp(r.u32())
		m.Echo = tick.Timestamp(r.u32())
		r.vec(m.Acceleration[:])
		return m, nil
	case TypePing:
		var m Ping
		m.Timestamp = tick.Timestamp(r.u32())
		m.Probe = r.u16()
		return m, nil
	case TypeStaticMesh:
		var m StaticMesh
		m.Timestamp = tick.Timestamp(r.u32())
		m.NetworkID = NetworkID(r.u16())
		r.vec(m.Location[:])
		r.vec(m.Velocity[:])
		return m, nil
	default:
		var m Velocity
		m.Timestamp = tick.Timestamp(r.u32())
		m.NetworkID = NetworkID(r.u16())
		r.vec(m.Velocity[:])
		return m, nil
	}
}

func appendVec(buf []byte, v []float64) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	return buf
}

// reader walks a body whose length has already been validated.
type reader struct {
	buf []byte
	off int
}

func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) vec(dst []float64) {
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(r.buf[r.off:]))
		r.off += 8
	}
}

// Vec3 widens a planar vector to the simulation's 3D space.
func Vec3(v mgl64.Vec2) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], 0}
}
