package network

import (
	"testing"
	"time"

	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/tick"
	"github.com/automoto/driftline/shared/transport"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

type fixedClock tick.Timestamp

func (c fixedClock) Current() tick.Timestamp { return tick.Timestamp(c) }

type idTable map[messages.NetworkID]donburi.Entity

func (m idTable) EntityFor(id messages.NetworkID) (donburi.Entity, bool) {
	e, ok := m[id]
	return e, ok
}

// clientRig is a client wired to a bare server endpoint on a zero-latency
// loopback, so every packet sent is visible on the next Poll.
type clientRig struct {
	server *transport.Endpoint
	client *Client
	bus    *bus.Bus
	mesh   donburi.Entity
}

func newClientRig(strict bool) *clientRig {
	now := time.Unix(0, 0)
	n := transport.NewNetwork(0, func() time.Time { return now })
	world := donburi.NewWorld()
	r := &clientRig{
		server: n.Endpoint("server"),
		bus:    bus.New(world),
		mesh:   world.Create(),
	}
	r.client = NewClient(n.Endpoint("client"), "server", r.bus, idTable{1: r.mesh}, fixedClock(0), strict)
	return r
}

func (r *clientRig) send(t *testing.T, payload []byte) {
	t.Helper()
	if err := r.server.Send("client", payload, transport.ReliableUnordered); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func (r *clientRig) events() []bus.Event {
	var out []bus.Event
	r.bus.Distribute(bus.ListenerFunc(func(e donburi.Entity, c netcomponents.Component) {
		out = append(out, bus.Event{Entity: e, Component: c})
	}))
	return out
}

func TestClientStateTransitions(t *testing.T) {
	r := newClientRig(false)
	if r.client.State() != StateConnecting {
		t.Fatalf("initial state = %s", r.client.State())
	}

	r.client.Start()
	got := r.server.Poll()
	if len(got) != 2 || got[0].Kind != transport.Connect || got[1].Kind != transport.Packet {
		t.Fatalf("server saw %v", got)
	}
	if p, err := messages.Decode(got[1].Payload); err != nil || p.Type() != messages.TypeEstablishConnection {
		t.Fatalf("handshake = %v, %v", p, err)
	}

	r.send(t, messages.Encode(messages.EstablishConnection{}))
	r.client.Poll()
	if r.client.State() != StateConnected {
		t.Fatalf("after handshake state = %s", r.client.State())
	}

	r.send(t, messages.Encode(messages.Ping{Timestamp: 500}))
	r.client.Poll()
	if r.client.State() != StateSynced {
		t.Fatalf("after first ping state = %s", r.client.State())
	}
	evs := r.events()
	if len(evs) != 1 || evs[0].Entity != donburi.Null {
		t.Fatalf("events = %+v", evs)
	}
	if ts, ok := evs[0].Component.(netcomponents.Timestamp); !ok || ts.Timestamp != 500 {
		t.Fatalf("clock reset = %+v", evs[0].Component)
	}

	if err := r.server.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	r.client.Poll()
	if r.client.State() != StateDisconnected {
		t.Fatalf("after server hangup state = %s", r.client.State())
	}
}

func TestClientCloseDisconnects(t *testing.T) {
	r := newClientRig(false)
	if err := r.client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.client.State() != StateDisconnected {
		t.Fatalf("state = %s", r.client.State())
	}
	if got := r.server.Poll(); len(got) != 0 {
		t.Fatalf("client that never sent should not be seen, got %v", got)
	}
}

func TestClientDropsUnknownNetworkID(t *testing.T) {
	r := newClientRig(false)
	r.send(t, messages.Encode(messages.Velocity{Timestamp: 10, NetworkID: 7, Velocity: mgl64.Vec3{1, 0, 0}}))
	r.send(t, messages.Encode(messages.StaticMesh{Timestamp: 10, NetworkID: 8}))
	r.client.Poll()

	if evs := r.events(); len(evs) != 0 {
		t.Fatalf("unknown ids produced %+v", evs)
	}
	if r.client.State() == StateDisconnected || r.client.State() == StateError {
		t.Fatalf("state = %s", r.client.State())
	}
}

func TestStrictClientPanicsOnUnknownNetworkID(t *testing.T) {
	r := newClientRig(true)
	r.send(t, messages.Encode(messages.Velocity{Timestamp: 10, NetworkID: 7}))

	defer func() {
		if recover() == nil {
			t.Fatalf("strict client accepted an unknown network id")
		}
	}()
	r.client.Poll()
}

func TestClientSurvivesMalformedPacket(t *testing.T) {
	r := newClientRig(true)
	good := messages.Encode(messages.Velocity{Timestamp: 42, NetworkID: 1, Velocity: mgl64.Vec3{0, 3, 0}})

	r.send(t, []byte{0xff})
	r.send(t, good[:len(good)-1])
	r.send(t, append(append([]byte{}, good...), 0))
	r.send(t, good)
	r.client.Poll()

	evs := r.events()
	if len(evs) != 1 || evs[0].Entity != r.mesh {
		t.Fatalf("events = %+v", evs)
	}
	v, ok := evs[0].Component.(netcomponents.NetStaticMeshVelocity)
	if !ok || v.Timestamp != 42 || v.Velocity != (mgl64.Vec3{0, 3, 0}) {
		t.Fatalf("velocity = %+v", evs[0].Component)
	}
}

func TestClientRejectsServerBoundPacket(t *testing.T) {
	r := newClientRig(true)
	r.send(t, messages.Encode(messages.Input{Timestamp: 5, Echo: 1, Acceleration: mgl64.Vec2{1, 1}}))
	r.send(t, messages.Encode(messages.StaticMesh{Timestamp: 6, NetworkID: 1, Location: mgl64.Vec3{2, 2, 0}}))
	r.client.Poll()

	evs := r.events()
	if len(evs) != 2 {
		t.Fatalf("events = %+v", evs)
	}
	if loc, ok := evs[0].Component.(netcomponents.NetStaticMeshLocation); !ok || loc.Timestamp != 6 {
		t.Fatalf("first event = %+v", evs[0].Component)
	}
	if r.client.State() != StateConnected {
		t.Fatalf("state = %s", r.client.State())
	}
}
