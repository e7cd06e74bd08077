package network

import (
	"fmt"
	"log"

	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/tick"
	"github.com/automoto/driftline/shared/transport"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateSynced // bootstrap probe received, clock running on server time
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSynced:
		return "synced"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("ClientState(%d)", int(s))
}

// Resolver maps wire ids to local entities.
type Resolver interface {
	EntityFor(id messages.NetworkID) (donburi.Entity, bool)
}

// Clock reports the local simulation tick.
type Clock interface {
	Current() tick.Timestamp
}

// Client turns server packets into bus events and sends local input upstream.
// It runs on the game goroutine; only the transport is touched from elsewhere.
type Client struct {
	net      transport.Transport
	server   string
	bus      *bus.Bus
	resolver Resolver
	clock    Clock
	strict   bool

	state       ClientState
	established bool

	// last probe seen and the local tick it arrived at, echoed back in every
	// input so the server can measure the round trip
	echoBase tick.Timestamp
	echoRecv tick.Timestamp
	haveEcho bool

	accel mgl64.Vec2
}

var _ bus.Listener = (*Client)(nil)

// NewClient creates a client talking to server over net. With strict set, a
// packet for an unknown network id panics instead of being dropped.
func NewClient(net transport.Transport, server string, b *bus.Bus, resolver Resolver, clock Clock, strict bool) *Client {
	return &Client{
		net:      net,
		server:   server,
		bus:      b,
		resolver: resolver,
		clock:    clock,
		strict:   strict,
		state:    StateConnecting,
	}
}

// Start sends the handshake. Transports that report Connect before any packet
// flows get it again from Poll.
func (c *Client) Start() {
	c.send(messages.EstablishConnection{}, transport.ReliableUnordered)
}

func (c *Client) State() ClientState {
	return c.state
}

// Poll drains the transport and pushes the resulting events onto the bus.
func (c *Client) Poll() {
	for _, ev := range c.net.Poll() {
		switch ev.Kind {
		case transport.Connect:
			log.Printf("[netsync] connected to %s", ev.Addr)
			if c.state == StateConnecting {
				c.state = StateConnected
			}
			if !c.established {
				c.send(messages.EstablishConnection{}, transport.ReliableUnordered)
			}
		case transport.Disconnect, transport.Timeout:
			log.Printf("[netsync] lost %s: %s", ev.Addr, ev.Kind)
			c.state = StateDisconnected
		case transport.Packet:
			c.handlePacket(ev.Payload)
		}
	}
}

func (c *Client) handlePacket(payload []byte) {
	p, err := messages.Decode(payload)
	if err != nil {
		log.Printf("[netsync] dropping packet: %v", err)
		return
	}
	if !messages.ClientBound(p) {
		log.Printf("[netsync] dropping %s: not a server packet", p.Type())
		return
	}

	switch m := p.(type) {
	case messages.EstablishConnection:
		c.established = true
		if c.state == StateConnecting {
			c.state = StateConnected
		}
	case messages.Ping:
		if m.Probe == 0 {
			c.bus.Push(donburi.Null, netcomponents.Timestamp{Timestamp: m.Timestamp})
			c.echoRecv = m.Timestamp
			c.state = StateSynced
		} else {
			c.echoRecv = c.clock.Current()
		}
		c.echoBase = m.Timestamp
		c.haveEcho = true
	case messages.StaticMesh:
		entity, ok := c.resolve(m.NetworkID)
		if !ok {
			return
		}
		c.bus.Push(entity, netcomponents.NetStaticMeshLocation{Timestamp: m.Timestamp, Location: m.Location})
		c.bus.Push(entity, netcomponents.NetStaticMeshVelocity{Timestamp: m.Timestamp, Velocity: m.Velocity})
	case messages.Velocity:
		entity, ok := c.resolve(m.NetworkID)
		if !ok {
			return
		}
		c.bus.Push(entity, netcomponents.NetStaticMeshVelocity{Timestamp: m.Timestamp, Velocity: m.Velocity})
	}
}

func (c *Client) resolve(id messages.NetworkID) (donburi.Entity, bool) {
	entity, ok := c.resolver.EntityFor(id)
	if !ok {
		if c.strict {
			panic(fmt.Sprintf("netsync: unknown network id %d", id))
		}
		log.Printf("[netsync] dropping update for unknown network id %d", id)
	}
	return entity, ok
}

// ReceiveEvent tracks the local input so it can be sent upstream.
func (c *Client) ReceiveEvent(_ donburi.Entity, comp netcomponents.Component) {
	if in, ok := comp.(netcomponents.InputAcceleration); ok {
		c.accel = in.Acceleration
	}
}

// SendInput reports the current input for this tick along with the echoed
// probe. Nothing is sent before the first probe arrives.
func (c *Client) SendInput() {
	if !c.haveEcho || c.state == StateDisconnected {
		return
	}
	now := c.clock.Current()
	c.send(messages.Input{
		Timestamp:    now,
		Echo:         c.echoBase.Add(now.Sub(c.echoRecv)),
		Acceleration: c.accel,
	}, transport.Unreliable)
}

func (c *Client) send(p messages.Packet, mode transport.DeliveryMode) {
	if err := c.net.Send(c.server, messages.Encode(p), mode); err != nil {
		log.Printf("[netsync] send %s: %v", p.Type(), err)
	}
}

// Close hangs up. The client reports StateDisconnected afterwards.
func (c *Client) Close() error {
	c.state = StateDisconnected
	return c.net.Close()
}
