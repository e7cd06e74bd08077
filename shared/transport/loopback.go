package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrClosed      = errors.New("transport: endpoint closed")
	ErrUnknownPeer = errors.New("transport: unknown peer")
)

type inflight struct {
	deliverAt time.Time
	from      string
	payload   []byte
	kind      EventKind
}

// Network is an in-memory switch connecting loopback endpoints. Every packet is
// delayed by the one-way latency and delivered in send order. Time comes from
// the injected clock so tests can drive it by hand.
type Network struct {
	mu        sync.Mutex
	now       func() time.Time
	latency   time.Duration
	timeout   time.Duration
	endpoints map[string]*Endpoint
}

// NewNetwork creates a network with the given one-way latency. A nil clock
// uses time.Now.
func NewNetwork(latency time.Duration, now func() time.Time) *Network {
	if now == nil {
		now = time.Now
	}
	return &Network{
		now:       now,
		latency:   latency,
		endpoints: make(map[string]*Endpoint),
	}
}

// SetLatency changes the one-way delay for packets sent from now on.
func (n *Network) SetLatency(d time.Duration) {
	n.mu.Lock()
	n.latency = d
	n.mu.Unlock()
}

// SetTimeout makes endpoints report Timeout for peers silent longer than d.
// Zero disables timeouts.
func (n *Network) SetTimeout(d time.Duration) {
	n.mu.Lock()
	n.timeout = d
	n.mu.Unlock()
}

// Endpoint registers a new endpoint at addr.
func (n *Network) Endpoint(addr string) *Endpoint {
	n.mu.Lock()
	defer n.mu.Unlock()
	e := &Endpoint{
		net:   n,
		addr:  addr,
		peers: make(map[string]time.Time),
	}
	n.endpoints[addr] = e
	return e
}

// Endpoint is one side of a loopback connection. It implements Transport.
type Endpoint struct {
	net    *Network
	addr   string
	inbox  []inflight
	peers  map[string]time.Time // last time a packet arrived from each peer
	closed bool
}

var _ Transport = (*Endpoint)(nil)

// Addr is the address peers send to.
func (e *Endpoint) Addr() string {
	return e.addr
}

// Send queues payload for delivery to addr after the network latency. The
// delivery mode is accepted but the loopback never drops or reorders.
func (e *Endpoint) Send(addr string, payload []byte, _ DeliveryMode) error {
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	dst, ok := n.endpoints[addr]
	if !ok || dst.closed {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, addr)
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	dst.inbox = append(dst.inbox, inflight{
		deliverAt: n.now().Add(n.latency),
		from:      e.addr,
		payload:   buf,
		kind:      Packet,
	})
	return nil
}

// Poll returns every event due by now. The first packet from an unseen peer
// is preceded by a Connect event.
func (e *Endpoint) Poll() []Event {
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if e.closed {
		return nil
	}
	now := n.now()

	var out []Event
	due := 0
	for _, m := range e.inbox {
		if m.deliverAt.After(now) {
			break
		}
		due++
		if m.kind == Disconnect {
			if _, known := e.peers[m.from]; known {
				delete(e.peers, m.from)
				out = append(out, Event{Kind: Disconnect, Addr: m.from})
			}
			continue
		}
		if _, known := e.peers[m.from]; !known {
			out = append(out, Event{Kind: Connect, Addr: m.from})
		}
		e.peers[m.from] = m.deliverAt
		out = append(out, Event{Kind: Packet, Addr: m.from, Payload: m.payload})
	}
	e.inbox = e.inbox[due:]

	if n.timeout > 0 {
		for peer, last := range e.peers {
			if now.Sub(last) > n.timeout {
				delete(e.peers, peer)
				out = append(out, Event{Kind: Timeout, Addr: peer})
			}
		}
	}
	return out
}

// Close disconnects the endpoint. Every peer that has heard from it receives a
// Disconnect after the network latency.
func (e *Endpoint) Close() error {
	n := e.net
	n.mu.Lock()
	defer n.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	delete(n.endpoints, e.addr)
	at := n.now().Add(n.latency)
	for _, other := range n.endpoints {
		other.inbox = append(other.inbox, inflight{deliverAt: at, from: e.addr, kind: Disconnect})
	}
	return nil
}
