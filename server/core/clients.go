package core

import (
	"log"
	"time"

	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/ksuid"
)

// ClientRecord is everything the server knows about one connected peer.
type ClientRecord struct {
	Addr    string
	Session ksuid.KSUID

	ConnectedAt     tick.Timestamp
	LastPingRequest tick.Timestamp
	LastHeard       tick.Timestamp

	// RTT is the last measured round trip in ticks; Ping is the same as a duration.
	RTT  int32
	Ping time.Duration

	// Offset is added to server timestamps to express them on this client's clock.
	Offset   int32
	HasInput bool
	Input    mgl64.Vec2
}

// MeasureInput updates the round trip and clock offset from one input packet.
// echo is the server probe stamp advanced by the client's hold time, so the
// difference to now is the full round trip. The client stamped the packet half
// a round trip before it arrived.
func (c *ClientRecord) MeasureInput(now, clientStamp, echo tick.Timestamp) {
	c.RTT = now.Sub(echo)
	c.Ping = time.Duration(c.RTT) * netconfig.TickDuration
	c.Offset = clientStamp.Sub(now) + c.RTT/2
}

// clientTable keeps records in connection order; the first one owns input.
type clientTable struct {
	order  []*ClientRecord
	byAddr map[string]*ClientRecord
}

func newClientTable() *clientTable {
	return &clientTable{byAddr: make(map[string]*ClientRecord)}
}

func (t *clientTable) add(addr string, now tick.Timestamp) *ClientRecord {
	if c, ok := t.byAddr[addr]; ok {
		return c
	}
	c := &ClientRecord{
		Addr:            addr,
		Session:         ksuid.New(),
		ConnectedAt:     now,
		LastPingRequest: now,
		LastHeard:       now,
	}
	t.order = append(t.order, c)
	t.byAddr[addr] = c
	log.Printf("[server] client connected addr=%s session=%s", addr, c.Session)
	return c
}

func (t *clientTable) remove(addr string) (*ClientRecord, bool) {
	c, ok := t.byAddr[addr]
	if !ok {
		return nil, false
	}
	delete(t.byAddr, addr)
	for i, o := range t.order {
		if o == c {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return c, true
}

func (t *clientTable) get(addr string) (*ClientRecord, bool) {
	c, ok := t.byAddr[addr]
	return c, ok
}

// first is the earliest connected client still present.
func (t *clientTable) first() (*ClientRecord, bool) {
	if len(t.order) == 0 {
		return nil, false
	}
	return t.order[0], true
}

func (t *clientTable) all() []*ClientRecord {
	return t.order
}

func (t *clientTable) len() int {
	return len(t.order)
}
