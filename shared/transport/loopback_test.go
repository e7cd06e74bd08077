package transport

import (
	"errors"
	"testing"
	"time"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLoopbackDelaysAndConnects(t *testing.T) {
	clock := &manualClock{t: time.Unix(0, 0)}
	n := NewNetwork(50*time.Millisecond, clock.now)
	srv := n.Endpoint("server")
	cli := n.Endpoint("client")

	if err := cli.Send("server", []byte{1}, ReliableUnordered); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := cli.Send("server", []byte{2}, ReliableUnordered); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := srv.Poll(); len(got) != 0 {
		t.Fatalf("packets arrived before latency elapsed: %+v", got)
	}

	clock.advance(50 * time.Millisecond)
	got := srv.Poll()
	if len(got) != 3 {
		t.Fatalf("got %d events, want connect + 2 packets", len(got))
	}
	if got[0].Kind != Connect || got[0].Addr != "client" {
		t.Fatalf("first event = %+v, want connect", got[0])
	}
	if got[1].Payload[0] != 1 || got[2].Payload[0] != 2 {
		t.Fatalf("packets out of order")
	}
}

func TestLoopbackDisconnect(t *testing.T) {
	clock := &manualClock{t: time.Unix(0, 0)}
	n := NewNetwork(0, clock.now)
	srv := n.Endpoint("server")
	cli := n.Endpoint("client")
	_ = cli.Send("server", []byte{1}, Unreliable)
	srv.Poll()

	_ = cli.Close()
	got := srv.Poll()
	if len(got) != 1 || got[0].Kind != Disconnect {
		t.Fatalf("got %+v, want one disconnect", got)
	}
	if err := srv.Send("client", []byte{1}, Unreliable); !errors.Is(err, ErrUnknownPeer) {
		t.Fatalf("send to closed peer: %v", err)
	}
	if err := cli.Send("server", []byte{1}, Unreliable); !errors.Is(err, ErrClosed) {
		t.Fatalf("send from closed endpoint: %v", err)
	}
}

func TestLoopbackTimeout(t *testing.T) {
	clock := &manualClock{t: time.Unix(0, 0)}
	n := NewNetwork(0, clock.now)
	n.SetTimeout(time.Second)
	srv := n.Endpoint("server")
	cli := n.Endpoint("client")
	_ = cli.Send("server", []byte{1}, Unreliable)
	srv.Poll()

	clock.advance(2 * time.Second)
	got := srv.Poll()
	if len(got) != 1 || got[0].Kind != Timeout || got[0].Addr != "client" {
		t.Fatalf("got %+v, want timeout for client", got)
	}
}
