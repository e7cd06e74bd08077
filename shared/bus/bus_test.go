package bus

import (
	"testing"

	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

type recorder struct {
	got []Event
}

func (r *recorder) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	r.got = append(r.got, Event{Entity: entity, Component: c})
}

func loc(x float64) netcomponents.Location {
	return netcomponents.Location{Location: mgl64.Vec3{x, 0, 0}}
}

func TestDistributeInPushOrderOnce(t *testing.T) {
	world := donburi.NewWorld()
	b := New(world)
	e := world.Create(netcomponents.NetworkIdentity)

	b.Push(e, loc(1))
	b.Push(e, loc(2))
	b.Push(donburi.Null, netcomponents.Timestamp{Timestamp: 9})

	r := &recorder{}
	b.Distribute(r)
	if len(r.got) != 3 {
		t.Fatalf("got %d events, want 3", len(r.got))
	}
	if r.got[0].Component != loc(1) || r.got[1].Component != loc(2) {
		t.Fatalf("events out of order: %+v", r.got)
	}
	if r.got[2].Entity != donburi.Null {
		t.Fatalf("null entity not preserved")
	}

	b.Distribute(r)
	if len(r.got) != 3 {
		t.Fatalf("events delivered twice")
	}
}

func TestMergeKeepsSenderOrder(t *testing.T) {
	world := donburi.NewWorld()
	b := New(world)

	first, second := &Sender{}, &Sender{}
	second.Push(donburi.Null, loc(3))
	first.Push(donburi.Null, loc(1))
	first.Push(donburi.Null, loc(2))
	if evs := first.Events(); len(evs) != 2 || evs[1].Component != loc(2) {
		t.Fatalf("sender holds %+v", evs)
	}
	b.Merge(first, second)

	if b.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", b.Pending())
	}
	if first.Len() != 0 || second.Len() != 0 {
		t.Fatalf("senders should be drained by merge")
	}

	r := &recorder{}
	other := &recorder{}
	b.Distribute(r, other)
	for i, want := range []float64{1, 2, 3} {
		if r.got[i].Component != loc(want) {
			t.Fatalf("event %d = %+v, want %v", i, r.got[i].Component, want)
		}
	}
	if len(other.got) != 3 {
		t.Fatalf("second listener got %d events", len(other.got))
	}
	if b.Pending() != 0 {
		t.Fatalf("pending after distribute = %d", b.Pending())
	}
}
