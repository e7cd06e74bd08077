package core

import (
	"math"
	"testing"

	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/workpool"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

func newTestPhysics(t *testing.T, spawns ...leveldata.ObjectSpawn) (*Physics, *bus.Bus, []donburi.Entity) {
	t.Helper()
	data := leveldata.Default()
	if len(spawns) > 0 {
		data.Objects = spawns
	}
	world := donburi.NewWorld()
	b := bus.New(world)
	p := NewPhysics(world, NewServerLevel(data), workpool.New(2), b, 4)
	return p, b, p.Spawn(data.Objects)
}

func TestPhysicsStopsAtWall(t *testing.T) {
	p, b, entities := newTestPhysics(t)
	for range 400 {
		p.Step()
		b.Distribute()
	}
	s, ok := p.Body(entities[0])
	if !ok {
		t.Fatal("body missing")
	}
	// east wall starts at x=19, object is one unit wide
	if math.Abs(s.Location[0]-18) > 1e-6 {
		t.Fatalf("x = %v, want 18", s.Location[0])
	}
	if s.Velocity[0] != 0 {
		t.Fatalf("vx = %v, want 0 after hitting the wall", s.Velocity[0])
	}
}

func TestPhysicsFreeFlightMatchesIntegrator(t *testing.T) {
	p, b, entities := newTestPhysics(t, leveldata.ObjectSpawn{
		Name:     "drifter",
		Location: mgl64.Vec3{5, 5, 0},
		Velocity: mgl64.Vec3{0.6, 0, 3},
		Size:     1,
	})
	for range 60 {
		p.Step()
		b.Distribute()
	}
	s, _ := p.Body(entities[0])
	want := mgl64.Vec3{5.6, 5, 3}
	if s.Location.Sub(want).Len() > 1e-9 {
		t.Fatalf("location = %v, want %v", s.Location, want)
	}
}

func TestPhysicsStepEmitsEvents(t *testing.T) {
	p, b, entities := newTestPhysics(t)
	p.Step()

	var locs, vels int
	b.Distribute(bus.ListenerFunc(func(e donburi.Entity, c netcomponents.Component) {
		if e != entities[0] {
			t.Fatalf("event for unexpected entity %v", e)
		}
		switch c.(type) {
		case netcomponents.Location:
			locs++
		case netcomponents.Velocity:
			vels++
		}
	}))
	if locs != 1 || vels != 1 {
		t.Fatalf("got %d location and %d velocity events, want 1 each", locs, vels)
	}
}

func TestPhysicsInputOverridesVelocityOnce(t *testing.T) {
	p, b, entities := newTestPhysics(t)
	b.Push(donburi.Null, netcomponents.InputAcceleration{Acceleration: mgl64.Vec2{0, -1}})
	b.Distribute(p)

	p.Step()
	b.Distribute()
	s, _ := p.Body(entities[0])
	if s.Velocity != (mgl64.Vec3{0, -1, 0}) {
		t.Fatalf("velocity = %v, want input", s.Velocity)
	}
	// the first step still moves by the old velocity
	if math.Abs(s.Location[0]-(10+2.0/60)) > 1e-9 {
		t.Fatalf("x = %v", s.Location[0])
	}

	p.Step()
	b.Distribute()
	s, _ = p.Body(entities[0])
	if s.Velocity != (mgl64.Vec3{0, -1, 0}) {
		t.Fatalf("velocity changed without input: %v", s.Velocity)
	}
}

func TestPhysicsRemove(t *testing.T) {
	p, _, entities := newTestPhysics(t)
	p.Remove(entities[0])
	if _, ok := p.Body(entities[0]); ok {
		t.Fatal("removed entity still has a body")
	}
	p.Step()
}
