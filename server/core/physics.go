package core

import (
	"math"

	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/gamemath"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/snapshot"
	"github.com/automoto/driftline/shared/workpool"
	"github.com/automoto/driftline/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// Physics steps the authoritative objects. Objects move with the same
// integrator the client predicts with; on top of that they collide with the
// level walls in the XY plane and move freely along Z.
type Physics struct {
	world donburi.World
	level *ServerLevel
	pool  *workpool.Pool
	bus   *bus.Bus
	batch int

	objects  []*ObjectPhysics
	byEntity map[donburi.Entity]*ObjectPhysics
}

var _ bus.Listener = (*Physics)(nil)

func NewPhysics(world donburi.World, level *ServerLevel, pool *workpool.Pool, b *bus.Bus, batch int) *Physics {
	return &Physics{
		world:    world,
		level:    level,
		pool:     pool,
		bus:      b,
		batch:    batch,
		byEntity: make(map[donburi.Entity]*ObjectPhysics),
	}
}

// Spawn creates one networked entity per spawn, numbered in order.
func (p *Physics) Spawn(spawns []leveldata.ObjectSpawn) []donburi.Entity {
	entities := make([]donburi.Entity, 0, len(spawns))
	for i, sp := range spawns {
		id := messages.NetworkID(i)
		entity := p.world.Create(netcomponents.NetworkIdentity, netcomponents.Body, tags.Networked)
		entry := p.world.Entry(entity)
		netcomponents.NetworkIdentity.SetValue(entry, netcomponents.NetworkIdentityData{NetworkID: id, Name: sp.Name})
		netcomponents.Body.SetValue(entry, netcomponents.BodyData{
			Snapshot: snapshot.Snapshot{Location: sp.Location, Velocity: sp.Velocity},
			Size:     sp.Size,
		})

		op := newObjectPhysics(p.level, entity, id, sp.Location, sp.Size)
		p.objects = append(p.objects, op)
		p.byEntity[entity] = op
		entities = append(entities, entity)
	}
	return entities
}

// Remove drops an object from the simulation and the world.
func (p *Physics) Remove(entity donburi.Entity) {
	op, ok := p.byEntity[entity]
	if !ok {
		return
	}
	removeObjectPhysics(p.level, op)
	delete(p.byEntity, entity)
	for i, o := range p.objects {
		if o == op {
			p.objects = append(p.objects[:i], p.objects[i+1:]...)
			break
		}
	}
	if p.world.Valid(entity) {
		p.world.Remove(entity)
	}
}

// ReceiveEvent takes input overrides. The null entity addresses every object.
func (p *Physics) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	in, ok := c.(netcomponents.InputAcceleration)
	if !ok {
		return
	}
	v := messages.Vec3(in.Acceleration)
	if entity == donburi.Null {
		for _, op := range p.objects {
			op.Input, op.HasInput = v, true
		}
		return
	}
	if op, ok := p.byEntity[entity]; ok {
		op.Input, op.HasInput = v, true
	}
}

// Body returns the current authoritative state of entity.
func (p *Physics) Body(entity donburi.Entity) (snapshot.Snapshot, bool) {
	if !p.world.Valid(entity) {
		return snapshot.Snapshot{}, false
	}
	entry := p.world.Entry(entity)
	if !entry.HasComponent(netcomponents.Body) {
		return snapshot.Snapshot{}, false
	}
	return netcomponents.Body.Get(entry).Snapshot, true
}

// Step advances every object one tick. Collision checks run in parallel
// batches against the space as it stood at the start of the tick; positions
// are written back to the space after the join.
func (p *Physics) Step() {
	n := len(p.objects)
	bodies := make([]*netcomponents.BodyData, n)
	for i, op := range p.objects {
		bodies[i] = netcomponents.Body.Get(p.world.Entry(op.Entity))
	}

	results := make([]snapshot.Snapshot, n)
	senders := p.pool.ForEachBatch(n, p.batch, func(lo, hi int, s *bus.Sender) {
		for i := lo; i < hi; i++ {
			op := p.objects[i]
			next := p.advance(op, bodies[i].Snapshot)
			results[i] = next
			s.Push(op.Entity, netcomponents.Location{Location: next.Location})
			s.Push(op.Entity, netcomponents.Velocity{Velocity: next.Velocity})
		}
	})

	for i, op := range p.objects {
		bodies[i].Snapshot = results[i]
		op.Object.X = results[i].Location[0] * pixelsPerUnit
		op.Object.Y = results[i].Location[1] * pixelsPerUnit
		op.Object.Update()
		op.HasInput = false
	}
	p.bus.Merge(senders...)
}

// advance computes one object's next state without touching the space.
func (p *Physics) advance(op *ObjectPhysics, prev snapshot.Snapshot) snapshot.Snapshot {
	next := gamemath.Step(prev, op.Input, op.HasInput)
	move := next.Location.Sub(prev.Location)
	obj := op.Object

	// --- Resolve horizontal collision ---
	dx := move[0] * pixelsPerUnit
	if dx != 0 {
		if check := obj.Check(dx, 0, tags.ResolvWall); check != nil {
			if wall := blocking(check.ObjectsByTags(tags.ResolvWall), dx, obj.X, obj.W, obj.Y, obj.H, true); wall != nil {
				dx = check.ContactWithObject(wall).X()
				next.Velocity[0] = 0
			}
		}
	}

	// --- Resolve vertical collision ---
	dy := move[1] * pixelsPerUnit
	if dy != 0 {
		if check := obj.Check(dx, dy, tags.ResolvWall); check != nil {
			if wall := blocking(check.ObjectsByTags(tags.ResolvWall), dy, obj.Y, obj.H, obj.X+dx, obj.W, false); wall != nil {
				dy = check.ContactWithObject(wall).Y()
				next.Velocity[1] = 0
			}
		}
	}

	next.Location = prev.Location.Add(mgl64.Vec3{dx / pixelsPerUnit, dy / pixelsPerUnit, move[2]})
	return next
}

// blocking picks the wall a move of d along one axis runs into first. pos and
// size describe the mover on the moving axis, crossPos and crossSize on the
// other one. Walls beside the mover or behind it are ignored. resolv only
// reports overlaps deeper than one pixel, so a gap down to -1 still counts.
func blocking(walls []*resolv.Object, d, pos, size, crossPos, crossSize float64, horizontal bool) *resolv.Object {
	var best *resolv.Object
	bestGap := 0.0
	for _, w := range walls {
		wPos, wSize, wCross, wCrossSize := w.Y, w.H, w.X, w.W
		if horizontal {
			wPos, wSize, wCross, wCrossSize = w.X, w.W, w.Y, w.H
		}
		if wCross >= crossPos+crossSize || wCross+wCrossSize <= crossPos {
			continue
		}
		var gap float64
		if d > 0 {
			gap = wPos - (pos + size)
		} else {
			gap = pos - (wPos + wSize)
		}
		if gap < -1 || gap >= math.Abs(d) {
			continue
		}
		if best == nil || gap < bestGap {
			best, bestGap = w, gap
		}
	}
	return best
}
