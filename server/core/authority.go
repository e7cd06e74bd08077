package core

import (
	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/snapshot"
	"github.com/automoto/driftline/shared/tick"
	"github.com/yohamta/donburi"
)

type authObject struct {
	entity donburi.Entity
	id     messages.NetworkID
	ring   snapshot.Ring
	latest snapshot.Snapshot

	// set when the velocity differs from what was last sent
	velocityChanged bool
}

// Authority records the ground truth physics produces and decides what each
// tick's update to clients contains.
type Authority struct {
	period   uint32
	objects  []*authObject
	byEntity map[donburi.Entity]*authObject
}

var _ bus.Listener = (*Authority)(nil)

// NewAuthority creates an authority that sends a full update every period ticks.
func NewAuthority(period int) *Authority {
	return &Authority{
		period:   uint32(period),
		byEntity: make(map[donburi.Entity]*authObject),
	}
}

// Track starts recording entity, whose state at t is initial.
func (a *Authority) Track(entity donburi.Entity, id messages.NetworkID, t tick.Timestamp, initial snapshot.Snapshot) {
	obj := &authObject{entity: entity, id: id, latest: initial}
	obj.ring.Put(t, initial)
	a.objects = append(a.objects, obj)
	a.byEntity[entity] = obj
}

// Untrack stops recording entity.
func (a *Authority) Untrack(entity donburi.Entity) {
	obj, ok := a.byEntity[entity]
	if !ok {
		return
	}
	delete(a.byEntity, entity)
	for i, o := range a.objects {
		if o == obj {
			a.objects = append(a.objects[:i], a.objects[i+1:]...)
			break
		}
	}
}

// ReceiveEvent takes the Location and Velocity events physics emits.
func (a *Authority) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	obj, ok := a.byEntity[entity]
	if !ok {
		return
	}
	switch ev := c.(type) {
	case netcomponents.Location:
		obj.latest.Location = ev.Location
	case netcomponents.Velocity:
		if ev.Velocity != obj.latest.Velocity {
			obj.velocityChanged = true
		}
		obj.latest.Velocity = ev.Velocity
	}
}

// Commit stores the state received so far as the state at t.
func (a *Authority) Commit(t tick.Timestamp) {
	for _, obj := range a.objects {
		obj.ring.Put(t, obj.latest)
	}
}

// State returns the recorded state of entity at t.
func (a *Authority) State(entity donburi.Entity, t tick.Timestamp) (snapshot.Snapshot, bool) {
	obj, ok := a.byEntity[entity]
	if !ok {
		return snapshot.Snapshot{}, false
	}
	return obj.ring.Get(t)
}

// IsFullUpdate reports whether the state at s goes out as a full update.
func (a *Authority) IsFullUpdate(s tick.Timestamp) bool {
	return uint32(s)%a.period == 0
}

// Updates builds the packets for the state committed at s, in server time.
// A full update carries every object; otherwise only objects whose velocity
// changed since they were last sent get a velocity packet.
func (a *Authority) Updates(s tick.Timestamp) []messages.Packet {
	full := a.IsFullUpdate(s)
	var out []messages.Packet
	for _, obj := range a.objects {
		state, ok := obj.ring.Get(s)
		if !ok {
			continue
		}
		switch {
		case full:
			out = append(out, messages.StaticMesh{
				Timestamp: s,
				NetworkID: obj.id,
				Location:  state.Location,
				Velocity:  state.Velocity,
			})
			obj.velocityChanged = false
		case obj.velocityChanged:
			out = append(out, messages.Velocity{
				Timestamp: s,
				NetworkID: obj.id,
				Velocity:  state.Velocity,
			})
			obj.velocityChanged = false
		}
	}
	return out
}
