// Package snapshot stores the recent physical history of one networked object.
package snapshot

import (
	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is the physical state of an object at one tick.
type Snapshot struct {
	Location mgl64.Vec3
	Velocity mgl64.Vec3
}

type slot struct {
	stamp   tick.Timestamp
	written bool
	snap    Snapshot
}

// Ring is a fixed window of snapshots indexed by Timestamp.Slot. Every slot
// remembers the stamp it was written for, so a read whose stamp does not match
// is reported as missing. That covers both overwritten slots and the
// discontinuity in t % RingLen at the uint32 wrap.
//
// Inputs are keyed by the full stamp instead. Around the wrap, ticks on both
// sides share slots, and resimulating one side must not lose the other's input.
type Ring struct {
	slots  [netconfig.RingLen]slot
	inputs map[tick.Timestamp]mgl64.Vec3
}

// Put stores the state for t. Inputs are untouched.
func (r *Ring) Put(t tick.Timestamp, s Snapshot) {
	sl := &r.slots[t.Slot()]
	sl.stamp = t
	sl.written = true
	sl.snap = s
}

// Get returns the state stored for t.
func (r *Ring) Get(t tick.Timestamp) (Snapshot, bool) {
	sl := &r.slots[t.Slot()]
	if !sl.written || sl.stamp != t {
		return Snapshot{}, false
	}
	return sl.snap, true
}

// Lookup returns the state for t only if t lies inside the readable window
// behind current.
func (r *Ring) Lookup(current, t tick.Timestamp) (Snapshot, bool) {
	if !t.Within(current, netconfig.RingLen) {
		return Snapshot{}, false
	}
	return r.Get(t)
}

// SetInput records a velocity override to apply when t is stepped. The
// snapshot for t may not exist yet. Inputs a full window away from t are
// dropped.
func (r *Ring) SetInput(t tick.Timestamp, v mgl64.Vec3) {
	if r.inputs == nil {
		r.inputs = make(map[tick.Timestamp]mgl64.Vec3)
	}
	for k := range r.inputs {
		if d := t.Sub(k); d >= netconfig.RingLen || d <= -netconfig.RingLen {
			delete(r.inputs, k)
		}
	}
	r.inputs[t] = v
}

// Input returns the velocity override recorded for t.
func (r *Ring) Input(t tick.Timestamp) (mgl64.Vec3, bool) {
	v, ok := r.inputs[t]
	return v, ok
}

// Reset drops all history and input.
func (r *Ring) Reset() {
	r.slots = [netconfig.RingLen]slot{}
	r.inputs = nil
}
