package network

import (
	"log"

	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/gamemath"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/snapshot"
	"github.com/automoto/driftline/shared/tick"
	"github.com/automoto/driftline/shared/workpool"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// PredictionOptions tunes the predictor.
type PredictionOptions struct {
	Epsilon   float64 // largest tolerated location error
	BatchSize int     // entities per worker task

	// InputWindow is how many ticks after a clock reset local input is still
	// applied. Zero never closes the window.
	InputWindow int32
}

// DefaultPredictionOptions returns the standard tuning.
func DefaultPredictionOptions() PredictionOptions {
	return PredictionOptions{
		Epsilon:   netconfig.CorrectionEpsilon,
		BatchSize: netconfig.BatchSize,
	}
}

// predicted is the history of one networked object.
type predicted struct {
	entity  donburi.Entity
	id      messages.NetworkID
	ring    snapshot.Ring
	latest  snapshot.Snapshot
	display mgl64.Vec3 // latest location as of the end of the last Simulate
}

// Prediction runs the local simulation ahead of the server and rolls back when
// an authoritative update disagrees with what was predicted.
//
// current is always the next tick to compute, so the newest stored state is at
// current-1. All outside influence arrives through ReceiveEvent.
type Prediction struct {
	opts PredictionOptions
	pool *workpool.Pool
	bus  *bus.Bus

	objects  []*predicted
	byEntity map[donburi.Entity]*predicted
	byID     map[messages.NetworkID]*predicted

	current    tick.Timestamp
	pending    tick.Timestamp
	hasPending bool

	windowStart tick.Timestamp
	synced      bool
}

var _ bus.Listener = (*Prediction)(nil)

// NewPrediction creates a predictor that fans stepping out over pool and
// reports stepped state on b.
func NewPrediction(pool *workpool.Pool, b *bus.Bus, opts PredictionOptions) *Prediction {
	if opts.BatchSize <= 0 {
		opts.BatchSize = netconfig.BatchSize
	}
	return &Prediction{
		opts:     opts,
		pool:     pool,
		bus:      b,
		byEntity: make(map[donburi.Entity]*predicted),
		byID:     make(map[messages.NetworkID]*predicted),
	}
}

// Attach starts tracking entity under id with initial as its newest state.
func (p *Prediction) Attach(entity donburi.Entity, id messages.NetworkID, initial snapshot.Snapshot) {
	obj := &predicted{entity: entity, id: id, latest: initial, display: initial.Location}
	obj.ring.Put(p.current.Add(-1), initial)
	p.objects = append(p.objects, obj)
	p.byEntity[entity] = obj
	p.byID[id] = obj
}

// Detach stops tracking entity and drops its history.
func (p *Prediction) Detach(entity donburi.Entity) {
	obj, ok := p.byEntity[entity]
	if !ok {
		return
	}
	delete(p.byEntity, entity)
	delete(p.byID, obj.id)
	for i, o := range p.objects {
		if o == obj {
			p.objects = append(p.objects[:i], p.objects[i+1:]...)
			break
		}
	}
}

// EntityFor maps a network id to the local entity.
func (p *Prediction) EntityFor(id messages.NetworkID) (donburi.Entity, bool) {
	obj, ok := p.byID[id]
	if !ok {
		return donburi.Null, false
	}
	return obj.entity, true
}

// Current is the next tick the predictor will compute.
func (p *Prediction) Current() tick.Timestamp {
	return p.current
}

// Pending returns the tick the next Simulate will rewind to, if any.
func (p *Prediction) Pending() (tick.Timestamp, bool) {
	return p.pending, p.hasPending
}

// State returns the stored state of entity at t.
func (p *Prediction) State(entity donburi.Entity, t tick.Timestamp) (snapshot.Snapshot, bool) {
	obj, ok := p.byEntity[entity]
	if !ok {
		return snapshot.Snapshot{}, false
	}
	return obj.ring.Lookup(p.current, t)
}

// Latest returns the newest state of entity.
func (p *Prediction) Latest(entity donburi.Entity) (snapshot.Snapshot, bool) {
	obj, ok := p.byEntity[entity]
	if !ok {
		return snapshot.Snapshot{}, false
	}
	return obj.latest, true
}

// ReceiveEvent accepts local input, authoritative corrections and clock resets.
func (p *Prediction) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	switch ev := c.(type) {
	case netcomponents.InputAcceleration:
		p.applyInput(entity, messages.Vec3(ev.Acceleration))
	case netcomponents.NetStaticMeshLocation:
		p.correct(entity, ev.Timestamp, func(s *snapshot.Snapshot) bool {
			if !gamemath.NeedsCorrection(s.Location, ev.Location, p.opts.Epsilon) {
				return false
			}
			s.Location = ev.Location
			return true
		})
	case netcomponents.NetStaticMeshVelocity:
		p.correct(entity, ev.Timestamp, func(s *snapshot.Snapshot) bool {
			if s.Velocity == ev.Velocity {
				return false
			}
			s.Velocity = ev.Velocity
			return true
		})
	case netcomponents.Timestamp:
		p.Resync(ev.Timestamp)
	}
}

func (p *Prediction) inputOpen() bool {
	if p.opts.InputWindow <= 0 || !p.synced {
		return true
	}
	return p.current.Sub(p.windowStart) < p.opts.InputWindow
}

// applyInput records the velocity for the tick about to be computed. The null
// entity addresses every object.
func (p *Prediction) applyInput(entity donburi.Entity, v mgl64.Vec3) {
	if !p.inputOpen() {
		return
	}
	if entity == donburi.Null {
		for _, obj := range p.objects {
			obj.ring.SetInput(p.current, v)
		}
		return
	}
	if obj, ok := p.byEntity[entity]; ok {
		obj.ring.SetInput(p.current, v)
	}
}

// correct applies fix to the stored state at t. If fix changed anything, the
// next Simulate resimulates from t+1. Corrections for ticks not yet computed or
// already out of history are ignored.
func (p *Prediction) correct(entity donburi.Entity, t tick.Timestamp, fix func(*snapshot.Snapshot) bool) {
	obj, ok := p.byEntity[entity]
	if !ok {
		return
	}
	if age := p.current.Sub(t); age < 1 || age >= netconfig.RingLen {
		return
	}
	s, ok := obj.ring.Get(t)
	if !ok {
		return
	}
	if !fix(&s) {
		return
	}
	obj.ring.Put(t, s)
	if t == p.current.Add(-1) {
		obj.latest = s
	}
	// Only the most recent rewind point is kept.
	p.pending = t.Add(1)
	p.hasPending = true
}

// Resync moves the clock to t, keeping each object's newest state as the state
// at t-1 and dropping all other history and any pending rewind.
func (p *Prediction) Resync(t tick.Timestamp) {
	for _, obj := range p.objects {
		obj.ring.Reset()
		obj.ring.Put(t.Add(-1), obj.latest)
	}
	log.Printf("[prediction] clock reset %d -> %d", p.current, t)
	p.current = t
	p.hasPending = false
	p.windowStart = t
	p.synced = true
}

// Simulate rewinds to a pending correction if there is one and steps until
// current reaches target. A target behind current is ignored. It returns the
// number of ticks stepped.
func (p *Prediction) Simulate(target tick.Timestamp) int {
	rolledBack := false
	shown := p.current.Add(-1)
	if p.hasPending {
		p.current = p.pending
		p.hasPending = false
		rolledBack = true
	}

	steps := 0
	for p.current.Sub(target) < 0 {
		p.step(p.current)
		p.current = p.current.Add(1)
		steps++
	}

	if rolledBack {
		p.reportCorrections(shown)
	}
	for _, obj := range p.objects {
		obj.display = obj.latest.Location
	}
	return steps
}

// step computes tick c for every object from the state at c-1.
func (p *Prediction) step(c tick.Timestamp) {
	prev := c.Add(-1)
	senders := p.pool.ForEachBatch(len(p.objects), p.opts.BatchSize, func(lo, hi int, s *bus.Sender) {
		for _, obj := range p.objects[lo:hi] {
			base, ok := obj.ring.Get(prev)
			if !ok {
				base = obj.latest
			}
			in, hasInput := obj.ring.Input(c)
			next := gamemath.Step(base, in, hasInput)
			obj.ring.Put(c, next)
			obj.latest = next
			s.Push(obj.entity, netcomponents.Location{Location: next.Location})
			s.Push(obj.entity, netcomponents.Velocity{Velocity: next.Velocity})
		}
	})
	p.bus.Merge(senders...)
}

// reportCorrections emits how far the rollback moved each object at the tick
// that was on screen before it.
func (p *Prediction) reportCorrections(shown tick.Timestamp) {
	for _, obj := range p.objects {
		now, ok := obj.ring.Lookup(p.current, shown)
		if !ok {
			continue
		}
		offset := obj.display.Sub(now.Location)
		if offset == (mgl64.Vec3{}) {
			continue
		}
		p.bus.Push(obj.entity, netcomponents.Correction{Offset: offset})
	}
}

// Interpolate blends the two newest states of entity for rendering. alpha is
// the scheduler's fraction of a tick since the newest state.
func (p *Prediction) Interpolate(entity donburi.Entity, alpha float64) (mgl64.Vec3, bool) {
	obj, ok := p.byEntity[entity]
	if !ok {
		return mgl64.Vec3{}, false
	}
	to, ok := obj.ring.Get(p.current.Add(-1))
	if !ok {
		return obj.latest.Location, true
	}
	from, ok := obj.ring.Get(p.current.Add(-2))
	if !ok {
		return to.Location, true
	}
	return netcomponents.Lerp(from.Location, to.Location, alpha), true
}
