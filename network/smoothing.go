package network

import (
	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

type smoothing struct {
	base  mgl64.Vec3
	scale float64
	tween *gween.Tween
}

// Smoother spreads rollback corrections over a short time so the rendered
// position glides to the corrected one instead of snapping.
type Smoother struct {
	duration float32
	active   map[donburi.Entity]*smoothing
}

var _ bus.Listener = (*Smoother)(nil)

// NewSmoother decays each correction to zero over ticks simulation steps.
// Zero ticks disables smoothing.
func NewSmoother(ticks int, tickSeconds float64) *Smoother {
	return &Smoother{
		duration: float32(float64(ticks) * tickSeconds),
		active:   make(map[donburi.Entity]*smoothing),
	}
}

// ReceiveEvent folds a Correction into whatever offset is still decaying.
func (s *Smoother) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	corr, ok := c.(netcomponents.Correction)
	if !ok || s.duration <= 0 {
		return
	}
	s.active[entity] = &smoothing{
		base:  s.Offset(entity).Add(corr.Offset),
		scale: 1,
		tween: gween.New(1, 0, s.duration, ease.Linear),
	}
}

// Advance moves every decay forward by dt seconds.
func (s *Smoother) Advance(dt float64) {
	for e, sm := range s.active {
		v, done := sm.tween.Update(float32(dt))
		if done {
			delete(s.active, e)
			continue
		}
		sm.scale = float64(v)
	}
}

// Offset is what to add to the simulated location of entity when drawing it.
func (s *Smoother) Offset(entity donburi.Entity) mgl64.Vec3 {
	sm, ok := s.active[entity]
	if !ok {
		return mgl64.Vec3{}
	}
	return sm.base.Mul(sm.scale)
}

// Active reports how many objects are still gliding.
func (s *Smoother) Active() int {
	return len(s.active)
}
