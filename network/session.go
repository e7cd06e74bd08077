package network

import (
	"time"

	"github.com/automoto/driftline/config"
	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/fixedstep"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/snapshot"
	"github.com/automoto/driftline/shared/transport"
	"github.com/automoto/driftline/shared/workpool"
	"github.com/automoto/driftline/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// SessionOptions tunes the client side of a connection.
type SessionOptions struct {
	Prediction       PredictionOptions
	Workers          int
	SmoothingTicks   int
	StrictNetworkIDs bool
}

// SessionOptionsFromConfig picks the client settings out of cfg.
func SessionOptionsFromConfig(cfg *config.Config) SessionOptions {
	return SessionOptions{
		Prediction: PredictionOptions{
			Epsilon:     cfg.Sim.CorrectionEpsilon,
			BatchSize:   cfg.Sim.BatchSize,
			InputWindow: int32(cfg.Net.InputWindowTicks),
		},
		Workers:          cfg.Sim.Workers,
		SmoothingTicks:   cfg.Net.SmoothingTicks,
		StrictNetworkIDs: cfg.Net.StrictNetworkIDs,
	}
}

// Session is everything a client needs to show one server's world: the
// predictor, the packet client, correction smoothing and the fixed-step clock.
type Session struct {
	world     donburi.World
	bus       *bus.Bus
	pred      *Prediction
	client    *Client
	smoother  *Smoother
	scheduler *fixedstep.Scheduler

	entities []donburi.Entity

	input  mgl64.Vec2
	interp float64
}

// NewSession builds the local copy of level and starts the handshake with
// server over net.
func NewSession(opts SessionOptions, level *leveldata.Level, net transport.Transport, server string) *Session {
	world := donburi.NewWorld()
	b := bus.New(world)
	s := &Session{
		world:     world,
		bus:       b,
		pred:      NewPrediction(workpool.New(opts.Workers), b, opts.Prediction),
		smoother:  NewSmoother(opts.SmoothingTicks, netconfig.TickSeconds),
		scheduler: fixedstep.New(netconfig.TickDuration),
	}

	for i, sp := range level.Objects {
		id := messages.NetworkID(i)
		initial := snapshot.Snapshot{Location: sp.Location, Velocity: sp.Velocity}
		e := world.Create(netcomponents.NetworkIdentity, netcomponents.Body, netcomponents.RenderLocation, tags.Networked)
		entry := world.Entry(e)
		netcomponents.NetworkIdentity.SetValue(entry, netcomponents.NetworkIdentityData{NetworkID: id, Name: sp.Name})
		netcomponents.Body.SetValue(entry, netcomponents.BodyData{Snapshot: initial, Size: sp.Size})
		netcomponents.RenderLocation.SetValue(entry, netcomponents.RenderLocationData{Location: sp.Location})
		s.pred.Attach(e, id, initial)
		s.entities = append(s.entities, e)
	}

	s.client = NewClient(net, server, b, s.pred, s.pred, opts.StrictNetworkIDs)
	s.client.Start()
	return s
}

// SetInput sets the local input. It reaches the predictor only when it
// changes; the server applies the same rule, and both start from zero.
func (s *Session) SetInput(accel mgl64.Vec2) {
	if accel == s.input {
		return
	}
	s.input = accel
	s.bus.Push(donburi.Null, netcomponents.InputAcceleration{Acceleration: accel})
}

// Update runs one frame: network intake, every simulation tick due by now,
// then render preparation. It returns how many ticks ran.
func (s *Session) Update(now time.Time) int {
	s.client.Poll()
	s.bus.Distribute(s.pred, s.client, s.smoother)

	ticks, interp := s.scheduler.Advance(now, s.tick)
	s.interp = interp
	s.prepareRender(interp)
	return ticks
}

func (s *Session) tick() {
	s.pred.Simulate(s.pred.Current().Add(1))
	s.bus.Distribute(s.client, s.smoother, s)
	s.client.SendInput()
	s.smoother.Advance(netconfig.TickSeconds)
}

// ReceiveEvent mirrors stepped state into the Body component.
func (s *Session) ReceiveEvent(entity donburi.Entity, c netcomponents.Component) {
	if !s.world.Valid(entity) {
		return
	}
	entry := s.world.Entry(entity)
	switch ev := c.(type) {
	case netcomponents.Location:
		netcomponents.Body.Get(entry).Location = ev.Location
	case netcomponents.Velocity:
		netcomponents.Body.Get(entry).Velocity = ev.Velocity
	}
}

func (s *Session) prepareRender(interp float64) {
	for _, e := range s.entities {
		loc, ok := s.pred.Interpolate(e, interp)
		if !ok {
			continue
		}
		netcomponents.RenderLocation.Get(s.world.Entry(e)).Location = loc.Add(s.smoother.Offset(e))
	}
}

// World is the client's ECS world, holding one entity per networked object.
func (s *Session) World() donburi.World {
	return s.world
}

func (s *Session) Entities() []donburi.Entity {
	return s.entities
}

// RenderLocation is where entity was placed for drawing by the last Update.
func (s *Session) RenderLocation(entity donburi.Entity) mgl64.Vec3 {
	if !s.world.Valid(entity) {
		return mgl64.Vec3{}
	}
	return netcomponents.RenderLocation.Get(s.world.Entry(entity)).Location
}

func (s *Session) Prediction() *Prediction {
	return s.pred
}

func (s *Session) State() ClientState {
	return s.client.State()
}

// Smoothing is the number of objects still gliding after a correction.
func (s *Session) Smoothing() int {
	return s.smoother.Active()
}

// Interp is the render fraction computed by the last Update.
func (s *Session) Interp() float64 {
	return s.interp
}

// Close hangs up the transport.
func (s *Session) Close() error {
	return s.client.Close()
}
