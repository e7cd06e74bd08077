package core

import (
	"log"
	"sync"

	"github.com/automoto/driftline/config"
	"github.com/automoto/driftline/shared/bus"
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/tick"
	"github.com/automoto/driftline/shared/transport"
	"github.com/automoto/driftline/shared/workpool"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// Options tunes the server tick.
type Options struct {
	Workers           int
	BatchSize         int
	FullUpdatePeriod  int
	PingIntervalTicks int

	// TimeoutTicks drops clients silent for longer. Zero keeps them forever.
	TimeoutTicks int
}

// OptionsFromConfig picks the server settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Workers:           cfg.Sim.Workers,
		BatchSize:         cfg.Sim.BatchSize,
		FullUpdatePeriod:  cfg.Sim.FullUpdatePeriod,
		PingIntervalTicks: cfg.Net.PingIntervalTicks,
		TimeoutTicks:      int(cfg.Server.ClientTimeout.Duration / netconfig.TickDuration),
	}
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// Server owns the authoritative simulation and every client connection.
type Server struct {
	opts Options

	world     donburi.World
	bus       *bus.Bus
	pool      *workpool.Pool
	net       transport.Transport
	level     *ServerLevel
	physics   *Physics
	authority *Authority
	recorder  *Recorder

	clients  *clientTable
	entities []donburi.Entity

	now    tick.Timestamp
	probes uint16

	loop *GameLoop
	mu   sync.RWMutex
}

// NewServer creates a server simulating level and talking over net.
func NewServer(opts Options, level *ServerLevel, net transport.Transport) *Server {
	world := donburi.NewWorld()
	b := bus.New(world)
	pool := workpool.New(opts.Workers)

	s := &Server{
		opts:      opts,
		world:     world,
		bus:       b,
		pool:      pool,
		net:       net,
		level:     level,
		physics:   NewPhysics(world, level, pool, b, opts.BatchSize),
		authority: NewAuthority(opts.FullUpdatePeriod),
		clients:   newClientTable(),
	}
	s.loop = NewGameLoop(s)

	s.entities = s.physics.Spawn(level.Data.Objects)
	for i, e := range s.entities {
		initial, _ := s.physics.Body(e)
		s.authority.Track(e, messages.NetworkID(i), s.now.Add(-1), initial)
	}
	return s
}

// SetRecorder makes every tick's ground truth go to r.
func (s *Server) SetRecorder(r *Recorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// Start runs the game loop in the background.
func (s *Server) Start() {
	s.loop.Start()
}

// Stop halts the game loop and flushes the recorder.
func (s *Server) Stop() {
	s.loop.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			log.Printf("[recorder] close: %v", err)
		}
		s.recorder = nil
	}
}

// Tick runs one server tick: intake, broadcast of the previous tick, step,
// then commit of the new ground truth.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now
	s.pollTransport(now)
	s.expireClients(now)
	s.bus.Distribute(s.physics)

	s.broadcast(now.Add(-1))
	s.sendPings(now)

	s.physics.Step()
	s.bus.Distribute(s.authority)
	s.authority.Commit(now)

	if s.recorder != nil {
		if err := s.recorder.Record(s.frame(now)); err != nil {
			log.Printf("[recorder] %v, recording stopped", err)
			_ = s.recorder.Close()
			s.recorder = nil
		}
	}
	s.now = now.Add(1)
}

func (s *Server) pollTransport(now tick.Timestamp) {
	for _, ev := range s.net.Poll() {
		switch ev.Kind {
		case transport.Connect:
			s.onConnect(ev.Addr, now)
		case transport.Disconnect, transport.Timeout:
			s.onDisconnect(ev.Addr, ev.Kind)
		case transport.Packet:
			s.onPacket(ev.Addr, ev.Payload, now)
		}
	}
}

func (s *Server) expireClients(now tick.Timestamp) {
	if s.opts.TimeoutTicks <= 0 {
		return
	}
	for _, c := range append([]*ClientRecord(nil), s.clients.all()...) {
		if now.Sub(c.LastHeard) > int32(s.opts.TimeoutTicks) {
			s.onDisconnect(c.Addr, transport.Timeout)
		}
	}
}

func (s *Server) onConnect(addr string, now tick.Timestamp) {
	c := s.clients.add(addr, now)
	c.LastPingRequest = now
	s.send(c, messages.Ping{Timestamp: now, Probe: 0}, transport.ReliableUnordered)
}

func (s *Server) onDisconnect(addr string, kind transport.EventKind) {
	c, ok := s.clients.remove(addr)
	if !ok {
		return
	}
	log.Printf("[server] client %s addr=%s session=%s", kind, addr, c.Session)
}

func (s *Server) onPacket(addr string, payload []byte, now tick.Timestamp) {
	p, err := messages.Decode(payload)
	if err != nil {
		log.Printf("[server] dropping packet from %s: %v", addr, err)
		return
	}
	if !messages.ServerBound(p) {
		log.Printf("[server] dropping %s from %s: not a client packet", p.Type(), addr)
		return
	}
	c, ok := s.clients.get(addr)
	if !ok {
		log.Printf("[server] dropping %s from unknown peer %s", p.Type(), addr)
		return
	}
	c.LastHeard = now

	switch m := p.(type) {
	case messages.EstablishConnection:
		s.send(c, messages.EstablishConnection{}, transport.ReliableUnordered)
	case messages.Input:
		c.MeasureInput(now, m.Timestamp, m.Echo)
		changed := m.Acceleration != c.Input
		c.Input, c.HasInput = m.Acceleration, true
		if changed {
			s.applyInput(c)
		}
	}
}

// applyInput forwards a changed input to physics when c is the earliest
// connected client. Everyone else is ignored.
func (s *Server) applyInput(c *ClientRecord) {
	owner, ok := s.clients.first()
	if !ok || owner != c {
		return
	}
	s.bus.Push(donburi.Null, netcomponents.InputAcceleration{Acceleration: c.Input})
}

// broadcast sends the state committed at st to every client on its own clock.
func (s *Server) broadcast(st tick.Timestamp) {
	updates := s.authority.Updates(st)
	if len(updates) == 0 {
		return
	}
	for _, c := range s.clients.all() {
		for _, p := range updates {
			s.send(c, messages.Shift(p, c.Offset), transport.ReliableSequenced)
		}
	}
}

func (s *Server) sendPings(now tick.Timestamp) {
	interval := int32(s.opts.PingIntervalTicks)
	for _, c := range s.clients.all() {
		if now.Sub(c.LastPingRequest) < interval {
			continue
		}
		s.probes++
		if s.probes == 0 {
			s.probes = 1
		}
		c.LastPingRequest = now
		s.send(c, messages.Ping{Timestamp: now, Probe: s.probes}, transport.ReliableUnordered)
	}
}

func (s *Server) send(c *ClientRecord, p messages.Packet, mode transport.DeliveryMode) {
	if err := s.net.Send(c.Addr, messages.Encode(p), mode); err != nil {
		log.Printf("[server] send %s to %s: %v", p.Type(), c.Addr, err)
	}
}

func (s *Server) frame(now tick.Timestamp) Frame {
	f := Frame{Tick: uint32(now), Clients: s.clients.len()}
	for i, e := range s.entities {
		st, ok := s.authority.State(e, now)
		if !ok {
			continue
		}
		f.Objects = append(f.Objects, FrameObject{
			NetworkID: uint16(i),
			Location:  st.Location,
			Velocity:  st.Velocity,
		})
	}
	return f
}

// World returns the ECS world
func (s *Server) World() donburi.World {
	return s.world
}

// Now is the next tick the server will run.
func (s *Server) Now() tick.Timestamp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.len()
}

// Client returns a copy of the record for addr.
func (s *Server) Client(addr string) (ClientRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients.get(addr)
	if !ok {
		return ClientRecord{}, false
	}
	return *c, true
}

// Entity returns the entity for a network id.
func (s *Server) Entity(id messages.NetworkID) (donburi.Entity, bool) {
	if int(id) >= len(s.entities) {
		return donburi.Null, false
	}
	return s.entities[id], true
}

// Truth returns the committed state of the object id at t.
func (s *Server) Truth(id messages.NetworkID, t tick.Timestamp) (mgl64.Vec3, mgl64.Vec3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.Entity(id)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	st, ok := s.authority.State(e, t)
	return st.Location, st.Velocity, ok
}
