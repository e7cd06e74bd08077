package network

import (
	"math"
	"testing"
	"time"

	"github.com/automoto/driftline/config"
	"github.com/automoto/driftline/server/core"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/transport"
	"github.com/go-gl/mathgl/mgl64"
)

// world drives a server and its clients over a loopback network on a manual
// clock, one tick per frame.
type world struct {
	clock    time.Time
	net      *transport.Network
	server   *core.Server
	sessions []*Session
}

func newWorld(t *testing.T, level *leveldata.Level, oneWay time.Duration, clients int) *world {
	t.Helper()
	w := &world{clock: time.Unix(0, 0)}
	w.net = transport.NewNetwork(oneWay, func() time.Time { return w.clock })
	w.server = core.NewServer(core.DefaultOptions(), core.NewServerLevel(level), w.net.Endpoint("server"))

	opts := SessionOptionsFromConfig(config.Default())
	for i := range clients {
		addr := string(rune('a' + i))
		w.sessions = append(w.sessions, NewSession(opts, level, w.net.Endpoint(addr), "server"))
	}
	return w
}

func (w *world) frame() {
	w.clock = w.clock.Add(netconfig.TickDuration)
	w.server.Tick()
	for _, s := range w.sessions {
		s.Update(w.clock)
	}
}

// wallLevel has one object a second away from the east wall.
func wallLevel(speed float64) *leveldata.Level {
	level := leveldata.Default()
	level.Objects = []leveldata.ObjectSpawn{{
		Name:     "mesh0",
		Location: mgl64.Vec3{18 - speed, 5.5, 0},
		Velocity: mgl64.Vec3{speed, 0, 0},
		Size:     1,
	}}
	return level
}

func TestSessionReconvergesSmoothlyAfterServerCollision(t *testing.T) {
	const speed = 1.0
	w := newWorld(t, wallLevel(speed), 50*time.Millisecond, 1)
	sess := w.sessions[0]
	e := sess.Entities()[0]

	step := speed * netconfig.TickSeconds
	var (
		prev         mgl64.Vec3
		smoothed     int
		longestGlide int
		glide        int
	)
	for f := 0; f < 300; f++ {
		w.frame()
		loc := sess.RenderLocation(e)
		if f > 0 {
			if jump := loc.Sub(prev).Len(); jump > 1.5*step {
				t.Fatalf("frame %d: render jumped %.4f, more than a tick of motion (%.4f)", f, jump, step)
			}
		}
		prev = loc

		if sess.smoother.Active() > 0 {
			smoothed++
			glide++
			longestGlide = max(longestGlide, glide)
		} else {
			glide = 0
		}
	}

	if sess.State() != StateSynced {
		t.Fatalf("state = %s, want synced", sess.State())
	}
	if smoothed == 0 {
		t.Fatal("the collision never produced a correction")
	}
	if longestGlide > netconfig.FullUpdatePeriod {
		t.Fatalf("correction took %d ticks to settle, want at most %d", longestGlide, netconfig.FullUpdatePeriod)
	}

	truth, vel, ok := w.server.Truth(0, w.server.Now().Add(-1))
	if !ok {
		t.Fatal("no server state")
	}
	if vel != (mgl64.Vec3{}) {
		t.Fatalf("server velocity = %v, want stopped at the wall", vel)
	}
	latest, _ := sess.Prediction().Latest(e)
	if latest.Velocity != (mgl64.Vec3{}) {
		t.Fatalf("client velocity = %v, want stopped", latest.Velocity)
	}
	if d := latest.Location.Sub(truth).Len(); d > netconfig.CorrectionEpsilon {
		t.Fatalf("client at %v, server at %v", latest.Location, truth)
	}
	if d := sess.RenderLocation(e).Sub(latest.Location).Len(); d > 1e-9 {
		t.Fatalf("render %v still offset from %v", sess.RenderLocation(e), latest.Location)
	}
}

func TestSessionClockOffsetMatchesLatency(t *testing.T) {
	w := newWorld(t, leveldata.Default(), 50*time.Millisecond, 1)
	for range 120 {
		w.frame()
	}

	rec, ok := w.server.Client("a")
	if !ok {
		t.Fatal("server has no record for the client")
	}
	// 50ms each way lands on the fourth frame after sending
	if rec.RTT < 6 || rec.RTT > 8 {
		t.Fatalf("RTT = %d ticks", rec.RTT)
	}
	// the client runs behind the server by roughly the one-way delay
	trueOffset := w.sessions[0].Prediction().Current().Sub(w.server.Now())
	if d := rec.Offset - trueOffset; d < -1 || d > 1 {
		t.Fatalf("offset = %d, client is actually %d ticks off", rec.Offset, trueOffset)
	}
}

func TestOnlyFirstClientDrivesInput(t *testing.T) {
	w := newWorld(t, leveldata.Default(), 20*time.Millisecond, 2)
	for range 30 {
		w.frame()
	}
	if got := w.server.ClientCount(); got != 2 {
		t.Fatalf("ClientCount = %d, want 2", got)
	}

	w.sessions[1].SetInput(mgl64.Vec2{0, 1})
	for range 20 {
		w.frame()
	}
	_, vel, _ := w.server.Truth(0, w.server.Now().Add(-1))
	if vel != (mgl64.Vec3{2, 0, 0}) {
		t.Fatalf("second client moved the object: velocity %v", vel)
	}

	w.sessions[0].SetInput(mgl64.Vec2{0, -1})
	for range 20 {
		w.frame()
	}
	_, vel, _ = w.server.Truth(0, w.server.Now().Add(-1))
	if vel != (mgl64.Vec3{0, -1, 0}) {
		t.Fatalf("velocity = %v, want the first client's input", vel)
	}
}

func TestSessionAppliesInputLocallyAtOnce(t *testing.T) {
	w := newWorld(t, leveldata.Default(), 50*time.Millisecond, 1)
	for range 30 {
		w.frame()
	}
	sess := w.sessions[0]
	sess.SetInput(mgl64.Vec2{0, 1})
	w.frame()

	latest, _ := sess.Prediction().Latest(sess.Entities()[0])
	if latest.Velocity != (mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("velocity = %v, want input applied on the next tick", latest.Velocity)
	}
	if math.IsNaN(latest.Location[0]) {
		t.Fatal("bad location")
	}
}
