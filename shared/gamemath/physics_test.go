package gamemath

import (
	"testing"

	"github.com/automoto/driftline/shared/snapshot"
	"github.com/go-gl/mathgl/mgl64"
)

func TestStepUsesPreviousVelocityForLocation(t *testing.T) {
	prev := snapshot.Snapshot{Velocity: mgl64.Vec3{60, 0, 0}}
	next := Step(prev, mgl64.Vec3{0, 60, 0}, true)
	if !next.Location.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Fatalf("location = %v, want {1 0 0}", next.Location)
	}
	if next.Velocity != (mgl64.Vec3{0, 60, 0}) {
		t.Fatalf("velocity = %v, want input override", next.Velocity)
	}
	if Step(prev, mgl64.Vec3{}, false).Velocity != prev.Velocity {
		t.Fatalf("velocity should carry over without input")
	}
}

func TestNeedsCorrectionIsStrict(t *testing.T) {
	origin := mgl64.Vec3{}
	if NeedsCorrection(origin, mgl64.Vec3{0.1, 0, 0}, 0.1) {
		t.Fatalf("error of exactly epsilon must not correct")
	}
	if !NeedsCorrection(origin, mgl64.Vec3{0.1001, 0, 0}, 0.1) {
		t.Fatalf("error above epsilon must correct")
	}
}
