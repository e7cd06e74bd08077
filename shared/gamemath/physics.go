// Package gamemath holds the integration rules shared by the client predictor
// and the server, so both sides step objects identically.
package gamemath

import (
	"github.com/automoto/driftline/shared/netconfig"
	"github.com/automoto/driftline/shared/snapshot"
	"github.com/go-gl/mathgl/mgl64"
)

// Step advances prev by one tick. The location moves by the previous velocity;
// the new velocity is the input override when present, otherwise it carries over.
func Step(prev snapshot.Snapshot, input mgl64.Vec3, hasInput bool) snapshot.Snapshot {
	next := snapshot.Snapshot{
		Location: prev.Location.Add(prev.Velocity.Mul(netconfig.TickSeconds)),
		Velocity: prev.Velocity,
	}
	if hasInput {
		next.Velocity = input
	}
	return next
}

// LocationError is the Euclidean distance between two locations.
func LocationError(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// NeedsCorrection reports whether a predicted location is far enough from the
// authoritative one to warrant a rollback. The comparison is strict.
func NeedsCorrection(predicted, authoritative mgl64.Vec3, epsilon float64) bool {
	return LocationError(predicted, authoritative) > epsilon
}
