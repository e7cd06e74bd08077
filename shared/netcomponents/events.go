package netcomponents

import (
	"github.com/automoto/driftline/shared/tick"
	"github.com/go-gl/mathgl/mgl64"
)

// Component is the closed set of values carried on the event bus.
type Component interface {
	isComponent()
}

// InputAcceleration is a local input vector. Sent to the null entity it
// applies to every networked object.
type InputAcceleration struct {
	Acceleration mgl64.Vec2
}

// Location is emitted after an object has been stepped.
type Location struct {
	Location mgl64.Vec3
}

// Velocity is emitted after an object has been stepped.
type Velocity struct {
	Velocity mgl64.Vec3
}

// NetStaticMeshLocation is an authoritative location at Timestamp, already
// translated to the local clock.
type NetStaticMeshLocation struct {
	Timestamp tick.Timestamp
	Location  mgl64.Vec3
}

// NetStaticMeshVelocity is an authoritative velocity at Timestamp, already
// translated to the local clock.
type NetStaticMeshVelocity struct {
	Timestamp tick.Timestamp
	Velocity  mgl64.Vec3
}

// Timestamp resets the local simulation clock.
type Timestamp struct {
	Timestamp tick.Timestamp
}

// Correction reports how far a rollback moved an object's latest location.
// Offset is old minus new.
type Correction struct {
	Offset mgl64.Vec3
}

func (InputAcceleration) isComponent()     {}
func (Location) isComponent()              {}
func (Velocity) isComponent()              {}
func (NetStaticMeshLocation) isComponent() {}
func (NetStaticMeshVelocity) isComponent() {}
func (Timestamp) isComponent()             {}
func (Correction) isComponent()            {}
