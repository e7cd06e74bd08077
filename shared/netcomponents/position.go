package netcomponents

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

// RenderLocationData is where the renderer draws an object this frame. It is
// written by the render system only and never read by physics.
type RenderLocationData struct {
	Location mgl64.Vec3
}

var RenderLocation = donburi.NewComponentType[RenderLocationData]()

// Lerp interpolates between two locations.
func Lerp(from, to mgl64.Vec3, t float64) mgl64.Vec3 {
	return from.Add(to.Sub(from).Mul(t))
}
