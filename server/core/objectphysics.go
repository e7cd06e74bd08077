package core

import (
	"github.com/automoto/driftline/shared/messages"
	"github.com/automoto/driftline/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

// ObjectPhysics holds per-object collision state on the server. This is not a
// donburi component; it exists only on the server and is never synced.
type ObjectPhysics struct {
	Entity    donburi.Entity
	NetworkID messages.NetworkID
	Object    *resolv.Object
	Size      float64

	// velocity override from input, applied on the next step
	Input    mgl64.Vec3
	HasInput bool
}

func newObjectPhysics(level *ServerLevel, entity donburi.Entity, id messages.NetworkID, loc mgl64.Vec3, size float64) *ObjectPhysics {
	px := size * pixelsPerUnit
	obj := resolv.NewObject(loc[0]*pixelsPerUnit, loc[1]*pixelsPerUnit, px, px, tags.ResolvObject)
	obj.SetShape(resolv.NewRectangle(0, 0, px, px))
	level.Space.Add(obj)

	return &ObjectPhysics{
		Entity:    entity,
		NetworkID: id,
		Object:    obj,
		Size:      size,
	}
}

func removeObjectPhysics(level *ServerLevel, op *ObjectPhysics) {
	level.Space.Remove(op.Object)
}
