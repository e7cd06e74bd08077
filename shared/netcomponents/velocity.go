package netcomponents

import (
	"github.com/automoto/driftline/shared/snapshot"
	"github.com/yohamta/donburi"
)

// BodyData is the stepped physical state of an object: ground truth on the
// server, the latest prediction on a client.
type BodyData struct {
	snapshot.Snapshot
	Size float64 // edge length of the collision box
}

var Body = donburi.NewComponentType[BodyData]()
