package tags

import "github.com/yohamta/donburi"

var Networked = donburi.NewTag().SetName("Networked")

// Resolv tags for physics collision
const (
	ResolvWall   = "wall"
	ResolvObject = "object"
)
