// Package leveldata provides level parsing shared between client and server.
// It has no dependencies on ebitengine, donburi, or resolv, pure data only.
//
// Coordinates are world units, one unit per tile.
package leveldata

import "github.com/go-gl/mathgl/mgl64"

// Level is the static layout both sides build their networked objects from.
type Level struct {
	Name    string
	Width   float64
	Height  float64
	Walls   []Rect
	Objects []ObjectSpawn
}

// Rect is an axis-aligned solid region.
type Rect struct {
	X, Y, W, H float64
}

// ObjectSpawn is one networked object. Its position in Level.Objects is its
// network id.
type ObjectSpawn struct {
	Name     string
	Location mgl64.Vec3
	Velocity mgl64.Vec3
	Size     float64
}

// Default is the built-in arena: a walled room with one object drifting
// toward the east wall.
func Default() *Level {
	const w, h = 20.0, 12.0
	return &Level{
		Name:   "arena",
		Width:  w,
		Height: h,
		Walls: []Rect{
			{X: 0, Y: 0, W: w, H: 1},
			{X: 0, Y: h - 1, W: w, H: 1},
			{X: 0, Y: 0, W: 1, H: h},
			{X: w - 1, Y: 0, W: 1, H: h},
		},
		Objects: []ObjectSpawn{
			{
				Name:     "mesh0",
				Location: mgl64.Vec3{10, 5.5, 0},
				Velocity: mgl64.Vec3{2, 0, 0},
				Size:     1,
			},
		},
	}
}
