package core

import (
	"fmt"
	"log"
	"math"

	"github.com/automoto/driftline/assets"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/tags"
	"github.com/solarlune/resolv"
)

// pixelsPerUnit scales world units into the integer-friendly space resolv
// works in.
const pixelsPerUnit = 16

// ServerLevel holds the server's collision space and the level it was built from.
type ServerLevel struct {
	Space *resolv.Space
	Data  *leveldata.Level
}

// NewServerLevel builds a resolv.Space from parsed level data.
func NewServerLevel(data *leveldata.Level) *ServerLevel {
	w := int(math.Ceil(data.Width * pixelsPerUnit))
	h := int(math.Ceil(data.Height * pixelsPerUnit))
	space := resolv.NewSpace(w, h, pixelsPerUnit, pixelsPerUnit)

	for _, r := range data.Walls {
		obj := resolv.NewObject(r.X*pixelsPerUnit, r.Y*pixelsPerUnit, r.W*pixelsPerUnit, r.H*pixelsPerUnit, tags.ResolvWall)
		obj.SetShape(resolv.NewRectangle(0, 0, r.W*pixelsPerUnit, r.H*pixelsPerUnit))
		space.Add(obj)
	}

	log.Printf("[server] loaded level %q: %d walls, %d objects, %gx%g units",
		data.Name, len(data.Walls), len(data.Objects), data.Width, data.Height)

	return &ServerLevel{Space: space, Data: data}
}

// LoadServerLevel resolves name to a .tmx file or bundled level, or the
// built-in arena when name is empty.
func LoadServerLevel(name string) (*ServerLevel, error) {
	data, err := assets.ResolveLevel(name)
	if err != nil {
		return nil, fmt.Errorf("load level: %w", err)
	}
	return NewServerLevel(data), nil
}
