package leveldata

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/automoto/driftline/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lafriks/go-tiled"
)

const (
	wallLayer   = "walls"
	objectGroup = "objects"
)

// Load parses a TMX file. Tiles on the "walls" layer become walls; objects in
// the "objects" group become networked objects, ordered by their Tiled id.
// Objects may carry vx, vy and vz float properties for their initial velocity
// in units per second. It takes an fs.FS so callers can pass embed.FS or
// os.DirFS.
func Load(fsys fs.FS, tmxPath string) (*Level, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	tileW := float64(levelMap.TileWidth)
	tileH := float64(levelMap.TileHeight)
	level := &Level{
		Name:   strings.TrimSuffix(filepath.Base(tmxPath), ".tmx"),
		Width:  float64(levelMap.Width),
		Height: float64(levelMap.Height),
	}

	for _, layer := range levelMap.Layers {
		if layer.Name != wallLayer {
			continue
		}
		for y := 0; y < levelMap.Height; y++ {
			for x := 0; x < levelMap.Width; x++ {
				if layer.Tiles[y*levelMap.Width+x].IsNil() {
					continue
				}
				level.Walls = append(level.Walls, Rect{X: float64(x), Y: float64(y), W: 1, H: 1})
			}
		}
		break
	}

	for _, og := range levelMap.ObjectGroups {
		if og.Name != objectGroup {
			continue
		}
		objs := append([]*tiled.Object(nil), og.Objects...)
		sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
		for _, o := range objs {
			size := 1.0
			if o.Width > 0 {
				size = o.Width / tileW
			}
			level.Objects = append(level.Objects, ObjectSpawn{
				Name:     o.Name,
				Location: mgl64.Vec3{o.X / tileW, o.Y / tileH, 0},
				Velocity: mgl64.Vec3{
					o.Properties.GetFloat("vx"),
					o.Properties.GetFloat("vy"),
					o.Properties.GetFloat("vz"),
				},
				Size: size,
			})
		}
	}

	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", tmxPath, err)
	}
	return level, nil
}

// LoadPath reads a .tmx file from disk, or returns the built-in arena when
// path is empty.
func LoadPath(path string) (*Level, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Validate checks the level is usable by the network layer.
func (l *Level) Validate() error {
	if len(l.Objects) == 0 {
		return fmt.Errorf("level %q has no networked objects", l.Name)
	}
	if len(l.Objects) > netconfig.MaxObjects {
		return fmt.Errorf("level %q has %d networked objects, max %d", l.Name, len(l.Objects), netconfig.MaxObjects)
	}
	return nil
}

// LoadAll discovers every .tmx file in dir within fsys and returns the levels
// keyed by stem name plus a sorted list of names.
func LoadAll(fsys fs.FS, dir string) (map[string]*Level, []string, error) {
	pattern := dir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", dir)
	}

	levels := make(map[string]*Level, len(matches))
	names := make([]string, 0, len(matches))
	for _, path := range matches {
		level, err := Load(fsys, path)
		if err != nil {
			return nil, nil, err
		}
		levels[level.Name] = level
		names = append(names, level.Name)
	}

	sort.Strings(names)
	return levels, names, nil
}
