package assets

import (
	"embed"
	"fmt"
	"path/filepath"

	"github.com/automoto/driftline/shared/leveldata"
)

var (
	//go:embed levels/*.tmx
	levelFS embed.FS
)

// Levels parses every bundled level, keyed by name, plus the sorted names.
func Levels() (map[string]*leveldata.Level, []string, error) {
	return leveldata.LoadAll(levelFS, "levels")
}

// ResolveLevel finds a level by what the user typed: a path to a .tmx file
// on disk, the name of a bundled level, or nothing for the built-in arena.
func ResolveLevel(name string) (*leveldata.Level, error) {
	if name == "" || filepath.Ext(name) == ".tmx" {
		return leveldata.LoadPath(name)
	}
	levels, names, err := Levels()
	if err != nil {
		return nil, err
	}
	level, ok := levels[name]
	if !ok {
		return nil, fmt.Errorf("unknown level %q, bundled: %v", name, names)
	}
	return level, nil
}
