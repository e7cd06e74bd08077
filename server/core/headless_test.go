package core

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/automoto/driftline"

// packageImports lists the imports of the non-test files in dir.
func packageImports(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var imports []string
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, spec := range f.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				t.Fatalf("%s: bad import %s", name, spec.Path.Value)
			}
			imports = append(imports, path)
		}
	}
	return imports
}

// The dedicated server must build without cgo or a display, so nothing it
// links may pull in ebiten.
func TestServerStaysHeadless(t *testing.T) {
	root := filepath.Join("..", "..")
	roots := []string{"server/core", "server/cmd/server", "server/cmd/replay", "network", "config"}

	via := map[string]string{}
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		pkg := modulePath + "/" + r
		via[pkg] = ""
		queue = append(queue, pkg)
	}
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]
		rel := strings.TrimPrefix(strings.TrimPrefix(pkg, modulePath), "/")
		for _, imp := range packageImports(t, filepath.Join(root, filepath.FromSlash(rel))) {
			if strings.HasPrefix(imp, "github.com/hajimehoshi/ebiten") {
				chain := pkg
				for p := via[pkg]; p != ""; p = via[p] {
					chain = p + " -> " + chain
				}
				t.Fatalf("%s -> %s", chain, imp)
			}
			if !strings.HasPrefix(imp, modulePath+"/") {
				continue
			}
			if _, seen := via[imp]; seen {
				continue
			}
			via[imp] = pkg
			queue = append(queue, imp)
		}
	}
	if _, ok := via[modulePath+"/config"]; !ok {
		t.Fatalf("config was not walked")
	}
}
