package assets

import "testing"

func TestBundledLevelsLoad(t *testing.T) {
	levels, names, err := Levels()
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(names) != 2 || names[0] != "arena" || names[1] != "pillars" {
		t.Fatalf("names = %v", names)
	}

	arena := levels["arena"]
	if arena.Width != 20 || arena.Height != 12 {
		t.Fatalf("arena size = %gx%g", arena.Width, arena.Height)
	}
	// a one-tile border
	if len(arena.Walls) != 2*20+2*10 {
		t.Fatalf("arena walls = %d", len(arena.Walls))
	}
	if len(arena.Objects) != 1 || arena.Objects[0].Velocity[0] != 2 {
		t.Fatalf("arena objects = %+v", arena.Objects)
	}

	pillars := levels["pillars"]
	if len(pillars.Objects) != 4 || pillars.Objects[1].Name != "mesh1" || pillars.Objects[1].Velocity[0] != -2 {
		t.Fatalf("pillars objects = %+v", pillars.Objects)
	}
}

func TestResolveLevel(t *testing.T) {
	l, err := ResolveLevel("")
	if err != nil || l.Name != "arena" {
		t.Fatalf("empty name: %v %v", l, err)
	}
	l, err = ResolveLevel("pillars")
	if err != nil || l.Name != "pillars" {
		t.Fatalf("bundled: %v %v", l, err)
	}
	if _, err := ResolveLevel("nowhere"); err == nil {
		t.Fatalf("unknown level should fail")
	}
}
