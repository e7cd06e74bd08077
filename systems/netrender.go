package systems

import (
	"fmt"
	"image/color"

	cfg "github.com/automoto/driftline/config"
	"github.com/automoto/driftline/fonts"
	"github.com/automoto/driftline/network"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/shared/netcomponents"
	"github.com/automoto/driftline/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// objectColors cycles per network id so objects stay tellable apart.
var objectColors = []color.RGBA{
	cfg.LightBlue,
	{R: 240, G: 160, B: 60, A: 255},
	{R: 120, G: 220, B: 120, A: 255},
	{R: 220, G: 100, B: 180, A: 255},
}

// NewLevelRenderer draws the level walls.
func NewLevelRenderer(level *leveldata.Level, scale float64) func(*ecs.ECS, *ebiten.Image) {
	return func(_ *ecs.ECS, screen *ebiten.Image) {
		for _, w := range level.Walls {
			vector.DrawFilledRect(screen,
				float32(w.X*scale), float32(w.Y*scale), float32(w.W*scale), float32(w.H*scale),
				cfg.DarkBlue, false)
		}
	}
}

// NewNetObjectRenderer draws every networked object at its render location, with a
// short line along its velocity.
func NewNetObjectRenderer(scale float64) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		tags.Networked.Each(e.World, func(entry *donburi.Entry) {
			loc := netcomponents.RenderLocation.Get(entry).Location
			body := netcomponents.Body.Get(entry)
			id := netcomponents.NetworkIdentity.Get(entry).NetworkID

			x := float32(loc[0] * scale)
			y := float32(loc[1] * scale)
			size := float32(body.Size * scale)
			vector.DrawFilledRect(screen, x, y, size, size, objectColors[int(id)%len(objectColors)], false)

			cx, cy := x+size/2, y+size/2
			vx := float32(body.Velocity[0] * scale / 4)
			vy := float32(body.Velocity[1] * scale / 4)
			vector.StrokeLine(screen, cx, cy, cx+vx, cy+vy, 2, cfg.White, false)
		})
	}
}

// NewNetHUD draws the connection state and, with debug on, prediction details.
func NewNetHUD(session *network.Session, debug *bool) func(*ecs.ECS, *ebiten.Image) {
	return func(_ *ecs.ECS, screen *ebiten.Image) {
		face := fonts.Regular.Get()
		info := fmt.Sprintf("%s  objects: %d", session.State(), len(session.Entities()))
		text.Draw(screen, info, face, 4, 12, cfg.BrightGrey)

		if debug == nil || !*debug {
			return
		}
		pred := session.Prediction()
		pending := "-"
		if t, ok := pred.Pending(); ok {
			pending = fmt.Sprint(uint32(t))
		}
		lines := []string{
			fmt.Sprintf("tick %d  pending %s  interp %.2f  smoothing %d",
				uint32(pred.Current()), pending, session.Interp(), session.Smoothing()),
		}
		for _, e := range session.Entities() {
			s, ok := pred.Latest(e)
			if !ok {
				continue
			}
			id := netcomponents.NetworkIdentity.Get(session.World().Entry(e)).NetworkID
			lines = append(lines, fmt.Sprintf("%d: loc %.2f %.2f %.2f  vel %.2f %.2f %.2f", id,
				s.Location[0], s.Location[1], s.Location[2],
				s.Velocity[0], s.Velocity[1], s.Velocity[2]))
		}
		mono := fonts.Mono.Get()
		for i, l := range lines {
			text.Draw(screen, l, mono, 4, 28+i*12, cfg.White)
		}
	}
}
