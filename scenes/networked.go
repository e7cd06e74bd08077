package scenes

import (
	"log"
	"sync"
	"time"

	cfg "github.com/automoto/driftline/config"
	"github.com/automoto/driftline/network"
	"github.com/automoto/driftline/shared/leveldata"
	"github.com/automoto/driftline/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/yohamta/donburi/ecs"
)

const (
	layerWorld ecs.LayerID = iota
	layerHUD
)

// NetworkedScene shows a server's world through a prediction session.
type NetworkedScene struct {
	ecsWorld *ecs.ECS
	session  *network.Session
	level    *leveldata.Level
	input    systems.InputState
	debug    bool
	quit     bool
	once     sync.Once
}

func NewNetworkedScene(session *network.Session, level *leveldata.Level, debug bool) *NetworkedScene {
	return &NetworkedScene{
		session: session,
		level:   level,
		debug:   debug,
	}
}

func (ns *NetworkedScene) Update() error {
	ns.once.Do(ns.configure)

	ns.ecsWorld.Update()
	if ns.quit {
		if err := ns.session.Close(); err != nil {
			log.Printf("[networked] close: %v", err)
		}
		return ebiten.Termination
	}
	return nil
}

func (ns *NetworkedScene) Draw(screen *ebiten.Image) {
	screen.Fill(cfg.Background)

	if ns.ecsWorld == nil {
		return
	}
	ns.ecsWorld.DrawLayer(layerWorld, screen)
	ns.ecsWorld.DrawLayer(layerHUD, screen)
}

// Debug reports whether the debug overlay is on.
func (ns *NetworkedScene) Debug() bool {
	return ns.debug
}

func (ns *NetworkedScene) configure() {
	ns.ecsWorld = ecs.NewECS(ns.session.World())

	ns.ecsWorld.AddSystem(systems.NewNetInputSystem(ns.session, &ns.input, cfg.C.Client.Speed))
	ns.ecsWorld.AddSystem(ns.updateSession)
	ns.ecsWorld.AddRenderer(layerWorld, systems.NewLevelRenderer(ns.level, cfg.C.Scale))
	ns.ecsWorld.AddRenderer(layerWorld, systems.NewNetObjectRenderer(cfg.C.Scale))
	ns.ecsWorld.AddRenderer(layerHUD, systems.NewNetHUD(ns.session, &ns.debug))
}

// updateSession runs after input polling so a key press is predicted in the
// same frame it is read.
func (ns *NetworkedScene) updateSession(_ *ecs.ECS) {
	if ns.input.JustPressed(systems.ActionToggleDebug) {
		ns.debug = !ns.debug
	}
	if ns.input.JustPressed(systems.ActionQuit) {
		ns.quit = true
		return
	}

	prev := ns.session.State()
	ns.session.Update(time.Now())
	if state := ns.session.State(); state != prev {
		log.Printf("[networked] %s -> %s", prev, state)
	}
}
