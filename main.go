package main

import (
	"errors"
	"flag"
	"log"

	"github.com/automoto/driftline/assets"
	"github.com/automoto/driftline/config"
	"github.com/automoto/driftline/fonts"
	"github.com/automoto/driftline/network"
	"github.com/automoto/driftline/scenes"
	"github.com/automoto/driftline/shared/transport/wsnet"
	"github.com/automoto/driftline/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

type Scene interface {
	Update() error
	Draw(screen *ebiten.Image)
}

type Game struct {
	scene Scene
}

func (g *Game) Update() error {
	return g.scene.Update()
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	return config.C.Width, config.C.Height
}

func main() {
	configPath := flag.String("config", "", "TOML config file (empty = defaults)")
	server := flag.String("server", "", "Server address host:port (empty = last used, then config)")
	levelPath := flag.String("level", "", "Level .tmx file or bundled name, must match the server's")
	debug := flag.Bool("debug", false, "Start with the debug overlay on")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		config.C = cfg
	}
	if *levelPath == "" {
		*levelPath = config.C.Client.Level
	}

	if err := systems.InitPersistence(); err != nil {
		log.Printf("Warning: Could not initialize persistence: %v", err)
	}
	saved, _ := systems.LoadSettings()
	if saved == nil {
		saved = &systems.SavedSettings{}
	}
	systems.ApplySavedSettings(saved)

	addr := *server
	if addr == "" {
		addr = saved.ServerAddr
	}
	if addr == "" {
		addr = config.C.Client.ServerAddr
	}

	if err := fonts.LoadDefaults(); err != nil {
		log.Fatal(err)
	}
	level, err := assets.ResolveLevel(*levelPath)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Connecting to %s (level %q)", addr, level.Name)
	conn := wsnet.Dial(addr)
	session := network.NewSession(network.SessionOptionsFromConfig(config.C), level, conn, conn.Addr())
	scene := scenes.NewNetworkedScene(session, level, *debug || saved.Debug)

	ebiten.SetWindowSize(config.C.Width, config.C.Height)
	ebiten.SetWindowTitle("driftline")
	ebiten.SetTPS(ebiten.SyncWithFPS)

	err = ebiten.RunGame(&Game{scene: scene})

	saved.ServerAddr = addr
	saved.Debug = scene.Debug()
	if serr := systems.SaveSettings(saved); serr != nil {
		log.Printf("Warning: Could not save settings: %v", serr)
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
