package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/driftline/config"
	"github.com/automoto/driftline/server/core"
	"github.com/automoto/driftline/shared/transport/wsnet"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (empty = defaults)")
	port := flag.Uint("port", 0, "Server port (0 = config)")
	levelPath := flag.String("level", "", "Level .tmx file or bundled name (empty = config, then built-in arena)")
	recordDir := flag.String("record", "", "Directory for session recordings (empty = config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := config.C
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *levelPath != "" {
		cfg.Server.Level = *levelPath
	}
	if *recordDir != "" {
		cfg.Server.RecordDir = *recordDir
	}

	level, err := core.LoadServerLevel(cfg.Server.Level)
	if err != nil {
		log.Fatalf("Failed to load level: %v", err)
	}

	ws := wsnet.NewServer(cfg.Server.Port)
	server := core.NewServer(core.OptionsFromConfig(cfg), level, ws)

	if cfg.Server.RecordDir != "" {
		rec, err := core.NewRecorder(cfg.Server.RecordDir)
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		log.Printf("Recording session to %s", rec.Path())
		server.SetRecorder(rec)
	}

	go func() {
		if err := ws.ListenAndServe(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()
	server.Start()

	log.Printf("Starting driftline server on port %d (level %q, %d objects)",
		cfg.Server.Port, level.Data.Name, len(level.Data.Objects))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down server...")
	server.Stop()
}
