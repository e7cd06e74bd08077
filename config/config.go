package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/automoto/driftline/shared/netconfig"
	"github.com/pelletier/go-toml/v2"
)

// SimConfig contains the simulation tuning shared by client and server.
type SimConfig struct {
	Workers           int     `toml:"workers"`    // 0 = GOMAXPROCS
	BatchSize         int     `toml:"batch_size"` // entities per worker task
	CorrectionEpsilon float64 `toml:"correction_epsilon"`
	FullUpdatePeriod  int     `toml:"full_update_period"` // ticks between full updates
}

// NetConfig contains clock sync and correction handling.
type NetConfig struct {
	PingIntervalTicks int  `toml:"ping_interval_ticks"`
	SmoothingTicks    int  `toml:"smoothing_ticks"` // render correction decay, in ticks
	StrictNetworkIDs  bool `toml:"strict_network_ids"`

	// InputWindowTicks limits how long after the bootstrap probe local input
	// may still be applied by the predictor. Zero means no limit.
	InputWindowTicks int `toml:"input_window_ticks"`
}

// ServerConfig contains dedicated server settings.
type ServerConfig struct {
	Port          uint     `toml:"port"`
	Level         string   `toml:"level"`      // .tmx path or bundled level name, empty = built-in arena
	RecordDir     string   `toml:"record_dir"` // empty disables session recording
	ClientTimeout Duration `toml:"client_timeout"`
}

// ClientConfig contains the windowed client settings.
type ClientConfig struct {
	ServerAddr string  `toml:"server_addr"`
	Level      string  `toml:"level"`
	Speed      float64 `toml:"speed"` // units per second for keyboard input
}

// Config holds general configuration
type Config struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Scale  float64 `toml:"scale"` // pixels per world unit

	Sim    SimConfig    `toml:"sim"`
	Net    NetConfig    `toml:"net"`
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
}

// Duration reads "250ms" style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var ErrInvalid = errors.New("config: invalid value")

// Global configuration instance
var C *Config

// Shared RGBA color constants
var (
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	LightBlue  = color.RGBA{R: 100, G: 180, B: 255, A: 255}
	DarkBlue   = color.RGBA{R: 60, G: 100, B: 160, A: 255}
	BrightGrey = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	Background = color.RGBA{R: 20, G: 24, B: 32, A: 255}
)

func init() {
	C = Default()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Width:  640,
		Height: 384,
		Scale:  32,
		Sim: SimConfig{
			Workers:           0,
			BatchSize:         netconfig.BatchSize,
			CorrectionEpsilon: netconfig.CorrectionEpsilon,
			FullUpdatePeriod:  netconfig.FullUpdatePeriod,
		},
		Net: NetConfig{
			PingIntervalTicks: netconfig.DefaultPingInterval,
			SmoothingTicks:    netconfig.FullUpdatePeriod,
		},
		Server: ServerConfig{
			Port:          7373,
			ClientTimeout: Duration{10 * time.Second},
		},
		Client: ClientConfig{
			ServerAddr: "localhost:7373",
			Speed:      4,
		},
	}
}

// Load reads a TOML file over the defaults. Missing keys keep their default.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Sim.BatchSize <= 0:
		return fmt.Errorf("%w: sim.batch_size must be positive", ErrInvalid)
	case c.Sim.Workers < 0:
		return fmt.Errorf("%w: sim.workers must not be negative", ErrInvalid)
	case c.Sim.CorrectionEpsilon < 0:
		return fmt.Errorf("%w: sim.correction_epsilon must not be negative", ErrInvalid)
	case c.Sim.FullUpdatePeriod <= 0 || c.Sim.FullUpdatePeriod >= netconfig.RingLen:
		return fmt.Errorf("%w: sim.full_update_period must be in (0, %d)", ErrInvalid, netconfig.RingLen)
	case c.Net.PingIntervalTicks <= 0:
		return fmt.Errorf("%w: net.ping_interval_ticks must be positive", ErrInvalid)
	case c.Net.SmoothingTicks < 0:
		return fmt.Errorf("%w: net.smoothing_ticks must not be negative", ErrInvalid)
	case c.Net.InputWindowTicks < 0:
		return fmt.Errorf("%w: net.input_window_ticks must not be negative", ErrInvalid)
	}
	return nil
}
