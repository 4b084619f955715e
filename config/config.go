// Package config loads the marquee CLI configuration from TOML.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Player  PlayerConfig  `toml:"player"`
	Window  WindowConfig  `toml:"window"`
	Logging LoggingConfig `toml:"logging"`
	Script  ScriptConfig  `toml:"script"`
}

type PlayerConfig struct {
	FrameRateOverride float64 `toml:"frame_rate_override"` // 0 keeps the movie's rate
	MaxFramesPerTick  int     `toml:"max_frames_per_tick"`
	StartPaused       bool    `toml:"start_paused"`
	Letterbox         bool    `toml:"letterbox"`
	DeviceFont        string  `toml:"device_font"` // path to a DefineFont3 tag record
	Debug             bool    `toml:"debug"`
}

type WindowConfig struct {
	Width     int    `toml:"width"`  // 0 uses the movie's stage width
	Height    int    `toml:"height"` // 0 uses the movie's stage height
	Title     string `toml:"title"`
	Resizable bool   `toml:"resizable"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ScriptConfig struct {
	LuaDir string `toml:"lua_dir"` // empty disables Lua handlers
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Player.FrameRateOverride < 0:
		return fmt.Errorf("player.frame_rate_override must be >= 0, got %v", c.Player.FrameRateOverride)
	case c.Player.MaxFramesPerTick < 1:
		return fmt.Errorf("player.max_frames_per_tick must be >= 1, got %d", c.Player.MaxFramesPerTick)
	case c.Window.Width < 0 || c.Window.Height < 0:
		return fmt.Errorf("window size must not be negative, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Player: PlayerConfig{
			MaxFramesPerTick: 5,
			Letterbox:        true,
		},
		Window: WindowConfig{
			Title:     "marquee",
			Resizable: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
