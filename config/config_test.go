package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marquee.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Defaults() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
	if cfg.Player.MaxFramesPerTick != 5 || !cfg.Player.Letterbox {
		t.Errorf("player defaults = %+v", cfg.Player)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[player]
frame_rate_override = 30
start_paused = true

[window]
width = 640
title = "demo"

[logging]
format = "json"

[script]
lua_dir = "scripts"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Player.FrameRateOverride != 30 || !cfg.Player.StartPaused {
		t.Errorf("player = %+v", cfg.Player)
	}
	// Unset keys keep their defaults.
	if cfg.Player.MaxFramesPerTick != 5 || !cfg.Player.Letterbox {
		t.Errorf("player defaults lost: %+v", cfg.Player)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 0 || cfg.Window.Title != "demo" {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Script.LuaDir != "scripts" {
		t.Errorf("lua_dir = %q, want scripts", cfg.Script.LuaDir)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[player\n", "parse config"},
		{"negative rate", "[player]\nframe_rate_override = -1\n", "frame_rate_override"},
		{"zero catch-up", "[player]\nmax_frames_per_tick = 0\n", "max_frames_per_tick"},
		{"negative window", "[window]\nheight = -5\n", "window size"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(missing) = nil error")
	}
}
