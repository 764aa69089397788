package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Game.DeckSize != 81 {
		t.Fatalf("deck_size = %d, want 81", cfg.Game.DeckSize)
	}
	if cfg.Game.TurnTimeout() != 60*time.Second {
		t.Fatalf("turn timeout = %s, want 60s", cfg.Game.TurnTimeout())
	}
	if len(cfg.Players) != 2 {
		t.Fatalf("default players = %d, want 2", len(cfg.Players))
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.FeatureSize != 3 || cfg.Game.FeatureCount != 4 {
		t.Fatalf("unexpected defaults: %+v", cfg.Game)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.toml")
	content := `
[game]
feature_size = 3
feature_count = 2
table_size = 6
turn_timeout_ms = 30000
turn_timeout_warning_ms = 3000
point_freeze_ms = 500
penalty_freeze_ms = 1500
hints = true

[[players]]
name = "human"
human = true

[[players]]
name = ""

[journal]
path = "journal.db"

[display]
mode = "tui"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.DeckSize != 9 {
		t.Fatalf("deck_size = %d, want 9 filled from features", cfg.Game.DeckSize)
	}
	if cfg.Game.TurnTimeout() != 30*time.Second {
		t.Fatalf("turn timeout = %s, want 30s", cfg.Game.TurnTimeout())
	}
	if !cfg.Players[0].Human {
		t.Fatalf("first player should be human")
	}
	if cfg.Players[1].Name != "player-1" {
		t.Fatalf("blank player name = %q, want player-1", cfg.Players[1].Name)
	}
	if cfg.Display.Mode != "tui" {
		t.Fatalf("display mode = %q, want tui", cfg.Display.Mode)
	}
	if cfg.Path != path {
		t.Fatalf("cfg.Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"feature_size too small", func(c *Config) { c.Game.FeatureSize = 1 }},
		{"feature_count too small", func(c *Config) { c.Game.FeatureCount = 0 }},
		{"deck too large", func(c *Config) { c.Game.DeckSize = 100 }},
		{"table smaller than a set", func(c *Config) { c.Game.TableSize = 2 }},
		{"zero timeout", func(c *Config) { c.Game.TurnTimeoutMS = 0 }},
		{"warning beyond timeout", func(c *Config) { c.Game.TurnTimeoutWarningMS = c.Game.TurnTimeoutMS }},
		{"negative freeze", func(c *Config) { c.Game.PenaltyFreezeMS = -1 }},
		{"no players", func(c *Config) { c.Players = nil }},
		{"bad display mode", func(c *Config) { c.Display.Mode = "web" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
