package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Game    GameConfig     `toml:"game"`
	Players []PlayerConfig `toml:"players"`
	Journal JournalConfig  `toml:"journal"`
	Display DisplayConfig  `toml:"display"`
	Path    string         `toml:"-"`
}

type GameConfig struct {
	FeatureSize          int  `toml:"feature_size"`
	FeatureCount         int  `toml:"feature_count"`
	DeckSize             int  `toml:"deck_size"`
	TableSize            int  `toml:"table_size"`
	TurnTimeoutMS        int  `toml:"turn_timeout_ms"`
	TurnTimeoutWarningMS int  `toml:"turn_timeout_warning_ms"`
	PointFreezeMS        int  `toml:"point_freeze_ms"`
	PenaltyFreezeMS      int  `toml:"penalty_freeze_ms"`
	KeepCountdownOnMatch bool `toml:"keep_countdown_on_match"`
	Hints                bool `toml:"hints"`
	Seed                 int64 `toml:"seed"`
}

type PlayerConfig struct {
	Name  string `toml:"name"`
	Human bool   `toml:"human"`
}

type JournalConfig struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"`
}

type DisplayConfig struct {
	Mode string `toml:"mode"`
}

func (g GameConfig) TurnTimeout() time.Duration {
	return time.Duration(g.TurnTimeoutMS) * time.Millisecond
}

func (g GameConfig) TurnTimeoutWarning() time.Duration {
	return time.Duration(g.TurnTimeoutWarningMS) * time.Millisecond
}

func (g GameConfig) PointFreeze() time.Duration {
	return time.Duration(g.PointFreezeMS) * time.Millisecond
}

func (g GameConfig) PenaltyFreeze() time.Duration {
	return time.Duration(g.PenaltyFreezeMS) * time.Millisecond
}

// Load reads the config file at path, or the defaults when path is empty
// or the file does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	resolved := path
	if strings.HasPrefix(resolved, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed := strings.TrimPrefix(resolved, "~")
		trimmed = strings.TrimPrefix(trimmed, "/")
		resolved = filepath.Join(home, trimmed)
	}
	resolved = filepath.Clean(resolved)

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", resolved, err)
	}
	if _, err := toml.Decode(string(bytes), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config file: %w", err)
	}
	cfg.Path = resolved
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the standard game: 4 features x 3 values (81 cards),
// a 12-slot board, 60 second rounds and two autonomous players.
func Default() Config {
	return Config{
		Game: GameConfig{
			FeatureSize:          3,
			FeatureCount:         4,
			TableSize:            12,
			TurnTimeoutMS:        60_000,
			TurnTimeoutWarningMS: 5_000,
			PointFreezeMS:        1_000,
			PenaltyFreezeMS:      3_000,
		},
		Players: []PlayerConfig{
			{Name: "ada"},
			{Name: "bob"},
		},
		Journal: JournalConfig{Path: "data/trio_table.db"},
		Display: DisplayConfig{Mode: "console"},
	}
}

func (c *Config) Validate() error {
	g := &c.Game
	if g.FeatureSize < 2 {
		return fmt.Errorf("feature_size must be at least 2, got %d", g.FeatureSize)
	}
	if g.FeatureCount < 1 {
		return fmt.Errorf("feature_count must be at least 1, got %d", g.FeatureCount)
	}
	full := 1
	for i := 0; i < g.FeatureCount; i++ {
		full *= g.FeatureSize
	}
	if g.DeckSize == 0 {
		g.DeckSize = full
	}
	if g.DeckSize < g.FeatureSize || g.DeckSize > full {
		return fmt.Errorf("deck_size must be between %d and %d, got %d", g.FeatureSize, full, g.DeckSize)
	}
	if g.TableSize < g.FeatureSize {
		return fmt.Errorf("table_size must be at least feature_size (%d), got %d", g.FeatureSize, g.TableSize)
	}
	if g.TurnTimeoutMS <= 0 {
		return fmt.Errorf("turn_timeout_ms must be positive, got %d", g.TurnTimeoutMS)
	}
	if g.TurnTimeoutWarningMS < 0 || g.TurnTimeoutWarningMS >= g.TurnTimeoutMS {
		return fmt.Errorf("turn_timeout_warning_ms must be in [0, turn_timeout_ms), got %d", g.TurnTimeoutWarningMS)
	}
	if g.PointFreezeMS < 0 || g.PenaltyFreezeMS < 0 {
		return fmt.Errorf("freeze durations must not be negative")
	}
	if len(c.Players) == 0 {
		return fmt.Errorf("at least one player is required")
	}
	for i := range c.Players {
		if strings.TrimSpace(c.Players[i].Name) == "" {
			c.Players[i].Name = fmt.Sprintf("player-%d", i)
		}
	}
	switch c.Display.Mode {
	case "", "console", "tui":
	default:
		return fmt.Errorf("display mode must be console or tui, got %q", c.Display.Mode)
	}
	return nil
}
