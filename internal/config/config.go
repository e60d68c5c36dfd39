// Package config loads the controller's YAML configuration: which scan
// units exist and how to reach them, the engine, the motion port, and the
// piece enrolment table.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larkspur/tagboard/internal/board"
	"github.com/larkspur/tagboard/internal/tag"
)

// Config is the root of the controller configuration file.
type Config struct {
	// Listen is the HTTP API address. Empty means ":8080".
	Listen string `yaml:"listen"`

	// Database is the sqlite path for the game log. Empty means
	// "tagboard.db".
	Database string `yaml:"database"`

	// PollIntervalMs is how often the controller sweeps the units. Zero
	// means 250ms.
	PollIntervalMs int `yaml:"poll_interval_ms"`

	Engine EngineConfig `yaml:"engine"`
	Motion MotionConfig `yaml:"motion"`

	Units  []UnitConfig  `yaml:"units"`
	Pieces []PieceConfig `yaml:"pieces"`
}

// EngineConfig points at a UCI engine. An empty path runs the controller as
// a pure observer: moves are detected and logged but never answered.
type EngineConfig struct {
	Path       string `yaml:"path"`
	MoveTimeMs int    `yaml:"move_time_ms"`
}

// MotionConfig points at the gantry motion controller's USB adapter. Empty
// serial number disables motion output.
type MotionConfig struct {
	SerialNumber string `yaml:"serial_number"`
	Baud         int    `yaml:"baud"`
}

// UnitConfig describes one scan unit link. Exactly one of SerialNumber
// (USB adapter serial number) or Addr (dev-mode TCP address) must be set.
type UnitConfig struct {
	// Label names the unit in logs and the API.
	Label string `yaml:"label"`

	// Side is "left" (files a-d) or "right" (files e-h).
	Side string `yaml:"side"`

	SerialNumber string `yaml:"serial_number"`
	Addr         string `yaml:"addr"`

	Baud          int `yaml:"baud"`
	ReadTimeoutMs int `yaml:"read_timeout_ms"`
	BootDelayMs   int `yaml:"boot_delay_ms"`

	// Remap is the per-multiplexer-block channel permutation for this
	// unit's wiring. Empty means identity.
	Remap []int `yaml:"remap"`
}

// PieceConfig enrols one physical piece's tag.
type PieceConfig struct {
	UID   string `yaml:"uid"`
	Piece string `yaml:"piece"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field invariants. Defaults are applied by the
// accessor methods, not here.
func (c *Config) Validate() error {
	if len(c.Units) == 0 {
		return fmt.Errorf("config: at least one unit required")
	}
	sides := map[string]bool{}
	for i, u := range c.Units {
		if u.Label == "" {
			return fmt.Errorf("config: units[%d]: label required", i)
		}
		if u.Side != "left" && u.Side != "right" {
			return fmt.Errorf("config: unit %s: side must be left or right, got %q", u.Label, u.Side)
		}
		if sides[u.Side] {
			return fmt.Errorf("config: unit %s: side %s already taken", u.Label, u.Side)
		}
		sides[u.Side] = true
		if (u.SerialNumber == "") == (u.Addr == "") {
			return fmt.Errorf("config: unit %s: exactly one of serial_number or addr required", u.Label)
		}
		if _, err := u.BoardRemap(); err != nil {
			return fmt.Errorf("config: unit %s: %w", u.Label, err)
		}
	}
	for i, p := range c.Pieces {
		if _, err := tag.Parse(p.UID); err != nil {
			return fmt.Errorf("config: pieces[%d]: %w", i, err)
		}
		if p.Piece == "" {
			return fmt.Errorf("config: pieces[%d]: piece label required", i)
		}
	}
	return nil
}

// ListenAddr returns the HTTP listen address with its default applied.
func (c *Config) ListenAddr() string {
	if c.Listen == "" {
		return ":8080"
	}
	return c.Listen
}

// DatabasePath returns the sqlite path with its default applied.
func (c *Config) DatabasePath() string {
	if c.Database == "" {
		return "tagboard.db"
	}
	return c.Database
}

// PollInterval returns the unit sweep interval with its default applied.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// MoveTime returns the engine think time with its default applied.
func (e EngineConfig) MoveTime() time.Duration {
	if e.MoveTimeMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(e.MoveTimeMs) * time.Millisecond
}

// BoardRemap converts the unit's remap list to a board.Remap, defaulting to
// identity.
func (u UnitConfig) BoardRemap() (board.Remap, error) {
	if len(u.Remap) == 0 {
		return board.IdentityRemap(), nil
	}
	var r board.Remap
	if len(u.Remap) != len(r) {
		return r, fmt.Errorf("remap has %d entries, want %d", len(u.Remap), len(r))
	}
	copy(r[:], u.Remap)
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// Registry builds the piece registry from the enrolment table.
func (c *Config) Registry() (board.Registry, error) {
	reg := board.Registry{}
	for _, p := range c.Pieces {
		u, err := tag.Parse(p.UID)
		if err != nil {
			return nil, err
		}
		reg[u] = p.Piece
	}
	return reg, nil
}
