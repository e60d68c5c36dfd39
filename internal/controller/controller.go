// Package controller runs the board-side loop: poll every scan unit for its
// cached half-board, assemble the full position, diff it against the last
// stable position, and feed detected moves to the game manager.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/larkspur/tagboard/internal/board"
	"github.com/larkspur/tagboard/internal/game"
	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/tag"
)

// BlockReader is the slice of the unit client the controller needs; tests
// substitute scripted readers.
type BlockReader interface {
	Label() string
	Ping() error
	ReadBlock() ([]tag.UID, error)
	Close() error
}

// Unit pairs a link with its board placement and wiring remap.
type Unit struct {
	Reader BlockReader
	Side   string // "left" (files a-d) or "right" (files e-h)
	Remap  board.Remap

	mu       sync.Mutex
	ok       bool
	lastSeen time.Time
	lastErr  string
}

// UnitStatus is one unit's health as reported by the API.
type UnitStatus struct {
	Label    string    `json:"label"`
	Side     string    `json:"side"`
	OK       bool      `json:"ok"`
	LastSeen time.Time `json:"last_seen"`
	Error    string    `json:"error,omitempty"`
}

func (u *Unit) status() UnitStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UnitStatus{
		Label:    u.Reader.Label(),
		Side:     u.Side,
		OK:       u.ok,
		LastSeen: u.lastSeen,
		Error:    u.lastErr,
	}
}

func (u *Unit) markOK() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ok = true
	u.lastSeen = time.Now()
	u.lastErr = ""
}

func (u *Unit) markFailed(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ok = false
	u.lastErr = err.Error()
}

// Controller owns the poll loop and the position state.
type Controller struct {
	units    []*Unit
	registry board.Registry
	game     *game.Manager // nil: positions tracked, no game logic
	interval time.Duration

	mu       sync.Mutex
	latest   board.Position // most recent assembly, whatever its shape
	baseline board.Position // last position a detected move advanced to
	seeded   bool           // baseline adopted from the first clean sweep
}

// Config wires a Controller.
type Config struct {
	Units    []*Unit
	Registry board.Registry
	Game     *game.Manager
	Interval time.Duration
}

// New builds a Controller.
func New(cfg Config) *Controller {
	c := &Controller{
		units:    cfg.Units,
		registry: cfg.Registry,
		game:     cfg.Game,
		interval: cfg.Interval,
	}
	if c.interval <= 0 {
		c.interval = 250 * time.Millisecond
	}
	if c.registry == nil {
		c.registry = board.Registry{}
	}
	return c
}

// Run polls until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep performs one poll of all units and runs move detection. A unit that
// fails to answer contributes its half from the previous sweep, the same
// "serve the last known value" stance the units themselves take.
func (c *Controller) Sweep() {
	halves := map[string]*board.Half{}

	for _, u := range c.units {
		raw, err := u.Reader.ReadBlock()
		if err != nil {
			u.markFailed(err)
			monitoring.Logf("controller: %s: %v", u.Reader.Label(), err)
			continue
		}
		h, err := board.ReshapeHalf(raw, u.Remap)
		if err != nil {
			u.markFailed(err)
			monitoring.Logf("controller: %s: %v", u.Reader.Label(), err)
			continue
		}
		u.markOK()
		halves[u.Side] = &h
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(halves) < len(c.units) {
		// Keep the previous cells for sides that didn't answer.
		prev := c.latest
		for _, u := range c.units {
			if _, ok := halves[u.Side]; ok {
				continue
			}
			var h board.Half
			off := 0
			if u.Side == "right" {
				off = board.HalfFiles
			}
			for r := 0; r < board.Ranks; r++ {
				for col := 0; col < board.HalfFiles; col++ {
					h[r][col] = prev[r][col+off]
				}
			}
			halves[u.Side] = &h
		}
	}

	pos := board.Assemble(halves["left"], halves["right"])
	c.latest = pos

	if !c.seeded {
		// First populated sweep becomes the baseline: pieces were set up
		// before the controller started, which is not a move.
		if pos.Occupied() > 0 {
			c.baseline = pos
			c.seeded = true
			monitoring.Logf("controller: baseline seeded with %d occupied squares", pos.Occupied())
		}
		return
	}

	uci, ok := board.DetectMove(c.baseline, pos)
	if !ok {
		return
	}
	c.baseline = pos

	if c.game == nil {
		monitoring.Logf("controller: detected move %s", uci)
		return
	}
	if err := c.game.HandleDetected(uci, time.Now()); err != nil {
		monitoring.Logf("controller: handle move %s: %v", uci, err)
	}
}

// Position returns the most recently assembled board.
func (c *Controller) Position() board.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Rendered returns the latest position as piece labels.
func (c *Controller) Rendered() [board.Ranks][board.Files]string {
	return c.registry.Render(c.Position())
}

// FEN returns the tracked game position, or "" without a game manager.
func (c *Controller) FEN() string {
	if c.game == nil {
		return ""
	}
	return c.game.FEN()
}

// ForceEngineMove asks the game manager's engine to move now.
func (c *Controller) ForceEngineMove() error {
	if c.game == nil {
		return game.ErrNoEngine
	}
	return c.game.ForceEngineMove()
}

// Units reports every unit's health, refreshed with a ping for units whose
// last sweep failed.
func (c *Controller) Units() []UnitStatus {
	out := make([]UnitStatus, 0, len(c.units))
	for _, u := range c.units {
		st := u.status()
		if !st.OK {
			if err := u.Reader.Ping(); err == nil {
				u.markOK()
				st = u.status()
			}
		}
		out = append(out, st)
	}
	return out
}

// Close shuts every unit link.
func (c *Controller) Close() {
	for _, u := range c.units {
		if err := u.Reader.Close(); err != nil {
			monitoring.Logf("controller: close %s: %v", u.Reader.Label(), err)
		}
	}
}
