// Package grid holds the scanner's address-translation scheme and the cached
// half-board state it fills in: a bank of channel multiplexers is flattened
// onto a fixed rows-by-columns table of tag identifiers.
package grid

import (
	"fmt"
	"time"
)

// Default geometry: four multiplexers stacked vertically, eight channels
// each, covering an 8x4 half-board.
const (
	DefaultRows     = 8
	DefaultCols     = 4
	DefaultMuxes    = 4
	DefaultChannels = 8
)

// LocalRC is a channel's offset inside its multiplexer's band of rows.
type LocalRC struct {
	Row int
	Col int
}

// DefaultChannelTable maps a channel index to its local (row, col). It is
// identical for every multiplexer.
var DefaultChannelTable = [DefaultChannels]LocalRC{
	{0, 0}, {0, 1}, {0, 2}, {0, 3},
	{1, 0}, {1, 1}, {1, 2}, {1, 3},
}

// DefaultMuxAddrs are the I2C bus addresses of the multiplexers, ordered by
// the band of rows they cover.
var DefaultMuxAddrs = [DefaultMuxes]uint16{0x70, 0x71, 0x72, 0x73}

// Topology describes one scan unit's sensor arrangement: grid dimensions,
// multiplexer bank, channel wiring, and the two timing constants the
// electrical bus requires.
type Topology struct {
	Rows     int
	Cols     int
	Muxes    int
	Channels int

	// ChannelTable maps channel index to local (row, col) within a
	// multiplexer's band. Same table for all multiplexers.
	ChannelTable []LocalRC

	// MuxAddrs are bus addresses ordered by band, top band first.
	MuxAddrs []uint16

	// SettleDelay is the mandatory wait between selecting a channel and
	// reading the sensor behind it. Skipping it risks reading the previous
	// channel's sensor.
	SettleDelay time.Duration

	// PassDelay is the pause between full scan passes.
	PassDelay time.Duration
}

// DefaultTopology returns the half-board arrangement used by the production
// units.
func DefaultTopology() Topology {
	return Topology{
		Rows:         DefaultRows,
		Cols:         DefaultCols,
		Muxes:        DefaultMuxes,
		Channels:     DefaultChannels,
		ChannelTable: DefaultChannelTable[:],
		MuxAddrs:     DefaultMuxAddrs[:],
		SettleDelay:  200 * time.Microsecond,
		PassDelay:    10 * time.Millisecond,
	}
}

// Cells returns the number of grid cells (= sensors) in the topology.
func (t Topology) Cells() int {
	return t.Rows * t.Cols
}

// MapChannel translates a (multiplexer index, channel index) pair to the
// global (row, col) it is wired to. Pure and total for in-range inputs; the
// scan cycle drives the iteration bounds so inputs are in range by
// construction.
func (t Topology) MapChannel(mux, channel int) (row, col int) {
	base := mux * (t.Rows / t.Muxes)
	local := t.ChannelTable[channel]
	return base + local.Row, local.Col
}

// Validate checks the structural invariants, most importantly that MapChannel
// over all (mux, channel) pairs covers every grid cell exactly once. The
// whole system leans on that bijection; run this whenever the constants
// change and at daemon startup.
func (t Topology) Validate() error {
	if t.Rows <= 0 || t.Cols <= 0 || t.Muxes <= 0 || t.Channels <= 0 {
		return fmt.Errorf("grid: dimensions must be positive, got %dx%d grid, %d muxes, %d channels",
			t.Rows, t.Cols, t.Muxes, t.Channels)
	}
	if t.Muxes*t.Channels != t.Cells() {
		return fmt.Errorf("grid: %d muxes x %d channels = %d sensors, want %d cells",
			t.Muxes, t.Channels, t.Muxes*t.Channels, t.Cells())
	}
	if t.Rows%t.Muxes != 0 {
		return fmt.Errorf("grid: %d rows not divisible into %d mux bands", t.Rows, t.Muxes)
	}
	if len(t.ChannelTable) != t.Channels {
		return fmt.Errorf("grid: channel table has %d entries, want %d", len(t.ChannelTable), t.Channels)
	}
	if len(t.MuxAddrs) != t.Muxes {
		return fmt.Errorf("grid: %d mux addresses, want %d", len(t.MuxAddrs), t.Muxes)
	}

	seen := make(map[[2]int]bool, t.Cells())
	for m := 0; m < t.Muxes; m++ {
		for ch := 0; ch < t.Channels; ch++ {
			r, c := t.MapChannel(m, ch)
			if r < 0 || r >= t.Rows || c < 0 || c >= t.Cols {
				return fmt.Errorf("grid: mux %d channel %d maps to (%d,%d), outside %dx%d",
					m, ch, r, c, t.Rows, t.Cols)
			}
			key := [2]int{r, c}
			if seen[key] {
				return fmt.Errorf("grid: cell (%d,%d) mapped twice", r, c)
			}
			seen[key] = true
		}
	}
	if len(seen) != t.Cells() {
		return fmt.Errorf("grid: mapping covers %d cells, want %d", len(seen), t.Cells())
	}
	return nil
}
