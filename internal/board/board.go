// Package board reconstructs the physical 8x8 board from the half-board
// blocks the scan units serve, and diffs successive reconstructions into
// candidate moves.
package board

import (
	"fmt"

	"github.com/larkspur/tagboard/internal/tag"
)

// Board geometry. Each scan unit covers all eight ranks of four files.
const (
	Ranks     = 8
	Files     = 8
	HalfFiles = 4
	HalfCells = Ranks * HalfFiles
)

// Half is one unit's 8x4 contribution. Row 0 is rank 8 (the far side from
// White), matching how positions are printed.
type Half [Ranks][HalfFiles]tag.UID

// Position is the assembled 8x8 board of tag UIDs; absent means an empty
// square.
type Position [Ranks][Files]tag.UID

// Remap is the per-unit channel permutation applied to each 8-sensor
// multiplexer block before reshaping. Wiring differs between built units, so
// the permutation ships in the controller config; the identity remap leaves
// the block order untouched.
type Remap [8]int

// IdentityRemap returns the no-op permutation.
func IdentityRemap() Remap {
	return Remap{0, 1, 2, 3, 4, 5, 6, 7}
}

// Validate checks r is a permutation of 0..7.
func (r Remap) Validate() error {
	var seen [8]bool
	for i, v := range r {
		if v < 0 || v > 7 {
			return fmt.Errorf("board: remap[%d] = %d out of range", i, v)
		}
		if seen[v] {
			return fmt.Errorf("board: remap maps two channels to %d", v)
		}
		seen[v] = true
	}
	return nil
}

// ReshapeHalf turns a unit's raw 32-identifier block into its 8x4 half:
// apply the channel remap within each multiplexer block of eight, lay the
// result out four columns per row, then flip the rows so row 0 is rank 8.
func ReshapeHalf(raw []tag.UID, remap Remap) (Half, error) {
	var h Half
	if len(raw) != HalfCells {
		return h, fmt.Errorf("board: raw block has %d cells, want %d", len(raw), HalfCells)
	}

	remapped := make([]tag.UID, HalfCells)
	for mux := 0; mux < 4; mux++ {
		base := mux * 8
		for i := 0; i < 8; i++ {
			remapped[base+remap[i]] = raw[base+i]
		}
	}

	for idx, u := range remapped {
		row := idx / HalfFiles
		col := idx % HalfFiles
		h[Ranks-1-row][col] = u
	}
	return h, nil
}

// Assemble joins the two halves into a full position. A nil half (unit
// offline or not yet fitted) contributes empty squares.
func Assemble(left, right *Half) Position {
	var p Position
	for r := 0; r < Ranks; r++ {
		if left != nil {
			for c := 0; c < HalfFiles; c++ {
				p[r][c] = left[r][c]
			}
		}
		if right != nil {
			for c := 0; c < HalfFiles; c++ {
				p[r][c+HalfFiles] = right[r][c]
			}
		}
	}
	return p
}

// SquareName returns the algebraic name of the square at (row, col), row 0
// being rank 8.
func SquareName(row, col int) string {
	return fmt.Sprintf("%c%d", 'a'+rune(col), Ranks-row)
}

// Occupied counts non-empty squares.
func (p Position) Occupied() int {
	n := 0
	for r := 0; r < Ranks; r++ {
		for c := 0; c < Files; c++ {
			if !p[r][c].IsAbsent() {
				n++
			}
		}
	}
	return n
}
