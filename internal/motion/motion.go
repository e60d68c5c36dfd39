// Package motion plans gantry paths for executing a move on the physical
// board and encodes them in the motion controller's wire protocol: a command
// byte followed by ASCII integers.
//
// A piece travels square-centre to square-centre, but dragging it straight
// across would shove the pieces in between. The planner instead slides the
// piece to the nearest square corner, routes it along the square edges
// (Manhattan), and re-centres it at the destination.
package motion

import (
	"fmt"
	"io"
	"math"
)

// SquareWidth is the board's square pitch in millimetres.
const SquareWidth = 57.15

// Motion controller command bytes.
const (
	CmdMoveAbs   byte = 0x10 // absolute move: "x y useMag\n"
	CmdMoveRel   byte = 0x11 // relative move: "dx dy useMag\n"
	CmdMagnetOn  byte = 0x12
	CmdMagnetOff byte = 0x13
	CmdGoHome    byte = 0x14
)

// Pos is a point (or a delta) on the board plane, in millimetres.
type Pos struct {
	X float64
	Y float64
}

func (p Pos) roundInt() (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// SquareCenter returns the centre of an algebraic square ("e4").
func SquareCenter(sq string) (Pos, error) {
	if len(sq) != 2 || sq[0] < 'a' || sq[0] > 'h' || sq[1] < '1' || sq[1] > '8' {
		return Pos{}, fmt.Errorf("motion: bad square %q", sq)
	}
	file := float64(sq[0] - 'a')
	rank := float64(sq[1] - '1')
	return Pos{(file + 0.5) * SquareWidth, (rank + 0.5) * SquareWidth}, nil
}

func squareCorners(p Pos) [4]Pos {
	half := SquareWidth / 2
	return [4]Pos{
		{p.X - half, p.Y - half},
		{p.X + half, p.Y - half},
		{p.X - half, p.Y + half},
		{p.X + half, p.Y + half},
	}
}

func closestCorner(of, toward Pos) Pos {
	corners := squareCorners(of)
	best := corners[0]
	bestD := math.Inf(1)
	for _, c := range corners {
		d := (c.X-toward.X)*(c.X-toward.X) + (c.Y-toward.Y)*(c.Y-toward.Y)
		if d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// stepEps treats sub-micrometre components as zero. Corner coordinates
// derived from different square centres differ by float noise, and a noise
// step must not survive into the wire protocol.
const stepEps = 1e-6

func isZero(v float64) bool { return math.Abs(v) < stepEps }

func toCorner(start, corner Pos) []Pos {
	var steps []Pos
	if dy := corner.Y - start.Y; !isZero(dy) {
		steps = append(steps, Pos{0, dy})
	}
	if dx := corner.X - start.X; !isZero(dx) {
		steps = append(steps, Pos{dx, 0})
	}
	return steps
}

func fromCorner(corner, end Pos) []Pos {
	var steps []Pos
	if dx := end.X - corner.X; !isZero(dx) {
		steps = append(steps, Pos{dx, 0})
	}
	if dy := end.Y - corner.Y; !isZero(dy) {
		steps = append(steps, Pos{0, dy})
	}
	return steps
}

func manhattan(start, end Pos) []Pos {
	var steps []Pos
	if dx := end.X - start.X; !isZero(dx) {
		steps = append(steps, Pos{dx, 0})
	}
	if dy := end.Y - start.Y; !isZero(dy) {
		steps = append(steps, Pos{0, dy})
	}
	return steps
}

// mergeSteps collapses consecutive steps along the same axis and drops
// zero-length ones.
func mergeSteps(steps []Pos) []Pos {
	if len(steps) == 0 {
		return steps
	}
	merged := []Pos{steps[0]}
	changed := false
	for _, s := range steps[1:] {
		last := &merged[len(merged)-1]
		switch {
		case !isZero(last.X) && !isZero(s.X):
			last.X += s.X
			changed = true
		case !isZero(last.Y) && !isZero(s.Y):
			last.Y += s.Y
			changed = true
		default:
			merged = append(merged, s)
		}
	}
	out := merged[:0]
	for _, s := range merged {
		if !isZero(s.X) || !isZero(s.Y) {
			out = append(out, s)
		}
	}
	if changed && len(out) < len(steps) {
		// Filtering may have made new same-axis neighbours adjacent.
		return mergeSteps(out)
	}
	return out
}

// homingOffset is the gantry home position relative to the board origin.
var homingOffset = Pos{-2.5 * SquareWidth, 7.5 * SquareWidth}

// RelativeToHoming rebases a board-plane position onto the gantry's homed
// coordinate frame.
func RelativeToHoming(p Pos) Pos {
	return Pos{p.X - homingOffset.X, p.Y - homingOffset.Y}
}

// PlanMove turns a UCI move into the absolute start position (board frame)
// and the corner-routed relative steps that carry the piece to its
// destination.
func PlanMove(uci string) (start Pos, steps []Pos, err error) {
	if len(uci) < 4 {
		return Pos{}, nil, fmt.Errorf("motion: bad uci move %q", uci)
	}
	start, err = SquareCenter(uci[:2])
	if err != nil {
		return Pos{}, nil, err
	}
	end, err := SquareCenter(uci[2:4])
	if err != nil {
		return Pos{}, nil, err
	}

	first := closestCorner(start, end)
	last := closestCorner(end, start)

	steps = append(steps, toCorner(start, first)...)
	steps = append(steps, manhattan(first, last)...)
	steps = append(steps, fromCorner(last, end)...)
	return start, mergeSteps(steps), nil
}

// SendAbs writes an absolute move command.
func SendAbs(w io.Writer, p Pos, useMag int) error {
	x, y := p.roundInt()
	_, err := fmt.Fprintf(w, "%c%d %d %d\n", CmdMoveAbs, x, y, useMag)
	return err
}

// SendRel writes a relative move command.
func SendRel(w io.Writer, step Pos, useMag int) error {
	dx, dy := step.roundInt()
	_, err := fmt.Fprintf(w, "%c%d %d %d\n", CmdMoveRel, dx, dy, useMag)
	return err
}

// SendHome sends the gantry back to its homing switches.
func SendHome(w io.Writer) error {
	_, err := w.Write([]byte{CmdGoHome})
	return err
}

// ExecuteMove plans uci and writes the full command sequence: an absolute
// move (magnet off) to the start square in the homed frame, then the
// magnet-on relative steps.
func ExecuteMove(w io.Writer, uci string) error {
	start, steps, err := PlanMove(uci)
	if err != nil {
		return err
	}
	if err := SendAbs(w, RelativeToHoming(start), 0); err != nil {
		return fmt.Errorf("motion: move to start: %w", err)
	}
	for _, s := range steps {
		if err := SendRel(w, s, 1); err != nil {
			return fmt.Errorf("motion: step: %w", err)
		}
	}
	return nil
}
