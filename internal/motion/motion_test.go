package motion

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquareCenter(t *testing.T) {
	p, err := SquareCenter("a1")
	require.NoError(t, err)
	assert.InDelta(t, 0.5*SquareWidth, p.X, 1e-9)
	assert.InDelta(t, 0.5*SquareWidth, p.Y, 1e-9)

	p, err = SquareCenter("h8")
	require.NoError(t, err)
	assert.InDelta(t, 7.5*SquareWidth, p.X, 1e-9)
	assert.InDelta(t, 7.5*SquareWidth, p.Y, 1e-9)
}

func TestSquareCenterRejectsBadSquares(t *testing.T) {
	for _, sq := range []string{"", "e", "i4", "e9", "44"} {
		_, err := SquareCenter(sq)
		assert.Error(t, err, "square %q", sq)
	}
}

// A straight one-square push collapses to a single merged step.
func TestPlanMoveStraight(t *testing.T) {
	start, steps, err := PlanMove("e7e6")
	require.NoError(t, err)

	assert.InDelta(t, 4.5*SquareWidth, start.X, 1e-9)
	assert.InDelta(t, 6.5*SquareWidth, start.Y, 1e-9)

	require.Len(t, steps, 1)
	assert.InDelta(t, 0, steps[0].X, 1e-9)
	assert.InDelta(t, -SquareWidth, steps[0].Y, 1e-9)
}

// A knight move routes through the square corners: out to the corner, along
// the edges, and back to the destination centre.
func TestPlanMoveKnight(t *testing.T) {
	_, steps, err := PlanMove("e3g4")
	require.NoError(t, err)

	require.Len(t, steps, 3)
	assert.InDelta(t, 0, steps[0].X, 1e-9)
	assert.InDelta(t, 0.5*SquareWidth, steps[0].Y, 1e-9)
	assert.InDelta(t, 2*SquareWidth, steps[1].X, 1e-9)
	assert.InDelta(t, 0, steps[1].Y, 1e-9)
	assert.InDelta(t, 0, steps[2].X, 1e-9)
	assert.InDelta(t, 0.5*SquareWidth, steps[2].Y, 1e-9)

	// Steps must sum to the full displacement: two files over, one rank up.
	var dx, dy float64
	for _, s := range steps {
		dx += s.X
		dy += s.Y
	}
	assert.InDelta(t, 2*SquareWidth, dx, 1e-9)
	assert.InDelta(t, SquareWidth, dy, 1e-9)
}

func TestPlanMoveRejectsBadInput(t *testing.T) {
	for _, uci := range []string{"", "e2", "e2x4", "z2e4"} {
		_, _, err := PlanMove(uci)
		assert.Error(t, err, "move %q", uci)
	}
}

// Corner coordinates computed from different square centres carry float
// noise; none of it may leak into the plan as a degenerate step.
func TestPlanMoveEmitsNoNoiseSteps(t *testing.T) {
	for _, uci := range []string{"e3g4", "b1c3", "g8f6", "a1h8", "e7e6"} {
		_, steps, err := PlanMove(uci)
		require.NoError(t, err, "move %s", uci)
		for i, s := range steps {
			assert.GreaterOrEqual(t, math.Max(math.Abs(s.X), math.Abs(s.Y)), SquareWidth/4,
				"move %s step %d = %+v", uci, i, s)
		}
	}
}

func TestMergeStepsCollapsesColinear(t *testing.T) {
	steps := mergeSteps([]Pos{{10, 0}, {5, 0}, {0, 3}, {0, 4}, {-2, 0}})
	require.Len(t, steps, 3)
	assert.Equal(t, Pos{15, 0}, steps[0])
	assert.Equal(t, Pos{0, 7}, steps[1])
	assert.Equal(t, Pos{-2, 0}, steps[2])
}

func TestMergeStepsDropsCancelledPairs(t *testing.T) {
	steps := mergeSteps([]Pos{{0, -5}, {-5, 0}, {5, 0}, {0, -5}})
	require.Len(t, steps, 1)
	assert.Equal(t, Pos{0, -10}, steps[0])
}

func TestSendRelEncoding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendRel(&buf, Pos{50, 0}, 1))
	assert.Equal(t, append([]byte{CmdMoveRel}, []byte("50 0 1\n")...), buf.Bytes())
}

func TestSendAbsRoundsToIntegers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendAbs(&buf, Pos{57.15, 28.575}, 0))
	assert.Equal(t, append([]byte{CmdMoveAbs}, []byte("57 29 0\n")...), buf.Bytes())
}

func TestSendHome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendHome(&buf))
	assert.Equal(t, []byte{CmdGoHome}, buf.Bytes())
}

// The full sequence: one absolute magnet-off positioning command, then
// magnet-on relative steps.
func TestExecuteMove(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExecuteMove(&buf, "e7e6"))

	out := buf.Bytes()
	require.NotEmpty(t, out)
	assert.Equal(t, CmdMoveAbs, out[0])

	lines := bytes.Split(out, []byte("\n"))
	// abs line + one rel line + trailing empty split
	require.Len(t, lines, 3)
	assert.Equal(t, CmdMoveRel, lines[1][0])
	assert.True(t, bytes.HasSuffix(lines[1], []byte(" 1")), "relative steps carry the magnet")
}
