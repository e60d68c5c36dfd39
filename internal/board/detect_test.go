package board

import "testing"

// at places a UID on an algebraic square, building positions the way the
// tests read: by square name.
func at(p *Position, sq string, n int) {
	col := int(sq[0] - 'a')
	row := Ranks - int(sq[1]-'0')
	p[row][col] = uidN(n)
}

func TestDetectSimpleMove(t *testing.T) {
	var old, new Position
	at(&old, "e2", 1)
	at(&new, "e4", 1)

	uci, ok := DetectMove(old, new)
	if !ok || uci != "e2e4" {
		t.Fatalf("DetectMove = %q, %v; want e2e4, true", uci, ok)
	}
}

func TestDetectCapture(t *testing.T) {
	var old, new Position
	at(&old, "d4", 1) // mover
	at(&old, "e5", 2) // victim
	at(&new, "e5", 1) // mover replaces victim

	uci, ok := DetectMove(old, new)
	if !ok || uci != "d4e5" {
		t.Fatalf("DetectMove = %q, %v; want d4e5, true", uci, ok)
	}
}

func TestDetectNoChange(t *testing.T) {
	var old Position
	at(&old, "e2", 1)

	if uci, ok := DetectMove(old, old); ok {
		t.Fatalf("DetectMove on identical positions = %q, want none", uci)
	}
}

// A hand lifting a piece looks like a vacated square with no arrival; the
// caller sweeps again rather than guessing.
func TestDetectLiftedPiece(t *testing.T) {
	var old, new Position
	at(&old, "e2", 1)

	if uci, ok := DetectMove(old, new); ok {
		t.Fatalf("DetectMove on lifted piece = %q, want none", uci)
	}
}

func TestDetectTwoPiecesMovedIsAmbiguous(t *testing.T) {
	var old, new Position
	at(&old, "e2", 1)
	at(&old, "d2", 2)
	at(&new, "e4", 1)
	at(&new, "d4", 2)

	if uci, ok := DetectMove(old, new); ok {
		t.Fatalf("DetectMove on double move = %q, want none", uci)
	}
}

// The tag that arrived must be the tag that left; anything else is two
// unrelated changes, not a move.
func TestDetectMismatchedTags(t *testing.T) {
	var old, new Position
	at(&old, "e2", 1)
	at(&new, "e4", 2)

	if uci, ok := DetectMove(old, new); ok {
		t.Fatalf("DetectMove on mismatched tags = %q, want none", uci)
	}
}

func TestDetectArrivalOnly(t *testing.T) {
	var old, new Position
	at(&new, "e4", 1)

	if uci, ok := DetectMove(old, new); ok {
		t.Fatalf("DetectMove on bare arrival = %q, want none", uci)
	}
}
