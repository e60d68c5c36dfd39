package grid

import (
	"bytes"
	"testing"

	"github.com/larkspur/tagboard/internal/tag"
)

func TestNewCacheStartsAbsent(t *testing.T) {
	c := NewCache(8, 4)
	for r := 0; r < 8; r++ {
		for col := 0; col < 4; col++ {
			if !c.Get(r, col).IsAbsent() {
				t.Errorf("cell (%d,%d) not absent at start", r, col)
			}
		}
	}
	if got := c.Snapshot(); !bytes.Equal(got, make([]byte, 8*4*tag.Len)) {
		t.Error("fresh snapshot should be all zero")
	}
}

func TestSetOverwrites(t *testing.T) {
	c := NewCache(8, 4)
	u1 := tag.UID{1, 2, 3, 4, 5, 6, 7}
	u2 := tag.UID{7, 6, 5, 4, 3, 2, 1}

	c.Set(2, 1, u1)
	if got := c.Get(2, 1); got != u1 {
		t.Errorf("Get(2,1) = %s, want %s", got, u1)
	}

	c.Set(2, 1, u2)
	if got := c.Get(2, 1); got != u2 {
		t.Errorf("Get(2,1) after overwrite = %s, want %s", got, u2)
	}

	c.Set(2, 1, tag.Absent)
	if !c.Get(2, 1).IsAbsent() {
		t.Error("cell should be absent after clearing")
	}
}

// Snapshot must be row-major, tag.Len bytes per cell, and slicing it back
// into cells must reproduce Get for every cell.
func TestSnapshotLayout(t *testing.T) {
	c := NewCache(8, 4)
	c.Set(0, 3, tag.UID{1, 2, 3, 4, 5, 6, 7})
	c.Set(7, 0, tag.UID{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x11})

	snap := c.Snapshot()
	if len(snap) != 8*4*tag.Len {
		t.Fatalf("snapshot length %d, want %d", len(snap), 8*4*tag.Len)
	}

	for r := 0; r < 8; r++ {
		for col := 0; col < 4; col++ {
			i := (r*4 + col) * tag.Len
			got := tag.FromBytes(snap[i : i+tag.Len])
			if want := c.Get(r, col); got != want {
				t.Errorf("snapshot cell (%d,%d) = %s, want %s", r, col, got, want)
			}
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewCache(2, 2)
	snap := c.Snapshot()
	c.Set(0, 0, tag.UID{9, 9, 9, 9, 9, 9, 9})
	if !bytes.Equal(snap, make([]byte, 2*2*tag.Len)) {
		t.Error("earlier snapshot mutated by later Set")
	}
}
