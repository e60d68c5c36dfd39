package grid

import (
	"sync"

	"github.com/larkspur/tagboard/internal/tag"
)

// Cache is the live half-board table: one UID (or absent) per cell. It is
// created fully absent and lives for the life of the process. The scan cycle
// is its only writer; the command server reads it through Snapshot.
//
// The mutex gives per-cell "most recently written value" consistency. A
// snapshot taken while a pass is in flight may mix cells from the current
// and the previous pass; callers wanting a single pass's results atomically
// would need a second table swapped on pass completion, which this design
// deliberately does not do.
type Cache struct {
	mu    sync.Mutex
	rows  int
	cols  int
	cells []tag.UID // row-major
}

// NewCache returns a rows x cols cache with every cell absent.
func NewCache(rows, cols int) *Cache {
	return &Cache{
		rows:  rows,
		cols:  cols,
		cells: make([]tag.UID, rows*cols),
	}
}

// Rows returns the number of rows.
func (c *Cache) Rows() int { return c.rows }

// Cols returns the number of columns.
func (c *Cache) Cols() int { return c.cols }

// Get returns the UID at (row, col).
func (c *Cache) Get(row, col int) tag.UID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cells[row*c.cols+col]
}

// Set overwrites the cell at (row, col) unconditionally.
func (c *Cache) Set(row, col int, u tag.UID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells[row*c.cols+col] = u
}

// Snapshot flattens the table row-major, tag.Len bytes per cell, for a total
// of rows*cols*tag.Len bytes.
func (c *Cache) Snapshot() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, 0, len(c.cells)*tag.Len)
	for i := range c.cells {
		out = append(out, c.cells[i][:]...)
	}
	return out
}
