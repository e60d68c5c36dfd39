// Package command implements the byte-oriented protocol a controller uses to
// read the scan unit's cache: a single command byte in, a fixed-shape
// response out.
package command

import "github.com/larkspur/tagboard/internal/grid"

// Command bytes accepted from the controller.
const (
	CmdGetBlock byte = 0x01 // respond with the full cache snapshot
	CmdPing     byte = 0x02 // respond with Ack
)

// Response bytes.
const (
	// Ack is the single-byte reply to CmdPing.
	Ack byte = 0x01

	// ErrByte is the single-byte reply to any unrecognized command. The
	// server stays ready for the next command; nothing is fatal here.
	ErrByte byte = 0xFF
)

// Responder answers protocol commands from the current cache state. It never
// triggers a scan; it serves whatever the scan cycle has written so far.
type Responder struct {
	cache *grid.Cache
}

// NewResponder builds a Responder over cache.
func NewResponder(cache *grid.Cache) *Responder {
	return &Responder{cache: cache}
}

// Respond produces the full response for one command byte. Unknown commands
// yield the single error sentinel.
func (r *Responder) Respond(cmd byte) []byte {
	switch cmd {
	case CmdGetBlock:
		return r.cache.Snapshot()
	case CmdPing:
		return []byte{Ack}
	default:
		return []byte{ErrByte}
	}
}
