package board

import "github.com/larkspur/tagboard/internal/tag"

// Registry maps tag UIDs to piece labels ("wK", "bP", ...). It is filled
// from the controller config by enrolling each physical piece once. Move
// detection does not need it; rendering and rule checking do.
type Registry map[tag.UID]string

// Label returns the piece label for u, or the raw hex UID when the tag is
// not enrolled, or "" for an empty square.
func (reg Registry) Label(u tag.UID) string {
	if u.IsAbsent() {
		return ""
	}
	if label, ok := reg[u]; ok {
		return label
	}
	return u.String()
}

// Render flattens a position into labels, row 0 = rank 8.
func (reg Registry) Render(p Position) [Ranks][Files]string {
	var out [Ranks][Files]string
	for r := 0; r < Ranks; r++ {
		for c := 0; c < Files; c++ {
			out[r][c] = reg.Label(p[r][c])
		}
	}
	return out
}
