// Package tag defines the fixed-length NFC tag identifier read from each
// board sensor. UIDs are opaque: the system compares them for equality and
// checks for the all-zero "no tag present" value, nothing more.
package tag

import (
	"encoding/hex"
	"fmt"
)

// Len is the number of bytes in a tag identifier.
const Len = 7

// UID is a single tag identifier. The zero value means no tag present.
type UID [Len]byte

// Absent is the distinguished "no tag" identifier.
var Absent UID

// IsAbsent reports whether u is the all-zero no-tag value.
func (u UID) IsAbsent() bool {
	return u == Absent
}

// String renders the UID as lowercase hex, or "-" when absent.
func (u UID) String() string {
	if u.IsAbsent() {
		return "-"
	}
	return hex.EncodeToString(u[:])
}

// Parse decodes a UID from its hex form. The empty string and "-" decode to
// Absent.
func Parse(s string) (UID, error) {
	var u UID
	if s == "" || s == "-" {
		return u, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, fmt.Errorf("tag: invalid uid %q: %w", s, err)
	}
	if len(b) != Len {
		return u, fmt.Errorf("tag: uid %q is %d bytes, want %d", s, len(b), Len)
	}
	copy(u[:], b)
	return u, nil
}

// FromBytes copies b into a UID. Short input is zero-padded; long input is
// truncated. Sensor drivers hand over raw byte slices, so this is lenient on
// purpose.
func FromBytes(b []byte) UID {
	var u UID
	copy(u[:], b)
	return u
}
