package scan

import (
	"sync"

	"github.com/larkspur/tagboard/internal/tag"
)

// SimPort is an in-memory SensorPort for dev mode and tests: tags are placed
// on (bus address, channel) positions and read back through the normal
// select-then-read sequence.
type SimPort struct {
	mu sync.Mutex

	tags map[simKey]tag.UID

	selAddr    uint16
	selChannel int
	selected   bool

	// SelectErr, when set, is returned by every SelectChannel call.
	SelectErr error

	// FailReads makes every ReadTag report failure, regardless of placement.
	FailReads bool
}

type simKey struct {
	addr    uint16
	channel int
}

// NewSimPort returns an empty simulated sensor bank.
func NewSimPort() *SimPort {
	return &SimPort{tags: make(map[simKey]tag.UID)}
}

// Place puts a tag on the sensor at (busAddr, channel). An absent UID clears
// the position.
func (p *SimPort) Place(busAddr uint16, channel int, u tag.UID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := simKey{busAddr, channel}
	if u.IsAbsent() {
		delete(p.tags, k)
		return
	}
	p.tags[k] = u
}

// Remove clears the sensor at (busAddr, channel).
func (p *SimPort) Remove(busAddr uint16, channel int) {
	p.Place(busAddr, channel, tag.Absent)
}

// SelectChannel records the active position.
func (p *SimPort) SelectChannel(busAddr uint16, channel int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SelectErr != nil {
		return p.SelectErr
	}
	p.selAddr = busAddr
	p.selChannel = channel
	p.selected = true
	return nil
}

// ReadTag returns the tag placed on the active position, if any.
func (p *SimPort) ReadTag() (tag.UID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.selected || p.FailReads {
		return tag.Absent, false
	}
	u, ok := p.tags[simKey{p.selAddr, p.selChannel}]
	if !ok {
		return tag.Absent, false
	}
	return u, true
}
