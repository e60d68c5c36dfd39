// Package scan runs the sensor sweep: every multiplexer channel is selected,
// settled, and read in turn, and the result lands in the grid cache.
package scan

import (
	"context"
	"time"

	"github.com/larkspur/tagboard/internal/grid"
	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/tag"
)

// SensorPort is the narrow hardware interface the scanner drives. The real
// implementation talks to the I2C multiplexer bank and an NFC reader; tests
// and dev mode substitute a simulated port.
type SensorPort interface {
	// SelectChannel activates one downstream channel on the multiplexer at
	// busAddr. The bus needs the topology's settle delay before the sensor
	// behind the channel can be read.
	SelectChannel(busAddr uint16, channel int) error

	// ReadTag reads the tag on the currently selected channel. ok is false
	// when no tag is present or the read failed; either way the caller
	// records the cell as absent for this pass.
	ReadTag() (uid tag.UID, ok bool)
}

// Scanner sweeps the whole multiplexer bank and is the sole writer of the
// cache it was built with.
type Scanner struct {
	topo  grid.Topology
	port  SensorPort
	cache *grid.Cache

	// sleep is swappable so tests don't pay real settle delays.
	sleep func(time.Duration)
}

// New builds a Scanner over port writing into cache.
func New(topo grid.Topology, port SensorPort, cache *grid.Cache) *Scanner {
	return &Scanner{
		topo:  topo,
		port:  port,
		cache: cache,
		sleep: time.Sleep,
	}
}

// RunPass performs one full sweep: exactly rows*cols cells written, each
// either the tag read on its channel or absent. Failed reads are not
// retried; the next pass corrects them or doesn't.
func (s *Scanner) RunPass() {
	for m := 0; m < s.topo.Muxes; m++ {
		addr := s.topo.MuxAddrs[m]
		for ch := 0; ch < s.topo.Channels; ch++ {
			if err := s.port.SelectChannel(addr, ch); err != nil {
				// Channel select is assumed to succeed; a failure here means
				// the read below targets the wrong sensor, so record absent
				// and move on.
				monitoring.Logf("scan: select mux 0x%02x channel %d: %v", addr, ch, err)
				r, c := s.topo.MapChannel(m, ch)
				s.cache.Set(r, c, tag.Absent)
				continue
			}
			s.sleep(s.topo.SettleDelay)

			uid, ok := s.port.ReadTag()
			r, c := s.topo.MapChannel(m, ch)
			if !ok || uid.IsAbsent() {
				s.cache.Set(r, c, tag.Absent)
				continue
			}
			s.cache.Set(r, c, uid)
		}
	}
}

// Run sweeps back to back, pausing the topology's pass delay between sweeps,
// until ctx is cancelled. Used by the event-driven transport, where command
// handling runs concurrently; the polled transport drives RunPass itself.
func (s *Scanner) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.RunPass()

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.topo.PassDelay):
		}
	}
}
