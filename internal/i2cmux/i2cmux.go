// Package i2cmux implements the scanner's sensor port on real hardware: a
// bank of TCA9548A-style channel multiplexers on the I2C bus, each fronting
// eight NFC readers. Selecting a channel writes the single-channel bitmask
// to the multiplexer's control register; decoding the NFC reader itself is
// left to the injected TagReader, since reader silicon varies per build.
package i2cmux

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/larkspur/tagboard/internal/tag"
)

// TagReader reads the tag on whatever sensor the multiplexer bank currently
// routes to the bus. ok is false on read failure or no tag.
type TagReader interface {
	ReadTag() (uid tag.UID, ok bool)
}

// AbsentReader is the placeholder TagReader for rigs whose NFC reader
// driver is not integrated yet: every read reports no tag, so every cell
// scans as absent while the mux wiring and protocol still run end to end.
type AbsentReader struct{}

// ReadTag always reports failure.
func (AbsentReader) ReadTag() (tag.UID, bool) {
	return tag.Absent, false
}

// Port is a scan.SensorPort backed by a real I2C bus.
type Port struct {
	bus    i2c.BusCloser
	reader TagReader
}

// Open initialises the host drivers, opens the named I2C bus ("" for the
// first available) and returns a Port reading tags through reader.
func Open(busName string, reader TagReader) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("i2cmux: host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("i2cmux: open bus %q: %w", busName, err)
	}
	return &Port{bus: bus, reader: reader}, nil
}

// SelectChannel activates exactly one downstream channel on the multiplexer
// at busAddr by writing its bitmask. The caller owns the settle delay.
func (p *Port) SelectChannel(busAddr uint16, channel int) error {
	if channel < 0 || channel > 7 {
		return fmt.Errorf("i2cmux: channel %d out of range", channel)
	}
	if err := p.bus.Tx(busAddr, []byte{1 << uint(channel)}, nil); err != nil {
		return fmt.Errorf("i2cmux: select channel %d on 0x%02x: %w", channel, busAddr, err)
	}
	return nil
}

// ReadTag delegates to the injected reader.
func (p *Port) ReadTag() (tag.UID, bool) {
	return p.reader.ReadTag()
}

// Close releases the I2C bus.
func (p *Port) Close() error {
	return p.bus.Close()
}
