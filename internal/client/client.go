// Package client is the controller's side of the scan-unit protocol: it
// owns the link to one unit and issues PING and GET_BLOCK commands against
// the unit's cache.
package client

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/larkspur/tagboard/internal/command"
	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/tag"
)

// Options tune how a unit link is opened and driven.
type Options struct {
	// Label names the unit in logs ("left", "right").
	Label string

	// Baud is the serial line rate. Zero means 115200.
	Baud int

	// ReadTimeout bounds each command round trip. Zero means 500ms.
	ReadTimeout time.Duration

	// BootDelay is how long to wait after opening a serial link before
	// talking, covering the unit's reset-on-open behaviour. Zero means none.
	BootDelay time.Duration

	// Cells is the number of grid cells a GET_BLOCK carries. Zero means 32.
	Cells int
}

func (o *Options) fillDefaults() {
	if o.Label == "" {
		o.Label = "unit"
	}
	if o.Baud == 0 {
		o.Baud = 115200
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 500 * time.Millisecond
	}
	if o.Cells == 0 {
		o.Cells = 32
	}
}

// Client talks to one scan unit. Command round trips are serialized with a
// mutex because the HTTP API and the game loop share the link.
type Client struct {
	mu    sync.Mutex
	port  linkPort
	label string
	opts  Options
}

// OpenSerial locates the unit's USB adapter by serial number and opens it.
func OpenSerial(serialNumber string, opts Options) (*Client, error) {
	opts.fillDefaults()

	name, err := findPortBySerialNumber(serialNumber)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("client: %s: connecting on %s", opts.Label, name)

	p, err := serial.Open(name, &serial.Mode{
		BaudRate: opts.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("client: open %s: %w", name, err)
	}
	if opts.BootDelay > 0 {
		time.Sleep(opts.BootDelay)
	}
	return newClient(serialPort{p}, opts)
}

// Dial connects to a dev-mode unit's TCP listener.
func Dial(addr string, opts Options) (*Client, error) {
	opts.fillDefaults()
	conn, err := dialTCP(addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return newClient(conn, opts)
}

func newClient(p linkPort, opts Options) (*Client, error) {
	opts.fillDefaults()
	if err := p.setReadTimeout(opts.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("client: set read timeout: %w", err)
	}
	return &Client{port: p, label: opts.Label, opts: opts}, nil
}

// Label returns the unit's log label.
func (c *Client) Label() string { return c.label }

// Ping checks the unit is alive. Any single byte back within the timeout
// counts as success; the ack value itself is not interpreted.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.roundTripStart(command.CmdPing); err != nil {
		return err
	}
	buf := make([]byte, 1)
	if err := c.readFull(buf); err != nil {
		return fmt.Errorf("client: %s: ping: %w", c.label, err)
	}
	return nil
}

// ReadBlock fetches the unit's full cache snapshot: Cells identifiers in the
// unit's raw scan order.
func (c *Client) ReadBlock() ([]tag.UID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.roundTripStart(command.CmdGetBlock); err != nil {
		return nil, err
	}

	raw := make([]byte, c.opts.Cells*tag.Len)
	if err := c.readFull(raw); err != nil {
		return nil, fmt.Errorf("client: %s: read block: %w", c.label, err)
	}

	uids := make([]tag.UID, c.opts.Cells)
	for i := range uids {
		uids[i] = tag.FromBytes(raw[i*tag.Len : (i+1)*tag.Len])
	}
	return uids, nil
}

// Close shuts the link.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

// roundTripStart drains stale input and writes the command byte.
func (c *Client) roundTripStart(cmd byte) error {
	if err := c.port.drainInput(); err != nil {
		return fmt.Errorf("client: %s: drain: %w", c.label, err)
	}
	if _, err := c.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("client: %s: write command 0x%02x: %w", c.label, cmd, err)
	}
	return nil
}

// readFull reads len(buf) bytes, tolerating the link's zero-byte timeout
// reads as long as the overall deadline holds.
func (c *Client) readFull(buf []byte) error {
	deadline := time.Now().Add(c.opts.ReadTimeout)
	got := 0
	for got < len(buf) {
		n, err := c.port.Read(buf[got:])
		if err != nil {
			return err
		}
		if n > 0 {
			got += n
			deadline = time.Now().Add(c.opts.ReadTimeout)
			continue
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %d/%d bytes", ErrTimeout, got, len(buf))
		}
	}
	return nil
}
