package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrTimeout is returned when a unit does not answer within the read
// timeout.
var ErrTimeout = errors.New("client: read timeout")

// linkPort abstracts the two link flavours (USB serial to a real unit, TCP
// to a dev-mode unit) behind timed reads and an input drain.
type linkPort interface {
	io.ReadWriteCloser

	// setReadTimeout bounds how long a single Read waits for data.
	setReadTimeout(d time.Duration) error

	// drainInput discards any bytes already buffered on the link (boot
	// banners, answers to commands that timed out).
	drainInput() error
}

// serialPort adapts go.bug.st/serial. Its Read returns (0, nil) on timeout.
type serialPort struct {
	serial.Port
}

func (p serialPort) setReadTimeout(d time.Duration) error {
	return p.Port.SetReadTimeout(d)
}

func (p serialPort) drainInput() error {
	return p.Port.ResetInputBuffer()
}

// netPort adapts a net.Conn using deadlines. Timed-out reads surface as
// (0, nil) to match the serial behaviour.
type netPort struct {
	net.Conn
	timeout time.Duration
}

func (p *netPort) setReadTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func (p *netPort) Read(b []byte) (int, error) {
	if p.timeout > 0 {
		if err := p.Conn.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := p.Conn.Read(b)
	if err != nil && isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (p *netPort) drainInput() error {
	if err := p.Conn.SetReadDeadline(time.Now().Add(5 * time.Millisecond)); err != nil {
		return err
	}
	buf := make([]byte, 256)
	for {
		_, err := p.Conn.Read(buf)
		if err != nil {
			if isTimeout(err) {
				return nil
			}
			return err
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// OpenRawSerial opens a plain serial link to the USB adapter with the given
// serial number, without the command protocol on top. The motion controller
// port is driven this way: the planner writes its own byte stream.
func OpenRawSerial(serialNumber string, baud int) (io.WriteCloser, error) {
	if baud == 0 {
		baud = 115200
	}
	name, err := findPortBySerialNumber(serialNumber)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("client: open %s: %w", name, err)
	}
	return p, nil
}

func dialTCP(addr string) (*netPort, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &netPort{Conn: conn}, nil
}

// findPortBySerialNumber walks the enumerated USB serial ports looking for
// the adapter with the given serial number, so plug order and /dev naming
// don't matter.
func findPortBySerialNumber(serialNumber string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("client: enumerate ports: %w", err)
	}
	for _, p := range ports {
		if p.IsUSB && p.SerialNumber == serialNumber {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("client: no USB serial device with serial number %q", serialNumber)
}
