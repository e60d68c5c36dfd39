// Package unit ties one scan unit together: the scan cycle keeping the grid
// cache fresh and the command server exposing it to the controller. Two
// transport shapes are supported. The polled shape alternates strictly
// between scanning and serving on a single flow, like a microcontroller main
// loop. The event shape runs the scan cycle continuously and answers
// transport events as they arrive.
package unit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/larkspur/tagboard/internal/command"
	"github.com/larkspur/tagboard/internal/grid"
	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/scan"
)

// Banner is written once when a transport comes up, so a human tailing the
// link can tell the unit booted.
const Banner = "tagboard scanunit ready\n"

// Unit is one half-board scanner: topology, cache, scanner, responder.
type Unit struct {
	topo      grid.Topology
	cache     *grid.Cache
	scanner   *scan.Scanner
	responder *command.Responder
}

// New validates topo and assembles a Unit reading from port.
func New(topo grid.Topology, port scan.SensorPort) (*Unit, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	cache := grid.NewCache(topo.Rows, topo.Cols)
	return &Unit{
		topo:      topo,
		cache:     cache,
		scanner:   scan.New(topo, port, cache),
		responder: command.NewResponder(cache),
	}, nil
}

// Cache exposes the unit's grid cache, mainly for tests and dev tooling.
func (u *Unit) Cache() *grid.Cache { return u.cache }

// ServePolled runs the polled regime on rw (normally a serial port): one
// full scan pass, then drain and answer every command byte already buffered,
// then the inter-pass delay, repeated until ctx is cancelled or the
// transport dies. A command arriving mid-pass waits for the pass to finish,
// so worst-case command latency is one scan-pass duration plus the pass
// delay.
func (u *Unit) ServePolled(ctx context.Context, rw io.ReadWriter) error {
	if _, err := io.WriteString(rw, Banner); err != nil {
		return fmt.Errorf("unit: write banner: %w", err)
	}

	cmds := make(chan byte, 64)
	readErr := make(chan error, 1)

	// The blocking byte reader lives on its own goroutine so the scan flow
	// never waits on the transport.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := rw.Read(buf)
			if n == 1 {
				select {
				case cmds <- buf[0]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		u.scanner.RunPass()

	drain:
		for {
			select {
			case cmd := <-cmds:
				if _, err := rw.Write(u.responder.Respond(cmd)); err != nil {
					return fmt.Errorf("unit: write response: %w", err)
				}
			case err := <-readErr:
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("unit: read command: %w", err)
			case <-ctx.Done():
				return ctx.Err()
			default:
				break drain
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(u.topo.PassDelay):
		}
	}
}

// ServeEvents runs the addressed/event regime: the scan cycle sweeps
// continuously on its own flow while connections accepted from ln deliver
// command bytes as events. Each inbound byte latches into a per-connection
// mailbox and the response is served from the latch, so a stale or missing
// command answers with the error sentinel rather than blocking.
func (u *Unit) ServeEvents(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		u.scanner.Run(ctx)
	}()

	// Unblock Accept on cancellation.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return ctx.Err()
			}
			wg.Wait()
			return fmt.Errorf("unit: accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()

			// Force the blocking Read below to fail on cancellation, so
			// shutdown never waits on an idle client.
			connDone := make(chan struct{})
			defer close(connDone)
			go func() {
				select {
				case <-ctx.Done():
					conn.Close()
				case <-connDone:
				}
			}()

			if err := u.serveConn(conn); err != nil && ctx.Err() == nil {
				monitoring.Logf("unit: connection from %s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

func (u *Unit) serveConn(conn net.Conn) error {
	if _, err := io.WriteString(conn, Banner); err != nil {
		return err
	}

	mbox := command.NewMailbox(u.responder)
	buf := make([]byte, 1)
	for {
		n, err := conn.Read(buf)
		if n == 1 {
			mbox.Latch(buf[0])
			if _, werr := conn.Write(mbox.Serve()); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
