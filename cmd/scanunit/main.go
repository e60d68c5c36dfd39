// Command scanunit runs one half-board scanner: it sweeps the multiplexer
// bank continuously and serves the cached grid to the controller over the
// command protocol.
//
// Transports:
//
//	-serial /dev/ttyGS0   polled regime on a serial line (production)
//	-listen :7070         event regime on a TCP listener (dev / bench rig)
//
// Sensors:
//
//	-i2c <bus>            real multiplexer bank on an I2C bus
//	-dev -fixtures f.txt  simulated sensors from a fixtures file
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"syscall"

	"go.bug.st/serial"

	"github.com/larkspur/tagboard/internal/config"
	"github.com/larkspur/tagboard/internal/grid"
	"github.com/larkspur/tagboard/internal/i2cmux"
	"github.com/larkspur/tagboard/internal/scan"
	"github.com/larkspur/tagboard/internal/unit"
	"github.com/larkspur/tagboard/internal/version"
)

var (
	serialDev = flag.String("serial", "", "Serial device to serve the polled protocol on")
	baud      = flag.Int("baud", 115200, "Serial baud rate")
	listen    = flag.String("listen", "", "TCP listen address for the event-driven protocol")

	i2cBus   = flag.String("i2c", "", "I2C bus name for the multiplexer bank (empty: simulated sensors)")
	devMode  = flag.Bool("dev", false, "Run with simulated sensors")
	fixtures = flag.String("fixtures", "", "Fixtures file placing tags on simulated sensors")

	topoFile = flag.String("topology", "", "Topology YAML overriding the half-board defaults")
)

func main() {
	flag.Parse()
	log.Printf("scanunit %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	topo := grid.DefaultTopology()
	if *topoFile != "" {
		var err error
		topo, err = config.LoadTopology(*topoFile)
		if err != nil {
			log.Fatalf("failed to load topology: %v", err)
		}
	}
	if err := topo.Validate(); err != nil {
		log.Fatalf("invalid topology: %v", err)
	}

	var port scan.SensorPort
	switch {
	case *i2cBus != "":
		// The NFC reader driver is an integration point: until one is wired
		// in, every cell reads absent, which still exercises the mux bank
		// and the protocol end to end.
		p, err := i2cmux.Open(*i2cBus, i2cmux.AbsentReader{})
		if err != nil {
			log.Fatalf("failed to open I2C mux bank: %v", err)
		}
		defer p.Close()
		port = p
	case *devMode:
		sim := scan.NewSimPort()
		if *fixtures != "" {
			if err := loadFixtures(*fixtures, topo, sim); err != nil {
				log.Fatalf("failed to load fixtures: %v", err)
			}
		}
		port = sim
	default:
		log.Fatal("either -i2c or -dev is required")
	}

	u, err := unit.New(topo, port)
	if err != nil {
		log.Fatalf("failed to build scan unit: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *listen != "":
		ln, err := net.Listen("tcp", *listen)
		if err != nil {
			log.Fatalf("failed to listen on %s: %v", *listen, err)
		}
		log.Printf("serving event protocol on %s", *listen)
		if err := u.ServeEvents(ctx, ln); err != nil && err != context.Canceled {
			log.Fatalf("event server failed: %v", err)
		}
	case *serialDev != "":
		sp, err := serial.Open(*serialDev, &serial.Mode{
			BaudRate: *baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			log.Fatalf("failed to open %s: %v", *serialDev, err)
		}
		defer sp.Close()
		log.Printf("serving polled protocol on %s", *serialDev)
		if err := u.ServePolled(ctx, sp); err != nil && err != context.Canceled {
			log.Fatalf("polled server failed: %v", err)
		}
	default:
		log.Fatal("either -serial or -listen is required")
	}

	log.Print("scanunit stopped")
}
