// Command boardd is the board controller: it polls the scan units for their
// cached half-boards, reconstructs the physical position, detects moves,
// plays the engine's replies through the gantry, serves the HTTP API, and
// logs games to sqlite.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/larkspur/tagboard/api"
	"github.com/larkspur/tagboard/internal/client"
	"github.com/larkspur/tagboard/internal/config"
	"github.com/larkspur/tagboard/internal/controller"
	"github.com/larkspur/tagboard/internal/game"
	"github.com/larkspur/tagboard/internal/store"
	"github.com/larkspur/tagboard/internal/version"
)

var (
	configPath = flag.String("config", "config.yaml", "Controller configuration file")
	observer   = flag.Bool("observer", false, "Track and log moves without engine or motion")
)

func main() {
	flag.Parse()
	log.Printf("boardd %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("failed to open game log: %v", err)
	}
	defer db.Close()

	registry, err := cfg.Registry()
	if err != nil {
		log.Fatalf("failed to build piece registry: %v", err)
	}

	// ---- unit links ----
	var units []*controller.Unit
	for _, uc := range cfg.Units {
		opts := client.Options{
			Label:       uc.Label,
			Baud:        uc.Baud,
			ReadTimeout: time.Duration(uc.ReadTimeoutMs) * time.Millisecond,
			BootDelay:   time.Duration(uc.BootDelayMs) * time.Millisecond,
		}
		var c *client.Client
		var err error
		if uc.Addr != "" {
			c, err = client.Dial(uc.Addr, opts)
		} else {
			c, err = client.OpenSerial(uc.SerialNumber, opts)
		}
		if err != nil {
			log.Fatalf("failed to connect unit %s: %v", uc.Label, err)
		}
		remap, err := uc.BoardRemap()
		if err != nil {
			log.Fatalf("unit %s: %v", uc.Label, err)
		}
		units = append(units, &controller.Unit{
			Reader: c,
			Side:   uc.Side,
			Remap:  remap,
		})
	}

	// ---- engine and motion (skipped in observer mode) ----
	var eng game.Engine
	var motionPort io.WriteCloser
	if !*observer {
		if cfg.Engine.Path != "" {
			eng, err = game.NewUCIEngine(cfg.Engine.Path)
			if err != nil {
				log.Fatalf("failed to start engine: %v", err)
			}
		}
		if cfg.Motion.SerialNumber != "" {
			motionPort, err = client.OpenRawSerial(cfg.Motion.SerialNumber, cfg.Motion.Baud)
			if err != nil {
				log.Fatalf("failed to open motion port: %v", err)
			}
			defer motionPort.Close()
		}
	}

	gm, err := game.NewManager(game.Config{
		Engine:     eng,
		MoveTime:   cfg.Engine.MoveTime(),
		MotionPort: motionPort,
		Store:      db,
	})
	if err != nil {
		log.Fatalf("failed to start game manager: %v", err)
	}
	defer gm.Close()

	ctrl := controller.New(controller.Config{
		Units:    units,
		Registry: registry,
		Game:     gm,
		Interval: cfg.PollInterval(),
	})
	defer ctrl.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// poll loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run(ctx)
		log.Print("poll loop terminated")
	}()

	// HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(ctrl, db).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		server := &http.Server{
			Addr:    cfg.ListenAddr(),
			Handler: mux,
		}

		go func() {
			log.Printf("HTTP API on %s", cfg.ListenAddr())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("failed to start server: %v", err)
				stop()
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Print("graceful shutdown complete")
}
