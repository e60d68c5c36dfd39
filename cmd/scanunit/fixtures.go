package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/larkspur/tagboard/internal/grid"
	"github.com/larkspur/tagboard/internal/scan"
	"github.com/larkspur/tagboard/internal/tag"
)

// loadFixtures places tags on the simulated sensor bank. One placement per
// line, "row,col,uidhex", rows counted from the top band; blank lines and
// #-comments are skipped.
func loadFixtures(path string, topo grid.Topology, sim *scan.SimPort) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()

	lineNo := 0
	s := bufio.NewScanner(f)
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return fmt.Errorf("fixtures line %d: want row,col,uid", lineNo)
		}
		row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return fmt.Errorf("fixtures line %d: bad row: %w", lineNo, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return fmt.Errorf("fixtures line %d: bad col: %w", lineNo, err)
		}
		uid, err := tag.Parse(strings.TrimSpace(parts[2]))
		if err != nil {
			return fmt.Errorf("fixtures line %d: %w", lineNo, err)
		}

		addr, channel, ok := sensorFor(topo, row, col)
		if !ok {
			return fmt.Errorf("fixtures line %d: no sensor at (%d,%d)", lineNo, row, col)
		}
		sim.Place(addr, channel, uid)
	}
	return s.Err()
}

// sensorFor inverts the topology's channel mapping: which (mux address,
// channel) is wired to this grid cell.
func sensorFor(topo grid.Topology, row, col int) (addr uint16, channel int, ok bool) {
	for m := 0; m < topo.Muxes; m++ {
		for ch := 0; ch < topo.Channels; ch++ {
			r, c := topo.MapChannel(m, ch)
			if r == row && c == col {
				return topo.MuxAddrs[m], ch, true
			}
		}
	}
	return 0, 0, false
}
