package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/larkspur/tagboard/internal/grid"
	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/tag"
)

func init() {
	monitoring.SetLogger(nil)
}

func fastTopology() grid.Topology {
	topo := grid.DefaultTopology()
	topo.SettleDelay = 0
	topo.PassDelay = time.Millisecond
	return topo
}

func newTestScanner(t *testing.T) (*Scanner, *SimPort, *grid.Cache, grid.Topology) {
	t.Helper()
	topo := fastTopology()
	if err := topo.Validate(); err != nil {
		t.Fatalf("topology: %v", err)
	}
	port := NewSimPort()
	cache := grid.NewCache(topo.Rows, topo.Cols)
	return New(topo, port, cache), port, cache, topo
}

// The canonical scenario: a tag on mux 0 channel 3 lands in cell (0,3); a
// failed read on mux 0 channel 4 leaves cell (1,0) absent.
func TestRunPassPlacesTags(t *testing.T) {
	s, port, cache, topo := newTestScanner(t)

	want := tag.UID{1, 2, 3, 4, 5, 6, 7}
	port.Place(topo.MuxAddrs[0], 3, want)

	s.RunPass()

	if got := cache.Get(0, 3); got != want {
		t.Errorf("cell (0,3) = %s, want %s", got, want)
	}
	if got := cache.Get(1, 0); !got.IsAbsent() {
		t.Errorf("cell (1,0) = %s, want absent", got)
	}
}

func TestRunPassClearsRemovedTags(t *testing.T) {
	s, port, cache, topo := newTestScanner(t)

	u := tag.UID{4, 4, 4, 4, 4, 4, 4}
	port.Place(topo.MuxAddrs[2], 6, u)
	s.RunPass()

	r, c := topo.MapChannel(2, 6)
	if got := cache.Get(r, c); got != u {
		t.Fatalf("cell (%d,%d) = %s, want %s", r, c, got, u)
	}

	port.Remove(topo.MuxAddrs[2], 6)
	s.RunPass()
	if got := cache.Get(r, c); !got.IsAbsent() {
		t.Errorf("cell (%d,%d) = %s after removal, want absent", r, c, got)
	}
}

func TestRunPassRecordsAbsentOnReadFailure(t *testing.T) {
	s, port, cache, topo := newTestScanner(t)

	port.Place(topo.MuxAddrs[1], 2, tag.UID{5, 5, 5, 5, 5, 5, 5})
	s.RunPass()

	port.FailReads = true
	s.RunPass()

	for r := 0; r < topo.Rows; r++ {
		for c := 0; c < topo.Cols; c++ {
			if !cache.Get(r, c).IsAbsent() {
				t.Errorf("cell (%d,%d) should be absent when every read fails", r, c)
			}
		}
	}
}

func TestRunPassRecordsAbsentOnSelectFailure(t *testing.T) {
	s, port, cache, topo := newTestScanner(t)

	port.Place(topo.MuxAddrs[0], 0, tag.UID{6, 6, 6, 6, 6, 6, 6})
	s.RunPass()
	if cache.Get(0, 0).IsAbsent() {
		t.Fatal("expected tag in cell (0,0)")
	}

	port.SelectErr = errors.New("bus stuck")
	s.RunPass()
	if !cache.Get(0, 0).IsAbsent() {
		t.Error("select failure should record absent")
	}
}

func TestRunPassAppliesSettleDelayPerSensor(t *testing.T) {
	s, _, _, topo := newTestScanner(t)

	slept := 0
	s.sleep = func(time.Duration) { slept++ }
	s.RunPass()

	if want := topo.Muxes * topo.Channels; slept != want {
		t.Errorf("settle delay applied %d times, want %d", slept, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, port, cache, topo := newTestScanner(t)
	port.Place(topo.MuxAddrs[3], 1, tag.UID{7, 7, 7, 7, 7, 7, 7})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Give it time for at least one pass, then stop it.
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	r, c := topo.MapChannel(3, 1)
	if cache.Get(r, c).IsAbsent() {
		t.Error("expected at least one completed pass before cancel")
	}
}
