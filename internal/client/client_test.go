package client

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/larkspur/tagboard/internal/command"
	"github.com/larkspur/tagboard/internal/monitoring"
	"github.com/larkspur/tagboard/internal/tag"
)

func init() {
	monitoring.SetLogger(nil)
}

// fakePort scripts a scan unit at the far end of the link: every command
// byte written is answered through respond. Reads return (0, nil) when no
// data is pending, matching the serial library's timeout behaviour.
type fakePort struct {
	mu      sync.Mutex
	pending bytes.Buffer
	written []byte
	drains  int
	closed  bool

	respond func(cmd byte) []byte
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending.Len() == 0 {
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		f.mu.Lock()
		if f.pending.Len() == 0 {
			return 0, nil
		}
	}
	return f.pending.Read(p)
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, p...)
	if f.respond != nil {
		for _, cmd := range p {
			f.pending.Write(f.respond(cmd))
		}
	}
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) setReadTimeout(time.Duration) error { return nil }

func (f *fakePort) drainInput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drains++
	f.pending.Reset()
	return nil
}

func testOptions() Options {
	return Options{Label: "test", ReadTimeout: 50 * time.Millisecond}
}

func respondLikeUnit(cache map[int]tag.UID) func(byte) []byte {
	return func(cmd byte) []byte {
		switch cmd {
		case command.CmdPing:
			return []byte{command.Ack}
		case command.CmdGetBlock:
			block := make([]byte, 32*tag.Len)
			for i, u := range cache {
				copy(block[i*tag.Len:], u[:])
			}
			return block
		default:
			return []byte{command.ErrByte}
		}
	}
}

func TestPing(t *testing.T) {
	port := &fakePort{respond: respondLikeUnit(nil)}
	c, err := newClient(port, testOptions())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	if err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if len(port.written) != 1 || port.written[0] != command.CmdPing {
		t.Errorf("wrote %v, want [%#02x]", port.written, command.CmdPing)
	}
}

func TestPingTimeout(t *testing.T) {
	port := &fakePort{} // never answers
	c, err := newClient(port, testOptions())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	err = c.Ping()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Ping = %v, want ErrTimeout", err)
	}
}

func TestReadBlock(t *testing.T) {
	u := tag.UID{1, 2, 3, 4, 5, 6, 7}
	port := &fakePort{respond: respondLikeUnit(map[int]tag.UID{5: u})}
	c, err := newClient(port, testOptions())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	uids, err := c.ReadBlock()
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if len(uids) != 32 {
		t.Fatalf("got %d cells, want 32", len(uids))
	}
	if uids[5] != u {
		t.Errorf("cell 5 = %s, want %s", uids[5], u)
	}
	for i, got := range uids {
		if i != 5 && !got.IsAbsent() {
			t.Errorf("cell %d = %s, want absent", i, got)
		}
	}
}

// Stale bytes on the link (boot banner, a late answer to a timed-out
// command) must be discarded before each round trip.
func TestCommandsDrainStaleInput(t *testing.T) {
	port := &fakePort{respond: respondLikeUnit(nil)}
	port.pending.WriteString("scanunit ready\n")

	c, err := newClient(port, testOptions())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	if err := c.Ping(); err != nil {
		t.Fatalf("Ping with stale input: %v", err)
	}
	if port.drains == 0 {
		t.Error("round trip did not drain stale input")
	}
}

func TestReadBlockShortResponse(t *testing.T) {
	port := &fakePort{respond: func(cmd byte) []byte {
		return make([]byte, 10) // truncated block
	}}
	c, err := newClient(port, testOptions())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	_, err = c.ReadBlock()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadBlock = %v, want ErrTimeout", err)
	}
}

// A client built from zero Options still reads full blocks: the defaults
// apply at construction, whichever opener was used.
func TestNewClientAppliesDefaults(t *testing.T) {
	port := &fakePort{respond: respondLikeUnit(nil)}
	c, err := newClient(port, Options{})
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	uids, err := c.ReadBlock()
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if len(uids) != 32 {
		t.Fatalf("got %d cells, want 32", len(uids))
	}
	if c.Label() != "unit" {
		t.Errorf("Label = %q, want default", c.Label())
	}
}

func TestClose(t *testing.T) {
	port := &fakePort{}
	c, err := newClient(port, testOptions())
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.closed {
		t.Error("Close did not close the port")
	}
}
