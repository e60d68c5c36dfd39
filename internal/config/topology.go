package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larkspur/tagboard/internal/grid"
	"github.com/larkspur/tagboard/internal/tag"
)

// TopologyFile is the scan unit's YAML topology: every constant the scanner
// depends on, overriding the compiled-in half-board defaults. Omitted fields
// keep their defaults.
type TopologyFile struct {
	Rows     int `yaml:"rows"`
	Cols     int `yaml:"cols"`
	Muxes    int `yaml:"muxes"`
	Channels int `yaml:"channels"`

	// UIDLen documents the identifier width. The width is compiled into the
	// wire format, so a mismatch here is a configuration error, not an
	// override.
	UIDLen int `yaml:"uid_len"`

	// ChannelTable lists [localRow, localCol] per channel.
	ChannelTable [][2]int `yaml:"channel_table"`

	MuxAddrs []uint16 `yaml:"mux_addrs"`

	SettleDelayUs int `yaml:"settle_delay_us"`
	PassDelayMs   int `yaml:"pass_delay_ms"`
}

// LoadTopology reads a topology file and merges it over the defaults. The
// result is validated, including the mapping bijection.
func LoadTopology(path string) (grid.Topology, error) {
	topo := grid.DefaultTopology()

	data, err := os.ReadFile(path)
	if err != nil {
		return topo, fmt.Errorf("config: read %s: %w", path, err)
	}
	var tf TopologyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return topo, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if tf.UIDLen != 0 && tf.UIDLen != tag.Len {
		return topo, fmt.Errorf("config: uid_len %d unsupported, this build uses %d", tf.UIDLen, tag.Len)
	}
	if tf.Rows != 0 {
		topo.Rows = tf.Rows
	}
	if tf.Cols != 0 {
		topo.Cols = tf.Cols
	}
	if tf.Muxes != 0 {
		topo.Muxes = tf.Muxes
	}
	if tf.Channels != 0 {
		topo.Channels = tf.Channels
	}
	if len(tf.ChannelTable) != 0 {
		table := make([]grid.LocalRC, len(tf.ChannelTable))
		for i, rc := range tf.ChannelTable {
			table[i] = grid.LocalRC{Row: rc[0], Col: rc[1]}
		}
		topo.ChannelTable = table
	}
	if len(tf.MuxAddrs) != 0 {
		topo.MuxAddrs = tf.MuxAddrs
	}
	if tf.SettleDelayUs != 0 {
		topo.SettleDelay = time.Duration(tf.SettleDelayUs) * time.Microsecond
	}
	if tf.PassDelayMs != 0 {
		topo.PassDelay = time.Duration(tf.PassDelayMs) * time.Millisecond
	}

	if err := topo.Validate(); err != nil {
		return topo, fmt.Errorf("config: %s: %w", path, err)
	}
	return topo, nil
}
