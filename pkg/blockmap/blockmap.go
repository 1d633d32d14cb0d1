// Package blockmap loads the schedule of memory regions to read from the
// radio. The addresses come from CPS protocol captures and are kept in a
// data file to ease collaborative reverse-engineering; an embedded default
// map covers the regions confirmed so far.
package blockmap

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_map.yaml
var defaultMap []byte

// Block is one region to request from the radio.
type Block struct {
	Address uint32 `yaml:"address"` // 24-bit start address
	Length  uint16 `yaml:"length"`  // bytes to read
}

// Map is an ordered schedule of blocks. Order matters: later reads of the
// same range overwrite earlier ones.
type Map struct {
	Blocks []Block `yaml:"blocks"`
}

// Load reads a block map from a YAML file, or the embedded default map
// when path is empty.
func Load(path string, memoryBound uint32) (*Map, error) {
	data := defaultMap
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read block map: %w", err)
		}
	}
	return Parse(data, memoryBound)
}

// Parse decodes and validates block map YAML.
func Parse(data []byte, memoryBound uint32) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse block map: %w", err)
	}
	if len(m.Blocks) == 0 {
		return nil, fmt.Errorf("block map contains no blocks")
	}
	for i, b := range m.Blocks {
		if b.Length == 0 {
			return nil, fmt.Errorf("block %d at 0x%06X has zero length", i, b.Address)
		}
		if uint64(b.Address)+uint64(b.Length) > uint64(memoryBound) {
			return nil, fmt.Errorf("block %d at 0x%06X len %d exceeds memory bound 0x%06X",
				i, b.Address, b.Length, memoryBound)
		}
	}
	return &m, nil
}

// TotalBytes returns the number of bytes the schedule will request.
func (m *Map) TotalBytes() int {
	total := 0
	for _, b := range m.Blocks {
		total += int(b.Length)
	}
	return total
}
