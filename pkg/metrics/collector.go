// Package metrics accumulates acquisition statistics for one session.
// Failures never abort the session, so the collector is how they surface
// at the end.
package metrics

import (
	"sync"
)

// Collector collects acquisition session metrics
type Collector struct {
	mu sync.RWMutex

	// Block metrics
	blocksAttempted uint64
	blocksRead      uint64
	blocksFailed    uint64
	retries         uint64

	// Byte metrics
	bytesCaptured  uint64
	bytesDiscarded uint64 // resync skips

	// Decode metrics
	slotsScanned    uint64
	channelsDecoded uint64
	zonesFound      uint64
}

// Stats is a point-in-time snapshot of the collector
type Stats struct {
	BlocksAttempted uint64
	BlocksRead      uint64
	BlocksFailed    uint64
	Retries         uint64
	BytesCaptured   uint64
	BytesDiscarded  uint64
	SlotsScanned    uint64
	ChannelsDecoded uint64
	ZonesFound      uint64
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// BlockAttempted records the start of a block read attempt
func (c *Collector) BlockAttempted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocksAttempted++
}

// BlockRead records a successfully captured block
func (c *Collector) BlockRead(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocksRead++
	c.bytesCaptured += uint64(bytes)
}

// BlockFailed records a block abandoned after all retries
func (c *Collector) BlockFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocksFailed++
}

// RetryAttempted records one retry of a failed block
func (c *Collector) RetryAttempted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

// BytesDiscarded records bytes skipped during header resynchronization
func (c *Collector) BytesDiscarded(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesDiscarded += uint64(n)
}

// SlotScanned records one channel slot examined
func (c *Collector) SlotScanned() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slotsScanned++
}

// ChannelDecoded records one successfully decoded channel
func (c *Collector) ChannelDecoded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelsDecoded++
}

// ZoneFound records one zone label accepted by the heuristics
func (c *Collector) ZoneFound() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zonesFound++
}

// GetStats returns a snapshot of the current statistics
func (c *Collector) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		BlocksAttempted: c.blocksAttempted,
		BlocksRead:      c.blocksRead,
		BlocksFailed:    c.blocksFailed,
		Retries:         c.retries,
		BytesCaptured:   c.bytesCaptured,
		BytesDiscarded:  c.bytesDiscarded,
		SlotsScanned:    c.slotsScanned,
		ChannelsDecoded: c.channelsDecoded,
		ZonesFound:      c.zonesFound,
	}
}
