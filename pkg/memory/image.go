// Package memory holds the captured device memory image.
//
// The image is an owned byte buffer with a high-water mark: the highest
// address that has actually been filled from the radio. Bytes at or beyond
// the mark are unknown, not zero, and every accessor refuses to hand them
// out. The block transfer client is the only writer; decoders are readers.
package memory

import "fmt"

// DefaultBound is the safe upper bound of the DM-32 address space (2 MiB).
const DefaultBound = 0x200000

// Image is the captured subset of device memory.
type Image struct {
	buf       []byte
	highWater uint32
}

// NewImage creates an empty image with the given address space bound.
// A bound of 0 uses DefaultBound.
func NewImage(bound uint32) *Image {
	if bound == 0 {
		bound = DefaultBound
	}
	return &Image{buf: make([]byte, bound)}
}

// FromBytes creates an image whose known region is exactly data.
// Used when loading a previously saved capture from disk.
func FromBytes(data []byte, bound uint32) (*Image, error) {
	if bound == 0 {
		bound = DefaultBound
	}
	if uint64(len(data)) > uint64(bound) {
		return nil, fmt.Errorf("image data (%d bytes) exceeds memory bound 0x%06X", len(data), bound)
	}
	img := NewImage(bound)
	copy(img.buf, data)
	img.highWater = uint32(len(data))
	return img, nil
}

// Bound returns the configured address space bound.
func (i *Image) Bound() uint32 {
	return uint32(len(i.buf))
}

// HighWater returns the highest address confirmed written, exclusive.
func (i *Image) HighWater() uint32 {
	return i.highWater
}

// Write copies p into the image at addr and advances the high-water mark.
// The mark only ever grows; retried reads of the same range overwrite in
// place without moving it backwards.
func (i *Image) Write(addr uint32, p []byte) error {
	end := uint64(addr) + uint64(len(p))
	if end > uint64(len(i.buf)) {
		return fmt.Errorf("write at 0x%06X len %d exceeds memory bound 0x%06X", addr, len(p), len(i.buf))
	}
	copy(i.buf[addr:], p)
	if uint32(end) > i.highWater {
		i.highWater = uint32(end)
	}
	return nil
}

// Contains reports whether the n bytes starting at addr are all known.
func (i *Image) Contains(addr uint32, n uint32) bool {
	end := uint64(addr) + uint64(n)
	return end <= uint64(i.highWater)
}

// ByteAt returns the byte at addr, or false if addr is beyond the mark.
func (i *Image) ByteAt(addr uint32) (byte, bool) {
	if addr >= i.highWater {
		return 0, false
	}
	return i.buf[addr], true
}

// Slice returns a read-only view of n known bytes starting at addr, or
// false if any of them lies beyond the mark. Callers must not mutate the
// returned slice.
func (i *Image) Slice(addr uint32, n uint32) ([]byte, bool) {
	if !i.Contains(addr, n) {
		return nil, false
	}
	return i.buf[addr : addr+n], true
}

// Known returns the entire known region of the image.
func (i *Image) Known() []byte {
	return i.buf[:i.highWater]
}
