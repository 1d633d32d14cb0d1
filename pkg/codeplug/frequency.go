// Package codeplug decodes channel and zone structures from a captured
// memory image.
//
// The DM-32 codeplug layout is not documented by the vendor. Everything
// here was derived by diffing captures against known CPS contents, so the
// decoders are heuristic: they score candidate interpretations and accept
// only what crosses a confidence threshold.
package codeplug

import (
	"encoding/binary"
	"math"
)

// Frequency plausibility window in MHz. Anything the radio can possibly
// do falls inside it.
const (
	FreqMinMHz = 30.0
	FreqMaxMHz = 1000.0
)

// DecodeBCD decodes a 4-byte packed BCD frequency with reversed byte
// order: nibbles taken from p[3] down to p[0] spell the frequency in
// 10 Hz units. 0x50 0x87 0x35 0x44 reads as 44358750, i.e. 443.58750 MHz.
// Returns 0 if any nibble is not a decimal digit.
func DecodeBCD(p []byte) float64 {
	if len(p) < 4 {
		return 0
	}
	var val uint32
	for bi := 3; bi >= 0; bi-- {
		hi := p[bi] >> 4
		lo := p[bi] & 0x0F
		if hi > 9 || lo > 9 {
			return 0
		}
		val = val*100 + uint32(hi)*10 + uint32(lo)
	}
	return float64(val) / 100000.0
}

// DecodeBCDForward decodes the same packing read in forward byte order.
// Some codeplug regions store it this way.
func DecodeBCDForward(p []byte) float64 {
	if len(p) < 4 {
		return 0
	}
	var val uint32
	for bi := 0; bi < 4; bi++ {
		hi := p[bi] >> 4
		lo := p[bi] & 0x0F
		if hi > 9 || lo > 9 {
			return 0
		}
		val = val*100 + uint32(hi)*10 + uint32(lo)
	}
	v := float64(val) / 100000.0
	if v < 0 || v > 2000.0 {
		return 0
	}
	return v
}

// DecodeFloat32 reads a little-endian float32 as MHz. Used only as a
// low-weight corroborating signal; no confirmed slot stores frequencies
// this way.
func DecodeFloat32(p []byte) float64 {
	if len(p) < 4 {
		return 0
	}
	v := float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	if v < 0 || v > 2000.0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// amateur band centers the scoring biases toward
var bandCenters = []float64{144.0, 145.0, 146.0, 430.0, 433.0, 435.0, 438.0, 439.0, 440.0}

// bandScore rates how much a value looks like a real programmed
// frequency: proximity to a common amateur allocation plus alignment to
// the 12.5 kHz channel raster.
func bandScore(v float64) float64 {
	var best float64
	for _, b := range bandCenters {
		d := math.Abs(v - b)
		if d < 2.0 {
			if s := 2.0 - d; s > best {
				best = s
			}
		}
	}
	steps := v / 0.0125
	if math.Abs(steps-math.Round(steps)) < 0.02 {
		best += 0.5
	}
	return best
}

// plausible reports whether v sits in the receivable range.
func plausible(v float64) bool {
	return v >= FreqMinMHz && v <= FreqMaxMHz
}

// DecodeFrequency decodes 4 bytes as a frequency, trying both BCD byte
// orders and picking the more band-plausible when both parse. When
// neither parses and rxHint is plausible, assumes simplex and returns
// the hint; this is the TX fallback path.
func DecodeFrequency(p []byte, rxHint float64) float64 {
	v1 := DecodeBCD(p)
	v2 := DecodeBCDForward(p)
	ok1 := plausible(v1)
	ok2 := plausible(v2)
	switch {
	case ok1 && !ok2:
		return v1
	case !ok1 && ok2:
		return v2
	case ok1 && ok2:
		if bandScore(v2) > bandScore(v1) {
			return v2
		}
		return v1
	}
	if plausible(rxHint) {
		return rxHint
	}
	return 0
}
