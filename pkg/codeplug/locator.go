package codeplug

import "github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"

// Parameter-block leading templates observed across captures. The digital
// one opens 14 00 00 00 with p4 in {0x30,0x34} and p5 == 0x01; the analog
// one opens 04 80 00 00 with p4 == 0x30 and p5 == 0x01.
func digitalParamTemplate(p []byte) bool {
	return p[0] == 0x14 && p[1] == 0x00 && p[2] == 0x00 && p[3] == 0x00 &&
		(p[4] == 0x30 || p[4] == 0x34) && p[5] == 0x01
}

func analogParamTemplate(p []byte) bool {
	return p[0] == 0x04 && p[1] == 0x80 && p[2] == 0x00 && p[3] == 0x00 &&
		p[4] == 0x30 && p[5] == 0x01
}

// sigWeights are the additive signal weights for one alignment
// hypothesis. The shifted (+4) hypothesis weighs raw BCD plausibility and
// a clean digital template higher, because when the slot really is padded
// by four bytes those are the signals that survive the shift.
type sigWeights struct {
	byteTemplate  int
	bcdPlausible  int
	equalRXTX     int
	commonOffset  int
	bandProximity int
	digitalParams int
	analogParams  int
	fillerFF      int
	floatHint     int
}

var primaryWeights = sigWeights{
	byteTemplate:  3,
	bcdPlausible:  5,
	equalRXTX:     2,
	commonOffset:  2,
	bandProximity: 1,
	digitalParams: 6,
	analogParams:  5,
	fillerFF:      2,
	floatHint:     1,
}

var shiftedWeights = sigWeights{
	byteTemplate:  2,
	bcdPlausible:  6,
	equalRXTX:     2,
	commonOffset:  2,
	digitalParams: 7,
	analogParams:  5,
}

// Acceptance thresholds. A candidate wins outright at acceptScore, or at
// confirmScore when a parameter template also matched.
const (
	acceptScore  = 9
	confirmScore = 6
)

func isPrintASCII(b byte) bool {
	return b >= 0x20 && b < 0x7F
}

// byteTemplateAt checks the fixed byte-pattern signatures at s.
// Pattern A: 50 87 ?? 44 50 87 ?? 44. Pattern B: 25 ?? 44 [00] 25 ?? 44.
// Falls back to both 4-byte words decoding as plausible BCD.
func byteTemplateAt(mem []byte, s uint32) bool {
	limit := uint32(len(mem))
	if s+8 >= limit {
		return false
	}
	m := mem[s:]
	if m[0] == 0x50 && m[3] == 0x44 && m[4] == 0x50 && m[7] == 0x44 {
		return true
	}
	if m[0] == 0x25 && m[2] == 0x44 {
		idx := uint32(3)
		if m[3] == 0x00 {
			idx = 4
		}
		if s+idx+2 < limit && m[idx] == 0x25 && m[idx+2] == 0x44 {
			return true
		}
	}
	rx := DecodeBCD(mem[s:])
	tx := DecodeBCD(mem[s+4:])
	return rx > FreqMinMHz && rx < FreqMaxMHz && tx >= 0 && tx < FreqMaxMHz
}

// scoreAt rates one alignment hypothesis. paramsConfirmed reports whether
// a parameter template matched at s+8, which lowers the acceptance bar.
func scoreAt(mem []byte, s uint32, w sigWeights, full bool) (score int, paramsConfirmed bool) {
	limit := uint32(len(mem))

	if byteTemplateAt(mem, s) {
		score += w.byteTemplate
	}

	rx := DecodeBCD(mem[s:])
	tx := DecodeBCD(mem[s+4:])
	if rx > FreqMinMHz && rx < FreqMaxMHz && tx >= 0 && tx < FreqMaxMHz {
		score += w.bcdPlausible
		diff := tx - rx
		if diff < 0 {
			diff = -diff
		}
		if diff < 0.001 {
			score += w.equalRXTX
		}
		if (diff > 4.999 && diff < 5.001) || (diff > 0.599 && diff < 0.601) {
			score += w.commonOffset
		}
		if full {
			d144 := rx - 144.0
			if d144 < 0 {
				d144 = -d144
			}
			d430 := rx - 430.0
			if d430 < 0 {
				d430 = -d430
			}
			if d144 < 20.0 || d430 < 20.0 {
				score += w.bandProximity
			}
		}
	}

	pb := s + protocol.ParamsOffset
	if pb+12 < limit {
		p := mem[pb:]
		if digitalParamTemplate(p) {
			score += w.digitalParams
			paramsConfirmed = true
		}
		if analogParamTemplate(p) {
			score += w.analogParams
			paramsConfirmed = true
		}
		if full && pb+13 < limit &&
			p[10] == 0xFF && p[11] == 0xFF && p[12] == 0xFF && p[13] == 0xFF {
			score += w.fillerFF
		}
	}

	if full {
		rxF := DecodeFloat32(mem[s:])
		txF := DecodeFloat32(mem[s+4:])
		if rxF > FreqMinMHz && rxF < FreqMaxMHz && txF >= 0 && txF < FreqMaxMHz {
			score += w.floatHint
		}
	}

	return score, paramsConfirmed
}

// IsSignature reports whether s looks like a signature start. Exposed
// for the raw slot dump, which wants the cheap test without the full
// scored scan.
func IsSignature(mem []byte, s uint32) bool {
	return byteTemplateAt(mem, s)
}

// Locator finds the signature start (RX frequency word) after a slot
// label. The gap between label terminator and signature varies between
// firmware revisions, hence the scored scan instead of a fixed offset.
type Locator struct {
	PadMax  int // max pad bytes skipped after the label terminator
	ScanMax int // forward scan reach past the pad
}

// DefaultLocator returns a locator with the observed layout limits.
func DefaultLocator() Locator {
	return Locator{
		PadMax:  protocol.LabelPadMax,
		ScanMax: protocol.SigScanMax,
	}
}

// Locate extracts the slot label at base and finds the best-scoring
// signature position after it. Returns ok=false when the label is
// malformed or no candidate crosses the acceptance threshold.
func (l Locator) Locate(mem []byte, base uint32) (sig uint32, label string, ok bool) {
	limit := uint32(len(mem))
	if base+1 >= limit {
		return 0, "", false
	}

	// Label: printable ASCII run terminated by NUL. No NUL, no slot.
	q := base
	var name []byte
	for q < limit && isPrintASCII(mem[q]) && len(name) < 31 {
		name = append(name, mem[q])
		q++
	}
	if len(name) == 0 {
		return 0, "", false
	}
	if q >= limit || mem[q] != 0x00 {
		return 0, "", false
	}
	q++

	// Stock codeplugs pad with runs of 0x00 here, field-programmed ones
	// with 0xFF. Skip both.
	for pad := 0; pad < l.PadMax && q < limit; pad++ {
		if mem[q] != 0xFF && mem[q] != 0x00 {
			break
		}
		q++
	}

	bestScore := -1
	var bestSig uint32
	bestConfirmed := false

	for scan := 0; scan < l.ScanMax; scan++ {
		baseSig := q + uint32(scan)
		if baseSig+12 >= limit {
			break
		}
		// Sub-alignment: stride drift of up to 3 bytes shows up on some
		// firmware revisions.
		for k := uint32(0); k <= 3; k++ {
			s := baseSig + k
			if s+12 >= limit {
				break
			}

			score, confirmed := scoreAt(mem, s, primaryWeights, true)

			// Independent hypothesis: 4 pad bytes precede the real
			// signature.
			if s2 := s + 4; s2+12 < limit {
				score2, confirmed2 := scoreAt(mem, s2, shiftedWeights, false)
				if score2 > score {
					score, confirmed, s = score2, confirmed2, s2
				}
			}

			if score > bestScore {
				bestScore, bestSig, bestConfirmed = score, s, confirmed
			}
		}
	}

	if bestScore >= acceptScore || (bestScore >= confirmScore && bestConfirmed) {
		return bestSig, string(name), true
	}
	return 0, string(name), false
}
