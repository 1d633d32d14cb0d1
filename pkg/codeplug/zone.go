package codeplug

import (
	"github.com/emuehlstein/dmrconfig-dm32/pkg/blockmap"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
)

// Zone is a discovered zone label.
type Zone struct {
	Offset uint32
	Name   string
}

// zoneScanCeiling: zone labels only appear in the low region.
const zoneScanCeiling = 0x010000

// cleanZoneCeiling bounds the compact zone-name table. Labels above it
// are channel names and UI strings that happen to pass the shape test.
const cleanZoneCeiling = 0x002000

func isUpperByte(b byte) bool { return b >= 'A' && b <= 'Z' }
func isLowerByte(b byte) bool { return b >= 'a' && b <= 'z' }
func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

// looksLikeZone tests the shape of a candidate label: 3..24 chars,
// leading capital, letters/digits/spaces/hyphens only, mixed case
// without shouting. Tight enough to reject firmware strings, loose
// enough to keep place names.
func looksLikeZone(s string) bool {
	if len(s) < 3 || len(s) > 24 {
		return false
	}
	if !isUpperByte(s[0]) {
		return false
	}
	lowers, uppers := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUpperByte(c):
			uppers++
		case isLowerByte(c):
			lowers++
		case isDigitByte(c) || c == ' ' || c == '-':
		default:
			return false
		}
	}
	if lowers == 0 {
		return false
	}
	if uppers > len(s)/2+1 {
		return false
	}
	return true
}

// ScanZoneCandidates walks the captured portions of the low-address
// blocks and collects every printable run shaped like a zone name,
// deduplicated by name in discovery order.
func ScanZoneCandidates(img *memory.Image, blocks []blockmap.Block) []Zone {
	mem := img.Known()
	limit := uint32(len(mem))

	var zones []Zone
	seen := make(map[string]bool)

	for _, blk := range blocks {
		if blk.Address >= zoneScanCeiling {
			continue
		}
		end := blk.Address + uint32(blk.Length)
		if end > limit {
			end = limit
		}

		p := blk.Address
		for p < end {
			if !isPrintASCII(mem[p]) {
				p++
				continue
			}
			q := p
			var buf []byte
			for q < end && isPrintASCII(mem[q]) && len(buf) < 63 {
				buf = append(buf, mem[q])
				q++
			}
			name := string(buf)
			if looksLikeZone(name) && !seen[name] {
				seen[name] = true
				zones = append(zones, Zone{Offset: p, Name: name})
			}
			p = q
		}
	}
	return zones
}

// Zones returns the clean zone list: candidates from the compact
// low-address name table, short enough to be real zone names. This is
// the list the CPS zone table round-trips against.
func (d *Decoder) Zones(img *memory.Image, blocks []blockmap.Block) []Zone {
	candidates := ScanZoneCandidates(img, blocks)

	var clean []Zone
	seen := make(map[string]bool)
	for _, z := range candidates {
		if z.Offset >= cleanZoneCeiling {
			continue
		}
		if len(z.Name) == 0 || len(z.Name) > 16 {
			continue
		}
		if seen[z.Name] {
			continue
		}
		seen[z.Name] = true
		d.stats.ZoneFound()
		clean = append(clean, z)
	}
	return clean
}
