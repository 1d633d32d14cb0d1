// Package export renders captured images into human-readable tables,
// reverse-engineering CSVs, and CPS export validation reports.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/blockmap"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
)

// RegionStat summarizes the content of one captured block: how much of
// it is non-filler and what printable strings live there. The survey is
// the first thing to look at when probing a new firmware's layout.
type RegionStat struct {
	Address uint32
	Length  uint16
	NonFF   int
	Non00   int
	Strings int
	Sample1 string
	Sample2 string
	Hint    string
}

func isPrintASCII(b byte) bool {
	return b >= 0x20 && b < 0x7F
}

// Survey scans the captured portion of each block and collects content
// statistics plus up to two sample strings per block.
func Survey(img *memory.Image, blocks []blockmap.Block) []RegionStat {
	mem := img.Known()
	limit := uint32(len(mem))

	stats := make([]RegionStat, 0, len(blocks))
	for _, blk := range blocks {
		st := RegionStat{Address: blk.Address, Length: blk.Length}
		end := blk.Address + uint32(blk.Length)
		if end > limit {
			end = limit
		}

		for p := blk.Address; p < end; p++ {
			if mem[p] != 0xFF {
				st.NonFF++
			}
			if mem[p] != 0x00 {
				st.Non00++
			}
		}

		p := blk.Address
		for p < end {
			if !isPrintASCII(mem[p]) {
				p++
				continue
			}
			var buf []byte
			for p < end && isPrintASCII(mem[p]) && len(buf) < 63 {
				buf = append(buf, mem[p])
				p++
			}
			if len(buf) >= 4 {
				st.Strings++
				s := string(buf)
				if st.Sample1 == "" {
					st.Sample1 = s
				} else if st.Sample2 == "" {
					st.Sample2 = s
				}
			}
		}

		st.Hint = regionHint(st)
		stats = append(stats, st)
	}
	return stats
}

func regionHint(st RegionStat) string {
	switch {
	case strings.Contains(st.Sample1, "Contacts") || strings.Contains(st.Sample2, "Contacts"):
		return " (contacts?)"
	case strings.Contains(st.Sample1, "Roam") || strings.Contains(st.Sample2, "Roam"):
		return " (roam?)"
	case st.Strings > 10 && st.Address >= 0x006000 && st.Address < 0x007000:
		return " (channel/zone labels?)"
	}
	return ""
}

// WriteRegionMap renders the survey in the experimental region-map
// format.
func WriteRegionMap(w io.Writer, stats []RegionStat) {
	fmt.Fprintf(w, "# DM-32: region map (experimental)\n")
	for _, st := range stats {
		fmt.Fprintf(w, "0x%06X..0x%06X size=%d nonFF=%d non00=%d strings=%d%s\n",
			st.Address, st.Address+uint32(st.Length)-1, st.Length,
			st.NonFF, st.Non00, st.Strings, st.Hint)
		if st.Sample1 != "" {
			fmt.Fprintf(w, "  e.g. '%s'\n", st.Sample1)
		}
		if st.Sample2 != "" {
			fmt.Fprintf(w, "       '%s'\n", st.Sample2)
		}
	}
}
