package export

import (
	"fmt"
	"io"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/codeplug"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
)

// slotsDebugMax caps the raw slot dump.
const slotsDebugMax = 128

func hexCell(p []byte) string {
	out := make([]byte, 0, len(p)*3)
	for i, b := range p {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, fmt.Sprintf("%02X", b)...)
	}
	return string(out)
}

// WriteSlotsDebugCSV dumps the raw slot window: both frequency
// interpretations side by side plus hex of the whole slot, the parameter
// blob, and 32 bytes from the signature. This is the primary artifact
// for mapping new fields by diffing two captures.
func WriteSlotsDebugCSV(w io.Writer, img *memory.Image) {
	mem := img.Known()
	limit := uint32(len(mem))
	end := uint32(protocol.ChannelBase) + protocol.ChannelStride*protocol.ChannelWindow

	fmt.Fprintf(w, "slot,offset_hex,label,rx_bcd_mhz,tx_bcd_mhz,rx_f32_mhz,tx_f32_mhz,bytes_hex,params_hex16,sig_hex32\n")

	for i := uint32(0); i < slotsDebugMax; i++ {
		p := uint32(protocol.ChannelBase) + i*protocol.ChannelStride
		if p+1 >= limit || p >= end {
			break
		}

		// Label
		var lbl []byte
		q := p
		for q < limit && isPrintASCII(mem[q]) && len(lbl) < 63 {
			lbl = append(lbl, mem[q])
			q++
		}
		if !(q < limit && mem[q] == 0x00) {
			continue
		}

		// Skip 0xFF pad, then seek forward to the first signature match.
		s := q + 1
		for pad := 0; pad < protocol.LabelPadMax && s < limit && mem[s] == 0xFF; pad++ {
			s++
		}
		for scan := 0; scan < protocol.SigScanMax && s+uint32(scan) < limit; scan++ {
			if codeplug.IsSignature(mem, s+uint32(scan)) {
				s += uint32(scan)
				break
			}
		}

		var rxBCD, txBCD, rxF32, txF32 float64
		if s+8 <= limit {
			rxBCD = codeplug.DecodeBCD(mem[s:])
			txBCD = codeplug.DecodeBCD(mem[s+4:])
			rxF32 = codeplug.DecodeFloat32(mem[s:])
			txF32 = codeplug.DecodeFloat32(mem[s+4:])
		}

		slotLen := uint32(protocol.ChannelStride)
		if p+slotLen > limit {
			slotLen = limit - p
		}

		var paramsHex string
		if s+protocol.ParamsOffset < limit {
			plen := uint32(protocol.ParamsLen)
			if s+protocol.ParamsOffset+plen > limit {
				plen = limit - (s + protocol.ParamsOffset)
			}
			paramsHex = hexCell(mem[s+protocol.ParamsOffset : s+protocol.ParamsOffset+plen])
		}

		var sigHex string
		if s < limit {
			sl := uint32(32)
			if s+sl > limit {
				sl = limit - s
			}
			sigHex = hexCell(mem[s : s+sl])
		}

		fmt.Fprintf(w, "%d,%06X,%s,%.5f,%.5f,%.5f,%.5f,%s,%s,%s\n",
			i, p, lbl, rxBCD, txBCD, rxF32, txF32,
			hexCell(mem[p:p+slotLen]), paramsHex, sigHex)
	}
}

// WriteChannelFieldsCSV writes one row per decoded channel with the
// parsed fields and the raw parameter blob.
func WriteChannelFieldsCSV(w io.Writer, chans []codeplug.Channel) {
	fmt.Fprintf(w, "slot,offset_hex,label,rx_mhz,tx_mhz,timeslot,power,color_code,params_hex16\n")
	for _, ch := range chans {
		power := "Low"
		if ch.PowerHigh {
			power = "High"
		}
		fmt.Fprintf(w, "%d,%06X,%s,%.5f,%.5f,%d,%s,%d,%s\n",
			ch.Index-1, ch.Offset, ch.Name, ch.RXMHz, ch.TXMHz,
			ch.Timeslot, power, ch.ColorCode, hexCell(ch.RawParams[:]))
	}
}

// WriteZonesCSV writes the clean zone table for offline mapping.
func WriteZonesCSV(w io.Writer, zones []codeplug.Zone) {
	fmt.Fprintf(w, "offset_hex,name\n")
	for _, z := range zones {
		fmt.Fprintf(w, "%06X,%s\n", z.Offset, z.Name)
	}
}

// WriteChannelsCSV writes the minimal channel name list.
func WriteChannelsCSV(w io.Writer, chans []codeplug.Channel) {
	fmt.Fprintf(w, "offset_hex,name\n")
	for _, ch := range chans {
		fmt.Fprintf(w, "%06X,%s\n", ch.Offset, ch.Name)
	}
}
