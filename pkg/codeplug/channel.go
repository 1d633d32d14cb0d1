package codeplug

import (
	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/metrics"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
)

// Channel is one decoded channel slot.
type Channel struct {
	Index     int    // position in the scan window, 1-based
	Offset    uint32 // slot base address (label start)
	SigOffset uint32 // signature start (RX frequency word)
	Name      string

	RXMHz float64
	TXMHz float64

	PowerHigh bool
	Timeslot  int
	ColorCode int
	Monitor   bool

	Digital bool
	Analog  bool

	// ParamsBeforeTX records the slot layout variant: parameter blob at
	// sig+4 and TX word at sig+8 instead of the usual order.
	ParamsBeforeTX bool

	// RawParams is the 16-byte parameter blob, preserved verbatim so
	// downstream exports can diff bytes that are not yet understood.
	RawParams [16]byte
}

// channelScanCeiling caps the slot scan region; labels have never been
// observed past this address.
const channelScanCeiling = 0x010000

// Decoder walks the channel slot window of an image.
type Decoder struct {
	Base    uint32
	Stride  uint32
	Window  int
	Locator Locator

	log   *logger.Logger
	stats *metrics.Collector
}

// NewDecoder creates a decoder with the observed DM-32 layout.
func NewDecoder(log *logger.Logger) *Decoder {
	return &Decoder{
		Base:    protocol.ChannelBase,
		Stride:  protocol.ChannelStride,
		Window:  protocol.ChannelWindow,
		Locator: DefaultLocator(),
		log:     log.WithComponent("codeplug"),
		stats:   metrics.NewCollector(),
	}
}

// SetCollector shares a session-wide metrics collector.
func (d *Decoder) SetCollector(m *metrics.Collector) {
	if m != nil {
		d.stats = m
	}
}

// Stats returns a snapshot of the decode counters.
func (d *Decoder) Stats() metrics.Stats {
	return d.stats.GetStats()
}

// DecodeSlot decodes the slot whose label starts at base. Returns
// ok=false when no confident signature is found or the parameter blob
// falls outside the captured region.
func (d *Decoder) DecodeSlot(img *memory.Image, base uint32) (Channel, bool) {
	mem := img.Known()
	limit := uint32(len(mem))

	sig, name, ok := d.Locator.Locate(mem, base)
	if !ok {
		return Channel{}, false
	}
	if sig+protocol.ParamsOffset+protocol.ParamsLen > limit {
		return Channel{}, false
	}

	ch := Channel{
		Offset:    base,
		SigOffset: sig,
		Name:      name,
	}

	ch.RXMHz = DecodeFrequency(mem[sig:], 0)

	// Layout variant: when the 4 bytes at sig+4 open like a parameter
	// blob, the blob sits there and TX follows at sig+8.
	txOfs := uint32(4)
	paramsOfs := uint32(protocol.ParamsOffset)
	if sig+12 <= limit {
		h := mem[sig+4:]
		if (h[0] == 0x14 && h[1] == 0x00 && h[2] == 0x00 && h[3] == 0x00) ||
			(h[0] == 0x04 && h[1] == 0x80 && h[2] == 0x00 && h[3] == 0x00) {
			txOfs, paramsOfs = 8, 4
			ch.ParamsBeforeTX = true
		}
	}

	ch.TXMHz = DecodeFrequency(mem[sig+txOfs:], ch.RXMHz)

	// Repeater shifts beyond 10 MHz do not exist in this radio's bands;
	// an implausible TX means the word was misread, so fall back to
	// simplex rather than publish garbage.
	if ch.RXMHz >= 100.0 && ch.RXMHz <= FreqMaxMHz {
		diff := ch.TXMHz - ch.RXMHz
		if diff < 0 {
			diff = -diff
		}
		if ch.TXMHz < 100.0 || ch.TXMHz > FreqMaxMHz || diff > 10.0 {
			ch.TXMHz = ch.RXMHz
		}
	}

	params := mem[sig+paramsOfs : sig+paramsOfs+protocol.ParamsLen]
	copy(ch.RawParams[:], params)

	p0, p1, p2, p3, p5, p7 := params[0], params[1], params[2], params[3], params[5], params[7]

	ch.Digital = p0 == 0x14 && p1 == 0x00 && p2 == 0x00 && p3 == 0x00 && p5 == 0x01
	ch.Analog = p0 == 0x04 && p1 == 0x80 && p2 == 0x00 && p3 == 0x00

	ch.PowerHigh = p0&protocol.PowerHighBit != 0

	switch {
	case ch.Digital:
		ch.Timeslot = 1
		if p5&protocol.TS2Bit != 0 {
			ch.Timeslot = 2
		}
		ch.ColorCode = int(p5 & protocol.CCMask)
	case ch.Analog:
		ch.Timeslot = 1
		ch.ColorCode = 0
	default:
		// Layout unrecognized: fall back to the fixed byte indices that
		// held on the earliest captures.
		pwr := params[protocol.ParamIdxPower]
		tscc := params[protocol.ParamIdxTSCC]
		ch.PowerHigh = pwr&protocol.PowerHighBit != 0
		ch.Timeslot = 1
		if tscc&protocol.TS2Bit != 0 {
			ch.Timeslot = 2
		}
		ch.ColorCode = int(tscc & protocol.CCMask)
	}

	// Monitor flag sits at params[7] bit 0 in every observed layout.
	ch.Monitor = p7&protocol.MonitorBit != 0

	return ch, true
}

// Channels scans the slot window and returns every confidently decoded
// channel in address order. The scan never reaches past the image's
// high-water mark, so a partial capture yields a partial channel list
// rather than phantom decodes.
func (d *Decoder) Channels(img *memory.Image) []Channel {
	limit := img.HighWater()

	var out []Channel
	slot := 0
	for p := d.Base; p+1 < limit && p < channelScanCeiling && slot < d.Window; p += d.Stride {
		slot++
		d.stats.SlotScanned()

		ch, ok := d.DecodeSlot(img, p)
		if !ok {
			continue
		}
		ch.Index = slot
		d.stats.ChannelDecoded()
		d.log.Debug("Channel decoded",
			logger.Hex("offset", ch.Offset),
			logger.String("name", ch.Name),
			logger.Float64("rx", ch.RXMHz),
			logger.Float64("tx", ch.TXMHz))
		out = append(out, ch)
	}
	return out
}
