// Package protocol implements the DM-32 CPS serial protocol frames.
//
// The protocol was captured from the vendor CPS; there is no official
// specification. Block reads use a single-opcode request/response exchange;
// a short ASCII handshake and an "enter program mode" preamble precede
// them. No write opcode is implemented anywhere in this module.
package protocol

import "time"

// Wire opcodes
const (
	// CmdReadBlock requests a memory block: 0x52 'R' + addr(BE24) + len(LE16)
	CmdReadBlock = 0x52

	// RspBlockHeader marks a block response: 0x57 'W' + echoed addr + len
	RspBlockHeader = 0x57

	// CmdVersionProbe prefixes the 5-byte CPS version/info probes
	CmdVersionProbe = 0x56

	// CmdResourceFetch prefixes the 6-byte resource fetch probe
	CmdResourceFetch = 0x47

	// AckByte is the stray acknowledge byte the radio interleaves with data
	AckByte = 0x06
)

// HeaderSize is the size of a read request and of a response header.
const HeaderSize = 6

// Handshake commands sent before entering program mode. Their responses
// are observed for the trace log but carry no required semantics.
var HandshakeCommands = []string{"PSEARCH", "PASSSTA", "SYSINFO"}

// ProgramPreamble switches the radio into program mode.
var ProgramPreamble = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0C, 'P', 'R', 'O', 'G', 'R', 'A', 'M'}

// Program mode follow-up bytes, sent separately after the preamble.
var (
	ProgramStep1 = []byte{0x02}
	ProgramStep2 = []byte{0x06}
)

// Serial characteristics
const (
	// BaudRate is the CH340 link speed used by the CPS
	BaudRate = 115200
)

// MemoryBound is the 2 MiB safe bound used by the reader.
const MemoryBound = 0x200000

// Channel slot layout window (observed, not vendor-documented)
const (
	// ChannelBase is the first slot label address
	ChannelBase = 0x00601C

	// ChannelStride is the per-slot size in bytes
	ChannelStride = 0x30

	// ChannelWindow is the bounded number of leading slots scanned.
	// Intentionally far below the advertised 4000 slots.
	ChannelWindow = 240

	// LabelPadMax is the maximum pad bytes (0xFF/0x00) after a label
	LabelPadMax = 16

	// SigScanMax is how far past the pad the signature scan reaches
	SigScanMax = 32
)

// Parameter block layout relative to the signature start
const (
	// ParamsOffset is where the parameter blob starts
	ParamsOffset = 8

	// ParamsLen is the parameter blob size
	ParamsLen = 16

	// Legacy fixed indices used when neither flavor template matches
	ParamIdxPower   = 0
	ParamIdxTSCC    = 5
	ParamIdxMonitor = 7
)

// Bit masks within the parameter blob
const (
	// PowerHighBit in params[0] selects high transmit power
	PowerHighBit = 0x04

	// TS2Bit in params[5] selects timeslot 2
	TS2Bit = 0x10

	// CCMask extracts the color code from params[5]
	CCMask = 0x0F

	// MonitorBit in params[7] flags monitor/special channels
	MonitorBit = 0x01
)

// Advertised capacities from the vendor spec sheet. Only a fraction is
// actually decoded; kept for table headers and sanity limits.
const (
	NumChannels = 4000
	NumZones    = 250
)

// Default timing for the block exchange, tuned from CPS captures.
const (
	// ByteReadTimeout is the per-read poll while hunting for a header
	ByteReadTimeout = 150 * time.Millisecond

	// HeaderSyncTimeout bounds the whole hunt for the response marker
	HeaderSyncTimeout = 4 * time.Second

	// HeaderRestTimeout bounds the 5 bytes following the marker
	HeaderRestTimeout = 5 * time.Second

	// PayloadChunkTimeout bounds each payload chunk read
	PayloadChunkTimeout = 2 * time.Second

	// RetryBackoff is the pause between block read attempts
	RetryBackoff = 50 * time.Millisecond
)

// ResyncBudget caps discarded bytes while hunting for a response header.
// Set high enough to ride out SYSINFO and version-probe residue.
const ResyncBudget = 65536
