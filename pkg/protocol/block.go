package protocol

import (
	"fmt"
)

// ReadRequest is a single block read: a 24-bit address and 16-bit length.
type ReadRequest struct {
	Address uint32 // 24-bit
	Length  uint16
}

// Encode builds the 6-byte wire request:
// 0x52, addrHi, addrMid, addrLo, lenLo, lenHi
// (address big-endian, length little-endian).
func (r ReadRequest) Encode() []byte {
	return []byte{
		CmdReadBlock,
		byte(r.Address >> 16),
		byte(r.Address >> 8),
		byte(r.Address),
		byte(r.Length),
		byte(r.Length >> 8),
	}
}

// End returns the exclusive end address of the request.
func (r ReadRequest) End() uint64 {
	return uint64(r.Address) + uint64(r.Length)
}

// HeaderMismatchError reports a response header that does not echo the
// request. The read must be retried, never partially trusted.
type HeaderMismatchError struct {
	Expected [HeaderSize]byte
	Got      [HeaderSize]byte
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("response header % X does not echo request % X", e.Got, e.Expected)
}

// ValidateHeader checks a 6-byte response header against the request.
// Every echoed byte after the 0x57 marker must match the request exactly.
func ValidateHeader(req ReadRequest, hdr []byte) error {
	if len(hdr) != HeaderSize {
		return fmt.Errorf("response header is %d bytes, want %d", len(hdr), HeaderSize)
	}

	cmd := req.Encode()
	expected := [HeaderSize]byte{RspBlockHeader, cmd[1], cmd[2], cmd[3], cmd[4], cmd[5]}

	var got [HeaderSize]byte
	copy(got[:], hdr)
	if got != expected {
		return &HeaderMismatchError{Expected: expected, Got: got}
	}
	return nil
}

// VersionProbe builds a 5-byte CPS version/info probe: 0x56 00 00 hi lo.
func VersionProbe(hi, lo byte) []byte {
	return []byte{CmdVersionProbe, 0x00, 0x00, hi, lo}
}

// ResourceFetch builds the fixed 6-byte resource fetch probe.
func ResourceFetch() []byte {
	return []byte{CmdResourceFetch, 0x00, 0x00, 0x00, 0x00, 0x01}
}
