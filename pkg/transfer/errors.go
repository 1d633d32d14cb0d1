package transfer

import (
	"errors"
	"fmt"
)

// ErrResyncExhausted means the byte budget ran out before a response
// header marker appeared.
var ErrResyncExhausted = errors.New("resync budget exhausted before response header")

// ErrHeaderTimeout means no response header marker appeared within the
// time budget.
var ErrHeaderTimeout = errors.New("timed out waiting for response header")

// ErrHeaderTruncated means the marker arrived but the remaining header
// bytes did not.
var ErrHeaderTruncated = errors.New("response header truncated")

// BoundsError reports a request that would exceed the memory bound.
// Rejected locally, before anything is written to the port.
type BoundsError struct {
	Address uint32
	Length  uint16
	Bound   uint32
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("read at 0x%06X len %d exceeds memory bound 0x%06X",
		e.Address, e.Length, e.Bound)
}

// StallError reports a payload that stopped arriving mid-block. Bytes
// received before the stall are already in the image and stay valid.
type StallError struct {
	Address  uint32
	Received uint32
}

func (e *StallError) Error() string {
	return fmt.Sprintf("payload stalled after %d bytes of block 0x%06X",
		e.Received, e.Address)
}
