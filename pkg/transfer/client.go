// Package transfer implements the block transfer client: it drives read
// request/response exchanges over a transport.Port and lands payload
// bytes in a memory.Image.
//
// The radio's responses are not framed beyond the 6-byte echo header, and
// handshake residue (stray ACKs, probe replies) can precede it. The client
// therefore resynchronizes on the header marker, discarding bytes under a
// byte budget and a time budget, and validates the full echo before
// trusting any payload.
package transfer

import (
	"errors"
	"fmt"
	"time"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/metrics"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/transport"
)

// readState tracks where a block exchange currently is. Mostly useful in
// debug logs when a capture goes sideways.
type readState int

const (
	stateIdle readState = iota
	stateRequestSent
	stateSyncingHeader
	stateReceivingPayload
	stateComplete
	stateFailed
)

func (s readState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRequestSent:
		return "request-sent"
	case stateSyncingHeader:
		return "syncing-header"
	case stateReceivingPayload:
		return "receiving-payload"
	case stateComplete:
		return "complete"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds the transfer tuning knobs.
type Config struct {
	ByteTimeout    time.Duration // per-read poll while hunting for the marker
	HeaderTimeout  time.Duration // total budget for the marker hunt
	TrailerTimeout time.Duration // budget for the 5 bytes after the marker
	PayloadTimeout time.Duration // budget per payload chunk
	Backoff        time.Duration // pause between retry attempts
	ResyncBudget   int           // max bytes discarded while hunting
	ChunkSize      int           // payload read granularity
}

// DefaultConfig returns the timing profile tuned from CPS captures.
func DefaultConfig() Config {
	return Config{
		ByteTimeout:    protocol.ByteReadTimeout,
		HeaderTimeout:  protocol.HeaderSyncTimeout,
		TrailerTimeout: protocol.HeaderRestTimeout,
		PayloadTimeout: protocol.PayloadChunkTimeout,
		Backoff:        protocol.RetryBackoff,
		ResyncBudget:   protocol.ResyncBudget,
		ChunkSize:      1024,
	}
}

// Client reads memory blocks from the radio into an image.
// Not safe for concurrent use; the serial link is strictly half-duplex.
type Client struct {
	port  transport.Port
	img   *memory.Image
	cfg   Config
	log   *logger.Logger
	stats *metrics.Collector
	state readState

	// progressFn, when set, is called with the byte count of each
	// captured payload chunk.
	progressFn func(n int)
}

// NewClient creates a transfer client over an open port.
func NewClient(port transport.Port, img *memory.Image, cfg Config, log *logger.Logger) *Client {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	return &Client{
		port:  port,
		img:   img,
		cfg:   cfg,
		log:   log.WithComponent("transfer"),
		stats: metrics.NewCollector(),
	}
}

// SetCollector replaces the client's metrics collector, so a session can
// share one collector across transfer and decode.
func (c *Client) SetCollector(m *metrics.Collector) {
	if m != nil {
		c.stats = m
	}
}

// SetProgressFunc installs a per-chunk progress callback.
func (c *Client) SetProgressFunc(f func(n int)) {
	c.progressFn = f
}

// Stats returns a snapshot of the transfer counters.
func (c *Client) Stats() metrics.Stats {
	return c.stats.GetStats()
}

// Image returns the image the client writes into.
func (c *Client) Image() *memory.Image {
	return c.img
}

// ReadBlock performs one request/response exchange for a single block.
// The request is bounds-checked against the image before anything touches
// the port. On failure nothing past the last successfully written chunk
// is visible in the image.
func (c *Client) ReadBlock(addr uint32, length uint16) error {
	req := protocol.ReadRequest{Address: addr, Length: length}
	if req.End() > uint64(c.img.Bound()) {
		return &BoundsError{Address: addr, Length: length, Bound: c.img.Bound()}
	}

	c.state = stateRequestSent
	if _, err := c.port.Write(req.Encode()); err != nil {
		c.state = stateFailed
		return fmt.Errorf("failed to send read request: %w", err)
	}

	c.state = stateSyncingHeader
	if err := c.syncHeader(req); err != nil {
		c.state = stateFailed
		return err
	}

	c.state = stateReceivingPayload
	if err := c.readPayload(addr, length); err != nil {
		c.state = stateFailed
		return err
	}

	c.state = stateComplete
	c.log.Debug("Block captured",
		logger.Hex("addr", addr),
		logger.Int("len", int(length)))
	return nil
}

// ReadBlockRetry wraps ReadBlock with a bounded retry loop. Attempts are
// separated by a fixed backoff; header-echo validation makes a stale
// retried response detectable, so a later clean attempt can overwrite the
// failed range safely. Bounds errors are not retried.
func (c *Client) ReadBlockRetry(addr uint32, length uint16, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.stats.RetryAttempted()
			c.log.Warn("Retrying block",
				logger.Hex("addr", addr),
				logger.Int("attempt", i+1),
				logger.Error(lastErr))
			time.Sleep(c.cfg.Backoff)
		}
		c.stats.BlockAttempted()

		lastErr = c.ReadBlock(addr, length)
		if lastErr == nil {
			c.stats.BlockRead(int(length))
			return nil
		}

		var bounds *BoundsError
		if errors.As(lastErr, &bounds) {
			break
		}
	}

	c.stats.BlockFailed()
	return lastErr
}

// syncHeader hunts for the response marker, discarding foreign bytes, then
// reads and validates the rest of the echo header.
func (c *Client) syncHeader(req protocol.ReadRequest) error {
	var (
		waited    time.Duration
		discarded int
		one       [1]byte
	)

	defer func() {
		if discarded > 0 {
			c.stats.BytesDiscarded(discarded)
			c.log.Debug("Discarded bytes before header",
				logger.Hex("addr", req.Address),
				logger.Int("count", discarded))
		}
	}()

	for waited < c.cfg.HeaderTimeout {
		n := c.readExact(one[:], c.cfg.ByteTimeout)
		if n == 0 {
			// Timed-out poll, not foreign data
			waited += c.cfg.ByteTimeout
			continue
		}

		if one[0] != protocol.RspBlockHeader {
			discarded++
			if discarded > c.cfg.ResyncBudget {
				return fmt.Errorf("block 0x%06X: %w", req.Address, ErrResyncExhausted)
			}
			continue
		}

		hdr := make([]byte, protocol.HeaderSize)
		hdr[0] = one[0]
		if got := c.readExact(hdr[1:], c.cfg.TrailerTimeout); got != protocol.HeaderSize-1 {
			return fmt.Errorf("block 0x%06X: %w", req.Address, ErrHeaderTruncated)
		}
		return protocol.ValidateHeader(req, hdr)
	}

	return fmt.Errorf("block 0x%06X: %w", req.Address, ErrHeaderTimeout)
}

// readPayload pulls the block body in chunks, committing each chunk to the
// image as it lands so a stall preserves everything received before it.
func (c *Client) readPayload(addr uint32, length uint16) error {
	buf := make([]byte, c.cfg.ChunkSize)
	remaining := int(length)
	var off uint32

	for remaining > 0 {
		want := remaining
		if want > len(buf) {
			want = len(buf)
		}

		n := c.readExact(buf[:want], c.cfg.PayloadTimeout)
		if n <= 0 {
			return &StallError{Address: addr, Received: off}
		}

		if err := c.img.Write(addr+off, buf[:n]); err != nil {
			return fmt.Errorf("failed to commit chunk at 0x%06X: %w", addr+off, err)
		}
		off += uint32(n)
		remaining -= n

		if c.progressFn != nil {
			c.progressFn(n)
		}
	}
	return nil
}

// readExact reads until buf is full or a read returns nothing within the
// timeout. Returns the byte count actually read, which may be short.
func (c *Client) readExact(buf []byte, timeout time.Duration) int {
	if err := c.port.SetReadTimeout(timeout); err != nil {
		return 0
	}

	got := 0
	for got < len(buf) {
		n, err := c.port.Read(buf[got:])
		if err != nil || n <= 0 {
			break
		}
		got += n
	}
	return got
}
