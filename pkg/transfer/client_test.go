package transfer

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/memory"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/transport"
)

func testConfig() Config {
	return Config{
		ByteTimeout:    time.Millisecond,
		HeaderTimeout:  20 * time.Millisecond,
		TrailerTimeout: 5 * time.Millisecond,
		PayloadTimeout: 5 * time.Millisecond,
		Backoff:        0,
		ResyncBudget:   64,
		ChunkSize:      16,
	}
}

func newTestClient(t *testing.T, bound uint32) (*Client, *transport.MockPort) {
	t.Helper()
	port := transport.NewMockPort()
	img := memory.NewImage(bound)
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	return NewClient(port, img, testConfig(), log), port
}

// goodHeader builds the exact echo header for a request.
func goodHeader(addr uint32, length uint16) []byte {
	cmd := protocol.ReadRequest{Address: addr, Length: length}.Encode()
	hdr := append([]byte{protocol.RspBlockHeader}, cmd[1:]...)
	return hdr
}

func payload(length int, seed byte) []byte {
	p := make([]byte, length)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

func TestReadBlock_Success(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	data := payload(32, 0x40)
	port.QueueRead(goodHeader(0x100, 32))
	port.QueueRead(data)

	if err := c.ReadBlock(0x100, 32); err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}

	writes := port.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(writes))
	}
	want := []byte{0x52, 0x00, 0x01, 0x00, 0x20, 0x00}
	if !bytes.Equal(writes[0], want) {
		t.Errorf("request = % X, want % X", writes[0], want)
	}

	got, ok := c.Image().Slice(0x100, 32)
	if !ok {
		t.Fatal("payload range not visible in image")
	}
	if !bytes.Equal(got, data) {
		t.Errorf("image content mismatch")
	}
	if hw := c.Image().HighWater(); hw != 0x120 {
		t.Errorf("high-water = 0x%X, want 0x120", hw)
	}
}

func TestReadBlock_BoundsCheckBeforeIO(t *testing.T) {
	c, port := newTestClient(t, 0x200)

	err := c.ReadBlock(0x1F0, 0x100)
	var bounds *BoundsError
	if !errors.As(err, &bounds) {
		t.Fatalf("expected BoundsError, got %v", err)
	}
	if len(port.Writes()) != 0 {
		t.Error("out-of-bounds request must not reach the port")
	}
	if c.Image().HighWater() != 0 {
		t.Error("image must be untouched")
	}
}

func TestReadBlock_ResyncDiscardsForeignBytes(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	// Handshake residue: stray ACKs and probe reply fragments before
	// the real header. None of them is the marker byte.
	junk := []byte{0x06, 0x06, 'D', 'M', '-', '3', '2', 0x00, 0x01}
	data := payload(16, 0x10)
	port.QueueRead(junk)
	port.QueueRead(goodHeader(0x200, 16))
	port.QueueRead(data)

	if err := c.ReadBlock(0x200, 16); err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}

	got, _ := c.Image().Slice(0x200, 16)
	if !bytes.Equal(got, data) {
		t.Error("payload corrupted by resync")
	}
	if d := c.Stats().BytesDiscarded; d != uint64(len(junk)) {
		t.Errorf("BytesDiscarded = %d, want %d", d, len(junk))
	}
}

func TestReadBlock_ResyncBudgetExhausted(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	junk := make([]byte, 100) // budget is 64
	for i := range junk {
		junk[i] = 0x06
	}
	port.QueueRead(junk)
	port.QueueRead(goodHeader(0x100, 4))
	port.QueueRead(payload(4, 0))

	err := c.ReadBlock(0x100, 4)
	if !errors.Is(err, ErrResyncExhausted) {
		t.Fatalf("expected ErrResyncExhausted, got %v", err)
	}
	if c.Image().HighWater() != 0 {
		t.Error("no payload must land after a failed sync")
	}
}

func TestReadBlock_HeaderTimeout(t *testing.T) {
	c, _ := newTestClient(t, 0x1000)

	// Nothing queued: every poll times out until the budget runs dry.
	err := c.ReadBlock(0x100, 4)
	if !errors.Is(err, ErrHeaderTimeout) {
		t.Fatalf("expected ErrHeaderTimeout, got %v", err)
	}
}

func TestReadBlock_HeaderMismatch(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	// Marker followed by a stale echo from some other exchange.
	port.QueueRead([]byte{protocol.RspBlockHeader, 0x00, 0x99, 0x00, 0x10, 0x00})

	err := c.ReadBlock(0x100, 16)
	var mismatch *protocol.HeaderMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected HeaderMismatchError, got %v", err)
	}
	if c.Image().HighWater() != 0 {
		t.Error("mismatched response must not be trusted")
	}
}

func TestReadBlock_PayloadStallKeepsPrefix(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	partial := payload(16, 0x80)
	port.QueueRead(goodHeader(0x300, 48))
	port.QueueRead(partial)
	// Queue drains here: the remaining 32 bytes never arrive.

	err := c.ReadBlock(0x300, 48)
	var stall *StallError
	if !errors.As(err, &stall) {
		t.Fatalf("expected StallError, got %v", err)
	}
	if stall.Received != 16 {
		t.Errorf("Received = %d, want 16", stall.Received)
	}

	// Bytes below the failure point stay valid.
	got, ok := c.Image().Slice(0x300, 16)
	if !ok || !bytes.Equal(got, partial) {
		t.Error("prefix before the stall must remain in the image")
	}
	if hw := c.Image().HighWater(); hw != 0x310 {
		t.Errorf("high-water = 0x%X, want 0x310", hw)
	}
}

func TestReadBlock_PayloadAcrossChunks(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	data := payload(40, 0x01) // chunk size is 16, so 3 image commits
	port.QueueRead(goodHeader(0x400, 40))
	port.QueueRead(data[:10])
	port.QueueRead(data[10:25])
	port.QueueRead(data[25:])

	if err := c.ReadBlock(0x400, 40); err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	got, _ := c.Image().Slice(0x400, 40)
	if !bytes.Equal(got, data) {
		t.Error("reassembled payload mismatch")
	}
}

func TestReadBlockRetry_SucceedsAfterBadEchoes(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	data := payload(16, 0xA0)
	stale := []byte{protocol.RspBlockHeader, 0xDE, 0xAD, 0xBE, 0xEF, 0x00}

	// Two stale echoes, then the real response.
	port.QueueRead(stale)
	port.QueueRead(stale)
	port.QueueRead(goodHeader(0x500, 16))
	port.QueueRead(data)

	if err := c.ReadBlockRetry(0x500, 16, 3); err != nil {
		t.Fatalf("ReadBlockRetry failed: %v", err)
	}

	got, _ := c.Image().Slice(0x500, 16)
	if !bytes.Equal(got, data) {
		t.Error("failed attempts corrupted the image")
	}

	stats := c.Stats()
	if stats.Retries != 2 {
		t.Errorf("Retries = %d, want 2", stats.Retries)
	}
	if stats.BlocksRead != 1 {
		t.Errorf("BlocksRead = %d, want 1", stats.BlocksRead)
	}
	if stats.BlocksFailed != 0 {
		t.Errorf("BlocksFailed = %d, want 0", stats.BlocksFailed)
	}
	if len(port.Writes()) != 3 {
		t.Errorf("expected 3 request writes, got %d", len(port.Writes()))
	}
}

func TestReadBlockRetry_ExhaustedAttempts(t *testing.T) {
	c, _ := newTestClient(t, 0x1000)

	err := c.ReadBlockRetry(0x100, 8, 2)
	if !errors.Is(err, ErrHeaderTimeout) {
		t.Fatalf("expected ErrHeaderTimeout, got %v", err)
	}

	stats := c.Stats()
	if stats.BlocksAttempted != 2 {
		t.Errorf("BlocksAttempted = %d, want 2", stats.BlocksAttempted)
	}
	if stats.BlocksFailed != 1 {
		t.Errorf("BlocksFailed = %d, want 1", stats.BlocksFailed)
	}
}

func TestReadBlockRetry_NoRetryOnBounds(t *testing.T) {
	c, port := newTestClient(t, 0x100)

	err := c.ReadBlockRetry(0xF0, 0x40, 3)
	var bounds *BoundsError
	if !errors.As(err, &bounds) {
		t.Fatalf("expected BoundsError, got %v", err)
	}
	if len(port.Writes()) != 0 {
		t.Error("bounds failure must not be retried against the port")
	}
	if c.Stats().BlocksAttempted != 1 {
		t.Errorf("BlocksAttempted = %d, want 1", c.Stats().BlocksAttempted)
	}
}

func TestReadBlock_ProgressCallback(t *testing.T) {
	c, port := newTestClient(t, 0x1000)

	var total int
	c.SetProgressFunc(func(n int) { total += n })

	port.QueueRead(goodHeader(0x100, 32))
	port.QueueRead(payload(32, 0))

	if err := c.ReadBlock(0x100, 32); err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if total != 32 {
		t.Errorf("progress total = %d, want 32", total)
	}
}
