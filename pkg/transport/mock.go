package transport

import (
	"sync"
	"time"
)

// MockPort is a scripted Port for tests. Reads consume queued chunks in
// order; an exhausted queue behaves like a serial timeout (0 bytes, nil
// error), which matches go.bug.st/serial semantics.
type MockPort struct {
	mu      sync.Mutex
	chunks  [][]byte
	writes  [][]byte
	timeout time.Duration
	closed  bool
}

// NewMockPort creates an empty mock port.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// QueueRead appends a chunk the next Read calls will consume.
func (m *MockPort) QueueRead(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	m.chunks = append(m.chunks, buf)
}

// Writes returns a copy of everything written so far.
func (m *MockPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// WrittenBytes returns all writes flattened into one slice.
func (m *MockPort) WrittenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.writes {
		out = append(out, w...)
	}
	return out
}

// Write records the outgoing bytes
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	m.writes = append(m.writes, buf)
	return len(p), nil
}

// Read pops up to len(p) bytes from the head of the scripted queue
func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chunks) == 0 {
		// Timeout: no data
		return 0, nil
	}
	head := m.chunks[0]
	n := copy(p, head)
	if n < len(head) {
		m.chunks[0] = head[n:]
	} else {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

// SetReadTimeout records the requested timeout
func (m *MockPort) SetReadTimeout(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
	return nil
}

// ReadTimeout returns the last timeout set
func (m *MockPort) ReadTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// PulseLines is a no-op on the mock
func (m *MockPort) PulseLines() error {
	return nil
}

// Close marks the mock closed
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MockPort) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
