package nvmeadmind

import (
	"sync"

	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
)

// MockHostMemory is a byte-arena implementation of interfaces.HostMemory
// for unit testing callers of Processor without a real guest-memory
// mapping.
type MockHostMemory struct {
	mu   sync.RWMutex
	data []byte

	readCalls  int
	writeCalls int
}

// NewMockHostMemory creates a mock host memory arena of the given size.
func NewMockHostMemory(size int64) *MockHostMemory {
	return &MockHostMemory{data: make([]byte, size)}
}

func (m *MockHostMemory) ReadAt(p []byte, addr uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++
	if addr+uint64(len(p)) > uint64(len(m.data)) {
		return NewError("MockHostMemory.ReadAt", ErrCodeInvalidField, "read out of bounds")
	}
	copy(p, m.data[addr:addr+uint64(len(p))])
	return nil
}

func (m *MockHostMemory) WriteAt(p []byte, addr uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	if addr+uint64(len(p)) > uint64(len(m.data)) {
		return NewError("MockHostMemory.WriteAt", ErrCodeInvalidField, "write out of bounds")
	}
	copy(m.data[addr:addr+uint64(len(p))], p)
	return nil
}

// CallCounts returns the number of ReadAt/WriteAt calls observed so far.
func (m *MockHostMemory) CallCounts() (reads, writes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readCalls, m.writeCalls
}

// MockDiskBackend is an in-memory implementation of interfaces.DiskBackend
// for unit testing namespace/firmware storage without touching the real
// filesystem.
type MockDiskBackend struct {
	mu     sync.RWMutex
	data   []byte
	closed bool

	flushCalls int
}

// NewMockDiskBackend creates a mock disk backend of the given size.
func NewMockDiskBackend(size int64) *MockDiskBackend {
	return &MockDiskBackend{data: make([]byte, size)}
}

func (m *MockDiskBackend) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, NewError("MockDiskBackend.ReadAt", ErrCodeNamespaceNotFound, "backend closed")
	}
	if off >= int64(len(m.data)) {
		return 0, nil
	}
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *MockDiskBackend) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, NewError("MockDiskBackend.WriteAt", ErrCodeNamespaceNotFound, "backend closed")
	}
	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	n := copy(m.data[off:end], p)
	return n, nil
}

func (m *MockDiskBackend) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.data))
}

func (m *MockDiskBackend) Truncate(size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}

func (m *MockDiskBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockDiskBackend) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushCalls++
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockDiskBackend) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

var (
	_ interfaces.HostMemory = (*MockHostMemory)(nil)
	_ interfaces.DiskBackend = (*MockDiskBackend)(nil)
)
