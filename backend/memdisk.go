package backend

import "sync"

// MemoryDiskBackend is an in-memory implementation of interfaces.DiskBackend,
// grown on demand. Used where a namespace or firmware image needs a
// DiskBackend but no real file backing is wanted (tests, ephemeral
// Processor defaults).
type MemoryDiskBackend struct {
	mu     sync.RWMutex
	data   []byte
	closed bool
}

// NewMemoryDiskBackend creates a backend of the given initial size.
func NewMemoryDiskBackend(size int64) *MemoryDiskBackend {
	if size < 0 {
		size = 0
	}
	return &MemoryDiskBackend{data: make([]byte, size)}
}

// ReadAt implements interfaces.DiskBackend.
func (m *MemoryDiskBackend) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if off >= int64(len(m.data)) {
		return 0, nil
	}
	return copy(p, m.data[off:]), nil
}

// WriteAt implements interfaces.DiskBackend, growing the backing slice
// as needed.
func (m *MemoryDiskBackend) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	return copy(m.data[off:end], p), nil
}

// Size implements interfaces.DiskBackend.
func (m *MemoryDiskBackend) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.data))
}

// Truncate implements interfaces.DiskBackend.
func (m *MemoryDiskBackend) Truncate(size int64) error {
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

// Close implements interfaces.DiskBackend.
func (m *MemoryDiskBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Flush implements interfaces.DiskBackend; a no-op since there is no
// underlying file to sync.
func (m *MemoryDiskBackend) Flush() error {
	return nil
}
