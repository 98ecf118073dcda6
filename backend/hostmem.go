// Package backend provides the storage and host-memory implementations
// that back a Controller: a simulated guest-memory arena for PRP-addressed
// DMA, and file-backed namespace storage.
package backend

import (
	"fmt"
	"sync"
)

// ShardSize is the size of each memory shard (64KB). Sharded locking
// allows concurrent PRP segment access from identify/log/firmware paths
// without a single global mutex.
const ShardSize = 64 * 1024

// HostMemory is an in-process byte arena standing in for guest DMA-
// addressable memory. Addresses are arena-relative offsets.
type HostMemory struct {
	data   []byte
	shards []sync.RWMutex
}

// NewHostMemory allocates an arena of the given size.
func NewHostMemory(size int64) *HostMemory {
	numShards := (size + ShardSize - 1) / ShardSize
	if numShards < 1 {
		numShards = 1
	}
	return &HostMemory{
		data:   make([]byte, size),
		shards: make([]sync.RWMutex, numShards),
	}
}

func (m *HostMemory) shardRange(off, length int64) (start, end int) {
	start = int(off / ShardSize)
	end = int((off + length - 1) / ShardSize)
	if end >= len(m.shards) {
		end = len(m.shards) - 1
	}
	return start, end
}

// ReadAt implements interfaces.HostMemory.
func (m *HostMemory) ReadAt(p []byte, addr uint64) error {
	off := int64(addr)
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return fmt.Errorf("host memory read out of range: addr=0x%x len=%d", addr, len(p))
	}

	start, end := m.shardRange(off, int64(len(p)))
	for i := start; i <= end; i++ {
		m.shards[i].RLock()
	}
	copy(p, m.data[off:off+int64(len(p))])
	for i := start; i <= end; i++ {
		m.shards[i].RUnlock()
	}
	return nil
}

// WriteAt implements interfaces.HostMemory.
func (m *HostMemory) WriteAt(p []byte, addr uint64) error {
	off := int64(addr)
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return fmt.Errorf("host memory write out of range: addr=0x%x len=%d", addr, len(p))
	}

	start, end := m.shardRange(off, int64(len(p)))
	for i := start; i <= end; i++ {
		m.shards[i].Lock()
	}
	copy(m.data[off:off+int64(len(p))], p)
	for i := start; i <= end; i++ {
		m.shards[i].Unlock()
	}
	return nil
}

// Size returns the arena's total size.
func (m *HostMemory) Size() int64 {
	return int64(len(m.data))
}
