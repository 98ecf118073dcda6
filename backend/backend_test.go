package backend

import (
	"path/filepath"
	"testing"

	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
)

var (
	_ interfaces.HostMemory  = (*HostMemory)(nil)
	_ interfaces.DiskBackend = (*FileNamespace)(nil)
)

func TestHostMemoryReadWriteRoundTrip(t *testing.T) {
	mem := NewHostMemory(1 << 20)

	in := []byte("identify-controller-payload")
	if err := mem.WriteAt(in, 4096); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	out := make([]byte, len(in))
	if err := mem.ReadAt(out, 4096); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(out) != string(in) {
		t.Errorf("got %q, want %q", out, in)
	}
}

func TestHostMemoryOutOfRange(t *testing.T) {
	mem := NewHostMemory(4096)
	buf := make([]byte, 16)
	if err := mem.ReadAt(buf, 4090); err == nil {
		t.Error("expected out-of-range error")
	}
	if err := mem.WriteAt(buf, 4090); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestHostMemorySpansShardBoundary(t *testing.T) {
	mem := NewHostMemory(4 * ShardSize)
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}

	addr := uint64(ShardSize - 128)
	if err := mem.WriteAt(payload, addr); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	out := make([]byte, len(payload))
	if err := mem.ReadAt(out, addr); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for i := range out {
		if out[i] != payload[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], payload[i])
		}
	}
}

func TestFileNamespaceLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ns1.img")
	ns, err := NewFileNamespace(path, 1<<20)
	if err != nil {
		t.Fatalf("NewFileNamespace: %v", err)
	}
	defer ns.Close()

	if ns.Size() != 1<<20 {
		t.Errorf("Size() = %d, want %d", ns.Size(), 1<<20)
	}

	data := []byte("namespace block data")
	if _, err := ns.WriteAt(data, 512); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	out := make([]byte, len(data))
	if _, err := ns.ReadAt(out, 512); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(out) != string(data) {
		t.Errorf("got %q, want %q", out, data)
	}

	if err := ns.Truncate(1 << 21); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if ns.Size() != 1<<21 {
		t.Errorf("Size() after grow = %d, want %d", ns.Size(), 1<<21)
	}

	if err := ns.Flush(); err != nil {
		t.Errorf("Flush: %v", err)
	}
}
