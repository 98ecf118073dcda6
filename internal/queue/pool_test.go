package queue

import (
	"testing"
)

func TestGetBuffer_SizeBuckets(t *testing.T) {
	tests := []struct {
		name        string
		requestSize uint32
		expectCap   int
	}{
		{"4KB bucket - exact", 4 * 1024, 4 * 1024},
		{"4KB bucket - smaller", 512, 4 * 1024},
		{"64KB bucket - exact", 64 * 1024, 64 * 1024},
		{"64KB bucket - smaller", 40 * 1024, 64 * 1024},
		{"256KB bucket - exact", 256 * 1024, 256 * 1024},
		{"256KB bucket - smaller", 200 * 1024, 256 * 1024},
		{"1MB bucket - exact", 1024 * 1024, 1024 * 1024},
		{"1MB bucket - smaller", 800 * 1024, 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := GetBuffer(tt.requestSize)
			if len(buf) != int(tt.requestSize) {
				t.Errorf("GetBuffer(%d) returned len=%d, want %d", tt.requestSize, len(buf), tt.requestSize)
			}
			if cap(buf) != tt.expectCap {
				t.Errorf("GetBuffer(%d) returned cap=%d, want %d", tt.requestSize, cap(buf), tt.expectCap)
			}
			PutBuffer(buf)
		})
	}
}

func TestBufferPool_Reuse(t *testing.T) {
	buf1 := GetBuffer(4 * 1024)
	ptr1 := &buf1[0]
	PutBuffer(buf1)

	buf2 := GetBuffer(4 * 1024)
	ptr2 := &buf2[0]
	PutBuffer(buf2)

	if ptr1 == ptr2 {
		t.Log("Buffer was successfully reused from pool")
	} else {
		t.Log("Buffer was not reused (sync.Pool GC behavior)")
	}
}

func TestPutBuffer_NonStandardCap(t *testing.T) {
	buf := make([]byte, 100*1024) // not a standard bucket
	PutBuffer(buf)                // must not panic
}

func BenchmarkGetBuffer_4KB(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetBuffer(4 * 1024)
		PutBuffer(buf)
	}
}

func BenchmarkGetBuffer_1MB(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetBuffer(1024 * 1024)
		PutBuffer(buf)
	}
}

func BenchmarkMakeBuffer_4KB(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = make([]byte, 4*1024)
	}
}
