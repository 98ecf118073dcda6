package prp

import (
	"encoding/binary"
	"testing"

	"github.com/ehrlich-b/nvme-admind/backend"
	"github.com/ehrlich-b/nvme-admind/internal/constants"
)

func TestWalkSinglePageFitsInPRP1(t *testing.T) {
	mem := backend.NewHostMemory(1 << 20)
	segs, err := Walk(mem, 0x1000, 0, 100)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(segs) != 1 || segs[0].Addr != 0x1000 || segs[0].Len != 100 {
		t.Errorf("unexpected segments: %+v", segs)
	}
}

func TestWalkTwoPagesUsesPRP2Directly(t *testing.T) {
	mem := backend.NewHostMemory(1 << 20)
	// prp1 offset into the page leaves less than a full page before the
	// boundary, forcing the remainder onto prp2.
	prp1 := uint64(0x1000 + constants.PageSize - 64)
	n := uint32(128)
	segs, err := Walk(mem, prp1, 0x9000, n)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Addr != prp1 || segs[0].Len != 64 {
		t.Errorf("segment 0 = %+v, want addr=%#x len=64", segs[0], prp1)
	}
	if segs[1].Addr != 0x9000 || segs[1].Len != 64 {
		t.Errorf("segment 1 = %+v, want addr=0x9000 len=64", segs[1])
	}
}

func TestWalkPRPListBoundaryEntryIsDataWhenOnePageRemains(t *testing.T) {
	mem := backend.NewHostMemory(4 << 20)

	// Build a PRP list at 0x10000 with 511 data entries (indices 0..510)
	// plus a 512th data page at the chain index (511): when exactly one
	// page of data remains after the first 511 entries, the chain-index
	// entry is itself a data pointer, not a pointer to another list.
	listPage := make([]byte, constants.PageSize)
	for i := 0; i < constants.PRPListChainIndex; i++ {
		binary.LittleEndian.PutUint64(listPage[i*8:i*8+8], uint64(0x100000+i*constants.PageSize))
	}
	binary.LittleEndian.PutUint64(listPage[constants.PRPListChainIndex*8:], 0x300000)
	if err := mem.WriteAt(listPage, 0x10000); err != nil {
		t.Fatalf("seed list page: %v", err)
	}

	// Total: 1 page via prp1, 511 pages via list entries 0..510, 1 page
	// via the boundary entry (511) used as data.
	n := uint32(constants.PageSize) * (1 + uint32(constants.PRPListChainIndex) + 1)
	segs, err := Walk(mem, 0x1000, 0x10000, n)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	expectedSegments := 1 + constants.PRPListChainIndex + 1
	if len(segs) != expectedSegments {
		t.Fatalf("expected %d segments, got %d", expectedSegments, len(segs))
	}
	if segs[0].Addr != 0x1000 {
		t.Errorf("segment 0 addr = %#x, want 0x1000", segs[0].Addr)
	}
	if segs[1].Addr != 0x100000 {
		t.Errorf("segment 1 addr = %#x, want 0x100000", segs[1].Addr)
	}
	last := segs[len(segs)-1]
	if last.Addr != 0x300000 || last.Len != uint32(constants.PageSize) {
		t.Errorf("last segment = %+v, want addr=0x300000 len=%d (boundary entry as data)", last, constants.PageSize)
	}
}

func TestWalkPRPListChainsToNextListWhenMoreThanOnePageRemains(t *testing.T) {
	mem := backend.NewHostMemory(4 << 20)

	// First list: 511 data entries (0..510) plus a genuine chain pointer
	// at index 511, used only when more than one page remains once those
	// 511 entries are consumed.
	listPage := make([]byte, constants.PageSize)
	for i := 0; i < constants.PRPListChainIndex; i++ {
		binary.LittleEndian.PutUint64(listPage[i*8:i*8+8], uint64(0x100000+i*constants.PageSize))
	}
	binary.LittleEndian.PutUint64(listPage[constants.PRPListChainIndex*8:], 0x20000)
	if err := mem.WriteAt(listPage, 0x10000); err != nil {
		t.Fatalf("seed list page: %v", err)
	}

	secondList := make([]byte, constants.PageSize)
	binary.LittleEndian.PutUint64(secondList[0:8], 0x200000)
	binary.LittleEndian.PutUint64(secondList[8:16], 0x210000)
	if err := mem.WriteAt(secondList, 0x20000); err != nil {
		t.Fatalf("seed second list page: %v", err)
	}

	// Total: 1 page via prp1, 511 pages via list 1, 2 pages via list 2 —
	// exactly two pages remain after list 1's 511 entries, so entry 511
	// must chain rather than be treated as data.
	n := uint32(constants.PageSize) * (1 + uint32(constants.PRPListChainIndex) + 2)
	segs, err := Walk(mem, 0x1000, 0x10000, n)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	expectedSegments := 1 + constants.PRPListChainIndex + 2
	if len(segs) != expectedSegments {
		t.Fatalf("expected %d segments, got %d", expectedSegments, len(segs))
	}
	if segs[0].Addr != 0x1000 {
		t.Errorf("segment 0 addr = %#x, want 0x1000", segs[0].Addr)
	}
	if segs[1].Addr != 0x100000 {
		t.Errorf("segment 1 addr = %#x, want 0x100000", segs[1].Addr)
	}
	if segs[len(segs)-2].Addr != 0x200000 {
		t.Errorf("second-to-last segment addr = %#x, want 0x200000 (first entry of chained list)", segs[len(segs)-2].Addr)
	}
	last := segs[len(segs)-1]
	if last.Addr != 0x210000 {
		t.Errorf("last segment addr = %#x, want 0x210000 (second entry of chained list)", last.Addr)
	}
}

func TestReadIntoAndWriteFromRoundTrip(t *testing.T) {
	mem := backend.NewHostMemory(1 << 20)
	payload := []byte("firmware chunk data exercising PRP gather/scatter")

	if err := WriteFrom(mem, 0x3000, 0x4000, payload); err != nil {
		t.Fatalf("WriteFrom: %v", err)
	}

	out := make([]byte, len(payload))
	if err := ReadInto(mem, 0x3000, 0x4000, out); err != nil {
		t.Fatalf("ReadInto: %v", err)
	}
	if string(out) != string(payload) {
		t.Errorf("got %q, want %q", out, payload)
	}
}
