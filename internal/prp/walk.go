// Package prp implements the two-level PRP (Physical Region Page) host
// memory addressing scheme used by all admin-command DMA: identify, log
// pages, the LBA-range-type feature, firmware download, and vendor
// namespace create/modify all walk the same segment sequence.
package prp

import (
	"github.com/ehrlich-b/nvme-admind/internal/constants"
	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
)

// Segment is one contiguous host-address run produced by a Walk.
type Segment struct {
	Addr uint64
	Len  uint32
}

// Walk returns the ordered list of (host_addr, length) segments a transfer
// of n bytes starting at prp1 touches, per spec.md §4.7:
//  1. len1 = min(PAGE_SIZE - (prp1 mod PAGE_SIZE), n); first segment is
//     (prp1, len1).
//  2. If n-len1 <= PAGE_SIZE, the remainder is a single segment at prp2.
//  3. Otherwise prp2 points to a PRP list (array of 64-bit addresses, 512
//     per page); the list's last entry (index 511) chains to the next
//     list page when more than one page of data remains.
//
// mem is consulted only to read PRP list pages themselves — not the data
// segments, which the caller DMAs via the returned addresses.
func Walk(mem interfaces.HostMemory, prp1, prp2 uint64, n uint32) ([]Segment, error) {
	if n == 0 {
		return nil, nil
	}

	pageSize := uint32(constants.PageSize)
	offset := uint32(prp1 % uint64(pageSize))
	len1 := pageSize - offset
	if len1 > n {
		len1 = n
	}

	segments := []Segment{{Addr: prp1, Len: len1}}
	remaining := n - len1
	if remaining == 0 {
		return segments, nil
	}

	if remaining <= pageSize {
		segments = append(segments, Segment{Addr: prp2, Len: remaining})
		return segments, nil
	}

	// prp2 points to a PRP list page; walk it, chaining at the last entry.
	listAddr := prp2
	for remaining > 0 {
		entries, err := readPRPList(mem, listAddr)
		if err != nil {
			return nil, err
		}

		lastUsable := constants.PRPListChainIndex
		for i := 0; i < lastUsable && remaining > 0; i++ {
			segLen := pageSize
			if segLen > remaining {
				segLen = remaining
			}
			segments = append(segments, Segment{Addr: entries[i], Len: segLen})
			remaining -= segLen
		}

		if remaining == 0 {
			break
		}

		if remaining <= pageSize {
			// Exactly one page of data remains: the chain-index entry is
			// itself a data pointer, not a pointer to another list page.
			segments = append(segments, Segment{Addr: entries[lastUsable], Len: remaining})
			break
		}

		// More than one page of data remains after filling this list's
		// usable entries: the chain-index entry is the next list page.
		listAddr = entries[lastUsable]
	}

	return segments, nil
}

func readPRPList(mem interfaces.HostMemory, addr uint64) ([]uint64, error) {
	raw := make([]byte, constants.PageSize)
	if err := mem.ReadAt(raw, addr); err != nil {
		return nil, err
	}
	entries := make([]uint64, constants.PRPEntriesPerPage)
	for i := range entries {
		off := i * 8
		entries[i] = uint64(raw[off]) | uint64(raw[off+1])<<8 | uint64(raw[off+2])<<16 |
			uint64(raw[off+3])<<24 | uint64(raw[off+4])<<32 | uint64(raw[off+5])<<40 |
			uint64(raw[off+6])<<48 | uint64(raw[off+7])<<56
	}
	return entries, nil
}

// ReadInto gathers n bytes from host memory starting at prp1/prp2 into
// dst, walking PRP segments as needed.
func ReadInto(mem interfaces.HostMemory, prp1, prp2 uint64, dst []byte) error {
	segments, err := Walk(mem, prp1, prp2, uint32(len(dst)))
	if err != nil {
		return err
	}
	off := uint32(0)
	for _, seg := range segments {
		if err := mem.ReadAt(dst[off:off+seg.Len], seg.Addr); err != nil {
			return err
		}
		off += seg.Len
	}
	return nil
}

// WriteFrom scatters src to host memory starting at prp1/prp2, walking
// PRP segments as needed.
func WriteFrom(mem interfaces.HostMemory, prp1, prp2 uint64, src []byte) error {
	segments, err := Walk(mem, prp1, prp2, uint32(len(src)))
	if err != nil {
		return err
	}
	off := uint32(0)
	for _, seg := range segments {
		if err := mem.WriteAt(src[off:off+seg.Len], seg.Addr); err != nil {
			return err
		}
		off += seg.Len
	}
	return nil
}
