// Package namespace implements namespace lifecycle (create/delete/modify/
// format), per-namespace capacity accounting, and the SMART/health log
// aggregation used by GET_LOG_PAGE. Grounded on
// original_source/hw/nvme_adm.c's aon_adm_cmd_create_ns/delete_ns/mod_ns,
// adm_cmd_format_nvm, and adm_cmd_smart_info.
package namespace

import (
	"errors"

	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
	"github.com/ehrlich-b/nvme-admind/internal/security"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

var (
	ErrInvalidNamespace       = errors.New("invalid namespace")
	ErrInvalidField           = errors.New("invalid field")
	ErrInvalidNamespaceSize   = errors.New("invalid namespace size")
	ErrInvalidNamespaceCap    = errors.New("invalid namespace capacity")
	ErrInvalidE2EProtection   = errors.New("invalid end-to-end data protection configuration")
	ErrInvalidFormat          = errors.New("invalid format")
)

// Namespace is one allocated namespace's runtime state: its identify
// structure, per-LBA utilization bitmap, optional metadata mapping, SMART
// counters, and backing store.
type Namespace struct {
	Identify uapi.IdentifyNamespace

	NSUtil      []byte
	MetaMapping []byte

	DataUnitsRead     uint64
	DataUnitsWritten  uint64
	HostReadCommands  uint64
	HostWriteCommands uint64

	ThreshWarnIssued bool

	RangeType uapi.LBARangeType

	Backend interfaces.DiskBackend
}

// blockSize returns the LBA data size in bytes for the namespace's current
// format.
func (ns *Namespace) blockSize() uint64 {
	idx := ns.Identify.FLBAS & 0xf
	if int(idx) >= len(ns.Identify.LBAF) {
		return 0
	}
	return 1 << ns.Identify.LBAF[idx].LBADataSize
}

// bytes returns the namespace's total addressable size in bytes.
func (ns *Namespace) bytes() uint64 {
	return ns.Identify.NSZE * ns.blockSize()
}

// ResetOnErase implements security.ErasedNamespace: wipe the utilization
// bitmap to zero, the metadata mapping to 0xff, and clear the
// threshold-warning-issued flag, exactly as ERASE_UNIT's success path
// walks every namespace in the original.
func (ns *Namespace) ResetOnErase() {
	for i := range ns.NSUtil {
		ns.NSUtil[i] = 0x00
	}
	for i := range ns.MetaMapping {
		ns.MetaMapping[i] = 0xff
	}
	ns.ThreshWarnIssued = false
}

// ControllerDefaults carries the controller-wide values CREATE_NAMESPACE
// applies to the host-supplied identify payload: nlbaf and lbaf[] are
// copied over it, mc and dpc are the capability ceilings the payload's
// mc/dpc are checked against, and mns is the minimum namespace size log2.
type ControllerDefaults struct {
	NLBAF uint8
	LBAF  [16]uapi.LBAFormat
	MC    uint8
	DPC   uint8
	MNS   uint8 // log2 of minimum namespace size in blocks
}

// Table owns every namespace slot (1-indexed, slots 1..MaxNamespaces),
// controller-wide available space, and the highest currently-allocated
// nsid (NN, mirrored into IdentifyController.NN).
type Table struct {
	slots          []*Namespace // index 0 unused
	AvailableSpace uint64
	NN             uint32
}

// NewTable creates a namespace table with total addressable space
// totalSpace bytes, sized for maxNamespaces slots.
func NewTable(maxNamespaces int, totalSpace uint64) *Table {
	return &Table{
		slots:          make([]*Namespace, maxNamespaces+1),
		AvailableSpace: totalSpace,
	}
}

// Get returns the namespace at nsid, or nil if the slot is empty.
func (t *Table) Get(nsid uint32) *Namespace {
	if nsid == 0 || int(nsid) >= len(t.slots) {
		return nil
	}
	return t.slots[nsid]
}

func (t *Table) inRange(nsid uint32) bool {
	return nsid != 0 && int(nsid) < len(t.slots)
}

// recomputeNN scans for the highest occupied slot, mirroring
// find_last_bit(nn_vector) in the original; 0 if none are allocated.
func (t *Table) recomputeNN() {
	for nsid := len(t.slots) - 1; nsid >= 1; nsid-- {
		if t.slots[nsid] != nil {
			t.NN = uint32(nsid)
			return
		}
	}
	t.NN = 0
}

// Create allocates namespace nsid from a host-supplied identify payload,
// overriding nlbaf/lbaf from controller defaults, validating size against
// available space and the controller's minimum namespace size (mns),
// requiring ncap == nsze, and checking mc/dpc against the controller's
// capabilities.
func (t *Table) Create(nsid uint32, ns uapi.IdentifyNamespace, defaults ControllerDefaults, backend interfaces.DiskBackend) error {
	if !t.inRange(nsid) {
		return ErrInvalidNamespace
	}
	if t.slots[nsid] != nil {
		return ErrInvalidNamespace
	}

	ns.NLBAF = defaults.NLBAF
	copy(ns.LBAF[:], defaults.LBAF[:])

	idx := ns.FLBAS & 0xf
	if int(idx) >= len(ns.LBAF) {
		return ErrInvalidNamespaceSize
	}
	blockSize := uint64(1) << ns.LBAF[idx].LBADataSize
	nsBytes := ns.NSZE * blockSize

	if nsBytes > t.AvailableSpace || nsBytes < (uint64(1)<<defaults.MNS) {
		return ErrInvalidNamespaceSize
	}
	if ns.NCAP != ns.NSZE {
		return ErrInvalidNamespaceCap
	}
	if ns.MC&^defaults.MC != 0 || ns.DPC&^defaults.DPC != 0 {
		return ErrInvalidE2EProtection
	}

	t.AvailableSpace -= nsBytes
	t.slots[nsid] = &Namespace{
		Identify: ns,
		NSUtil:   make([]byte, (ns.NSZE+7)/8),
		Backend:  backend,
	}
	t.recomputeNN()
	return nil
}

// Delete frees namespace nsid, restoring its bytes to AvailableSpace and
// closing its backing store.
func (t *Table) Delete(nsid uint32) error {
	if !t.inRange(nsid) || t.slots[nsid] == nil {
		return ErrInvalidNamespace
	}
	ns := t.slots[nsid]
	t.AvailableSpace += ns.bytes()
	if ns.Backend != nil {
		ns.Backend.Close()
	}
	t.slots[nsid] = nil
	t.recomputeNN()
	return nil
}

// Modify grows or shrinks namespace nsid to match the host-supplied
// identify payload's nsze, adjusting AvailableSpace and resizing the
// backing store and utilization bitmap. Sizes are computed with the
// namespace's current format (modify does not change flbas).
func (t *Table) Modify(nsid uint32, newFields uapi.IdentifyNamespace) error {
	if !t.inRange(nsid) || t.slots[nsid] == nil {
		return ErrInvalidNamespace
	}
	ns := t.slots[nsid]

	blockSize := ns.blockSize()
	newBytes := newFields.NSZE * blockSize
	currentBytes := ns.Identify.NSZE * blockSize

	if newBytes > currentBytes {
		if newBytes-currentBytes > t.AvailableSpace {
			return ErrInvalidNamespaceSize
		}
	}
	if newFields.NCAP != newFields.NSZE {
		return ErrInvalidNamespaceCap
	}

	if ns.Identify.NSZE != newFields.NSZE {
		idx := ns.Identify.FLBAS & 0xf
		size := int64(newFields.NCAP * blockSize)
		if ns.Identify.FLBAS&0x10 != 0 && int(idx) < len(ns.Identify.LBAF) {
			size += int64(newFields.NCAP) * int64(ns.Identify.LBAF[idx].MetadataSize)
		}
		ns.NSUtil = make([]byte, (newFields.NSZE+7)/8)
		if ns.Backend != nil {
			if err := ns.Backend.Truncate(size); err != nil {
				return err
			}
		}
		if newBytes > currentBytes {
			t.AvailableSpace -= newBytes - currentBytes
		} else if newBytes < currentBytes {
			t.AvailableSpace += currentBytes - newBytes
		}
	}

	ns.Identify.NSZE = newFields.NSZE
	ns.Identify.NCAP = newFields.NCAP
	ns.Identify.NSFeat = newFields.NSFeat
	return nil
}

// Format reformats namespace nsid in place: validates lbaf/pi/meta-loc
// against the namespace's protection capabilities, recomputes nsze for
// the new block size, and resets nuse/dps/flbas.
func (t *Table) Format(nsid uint32, cdw10 uint32) error {
	if !t.inRange(nsid) || t.slots[nsid] == nil {
		return ErrInvalidNamespace
	}
	ns := t.slots[nsid]

	lbaIdx := uint8(cdw10 & 0xf)
	metaLoc := uint8(cdw10 & 0x10)
	pi := uint8((cdw10 >> 5) & 0x7)
	pil := uint8((cdw10 >> 5) & 0x8)

	if int(lbaIdx) > int(ns.Identify.NLBAF) || int(lbaIdx) >= len(ns.Identify.LBAF) {
		return ErrInvalidFormat
	}
	if pi != 0 {
		if pil != 0 && ns.Identify.DPC&0x10 == 0 {
			return ErrInvalidFormat
		}
		if pil == 0 && ns.Identify.DPC&0x8 == 0 {
			return ErrInvalidFormat
		}
		if ns.Identify.DPC&0x7&(1<<(pi-1)) == 0 {
			return ErrInvalidFormat
		}
	}
	if metaLoc != 0 && ns.Identify.LBAF[lbaIdx].MetadataSize != 0 && ns.Identify.MC&1 == 0 {
		return ErrInvalidFormat
	}
	if metaLoc == 0 && ns.Identify.LBAF[lbaIdx].MetadataSize != 0 && ns.Identify.MC&2 == 0 {
		return ErrInvalidFormat
	}

	oldSize := ns.bytes()
	newBlockSize := uint64(1) << ns.Identify.LBAF[lbaIdx].LBADataSize

	ns.Identify.NUSE = 0
	ns.Identify.FLBAS = lbaIdx | metaLoc
	ns.Identify.NSZE = oldSize / newBlockSize
	ns.Identify.NCAP = ns.Identify.NSZE
	ns.Identify.DPS = pil | pi

	if ns.Backend != nil {
		if err := ns.Backend.Truncate(int64(oldSize)); err != nil {
			return err
		}
	}
	return nil
}

// ErasedNamespaces returns every allocated namespace's ResetOnErase
// receiver, in slot order, for use with security.FSM.ApplyErase.
func (t *Table) ErasedNamespaces() []security.ErasedNamespace {
	out := make([]security.ErasedNamespace, 0, len(t.slots))
	for _, ns := range t.slots {
		if ns != nil {
			out = append(out, ns)
		}
	}
	return out
}
