// Package firmware implements the firmware slot log, multi-PRP firmware
// image download to a backing file, and slot activation with DJB2
// hash-stamping. Grounded on original_source/hw/nvme_adm.c's
// adm_cmd_dl_fw/do_dlfw_prp(_list)/adm_cmd_act_fw/adm_cmd_fw_log_info.
package firmware

import (
	"errors"
	"fmt"

	"github.com/ehrlich-b/nvme-admind/internal/constants"
	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
	"github.com/ehrlich-b/nvme-admind/internal/prp"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

var (
	ErrInvalidFirmwareSlot = errors.New("invalid firmware slot")
	ErrAllSlotsOccupied    = errors.New("no free firmware slot")
)

// State owns the firmware slot log and pending-image backing store.
// Unlike the original's mis-typed `*(accessor + i)` scan over the raw
// struct, slot hashes are kept as an explicit array indexed 1..7 (slot 0
// unused, matching the wire FWSlotLog layout).
type State struct {
	ActiveSlot uint8
	SlotHashes [constants.MaxFirmwareSlots + 1]string // index 0 unused
	LastSlot   uint8

	Image interfaces.DiskBackend
}

// NewState creates firmware state backed by image for the pending
// firmware download.
func NewState(image interfaces.DiskBackend) *State {
	return &State{Image: image}
}

// Download performs a multi-PRP gather of the firmware image into the
// backing store at the chunk offset cdw11*4, per the original's
// fw_get_img/do_dlfw_prp(_list).
func (s *State) Download(mem interfaces.HostMemory, prp1, prp2 uint64, numDwords uint32, offsetDwords uint32) error {
	size := numDwords * 4
	buf := make([]byte, size)
	if err := prp.ReadInto(mem, prp1, prp2, buf); err != nil {
		return err
	}

	offset := int64(offsetDwords) * 4
	if _, err := s.Image.WriteAt(buf, offset); err != nil {
		return err
	}
	return nil
}

// Activate hashes the currently downloaded image with DJB2 and stamps it
// into the requested slot (or the next free slot, or — if all are
// occupied — the slot following LastSlot, rotating back to 1 past 7) when
// slot is 0. On success it returns the chosen slot and the 8-character
// hex hash, as stamped into both the slot log and IdentifyController.FR.
func (s *State) Activate(slot uint8) (chosenSlot uint8, hash string, err error) {
	if slot > constants.MaxFirmwareSlots {
		return 0, "", ErrInvalidFirmwareSlot
	}

	data, err := readAll(s.Image)
	if err != nil {
		return 0, "", err
	}
	hash = fmt.Sprintf("%x", djb2(data))
	if len(hash) > 8 {
		hash = hash[:8]
	}

	if slot > 0 {
		chosenSlot = slot
	} else {
		chosenSlot = s.firstFreeSlot()
		if chosenSlot == 0 {
			next := s.LastSlot + 1
			if next > constants.MaxFirmwareSlots {
				next = 1
			}
			chosenSlot = next
		}
	}

	s.SlotHashes[chosenSlot] = hash
	s.ActiveSlot = chosenSlot
	s.LastSlot = chosenSlot

	if err := s.Image.Truncate(0); err != nil {
		return chosenSlot, hash, err
	}
	return chosenSlot, hash, nil
}

// firstFreeSlot returns the lowest-numbered empty slot in 1..7, or 0 if
// all are occupied.
func (s *State) firstFreeSlot() uint8 {
	for i := uint8(1); i <= constants.MaxFirmwareSlots; i++ {
		if s.SlotHashes[i] == "" {
			return i
		}
	}
	return 0
}

// Log composes the FW-slot-information log page.
func (s *State) Log() *uapi.FWSlotLog {
	l := &uapi.FWSlotLog{ActiveSlot: s.ActiveSlot}
	for i := 1; i <= constants.MaxFirmwareSlots; i++ {
		copy(l.Slots[i][:], s.SlotHashes[i])
	}
	return l
}

func readAll(d interfaces.DiskBackend) ([]byte, error) {
	size := d.Size()
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	if _, err := d.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// djb2 is the classic Bernstein hash used by the original to fingerprint
// the downloaded firmware image before stamping a slot.
func djb2(data []byte) uint64 {
	hash := uint64(5381)
	for _, b := range data {
		hash = ((hash << 5) + hash) + uint64(b)
	}
	return hash
}
