package firmware

import (
	"testing"

	"github.com/ehrlich-b/nvme-admind/backend"
)

func TestDownloadThenActivateStampsHash(t *testing.T) {
	mem := backend.NewHostMemory(1 << 20)
	image, err := backend.NewFileNamespace(t.TempDir()+"/fw.img", 0)
	if err != nil {
		t.Fatalf("NewFileNamespace: %v", err)
	}
	st := NewState(image)

	payload := []byte("a fake firmware image payload padded to a dword boundary")
	for len(payload)%4 != 0 {
		payload = append(payload, 0)
	}
	if err := mem.WriteAt(payload, 0x1000); err != nil {
		t.Fatalf("seed payload: %v", err)
	}

	if err := st.Download(mem, 0x1000, 0, uint32(len(payload))/4, 0); err != nil {
		t.Fatalf("Download: %v", err)
	}

	slot, hash, err := st.Activate(0)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if slot != 1 {
		t.Errorf("first activate should land on slot 1, got %d", slot)
	}
	if hash == "" {
		t.Errorf("expected non-empty hash")
	}
	if st.SlotHashes[1] != hash {
		t.Errorf("SlotHashes[1] = %q, want %q", st.SlotHashes[1], hash)
	}
	if st.ActiveSlot != 1 {
		t.Errorf("ActiveSlot = %d, want 1", st.ActiveSlot)
	}
}

func TestActivateExplicitSlot(t *testing.T) {
	image, _ := backend.NewFileNamespace(t.TempDir()+"/fw.img", 64)
	st := NewState(image)

	slot, _, err := st.Activate(3)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if slot != 3 {
		t.Errorf("slot = %d, want 3", slot)
	}
}

func TestActivateRejectsOutOfRangeSlot(t *testing.T) {
	image, _ := backend.NewFileNamespace(t.TempDir()+"/fw.img", 64)
	st := NewState(image)
	if _, _, err := st.Activate(8); err != ErrInvalidFirmwareSlot {
		t.Errorf("slot=8: got %v, want ErrInvalidFirmwareSlot", err)
	}
}

func TestActivateAutoPicksLowestFreeSlot(t *testing.T) {
	image, _ := backend.NewFileNamespace(t.TempDir()+"/fw.img", 64)
	st := NewState(image)
	st.SlotHashes[1] = "aaaaaaaa"
	st.SlotHashes[2] = "bbbbbbbb"

	slot, _, err := st.Activate(0)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if slot != 3 {
		t.Errorf("slot = %d, want 3 (lowest free)", slot)
	}
}

func TestActivateRotatesWhenAllSlotsOccupied(t *testing.T) {
	image, _ := backend.NewFileNamespace(t.TempDir()+"/fw.img", 64)
	st := NewState(image)
	for i := 1; i <= 7; i++ {
		st.SlotHashes[i] = "deadbeef"
	}
	st.LastSlot = 7

	slot, _, err := st.Activate(0)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if slot != 1 {
		t.Errorf("slot = %d, want 1 (rotate past 7)", slot)
	}
}

func TestLogReportsActiveSlotAndHashes(t *testing.T) {
	image, _ := backend.NewFileNamespace(t.TempDir()+"/fw.img", 64)
	st := NewState(image)
	st.ActiveSlot = 2
	st.SlotHashes[2] = "cafebabe"

	log := st.Log()
	if log.ActiveSlot != 2 {
		t.Errorf("ActiveSlot = %d, want 2", log.ActiveSlot)
	}
	if string(log.Slots[2][:8]) != "cafebabe" {
		t.Errorf("Slots[2] = %q, want cafebabe", log.Slots[2])
	}
}

func TestDjb2MatchesKnownHash(t *testing.T) {
	// djb2("") == 5381
	if got := djb2(nil); got != 5381 {
		t.Errorf("djb2(nil) = %d, want 5381", got)
	}
}
