package nvmeadmind

import (
	"testing"

	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

func TestProcessorRejectsUnknownOpcode(t *testing.T) {
	p := New(Options{})
	cqe := p.ProcessAdmin(&uapi.SQE{Opcode: 0xAA})
	if cqe.SCT() != uapi.SCTGeneric || cqe.SC() != uapi.StatusInvalidOpcode {
		t.Fatalf("got sct=%d sc=%d, want Generic/InvalidOpcode", cqe.SCT(), cqe.SC())
	}
}

func TestProcessorQueueLifecycle(t *testing.T) {
	p := New(Options{})

	createCQ := &uapi.SQE{Opcode: uapi.OpCreateCQ, CDW10: 1, CDW11: 0x1, PRP1: 0x1000}
	if cqe := p.ProcessAdmin(createCQ); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("CreateCQ failed: sc=%d", cqe.SC())
	}

	createSQ := &uapi.SQE{Opcode: uapi.OpCreateSQ, CDW10: 1, CDW11: 0x1 | (1 << 16), PRP1: 0x2000}
	if cqe := p.ProcessAdmin(createSQ); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("CreateSQ failed: sc=%d", cqe.SC())
	}

	deleteSQ := &uapi.SQE{Opcode: uapi.OpDeleteSQ, CDW10: 1}
	if cqe := p.ProcessAdmin(deleteSQ); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("DeleteSQ failed: sc=%d", cqe.SC())
	}

	deleteCQ := &uapi.SQE{Opcode: uapi.OpDeleteCQ, CDW10: 1}
	if cqe := p.ProcessAdmin(deleteCQ); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("DeleteCQ failed: sc=%d", cqe.SC())
	}
}

func TestProcessorMetricsTrackCommands(t *testing.T) {
	p := New(Options{})

	p.ProcessAdmin(&uapi.SQE{Opcode: uapi.OpIdentify, CDW10: uapi.CNSController, PRP1: 0x3000})
	p.ProcessAdmin(&uapi.SQE{Opcode: 0xAA}) // unknown opcode, should count as an error

	snap := p.Metrics().Snapshot()
	if snap.CommandOps[CategoryIdentify] != 1 {
		t.Errorf("CommandOps[Identify] = %d, want 1", snap.CommandOps[CategoryIdentify])
	}
	if snap.CommandOps[CategoryUnknown] != 1 {
		t.Errorf("CommandOps[Unknown] = %d, want 1", snap.CommandOps[CategoryUnknown])
	}
	if snap.CommandErrors[CategoryUnknown] != 1 {
		t.Errorf("CommandErrors[Unknown] = %d, want 1", snap.CommandErrors[CategoryUnknown])
	}
	if snap.TotalOps != 2 {
		t.Errorf("TotalOps = %d, want 2", snap.TotalOps)
	}
}

func TestProcessorAsyncEventDeliveryCallback(t *testing.T) {
	var delivered []AsyncDelivery
	p := New(Options{
		OnAsyncDelivery: func(d AsyncDelivery) { delivered = append(delivered, d) },
	})

	aer := &uapi.SQE{Opcode: uapi.OpAsyncEventReq, CID: 9}
	if cqe := p.ProcessAdmin(aer); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("AsyncEventRequest failed: sc=%d", cqe.SC())
	}

	cfg := DefaultConfig()
	set := &uapi.SQE{
		Opcode: uapi.OpSetFeatures,
		CDW10:  uapi.FeatTemperatureThreshold,
		CDW11:  uint32(cfg.DefaultTemperatureKelvin),
	}
	if cqe := p.ProcessAdmin(set); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("SetFeatures(temp threshold) failed: sc=%d", cqe.SC())
	}

	if len(delivered) != 1 || delivered[0].CID != 9 {
		t.Fatalf("expected exactly one delivery to cid=9, got %+v", delivered)
	}
}

func TestProcessorWithCustomMockBackends(t *testing.T) {
	mem := NewMockHostMemory(1 << 20)
	fw := NewMockDiskBackend(0)

	p := New(Options{HostMemory: mem, FirmwareImage: fw})

	id := &uapi.SQE{Opcode: uapi.OpIdentify, CDW10: uapi.CNSController, PRP1: 0x4000}
	if cqe := p.ProcessAdmin(id); cqe.SC() != uapi.StatusSuccess {
		t.Fatalf("Identify failed: sc=%d", cqe.SC())
	}
	_, writes := mem.CallCounts()
	if writes == 0 {
		t.Error("expected MockHostMemory to observe at least one write (the identify page)")
	}
}
