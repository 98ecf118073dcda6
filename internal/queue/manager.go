// Package queue owns submission/completion queue lifecycle (allocation,
// deletion, and the CQ.usage_cnt refcount invariant linking SQs to their
// CQ) plus a pooled buffer allocator for PRP-walked transfers.
package queue

import "sync"

// Invalid marks an unallocated queue id slot.
const Invalid = ^uint16(0)

// CmdTrackingEntry records an in-flight command for ABORT to search.
type CmdTrackingEntry struct {
	CommandID uint16
}

// SQ is a submission queue.
type SQ struct {
	ID          uint16
	CQID        uint16
	Head        uint16
	Tail        uint16
	Size        uint16
	Prio        uint8
	PhysContig  bool
	DMAAddr     uint64
	CmdList     []CmdTrackingEntry
	allocated   bool
}

// Allocated reports whether this slot holds a live queue.
func (s *SQ) Allocated() bool { return s.allocated }

// CQ is a completion queue.
type CQ struct {
	ID          uint16
	Head        uint16
	Tail        uint16
	Size        uint16
	DMAAddr     uint64
	PhysContig  bool
	IRQEnabled  bool
	Vector      uint16
	PhaseTag    uint8
	UsageCnt    int
	PDID        uint32
	allocated   bool
}

// Allocated reports whether this slot holds a live queue.
func (c *CQ) Allocated() bool { return c.allocated }

// Manager owns the SQ/CQ arrays for one controller. Slot 0 is reserved for
// the admin queue pair, created externally (by the PCIe/MMIO front-end,
// out of this package's scope) and never touched by Delete/Create here.
type Manager struct {
	mu  sync.Mutex
	sqs []SQ
	cqs []CQ
	qmax int
}

// NewManager creates a queue manager sized for qmax I/O queue pairs (slots
// 1..qmax; slot 0 is the admin pair).
func NewManager(qmax int) *Manager {
	m := &Manager{
		sqs:  make([]SQ, qmax+1),
		cqs:  make([]CQ, qmax+1),
		qmax: qmax,
	}
	return m
}

// QMax returns the highest valid non-admin queue id.
func (m *Manager) QMax() int { return m.qmax }

// CQ returns a copy of the CQ at qid, or false if unallocated/out of range.
func (m *Manager) CQ(qid uint16) (CQ, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(qid) > m.qmax {
		return CQ{}, false
	}
	cq := m.cqs[qid]
	return cq, cq.allocated
}

// SQ returns a copy of the SQ at qid, or false if unallocated/out of range.
func (m *Manager) SQ(qid uint16) (SQ, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(qid) > m.qmax {
		return SQ{}, false
	}
	sq := m.sqs[qid]
	return sq, sq.allocated
}

// CreateCQ allocates a completion queue. Callers are expected to have
// already validated qsize vs MQES, contiguity policy, prp1 non-zero, and
// interrupt vector range; CreateCQ itself rejects qid 0, a qid above
// qmax, and a slot that is already allocated.
func (m *Manager) CreateCQ(qid uint16, qsize uint16, physContig bool, vector uint16, irqEnabled bool, prp1 uint64, pdid uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qid == 0 || int(qid) > m.qmax {
		return ErrInvalidQueueIdentifier
	}
	if m.cqs[qid].allocated {
		return ErrInvalidQueueIdentifier
	}

	m.cqs[qid] = CQ{
		ID:         qid,
		DMAAddr:    prp1,
		Size:       qsize + 1,
		PhaseTag:   1,
		PhysContig: physContig,
		Vector:     vector,
		IRQEnabled: irqEnabled,
		PDID:       pdid,
		allocated:  true,
	}
	return nil
}

// DeleteCQ frees a completion queue. Fails if any SQ still references it
// (UsageCnt != 0) per spec.md §4.2.
func (m *Manager) DeleteCQ(qid uint16) (pdid uint32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qid == 0 || int(qid) > m.qmax || !m.cqs[qid].allocated {
		return 0, ErrInvalidQueueIdentifier
	}
	if m.cqs[qid].UsageCnt != 0 {
		return 0, ErrInvalidField
	}

	pdid = m.cqs[qid].PDID
	m.cqs[qid] = CQ{}
	return pdid, nil
}

// CreateSQ allocates a submission queue bound to an existing CQ,
// incrementing that CQ's UsageCnt.
func (m *Manager) CreateSQ(qid uint16, qsize uint16, physContig bool, cqid uint16, prio uint8, prp1 uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qid == 0 || int(qid) > m.qmax {
		return ErrInvalidQueueIdentifier
	}
	if m.sqs[qid].allocated {
		return ErrInvalidQueueIdentifier
	}
	if cqid == 0 {
		return ErrCompletionQueueInvalid
	}
	if int(cqid) > m.qmax || !m.cqs[cqid].allocated {
		return ErrCompletionQueueInvalid
	}

	m.sqs[qid] = SQ{
		ID:         qid,
		CQID:       cqid,
		Size:       qsize + 1,
		Prio:       prio,
		PhysContig: physContig,
		DMAAddr:    prp1,
		CmdList:    nil,
		allocated:  true,
	}
	m.cqs[cqid].UsageCnt++
	return nil
}

// DeleteSQ frees a submission queue and decrements its CQ's UsageCnt.
// Per spec.md §4.2 / §9, a non-empty queue (CmdList not drained) is
// accepted silently — this is documented legacy behavior, not a bug.
func (m *Manager) DeleteSQ(qid uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qid == 0 || int(qid) > m.qmax || !m.sqs[qid].allocated {
		return ErrInvalidQueueIdentifier
	}

	cqid := m.sqs[qid].CQID
	if int(cqid) <= m.qmax && m.cqs[cqid].allocated {
		m.cqs[cqid].UsageCnt--
	}
	m.sqs[qid] = SQ{}
	return nil
}

// TrackCommand records an in-flight command on an SQ for later ABORT.
func (m *Manager) TrackCommand(qid uint16, cid uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(qid) > m.qmax || !m.sqs[qid].allocated {
		return
	}
	m.sqs[qid].CmdList = append(m.sqs[qid].CmdList, CmdTrackingEntry{CommandID: cid})
}

// UntrackCommand removes a command from an SQ's tracking list. It
// reports whether an entry with the given cid was found and removed, and
// the queue's paired CQ id (valid only when found is true).
func (m *Manager) UntrackCommand(qid uint16, cid uint16) (cqid uint16, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(qid) > m.qmax || !m.sqs[qid].allocated {
		return 0, false
	}
	list := m.sqs[qid].CmdList
	for i, entry := range list {
		if entry.CommandID == cid {
			m.sqs[qid].CmdList = append(list[:i], list[i+1:]...)
			return m.sqs[qid].CQID, true
		}
	}
	return 0, false
}

// PhaseTag returns the current phase tag of a CQ, used by ABORT to compose
// a synthetic completion with the correct phase bit.
func (m *Manager) PhaseTag(cqid uint16) (uint8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(cqid) > m.qmax || !m.cqs[cqid].allocated {
		return 0, false
	}
	return m.cqs[cqid].PhaseTag, true
}
