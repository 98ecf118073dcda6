// Package asyncevent implements deferred async-event delivery: a FIFO of
// pending events, a LIFO stack of outstanding ASYNC_EVENT_REQUEST command
// ids, and a one-shot delivery timer per request. Grounded on
// original_source/hw/nvme_adm.c's async_process_cb/adm_cmd_async_ev_req.
package asyncevent

import (
	"sync"
	"time"

	"github.com/ehrlich-b/nvme-admind/internal/constants"
)

// Event is a pending notification awaiting an outstanding AER to deliver
// it through: event_type/event_info/log_page map directly onto the CQE's
// command-specific dword on delivery.
type Event struct {
	EventType uint8
	EventInfo uint8
	LogPage   uint8
}

// Delivered pairs a drained Event with the outstanding command id it was
// delivered against.
type Delivered struct {
	CID   uint16
	Event Event
}

// State owns the pending-event FIFO and the outstanding-AER cid stack for
// one controller.
type State struct {
	mu      sync.Mutex
	pending []Event
	cids    []uint16 // stack: push/pop from the back, mirroring the
	                  // original's post-decrement array indexing (last
	                  // cid registered is the first delivered)
	aerl int
}

// New creates async-event state with the given outstanding-request limit
// (AERL).
func New(aerl int) *State {
	return &State{aerl: aerl}
}

// Enqueue appends a pending event to the FIFO.
func (s *State) Enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, ev)
}

// PendingCount reports how many events are waiting for delivery.
func (s *State) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// OutstandingCount reports how many AERs are currently outstanding.
func (s *State) OutstandingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cids)
}

// Request registers cid as an outstanding ASYNC_EVENT_REQUEST and arms a
// one-shot timer that invokes onReady after AsyncEventDeliveryDelay,
// mirroring the original's qemu_mod_timer(..., +10000ns). The caller is
// expected to call Drain from onReady (ctrl's onReady takes the
// controller mutex first, so delivery never races the dispatcher).
func (s *State) Request(cid uint16, onReady func()) (ok bool) {
	s.mu.Lock()
	if len(s.cids) > s.aerl {
		s.mu.Unlock()
		return false
	}
	s.cids = append(s.cids, cid)
	s.mu.Unlock()

	time.AfterFunc(constants.AsyncEventDeliveryDelay, onReady)
	return true
}

// Drain matches pending events against outstanding cids pairwise,
// FIFO-on-event and LIFO-on-cid, until either empties, exactly as
// async_process_cb's while loop does.
func (s *State) Drain() []Delivered {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Delivered
	for len(s.pending) > 0 && len(s.cids) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]

		cid := s.cids[len(s.cids)-1]
		s.cids = s.cids[:len(s.cids)-1]

		out = append(out, Delivered{CID: cid, Event: ev})
	}
	return out
}
