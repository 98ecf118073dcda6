// Package constants holds the numeric limits and defaults shared across the
// admin command processor.
package constants

import "time"

// Controller capability limits.
const (
	// QMAX is the maximum number of I/O queue pairs (excluding the admin
	// queue) a controller will allocate.
	QMAX = 64

	// MQES is the maximum queue entries supported per queue, minus one
	// (0-based, matches the CAP.MQES field).
	MQES = 4095

	// PageSize is the host memory page size used for PRP addressing.
	PageSize = 4096

	// PRPEntriesPerPage is the number of 8-byte PRP entries in a single
	// PRP list page, with the last entry reserved for chaining.
	PRPEntriesPerPage = PageSize / 8

	// PRPListChainIndex is the index within a PRP list page at which a
	// pointer to the next PRP list page is stored instead of a data
	// pointer.
	PRPListChainIndex = PRPEntriesPerPage - 1

	// AERL is the Asynchronous Event Request Limit, 0-based: the
	// controller accepts up to AERL+1 outstanding ASYNC_EVENT_REQUEST
	// commands and rejects further ones.
	AERL = 4

	// MaxNamespaces (MNON in the original) bounds the number of namespaces
	// a controller will track.
	MaxNamespaces = 16

	// MaxFirmwareSlots bounds the firmware slot table (slots 1..7).
	MaxFirmwareSlots = 7

	// MaxPasswordRetry is the number of consecutive failed ATA security
	// unlock attempts allowed before the controller locks out further
	// attempts until power cycle.
	MaxPasswordRetry = 3

	// SpareThreshold is the default available-spare percentage at which
	// a SMART critical warning is raised.
	SpareThreshold = 10

	// DefaultCompositeTemperatureKelvin is the default reported composite
	// temperature in the SMART / Health Information log, in Kelvin.
	DefaultCompositeTemperatureKelvin = 310
)

// Timing constants for async event and security lockout behavior.
//
// These mirror the controller's single-threaded event loop: an async event
// request left outstanding fires its companion timer once, at most AERL+1
// of them outstanding at a time per the original device model.
const (
	// AsyncEventDeliveryDelay is the delay between an event becoming
	// pending and its delivery to an outstanding ASYNC_EVENT_REQUEST,
	// modeling the original's ~10us one-shot timer.
	AsyncEventDeliveryDelay = 10 * time.Microsecond

	// SecurityLockoutDuration is zero because the lockout is not timed:
	// after MaxPasswordRetry consecutive failed UNLOCKs the FSM stays in
	// state G, where UNLOCK fails with CMD_SEQ_ERROR, until the state is
	// reset externally.
	SecurityLockoutDuration = 0
)

// Password length for ATA SECURITY SET/UNLOCK/DISABLE PASSWORD payloads.
const ATAPasswordLength = 32

// Default namespace / device geometry.
const (
	DefaultLogicalBlockSize = 512
	DefaultNamespaceSectors = 1 << 21 // 1GiB at 512B LBA
)
