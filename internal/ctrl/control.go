// Package ctrl implements the admin command dispatcher: process_admin
// decodes an SQE, routes it to the owning component (queue manager,
// namespace table, security FSM, firmware state, async-event state,
// vendor-extension tables), and composes the resulting CQE. Grounded on
// original_source/hw/nvme_adm.c's adm_cmd_* dispatch table and the
// teacher's internal/ctrl Controller-struct-with-logger pattern.
package ctrl

import (
	"sync"
	"time"

	"github.com/ehrlich-b/nvme-admind/internal/asyncevent"
	"github.com/ehrlich-b/nvme-admind/internal/firmware"
	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
	"github.com/ehrlich-b/nvme-admind/internal/logging"
	"github.com/ehrlich-b/nvme-admind/internal/namespace"
	"github.com/ehrlich-b/nvme-admind/internal/queue"
	"github.com/ehrlich-b/nvme-admind/internal/security"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
	"github.com/ehrlich-b/nvme-admind/internal/vendorext"
)

// NamespaceBackendFactory creates the storage backend for a newly created
// namespace, sized in bytes. Passed to New so tests can supply an
// in-memory stand-in instead of touching the filesystem.
type NamespaceBackendFactory func(nsid uint32, sizeBytes int64) (interfaces.DiskBackend, error)

// AsyncDelivery is what the caller receives when a previously-accepted
// ASYNC_EVENT_REQUEST is satisfied: the cid to complete and the event
// payload to stamp into that CQE's command-specific field. Posting the
// resulting CQE onto the admin CQ is the front end's job, per spec.md's
// "Admin CQ" being out of this component's scope.
type AsyncDelivery = asyncevent.Delivered

// Controller owns every piece of state one emulated NVMe controller's
// admin path mutates. It is not safe to share across controllers; each
// emulated device gets its own.
type Controller struct {
	mu sync.Mutex

	cfg    Config
	logger interfaces.Logger
	obs    interfaces.Observer
	mem    interfaces.HostMemory

	queues     *queue.Manager
	sec        *security.FSM
	namespaces *namespace.Table
	fw         *firmware.State
	async      *asyncevent.State
	vendor     *vendorext.Tables

	features          map[uint8]uint32
	tempThresholdFeat uint16
	fr                [8]byte

	startTime time.Time

	nsBackendFactory   NamespaceBackendFactory
	onAsyncDelivery    func(AsyncDelivery)
	onAbortCompletion  func(cqid uint16, synthetic uapi.CQE)
}

// New creates a controller with the given capability configuration,
// host-memory arena, pending-firmware-image backing store, namespace
// storage factory, and metrics observer. onAsyncDelivery is invoked
// (from the delivery timer goroutine, or synchronously from ProcessAdmin
// when SET_FEATURES or INJECT_ERROR raises an event) whenever a pending
// event is matched with an outstanding AER; nil is accepted when the
// caller does not need delivery
// notifications. onAbortCompletion is invoked synchronously from
// ProcessAdmin when ABORT successfully cancels a tracked command, to post
// the synthetic CQE onto the target command's own completion queue; nil
// is accepted when the caller does not model a separate admin CQ.
func New(cfg Config, mem interfaces.HostMemory, fwImage interfaces.DiskBackend, nsBackendFactory NamespaceBackendFactory, obs interfaces.Observer, logger interfaces.Logger, onAsyncDelivery func(AsyncDelivery), onAbortCompletion func(uint16, uapi.CQE)) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	if obs == nil {
		obs = noopObserver{}
	}
	if nsBackendFactory == nil {
		nsBackendFactory = DefaultNamespaceBackendFactory(cfg.NamespaceStorageDir)
	}
	c := &Controller{
		cfg:               cfg,
		logger:            logger,
		obs:               obs,
		mem:               mem,
		queues:            queue.NewManager(cfg.QMax),
		sec:               security.New(),
		namespaces:        namespace.NewTable(cfg.MaxNamespaces, cfg.TotalNamespaceSpace),
		fw:                firmware.NewState(fwImage),
		async:             asyncevent.New(cfg.AERL),
		vendor:            vendorext.NewTables(cfg.MNPD, cfg.MNHR, cfg.MNON, cfg.DefaultTemperatureKelvin, cfg.SMPSMin, cfg.SMPSMax),
		features:          make(map[uint8]uint32),
		tempThresholdFeat: cfg.TemperatureThresholdFeat,
		startTime:         time.Now(),
		nsBackendFactory:  nsBackendFactory,
		onAsyncDelivery:   onAsyncDelivery,
		onAbortCompletion: onAbortCompletion,
	}
	c.features[uapi.FeatNumberOfQueues] = uint32(cfg.QMax) | uint32(cfg.QMax)<<16
	return c
}

type noopObserver struct{}

func (noopObserver) ObserveCommand(uint8, uint16, uint64)    {}
func (noopObserver) ObserveSecurityTransition(uint8, uint8)  {}
func (noopObserver) ObserveAsyncEventEnqueued()              {}
func (noopObserver) ObserveAsyncEventDelivered(uint64)       {}

var _ interfaces.Observer = noopObserver{}

// newCQE returns a zeroed CQE stamped with the SQE's command id, the
// convention every handler below starts from.
func newCQE(sqe *uapi.SQE) uapi.CQE {
	return uapi.CQE{CommandID: sqe.CID}
}

func fail(cqe uapi.CQE, sct, sc uint8) uapi.CQE {
	cqe.SetStatus(sct, sc)
	return cqe
}

func ok(cqe uapi.CQE) uapi.CQE {
	cqe.SetStatus(uapi.SCTGeneric, uapi.StatusSuccess)
	return cqe
}

// locked reports whether the controller's security state currently blocks
// ops that require s ∈ {A, B, H}.
func (c *Controller) locked() bool {
	return !c.sec.Unlocked()
}

// ProcessAdmin decodes and dispatches one admin submission-queue entry,
// returning the completion this command produces. The admin processor is
// modeled as single-threaded cooperative (spec.md §5): ProcessAdmin may
// be called concurrently with itself from multiple goroutines only
// because the async-event timer also reaches into controller state, so a
// single mutex serializes every external entry point.
func (c *Controller) ProcessAdmin(sqe *uapi.SQE) uapi.CQE {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	cqe := newCQE(sqe)

	if !knownOpcode(sqe.Opcode) {
		cqe = fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
		c.obs.ObserveCommand(sqe.Opcode, cqe.Status, uint64(time.Since(start).Nanoseconds()))
		return cqe
	}
	if requiresUnlocked(sqe.Opcode) && c.locked() {
		cqe = fail(cqe, uapi.SCTGeneric, uapi.StatusCmdSeqError)
		c.obs.ObserveCommand(sqe.Opcode, cqe.Status, uint64(time.Since(start).Nanoseconds()))
		return cqe
	}

	switch sqe.Opcode {
	case uapi.OpDeleteSQ:
		cqe = c.handleDeleteSQ(sqe, cqe)
	case uapi.OpCreateSQ:
		cqe = c.handleCreateSQ(sqe, cqe)
	case uapi.OpGetLogPage:
		cqe = c.handleGetLogPage(sqe, cqe)
	case uapi.OpDeleteCQ:
		cqe = c.handleDeleteCQ(sqe, cqe)
	case uapi.OpCreateCQ:
		cqe = c.handleCreateCQ(sqe, cqe)
	case uapi.OpIdentify:
		cqe = c.handleIdentify(sqe, cqe)
	case uapi.OpAbort:
		cqe = c.handleAbort(sqe, cqe)
	case uapi.OpSetFeatures:
		cqe = c.handleFeatures(sqe, cqe, true)
	case uapi.OpGetFeatures:
		cqe = c.handleFeatures(sqe, cqe, false)
	case uapi.OpAsyncEventReq:
		cqe = c.handleAsyncEventReq(sqe, cqe)
	case uapi.OpActivateFW:
		cqe = c.handleActivateFW(sqe, cqe)
	case uapi.OpDownloadFW:
		cqe = c.handleDownloadFW(sqe, cqe)
	case uapi.OpSecuritySend:
		cqe = c.handleSecuritySend(sqe, cqe)
	case uapi.OpSecurityRecv:
		cqe = c.handleSecurityRecv(sqe, cqe)
	case uapi.OpFormatNVM:
		cqe = c.handleFormatNVM(sqe, cqe)
	case uapi.OpCreatePD:
		cqe = c.handleCreatePD(sqe, cqe)
	case uapi.OpDeletePD:
		cqe = c.handleDeletePD(sqe, cqe)
	case uapi.OpCreateSTag:
		cqe = c.handleCreateSTag(sqe, cqe)
	case uapi.OpDeleteSTag:
		cqe = c.handleDeleteSTag(sqe, cqe)
	case uapi.OpCreateNSTag:
		cqe = c.handleCreateNSTag(sqe, cqe)
	case uapi.OpDeleteNSTag:
		cqe = c.handleDeleteNSTag(sqe, cqe)
	case uapi.OpCreateNS:
		cqe = c.handleCreateNS(sqe, cqe)
	case uapi.OpDeleteNS:
		cqe = c.handleDeleteNS(sqe, cqe)
	case uapi.OpModifyNS:
		cqe = c.handleModifyNS(sqe, cqe)
	case uapi.OpInjectError:
		cqe = c.handleInjectError(sqe, cqe)
	default:
		cqe = fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}

	c.obs.ObserveCommand(sqe.Opcode, cqe.Status, uint64(time.Since(start).Nanoseconds()))
	c.logger.Debug("processed admin command", "opcode", sqe.Opcode, "cid", sqe.CID, "sc", cqe.SC(), "sct", cqe.SCT())
	return cqe
}
