// Package nvmeadmind implements an emulated NVMe controller's admin
// command path: queue lifecycle, identify/log pages, features, firmware
// download/activate, ATA-style security, namespace lifecycle, and the
// vendor AON protection-domain/storage-tag extension.
package nvmeadmind

import (
	"time"

	"github.com/ehrlich-b/nvme-admind/backend"
	"github.com/ehrlich-b/nvme-admind/internal/ctrl"
	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
	"github.com/ehrlich-b/nvme-admind/internal/logging"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

// Config is the public capability configuration for a Processor. It
// mirrors ctrl.Config; New fills in a default when the caller doesn't
// need to override anything.
type Config = ctrl.Config

// DefaultConfig returns the capability set a Processor uses when none is
// supplied to New.
func DefaultConfig() Config {
	return ctrl.DefaultConfig()
}

// AsyncDelivery describes one deferred async event handed back to a
// caller's outstanding ASYNC_EVENT_REQUEST.
type AsyncDelivery = ctrl.AsyncDelivery

// Processor is the public entry point: it owns one emulated controller's
// admin-command state and serializes every ProcessAdmin call against it.
type Processor struct {
	ctrl    *ctrl.Controller
	metrics *Metrics
}

// defaultHostMemorySize is the guest-memory arena size New allocates
// when the caller doesn't supply its own HostMemory: enough for several
// PRP-chained multi-page transfers (firmware download chunks, SMART/FW
// slot logs) without the caller needing to reason about it.
const defaultHostMemorySize = 16 << 20

// Options configures a Processor beyond its capability Config.
type Options struct {
	// Config is the controller's capability set; DefaultConfig() is
	// used if left zero-valued (QMax == 0).
	Config Config

	// HostMemory backs every PRP-addressed read/write admin commands
	// perform. A backend.NewHostMemory arena is created if nil.
	HostMemory interfaces.HostMemory

	// FirmwareImage backs the firmware download/activate log. A
	// zero-length in-memory backend is created if nil.
	FirmwareImage interfaces.DiskBackend

	// NamespaceStorageDir overrides where CREATE_NAMESPACE provisions
	// per-namespace backing files; see ctrl.DefaultNamespaceBackendFactory.
	NamespaceStorageDir string

	// Logger receives admin-path debug/info/warn/error output. The
	// package default logger is used if nil.
	Logger interfaces.Logger

	// OnAsyncDelivery is invoked whenever a pending event is matched
	// against an outstanding ASYNC_EVENT_REQUEST.
	OnAsyncDelivery func(AsyncDelivery)

	// OnAbortCompletion is invoked when ABORT successfully cancels a
	// tracked command, carrying the synthetic CQE to post onto that
	// command's own completion queue.
	OnAbortCompletion func(cqid uint16, synthetic uapi.CQE)
}

// New creates a Processor. Metrics are always collected and available via
// Metrics(); pass opts.Logger/opts.HostMemory etc. to wire in real
// backing stores instead of the in-memory defaults.
func New(opts Options) *Processor {
	cfg := opts.Config
	if cfg.QMax == 0 {
		cfg = DefaultConfig()
	}
	if opts.NamespaceStorageDir != "" {
		cfg.NamespaceStorageDir = opts.NamespaceStorageDir
	}

	mem := opts.HostMemory
	if mem == nil {
		mem = backend.NewHostMemory(defaultHostMemorySize)
	}
	fwImage := opts.FirmwareImage
	if fwImage == nil {
		fwImage = backend.NewMemoryDiskBackend(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	metrics := NewMetrics()
	obs := NewMetricsObserver(metrics)

	c := ctrl.New(cfg, mem, fwImage, nil, obs, logger, opts.OnAsyncDelivery, opts.OnAbortCompletion)
	return &Processor{ctrl: c, metrics: metrics}
}

// ProcessAdmin decodes, validates, and dispatches one admin command,
// returning its completion. Safe for concurrent use; commands are
// serialized internally.
func (p *Processor) ProcessAdmin(sqe *uapi.SQE) uapi.CQE {
	return p.ctrl.ProcessAdmin(sqe)
}

// Metrics returns the processor's metrics, for reporting or health
// checks.
func (p *Processor) Metrics() *Metrics {
	return p.metrics
}

// Uptime reports how long this Processor's controller has been running.
func (p *Processor) Uptime() time.Duration {
	return time.Duration(p.metrics.Snapshot().UptimeNs)
}
