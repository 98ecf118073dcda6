package nvmeadmind

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// CommandCategory groups related admin opcodes for metrics reporting.
type CommandCategory int

const (
	CategoryUnknown CommandCategory = iota
	CategoryQueue
	CategoryIdentify
	CategoryLogPage
	CategoryFeatures
	CategoryAsyncEvent
	CategoryAbort
	CategoryFirmware
	CategorySecurity
	CategoryNamespace
	CategoryVendor
	numCategories
)

// classify maps an admin opcode to its metrics category. Grounded on the
// same opcode grouping ProcessAdmin's dispatch switch uses internally.
func classify(opcode uint8) CommandCategory {
	switch opcode {
	case uapi.OpDeleteSQ, uapi.OpCreateSQ, uapi.OpDeleteCQ, uapi.OpCreateCQ:
		return CategoryQueue
	case uapi.OpIdentify:
		return CategoryIdentify
	case uapi.OpGetLogPage:
		return CategoryLogPage
	case uapi.OpSetFeatures, uapi.OpGetFeatures:
		return CategoryFeatures
	case uapi.OpAsyncEventReq:
		return CategoryAsyncEvent
	case uapi.OpAbort:
		return CategoryAbort
	case uapi.OpActivateFW, uapi.OpDownloadFW:
		return CategoryFirmware
	case uapi.OpSecuritySend, uapi.OpSecurityRecv:
		return CategorySecurity
	case uapi.OpCreateNS, uapi.OpDeleteNS, uapi.OpModifyNS, uapi.OpFormatNVM:
		return CategoryNamespace
	case uapi.OpCreatePD, uapi.OpDeletePD, uapi.OpCreateSTag, uapi.OpDeleteSTag,
		uapi.OpCreateNSTag, uapi.OpDeleteNSTag, uapi.OpInjectError:
		return CategoryVendor
	default:
		return CategoryUnknown
	}
}

// Metrics tracks per-category admin command counts, latency, and the
// async-event/security-transition activity unique to this controller's
// deferred-completion and lockout paths.
type Metrics struct {
	CommandOps    [numCategories]atomic.Uint64
	CommandErrors [numCategories]atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	SecurityTransitions atomic.Uint64

	AsyncEventsEnqueued      atomic.Uint64
	AsyncEventsDelivered     atomic.Uint64
	AsyncEventDeliveryNs     atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new, running metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordCommand records one admin command's completion: opcode
// classifies the category, status is the raw CQE status word (success
// iff every bit but the phase bit 0 is clear), latencyNs is the
// processing time.
func (m *Metrics) RecordCommand(opcode uint8, status uint16, latencyNs uint64) {
	cat := classify(opcode)
	m.CommandOps[cat].Add(1)
	if status&0xfffe != 0 {
		m.CommandErrors[cat].Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordSecurityTransition records one ATA security FSM state change.
func (m *Metrics) RecordSecurityTransition(from, to uint8) {
	m.SecurityTransitions.Add(1)
}

// RecordAsyncEventEnqueued records a vendor/SMART event being queued
// for delivery on the next outstanding ASYNC_EVENT_REQUEST.
func (m *Metrics) RecordAsyncEventEnqueued() {
	m.AsyncEventsEnqueued.Add(1)
}

// RecordAsyncEventDelivered records an event actually handed back to an
// outstanding ASYNC_EVENT_REQUEST, latencyNs since it was enqueued.
func (m *Metrics) RecordAsyncEventDelivered(latencyNs uint64) {
	m.AsyncEventsDelivered.Add(1)
	m.AsyncEventDeliveryNs.Add(latencyNs)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the controller as stopped for uptime accounting.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics for
// reporting.
type MetricsSnapshot struct {
	CommandOps    [numCategories]uint64
	CommandErrors [numCategories]uint64
	TotalOps      uint64
	TotalErrors   uint64

	SecurityTransitions uint64

	AsyncEventsEnqueued  uint64
	AsyncEventsDelivered uint64
	AvgAsyncDeliveryNs   uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	ErrorRate float64
}

// Snapshot creates a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	for i := 0; i < int(numCategories); i++ {
		snap.CommandOps[i] = m.CommandOps[i].Load()
		snap.CommandErrors[i] = m.CommandErrors[i].Load()
		snap.TotalOps += snap.CommandOps[i]
		snap.TotalErrors += snap.CommandErrors[i]
	}

	snap.SecurityTransitions = m.SecurityTransitions.Load()
	snap.AsyncEventsEnqueued = m.AsyncEventsEnqueued.Load()
	snap.AsyncEventsDelivered = m.AsyncEventsDelivered.Load()
	if snap.AsyncEventsDelivered > 0 {
		snap.AvgAsyncDeliveryNs = m.AsyncEventDeliveryNs.Load() / snap.AsyncEventsDelivered
	}

	opCount := m.OpCount.Load()
	totalLatencyNs := m.TotalLatencyNs.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(snap.TotalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) by linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters, useful for testing.
func (m *Metrics) Reset() {
	for i := 0; i < int(numCategories); i++ {
		m.CommandOps[i].Store(0)
		m.CommandErrors[i].Store(0)
	}
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.SecurityTransitions.Store(0)
	m.AsyncEventsEnqueued.Store(0)
	m.AsyncEventsDelivered.Store(0)
	m.AsyncEventDeliveryNs.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsObserver adapts Metrics to interfaces.Observer so it can be
// passed directly as the observer argument to ctrl.New.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCommand(opcode uint8, status uint16, latencyNs uint64) {
	o.metrics.RecordCommand(opcode, status, latencyNs)
}

func (o *MetricsObserver) ObserveSecurityTransition(from, to uint8) {
	o.metrics.RecordSecurityTransition(from, to)
}

func (o *MetricsObserver) ObserveAsyncEventEnqueued() {
	o.metrics.RecordAsyncEventEnqueued()
}

func (o *MetricsObserver) ObserveAsyncEventDelivered(latencyNs uint64) {
	o.metrics.RecordAsyncEventDelivered(latencyNs)
}

var _ interfaces.Observer = (*MetricsObserver)(nil)
