package ctrl

import (
	"time"

	"github.com/ehrlich-b/nvme-admind/internal/asyncevent"
	"github.com/ehrlich-b/nvme-admind/internal/namespace"
	"github.com/ehrlich-b/nvme-admind/internal/prp"
	"github.com/ehrlich-b/nvme-admind/internal/queue"
	"github.com/ehrlich-b/nvme-admind/internal/security"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
	"github.com/ehrlich-b/nvme-admind/internal/vendorext"
)

// drainAsyncLocked matches any pending async events against outstanding
// AERs and delivers them. Callers must already hold c.mu (either because
// they are inside ProcessAdmin, or because they re-acquired it from the
// delivery timer goroutine).
func (c *Controller) drainAsyncLocked() {
	for _, d := range c.async.Drain() {
		if c.onAsyncDelivery != nil {
			c.onAsyncDelivery(d)
		}
	}
}

// --- Queue Manager (spec.md §4.2) ---

func (c *Controller) handleCreateCQ(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	qid := uint16(sqe.CDW10 & 0xffff)
	qsize := uint16(sqe.CDW10 >> 16)
	pc := sqe.CDW11&0x1 != 0
	ien := sqe.CDW11&0x2 != 0
	vector := uint16(sqe.CDW11 >> 16)

	if sqe.NSID != 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
	}
	if sqe.PRP1 == 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	if c.cfg.CAPCQR && !pc {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	if ien && c.cfg.MSIXActive && vector >= c.cfg.MSIXEntries {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidInterruptVector)
	}
	if qsize > c.cfg.MQES {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusMaxQueueSizeExceeded)
	}

	var pdid uint32
	if c.cfg.UseAON {
		pdid = sqe.CDW14
	}

	if err := c.queues.CreateCQ(qid, qsize, pc, vector, ien, sqe.PRP1, pdid); err != nil {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidQueueIdentifier)
	}
	if pdid != 0 {
		if err := c.vendor.BumpPDUsage(pdid); err != nil {
			c.queues.DeleteCQ(qid)
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidProtectionDomainID)
		}
	}
	return ok(cqe)
}

func (c *Controller) handleDeleteCQ(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	qid := uint16(sqe.CDW10 & 0xffff)
	pdid, err := c.queues.DeleteCQ(qid)
	if err != nil {
		if err == queue.ErrInvalidField {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
		}
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidQueueIdentifier)
	}
	if pdid != 0 {
		c.vendor.DropPDUsage(pdid)
	}
	return ok(cqe)
}

func (c *Controller) handleCreateSQ(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	qid := uint16(sqe.CDW10 & 0xffff)
	qsize := uint16(sqe.CDW10 >> 16)
	pc := sqe.CDW11&0x1 != 0
	prio := uint8((sqe.CDW11 >> 1) & 0x3)
	cqid := uint16(sqe.CDW11 >> 16)

	if sqe.NSID != 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
	}
	if sqe.PRP1 == 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	if c.cfg.CAPCQR && !pc {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	if qsize > c.cfg.MQES {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusMaxQueueSizeExceeded)
	}
	if err := c.queues.CreateSQ(qid, qsize, pc, cqid, prio, sqe.PRP1); err != nil {
		if err == queue.ErrCompletionQueueInvalid {
			return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusCompletionQueueInvalid)
		}
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidQueueIdentifier)
	}
	return ok(cqe)
}

func (c *Controller) handleDeleteSQ(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	qid := uint16(sqe.CDW10 & 0xffff)
	if err := c.queues.DeleteSQ(qid); err != nil {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidQueueIdentifier)
	}
	return ok(cqe)
}

// --- Identify & Log Pages (spec.md §4.3) ---

func (c *Controller) handleIdentify(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if sqe.PRP1 == 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	cns := uint8(sqe.CDW10 & 0xff)

	switch cns {
	case uapi.CNSController:
		ic := &uapi.IdentifyController{
			VID:              c.cfg.VID,
			SSVID:            c.cfg.SSVID,
			SerialNumber:     c.cfg.SerialNumber,
			ModelNumber:      c.cfg.ModelNumber,
			FirmwareRevision: c.fr,
			NN:               c.namespaces.NN,
		}
		buf := uapi.MarshalIdentifyController(ic)
		if err := prp.WriteFrom(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
		}
		return ok(cqe)

	case uapi.CNSNamespace:
		if sqe.NSID == 0 || int(sqe.NSID) > c.cfg.MaxNamespaces {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
		}
		ns := c.namespaces.Get(sqe.NSID)
		var buf []byte
		if ns == nil {
			buf = make([]byte, uapi.IdentifyNamespaceSize)
		} else {
			buf = uapi.MarshalIdentifyNamespace(&ns.Identify)
		}
		if err := prp.WriteFrom(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
		}
		return ok(cqe)

	default:
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
}

func (c *Controller) handleGetLogPage(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	lid := uint8(sqe.CDW10 & 0xff)
	numd := (sqe.CDW10 >> 16) + 1
	transferLen := numd * 4

	switch lid {
	case uapi.LogErrorInformation:
		return ok(cqe)

	case uapi.LogSmartInformation:
		if transferLen < uapi.SmartLogSize {
			return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidLogPage)
		}
		params := namespace.SmartParams{
			TemperatureKelvin:        c.vendor.Temperature,
			TemperatureThresholdFeat: c.tempThresholdFeat,
			PercentageUsed:           c.vendor.PercentageUsed,
			SpareThreshold:           c.cfg.SpareThreshold,
			InjectedAvailableSpare:   c.vendor.InjectedAvailableSpare,
			PowerOnHours:             uint64(time.Since(c.startTime).Hours()),
		}
		log, err := c.namespaces.BuildSmartLog(sqe.NSID, params)
		if err != nil {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
		}
		buf := uapi.MarshalSmartLog(log)
		if err := prp.WriteFrom(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
		}
		return ok(cqe)

	case uapi.LogFWSlotInformation:
		if transferLen < uapi.FWSlotLogSize {
			return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidLogPage)
		}
		buf := uapi.MarshalFWSlotLog(c.fw.Log())
		if err := prp.WriteFrom(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
		}
		return ok(cqe)

	default:
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidLogPage)
	}
}

// --- Features (spec.md §4.5) ---

func (c *Controller) handleFeatures(sqe *uapi.SQE, cqe uapi.CQE, isSet bool) uapi.CQE {
	fid := uint8(sqe.CDW10 & 0xff)

	switch fid {
	case uapi.FeatNumberOfQueues:
		// SET_FEATURES(NUMBER_OF_QUEUES) never changes the configured
		// queue count; both directions echo what was fixed at startup.
		cqe.CmdSpecific = c.features[uapi.FeatNumberOfQueues]
		return ok(cqe)

	case uapi.FeatTemperatureThreshold:
		if isSet {
			newThresh := uint16(sqe.CDW11)
			c.tempThresholdFeat = newThresh
			if c.vendor.Temperature >= newThresh && !c.vendor.TempWarnIssued {
				c.vendor.TempWarnIssued = true
				c.async.Enqueue(asyncevent.Event{
					EventType: uapi.AsyncEventTypeSmart,
					EventInfo: uapi.AsyncEventInfoTempThreshold,
					LogPage:   uapi.AsyncEventLogPageSmart,
				})
				c.obs.ObserveAsyncEventEnqueued()
				c.drainAsyncLocked()
			}
		}
		cqe.CmdSpecific = uint32(c.tempThresholdFeat)
		return ok(cqe)

	case uapi.FeatLBARangeType:
		ns := c.namespaces.Get(sqe.NSID)
		if ns == nil {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
		}
		if sqe.PRP1 == 0 {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
		}
		if isSet {
			buf := make([]byte, 64)
			if err := prp.ReadInto(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
				return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
			}
			rt, err := uapi.UnmarshalLBARangeType(buf)
			if err != nil {
				return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
			}
			ns.RangeType = *rt
		} else {
			buf := uapi.MarshalLBARangeType(&ns.RangeType)
			if err := prp.WriteFrom(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
				return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
			}
		}
		return ok(cqe)

	case uapi.FeatArbitration, uapi.FeatPowerManagement, uapi.FeatErrorRecovery,
		uapi.FeatVolatileWriteCache, uapi.FeatInterruptCoalescing,
		uapi.FeatInterruptVectorConfig, uapi.FeatWriteAtomicity,
		uapi.FeatAsyncEventConfig, uapi.FeatSoftwareProgressMarker,
		uapi.FeatVendorStripingConfig:
		if isSet {
			c.features[fid] = sqe.CDW11
		}
		cqe.CmdSpecific = c.features[fid]
		return ok(cqe)

	default:
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
}

// --- Async Event Request & Abort (spec.md §4.6) ---

func (c *Controller) handleAsyncEventReq(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	accepted := c.async.Request(sqe.CID, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.drainAsyncLocked()
	})
	if !accepted {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusAsyncEventLimitExceeded)
	}
	c.obs.ObserveAsyncEventEnqueued()
	return ok(cqe)
}

func (c *Controller) handleAbort(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	sqid := uint16(sqe.CDW10 & 0xffff)
	cid := uint16(sqe.CDW10 >> 16)

	cqid, found := c.queues.UntrackCommand(sqid, cid)
	if found {
		phase, _ := c.queues.PhaseTag(cqid)
		synthetic := uapi.CQE{CommandID: cid, SQID: sqid}
		synthetic.SetStatus(uapi.SCTGeneric, uapi.StatusAbortReq)
		synthetic.Status |= uapi.PhaseBit(phase)
		if c.onAbortCompletion != nil {
			c.onAbortCompletion(cqid, synthetic)
		}
		cqe.CmdSpecific = 0
	} else {
		cqe.CmdSpecific = 1
	}
	return ok(cqe)
}

// --- Firmware & Format (spec.md §4.6) ---

func (c *Controller) handleDownloadFW(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	numDwords := sqe.CDW10 + 1
	offsetDwords := sqe.CDW11
	if err := c.fw.Download(c.mem, sqe.PRP1, sqe.PRP2, numDwords, offsetDwords); err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
	}
	return ok(cqe)
}

func (c *Controller) handleActivateFW(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	slot := uint8(sqe.CDW10 & 0x7)
	chosen, hash, err := c.fw.Activate(slot)
	if err != nil {
		return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidFirmwareSlot)
	}
	copy(c.fr[:], hash)
	cqe.CmdSpecific = uint32(chosen)
	return ok(cqe)
}

func (c *Controller) handleFormatNVM(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if err := c.namespaces.Format(sqe.NSID, sqe.CDW10); err != nil {
		if err == namespace.ErrInvalidFormat {
			return fail(cqe, uapi.SCTCommandSpecific, uapi.StatusInvalidFormat)
		}
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
	}
	return ok(cqe)
}

// --- Security (spec.md §4.4) ---

func (c *Controller) handleSecuritySend(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	secp := uint8(sqe.CDW10 & 0xff)
	sps := uint16((sqe.CDW10 >> 8) & 0xffff)
	transferLen := sqe.CDW11

	before := c.sec.State()
	okRes, status := c.sec.Send(c.mem, secp, sps, sqe.PRP1, sqe.PRP2, transferLen, c.namespaces.ErasedNamespaces())
	after := c.sec.State()
	if before != after {
		c.obs.ObserveSecurityTransition(uint8(before), uint8(after))
	}
	if !okRes {
		return fail(cqe, uapi.SCTGeneric, status)
	}
	return ok(cqe)
}

func (c *Controller) handleSecurityRecv(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	secp := uint8(sqe.CDW10 & 0xff)
	sps := uint16((sqe.CDW10 >> 8) & 0xffff)

	okRes, status := security.Recv(c.mem, secp, sps, sqe.PRP1, sqe.PRP2)
	if !okRes {
		return fail(cqe, uapi.SCTGeneric, status)
	}
	return ok(cqe)
}

// --- Vendor AON extension (spec.md §4.6) ---

func (c *Controller) handleCreatePD(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	pdid := sqe.CDW10 & 0xffff
	if err := c.vendor.CreatePD(pdid); err != nil {
		return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidProtectionDomainID)
	}
	return ok(cqe)
}

func (c *Controller) handleDeletePD(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	pdid := sqe.CDW10 & 0xffff
	if err := c.vendor.DeletePD(pdid); err != nil {
		if err == vendorext.ErrInField {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
		}
		return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidProtectionDomainID)
	}
	return ok(cqe)
}

func (c *Controller) handleCreateSTag(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	pdid := sqe.CDW10 & 0xffff
	stag := sqe.CDW10 >> 16
	smps := uint8(sqe.CDW11 & 0xff)
	rstag := sqe.CDW11&0x80000000 != 0
	nmp := sqe.CDW12

	if err := c.vendor.CreateSTag(pdid, stag, smps, sqe.PRP1, nmp, rstag); err != nil {
		if err == vendorext.ErrInvalidProtectionDomain {
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidProtectionDomainID)
		}
		if err == vendorext.ErrInField {
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
		}
		return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidSTag)
	}
	return ok(cqe)
}

func (c *Controller) handleDeleteSTag(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	pdid := sqe.CDW10 & 0xffff
	stag := sqe.CDW10 >> 16
	if err := c.vendor.DeleteSTag(pdid, stag); err != nil {
		if err == vendorext.ErrInvalidProtectionDomain {
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidProtectionDomainID)
		}
		return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidSTag)
	}
	return ok(cqe)
}

func (c *Controller) handleCreateNSTag(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	pdid := sqe.CDW10 & 0xffff
	ntag := sqe.CDW10 >> 16
	at := sqe.CDW11
	nsExists := func(nsid uint32) bool { return c.namespaces.Get(nsid) != nil }

	if err := c.vendor.CreateNSTag(sqe.NSID, at, ntag, pdid, nsExists); err != nil {
		switch err {
		case vendorext.ErrInvalidProtectionDomain:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidProtectionDomainID)
		case vendorext.ErrInvalidNamespaceTag:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidNamespaceTag)
		default:
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
		}
	}
	return ok(cqe)
}

func (c *Controller) handleDeleteNSTag(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	ntag := sqe.CDW10 & 0xffff
	if err := c.vendor.DeleteNSTag(ntag); err != nil {
		return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidNamespaceTag)
	}
	return ok(cqe)
}

func (c *Controller) handleInjectError(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	kind := uint8(sqe.CDW10 & 0x7)
	res, err := c.vendor.InjectError(kind, sqe.CDW10, sqe.CDW11, sqe.CDW12, c.tempThresholdFeat, c.cfg.DefaultTemperatureKelvin)
	if err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	if res.TemperatureThresholdCrossed {
		c.async.Enqueue(asyncevent.Event{
			EventType: uapi.AsyncEventTypeSmart,
			EventInfo: uapi.AsyncEventInfoTempThreshold,
			LogPage:   uapi.AsyncEventLogPageSmart,
		})
		c.obs.ObserveAsyncEventEnqueued()
		c.drainAsyncLocked()
	}
	return ok(cqe)
}

// --- Namespace lifecycle (spec.md §4.6, vendor extension) ---

func (c *Controller) handleCreateNS(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	if sqe.PRP1 == 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	buf := make([]byte, uapi.IdentifyNamespaceSize)
	if err := prp.ReadInto(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
	}
	ns, err := uapi.UnmarshalIdentifyNamespace(buf)
	if err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}

	defaults := namespace.ControllerDefaults{
		NLBAF: c.cfg.NLBAF,
		LBAF:  c.cfg.LBAF,
		MC:    c.cfg.NamespaceMC,
		DPC:   c.cfg.NamespaceDPC,
		MNS:   c.cfg.MinNamespaceSizeLog2,
	}

	idx := ns.FLBAS & 0xf
	blockSize := uint64(1)
	if int(idx) < len(c.cfg.LBAF) {
		blockSize = uint64(1) << c.cfg.LBAF[idx].LBADataSize
	}
	sizeBytes := int64(ns.NSZE * blockSize)

	be, err := c.nsBackendFactory(sqe.NSID, sizeBytes)
	if err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInternal)
	}
	if err := c.namespaces.Create(sqe.NSID, *ns, defaults, be); err != nil {
		be.Close()
		switch err {
		case namespace.ErrInvalidNamespaceSize:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidNamespaceSize)
		case namespace.ErrInvalidNamespaceCap:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidNamespaceCapacity)
		case namespace.ErrInvalidE2EProtection:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidE2EDataProtectionConfig)
		default:
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
		}
	}
	return ok(cqe)
}

func (c *Controller) handleDeleteNS(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	if err := c.namespaces.Delete(sqe.NSID); err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
	}
	return ok(cqe)
}

func (c *Controller) handleModifyNS(sqe *uapi.SQE, cqe uapi.CQE) uapi.CQE {
	if !c.cfg.UseAON {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidOpcode)
	}
	if sqe.PRP1 == 0 {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	buf := make([]byte, uapi.IdentifyNamespaceSize)
	if err := prp.ReadInto(c.mem, sqe.PRP1, sqe.PRP2, buf); err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusDataXferError)
	}
	newFields, err := uapi.UnmarshalIdentifyNamespace(buf)
	if err != nil {
		return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidField)
	}
	if err := c.namespaces.Modify(sqe.NSID, *newFields); err != nil {
		switch err {
		case namespace.ErrInvalidNamespaceSize:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidNamespaceSize)
		case namespace.ErrInvalidNamespaceCap:
			return fail(cqe, uapi.SCTVendorSpecific, uapi.StatusInvalidNamespaceCapacity)
		default:
			return fail(cqe, uapi.SCTGeneric, uapi.StatusInvalidNamespace)
		}
	}
	return ok(cqe)
}
