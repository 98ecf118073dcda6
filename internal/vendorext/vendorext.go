// Package vendorext implements the AON vendor extension's object
// lifecycle: protection domains (PD), storage tags (STag), namespace tags
// (NSTag), and error injection. Grounded on
// original_source/hw/nvme_adm.c's aon_adm_cmd_create_pd/delete_pd/
// create_stag/delete_stag/create_nstag/delete_nstag/inject_err.
package vendorext

import (
	"errors"

	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

var (
	ErrInvalidProtectionDomain = errors.New("invalid protection domain identifier")
	ErrInvalidSTag             = errors.New("invalid stag")
	ErrInvalidNamespaceTag     = errors.New("invalid namespace tag")
	ErrInField                 = errors.New("invalid field")
)

// ProtectionDomain tracks how many STags/NSTags reference it; it cannot
// be deleted while UsageCount != 0.
type ProtectionDomain struct {
	UsageCount int
}

// STag is a storage tag bound to a protection domain's host memory
// region.
type STag struct {
	PDID uint32
	SMPS uint64 // stripe size in bytes: 1 << (smps + 12)
	PRP  uint64
	NMP  uint32
}

// NSTag binds a namespace to a protection domain with an access type.
type NSTag struct {
	PDID uint32
	AT   uint32
	NSID uint32
}

// MediaError is one entry in the injected media-error list (capped at 8
// entries, matching the original).
type MediaError struct {
	SLBA    uint64
	ELBA    uint64
	IOError uint8
}

const maxMediaErrors = 8

// Tables owns every PD/STag/NSTag slot plus the injected-error state used
// by INJECT_ERROR and surfaced through the SMART log.
type Tables struct {
	pds    []*ProtectionDomain // 1-indexed, index 0 unused
	stags  []*STag
	nstags []*NSTag

	smpsMin uint8
	smpsMax uint8

	Temperature            uint16
	PercentageUsed         uint8
	InjectedAvailableSpare uint8
	MediaErrors            []MediaError
	TimeoutError           *MediaError
	TempWarnIssued         bool
}

// NewTables creates vendor-extension tables sized for mnpd protection
// domains, mnhr storage tags, and mnon namespace tags. smpsMin/smpsMax
// bound the stripe-size exponent CreateSTag will accept.
func NewTables(mnpd, mnhr, mnon int, defaultTemperature uint16, smpsMin, smpsMax uint8) *Tables {
	return &Tables{
		pds:         make([]*ProtectionDomain, mnpd+1),
		stags:       make([]*STag, mnhr+1),
		nstags:      make([]*NSTag, mnon+1),
		Temperature: defaultTemperature,
		smpsMin:     smpsMin,
		smpsMax:     smpsMax,
	}
}

func (t *Tables) pdInRange(pdid uint32) bool {
	return pdid != 0 && int(pdid) < len(t.pds)
}

// CreatePD allocates protection domain pdid.
func (t *Tables) CreatePD(pdid uint32) error {
	if !t.pdInRange(pdid) {
		return ErrInvalidProtectionDomain
	}
	if t.pds[pdid] != nil {
		return ErrInvalidProtectionDomain
	}
	t.pds[pdid] = &ProtectionDomain{}
	return nil
}

// BumpPDUsage validates pdid is allocated and increments its usage count;
// used by CREATE_CQ when the caller associates a completion queue with a
// protection domain.
func (t *Tables) BumpPDUsage(pdid uint32) error {
	if !t.pdInRange(pdid) || t.pds[pdid] == nil {
		return ErrInvalidProtectionDomain
	}
	t.pds[pdid].UsageCount++
	return nil
}

// DropPDUsage decrements pdid's usage count if the domain is still
// allocated; used by DELETE_CQ to release a CQ→PD association. A missing
// or already-freed PD is not an error here — the CQ is being torn down
// regardless.
func (t *Tables) DropPDUsage(pdid uint32) {
	if t.pdInRange(pdid) && t.pds[pdid] != nil {
		t.pds[pdid].UsageCount--
	}
}

// DeletePD frees protection domain pdid, which must have zero usage.
func (t *Tables) DeletePD(pdid uint32) error {
	if !t.pdInRange(pdid) || t.pds[pdid] == nil {
		return ErrInvalidProtectionDomain
	}
	if t.pds[pdid].UsageCount != 0 {
		return ErrInField
	}
	t.pds[pdid] = nil
	return nil
}

func (t *Tables) stagInRange(stag uint32) bool {
	return stag != 0 && int(stag) < len(t.stags)
}

// CreateSTag allocates (or, if rstag, re-registers) storage tag stag
// bound to protection domain pdid.
func (t *Tables) CreateSTag(pdid, stag uint32, smps uint8, prp uint64, nmp uint32, rstag bool) error {
	if !t.pdInRange(pdid) || t.pds[pdid] == nil {
		return ErrInvalidProtectionDomain
	}
	if !t.stagInRange(stag) {
		return ErrInvalidSTag
	}
	if smps < t.smpsMin || smps > t.smpsMax {
		return ErrInField
	}
	if t.stags[stag] != nil && !rstag {
		return ErrInvalidSTag
	}
	if t.stags[stag] == nil && rstag {
		return ErrInvalidSTag
	}

	if !rstag {
		t.stags[stag] = &STag{}
		t.pds[pdid].UsageCount++
	}
	s := t.stags[stag]
	s.PDID = pdid
	s.SMPS = uint64(1) << (uint64(smps) + 12)
	s.PRP = prp
	s.NMP = nmp
	return nil
}

// DeleteSTag frees storage tag stag, which must currently belong to pdid.
func (t *Tables) DeleteSTag(pdid, stag uint32) error {
	if !t.pdInRange(pdid) || t.pds[pdid] == nil {
		return ErrInvalidProtectionDomain
	}
	if !t.stagInRange(stag) || t.stags[stag] == nil {
		return ErrInvalidSTag
	}
	if t.stags[stag].PDID != pdid {
		return ErrInvalidProtectionDomain
	}
	t.stags[stag] = nil
	t.pds[pdid].UsageCount--
	return nil
}

func (t *Tables) nstagInRange(ntag uint32) bool {
	return ntag != 0 && int(ntag) < len(t.nstags)
}

// namespaceAllocated abstracts the namespace-table lookup CREATE_NSTAG
// needs without importing internal/namespace (which would cycle back
// through security.ErasedNamespace wiring); pass a closure from ctrl.
type NamespaceExists func(nsid uint32) bool

// CreateNSTag allocates namespace tag ntag for namespace nsid under
// protection domain pdid.
func (t *Tables) CreateNSTag(nsid, at, ntag, pdid uint32, nsExists NamespaceExists) error {
	if nsid == 0 || !nsExists(nsid) {
		return errors.New("invalid namespace")
	}
	if !t.pdInRange(pdid) || t.pds[pdid] == nil {
		return ErrInvalidProtectionDomain
	}
	if !t.nstagInRange(ntag) {
		return ErrInvalidNamespaceTag
	}
	if t.nstags[ntag] != nil {
		return ErrInvalidNamespaceTag
	}

	t.nstags[ntag] = &NSTag{PDID: pdid, AT: at, NSID: nsid}
	t.pds[pdid].UsageCount++
	return nil
}

// DeleteNSTag frees namespace tag ntag, decrementing its owning PD's
// usage count.
func (t *Tables) DeleteNSTag(ntag uint32) error {
	if !t.nstagInRange(ntag) || t.nstags[ntag] == nil {
		return ErrInvalidNamespaceTag
	}
	pdid := t.nstags[ntag].PDID
	t.nstags[ntag] = nil
	if t.pdInRange(pdid) && t.pds[pdid] != nil {
		t.pds[pdid].UsageCount--
	}
	return nil
}

// InjectErrorResult reports whether a temperature-threshold crossing
// needs an async SMART event enqueued by the caller (ctrl owns the
// asyncevent.State, so Tables only signals the need).
type InjectErrorResult struct {
	TemperatureThresholdCrossed bool
}

// InjectError applies one INJECT_ERROR kind (CLEAR/SPARE/TEMP/WEAR/MEDIA/
// TIME_OUT).
func (t *Tables) InjectError(kind uint8, cdw10, cdw11, cdw12 uint32, tempThresholdFeature uint16, defaultTemperature uint16) (InjectErrorResult, error) {
	switch kind {
	case uapi.InjectClear:
		t.Temperature = defaultTemperature
		t.PercentageUsed = 0
		t.InjectedAvailableSpare = 0
		t.TimeoutError = nil
		t.MediaErrors = nil
		return InjectErrorResult{}, nil

	case uapi.InjectSpare:
		spare := uint8((cdw10 & 0x7f8) >> 3)
		if spare > 100 {
			spare = 100
		}
		t.InjectedAvailableSpare = spare
		return InjectErrorResult{}, nil

	case uapi.InjectTemp:
		t.Temperature = uint16((cdw10 & 0x1fff8) >> 3)
		crossed := false
		if t.Temperature >= tempThresholdFeature && !t.TempWarnIssued {
			t.TempWarnIssued = true
			crossed = true
		}
		return InjectErrorResult{TemperatureThresholdCrossed: crossed}, nil

	case uapi.InjectWear:
		t.PercentageUsed = uint8((cdw10 & 0x7f8) >> 3)
		return InjectErrorResult{}, nil

	case uapi.InjectMedia:
		if len(t.MediaErrors) < maxMediaErrors {
			t.MediaErrors = append(t.MediaErrors, MediaError{
				SLBA:    uint64(cdw11),
				ELBA:    uint64(cdw12),
				IOError: uint8((cdw10 & 0x78) >> 3),
			})
		}
		return InjectErrorResult{}, nil

	case uapi.InjectTimeout:
		t.TimeoutError = &MediaError{
			SLBA:    uint64(cdw11),
			ELBA:    uint64(cdw12),
			IOError: uint8((cdw10 & 0x18) >> 3),
		}
		return InjectErrorResult{}, nil

	default:
		return InjectErrorResult{}, ErrInField
	}
}
