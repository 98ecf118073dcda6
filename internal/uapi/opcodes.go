package uapi

// Admin opcodes. Standard NVMe admin set plus the vendor AON extension
// range (0xC0..0xCA).
const (
	OpDeleteSQ       = 0x00
	OpCreateSQ       = 0x01
	OpGetLogPage     = 0x02
	OpDeleteCQ       = 0x04
	OpCreateCQ       = 0x05
	OpIdentify       = 0x06
	OpAbort          = 0x08
	OpSetFeatures    = 0x09
	OpGetFeatures    = 0x0A
	OpAsyncEventReq  = 0x0C
	OpActivateFW     = 0x10
	OpDownloadFW     = 0x11
	OpSecuritySend   = 0x81
	OpSecurityRecv   = 0x82
	OpFormatNVM      = 0x80 // vendor models place FORMAT_NVM with the NVM command set; kept distinct from 0x80 I/O opcodes by context (admin-only dispatch table)

	// Vendor AON extension (protection domains, storage tags, namespace
	// tags, namespace lifecycle, error injection).
	OpCreatePD     = 0xC0
	OpDeletePD     = 0xC1
	OpCreateSTag   = 0xC2
	OpDeleteSTag   = 0xC3
	OpCreateNSTag  = 0xC4
	OpDeleteNSTag  = 0xC5
	OpCreateNS     = 0xC6
	OpDeleteNS     = 0xC7
	OpModifyNS     = 0xC8
	OpInjectError  = 0xC9
)

// IdentifyCNS values (cdw10 bits 0-7 of the IDENTIFY command).
const (
	CNSNamespace  = 0x00
	CNSController = 0x01
)

// Log page identifiers (GET_LOG_PAGE cdw10 bits 0-7).
const (
	LogErrorInformation  = 0x01
	LogSmartInformation  = 0x02
	LogFWSlotInformation = 0x03
)

// Feature identifiers.
const (
	FeatArbitration            = 0x01
	FeatPowerManagement        = 0x02
	FeatLBARangeType           = 0x03
	FeatTemperatureThreshold   = 0x04
	FeatErrorRecovery          = 0x05
	FeatVolatileWriteCache     = 0x06
	FeatNumberOfQueues         = 0x07
	FeatInterruptCoalescing    = 0x08
	FeatInterruptVectorConfig  = 0x09
	FeatWriteAtomicity         = 0x0A
	FeatAsyncEventConfig       = 0x0B
	FeatSoftwareProgressMarker = 0x80
	FeatVendorStripingConfig   = 0xD0
)

// ATA-style security protocol values used by SECURITY_SEND/SECURITY_RECV.
const (
	SecurityProtocolInfo = 0x00
	SecurityProtocolATA  = 0xEF
)

// ATA security opcodes carried in the first two bytes of the
// SECURITY_SEND payload (little-endian).
const (
	ATAOpSetPassword      = 0x01
	ATAOpUnlock           = 0x02
	ATAOpErasePrepare     = 0x03
	ATAOpEraseUnit         = 0x04
	ATAOpFreezeLock        = 0x05
	ATAOpDisablePassword   = 0x06
)

// Vendor error-injection kinds (cdw10 of INJECT_ERROR).
const (
	InjectClear = 0x00
	InjectSpare = 0x01
	InjectTemp  = 0x02
	InjectWear  = 0x03
	InjectMedia = 0x04
	InjectTimeout = 0x05
)

// Async event types/info, carried through to the SMART-log-bearing CQE
// fields on delivery.
const (
	AsyncEventTypeError  = 0x00
	AsyncEventTypeSmart  = 0x01
	AsyncEventTypeNotice = 0x02
	AsyncEventTypeIOCmd  = 0x06
	AsyncEventTypeVendor = 0x07

	AsyncEventInfoTempThreshold = 0x00

	AsyncEventLogPageSmart = LogSmartInformation
)
