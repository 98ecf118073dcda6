package ctrl

import (
	"github.com/ehrlich-b/nvme-admind/internal/constants"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

// Config bundles every controller-wide capability and identity value the
// admin handlers consult: queue limits, namespace geometry, vendor-
// extension table sizes, and the identify-controller fields this
// component populates. Mirrors the teacher's DeviceParams-as-Config
// pattern.
type Config struct {
	QMax                 int
	MQES                 uint16
	AERL                 int
	CAPCQR               bool // CAP.CQR: contiguous queues required
	MSIXActive           bool
	MSIXEntries          uint16

	MaxNamespaces        int
	TotalNamespaceSpace  uint64
	MinNamespaceSizeLog2 uint8
	NamespaceMC          uint8 // metadata capabilities ceiling namespaces may request
	NamespaceDPC         uint8 // end-to-end data protection capabilities ceiling

	UseAON bool
	MNPD   int
	MNHR   int
	MNON   int
	SMPSMin uint8
	SMPSMax uint8

	SpareThreshold           uint8
	DefaultTemperatureKelvin uint16
	TemperatureThresholdFeat uint16

	VID, SSVID   uint16
	SerialNumber [20]byte
	ModelNumber  [40]byte

	NLBAF uint8
	LBAF  [16]uapi.LBAFormat

	NamespaceStorageDir string
}

// DefaultConfig returns the controller capability set used when none is
// supplied: QMAX/MQES/AERL/MaxNamespaces match the
// constants this controller was modeled on.
func DefaultConfig() Config {
	cfg := Config{
		QMax:                     constants.QMAX,
		MQES:                     constants.MQES,
		AERL:                     constants.AERL,
		CAPCQR:                   true,
		MSIXActive:               true,
		MSIXEntries:              constants.QMAX + 1,
		MaxNamespaces:            constants.MaxNamespaces,
		TotalNamespaceSpace:      uint64(constants.DefaultNamespaceSectors) * constants.DefaultLogicalBlockSize * 16,
		MinNamespaceSizeLog2:     12,
		NamespaceMC:              0x3,
		NamespaceDPC:             0x1f,
		UseAON:                   true,
		MNPD:                     16,
		MNHR:                     64,
		MNON:                     constants.MaxNamespaces,
		SMPSMin:                  0,
		SMPSMax:                  8,
		SpareThreshold:           constants.SpareThreshold,
		DefaultTemperatureKelvin: constants.DefaultCompositeTemperatureKelvin,
		TemperatureThresholdFeat: constants.DefaultCompositeTemperatureKelvin + 20,
		NLBAF:                    0,
		NamespaceStorageDir:      "",
	}
	cfg.LBAF[0] = uapi.LBAFormat{LBADataSize: 9} // 512-byte blocks
	return cfg
}
