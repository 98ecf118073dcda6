package nvmeadmind

import "github.com/ehrlich-b/nvme-admind/internal/constants"

// Re-exported capability limits and defaults, for callers that want to
// reference them without importing internal/constants directly.
const (
	QMAX                               = constants.QMAX
	MQES                               = constants.MQES
	AERL                               = constants.AERL
	MaxNamespaces                      = constants.MaxNamespaces
	MaxFirmwareSlots                   = constants.MaxFirmwareSlots
	MaxPasswordRetry                   = constants.MaxPasswordRetry
	SpareThreshold                     = constants.SpareThreshold
	DefaultCompositeTemperatureKelvin  = constants.DefaultCompositeTemperatureKelvin
	DefaultLogicalBlockSize            = constants.DefaultLogicalBlockSize
	DefaultNamespaceSectors            = constants.DefaultNamespaceSectors
	ATAPasswordLength                  = constants.ATAPasswordLength
)
