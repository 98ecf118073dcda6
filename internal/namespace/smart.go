package namespace

import "github.com/ehrlich-b/nvme-admind/internal/uapi"

const allNamespaces = 0xFFFFFFFF

// SmartParams carries the controller-wide inputs BuildSmartLog needs
// beyond the namespace table itself.
type SmartParams struct {
	TemperatureKelvin        uint16
	TemperatureThresholdFeat uint16
	PercentageUsed           uint8
	SpareThreshold           uint8
	InjectedAvailableSpare   uint8 // 0 means "not injected"
	PowerOnHours             uint64
}

// BuildSmartLog composes the SMART/Health Information log for nsid, which
// may be AllNamespaces (0xFFFFFFFF) to aggregate across every allocated
// namespace. Returns ErrInvalidNamespace for an out-of-range or
// unallocated specific nsid.
func (t *Table) BuildSmartLog(nsid uint32, p SmartParams) (*uapi.SmartLog, error) {
	log := &uapi.SmartLog{}

	// satAdd clamps at the uint64 maximum instead of wrapping.
	satAdd := func(a, b uint64) uint64 {
		if a+b < a {
			return ^uint64(0)
		}
		return a + b
	}

	var availableSpare uint8
	if nsid == allNamespaces {
		var totalUse, totalSize uint64
		for _, ns := range t.slots {
			if ns == nil {
				continue
			}
			log.DataUnitsRead = satAdd(log.DataUnitsRead, ns.DataUnitsRead)
			log.DataUnitsWritten = satAdd(log.DataUnitsWritten, ns.DataUnitsWritten)
			log.HostReadCommands = satAdd(log.HostReadCommands, ns.HostReadCommands)
			log.HostWriteCommands = satAdd(log.HostWriteCommands, ns.HostWriteCommands)
			totalSize += ns.Identify.NSZE
			totalUse += ns.Identify.NUSE
		}
		if totalSize > 0 {
			availableSpare = uint8(100 - (100*totalUse)/totalSize)
		} else {
			availableSpare = 100
		}
	} else {
		ns := t.Get(nsid)
		if ns == nil {
			return nil, ErrInvalidNamespace
		}
		log.DataUnitsRead = ns.DataUnitsRead
		log.DataUnitsWritten = ns.DataUnitsWritten
		log.HostReadCommands = ns.HostReadCommands
		log.HostWriteCommands = ns.HostWriteCommands
		if ns.Identify.NSZE > 0 {
			availableSpare = uint8(100 - (100*ns.Identify.NUSE)/ns.Identify.NSZE)
		} else {
			availableSpare = 100
		}
	}

	if p.InjectedAvailableSpare != 0 {
		availableSpare = p.InjectedAvailableSpare
	}
	log.AvailableSpare = availableSpare
	log.SpareThreshold = p.SpareThreshold
	log.CompositeTempK = p.TemperatureKelvin
	log.PercentageUsed = p.PercentageUsed
	log.PowerOnHours = p.PowerOnHours

	if log.AvailableSpare <= log.SpareThreshold {
		log.CriticalWarning |= 1 << 0
	}
	if p.TemperatureThresholdFeat <= p.TemperatureKelvin {
		log.CriticalWarning |= 1 << 1
	}

	return log, nil
}

// AllNamespaces is the nsid sentinel requesting an aggregate SMART log.
const AllNamespaces = allNamespaces
