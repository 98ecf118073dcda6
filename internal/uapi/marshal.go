package uapi

import "encoding/binary"

// MarshalError is the error type returned by Marshal/Unmarshal on
// malformed input.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const ErrInsufficientData MarshalError = "insufficient data for unmarshaling"

// MarshalSQE encodes an SQE into its 64-byte wire form.
func MarshalSQE(s *SQE) []byte {
	buf := make([]byte, 64)
	buf[0] = s.Opcode
	buf[1] = s.Flags
	binary.LittleEndian.PutUint16(buf[2:4], s.CID)
	binary.LittleEndian.PutUint32(buf[4:8], s.NSID)
	binary.LittleEndian.PutUint64(buf[8:16], s.Rsvd)
	binary.LittleEndian.PutUint64(buf[16:24], s.MPTR)
	binary.LittleEndian.PutUint64(buf[24:32], s.PRP1)
	binary.LittleEndian.PutUint64(buf[32:40], s.PRP2)
	binary.LittleEndian.PutUint32(buf[40:44], s.CDW10)
	binary.LittleEndian.PutUint32(buf[44:48], s.CDW11)
	binary.LittleEndian.PutUint32(buf[48:52], s.CDW12)
	binary.LittleEndian.PutUint32(buf[52:56], s.CDW13)
	binary.LittleEndian.PutUint32(buf[56:60], s.CDW14)
	binary.LittleEndian.PutUint32(buf[60:64], s.CDW15)
	return buf
}

// UnmarshalSQE decodes a 64-byte wire SQE.
func UnmarshalSQE(data []byte) (*SQE, error) {
	if len(data) < 64 {
		return nil, ErrInsufficientData
	}
	s := &SQE{
		Opcode: data[0],
		Flags:  data[1],
		CID:    binary.LittleEndian.Uint16(data[2:4]),
		NSID:   binary.LittleEndian.Uint32(data[4:8]),
		Rsvd:   binary.LittleEndian.Uint64(data[8:16]),
		MPTR:   binary.LittleEndian.Uint64(data[16:24]),
		PRP1:   binary.LittleEndian.Uint64(data[24:32]),
		PRP2:   binary.LittleEndian.Uint64(data[32:40]),
		CDW10:  binary.LittleEndian.Uint32(data[40:44]),
		CDW11:  binary.LittleEndian.Uint32(data[44:48]),
		CDW12:  binary.LittleEndian.Uint32(data[48:52]),
		CDW13:  binary.LittleEndian.Uint32(data[52:56]),
		CDW14:  binary.LittleEndian.Uint32(data[56:60]),
		CDW15:  binary.LittleEndian.Uint32(data[60:64]),
	}
	return s, nil
}

// MarshalCQE encodes a CQE into its 16-byte wire form.
func MarshalCQE(c *CQE) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], c.CmdSpecific)
	binary.LittleEndian.PutUint32(buf[4:8], c.Rsvd)
	binary.LittleEndian.PutUint16(buf[8:10], c.SQHead)
	binary.LittleEndian.PutUint16(buf[10:12], c.SQID)
	binary.LittleEndian.PutUint16(buf[12:14], c.CommandID)
	binary.LittleEndian.PutUint16(buf[14:16], c.Status)
	return buf
}

// UnmarshalCQE decodes a 16-byte wire CQE.
func UnmarshalCQE(data []byte) (*CQE, error) {
	if len(data) < 16 {
		return nil, ErrInsufficientData
	}
	return &CQE{
		CmdSpecific: binary.LittleEndian.Uint32(data[0:4]),
		Rsvd:        binary.LittleEndian.Uint32(data[4:8]),
		SQHead:      binary.LittleEndian.Uint16(data[8:10]),
		SQID:        binary.LittleEndian.Uint16(data[10:12]),
		CommandID:   binary.LittleEndian.Uint16(data[12:14]),
		Status:      binary.LittleEndian.Uint16(data[14:16]),
	}, nil
}

// MarshalIdentifyController encodes the populated fields of an
// IdentifyController into a full 4096-byte page; unpopulated bytes are
// zero.
func MarshalIdentifyController(ic *IdentifyController) []byte {
	buf := make([]byte, IdentifyControllerSize)
	binary.LittleEndian.PutUint16(buf[0:2], ic.VID)
	binary.LittleEndian.PutUint16(buf[2:4], ic.SSVID)
	copy(buf[4:24], ic.SerialNumber[:])
	copy(buf[24:64], ic.ModelNumber[:])
	copy(buf[64:72], ic.FirmwareRevision[:])
	binary.LittleEndian.PutUint32(buf[516:520], ic.NN) // NN lives at offset 516 in the real spec layout
	return buf
}

// MarshalIdentifyNamespace encodes an IdentifyNamespace into a full
// 4096-byte page.
func MarshalIdentifyNamespace(ns *IdentifyNamespace) []byte {
	buf := make([]byte, IdentifyNamespaceSize)
	binary.LittleEndian.PutUint64(buf[0:8], ns.NSZE)
	binary.LittleEndian.PutUint64(buf[8:16], ns.NCAP)
	binary.LittleEndian.PutUint64(buf[16:24], ns.NUSE)
	buf[24] = ns.NSFeat
	buf[25] = ns.NLBAF
	buf[26] = ns.FLBAS
	buf[27] = ns.MC
	buf[28] = ns.DPC
	buf[29] = ns.DPS
	off := 128
	for i := range ns.LBAF {
		binary.LittleEndian.PutUint16(buf[off:off+2], ns.LBAF[i].MetadataSize)
		buf[off+2] = ns.LBAF[i].LBADataSize
		buf[off+3] = ns.LBAF[i].RelativePerformance
		off += 4
	}
	return buf
}

// UnmarshalIdentifyNamespace decodes the host-supplied fields of an
// IdentifyNamespace from a 4096-byte page, used by CREATE_NAMESPACE and
// MODIFY_NAMESPACE to read the caller's requested geometry.
func UnmarshalIdentifyNamespace(data []byte) (*IdentifyNamespace, error) {
	if len(data) < IdentifyNamespaceSize {
		return nil, ErrInsufficientData
	}
	ns := &IdentifyNamespace{
		NSZE:   binary.LittleEndian.Uint64(data[0:8]),
		NCAP:   binary.LittleEndian.Uint64(data[8:16]),
		NUSE:   binary.LittleEndian.Uint64(data[16:24]),
		NSFeat: data[24],
		NLBAF:  data[25],
		FLBAS:  data[26],
		MC:     data[27],
		DPC:    data[28],
		DPS:    data[29],
	}
	off := 128
	for i := range ns.LBAF {
		ns.LBAF[i] = LBAFormat{
			MetadataSize:        binary.LittleEndian.Uint16(data[off : off+2]),
			LBADataSize:         data[off+2],
			RelativePerformance: data[off+3],
		}
		off += 4
	}
	return ns, nil
}

// MarshalSmartLog encodes a SmartLog into its wire layout, zero-padded to
// SmartLogSize.
func MarshalSmartLog(s *SmartLog) []byte {
	buf := make([]byte, SmartLogSize)
	buf[0] = s.CriticalWarning
	binary.LittleEndian.PutUint16(buf[1:3], s.CompositeTempK)
	buf[3] = s.AvailableSpare
	buf[4] = s.SpareThreshold
	buf[5] = s.PercentageUsed
	binary.LittleEndian.PutUint64(buf[32:40], s.DataUnitsRead)
	binary.LittleEndian.PutUint64(buf[48:56], s.DataUnitsWritten)
	binary.LittleEndian.PutUint64(buf[64:72], s.HostReadCommands)
	binary.LittleEndian.PutUint64(buf[80:88], s.HostWriteCommands)
	binary.LittleEndian.PutUint64(buf[128:136], s.PowerOnHours)
	return buf
}

// MarshalFWSlotLog encodes an FWSlotLog into its wire layout, zero-padded
// to FWSlotLogSize.
func MarshalFWSlotLog(f *FWSlotLog) []byte {
	buf := make([]byte, FWSlotLogSize)
	buf[0] = f.ActiveSlot
	off := 8
	for i := 1; i < 8; i++ {
		copy(buf[off:off+8], f.Slots[i][:])
		off += 8
	}
	return buf
}

// MarshalLBARangeType encodes an LBARangeType to its wire layout.
func MarshalLBARangeType(r *LBARangeType) []byte {
	buf := make([]byte, 64)
	buf[0] = r.Type
	buf[1] = r.Attributes
	binary.LittleEndian.PutUint64(buf[16:24], r.SLBA)
	binary.LittleEndian.PutUint64(buf[24:32], r.NLB)
	return buf
}

// UnmarshalLBARangeType decodes an LBARangeType from its wire layout.
func UnmarshalLBARangeType(data []byte) (*LBARangeType, error) {
	if len(data) < 32 {
		return nil, ErrInsufficientData
	}
	return &LBARangeType{
		Type:       data[0],
		Attributes: data[1],
		SLBA:       binary.LittleEndian.Uint64(data[16:24]),
		NLB:        binary.LittleEndian.Uint64(data[24:32]),
	}, nil
}

// MarshalSupportedSecurityProtocols encodes the SECURITY_RECV(protocol=0)
// descriptor.
func MarshalSupportedSecurityProtocols(s *SupportedSecurityProtocols) []byte {
	buf := make([]byte, 8+len(s.Protocols))
	binary.LittleEndian.PutUint16(buf[6:8], s.Count)
	copy(buf[8:], s.Protocols[:])
	return buf
}
