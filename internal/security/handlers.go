package security

import (
	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
	"github.com/ehrlich-b/nvme-admind/internal/prp"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

// PayloadSize is the fixed SECURITY_SEND/RECV transfer size for protocol
// 0xEF (ATA security), one page.
const PayloadSize = 4096

// Send implements SECURITY_SEND for protocol 0xEF / sps 0x0000: it reads a
// 4096-byte payload via PRP, decodes the ATA opcode from the first two
// little-endian bytes, and drives the FSM. namespaces is consulted only
// for ERASE_UNIT.
func (f *FSM) Send(mem interfaces.HostMemory, secp uint8, sps uint16, prp1, prp2 uint64, transferLen uint32, namespaces []ErasedNamespace) (ok bool, status uint8) {
	if secp != uapi.SecurityProtocolATA || sps != 0 {
		return false, uapi.StatusInvalidField
	}
	if transferLen < PayloadSize {
		return false, uapi.StatusCmdSeqError
	}

	payload := make([]byte, PayloadSize)
	if err := prp.ReadInto(mem, prp1, prp2, payload); err != nil {
		return false, uapi.StatusDataXferError
	}

	opcode := uint16(payload[0]) | uint16(payload[1])<<8
	if opcode == uapi.ATAOpEraseUnit {
		return f.ApplyErase(payload, namespaces)
	}
	return f.Apply(opcode, payload)
}

// Recv implements SECURITY_RECV. Only protocol 0x00 / sps 0x0000 is
// supported: it returns the supported-security-protocols descriptor
// listing {0x00, 0xEF}.
func Recv(mem interfaces.HostMemory, secp uint8, sps uint16, prp1, prp2 uint64) (ok bool, status uint8) {
	if secp != uapi.SecurityProtocolInfo || sps != 0 {
		return false, uapi.StatusInvalidField
	}

	desc := &uapi.SupportedSecurityProtocols{
		Count:     2,
		Protocols: [2]uint8{uapi.SecurityProtocolInfo, uapi.SecurityProtocolATA},
	}
	buf := uapi.MarshalSupportedSecurityProtocols(desc)
	if err := prp.WriteFrom(mem, prp1, prp2, buf); err != nil {
		return false, uapi.StatusDataXferError
	}
	return true, uapi.StatusSuccess
}
