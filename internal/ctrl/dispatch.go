package ctrl

import "github.com/ehrlich-b/nvme-admind/internal/uapi"

// knownOpcode reports whether op is in the admin opcode set this
// dispatcher handles.
func knownOpcode(op uint8) bool {
	switch op {
	case uapi.OpDeleteSQ, uapi.OpCreateSQ, uapi.OpGetLogPage, uapi.OpDeleteCQ,
		uapi.OpCreateCQ, uapi.OpIdentify, uapi.OpAbort, uapi.OpSetFeatures,
		uapi.OpGetFeatures, uapi.OpAsyncEventReq, uapi.OpActivateFW,
		uapi.OpDownloadFW, uapi.OpSecuritySend, uapi.OpSecurityRecv,
		uapi.OpFormatNVM, uapi.OpCreatePD, uapi.OpDeletePD, uapi.OpCreateSTag,
		uapi.OpDeleteSTag, uapi.OpCreateNSTag, uapi.OpDeleteNSTag,
		uapi.OpCreateNS, uapi.OpDeleteNS, uapi.OpModifyNS, uapi.OpInjectError:
		return true
	default:
		return false
	}
}

// requiresUnlocked reports whether op is gated by the common precondition
// that the controller's security state be in {A, B, H}. CREATE_CQ is
// exempt because an admin front end must be able to stand up its own
// completion queue before any unlock handshake; SECURITY_SEND/RECV are
// exempt because they are how that handshake happens in the first place.
func requiresUnlocked(op uint8) bool {
	switch op {
	case uapi.OpCreateCQ, uapi.OpSecuritySend, uapi.OpSecurityRecv:
		return false
	default:
		return true
	}
}
