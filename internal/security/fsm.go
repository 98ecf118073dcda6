// Package security implements the ATA-style security lock state machine
// driven by SECURITY_SEND/SECURITY_RECV (protocol 0xEF). States: A initial,
// B unlocked-no-password, C/D locked-with-password (D ready for unlock), E1
// erase-prepared, G lockout-after-too-many-retries, H unlocked-with-password.
package security

import (
	"bytes"

	"github.com/ehrlich-b/nvme-admind/internal/constants"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

// State is one node of the seven-state ATA security FSM.
type State uint8

const (
	StateA State = iota
	StateB
	StateC
	StateD
	StateE1
	StateG
	StateH
)

func (s State) String() string {
	switch s {
	case StateA:
		return "A"
	case StateB:
		return "B"
	case StateC:
		return "C"
	case StateD:
		return "D"
	case StateE1:
		return "E1"
	case StateG:
		return "G"
	case StateH:
		return "H"
	default:
		return "?"
	}
}

// Unlocked reports whether s is one of the unlocked states {A, B, H}.
func (s State) Unlocked() bool {
	return s == StateA || s == StateB || s == StateH
}

// FSM holds the mutable security state for one controller: the current
// state, the stored password, and the retry counter gating the D->G
// lockout transition.
type FSM struct {
	state       State
	password    [constants.ATAPasswordLength]byte
	retryCount  int
}

// New returns an FSM in the initial state A.
func New() *FSM {
	return &FSM{state: StateA}
}

// State returns the current security state.
func (f *FSM) State() State { return f.state }

// SetState forcibly sets the state, used by controller reset.
func (f *FSM) SetState(s State) { f.state = s }

// Unlocked reports whether the controller currently accepts ops gated by
// the common unlocked precondition.
func (f *FSM) Unlocked() bool { return f.state.Unlocked() }

// Apply processes one SECURITY_SEND ATA opcode against the 4096-byte
// payload and returns whether the operation succeeded plus the status
// code to place in the CQE. It is a pure function of (state, op, payload)
// except for the password/retry counter it owns, matching the
// original's state-machine shape so it can be exhaustively table-tested
// over (state x op).
func (f *FSM) Apply(op uint16, payload []byte) (ok bool, status uint8) {
	switch op {
	case uapi.ATAOpSetPassword:
		if f.state != StateB {
			return f.failPrecondition()
		}
		copy(f.password[:], payload[2:2+constants.ATAPasswordLength])
		f.state = StateH
		return true, uapi.StatusSuccess

	case uapi.ATAOpUnlock:
		if f.state != StateD {
			return f.failPrecondition()
		}
		var given [constants.ATAPasswordLength]byte
		copy(given[:], payload[2:2+constants.ATAPasswordLength])
		if !bytes.Equal(given[:], f.password[:]) {
			f.retryCount++
			if f.retryCount >= constants.MaxPasswordRetry {
				f.state = StateG
			}
			return false, uapi.StatusCmdSeqError
		}
		f.retryCount = 0
		f.state = StateH
		return true, uapi.StatusSuccess

	case uapi.ATAOpErasePrepare:
		if f.state != StateH {
			return f.failPrecondition()
		}
		f.state = StateE1
		return true, uapi.StatusSuccess

	case uapi.ATAOpEraseUnit:
		if f.state != StateE1 {
			return false, uapi.StatusCmdSeqError
		}
		var given [constants.ATAPasswordLength]byte
		copy(given[:], payload[3:3+constants.ATAPasswordLength])
		if !bytes.Equal(given[:], f.password[:]) {
			// Unlike every other op, a mismatch here stays in E1 rather
			// than reverting to H.
			return false, uapi.StatusCmdSeqError
		}
		f.state = StateB
		return true, uapi.StatusSuccess

	case uapi.ATAOpFreezeLock:
		if f.state != StateH {
			return f.failPrecondition()
		}
		f.state = StateE1
		return true, uapi.StatusSuccess

	case uapi.ATAOpDisablePassword:
		if f.state != StateH {
			return f.failPrecondition()
		}
		var given [constants.ATAPasswordLength]byte
		copy(given[:], payload[2:2+constants.ATAPasswordLength])
		if !bytes.Equal(given[:], f.password[:]) {
			return false, uapi.StatusCmdSeqError
		}
		f.state = StateB
		return true, uapi.StatusSuccess

	default:
		if f.state == StateE1 {
			f.state = StateH
		}
		return false, uapi.StatusInvalidField
	}
}

// failPrecondition handles the common "wrong state for this op" path: the
// command fails with CMD_SEQ_ERROR, and if the controller was in E1 it
// reverts to H (the erase-prepared window closes on any unrelated command).
func (f *FSM) failPrecondition() (bool, uint8) {
	if f.state == StateE1 {
		f.state = StateH
	}
	return false, uapi.StatusCmdSeqError
}

// ErasedNamespace is implemented by anything ERASE_UNIT must reset:
// namespace utilization bitmaps, meta-mapping regions, and the
// threshold-warning-issued flag.
type ErasedNamespace interface {
	ResetOnErase()
}

// ApplyErase runs Apply for ERASE_UNIT and, on success, resets every
// namespace passed in (wiping ns_util bitmaps to 0, meta-mappings to
// 0xff, and thresh_warn_issued to false) exactly as the original's
// erase-unit loop does across n->disk[0..num_namespaces).
func (f *FSM) ApplyErase(payload []byte, namespaces []ErasedNamespace) (ok bool, status uint8) {
	ok, status = f.Apply(uapi.ATAOpEraseUnit, payload)
	if !ok {
		return ok, status
	}
	for _, ns := range namespaces {
		if ns != nil {
			ns.ResetOnErase()
		}
	}
	return ok, status
}
