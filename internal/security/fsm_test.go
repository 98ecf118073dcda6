package security

import (
	"testing"

	"github.com/ehrlich-b/nvme-admind/internal/constants"
	"github.com/ehrlich-b/nvme-admind/internal/uapi"
)

func payloadWithPassword(opcode uint16, offset int, password string) []byte {
	p := make([]byte, 4096)
	p[0] = byte(opcode)
	p[1] = byte(opcode >> 8)
	copy(p[offset:offset+constants.ATAPasswordLength], password)
	return p
}

func TestSetPasswordRequiresStateB(t *testing.T) {
	f := New()
	f.SetState(StateA)
	ok, status := f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "hunter2"))
	if ok || status != uapi.StatusCmdSeqError {
		t.Fatalf("SET_PASSWORD from A: got ok=%v status=%#x", ok, status)
	}
	if f.State() != StateA {
		t.Errorf("state after failed SET_PASSWORD = %v, want A unchanged", f.State())
	}
}

func TestFullUnlockLifecycle(t *testing.T) {
	f := New()
	f.SetState(StateB)

	ok, status := f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "hunter2"))
	if !ok || status != uapi.StatusSuccess {
		t.Fatalf("SET_PASSWORD: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateH {
		t.Fatalf("state after SET_PASSWORD = %v, want H", f.State())
	}

	// Simulate controller locking back to D externally (e.g. on reset with
	// a stored password) to exercise UNLOCK.
	f.SetState(StateD)

	ok, status = f.Apply(uapi.ATAOpUnlock, payloadWithPassword(uapi.ATAOpUnlock, 2, "wrongpass"))
	if ok || status != uapi.StatusCmdSeqError {
		t.Fatalf("UNLOCK wrong password: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateD {
		t.Errorf("state after one failed UNLOCK = %v, want D", f.State())
	}

	ok, status = f.Apply(uapi.ATAOpUnlock, payloadWithPassword(uapi.ATAOpUnlock, 2, "hunter2"))
	if !ok || status != uapi.StatusSuccess {
		t.Fatalf("UNLOCK correct password: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateH {
		t.Fatalf("state after UNLOCK = %v, want H", f.State())
	}
}

func TestUnlockLockoutAfterMaxRetries(t *testing.T) {
	f := New()
	f.SetState(StateB)
	f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "hunter2"))
	f.SetState(StateD)

	for i := 0; i < constants.MaxPasswordRetry-1; i++ {
		ok, _ := f.Apply(uapi.ATAOpUnlock, payloadWithPassword(uapi.ATAOpUnlock, 2, "wrong"))
		if ok {
			t.Fatalf("attempt %d: unexpected success", i)
		}
		if f.State() != StateD {
			t.Fatalf("attempt %d: state = %v, want D (retry %d < max)", i, f.State(), i+1)
		}
	}

	ok, status := f.Apply(uapi.ATAOpUnlock, payloadWithPassword(uapi.ATAOpUnlock, 2, "wrong"))
	if ok || status != uapi.StatusCmdSeqError {
		t.Fatalf("final attempt: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateG {
		t.Fatalf("state after %d failed UNLOCKs = %v, want G", constants.MaxPasswordRetry, f.State())
	}
}

func TestErasePrepAndFreezeLockBothReachE1FromH(t *testing.T) {
	f := New()
	f.SetState(StateH)
	ok, status := f.Apply(uapi.ATAOpErasePrepare, make([]byte, 4096))
	if !ok || status != uapi.StatusSuccess || f.State() != StateE1 {
		t.Fatalf("ERASE_PREP: ok=%v status=%#x state=%v", ok, status, f.State())
	}

	f.SetState(StateH)
	ok, status = f.Apply(uapi.ATAOpFreezeLock, make([]byte, 4096))
	if !ok || status != uapi.StatusSuccess || f.State() != StateE1 {
		t.Fatalf("FREEZE_LOCK: ok=%v status=%#x state=%v", ok, status, f.State())
	}
}

func TestUnrelatedCommandInE1RevertsToH(t *testing.T) {
	f := New()
	f.SetState(StateE1)
	// SET_PASSWORD requires B; wrong state while in E1 must revert to H.
	ok, status := f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "x"))
	if ok || status != uapi.StatusCmdSeqError {
		t.Fatalf("SET_PASSWORD in E1: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateH {
		t.Fatalf("state after failing op in E1 = %v, want H", f.State())
	}
}

func TestUnknownOpcodeInvalidFieldAndE1Revert(t *testing.T) {
	f := New()
	f.SetState(StateE1)
	ok, status := f.Apply(0xFFFF, make([]byte, 4096))
	if ok || status != uapi.StatusInvalidField {
		t.Fatalf("unknown opcode: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateH {
		t.Fatalf("state after unknown opcode in E1 = %v, want H", f.State())
	}

	f2 := New()
	f2.SetState(StateB)
	ok, status = f2.Apply(0xFFFF, make([]byte, 4096))
	if ok || status != uapi.StatusInvalidField {
		t.Fatalf("unknown opcode from B: ok=%v status=%#x", ok, status)
	}
	if f2.State() != StateB {
		t.Errorf("state after unknown opcode outside E1 = %v, want unchanged B", f2.State())
	}
}

type fakeNamespace struct {
	reset bool
}

func (n *fakeNamespace) ResetOnErase() { n.reset = true }

func TestEraseUnitMismatchStaysInE1(t *testing.T) {
	f := New()
	f.SetState(StateB)
	f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "hunter2"))
	f.SetState(StateE1)

	ns := &fakeNamespace{}
	ok, status := f.ApplyErase(payloadWithPassword(uapi.ATAOpEraseUnit, 3, "wrongpass"), []ErasedNamespace{ns})
	if ok || status != uapi.StatusCmdSeqError {
		t.Fatalf("ERASE_UNIT mismatch: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateE1 {
		t.Fatalf("state after ERASE_UNIT mismatch = %v, want E1 (stays, unlike other ops)", f.State())
	}
	if ns.reset {
		t.Errorf("namespace should not be reset on ERASE_UNIT mismatch")
	}
}

func TestEraseUnitSuccessResetsNamespacesAndUnlocks(t *testing.T) {
	f := New()
	f.SetState(StateB)
	f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "hunter2"))
	f.SetState(StateE1)

	ns1 := &fakeNamespace{}
	ns2 := &fakeNamespace{}
	ok, status := f.ApplyErase(payloadWithPassword(uapi.ATAOpEraseUnit, 3, "hunter2"), []ErasedNamespace{ns1, nil, ns2})
	if !ok || status != uapi.StatusSuccess {
		t.Fatalf("ERASE_UNIT success: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateB {
		t.Fatalf("state after ERASE_UNIT success = %v, want B", f.State())
	}
	if !ns1.reset || !ns2.reset {
		t.Errorf("all namespaces should be reset: ns1=%v ns2=%v", ns1.reset, ns2.reset)
	}
}

func TestDisablePasswordRoundTrip(t *testing.T) {
	f := New()
	f.SetState(StateB)
	f.Apply(uapi.ATAOpSetPassword, payloadWithPassword(uapi.ATAOpSetPassword, 2, "hunter2"))

	ok, status := f.Apply(uapi.ATAOpDisablePassword, payloadWithPassword(uapi.ATAOpDisablePassword, 2, "wrong"))
	if ok || status != uapi.StatusCmdSeqError {
		t.Fatalf("DISABLE_PASSWORD wrong password: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateH {
		t.Errorf("state after failed DISABLE_PASSWORD = %v, want H", f.State())
	}

	ok, status = f.Apply(uapi.ATAOpDisablePassword, payloadWithPassword(uapi.ATAOpDisablePassword, 2, "hunter2"))
	if !ok || status != uapi.StatusSuccess {
		t.Fatalf("DISABLE_PASSWORD correct password: ok=%v status=%#x", ok, status)
	}
	if f.State() != StateB {
		t.Errorf("state after DISABLE_PASSWORD = %v, want B", f.State())
	}
}

func TestUnlockedHelper(t *testing.T) {
	for _, s := range []State{StateA, StateB, StateH} {
		f := New()
		f.SetState(s)
		if !f.Unlocked() {
			t.Errorf("state %v should be unlocked", s)
		}
	}
	for _, s := range []State{StateC, StateD, StateE1, StateG} {
		f := New()
		f.SetState(s)
		if f.Unlocked() {
			t.Errorf("state %v should be locked", s)
		}
	}
}

// TestExhaustiveStateOpMatrix walks every (state, op) pair and asserts the
// FSM never panics and only transitions to documented states.
func TestExhaustiveStateOpMatrix(t *testing.T) {
	states := []State{StateA, StateB, StateC, StateD, StateE1, StateG, StateH}
	ops := []uint16{
		uapi.ATAOpSetPassword, uapi.ATAOpUnlock, uapi.ATAOpErasePrepare,
		uapi.ATAOpEraseUnit, uapi.ATAOpFreezeLock, uapi.ATAOpDisablePassword,
		0xFFFF,
	}
	for _, s := range states {
		for _, op := range ops {
			f := New()
			f.SetState(s)
			payload := payloadWithPassword(op, 2, "probe")
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("state=%v op=%#x panicked: %v", s, op, r)
					}
				}()
				f.Apply(op, payload)
			}()
		}
	}
}
