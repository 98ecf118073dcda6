package nvmeadmind

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Error represents a structured admin-command failure with enough context
// to correlate it back to a queue, namespace, and NVMe status code.
type Error struct {
	Op     string    // Admin opcode name that failed (e.g. "IDENTIFY", "CREATE_SQ")
	CNTLID uint16    // Controller identifier (0 if not applicable)
	NSID   uint32    // Namespace identifier (0 if not applicable)
	Code   ErrorCode // High-level error category
	SCT    uint8     // NVMe status code type, if the failure reached a CQE
	SC     uint8     // NVMe status code, if the failure reached a CQE
	Errno  syscall.Errno // Host errno (0 if the failure wasn't a backend I/O error)
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.NSID != 0 {
		parts = append(parts, fmt.Sprintf("nsid=%d", e.NSID))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}
	if e.SCT != 0 || e.SC != 0 {
		parts = append(parts, fmt.Sprintf("sct=%#x sc=%#x", e.SCT, e.SC))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("nvmeadmind: %s (%s)", msg, strings.Join(parts, " "))
	}
	return fmt.Sprintf("nvmeadmind: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode categorizes admin-command failures independent of the exact
// NVMe status code that produced them.
type ErrorCode string

const (
	ErrCodeNotImplemented      ErrorCode = "not implemented"
	ErrCodeInvalidOpcode       ErrorCode = "invalid opcode"
	ErrCodeInvalidField        ErrorCode = "invalid field"
	ErrCodeQueueNotFound       ErrorCode = "queue not found"
	ErrCodeNamespaceNotFound   ErrorCode = "namespace not found"
	ErrCodeSecurityLocked      ErrorCode = "controller locked"
	ErrCodeIOError             ErrorCode = "I/O error"
	ErrCodeTimeout             ErrorCode = "timeout"
	ErrCodeInsufficientSpace   ErrorCode = "insufficient namespace space"
	ErrCodePermissionDenied    ErrorCode = "permission denied"
)

// NewError creates a structured error for an admin command failure.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewStatusError creates a structured error carrying the CQE status that
// was returned to the caller.
func NewStatusError(op string, sct, sc uint8, code ErrorCode) *Error {
	return &Error{Op: op, Code: code, SCT: sct, SC: sc}
}

// NewNamespaceError creates a namespace-scoped structured error.
func NewNamespaceError(op string, nsid uint32, code ErrorCode, msg string) *Error {
	return &Error{Op: op, NSID: nsid, Code: code, Msg: msg}
}

// WrapError wraps a backend I/O error (from a namespace's file-backed
// store) with admin-command context, mapping the errno to an ErrorCode.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ae, ok := inner.(*Error); ok {
		return &Error{Op: op, NSID: ae.NSID, Code: ae.Code, SCT: ae.SCT, SC: ae.SC, Errno: ae.Errno, Msg: ae.Msg, Inner: ae.Inner}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	return &Error{Op: op, Code: ErrCodeIOError, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOENT:
		return ErrCodeNamespaceNotFound
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeInvalidField
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.ENOMEM, syscall.ENOSPC:
		return ErrCodeInsufficientSpace
	case syscall.ETIMEDOUT:
		return ErrCodeTimeout
	default:
		return ErrCodeIOError
	}
}

// IsCode reports whether err is a structured Error of the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
