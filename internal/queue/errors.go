package queue

import "errors"

// Sentinel errors the ctrl dispatcher maps to NVMe status codes. Kept as
// package-level errors (not *nvmeadmind.Error) so this package stays
// import-cycle-free of the root package, matching the teacher's
// internal-package-returns-plain-errors convention.
var (
	ErrInvalidQueueIdentifier = errors.New("invalid queue identifier")
	ErrCompletionQueueInvalid = errors.New("completion queue invalid")
	ErrInvalidField           = errors.New("invalid field")
)
