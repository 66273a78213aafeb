package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, locks and gateways return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: record is in the wrong state for the requested mutation
//   - ErrLockHeld: a lock is owned by another holder
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrLockHeld     = errors.New("lock held")
	ErrUnavailable  = errors.New("unavailable")
)
