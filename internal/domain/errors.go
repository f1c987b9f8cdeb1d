package domain

import "errors"

// Failure taxonomy. ErrScenarioNotFound and ErrStepNotFound are always
// recovered into error-typed chat responses; ErrSessionNotFound tells a
// stale client to reconnect; ErrInvalidFrame and ErrStoreUnavailable are
// transport-level.
var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrStepNotFound     = errors.New("step not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidFrame     = errors.New("invalid frame")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
