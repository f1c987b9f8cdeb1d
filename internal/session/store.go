// Package session provides the mutable per-session state store.
//
// The store is the only shared mutable resource in the server. Updates
// to one session are serialized through a per-entry mutex; unrelated
// sessions never contend with each other.
package session

import (
	"context"
	"time"

	"github.com/moyam/chatbot/internal/domain"
)

// Store defines session state persistence.
type Store interface {
	// Create allocates a fresh session with a collision-resistant id and
	// returns the id.
	Create(ctx context.Context) (string, error)

	// Get returns a copy of a session's state. Returns
	// domain.ErrSessionNotFound if the session was never created or was
	// evicted.
	Get(ctx context.Context, sessionID string) (domain.SessionState, error)

	// Update runs fn against the session's state as an atomic
	// read-modify-write. Concurrent updates to the same session are
	// serialized; updates to different sessions proceed independently.
	// If fn returns an error, its mutations are discarded. Externalized
	// implementations return domain.ErrStoreUnavailable on I/O failure.
	Update(ctx context.Context, sessionID string, fn func(*domain.SessionState) error) error

	// Remove discards a session's state.
	Remove(ctx context.Context, sessionID string) error

	// EvictIdle removes sessions whose last activity is older than the
	// given age and returns their ids.
	EvictIdle(ctx context.Context, olderThan time.Duration) ([]string, error)
}
