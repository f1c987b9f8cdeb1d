// Package notify delivers finished session transcripts to external
// sinks. Delivery is fire-and-forget: a failing sink must never block or
// fail the chat exchange itself.
package notify

import (
	"context"

	"github.com/moyam/chatbot/internal/domain"
)

// Notifier receives a session's transcript when the session ends.
type Notifier interface {
	// Deliver hands off a transcript. Implementations must not block on
	// slow sinks; queue-and-return is the expected shape.
	Deliver(ctx context.Context, sessionID string, transcript []domain.Message) error

	// Close flushes any queued work.
	Close() error
}

// Noop discards transcripts.
type Noop struct{}

func (Noop) Deliver(context.Context, string, []domain.Message) error { return nil }
func (Noop) Close() error                                            { return nil }
