package session

import (
	"context"
	"log/slog"
	"time"
)

const ttlWorkerInterval = 1 * time.Minute

// EvictCallback is called for each session removed by the TTL worker,
// so the transport can close the matching connection.
type EvictCallback func(sessionID string)

// StartTTLWorker runs a background goroutine that periodically sweeps
// idle sessions out of the store. Evicted clients are not notified; a
// stale client's next message yields a session-not-found error, which
// the gateway turns into a reconnect prompt.
func StartTTLWorker(ctx context.Context, store Store, ttl time.Duration, onEvict EvictCallback) {
	ticker := time.NewTicker(ttlWorkerInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session TTL worker started", "interval", ttlWorkerInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepIdleSessions(ctx, store, ttl, onEvict)
			case <-ctx.Done():
				slog.Info("Session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepIdleSessions(ctx context.Context, store Store, ttl time.Duration, onEvict EvictCallback) {
	evicted, err := store.EvictIdle(ctx, ttl)
	if err != nil {
		slog.Error("TTL worker failed to evict idle sessions", "error", err)
		return
	}
	if len(evicted) == 0 {
		return
	}

	slog.Info("TTL worker evicted idle sessions", "count", len(evicted))
	for _, id := range evicted {
		if onEvict != nil {
			onEvict(id)
		}
	}
}
