package session

import (
	"context"
	"log/slog"
	"time"
)

const cleanupInterval = 1 * time.Hour

// Cleaner removes session blobs that have not been touched within a TTL.
type Cleaner interface {
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)
}

// StartCleanupWorker runs a background goroutine that periodically removes
// expired session blobs from the store. It stops when ctx is cancelled.
func StartCleanupWorker(ctx context.Context, cleaner Cleaner, ttl time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session cleanup worker started", "interval", cleanupInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				removed, err := cleaner.CleanupExpiredSessions(ctx, ttl)
				if err != nil {
					slog.Error("Session cleanup sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("Session cleanup sweep complete", "removed", removed)
				}
			case <-ctx.Done():
				slog.Info("Session cleanup worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
