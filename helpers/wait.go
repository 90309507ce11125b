package helpers

import (
	"context"
	"time"
)

// SleepContext waits for d or until ctx is done, whichever comes first.
//
// Returns: nil after a full wait (or immediately when d <= 0 and ctx is alive); ctx.Err() when ctx ended first.
//
// Called from service.RelayWorker for idle and rebind backoffs and from service.Orchestrator before restarts.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
