package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// errLeaseLost is the cancellation cause of a lease whose lock could not be extended.
var errLeaseLost = errors.New("distributed lock lost")

// minHeartbeat bounds how often a lease extends its lock.
const minHeartbeat = 10 * time.Millisecond

// holdLease keeps a held distributed lock alive while work runs under it.
// It extends name to ttl every ttl/3. If an extension fails the returned
// context is cancelled with errLeaseLost as its cause, so the work stops
// before another instance can take the lock over.
// The returned stop func ends the heartbeat; call it before releasing the lock.
func holdLease(ctx context.Context, lock driven.DistributedLock, name string, ttl time.Duration, log *slog.Logger) (context.Context, func()) {
	leaseCtx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})

	interval := ttl / 3
	if interval < minHeartbeat {
		interval = minHeartbeat
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-leaseCtx.Done():
				return
			case <-ticker.C:
				if err := lock.Extend(leaseCtx, name, ttl); err != nil {
					if leaseCtx.Err() != nil {
						return
					}
					log.Warn("lost distributed lock, abandoning work", "lock", name, "error", err)
					cancel(fmt.Errorf("%w: %s: %w", errLeaseLost, name, err))
					return
				}
			}
		}
	}()

	return leaseCtx, func() {
		close(stop)
		<-done
		cancel(nil)
	}
}

// leaseLost reports whether ctx was cancelled because its lease was lost.
func leaseLost(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errLeaseLost)
}
