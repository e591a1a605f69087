package driven

import (
	"context"
	"time"
)

// DistributedLock serialises token refreshes and background sweeps across instances.
// Lock names are namespaced by the caller, e.g. "refresh:<user>:<platform>".
type DistributedLock interface {
	// Acquire takes the named lock for ttl. It reports false without error when
	// another holder owns it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops a lock held by this instance. Releasing an unheld or expired lock is a no-op.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock out to ttl. It fails when the lock is not held.
	// PostgreSQL advisory locks have no expiry, so there it only checks ownership.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping reports whether the lock backend is reachable.
	Ping(ctx context.Context) error
}
