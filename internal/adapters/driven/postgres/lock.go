package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL advisory locks.
//
// Advisory locks are session-scoped, so each held lock pins the pool connection
// it was taken on until Release. Locks have no TTL: the ttl argument is ignored
// and Extend only checks ownership. If the connection drops the lock is released
// by the server.
//
// When the pool has a connection limit, at most half of it may be pinned by
// held locks. Past that Acquire reports the lock as busy instead of waiting
// for a connection.
//
// Redis locks are preferred when REDIS_URL is configured.
type AdvisoryLock struct {
	db    *DB
	slots chan struct{}

	mu sync.Mutex
	// conns maps held lock names to their session. A nil entry marks an
	// acquisition still waiting for its connection.
	conns map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	l := &AdvisoryLock{
		db:    db,
		conns: make(map[string]*sql.Conn),
	}
	if limit := maxHeldLocks(db); limit > 0 {
		l.slots = make(chan struct{}, limit)
	}
	return l
}

// maxHeldLocks returns how many sessions locks may pin, or 0 for no limit.
func maxHeldLocks(db *DB) int {
	if db == nil || db.DB == nil {
		return 0
	}
	open := db.Stats().MaxOpenConnections
	if open <= 0 {
		return 0
	}
	return max(1, open/2)
}

// hashLockName converts a lock name to a 64-bit advisory lock key (FNV-1a).
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("streamlink:lock:" + name))
	return int64(h.Sum64())
}

// Acquire attempts to acquire a named advisory lock without blocking on other holders.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if !l.reserve(name) {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		l.forget(name)
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(name)).Scan(&acquired); err != nil {
		conn.Close()
		l.forget(name)
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !acquired {
		conn.Close()
		l.forget(name)
		return false, nil
	}

	l.mu.Lock()
	l.conns[name] = conn
	l.mu.Unlock()
	return true, nil
}

// reserve claims name and a session slot for an acquisition.
func (l *AdvisoryLock) reserve(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.conns[name]; busy {
		return false
	}
	if l.slots != nil {
		select {
		case l.slots <- struct{}{}:
		default:
			return false
		}
	}
	l.conns[name] = nil
	return true
}

// forget drops name and frees its session slot.
func (l *AdvisoryLock) forget(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.conns[name]; !ok {
		return
	}
	delete(l.conns, name)
	if l.slots != nil {
		<-l.slots
	}
}

// Release releases a named advisory lock and returns its connection to the pool.
// Safe to call even if the lock is not held.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn := l.conns[name]
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	defer l.forget(name)
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend reports an error when the lock is not held by this instance.
// Advisory locks are held until released or the session ends, so there is
// no expiry to push out.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conns[name] == nil {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
