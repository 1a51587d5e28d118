// Package lock provides per-player locking so that one player's round and
// statistics are only ever modified by one goroutine at a time.
package lock

import (
	"context"
	"sync"
	"time"
)

// PlayerLock hands out one mutex per player id.
// The zero value is not usable; create it with NewPlayerLock.
type PlayerLock struct {
	locks sync.Map // map[int64]chan struct{}
}

// NewPlayerLock creates a new PlayerLock.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{}
}

// slot returns the one-element semaphore of a player, creating it on first use.
func (pl *PlayerLock) slot(playerID int64) chan struct{} {
	if v, ok := pl.locks.Load(playerID); ok {
		return v.(chan struct{})
	}
	actual, _ := pl.locks.LoadOrStore(playerID, make(chan struct{}, 1))
	return actual.(chan struct{})
}

// Lock blocks until the player's lock is held.
func (pl *PlayerLock) Lock(playerID int64) {
	pl.slot(playerID) <- struct{}{}
}

// Unlock releases the player's lock. Unlocking a player that is not
// locked is a no-op.
func (pl *PlayerLock) Unlock(playerID int64) {
	select {
	case <-pl.slot(playerID):
	default:
	}
}

// LockWithTimeout waits up to timeout for the lock. It reports false when the
// timeout passes or ctx is done first.
func (pl *PlayerLock) LockWithTimeout(ctx context.Context, playerID int64, timeout time.Duration) bool {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case pl.slot(playerID) <- struct{}{}:
		return true
	case <-timeoutCtx.Done():
		return false
	}
}

// WithLockContext runs fn while holding the player's lock, giving up with
// ErrLockTimeout if the lock is not acquired within timeout.
func (pl *PlayerLock) WithLockContext(ctx context.Context, playerID int64, timeout time.Duration, fn func() error) error {
	if !pl.LockWithTimeout(ctx, playerID, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer pl.Unlock(playerID)
	return fn()
}

// IsLocked reports whether the player's lock is currently held.
// The answer may be stale as soon as it is returned.
func (pl *PlayerLock) IsLocked(playerID int64) bool {
	v, ok := pl.locks.Load(playerID)
	if !ok {
		return false
	}
	return len(v.(chan struct{})) == 1
}
