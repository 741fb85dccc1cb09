package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock could not be taken before the wait deadline.
var ErrNotAcquired = errors.New("lock: not acquired before deadline")

// ErrLockLost is the cancellation cause handed to the callback when the lock
// expired or changed hands while it was running.
var ErrLockLost = errors.New("lock: lost while held")

// Locker serializes work per key. Callers for different keys never contend.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// acquireContext bounds only the waiting phase; fn still runs on the caller's context.
func acquireContext(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, wait)
}

func notAcquired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrNotAcquired
}
