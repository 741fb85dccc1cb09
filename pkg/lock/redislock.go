package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

const (
	defaultTTL          = 10 * time.Second
	defaultRetryBackoff = 25 * time.Millisecond
)

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
	ExpireIfValue(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	LockKey(name string) string
}

// RedisLocker is a SET NX PX lock with a token-checked release, safe across API instances.
// The TTL is renewed every third of its length while the callback runs.
type RedisLocker struct {
	store        redisStore
	ttl          time.Duration
	retryBackoff time.Duration
	wait         time.Duration
	logg         *logger.Logger
}

type RedisOptions struct {
	TTL          time.Duration
	RetryBackoff time.Duration
	WaitTimeout  time.Duration
}

func NewRedisLocker(store redisStore, opts RedisOptions, logg *logger.Logger) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("lock: redis store required")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	return &RedisLocker{
		store:        store,
		ttl:          opts.TTL,
		retryBackoff: opts.RetryBackoff,
		wait:         opts.WaitTimeout,
		logg:         logg,
	}, nil
}

// WithLock runs fn while holding key. The lock is released even when fn fails.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}

	redisKey := l.store.LockKey(key)
	token := uuid.NewString()

	waitCtx, cancel := acquireContext(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.store.SetNX(waitCtx, redisKey, token, l.ttl)
		if err != nil {
			if waitCtx.Err() != nil {
				return notAcquired(ctx)
			}
			return err
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retryBackoff)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return notAcquired(ctx)
		case <-timer.C:
		}
	}

	defer l.release(ctx, redisKey, token)

	runCtx, lost := context.WithCancelCause(ctx)
	renewed := make(chan struct{})
	go l.keepAlive(runCtx, lost, redisKey, token, renewed)

	err := fn(runCtx)
	lost(nil)
	<-renewed
	if errors.Is(context.Cause(runCtx), ErrLockLost) {
		if err == nil {
			return ErrLockLost
		}
		return fmt.Errorf("%w: %w", ErrLockLost, err)
	}
	return err
}

// keepAlive extends the lock until ctx ends. When the key no longer holds
// token it cancels ctx with ErrLockLost. Failed round trips are retried on
// the next tick.
func (l *RedisLocker) keepAlive(ctx context.Context, lost context.CancelCauseFunc, key, token string, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		extended, err := l.store.ExpireIfValue(ctx, key, token, l.ttl)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			if l.logg != nil {
				l.logg.Warn(l.logg.WithField(ctx, "lock_key", key), "lock.renew_failed")
			}
		case !extended:
			if l.logg != nil {
				l.logg.Warn(l.logg.WithField(ctx, "lock_key", key), "lock.lost")
			}
			lost(ErrLockLost)
			return
		}
	}
}

func (l *RedisLocker) release(ctx context.Context, key, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	removed, err := l.store.DeleteIfValue(releaseCtx, key, token)
	if l.logg == nil {
		return
	}
	switch {
	case err != nil:
		l.logg.Error(l.logg.WithField(ctx, "lock_key", key), "lock.release_failed", err)
	case !removed:
		l.logg.Warn(l.logg.WithField(ctx, "lock_key", key), "lock.expired_before_release")
	}
}
