// internal/aicache/lock.go
package aicache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockNamespace = "ai_answer_lock"

// ErrLockNotHeld is returned by Release when the lease expired or another
// holder owns the key.
var ErrLockNotHeld = errors.New("lock not held")

// LockKey is the lock key guarding a cache key.
func LockKey(cacheKey string) string {
	return lockNamespace + cacheKey
}

// Lock identifies one acquisition. Token is the holder identity.
type Lock struct {
	Key   string
	Token string
}

// Locker is a leased mutual-exclusion capability.
type Locker interface {
	// TryAcquire returns nil, nil when key is still held by someone else after wait.
	TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (*Lock, error)
	// Release frees the lock only if it is still held by lock.Token.
	Release(ctx context.Context, lock *Lock) error
}

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker implements Locker with SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	rdb           redis.Cmdable
	retryInterval time.Duration
}

func NewRedisLocker(rdb redis.Cmdable, retryInterval time.Duration) *RedisLocker {
	if retryInterval <= 0 {
		retryInterval = 100 * time.Millisecond
	}
	return &RedisLocker{rdb: rdb, retryInterval: retryInterval}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (*Lock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return &Lock{Key: key, Token: token}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		if err := sleepCtx(ctx, min(l.retryInterval, remaining)); err != nil {
			return nil, err
		}
	}
}

func (l *RedisLocker) Release(ctx context.Context, lock *Lock) error {
	n, err := l.rdb.Eval(ctx, releaseScript, []string{lock.Key}, lock.Token).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", lock.Key, err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
