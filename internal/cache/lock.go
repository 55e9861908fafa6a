package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is a best-effort, short-TTL mutual exclusion. Holding a lock never
// guarantees correctness on its own; callers must treat a failed acquire as
// "proceed without it".
type Locker interface {
	// TryLock attempts to take key for ttl, retrying until wait elapses.
	// ok is false when the lock could not be obtained; release is always
	// safe to call.
	TryLock(ctx context.Context, key string, ttl, wait time.Duration) (release func(), ok bool)
}

// NoopLocker is used when no lock service is configured.
type NoopLocker struct{}

func (NoopLocker) TryLock(context.Context, string, time.Duration, time.Duration) (func(), bool) {
	return func() {}, false
}

// only the owner token may delete the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockRetryInterval = 25 * time.Millisecond

// TryLock implements Locker with SET NX PX. Redis errors are treated the same
// as contention: the caller simply proceeds unlocked.
func (r *RedisCache) TryLock(ctx context.Context, key string, ttl, wait time.Duration) (func(), bool) {
	key = lockKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err == nil && ok {
			return func() {
				// detached from the request so a cancelled caller still releases
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
			}, true
		}
		if err != nil || time.Now().Add(lockRetryInterval).After(deadline) {
			return func() {}, false
		}

		select {
		case <-ctx.Done():
			return func() {}, false
		case <-time.After(lockRetryInterval):
		}
	}
}
