// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	stdctx "context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dobalito/api/internal/platform/constants"
)

const (
	// redisLockTTL bounds how long a crashed holder can block a phone.
	redisLockTTL = 5 * time.Second
	// redisLockRetry is the polling interval while the lock is held elsewhere.
	redisLockRetry = 50 * time.Millisecond
	// redisReleaseTimeout applies to the release call, which must run even if
	// the request context is already cancelled.
	redisReleaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a [Locker] shared by every API instance through Redis SET NX PX.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a distributed per-phone lock.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (locker *RedisLocker) Lock(context stdctx.Context, key string) (func(), error) {
	lockKey := constants.RedisPrefixPhoneLock + key
	token := uuid.NewString()

	ticker := time.NewTicker(redisLockRetry)
	defer ticker.Stop()

	for {
		acquired, err := locker.client.SetNX(context, lockKey, token, redisLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis_phone_lock_failed: %w: %w", ErrStorage, err)
		}
		if acquired {
			return locker.releaser(lockKey, token), nil
		}

		select {
		case <-ticker.C:
		case <-context.Done():
			return nil, context.Err()
		}
	}
}

func (locker *RedisLocker) releaser(lockKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := stdctx.WithTimeout(stdctx.Background(), redisReleaseTimeout)
			defer cancel()
			// A failed release only delays the next issuance until redisLockTTL.
			_ = releaseScript.Run(releaseCtx, locker.client, []string{lockKey}, token).Err()
		})
	}
}
