// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/phone"
	"github.com/dobalito/api/internal/platform/constants"
)

func newRedisLocker(t *testing.T) (*phone.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return phone.NewRedisLocker(client), server
}

/*
TestRedisLocker_Exclusive blocks a second holder until the first releases.
*/
func TestRedisLocker_Exclusive(t *testing.T) {
	locker, server := newRedisLocker(t)
	ctx := context.Background()
	lockKey := constants.RedisPrefixPhoneLock + testPhone

	release, err := locker.Lock(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, server.Exists(lockKey))

	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, testPhone)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.False(t, server.Exists(lockKey))

	second, err := locker.Lock(ctx, testPhone)
	require.NoError(t, err)
	second()
}

/*
TestRedisLocker_ConcurrentRelease calls release from several goroutines.
*/
func TestRedisLocker_ConcurrentRelease(t *testing.T) {
	locker, server := newRedisLocker(t)

	release, err := locker.Lock(context.Background(), testPhone)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release()
		}()
	}
	wg.Wait()

	assert.False(t, server.Exists(constants.RedisPrefixPhoneLock+testPhone))
}

/*
TestRedisLocker_StaleReleaseKeepsNewHolder ensures an expired holder cannot
delete a lock that was taken over after its TTL ran out.
*/
func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	locker, server := newRedisLocker(t)
	ctx := context.Background()
	lockKey := constants.RedisPrefixPhoneLock + testPhone

	stale, err := locker.Lock(ctx, testPhone)
	require.NoError(t, err)

	server.FastForward(10 * time.Second)
	require.False(t, server.Exists(lockKey))

	current, err := locker.Lock(ctx, testPhone)
	require.NoError(t, err)
	defer current()

	stale()
	assert.True(t, server.Exists(lockKey))
}

/*
TestEngine_RedisLockerRateLimitAcrossInstances runs two engines that share a
store and Redis, as two API instances would. The hourly ceiling holds under
concurrent requests for one phone.
*/
func TestEngine_RedisLockerRateLimitAcrossInstances(t *testing.T) {
	server := miniredis.RunT(t)
	store := phone.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	engines := make([]*phone.Engine, 2)
	for i := range engines {
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		engines[i] = phone.NewEngine(store, phone.NewRedisLocker(client), logger,
			phone.WithClock(func() time.Time { return now }),
			phone.WithGenerator(sequenceGenerator()),
		)
	}

	const requests = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		issued    int
		throttled int
	)
	for i := range requests {
		wg.Add(1)
		go func(engine *phone.Engine) {
			defer wg.Done()
			_, err := engine.RequestCode(context.Background(), testPhone)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued++
			case assert.ErrorIs(t, err, phone.ErrRateLimitExceeded):
				throttled++
			}
		}(engines[i%len(engines)])
	}
	wg.Wait()

	assert.Equal(t, phone.MaxCodesPerWindow, issued)
	assert.Equal(t, requests-phone.MaxCodesPerWindow, throttled)

	history, err := store.FindAllByPhone(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Len(t, history, phone.MaxCodesPerWindow)
}
