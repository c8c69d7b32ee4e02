package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSerializesKey(t *testing.T) {
	locker := NewMemoryLocker()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(testCtx, "lock:company:a")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestMemoryLockerKeysAreIndependent(t *testing.T) {
	locker := NewMemoryLocker()

	unlockA, err := locker.Lock(testCtx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(testCtx, time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLockerHonoursContext(t *testing.T) {
	locker := NewMemoryLocker()

	unlock, err := locker.Lock(testCtx, "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(testCtx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	again, err := locker.Lock(testCtx, "a")
	require.NoError(t, err)
	again()
}

func TestMemoryLockerForgetsReleasedKeys(t *testing.T) {
	locker := NewMemoryLocker()

	for _, key := range []string{"a", "b", "c"} {
		unlock, err := locker.Lock(testCtx, key)
		require.NoError(t, err)
		unlock()
		unlock()
	}
	assert.Empty(t, locker.locks)

	unlock, err := locker.Lock(testCtx, "a")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(testCtx, 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locker.locks["a"].refs)

	unlock()
	assert.Empty(t, locker.locks)
}

func newTestRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, ttl), server
}

func TestRedisLockerExtendsHeldLock(t *testing.T) {
	locker, server := newTestRedisLocker(t, 300*time.Millisecond)
	key := "lock:company:a"

	unlock, err := locker.Lock(testCtx, key)
	require.NoError(t, err)

	server.FastForward(200 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return server.TTL(key) > 150*time.Millisecond
	}, 2*time.Second, 10*time.Millisecond, "the holder refreshes the ttl")

	server.FastForward(200 * time.Millisecond)
	assert.True(t, server.Exists(key), "a refreshed lock outlives its first ttl")

	ctx, cancel := context.WithTimeout(testCtx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, server.Exists(key))

	again, err := locker.Lock(testCtx, key)
	require.NoError(t, err)
	again()
}

func TestRedisLockerReleasesOnlyItsOwnKey(t *testing.T) {
	locker, server := newTestRedisLocker(t, time.Second)
	key := "lock:company:a"

	unlock, err := locker.Lock(testCtx, key)
	require.NoError(t, err)

	server.FastForward(2 * time.Second)
	require.False(t, server.Exists(key))
	require.NoError(t, server.Set(key, "other-instance"))

	unlock()
	got, err := server.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", got)
}

func TestNewRedisLockerDefaultsTTL(t *testing.T) {
	locker := NewRedisLocker(nil, 0)
	assert.Equal(t, defaultRedisLockTTL, locker.ttl)
}
