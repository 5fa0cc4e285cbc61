//go:build integration

package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"pet-pedigree/internal/ports/locks"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	client := newRedis(t)
	l := NewLocker(client, 5*time.Second, WithRetryWait(5*time.Millisecond))

	var inside, violations int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "child-1", "parent-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.AddInt32(&violations, 1)
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	require.Zero(t, violations)

	n, err := client.Exists(context.Background(), keyPrefix+"child-1", keyPrefix+"parent-1").Result()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedisLocker_TimeoutAndForeignRelease(t *testing.T) {
	client := newRedis(t)
	l := NewLocker(client, 5*time.Second, WithRetryWait(5*time.Millisecond))

	unlock, err := l.Lock(context.Background(), "pet-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "pet-1")
	require.ErrorIs(t, err, locks.ErrNotAcquired)

	// otro token no puede liberar nuestro lock
	require.NoError(t, releaseScript.Run(context.Background(), client, []string{keyPrefix + "pet-1"}, "other").Err())
	val, err := client.Get(context.Background(), keyPrefix+"pet-1").Result()
	require.NoError(t, err)
	require.NotEqual(t, "other", val)

	unlock()
	_, err = client.Get(context.Background(), keyPrefix+"pet-1").Result()
	require.ErrorIs(t, err, redis.Nil)
}
